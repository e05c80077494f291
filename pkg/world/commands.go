package world

import "sync"

// Command is a deferred mutation applied at the next tick's flush point.
type Command func(*World)

// commandQueue accumulates commands between ticks. It carries its own lock
// so effect bodies and outside goroutines can defer work while a pass runs.
type commandQueue struct {
	mu   sync.Mutex
	cmds []Command
}

func (q *commandQueue) push(cmd Command) {
	if cmd == nil {
		return
	}
	q.mu.Lock()
	q.cmds = append(q.cmds, cmd)
	q.mu.Unlock()
}

// drain takes the current batch. Commands deferred while the batch is
// applied land in the next one.
func (q *commandQueue) drain() []Command {
	q.mu.Lock()
	defer q.mu.Unlock()
	if len(q.cmds) == 0 {
		return nil
	}
	out := q.cmds
	q.cmds = nil
	return out
}

func (q *commandQueue) pending() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.cmds)
}
