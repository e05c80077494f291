package signals

import "sync"

// sendEntry is one pending send after collapse: the latest value for the
// target plus a force bit that survives later plain sends.
type sendEntry struct {
	target Handle
	value  any
	force  bool
}

// sendQueue accumulates sends between passes. Entries for the same target
// collapse last-write-wins while keeping the target's first-arrival
// position, so draining yields at most one entry per node in a stable
// order. The queue carries its own lock: hosts and task completions may
// enqueue from outside the pass.
type sendQueue struct {
	mu      sync.Mutex
	order   []Handle
	pending map[Handle]sendEntry
}

func newSendQueue() *sendQueue {
	return &sendQueue{pending: make(map[Handle]sendEntry)}
}

// push stages a send. A forced push keeps its force bit through any later
// collapse, so a trigger followed by a plain send still propagates.
func (q *sendQueue) push(target Handle, v any, force bool) {
	q.mu.Lock()
	defer q.mu.Unlock()

	if prev, ok := q.pending[target]; ok {
		q.pending[target] = sendEntry{target: target, value: v, force: force || prev.force}
		return
	}
	q.order = append(q.order, target)
	q.pending[target] = sendEntry{target: target, value: v, force: force}
}

// drain removes and returns the collapsed entries in first-arrival order.
func (q *sendQueue) drain() []sendEntry {
	q.mu.Lock()
	defer q.mu.Unlock()

	if len(q.order) == 0 {
		return nil
	}
	out := make([]sendEntry, 0, len(q.order))
	for _, h := range q.order {
		out = append(out, q.pending[h])
	}
	q.order = q.order[:0]
	clear(q.pending)
	return out
}

// pendingCount reports how many distinct nodes have staged sends.
func (q *sendQueue) pendingCount() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.pending)
}
