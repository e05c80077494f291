package signals

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
)

// TaskRun identifies one asynchronous task instance.
type TaskRun struct {
	ID        uuid.UUID `json:"id"`
	Node      Handle    `json:"node"`
	StartedAt time.Time `json:"startedAt"`
}

// taskCompletion is what a finished body hands back to the poll point.
type taskCompletion struct {
	run   TaskRun
	batch Batch
	err   error
	dur   time.Duration
}

// inflightRun tracks a live instance so node removal can cancel it.
type inflightRun struct {
	run    TaskRun
	cancel context.CancelFunc
}

// taskRegistry spawns task bodies on the executor and collects their
// completions for the engine's per-pass poll point. Completed bodies whose
// context was cancelled (node removed, engine closed) drop their result
// instead of blocking on a full channel.
type taskRegistry struct {
	mu       sync.Mutex
	executor Executor
	done     chan taskCompletion
	inflight map[Handle]inflightRun
}

func newTaskRegistry(ex Executor) *taskRegistry {
	return &taskRegistry{
		executor: ex,
		done:     make(chan taskCompletion, 64),
		inflight: make(map[Handle]inflightRun),
	}
}

// spawn hands the body to the executor and records the run.
func (r *taskRegistry) spawn(parent context.Context, h Handle, fn TaskFunc, args []Value, now func() time.Time) TaskRun {
	ctx, cancel := context.WithCancel(parent)
	run := TaskRun{ID: uuid.New(), Node: h, StartedAt: now()}

	r.mu.Lock()
	r.inflight[h] = inflightRun{run: run, cancel: cancel}
	r.mu.Unlock()

	r.executor.Go(func() {
		started := time.Now()
		batch, err := invokeTask(ctx, fn, args)
		c := taskCompletion{run: run, batch: batch, err: err, dur: time.Since(started)}
		select {
		case r.done <- c:
		default:
			// Cancelled runs discard their batch either way; waiting on the
			// context keeps the goroutine from blocking forever on a full
			// channel nobody drains.
			select {
			case r.done <- c:
			case <-ctx.Done():
			}
		}
	})
	return run
}

// cancel stops tracking h's instance and cancels its context. The body may
// still finish; its completion is discarded at the poll point.
func (r *taskRegistry) cancel(h Handle) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if rh, ok := r.inflight[h]; ok {
		rh.cancel()
		delete(r.inflight, h)
	}
}

// poll drains completions observed so far without blocking.
func (r *taskRegistry) poll() []taskCompletion {
	var out []taskCompletion
	for {
		select {
		case c := <-r.done:
			r.mu.Lock()
			delete(r.inflight, c.run.Node)
			r.mu.Unlock()
			out = append(out, c)
		default:
			return out
		}
	}
}

// inFlightCount reports how many instances are live.
func (r *taskRegistry) inFlightCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.inflight)
}

// close cancels every live instance.
func (r *taskRegistry) close() {
	r.mu.Lock()
	defer r.mu.Unlock()
	for h, rh := range r.inflight {
		rh.cancel()
		delete(r.inflight, h)
	}
}

// invokeTask runs a task body, converting a panic into an error so a bad
// body cannot take the engine down from another goroutine.
func invokeTask(ctx context.Context, fn TaskFunc, args []Value) (batch Batch, err error) {
	defer func() {
		if rec := recover(); rec != nil {
			batch = nil
			err = fmt.Errorf("panic: %v", rec)
		}
	}()
	return fn(ctx, args)
}

// dispatchTask runs the eager step for a dirty task node: dedup against a
// running instance, or assemble arguments and spawn.
func (e *Engine) dispatchTask(n *node, stats *PassStats) {
	if n.running {
		// Dedup: the node stays dirty and carries over, so exactly one
		// re-run happens once the live instance completes.
		e.carry.Add(n.handle)
		stats.TasksDeduped++
		e.obs.TaskDeduped(n.handle)
		e.log.Debug("task dedup", "node", n.handle, "label", n.label)
		return
	}

	args, argErr := e.resolveArgs(n, stats)
	n.dirty = false
	if argErr != nil {
		e.fail(n, argErr, stats)
		return
	}

	n.running = true
	run := e.registry.spawn(e.baseCtx, n.handle, n.task, args, e.now)
	stats.TasksSpawned++
	e.obs.TaskStarted(n.handle, run)
	e.log.Debug("task spawned", "node", n.handle, "label", n.label, "run", run.ID)
}

// applyCompletion folds one observed completion back into the engine:
// clear running, enqueue the batch for the next pass, keep the node dirty
// if it was re-triggered while the instance ran.
func (e *Engine) applyCompletion(c taskCompletion, stats *PassStats) {
	e.obs.TaskCompleted(c.run.Node, c.run, c.dur, c.err)

	n := e.graph.get(c.run.Node)
	if n == nil {
		e.log.Debug("completion for removed task discarded", "node", c.run.Node, "run", c.run.ID)
		return
	}

	n.running = false
	if c.err != nil {
		e.fail(n, fmt.Errorf("%w: %w", ErrEvaluationFailed, c.err), stats)
	} else {
		for _, m := range c.batch {
			e.queue.push(m.Target, m.Value, m.Force)
		}
	}

	if n.dirty {
		// Re-triggered while running: reconsider on the next pass.
		e.carry.Add(n.handle)
	}
	e.log.Debug("task completed", "node", n.handle, "label", n.label,
		"run", c.run.ID, "mutations", len(c.batch), "err", c.err)
}
