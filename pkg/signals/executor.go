package signals

import "sync"

// Executor is the asynchronous substrate task bodies run on. The host
// decides scheduling; the engine only requires that fn eventually runs, on
// any goroutine other than the one driving passes.
type Executor interface {
	Go(fn func())
}

// GoExecutor runs each body on its own goroutine. It is the default.
type GoExecutor struct{}

// Go implements Executor.
func (GoExecutor) Go(fn func()) {
	go fn()
}

// ManualExecutor queues bodies until they are run explicitly, giving tests
// and simulations deterministic control over task timing.
type ManualExecutor struct {
	mu    sync.Mutex
	queue []func()
}

// Go implements Executor by queueing fn.
func (m *ManualExecutor) Go(fn func()) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.queue = append(m.queue, fn)
}

// RunNext runs the oldest queued body on the calling goroutine. It reports
// false when the queue is empty.
func (m *ManualExecutor) RunNext() bool {
	m.mu.Lock()
	if len(m.queue) == 0 {
		m.mu.Unlock()
		return false
	}
	fn := m.queue[0]
	m.queue = m.queue[1:]
	m.mu.Unlock()

	fn()
	return true
}

// RunAll runs queued bodies until the queue is empty, including bodies
// queued while draining, and returns how many ran.
func (m *ManualExecutor) RunAll() int {
	n := 0
	for m.RunNext() {
		n++
	}
	return n
}

// Pending returns the number of queued bodies.
func (m *ManualExecutor) Pending() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.queue)
}
