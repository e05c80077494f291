// Package signals implements a lazy reactive dependency engine for
// entity/component hosts: State cells, memoized Computed derivations,
// synchronous Effects with exclusive host access, and asynchronous Tasks
// that report back through deferred mutation batches, all driven by
// discrete propagation passes.
package signals

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	mapset "github.com/deckarep/golang-set/v2"
)

// Engine owns the node arena, dependency graph, send queue and task
// registry. Hosts allocate node handles, wire nodes through the Create
// methods, stage writes with Send/Trigger, and drive evaluation by calling
// ProcessPending from their tick loop.
//
// Reads take a shared lock and may run concurrently with each other (the
// inspector does); Create/Remove/ProcessPending serialize on the engine
// lock. Send and Trigger only touch the queue and are safe from anywhere,
// including effect bodies and task goroutines.
type Engine struct {
	mu  sync.RWMutex
	log *slog.Logger

	graph    *graph
	queue    *sendQueue
	registry *taskRegistry
	obs      PassObserver

	// carry holds nodes left dirty across passes: freshly created nodes
	// awaiting their first run and tasks deduped while running.
	carry mapset.Set[Handle]

	maxDepth   int
	eagerCycle bool
	diagLimit  int
	diags      *diagRing
	executor   Executor
	now        func() time.Time

	passNum uint64

	baseCtx context.Context
	cancel  context.CancelFunc
	closed  bool
}

// New creates an engine. The zero configuration uses slog.Default, the
// goroutine executor, an eager cycle check and DefaultMaxEvalDepth.
func New(opts ...Option) *Engine {
	e := &Engine{
		log:        slog.Default(),
		graph:      newGraph(),
		queue:      newSendQueue(),
		obs:        BaseObserver{},
		carry:      mapset.NewThreadUnsafeSet[Handle](),
		maxDepth:   DefaultMaxEvalDepth,
		eagerCycle: true,
		diagLimit:  defaultDiagnosticLimit,
		executor:   GoExecutor{},
		now:        time.Now,
	}
	for _, opt := range opts {
		opt(e)
	}
	e.diags = newDiagRing(e.diagLimit)
	e.registry = newTaskRegistry(e.executor)
	e.baseCtx, e.cancel = context.WithCancel(context.Background())
	return e
}

// CreateState registers a mutable cell under h with its initial value
// committed. State nodes change only through Send/Trigger.
func (e *Engine) CreateState(h Handle, initial any, opts ...NodeOption) error {
	n := &node{kind: KindState, value: ValueOf(initial)}
	return e.createNode(h, n, nil, nil, opts)
}

// CreateComputed registers a pure derivation under h. Sources are read as
// arguments in the given order; the node starts dirty so its initial value
// is derived on the next pass.
func (e *Engine) CreateComputed(h Handle, fn ComputeFunc, sources []Handle, opts ...NodeOption) error {
	if fn == nil {
		return fmt.Errorf("signals: CreateComputed %s: nil body", h)
	}
	n := &node{kind: KindComputed, compute: fn, dirty: true}
	return e.createNode(h, n, sources, nil, opts)
}

// CreateEffect registers a synchronous reaction under h. It starts dirty,
// so the body runs once on the next pass and after that whenever a source
// or trigger changes.
func (e *Engine) CreateEffect(h Handle, fn EffectFunc, sources, triggers []Handle, opts ...NodeOption) error {
	if fn == nil {
		return fmt.Errorf("signals: CreateEffect %s: nil body", h)
	}
	n := &node{kind: KindEffect, effect: fn, dirty: true}
	return e.createNode(h, n, sources, triggers, opts)
}

// CreateTask registers an asynchronous body under h. Unlike effects, tasks
// do not run at creation; the first spawn happens when a source or trigger
// dirties the node.
func (e *Engine) CreateTask(h Handle, fn TaskFunc, sources, triggers []Handle, opts ...NodeOption) error {
	if fn == nil {
		return fmt.Errorf("signals: CreateTask %s: nil body", h)
	}
	n := &node{kind: KindTask, task: fn}
	return e.createNode(h, n, sources, triggers, opts)
}

func (e *Engine) createNode(h Handle, n *node, sources, triggers []Handle, opts []NodeOption) error {
	if !h.Valid() {
		return fmt.Errorf("%w: %s", ErrInvalidHandle, h)
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	if e.closed {
		return ErrClosed
	}
	if e.graph.get(h) != nil {
		return fmt.Errorf("%w: %s", ErrNodeExists, h)
	}

	n.handle = h
	n.triggers = mapset.NewThreadUnsafeSet[Handle]()
	for _, opt := range opts {
		opt(n)
	}
	e.graph.insert(n)

	for _, s := range sources {
		if err := e.graph.addEdge(s, h, EdgeSource, e.eagerCycle); err != nil {
			e.graph.removeNode(h)
			return fmt.Errorf("signals: create %s %s: %w", n.kind, h, err)
		}
	}
	for _, t := range triggers {
		if n.triggers.Contains(t) {
			continue
		}
		if err := e.graph.addEdge(t, h, EdgeTrigger, e.eagerCycle); err != nil {
			e.graph.removeNode(h)
			return fmt.Errorf("signals: create %s %s: %w", n.kind, h, err)
		}
	}

	if n.dirty {
		e.carry.Add(h)
	}
	e.log.Debug("node created", "node", h, "kind", n.kind.String(), "label", n.label,
		"sources", len(sources), "triggers", len(triggers))
	return nil
}

// AddEdge wires an additional dependency into an existing node: from
// becomes a source (appended after the node's current sources) or a
// trigger of to. The dependent is marked dirty so the new wiring takes
// effect on the next pass. With the eager check enabled an edge that would
// close a cycle is rejected with ErrCycleDetected.
func (e *Engine) AddEdge(from, to Handle, kind EdgeKind) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.closed {
		return ErrClosed
	}
	n := e.graph.get(to)
	if n == nil {
		return fmt.Errorf("%w: dependent %s", ErrNoSuchNode, to)
	}
	if n.kind == KindState {
		return fmt.Errorf("signals: state node %s cannot have dependencies", to)
	}
	if kind == EdgeTrigger && n.triggers.Contains(from) {
		return nil
	}
	if err := e.graph.addEdge(from, to, kind, e.eagerCycle); err != nil {
		return err
	}
	n.dirty = true
	e.carry.Add(to)
	return nil
}

// Send stages a value for h. Sends collapse last-write-wins per node until
// the next pass; committing a value equal to the current one does not
// propagate.
func (e *Engine) Send(h Handle, v any) {
	e.queue.push(h, v, false)
}

// Trigger stages a forced value for h: dependents re-run even when the
// committed value is unchanged. Use a nil value for unit-style signals.
func (e *Engine) Trigger(h Handle, v any) {
	e.queue.push(h, v, true)
}

// Remove deletes h immediately, cascading edge removal. A running task's
// instance is cancelled and its batch discarded when the completion is
// observed. Reports whether a node was removed.
func (e *Engine) Remove(h Handle) bool {
	e.mu.Lock()
	defer e.mu.Unlock()

	n := e.graph.get(h)
	if n == nil {
		return false
	}
	if n.kind == KindTask && n.running {
		e.registry.cancel(h)
	}
	e.graph.removeNode(h)
	e.carry.Remove(h)
	e.log.Debug("node removed", "node", h, "kind", n.kind.String(), "label", n.label)
	return true
}

// Value returns h's committed cell. The read is pure: a dirty Computed
// reports its last committed (possibly stale) value until the next pass
// settles it.
func (e *Engine) Value(h Handle) (Value, bool) {
	e.mu.RLock()
	defer e.mu.RUnlock()
	n := e.graph.get(h)
	if n == nil {
		return Value{}, false
	}
	return n.value, true
}

// KindOf returns h's node kind.
func (e *Engine) KindOf(h Handle) (Kind, bool) {
	e.mu.RLock()
	defer e.mu.RUnlock()
	n := e.graph.get(h)
	if n == nil {
		return 0, false
	}
	return n.kind, true
}

// Contains reports whether h names a live node.
func (e *Engine) Contains(h Handle) bool {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.graph.get(h) != nil
}

// Running reports whether h is a task with an instance in flight.
func (e *Engine) Running(h Handle) bool {
	e.mu.RLock()
	defer e.mu.RUnlock()
	n := e.graph.get(h)
	return n != nil && n.running
}

// Dirty reports whether h is marked for re-evaluation.
func (e *Engine) Dirty(h Handle) bool {
	e.mu.RLock()
	defer e.mu.RUnlock()
	n := e.graph.get(h)
	return n != nil && n.dirty
}

// LastFailure returns h's most recent diagnostic, if any. The record is
// sticky: it survives later successful runs, with Pass telling them apart.
func (e *Engine) LastFailure(h Handle) (Diagnostic, bool) {
	e.mu.RLock()
	defer e.mu.RUnlock()
	n := e.graph.get(h)
	if n == nil || n.failure == nil {
		return Diagnostic{}, false
	}
	return *n.failure, true
}

// Diagnostics returns the engine-wide ring of recent failures, oldest
// first.
func (e *Engine) Diagnostics() []Diagnostic {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.diags.snapshot()
}

// DependentsOf returns the nodes h feeds, in handle order.
func (e *Engine) DependentsOf(h Handle) []Handle {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.graph.dependentsOf(h)
}

// DependenciesOf returns h's dependencies with their edge kinds: sources
// in argument order, then triggers.
func (e *Engine) DependenciesOf(h Handle) []Dependency {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.graph.dependenciesOf(h)
}

// Len returns the number of live nodes.
func (e *Engine) Len() int {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.graph.len()
}

// Pass returns the number of completed passes.
func (e *Engine) Pass() uint64 {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.passNum
}

// PendingSends reports how many distinct nodes have staged sends.
func (e *Engine) PendingSends() int {
	return e.queue.pendingCount()
}

// InFlight reports how many task instances are live.
func (e *Engine) InFlight() int {
	return e.registry.inFlightCount()
}

// Fingerprint hashes the graph topology. It moves only when nodes or
// edges do, so pollers can skip unchanged snapshots.
func (e *Engine) Fingerprint() uint64 {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.graph.fingerprint()
}

// Close cancels in-flight task contexts and rejects further mutation.
// Queued sends and completions are dropped; reads keep working.
func (e *Engine) Close() {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.closed {
		return
	}
	e.closed = true
	e.cancel()
	e.registry.close()
	e.log.Debug("engine closed", "nodes", e.graph.len(), "passes", e.passNum)
}
