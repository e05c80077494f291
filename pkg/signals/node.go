package signals

import (
	"context"

	mapset "github.com/deckarep/golang-set/v2"
)

// Kind classifies a signal node.
type Kind uint8

const (
	// KindState is a mutable cell written through the send queue.
	KindState Kind = iota

	// KindComputed is a pure derivation over its sources, memoized so it
	// evaluates at most once per pass.
	KindComputed

	// KindEffect is a synchronous reaction that runs inside the pass with
	// exclusive access to host state.
	KindEffect

	// KindTask is an asynchronous body that runs off the pass on the
	// engine's executor and reports back through a deferred batch.
	KindTask
)

// String returns a human-readable name for the node kind.
func (k Kind) String() string {
	switch k {
	case KindState:
		return "state"
	case KindComputed:
		return "computed"
	case KindEffect:
		return "effect"
	case KindTask:
		return "task"
	default:
		return "unknown"
	}
}

// ComputeFunc is the body of a Computed node. Arguments arrive in declared
// source order; an argument is an empty Value when its source has never
// committed. The body must be pure and must not block.
type ComputeFunc func(args []Value) (any, error)

// EffectFunc is the body of an Effect node. It runs synchronously inside a
// pass, during the window where nothing else mutates the host state it
// touches, and must return quickly. Host mutations happen directly here;
// anything aimed at other nodes goes through Send/Trigger.
type EffectFunc func(args []Value) error

// TaskFunc is the body of a Task node. It runs concurrently with passes and
// must not touch host state; results travel only through the returned
// batch. ctx is cancelled when the node is removed or the engine closes.
type TaskFunc func(ctx context.Context, args []Value) (Batch, error)

// Mutation is one state-mutation request inside a deferred batch.
type Mutation struct {
	Target Handle
	Value  any
	Force  bool
}

// Batch is the ordered sequence of mutations a task body hands back. The
// registry enqueues it into the send queue when the completion is observed,
// so it takes effect on the following pass.
type Batch []Mutation

// Send appends a plain send of v to target. Equal values do not propagate.
func (b *Batch) Send(target Handle, v any) {
	*b = append(*b, Mutation{Target: target, Value: v})
}

// Trigger appends a forced send of v to target, propagating even when the
// committed value is unchanged.
func (b *Batch) Trigger(target Handle, v any) {
	*b = append(*b, Mutation{Target: target, Value: v, Force: true})
}

// node is one record in the engine's arena.
type node struct {
	handle Handle
	kind   Kind
	label  string

	// value is the last committed value; next stages a pending value
	// between send commit and evaluation.
	value Value
	next  Value

	// dirty marks a dependency change since the last evaluation/commit.
	dirty bool

	// running dedups concurrent task instances; only ever set on KindTask.
	running bool

	// sources are read as evaluation arguments, position-significant.
	// triggers cause re-evaluation without being read.
	sources  []Handle
	triggers mapset.Set[Handle]

	compute ComputeFunc
	effect  EffectFunc
	task    TaskFunc

	// equal overrides the default value equality for change detection.
	equal func(a, b any) bool

	// resolving guards against re-entrant resolution of the same node
	// within a pass.
	resolving bool

	// failure is the most recent diagnostic recorded for this node.
	failure *Diagnostic
}

// equals applies the node's equality override, falling back to the shared
// cell comparison.
func (n *node) equals(a, b Value) bool {
	if n.equal != nil {
		if a.valid != b.valid {
			return false
		}
		if !a.valid {
			return true
		}
		return n.equal(a.data, b.data)
	}
	return valueEquals(a, b)
}
