package signals

import "errors"

// ErrCycleDetected is reported when an edge would close a dependency cycle,
// or when an evaluation chain exceeds the configured depth limit (the
// runtime symptom of a cycle the eager check was disabled for).
//
// Structural by nature: the engine never retries a cycle on its own. Fix
// the graph, then dirty the node again.
var ErrCycleDetected = errors.New("signals: cycle detected")

// ErrUnresolvedDependency is reported when a source handle no longer names
// a live node. The reading node fails on every evaluation until the stale
// binding is removed, typically by removing and recreating the reader.
var ErrUnresolvedDependency = errors.New("signals: unresolved dependency")

// ErrEvaluationFailed wraps a typed failure returned (or a panic recovered)
// from a node body. The failure is contained: the node keeps its previous
// committed value and siblings are unaffected.
var ErrEvaluationFailed = errors.New("signals: evaluation failed")

// ErrNodeExists is returned when creating a node under a handle that is
// already occupied.
var ErrNodeExists = errors.New("signals: node already exists")

// ErrNoSuchNode is returned when an operation names a handle with no live
// node behind it.
var ErrNoSuchNode = errors.New("signals: no such node")

// ErrTerminalNode is returned when an effect or task node is offered as a
// source or trigger. Effect and Task nodes are propagation targets only;
// nothing downstream may read or depend on them.
var ErrTerminalNode = errors.New("signals: effect and task nodes cannot be depended on")

// ErrNoValue is reported by typed reads of a cell that has never committed.
var ErrNoValue = errors.New("signals: no committed value")

// ErrTypeMismatch is reported by typed reads when the cell holds a value of
// another type.
var ErrTypeMismatch = errors.New("signals: value type mismatch")

// ErrInvalidHandle is returned when the zero handle (or any handle with a
// zero generation) is used to create a node.
var ErrInvalidHandle = errors.New("signals: invalid handle")

// ErrClosed is returned by mutating operations on a closed engine.
var ErrClosed = errors.New("signals: engine closed")
