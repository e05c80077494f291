package world

import (
	"context"
	"errors"
	"fmt"

	"github.com/axon-dev/axon/pkg/signals"
)

// Node is any signal primitive addressable by entity. Triggers accept any
// Node; typed argument wiring wants a Readable.
type Node interface {
	Handle() Entity
}

// Readable is a typed value source: a state or computed cell of T.
type Readable[T any] interface {
	Node
	Get() (T, error)
}

// BuildOption configures node construction.
type BuildOption func(*buildSpec)

type buildSpec struct {
	triggers []Entity
	nodeOpts []signals.NodeOption
}

// WithTriggers wires dependencies that re-run the node without being read.
func WithTriggers(nodes ...Node) BuildOption {
	return func(s *buildSpec) {
		for _, n := range nodes {
			if n != nil {
				s.triggers = append(s.triggers, n.Handle())
			}
		}
	}
}

// WithLabel names the node in logs, diagnostics and inspector frames.
func WithLabel(label string) BuildOption {
	return func(s *buildSpec) {
		s.nodeOpts = append(s.nodeOpts, signals.WithLabel(label))
	}
}

// WithEquals overrides change detection for the node's committed value.
func WithEquals(fn func(a, b any) bool) BuildOption {
	return func(s *buildSpec) {
		s.nodeOpts = append(s.nodeOpts, signals.WithEquals(fn))
	}
}

func applyBuild(opts []BuildOption) buildSpec {
	var s buildSpec
	for _, opt := range opts {
		opt(&s)
	}
	return s
}

// State is a typed mutable cell.
type State[T any] struct {
	w *World
	h Entity
}

// Handle returns the entity the cell lives on.
func (s *State[T]) Handle() Entity { return s.h }

// Get reads the last committed value.
func (s *State[T]) Get() (T, error) { return Read[T](s.w, s.h) }

// Send stages v for the next tick. Equal values do not propagate.
func (s *State[T]) Send(v T) { s.w.engine.Send(s.h, v) }

// Trigger stages v and forces propagation even when v equals the committed
// value.
func (s *State[T]) Trigger(v T) { s.w.engine.Trigger(s.h, v) }

// Unit is the payload of a payload-free signal.
type Unit struct{}

// Signal is a unit-valued cell used purely for notification. Because a
// unit never differs from itself, Send forces propagation instead of
// relying on change detection.
type Signal struct {
	w *World
	h Entity
}

// Handle returns the entity the signal lives on.
func (s *Signal) Handle() Entity { return s.h }

// Send fires the signal. Every send reaches downstream nodes.
func (s *Signal) Send() { s.w.engine.Trigger(s.h, Unit{}) }

// Computed is a typed derived cell.
type Computed[T any] struct {
	w *World
	h Entity
}

// Handle returns the entity the cell lives on.
func (c *Computed[T]) Handle() Entity { return c.h }

// Get reads the last committed derivation. During a pass a dirty cell
// reports its previous value until the pass settles it.
func (c *Computed[T]) Get() (T, error) { return Read[T](c.w, c.h) }

// Effect is a synchronous reaction bound to an entity.
type Effect struct {
	w *World
	h Entity
}

// Handle returns the entity the effect lives on.
func (e *Effect) Handle() Entity { return e.h }

// Task is an asynchronous worker bound to an entity.
type Task struct {
	w *World
	h Entity
}

// Handle returns the entity the task lives on.
func (t *Task) Handle() Entity { return t.h }

// Running reports whether an instance is in flight.
func (t *Task) Running() bool { return t.w.engine.Running(t.h) }

// NewState creates a typed state cell on a fresh entity.
func NewState[T any](w *World, initial T, opts ...BuildOption) (*State[T], error) {
	spec := applyBuild(opts)
	if len(spec.triggers) > 0 {
		return nil, errors.New("world: state cells take no triggers")
	}
	ent := w.Spawn()
	if err := w.engine.CreateState(ent, initial, spec.nodeOpts...); err != nil {
		w.alloc.release(ent)
		return nil, err
	}
	return &State[T]{w: w, h: ent}, nil
}

// NewSignal creates a payload-free notification signal. Wire it into
// effects and tasks through WithTriggers.
func NewSignal(w *World, opts ...BuildOption) (*Signal, error) {
	spec := applyBuild(opts)
	if len(spec.triggers) > 0 {
		return nil, errors.New("world: signals take no triggers")
	}
	ent := w.Spawn()
	if err := w.engine.CreateState(ent, Unit{}, spec.nodeOpts...); err != nil {
		w.alloc.release(ent)
		return nil, err
	}
	return &Signal{w: w, h: ent}, nil
}

// NewComputed1 creates a derivation over one source.
func NewComputed1[A, R any](w *World, fn func(A) (R, error), src Readable[A], opts ...BuildOption) (*Computed[R], error) {
	if fn == nil || src == nil {
		return nil, errors.New("world: nil computed body or source")
	}
	body := func(args []signals.Value) (any, error) {
		a, err := argAs[A](args, 0)
		if err != nil {
			return nil, err
		}
		return fn(a)
	}
	return newComputed[R](w, body, []Entity{src.Handle()}, opts)
}

// NewComputed2 creates a derivation over two sources, arguments in declared
// order.
func NewComputed2[A, B, R any](w *World, fn func(A, B) (R, error), a Readable[A], b Readable[B], opts ...BuildOption) (*Computed[R], error) {
	if fn == nil || a == nil || b == nil {
		return nil, errors.New("world: nil computed body or source")
	}
	body := func(args []signals.Value) (any, error) {
		av, err := argAs[A](args, 0)
		if err != nil {
			return nil, err
		}
		bv, err := argAs[B](args, 1)
		if err != nil {
			return nil, err
		}
		return fn(av, bv)
	}
	return newComputed[R](w, body, []Entity{a.Handle(), b.Handle()}, opts)
}

// NewComputed3 creates a derivation over three sources.
func NewComputed3[A, B, C, R any](w *World, fn func(A, B, C) (R, error), a Readable[A], b Readable[B], c Readable[C], opts ...BuildOption) (*Computed[R], error) {
	if fn == nil || a == nil || b == nil || c == nil {
		return nil, errors.New("world: nil computed body or source")
	}
	body := func(args []signals.Value) (any, error) {
		av, err := argAs[A](args, 0)
		if err != nil {
			return nil, err
		}
		bv, err := argAs[B](args, 1)
		if err != nil {
			return nil, err
		}
		cv, err := argAs[C](args, 2)
		if err != nil {
			return nil, err
		}
		return fn(av, bv, cv)
	}
	return newComputed[R](w, body, []Entity{a.Handle(), b.Handle(), c.Handle()}, opts)
}

func newComputed[R any](w *World, body signals.ComputeFunc, sources []Entity, opts []BuildOption) (*Computed[R], error) {
	spec := applyBuild(opts)
	ent := w.Spawn()
	if err := w.engine.CreateComputed(ent, body, sources, spec.nodeOpts...); err != nil {
		w.alloc.release(ent)
		return nil, err
	}
	// Computed triggers are wired as extra edges after creation.
	for _, trig := range spec.triggers {
		if err := w.engine.AddEdge(trig, ent, signals.EdgeTrigger); err != nil {
			w.engine.Remove(ent)
			w.alloc.release(ent)
			return nil, err
		}
	}
	return &Computed[R]{w: w, h: ent}, nil
}

// NewEffect creates a reaction driven only by triggers. The body runs
// inside the tick with exclusive access to the world it captures.
func NewEffect(w *World, fn func() error, opts ...BuildOption) (*Effect, error) {
	if fn == nil {
		return nil, errors.New("world: nil effect body")
	}
	body := func([]signals.Value) error { return fn() }
	return newEffect(w, body, nil, opts)
}

// NewEffect1 creates a reaction reading one source.
func NewEffect1[A any](w *World, fn func(A) error, src Readable[A], opts ...BuildOption) (*Effect, error) {
	if fn == nil || src == nil {
		return nil, errors.New("world: nil effect body or source")
	}
	body := func(args []signals.Value) error {
		a, err := argAs[A](args, 0)
		if err != nil {
			return err
		}
		return fn(a)
	}
	return newEffect(w, body, []Entity{src.Handle()}, opts)
}

// NewEffect2 creates a reaction reading two sources.
func NewEffect2[A, B any](w *World, fn func(A, B) error, a Readable[A], b Readable[B], opts ...BuildOption) (*Effect, error) {
	if fn == nil || a == nil || b == nil {
		return nil, errors.New("world: nil effect body or source")
	}
	body := func(args []signals.Value) error {
		av, err := argAs[A](args, 0)
		if err != nil {
			return err
		}
		bv, err := argAs[B](args, 1)
		if err != nil {
			return err
		}
		return fn(av, bv)
	}
	return newEffect(w, body, []Entity{a.Handle(), b.Handle()}, opts)
}

func newEffect(w *World, body signals.EffectFunc, sources []Entity, opts []BuildOption) (*Effect, error) {
	spec := applyBuild(opts)
	ent := w.Spawn()
	if err := w.engine.CreateEffect(ent, body, sources, spec.triggers, spec.nodeOpts...); err != nil {
		w.alloc.release(ent)
		return nil, err
	}
	return &Effect{w: w, h: ent}, nil
}

// NewTask creates a worker driven only by triggers. The body runs off the
// tick on the engine's executor; it must not touch the world and reports
// back through the returned batch.
func NewTask(w *World, fn func(ctx context.Context) (signals.Batch, error), opts ...BuildOption) (*Task, error) {
	if fn == nil {
		return nil, errors.New("world: nil task body")
	}
	body := func(ctx context.Context, _ []signals.Value) (signals.Batch, error) {
		return fn(ctx)
	}
	return newTask(w, body, nil, opts)
}

// NewTask1 creates a worker reading one source at spawn time.
func NewTask1[A any](w *World, fn func(ctx context.Context, arg A) (signals.Batch, error), src Readable[A], opts ...BuildOption) (*Task, error) {
	if fn == nil || src == nil {
		return nil, errors.New("world: nil task body or source")
	}
	body := func(ctx context.Context, args []signals.Value) (signals.Batch, error) {
		a, err := argAs[A](args, 0)
		if err != nil {
			return nil, err
		}
		return fn(ctx, a)
	}
	return newTask(w, body, []Entity{src.Handle()}, opts)
}

// NewTask2 creates a worker reading two sources at spawn time.
func NewTask2[A, B any](w *World, fn func(ctx context.Context, a A, b B) (signals.Batch, error), a Readable[A], b Readable[B], opts ...BuildOption) (*Task, error) {
	if fn == nil || a == nil || b == nil {
		return nil, errors.New("world: nil task body or source")
	}
	body := func(ctx context.Context, args []signals.Value) (signals.Batch, error) {
		av, err := argAs[A](args, 0)
		if err != nil {
			return nil, err
		}
		bv, err := argAs[B](args, 1)
		if err != nil {
			return nil, err
		}
		return fn(ctx, av, bv)
	}
	return newTask(w, body, []Entity{a.Handle(), b.Handle()}, opts)
}

func newTask(w *World, body signals.TaskFunc, sources []Entity, opts []BuildOption) (*Task, error) {
	spec := applyBuild(opts)
	ent := w.Spawn()
	if err := w.engine.CreateTask(ent, body, sources, spec.triggers, spec.nodeOpts...); err != nil {
		w.alloc.release(ent)
		return nil, err
	}
	return &Task{w: w, h: ent}, nil
}

// Read extracts the typed committed value of any cell by entity.
func Read[T any](w *World, ent Entity) (T, error) {
	var zero T
	v, ok := w.engine.Value(ent)
	if !ok {
		return zero, fmt.Errorf("%w: %s", signals.ErrNoSuchNode, ent)
	}
	if !v.Valid() {
		return zero, fmt.Errorf("%w: %s", signals.ErrNoValue, ent)
	}
	t, ok := signals.As[T](v)
	if !ok {
		return zero, fmt.Errorf("%w: %s holds %T", signals.ErrTypeMismatch, ent, v.Any())
	}
	return t, nil
}

// ReadError reports the most recent failure recorded for ent's node, or
// nil if it has none. A failed node keeps serving its last good value
// through Read; the record is sticky, so pair it with
// Engine().LastFailure when the pass number matters.
func ReadError(w *World, ent Entity) error {
	if d, ok := w.engine.LastFailure(ent); ok {
		return d.Err
	}
	return nil
}

// argAs decodes one evaluation argument.
func argAs[T any](args []signals.Value, i int) (T, error) {
	var zero T
	if i >= len(args) {
		return zero, fmt.Errorf("%w: argument %d of %d", signals.ErrUnresolvedDependency, i, len(args))
	}
	v := args[i]
	if !v.Valid() {
		return zero, fmt.Errorf("%w: argument %d", signals.ErrNoValue, i)
	}
	t, ok := signals.As[T](v)
	if !ok {
		return zero, fmt.Errorf("%w: argument %d holds %T", signals.ErrTypeMismatch, i, v.Any())
	}
	return t, nil
}
