// Package axon provides the public API for the Axon signal engine.
//
// This is the recommended import for most hosts:
//
//	import "github.com/axon-dev/axon"
//
// Usage:
//
//	app := axon.New(axon.Config{})
//	defer app.Close()
//
//	w := app.World()
//	count, _ := axon.NewState(w, 0)
//	doubled, _ := axon.NewComputed1(w, func(v int) (int, error) {
//		return v * 2, nil
//	}, count)
//
//	count.Send(3)
//	app.Tick()
//	v, _ := doubled.Get() // 6
//
// The facade re-exports the world runtime (pkg/world) and the engine
// primitives (pkg/signals) under one import. Hosts that drive a bare
// engine without entities, or that need the observers in pkg/observe and
// the live inspector in pkg/inspect, import those packages directly.
package axon

import (
	"context"

	"github.com/axon-dev/axon/pkg/signals"
	"github.com/axon-dev/axon/pkg/world"
)

// =============================================================================
// World (re-export from pkg/world)
// =============================================================================

// World binds a signal engine to entity, component and resource storage
// and the tick loop that drives propagation passes. A World is owned by
// the goroutine that calls Tick; see pkg/world for the access rules.
type World = world.World

// Entity identifies a world entity. Cells live on entities, so an Entity
// doubles as the handle of the node it carries.
type Entity = world.Entity

// Command is a deferred mutation applied at the next tick's flush point.
// This is the only legal way to change the world's structure from inside
// an effect body or from another goroutine.
type Command = world.Command

// WorldOption configures a World built with NewWorld.
type WorldOption = world.Option

// NewWorld creates a bare world. Most hosts want New, which layers
// configuration and observers on top.
var NewWorld = world.New

// WithLogger sets the logger for a world and its engine.
var WithLogger = world.WithLogger

// WithEngineOptions forwards options to the embedded engine.
var WithEngineOptions = world.WithEngineOptions

// WithExecutor sets the asynchronous substrate task bodies run on.
// Tests use ManualExecutor to step task bodies deterministically.
var WithExecutor = world.WithExecutor

// WithObserver attaches a pass observer at engine construction.
var WithObserver = world.WithObserver

// =============================================================================
// Components and resources (re-export from pkg/world)
// =============================================================================

// SetComponent attaches v to ent, replacing any previous value of the
// same type.
func SetComponent[T any](w *World, ent Entity, v T) {
	world.SetComponent(w, ent, v)
}

// Component reads the T attached to ent.
func Component[T any](w *World, ent Entity) (T, bool) {
	return world.Component[T](w, ent)
}

// RemoveComponent detaches the T from ent, reporting whether one was set.
func RemoveComponent[T any](w *World, ent Entity) bool {
	return world.RemoveComponent[T](w, ent)
}

// EachComponent visits every (entity, value) pair holding a T.
func EachComponent[T any](w *World, fn func(Entity, T)) {
	world.EachComponent(w, fn)
}

// SetResource stores the world-global value of type T.
func SetResource[T any](w *World, v T) {
	world.SetResource(w, v)
}

// Resource reads the world-global value of type T.
func Resource[T any](w *World) (T, bool) {
	return world.Resource[T](w)
}

// RemoveResource drops the world-global value of type T, reporting
// whether one was set.
func RemoveResource[T any](w *World) bool {
	return world.RemoveResource[T](w)
}

// =============================================================================
// Cells and builders (re-export from pkg/world)
// =============================================================================

// Node is any signal primitive addressable by entity.
type Node = world.Node

// Readable is a typed value source: a state or computed cell of T.
type Readable[T any] = world.Readable[T]

// State is a typed mutable cell.
type State[T any] = world.State[T]

// Computed is a typed derived cell, memoized so it evaluates at most once
// per pass.
type Computed[T any] = world.Computed[T]

// Effect is a synchronous reaction bound to an entity.
type Effect = world.Effect

// Task is an asynchronous worker bound to an entity.
type Task = world.Task

// Signal is a payload-free notification cell. Every Send propagates.
type Signal = world.Signal

// Unit is the payload of a payload-free signal.
type Unit = world.Unit

// BuildOption configures node construction.
type BuildOption = world.BuildOption

// WithTriggers wires dependencies that re-run the node without being read.
var WithTriggers = world.WithTriggers

// WithLabel names the node in logs, diagnostics and inspector frames.
var WithLabel = world.WithLabel

// WithEquals overrides change detection for the node's committed value.
var WithEquals = world.WithEquals

// NewState creates a typed state cell on a fresh entity.
//
// Example:
//
//	count, err := axon.NewState(w, 0)
//	count.Send(1)    // propagates when the value changed
//	count.Trigger(1) // propagates regardless
func NewState[T any](w *World, initial T, opts ...BuildOption) (*State[T], error) {
	return world.NewState(w, initial, opts...)
}

// NewSignal creates a payload-free notification signal. Wire it into
// effects and tasks through WithTriggers.
var NewSignal = world.NewSignal

// NewComputed1 creates a derivation over one source.
//
// Example:
//
//	doubled, err := axon.NewComputed1(w, func(v int) (int, error) {
//		return v * 2, nil
//	}, count)
func NewComputed1[A, R any](w *World, fn func(A) (R, error), src Readable[A], opts ...BuildOption) (*Computed[R], error) {
	return world.NewComputed1(w, fn, src, opts...)
}

// NewComputed2 creates a derivation over two sources, arguments in
// declared order.
func NewComputed2[A, B, R any](w *World, fn func(A, B) (R, error), a Readable[A], b Readable[B], opts ...BuildOption) (*Computed[R], error) {
	return world.NewComputed2(w, fn, a, b, opts...)
}

// NewComputed3 creates a derivation over three sources.
func NewComputed3[A, B, C, R any](w *World, fn func(A, B, C) (R, error), a Readable[A], b Readable[B], c Readable[C], opts ...BuildOption) (*Computed[R], error) {
	return world.NewComputed3(w, fn, a, b, c, opts...)
}

// NewEffect creates a reaction driven only by triggers. The body runs
// inside the tick with exclusive access to the world it captures.
var NewEffect = world.NewEffect

// NewEffect1 creates a reaction reading one source.
func NewEffect1[A any](w *World, fn func(A) error, src Readable[A], opts ...BuildOption) (*Effect, error) {
	return world.NewEffect1(w, fn, src, opts...)
}

// NewEffect2 creates a reaction reading two sources.
func NewEffect2[A, B any](w *World, fn func(A, B) error, a Readable[A], b Readable[B], opts ...BuildOption) (*Effect, error) {
	return world.NewEffect2(w, fn, a, b, opts...)
}

// NewTask creates a worker driven only by triggers. The body runs off the
// tick on the engine's executor; it must not touch the world and reports
// back through the returned batch.
var NewTask = world.NewTask

// NewTask1 creates a worker reading one source at spawn time.
func NewTask1[A any](w *World, fn func(ctx context.Context, arg A) (Batch, error), src Readable[A], opts ...BuildOption) (*Task, error) {
	return world.NewTask1(w, fn, src, opts...)
}

// NewTask2 creates a worker reading two sources at spawn time.
func NewTask2[A, B any](w *World, fn func(ctx context.Context, a A, b B) (Batch, error), a Readable[A], b Readable[B], opts ...BuildOption) (*Task, error) {
	return world.NewTask2(w, fn, a, b, opts...)
}

// Read extracts the typed committed value of any cell by entity.
func Read[T any](w *World, ent Entity) (T, error) {
	return world.Read[T](w, ent)
}

// ReadError reports the most recent failure recorded for an entity's
// node, or nil if it has none.
var ReadError = world.ReadError

// =============================================================================
// Engine primitives (re-export from pkg/signals)
// =============================================================================

// Engine owns the node arena, dependency graph, send queue and task
// registry. Hosts that address nodes by raw handle reach it through
// App.Engine or World.Engine.
type Engine = signals.Engine

// Handle addresses a node in the engine arena.
type Handle = signals.Handle

// NoHandle is the zero handle; no node ever lives there.
const NoHandle = signals.NoHandle

// Kind classifies a signal node.
type Kind = signals.Kind

const (
	KindState    = signals.KindState
	KindComputed = signals.KindComputed
	KindEffect   = signals.KindEffect
	KindTask     = signals.KindTask
)

// EdgeKind distinguishes source edges from trigger edges.
type EdgeKind = signals.EdgeKind

const (
	EdgeSource  = signals.EdgeSource
	EdgeTrigger = signals.EdgeTrigger
)

// Dependency names one dependency of a node together with its edge kind.
type Dependency = signals.Dependency

// Value is a committed cell: empty until the node first commits, then
// holding exactly one value.
type Value = signals.Value

// ValueOf wraps v in a committed Value.
var ValueOf = signals.ValueOf

// As extracts the typed payload of a cell.
func As[T any](v Value) (T, bool) {
	return signals.As[T](v)
}

// ComputeFunc is the body of a Computed node.
type ComputeFunc = signals.ComputeFunc

// EffectFunc is the body of an Effect node.
type EffectFunc = signals.EffectFunc

// TaskFunc is the body of a Task node.
type TaskFunc = signals.TaskFunc

// Mutation is one state-mutation request inside a deferred batch.
type Mutation = signals.Mutation

// Batch is the ordered sequence of mutations a task body hands back. It
// is enqueued when the completion is observed and takes effect on the
// following pass.
type Batch = signals.Batch

// DefaultMaxEvalDepth bounds source-chain recursion during evaluation.
const DefaultMaxEvalDepth = signals.DefaultMaxEvalDepth

// =============================================================================
// Passes, observers and executors (re-export from pkg/signals)
// =============================================================================

// PassStats summarizes one propagation pass.
type PassStats = signals.PassStats

// PassObserver receives engine lifecycle events. Implementations must be
// fast and must not call back into the engine; embed BaseObserver to stay
// compatible as events are added.
type PassObserver = signals.PassObserver

// BaseObserver is a no-op PassObserver for embedding.
type BaseObserver = signals.BaseObserver

// CombineObservers fans events out to several observers in order.
var CombineObservers = signals.CombineObservers

// Executor is the substrate task bodies run on.
type Executor = signals.Executor

// GoExecutor runs each task body on a fresh goroutine. The default.
type GoExecutor = signals.GoExecutor

// ManualExecutor queues task bodies for explicit stepping. Tests use it
// to interleave task completion with passes deterministically.
type ManualExecutor = signals.ManualExecutor

// TaskRun identifies one spawned task instance.
type TaskRun = signals.TaskRun

// =============================================================================
// Inspection (re-export from pkg/signals)
// =============================================================================

// Diagnostic records one contained failure: which node, which pass, what
// error.
type Diagnostic = signals.Diagnostic

// GraphSnapshot is a point-in-time copy of the engine graph.
type GraphSnapshot = signals.GraphSnapshot

// NodeSnapshot is one node in a GraphSnapshot.
type NodeSnapshot = signals.NodeSnapshot

// =============================================================================
// Errors (re-export from pkg/signals)
// =============================================================================

// Sentinel errors surfaced by engine operations and typed reads. Match
// them with errors.Is; evaluation failures wrap the body's error.
var (
	ErrCycleDetected        = signals.ErrCycleDetected
	ErrUnresolvedDependency = signals.ErrUnresolvedDependency
	ErrEvaluationFailed     = signals.ErrEvaluationFailed
	ErrNodeExists           = signals.ErrNodeExists
	ErrNoSuchNode           = signals.ErrNoSuchNode
	ErrTerminalNode         = signals.ErrTerminalNode
	ErrNoValue              = signals.ErrNoValue
	ErrTypeMismatch         = signals.ErrTypeMismatch
	ErrInvalidHandle        = signals.ErrInvalidHandle
	ErrClosed               = signals.ErrClosed
)
