// Package world is the reference host runtime for the signal engine. It
// owns entity identity, component and resource storage, the deferred
// command queue, and the tick loop that drives propagation passes.
//
// A World is owned by the goroutine that calls Tick. Component and
// resource access is not locked: effect bodies may touch them freely
// because they run inside the tick, during the window where nothing else
// does. From anywhere else, use Defer for structural changes and the cell
// types' Send/Trigger for value changes; both are safe from any goroutine.
package world

import (
	"log/slog"
	"reflect"

	"github.com/axon-dev/axon/pkg/signals"
)

// World binds a signal engine to host storage and a tick loop.
type World struct {
	log    *slog.Logger
	engine *signals.Engine
	alloc  *entityAllocator

	// components is keyed by component type, then by owning entity.
	components map[reflect.Type]map[Entity]any

	// resources is one value per type, world-global.
	resources map[reflect.Type]any

	commands commandQueue

	engineOpts []signals.Option
	ticks      uint64
}

// Option configures a World.
type Option func(*World)

// WithLogger sets the logger for the world and its engine.
func WithLogger(log *slog.Logger) Option {
	return func(w *World) {
		if log != nil {
			w.log = log
		}
	}
}

// WithEngineOptions forwards options to the embedded engine.
func WithEngineOptions(opts ...signals.Option) Option {
	return func(w *World) {
		w.engineOpts = append(w.engineOpts, opts...)
	}
}

// WithExecutor sets the engine's asynchronous execution substrate. Tests
// use signals.ManualExecutor to step task bodies deterministically.
func WithExecutor(ex signals.Executor) Option {
	return func(w *World) {
		w.engineOpts = append(w.engineOpts, signals.WithExecutor(ex))
	}
}

// WithObserver forwards a pass observer to the embedded engine.
func WithObserver(obs signals.PassObserver) Option {
	return func(w *World) {
		w.engineOpts = append(w.engineOpts, signals.WithObserver(obs))
	}
}

// New creates an empty world.
func New(opts ...Option) *World {
	w := &World{
		log:        slog.Default(),
		alloc:      newEntityAllocator(),
		components: make(map[reflect.Type]map[Entity]any),
		resources:  make(map[reflect.Type]any),
	}
	for _, opt := range opts {
		opt(w)
	}
	engineOpts := append([]signals.Option{signals.WithLogger(w.log)}, w.engineOpts...)
	w.engine = signals.New(engineOpts...)
	return w
}

// Engine exposes the embedded engine for hosts that address nodes by raw
// handle.
func (w *World) Engine() *signals.Engine {
	return w.engine
}

// Spawn allocates a fresh entity. The entity carries no node until a cell
// constructor claims it.
func (w *World) Spawn() Entity {
	return w.alloc.alloc()
}

// Alive reports whether ent is a current entity of this world.
func (w *World) Alive(ent Entity) bool {
	return w.alloc.alive(ent)
}

// Despawn removes ent: its signal node (cancelling a running task), its
// components, and finally its identity. Stale entities are ignored.
func (w *World) Despawn(ent Entity) bool {
	if !w.alloc.alive(ent) {
		return false
	}
	w.engine.Remove(ent)
	for _, row := range w.components {
		delete(row, ent)
	}
	w.alloc.release(ent)
	w.log.Debug("entity despawned", "entity", ent)
	return true
}

// Defer queues cmd for the next tick's flush point. This is the only legal
// way to change the world's structure from inside an effect body or from
// another goroutine.
func (w *World) Defer(cmd Command) {
	w.commands.push(cmd)
}

// PendingCommands reports how many commands await the next tick.
func (w *World) PendingCommands() int {
	return w.commands.pending()
}

// Tick applies deferred commands, then runs one propagation pass. Effect
// bodies run inside the pass with exclusive access to the world.
func (w *World) Tick() signals.PassStats {
	w.ticks++
	for _, cmd := range w.commands.drain() {
		cmd(w)
	}
	return w.engine.ProcessPending()
}

// Ticks reports how many times Tick has run.
func (w *World) Ticks() uint64 {
	return w.ticks
}

// Close shuts the engine down. Reads keep working; mutations and passes
// stop.
func (w *World) Close() {
	w.engine.Close()
}
