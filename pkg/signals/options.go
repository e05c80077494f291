package signals

import (
	"log/slog"
	"time"
)

// DefaultMaxEvalDepth bounds source-chain recursion during evaluation.
// Chains deeper than this are treated as cycles.
const DefaultMaxEvalDepth = 256

// defaultDiagnosticLimit caps the engine-wide diagnostic ring.
const defaultDiagnosticLimit = 128

// Option configures an Engine at construction.
type Option func(*Engine)

// WithLogger sets the structured logger. Defaults to slog.Default().
func WithLogger(log *slog.Logger) Option {
	return func(e *Engine) {
		if log != nil {
			e.log = log
		}
	}
}

// WithObserver attaches a PassObserver. Repeated use fans events out to
// every attached observer in attachment order.
func WithObserver(obs PassObserver) Option {
	return func(e *Engine) {
		if obs == nil {
			return
		}
		if _, isNop := e.obs.(BaseObserver); isNop {
			e.obs = obs
			return
		}
		e.obs = CombineObservers(e.obs, obs)
	}
}

// WithMaxEvalDepth overrides DefaultMaxEvalDepth. Values below 1 are
// ignored.
func WithMaxEvalDepth(n int) Option {
	return func(e *Engine) {
		if n >= 1 {
			e.maxDepth = n
		}
	}
}

// WithEagerCycleCheck toggles the reachability check at edge insertion.
// On by default; when off, cycles surface at evaluation through the depth
// limit instead of at construction.
func WithEagerCycleCheck(enabled bool) Option {
	return func(e *Engine) {
		e.eagerCycle = enabled
	}
}

// WithExecutor sets the asynchronous substrate task bodies run on.
// Defaults to GoExecutor.
func WithExecutor(ex Executor) Option {
	return func(e *Engine) {
		if ex != nil {
			e.executor = ex
		}
	}
}

// WithDiagnosticLimit sets how many recent diagnostics the engine retains.
func WithDiagnosticLimit(n int) Option {
	return func(e *Engine) {
		if n >= 1 {
			e.diagLimit = n
		}
	}
}

// WithClock overrides the engine's time source. Pass timestamps,
// diagnostic times and measured durations all come from it; tests pin it
// for deterministic output.
func WithClock(now func() time.Time) Option {
	return func(e *Engine) {
		if now != nil {
			e.now = now
		}
	}
}

// NodeOption configures a node at creation.
type NodeOption func(*node)

// WithLabel attaches a human-readable name used in logs, diagnostics and
// inspector snapshots.
func WithLabel(label string) NodeOption {
	return func(n *node) {
		n.label = label
	}
}

// WithEquals overrides change detection for a node's committed value. The
// default uses == for common scalars and reflect.DeepEqual otherwise.
func WithEquals(fn func(a, b any) bool) NodeOption {
	return func(n *node) {
		n.equal = fn
	}
}
