package axon

import (
	"log/slog"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/axon-dev/axon/pkg/signals"
)

// =============================================================================
// Configuration Types
// =============================================================================

// Config is the main application configuration.
// This is the user-friendly entry point for wiring a world, its engine
// and the optional observers in one call.
type Config struct {
	// Engine tunes the embedded propagation engine.
	Engine EngineConfig

	// Metrics configures the Prometheus pass observer.
	Metrics MetricsConfig

	// Inspector configures the live graph inspector endpoint.
	Inspector InspectorConfig

	// Logger is the structured logger for the world and its engine.
	// If nil, slog.Default() is used.
	Logger *slog.Logger

	// Executor overrides the asynchronous substrate task bodies run on.
	// If nil, each body runs on a fresh goroutine. Tests set a
	// ManualExecutor to step bodies deterministically.
	Executor Executor

	// Observers are additional pass observers, attached at engine
	// construction after the metrics and inspector observers.
	Observers []PassObserver
}

// EngineConfig tunes the embedded engine. Zero values defer to the
// engine defaults.
type EngineConfig struct {
	// MaxEvalDepth bounds source-chain recursion during evaluation;
	// chains deeper than this are treated as cycles.
	// Default: DefaultMaxEvalDepth.
	MaxEvalDepth int

	// DisableEagerCycleCheck defers cycle detection from edge insertion
	// to the evaluation depth limit. Edge wiring gets cheaper; cycles
	// surface later and less precisely.
	DisableEagerCycleCheck bool

	// DiagnosticLimit caps the engine-wide ring of recent failures.
	// Default: 128.
	DiagnosticLimit int
}

// MetricsConfig configures the Prometheus pass observer.
type MetricsConfig struct {
	// Enabled attaches an observe.Metrics observer to the engine.
	Enabled bool

	// Registry receives the collectors. If nil, a private registry is
	// created. When the inspector is enabled too, its /metrics route
	// serves the registry in use, provided it can be gathered.
	Registry prometheus.Registerer

	// Namespace prefixes every metric name.
	// Default: "axon".
	Namespace string
}

// InspectorConfig configures the live graph inspector.
type InspectorConfig struct {
	// Enabled wires an inspect.Inspector observer into the engine.
	// App.Run starts its HTTP endpoint.
	Enabled bool

	// Address is the listen address for the inspector endpoint.
	// Default: "127.0.0.1:7433".
	Address string
}

// =============================================================================
// Default Configurations
// =============================================================================

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() Config {
	return Config{
		Engine:    DefaultEngineConfig(),
		Metrics:   DefaultMetricsConfig(),
		Inspector: DefaultInspectorConfig(),
	}
}

// DefaultEngineConfig returns an EngineConfig with sensible defaults.
func DefaultEngineConfig() EngineConfig {
	return EngineConfig{
		MaxEvalDepth:    DefaultMaxEvalDepth,
		DiagnosticLimit: 128,
	}
}

// DefaultMetricsConfig returns a MetricsConfig with sensible defaults.
// Metrics stay off until enabled explicitly.
func DefaultMetricsConfig() MetricsConfig {
	return MetricsConfig{
		Namespace: "axon",
	}
}

// DefaultInspectorConfig returns an InspectorConfig with sensible
// defaults. The inspector stays off until enabled explicitly.
func DefaultInspectorConfig() InspectorConfig {
	return InspectorConfig{
		Address: "127.0.0.1:7433",
	}
}

// =============================================================================
// Config to Engine Option Translation
// =============================================================================

// buildEngineOptions converts user-friendly axon.Config into engine
// options. Zero values are omitted so the engine defaults apply.
func buildEngineOptions(cfg Config) []signals.Option {
	var opts []signals.Option
	if cfg.Engine.MaxEvalDepth > 0 {
		opts = append(opts, signals.WithMaxEvalDepth(cfg.Engine.MaxEvalDepth))
	}
	opts = append(opts, signals.WithEagerCycleCheck(!cfg.Engine.DisableEagerCycleCheck))
	if cfg.Engine.DiagnosticLimit > 0 {
		opts = append(opts, signals.WithDiagnosticLimit(cfg.Engine.DiagnosticLimit))
	}
	return opts
}
