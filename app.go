package axon

import (
	"context"
	"errors"
	"log/slog"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/axon-dev/axon/pkg/inspect"
	"github.com/axon-dev/axon/pkg/observe"
	"github.com/axon-dev/axon/pkg/world"
)

// =============================================================================
// App Type
// =============================================================================

// App is the main Axon entry point. It wraps a world, its engine and the
// optional metrics and inspector observers into a single handle.
//
// Create an App with axon.New():
//
//	app := axon.New(axon.Config{
//		Metrics:   axon.MetricsConfig{Enabled: true},
//		Inspector: axon.InspectorConfig{Enabled: true},
//	})
//	defer app.Close()
//
//	// Build cells on app.World(), then drive passes:
//	app.Tick()
type App struct {
	// Internal components
	world     *world.World
	inspector *inspect.Inspector
	metrics   *observe.Metrics

	// Configuration
	config Config
	logger *slog.Logger
}

// New creates a new Axon application with the given configuration.
func New(cfg Config) *App {
	// Set up logger
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	app := &App{
		config: cfg,
		logger: logger,
	}

	worldOpts := []world.Option{
		world.WithLogger(logger),
		world.WithEngineOptions(buildEngineOptions(cfg)...),
	}
	if cfg.Executor != nil {
		worldOpts = append(worldOpts, world.WithExecutor(cfg.Executor))
	}

	// Metrics observer
	var gatherer prometheus.Gatherer
	if cfg.Metrics.Enabled {
		registry := cfg.Metrics.Registry
		if registry == nil {
			registry = prometheus.NewRegistry()
		}
		if g, ok := registry.(prometheus.Gatherer); ok {
			gatherer = g
		}
		metricsOpts := []observe.MetricsOption{observe.WithRegistry(registry)}
		if cfg.Metrics.Namespace != "" {
			metricsOpts = append(metricsOpts, observe.WithNamespace(cfg.Metrics.Namespace))
		}
		app.metrics = observe.NewMetrics(metricsOpts...)
		worldOpts = append(worldOpts, world.WithObserver(app.metrics))
	}

	// Inspector observer. The inspector exists before the world so it can
	// be wired at engine construction.
	if cfg.Inspector.Enabled {
		insOpts := []inspect.Option{inspect.WithLogger(logger)}
		if cfg.Inspector.Address != "" {
			insOpts = append(insOpts, inspect.WithAddress(cfg.Inspector.Address))
		}
		if gatherer != nil {
			insOpts = append(insOpts, inspect.WithMetricsHandler(
				promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})))
		}
		app.inspector = inspect.New(insOpts...)
		worldOpts = append(worldOpts, world.WithObserver(app.inspector.Observer()))
	}

	for _, obs := range cfg.Observers {
		worldOpts = append(worldOpts, world.WithObserver(obs))
	}

	app.world = world.New(worldOpts...)
	if app.inspector != nil {
		app.inspector.Attach(app.world.Engine())
	}

	return app
}

// =============================================================================
// Accessors
// =============================================================================

// World returns the world cells are built on.
func (a *App) World() *World {
	return a.world
}

// Engine returns the embedded engine for hosts that address nodes by raw
// handle. Most apps won't need this.
func (a *App) Engine() *Engine {
	return a.world.Engine()
}

// Inspector returns the live inspector, or nil when it is not enabled.
func (a *App) Inspector() *inspect.Inspector {
	return a.inspector
}

// Metrics returns the Prometheus pass observer, or nil when it is not
// enabled.
func (a *App) Metrics() *observe.Metrics {
	return a.metrics
}

// Config returns the app configuration.
func (a *App) Config() Config {
	return a.config
}

// =============================================================================
// Driving
// =============================================================================

// Tick applies deferred commands, then runs one propagation pass.
func (a *App) Tick() PassStats {
	return a.world.Tick()
}

// Run serves the inspector endpoint until ctx is cancelled. The engine
// keeps working while Run blocks; ticks stay with the owning goroutine.
//
//	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
//	defer cancel()
//	go app.Run(ctx)
func (a *App) Run(ctx context.Context) error {
	if a.inspector == nil {
		return errors.New("axon: inspector not enabled")
	}
	return a.inspector.Run(ctx)
}

// Close shuts the inspector (when present) and the world down. Reads
// keep working; mutations and passes stop.
func (a *App) Close() {
	if a.inspector != nil {
		a.inspector.Close()
	}
	a.world.Close()
}
