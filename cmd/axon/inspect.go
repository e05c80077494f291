package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"

	"github.com/axon-dev/axon/internal/config"
	"github.com/axon-dev/axon/pkg/inspect"
	"github.com/axon-dev/axon/pkg/observe"
	"github.com/axon-dev/axon/pkg/world"
)

func inspectCmd() *cobra.Command {
	var (
		address  string
		metrics  bool
		interval time.Duration
	)

	cmd := &cobra.Command{
		Use:   "inspect",
		Short: "Serve the live graph inspector",
		Long: `Serve the live inspector over a running demo scene.

The inspector exposes JSON snapshots of the dependency graph and the
recent diagnostics, a health probe, and a websocket stream of pass
frames. A background loop drives the demo scene through login/logout
flips so there is always something to watch.

Endpoints:
  /healthz      engine health and pass counter
  /graph        full graph snapshot
  /diagnostics  recent contained failures
  /stream       websocket pass and graph frames
  /metrics      Prometheus metrics (with --metrics)

Examples:
  axon inspect
  axon inspect --address=0.0.0.0:7433 --metrics`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runInspect(address, metrics, interval)
		},
	}

	cmd.Flags().StringVarP(&address, "address", "a", "", "Listen address (default from axon.json)")
	cmd.Flags().BoolVarP(&metrics, "metrics", "m", false, "Mount Prometheus metrics at /metrics")
	cmd.Flags().DurationVarP(&interval, "interval", "i", time.Second, "Tick interval for the demo scene")

	return cmd
}

func runInspect(address string, metrics bool, interval time.Duration) error {
	cfg, err := config.LoadFromWorkingDir()
	if err != nil {
		return err
	}

	// Apply command-line overrides
	if address != "" {
		cfg.Inspector.Address = address
	}
	if metrics {
		cfg.Inspector.Metrics = true
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelInfo}))

	printBanner()
	fmt.Println("  inspect")
	fmt.Println()

	insOpts := []inspect.Option{
		inspect.WithAddress(cfg.Inspector.Address),
		inspect.WithLogger(logger),
	}
	worldOpts := []world.Option{
		world.WithLogger(logger),
		world.WithEngineOptions(engineOptions(cfg)...),
	}

	if cfg.Inspector.Metrics {
		reg := prometheus.NewRegistry()
		worldOpts = append(worldOpts, world.WithObserver(observe.NewMetrics(observe.WithRegistry(reg))))
		insOpts = append(insOpts, inspect.WithMetricsHandler(
			promhttp.HandlerFor(reg, promhttp.HandlerOpts{})))
	}

	// The inspector exists before the engine so its observer can be wired
	// at construction.
	ins := inspect.New(insOpts...)
	worldOpts = append(worldOpts, world.WithObserver(ins.Observer()))

	w := world.New(worldOpts...)
	defer w.Close()
	ins.Attach(w.Engine())

	cells, err := buildDemoScene(w)
	if err != nil {
		return err
	}
	w.Tick()

	// Handle signals
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		<-sigCh
		fmt.Println("\n\n  Shutting down...")
		cancel()
	}()

	go driveScene(ctx, w, cells, interval)

	success("inspector on http://%s", cfg.Inspector.Address)
	if cfg.Inspector.Metrics {
		info("metrics on http://%s/metrics", cfg.Inspector.Address)
	}
	fmt.Println()

	return ins.Run(ctx)
}

// driveScene flips the demo scene's cells on a ticker so the inspector
// stream has passes to show.
func driveScene(ctx context.Context, w *world.World, cells *demoCells, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	flip := false
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			flip = !flip
			cells.loggedIn.Send(flip)
			if flip {
				cells.clicked.Send()
			}
			w.Tick()
		}
	}
}
