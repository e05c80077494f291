package main

import (
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/jamiealquiza/tachymeter"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"github.com/axon-dev/axon/internal/config"
	"github.com/axon-dev/axon/internal/errors"
	"github.com/axon-dev/axon/pkg/world"
)

func benchCmd() *cobra.Command {
	var (
		widths     []int
		heights    []int
		iterations int
	)

	cmd := &cobra.Command{
		Use:   "bench",
		Short: "Benchmark propagation over source/computed grids",
		Long: `Benchmark the engine on grids of signal pipelines.

Each grid wires one state cell into width independent pipelines of
height chained computed nodes, with an effect reading the end of every
pipeline. The benchmark then drives sends through full propagation
passes and samples the latency of each pass.

Grid dimensions default from axon.json (bench.widths, bench.heights,
bench.iterations) and can be overridden per run.

Examples:
  axon bench
  axon bench --widths=1,10 --heights=100 -n 500`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runBench(widths, heights, iterations)
		},
	}

	cmd.Flags().IntSliceVarP(&widths, "widths", "w", nil, "Pipeline counts to sweep (default from axon.json)")
	cmd.Flags().IntSliceVarP(&heights, "heights", "H", nil, "Chain lengths to sweep (default from axon.json)")
	cmd.Flags().IntVarP(&iterations, "iterations", "n", 0, "Sampled sends per grid (default from axon.json)")

	return cmd
}

func runBench(widths, heights []int, iterations int) error {
	cfg, err := config.LoadFromWorkingDir()
	if err != nil {
		return err
	}

	// Apply command-line overrides
	if len(widths) > 0 {
		cfg.Bench.Widths = widths
	}
	if len(heights) > 0 {
		cfg.Bench.Heights = heights
	}
	if iterations > 0 {
		cfg.Bench.Iterations = iterations
	}

	if err := validateBench(cfg); err != nil {
		return err
	}

	printBanner()
	fmt.Println("  bench")
	fmt.Println()
	info("%d grids, %s sends each",
		len(cfg.Bench.Widths)*len(cfg.Bench.Heights),
		humanize.Comma(int64(cfg.Bench.Iterations)))
	fmt.Println()

	// Engine logs stay out of the sample loop.
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelWarn}))

	tbl := table.NewWriter()
	tbl.SetTitle("axon propagation")
	tbl.SetOutputMirror(os.Stdout)
	tbl.AppendHeader(table.Row{"benchmark", "avg", "min", "p75", "p99", "max", "sends/s"})

	for _, wdt := range cfg.Bench.Widths {
		for _, hgt := range cfg.Bench.Heights {
			row, err := benchGrid(logger, cfg, wdt, hgt)
			if err != nil {
				return err
			}
			tbl.AppendRows([]table.Row{row})
		}
	}

	tbl.Render()
	return nil
}

// benchGrid samples one width x height grid and returns its table row.
func benchGrid(logger *slog.Logger, cfg *config.Config, wdt, hgt int) (table.Row, error) {
	w := world.New(world.WithLogger(logger), world.WithEngineOptions(engineOptions(cfg)...))
	defer w.Close()

	src, err := buildGrid(w, wdt, hgt)
	if err != nil {
		return nil, err
	}
	w.Tick() // settle construction before sampling

	iters := cfg.Bench.Iterations
	tach := tachymeter.New(&tachymeter.Config{Size: iters})

	val := 1
	for i := 0; i < iters; i++ {
		val++
		start := time.Now()
		src.Send(val)
		w.Tick()
		tach.AddTime(time.Since(start))
	}

	calc := tach.Calc()
	rate := int64(0)
	if calc.Time.Cumulative > 0 {
		rate = int64(float64(iters) / calc.Time.Cumulative.Seconds())
	}

	return table.Row{
		fmt.Sprintf("propagate: %d * %d", wdt, hgt),
		calc.Time.Avg,
		calc.Time.Min,
		calc.Time.P75,
		calc.Time.P99,
		calc.Time.Max,
		humanize.Comma(rate),
	}, nil
}

// buildGrid wires one source into wdt pipelines of hgt chained computeds,
// each pipeline ending in an effect so every pass pulls the whole grid.
func buildGrid(w *world.World, wdt, hgt int) (*world.State[int], error) {
	src, err := world.NewState(w, 1)
	if err != nil {
		return nil, err
	}
	for i := 0; i < wdt; i++ {
		var last world.Readable[int] = src
		for j := 0; j < hgt; j++ {
			prev := last
			next, err := world.NewComputed1(w, func(v int) (int, error) {
				return v + 1, nil
			}, prev)
			if err != nil {
				return nil, err
			}
			last = next
		}
		if _, err := world.NewEffect1(w, func(int) error { return nil }, last); err != nil {
			return nil, err
		}
	}
	return src, nil
}

func validateBench(cfg *config.Config) error {
	if cfg.Bench.Iterations < 1 {
		return errors.New("AX140").
			WithDetail("iterations must be at least 1")
	}
	if len(cfg.Bench.Widths) == 0 || len(cfg.Bench.Heights) == 0 {
		return errors.New("AX140").
			WithDetail("widths and heights must each name at least one dimension")
	}
	for _, n := range cfg.Bench.Widths {
		if n < 1 {
			return errors.New("AX140").
				WithDetail(fmt.Sprintf("width %d is out of range", n))
		}
	}
	for _, n := range cfg.Bench.Heights {
		if n < 1 {
			return errors.New("AX140").
				WithDetail(fmt.Sprintf("height %d is out of range", n))
		}
	}
	return nil
}
