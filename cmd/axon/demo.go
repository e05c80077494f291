package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/axon-dev/axon/internal/config"
	"github.com/axon-dev/axon/pkg/signals"
	"github.com/axon-dev/axon/pkg/world"
)

func demoCmd() *cobra.Command {
	var verbose bool

	cmd := &cobra.Command{
		Use:   "demo",
		Short: "Run the login walkthrough",
		Long: `Run a scripted walkthrough of the signal engine.

The demo builds a small login scene: two state cells and a unit
signal, two chained computed nodes deriving a status line, an effect
syncing a host resource, an effect re-rendering on sources and on the
click trigger, and a trigger-only audit task reporting back through a
deferred batch. It then drives sends through propagation passes and
prints the stats of each pass.

Examples:
  axon demo
  axon demo --verbose`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runDemo(verbose)
		},
	}

	cmd.Flags().BoolVarP(&verbose, "verbose", "v", false, "Log engine internals")

	return cmd
}

// authService stands in for host state an effect keeps in sync.
type authService struct {
	loggedIn bool
	message  string
}

// demoCells are the handles the demo scene script drives and reads.
type demoCells struct {
	loggedIn *world.State[bool]
	welcome  *world.State[string]
	clicked  *world.Signal
	status   *world.Computed[string]
	summary  *world.Computed[string]
	audit    *world.State[string]
}

// buildDemoScene wires the login scene into w. The inspect command reuses
// it as the live graph to watch.
func buildDemoScene(w *world.World) (*demoCells, error) {
	loggedIn, err := world.NewState(w, false, world.WithLabel("logged_in"))
	if err != nil {
		return nil, err
	}
	welcome, err := world.NewState(w, "Congrats, you logged in somehow", world.WithLabel("welcome"))
	if err != nil {
		return nil, err
	}
	clicked, err := world.NewSignal(w, world.WithLabel("clicked"))
	if err != nil {
		return nil, err
	}

	// Keeps the host-side auth service in sync with the cells.
	_, err = world.NewEffect2(w, func(on bool, msg string) error {
		world.SetResource(w, authService{loggedIn: on, message: msg})
		return nil
	}, loggedIn, welcome, world.WithLabel("sync_auth"))
	if err != nil {
		return nil, err
	}

	status, err := world.NewComputed2(w, func(on bool, msg string) (string, error) {
		if !on {
			return "You are not authorized to view this", nil
		}
		if msg == "" {
			return "Greetings, Starfighter", nil
		}
		return msg, nil
	}, loggedIn, welcome, world.WithLabel("status_line"))
	if err != nil {
		return nil, err
	}

	// Re-renders when a source changes or the click trigger fires.
	_, err = world.NewEffect2(w, func(on bool, line string) error {
		info("render: logged_in=%t %q", on, line)
		return nil
	}, loggedIn, status, world.WithTriggers(clicked), world.WithLabel("render"))
	if err != nil {
		return nil, err
	}

	audit, err := world.NewState(w, "", world.WithLabel("last_audit"))
	if err != nil {
		return nil, err
	}
	_, err = world.NewTask(w, func(ctx context.Context) (signals.Batch, error) {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(30 * time.Millisecond):
		}
		var b signals.Batch
		b.Send(audit.Handle(), time.Now().Format(time.RFC3339))
		return b, nil
	}, world.WithTriggers(clicked), world.WithLabel("audit"))
	if err != nil {
		return nil, err
	}

	summary, err := world.NewComputed2(w, func(on bool, line string) (string, error) {
		return fmt.Sprintf("logged_in=%t status=%q", on, line), nil
	}, loggedIn, status, world.WithLabel("summary"))
	if err != nil {
		return nil, err
	}

	return &demoCells{
		loggedIn: loggedIn,
		welcome:  welcome,
		clicked:  clicked,
		status:   status,
		summary:  summary,
		audit:    audit,
	}, nil
}

func runDemo(verbose bool) error {
	cfg, err := config.LoadFromWorkingDir()
	if err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	level := slog.LevelWarn
	if verbose {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))

	printBanner()
	fmt.Println("  demo")
	fmt.Println()

	w := world.New(world.WithLogger(logger), world.WithEngineOptions(engineOptions(cfg)...))
	defer w.Close()

	cells, err := buildDemoScene(w)
	if err != nil {
		return err
	}

	tick := func(note string) {
		stats := w.Tick()
		info("pass %d (%s): sends=%d dirtied=%d evaluated=%d effects=%d tasks=%d failures=%d",
			stats.Pass, note, stats.Sends, stats.Dirtied, stats.Evaluated,
			stats.EffectsRun, stats.TasksSpawned, stats.Failures)
	}

	tick("construction settles")

	fmt.Println()
	info("sending true to logged_in")
	cells.loggedIn.Send(true)
	tick("login propagates")

	fmt.Println()
	info("firing clicked")
	cells.clicked.Send()
	tick("trigger fans out")

	// The audit task runs off the tick; keep ticking until its completion
	// is observed and the deferred batch lands.
	for i := 0; i < 50 && w.Engine().InFlight() > 0; i++ {
		time.Sleep(10 * time.Millisecond)
		tick("awaiting audit")
	}
	tick("audit batch commits")

	fmt.Println()
	status, err := cells.status.Get()
	if err != nil {
		return err
	}
	success("status line: %q", status)

	summary, err := cells.summary.Get()
	if err != nil {
		return err
	}
	success("summary: %s", summary)

	if auth, ok := world.Resource[authService](w); ok {
		success("auth service synced: logged_in=%t", auth.loggedIn)
	}
	if stamp, err := cells.audit.Get(); err == nil && stamp != "" {
		success("audit recorded at %s", stamp)
	} else {
		warn("audit batch did not land")
	}

	return nil
}
