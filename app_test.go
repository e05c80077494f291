package axon

import (
	"context"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
)

// =============================================================================
// App Wiring Tests
// =============================================================================

func TestApp_World_ReturnsNonNil(t *testing.T) {
	app := New(DefaultConfig())
	defer app.Close()

	if app.World() == nil {
		t.Fatal("World() returned nil")
	}
	if app.Engine() == nil {
		t.Fatal("Engine() returned nil")
	}
}

func TestApp_Config_ReturnsConfiguration(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Engine.MaxEvalDepth = 64

	app := New(cfg)
	defer app.Close()

	if got := app.Config().Engine.MaxEvalDepth; got != 64 {
		t.Errorf("Config().Engine.MaxEvalDepth = %d, want 64", got)
	}
}

func TestApp_Tick_DrivesPropagation(t *testing.T) {
	app := New(Config{})
	defer app.Close()

	w := app.World()
	count, err := NewState(w, 1)
	if err != nil {
		t.Fatalf("NewState: %v", err)
	}
	doubled, err := NewComputed1(w, func(v int) (int, error) { return v * 2, nil }, count)
	if err != nil {
		t.Fatalf("NewComputed1: %v", err)
	}

	app.Tick()
	count.Send(21)
	stats := app.Tick()

	if stats.Sends != 1 {
		t.Errorf("stats.Sends = %d, want 1", stats.Sends)
	}
	got, err := doubled.Get()
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if got != 42 {
		t.Errorf("doubled = %d, want 42", got)
	}
}

func TestApp_Observers_ReceivePasses(t *testing.T) {
	rec := &passRecorder{}
	app := New(Config{Observers: []PassObserver{rec}})
	defer app.Close()

	app.Tick()
	app.Tick()

	if rec.completed != 2 {
		t.Errorf("observer saw %d passes, want 2", rec.completed)
	}
}

type passRecorder struct {
	BaseObserver
	completed int
}

func (r *passRecorder) PassCompleted(PassStats) { r.completed++ }

func TestApp_Executor_OverridesSubstrate(t *testing.T) {
	ex := &ManualExecutor{}
	app := New(Config{Executor: ex})
	defer app.Close()

	w := app.World()
	ping, err := NewSignal(w)
	if err != nil {
		t.Fatalf("NewSignal: %v", err)
	}
	if _, err := NewTask(w, func(context.Context) (Batch, error) {
		return nil, nil
	}, WithTriggers(ping)); err != nil {
		t.Fatalf("NewTask: %v", err)
	}

	app.Tick()
	ping.Send()
	app.Tick()

	if ex.Pending() != 1 {
		t.Fatalf("queued task bodies = %d, want 1", ex.Pending())
	}
}

func TestApp_Metrics_NilWhenDisabled(t *testing.T) {
	app := New(Config{})
	defer app.Close()

	if app.Metrics() != nil {
		t.Error("Metrics() should be nil when metrics are disabled")
	}
	if app.Inspector() != nil {
		t.Error("Inspector() should be nil when the inspector is disabled")
	}
}

func TestApp_Metrics_RegistersCollectors(t *testing.T) {
	reg := prometheus.NewRegistry()
	app := New(Config{Metrics: MetricsConfig{Enabled: true, Registry: reg}})
	defer app.Close()

	if app.Metrics() == nil {
		t.Fatal("Metrics() returned nil with metrics enabled")
	}

	app.Tick()

	families, err := reg.Gather()
	if err != nil {
		t.Fatalf("Gather: %v", err)
	}
	found := false
	for _, mf := range families {
		if strings.HasPrefix(mf.GetName(), "axon_") {
			found = true
			break
		}
	}
	if !found {
		t.Error("no axon_ metric families registered")
	}
}

func TestApp_Inspector_WiredWhenEnabled(t *testing.T) {
	app := New(Config{Inspector: InspectorConfig{Enabled: true, Address: "127.0.0.1:0"}})
	defer app.Close()

	if app.Inspector() == nil {
		t.Fatal("Inspector() returned nil with the inspector enabled")
	}
}

func TestApp_Run_RequiresInspector(t *testing.T) {
	app := New(Config{})
	defer app.Close()

	if err := app.Run(context.Background()); err == nil {
		t.Fatal("Run without the inspector should fail")
	}
}

func TestApp_Run_StopsOnContextCancel(t *testing.T) {
	app := New(Config{Inspector: InspectorConfig{Enabled: true, Address: "127.0.0.1:0"}})
	defer app.Close()

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- app.Run(ctx) }()

	cancel()
	if err := <-done; err != nil {
		t.Fatalf("Run returned %v, want nil after cancel", err)
	}
}

func TestApp_Close_StopsMutation(t *testing.T) {
	app := New(Config{})
	app.Close()

	if _, err := NewState(app.World(), 0); err == nil {
		t.Fatal("NewState on a closed app should fail")
	}
}
