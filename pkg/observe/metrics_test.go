package observe

import (
	"context"
	"errors"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"

	"github.com/axon-dev/axon/pkg/signals"
)

func metricCounterValue(t *testing.T, c prometheus.Counter) float64 {
	t.Helper()
	var m dto.Metric
	if err := c.Write(&m); err != nil {
		t.Fatalf("counter Write() error: %v", err)
	}
	return m.GetCounter().GetValue()
}

func metricGaugeValue(t *testing.T, g prometheus.Gauge) float64 {
	t.Helper()
	var m dto.Metric
	if err := g.Write(&m); err != nil {
		t.Fatalf("gauge Write() error: %v", err)
	}
	return m.GetGauge().GetValue()
}

func metricHistogramCount(t *testing.T, o prometheus.Observer) uint64 {
	t.Helper()
	metric, ok := o.(prometheus.Metric)
	if !ok {
		t.Fatalf("observer %T does not implement prometheus.Metric", o)
	}
	var m dto.Metric
	if err := metric.Write(&m); err != nil {
		t.Fatalf("histogram Write() error: %v", err)
	}
	return m.GetHistogram().GetSampleCount()
}

func TestMetricsObserverCountsPassActivity(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewMetrics(WithRegistry(reg), WithNamespace("test"))

	eng := signals.New(signals.WithObserver(m))
	x := signals.NewHandle(1, 1)
	f := signals.NewHandle(2, 1)
	eff := signals.NewHandle(3, 1)

	if err := eng.CreateState(x, 1.0); err != nil {
		t.Fatalf("CreateState failed: %v", err)
	}
	if err := eng.CreateComputed(f, func(args []signals.Value) (any, error) {
		v, _ := signals.As[float64](args[0])
		return v * 2, nil
	}, []signals.Handle{x}); err != nil {
		t.Fatalf("CreateComputed failed: %v", err)
	}
	if err := eng.CreateEffect(eff, func([]signals.Value) error {
		return errors.New("effect boom")
	}, []signals.Handle{f}, nil); err != nil {
		t.Fatalf("CreateEffect failed: %v", err)
	}

	eng.Send(x, 2.0)
	eng.ProcessPending()
	eng.ProcessPending()

	if got := metricCounterValue(t, m.passesTotal); got != 2 {
		t.Errorf("passes_total = %v, want 2", got)
	}
	if got := metricHistogramCount(t, m.passDuration); got != 2 {
		t.Errorf("pass_duration samples = %v, want 2", got)
	}
	if got := metricCounterValue(t, m.sendsTotal); got != 1 {
		t.Errorf("sends_total = %v, want 1", got)
	}
	if got := metricCounterValue(t, m.evaluations.WithLabelValues("success")); got != 1 {
		t.Errorf("evaluations_total(success) = %v, want 1", got)
	}
	if got := metricCounterValue(t, m.effectRuns.WithLabelValues("error")); got != 1 {
		t.Errorf("effect_runs_total(error) = %v, want 1", got)
	}
	if got := metricCounterValue(t, m.failures.WithLabelValues(signals.CodeEvaluationFailure)); got != 1 {
		t.Errorf("failures_total(evaluation_failure) = %v, want 1", got)
	}
}

func TestMetricsObserverTracksTasks(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewMetrics(WithRegistry(reg))
	ex := &signals.ManualExecutor{}

	eng := signals.New(signals.WithObserver(m), signals.WithExecutor(ex))
	trig := signals.NewHandle(1, 1)
	task := signals.NewHandle(2, 1)

	if err := eng.CreateState(trig, nil); err != nil {
		t.Fatalf("CreateState failed: %v", err)
	}
	if err := eng.CreateTask(task, func(context.Context, []signals.Value) (signals.Batch, error) {
		return nil, nil
	}, nil, []signals.Handle{trig}); err != nil {
		t.Fatalf("CreateTask failed: %v", err)
	}

	eng.Trigger(trig, nil)
	eng.ProcessPending()
	if got := metricCounterValue(t, m.tasksSpawned); got != 1 {
		t.Errorf("tasks_spawned_total = %v, want 1", got)
	}
	if got := metricGaugeValue(t, m.tasksInFlight); got != 1 {
		t.Errorf("tasks_in_flight = %v, want 1", got)
	}

	eng.Trigger(trig, nil)
	eng.ProcessPending()
	if got := metricCounterValue(t, m.tasksDeduped); got != 1 {
		t.Errorf("tasks_deduped_total = %v, want 1", got)
	}

	ex.RunAll()
	eng.ProcessPending()
	if got := metricCounterValue(t, m.completions.WithLabelValues("success")); got != 1 {
		t.Errorf("task_completions_total(success) = %v, want 1", got)
	}
	if got := metricGaugeValue(t, m.tasksInFlight); got != 0 {
		t.Errorf("tasks_in_flight = %v after completion, want 0", got)
	}
}

func TestMetricsSeparateRegistries(t *testing.T) {
	// Two observers must be registrable side by side without collisions.
	a := NewMetrics(WithRegistry(prometheus.NewRegistry()))
	b := NewMetrics(WithRegistry(prometheus.NewRegistry()), WithSubsystem("second"))

	a.PassCompleted(signals.PassStats{Sends: 1})
	b.PassCompleted(signals.PassStats{Sends: 2})

	if got := metricCounterValue(t, a.sendsTotal); got != 1 {
		t.Errorf("first observer sends_total = %v, want 1", got)
	}
	if got := metricCounterValue(t, b.sendsTotal); got != 2 {
		t.Errorf("second observer sends_total = %v, want 2", got)
	}
}
