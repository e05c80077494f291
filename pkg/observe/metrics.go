package observe

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/axon-dev/axon/pkg/signals"
)

// MetricsConfig configures the Prometheus metrics observer.
type MetricsConfig struct {
	// Namespace is the metrics namespace (default: "axon").
	Namespace string

	// Subsystem is the metrics subsystem (default: "").
	Subsystem string

	// ConstLabels are constant labels added to all metrics.
	ConstLabels prometheus.Labels

	// Buckets are the histogram buckets for durations.
	// Default: prometheus.DefBuckets
	Buckets []float64

	// Registry is the Prometheus registry to use.
	// Default: prometheus.DefaultRegisterer
	Registry prometheus.Registerer
}

// MetricsOption configures the Prometheus metrics observer.
type MetricsOption func(*MetricsConfig)

// WithNamespace sets the metrics namespace.
func WithNamespace(namespace string) MetricsOption {
	return func(c *MetricsConfig) {
		c.Namespace = namespace
	}
}

// WithSubsystem sets the metrics subsystem.
func WithSubsystem(subsystem string) MetricsOption {
	return func(c *MetricsConfig) {
		c.Subsystem = subsystem
	}
}

// WithConstLabels sets constant labels for all metrics.
func WithConstLabels(labels prometheus.Labels) MetricsOption {
	return func(c *MetricsConfig) {
		c.ConstLabels = labels
	}
}

// WithBuckets sets the histogram buckets.
func WithBuckets(buckets []float64) MetricsOption {
	return func(c *MetricsConfig) {
		c.Buckets = buckets
	}
}

// WithRegistry sets the Prometheus registry.
func WithRegistry(registry prometheus.Registerer) MetricsOption {
	return func(c *MetricsConfig) {
		c.Registry = registry
	}
}

// defaultMetricsConfig returns the default metrics configuration.
func defaultMetricsConfig() MetricsConfig {
	return MetricsConfig{
		Namespace: "axon",
		Buckets:   prometheus.DefBuckets,
		Registry:  prometheus.DefaultRegisterer,
	}
}

// Metrics is a pass observer exporting Prometheus metrics. One instance
// belongs to one engine; register separate instances (with distinct
// registries or const labels) for multiple engines.
type Metrics struct {
	signals.BaseObserver

	passesTotal    prometheus.Counter
	passDuration   prometheus.Histogram
	sendsTotal     prometheus.Counter
	dirtiedTotal   prometheus.Counter
	evaluations    *prometheus.CounterVec
	evalDuration   prometheus.Histogram
	effectRuns     *prometheus.CounterVec
	effectDuration prometheus.Histogram
	tasksSpawned   prometheus.Counter
	tasksDeduped   prometheus.Counter
	taskDuration   prometheus.Histogram
	completions    *prometheus.CounterVec
	tasksInFlight  prometheus.Gauge
	failures       *prometheus.CounterVec
}

// NewMetrics creates the observer and registers its collectors.
//
// Metrics collected:
//   - axon_passes_total: Counter of propagation passes
//   - axon_pass_duration_seconds: Histogram of pass duration
//   - axon_sends_total: Counter of committed sends (after collapse)
//   - axon_nodes_dirtied_total: Counter of dirty-marked nodes
//   - axon_evaluations_total: Counter of computed evaluations by status
//   - axon_evaluation_duration_seconds: Histogram of evaluation duration
//   - axon_effect_runs_total: Counter of effect runs by status
//   - axon_effect_duration_seconds: Histogram of effect duration
//   - axon_tasks_spawned_total: Counter of spawned task instances
//   - axon_tasks_deduped_total: Counter of suppressed duplicate spawns
//   - axon_task_duration_seconds: Histogram of task body duration
//   - axon_task_completions_total: Counter of observed completions by status
//   - axon_tasks_in_flight: Gauge of live task instances
//   - axon_failures_total: Counter of contained failures by code
func NewMetrics(opts ...MetricsOption) *Metrics {
	config := defaultMetricsConfig()
	for _, opt := range opts {
		opt(&config)
	}
	factory := promauto.With(config.Registry)

	return &Metrics{
		passesTotal: factory.NewCounter(prometheus.CounterOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "passes_total",
			Help:        "Total number of propagation passes",
			ConstLabels: config.ConstLabels,
		}),

		passDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "pass_duration_seconds",
			Help:        "Propagation pass duration in seconds",
			ConstLabels: config.ConstLabels,
			Buckets:     config.Buckets,
		}),

		sendsTotal: factory.NewCounter(prometheus.CounterOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "sends_total",
			Help:        "Total number of committed sends after per-pass collapse",
			ConstLabels: config.ConstLabels,
		}),

		dirtiedTotal: factory.NewCounter(prometheus.CounterOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "nodes_dirtied_total",
			Help:        "Total number of nodes marked dirty by propagation",
			ConstLabels: config.ConstLabels,
		}),

		evaluations: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "evaluations_total",
			Help:        "Total number of computed evaluations",
			ConstLabels: config.ConstLabels,
		}, []string{"status"}),

		evalDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "evaluation_duration_seconds",
			Help:        "Computed evaluation duration in seconds",
			ConstLabels: config.ConstLabels,
			Buckets:     config.Buckets,
		}),

		effectRuns: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "effect_runs_total",
			Help:        "Total number of effect runs",
			ConstLabels: config.ConstLabels,
		}, []string{"status"}),

		effectDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "effect_duration_seconds",
			Help:        "Effect body duration in seconds",
			ConstLabels: config.ConstLabels,
			Buckets:     config.Buckets,
		}),

		tasksSpawned: factory.NewCounter(prometheus.CounterOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "tasks_spawned_total",
			Help:        "Total number of spawned task instances",
			ConstLabels: config.ConstLabels,
		}),

		tasksDeduped: factory.NewCounter(prometheus.CounterOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "tasks_deduped_total",
			Help:        "Total number of task spawns suppressed by a running instance",
			ConstLabels: config.ConstLabels,
		}),

		taskDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "task_duration_seconds",
			Help:        "Task body duration in seconds",
			ConstLabels: config.ConstLabels,
			Buckets:     config.Buckets,
		}),

		completions: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "task_completions_total",
			Help:        "Total number of observed task completions",
			ConstLabels: config.ConstLabels,
		}, []string{"status"}),

		tasksInFlight: factory.NewGauge(prometheus.GaugeOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "tasks_in_flight",
			Help:        "Number of live task instances",
			ConstLabels: config.ConstLabels,
		}),

		failures: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "failures_total",
			Help:        "Total number of contained node failures by code",
			ConstLabels: config.ConstLabels,
		}, []string{"code"}),
	}
}

// PassCompleted records pass-level counters and the pass duration.
func (m *Metrics) PassCompleted(stats signals.PassStats) {
	m.passesTotal.Inc()
	m.passDuration.Observe(stats.Duration.Seconds())
	m.sendsTotal.Add(float64(stats.Sends))
	m.dirtiedTotal.Add(float64(stats.Dirtied))
}

// ComputedEvaluated records one computed evaluation.
func (m *Metrics) ComputedEvaluated(_ signals.Handle, dur time.Duration, err error) {
	m.evaluations.WithLabelValues(statusOf(err)).Inc()
	m.evalDuration.Observe(dur.Seconds())
}

// EffectRan records one effect run.
func (m *Metrics) EffectRan(_ signals.Handle, dur time.Duration, err error) {
	m.effectRuns.WithLabelValues(statusOf(err)).Inc()
	m.effectDuration.Observe(dur.Seconds())
}

// TaskStarted records a spawn.
func (m *Metrics) TaskStarted(signals.Handle, signals.TaskRun) {
	m.tasksSpawned.Inc()
	m.tasksInFlight.Inc()
}

// TaskDeduped records a suppressed duplicate spawn.
func (m *Metrics) TaskDeduped(signals.Handle) {
	m.tasksDeduped.Inc()
}

// TaskCompleted records an observed completion.
func (m *Metrics) TaskCompleted(_ signals.Handle, _ signals.TaskRun, dur time.Duration, err error) {
	m.completions.WithLabelValues(statusOf(err)).Inc()
	m.taskDuration.Observe(dur.Seconds())
	m.tasksInFlight.Dec()
}

// FailureRecorded counts a contained failure by its diagnostic code.
func (m *Metrics) FailureRecorded(d signals.Diagnostic) {
	m.failures.WithLabelValues(d.Code()).Inc()
}

// statusOf keeps the status label low-cardinality.
func statusOf(err error) string {
	if err != nil {
		return "error"
	}
	return "success"
}
