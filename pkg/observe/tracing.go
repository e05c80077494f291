package observe

import (
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/axon-dev/axon/pkg/signals"
)

// Default tracer name for signal engines.
const defaultTracerName = "axon"

// TracingConfig configures the OpenTelemetry tracing observer.
type TracingConfig struct {
	// TracerName is the name of the tracer (default: "axon").
	TracerName string

	// NodeEvents adds a span event per evaluation, effect run and task
	// transition. Enabled by default; disable for very large graphs.
	NodeEvents bool

	// AttributeExtractor extracts custom attributes from completed pass
	// stats, added to the pass span.
	AttributeExtractor func(stats signals.PassStats) []attribute.KeyValue

	// tracer is the resolved tracer instance.
	tracer trace.Tracer
}

// TracingOption configures the OpenTelemetry tracing observer.
type TracingOption func(*TracingConfig)

// WithTracerName sets the tracer name.
func WithTracerName(name string) TracingOption {
	return func(c *TracingConfig) {
		c.TracerName = name
	}
}

// WithNodeEvents enables/disables per-node span events.
func WithNodeEvents(enabled bool) TracingOption {
	return func(c *TracingConfig) {
		c.NodeEvents = enabled
	}
}

// WithAttributeExtractor sets a custom attribute extractor for pass spans.
func WithAttributeExtractor(fn func(stats signals.PassStats) []attribute.KeyValue) TracingOption {
	return func(c *TracingConfig) {
		c.AttributeExtractor = fn
	}
}

// defaultTracingConfig returns the default tracing configuration.
func defaultTracingConfig() TracingConfig {
	return TracingConfig{
		TracerName: defaultTracerName,
		NodeEvents: true,
	}
}

// Tracing is a pass observer emitting one OpenTelemetry span per pass.
// Observer callbacks arrive from the pass goroutine in order, so the
// current span needs no lock.
//
// The tracer comes from the global OpenTelemetry tracer provider; configure
// that in your main() before ticking.
type Tracing struct {
	signals.BaseObserver

	config TracingConfig
	span   trace.Span
}

// NewTracing creates the observer.
func NewTracing(opts ...TracingOption) *Tracing {
	config := defaultTracingConfig()
	for _, opt := range opts {
		opt(&config)
	}
	config.tracer = otel.Tracer(config.TracerName)
	return &Tracing{config: config}
}

// PassStarted opens the pass span.
func (t *Tracing) PassStarted(pass uint64) {
	_, t.span = t.config.tracer.Start(
		context.Background(),
		"axon.pass",
		trace.WithSpanKind(trace.SpanKindInternal),
		trace.WithAttributes(attribute.Int64("axon.pass", int64(pass))),
	)
}

// PassCompleted annotates the span with the pass stats and ends it.
func (t *Tracing) PassCompleted(stats signals.PassStats) {
	if t.span == nil {
		return
	}
	t.span.SetAttributes(
		attribute.Int("axon.sends", stats.Sends),
		attribute.Int("axon.dirtied", stats.Dirtied),
		attribute.Int("axon.evaluated", stats.Evaluated),
		attribute.Int("axon.effects_run", stats.EffectsRun),
		attribute.Int("axon.tasks_spawned", stats.TasksSpawned),
		attribute.Int("axon.tasks_deduped", stats.TasksDeduped),
		attribute.Int("axon.completions", stats.Completions),
		attribute.Int("axon.failures", stats.Failures),
	)
	if t.config.AttributeExtractor != nil {
		t.span.SetAttributes(t.config.AttributeExtractor(stats)...)
	}
	if stats.Failures > 0 {
		t.span.SetStatus(codes.Error, fmt.Sprintf("%d contained failure(s)", stats.Failures))
	} else {
		t.span.SetStatus(codes.Ok, "")
	}
	t.span.End()
	t.span = nil
}

// ComputedEvaluated adds an evaluation event to the pass span.
func (t *Tracing) ComputedEvaluated(h signals.Handle, dur time.Duration, err error) {
	t.nodeEvent("axon.evaluate", h, dur, err)
}

// EffectRan adds an effect event to the pass span.
func (t *Tracing) EffectRan(h signals.Handle, dur time.Duration, err error) {
	t.nodeEvent("axon.effect", h, dur, err)
}

// TaskStarted adds a spawn event to the pass span.
func (t *Tracing) TaskStarted(h signals.Handle, run signals.TaskRun) {
	if t.span == nil || !t.config.NodeEvents {
		return
	}
	t.span.AddEvent("axon.task.spawn", trace.WithAttributes(
		attribute.String("axon.node", h.String()),
		attribute.String("axon.run_id", run.ID.String()),
	))
}

// TaskDeduped adds a dedup event to the pass span.
func (t *Tracing) TaskDeduped(h signals.Handle) {
	if t.span == nil || !t.config.NodeEvents {
		return
	}
	t.span.AddEvent("axon.task.dedup", trace.WithAttributes(
		attribute.String("axon.node", h.String()),
	))
}

// TaskCompleted adds a completion event to the pass span.
func (t *Tracing) TaskCompleted(h signals.Handle, run signals.TaskRun, dur time.Duration, err error) {
	if t.span == nil || !t.config.NodeEvents {
		return
	}
	attrs := []attribute.KeyValue{
		attribute.String("axon.node", h.String()),
		attribute.String("axon.run_id", run.ID.String()),
		attribute.Float64("axon.duration_ms", float64(dur)/float64(time.Millisecond)),
	}
	if err != nil {
		attrs = append(attrs, attribute.String("axon.error", err.Error()))
	}
	t.span.AddEvent("axon.task.complete", trace.WithAttributes(attrs...))
}

// FailureRecorded records the contained failure on the pass span.
func (t *Tracing) FailureRecorded(d signals.Diagnostic) {
	if t.span == nil {
		return
	}
	t.span.RecordError(d.Err, trace.WithAttributes(
		attribute.String("axon.node", d.Node.String()),
		attribute.String("axon.code", d.Code()),
	))
}

// nodeEvent adds one evaluation/effect event with duration and outcome.
func (t *Tracing) nodeEvent(name string, h signals.Handle, dur time.Duration, err error) {
	if t.span == nil || !t.config.NodeEvents {
		return
	}
	attrs := []attribute.KeyValue{
		attribute.String("axon.node", h.String()),
		attribute.Float64("axon.duration_ms", float64(dur)/float64(time.Millisecond)),
	}
	if err != nil {
		attrs = append(attrs, attribute.String("axon.error", err.Error()))
	}
	t.span.AddEvent(name, trace.WithAttributes(attrs...))
}
