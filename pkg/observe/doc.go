// Package observe provides production-grade pass observers for the signal
// engine.
//
// This package includes:
//   - Prometheus metrics observer
//   - OpenTelemetry tracing observer
//
// # Prometheus Metrics
//
// The metrics observer counts and times every pass, evaluation, effect run
// and task instance:
//   - axon_passes_total: Total propagation passes processed
//   - axon_pass_duration_seconds: Pass duration histogram
//   - axon_evaluations_total: Computed evaluations by status
//   - axon_tasks_in_flight: Gauge of live task instances
//   - axon_failures_total: Contained node failures by code
//
//	m := observe.NewMetrics(observe.WithNamespace("myapp"))
//	eng := signals.New(signals.WithObserver(m))
//
// Then expose metrics on a separate port:
//
//	http.Handle("/metrics", promhttp.Handler())
//	go http.ListenAndServe(":9090", nil)
//
// # OpenTelemetry Tracing
//
// The tracing observer opens one span per pass, annotated with the pass
// stats, node-level events and any contained failures:
//
//	tr := observe.NewTracing(observe.WithTracerName("my-app"))
//	eng := signals.New(signals.WithObserver(tr))
//
// The tracer uses the global OpenTelemetry tracer provider. Configure it
// in your main() before ticking:
//
//	tp := sdktrace.NewTracerProvider(sdktrace.WithBatcher(exporter))
//	otel.SetTracerProvider(tp)
//
// Both observers can be combined on one engine:
//
//	eng := signals.New(
//	    signals.WithObserver(observe.NewMetrics()),
//	    signals.WithObserver(observe.NewTracing()),
//	)
package observe
