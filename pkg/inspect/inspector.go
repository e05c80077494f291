package inspect

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"sync/atomic"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/axon-dev/axon/pkg/signals"
)

// Config configures an Inspector.
type Config struct {
	// Address is the listen address used by Run.
	Address string

	// MetricsHandler, when set, is mounted at /metrics. Pair it with a
	// pkg/observe Metrics observer sharing the same registry.
	MetricsHandler http.Handler

	// CheckOrigin gates websocket upgrades. The default accepts every
	// origin; the inspector is a development tool expected to listen on
	// loopback.
	CheckOrigin func(*http.Request) bool

	// ShutdownTimeout bounds graceful shutdown in Run.
	ShutdownTimeout time.Duration

	// Logger receives inspector logs. Defaults to slog.Default.
	Logger *slog.Logger
}

// Option configures the inspector.
type Option func(*Config)

// WithAddress sets the listen address for Run.
func WithAddress(addr string) Option {
	return func(c *Config) { c.Address = addr }
}

// WithMetricsHandler mounts a metrics handler at /metrics.
func WithMetricsHandler(h http.Handler) Option {
	return func(c *Config) { c.MetricsHandler = h }
}

// WithCheckOrigin sets the websocket origin check.
func WithCheckOrigin(fn func(*http.Request) bool) Option {
	return func(c *Config) { c.CheckOrigin = fn }
}

// WithShutdownTimeout bounds graceful shutdown in Run.
func WithShutdownTimeout(d time.Duration) Option {
	return func(c *Config) { c.ShutdownTimeout = d }
}

// WithLogger sets the inspector's logger.
func WithLogger(log *slog.Logger) Option {
	return func(c *Config) { c.Logger = log }
}

func defaultConfig() Config {
	return Config{
		Address:         "127.0.0.1:7433",
		CheckOrigin:     func(*http.Request) bool { return true },
		ShutdownTimeout: 5 * time.Second,
	}
}

// Inspector exposes a live engine over HTTP: JSON snapshots of the graph
// and recent diagnostics, a health probe, and a websocket stream of pass
// frames.
//
// The inspector is built before the engine so its Observer can be passed
// to signals.New; Attach then hands it the engine to snapshot:
//
//	ins := inspect.New()
//	eng := signals.New(signals.WithObserver(ins.Observer()))
//	ins.Attach(eng)
//
// Observer events arriving before Attach are dropped. Close when done.
type Inspector struct {
	log    *slog.Logger
	config Config
	hub    *hub
	router chi.Router

	engine   atomic.Pointer[signals.Engine]
	observer *streamObserver
	passCh   chan signals.PassStats
	diagCh   chan signals.Diagnostic
	done     chan struct{}

	// pump goroutine state, unshared
	lastFingerprint uint64
}

// New creates an Inspector.
func New(opts ...Option) *Inspector {
	config := defaultConfig()
	for _, opt := range opts {
		opt(&config)
	}
	log := config.Logger
	if log == nil {
		log = slog.Default()
	}
	log = log.With("component", "inspect")

	ins := &Inspector{
		log:    log,
		config: config,
		hub:    newHub(log, config.CheckOrigin),
		passCh: make(chan signals.PassStats, 64),
		diagCh: make(chan signals.Diagnostic, 64),
		done:   make(chan struct{}),
	}
	ins.observer = &streamObserver{ins: ins}
	ins.router = ins.routes()

	go ins.pump()
	return ins
}

// Attach hands the inspector the engine it snapshots. Call once the
// engine exists; the stream observer buffers nothing for a detached
// inspector.
func (ins *Inspector) Attach(engine *signals.Engine) {
	ins.engine.Store(engine)
}

// Observer returns the pass observer that feeds the stream. Register it
// at engine construction via signals.WithObserver (combine with others
// through signals.CombineObservers).
func (ins *Inspector) Observer() signals.PassObserver {
	return ins.observer
}

// Handler returns the inspector's HTTP handler for mounting into an
// existing server.
func (ins *Inspector) Handler() http.Handler {
	return ins.router
}

// ClientCount reports attached stream clients.
func (ins *Inspector) ClientCount() int {
	return ins.hub.clientCount()
}

// Run serves the inspector on the configured address until ctx is
// cancelled or the listener fails.
func (ins *Inspector) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:              ins.config.Address,
		Handler:           ins.router,
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		ins.log.Info("inspector listening", "address", ins.config.Address)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if err != http.ErrServerClosed {
			return err
		}
		return nil

	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), ins.config.ShutdownTimeout)
		defer cancel()
		ins.Close()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			ins.log.Error("inspector shutdown error", "error", err)
			return err
		}
		return nil
	}
}

// Close stops the stream pump and disconnects all clients. The HTTP
// handler keeps answering snapshot requests.
func (ins *Inspector) Close() {
	select {
	case <-ins.done:
		return
	default:
		close(ins.done)
	}
	ins.hub.close()
}

func (ins *Inspector) routes() chi.Router {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)

	r.Get("/healthz", ins.handleHealth)
	r.Get("/graph", ins.handleGraph)
	r.Get("/diagnostics", ins.handleDiagnostics)
	r.Get("/stream", ins.handleStream)
	if ins.config.MetricsHandler != nil {
		r.Handle("/metrics", ins.config.MetricsHandler)
	}
	return r
}

func (ins *Inspector) handleHealth(w http.ResponseWriter, r *http.Request) {
	eng := ins.engine.Load()
	if eng == nil {
		writeJSON(w, http.StatusServiceUnavailable, map[string]any{"status": "detached"})
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"status":   "ok",
		"pass":     eng.Pass(),
		"nodes":    eng.Len(),
		"inFlight": eng.InFlight(),
		"clients":  ins.hub.clientCount(),
	})
}

func (ins *Inspector) handleGraph(w http.ResponseWriter, r *http.Request) {
	eng := ins.engine.Load()
	if eng == nil {
		writeJSON(w, http.StatusServiceUnavailable, map[string]any{"status": "detached"})
		return
	}
	writeJSON(w, http.StatusOK, eng.Snapshot())
}

func (ins *Inspector) handleDiagnostics(w http.ResponseWriter, r *http.Request) {
	eng := ins.engine.Load()
	if eng == nil {
		writeJSON(w, http.StatusServiceUnavailable, map[string]any{"status": "detached"})
		return
	}
	diags := eng.Diagnostics()
	frames := make([]DiagnosticFrame, 0, len(diags))
	for _, d := range diags {
		frames = append(frames, diagnosticFrame(d))
	}
	writeJSON(w, http.StatusOK, frames)
}

func (ins *Inspector) handleStream(w http.ResponseWriter, r *http.Request) {
	eng := ins.engine.Load()
	if eng == nil {
		http.Error(w, "no engine attached", http.StatusServiceUnavailable)
		return
	}
	snap := eng.Snapshot()
	greet := []Frame{
		{Type: FrameHello, Hello: &HelloFrame{
			Pass:        snap.Pass,
			Fingerprint: snap.Fingerprint,
			Nodes:       len(snap.Nodes),
		}},
		{Type: FrameGraph, Graph: &snap},
	}
	ins.hub.serve(w, r, greet)
}

// pump fans observer events out to stream clients. Observer callbacks
// fire under the engine lock, so snapshot and fingerprint reads happen
// here, on the pump goroutine, after the pass releases it.
func (ins *Inspector) pump() {
	for {
		select {
		case <-ins.done:
			return

		case stats := <-ins.passCh:
			ins.hub.broadcast(Frame{Type: FramePass, Pass: &stats})
			ins.pushGraphIfChanged()

		case d := <-ins.diagCh:
			f := diagnosticFrame(d)
			ins.hub.broadcast(Frame{Type: FrameDiagnostic, Diagnostic: &f})
		}
	}
}

// pushGraphIfChanged broadcasts a fresh snapshot when the topology
// fingerprint has moved since the last push.
func (ins *Inspector) pushGraphIfChanged() {
	eng := ins.engine.Load()
	if eng == nil {
		return
	}
	fp := eng.Fingerprint()
	if fp == ins.lastFingerprint {
		return
	}
	ins.lastFingerprint = fp
	if ins.hub.clientCount() == 0 {
		return
	}
	snap := eng.Snapshot()
	ins.hub.broadcast(Frame{Type: FrameGraph, Graph: &snap})
}

// streamObserver forwards pass completions and failures to the pump.
// Sends never block: when the pump is behind, frames are dropped rather
// than stalling the pass.
type streamObserver struct {
	signals.BaseObserver
	ins *Inspector
}

func (o *streamObserver) PassCompleted(stats signals.PassStats) {
	select {
	case o.ins.passCh <- stats:
	default:
	}
}

func (o *streamObserver) FailureRecorded(d signals.Diagnostic) {
	select {
	case o.ins.diagCh <- d:
	default:
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}
