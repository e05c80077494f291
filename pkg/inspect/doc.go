// Package inspect exposes a live engine over HTTP for debugging.
//
// This package implements:
//   - JSON snapshots of the dependency graph (/graph)
//   - Recent contained failures (/diagnostics)
//   - A health probe (/healthz)
//   - A websocket stream of pass frames (/stream)
//   - An optional Prometheus mount (/metrics)
//
// # Usage
//
//	ins := inspect.New(inspect.WithAddress("127.0.0.1:7433"))
//	defer ins.Close()
//
//	eng := signals.New(signals.WithObserver(ins.Observer()))
//	ins.Attach(eng)
//
//	ctx, cancel := context.WithCancel(context.Background())
//	defer cancel()
//	go ins.Run(ctx)
//
// The observer must be registered at engine construction, so the
// inspector is built first, the engine second, and Attach joins them.
// Handler returns the router for mounting into an existing server
// instead of Run.
//
// # Stream Protocol
//
// Clients connect to /stream via WebSocket and receive JSON frames:
//
//	{"type": "hello", "hello": {...}}            // Once, on connect
//	{"type": "graph", "graph": {...}}            // On connect and topology change
//	{"type": "pass", "pass": {...}}              // Per completed pass
//	{"type": "diagnostic", "diagnostic": {...}}  // Per contained failure
//
// Graph frames are gated on the engine's topology fingerprint, so value
// churn alone never re-sends the graph. Frames are dropped rather than
// queued when a client cannot keep up; the client's next graph frame
// resynchronizes it.
package inspect
