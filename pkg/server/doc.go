// Package server ties the chat relay's handlers and middleware into an
// http.Server and manages its lifecycle.
//
// # Basic Usage
//
//	cfg, err := config.LoadConfig(path)
//	if err != nil {
//	    return err
//	}
//
//	manager, err := providerfactory.NewManagerFromConfig(cfg)
//	if err != nil {
//	    return err
//	}
//	defer manager.Close()
//
//	srv := server.NewServer(&cfg.Proxy, server.Deps{
//	    Providers:   manager,
//	    Catalog:     catalog.NewStatic(catalog.Defaults()),
//	    Assembler:   conversation.NewAssembler(cfg.Relay),
//	    Attachments: attachments.NewResolver(cfg.Attachments),
//	})
//	return srv.Start(ctx)
//
// Start blocks until ctx is cancelled, then shuts down gracefully:
//
//  1. Stops accepting new connections
//  2. Waits for open streams to finish (up to shutdown timeout)
//  3. Returns the shutdown error, if any
//
// # Routes
//
//   - GET /                   - Plain-text banner
//   - POST /api/chat          - Chat relay (SSE)
//   - GET /api/models         - Model catalog
//   - GET /health             - Liveness probe (always returns 200)
//   - GET /ready              - Readiness probe (providers configured)
//   - GET /health/providers   - Per-provider health
//   - GET /metrics            - Prometheus metrics, when enabled
//
// # Middleware Chain
//
// Requests pass through the following middleware (outermost first):
//  1. Recovery: Recovers from panics and returns 500 error
//  2. RequestID: Generates unique request ID for tracing
//  3. Logging: Logs request/response details
//  4. CORS: Adds Cross-Origin Resource Sharing headers
//
// No per-request timeout is applied; chat streams may legitimately run
// for minutes.
package server
