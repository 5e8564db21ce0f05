// Package middleware provides HTTP middleware for cross-cutting concerns:
// request IDs, access logging, CORS and panic recovery.
//
// # Middleware Chain
//
// The server chains them outermost first:
//
//	handler = Recovery(RequestID(Logging(CORS(mux))))
//
// RequestID runs before Logging so the access log line carries the ID.
//
// # Request ID
//
// RequestIDMiddleware reuses a client X-Request-ID or generates a UUID v4:
//
//	X-Request-ID: 550e8400-e29b-41d4-a716-446655440000
//
// The ID is stored through the logging package's context helpers, so any
// slog call made with the request context includes it.
//
// # Streaming
//
// The writer wrappers implement Flush and Unwrap. Chat responses are
// flushed frame by frame through http.ResponseController, which needs
// both to reach the connection.
package middleware
