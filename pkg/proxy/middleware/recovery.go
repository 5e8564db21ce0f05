package middleware

import (
	"log/slog"
	"net/http"
	"runtime/debug"

	"mercator-hq/chatrelay/pkg/proxy"
	"mercator-hq/chatrelay/pkg/proxy/types"
)

// RecoveryMiddleware recovers from panics in HTTP handlers and returns a 500
// JSON error. The panic is logged with its stack trace; nothing internal is
// exposed to the client.
//
// If the handler already committed a response (an open event stream, for
// instance) nothing more is written. http.ErrAbortHandler is re-raised so
// net/http can abort the connection quietly.
//
// Example usage:
//
//	handler = RecoveryMiddleware(handler)
func RecoveryMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		rw := newResponseWriter(w)

		defer func() {
			err := recover()
			if err == nil {
				return
			}
			if err == http.ErrAbortHandler {
				panic(err)
			}

			slog.ErrorContext(r.Context(), "panic in handler",
				"error", err,
				"method", r.Method,
				"path", r.URL.Path,
				"stack", string(debug.Stack()),
			)

			if rw.written {
				return
			}

			_ = proxy.WriteErrorResponse(rw, types.NewServerError(
				"An internal error occurred. Please try again later.",
			))
		}()

		next.ServeHTTP(rw, r)
	})
}
