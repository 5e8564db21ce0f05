package middleware

import (
	"context"
	"net/http"

	"github.com/google/uuid"

	"mercator-hq/chatrelay/pkg/proxy"
	"mercator-hq/chatrelay/pkg/telemetry/logging"
)

// maxRequestIDLength bounds client-supplied request IDs.
const maxRequestIDLength = 128

// RequestIDMiddleware assigns every request an ID, stores it in the request
// context and echoes it in the X-Request-ID response header. A client
// supplied X-Request-ID is reused when it is of reasonable length.
//
// The ID is stored with logging.WithRequestID, so every log record written
// with the request context carries it.
//
// Example usage:
//
//	handler = RequestIDMiddleware(handler)
func RequestIDMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requestID := proxy.ExtractRequestID(r)
		if requestID == "" || len(requestID) > maxRequestIDLength {
			requestID = uuid.NewString()
		}

		ctx := logging.WithRequestID(r.Context(), requestID)
		w.Header().Set(proxy.RequestIDHeader, requestID)

		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// GetRequestID extracts the request ID from the context.
// Returns empty string if not found.
func GetRequestID(ctx context.Context) string {
	return logging.GetRequestID(ctx)
}
