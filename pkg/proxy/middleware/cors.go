package middleware

import (
	"net/http"
	"slices"
	"strconv"
	"strings"

	"mercator-hq/chatrelay/pkg/config"
)

// DefaultCORSConfig returns the CORS configuration used when none is set:
// any origin may call the chat and model endpoints.
func DefaultCORSConfig() config.CORSConfig {
	return config.CORSConfig{
		Enabled:        true,
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders: []string{"Content-Type", "X-Request-ID"},
		ExposedHeaders: []string{"X-Request-ID"},
		MaxAge:         3600, // 1 hour
	}
}

// CORSMiddleware adds Cross-Origin Resource Sharing (CORS) headers to responses.
// It answers preflight OPTIONS requests with 204 and adds the allow-origin
// headers to every other request.
//
// Example usage:
//
//	handler = CORSMiddleware(cfg.Proxy.CORS)(handler)
func CORSMiddleware(cfg config.CORSConfig) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !cfg.Enabled {
				next.ServeHTTP(w, r)
				return
			}

			origin := r.Header.Get("Origin")
			wildcard := slices.Contains(cfg.AllowedOrigins, "*")

			switch {
			case origin != "" && (wildcard || slices.Contains(cfg.AllowedOrigins, origin)):
				w.Header().Set("Access-Control-Allow-Origin", origin)
				w.Header().Add("Vary", "Origin")

				if cfg.AllowCredentials {
					w.Header().Set("Access-Control-Allow-Credentials", "true")
				}
				if len(cfg.ExposedHeaders) > 0 {
					w.Header().Set("Access-Control-Expose-Headers", strings.Join(cfg.ExposedHeaders, ", "))
				}
			case wildcard:
				w.Header().Set("Access-Control-Allow-Origin", "*")
			}

			// Preflight
			if r.Method == http.MethodOptions {
				if len(cfg.AllowedMethods) > 0 {
					w.Header().Set("Access-Control-Allow-Methods", strings.Join(cfg.AllowedMethods, ", "))
				}
				if len(cfg.AllowedHeaders) > 0 {
					w.Header().Set("Access-Control-Allow-Headers", strings.Join(cfg.AllowedHeaders, ", "))
				}
				if cfg.MaxAge > 0 {
					w.Header().Set("Access-Control-Max-Age", strconv.Itoa(cfg.MaxAge))
				}

				w.WriteHeader(http.StatusNoContent)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
