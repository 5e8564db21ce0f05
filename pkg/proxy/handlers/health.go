package handlers

import (
	"net/http"
	"sort"
	"time"

	"mercator-hq/chatrelay/pkg/providerfactory"
	"mercator-hq/chatrelay/pkg/proxy"
)

// ProviderRegistry reports on the configured upstream providers.
type ProviderRegistry interface {
	ProviderCount() int
	GetHealthSummary() providerfactory.HealthSummary
}

// HealthHandler handles health check requests for liveness probes.
type HealthHandler struct{}

// NewHealthHandler creates a new health check handler.
func NewHealthHandler() *HealthHandler {
	return &HealthHandler{}
}

// ServeHTTP implements http.Handler for liveness checks.
func (h *HealthHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if !allowGet(w, r) {
		return
	}

	proxy.WriteJSONResponse(w, http.StatusOK, map[string]any{
		"status":    "ok",
		"timestamp": time.Now().Unix(),
	})
}

// ReadyHandler handles readiness check requests. The relay is ready once at
// least one provider is configured; health is derived from traffic, so an
// idle relay is never reported unready because of it.
type ReadyHandler struct {
	providers ProviderRegistry
}

// NewReadyHandler creates a new readiness check handler.
func NewReadyHandler(pr ProviderRegistry) *ReadyHandler {
	return &ReadyHandler{providers: pr}
}

// ServeHTTP implements http.Handler for readiness checks.
func (h *ReadyHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if !allowGet(w, r) {
		return
	}

	count := h.providers.ProviderCount()

	status := "ready"
	statusCode := http.StatusOK
	if count == 0 {
		status = "not_ready"
		statusCode = http.StatusServiceUnavailable
	}

	proxy.WriteJSONResponse(w, statusCode, map[string]any{
		"status": status,
		"providers": map[string]any{
			"configured": count,
		},
		"timestamp": time.Now().Unix(),
	})
}

// ProviderHealthHandler provides detailed per-provider health.
type ProviderHealthHandler struct {
	providers ProviderRegistry
}

// NewProviderHealthHandler creates a new provider health handler.
func NewProviderHealthHandler(pr ProviderRegistry) *ProviderHealthHandler {
	return &ProviderHealthHandler{providers: pr}
}

// providerHealth is the JSON form of one provider's health.
type providerHealth struct {
	Name                string `json:"name"`
	Healthy             bool   `json:"healthy"`
	LastCheck           int64  `json:"last_check,omitempty"`
	LastError           string `json:"last_error,omitempty"`
	ConsecutiveFailures int    `json:"consecutive_failures"`
}

// ServeHTTP implements http.Handler for detailed provider health.
func (h *ProviderHealthHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if !allowGet(w, r) {
		return
	}

	summary := h.providers.GetHealthSummary()

	details := make([]providerHealth, 0, len(summary.Details))
	for name, health := range summary.Details {
		ph := providerHealth{
			Name:                name,
			Healthy:             health.IsHealthy,
			ConsecutiveFailures: health.ConsecutiveFailures,
		}
		if !health.LastCheck.IsZero() {
			ph.LastCheck = health.LastCheck.Unix()
		}
		if health.LastError != nil {
			ph.LastError = health.LastError.Error()
		}
		details = append(details, ph)
	}
	sort.Slice(details, func(i, j int) bool { return details[i].Name < details[j].Name })

	proxy.WriteJSONResponse(w, http.StatusOK, map[string]any{
		"total":     summary.Total,
		"healthy":   summary.Healthy,
		"unhealthy": summary.Unhealthy,
		"providers": details,
	})
}

func allowGet(w http.ResponseWriter, r *http.Request) bool {
	if r.Method == http.MethodGet || r.Method == http.MethodHead {
		return true
	}
	w.Header().Set("Allow", "GET, HEAD")
	http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
	return false
}
