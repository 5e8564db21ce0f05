package providers

import (
	"log/slog"
	"time"
)

// unhealthyThreshold is the number of consecutive failed calls after which
// a provider is reported unhealthy.
const unhealthyThreshold = 3

// IsHealthy returns the current health status.
func (p *HTTPProvider) IsHealthy() bool {
	p.healthMu.RLock()
	defer p.healthMu.RUnlock()
	return p.health.IsHealthy
}

// GetHealth returns detailed health information.
func (p *HTTPProvider) GetHealth() ProviderHealth {
	p.healthMu.RLock()
	defer p.healthMu.RUnlock()
	return p.health
}

// updateHealth records the outcome of one upstream call.
func (p *HTTPProvider) updateHealth(success bool, err error) {
	p.healthMu.Lock()
	defer p.healthMu.Unlock()

	p.health.LastCheck = time.Now()

	if success {
		if !p.health.IsHealthy {
			slog.Info("provider marked healthy",
				"provider", p.config.Name,
				"previous_failures", p.health.ConsecutiveFailures,
			)
		}
		p.health.IsHealthy = true
		p.health.ConsecutiveFailures = 0
		p.health.LastError = nil
		p.health.LastSuccessfulRequest = time.Now()
		return
	}

	p.health.ConsecutiveFailures++
	p.health.LastError = err

	if p.health.ConsecutiveFailures >= unhealthyThreshold && p.health.IsHealthy {
		p.health.IsHealthy = false
		slog.Warn("provider marked unhealthy",
			"provider", p.config.Name,
			"consecutive_failures", p.health.ConsecutiveFailures,
			"error", err,
		)
	}
}

// recordRequest counts one upstream call.
func (p *HTTPProvider) recordRequest(success bool) {
	p.healthMu.Lock()
	defer p.healthMu.Unlock()

	p.health.TotalRequests++
	if !success {
		p.health.FailedRequests++
	}
}
