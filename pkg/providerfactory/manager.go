package providerfactory

import (
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"sync"

	"mercator-hq/chatrelay/pkg/config"
	"mercator-hq/chatrelay/pkg/providers"
)

// Manager is the process-wide provider registry. It owns one adapter per
// configured provider and resolves each chat request to a provider, an
// endpoint and a credential.
//
// Manager is thread-safe and can be used concurrently.
type Manager struct {
	providers map[string]*providers.HTTPProvider
	relay     config.RelayConfig
	models    ModelIndex
	mu        sync.RWMutex
}

// ModelIndex maps a model id to the provider that serves it.
type ModelIndex interface {
	ProviderFor(model string) (string, bool)
}

// NewManager creates an empty provider manager with the given relay defaults.
func NewManager(relay config.RelayConfig) *Manager {
	return &Manager{
		providers: make(map[string]*providers.HTTPProvider),
		relay:     relay,
	}
}

// NewManagerFromConfig creates a manager holding every provider in cfg.
func NewManagerFromConfig(cfg *config.Config) (*Manager, error) {
	m := NewManager(cfg.Relay)
	if err := m.LoadFromConfig(cfg.Providers); err != nil {
		m.Close()
		return nil, err
	}
	return m, nil
}

// SetModelIndex sets the catalog consulted when resolving a model to a provider.
func (m *Manager) SetModelIndex(idx ModelIndex) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.models = idx
}

// AddProvider adds a provider to the manager.
// If a provider with the same name already exists, it is replaced and the old one is closed.
func (m *Manager) AddProvider(name string, pc config.ProviderConfig) error {
	provider, err := NewProvider(name, pc, m.relay)
	if err != nil {
		return fmt.Errorf("failed to add provider %q: %w", name, err)
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if existing, ok := m.providers[name]; ok {
		slog.Warn("replacing existing provider", "name", name)
		existing.Close()
	}
	m.providers[name] = provider

	slog.Info("provider added to manager",
		"name", name,
		"total_providers", len(m.providers),
	)

	return nil
}

// LoadFromConfig loads providers from configuration.
// All errors are collected and returned together.
func (m *Manager) LoadFromConfig(configs map[string]config.ProviderConfig) error {
	var errs []error

	names := make([]string, 0, len(configs))
	for name := range configs {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		if err := m.AddProvider(name, configs[name]); err != nil {
			errs = append(errs, err)
			slog.Error("failed to load provider",
				"name", name,
				"error", err,
			)
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("failed to load %d provider(s): %w", len(errs), errors.Join(errs...))
	}

	slog.Info("all providers loaded successfully", "count", len(configs))
	return nil
}

// GetProvider returns a provider by name.
func (m *Manager) GetProvider(name string) (*providers.HTTPProvider, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	provider, ok := m.providers[name]
	if !ok {
		return nil, fmt.Errorf("provider %q not found", name)
	}

	return provider, nil
}

// GetProviderNames returns the sorted names of all providers.
func (m *Manager) GetProviderNames() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()

	names := make([]string, 0, len(m.providers))
	for name := range m.providers {
		names = append(names, name)
	}
	sort.Strings(names)

	return names
}

// ProviderCount returns the total number of providers.
func (m *Manager) ProviderCount() int {
	m.mu.RLock()
	defer m.mu.RUnlock()

	return len(m.providers)
}

// Close closes all providers.
func (m *Manager) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	var errs []error
	for name, provider := range m.providers {
		if err := provider.Close(); err != nil {
			errs = append(errs, fmt.Errorf("failed to close provider %q: %w", name, err))
		}
	}

	m.providers = make(map[string]*providers.HTTPProvider)

	if len(errs) > 0 {
		return errors.Join(errs...)
	}

	slog.Debug("provider manager closed")
	return nil
}

// GetHealthSummary returns a summary of provider health status.
func (m *Manager) GetHealthSummary() HealthSummary {
	m.mu.RLock()
	defer m.mu.RUnlock()

	summary := HealthSummary{
		Total:   len(m.providers),
		Details: make(map[string]providers.ProviderHealth, len(m.providers)),
	}

	for name, provider := range m.providers {
		health := provider.GetHealth()
		summary.Details[name] = health

		if health.IsHealthy {
			summary.Healthy++
		}
	}

	summary.Unhealthy = summary.Total - summary.Healthy

	return summary
}

// HealthSummary provides an overview of provider health across the manager.
type HealthSummary struct {
	// Total is the total number of providers
	Total int

	// Healthy is the number of healthy providers
	Healthy int

	// Unhealthy is the number of unhealthy providers
	Unhealthy int

	// Details contains per-provider health information
	Details map[string]providers.ProviderHealth
}
