package catalog

import (
	"fmt"
	"log/slog"
	"os"
	"sync"

	"gopkg.in/yaml.v3"

	"mercator-hq/chatrelay/pkg/config"
)

// Model is one entry of the catalog.
type Model struct {
	ID       string `yaml:"id" json:"id"`
	Name     string `yaml:"name" json:"name"`
	Provider string `yaml:"provider" json:"provider"`
}

// file is the on-disk format of a models file.
type file struct {
	Models []Model `yaml:"models"`
}

// Defaults returns the built-in model list.
func Defaults() []Model {
	return []Model{
		{ID: "gpt-3.5-turbo", Name: "GPT-3.5 Turbo", Provider: "openai"},
		{ID: "gpt-4", Name: "GPT-4", Provider: "openai"},
		{ID: "gpt-4-turbo", Name: "GPT-4 Turbo", Provider: "openai"},
		{ID: "gpt-4o", Name: "GPT-4o", Provider: "openai"},
		{ID: "claude-3-opus", Name: "Claude 3 Opus", Provider: "anthropic"},
		{ID: "claude-3-sonnet", Name: "Claude 3 Sonnet", Provider: "anthropic"},
		{ID: "claude-3-haiku", Name: "Claude 3 Haiku", Provider: "anthropic"},
		{ID: "deepseek-chat", Name: "DeepSeek Chat", Provider: "deepseek"},
		{ID: "deepseek-coder", Name: "DeepSeek Coder", Provider: "deepseek"},
	}
}

// Catalog is the process-wide model list.
// It is safe for concurrent use; reloads replace the list atomically.
type Catalog struct {
	path   string
	logger *slog.Logger

	mu     sync.RWMutex
	models []Model
	index  map[string]string
}

// New creates a catalog. When cfg names a models file it is loaded and
// must be valid; otherwise the built-in list is used.
func New(cfg config.CatalogConfig, logger *slog.Logger) (*Catalog, error) {
	if logger == nil {
		logger = slog.Default()
	}

	c := &Catalog{path: cfg.ModelsFile, logger: logger}

	models := Defaults()
	if cfg.ModelsFile != "" {
		loaded, err := LoadFile(cfg.ModelsFile)
		if err != nil {
			return nil, err
		}
		models = loaded
	}
	c.set(models)

	return c, nil
}

// NewStatic creates a catalog holding models. It cannot be reloaded.
func NewStatic(models []Model) *Catalog {
	c := &Catalog{logger: slog.Default()}
	c.set(models)
	return c
}

// Path returns the models file backing the catalog, if any.
func (c *Catalog) Path() string {
	return c.path
}

// Models returns a copy of the current model list, in file order.
func (c *Catalog) Models() []Model {
	c.mu.RLock()
	defer c.mu.RUnlock()

	out := make([]Model, len(c.models))
	copy(out, c.models)
	return out
}

// ProviderFor returns the provider serving model.
func (c *Catalog) ProviderFor(model string) (string, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	provider, ok := c.index[model]
	return provider, ok
}

// Reload re-reads the models file. On error the current list is kept.
func (c *Catalog) Reload() error {
	if c.path == "" {
		return nil
	}

	models, err := LoadFile(c.path)
	if err != nil {
		return err
	}
	c.set(models)

	c.logger.Info("model catalog reloaded",
		"path", c.path,
		"models", len(models),
	)
	return nil
}

func (c *Catalog) set(models []Model) {
	index := make(map[string]string, len(models))
	for _, m := range models {
		index[m.ID] = m.Provider
	}

	c.mu.Lock()
	c.models = models
	c.index = index
	c.mu.Unlock()
}

// LoadFile reads and validates a models file.
func LoadFile(path string) ([]Model, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read models file %q: %w", path, err)
	}

	var f file
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("failed to parse models file %q: %w", path, err)
	}

	if err := validate(f.Models); err != nil {
		return nil, fmt.Errorf("invalid models file %q: %w", path, err)
	}

	return f.Models, nil
}

func validate(models []Model) error {
	if len(models) == 0 {
		return fmt.Errorf("at least one model is required")
	}

	seen := make(map[string]bool, len(models))
	for i := range models {
		m := &models[i]
		if m.ID == "" {
			return fmt.Errorf("models[%d]: id is required", i)
		}
		if m.Provider == "" {
			return fmt.Errorf("models[%d] (%s): provider is required", i, m.ID)
		}
		if seen[m.ID] {
			return fmt.Errorf("models[%d]: duplicate id %q", i, m.ID)
		}
		seen[m.ID] = true

		if m.Name == "" {
			m.Name = m.ID
		}
	}
	return nil
}
