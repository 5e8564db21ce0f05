package catalog

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"mercator-hq/chatrelay/pkg/config"
)

const validModels = `
models:
  - id: llama3
    name: Llama 3
    provider: ollama
  - id: gpt-4o
    provider: openai
`

func writeModels(t *testing.T, dir, content string) string {
	t.Helper()
	path := filepath.Join(dir, "models.yaml")
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestNew_Defaults(t *testing.T) {
	c, err := New(config.CatalogConfig{}, nil)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	models := c.Models()
	if len(models) != 9 {
		t.Fatalf("expected 9 built-in models, got %d", len(models))
	}
	if models[0].ID != "gpt-3.5-turbo" || models[0].Name != "GPT-3.5 Turbo" || models[0].Provider != "openai" {
		t.Errorf("unexpected first model %+v", models[0])
	}

	if p, ok := c.ProviderFor("claude-3-haiku"); !ok || p != "anthropic" {
		t.Errorf("ProviderFor(claude-3-haiku) = %q, %v", p, ok)
	}
	if _, ok := c.ProviderFor("unknown"); ok {
		t.Error("expected unknown model to miss")
	}
}

func TestNew_ModelsFile(t *testing.T) {
	path := writeModels(t, t.TempDir(), validModels)

	c, err := New(config.CatalogConfig{ModelsFile: path}, nil)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	models := c.Models()
	if len(models) != 2 {
		t.Fatalf("expected 2 models, got %d", len(models))
	}
	if models[1].Name != "gpt-4o" {
		t.Errorf("expected name to default to id, got %q", models[1].Name)
	}
	if p, _ := c.ProviderFor("llama3"); p != "ollama" {
		t.Errorf("ProviderFor(llama3) = %q", p)
	}
}

func TestLoadFile_Invalid(t *testing.T) {
	tests := []struct {
		name    string
		content string
		wantErr string
	}{
		{name: "empty", content: "models: []", wantErr: "at least one model"},
		{name: "missing id", content: "models:\n  - provider: openai\n", wantErr: "id is required"},
		{name: "missing provider", content: "models:\n  - id: x\n", wantErr: "provider is required"},
		{name: "duplicate", content: "models:\n  - {id: x, provider: a}\n  - {id: x, provider: b}\n", wantErr: "duplicate id"},
		{name: "bad yaml", content: "models: [", wantErr: "failed to parse"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := writeModels(t, t.TempDir(), tt.content)
			_, err := LoadFile(path)
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("LoadFile() error = %v, want containing %q", err, tt.wantErr)
			}
		})
	}

	if _, err := LoadFile(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Error("expected error for missing file")
	}
}

func TestCatalog_ReloadKeepsPreviousOnError(t *testing.T) {
	dir := t.TempDir()
	path := writeModels(t, dir, validModels)

	c, err := New(config.CatalogConfig{ModelsFile: path}, nil)
	if err != nil {
		t.Fatal(err)
	}

	writeModels(t, dir, "models: [")
	if err := c.Reload(); err == nil {
		t.Fatal("expected reload error")
	}
	if len(c.Models()) != 2 {
		t.Error("expected previous models to be kept")
	}

	writeModels(t, dir, "models:\n  - {id: only, provider: openai}\n")
	if err := c.Reload(); err != nil {
		t.Fatalf("Reload() error = %v", err)
	}
	if models := c.Models(); len(models) != 1 || models[0].ID != "only" {
		t.Errorf("unexpected models after reload %+v", models)
	}
}

func TestCatalog_ModelsReturnsCopy(t *testing.T) {
	c := NewStatic(Defaults())
	models := c.Models()
	models[0].ID = "mutated"

	if c.Models()[0].ID != "gpt-3.5-turbo" {
		t.Error("Models() must not expose internal state")
	}
}
