package providerfactory

import (
	"encoding/json"
	"errors"
	"testing"
	"time"

	"mercator-hq/chatrelay/pkg/config"
	"mercator-hq/chatrelay/pkg/providers"
)

func TestBuildChain(t *testing.T) {
	chain, err := BuildChain([]string{"openai", "generic", "openai"})
	if err != nil {
		t.Fatalf("BuildChain failed: %v", err)
	}
	names := chain.Names()
	if len(names) != 2 || names[0] != "openai" || names[1] != "generic" {
		t.Errorf("expected deduplicated [openai generic], got %v", names)
	}

	if _, err := BuildChain([]string{"cohere"}); err == nil {
		t.Error("expected error for unknown shape")
	}

	def, err := BuildChain(nil)
	if err != nil {
		t.Fatalf("BuildChain(nil) failed: %v", err)
	}
	if len(def) != len(config.DefaultResponseShapes) {
		t.Errorf("expected default chain, got %v", def.Names())
	}
}

func TestDefaultChain_Priority(t *testing.T) {
	chain := DefaultChain()

	tests := []struct {
		name     string
		payload  string
		wantKind providers.DeltaKind
		wantText string
	}{
		{
			name:     "openai wins over generic",
			payload:  `{"choices":[{"delta":{"content":"A"}}],"content":"B"}`,
			wantKind: providers.DeltaText,
			wantText: "A",
		},
		{
			name:     "error wins over text",
			payload:  `{"error":{"message":"quota"},"content":"B"}`,
			wantKind: providers.DeltaError,
		},
		{
			name:     "empty error beside openai content",
			payload:  `{"choices":[{"delta":{"content":"Hi"}}],"error":""}`,
			wantKind: providers.DeltaText,
			wantText: "Hi",
		},
		{
			name:     "empty error object beside openai content",
			payload:  `{"choices":[{"delta":{"content":"Hi"}}],"error":{}}`,
			wantKind: providers.DeltaText,
			wantText: "Hi",
		},
		{
			name:     "anthropic delta",
			payload:  `{"type":"content_block_delta","delta":{"type":"text_delta","text":"C"}}`,
			wantKind: providers.DeltaText,
			wantText: "C",
		},
		{
			name:     "anthropic stop",
			payload:  `{"type":"message_stop"}`,
			wantKind: providers.DeltaDone,
		},
		{
			name:     "gemini",
			payload:  `{"candidates":[{"content":{"parts":[{"text":"D"}]}}]}`,
			wantKind: providers.DeltaText,
			wantText: "D",
		},
		{
			name:     "generic",
			payload:  `{"output":"E"}`,
			wantKind: providers.DeltaText,
			wantText: "E",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d, ok := chain.Match(json.RawMessage(tt.payload))
			if !ok {
				t.Fatal("expected a match")
			}
			if d.Kind != tt.wantKind || d.Text != tt.wantText {
				t.Errorf("got kind=%s text=%q, want kind=%s text=%q", d.Kind, d.Text, tt.wantKind, tt.wantText)
			}
		})
	}
}

func TestNewProvider(t *testing.T) {
	provider, err := NewProvider("openai", config.ProviderConfig{
		BaseURL: "https://api.openai.com/v1",
		APIKey:  "test-key",
		Timeout: 30 * time.Second,
	}, config.RelayConfig{MaxLineBytes: 4096})
	if err != nil {
		t.Fatalf("NewProvider() failed: %v", err)
	}
	defer provider.Close()

	if provider.GetName() != "openai" {
		t.Errorf("expected provider name openai, got %s", provider.GetName())
	}
	if provider.GetConfig().MaxLineBytes != 4096 {
		t.Errorf("expected relay line limit to be applied, got %d", provider.GetConfig().MaxLineBytes)
	}
}

func TestNewProvider_UnknownShape(t *testing.T) {
	_, err := NewProvider("x", config.ProviderConfig{ResponseShapes: []string{"nope"}}, config.RelayConfig{})
	var cfgErr *providers.ConfigError
	if !errors.As(err, &cfgErr) {
		t.Fatalf("expected ConfigError, got %v", err)
	}
	if cfgErr.Field != "response_shapes" {
		t.Errorf("unexpected field %q", cfgErr.Field)
	}
}
