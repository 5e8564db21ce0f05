package providerfactory

import (
	"fmt"
	"log/slog"

	"mercator-hq/chatrelay/pkg/config"
	"mercator-hq/chatrelay/pkg/providers"
	"mercator-hq/chatrelay/pkg/providers/anthropic"
	"mercator-hq/chatrelay/pkg/providers/gemini"
	"mercator-hq/chatrelay/pkg/providers/generic"
	"mercator-hq/chatrelay/pkg/providers/openai"
)

// shapes maps response shape names to their probes.
var shapes = map[string]func() providers.NamedProbe{
	generic.ErrorShapeName: generic.NamedError,
	openai.ShapeName:       openai.Named,
	anthropic.ShapeName:    anthropic.Named,
	gemini.ShapeName:       gemini.Named,
	generic.ShapeName:      generic.Named,
}

// DefaultChain returns the probe chain used when a provider configures no
// shapes: error envelopes first, then OpenAI, Anthropic, Gemini and the
// generic content/text/output fallback.
func DefaultChain() providers.ProbeChain {
	chain, _ := BuildChain(config.DefaultResponseShapes)
	return chain
}

// BuildChain assembles a probe chain from shape names in priority order.
func BuildChain(names []string) (providers.ProbeChain, error) {
	if len(names) == 0 {
		names = config.DefaultResponseShapes
	}

	chain := make(providers.ProbeChain, 0, len(names))
	seen := make(map[string]bool, len(names))
	for _, name := range names {
		ctor, ok := shapes[name]
		if !ok {
			return nil, fmt.Errorf("unknown response shape %q", name)
		}
		if seen[name] {
			continue
		}
		seen[name] = true
		chain = append(chain, ctor())
	}

	return chain, nil
}

// NewProvider creates an upstream adapter from its configuration.
//
// Example:
//
//	provider, err := NewProvider("openai", config.ProviderConfig{
//	    BaseURL: "https://api.openai.com/v1",
//	    APIKey:  "sk-...",
//	}, cfg.Relay)
//	if err != nil {
//	    return err
//	}
//	defer provider.Close()
func NewProvider(name string, pc config.ProviderConfig, relay config.RelayConfig) (*providers.HTTPProvider, error) {
	chain, err := BuildChain(pc.ResponseShapes)
	if err != nil {
		return nil, &providers.ConfigError{Provider: name, Field: "response_shapes", Message: err.Error()}
	}

	slog.Debug("creating provider",
		"name", name,
		"base_url", pc.BaseURL,
		"response_shapes", chain.Names(),
	)

	provider, err := providers.NewHTTPProvider(providers.ProviderConfig{
		Name:                name,
		BaseURL:             pc.BaseURL,
		APIKey:              pc.APIKey,
		Headers:             pc.Headers,
		Timeout:             pc.Timeout,
		MaxLineBytes:        relay.MaxLineBytes,
		MaxResponseBytes:    relay.MaxResponseBytes,
		MaxIdleConns:        pc.MaxIdleConns,
		MaxIdleConnsPerHost: pc.MaxIdleConnsPerHost,
		IdleConnTimeout:     pc.IdleConnTimeout,
	}, chain)
	if err != nil {
		return nil, fmt.Errorf("failed to create provider %q: %w", name, err)
	}

	return provider, nil
}
