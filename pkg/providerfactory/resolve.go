package providerfactory

import (
	"fmt"
	"net/url"
	"regexp"
	"strings"

	"mercator-hq/chatrelay/pkg/providers"
)

// chatCompletionsPath is appended to bare base URLs.
const chatCompletionsPath = "/chat/completions"

// modelPrefixes maps model name prefixes to provider ids.
var modelPrefixes = []struct {
	prefix   string
	provider string
}{
	{"gpt-", "openai"},
	{"chatgpt-", "openai"},
	{"o1", "openai"},
	{"o3", "openai"},
	{"o4", "openai"},
	{"claude-", "anthropic"},
	{"deepseek-", "deepseek"},
	{"gemini-", "gemini"},
}

// versionSegment matches API version path segments such as v1 or v1beta.
var versionSegment = regexp.MustCompile(`^v\d+[a-z0-9]*$`)

// Hint carries the request fields that influence resolution.
type Hint struct {
	// Provider is an explicit provider id sent by the client
	Provider string

	// Model is the requested model; empty selects the relay default
	Model string

	// APIKey is a per-request credential
	APIKey string

	// Endpoint is a per-request endpoint override
	Endpoint string
}

// Route is the outcome of resolution: which adapter to call and how.
type Route struct {
	// ProviderName is the resolved provider id
	ProviderName string

	// Provider is the adapter for ProviderName
	Provider providers.Adapter

	// Model is the resolved model
	Model string

	// Endpoint is the full upstream URL
	Endpoint string

	// Credential is the resolved bearer credential
	Credential string
}

// EndpointHost returns the host of the resolved endpoint, for logging.
func (r *Route) EndpointHost() string {
	u, err := url.Parse(r.Endpoint)
	if err != nil {
		return ""
	}
	return u.Host
}

// Resolve picks the provider, credential and endpoint for a request.
//
// Provider: explicit hint, then the model index, then the model name
// prefix, then the relay default. Hints naming an unknown provider are
// ignored.
//
// Credential: request key, then the provider's key, then the relay key.
// A missing credential is reported before the endpoint is considered.
//
// Endpoint: request override, then the provider's base URL.
func (m *Manager) Resolve(hint Hint) (*Route, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	model := hint.Model
	if model == "" {
		model = m.relay.DefaultModel
	}

	name := m.providerFor(hint.Provider, model)
	provider, ok := m.providers[name]
	if !ok {
		return nil, fmt.Errorf("%w: provider %q is not configured", providers.ErrInvalidRequest, name)
	}
	pc := provider.GetConfig()

	credential := firstNonEmpty(hint.APIKey, pc.APIKey, m.relay.DefaultAPIKey)
	if credential == "" {
		return nil, providers.ErrMissingCredential
	}

	raw := firstNonEmpty(hint.Endpoint, pc.BaseURL)
	if raw == "" {
		return nil, providers.ErrMissingEndpoint
	}
	endpoint, err := NormalizeEndpoint(raw)
	if err != nil {
		return nil, err
	}

	return &Route{
		ProviderName: name,
		Provider:     provider,
		Model:        model,
		Endpoint:     endpoint,
		Credential:   credential,
	}, nil
}

// providerFor must be called with m.mu held.
func (m *Manager) providerFor(hint, model string) string {
	if _, ok := m.providers[hint]; ok && hint != "" {
		return hint
	}

	if m.models != nil {
		if name, ok := m.models.ProviderFor(model); ok {
			if _, registered := m.providers[name]; registered {
				return name
			}
		}
	}

	lower := strings.ToLower(model)
	for _, mp := range modelPrefixes {
		if strings.HasPrefix(lower, mp.prefix) {
			if _, registered := m.providers[mp.provider]; registered {
				return mp.provider
			}
		}
	}

	return m.relay.DefaultProvider
}

// NormalizeEndpoint turns a base URL into a chat completions URL.
// A URL whose path is empty or ends in an API version segment (v1, v1beta)
// or "openai" is treated as a base URL and gets /chat/completions appended.
// Any other URL is used verbatim.
func NormalizeEndpoint(raw string) (string, error) {
	u, err := url.Parse(strings.TrimSpace(raw))
	if err != nil {
		return "", fmt.Errorf("%w: invalid endpoint %q: %v", providers.ErrInvalidRequest, raw, err)
	}
	if (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return "", fmt.Errorf("%w: endpoint %q must be an absolute http(s) URL", providers.ErrInvalidRequest, raw)
	}

	path := strings.TrimRight(u.Path, "/")
	last := path[strings.LastIndex(path, "/")+1:]
	if path == "" || versionSegment.MatchString(last) || last == "openai" {
		u.Path = path + chatCompletionsPath
		u.RawPath = ""
	}

	return u.String(), nil
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
