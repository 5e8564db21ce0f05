package providers

import "time"

// Message is a single provider-agnostic conversation turn as sent upstream.
type Message struct {
	// Role identifies the message sender (system, user, assistant)
	Role string `json:"role"`

	// Content is the message text content
	Content string `json:"content"`
}

// Message role constants
const (
	RoleSystem    = "system"
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// ValidRole reports whether role is one of the roles the relay forwards.
func ValidRole(role string) bool {
	switch role {
	case RoleSystem, RoleUser, RoleAssistant:
		return true
	}
	return false
}

// DeltaKind discriminates the three shapes a canonical delta can take.
type DeltaKind int

const (
	// DeltaText carries a piece of model output.
	DeltaText DeltaKind = iota

	// DeltaDone marks successful completion of the stream.
	DeltaDone

	// DeltaError marks failed completion of the stream.
	DeltaError
)

// String returns the lowercase name of the kind.
func (k DeltaKind) String() string {
	switch k {
	case DeltaText:
		return "text"
	case DeltaDone:
		return "done"
	case DeltaError:
		return "error"
	default:
		return "unknown"
	}
}

// Delta is the provider-agnostic unit of output produced by the normalizer.
// Exactly one Delta of kind DeltaDone or DeltaError closes every stream.
type Delta struct {
	// Kind is the delta discriminator
	Kind DeltaKind

	// Text is the output fragment for DeltaText
	Text string

	// Err is the failure for DeltaError
	Err error

	// Passthrough is set on text deltas that were forwarded verbatim because
	// the upstream chunk was not JSON
	Passthrough bool
}

// Terminal reports whether the delta closes the stream.
func (d Delta) Terminal() bool {
	return d.Kind == DeltaDone || d.Kind == DeltaError
}

// TextDelta returns a text delta.
func TextDelta(text string) Delta {
	return Delta{Kind: DeltaText, Text: text}
}

// DoneDelta returns a successful terminal delta.
func DoneDelta() Delta {
	return Delta{Kind: DeltaDone}
}

// ErrorDelta returns a failed terminal delta.
func ErrorDelta(err error) Delta {
	return Delta{Kind: DeltaError, Err: err}
}

// Call is one fully resolved upstream invocation.
type Call struct {
	// Endpoint is the complete URL the request is POSTed to
	Endpoint string

	// Credential is sent as a bearer token
	Credential string

	// Model is the upstream model identifier
	Model string

	// Messages is the assembled conversation context
	Messages []Message

	// Stream selects incremental (SSE) or batch upstream responses
	Stream bool
}

// requestBody is the JSON body sent upstream.
type requestBody struct {
	Model    string    `json:"model"`
	Messages []Message `json:"messages"`
	Stream   bool      `json:"stream"`
}

// ProviderHealth tracks the observed health of an upstream provider.
// It is derived from real relay traffic only.
type ProviderHealth struct {
	// IsHealthy indicates whether the provider is currently healthy
	IsHealthy bool

	// LastCheck is the timestamp of the last recorded outcome
	LastCheck time.Time

	// LastError is the most recent error encountered (nil if healthy)
	LastError error

	// ConsecutiveFailures counts sequential failed calls
	ConsecutiveFailures int

	// LastSuccessfulRequest is the timestamp of the last successful call
	LastSuccessfulRequest time.Time

	// TotalRequests is the total number of calls sent to this provider
	TotalRequests int64

	// FailedRequests is the total number of failed calls
	FailedRequests int64
}

// ProviderConfig contains configuration for a single upstream provider.
type ProviderConfig struct {
	// Name is the provider identifier (e.g., "openai", "anthropic")
	Name string

	// BaseURL is the default endpoint used when a request does not override it
	BaseURL string

	// APIKey is the provider's default credential
	APIKey string

	// Headers are extra request headers sent on every upstream call
	Headers map[string]string

	// Timeout bounds the wait for upstream response headers. Response bodies
	// are not bounded so long streams are never cut.
	Timeout time.Duration

	// MaxLineBytes is the largest single SSE line the normalizer accepts
	MaxLineBytes int

	// MaxResponseBytes bounds non-streaming response bodies
	MaxResponseBytes int64

	// MaxIdleConns is the maximum number of idle connections in the pool
	MaxIdleConns int

	// MaxIdleConnsPerHost is the maximum idle connections per host
	MaxIdleConnsPerHost int

	// IdleConnTimeout is how long an idle connection remains in the pool
	IdleConnTimeout time.Duration
}
