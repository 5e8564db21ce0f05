package providers

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"strings"
	"sync"
	"time"
)

// DefaultMaxResponseBytes bounds non-streaming upstream bodies when no limit is configured.
const DefaultMaxResponseBytes = 32 << 20

// HTTPProvider is the upstream adapter for HTTP chat-completion APIs.
// It owns a pooled HTTP client and tracks provider health from real calls.
type HTTPProvider struct {
	// config contains the provider configuration
	config ProviderConfig

	// parser converts upstream payloads into deltas
	parser ChunkParser

	// client is the HTTP client with connection pooling
	client *http.Client

	// health tracks the provider's health status
	health ProviderHealth

	// healthMu protects concurrent access to health status
	healthMu sync.RWMutex
}

// NewHTTPProvider creates an upstream adapter with connection pooling.
func NewHTTPProvider(config ProviderConfig, parser ChunkParser) (*HTTPProvider, error) {
	if config.Name == "" {
		return nil, &ConfigError{Provider: config.Name, Field: "name", Message: "provider name is required"}
	}
	if parser == nil {
		return nil, &ConfigError{Provider: config.Name, Field: "response_shapes", Message: "at least one response shape is required"}
	}

	transport := &http.Transport{
		Proxy:                 http.ProxyFromEnvironment,
		MaxIdleConns:          config.MaxIdleConns,
		MaxIdleConnsPerHost:   config.MaxIdleConnsPerHost,
		IdleConnTimeout:       config.IdleConnTimeout,
		ResponseHeaderTimeout: config.Timeout,
		ForceAttemptHTTP2:     true,
	}

	return &HTTPProvider{
		config: config,
		parser: parser,
		// No client-wide Timeout: it would cut long streams mid-body.
		client: &http.Client{Transport: transport},
		health: ProviderHealth{
			IsHealthy:             true,
			LastCheck:             time.Now(),
			LastSuccessfulRequest: time.Now(),
		},
	}, nil
}

// GetName returns the provider's configured name.
func (p *HTTPProvider) GetName() string {
	return p.config.Name
}

// GetConfig returns the provider's configuration.
func (p *HTTPProvider) GetConfig() ProviderConfig {
	return p.config
}

// Open implements Adapter.
func (p *HTTPProvider) Open(ctx context.Context, call *Call) (<-chan Delta, error) {
	if call.Endpoint == "" {
		return nil, ErrMissingEndpoint
	}
	if call.Credential == "" {
		return nil, ErrMissingCredential
	}

	body, err := json.Marshal(requestBody{Model: call.Model, Messages: call.Messages, Stream: call.Stream})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	headers := map[string]string{
		"Authorization": "Bearer " + call.Credential,
		"Content-Type":  "application/json",
	}
	if call.Stream {
		headers["Accept"] = "text/event-stream"
	} else {
		headers["Accept"] = "application/json"
	}

	resp, err := p.DoRequest(ctx, http.MethodPost, call.Endpoint, body, headers)
	if err != nil {
		return nil, err
	}

	if call.Stream {
		n := &Normalizer{Provider: p.config.Name, Parser: p.parser, MaxLineBytes: p.config.MaxLineBytes}
		return n.Run(ctx, resp.Body), nil
	}

	return p.readComplete(ctx, resp.Body), nil
}

// readComplete parses a batch response into one text delta and a terminal.
func (p *HTTPProvider) readComplete(ctx context.Context, body io.ReadCloser) <-chan Delta {
	out := make(chan Delta, 2)

	go func() {
		defer close(out)
		defer body.Close()

		limit := p.config.MaxResponseBytes
		if limit <= 0 {
			limit = DefaultMaxResponseBytes
		}

		raw, err := io.ReadAll(io.LimitReader(body, limit))
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			out <- ErrorDelta(&StreamError{Provider: p.config.Name, Message: "failed to read response", Cause: err})
			return
		}

		for _, d := range p.completeDeltas(raw) {
			out <- d
		}
	}()

	return out
}

// completeDeltas maps a full response body to exactly one text delta
// followed by a terminal, or a single error terminal.
func (p *HTTPProvider) completeDeltas(raw []byte) []Delta {
	deltas := p.parser.ParseChunk(raw)

	var text strings.Builder
	for _, d := range deltas {
		switch d.Kind {
		case DeltaError:
			return []Delta{d}
		case DeltaText:
			text.WriteString(d.Text)
		}
	}

	if text.Len() == 0 {
		slog.Warn("upstream response matched no known shape",
			"provider", p.config.Name,
			"bytes", len(raw),
		)
		text.WriteString("unable to extract text from upstream response. Raw response: ")
		text.Write(bytes.TrimSpace(raw))
	}

	return []Delta{TextDelta(text.String()), DoneDelta()}
}

// DoRequest performs a single HTTP request and classifies failures.
// Non-2xx responses are drained, closed and returned as typed errors.
func (p *HTTPProvider) DoRequest(ctx context.Context, method, url string, body []byte, headers map[string]string) (*http.Response, error) {
	var bodyReader io.Reader
	if body != nil {
		bodyReader = bytes.NewReader(body)
	}

	req, err := http.NewRequestWithContext(ctx, method, url, bodyReader)
	if err != nil {
		return nil, &ProviderError{Provider: p.config.Name, Message: "failed to create request", Cause: err}
	}

	for key, value := range p.config.Headers {
		req.Header.Set(key, value)
	}
	for key, value := range headers {
		req.Header.Set(key, value)
	}

	slog.Debug("sending request to provider",
		"provider", p.config.Name,
		"method", method,
		"url", url,
	)

	resp, err := p.client.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			// Caller went away; not a provider failure.
			return nil, ctx.Err()
		}

		var netErr net.Error
		if errors.As(err, &netErr) && netErr.Timeout() {
			err = &TimeoutError{Provider: p.config.Name, Timeout: p.config.Timeout}
		} else {
			err = &ProviderError{Provider: p.config.Name, Message: "request failed", Cause: err}
		}
		p.recordRequest(false)
		p.updateHealth(false, err)
		return nil, err
	}

	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		p.recordRequest(true)
		p.updateHealth(true, nil)
		return resp, nil
	}

	errorBody, _ := io.ReadAll(io.LimitReader(resp.Body, 64<<10))
	resp.Body.Close()
	message := upstreamErrorMessage(errorBody, resp.Status)

	p.recordRequest(false)

	switch resp.StatusCode {
	case http.StatusUnauthorized, http.StatusForbidden:
		err = &AuthError{Provider: p.config.Name, Message: message}
	case http.StatusTooManyRequests:
		err = &RateLimitError{
			Provider:   p.config.Name,
			RetryAfter: parseRetryAfter(resp.Header.Get("Retry-After")),
			Message:    message,
		}
	default:
		err = &ProviderError{Provider: p.config.Name, StatusCode: resp.StatusCode, Message: message}
	}

	// Client errors are about the request, not the provider's availability.
	if resp.StatusCode >= 500 || resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden {
		p.updateHealth(false, err)
	}

	return nil, err
}

// upstreamErrorMessage prefers the provider's own error message over the raw body.
func upstreamErrorMessage(body []byte, status string) string {
	var envelope struct {
		Error json.RawMessage `json:"error"`
	}
	if err := json.Unmarshal(body, &envelope); err == nil && len(envelope.Error) > 0 {
		var nested struct {
			Message string `json:"message"`
		}
		if err := json.Unmarshal(envelope.Error, &nested); err == nil && nested.Message != "" {
			return nested.Message
		}
		var flat string
		if err := json.Unmarshal(envelope.Error, &flat); err == nil && flat != "" {
			return flat
		}
	}

	if text := strings.TrimSpace(string(body)); text != "" {
		return text
	}
	return status
}

// Close releases pooled connections.
func (p *HTTPProvider) Close() error {
	p.client.CloseIdleConnections()
	slog.Debug("provider closed", "provider", p.config.Name)
	return nil
}

// parseRetryAfter parses the Retry-After header value.
// It supports both delay-seconds and HTTP-date formats.
func parseRetryAfter(header string) time.Duration {
	if header == "" {
		return 0
	}

	var seconds int
	if _, err := fmt.Sscanf(header, "%d", &seconds); err == nil {
		return time.Duration(seconds) * time.Second
	}

	if t, err := http.ParseTime(header); err == nil {
		return time.Until(t)
	}

	return 0
}
