package providers

import (
	"context"
	"encoding/json"
)

// Adapter opens upstream calls and yields canonical deltas.
//
// Open performs exactly one upstream attempt. Errors returned by Open happen
// before any delta exists (connection failures, non-2xx statuses). Once Open
// succeeds, the returned channel yields zero or more text deltas followed by
// exactly one terminal delta and is then closed.
//
// Cancelling ctx aborts the upstream request; the channel is closed without
// a terminal in that case.
type Adapter interface {
	Open(ctx context.Context, call *Call) (<-chan Delta, error)

	// GetName returns the provider's configured name.
	GetName() string

	// GetHealth returns health derived from recent calls.
	GetHealth() ProviderHealth

	// Close releases pooled connections.
	Close() error
}

// ChunkParser converts one upstream payload into canonical deltas.
type ChunkParser interface {
	// ParseChunk returns the deltas for one payload. A payload that is not
	// JSON is returned verbatim as a single pass-through text delta. A JSON
	// payload no shape matches yields no deltas.
	ParseChunk(raw []byte) []Delta
}

// Probe recognizes one response shape. It reports ok only when the payload
// has that shape and carries non-empty text, a terminal or an error.
type Probe func(payload json.RawMessage) (Delta, bool)

// NamedProbe pairs a probe with the shape name used in configuration and logs.
type NamedProbe struct {
	Name  string
	Probe Probe
}
