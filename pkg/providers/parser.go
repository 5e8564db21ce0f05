package providers

import (
	"bytes"
	"encoding/json"
)

// ProbeChain is an ordered list of shape probes. The first probe that
// recognizes a payload wins, so earlier entries take priority.
type ProbeChain []NamedProbe

// ParseChunk implements ChunkParser.
func (c ProbeChain) ParseChunk(raw []byte) []Delta {
	payload := bytes.TrimSpace(raw)
	if len(payload) == 0 {
		return nil
	}

	if !json.Valid(payload) {
		return []Delta{{Kind: DeltaText, Text: string(raw), Passthrough: true}}
	}

	d, ok := c.Match(payload)
	if !ok {
		return nil
	}
	return []Delta{d}
}

// Match runs the probes in order and returns the first match.
func (c ProbeChain) Match(payload json.RawMessage) (Delta, bool) {
	for _, p := range c {
		if d, ok := p.Probe(payload); ok {
			return d, true
		}
	}
	return Delta{}, false
}

// Names returns the probe names in priority order.
func (c ProbeChain) Names() []string {
	names := make([]string, len(c))
	for i, p := range c {
		names[i] = p.Name
	}
	return names
}

// StringValue returns raw as a string when it is a JSON string, and "" otherwise.
func StringValue(raw json.RawMessage) string {
	if len(raw) == 0 || raw[0] != '"' {
		return ""
	}
	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return ""
	}
	return s
}

// CoerceText returns JSON strings unquoted and any other non-null value as
// its compact JSON text.
func CoerceText(raw json.RawMessage) string {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		return ""
	}
	if trimmed[0] == '"' {
		return StringValue(trimmed)
	}
	var buf bytes.Buffer
	if err := json.Compact(&buf, trimmed); err != nil {
		return string(trimmed)
	}
	return buf.String()
}
