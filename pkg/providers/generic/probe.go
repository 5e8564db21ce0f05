package generic

import (
	"bytes"
	"encoding/json"
	"strings"

	"mercator-hq/chatrelay/pkg/providers"
)

// Shape names used in configuration.
const (
	ShapeName      = "generic"
	ErrorShapeName = "error"
)

// fallbackFields are tried in order by Probe.
var fallbackFields = []string{"content", "text", "output"}

// Probe extracts a top-level content, text or output field. Non-string values
// are forwarded as their JSON text.
func Probe(payload json.RawMessage) (providers.Delta, bool) {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(payload, &fields); err != nil {
		return providers.Delta{}, false
	}

	for _, name := range fallbackFields {
		if text := providers.CoerceText(fields[name]); text != "" {
			return providers.TextDelta(text), true
		}
	}
	return providers.Delta{}, false
}

type errorEnvelope struct {
	Error   json.RawMessage   `json:"error"`
	Choices []json.RawMessage `json:"choices"`
}

type errorBody struct {
	Type    string `json:"type"`
	Code    any    `json:"code"`
	Message string `json:"message"`
}

// ErrorProbe recognizes error envelopes sent in place of a normal chunk:
// {"error":{"message":..}}, {"error":"..."} and Anthropic's
// {"type":"error","error":{..}} event.
//
// An empty error value ("", {}, null, false) counts as absent, and a chunk
// that also carries choices is left to the OpenAI probe.
func ErrorProbe(payload json.RawMessage) (providers.Delta, bool) {
	var env errorEnvelope
	if err := json.Unmarshal(payload, &env); err != nil {
		return providers.Delta{}, false
	}
	if len(env.Choices) > 0 {
		return providers.Delta{}, false
	}

	raw := bytes.TrimSpace(env.Error)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) || bytes.Equal(raw, []byte("false")) {
		return providers.Delta{}, false
	}

	upstream := &providers.UpstreamError{}
	switch raw[0] {
	case '{':
		var body errorBody
		if json.Unmarshal(raw, &body) != nil {
			return providers.Delta{}, false
		}
		if body.Message == "" && body.Type == "" && body.Code == nil {
			return providers.Delta{}, false
		}
		upstream.Type = body.Type
		upstream.Message = body.Message
	case '"':
		if strings.TrimSpace(providers.StringValue(raw)) == "" {
			return providers.Delta{}, false
		}
	}
	if upstream.Message == "" {
		upstream.Message = providers.CoerceText(raw)
	}

	return providers.ErrorDelta(upstream), true
}

// Named returns the fallback probe paired with its shape name.
func Named() providers.NamedProbe {
	return providers.NamedProbe{Name: ShapeName, Probe: Probe}
}

// NamedError returns the error probe paired with its shape name.
func NamedError() providers.NamedProbe {
	return providers.NamedProbe{Name: ErrorShapeName, Probe: ErrorProbe}
}
