package openai

import (
	"encoding/json"

	"mercator-hq/chatrelay/pkg/providers"
)

// ShapeName is the name used for this probe in configuration.
const ShapeName = "openai"

// response covers both chat.completion.chunk and chat.completion bodies.
type response struct {
	Choices []choice `json:"choices"`
}

type choice struct {
	// Delta is set on streaming chunks
	Delta *message `json:"delta"`

	// Message is set on complete responses
	Message *message `json:"message"`

	// Content and Text are used by some OpenAI-compatible gateways
	Content json.RawMessage `json:"content"`
	Text    json.RawMessage `json:"text"`
}

type message struct {
	Role    string          `json:"role"`
	Content json.RawMessage `json:"content"`
}

// Probe extracts text from choices[0], trying delta.content, message.content,
// content and text in that order.
func Probe(payload json.RawMessage) (providers.Delta, bool) {
	var resp response
	if err := json.Unmarshal(payload, &resp); err != nil || len(resp.Choices) == 0 {
		return providers.Delta{}, false
	}

	c := resp.Choices[0]
	candidates := make([]json.RawMessage, 0, 4)
	if c.Delta != nil {
		candidates = append(candidates, c.Delta.Content)
	}
	if c.Message != nil {
		candidates = append(candidates, c.Message.Content)
	}
	candidates = append(candidates, c.Content, c.Text)

	for _, raw := range candidates {
		if text := providers.StringValue(raw); text != "" {
			return providers.TextDelta(text), true
		}
	}
	return providers.Delta{}, false
}

// Named returns the probe paired with its shape name.
func Named() providers.NamedProbe {
	return providers.NamedProbe{Name: ShapeName, Probe: Probe}
}
