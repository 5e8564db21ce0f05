package anthropic

import (
	"encoding/json"
	"strings"

	"mercator-hq/chatrelay/pkg/providers"
)

// ShapeName is the name used for this probe in configuration.
const ShapeName = "anthropic"

// Event types
const (
	EventContentBlockDelta = "content_block_delta"
	EventMessageStop       = "message_stop"
	TypeMessage            = "message"
)

type envelope struct {
	Type    string         `json:"type"`
	Delta   *blockDelta    `json:"delta"`
	Content []contentBlock `json:"content"`
}

type blockDelta struct {
	Type string `json:"type"`
	Text string `json:"text"`
}

type contentBlock struct {
	Type string `json:"type"`
	Text string `json:"text"`
}

// Probe handles streaming text deltas, the message_stop terminal and complete
// message bodies, whose text blocks are joined.
func Probe(payload json.RawMessage) (providers.Delta, bool) {
	var env envelope
	if err := json.Unmarshal(payload, &env); err != nil {
		return providers.Delta{}, false
	}

	switch env.Type {
	case EventContentBlockDelta:
		if env.Delta != nil && env.Delta.Text != "" {
			return providers.TextDelta(env.Delta.Text), true
		}

	case EventMessageStop:
		return providers.DoneDelta(), true

	case TypeMessage:
		var b strings.Builder
		for _, block := range env.Content {
			if block.Type == "text" {
				b.WriteString(block.Text)
			}
		}
		if b.Len() > 0 {
			return providers.TextDelta(b.String()), true
		}
	}

	return providers.Delta{}, false
}

// Named returns the probe paired with its shape name.
func Named() providers.NamedProbe {
	return providers.NamedProbe{Name: ShapeName, Probe: Probe}
}
