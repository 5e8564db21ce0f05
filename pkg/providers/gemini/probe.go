package gemini

import (
	"encoding/json"
	"strings"

	"mercator-hq/chatrelay/pkg/providers"
)

// ShapeName is the name used for this probe in configuration.
const ShapeName = "gemini"

type response struct {
	Candidates []candidate `json:"candidates"`
}

type candidate struct {
	Content *content `json:"content"`
}

type content struct {
	Parts []part `json:"parts"`
}

type part struct {
	Text    string `json:"text"`
	Thought bool   `json:"thought"`
}

// Probe extracts the text parts of candidates[0]. Thought parts are skipped.
func Probe(payload json.RawMessage) (providers.Delta, bool) {
	var resp response
	if err := json.Unmarshal(payload, &resp); err != nil || len(resp.Candidates) == 0 {
		return providers.Delta{}, false
	}

	c := resp.Candidates[0]
	if c.Content == nil {
		return providers.Delta{}, false
	}

	var b strings.Builder
	for _, p := range c.Content.Parts {
		if !p.Thought {
			b.WriteString(p.Text)
		}
	}
	if b.Len() == 0 {
		return providers.Delta{}, false
	}
	return providers.TextDelta(b.String()), true
}

// Named returns the probe paired with its shape name.
func Named() providers.NamedProbe {
	return providers.NamedProbe{Name: ShapeName, Probe: Probe}
}
