package providers

import (
	"encoding/json"
	"testing"
	"time"
)

// contentProbe matches {"content":"..."} and {"stop":true}.
func contentProbe(payload json.RawMessage) (Delta, bool) {
	var v struct {
		Content string `json:"content"`
		Stop    bool   `json:"stop"`
		Error   string `json:"error"`
	}
	if err := json.Unmarshal(payload, &v); err != nil {
		return Delta{}, false
	}
	switch {
	case v.Error != "":
		return ErrorDelta(&UpstreamError{Message: v.Error}), true
	case v.Stop:
		return DoneDelta(), true
	case v.Content != "":
		return TextDelta(v.Content), true
	}
	return Delta{}, false
}

func testChain() ProbeChain {
	return ProbeChain{{Name: "content", Probe: contentProbe}}
}

func collect(t *testing.T, ch <-chan Delta) []Delta {
	t.Helper()
	var out []Delta
	timeout := time.After(5 * time.Second)
	for {
		select {
		case d, ok := <-ch:
			if !ok {
				return out
			}
			out = append(out, d)
		case <-timeout:
			t.Fatal("timed out waiting for stream to close")
		}
	}
}

func texts(deltas []Delta) string {
	var s string
	for _, d := range deltas {
		if d.Kind == DeltaText {
			s += d.Text
		}
	}
	return s
}

func terminals(deltas []Delta) int {
	n := 0
	for _, d := range deltas {
		if d.Terminal() {
			n++
		}
	}
	return n
}
