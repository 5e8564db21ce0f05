package gemini

import (
	"encoding/json"
	"testing"
)

func TestProbe(t *testing.T) {
	tests := []struct {
		name    string
		payload string
		want    string
		wantOK  bool
	}{
		{name: "single part", payload: `{"candidates":[{"content":{"parts":[{"text":"Hello"}],"role":"model"}}]}`, want: "Hello", wantOK: true},
		{name: "multiple parts", payload: `{"candidates":[{"content":{"parts":[{"text":"a"},{"text":"b"}]}}]}`, want: "ab", wantOK: true},
		{name: "thought skipped", payload: `{"candidates":[{"content":{"parts":[{"text":"hmm","thought":true},{"text":"answer"}]}}]}`, want: "answer", wantOK: true},
		{name: "finish only", payload: `{"candidates":[{"finishReason":"STOP"}]}`},
		{name: "usage only", payload: `{"usageMetadata":{"totalTokenCount":3}}`},
		{name: "empty parts", payload: `{"candidates":[{"content":{"parts":[]}}]}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d, ok := Probe(json.RawMessage(tt.payload))
			if ok != tt.wantOK {
				t.Fatalf("expected ok=%v, got %v", tt.wantOK, ok)
			}
			if d.Text != tt.want {
				t.Errorf("expected %q, got %q", tt.want, d.Text)
			}
		})
	}
}
