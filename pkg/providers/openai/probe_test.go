package openai

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
		{name: "stream delta", payload: `{"id":"c1","object":"chat.completion.chunk","choices":[{"index":0,"delta":{"content":"Hello"}}]}`, want: "Hello", wantOK: true},
		{name: "complete message", payload: `{"choices":[{"message":{"role":"assistant","content":"Full"},"finish_reason":"stop"}]}`, want: "Full", wantOK: true},
		{name: "choice content", payload: `{"choices":[{"content":"Router"}]}`, want: "Router", wantOK: true},
		{name: "choice text", payload: `{"choices":[{"text":"Legacy"}]}`, want: "Legacy", wantOK: true},
		{name: "delta wins over text", payload: `{"choices":[{"delta":{"content":"A"},"text":"B"}]}`, want: "A", wantOK: true},
		{name: "role only chunk", payload: `{"choices":[{"delta":{"role":"assistant"}}]}`},
		{name: "null content", payload: `{"choices":[{"delta":{"content":null},"finish_reason":"stop"}]}`},
		{name: "empty choices", payload: `{"choices":[]}`},
		{name: "not openai", payload: `{"content":"x"}`},
		{name: "choices wrong type", payload: `{"choices":"x"}`},
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
