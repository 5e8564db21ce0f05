package providers

import (
	"context"
	"errors"
	"io"
	"strings"
	"testing"
)

func runNormalizer(t *testing.T, body string) []Delta {
	t.Helper()
	n := &Normalizer{Provider: "test", Parser: testChain()}
	return collect(t, n.Run(context.Background(), io.NopCloser(strings.NewReader(body))))
}

func TestNormalizer_DoneSentinel(t *testing.T) {
	body := "data: {\"content\":\"Hel\"}\n\n" +
		"data: {\"content\":\"lo\"}\n\n" +
		"data: [DONE]\n\n" +
		"data: {\"content\":\"ignored\"}\n\n"

	got := runNormalizer(t, body)

	if len(got) != 3 {
		t.Fatalf("expected 3 deltas, got %d: %+v", len(got), got)
	}
	if texts(got) != "Hello" {
		t.Errorf("expected %q, got %q", "Hello", texts(got))
	}
	if got[2].Kind != DeltaDone {
		t.Errorf("expected final delta done, got %s", got[2].Kind)
	}
}

func TestNormalizer_EOFImpliesDone(t *testing.T) {
	got := runNormalizer(t, "data: {\"content\":\"a\"}\n\ndata: {\"content\":\"b\"}\n")

	if texts(got) != "ab" {
		t.Errorf("expected %q, got %q", "ab", texts(got))
	}
	if terminals(got) != 1 || got[len(got)-1].Kind != DeltaDone {
		t.Errorf("expected single done terminal, got %+v", got)
	}
}

func TestNormalizer_EmptyBody(t *testing.T) {
	got := runNormalizer(t, "")
	if len(got) != 1 || got[0].Kind != DeltaDone {
		t.Errorf("expected only done, got %+v", got)
	}
}

func TestNormalizer_SkipsFramingAndBlankLines(t *testing.T) {
	body := ": keep-alive\r\n" +
		"event: message\r\n" +
		"id: 7\r\n" +
		"retry: 1000\r\n" +
		"\r\n" +
		"data:{\"content\":\"x\"}\r\n" +
		"\r\n"

	got := runNormalizer(t, body)
	if len(got) != 2 || got[0].Text != "x" {
		t.Errorf("expected text x then done, got %+v", got)
	}
}

func TestNormalizer_FallbackLines(t *testing.T) {
	// Line-delimited JSON without the data: prefix.
	got := runNormalizer(t, "{\"content\":\"one\"}\n{\"content\":\"two\"}\n")
	if texts(got) != "onetwo" {
		t.Errorf("expected %q, got %q", "onetwo", texts(got))
	}

	got = runNormalizer(t, "data: not json at all\n\n")
	if len(got) != 2 || !got[0].Passthrough || got[0].Text != "not json at all" {
		t.Errorf("expected pass-through text, got %+v", got)
	}
}

func TestNormalizer_ParserTerminalStops(t *testing.T) {
	got := runNormalizer(t, "data: {\"content\":\"a\"}\n\ndata: {\"stop\":true}\n\ndata: {\"content\":\"b\"}\n\n")
	if texts(got) != "a" || terminals(got) != 1 {
		t.Errorf("expected stream to stop at provider terminal, got %+v", got)
	}
}

func TestNormalizer_MidStreamError(t *testing.T) {
	got := runNormalizer(t, "data: {\"content\":\"a\"}\n\ndata: {\"error\":\"overloaded\"}\n\ndata: {\"content\":\"b\"}\n\n")
	if len(got) != 2 {
		t.Fatalf("expected 2 deltas, got %+v", got)
	}
	last := got[1]
	if last.Kind != DeltaError || !strings.Contains(last.Err.Error(), "overloaded") {
		t.Errorf("expected error terminal, got %+v", last)
	}
}

type failingReader struct {
	data string
	read bool
}

func (r *failingReader) Read(p []byte) (int, error) {
	if !r.read {
		r.read = true
		return copy(p, r.data), nil
	}
	return 0, errors.New("connection reset by peer")
}

func TestNormalizer_ReadErrorIsErrorTerminal(t *testing.T) {
	n := &Normalizer{Provider: "test", Parser: testChain()}
	body := io.NopCloser(&failingReader{data: "data: {\"content\":\"partial\"}\n\n"})

	got := collect(t, n.Run(context.Background(), body))
	if texts(got) != "partial" {
		t.Errorf("expected delivered text before failure, got %q", texts(got))
	}
	last := got[len(got)-1]
	if last.Kind != DeltaError {
		t.Fatalf("expected error terminal, got %s", last.Kind)
	}
	var streamErr *StreamError
	if !errors.As(last.Err, &streamErr) {
		t.Errorf("expected *StreamError, got %T", last.Err)
	}
	if terminals(got) != 1 {
		t.Errorf("expected exactly one terminal, got %d", terminals(got))
	}
}

func TestNormalizer_LineTooLong(t *testing.T) {
	n := &Normalizer{Provider: "test", Parser: testChain(), MaxLineBytes: 32}
	body := io.NopCloser(strings.NewReader("data: {\"content\":\"" + strings.Repeat("x", 100) + "\"}\n"))

	got := collect(t, n.Run(context.Background(), body))
	if len(got) != 1 || got[0].Kind != DeltaError {
		t.Fatalf("expected single error terminal, got %+v", got)
	}
	if !strings.Contains(got[0].Err.Error(), "exceeds 32 bytes") {
		t.Errorf("unexpected error: %v", got[0].Err)
	}
}

// chunkedReader returns at most size bytes per Read to simulate network
// reads that split events.
type chunkedReader struct {
	data string
	size int
}

func (r *chunkedReader) Read(p []byte) (int, error) {
	if r.data == "" {
		return 0, io.EOF
	}
	n := r.size
	if n > len(r.data) {
		n = len(r.data)
	}
	if n > len(p) {
		n = len(p)
	}
	copy(p, r.data[:n])
	r.data = r.data[n:]
	return n, nil
}

func TestNormalizer_Idempotent(t *testing.T) {
	body := "data: {\"content\":\"The \"}\n\n" +
		": ping\n\n" +
		"data: {\"role\":\"assistant\"}\n\n" +
		"data: {\"content\":\"quick \"}\n\n" +
		"data: raw text\n\n" +
		"data: {\"content\":\"fox\"}\n\n" +
		"data: [DONE]\n\n"

	baseline := runNormalizer(t, body)

	for _, size := range []int{1, 3, 7, 64} {
		n := &Normalizer{Provider: "test", Parser: testChain()}
		got := collect(t, n.Run(context.Background(), io.NopCloser(&chunkedReader{data: body, size: size})))

		if len(got) != len(baseline) {
			t.Fatalf("size %d: expected %d deltas, got %d", size, len(baseline), len(got))
		}
		for i := range got {
			if got[i].Kind != baseline[i].Kind || got[i].Text != baseline[i].Text {
				t.Errorf("size %d: delta %d differs: %+v vs %+v", size, i, got[i], baseline[i])
			}
		}
	}
}

func TestNormalizer_ContextCancel(t *testing.T) {
	pr, pw := io.Pipe()
	ctx, cancel := context.WithCancel(context.Background())

	n := &Normalizer{Provider: "test", Parser: testChain()}
	ch := n.Run(ctx, pr)

	go func() {
		_, _ = pw.Write([]byte("data: {\"content\":\"a\"}\n\n"))
	}()

	first := <-ch
	if first.Text != "a" {
		t.Fatalf("expected first delta, got %+v", first)
	}

	cancel()
	pw.CloseWithError(context.Canceled)

	for d := range ch {
		if d.Terminal() {
			t.Errorf("expected no terminal after cancellation, got %+v", d)
		}
	}
}

func TestDataPayload(t *testing.T) {
	tests := []struct {
		line   string
		want   string
		wantOK bool
	}{
		{"data: x", "x", true},
		{"data:x", "x", true},
		{"data:  x", " x", true},
		{"", "", false},
		{"   ", "", false},
		{": comment", "", false},
		{"event: delta", "", false},
		{"id: 1", "", false},
		{"retry: 5", "", false},
		{`{"a":1}`, `{"a":1}`, true},
	}

	for _, tt := range tests {
		got, ok := dataPayload(tt.line)
		if got != tt.want || ok != tt.wantOK {
			t.Errorf("dataPayload(%q) = %q, %v; want %q, %v", tt.line, got, ok, tt.want, tt.wantOK)
		}
	}
}
