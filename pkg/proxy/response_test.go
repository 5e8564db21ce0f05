package proxy

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"mercator-hq/chatrelay/pkg/proxy/types"
)

// frames splits an SSE body into its data payloads.
func frames(t *testing.T, body string) []map[string]string {
	t.Helper()

	var out []map[string]string
	for _, block := range strings.Split(body, "\n\n") {
		if block == "" {
			continue
		}
		payload, ok := strings.CutPrefix(block, "data: ")
		if !ok {
			t.Fatalf("frame without data prefix: %q", block)
		}
		var m map[string]string
		if err := json.Unmarshal([]byte(payload), &m); err != nil {
			t.Fatalf("invalid frame JSON %q: %v", payload, err)
		}
		out = append(out, m)
	}
	return out
}

func TestOpenEventStream_Headers(t *testing.T) {
	rec := httptest.NewRecorder()
	OpenEventStream(rec)

	if rec.Code != http.StatusOK {
		t.Errorf("status = %d, want 200", rec.Code)
	}
	headers := map[string]string{
		"Content-Type":      "text/event-stream",
		"Cache-Control":     "no-cache",
		"Connection":        "keep-alive",
		"X-Accel-Buffering": "no",
	}
	for k, want := range headers {
		if got := rec.Header().Get(k); got != want {
			t.Errorf("%s = %q, want %q", k, got, want)
		}
	}
	if !rec.Flushed {
		t.Error("expected headers to be flushed")
	}
}

func TestEventStream_SendAndClose(t *testing.T) {
	rec := httptest.NewRecorder()
	s := OpenEventStream(rec)

	var kinds []string
	s.OnFrame(func(kind string) { kinds = append(kinds, kind) })

	for _, text := range []string{"Hel", "lo", ""} {
		if err := s.Send(text); err != nil {
			t.Fatalf("Send(%q): %v", text, err)
		}
	}
	if err := s.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	got := frames(t, rec.Body.String())
	want := []map[string]string{
		{"text": "Hel"},
		{"text": "lo"},
		{"text": ""},
		{"event": "done"},
	}
	if len(got) != len(want) {
		t.Fatalf("got %d frames, want %d: %v", len(got), len(want), got)
	}
	for i := range want {
		for k, v := range want[i] {
			if got[i][k] != v {
				t.Errorf("frame %d: %s = %q, want %q", i, k, got[i][k], v)
			}
		}
	}
	if s.Frames() != 4 {
		t.Errorf("Frames() = %d, want 4", s.Frames())
	}
	if strings.Join(kinds, ",") != "text,text,text,done" {
		t.Errorf("OnFrame kinds = %v", kinds)
	}
}

func TestEventStream_Fail(t *testing.T) {
	rec := httptest.NewRecorder()
	s := OpenEventStream(rec)

	if err := s.Fail(StreamErrorMessage(errors.New("upstream said no"))); err != nil {
		t.Fatalf("Fail: %v", err)
	}

	got := frames(t, rec.Body.String())
	if len(got) != 2 {
		t.Fatalf("got %d frames, want 2", len(got))
	}
	if got[0]["error"] != "Stream error: upstream said no" {
		t.Errorf("error frame = %v", got[0])
	}
	if got[1]["event"] != types.EventDone {
		t.Errorf("last frame = %v, want done", got[1])
	}
}

func TestEventStream_TerminalOnce(t *testing.T) {
	rec := httptest.NewRecorder()
	s := OpenEventStream(rec)

	if err := s.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
	if err := s.Close(); !errors.Is(err, ErrStreamClosed) {
		t.Errorf("second Close = %v, want ErrStreamClosed", err)
	}
	if err := s.Fail("late"); !errors.Is(err, ErrStreamClosed) {
		t.Errorf("Fail after Close = %v, want ErrStreamClosed", err)
	}
	if err := s.Send("late"); !errors.Is(err, ErrStreamClosed) {
		t.Errorf("Send after Close = %v, want ErrStreamClosed", err)
	}

	if n := strings.Count(rec.Body.String(), `"event":"done"`); n != 1 {
		t.Errorf("done frames = %d, want 1", n)
	}
}

func TestEventStream_ConcurrentFinish(t *testing.T) {
	rec := httptest.NewRecorder()
	s := OpenEventStream(rec)

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if i%2 == 0 {
				_ = s.Close()
			} else {
				_ = s.Fail("boom")
			}
		}()
	}
	wg.Wait()

	if n := strings.Count(rec.Body.String(), `"event":"done"`); n != 1 {
		t.Errorf("done frames = %d, want 1", n)
	}
}

func TestEventStream_Abort(t *testing.T) {
	rec := httptest.NewRecorder()
	s := OpenEventStream(rec)
	s.Abort()

	if !s.Closed() {
		t.Error("expected stream to be closed")
	}
	if err := s.Close(); !errors.Is(err, ErrStreamClosed) {
		t.Errorf("Close after Abort = %v, want ErrStreamClosed", err)
	}
	if rec.Body.Len() != 0 {
		t.Errorf("expected no frames after Abort, got %q", rec.Body.String())
	}
}

func TestWriteErrorResponse(t *testing.T) {
	rec := httptest.NewRecorder()
	errResp := types.NewInvalidRequestError("bad", types.CodeInvalidValue)

	if err := WriteErrorResponse(rec, errResp); err != nil {
		t.Fatalf("WriteErrorResponse: %v", err)
	}
	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", rec.Code)
	}
	if ct := rec.Header().Get("Content-Type"); ct != "application/json" {
		t.Errorf("Content-Type = %q", ct)
	}

	var body map[string]string
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("invalid body: %v", err)
	}
	if body["error"] != "bad" || body["code"] != types.CodeInvalidValue {
		t.Errorf("body = %v", body)
	}
}
