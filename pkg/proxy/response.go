package proxy

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"sync"

	"mercator-hq/chatrelay/pkg/proxy/types"
)

// ErrStreamClosed is returned by writes to a finished event stream.
var ErrStreamClosed = errors.New("event stream closed")

// Frame kinds, as reported to OnFrame.
const (
	FrameText  = "text"
	FrameError = "error"
	FrameDone  = "done"
)

// WriteJSONResponse writes a JSON response to the HTTP response writer.
func WriteJSONResponse(w http.ResponseWriter, statusCode int, data any) error {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)

	if err := json.NewEncoder(w).Encode(data); err != nil {
		return fmt.Errorf("failed to encode JSON response: %w", err)
	}

	return nil
}

// WriteErrorResponse writes an error response with its HTTP status.
func WriteErrorResponse(w http.ResponseWriter, errResp *types.ErrorResponse) error {
	return WriteJSONResponse(w, errResp.HTTPStatusCode(), errResp)
}

// SetSSEHeaders sets the headers that announce an event stream and keep
// intermediaries from caching or buffering it.
func SetSSEHeaders(w http.ResponseWriter) {
	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("X-Accel-Buffering", "no")
}

// EventStream writes SSE frames to a client and guarantees a single
// terminal frame. It is safe for concurrent use.
type EventStream struct {
	w  http.ResponseWriter
	rc *http.ResponseController

	mu      sync.Mutex
	closed  bool
	frames  int
	onFrame func(kind string)
}

// OpenEventStream commits the SSE headers with status 200 and flushes them.
// From here on failures can only be reported in-band.
func OpenEventStream(w http.ResponseWriter) *EventStream {
	SetSSEHeaders(w)
	w.WriteHeader(http.StatusOK)

	s := &EventStream{w: w, rc: http.NewResponseController(w)}
	_ = s.flush()
	return s
}

// OnFrame registers fn to be called after each frame is written.
// It must be called before the first write.
func (s *EventStream) OnFrame(fn func(kind string)) {
	s.onFrame = fn
}

// Send writes one {"text": ...} frame and flushes it.
func (s *EventStream) Send(text string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return ErrStreamClosed
	}
	return s.write(FrameText, types.TextFrame{Text: text})
}

// Close writes the {"event":"done"} frame and finishes the stream.
func (s *EventStream) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return ErrStreamClosed
	}
	s.closed = true
	return s.write(FrameDone, types.Done())
}

// Fail writes an {"error": message} frame followed by the done frame and
// finishes the stream.
func (s *EventStream) Fail(message string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return ErrStreamClosed
	}
	s.closed = true
	if err := s.write(FrameError, types.ErrorFrame{Error: message}); err != nil {
		return err
	}
	return s.write(FrameDone, types.Done())
}

// Abort finishes the stream without writing anything.
func (s *EventStream) Abort() {
	s.mu.Lock()
	s.closed = true
	s.mu.Unlock()
}

// Closed reports whether the stream has finished.
func (s *EventStream) Closed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.closed
}

// Frames returns the number of frames written.
func (s *EventStream) Frames() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.frames
}

// write must be called with s.mu held.
func (s *EventStream) write(kind string, frame any) error {
	data, err := json.Marshal(frame)
	if err != nil {
		return fmt.Errorf("failed to marshal SSE frame: %w", err)
	}

	if _, err := fmt.Fprintf(s.w, "data: %s\n\n", data); err != nil {
		return fmt.Errorf("failed to write SSE frame: %w", err)
	}
	if err := s.flush(); err != nil {
		return fmt.Errorf("failed to flush SSE frame: %w", err)
	}

	s.frames++
	if s.onFrame != nil {
		s.onFrame(kind)
	}
	return nil
}

func (s *EventStream) flush() error {
	if err := s.rc.Flush(); err != nil && !errors.Is(err, http.ErrNotSupported) {
		return err
	}
	return nil
}
