// Package upstreamtest provides a scriptable fake LLM upstream for tests.
//
// A Server answers each path with a configured Response: a JSON body, raw
// SSE lines, or an error status. It records every request so tests can
// assert on what the relay sent upstream.
package upstreamtest

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"time"
)

// ChatPath is the path the relay calls for a base URL ending in /v1.
const ChatPath = "/v1/chat/completions"

// Response defines how the server answers one path.
type Response struct {
	// StatusCode defaults to 200.
	StatusCode int

	// Body is written for non-streaming responses. Strings and byte slices
	// are written verbatim, anything else is JSON encoded.
	Body any

	// Headers are set before the status is written.
	Headers map[string]string

	// Lines are written as an SSE body, each followed by a blank line and
	// flushed. No [DONE] is appended.
	Lines []string

	// LineDelay is slept between lines.
	LineDelay time.Duration

	// Hold keeps the connection open after the last line until the client
	// goes away or the server is released.
	Hold bool
}

// Request is a recorded upstream call.
type Request struct {
	Path          string
	Authorization string
	Accept        string
	Body          ChatBody
}

// ChatBody is the decoded chat completion request.
type ChatBody struct {
	Model    string `json:"model"`
	Messages []struct {
		Role    string `json:"role"`
		Content string `json:"content"`
	} `json:"messages"`
	Stream bool `json:"stream"`
}

// Server is a fake upstream.
type Server struct {
	server    *httptest.Server
	release   chan struct{}
	closeOnce sync.Once

	mu        sync.Mutex
	responses map[string]Response
	requests  []Request
}

// NewServer starts a fake upstream.
func NewServer() *Server {
	s := &Server{
		responses: make(map[string]Response),
		release:   make(chan struct{}),
	}
	s.server = httptest.NewServer(http.HandlerFunc(s.handle))
	return s
}

// URL returns the server's root URL.
func (s *Server) URL() string {
	return s.server.URL
}

// BaseURL returns the URL to configure as a provider base_url.
func (s *Server) BaseURL() string {
	return s.server.URL + "/v1"
}

// Close releases held streams and shuts the server down.
func (s *Server) Close() {
	s.Release()
	s.server.Close()
}

// Release unblocks every held stream.
func (s *Server) Release() {
	s.closeOnce.Do(func() { close(s.release) })
}

// SetResponse sets the response for path.
func (s *Server) SetResponse(path string, r Response) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.responses[path] = r
}

// Requests returns the calls received so far.
func (s *Server) Requests() []Request {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]Request(nil), s.requests...)
}

func (s *Server) handle(w http.ResponseWriter, r *http.Request) {
	req := Request{
		Path:          r.URL.Path,
		Authorization: r.Header.Get("Authorization"),
		Accept:        r.Header.Get("Accept"),
	}
	if raw, err := io.ReadAll(r.Body); err == nil {
		_ = json.Unmarshal(raw, &req.Body)
	}

	s.mu.Lock()
	s.requests = append(s.requests, req)
	resp, ok := s.responses[r.URL.Path]
	s.mu.Unlock()

	if !ok {
		http.NotFound(w, r)
		return
	}

	for key, value := range resp.Headers {
		w.Header().Set(key, value)
	}

	status := resp.StatusCode
	if status == 0 {
		status = http.StatusOK
	}

	if resp.Lines != nil {
		s.stream(w, r, status, resp)
		return
	}

	w.WriteHeader(status)
	switch v := resp.Body.(type) {
	case nil:
	case string:
		io.WriteString(w, v)
	case []byte:
		w.Write(v)
	default:
		_ = json.NewEncoder(w).Encode(v)
	}
}

func (s *Server) stream(w http.ResponseWriter, r *http.Request, status int, resp Response) {
	if w.Header().Get("Content-Type") == "" {
		w.Header().Set("Content-Type", "text/event-stream")
	}
	w.WriteHeader(status)

	flusher, _ := w.(http.Flusher)
	flush := func() {
		if flusher != nil {
			flusher.Flush()
		}
	}
	flush()

	for i, line := range resp.Lines {
		if i > 0 && resp.LineDelay > 0 {
			select {
			case <-time.After(resp.LineDelay):
			case <-r.Context().Done():
				return
			}
		}
		fmt.Fprintf(w, "%s\n\n", line)
		flush()
	}

	if resp.Hold {
		select {
		case <-r.Context().Done():
		case <-s.release:
		}
	}
}
