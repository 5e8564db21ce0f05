package proxy

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"mercator-hq/chatrelay/pkg/proxy/types"
)

func TestParseChatRequest(t *testing.T) {
	tests := []struct {
		name       string
		body       string
		maxBytes   int64
		wantCode   string
		wantParam  string
		wantStatus int
	}{
		{
			name: "single message",
			body: `{"message":"hi","model":"gpt-4o"}`,
		},
		{
			name: "history only",
			body: `{"messages":[{"role":"user","content":"hi"}]}`,
		},
		{
			name:       "empty body object",
			body:       `{}`,
			wantCode:   types.CodeMissingField,
			wantParam:  "message",
			wantStatus: http.StatusBadRequest,
		},
		{
			name:       "invalid json",
			body:       `{"message":`,
			wantCode:   types.CodeInvalidJSON,
			wantParam:  "body",
			wantStatus: http.StatusBadRequest,
		},
		{
			name:       "bad role",
			body:       `{"messages":[{"role":"robot","content":"hi"}]}`,
			wantCode:   types.CodeInvalidValue,
			wantParam:  "messages[0].role",
			wantStatus: http.StatusBadRequest,
		},
		{
			name:       "too large",
			body:       `{"message":"` + strings.Repeat("x", 64) + `"}`,
			maxBytes:   32,
			wantCode:   types.CodeRequestTooLarge,
			wantParam:  "body",
			wantStatus: http.StatusRequestEntityTooLarge,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := httptest.NewRequest(http.MethodPost, "/api/chat", strings.NewReader(tt.body))
			req, err := ParseChatRequest(r, tt.maxBytes)

			if tt.wantCode == "" {
				if err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
				if req == nil {
					t.Fatal("expected request")
				}
				return
			}

			reqErr, ok := err.(*RequestError)
			if !ok {
				t.Fatalf("expected *RequestError, got %T (%v)", err, err)
			}
			if reqErr.Code != tt.wantCode {
				t.Errorf("Code = %q, want %q", reqErr.Code, tt.wantCode)
			}
			if reqErr.Param != tt.wantParam {
				t.Errorf("Param = %q, want %q", reqErr.Param, tt.wantParam)
			}
			if got := reqErr.ToErrorResponse().HTTPStatusCode(); got != tt.wantStatus {
				t.Errorf("status = %d, want %d", got, tt.wantStatus)
			}
		})
	}
}

func TestParseChatRequest_MissingMessageText(t *testing.T) {
	r := httptest.NewRequest(http.MethodPost, "/api/chat", strings.NewReader(`{"model":"x"}`))
	_, err := ParseChatRequest(r, 0)
	if err == nil {
		t.Fatal("expected error")
	}
	want := "Either message or messages is required in the request body"
	if err.Error() != want {
		t.Errorf("error = %q, want %q", err.Error(), want)
	}
}

func TestExtractRequestID(t *testing.T) {
	r := httptest.NewRequest(http.MethodGet, "/", nil)
	if got := ExtractRequestID(r); got != "" {
		t.Errorf("expected empty request ID, got %q", got)
	}

	r.Header.Set(RequestIDHeader, "req-123")
	if got := ExtractRequestID(r); got != "req-123" {
		t.Errorf("ExtractRequestID() = %q, want req-123", got)
	}
}
