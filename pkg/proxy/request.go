package proxy

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"mercator-hq/chatrelay/pkg/proxy/types"
)

const (
	// DefaultMaxRequestBodySize is the request body limit used when none is configured (10MB).
	DefaultMaxRequestBodySize = 10 * 1024 * 1024

	// RequestIDHeader is the HTTP header for request ID propagation.
	RequestIDHeader = "X-Request-ID"
)

// ParseChatRequest parses and validates the body of POST /api/chat.
//
// The body is limited to maxBytes (DefaultMaxRequestBodySize when <= 0).
// Parse and validation failures are returned as *RequestError.
func ParseChatRequest(r *http.Request, maxBytes int64) (*types.ChatRequest, error) {
	if maxBytes <= 0 {
		maxBytes = DefaultMaxRequestBodySize
	}

	// Read one byte past the limit to detect oversized bodies
	body, err := io.ReadAll(io.LimitReader(r.Body, maxBytes+1))
	if err != nil {
		return nil, fmt.Errorf("failed to read request body: %w", err)
	}

	if int64(len(body)) > maxBytes {
		return nil, &RequestError{
			Message: fmt.Sprintf("request body exceeds maximum size of %d bytes", maxBytes),
			Code:    types.CodeRequestTooLarge,
			Param:   "body",
			Status:  http.StatusRequestEntityTooLarge,
		}
	}

	var req types.ChatRequest
	if err := json.Unmarshal(body, &req); err != nil {
		return nil, &RequestError{
			Message: fmt.Sprintf("invalid JSON: %v", err),
			Code:    types.CodeInvalidJSON,
			Param:   "body",
		}
	}

	if err := req.Validate(); err != nil {
		if valErr, ok := err.(*types.ValidationError); ok {
			code := types.CodeInvalidValue
			if valErr.Field == "message" {
				code = types.CodeMissingField
			}
			return nil, &RequestError{
				Message: valErr.Message,
				Code:    code,
				Param:   valErr.Field,
			}
		}
		return nil, err
	}

	return &req, nil
}

// ExtractRequestID extracts the request ID from the X-Request-ID header.
// If the header is not present, it returns an empty string.
func ExtractRequestID(r *http.Request) string {
	return r.Header.Get(RequestIDHeader)
}

// RequestError represents a request parsing or validation error.
type RequestError struct {
	Message string
	Code    string
	Param   string

	// Status is the HTTP status; zero means 400.
	Status int
}

// Error implements the error interface.
func (e *RequestError) Error() string {
	return e.Message
}

// ToErrorResponse converts a RequestError to an error response.
func (e *RequestError) ToErrorResponse() *types.ErrorResponse {
	status := e.Status
	if status == 0 {
		status = http.StatusBadRequest
	}
	return types.NewErrorResponse(status, e.Message, e.Code)
}
