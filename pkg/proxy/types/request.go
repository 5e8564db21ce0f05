package types

import (
	"fmt"

	"mercator-hq/chatrelay/pkg/providers"
)

// FileRef points at an uploaded file.
type FileRef struct {
	// Path is the path the upload endpoint returned, e.g. "/uploads/file-1.txt".
	Path string `json:"path"`

	// Filename is the stored file name.
	Filename string `json:"filename"`
}

// Turn is one message of the client's conversation history.
type Turn struct {
	// Role is "system", "user" or "assistant".
	Role string `json:"role"`

	// Content is the message text.
	Content string `json:"content"`

	// File is the attachment the client sent with this turn, if any.
	File *FileRef `json:"file,omitempty"`
}

// ChatRequest is the body of POST /api/chat.
type ChatRequest struct {
	// Message is the primary message of a single-message request.
	Message string `json:"message,omitempty"`

	// Messages is the conversation history, in order.
	Messages []Turn `json:"messages,omitempty"`

	// Model selects the upstream model. Empty selects the relay default.
	Model string `json:"model,omitempty"`

	// APIKey is a per-request upstream credential.
	APIKey string `json:"apiKey,omitempty"`

	// Endpoint overrides the provider's base URL for this request.
	Endpoint string `json:"endpoint,omitempty"`

	// Provider names the provider to use. Unknown names are ignored.
	Provider string `json:"provider,omitempty"`

	// SystemPrompt replaces the configured system prompt.
	SystemPrompt string `json:"systemPrompt,omitempty"`

	// Stream requests a streaming upstream call. Nil means true.
	Stream *bool `json:"stream,omitempty"`

	// File is the request-level attachment.
	File *FileRef `json:"file,omitempty"`
}

// WantsStream reports whether the client asked for a streaming upstream call.
func (r *ChatRequest) WantsStream() bool {
	return r.Stream == nil || *r.Stream
}

// Validate checks the request shape. Either a message or a non-empty
// history is required and every history turn needs a known role.
func (r *ChatRequest) Validate() error {
	if r.Message == "" && len(r.Messages) == 0 {
		return &ValidationError{
			Field:   "message",
			Message: "Either message or messages is required in the request body",
		}
	}

	for i, turn := range r.Messages {
		if !providers.ValidRole(turn.Role) {
			return &ValidationError{
				Field:   fmt.Sprintf("messages[%d].role", i),
				Message: fmt.Sprintf("messages[%d].role must be one of system, user, assistant", i),
			}
		}
	}

	return nil
}

// ValidationError represents a request validation error.
type ValidationError struct {
	Field   string
	Message string
}

// Error implements the error interface.
func (e *ValidationError) Error() string {
	return e.Message
}
