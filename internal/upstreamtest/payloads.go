package upstreamtest

import (
	"encoding/json"
	"net/http"
)

// Done is the OpenAI end-of-stream sentinel line.
const Done = "data: [DONE]"

func data(v any) string {
	b, _ := json.Marshal(v)
	return "data: " + string(b)
}

// OpenAIChunk returns an OpenAI chat.completion.chunk SSE line.
func OpenAIChunk(text string) string {
	return data(map[string]any{
		"id":     "chatcmpl-123",
		"object": "chat.completion.chunk",
		"model":  "gpt-4o",
		"choices": []map[string]any{
			{"index": 0, "delta": map[string]any{"content": text}, "finish_reason": nil},
		},
	})
}

// OpenAIStream returns the lines of a complete OpenAI stream for texts.
func OpenAIStream(texts ...string) []string {
	lines := make([]string, 0, len(texts)+1)
	for _, t := range texts {
		lines = append(lines, OpenAIChunk(t))
	}
	return append(lines, Done)
}

// OpenAICompletion returns a non-streaming chat completion body.
func OpenAICompletion(text string) map[string]any {
	return map[string]any{
		"id":     "chatcmpl-123",
		"object": "chat.completion",
		"model":  "gpt-4o",
		"choices": []map[string]any{
			{
				"index":         0,
				"message":       map[string]any{"role": "assistant", "content": text},
				"finish_reason": "stop",
			},
		},
	}
}

// AnthropicDelta returns an Anthropic content_block_delta event, with its
// event: line.
func AnthropicDelta(text string) string {
	return "event: content_block_delta\n" + data(map[string]any{
		"type":  "content_block_delta",
		"index": 0,
		"delta": map[string]any{"type": "text_delta", "text": text},
	})
}

// AnthropicStop returns the Anthropic message_stop event.
func AnthropicStop() string {
	return "event: message_stop\n" + data(map[string]any{"type": "message_stop"})
}

// GeminiChunk returns a Gemini candidates chunk.
func GeminiChunk(text string) string {
	return data(map[string]any{
		"candidates": []map[string]any{
			{"content": map[string]any{"parts": []map[string]any{{"text": text}}, "role": "model"}},
		},
	})
}

// ErrorLine returns an in-stream error envelope.
func ErrorLine(message string) string {
	return data(map[string]any{"error": map[string]any{"message": message, "type": "server_error"}})
}

// ErrorResponse returns a non-2xx response with an OpenAI-style error body.
func ErrorResponse(status int, message string) Response {
	return Response{
		StatusCode: status,
		Headers:    map[string]string{"Content-Type": "application/json"},
		Body: map[string]any{
			"error": map[string]any{"message": message, "type": "invalid_request_error"},
		},
	}
}

// AuthError returns a 401 response.
func AuthError() Response {
	return ErrorResponse(http.StatusUnauthorized, "Invalid API key")
}

// RateLimitError returns a 429 response with Retry-After.
func RateLimitError(retryAfter string) Response {
	r := ErrorResponse(http.StatusTooManyRequests, "Rate limit exceeded")
	r.Headers["Retry-After"] = retryAfter
	return r
}
