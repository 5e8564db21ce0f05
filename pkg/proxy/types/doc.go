// Package types defines the wire types of the chat relay API.
//
// # Requests
//
// POST /api/chat accepts a ChatRequest:
//
//	{
//	  "message": "Hello",                    // or "messages": [...]
//	  "model": "gpt-4o",
//	  "apiKey": "sk-...",                    // optional
//	  "endpoint": "https://host/v1",         // optional
//	  "systemPrompt": "You are ...",         // optional
//	  "stream": true,                        // optional, default true
//	  "file": {"path": "/uploads/x", "filename": "x"}
//	}
//
// # Responses
//
// The chat stream is a sequence of SSE frames, each `data: <JSON>\n\n`
// with one of TextFrame, ErrorFrame or DoneFrame as payload. Errors raised
// before the stream opens are an ErrorResponse with an HTTP status.
package types
