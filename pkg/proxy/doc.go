// Package proxy holds the HTTP plumbing shared by the relay's handlers:
// request parsing, error mapping and the SSE event stream.
//
// # Event stream
//
// EventStream is the only way handlers write to an open stream. It commits
// the SSE headers when opened and then accepts text frames until it is
// finished:
//
//	stream := proxy.OpenEventStream(w)
//	for delta := range deltas {
//	    if err := stream.Send(delta.Text); err != nil {
//	        break // client went away
//	    }
//	}
//	stream.Close() // writes {"event":"done"}
//
// Close and Fail write the terminal frame at most once between them; any
// later call, and any Send after it, returns ErrStreamClosed. Abort marks
// the stream finished without writing, for clients that disconnected.
//
// # Errors
//
// Errors raised before a stream opens are mapped by HandleError to a JSON
// body and status. Missing credentials are a 500, like the chat client
// expects; other invalid requests are a 400.
package proxy
