// Package providers is the upstream side of the relay.
//
// It defines the canonical Delta type every upstream response is reduced to,
// the HTTP adapter that performs exactly one call per request, and the
// stream normalizer that reassembles SSE lines and maps each payload through
// an ordered chain of shape probes.
//
// # Streams
//
// An Adapter returns a channel of deltas. The channel carries zero or more
// text deltas and then exactly one terminal (DeltaDone or DeltaError):
//
//	deltas, err := adapter.Open(ctx, &providers.Call{
//	    Endpoint:   "https://api.openai.com/v1/chat/completions",
//	    Credential: key,
//	    Model:      "gpt-4o",
//	    Messages:   msgs,
//	    Stream:     true,
//	})
//	if err != nil {
//	    return err // nothing was streamed
//	}
//	for d := range deltas {
//	    switch d.Kind {
//	    case providers.DeltaText:
//	        fmt.Print(d.Text)
//	    case providers.DeltaError:
//	        return d.Err
//	    }
//	}
//
// # Shapes
//
// Shape probes live in the openai, anthropic, gemini and generic
// sub-packages. A ProbeChain tries them in order; the first match wins.
// Payloads that are not JSON are forwarded verbatim and flagged as
// pass-through.
package providers
