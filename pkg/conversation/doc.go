// Package conversation builds the message list sent upstream for a chat
// request.
//
// The assembler prepends a system turn, copies the client's history verbatim
// and inlines attached file content into the user turns that carry it.
// Attached content is bounded: a single-message request keeps at most
// SingleMessageLimit characters of a file, a history request keeps at most
// HistoryLimit. Longer content is cut and annotated with its original size.
//
// # Usage
//
//	asm := conversation.NewAssembler(cfg.Relay)
//	messages, stats, err := asm.Assemble(&conversation.Input{
//	    Message: "Summarize this file",
//	    File:    &conversation.File{Name: "notes.txt", Content: text},
//	})
//	if err != nil {
//	    return err // errors.Is(err, providers.ErrInvalidRequest)
//	}
package conversation
