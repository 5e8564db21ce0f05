package conversation

import (
	"fmt"
	"unicode/utf8"

	"mercator-hq/chatrelay/pkg/config"
	"mercator-hq/chatrelay/pkg/providers"
)

// Attachment bounds, in characters.
const (
	// SingleMessageLimit bounds file content inlined into a single-message request.
	SingleMessageLimit = 30000

	// HistoryLimit bounds file content inlined into a turn of a history request.
	HistoryLimit = 10 * SingleMessageLimit
)

// File is attachment content resolved before assembly.
// A nil File or one with empty Content is treated as unavailable.
type File struct {
	Name    string
	Content string
}

func (f *File) available() bool {
	return f != nil && f.Content != ""
}

// Turn is one prior message of the conversation.
type Turn struct {
	Role    string
	Content string

	// HasFile reports that the client attached a file to this turn.
	HasFile bool

	// File is the turn's own resolved attachment, if any.
	File *File
}

// Input is a chat request with its attachments already resolved.
type Input struct {
	// Message is the primary message of a single-message request.
	Message string

	// History is the client's conversation, in order.
	History []Turn

	// SystemPrompt overrides the configured system prompt when non-empty.
	SystemPrompt string

	// File is the request-level attachment.
	File *File
}

// Stats describes what assembly did, for logs and audit records.
type Stats struct {
	// Turns is the number of messages produced, including the system turn.
	Turns int

	// History reports whether the history path was taken.
	History bool

	// AttachmentChars is the number of attachment characters inlined,
	// before truncation.
	AttachmentChars int

	// Truncated reports whether any attachment was cut.
	Truncated bool
}

// Assembler merges the system prompt, prior turns and attachments into the
// provider-ready message list. It holds no per-request state.
type Assembler struct {
	systemPrompt string
	mode         string
}

// NewAssembler creates an assembler from relay configuration.
func NewAssembler(relay config.RelayConfig) *Assembler {
	a := &Assembler{
		systemPrompt: relay.SystemPrompt,
		mode:         relay.HistoryMode,
	}
	if a.systemPrompt == "" {
		a.systemPrompt = config.DefaultSystemPrompt
	}
	if a.mode == "" {
		a.mode = config.HistoryModeFull
	}
	return a
}

// Assemble builds the message list for in.
//
// With history present (and the assembler in history mode) the result is
// the system turn followed by the history verbatim. Otherwise it is
// [system, user(Message)]. A request with neither a message nor history
// fails with providers.ErrInvalidRequest.
func (a *Assembler) Assemble(in *Input) ([]providers.Message, Stats, error) {
	if in == nil || (in.Message == "" && len(in.History) == 0) {
		return nil, Stats{}, fmt.Errorf("%w: either message or messages is required", providers.ErrInvalidRequest)
	}

	system := providers.Message{Role: providers.RoleSystem, Content: a.systemFor(in)}

	if len(in.History) > 0 && a.mode == config.HistoryModeFull {
		return a.assembleHistory(system, in)
	}
	return a.assembleSingle(system, in)
}

func (a *Assembler) systemFor(in *Input) string {
	if in.SystemPrompt != "" {
		return in.SystemPrompt
	}
	return a.systemPrompt
}

func (a *Assembler) assembleHistory(system providers.Message, in *Input) ([]providers.Message, Stats, error) {
	stats := Stats{History: true}
	messages := make([]providers.Message, 0, len(in.History)+1)
	messages = append(messages, system)

	for _, turn := range in.History {
		content := turn.Content
		if turn.Role == providers.RoleUser && turn.HasFile {
			file := turn.File
			if !file.available() {
				file = in.File
			}
			if file.available() {
				inlined, n, cut := inline(content, file.Content, HistoryLimit)
				content = inlined
				stats.AttachmentChars += n
				stats.Truncated = stats.Truncated || cut
			}
		}
		messages = append(messages, providers.Message{Role: turn.Role, Content: content})
	}

	stats.Turns = len(messages)
	return messages, stats, nil
}

func (a *Assembler) assembleSingle(system providers.Message, in *Input) ([]providers.Message, Stats, error) {
	var stats Stats

	content := in.Message
	if content == "" {
		content = lastUserContent(in.History)
	}
	if content == "" {
		return nil, Stats{}, fmt.Errorf("%w: no user message to send", providers.ErrInvalidRequest)
	}

	if in.File.available() {
		inlined, n, cut := inline(content, in.File.Content, SingleMessageLimit)
		content = inlined
		stats.AttachmentChars = n
		stats.Truncated = cut
	}

	messages := []providers.Message{system, {Role: providers.RoleUser, Content: content}}
	stats.Turns = len(messages)
	return messages, stats, nil
}

func lastUserContent(history []Turn) string {
	for i := len(history) - 1; i >= 0; i-- {
		if history[i].Role == providers.RoleUser && history[i].Content != "" {
			return history[i].Content
		}
	}
	return ""
}

// inline appends file content to text as a fenced block, bounding the
// content to limit characters. It returns the new text, the original
// content length in characters and whether the content was cut.
func inline(text, content string, limit int) (string, int, bool) {
	bounded, n, cut := Truncate(content, limit)
	return text + "\n\nFile content:\n```\n" + bounded + "\n```", n, cut
}

// Truncate bounds content to limit characters. Content over the limit is
// cut and followed by a notice giving the original size. It returns the
// bounded content, the original length in characters and whether it was cut.
func Truncate(content string, limit int) (string, int, bool) {
	n := utf8.RuneCountInString(content)
	if n <= limit {
		return content, n, false
	}

	cut := 0
	for i := range content {
		if cut == limit {
			content = content[:i]
			break
		}
		cut++
	}

	return content + fmt.Sprintf("\n\n... [content too large, truncated. Original size: %d characters]", n), n, true
}
