package conversation

import (
	"errors"
	"strings"
	"testing"

	"mercator-hq/chatrelay/pkg/config"
	"mercator-hq/chatrelay/pkg/providers"
)

func newAssembler(mode string) *Assembler {
	return NewAssembler(config.RelayConfig{HistoryMode: mode})
}

func TestAssemble_SingleMessage(t *testing.T) {
	asm := newAssembler("")

	messages, stats, err := asm.Assemble(&Input{Message: "Hello"})
	if err != nil {
		t.Fatalf("Assemble failed: %v", err)
	}

	if len(messages) != 2 {
		t.Fatalf("expected 2 messages, got %d", len(messages))
	}
	if messages[0].Role != providers.RoleSystem || messages[0].Content != config.DefaultSystemPrompt {
		t.Errorf("unexpected system turn %+v", messages[0])
	}
	if messages[1].Role != providers.RoleUser || messages[1].Content != "Hello" {
		t.Errorf("unexpected user turn %+v", messages[1])
	}
	if stats.Turns != 2 || stats.History || stats.Truncated {
		t.Errorf("unexpected stats %+v", stats)
	}
}

func TestAssemble_CustomSystemPrompt(t *testing.T) {
	asm := NewAssembler(config.RelayConfig{SystemPrompt: "Be terse."})

	messages, _, err := asm.Assemble(&Input{Message: "Hi"})
	if err != nil {
		t.Fatal(err)
	}
	if messages[0].Content != "Be terse." {
		t.Errorf("expected configured prompt, got %q", messages[0].Content)
	}

	messages, _, err = asm.Assemble(&Input{Message: "Hi", SystemPrompt: "Be a pirate."})
	if err != nil {
		t.Fatal(err)
	}
	if messages[0].Content != "Be a pirate." {
		t.Errorf("expected request prompt, got %q", messages[0].Content)
	}
}

func TestAssemble_SingleMessageWithFile(t *testing.T) {
	asm := newAssembler("")

	messages, stats, err := asm.Assemble(&Input{
		Message: "Summarize",
		File:    &File{Name: "a.txt", Content: "line one"},
	})
	if err != nil {
		t.Fatal(err)
	}

	want := "Summarize\n\nFile content:\n```\nline one\n```"
	if messages[1].Content != want {
		t.Errorf("got %q, want %q", messages[1].Content, want)
	}
	if stats.AttachmentChars != len("line one") {
		t.Errorf("unexpected attachment chars %d", stats.AttachmentChars)
	}
}

func TestAssemble_UnavailableFileIgnored(t *testing.T) {
	asm := newAssembler("")

	messages, _, err := asm.Assemble(&Input{Message: "Summarize", File: &File{Name: "missing.txt"}})
	if err != nil {
		t.Fatal(err)
	}
	if messages[1].Content != "Summarize" {
		t.Errorf("expected message unchanged, got %q", messages[1].Content)
	}
}

func TestAssemble_TruncationBoundary(t *testing.T) {
	asm := newAssembler("")

	tests := []struct {
		name          string
		size          int
		wantTruncated bool
	}{
		{name: "at limit", size: SingleMessageLimit, wantTruncated: false},
		{name: "one over", size: SingleMessageLimit + 1, wantTruncated: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			content := strings.Repeat("x", tt.size)
			messages, stats, err := asm.Assemble(&Input{Message: "m", File: &File{Content: content}})
			if err != nil {
				t.Fatal(err)
			}

			got := messages[1].Content
			if stats.Truncated != tt.wantTruncated {
				t.Errorf("truncated: got %v, want %v", stats.Truncated, tt.wantTruncated)
			}

			if !tt.wantTruncated {
				if got != "m\n\nFile content:\n```\n"+content+"\n```" {
					t.Error("expected content passed through unmodified")
				}
				return
			}

			want := "m\n\nFile content:\n```\n" + strings.Repeat("x", SingleMessageLimit) +
				"\n\n... [content too large, truncated. Original size: 30001 characters]\n```"
			if got != want {
				t.Errorf("unexpected truncated content (len %d)", len(got))
			}
		})
	}
}

func TestAssemble_History(t *testing.T) {
	asm := newAssembler(config.HistoryModeFull)

	history := []Turn{
		{Role: providers.RoleUser, Content: "first"},
		{Role: providers.RoleAssistant, Content: "reply"},
		{Role: providers.RoleUser, Content: "with file", HasFile: true},
	}

	messages, stats, err := asm.Assemble(&Input{
		History:      history,
		SystemPrompt: "sys",
		File:         &File{Content: "data"},
	})
	if err != nil {
		t.Fatal(err)
	}

	if len(messages) != 4 {
		t.Fatalf("expected 4 messages, got %d", len(messages))
	}
	if messages[0].Content != "sys" {
		t.Errorf("unexpected system turn %q", messages[0].Content)
	}
	if messages[1].Content != "first" || messages[2].Content != "reply" {
		t.Errorf("history not copied verbatim: %+v", messages[1:3])
	}
	if messages[3].Content != "with file\n\nFile content:\n```\ndata\n```" {
		t.Errorf("expected file inlined, got %q", messages[3].Content)
	}
	if !stats.History || stats.Turns != 4 {
		t.Errorf("unexpected stats %+v", stats)
	}
}

func TestAssemble_HistoryTurnFilePrecedence(t *testing.T) {
	asm := newAssembler("")

	history := []Turn{
		{Role: providers.RoleUser, Content: "a", HasFile: true, File: &File{Content: "own"}},
		{Role: providers.RoleAssistant, Content: "b", HasFile: true},
		{Role: providers.RoleUser, Content: "c"},
	}

	messages, _, err := asm.Assemble(&Input{History: history, File: &File{Content: "request"}})
	if err != nil {
		t.Fatal(err)
	}

	if !strings.Contains(messages[1].Content, "own") || strings.Contains(messages[1].Content, "request") {
		t.Errorf("expected turn's own file, got %q", messages[1].Content)
	}
	if messages[2].Content != "b" {
		t.Errorf("assistant turns are not inlined, got %q", messages[2].Content)
	}
	if messages[3].Content != "c" {
		t.Errorf("turns without a file are not inlined, got %q", messages[3].Content)
	}
}

func TestAssemble_HistoryLimit(t *testing.T) {
	asm := newAssembler("")

	content := strings.Repeat("y", SingleMessageLimit+1)
	messages, stats, err := asm.Assemble(&Input{
		History: []Turn{{Role: providers.RoleUser, Content: "q", HasFile: true}},
		File:    &File{Content: content},
	})
	if err != nil {
		t.Fatal(err)
	}
	if stats.Truncated {
		t.Error("history path should not truncate at the single-message limit")
	}
	if !strings.Contains(messages[1].Content, content) {
		t.Error("expected full content inlined")
	}
}

func TestAssemble_SingleMode(t *testing.T) {
	asm := newAssembler(config.HistoryModeSingle)

	history := []Turn{
		{Role: providers.RoleUser, Content: "old"},
		{Role: providers.RoleAssistant, Content: "reply"},
		{Role: providers.RoleUser, Content: "latest"},
	}

	messages, stats, err := asm.Assemble(&Input{History: history})
	if err != nil {
		t.Fatal(err)
	}
	if len(messages) != 2 || messages[1].Content != "latest" {
		t.Errorf("expected last user turn as primary, got %+v", messages)
	}
	if stats.History {
		t.Error("single mode should not take the history path")
	}

	messages, _, err = asm.Assemble(&Input{Message: "primary", History: history})
	if err != nil {
		t.Fatal(err)
	}
	if messages[1].Content != "primary" {
		t.Errorf("expected primary message, got %q", messages[1].Content)
	}
}

func TestAssemble_InvalidRequest(t *testing.T) {
	tests := []struct {
		name string
		mode string
		in   *Input
	}{
		{name: "nil input", in: nil},
		{name: "empty", in: &Input{}},
		{name: "empty history", in: &Input{History: []Turn{}}},
		{
			name: "single mode without user content",
			mode: config.HistoryModeSingle,
			in:   &Input{History: []Turn{{Role: providers.RoleAssistant, Content: "x"}}},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, _, err := newAssembler(tt.mode).Assemble(tt.in)
			if !errors.Is(err, providers.ErrInvalidRequest) {
				t.Errorf("expected ErrInvalidRequest, got %v", err)
			}
		})
	}
}

func TestTruncate_CountsCharacters(t *testing.T) {
	content := strings.Repeat("é", 5)

	got, n, cut := Truncate(content, 3)
	if !cut || n != 5 {
		t.Fatalf("expected cut of 5 characters, got cut=%v n=%d", cut, n)
	}
	if !strings.HasPrefix(got, "ééé\n\n...") {
		t.Errorf("expected rune-aligned cut, got %q", got)
	}
	if !strings.HasSuffix(got, "Original size: 5 characters]") {
		t.Errorf("unexpected notice %q", got)
	}

	got, n, cut = Truncate(content, 5)
	if cut || n != 5 || got != content {
		t.Errorf("expected unchanged content, got %q", got)
	}
}
