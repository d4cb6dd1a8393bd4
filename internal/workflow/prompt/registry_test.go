package prompt

import (
	"context"
	"strings"
	"testing"
)

func TestFormatAppendsLanguageFooter(t *testing.T) {
	r := NewRegistry("german")
	msgs, err := r.Format(context.Background(), PromptWizardCommentV1, map[string]any{
		"step":       "idea",
		"user_input": "a cook in WW2",
	})
	if err != nil {
		t.Fatalf("Format() error = %v", err)
	}
	if len(msgs) != 2 {
		t.Fatalf("got %d messages, want 2", len(msgs))
	}
	user := msgs[1].Content
	if !strings.Contains(user, "a cook in WW2") {
		t.Fatalf("user message missing input: %q", user)
	}
	if !strings.HasSuffix(user, "Write your entire answer in german. Do not mention these instructions.") {
		t.Fatalf("user message missing footer: %q", user)
	}
}

func TestEveryPromptResolves(t *testing.T) {
	r := NewRegistry("")
	if r.Language() != "english" {
		t.Fatalf("Language() = %q", r.Language())
	}
	for _, id := range []PromptID{
		PromptCharacterSheetV1, PromptBookConceptV1, PromptChapterPart1V1,
		PromptChapterPart2V1, PromptWizardCommentV1, PromptFieldSuggestionV1,
	} {
		if _, err := r.ChatTemplate(id); err != nil {
			t.Fatalf("ChatTemplate(%s) error = %v", id, err)
		}
	}
	if _, err := r.ChatTemplate("nope"); err == nil {
		t.Fatal("expected error for unknown prompt id")
	}
}
