package chain_test

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"

	"book-factory/internal/testutil"
	"book-factory/internal/workflow/chain"
	wfmodel "book-factory/internal/workflow/model"
	workflowprompt "book-factory/internal/workflow/prompt"
)

func newFactory(m *testutil.FakeChatModel) *testutil.FakeFactory {
	return &testutil.FakeFactory{Model: m}
}

func TestCharacterSheetChainParsesJSON(t *testing.T) {
	m := testutil.NewFakeChatModel()
	m.Reply = "Here you go:\n```json\n{\"summary\":\"A tired cook.\",\"profile\":\"p\",\"dialogue_voice\":\"d\",\"relationships\":\"r\",\"role_potential\":\"rp\",\"story_arc\":\"arc\"}\n```"
	c := chain.NewCharacterSheetChain(newFactory(m), workflowprompt.NewRegistry("english"))

	sheet, err := c.Invoke(context.Background(), &wfmodel.CharacterSheetInput{
		UserPrompt: "a cook in WW2",
		Character:  wfmodel.CharacterBrief{Name: "Hans", Role: "protagonist", Description: "army cook"},
		Others:     []wfmodel.CharacterBrief{{Name: "Greta", Role: "supporting"}},
	})
	if err != nil {
		t.Fatalf("Invoke() error = %v", err)
	}
	if sheet.Summary != "A tired cook." || sheet.StoryArc != "arc" {
		t.Fatalf("sheet = %+v", sheet)
	}
	prompt := m.LastPrompt()
	if !strings.Contains(prompt, "- name: Hans") || !strings.Contains(prompt, "- Greta (supporting)") {
		t.Fatalf("prompt missing character context: %s", prompt)
	}
}

func TestCharacterSheetChainRejectsGarbage(t *testing.T) {
	m := testutil.NewFakeChatModel()
	m.Reply = "I cannot help with that."
	c := chain.NewCharacterSheetChain(newFactory(m), workflowprompt.NewRegistry("english"))

	_, err := c.Invoke(context.Background(), &wfmodel.CharacterSheetInput{
		Character: wfmodel.CharacterBrief{Name: "Hans"},
	})
	if err == nil {
		t.Fatal("expected parse error")
	}
}

func TestConceptChainFallsBackWithoutSchema(t *testing.T) {
	m := testutil.NewFakeChatModel()
	m.GenerateFunc = func(_ context.Context, _ []*schema.Message, opts ...model.Option) (*schema.Message, error) {
		if len(opts) > 0 {
			return nil, errors.New("400 bad request: response_format is not supported")
		}
		return schema.AssistantMessage(`{"title":"Onions","premise":"p","chapters":[]}`, nil), nil
	}
	c := chain.NewConceptChain(newFactory(m), workflowprompt.NewRegistry("english"))

	raw, err := c.Invoke(context.Background(), &wfmodel.ConceptInput{UserPrompt: "a cook in WW2", ChaptersCount: 3})
	if err != nil {
		t.Fatalf("Invoke() error = %v", err)
	}
	if !strings.Contains(raw, `"Onions"`) {
		t.Fatalf("raw = %s", raw)
	}
	if n := len(m.Calls()); n != 2 {
		t.Fatalf("model called %d times, want 2", n)
	}
	if !strings.Contains(m.LastPrompt(), "exactly 3 chapters") {
		t.Fatalf("prompt does not ask for 3 chapters: %s", m.LastPrompt())
	}
}

func TestConceptChainRequiresChapters(t *testing.T) {
	c := chain.NewConceptChain(newFactory(testutil.NewFakeChatModel()), workflowprompt.NewRegistry("english"))
	if _, err := c.Invoke(context.Background(), &wfmodel.ConceptInput{}); err == nil {
		t.Fatal("expected error for zero chapters")
	}
}

func TestChapterMessagesByPart(t *testing.T) {
	c := chain.NewChapterChain(newFactory(testutil.NewFakeChatModel()), workflowprompt.NewRegistry("french"))
	ctx := context.Background()

	msgs, err := c.Messages(ctx, &wfmodel.ChapterPartInput{Part: 1, ChapterNumber: 2, TotalChapters: 5, PreviousEnding: "Hans burned the soup."})
	if err != nil {
		t.Fatalf("Messages(part 1) error = %v", err)
	}
	user := msgs[len(msgs)-1].Content
	if !strings.Contains(user, "Hans burned the soup.") || !strings.Contains(user, "chapter 2 of 5") {
		t.Fatalf("part 1 prompt = %s", user)
	}
	if !strings.Contains(user, "in french") {
		t.Fatalf("part 1 prompt lacks language footer: %s", user)
	}

	msgs, err = c.Messages(ctx, &wfmodel.ChapterPartInput{Part: 2, Part1Content: "FIRST HALF"})
	if err != nil {
		t.Fatalf("Messages(part 2) error = %v", err)
	}
	if !strings.Contains(msgs[len(msgs)-1].Content, "FIRST HALF") {
		t.Fatal("part 2 prompt lacks part 1 content")
	}

	if _, err := c.Messages(ctx, &wfmodel.ChapterPartInput{Part: 3}); err == nil {
		t.Fatal("expected error for part 3")
	}
}

func TestAssistantComment(t *testing.T) {
	m := testutil.NewFakeChatModel()
	m.Reply = "  Soup's on!  "
	c := chain.NewAssistantChain(newFactory(m), workflowprompt.NewRegistry("english"))

	got, err := c.Comment(context.Background(), &wfmodel.CommentInput{Step: "idea", UserInput: "a cook in WW2"})
	if err != nil || got != "Soup's on!" {
		t.Fatalf("Comment() = %q, %v", got, err)
	}
	if _, err := c.Comment(context.Background(), &wfmodel.CommentInput{}); err == nil {
		t.Fatal("expected error for empty input")
	}
	if _, err := c.Suggest(context.Background(), &wfmodel.SuggestionInput{Context: "x"}); err == nil {
		t.Fatal("expected error for missing field name")
	}
}
