package chapter_test

import (
	"context"
	"strings"
	"testing"

	"gorm.io/datatypes"

	"book-factory/internal/application/chapter"
	"book-factory/internal/application/retrieval"
	"book-factory/internal/domain/entity"
	"book-factory/internal/infrastructure/persistence/sqlstore"
	"book-factory/internal/testutil"
	wfchain "book-factory/internal/workflow/chain"
	workflowprompt "book-factory/internal/workflow/prompt"
)

func TestPreviousEnding(t *testing.T) {
	tests := []struct {
		name    string
		content string
		tail    int
		want    string
	}{
		{
			name:    "after delimiter",
			content: "The stew burned.\n---\nHans sleeps by the stove.",
			want:    "Hans sleeps by the stove.",
		},
		{
			name:    "last delimiter wins",
			content: "a\n---\nmiddle summary\nmore prose\n  ---  \nfinal summary\n",
			want:    "final summary",
		},
		{
			name:    "dashes inside a line are not a delimiter",
			content: "word---word\nend",
			tail:    100,
			want:    "word---word\nend",
		},
		{
			name:    "tail fallback is rune safe",
			content: "ääääbbbb",
			tail:    3,
			want:    "bbb",
		},
		{
			name:    "delimiter at end",
			content: "prose\n---",
			want:    "",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := chapter.PreviousEnding(tt.content, tt.tail); got != tt.want {
				t.Fatalf("PreviousEnding() = %q, want %q", got, tt.want)
			}
		})
	}
}

func newBuilder(t *testing.T, client *sqlstore.Client) *chapter.PromptBuilder {
	t.Helper()
	chars := sqlstore.NewCharacterRepository(client)
	factory := &testutil.FakeFactory{Model: testutil.NewFakeChatModel()}
	return chapter.NewPromptBuilder(
		sqlstore.NewChapterRepository(client),
		retrieval.NewCharacterContext(nil, nil, chars, 0),
		wfchain.NewChapterChain(factory, workflowprompt.NewRegistry("english")),
		1500,
	)
}

func withConcept(t *testing.T, b *entity.Book) {
	t.Helper()
	err := b.SetConcept(&entity.BookConcept{
		Title:   "Onions and Iron",
		Premise: "A cook feeds a starving company.",
		Chapters: []entity.ConceptChapter{
			{ChapterNumber: 1, ChapterTitle: "One", ChapterEvents: []entity.ChapterEvent{{EventTitle: "Arrival", EventDescription: "Hans reaches the front."}}},
			{ChapterNumber: 2, ChapterTitle: "Two", ChapterEvents: []entity.ChapterEvent{{EventTitle: "Shortage", EventDescription: "The onions run out."}}},
		},
	})
	if err != nil {
		t.Fatal(err)
	}
}

func TestBuildPartOneUsesPreviousEnding(t *testing.T) {
	client := testutil.DB(t)
	ctx := context.Background()
	b := testutil.SeedBook(t, client, "a cook in WW2", testutil.Cast()...)
	withConcept(t, b)
	chapters := testutil.SeedChapters(t, client, b.ID,
		"Chapter one prose.\n---\nHans hides the last onion.", "")

	p, err := newBuilder(t, client).Build(ctx, b, chapters[1], entity.PartOne, "more dialogue")
	if err != nil {
		t.Fatalf("Build() error = %v", err)
	}
	if p.Input.PreviousEnding != "Hans hides the last onion." {
		t.Fatalf("PreviousEnding = %q", p.Input.PreviousEnding)
	}
	text := p.Text()
	for _, want := range []string{
		"Hans hides the last onion.",
		"- Shortage: The onions run out.",
		"A cook feeds a starving company.",
		"more dialogue",
		"name: Hans, role: protagonist",
		"chapter 2 of 3",
	} {
		if !strings.Contains(text, want) {
			t.Fatalf("prompt missing %q:\n%s", want, text)
		}
	}
	if strings.Contains(text, "Arrival") {
		t.Fatal("prompt contains events of another chapter")
	}
}

func TestBuildFirstChapterHasNoPreviousEnding(t *testing.T) {
	client := testutil.DB(t)
	b := testutil.SeedBook(t, client, "p", testutil.Cast()...)
	chapters := testutil.SeedChapters(t, client, b.ID, "", "")

	p, err := newBuilder(t, client).Build(context.Background(), b, chapters[0], entity.PartOne, "")
	if err != nil {
		t.Fatalf("Build() error = %v", err)
	}
	if p.Input.PreviousEnding != "" {
		t.Fatalf("PreviousEnding = %q", p.Input.PreviousEnding)
	}
}

func TestBuildPartTwoCarriesPartOne(t *testing.T) {
	client := testutil.DB(t)
	b := testutil.SeedBook(t, client, "p", testutil.Cast()...)
	chapters := testutil.SeedChapters(t, client, b.ID, "First half of the chapter.")

	p, err := newBuilder(t, client).Build(context.Background(), b, chapters[0], entity.PartTwo, "")
	if err != nil {
		t.Fatalf("Build() error = %v", err)
	}
	if p.Input.Part1Content != "First half of the chapter." {
		t.Fatalf("Part1Content = %q", p.Input.Part1Content)
	}
	if !strings.Contains(p.Text(), "First half of the chapter.") {
		t.Fatal("prompt does not include part one")
	}
}

func TestBuildMalformedConceptIsNotFatal(t *testing.T) {
	client := testutil.DB(t)
	b := testutil.SeedBook(t, client, "p", testutil.Cast()...)
	chapters := testutil.SeedChapters(t, client, b.ID, "")
	b.LLMConcept = datatypes.JSON(`{"chapters": "oops"`)

	p, err := newBuilder(t, client).Build(context.Background(), b, chapters[0], entity.PartOne, "")
	if err != nil {
		t.Fatalf("Build() error = %v", err)
	}
	if p.Input.ChapterEvents != "" || p.Input.Premise != "" {
		t.Fatalf("expected empty concept context, got %+v", p.Input)
	}
}

func TestBuildRejectsInvalidPart(t *testing.T) {
	client := testutil.DB(t)
	b := testutil.SeedBook(t, client, "p")
	chapters := testutil.SeedChapters(t, client, b.ID, "")

	if _, err := newBuilder(t, client).Build(context.Background(), b, chapters[0], entity.ChapterPart(3), ""); err == nil {
		t.Fatal("expected error for part 3")
	}
}
