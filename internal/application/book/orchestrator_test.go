package book_test

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"

	"book-factory/internal/application/book"
	"book-factory/internal/application/retrieval"
	"book-factory/internal/config"
	"book-factory/internal/domain/entity"
	"book-factory/internal/infrastructure/persistence/sqlstore"
	"book-factory/internal/testutil"
	wfchain "book-factory/internal/workflow/chain"
	workflowprompt "book-factory/internal/workflow/prompt"
	apperrors "book-factory/pkg/errors"
)

const sheetJSON = `{"summary":"%s, summarised.","profile":"p","dialogue_voice":"curt","relationships":"r","role_potential":"rp","story_arc":"arc"}`

func conceptJSON(n int) string {
	parts := make([]string, n)
	for i := range parts {
		parts[i] = fmt.Sprintf(`{"chapter_number":%d,"chapter_title":"Part %d","chapter_synopsis":"s%d","chapter_events":[{"event_title":"e","event_description":"d"}]}`, i+1, i+1, i+1)
	}
	return `{"title":"Onions and Iron","premise":"A cook feeds a starving company.","chapters":[` + strings.Join(parts, ",") + `]}`
}

// scriptedModel 按系统提示区分角色卡与大纲请求
func scriptedModel(conceptReply string, conceptErr error) *testutil.FakeChatModel {
	m := testutil.NewFakeChatModel()
	m.GenerateFunc = func(_ context.Context, msgs []*schema.Message, _ ...model.Option) (*schema.Message, error) {
		if strings.Contains(msgs[0].Content, "book architect") {
			if conceptErr != nil {
				return nil, conceptErr
			}
			return schema.AssistantMessage(conceptReply, nil), nil
		}
		name := "someone"
		for _, line := range strings.Split(msgs[len(msgs)-1].Content, "\n") {
			if v, ok := strings.CutPrefix(strings.TrimSpace(line), "- name: "); ok {
				name = v
				break
			}
		}
		return schema.AssistantMessage(fmt.Sprintf(sheetJSON, name), nil), nil
	}
	return m
}

type fixture struct {
	client *sqlstore.Client
	orch   *book.Orchestrator
	books  *sqlstore.BookRepository
}

func newFixture(t *testing.T, m *testutil.FakeChatModel) *fixture {
	t.Helper()
	client := testutil.DB(t)
	books := sqlstore.NewBookRepository(client)
	chars := sqlstore.NewCharacterRepository(client)
	registry := workflowprompt.NewRegistry("english")
	factory := &testutil.FakeFactory{Model: m}

	orch := book.NewOrchestrator(
		books,
		chars,
		sqlstore.NewChapterRepository(client),
		sqlstore.NewTxManager(client),
		wfchain.NewCharacterSheetChain(factory, registry),
		wfchain.NewConceptChain(factory, registry),
		retrieval.NewCharacterContext(nil, nil, chars, 0),
		config.BookConfig{DefaultChapters: 5, MaxChapters: 50},
	)
	return &fixture{client: client, orch: orch, books: books}
}

func TestGenerateActivatesBook(t *testing.T) {
	f := newFixture(t, scriptedModel(conceptJSON(3), nil))
	ctx := context.Background()
	seeded := testutil.SeedBook(t, f.client, "a cook in WW2", testutil.Cast()...)

	got, err := f.orch.Generate(ctx, seeded.ID)
	if err != nil {
		t.Fatalf("Generate() error = %v", err)
	}
	if got.Status != entity.BookStatusActive || got.ChaptersCount != 3 {
		t.Fatalf("book = %+v", got)
	}

	stored, err := f.books.GetWithRelations(ctx, seeded.ID)
	if err != nil || stored == nil {
		t.Fatalf("GetWithRelations() = %v, %v", stored, err)
	}
	if stored.Status != entity.BookStatusActive {
		t.Fatalf("stored status = %s", stored.Status)
	}
	if len(stored.Chapters) != stored.ChaptersCount {
		t.Fatalf("chapters = %d, chapters_count = %d", len(stored.Chapters), stored.ChaptersCount)
	}
	for _, ch := range stored.Chapters {
		if ch.Status != entity.ChapterStatusDraft {
			t.Fatalf("chapter %d status = %s", ch.ChapterNumber, ch.Status)
		}
	}
	if len(stored.Characters) == 0 || entity.CountProtagonists(stored.Characters) != 1 {
		t.Fatalf("characters = %+v", stored.Characters)
	}
	hans := stored.Characters[0]
	if hans.Name != "Hans" || !hans.IsProtagonist || hans.Summary != "Hans, summarised." {
		t.Fatalf("protagonist = %+v", hans)
	}
	concept, err := stored.Concept()
	if err != nil || concept == nil || len(concept.Chapters) != 3 {
		t.Fatalf("Concept() = %+v, %v", concept, err)
	}
	// 种子数据已有标题，不应被覆盖
	if stored.Title != "The Mess Hall" {
		t.Fatalf("title = %q", stored.Title)
	}
}

func TestGenerateTruncatesExtraChapters(t *testing.T) {
	f := newFixture(t, scriptedModel(conceptJSON(6), nil))
	seeded := testutil.SeedBook(t, f.client, "a cook in WW2", testutil.Cast()...)

	got, err := f.orch.Generate(context.Background(), seeded.ID)
	if err != nil {
		t.Fatalf("Generate() error = %v", err)
	}
	if got.ChaptersCount != 3 || len(got.Chapters) != 3 {
		t.Fatalf("chapters_count = %d, chapters = %d", got.ChaptersCount, len(got.Chapters))
	}
}

func TestGenerateCopiesConceptTitle(t *testing.T) {
	f := newFixture(t, scriptedModel(conceptJSON(3), nil))
	ctx := context.Background()
	seeded := testutil.SeedBook(t, f.client, "a cook in WW2", testutil.Cast()...)
	if err := f.books.UpdateFields(ctx, seeded.ID, map[string]any{"title": ""}); err != nil {
		t.Fatal(err)
	}

	if _, err := f.orch.Generate(ctx, seeded.ID); err != nil {
		t.Fatalf("Generate() error = %v", err)
	}
	stored, _ := f.books.GetByID(ctx, seeded.ID)
	if stored.Title != "Onions and Iron" {
		t.Fatalf("title = %q", stored.Title)
	}
}

func TestGenerateFailureMarksBookFailed(t *testing.T) {
	f := newFixture(t, scriptedModel("", errors.New("upstream 500")))
	ctx := context.Background()
	seeded := testutil.SeedBook(t, f.client, "a cook in WW2", testutil.Cast()...)

	_, err := f.orch.Generate(ctx, seeded.ID)
	if !errors.Is(err, apperrors.ErrLLMCallFailed) {
		t.Fatalf("Generate() error = %v, want LLM failure", err)
	}
	stored, _ := f.books.GetByID(ctx, seeded.ID)
	if stored.Status != entity.BookStatusFailed {
		t.Fatalf("status = %s, want failed", stored.Status)
	}
}

func TestGenerateMalformedConceptFails(t *testing.T) {
	f := newFixture(t, scriptedModel("no json here", nil))
	ctx := context.Background()
	seeded := testutil.SeedBook(t, f.client, "a cook in WW2", testutil.Cast()...)

	if _, err := f.orch.Generate(ctx, seeded.ID); err == nil {
		t.Fatal("expected error for malformed concept")
	}
	stored, _ := f.books.GetByID(ctx, seeded.ID)
	if stored.Status != entity.BookStatusFailed {
		t.Fatalf("status = %s, want failed", stored.Status)
	}
}

func TestGenerateRejectsInvalidCast(t *testing.T) {
	m := scriptedModel(conceptJSON(3), nil)
	f := newFixture(t, m)
	ctx := context.Background()
	seeded := testutil.SeedBook(t, f.client, "p",
		&entity.Character{Name: "A", IsProtagonist: true},
		&entity.Character{Name: "B", IsProtagonist: true},
	)

	_, err := f.orch.Generate(ctx, seeded.ID)
	if !errors.Is(err, apperrors.ErrValidationFailed) {
		t.Fatalf("Generate() error = %v, want validation failure", err)
	}
	stored, _ := f.books.GetByID(ctx, seeded.ID)
	if stored.Status != entity.BookStatusDraft {
		t.Fatalf("status = %s, want draft", stored.Status)
	}
	if n := len(m.Calls()); n != 0 {
		t.Fatalf("model called %d times", n)
	}
}

func TestGenerateRequiresDraft(t *testing.T) {
	f := newFixture(t, scriptedModel(conceptJSON(3), nil))
	ctx := context.Background()
	seeded := testutil.SeedBook(t, f.client, "p", testutil.Cast()...)
	if err := f.books.UpdateStatus(ctx, seeded.ID, entity.BookStatusActive); err != nil {
		t.Fatal(err)
	}

	_, err := f.orch.Generate(ctx, seeded.ID)
	if !errors.Is(err, apperrors.ErrBookNotDraft) {
		t.Fatalf("Generate() error = %v, want not draft", err)
	}
}

func TestGenerateRejectsFailedBook(t *testing.T) {
	f := newFixture(t, scriptedModel(conceptJSON(3), nil))
	ctx := context.Background()
	seeded := testutil.SeedBook(t, f.client, "p", testutil.Cast()...)
	if err := f.books.UpdateStatus(ctx, seeded.ID, entity.BookStatusFailed); err != nil {
		t.Fatal(err)
	}

	_, err := f.orch.Generate(ctx, seeded.ID)
	if !errors.Is(err, apperrors.ErrBookNotDraft) {
		t.Fatalf("Generate() error = %v, want not draft", err)
	}
	stored, _ := f.books.GetByID(ctx, seeded.ID)
	if stored.Status != entity.BookStatusFailed {
		t.Fatalf("status = %s, want failed", stored.Status)
	}
}

func TestGenerateUnknownBook(t *testing.T) {
	f := newFixture(t, scriptedModel(conceptJSON(3), nil))
	_, err := f.orch.Generate(context.Background(), "missing")
	if !errors.Is(err, apperrors.ErrBookNotFound) {
		t.Fatalf("Generate() error = %v", err)
	}
}
