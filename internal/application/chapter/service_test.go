package chapter_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"book-factory/internal/application/chapter"
	"book-factory/internal/application/retrieval"
	"book-factory/internal/domain/entity"
	"book-factory/internal/infrastructure/persistence/sqlstore"
	"book-factory/internal/testutil"
	wfchain "book-factory/internal/workflow/chain"
	workflowprompt "book-factory/internal/workflow/prompt"
	apperrors "book-factory/pkg/errors"
)

type serviceFixture struct {
	client *sqlstore.Client
	model  *testutil.FakeChatModel
	svc    *chapter.Service
}

func newServiceFixture(t *testing.T) *serviceFixture {
	t.Helper()
	client := testutil.DB(t)
	m := testutil.NewFakeChatModel()
	factory := &testutil.FakeFactory{Model: m}
	chapterChain := wfchain.NewChapterChain(factory, workflowprompt.NewRegistry("english"))
	chapters := sqlstore.NewChapterRepository(client)

	svc := chapter.NewService(
		sqlstore.NewBookRepository(client),
		chapters,
		chapter.NewPromptBuilder(chapters, retrieval.NewCharacterContext(nil, nil, sqlstore.NewCharacterRepository(client), 0), chapterChain, 0),
		chapter.NewStreamer(chapterChain),
		chapter.NewInProcessDispatcher(chapter.NewFinalizer(chapters, sqlstore.NewTxManager(client)), time.Second),
	)
	return &serviceFixture{client: client, model: m, svc: svc}
}

func (f *serviceFixture) wait(t *testing.T) {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := f.svc.Wait(ctx); err != nil {
		t.Fatalf("Wait() error = %v", err)
	}
}

func TestWriteChapterInTwoParts(t *testing.T) {
	f := newServiceFixture(t)
	ctx := context.Background()
	b := testutil.SeedBook(t, f.client, "a cook in WW2", testutil.Cast()...)
	chapters := testutil.SeedChapters(t, f.client, b.ID, "")

	f.model.Chunks = []string{"Hans peels ", "onions."}
	rec := &recorder{}
	if err := f.svc.StreamPart(ctx, b.ID, chapters[0].ID, entity.PartOne, "slow start", rec.emit); err != nil {
		t.Fatalf("StreamPart(1) error = %v", err)
	}
	f.wait(t)

	f.model.Chunks = []string{"Greta ", "counts sacks."}
	if err := f.svc.StreamPart(ctx, b.ID, chapters[0].ID, entity.PartTwo, "", rec.emit); err != nil {
		t.Fatalf("StreamPart(2) error = %v", err)
	}
	f.wait(t)

	_, got, err := f.svc.Get(ctx, b.ID, chapters[0].ID)
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if got.Content != "Hans peels onions."+entity.PartSeparator+"Greta counts sacks." {
		t.Fatalf("content = %q", got.Content)
	}
	if got.Status != entity.ChapterStatusCompleted {
		t.Fatalf("status = %s", got.Status)
	}
	if rec.count(chapter.EventComplete) != 2 || rec.count(chapter.EventMessage) != 4 {
		t.Fatalf("events = %+v", rec.events)
	}
}

func TestStreamPartFailureKeepsContent(t *testing.T) {
	f := newServiceFixture(t)
	ctx := context.Background()
	b := testutil.SeedBook(t, f.client, "p", testutil.Cast()...)
	chapters := testutil.SeedChapters(t, f.client, b.ID, "earlier draft")

	f.model.Chunks = []string{"half", "way"}
	f.model.StreamErrAfter = 1
	rec := &recorder{}
	if err := f.svc.StreamPart(ctx, b.ID, chapters[0].ID, entity.PartOne, "be bold", rec.emit); err == nil {
		t.Fatal("expected stream error")
	}
	f.wait(t)

	_, got, _ := f.svc.Get(ctx, b.ID, chapters[0].ID)
	if got.Content != "earlier draft" {
		t.Fatalf("content = %q, finalize must not run after a failed stream", got.Content)
	}
	if got.Status != entity.ChapterStatusWritingPart1 || got.UserDirectives != "be bold" {
		t.Fatalf("chapter = %+v", got)
	}
}

func TestChapterMustBelongToBook(t *testing.T) {
	f := newServiceFixture(t)
	ctx := context.Background()
	a := testutil.SeedBook(t, f.client, "a")
	other := testutil.SeedBook(t, f.client, "b")
	chapters := testutil.SeedChapters(t, f.client, other.ID, "")

	if _, _, err := f.svc.Get(ctx, a.ID, chapters[0].ID); !errors.Is(err, apperrors.ErrChapterNotFound) {
		t.Fatalf("Get() error = %v", err)
	}
	if _, _, err := f.svc.Get(ctx, "missing", chapters[0].ID); !errors.Is(err, apperrors.ErrBookNotFound) {
		t.Fatalf("Get(missing book) error = %v", err)
	}
	if _, _, err := f.svc.BeginWriting(ctx, other.ID, chapters[0].ID, entity.ChapterPart(0), ""); !errors.Is(err, apperrors.ErrInvalidParam) {
		t.Fatalf("BeginWriting(part 0) error = %v", err)
	}
}

func TestViewNavigation(t *testing.T) {
	f := newServiceFixture(t)
	b := testutil.SeedBook(t, f.client, "p")
	chapters := testutil.SeedChapters(t, f.client, b.ID, "1", "2", "3")

	v, err := f.svc.View(context.Background(), b.ID, chapters[1].ID)
	if err != nil {
		t.Fatalf("View() error = %v", err)
	}
	if v.Prev == nil || v.Prev.ID != chapters[0].ID || v.Next == nil || v.Next.ID != chapters[2].ID {
		t.Fatalf("view = %+v", v)
	}

	first, _ := f.svc.View(context.Background(), b.ID, chapters[0].ID)
	if first.Prev != nil || first.Next == nil {
		t.Fatalf("first view = %+v", first)
	}
}
