package chapter_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"book-factory/internal/application/chapter"
	"book-factory/internal/domain/entity"
	"book-factory/internal/infrastructure/messaging"
	"book-factory/internal/infrastructure/persistence/sqlstore"
	"book-factory/internal/testutil"
)

func newFinalizer(client *sqlstore.Client) *chapter.Finalizer {
	return chapter.NewFinalizer(sqlstore.NewChapterRepository(client), sqlstore.NewTxManager(client))
}

func TestFinalizeParts(t *testing.T) {
	client := testutil.DB(t)
	ctx := context.Background()
	b := testutil.SeedBook(t, client, "p")
	chapters := testutil.SeedChapters(t, client, b.ID, "stale text")
	f := newFinalizer(client)
	repo := sqlstore.NewChapterRepository(client)

	if err := f.Finalize(ctx, &chapter.FinalizeJob{BookID: b.ID, ChapterID: chapters[0].ID, Part: entity.PartOne, Text: "first"}); err != nil {
		t.Fatalf("Finalize(part 1) error = %v", err)
	}
	got, _ := repo.GetByID(ctx, chapters[0].ID)
	if got.Content != "first" || got.Status != entity.ChapterStatusPart1Completed {
		t.Fatalf("after part 1: %+v", got)
	}

	if err := f.Finalize(ctx, &chapter.FinalizeJob{BookID: b.ID, ChapterID: chapters[0].ID, Part: entity.PartTwo, Text: "second"}); err != nil {
		t.Fatalf("Finalize(part 2) error = %v", err)
	}
	got, _ = repo.GetByID(ctx, chapters[0].ID)
	if got.Content != "first\n\nsecond" || got.Status != entity.ChapterStatusCompleted {
		t.Fatalf("after part 2: %+v", got)
	}
}

func TestFinalizeMissingChapterIsSkipped(t *testing.T) {
	client := testutil.DB(t)
	err := newFinalizer(client).Finalize(context.Background(), &chapter.FinalizeJob{ChapterID: "gone", Part: entity.PartOne, Text: "x"})
	if err != nil {
		t.Fatalf("Finalize() error = %v", err)
	}
}

func TestFinalizeHandlerDecodesMessage(t *testing.T) {
	client := testutil.DB(t)
	ctx := context.Background()
	b := testutil.SeedBook(t, client, "p")
	chapters := testutil.SeedChapters(t, client, b.ID, "")

	msg, err := messaging.NewMessage("m1", messaging.TypeChapterFinalize, &messaging.ChapterFinalizeMessage{
		BookID: b.ID, ChapterID: chapters[0].ID, Part: 1, Text: "queued text",
	})
	if err != nil {
		t.Fatal(err)
	}
	if err := chapter.NewFinalizeHandler(newFinalizer(client))(ctx, msg); err != nil {
		t.Fatalf("handler error = %v", err)
	}
	got, _ := sqlstore.NewChapterRepository(client).GetByID(ctx, chapters[0].ID)
	if got.Content != "queued text" || got.Status != entity.ChapterStatusPart1Completed {
		t.Fatalf("chapter = %+v", got)
	}

	bad, _ := messaging.NewMessage("m2", messaging.TypeChapterFinalize, &messaging.ChapterFinalizeMessage{ChapterID: chapters[0].ID, Part: 7})
	if err := chapter.NewFinalizeHandler(newFinalizer(client))(ctx, bad); err == nil {
		t.Fatal("expected error for invalid part")
	}
}

type fakePublisher struct {
	err  error
	jobs []*messaging.ChapterFinalizeMessage
}

func (p *fakePublisher) PublishChapterFinalize(_ context.Context, job *messaging.ChapterFinalizeMessage) (string, error) {
	if p.err != nil {
		return "", p.err
	}
	p.jobs = append(p.jobs, job)
	return "1-0", nil
}

func TestStreamDispatcherPublishes(t *testing.T) {
	client := testutil.DB(t)
	pub := &fakePublisher{}
	d := chapter.NewStreamDispatcher(pub, chapter.NewInProcessDispatcher(newFinalizer(client), time.Second))

	d.Dispatch(context.Background(), &chapter.FinalizeJob{BookID: "b", ChapterID: "c", Part: entity.PartTwo, Text: "t"})
	if len(pub.jobs) != 1 || pub.jobs[0].Part != 2 || pub.jobs[0].Text != "t" {
		t.Fatalf("published = %+v", pub.jobs)
	}
}

func TestStreamDispatcherFallsBackInProcess(t *testing.T) {
	client := testutil.DB(t)
	ctx := context.Background()
	b := testutil.SeedBook(t, client, "p")
	chapters := testutil.SeedChapters(t, client, b.ID, "")

	d := chapter.NewStreamDispatcher(&fakePublisher{err: errors.New("redis down")},
		chapter.NewInProcessDispatcher(newFinalizer(client), time.Second))
	d.Dispatch(ctx, &chapter.FinalizeJob{BookID: b.ID, ChapterID: chapters[0].ID, Part: entity.PartOne, Text: "saved anyway"})

	waitCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := d.Wait(waitCtx); err != nil {
		t.Fatalf("Wait() error = %v", err)
	}
	got, _ := sqlstore.NewChapterRepository(client).GetByID(ctx, chapters[0].ID)
	if got.Content != "saved anyway" {
		t.Fatalf("content = %q", got.Content)
	}
}
