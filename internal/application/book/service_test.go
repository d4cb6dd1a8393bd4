package book_test

import (
	"context"
	"errors"
	"testing"

	"book-factory/internal/application/book"
	"book-factory/internal/application/retrieval"
	"book-factory/internal/config"
	"book-factory/internal/domain/entity"
	"book-factory/internal/infrastructure/persistence/sqlstore"
	"book-factory/internal/testutil"
	apperrors "book-factory/pkg/errors"
)

func newService(t *testing.T) (*book.Service, *sqlstore.Client) {
	t.Helper()
	client := testutil.DB(t)
	chars := sqlstore.NewCharacterRepository(client)
	svc := book.NewService(
		sqlstore.NewBookRepository(client),
		chars,
		retrieval.NewCharacterContext(nil, nil, chars, 0),
		config.BookConfig{DefaultChapters: 5, MaxChapters: 50},
	)
	return svc, client
}

func TestSubmitIdeaCreatesThenUpdates(t *testing.T) {
	svc, _ := newService(t)
	ctx := context.Background()

	created, err := svc.SubmitIdea(ctx, "", "a cook in WW2")
	if err != nil {
		t.Fatalf("SubmitIdea() error = %v", err)
	}
	if created.Status != entity.BookStatusDraft {
		t.Fatalf("status = %s", created.Status)
	}

	updated, err := svc.SubmitIdea(ctx, created.ID, "a baker in WW1")
	if err != nil || updated.ID != created.ID {
		t.Fatalf("SubmitIdea(update) = %+v, %v", updated, err)
	}
	got, _ := svc.Get(ctx, created.ID)
	if got.UserPrompt != "a baker in WW1" {
		t.Fatalf("user_prompt = %q", got.UserPrompt)
	}

	// 未知 id 开启新的草稿
	fresh, err := svc.SubmitIdea(ctx, "unknown", "another idea")
	if err != nil || fresh.ID == created.ID || fresh.ID == "unknown" {
		t.Fatalf("SubmitIdea(unknown) = %+v, %v", fresh, err)
	}

	if _, err := svc.SubmitIdea(ctx, "", "   "); !errors.Is(err, apperrors.ErrInvalidParam) {
		t.Fatalf("SubmitIdea(blank) error = %v", err)
	}
}

func TestSaveCharactersValidatesProtagonist(t *testing.T) {
	tests := []struct {
		name   string
		inputs []book.CharacterInput
	}{
		{name: "none", inputs: nil},
		{name: "no protagonist", inputs: []book.CharacterInput{{Name: "A"}, {Name: "B"}}},
		{name: "two protagonists", inputs: []book.CharacterInput{
			{Name: "A", IsProtagonist: true},
			{Name: "B", IsProtagonist: true},
		}},
		{name: "missing name", inputs: []book.CharacterInput{{Description: "ghost", IsProtagonist: true}}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, client := newService(t)
			ctx := context.Background()
			seeded := testutil.SeedBook(t, client, "p")

			_, err := svc.SaveCharacters(ctx, seeded.ID, tt.inputs)
			if !errors.Is(err, apperrors.ErrValidationFailed) {
				t.Fatalf("SaveCharacters() error = %v, want validation failure", err)
			}
			n, _ := sqlstore.NewCharacterRepository(client).CountByBook(ctx, seeded.ID)
			if n != 0 {
				t.Fatalf("characters stored = %d, want 0", n)
			}
		})
	}
}

func TestSaveCharactersResetsChapterCount(t *testing.T) {
	svc, client := newService(t)
	ctx := context.Background()
	seeded := testutil.SeedBook(t, client, "p")

	got, err := svc.SaveCharacters(ctx, seeded.ID, []book.CharacterInput{
		{Name: "Hans", Description: "cook", IsProtagonist: true},
		{Name: "", Description: ""},
		{Name: "Greta", Description: "quartermaster"},
	})
	if err != nil {
		t.Fatalf("SaveCharacters() error = %v", err)
	}
	if len(got.Characters) != 2 || got.ChaptersCount != 5 {
		t.Fatalf("book = %+v", got)
	}
	stored, _ := svc.GetWithRelations(ctx, seeded.ID)
	if stored.ChaptersCount != 5 || len(stored.Characters) != 2 || stored.Protagonist().Name != "Hans" {
		t.Fatalf("stored = %+v", stored)
	}
}

func TestSetChaptersCountBounds(t *testing.T) {
	svc, client := newService(t)
	ctx := context.Background()
	seeded := testutil.SeedBook(t, client, "p")

	for _, n := range []int{0, 51} {
		if _, err := svc.SetChaptersCount(ctx, seeded.ID, n); !errors.Is(err, apperrors.ErrInvalidParam) {
			t.Fatalf("SetChaptersCount(%d) error = %v", n, err)
		}
	}
	got, err := svc.SetChaptersCount(ctx, seeded.ID, 12)
	if err != nil || got.ChaptersCount != 12 {
		t.Fatalf("SetChaptersCount(12) = %+v, %v", got, err)
	}
	if _, err := svc.SetChaptersCount(ctx, "missing", 3); !errors.Is(err, apperrors.ErrBookNotFound) {
		t.Fatalf("SetChaptersCount(missing) error = %v", err)
	}
}

func TestDeleteThenGetIsNotFound(t *testing.T) {
	svc, client := newService(t)
	ctx := context.Background()
	seeded := testutil.SeedBook(t, client, "a cook in WW2", testutil.Cast()...)
	testutil.SeedChapters(t, client, seeded.ID, "one", "two")

	if err := svc.Delete(ctx, seeded.ID); err != nil {
		t.Fatalf("Delete() error = %v", err)
	}
	_, err := svc.Get(ctx, seeded.ID)
	if !apperrors.IsNotFound(err) {
		t.Fatalf("Get() after delete error = %v", err)
	}
	if err := svc.Delete(ctx, seeded.ID); !errors.Is(err, apperrors.ErrBookNotFound) {
		t.Fatalf("second Delete() error = %v", err)
	}
}

func TestDashboardNextChapter(t *testing.T) {
	svc, client := newService(t)
	ctx := context.Background()
	seeded := testutil.SeedBook(t, client, "p", testutil.Cast()...)
	chapters := testutil.SeedChapters(t, client, seeded.ID, "done", "", "")

	repo := sqlstore.NewChapterRepository(client)
	chapters[0].Status = entity.ChapterStatusCompleted
	if err := repo.Update(ctx, chapters[0]); err != nil {
		t.Fatal(err)
	}

	d, err := svc.Dashboard(ctx, seeded.ID)
	if err != nil {
		t.Fatalf("Dashboard() error = %v", err)
	}
	if d.NextChapter == nil || d.NextChapter.ChapterNumber != 2 {
		t.Fatalf("next chapter = %+v", d.NextChapter)
	}
	if d.Concept != nil {
		t.Fatalf("concept = %+v, want nil", d.Concept)
	}
}

func TestListFiltersByStatus(t *testing.T) {
	svc, client := newService(t)
	ctx := context.Background()
	a := testutil.SeedBook(t, client, "a")
	testutil.SeedBook(t, client, "b")
	if err := sqlstore.NewBookRepository(client).UpdateStatus(ctx, a.ID, entity.BookStatusFailed); err != nil {
		t.Fatal(err)
	}

	all, err := svc.List(ctx)
	if err != nil || len(all) != 2 {
		t.Fatalf("List() = %d, %v", len(all), err)
	}
	failed, err := svc.List(ctx, entity.BookStatusFailed)
	if err != nil || len(failed) != 1 || failed[0].ID != a.ID {
		t.Fatalf("List(failed) = %+v, %v", failed, err)
	}
}
