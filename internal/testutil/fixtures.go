package testutil

import (
	"context"
	"testing"

	"book-factory/internal/domain/entity"
	"book-factory/internal/infrastructure/persistence/sqlstore"
)

// SeedBook 写入一本草稿书籍以及给定角色
func SeedBook(tb testing.TB, client *sqlstore.Client, prompt string, chars ...*entity.Character) *entity.Book {
	tb.Helper()
	ctx := context.Background()

	book := entity.NewBookDraft(prompt)
	book.Title = "The Mess Hall"
	book.WorldDescription = "A field kitchen behind the front lines, winter 1944."
	book.ChaptersCount = 3
	if err := sqlstore.NewBookRepository(client).Create(ctx, book); err != nil {
		tb.Fatalf("seed book: %v", err)
	}
	if len(chars) > 0 {
		if err := sqlstore.NewCharacterRepository(client).ReplaceForBook(ctx, book.ID, chars); err != nil {
			tb.Fatalf("seed characters: %v", err)
		}
		book.Characters = chars
	}
	return book
}

// SeedChapters 写入章节骨架，contents[i] 为第 i+1 章正文
func SeedChapters(tb testing.TB, client *sqlstore.Client, bookID string, contents ...string) []*entity.Chapter {
	tb.Helper()

	chapters := make([]*entity.Chapter, 0, len(contents))
	for i, content := range contents {
		ch := entity.NewChapter(bookID, entity.ConceptChapter{
			ChapterNumber:   i + 1,
			ChapterTitle:    "Chapter",
			ChapterSynopsis: "synopsis",
		})
		ch.Content = content
		chapters = append(chapters, ch)
	}
	if err := sqlstore.NewChapterRepository(client).ReplaceForBook(context.Background(), bookID, chapters); err != nil {
		tb.Fatalf("seed chapters: %v", err)
	}
	return chapters
}

// Cast 一位主角加一位配角
func Cast() []*entity.Character {
	return []*entity.Character{
		{Name: "Hans", Description: "An army cook who hates onions.", IsProtagonist: true},
		{Name: "Greta", Description: "The quartermaster who controls the supplies."},
	}
}
