package chapter

import (
	"context"
	"strings"

	"book-factory/internal/domain/entity"
	"book-factory/internal/domain/repository"
	apperrors "book-factory/pkg/errors"
	"book-factory/pkg/logger"
)

// View 章节阅读页数据
type View struct {
	Book    *entity.Book
	Chapter *entity.Chapter
	Prev    *entity.Chapter
	Next    *entity.Chapter
}

// Service 章节读取与分段写作
type Service struct {
	books      repository.BookRepository
	chapters   repository.ChapterRepository
	builder    *PromptBuilder
	streamer   *Streamer
	dispatcher Dispatcher
}

// NewService 创建章节服务
func NewService(
	books repository.BookRepository,
	chapters repository.ChapterRepository,
	builder *PromptBuilder,
	streamer *Streamer,
	dispatcher Dispatcher,
) *Service {
	return &Service{
		books:      books,
		chapters:   chapters,
		builder:    builder,
		streamer:   streamer,
		dispatcher: dispatcher,
	}
}

// Get 获取书籍与属于它的章节；章节不属于该书时视为不存在
func (s *Service) Get(ctx context.Context, bookID, chapterID string) (*entity.Book, *entity.Chapter, error) {
	book, err := s.books.GetByID(ctx, bookID)
	if err != nil {
		return nil, nil, apperrors.Wrap(err, apperrors.CodeDatabaseError, "failed to load book")
	}
	if book == nil {
		return nil, nil, apperrors.ErrBookNotFound
	}
	ch, err := s.chapters.GetByID(ctx, chapterID)
	if err != nil {
		return nil, nil, apperrors.Wrap(err, apperrors.CodeDatabaseError, "failed to load chapter")
	}
	if ch == nil || ch.BookID != book.ID {
		return nil, nil, apperrors.ErrChapterNotFound
	}
	return book, ch, nil
}

// View 章节及其前后章节
func (s *Service) View(ctx context.Context, bookID, chapterID string) (*View, error) {
	book, ch, err := s.Get(ctx, bookID, chapterID)
	if err != nil {
		return nil, err
	}
	all, err := s.chapters.ListByBook(ctx, bookID)
	if err != nil {
		return nil, apperrors.Wrap(err, apperrors.CodeDatabaseError, "failed to list chapters")
	}

	v := &View{Book: book, Chapter: ch}
	for i, c := range all {
		if c.ID != ch.ID {
			continue
		}
		if i > 0 {
			v.Prev = all[i-1]
		}
		if i+1 < len(all) {
			v.Next = all[i+1]
		}
		break
	}
	return v, nil
}

// BeginWriting 进入写作状态并保存用户指示
func (s *Service) BeginWriting(ctx context.Context, bookID, chapterID string, part entity.ChapterPart, directives string) (*entity.Book, *entity.Chapter, error) {
	if !part.Valid() {
		return nil, nil, apperrors.ErrInvalidParam.WithDetail("part must be 1 or 2")
	}
	book, ch, err := s.Get(ctx, bookID, chapterID)
	if err != nil {
		return nil, nil, err
	}

	directives = strings.TrimSpace(directives)
	if err := s.chapters.BeginWriting(ctx, ch.ID, part.WritingStatus(), directives); err != nil {
		return nil, nil, apperrors.Wrap(err, apperrors.CodeDatabaseError, "failed to update chapter")
	}
	ch.BeginPart(part, directives)
	return book, ch, nil
}

// StreamPart 写作一个部分并把事件交给 emit。
// 流正常结束时先分发落库任务再发出 complete，因此 complete 不等待数据库写入。
func (s *Service) StreamPart(
	ctx context.Context,
	bookID, chapterID string,
	part entity.ChapterPart,
	directives string,
	emit EmitFunc,
) error {
	book, ch, err := s.BeginWriting(ctx, bookID, chapterID, part, directives)
	if err != nil {
		return err
	}
	ctx = logger.WithChapter(ctx, book.ID, ch.ID)

	prompt, err := s.builder.Build(ctx, book, ch, part, ch.UserDirectives)
	if err != nil {
		return apperrors.ErrInternalError.WithDetail("failed to build chapter prompt").WithError(err)
	}
	logger.Debug(ctx, "chapter prompt built", "part", int(part), "prompt_chars", len(prompt.Text()))

	_, err = s.streamer.Stream(ctx, prompt, func(ev Event) error {
		if ev.Type == EventComplete {
			s.dispatcher.Dispatch(ctx, &FinalizeJob{
				BookID:    book.ID,
				ChapterID: ch.ID,
				Part:      part,
				Text:      ev.Data,
			})
		}
		return emit(ev)
	})
	return err
}

// Wait 等待进程内的落库任务，用于优雅退出与 CLI
func (s *Service) Wait(ctx context.Context) error {
	return s.dispatcher.Wait(ctx)
}
