// Package book 实现建书向导与整书生成编排
package book

import (
	"context"
	"fmt"
	"strings"

	"book-factory/internal/application/retrieval"
	"book-factory/internal/config"
	"book-factory/internal/domain/entity"
	"book-factory/internal/domain/repository"
	apperrors "book-factory/pkg/errors"
	"book-factory/pkg/logger"
)

const fallbackChapters = 5

// CharacterInput 向导表单中的一个角色
type CharacterInput struct {
	Name          string
	Description   string
	IsProtagonist bool
}

// Dashboard 书籍总览页所需数据
type Dashboard struct {
	Book    *entity.Book
	Concept *entity.BookConcept
	// NextChapter 章节号最小的草稿章节，全部写完时为 nil
	NextChapter *entity.Chapter
}

// Service 向导阶段的书籍读写
type Service struct {
	books      repository.BookRepository
	characters repository.CharacterRepository
	retriever  *retrieval.CharacterContext
	cfg        config.BookConfig
}

// NewService 创建书籍服务
func NewService(
	books repository.BookRepository,
	characters repository.CharacterRepository,
	retriever *retrieval.CharacterContext,
	cfg config.BookConfig,
) *Service {
	return &Service{
		books:      books,
		characters: characters,
		retriever:  retriever,
		cfg:        cfg,
	}
}

// DefaultChapters 新书的默认章节数
func (s *Service) DefaultChapters() int {
	if s.cfg.DefaultChapters > 0 {
		return s.cfg.DefaultChapters
	}
	return fallbackChapters
}

// MaxChapters 允许的最大章节数
func (s *Service) MaxChapters() int {
	if s.cfg.MaxChapters > 0 {
		return s.cfg.MaxChapters
	}
	return 50
}

// SubmitIdea 保存故事想法：bookID 为空或不存在时新建草稿，否则更新已有书籍
func (s *Service) SubmitIdea(ctx context.Context, bookID, userPrompt string) (*entity.Book, error) {
	userPrompt = strings.TrimSpace(userPrompt)
	if userPrompt == "" {
		return nil, apperrors.ErrInvalidParam.WithDetail("user_prompt is required")
	}

	if bookID != "" {
		book, err := s.books.GetByID(ctx, bookID)
		if err != nil {
			return nil, apperrors.Wrap(err, apperrors.CodeDatabaseError, "failed to load book")
		}
		if book != nil {
			if err := s.books.UpdateFields(ctx, book.ID, map[string]any{"user_prompt": userPrompt}); err != nil {
				return nil, apperrors.Wrap(err, apperrors.CodeDatabaseError, "failed to update book")
			}
			book.UserPrompt = userPrompt
			return book, nil
		}
	}

	book := entity.NewBookDraft(userPrompt)
	if err := s.books.Create(ctx, book); err != nil {
		return nil, apperrors.Wrap(err, apperrors.CodeDatabaseError, "failed to create book")
	}
	logger.Info(logger.WithContext(ctx, logger.BookIDKey, book.ID), "book draft created")
	return book, nil
}

// Get 获取书籍，不存在时返回 ErrBookNotFound
func (s *Service) Get(ctx context.Context, id string) (*entity.Book, error) {
	book, err := s.books.GetByID(ctx, id)
	if err != nil {
		return nil, apperrors.Wrap(err, apperrors.CodeDatabaseError, "failed to load book")
	}
	if book == nil {
		return nil, apperrors.ErrBookNotFound
	}
	return book, nil
}

// GetWithRelations 获取书籍及其角色、章节
func (s *Service) GetWithRelations(ctx context.Context, id string) (*entity.Book, error) {
	book, err := s.books.GetWithRelations(ctx, id)
	if err != nil {
		return nil, apperrors.Wrap(err, apperrors.CodeDatabaseError, "failed to load book")
	}
	if book == nil {
		return nil, apperrors.ErrBookNotFound
	}
	return book, nil
}

// UpdateTitle 保存标题
func (s *Service) UpdateTitle(ctx context.Context, id, title string) (*entity.Book, error) {
	return s.updateField(ctx, id, "title", strings.TrimSpace(title))
}

// UpdateWorld 保存世界观描述
func (s *Service) UpdateWorld(ctx context.Context, id, world string) (*entity.Book, error) {
	return s.updateField(ctx, id, "world_description", strings.TrimSpace(world))
}

func (s *Service) updateField(ctx context.Context, id, column, value string) (*entity.Book, error) {
	book, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.books.UpdateFields(ctx, id, map[string]any{column: value}); err != nil {
		return nil, apperrors.Wrap(err, apperrors.CodeDatabaseError, "failed to update book")
	}
	switch column {
	case "title":
		book.Title = value
	case "world_description":
		book.WorldDescription = value
	}
	return book, nil
}

// ValidateCharacters 校验角色列表：至少一个且恰好一个主角
func ValidateCharacters(chars []*entity.Character) error {
	if len(chars) == 0 {
		return apperrors.ErrValidationFailed.WithDetail("add at least one character")
	}
	for i, c := range chars {
		if strings.TrimSpace(c.Name) == "" {
			return apperrors.ErrValidationFailed.WithDetail(fmt.Sprintf("character %d needs a name", i+1))
		}
	}
	if n := entity.CountProtagonists(chars); n != 1 {
		return apperrors.ErrValidationFailed.WithDetail(
			fmt.Sprintf("exactly one character must be the protagonist, got %d", n))
	}
	return nil
}

// SaveCharacters 校验并替换书籍角色，同时把章节数重置为默认值
func (s *Service) SaveCharacters(ctx context.Context, id string, inputs []CharacterInput) (*entity.Book, error) {
	book, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	chars := make([]*entity.Character, 0, len(inputs))
	for _, in := range inputs {
		name := strings.TrimSpace(in.Name)
		desc := strings.TrimSpace(in.Description)
		// 表单里完全空白的行直接忽略
		if name == "" && desc == "" && !in.IsProtagonist {
			continue
		}
		chars = append(chars, &entity.Character{
			Name:          name,
			Description:   desc,
			IsProtagonist: in.IsProtagonist,
		})
	}
	if err := ValidateCharacters(chars); err != nil {
		return nil, err
	}

	if err := s.characters.ReplaceForBook(ctx, id, chars); err != nil {
		return nil, apperrors.Wrap(err, apperrors.CodeDatabaseError, "failed to save characters")
	}
	if err := s.books.UpdateFields(ctx, id, map[string]any{"chapters_count": s.DefaultChapters()}); err != nil {
		return nil, apperrors.Wrap(err, apperrors.CodeDatabaseError, "failed to update book")
	}
	book.Characters = chars
	book.ChaptersCount = s.DefaultChapters()
	return book, nil
}

// SetChaptersCount 保存章节数，范围 1..MaxChapters
func (s *Service) SetChaptersCount(ctx context.Context, id string, n int) (*entity.Book, error) {
	if n < 1 || n > s.MaxChapters() {
		return nil, apperrors.ErrInvalidParam.WithDetail(
			fmt.Sprintf("chapters_count must be between 1 and %d", s.MaxChapters()))
	}
	book, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.books.UpdateFields(ctx, id, map[string]any{"chapters_count": n}); err != nil {
		return nil, apperrors.Wrap(err, apperrors.CodeDatabaseError, "failed to update book")
	}
	book.ChaptersCount = n
	return book, nil
}

// List 按创建时间倒序列出书籍，statuses 为空时不过滤
func (s *Service) List(ctx context.Context, statuses ...entity.BookStatus) ([]*entity.Book, error) {
	var filter *repository.BookFilter
	if len(statuses) > 0 {
		filter = &repository.BookFilter{Statuses: statuses}
	}
	books, err := s.books.List(ctx, filter)
	if err != nil {
		return nil, apperrors.Wrap(err, apperrors.CodeDatabaseError, "failed to list books")
	}
	return books, nil
}

// Delete 删除书籍及其角色、章节；向量文档尽力删除
func (s *Service) Delete(ctx context.Context, id string) error {
	if _, err := s.Get(ctx, id); err != nil {
		return err
	}
	if err := s.books.Delete(ctx, id); err != nil {
		return apperrors.Wrap(err, apperrors.CodeDatabaseError, "failed to delete book")
	}

	ctx = logger.WithContext(ctx, logger.BookIDKey, id)
	if s.retriever.Enabled() {
		if err := s.retriever.Remove(ctx, id); err != nil {
			logger.Warn(ctx, "failed to remove character vectors", "error", err.Error())
		}
	}
	logger.Info(ctx, "book deleted")
	return nil
}

// Dashboard 汇总总览页数据；大纲损坏时只记录日志
func (s *Service) Dashboard(ctx context.Context, id string) (*Dashboard, error) {
	book, err := s.GetWithRelations(ctx, id)
	if err != nil {
		return nil, err
	}
	concept, err := book.Concept()
	if err != nil {
		logger.Warn(logger.WithContext(ctx, logger.BookIDKey, id), "stored concept is malformed", "error", err.Error())
		concept = nil
	}
	return &Dashboard{
		Book:        book,
		Concept:     concept,
		NextChapter: NextChapterToWrite(book.Chapters),
	}, nil
}

// NextChapterToWrite 章节号最小的草稿章节
func NextChapterToWrite(chapters []*entity.Chapter) *entity.Chapter {
	var next *entity.Chapter
	for _, ch := range chapters {
		if ch.Status != entity.ChapterStatusDraft {
			continue
		}
		if next == nil || ch.ChapterNumber < next.ChapterNumber {
			next = ch
		}
	}
	return next
}
