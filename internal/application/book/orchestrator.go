package book

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"book-factory/internal/application/retrieval"
	"book-factory/internal/config"
	"book-factory/internal/domain/entity"
	"book-factory/internal/domain/repository"
	wfchain "book-factory/internal/workflow/chain"
	wfmodel "book-factory/internal/workflow/model"
	wfnode "book-factory/internal/workflow/node"
	apperrors "book-factory/pkg/errors"
	"book-factory/pkg/logger"
	"book-factory/pkg/metrics"
	"book-factory/pkg/tracer"
)

// 同时生成角色卡的上限
const sheetConcurrency = 4

// Orchestrator 整书生成：角色卡 -> 大纲 -> 章节骨架 -> 激活
type Orchestrator struct {
	books      repository.BookRepository
	characters repository.CharacterRepository
	chapters   repository.ChapterRepository
	tx         repository.Transactor

	sheets    *wfchain.CharacterSheetChain
	concepts  *wfchain.ConceptChain
	retriever *retrieval.CharacterContext

	cfg config.BookConfig
}

// NewOrchestrator 创建整书生成编排器
func NewOrchestrator(
	books repository.BookRepository,
	characters repository.CharacterRepository,
	chapters repository.ChapterRepository,
	tx repository.Transactor,
	sheets *wfchain.CharacterSheetChain,
	concepts *wfchain.ConceptChain,
	retriever *retrieval.CharacterContext,
	cfg config.BookConfig,
) *Orchestrator {
	return &Orchestrator{
		books:      books,
		characters: characters,
		chapters:   chapters,
		tx:         tx,
		sheets:     sheets,
		concepts:   concepts,
		retriever:  retriever,
		cfg:        cfg,
	}
}

// Generate 为草稿书籍生成角色卡、大纲与章节。
// 前置校验失败不改变书籍状态；生成过程中的任何失败都会把书籍标记为 failed。
func (o *Orchestrator) Generate(ctx context.Context, bookID string) (*entity.Book, error) {
	ctx, span := tracer.Start(ctx, "book.Orchestrator.Generate")
	defer span.End()
	ctx = logger.WithContext(ctx, logger.BookIDKey, bookID)

	book, err := o.books.GetWithRelations(ctx, bookID)
	if err != nil {
		return nil, apperrors.Wrap(err, apperrors.CodeDatabaseError, "failed to load book")
	}
	if book == nil {
		return nil, apperrors.ErrBookNotFound
	}
	if !book.IsDraft() {
		return nil, apperrors.ErrBookNotDraft.WithDetail(
			fmt.Sprintf("book is %s and cannot be generated again", book.Status))
	}
	if err := ValidateCharacters(book.Characters); err != nil {
		return nil, err
	}

	if o.cfg.GenerateTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, o.cfg.GenerateTimeout)
		defer cancel()
	}

	start := time.Now()
	logger.Info(ctx, "book generation started", "characters", len(book.Characters))

	if err := o.run(ctx, book); err != nil {
		span.RecordError(err)
		metrics.BookGenerationTotal.WithLabelValues("failed").Inc()
		logger.Error(ctx, "book generation failed", err)

		// 请求可能已取消，状态仍然要落库
		if uerr := o.books.UpdateStatus(context.WithoutCancel(ctx), bookID, entity.BookStatusFailed); uerr != nil {
			logger.Error(ctx, "failed to mark book as failed", uerr)
		}
		return nil, err
	}

	metrics.BookGenerationTotal.WithLabelValues("success").Inc()
	metrics.BookGenerationDuration.Observe(time.Since(start).Seconds())
	logger.Info(ctx, "book generation finished",
		"chapters", book.ChaptersCount,
		"duration_ms", time.Since(start).Milliseconds(),
	)
	return book, nil
}

func (o *Orchestrator) run(ctx context.Context, book *entity.Book) error {
	chars, err := o.generateSheets(ctx, book)
	if err != nil {
		return err
	}
	if err := o.characters.ReplaceForBook(ctx, book.ID, chars); err != nil {
		return apperrors.Wrap(err, apperrors.CodeDatabaseError, "failed to save character sheets")
	}
	book.Characters = chars

	if o.retriever.Enabled() {
		if err := o.retriever.Index(ctx, book.ID, chars); err != nil {
			logger.Warn(ctx, "failed to index characters", "error", err.Error())
		}
	}

	concept, err := o.generateConcept(ctx, book)
	if err != nil {
		return err
	}
	return o.persistConcept(ctx, book, concept)
}

// generateSheets 并发生成角色卡；名称、描述与主角标记保持用户输入
func (o *Orchestrator) generateSheets(ctx context.Context, book *entity.Book) ([]*entity.Character, error) {
	briefs := make([]wfmodel.CharacterBrief, len(book.Characters))
	for i, c := range book.Characters {
		briefs[i] = wfmodel.CharacterBrief{Name: c.Name, Role: c.Role(), Description: c.Description}
	}

	out := make([]*entity.Character, len(book.Characters))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(sheetConcurrency)
	for i, c := range book.Characters {
		others := make([]wfmodel.CharacterBrief, 0, len(briefs)-1)
		others = append(others, briefs[:i]...)
		others = append(others, briefs[i+1:]...)

		g.Go(func() error {
			sheet, err := o.sheets.Invoke(gctx, &wfmodel.CharacterSheetInput{
				UserPrompt:       book.UserPrompt,
				Title:            book.Title,
				WorldDescription: book.WorldDescription,
				Character:        briefs[i],
				Others:           others,
			})
			if err != nil {
				return apperrors.ErrLLMCallFailed.
					WithDetail(fmt.Sprintf("character sheet for %s failed", c.Name)).
					WithError(err)
			}
			out[i] = &entity.Character{
				Name:          c.Name,
				Description:   c.Description,
				IsProtagonist: c.IsProtagonist,
				Summary:       strings.TrimSpace(sheet.Summary),
				Profile:       strings.TrimSpace(sheet.Profile),
				DialogueVoice: strings.TrimSpace(sheet.DialogueVoice),
				Relationships: strings.TrimSpace(sheet.Relationships),
				RolePotential: strings.TrimSpace(sheet.RolePotential),
				StoryArc:      strings.TrimSpace(sheet.StoryArc),
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	if err := ValidateCharacters(out); err != nil {
		return nil, err
	}
	return out, nil
}

func (o *Orchestrator) chaptersFor(book *entity.Book) int {
	n := book.ChaptersCount
	if n <= 0 {
		n = o.cfg.DefaultChapters
	}
	if n <= 0 {
		n = fallbackChapters
	}
	if o.cfg.MaxChapters > 0 && n > o.cfg.MaxChapters {
		n = o.cfg.MaxChapters
	}
	return n
}

func (o *Orchestrator) generateConcept(ctx context.Context, book *entity.Book) (*entity.BookConcept, error) {
	characters, err := o.retriever.ForBook(ctx, book.ID)
	if err != nil {
		return nil, apperrors.Wrap(err, apperrors.CodeDatabaseError, "failed to load characters")
	}

	want := o.chaptersFor(book)
	raw, err := o.concepts.Invoke(ctx, &wfmodel.ConceptInput{
		UserPrompt:       book.UserPrompt,
		Title:            book.Title,
		WorldDescription: book.WorldDescription,
		Characters:       characters,
		ChaptersCount:    want,
	})
	if err != nil {
		return nil, apperrors.ErrLLMCallFailed.WithDetail("book concept generation failed").WithError(err)
	}

	var concept entity.BookConcept
	if err := json.Unmarshal([]byte(raw), &concept); err != nil {
		return nil, apperrors.ErrLLMCallFailed.WithDetail("model returned a malformed book concept").WithError(err)
	}
	if err := concept.Normalize(); err != nil {
		return nil, apperrors.ErrLLMCallFailed.WithDetail("model returned an empty book concept").WithError(err)
	}
	if len(concept.Chapters) > want {
		logger.Warn(ctx, "concept has more chapters than requested, truncating",
			"requested", want, "received", len(concept.Chapters))
		concept.Chapters = concept.Chapters[:want]
	} else if len(concept.Chapters) < want {
		logger.Warn(ctx, "concept has fewer chapters than requested",
			"requested", want, "received", len(concept.Chapters))
	}
	concept.Title = strings.TrimSpace(concept.Title)
	concept.Premise = strings.TrimSpace(concept.Premise)
	return &concept, nil
}

// persistConcept 在一个事务里保存大纲、重建章节并激活书籍
func (o *Orchestrator) persistConcept(ctx context.Context, book *entity.Book, concept *entity.BookConcept) error {
	if err := book.SetConcept(concept); err != nil {
		return apperrors.ErrInternalError.WithError(err)
	}

	fields := map[string]any{
		"llm_concept":    book.LLMConcept,
		"chapters_count": len(concept.Chapters),
		"status":         entity.BookStatusActive,
	}
	title := book.Title
	if strings.TrimSpace(title) == "" && concept.Title != "" {
		title = concept.Title
		fields["title"] = title
	}

	chapters := make([]*entity.Chapter, len(concept.Chapters))
	for i, cc := range concept.Chapters {
		chapters[i] = entity.NewChapter(book.ID, cc)
	}

	err := o.tx.WithTransaction(ctx, func(ctx context.Context) error {
		if err := o.books.UpdateFields(ctx, book.ID, fields); err != nil {
			return err
		}
		return o.chapters.ReplaceForBook(ctx, book.ID, chapters)
	})
	if err != nil {
		return apperrors.Wrap(err, apperrors.CodeDatabaseError, "failed to save book concept")
	}

	book.Title = title
	book.ChaptersCount = len(chapters)
	book.Status = entity.BookStatusActive
	book.Chapters = chapters
	return nil
}

// Summary 打印用的一行摘要
func Summary(b *entity.Book) string {
	title := b.Title
	if title == "" {
		title = wfnode.TruncateByRunes(b.UserPrompt, 40)
	}
	return fmt.Sprintf("%s [%s] %d chapters", title, b.Status, b.ChaptersCount)
}
