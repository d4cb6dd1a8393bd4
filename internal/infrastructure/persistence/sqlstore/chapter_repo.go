package sqlstore

import (
	"context"
	"errors"
	"fmt"

	"go.opentelemetry.io/otel/attribute"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"book-factory/internal/config"
	"book-factory/internal/domain/entity"
)

// ChapterRepository 章节仓储实现
type ChapterRepository struct {
	client *Client
}

// NewChapterRepository 创建章节仓储
func NewChapterRepository(client *Client) *ChapterRepository {
	return &ChapterRepository{client: client}
}

// GetByID 根据 ID 获取章节
func (r *ChapterRepository) GetByID(ctx context.Context, id string) (*entity.Chapter, error) {
	ctx, span := tracer.Start(ctx, "sqlstore.ChapterRepository.GetByID")
	defer span.End()
	span.SetAttributes(attribute.String("chapter.id", id))

	return r.first(ctx, getDB(ctx, r.client.db), "id = ?", id)
}

// GetForUpdate 加行锁读取章节
func (r *ChapterRepository) GetForUpdate(ctx context.Context, id string) (*entity.Chapter, error) {
	ctx, span := tracer.Start(ctx, "sqlstore.ChapterRepository.GetForUpdate")
	defer span.End()
	span.SetAttributes(attribute.String("chapter.id", id))

	db := getDB(ctx, r.client.db)
	// SQLite 不支持 FOR UPDATE，写事务本身已串行
	if r.client.driver == config.DriverPostgres {
		db = db.Clauses(clause.Locking{Strength: "UPDATE"})
	}
	return r.first(ctx, db, "id = ?", id)
}

// GetByBookAndNumber 根据书籍与章节号获取章节
func (r *ChapterRepository) GetByBookAndNumber(ctx context.Context, bookID string, number int) (*entity.Chapter, error) {
	ctx, span := tracer.Start(ctx, "sqlstore.ChapterRepository.GetByBookAndNumber")
	defer span.End()

	return r.first(ctx, getDB(ctx, r.client.db), "book_id = ? AND chapter_number = ?", bookID, number)
}

func (r *ChapterRepository) first(ctx context.Context, db *gorm.DB, query string, args ...any) (*entity.Chapter, error) {
	var chapter entity.Chapter
	if err := db.Where(query, args...).First(&chapter).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get chapter: %w", err)
	}
	return &chapter, nil
}

// ListByBook 按章节号升序获取章节
func (r *ChapterRepository) ListByBook(ctx context.Context, bookID string) ([]*entity.Chapter, error) {
	ctx, span := tracer.Start(ctx, "sqlstore.ChapterRepository.ListByBook")
	defer span.End()

	db := getDB(ctx, r.client.db)
	var chapters []*entity.Chapter
	if err := db.Where("book_id = ?", bookID).Order("chapter_number ASC").Find(&chapters).Error; err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("failed to list chapters: %w", err)
	}
	return chapters, nil
}

// ReplaceForBook 删除现有章节后写入新的章节骨架
func (r *ChapterRepository) ReplaceForBook(ctx context.Context, bookID string, chapters []*entity.Chapter) error {
	ctx, span := tracer.Start(ctx, "sqlstore.ChapterRepository.ReplaceForBook")
	defer span.End()
	span.SetAttributes(
		attribute.String("book.id", bookID),
		attribute.Int("chapters.count", len(chapters)),
	)

	db := getDB(ctx, r.client.db)
	err := db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("book_id = ?", bookID).Delete(&entity.Chapter{}).Error; err != nil {
			return err
		}
		if len(chapters) == 0 {
			return nil
		}
		for _, c := range chapters {
			c.BookID = bookID
		}
		return tx.Create(&chapters).Error
	})
	if err != nil {
		span.RecordError(err)
		return fmt.Errorf("failed to replace chapters: %w", err)
	}
	return nil
}

// Update 更新章节
func (r *ChapterRepository) Update(ctx context.Context, chapter *entity.Chapter) error {
	ctx, span := tracer.Start(ctx, "sqlstore.ChapterRepository.Update")
	defer span.End()

	db := getDB(ctx, r.client.db)
	if err := db.Save(chapter).Error; err != nil {
		span.RecordError(err)
		return fmt.Errorf("failed to update chapter: %w", err)
	}
	return nil
}

// BeginWriting 设置写作状态并记录用户指示
func (r *ChapterRepository) BeginWriting(ctx context.Context, id string, status entity.ChapterStatus, directives string) error {
	ctx, span := tracer.Start(ctx, "sqlstore.ChapterRepository.BeginWriting")
	defer span.End()
	span.SetAttributes(
		attribute.String("chapter.id", id),
		attribute.String("chapter.status", string(status)),
	)

	db := getDB(ctx, r.client.db)
	err := db.Model(&entity.Chapter{}).Where("id = ?", id).Updates(map[string]any{
		"status":          status,
		"user_directives": directives,
	}).Error
	if err != nil {
		span.RecordError(err)
		return fmt.Errorf("failed to begin chapter writing: %w", err)
	}
	return nil
}
