package sqlstore

import (
	"context"
	"errors"
	"fmt"

	"go.opentelemetry.io/otel/attribute"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"book-factory/internal/domain/entity"
	"book-factory/internal/domain/repository"
)

// BookRepository 书籍仓储实现
type BookRepository struct {
	client *Client
}

// NewBookRepository 创建书籍仓储
func NewBookRepository(client *Client) *BookRepository {
	return &BookRepository{client: client}
}

// Create 创建书籍
func (r *BookRepository) Create(ctx context.Context, book *entity.Book) error {
	ctx, span := tracer.Start(ctx, "sqlstore.BookRepository.Create")
	defer span.End()

	db := getDB(ctx, r.client.db)
	if err := db.Omit(clause.Associations).Create(book).Error; err != nil {
		span.RecordError(err)
		return fmt.Errorf("failed to create book: %w", err)
	}
	return nil
}

// GetByID 根据 ID 获取书籍
func (r *BookRepository) GetByID(ctx context.Context, id string) (*entity.Book, error) {
	ctx, span := tracer.Start(ctx, "sqlstore.BookRepository.GetByID")
	defer span.End()
	span.SetAttributes(attribute.String("book.id", id))

	db := getDB(ctx, r.client.db)
	var book entity.Book
	if err := db.First(&book, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		span.RecordError(err)
		return nil, fmt.Errorf("failed to get book: %w", err)
	}
	return &book, nil
}

// GetWithRelations 获取书籍并预加载角色与章节
func (r *BookRepository) GetWithRelations(ctx context.Context, id string) (*entity.Book, error) {
	ctx, span := tracer.Start(ctx, "sqlstore.BookRepository.GetWithRelations")
	defer span.End()
	span.SetAttributes(attribute.String("book.id", id))

	db := getDB(ctx, r.client.db)
	var book entity.Book
	err := db.
		Preload("Characters", func(tx *gorm.DB) *gorm.DB {
			return tx.Order("position ASC").Order("created_at ASC")
		}).
		Preload("Chapters", func(tx *gorm.DB) *gorm.DB {
			return tx.Order("chapter_number ASC")
		}).
		First(&book, "id = ?", id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		span.RecordError(err)
		return nil, fmt.Errorf("failed to get book with relations: %w", err)
	}
	return &book, nil
}

// Update 更新书籍（不级联保存关联）
func (r *BookRepository) Update(ctx context.Context, book *entity.Book) error {
	ctx, span := tracer.Start(ctx, "sqlstore.BookRepository.Update")
	defer span.End()

	db := getDB(ctx, r.client.db)
	if err := db.Omit(clause.Associations).Save(book).Error; err != nil {
		span.RecordError(err)
		return fmt.Errorf("failed to update book: %w", err)
	}
	return nil
}

// UpdateFields 更新指定列
func (r *BookRepository) UpdateFields(ctx context.Context, id string, fields map[string]any) error {
	ctx, span := tracer.Start(ctx, "sqlstore.BookRepository.UpdateFields")
	defer span.End()

	if len(fields) == 0 {
		return nil
	}
	db := getDB(ctx, r.client.db)
	if err := db.Model(&entity.Book{}).Where("id = ?", id).Updates(fields).Error; err != nil {
		span.RecordError(err)
		return fmt.Errorf("failed to update book fields: %w", err)
	}
	return nil
}

// UpdateStatus 更新书籍状态
func (r *BookRepository) UpdateStatus(ctx context.Context, id string, status entity.BookStatus) error {
	ctx, span := tracer.Start(ctx, "sqlstore.BookRepository.UpdateStatus")
	defer span.End()
	span.SetAttributes(attribute.String("book.status", string(status)))

	db := getDB(ctx, r.client.db)
	if err := db.Model(&entity.Book{}).Where("id = ?", id).Update("status", status).Error; err != nil {
		span.RecordError(err)
		return fmt.Errorf("failed to update book status: %w", err)
	}
	return nil
}

// Delete 删除书籍。
// 外键上有 ON DELETE CASCADE，这里仍显式删除子表，兼容未开启外键约束的 SQLite 连接。
func (r *BookRepository) Delete(ctx context.Context, id string) error {
	ctx, span := tracer.Start(ctx, "sqlstore.BookRepository.Delete")
	defer span.End()

	db := getDB(ctx, r.client.db)
	err := db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("book_id = ?", id).Delete(&entity.Chapter{}).Error; err != nil {
			return err
		}
		if err := tx.Where("book_id = ?", id).Delete(&entity.Character{}).Error; err != nil {
			return err
		}
		return tx.Delete(&entity.Book{}, "id = ?", id).Error
	})
	if err != nil {
		span.RecordError(err)
		return fmt.Errorf("failed to delete book: %w", err)
	}
	return nil
}

// List 按创建时间倒序列出书籍
func (r *BookRepository) List(ctx context.Context, filter *repository.BookFilter) ([]*entity.Book, error) {
	ctx, span := tracer.Start(ctx, "sqlstore.BookRepository.List")
	defer span.End()

	db := getDB(ctx, r.client.db)
	query := db.Model(&entity.Book{})
	if filter != nil && len(filter.Statuses) > 0 {
		query = query.Where("status IN ?", filter.Statuses)
	}

	var books []*entity.Book
	if err := query.Order("created_at DESC").Find(&books).Error; err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("failed to list books: %w", err)
	}
	return books, nil
}
