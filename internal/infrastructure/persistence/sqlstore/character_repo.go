package sqlstore

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel/attribute"
	"gorm.io/gorm"

	"book-factory/internal/domain/entity"
)

// CharacterRepository 角色仓储实现
type CharacterRepository struct {
	client *Client
}

// NewCharacterRepository 创建角色仓储
func NewCharacterRepository(client *Client) *CharacterRepository {
	return &CharacterRepository{client: client}
}

// ListByBook 按录入顺序获取角色
func (r *CharacterRepository) ListByBook(ctx context.Context, bookID string) ([]*entity.Character, error) {
	ctx, span := tracer.Start(ctx, "sqlstore.CharacterRepository.ListByBook")
	defer span.End()

	db := getDB(ctx, r.client.db)
	var chars []*entity.Character
	if err := db.Where("book_id = ?", bookID).Order("position ASC").Order("created_at ASC").Find(&chars).Error; err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("failed to list characters: %w", err)
	}
	return chars, nil
}

// ReplaceForBook 删除现有角色后写入新角色
func (r *CharacterRepository) ReplaceForBook(ctx context.Context, bookID string, characters []*entity.Character) error {
	ctx, span := tracer.Start(ctx, "sqlstore.CharacterRepository.ReplaceForBook")
	defer span.End()
	span.SetAttributes(
		attribute.String("book.id", bookID),
		attribute.Int("characters.count", len(characters)),
	)

	db := getDB(ctx, r.client.db)
	err := db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("book_id = ?", bookID).Delete(&entity.Character{}).Error; err != nil {
			return err
		}
		if len(characters) == 0 {
			return nil
		}
		for i, c := range characters {
			c.ID = ""
			c.BookID = bookID
			c.Position = i
		}
		return tx.Create(&characters).Error
	})
	if err != nil {
		span.RecordError(err)
		return fmt.Errorf("failed to replace characters: %w", err)
	}
	return nil
}

// CountByBook 统计书籍角色数
func (r *CharacterRepository) CountByBook(ctx context.Context, bookID string) (int64, error) {
	ctx, span := tracer.Start(ctx, "sqlstore.CharacterRepository.CountByBook")
	defer span.End()

	db := getDB(ctx, r.client.db)
	var n int64
	if err := db.Model(&entity.Character{}).Where("book_id = ?", bookID).Count(&n).Error; err != nil {
		span.RecordError(err)
		return 0, fmt.Errorf("failed to count characters: %w", err)
	}
	return n, nil
}
