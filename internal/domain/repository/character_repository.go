package repository

import (
	"context"

	"book-factory/internal/domain/entity"
)

// CharacterRepository 角色仓储接口
type CharacterRepository interface {
	// ListByBook 按录入顺序获取书籍的全部角色
	ListByBook(ctx context.Context, bookID string) ([]*entity.Character, error)

	// ReplaceForBook 删除书籍现有角色并写入新角色
	ReplaceForBook(ctx context.Context, bookID string, characters []*entity.Character) error

	// CountByBook 统计书籍角色数
	CountByBook(ctx context.Context, bookID string) (int64, error)
}
