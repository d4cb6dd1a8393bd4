package repository

import (
	"context"

	"book-factory/internal/domain/entity"
)

// BookFilter 书籍过滤条件
type BookFilter struct {
	Statuses []entity.BookStatus
}

// BookRepository 书籍仓储接口
type BookRepository interface {
	// Create 创建书籍
	Create(ctx context.Context, book *entity.Book) error

	// GetByID 根据 ID 获取书籍，不存在时返回 nil, nil
	GetByID(ctx context.Context, id string) (*entity.Book, error)

	// GetWithRelations 获取书籍并预加载角色与章节（按章节号排序）
	GetWithRelations(ctx context.Context, id string) (*entity.Book, error)

	// Update 保存书籍的全部字段
	Update(ctx context.Context, book *entity.Book) error

	// UpdateFields 只更新给定列
	UpdateFields(ctx context.Context, id string, fields map[string]any) error

	// UpdateStatus 更新书籍状态
	UpdateStatus(ctx context.Context, id string, status entity.BookStatus) error

	// Delete 删除书籍及其角色、章节
	Delete(ctx context.Context, id string) error

	// List 按创建时间倒序列出书籍
	List(ctx context.Context, filter *BookFilter) ([]*entity.Book, error)
}
