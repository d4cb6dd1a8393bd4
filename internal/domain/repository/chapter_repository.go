package repository

import (
	"context"

	"book-factory/internal/domain/entity"
)

// ChapterRepository 章节仓储接口
type ChapterRepository interface {
	// GetByID 根据 ID 获取章节，不存在时返回 nil, nil
	GetByID(ctx context.Context, id string) (*entity.Chapter, error)

	// GetForUpdate 在事务中加行锁读取章节（SQLite 下退化为普通读取）
	GetForUpdate(ctx context.Context, id string) (*entity.Chapter, error)

	// GetByBookAndNumber 根据书籍与章节号获取章节
	GetByBookAndNumber(ctx context.Context, bookID string, number int) (*entity.Chapter, error)

	// ListByBook 按章节号升序获取书籍章节
	ListByBook(ctx context.Context, bookID string) ([]*entity.Chapter, error)

	// ReplaceForBook 删除书籍现有章节并写入新的章节骨架
	ReplaceForBook(ctx context.Context, bookID string, chapters []*entity.Chapter) error

	// Update 保存章节的全部字段
	Update(ctx context.Context, chapter *entity.Chapter) error

	// BeginWriting 设置写作状态并记录用户指示
	BeginWriting(ctx context.Context, id string, status entity.ChapterStatus, directives string) error
}
