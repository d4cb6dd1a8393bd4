package sqlstore

import (
	"context"
	"fmt"

	"book-factory/internal/domain/entity"
)

// Models 需要迁移的全部模型
func Models() []any {
	return []any{&entity.Book{}, &entity.Character{}, &entity.Chapter{}}
}

// Migrate 自动建表/补列
func (c *Client) Migrate(ctx context.Context) error {
	ctx, span := tracer.Start(ctx, "sqlstore.Migrate")
	defer span.End()

	if err := c.db.WithContext(ctx).AutoMigrate(Models()...); err != nil {
		span.RecordError(err)
		return fmt.Errorf("failed to migrate schema: %w", err)
	}
	return nil
}
