// Package repository 定义数据访问层接口
package repository

import (
	"context"
)

// TxKey 事务上下文键类型
type TxKey struct{}

// Transactor 事务管理接口
type Transactor interface {
	// WithTransaction 在事务中执行操作，已在事务中时复用外层事务
	WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error
}
