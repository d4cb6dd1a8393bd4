package retrieval

import "context"

// VectorStore 定义应用层对“向量存储/检索”的最小依赖（port）。
// 由基础设施层提供具体实现（例如 Milvus）。
type VectorStore interface {
	EnsureCollection(ctx context.Context) error
	ReplaceBook(ctx context.Context, bookID string, docs []*VectorDocument) error
	DeleteBook(ctx context.Context, bookID string) error
	Search(ctx context.Context, bookID string, vector []float32, topK int) ([]*VectorHit, error)
}

// VectorDocument 一条角色文档
type VectorDocument struct {
	ID     string
	BookID string
	Text   string
	Vector []float32
}

// VectorHit 检索命中
type VectorHit struct {
	ID    string
	Score float32
	Text  string
}
