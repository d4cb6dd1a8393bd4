package milvus

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/milvus-io/milvus-sdk-go/v2/client"
	"github.com/milvus-io/milvus-sdk-go/v2/entity"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"book-factory/pkg/metrics"
)

var errNotConfigured = errors.New("milvus client not configured")

// Repository 角色向量仓储
type Repository struct {
	client     *Client
	collection string
	dim        int

	ensureOnce sync.Once
	ensureErr  error
}

// NewRepository 创建角色向量仓储，dim 为 embedding 维度
func NewRepository(client *Client, dim int) *Repository {
	return &Repository{
		client:     client,
		collection: client.config.Collection,
		dim:        dim,
	}
}

func (r *Repository) ready() error {
	if r == nil || r.client == nil || r.client.milvus == nil {
		return errNotConfigured
	}
	return nil
}

func (r *Repository) observe(op string, start time.Time, err error) {
	status := "success"
	if err != nil {
		status = "error"
	}
	metrics.MilvusOperationTotal.WithLabelValues(r.collection, op, status).Inc()
	if op == "search" {
		metrics.MilvusSearchDuration.WithLabelValues(r.collection).Observe(time.Since(start).Seconds())
	}
}

// EnsureCollection 确保集合与索引可用（不存在则创建），进程内只执行一次。
// 不会做 drop/rebuild 等破坏性操作。
func (r *Repository) EnsureCollection(ctx context.Context) error {
	if err := r.ready(); err != nil {
		return err
	}
	r.ensureOnce.Do(func() {
		r.ensureErr = r.ensureCollection(ctx)
	})
	return r.ensureErr
}

func (r *Repository) ensureCollection(ctx context.Context) error {
	ctx, span := tracer.Start(ctx, "milvus.EnsureCollection",
		trace.WithAttributes(attribute.String("collection", r.collection)))
	defer span.End()

	exists, err := r.client.HasCollection(ctx, r.collection)
	if err != nil {
		span.RecordError(err)
		return fmt.Errorf("failed to check collection: %w", err)
	}
	if !exists {
		collName := r.client.CollectionName(r.collection)
		if err := r.client.milvus.CreateCollection(ctx, CharacterSchema(collName, r.dim), entity.DefaultShardNumber); err != nil {
			span.RecordError(err)
			return fmt.Errorf("failed to create collection: %w", err)
		}
		if err := r.createIndex(ctx); err != nil {
			return err
		}
	}
	return r.client.LoadCollection(ctx, r.collection)
}

// createIndex 创建 HNSW 索引
func (r *Repository) createIndex(ctx context.Context) error {
	idx, err := entity.NewIndexHNSW(entity.COSINE, r.client.config.HNSWM, r.client.config.HNSWEf)
	if err != nil {
		return fmt.Errorf("failed to create index: %w", err)
	}
	if err := r.client.milvus.CreateIndex(ctx, r.client.CollectionName(r.collection), FieldVector, idx, false); err != nil {
		return fmt.Errorf("failed to create index: %w", err)
	}
	return nil
}

// ReplaceBook 删除书籍已有文档后写入新文档
func (r *Repository) ReplaceBook(ctx context.Context, bookID string, docs []*CharacterDocument) (err error) {
	if err := r.ready(); err != nil {
		return err
	}
	ctx, span := tracer.Start(ctx, "milvus.ReplaceBook",
		trace.WithAttributes(
			attribute.String("book.id", bookID),
			attribute.Int("count", len(docs)),
		))
	defer span.End()
	defer func(start time.Time) { r.observe("upsert", start, err) }(time.Now())

	if err := r.DeleteBook(ctx, bookID); err != nil {
		span.RecordError(err)
		return err
	}
	if len(docs) == 0 {
		return nil
	}

	ids := make([]string, len(docs))
	books := make([]string, len(docs))
	texts := make([]string, len(docs))
	vectors := make([][]float32, len(docs))
	for i, d := range docs {
		if len(d.Vector) != r.dim {
			return fmt.Errorf("vector for %s has dim %d, want %d", d.ID, len(d.Vector), r.dim)
		}
		ids[i] = d.ID
		books[i] = bookID
		texts[i] = d.Text
		vectors[i] = d.Vector
	}

	_, err = r.client.milvus.Insert(ctx, r.client.CollectionName(r.collection), "",
		entity.NewColumnVarChar(FieldID, ids),
		entity.NewColumnFloatVector(FieldVector, r.dim, vectors),
		entity.NewColumnVarChar(FieldBookID, books),
		entity.NewColumnVarChar(FieldText, texts),
	)
	if err != nil {
		span.RecordError(err)
		return fmt.Errorf("failed to insert characters: %w", err)
	}
	return nil
}

// DeleteBook 删除书籍的全部角色文档
func (r *Repository) DeleteBook(ctx context.Context, bookID string) error {
	if err := r.ready(); err != nil {
		return err
	}
	ctx, span := tracer.Start(ctx, "milvus.DeleteBook",
		trace.WithAttributes(attribute.String("book.id", bookID)))
	defer span.End()

	if err := r.client.milvus.Delete(ctx, r.client.CollectionName(r.collection), "", bookFilter(bookID)); err != nil {
		span.RecordError(err)
		return fmt.Errorf("failed to delete characters: %w", err)
	}
	return nil
}

// Search 在书籍范围内做相似度检索
func (r *Repository) Search(ctx context.Context, bookID string, vector []float32, topK int) (hits []*SearchHit, err error) {
	if err := r.ready(); err != nil {
		return nil, err
	}
	ctx, span := tracer.Start(ctx, "milvus.Search",
		trace.WithAttributes(
			attribute.String("book.id", bookID),
			attribute.Int("top_k", topK),
		))
	defer span.End()
	defer func(start time.Time) { r.observe("search", start, err) }(time.Now())

	sp, err := entity.NewIndexHNSWSearchParam(max(topK, 64))
	if err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("failed to create search param: %w", err)
	}

	results, err := r.client.milvus.Search(ctx,
		r.client.CollectionName(r.collection),
		nil,
		bookFilter(bookID),
		[]string{FieldID, FieldText},
		[]entity.Vector{entity.FloatVector(vector)},
		FieldVector,
		entity.COSINE,
		topK,
		sp,
		client.WithSearchQueryConsistencyLevel(entity.ClStrong),
	)
	if err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("failed to search: %w", err)
	}

	for _, result := range results {
		idCol, _ := result.Fields.GetColumn(FieldID).(*entity.ColumnVarChar)
		textCol, _ := result.Fields.GetColumn(FieldText).(*entity.ColumnVarChar)
		for i := 0; i < result.ResultCount; i++ {
			hit := &SearchHit{Score: result.Scores[i]}
			if idCol != nil {
				hit.ID = idCol.Data()[i]
			}
			if textCol != nil {
				hit.Text = textCol.Data()[i]
			}
			hits = append(hits, hit)
		}
	}

	span.SetAttributes(attribute.Int("result_count", len(hits)))
	return hits, nil
}
