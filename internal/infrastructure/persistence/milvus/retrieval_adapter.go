package milvus

import (
	"context"

	"book-factory/internal/application/retrieval"
)

// RetrievalVectorStore 把仓储适配为应用层的 VectorStore
type RetrievalVectorStore struct {
	repo *Repository
}

func NewRetrievalVectorStore(repo *Repository) *RetrievalVectorStore {
	return &RetrievalVectorStore{repo: repo}
}

var _ retrieval.VectorStore = (*RetrievalVectorStore)(nil)

func (s *RetrievalVectorStore) EnsureCollection(ctx context.Context) error {
	if s == nil || s.repo == nil {
		return retrieval.ErrVectorDisabled
	}
	return s.repo.EnsureCollection(ctx)
}

func (s *RetrievalVectorStore) ReplaceBook(ctx context.Context, bookID string, docs []*retrieval.VectorDocument) error {
	if s == nil || s.repo == nil {
		return retrieval.ErrVectorDisabled
	}
	out := make([]*CharacterDocument, 0, len(docs))
	for _, d := range docs {
		if d == nil {
			continue
		}
		out = append(out, &CharacterDocument{ID: d.ID, BookID: d.BookID, Text: d.Text, Vector: d.Vector})
	}
	return s.repo.ReplaceBook(ctx, bookID, out)
}

func (s *RetrievalVectorStore) DeleteBook(ctx context.Context, bookID string) error {
	if s == nil || s.repo == nil {
		return retrieval.ErrVectorDisabled
	}
	return s.repo.DeleteBook(ctx, bookID)
}

func (s *RetrievalVectorStore) Search(ctx context.Context, bookID string, vector []float32, topK int) ([]*retrieval.VectorHit, error) {
	if s == nil || s.repo == nil {
		return nil, retrieval.ErrVectorDisabled
	}
	hits, err := s.repo.Search(ctx, bookID, vector, topK)
	if err != nil {
		return nil, err
	}
	out := make([]*retrieval.VectorHit, 0, len(hits))
	for _, h := range hits {
		out = append(out, &retrieval.VectorHit{ID: h.ID, Score: h.Score, Text: h.Text})
	}
	return out, nil
}
