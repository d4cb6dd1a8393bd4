package retrieval_test

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/cloudwego/eino/components/embedding"

	"book-factory/internal/application/retrieval"
	"book-factory/internal/infrastructure/persistence/sqlstore"
	"book-factory/internal/testutil"
)

type fakeEmbedder struct{ err error }

func (f *fakeEmbedder) EmbedStrings(_ context.Context, texts []string, _ ...embedding.Option) ([][]float64, error) {
	if f.err != nil {
		return nil, f.err
	}
	out := make([][]float64, len(texts))
	for i, t := range texts {
		out[i] = []float64{float64(len(t)), 1}
	}
	return out, nil
}

type memoryStore struct {
	docs      map[string][]*retrieval.VectorDocument
	searchErr error
	ensured   int
}

func newMemoryStore() *memoryStore {
	return &memoryStore{docs: map[string][]*retrieval.VectorDocument{}}
}

func (m *memoryStore) EnsureCollection(context.Context) error { m.ensured++; return nil }

func (m *memoryStore) ReplaceBook(_ context.Context, bookID string, docs []*retrieval.VectorDocument) error {
	m.docs[bookID] = docs
	return nil
}

func (m *memoryStore) DeleteBook(_ context.Context, bookID string) error {
	delete(m.docs, bookID)
	return nil
}

func (m *memoryStore) Search(_ context.Context, bookID string, _ []float32, topK int) ([]*retrieval.VectorHit, error) {
	if m.searchErr != nil {
		return nil, m.searchErr
	}
	var hits []*retrieval.VectorHit
	for _, d := range m.docs[bookID] {
		if len(hits) == topK {
			break
		}
		hits = append(hits, &retrieval.VectorHit{ID: d.ID, Text: d.Text})
	}
	return hits, nil
}

func TestIndexAndSearch(t *testing.T) {
	client := testutil.DB(t)
	book := testutil.SeedBook(t, client, "a cook in WW2", testutil.Cast()...)
	chars := sqlstore.NewCharacterRepository(client)
	list, _ := chars.ListByBook(context.Background(), book.ID)

	store := newMemoryStore()
	cc := retrieval.NewCharacterContext(&fakeEmbedder{}, store, chars, 1)
	if err := cc.Index(context.Background(), book.ID, list); err != nil {
		t.Fatalf("Index() error = %v", err)
	}
	if len(store.docs[book.ID]) != 2 || store.ensured != 1 {
		t.Fatalf("indexed %d docs, ensured %d", len(store.docs[book.ID]), store.ensured)
	}
	if !strings.HasPrefix(store.docs[book.ID][0].Text, "name: Hans, role: protagonist, summary: ") {
		t.Fatalf("doc text = %q", store.docs[book.ID][0].Text)
	}

	got, err := cc.ForBook(context.Background(), book.ID)
	if err != nil {
		t.Fatalf("ForBook() error = %v", err)
	}
	if strings.Count(got, "\n") != 0 || !strings.Contains(got, "Hans") {
		t.Fatalf("ForBook() = %q, want the single top hit", got)
	}
}

func TestForBookFallsBackToDatabase(t *testing.T) {
	client := testutil.DB(t)
	book := testutil.SeedBook(t, client, "p", testutil.Cast()...)
	chars := sqlstore.NewCharacterRepository(client)

	store := newMemoryStore()
	store.searchErr = errors.New("milvus down")
	cc := retrieval.NewCharacterContext(&fakeEmbedder{}, store, chars, 5)

	got, err := cc.ForBook(context.Background(), book.ID)
	if err != nil {
		t.Fatalf("ForBook() error = %v", err)
	}
	if !strings.Contains(got, "name: Hans") || !strings.Contains(got, "name: Greta, role: supporting") {
		t.Fatalf("ForBook() = %q", got)
	}
}

func TestDisabledContext(t *testing.T) {
	client := testutil.DB(t)
	book := testutil.SeedBook(t, client, "p", testutil.Cast()...)
	cc := retrieval.NewCharacterContext(nil, nil, sqlstore.NewCharacterRepository(client), 0)

	if cc.Enabled() {
		t.Fatal("Enabled() = true without embedder")
	}
	if err := cc.Index(context.Background(), book.ID, nil); !errors.Is(err, retrieval.ErrVectorDisabled) {
		t.Fatalf("Index() error = %v", err)
	}
	got, err := cc.ForBook(context.Background(), book.ID)
	if err != nil || !strings.HasPrefix(got, "name: Hans") {
		t.Fatalf("ForBook() = %q, %v", got, err)
	}
}
