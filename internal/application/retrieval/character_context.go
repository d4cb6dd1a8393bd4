// Package retrieval 为提示词提供角色上下文，优先走向量检索，失败时回退到关系库
package retrieval

import (
	"context"
	"fmt"
	"strings"

	"github.com/cloudwego/eino/components/embedding"

	"book-factory/internal/domain/entity"
	"book-factory/internal/domain/repository"
	"book-factory/pkg/logger"
)

// CharacterQuery 检索角色上下文使用的查询
const CharacterQuery = "Tell me more about the persons in this book"

const defaultTopK = 5

// CharacterContext 角色上下文检索
type CharacterContext struct {
	embedder   embedding.Embedder
	vector     VectorStore
	characters repository.CharacterRepository
	topK       int
}

// NewCharacterContext embedder 或 vector 为 nil 时只使用关系库
func NewCharacterContext(embedder embedding.Embedder, vector VectorStore, characters repository.CharacterRepository, topK int) *CharacterContext {
	if topK <= 0 {
		topK = defaultTopK
	}
	return &CharacterContext{
		embedder:   embedder,
		vector:     vector,
		characters: characters,
		topK:       topK,
	}
}

// Enabled 是否启用向量检索
func (c *CharacterContext) Enabled() bool {
	return c != nil && c.embedder != nil && c.vector != nil
}

// Index 把书籍角色写入向量库，覆盖旧文档
func (c *CharacterContext) Index(ctx context.Context, bookID string, chars []*entity.Character) error {
	if !c.Enabled() {
		return ErrVectorDisabled
	}
	if err := c.vector.EnsureCollection(ctx); err != nil {
		return err
	}
	if len(chars) == 0 {
		return c.vector.DeleteBook(ctx, bookID)
	}

	texts := make([]string, len(chars))
	for i, ch := range chars {
		texts[i] = ch.VectorDocument()
	}
	vectors, err := c.embedder.EmbedStrings(ctx, texts)
	if err != nil {
		return fmt.Errorf("failed to embed characters: %w", err)
	}
	if len(vectors) != len(texts) {
		return fmt.Errorf("embedder returned %d vectors for %d texts", len(vectors), len(texts))
	}

	docs := make([]*VectorDocument, len(chars))
	for i, ch := range chars {
		docs[i] = &VectorDocument{
			ID:     ch.ID,
			BookID: bookID,
			Text:   texts[i],
			Vector: toFloat32(vectors[i]),
		}
	}
	return c.vector.ReplaceBook(ctx, bookID, docs)
}

// Remove 删除书籍的向量文档
func (c *CharacterContext) Remove(ctx context.Context, bookID string) error {
	if !c.Enabled() {
		return ErrVectorDisabled
	}
	return c.vector.DeleteBook(ctx, bookID)
}

// ForBook 返回拼进提示词的角色描述，每个角色一行
func (c *CharacterContext) ForBook(ctx context.Context, bookID string) (string, error) {
	if c.Enabled() {
		text, err := c.search(ctx, bookID)
		if err == nil && text != "" {
			return text, nil
		}
		if err != nil {
			logger.Warn(ctx, "character vector search failed, using database", "book_id", bookID, "error", err.Error())
		}
	}

	chars, err := c.characters.ListByBook(ctx, bookID)
	if err != nil {
		return "", err
	}
	return Serialize(chars), nil
}

func (c *CharacterContext) search(ctx context.Context, bookID string) (string, error) {
	vectors, err := c.embedder.EmbedStrings(ctx, []string{CharacterQuery})
	if err != nil {
		return "", fmt.Errorf("failed to embed query: %w", err)
	}
	if len(vectors) == 0 {
		return "", errNoQueryVector
	}
	hits, err := c.vector.Search(ctx, bookID, toFloat32(vectors[0]), c.topK)
	if err != nil {
		return "", err
	}
	lines := make([]string, 0, len(hits))
	for _, h := range hits {
		if t := strings.TrimSpace(h.Text); t != "" {
			lines = append(lines, t)
		}
	}
	return strings.Join(lines, "\n"), nil
}

// Serialize 关系库里的角色按录入顺序序列化
func Serialize(chars []*entity.Character) string {
	lines := make([]string, 0, len(chars))
	for _, ch := range chars {
		lines = append(lines, ch.VectorDocument())
	}
	return strings.Join(lines, "\n")
}

func toFloat32(v []float64) []float32 {
	out := make([]float32, len(v))
	for i, f := range v {
		out[i] = float32(f)
	}
	return out
}
