package milvus

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/milvus-io/milvus-sdk-go/v2/entity"
)

// 字段名
const (
	FieldID     = "id"
	FieldBookID = "book_id"
	FieldText   = "text"
	FieldVector = "vector"
)

// CharacterSchema 角色档案集合 Schema
func CharacterSchema(collection string, dim int) *entity.Schema {
	return &entity.Schema{
		CollectionName: collection,
		Description:    "Character profiles used as chapter prompt context",
		Fields: []*entity.Field{
			{
				Name:       FieldID,
				DataType:   entity.FieldTypeVarChar,
				PrimaryKey: true,
				AutoID:     false,
				TypeParams: map[string]string{
					"max_length": "64",
				},
			},
			{
				Name:     FieldVector,
				DataType: entity.FieldTypeFloatVector,
				TypeParams: map[string]string{
					"dim": strconv.Itoa(dim),
				},
			},
			{
				Name:     FieldBookID,
				DataType: entity.FieldTypeVarChar,
				TypeParams: map[string]string{
					"max_length": "64",
				},
			},
			{
				Name:     FieldText,
				DataType: entity.FieldTypeVarChar,
				TypeParams: map[string]string{
					"max_length": "65535",
				},
			},
		},
	}
}

// CharacterDocument 一条角色向量文档
type CharacterDocument struct {
	ID     string
	BookID string
	Text   string
	Vector []float32
}

// SearchHit 检索命中
type SearchHit struct {
	ID    string
	Score float32
	Text  string
}

// bookFilter 按书籍过滤的表达式，书籍 ID 是 UUID，这里仍转义引号
func bookFilter(bookID string) string {
	return fmt.Sprintf(`%s == "%s"`, FieldBookID, strings.ReplaceAll(bookID, `"`, `\"`))
}
