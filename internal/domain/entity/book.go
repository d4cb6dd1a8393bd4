// Package entity 定义领域实体
package entity

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// BookStatus 书籍状态
type BookStatus string

const (
	BookStatusDraft  BookStatus = "draft"
	BookStatusActive BookStatus = "active"
	BookStatusFailed BookStatus = "failed"
)

// Book 书籍实体，向导收集的输入与 LLM 生成的大纲都挂在这里
type Book struct {
	ID               string         `json:"id" gorm:"type:varchar(36);primaryKey"`
	Title            string         `json:"title,omitempty" gorm:"type:varchar(255)"`
	UserPrompt       string         `json:"user_prompt,omitempty" gorm:"type:text"`
	WorldDescription string         `json:"world_description,omitempty" gorm:"type:text"`
	ChaptersCount    int            `json:"chapters_count" gorm:"default:0"`
	LLMConcept       datatypes.JSON `json:"llm_concept,omitempty" gorm:"column:llm_concept"`
	Status           BookStatus     `json:"status" gorm:"type:varchar(32);index;not null;default:'draft'"`
	CreatedAt        time.Time      `json:"created_at" gorm:"autoCreateTime;index"`
	UpdatedAt        time.Time      `json:"updated_at" gorm:"autoUpdateTime"`

	Characters []*Character `json:"characters,omitempty" gorm:"foreignKey:BookID;constraint:OnDelete:CASCADE"`
	Chapters   []*Chapter   `json:"chapters,omitempty" gorm:"foreignKey:BookID;constraint:OnDelete:CASCADE"`
}

// TableName 指定表名
func (Book) TableName() string {
	return "books"
}

// BeforeCreate 生成主键
func (b *Book) BeforeCreate(*gorm.DB) error {
	if b.ID == "" {
		b.ID = uuid.NewString()
	}
	return nil
}

// NewBookDraft 用用户的故事想法创建草稿
func NewBookDraft(userPrompt string) *Book {
	return &Book{
		UserPrompt: userPrompt,
		Status:     BookStatusDraft,
	}
}

// IsDraft 是否仍处于向导阶段
func (b *Book) IsDraft() bool {
	return b.Status == BookStatusDraft
}

// HasConcept 是否已经保存过大纲
func (b *Book) HasConcept() bool {
	return len(b.LLMConcept) > 0 && string(b.LLMConcept) != "null"
}

// Concept 解析已存储的大纲 JSON；未生成时返回 nil, nil
func (b *Book) Concept() (*BookConcept, error) {
	if !b.HasConcept() {
		return nil, nil
	}
	var c BookConcept
	if err := json.Unmarshal(b.LLMConcept, &c); err != nil {
		return nil, fmt.Errorf("failed to decode llm_concept of book %s: %w", b.ID, err)
	}
	return &c, nil
}

// SetConcept 序列化并保存大纲
func (b *Book) SetConcept(c *BookConcept) error {
	raw, err := json.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to encode concept: %w", err)
	}
	b.LLMConcept = datatypes.JSON(raw)
	return nil
}

// Protagonist 返回主角，没有时返回 nil
func (b *Book) Protagonist() *Character {
	for _, c := range b.Characters {
		if c.IsProtagonist {
			return c
		}
	}
	return nil
}
