package entity

import (
	"fmt"
	"strconv"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// ChapterStatus 章节状态
type ChapterStatus string

const (
	ChapterStatusDraft          ChapterStatus = "draft"
	ChapterStatusWritingPart1   ChapterStatus = "writing_part1"
	ChapterStatusPart1Completed ChapterStatus = "part1_completed"
	ChapterStatusWritingPart2   ChapterStatus = "writing_part2"
	ChapterStatusCompleted      ChapterStatus = "completed"
)

// PartSeparator 第二部分追加到正文时使用的分隔
const PartSeparator = "\n\n"

// ChapterPart 章节分两段生成
type ChapterPart int

const (
	PartOne ChapterPart = 1
	PartTwo ChapterPart = 2
)

// ParsePart 解析表单/查询参数中的 part
func ParsePart(s string) (ChapterPart, error) {
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0, fmt.Errorf("invalid part %q", s)
	}
	p := ChapterPart(n)
	if !p.Valid() {
		return 0, fmt.Errorf("part must be 1 or 2, got %d", n)
	}
	return p, nil
}

// Valid 是否为 1 或 2
func (p ChapterPart) Valid() bool {
	return p == PartOne || p == PartTwo
}

// String 用于日志与指标标签
func (p ChapterPart) String() string {
	return strconv.Itoa(int(p))
}

// WritingStatus 开始写某一部分时的状态
func (p ChapterPart) WritingStatus() ChapterStatus {
	if p == PartTwo {
		return ChapterStatusWritingPart2
	}
	return ChapterStatusWritingPart1
}

// Chapter 章节实体
type Chapter struct {
	ID             string        `json:"id" gorm:"type:varchar(36);primaryKey"`
	BookID         string        `json:"book_id" gorm:"type:varchar(36);not null;uniqueIndex:idx_chapters_book_number,priority:1"`
	ChapterNumber  int           `json:"chapter_number" gorm:"not null;uniqueIndex:idx_chapters_book_number,priority:2"`
	Title          string        `json:"title" gorm:"type:varchar(255)"`
	Synopsis       string        `json:"synopsis" gorm:"type:text"`
	Status         ChapterStatus `json:"status" gorm:"type:varchar(32);not null;default:'draft'"`
	Content        string        `json:"content,omitempty" gorm:"type:text"`
	UserDirectives string        `json:"user_directives,omitempty" gorm:"type:text"`
	CreatedAt      time.Time     `json:"created_at" gorm:"autoCreateTime"`
	UpdatedAt      time.Time     `json:"updated_at" gorm:"autoUpdateTime"`
}

// TableName 指定表名
func (Chapter) TableName() string {
	return "chapters"
}

// BeforeCreate 生成主键
func (c *Chapter) BeforeCreate(*gorm.DB) error {
	if c.ID == "" {
		c.ID = uuid.NewString()
	}
	return nil
}

// NewChapter 从大纲条目创建章节骨架
func NewChapter(bookID string, outline ConceptChapter) *Chapter {
	return &Chapter{
		BookID:        bookID,
		ChapterNumber: outline.ChapterNumber,
		Title:         outline.ChapterTitle,
		Synopsis:      outline.ChapterSynopsis,
		Status:        ChapterStatusDraft,
	}
}

// BeginPart 进入写作状态并记录用户指示
func (c *Chapter) BeginPart(part ChapterPart, directives string) {
	c.Status = part.WritingStatus()
	c.UserDirectives = directives
}

// ApplyPart 写入一段生成结果：第一部分覆盖正文，第二部分追加
func (c *Chapter) ApplyPart(part ChapterPart, text string) {
	if part == PartTwo {
		c.Content = c.Content + PartSeparator + text
		c.Status = ChapterStatusCompleted
		return
	}
	c.Content = text
	c.Status = ChapterStatusPart1Completed
}
