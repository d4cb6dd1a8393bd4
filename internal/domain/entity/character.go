package entity

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// 角色定位
const (
	RoleProtagonist = "protagonist"
	RoleSupporting  = "supporting"
)

// Character 角色实体。名称、描述、是否主角由用户填写，其余叙事字段由角色卡生成
type Character struct {
	ID            string    `json:"id" gorm:"type:varchar(36);primaryKey"`
	BookID        string    `json:"book_id" gorm:"type:varchar(36);index;not null"`
	Name          string    `json:"name" gorm:"type:varchar(255);not null"`
	Description   string    `json:"description" gorm:"type:text"`
	IsProtagonist bool      `json:"is_protagonist" gorm:"not null;default:false"`
	Summary       string    `json:"summary,omitempty" gorm:"type:text"`
	Profile       string    `json:"profile,omitempty" gorm:"type:text"`
	DialogueVoice string    `json:"dialogue_voice,omitempty" gorm:"type:text"`
	Relationships string    `json:"relationships,omitempty" gorm:"type:text"`
	RolePotential string    `json:"role_potential,omitempty" gorm:"type:text"`
	StoryArc      string    `json:"story_arc,omitempty" gorm:"type:text"`
	Position      int       `json:"position" gorm:"default:0"`
	CreatedAt     time.Time `json:"created_at" gorm:"autoCreateTime"`
	UpdatedAt     time.Time `json:"updated_at" gorm:"autoUpdateTime"`
}

// TableName 指定表名
func (Character) TableName() string {
	return "characters"
}

// BeforeCreate 生成主键
func (c *Character) BeforeCreate(*gorm.DB) error {
	if c.ID == "" {
		c.ID = uuid.NewString()
	}
	return nil
}

// Role 角色定位
func (c *Character) Role() string {
	if c.IsProtagonist {
		return RoleProtagonist
	}
	return RoleSupporting
}

// SummaryOrDescription 生成过角色卡时用摘要，否则回退到用户描述
func (c *Character) SummaryOrDescription() string {
	if c.Summary != "" {
		return c.Summary
	}
	return c.Description
}

// VectorDocument 写入向量库的文本
func (c *Character) VectorDocument() string {
	return fmt.Sprintf("name: %s, role: %s, summary: %s", c.Name, c.Role(), c.SummaryOrDescription())
}

// CountProtagonists 统计主角数量
func CountProtagonists(chars []*Character) int {
	n := 0
	for _, c := range chars {
		if c.IsProtagonist {
			n++
		}
	}
	return n
}
