package entity

import "fmt"

// ChapterEvent 章节中的一个事件
type ChapterEvent struct {
	EventTitle       string `json:"event_title"`
	EventDescription string `json:"event_description"`
}

// ConceptChapter 大纲中的章节条目
type ConceptChapter struct {
	ChapterNumber   int            `json:"chapter_number"`
	ChapterTitle    string         `json:"chapter_title"`
	ChapterSynopsis string         `json:"chapter_synopsis"`
	ChapterEvents   []ChapterEvent `json:"chapter_events"`
}

// BookConcept LLM 生成的结构化大纲，存放在 books.llm_concept
type BookConcept struct {
	Title    string           `json:"title"`
	Premise  string           `json:"premise"`
	Chapters []ConceptChapter `json:"chapters"`
}

// Chapter 按章节号查找大纲条目
func (c *BookConcept) Chapter(number int) (*ConceptChapter, bool) {
	if c == nil {
		return nil, false
	}
	for i := range c.Chapters {
		if c.Chapters[i].ChapterNumber == number {
			return &c.Chapters[i], true
		}
	}
	return nil, false
}

// Normalize 校验大纲并修正章节号。
// 模型偶尔会漏填或重复章节号，此时按出现顺序重新编号为 1..n。
func (c *BookConcept) Normalize() error {
	if len(c.Chapters) == 0 {
		return fmt.Errorf("concept has no chapters")
	}

	seen := make(map[int]bool, len(c.Chapters))
	renumber := false
	for _, ch := range c.Chapters {
		if ch.ChapterNumber <= 0 || seen[ch.ChapterNumber] {
			renumber = true
			break
		}
		seen[ch.ChapterNumber] = true
	}
	if renumber {
		for i := range c.Chapters {
			c.Chapters[i].ChapterNumber = i + 1
		}
	}

	for i := range c.Chapters {
		if c.Chapters[i].ChapterTitle == "" {
			c.Chapters[i].ChapterTitle = fmt.Sprintf("Chapter %d", c.Chapters[i].ChapterNumber)
		}
	}
	return nil
}
