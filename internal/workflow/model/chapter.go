package model

// ChapterPartInput 章节某一部分的提示词上下文
type ChapterPartInput struct {
	LLMOptions

	Part int

	Title            string
	Premise          string
	WorldDescription string
	Characters       string

	ChapterNumber   int
	TotalChapters   int
	ChapterTitle    string
	ChapterSynopsis string
	ChapterEvents   string

	// PreviousEnding 仅第一部分使用：上一章分隔线之后的文本
	PreviousEnding string
	// Part1Content 仅第二部分使用
	Part1Content string

	UserDirectives string
}
