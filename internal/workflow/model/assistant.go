package model

type CommentInput struct {
	LLMOptions

	Step      string
	UserInput string
}

type SuggestionInput struct {
	LLMOptions

	FieldName string
	Context   string
}
