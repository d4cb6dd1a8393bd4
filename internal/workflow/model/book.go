package model

// CharacterBrief 提示词中的角色简述
type CharacterBrief struct {
	Name        string
	Role        string
	Description string
}

type CharacterSheetInput struct {
	LLMOptions

	UserPrompt       string
	Title            string
	WorldDescription string

	Character CharacterBrief
	Others    []CharacterBrief
}

// CharacterSheet 角色卡，对应角色实体上的派生字段
type CharacterSheet struct {
	Summary       string `json:"summary"`
	Profile       string `json:"profile"`
	DialogueVoice string `json:"dialogue_voice"`
	Relationships string `json:"relationships"`
	RolePotential string `json:"role_potential"`
	StoryArc      string `json:"story_arc"`
}

type ConceptInput struct {
	LLMOptions

	UserPrompt       string
	Title            string
	WorldDescription string
	Characters       string
	ChaptersCount    int
}
