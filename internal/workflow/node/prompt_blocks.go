package node

import (
	"strings"

	wfmodel "book-factory/internal/workflow/model"
)

// None 空块在提示词中的占位
const None = "(none)"

// OrNone 去掉首尾空白，空字符串替换为占位
func OrNone(s string) string {
	s = strings.TrimSpace(s)
	if s == "" {
		return None
	}
	return s
}

// BuildCharactersBlock 每个角色一行
func BuildCharactersBlock(chars []wfmodel.CharacterBrief) string {
	lines := make([]string, 0, len(chars))
	for _, c := range chars {
		name := strings.TrimSpace(c.Name)
		if name == "" {
			continue
		}
		line := "- " + name
		if c.Role != "" {
			line += " (" + c.Role + ")"
		}
		if d := strings.TrimSpace(c.Description); d != "" {
			line += ": " + d
		}
		lines = append(lines, line)
	}
	return OrNone(strings.Join(lines, "\n"))
}
