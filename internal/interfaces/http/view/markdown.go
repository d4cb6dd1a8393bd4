package view

import (
	"html/template"
	"regexp"
	"strings"
)

var (
	boldRe   = regexp.MustCompile(`\*\*(.+?)\*\*`)
	italicRe = regexp.MustCompile(`\*(.+?)\*`)
)

// Markdown 极简渲染：先转义 HTML，再处理 **粗体** 与 *斜体*，每个非空行一个段落
func Markdown(s string) template.HTML {
	var sb strings.Builder
	for _, line := range strings.Split(strings.ReplaceAll(s, "\r\n", "\n"), "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		line = template.HTMLEscapeString(line)
		line = boldRe.ReplaceAllString(line, "<strong>$1</strong>")
		line = italicRe.ReplaceAllString(line, "<em>$1</em>")
		sb.WriteString("<p>")
		sb.WriteString(line)
		sb.WriteString("</p>\n")
	}
	return template.HTML(sb.String())
}
