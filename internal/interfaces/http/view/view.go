// Package view 渲染内嵌的 HTML 页面与 htmx 片段
package view

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
	"io"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"book-factory/pkg/i18n"
	"book-factory/pkg/logger"
)

// LangKey gin.Context 中保存界面语言的键
const LangKey = "lang"

//go:embed templates/*.html
var templateFS embed.FS

// Renderer 每种语言一套模板，t 函数绑定到该语言
type Renderer struct {
	tr   *i18n.Translator
	sets map[string]*template.Template
}

// New 解析全部模板
func New(tr *i18n.Translator) (*Renderer, error) {
	base, err := template.New("base").Funcs(template.FuncMap{
		"t":        func(key string) string { return key },
		"markdown": Markdown,
		"inc":      func(i int) int { return i + 1 },
		"lower":    strings.ToLower,
	}).ParseFS(templateFS, "templates/*.html")
	if err != nil {
		return nil, fmt.Errorf("failed to parse templates: %w", err)
	}

	r := &Renderer{tr: tr, sets: make(map[string]*template.Template)}
	for _, lang := range tr.Available() {
		set, err := base.Clone()
		if err != nil {
			return nil, fmt.Errorf("failed to clone templates: %w", err)
		}
		r.sets[lang] = set.Funcs(template.FuncMap{"t": tr.Func(lang)})
	}
	return r, nil
}

// MustNew 解析失败时 panic，模板是内嵌的，失败只可能是编码错误
func MustNew(tr *i18n.Translator) *Renderer {
	r, err := New(tr)
	if err != nil {
		panic(err)
	}
	return r
}

// Languages 可选的界面语言
func (r *Renderer) Languages() []string {
	return r.tr.Available()
}

// Execute 按语言渲染模板
func (r *Renderer) Execute(w io.Writer, lang, name string, data gin.H) error {
	set, ok := r.sets[lang]
	if !ok {
		set = r.sets[r.tr.Default()]
		lang = r.tr.Default()
	}
	if data == nil {
		data = gin.H{}
	}
	data["Lang"] = lang
	data["Languages"] = r.tr.Available()
	return set.ExecuteTemplate(w, name, data)
}

// HTML 先渲染到缓冲区，模板出错时不会写出半个页面
func (r *Renderer) HTML(c *gin.Context, status int, name string, data gin.H) {
	var buf bytes.Buffer
	if err := r.Execute(&buf, c.GetString(LangKey), name, data); err != nil {
		logger.Error(c.Request.Context(), "failed to render template", err, "template", name)
		c.String(http.StatusInternalServerError, "template error")
		return
	}
	c.Data(status, "text/html; charset=utf-8", buf.Bytes())
}
