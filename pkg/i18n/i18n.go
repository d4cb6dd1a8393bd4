// Package i18n 提供界面文案的多语言查找
package i18n

import (
	"embed"
	"fmt"
	"path"
	"sort"
	"strings"

	"golang.org/x/text/language"
	"gopkg.in/yaml.v3"
)

// FallbackLanguage 缺失语言或缺失键时回退的语言
const FallbackLanguage = "en"

//go:embed locales/*.yaml
var localeFS embed.FS

// Translator 持有全部语言的键值表
type Translator struct {
	messages    map[string]map[string]string
	available   []string
	defaultLang string
}

// New 从内嵌的 locales 目录加载翻译
func New(defaultLang string) (*Translator, error) {
	entries, err := localeFS.ReadDir("locales")
	if err != nil {
		return nil, fmt.Errorf("failed to read locales: %w", err)
	}

	t := &Translator{messages: make(map[string]map[string]string)}
	for _, e := range entries {
		if e.IsDir() || path.Ext(e.Name()) != ".yaml" {
			continue
		}
		raw, err := localeFS.ReadFile("locales/" + e.Name())
		if err != nil {
			return nil, fmt.Errorf("failed to read locale %s: %w", e.Name(), err)
		}
		table := make(map[string]string)
		if err := yaml.Unmarshal(raw, &table); err != nil {
			return nil, fmt.Errorf("failed to parse locale %s: %w", e.Name(), err)
		}
		code := strings.TrimSuffix(e.Name(), ".yaml")
		t.messages[code] = table
		t.available = append(t.available, code)
	}
	sort.Strings(t.available)

	if _, ok := t.messages[defaultLang]; !ok {
		defaultLang = FallbackLanguage
	}
	t.defaultLang = defaultLang
	return t, nil
}

// Available 返回已加载的语言代码
func (t *Translator) Available() []string {
	return append([]string(nil), t.available...)
}

// Has 判断语言是否可用
func (t *Translator) Has(lang string) bool {
	_, ok := t.messages[lang]
	return ok
}

// Default 默认语言
func (t *Translator) Default() string {
	return t.defaultLang
}

// T 查找翻译：指定语言 -> 英文 -> 键本身
func (t *Translator) T(lang, key string) string {
	if table, ok := t.messages[lang]; ok {
		if v, ok := table[key]; ok {
			return v
		}
	}
	if v, ok := t.messages[FallbackLanguage][key]; ok {
		return v
	}
	return key
}

// Func 返回绑定到某语言的查找函数，供模板使用
func (t *Translator) Func(lang string) func(string) string {
	return func(key string) string {
		return t.T(lang, key)
	}
}

// Negotiate 按 cookie、Accept-Language、默认语言的顺序确定语言
func (t *Translator) Negotiate(cookie, acceptLanguage string) string {
	if cookie != "" && t.Has(cookie) {
		return cookie
	}

	if acceptLanguage != "" {
		// 解析失败时返回已成功解析的部分
		tags, _, _ := language.ParseAcceptLanguage(acceptLanguage)
		for _, tag := range tags {
			base, _ := tag.Base()
			if t.Has(base.String()) {
				return base.String()
			}
		}
	}
	return t.defaultLang
}
