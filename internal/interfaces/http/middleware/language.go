package middleware

import (
	"github.com/gin-gonic/gin"

	"book-factory/internal/interfaces/http/view"
	"book-factory/pkg/i18n"
)

// LanguageCookie 保存界面语言的 Cookie 名
const LanguageCookie = "language"

// Language 按 Cookie、Accept-Language、默认语言的顺序确定界面语言
func Language(tr *i18n.Translator) gin.HandlerFunc {
	return func(c *gin.Context) {
		cookie, _ := c.Cookie(LanguageCookie)
		c.Set(view.LangKey, tr.Negotiate(cookie, c.GetHeader("Accept-Language")))
		c.Next()
	}
}
