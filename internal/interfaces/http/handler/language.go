package handler

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"book-factory/pkg/i18n"
)

const languageCookieMaxAge = int(365 * 24 * time.Hour / time.Second)

// LanguageHandler 切换界面语言
type LanguageHandler struct {
	tr     *i18n.Translator
	cookie string
}

// NewLanguageHandler cookie 为保存语言的 Cookie 名
func NewLanguageHandler(tr *i18n.Translator, cookie string) *LanguageHandler {
	return &LanguageHandler{tr: tr, cookie: cookie}
}

// Set 保存语言选择；不支持的语言返回 400
func (h *LanguageHandler) Set(c *gin.Context) {
	lang := c.PostForm("language")
	if !h.tr.Has(lang) {
		c.String(http.StatusBadRequest, "unsupported language")
		return
	}
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(h.cookie, lang, languageCookieMaxAge, "/", "", false, true)

	back := c.GetHeader("Referer")
	if back == "" {
		back = "/"
	}
	redirect(c, back)
}
