package view

import (
	"bytes"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"

	"book-factory/pkg/i18n"
)

func newRenderer(t *testing.T) *Renderer {
	t.Helper()
	tr, err := i18n.New("en")
	if err != nil {
		t.Fatalf("i18n.New() error = %v", err)
	}
	r, err := New(tr)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	return r
}

func TestExecuteTranslatesPerLanguage(t *testing.T) {
	r := newRenderer(t)

	var de, en bytes.Buffer
	if err := r.Execute(&de, "de", "error_partial", gin.H{"Message": "kaputt"}); err != nil {
		t.Fatalf("Execute(de) error = %v", err)
	}
	if err := r.Execute(&en, "en", "error_partial", gin.H{"Message": "broken"}); err != nil {
		t.Fatalf("Execute(en) error = %v", err)
	}
	if !strings.Contains(de.String(), "Etwas ist schiefgelaufen") || !strings.Contains(de.String(), "kaputt") {
		t.Fatalf("de = %s", de.String())
	}
	if !strings.Contains(en.String(), "Something went wrong") {
		t.Fatalf("en = %s", en.String())
	}
}

func TestExecuteUnknownLanguageUsesDefault(t *testing.T) {
	r := newRenderer(t)

	var buf bytes.Buffer
	if err := r.Execute(&buf, "fr", "error_page", gin.H{"Message": "x"}); err != nil {
		t.Fatalf("Execute() error = %v", err)
	}
	if !strings.Contains(buf.String(), `<html lang="en">`) {
		t.Fatalf("page = %s", buf.String())
	}
}

func TestStreamFragment(t *testing.T) {
	r := newRenderer(t)

	var buf bytes.Buffer
	if err := r.Execute(&buf, "en", "stream", gin.H{"StreamURL": "/book/b/chapter/c/generate-stream?part=2&user_directives=more+onions"}); err != nil {
		t.Fatalf("Execute() error = %v", err)
	}
	out := buf.String()
	for _, want := range []string{
		`sse-connect="/book/b/chapter/c/generate-stream?part=2&amp;user_directives=more&#43;onions"`,
		`sse-swap="message"`,
		`sse-close="complete"`,
	} {
		if !strings.Contains(out, want) {
			t.Fatalf("fragment missing %s:\n%s", want, out)
		}
	}
}
