package i18n

import "testing"

func TestTranslatorFallback(t *testing.T) {
	tr, err := New("en")
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	if got := tr.T("de", "protagonist"); got != "Hauptfigur" {
		t.Fatalf("T(de, protagonist) = %q", got)
	}
	// de.yaml 没有 not_found，应回退到英文
	if got := tr.T("de", "not_found"); got != "Not found" {
		t.Fatalf("T(de, not_found) = %q, want english fallback", got)
	}
	if got := tr.T("fr", "protagonist"); got != "Protagonist" {
		t.Fatalf("T(fr, protagonist) = %q, want english fallback", got)
	}
	if got := tr.T("en", "no.such.key"); got != "no.such.key" {
		t.Fatalf("T(en, missing) = %q, want key", got)
	}
}

func TestNegotiate(t *testing.T) {
	tr, err := New("en")
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	tests := []struct {
		name   string
		cookie string
		accept string
		want   string
	}{
		{name: "cookie wins", cookie: "de", accept: "en-US,en;q=0.9", want: "de"},
		{name: "unknown cookie ignored", cookie: "xx", accept: "de-DE,de;q=0.9", want: "de"},
		{name: "quality order", accept: "fr;q=0.9,de;q=0.8,en;q=0.1", want: "de"},
		{name: "region stripped", accept: "de-AT", want: "de"},
		{name: "nothing matches", accept: "fr-FR,it", want: "en"},
		{name: "empty", want: "en"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tr.Negotiate(tt.cookie, tt.accept); got != tt.want {
				t.Fatalf("Negotiate(%q, %q) = %q, want %q", tt.cookie, tt.accept, got, tt.want)
			}
		})
	}
}

func TestNewUnknownDefault(t *testing.T) {
	tr, err := New("klingon")
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	if tr.Default() != FallbackLanguage {
		t.Fatalf("Default() = %q", tr.Default())
	}
	if len(tr.Available()) < 2 {
		t.Fatalf("Available() = %v", tr.Available())
	}
}
