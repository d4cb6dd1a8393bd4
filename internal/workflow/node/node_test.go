package node

import (
	"errors"
	"testing"

	wfmodel "book-factory/internal/workflow/model"
)

func TestExtractJSONObject(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"plain", `{"a":1}`, `{"a":1}`},
		{"wrapped in prose", "Sure! Here it is:\n{\"a\":{\"b\":2}}\nEnjoy.", `{"a":{"b":2}}`},
		{"code fence", "```json\n{\"title\":\"x\"}\n```", `{"title":"x"}`},
		{"array", "list: [1,2]", `[1,2]`},
		{"bracket in prose", "[note] {\"a\":true} trailing }", `{"a":true}`},
		{"empty", "   ", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ExtractJSONObject(tt.in); got != tt.want {
				t.Fatalf("ExtractJSONObject(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestIsResponseFormatUnsupportedError(t *testing.T) {
	if !IsResponseFormatUnsupportedError(errors.New("400: unknown field response_format")) {
		t.Fatal("expected response_format error to be detected")
	}
	if IsResponseFormatUnsupportedError(errors.New("connection refused")) {
		t.Fatal("connection error misdetected")
	}
	if IsResponseFormatUnsupportedError(nil) {
		t.Fatal("nil misdetected")
	}
}

func TestTailByRunes(t *testing.T) {
	if got := TailByRunes("héllo wörld", 5); got != "wörld" {
		t.Fatalf("TailByRunes() = %q", got)
	}
	if got := TailByRunes("abc", 10); got != "abc" {
		t.Fatalf("TailByRunes() = %q", got)
	}
	if got := TailByRunes("abc", 0); got != "" {
		t.Fatalf("TailByRunes(0) = %q", got)
	}
	if got := TruncateByRunes("héllo", 2); got != "hé" {
		t.Fatalf("TruncateByRunes() = %q", got)
	}
}

func TestBuildCharactersBlock(t *testing.T) {
	got := BuildCharactersBlock([]wfmodel.CharacterBrief{
		{Name: "Hans", Role: "protagonist", Description: "a cook"},
		{Name: "  "},
		{Name: "Greta"},
	})
	want := "- Hans (protagonist): a cook\n- Greta"
	if got != want {
		t.Fatalf("BuildCharactersBlock() = %q, want %q", got, want)
	}
	if BuildCharactersBlock(nil) != None {
		t.Fatal("empty block should be the placeholder")
	}
}
