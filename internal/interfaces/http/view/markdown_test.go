package view

import "testing"

func TestMarkdown(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"empty", "", ""},
		{"paragraphs", "first\n\n  second  \r\nthird", "<p>first</p>\n<p>second</p>\n<p>third</p>\n"},
		{"bold", "a **loud** bang", "<p>a <strong>loud</strong> bang</p>\n"},
		{"italic", "a *soft* step", "<p>a <em>soft</em> step</p>\n"},
		{"both", "**Hans** said *no*", "<p><strong>Hans</strong> said <em>no</em></p>\n"},
		{"escapes first", "<script>x</script> & **<b>**", "<p>&lt;script&gt;x&lt;/script&gt; &amp; <strong>&lt;b&gt;</strong></p>\n"},
		{"unbalanced", "2 * 3 = 6", "<p>2 * 3 = 6</p>\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := string(Markdown(tt.in)); got != tt.want {
				t.Fatalf("Markdown(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}
