package textextract

import "testing"

func TestExtractJSON(t *testing.T) {
	cases := []struct {
		name string
		raw  string
		want string
	}{
		{
			name: "paragraphs",
			raw: `{"type":"doc","content":[
				{"type":"paragraph","content":[{"type":"text","text":"Maren drew her blade."}]},
				{"type":"paragraph","content":[{"type":"text","text":"Orin froze."}]}]}`,
			want: "Maren drew her blade. Orin froze.",
		},
		{
			name: "opaque nodes leave no gaps",
			raw: `{"type":"doc","content":[
				{"type":"paragraph","content":[{"type":"text","text":"Before"}]},
				{"type":"image","attrs":{"src":"x.png"}},
				{"type":"horizontalRule"},
				{"type":"paragraph","content":[]},
				{"type":"paragraph","content":[{"type":"text","text":"after"}]}]}`,
			want: "Before after",
		},
		{
			name: "bare strings",
			raw:  `{"type":"doc","content":["one",{"type":"paragraph","content":["two"]}]}`,
			want: "one two",
		},
		{name: "malformed", raw: `{"type":`, want: ""},
		{name: "empty", raw: ``, want: ""},
		{name: "unknown leaf", raw: `{"type":"mention","attrs":{"id":"x"}}`, want: ""},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := ExtractJSON([]byte(tc.raw)); got != tc.want {
				t.Fatalf("expected %q, got %q", tc.want, got)
			}
		})
	}
}

func TestExtractIsIdempotent(t *testing.T) {
	raw := []byte(`{"type":"doc","content":[{"type":"paragraph","content":[{"type":"text","text":"Maren laughed."}]}]}`)
	tree := Parse(raw)
	first := Extract(tree)
	second := Extract(tree)
	if first != second || first != ExtractJSON(raw) {
		t.Fatalf("extraction not stable: %q vs %q", first, second)
	}
}

func TestWordCount(t *testing.T) {
	if n := WordCount("  Maren   drew\nher blade. "); n != 4 {
		t.Fatalf("expected 4 words, got %d", n)
	}
	if n := WordCount(""); n != 0 {
		t.Fatalf("expected 0 words, got %d", n)
	}
}
