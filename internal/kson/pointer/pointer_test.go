package pointer

import "testing"

func TestParse_RoundTrip(t *testing.T) {
	sources := []string{
		"",
		"/a/b",
		"/a~1b/c~0d",
		"/0/1/-",
	}
	for _, s := range sources {
		p, errMsg := Parse(s)
		if errMsg != nil {
			t.Fatalf("Parse(%q): %v", s, errMsg)
		}
		if got := FromTokens(p.Tokens, false).String(); got != s {
			t.Errorf("round trip %q: got %q", s, got)
		}
	}
}

func TestParse_BadStart(t *testing.T) {
	_, errMsg := Parse("a/b")
	if errMsg == nil {
		t.Fatal("expected an error for a pointer not starting with '/'")
	}
}

func TestParse_EscapeErrors(t *testing.T) {
	cases := []string{"/a~", "/a~2"}
	for _, s := range cases {
		if _, errMsg := Parse(s); errMsg == nil {
			t.Errorf("Parse(%q): expected an escape error", s)
		}
	}
}

func TestParseGlob_SegmentKinds(t *testing.T) {
	p, errMsg := ParseGlob("/*/**/a*b/lit")
	if errMsg != nil {
		t.Fatalf("ParseGlob: %v", errMsg)
	}
	want := []TokenKind{Wildcard, RecursiveDescent, GlobPattern, Literal}
	if len(p.Tokens) != len(want) {
		t.Fatalf("got %d tokens, want %d", len(p.Tokens), len(want))
	}
	for i, k := range want {
		if p.Tokens[i].Kind != k {
			t.Errorf("token %d: got kind %d, want %d", i, p.Tokens[i].Kind, k)
		}
	}
}

func TestArrayIndex(t *testing.T) {
	cases := map[string]struct {
		idx int
		ok  bool
	}{
		"0":  {0, true},
		"12": {12, true},
		"-":  {-1, true},
		"01": {0, false},
		"":   {0, false},
		"-1": {0, false},
		"x":  {0, false},
	}
	for s, want := range cases {
		idx, ok := ArrayIndex(s)
		if idx != want.idx || ok != want.ok {
			t.Errorf("ArrayIndex(%q) = (%d, %v), want (%d, %v)", s, idx, ok, want.idx, want.ok)
		}
	}
}

func TestMatchGlob(t *testing.T) {
	cases := []struct {
		pattern, s string
		want       bool
	}{
		{"*", "anything", true},
		{"*", "", true},
		{"a*c", "abc", true},
		{"a*c", "ac", true},
		{"a*c", "abXc", true},
		{"a*c", "ab", false},
		{"a?c", "abc", true},
		{"a?c", "ac", false},
		{`a\*b`, "a*b", true},
		{`a\*b`, "axb", false},
		{"foo", "foo", true},
		{"foo", "foobar", false},
	}
	for _, c := range cases {
		if got := MatchGlob(c.pattern, c.s); got != c.want {
			t.Errorf("MatchGlob(%q, %q) = %v, want %v", c.pattern, c.s, got, c.want)
		}
	}
}
