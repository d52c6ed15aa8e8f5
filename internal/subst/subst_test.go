package subst

import (
	"testing"
	"time"
)

func TestLiteralEscapes(t *testing.T) {
	if got := Expand("##", Context{}); got != "#" {
		t.Errorf("## => %q, want #", got)
	}
	if got := Expand("$$", Context{}); got != "$" {
		t.Errorf("$$ => %q, want $", got)
	}
	if got := Expand("@@", Context{}); got != "@" {
		t.Errorf("@@ => %q, want @", got)
	}
}

func TestKeywordLookup(t *testing.T) {
	ctx := Context{Keywords: map[string]string{"x": "y"}}
	if got := Expand("#{x}", ctx); got != "y" {
		t.Errorf("#{x} => %q, want y", got)
	}
	if got := Expand("#{x}", Context{}); got != "" {
		t.Errorf("missing keyword should expand to empty, got %q", got)
	}
}

func TestUnknownTokenPassesThrough(t *testing.T) {
	if got := Expand("#[notatoken]", Context{}); got != "#[notatoken]" {
		t.Errorf("unknown token mangled: %q", got)
	}
	if got := Expand("#{unclosed", Context{}); got != "#{unclosed" {
		t.Errorf("unterminated token should pass through verbatim: %q", got)
	}
}

func TestEnvDisabledByDefault(t *testing.T) {
	t.Setenv("IRCCD_TEST_VAR", "secret")
	if got := Expand("${IRCCD_TEST_VAR}", Context{}); got != "" {
		t.Errorf("env substitution must be opt-in, got %q", got)
	}
	if got := Expand("${IRCCD_TEST_VAR}", Context{EnvEnabled: true}); got != "secret" {
		t.Errorf("env substitution with EnvEnabled => %q, want secret", got)
	}
}

func TestShellDisabledByDefault(t *testing.T) {
	if got := Expand("$(echo hi)", Context{}); got != "" {
		t.Errorf("shell substitution must be disabled by default, got %q", got)
	}
}

func TestColorEscape(t *testing.T) {
	got := Expand("@{red}", Context{})
	want := "\x034"
	if got != want {
		t.Errorf("@{red} => %q, want %q", got, want)
	}
	got = Expand("@{red,white}", Context{})
	want = "\x034,0"
	if got != want {
		t.Errorf("@{red,white} => %q, want %q", got, want)
	}
}

func TestAttributeShorthands(t *testing.T) {
	if got := Expand("@b", Context{}); got != "\x02" {
		t.Errorf("@b => %q", got)
	}
	if got := Expand("@o", Context{}); got != "\x0F" {
		t.Errorf("@o => %q", got)
	}
}

func TestDateFormatting(t *testing.T) {
	ts := time.Date(2024, time.January, 2, 3, 4, 5, 0, time.UTC)
	got := Expand("#{date:%Y-%m-%d}", Context{Time: ts})
	if got != "2024-01-02" {
		t.Errorf("date expansion => %q", got)
	}
}

func TestMaxLenTruncatesSilently(t *testing.T) {
	got := Expand("hello world", Context{MaxLen: 5})
	if got != "hello" {
		t.Errorf("truncation => %q", got)
	}
}
