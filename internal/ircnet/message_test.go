package ircnet

import (
	"strings"
	"testing"
)

func TestParseMessageBasic(t *testing.T) {
	m, ok := ParseMessage(":nick!user@host PRIVMSG #chan :hello world\r\n")
	if !ok {
		t.Fatal("expected parse to succeed")
	}
	if m.Prefix != "nick!user@host" || m.Command != "PRIVMSG" {
		t.Fatalf("unexpected prefix/command: %+v", m)
	}
	if len(m.Params) != 2 || m.Params[0] != "#chan" || m.Params[1] != "hello world" {
		t.Fatalf("unexpected params: %+v", m.Params)
	}
}

func TestParseMessageNoPrefix(t *testing.T) {
	m, ok := ParseMessage("PING :server.example.org")
	if !ok || m.Command != "PING" || m.Params[0] != "server.example.org" {
		t.Fatalf("unexpected: %+v", m)
	}
}

func TestParseMessageSkipsIRCv3Tags(t *testing.T) {
	m, ok := ParseMessage("@time=2021-01-01T00:00:00Z;id=123 :nick!u@h PRIVMSG #c :hi")
	if !ok {
		t.Fatal("expected parse to succeed")
	}
	if m.Command != "PRIVMSG" || m.Prefix != "nick!u@h" {
		t.Fatalf("tags were not skipped: %+v", m)
	}
}

func TestParseMessageBoundedParams(t *testing.T) {
	line := "CMD " + strings.Repeat("a ", 20) + "tail"
	m, ok := ParseMessage(line)
	if !ok {
		t.Fatal("expected parse to succeed")
	}
	if len(m.Params) > maxParams {
		t.Fatalf("params exceeded bound: %d", len(m.Params))
	}
}

func TestNickUserHost(t *testing.T) {
	origin := "jean!~jean@example.org"
	if Nick(origin) != "jean" {
		t.Fatalf("Nick = %q", Nick(origin))
	}
	if User(origin) != "~jean" {
		t.Fatalf("User = %q", User(origin))
	}
	if Host(origin) != "example.org" {
		t.Fatalf("Host = %q", Host(origin))
	}
}

func TestFormatLineRoundTrip(t *testing.T) {
	lines, truncated := FormatLine(Message{Command: "PRIVMSG", Params: []string{"#chan", "short message"}})
	if truncated || len(lines) != 1 {
		t.Fatalf("unexpected split of short message: %v %v", lines, truncated)
	}
	if lines[0] != "PRIVMSG #chan :short message" {
		t.Fatalf("unexpected serialization: %q", lines[0])
	}
}

// TESTABLE PROPERTY 8 — over-limit PRIVMSG is split across lines whose
// payloads concatenate back to the original; every line fits in 512
// bytes including CRLF.
func TestFormatLineSplitsLongPrivmsg(t *testing.T) {
	text := strings.Repeat("x", 1000)
	lines, truncated := FormatLine(Message{Prefix: "bot!b@h", Command: "PRIVMSG", Params: []string{"#chan", text}})
	if truncated {
		t.Fatal("PRIVMSG must be split, not truncated")
	}
	if len(lines) < 2 {
		t.Fatalf("expected multiple lines, got %d", len(lines))
	}
	var rebuilt strings.Builder
	for _, l := range lines {
		if len(l)+2 > maxLineBytes {
			t.Fatalf("line exceeds wire limit: %d bytes", len(l)+2)
		}
		m, ok := ParseMessage(l)
		if !ok {
			t.Fatalf("split line failed to parse: %q", l)
		}
		rebuilt.WriteString(m.Params[1])
	}
	if rebuilt.String() != text {
		t.Fatal("split payloads did not concatenate back to the original")
	}
}

func TestFormatLineTruncatesNonSplittable(t *testing.T) {
	longArg := strings.Repeat("y", 1000)
	lines, truncated := FormatLine(Message{Command: "MODE", Params: []string{"#chan", "+b", longArg}})
	if !truncated {
		t.Fatal("expected truncation for a non-splittable over-limit command")
	}
	if len(lines) != 1 || len(lines[0])+2 > maxLineBytes {
		t.Fatalf("truncated line still over limit: %v", lines)
	}
}
