// Package ircnet implements the IRC connection and protocol state
// machine (spec §4.3/§4.4, C3/C4). Wire framing and message structure
// are grounded on _examples/other_examples' real Go IRC client
// libraries (kofany-go-ircevo's irc.go/irc_struct.go for the
// connect/handshake/keepalive state machine, lrstanley-girc's
// client.go for ISUPPORT parsing and casemapping).
package ircnet

import (
	"strings"
)

// maxParams bounds the number of parsed arguments per line (spec §4.4:
// "up to a small bounded number (>= 15) of arguments").
const maxParams = 15

// maxLineBytes is the IRC wire limit including the trailing CRLF (spec §4.3).
const maxLineBytes = 512

// Message is a single parsed IRC line: optional prefix, a verb or
// 3-digit numeric command, and up to maxParams arguments.
type Message struct {
	Prefix  string // full origin, e.g. "nick!user@host", or "" if absent
	Command string
	Params  []string
}

// ParseMessage parses a raw line (without the trailing CRLF) into a
// Message. A leading IRCv3 "@tags" segment is recognized and discarded
// before normal prefix/command parsing, per spec §9(b).
func ParseMessage(line string) (Message, bool) {
	line = strings.TrimRight(line, "\r\n")
	if line == "" {
		return Message{}, false
	}
	if line[0] == '@' {
		sp := strings.IndexByte(line, ' ')
		if sp < 0 {
			return Message{}, false
		}
		line = strings.TrimLeft(line[sp+1:], " ")
		if line == "" {
			return Message{}, false
		}
	}

	var m Message
	if line[0] == ':' {
		sp := strings.IndexByte(line, ' ')
		if sp < 0 {
			return Message{}, false
		}
		m.Prefix = line[1:sp]
		line = strings.TrimLeft(line[sp+1:], " ")
	}
	if line == "" {
		return Message{}, false
	}

	sp := strings.IndexByte(line, ' ')
	if sp < 0 {
		m.Command = strings.ToUpper(line)
		return m, true
	}
	m.Command = strings.ToUpper(line[:sp])
	rest := strings.TrimLeft(line[sp+1:], " ")

	for len(rest) > 0 && len(m.Params) < maxParams-1 {
		if rest[0] == ':' {
			m.Params = append(m.Params, rest[1:])
			rest = ""
			break
		}
		sp := strings.IndexByte(rest, ' ')
		if sp < 0 {
			m.Params = append(m.Params, rest)
			rest = ""
			break
		}
		m.Params = append(m.Params, rest[:sp])
		rest = strings.TrimLeft(rest[sp+1:], " ")
	}
	if rest != "" {
		// bounded param count reached; the remainder becomes the final
		// (trailing-colon-stripped) argument.
		rest = strings.TrimPrefix(rest, ":")
		m.Params = append(m.Params, rest)
	}
	return m, true
}

// String reserializes m to wire format without the trailing CRLF.
func (m Message) String() string {
	var b strings.Builder
	if m.Prefix != "" {
		b.WriteByte(':')
		b.WriteString(m.Prefix)
		b.WriteByte(' ')
	}
	b.WriteString(m.Command)
	for i, p := range m.Params {
		b.WriteByte(' ')
		last := i == len(m.Params)-1
		if last && (p == "" || strings.ContainsAny(p, " :") || strings.HasPrefix(p, ":")) {
			b.WriteByte(':')
		}
		b.WriteString(p)
	}
	return b.String()
}

// Nick returns the nick part of a "nick!user@host" origin.
func Nick(origin string) string {
	if i := strings.IndexByte(origin, '!'); i >= 0 {
		return origin[:i]
	}
	return origin
}

// User returns the user part of a "nick!user@host" origin, or "" if absent.
func User(origin string) string {
	bang := strings.IndexByte(origin, '!')
	if bang < 0 {
		return ""
	}
	at := strings.IndexByte(origin[bang:], '@')
	if at < 0 {
		return origin[bang+1:]
	}
	return origin[bang+1 : bang+at]
}

// Host returns the host part of a "nick!user@host" origin, or "" if absent.
func Host(origin string) string {
	at := strings.IndexByte(origin, '@')
	if at < 0 {
		return ""
	}
	return origin[at+1:]
}

// FormatLine serializes m to one or more CRLF-terminated wire lines,
// splitting PRIVMSG/NOTICE payloads that would otherwise exceed
// maxLineBytes, and truncating (with truncated=true) any other command that
// doesn't fit (spec §4.3, TESTABLE PROPERTY 8).
func FormatLine(m Message) (lines []string, truncated bool) {
	base := m.String()
	if len(base)+2 <= maxLineBytes {
		return []string{base}, false
	}
	if (m.Command == "PRIVMSG" || m.Command == "NOTICE") && len(m.Params) == 2 {
		prefixPart := Message{Prefix: m.Prefix, Command: m.Command, Params: []string{m.Params[0], ""}}
		head := prefixPart.String()
		head = strings.TrimSuffix(head, ":")
		budget := maxLineBytes - 2 - len(head) - 1 // 1 for the leading ':'
		if budget <= 0 {
			return []string{base[:maxLineBytes-2]}, true
		}
		text := m.Params[1]
		for len(text) > 0 {
			n := budget
			if n > len(text) {
				n = len(text)
			}
			chunk := text[:n]
			text = text[n:]
			lines = append(lines, head+":"+chunk)
		}
		return lines, false
	}
	return []string{base[:maxLineBytes-2]}, true
}
