package ircnet

import "strings"

const ctcpMarker = '\x01'

// ParseCTCP recognizes a CTCP-quoted PRIVMSG payload ("\x01CMD args\x01")
// and returns the command and its argument string. ok is false for a
// plain (non-CTCP) message (spec §4.3 "CTCP: incoming \x01CMD args\x01
// in PRIVMSG addressed to the bot is recognized").
func ParseCTCP(payload string) (cmd, args string, ok bool) {
	if len(payload) < 2 || payload[0] != ctcpMarker || payload[len(payload)-1] != ctcpMarker {
		return "", "", false
	}
	inner := payload[1 : len(payload)-1]
	cmd, args, _ = strings.Cut(inner, " ")
	return strings.ToUpper(cmd), args, true
}

// FormatCTCP quotes cmd/args back into wire form.
func FormatCTCP(cmd, args string) string {
	if args == "" {
		return string(ctcpMarker) + cmd + string(ctcpMarker)
	}
	return string(ctcpMarker) + cmd + " " + args + string(ctcpMarker)
}

// ctcpReply computes the automatic reply for a recognized CTCP query,
// or ok=false when cmd isn't one irccd answers automatically (spec
// §4.3: "Respond to PING, VERSION (configurable), SOURCE, TIME").
func ctcpReply(cmd, args, version, source string, now func() string) (reply string, ok bool) {
	switch cmd {
	case "PING":
		return FormatCTCP("PING", args), true
	case "VERSION":
		return FormatCTCP("VERSION", version), true
	case "SOURCE":
		return FormatCTCP("SOURCE", source), true
	case "TIME":
		return FormatCTCP("TIME", now()), true
	case "CLIENTINFO":
		return FormatCTCP("CLIENTINFO", "PING VERSION SOURCE TIME CLIENTINFO"), true
	default:
		return "", false
	}
}
