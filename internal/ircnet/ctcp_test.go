package ircnet

import "testing"

func TestParseCTCP(t *testing.T) {
	cmd, args, ok := ParseCTCP("\x01VERSION\x01")
	if !ok || cmd != "VERSION" || args != "" {
		t.Fatalf("unexpected: %q %q %v", cmd, args, ok)
	}
	cmd, args, ok = ParseCTCP("\x01PING 12345\x01")
	if !ok || cmd != "PING" || args != "12345" {
		t.Fatalf("unexpected: %q %q %v", cmd, args, ok)
	}
}

func TestParseCTCPRejectsPlainText(t *testing.T) {
	if _, _, ok := ParseCTCP("hello there"); ok {
		t.Fatal("plain message must not parse as CTCP")
	}
}

func TestCtcpReplyKnownCommands(t *testing.T) {
	now := func() string { return "Thu Jan 01 1970" }
	if reply, ok := ctcpReply("VERSION", "", "irccd-1.0", "https://example.org", now); !ok || reply != "\x01VERSION irccd-1.0\x01" {
		t.Fatalf("unexpected VERSION reply: %q %v", reply, ok)
	}
	if reply, ok := ctcpReply("TIME", "", "", "", now); !ok || reply != "\x01TIME Thu Jan 01 1970\x01" {
		t.Fatalf("unexpected TIME reply: %q %v", reply, ok)
	}
	if _, ok := ctcpReply("FOOBAR", "", "", "", now); ok {
		t.Fatal("unknown CTCP command should not generate a reply")
	}
}
