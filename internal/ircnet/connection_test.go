package ircnet

import (
	"bufio"
	"net"
	"testing"
	"time"

	"go.uber.org/zap"
)

// newTestConn wires a Conn to one end of an in-memory net.Pipe so
// dispatch's c.send calls have somewhere to write without touching a
// real socket; the other end is drained into a buffered reader the
// test can assert against.
func newTestConn(t *testing.T, cfg Config) (*Conn, *bufio.Reader) {
	t.Helper()
	c := NewConn(cfg, zap.NewNop())
	client, server := net.Pipe()
	c.nc = client
	t.Cleanup(func() { client.Close(); server.Close() })
	return c, bufio.NewReader(server)
}

func readLineAsync(t *testing.T, r *bufio.Reader) string {
	t.Helper()
	type result struct {
		line string
		err  error
	}
	done := make(chan result, 1)
	go func() {
		line, err := r.ReadString('\n')
		done <- result{line, err}
	}()
	select {
	case res := <-done:
		if res.err != nil {
			t.Fatalf("reading line: %v", res.err)
		}
		return res.line
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for a line to be written")
		return ""
	}
}

func TestDispatchPingRepliesPong(t *testing.T) {
	c, r := newTestConn(t, Config{ID: "net"})
	ev, handled := c.dispatch(Message{Command: "PING", Params: []string{"irc.example.org"}})
	if handled {
		t.Fatal("PING should not surface an Event")
	}
	_ = ev
	line := readLineAsync(t, r)
	if line != "PONG irc.example.org\r\n" {
		t.Fatalf("unexpected reply: %q", line)
	}
}

func TestDispatchWelcomeJoinsAutoChannels(t *testing.T) {
	cfg := Config{
		ID:       "net",
		Identity: Identity{Nickname: "bot"},
		AutoJoin: []AutoJoinChannel{{Name: "#a"}, {Name: "#b", Key: "secret"}},
	}
	c, r := newTestConn(t, cfg)
	ev, handled := c.dispatch(Message{Command: "001", Params: []string{"bot_actual"}})
	if !handled || ev.Kind != KindConnect {
		t.Fatalf("expected a handled KindConnect event, got %+v handled=%v", ev, handled)
	}
	if c.rt.State != Connected || c.rt.Nickname != "bot_actual" {
		t.Fatalf("OnConnected side effects missing: %+v", c.rt)
	}
	if line := readLineAsync(t, r); line != "JOIN #a\r\n" {
		t.Fatalf("unexpected first join: %q", line)
	}
	if line := readLineAsync(t, r); line != "JOIN #b secret\r\n" {
		t.Fatalf("unexpected keyed join: %q", line)
	}
}

func TestDispatchISupportAppliesTokensAndSkipsTrailingText(t *testing.T) {
	c, _ := newTestConn(t, Config{ID: "net"})
	msg := Message{
		Command: "005",
		Params: []string{
			"bot", "CHANTYPES=#&", "CASEMAPPING=rfc1459", "PREFIX=(ov)@+",
			"are supported by this server",
		},
	}
	_, handled := c.dispatch(msg)
	if handled {
		t.Fatal("005 never surfaces an Event")
	}
	if c.rt.ISupport.ChanTypes != "#&" || c.rt.ISupport.Casemap != "rfc1459" {
		if c.rt.ISupport.Charset != "" {
			t.Fatalf("unexpected charset mutation: %q", c.rt.ISupport.Charset)
		}
		t.Fatalf("tokens not applied: %+v", c.rt.ISupport)
	}
}

func TestDispatch433RetriesNickDuringHandshake(t *testing.T) {
	cfg := Config{ID: "net", Identity: Identity{Nickname: "bot"}}
	c, r := newTestConn(t, cfg)
	c.rt.State = Handshaking
	_, handled := c.dispatch(Message{Command: "433"})
	if handled {
		t.Fatal("433 never surfaces an Event")
	}
	if c.rt.Nickname != "bot_" {
		t.Fatalf("expected retried nick bot_, got %q", c.rt.Nickname)
	}
	if line := readLineAsync(t, r); line != "NICK bot_\r\n" {
		t.Fatalf("unexpected NICK line: %q", line)
	}
}

func TestDispatch433IgnoredOnceConnected(t *testing.T) {
	c, _ := newTestConn(t, Config{ID: "net", Identity: Identity{Nickname: "bot"}})
	c.rt.State = Connected
	c.rt.Nickname = "bot"
	if _, handled := c.dispatch(Message{Command: "433"}); handled {
		t.Fatal("433 never surfaces an Event")
	}
	if c.rt.Nickname != "bot" {
		t.Fatalf("nickname should be untouched once connected, got %q", c.rt.Nickname)
	}
}

func TestDispatchJoinKickUpdateTracker(t *testing.T) {
	c, _ := newTestConn(t, Config{ID: "net"})
	c.rt.Nickname = "bot"

	ev, handled := c.dispatch(Message{Command: "JOIN", Prefix: "alice!u@h", Params: []string{"#chan"}})
	if !handled || ev.Kind != KindJoin || ev.Origin != "alice!u@h" || ev.Channel != "#chan" {
		t.Fatalf("unexpected JOIN event: %+v handled=%v", ev, handled)
	}
	if ch := c.rt.Channels.Channel("#chan"); ch == nil || len(ch.Members) != 1 {
		t.Fatalf("alice should be tracked in #chan: %+v", ch)
	}

	ev, handled = c.dispatch(Message{Command: "KICK", Prefix: "op!u@h", Params: []string{"#chan", "alice", "spam"}})
	if !handled || ev.Kind != KindKick || ev.Target != "alice" || ev.Reason != "spam" {
		t.Fatalf("unexpected KICK event: %+v handled=%v", ev, handled)
	}
	if ch := c.rt.Channels.Channel("#chan"); ch != nil && len(ch.Members) != 0 {
		t.Fatalf("alice should have been removed by the kick: %+v", ch)
	}
}

func TestDispatchPrivmsgCommandVsMessage(t *testing.T) {
	cfg := Config{ID: "net", CommandChar: "!"}
	c, _ := newTestConn(t, cfg)

	ev, handled := c.dispatch(Message{Command: "PRIVMSG", Prefix: "alice!u@h", Params: []string{"#chan", "!echo hi there"}})
	if !handled || ev.Kind != KindCommand || ev.CommandPlugin != "echo" || len(ev.CommandArgs) != 2 {
		t.Fatalf("unexpected command event: %+v handled=%v", ev, handled)
	}

	ev, handled = c.dispatch(Message{Command: "PRIVMSG", Prefix: "alice!u@h", Params: []string{"#chan", "just chatting"}})
	if !handled || ev.Kind != KindMessage || ev.Message != "just chatting" {
		t.Fatalf("unexpected message event: %+v handled=%v", ev, handled)
	}
}

func TestDispatchPrivmsgCTCPActionBecomesMe(t *testing.T) {
	c, _ := newTestConn(t, Config{ID: "net"})
	ev, handled := c.dispatch(Message{
		Command: "PRIVMSG", Prefix: "alice!u@h",
		Params: []string{"#chan", "\x01ACTION waves\x01"},
	})
	if !handled || ev.Kind != KindMe || ev.Message != "waves" {
		t.Fatalf("unexpected ACTION dispatch: %+v handled=%v", ev, handled)
	}
}

func TestDispatchPrivmsgCTCPVersionRepliesOverNotice(t *testing.T) {
	c, r := newTestConn(t, Config{ID: "net", CTCPVersion: "irccd-test"})
	_, handled := c.dispatch(Message{
		Command: "PRIVMSG", Prefix: "alice!u@h",
		Params: []string{"bot", "\x01VERSION\x01"},
	})
	if handled {
		t.Fatal("a CTCP reply is sent directly, not surfaced as an Event")
	}
	line := readLineAsync(t, r)
	if line != "NOTICE alice :\x01VERSION irccd-test\x01\r\n" {
		t.Fatalf("unexpected CTCP reply: %q", line)
	}
}

func TestDecodeLinePassthroughWhenCharsetUnsetOrUTF8(t *testing.T) {
	c, _ := newTestConn(t, Config{ID: "net"})
	if out := c.decodeLine("hello\r\n"); out != "hello\r\n" {
		t.Fatalf("expected passthrough, got %q", out)
	}
	c.rt.ISupport.Charset = "utf-8"
	c.charsetName = "" // force re-resolution
	if out := c.decodeLine("hello\r\n"); out != "hello\r\n" {
		t.Fatalf("expected passthrough for utf-8, got %q", out)
	}
}

func TestDecodeLineTranscodesISO88591(t *testing.T) {
	c, _ := newTestConn(t, Config{ID: "net"})
	c.rt.ISupport.Charset = "ISO-8859-1"
	// 0xE9 is Latin-1 for 'é'.
	raw := "caf\xe9\r\n"
	out := c.decodeLine(raw)
	if out != "café\r\n" {
		t.Fatalf("expected transcoded café, got %q (% x)", out, out)
	}
}

func TestDecodeLineReResolvesOnCharsetChange(t *testing.T) {
	c, _ := newTestConn(t, Config{ID: "net"})
	if out := c.decodeLine("plain\r\n"); out != "plain\r\n" {
		t.Fatalf("unexpected initial passthrough result: %q", out)
	}
	c.rt.ISupport.Charset = "windows-1252"
	out := c.decodeLine("caf\xe9\r\n")
	if out != "café\r\n" {
		t.Fatalf("expected windows-1252 transcoding after charset change, got %q", out)
	}
}

func TestCheckKeepalivePingsThenTimesOut(t *testing.T) {
	c, r := newTestConn(t, Config{ID: "net", Hostname: "irc.example.org"})
	c.lastRecv = time.Now().Add(-(pingInterval + time.Second))
	if timedOut := c.CheckKeepalive(); timedOut {
		t.Fatal("should ping, not time out, after only pingInterval of silence")
	}
	if line := readLineAsync(t, r); line != "PING irc.example.org\r\n" {
		t.Fatalf("unexpected keepalive ping: %q", line)
	}
	if !c.pinged {
		t.Fatal("pinged flag should be set after sending a keepalive PING")
	}

	c.lastRecv = time.Now().Add(-(timeoutAfter + time.Second))
	if timedOut := c.CheckKeepalive(); !timedOut {
		t.Fatal("expected a timeout after timeoutAfter of silence")
	}
}

func TestCheckKeepaliveNoopWithoutConnection(t *testing.T) {
	c := NewConn(Config{ID: "net"}, zap.NewNop())
	if c.CheckKeepalive() {
		t.Fatal("a never-dialed Conn should never report a keepalive timeout")
	}
}
