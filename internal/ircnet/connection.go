package ircnet

import (
	"bufio"
	"context"
	"crypto/tls"
	"fmt"
	"net"
	"strconv"
	"strings"
	"time"

	"github.com/pkg/errors"
	"go.uber.org/zap"
	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/charmap"
)

// readBufferCap is the bounded inbound accumulation buffer (spec
// §4.3: "bytes accumulate in a bounded buffer (>= 8 KiB)").
const readBufferCap = 16 * 1024

// Keepalive timings (spec §4.3).
const (
	pingInterval   = 120 * time.Second
	timeoutAfter   = 300 * time.Second
	connectTimeout = 30 * time.Second
)

// Conn owns one server's TCP/TLS stream, line framing, keepalive and
// reconnect sequencing (spec §4.1, §4.3, C3). Dial starts a read-loop
// goroutine per connection, which parses lines and delivers Events on
// the Events channel. It is grounded on kofany-go-ircevo's Connection
// (connect/handshake/pingLoop) and lrstanley-girc's Client
// (ISUPPORT-aware state).
type Conn struct {
	cfg Config
	rt  *Runtime
	log *zap.Logger

	nc     net.Conn
	reader *bufio.Reader

	lastRecv time.Time
	pinged   bool

	// charsetName/decoder cache the ISUPPORT CHARSET -> decoder lookup
	// so readLoop doesn't re-resolve it on every line; recomputed
	// whenever ISupport.Charset changes underneath it.
	charsetName string
	decoder     *encoding.Decoder

	// Events is delivered one parsed Event at a time as lines arrive.
	Events chan Event
	// Closed signals the loop that the connection dropped and a
	// reconnect (or terminal disconnect) decision is needed.
	Closed chan error
}

// NewConn builds a Conn in the Disconnected state.
func NewConn(cfg Config, log *zap.Logger) *Conn {
	return &Conn{
		cfg:    cfg,
		rt:     NewRuntime(cfg),
		log:    log,
		Events: make(chan Event, 64),
		Closed: make(chan error, 1),
	}
}

// Runtime exposes the connection's mutable state to callers (bot
// registry introspection, control commands).
func (c *Conn) Runtime() *Runtime { return c.rt }

// Config returns the connection's static configuration (hostname,
// port, identity, options) as given to NewConn.
func (c *Conn) Config() Config { return c.cfg }

// Dial opens the TCP (optionally TLS) stream and sends the handshake
// lines, then starts the background read loop. It transitions
// Disconnected -> Connecting -> Handshaking (spec §4.3).
func (c *Conn) Dial(ctx context.Context) error {
	c.rt.State = Connecting
	network := "tcp"
	if c.cfg.Options.IPv4 && !c.cfg.Options.IPv6 {
		network = "tcp4"
	} else if c.cfg.Options.IPv6 && !c.cfg.Options.IPv4 {
		network = "tcp6"
	}

	addr := net.JoinHostPort(c.cfg.Hostname, strconv.Itoa(c.cfg.Port))
	dialer := &net.Dialer{Timeout: connectTimeout}
	var (
		conn net.Conn
		err  error
	)
	if c.cfg.Options.TLS {
		tlsConf := &tls.Config{InsecureSkipVerify: !c.cfg.Options.TLSVerify, ServerName: c.cfg.Hostname}
		conn, err = tls.DialWithDialer(dialer, network, addr, tlsConf)
	} else {
		conn, err = dialer.DialContext(ctx, network, addr)
	}
	if err != nil {
		c.rt.State = Disconnected
		return errors.Wrapf(err, "dial %s", addr)
	}

	c.nc = conn
	c.reader = bufio.NewReaderSize(conn, readBufferCap)
	c.lastRecv = time.Now()
	c.rt.State = Handshaking

	if c.cfg.Identity.Password != "" {
		c.send("PASS", c.cfg.Identity.Password)
	}
	c.send("NICK", c.rt.Nickname)
	c.send("USER", c.cfg.Identity.Username, "0", "*", c.cfg.Identity.Realname)

	go c.readLoop()
	return nil
}

// send serializes and writes one command, splitting or truncating per
// FormatLine (spec §4.3 outbound framing, TESTABLE PROPERTY 8).
func (c *Conn) send(command string, params ...string) {
	lines, truncated := FormatLine(Message{Command: command, Params: params})
	if truncated && c.log != nil {
		c.log.Warn("outbound line truncated", zap.String("command", command))
	}
	for _, line := range lines {
		if _, err := c.nc.Write([]byte(line + "\r\n")); err != nil {
			c.fail(err)
			return
		}
	}
}

// Send is the public entry point commands/plugins use to issue wire
// commands (spec §4.3: "join, part, kick, topic, invite, mode, nick,
// message, me, notice, whois, names, raw-send").
func (c *Conn) Send(command string, params ...string) {
	if c.rt.State != Connected && c.rt.State != Handshaking {
		return
	}
	c.send(command, params...)
}

// Message/Me split long payloads transparently via Send -> FormatLine.
func (c *Conn) Message(target, text string) { c.Send("PRIVMSG", target, text) }
func (c *Conn) Me(target, text string) {
	c.Send("PRIVMSG", target, FormatCTCP("ACTION", text))
}
func (c *Conn) Notice(target, text string) { c.Send("NOTICE", target, text) }

func (c *Conn) fail(err error) {
	select {
	case c.Closed <- err:
	default:
	}
	if c.nc != nil {
		c.nc.Close()
	}
}

// readLoop accumulates bytes into lines and parses each into an Event,
// pushed to c.Events. It runs on its own goroutine and applies each
// line's side effects to c.rt itself, through dispatch, before the
// Event reaches the bot's loop.
func (c *Conn) readLoop() {
	for {
		line, err := c.reader.ReadString('\n')
		if err != nil {
			c.fail(err)
			return
		}
		if len(line) > readBufferCap {
			c.fail(errors.New("line exceeds buffer capacity"))
			return
		}
		line = c.decodeLine(line)
		msg, ok := ParseMessage(line)
		if !ok {
			continue
		}
		c.lastRecv = time.Now()
		ev, handled := c.dispatch(msg)
		if handled {
			c.Events <- ev
		}
	}
}

// decodeLine transcodes line into UTF-8 when the server's ISUPPORT
// CHARSET token (spec §3 Server attributes) names a legacy 8-bit
// charset; servers that never advertise CHARSET, or advertise "utf-8",
// pass through untouched. The resolved decoder is cached on the Conn
// and only re-looked-up when ISupport.Charset changes underneath it
// (a 005 line can arrive mid-session after a server reports its
// charset lazily).
func (c *Conn) decodeLine(line string) string {
	name := c.rt.ISupport.Charset
	if name != c.charsetName {
		c.charsetName = name
		c.decoder = charsetDecoder(name)
	}
	if c.decoder == nil {
		return line
	}
	out, err := c.decoder.String(line)
	if err != nil {
		return line
	}
	return out
}

// charsetDecoder maps a raw ISUPPORT CHARSET token to a decoder, or
// nil if the charset is UTF-8, unset, or not one of the legacy
// encodings IRC networks have historically advertised.
func charsetDecoder(name string) *encoding.Decoder {
	switch strings.ToLower(name) {
	case "", "utf-8", "utf8":
		return nil
	case "iso-8859-1", "iso8859-1", "latin1":
		return charmap.ISO8859_1.NewDecoder()
	case "iso-8859-15", "iso8859-15", "latin9":
		return charmap.ISO8859_15.NewDecoder()
	case "windows-1252", "cp1252":
		return charmap.Windows1252.NewDecoder()
	case "koi8-r":
		return charmap.KOI8R.NewDecoder()
	default:
		return nil
	}
}

// CheckKeepalive (spec §4.3 "Keepalive") sends a PING after
// pingInterval of silence and reports a timeout after timeoutAfter.
// It acts only when called, and nothing in the bot calls it, so no
// keepalive PING or timeout disconnect happens on its own.
func (c *Conn) CheckKeepalive() (timedOut bool) {
	if c.nc == nil {
		return false
	}
	idle := time.Since(c.lastRecv)
	if idle >= timeoutAfter {
		return true
	}
	if idle >= pingInterval && !c.pinged {
		c.send("PING", c.cfg.Hostname)
		c.pinged = true
	}
	return false
}

// dispatch applies msg's side effects to the runtime state and
// returns the Event to deliver, if any (spec §4.4 dispatch table).
func (c *Conn) dispatch(msg Message) (Event, bool) {
	c.pinged = false
	switch msg.Command {
	case "PING":
		c.send("PONG", msg.Params...)
		return Event{}, false

	case "001":
		nick := c.rt.Nickname
		if len(msg.Params) > 0 {
			nick = msg.Params[0]
		}
		c.rt.OnConnected(nick)
		for _, ch := range c.cfg.AutoJoin {
			if ch.Key != "" {
				c.send("JOIN", ch.Name, ch.Key)
			} else {
				c.send("JOIN", ch.Name)
			}
		}
		return Event{Kind: KindConnect, Server: c.cfg.ID}, true

	case "005":
		for _, tok := range msg.Params[1:] {
			if tok == "" || strings.Contains(tok, ":") {
				continue // trailing human-readable "are supported by this server" text
			}
			c.rt.ISupport.ApplyToken(tok)
		}
		return Event{}, false

	case "433":
		if c.rt.State != Connected {
			next := c.rt.RetryNick(c.cfg.Identity.Nickname, 30)
			c.rt.Nickname = next
			c.send("NICK", next)
		}
		return Event{}, false

	case "JOIN":
		if len(msg.Params) == 0 {
			return Event{}, false
		}
		nick := Nick(msg.Prefix)
		c.rt.Channels.Join(msg.Params[0], nick)
		return Event{Kind: KindJoin, Server: c.cfg.ID, Origin: msg.Prefix, Channel: msg.Params[0]}, true

	case "PART":
		if len(msg.Params) == 0 {
			return Event{}, false
		}
		reason := ""
		if len(msg.Params) > 1 {
			reason = msg.Params[1]
		}
		c.rt.Channels.Part(msg.Params[0], Nick(msg.Prefix), c.rt.Nickname)
		return Event{Kind: KindPart, Server: c.cfg.ID, Origin: msg.Prefix, Channel: msg.Params[0], Reason: reason}, true

	case "KICK":
		if len(msg.Params) < 2 {
			return Event{}, false
		}
		reason := ""
		if len(msg.Params) > 2 {
			reason = msg.Params[2]
		}
		c.rt.Channels.Part(msg.Params[0], msg.Params[1], c.rt.Nickname)
		return Event{Kind: KindKick, Server: c.cfg.ID, Origin: msg.Prefix, Channel: msg.Params[0], Target: msg.Params[1], Reason: reason}, true

	case "QUIT":
		c.rt.Channels.QuitEverywhere(Nick(msg.Prefix))
		return Event{}, false

	case "NICK":
		if len(msg.Params) == 0 {
			return Event{}, false
		}
		old := Nick(msg.Prefix)
		c.rt.Channels.RenameEverywhere(old, msg.Params[0])
		if c.rt.fold(old) == c.rt.fold(c.rt.Nickname) {
			c.rt.Nickname = msg.Params[0]
		}
		return Event{Kind: KindNick, Server: c.cfg.ID, Origin: msg.Prefix, NewNick: msg.Params[0]}, true

	case "MODE":
		if len(msg.Params) < 2 || !c.rt.ISupport.IsChannel(msg.Params[0]) {
			return Event{}, false
		}
		return c.dispatchMode(msg)

	case "TOPIC":
		if len(msg.Params) < 2 {
			return Event{}, false
		}
		c.rt.Channels.SetTopic(msg.Params[0], msg.Params[1])
		return Event{Kind: KindTopic, Server: c.cfg.ID, Origin: msg.Prefix, Channel: msg.Params[0], Topic: msg.Params[1]}, true

	case "INVITE":
		if len(msg.Params) < 2 {
			return Event{}, false
		}
		if c.cfg.Options.JoinInvite {
			c.send("JOIN", msg.Params[1])
		}
		return Event{Kind: KindInvite, Server: c.cfg.ID, Origin: msg.Prefix, Target: msg.Params[0], Channel: msg.Params[1]}, true

	case "NOTICE":
		if len(msg.Params) < 2 {
			return Event{}, false
		}
		return Event{Kind: KindNotice, Server: c.cfg.ID, Origin: msg.Prefix, Channel: msg.Params[0], Message: msg.Params[1]}, true

	case "PRIVMSG":
		if len(msg.Params) < 2 {
			return Event{}, false
		}
		return c.dispatchPrivmsg(msg)

	case "353":
		if len(msg.Params) < 4 {
			return Event{}, false
		}
		c.rt.Channels.ApplyNames(msg.Params[2], strings.Fields(msg.Params[3]), c.rt.ISupport)
		return Event{}, false

	case "366":
		if len(msg.Params) < 2 {
			return Event{}, false
		}
		ch := c.rt.Channels.Channel(msg.Params[1])
		if ch == nil {
			return Event{}, false
		}
		names := make([]string, 0, len(ch.Members))
		for _, m := range ch.Members {
			names = append(names, m.Nick)
		}
		return Event{Kind: KindNames, Server: c.cfg.ID, Channel: msg.Params[1], Names: names}, true

	default:
		return Event{}, false
	}
}

func (c *Conn) dispatchMode(msg Message) (Event, bool) {
	channel := msg.Params[0]
	modeStr := msg.Params[1]
	args := msg.Params[2:]
	add := true
	argIdx := 0
	var lastMode byte
	var lastArg string
	for i := 0; i < len(modeStr); i++ {
		ch := modeStr[i]
		switch ch {
		case '+':
			add = true
			continue
		case '-':
			add = false
			continue
		}
		takesArg := false
		if _, isPrefix := c.rt.ISupport.Prefix[ch]; isPrefix {
			takesArg = true
		} else if strings.IndexByte(c.rt.ISupport.ChanModes[0], ch) >= 0 || strings.IndexByte(c.rt.ISupport.ChanModes[1], ch) >= 0 {
			takesArg = true
		} else if strings.IndexByte(c.rt.ISupport.ChanModes[2], ch) >= 0 && add {
			takesArg = true
		}
		var arg string
		if takesArg && argIdx < len(args) {
			arg = args[argIdx]
			argIdx++
		}
		if _, isPrefix := c.rt.ISupport.Prefix[ch]; isPrefix && arg != "" {
			c.rt.Channels.ApplyMode(channel, ch, add, arg)
		}
		lastMode, lastArg = ch, arg
	}
	return Event{Kind: KindMode, Server: c.cfg.ID, Origin: msg.Prefix, Channel: channel, Mode: lastMode, ModeAdd: add, ModeArg: lastArg}, true
}

func (c *Conn) dispatchPrivmsg(msg Message) (Event, bool) {
	target, payload := msg.Params[0], msg.Params[1]
	if cmd, args, ok := ParseCTCP(payload); ok {
		if cmd == "ACTION" {
			return Event{Kind: KindMe, Server: c.cfg.ID, Origin: msg.Prefix, Channel: target, Message: args}, true
		}
		if reply, ok := ctcpReply(cmd, args, c.cfg.CTCPVersion, c.cfg.CTCPSource, func() string { return time.Now().Format(time.RFC1123) }); ok {
			c.send("NOTICE", Nick(msg.Prefix), reply)
		}
		return Event{}, false
	}

	prefix := c.cfg.CommandChar
	if prefix == "" {
		prefix = "!"
	}
	if strings.HasPrefix(payload, prefix) {
		fields := strings.Fields(strings.TrimPrefix(payload, prefix))
		if len(fields) > 0 {
			return Event{
				Kind:          KindCommand,
				Server:        c.cfg.ID,
				Origin:        msg.Prefix,
				Channel:       target,
				Message:       payload,
				CommandPlugin: fields[0],
				CommandArgs:   fields[1:],
			}, true
		}
	}
	return Event{Kind: KindMessage, Server: c.cfg.ID, Origin: msg.Prefix, Channel: target, Message: payload}, true
}

// Close sends QUIT and tears down the socket (spec §5: "On shutdown
// every server is sent QUIT").
func (c *Conn) Close(reason string) error {
	if c.nc == nil {
		return nil
	}
	c.send("QUIT", reason)
	err := c.nc.Close()
	c.rt.State = Disconnected
	return err
}

func (c *Conn) String() string {
	return fmt.Sprintf("%s(%s:%d)", c.cfg.ID, c.cfg.Hostname, c.cfg.Port)
}
