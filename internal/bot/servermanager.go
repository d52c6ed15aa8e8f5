package bot

import (
	"regexp"

	"github.com/nullbyte-dev/irccd/internal/command"
	"github.com/nullbyte-dev/irccd/internal/errcat"
	"github.com/nullbyte-dev/irccd/internal/ircnet"
)

// serverIDRe mirrors the identifier grammar shared with plugins (spec
// §3 "[A-Za-z0-9_-]{1,16}").
var serverIDRe = regexp.MustCompile(`^[A-Za-z0-9_-]{1,16}$`)

func errServerNotFound(id string) error {
	return errcat.New(errcat.Server, errcat.ServerNotFound, "server %q not found", id)
}

func (b *Bot) connByID(id string) (*ircnet.Conn, bool) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	c, ok := b.servers[id]
	return c, ok
}

// List returns the registered server ids in registration order (spec
// §6 "server-list").
func (b *Bot) List() []string {
	b.mu.RLock()
	defer b.mu.RUnlock()
	out := make([]string, len(b.serverOrder))
	copy(out, b.serverOrder)
	return out
}

// Info reports the server's static identity and current channel set
// (spec §6 "server-info").
func (b *Bot) Info(id string) (command.ServerInfo, bool) {
	conn, ok := b.connByID(id)
	if !ok {
		return command.ServerInfo{}, false
	}
	cfg := conn.Config()
	rt := conn.Runtime()
	channels := make([]string, 0, len(rt.Channels.Channels()))
	for _, ch := range rt.Channels.Channels() {
		channels = append(channels, ch.Name)
	}
	return command.ServerInfo{
		Hostname: cfg.Hostname,
		Port:     cfg.Port,
		Nickname: rt.Nickname,
		Username: cfg.Identity.Username,
		Realname: cfg.Identity.Realname,
		Channels: channels,
	}, true
}

// Connect registers a new server and kicks off an asynchronous dial
// (spec §6 "server-connect"); it returns as soon as the id is
// reserved, the network attempt itself runs on its own goroutine so
// the control command never blocks on it.
func (b *Bot) Connect(cfg ircnet.Config) error {
	if !serverIDRe.MatchString(cfg.ID) {
		return errcat.New(errcat.Server, errcat.ServerInvalidIdentifier, "invalid server identifier %q", cfg.ID)
	}
	b.mu.Lock()
	if _, exists := b.servers[cfg.ID]; exists {
		b.mu.Unlock()
		return errcat.New(errcat.Server, errcat.ServerAlreadyExists, "server %q exists", cfg.ID)
	}
	b.mu.Unlock()

	conn := b.registerServer(cfg)
	b.dialAndPump(conn)
	return nil
}

// disconnectOne quits and removes a single server from the registry.
func (b *Bot) disconnectOne(id string) error {
	conn, ok := b.connByID(id)
	if !ok {
		return errServerNotFound(id)
	}
	conn.Close("disconnected by operator")
	b.mu.Lock()
	delete(b.servers, id)
	for i, sid := range b.serverOrder {
		if sid == id {
			b.serverOrder = append(b.serverOrder[:i], b.serverOrder[i+1:]...)
			break
		}
	}
	b.mu.Unlock()
	return nil
}

// Disconnect quits and removes the named server, or every server when
// id is empty (spec §6 "server-disconnect").
func (b *Bot) Disconnect(id string) error {
	if id != "" {
		return b.disconnectOne(id)
	}
	for _, sid := range b.List() {
		if err := b.disconnectOne(sid); err != nil {
			return err
		}
	}
	return nil
}

// Reconnect closes and re-dials the named server (or every server),
// re-using its existing configuration (spec §6 "server-reconnect").
func (b *Bot) Reconnect(id string) error {
	if id != "" {
		conn, ok := b.connByID(id)
		if !ok {
			return errServerNotFound(id)
		}
		conn.Close("reconnecting")
		b.dialAndPump(conn)
		return nil
	}
	for _, sid := range b.List() {
		if err := b.Reconnect(sid); err != nil {
			return err
		}
	}
	return nil
}

func (b *Bot) Join(server, channel, password string) error {
	conn, ok := b.connByID(server)
	if !ok {
		return errServerNotFound(server)
	}
	if password != "" {
		conn.Send("JOIN", channel, password)
	} else {
		conn.Send("JOIN", channel)
	}
	return nil
}

func (b *Bot) Part(server, channel, reason string) error {
	conn, ok := b.connByID(server)
	if !ok {
		return errServerNotFound(server)
	}
	if reason != "" {
		conn.Send("PART", channel, reason)
	} else {
		conn.Send("PART", channel)
	}
	return nil
}

func (b *Bot) Kick(server, target, channel, reason string) error {
	conn, ok := b.connByID(server)
	if !ok {
		return errServerNotFound(server)
	}
	if reason != "" {
		conn.Send("KICK", channel, target, reason)
	} else {
		conn.Send("KICK", channel, target)
	}
	return nil
}

func (b *Bot) Invite(server, target, channel string) error {
	conn, ok := b.connByID(server)
	if !ok {
		return errServerNotFound(server)
	}
	conn.Send("INVITE", target, channel)
	return nil
}

func (b *Bot) Topic(server, channel, topic string) error {
	conn, ok := b.connByID(server)
	if !ok {
		return errServerNotFound(server)
	}
	conn.Send("TOPIC", channel, topic)
	return nil
}

func (b *Bot) Message(server, target, message string) error {
	conn, ok := b.connByID(server)
	if !ok {
		return errServerNotFound(server)
	}
	conn.Message(target, message)
	return nil
}

func (b *Bot) Me(server, target, message string) error {
	conn, ok := b.connByID(server)
	if !ok {
		return errServerNotFound(server)
	}
	conn.Me(target, message)
	return nil
}

func (b *Bot) Notice(server, target, message string) error {
	conn, ok := b.connByID(server)
	if !ok {
		return errServerNotFound(server)
	}
	conn.Notice(target, message)
	return nil
}

func (b *Bot) Mode(server, channel, mode string, args []string) error {
	conn, ok := b.connByID(server)
	if !ok {
		return errServerNotFound(server)
	}
	params := append([]string{channel, mode}, args...)
	conn.Send("MODE", params...)
	return nil
}

func (b *Bot) Nick(server, nickname string) error {
	conn, ok := b.connByID(server)
	if !ok {
		return errServerNotFound(server)
	}
	conn.Send("NICK", nickname)
	return nil
}
