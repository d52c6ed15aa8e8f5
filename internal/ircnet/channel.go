package ircnet

// Member is a channel occupant: nickname plus the accumulated PREFIX
// mode letters the server has granted (spec §3 "User (channel
// member)").
type Member struct {
	Nick  string
	Modes map[byte]struct{}
}

// HasMode reports whether m carries the given PREFIX mode letter
// (e.g. 'o' for operator, 'v' for voice).
func (m Member) HasMode(mode byte) bool {
	_, ok := m.Modes[mode]
	return ok
}

// Channel tracks membership and topic for one joined channel, keyed by
// the server's casemapping-folded nickname.
type Channel struct {
	Name    string
	Topic   string
	Members map[string]*Member // folded nick -> member
}

func newChannel(name string) *Channel {
	return &Channel{Name: name, Members: make(map[string]*Member)}
}

// Tracker owns the set of joined channels for one server connection,
// keyed by the server's casemapping-folded channel name (spec §4.4
// dispatch table: JOIN/PART/KICK/QUIT/NICK/MODE/TOPIC side effects).
type Tracker struct {
	fold     func(string) string
	channels map[string]*Channel
}

// NewTracker builds an empty Tracker using fold to normalize channel
// and nick keys per the server's current casemapping.
func NewTracker(fold func(string) string) *Tracker {
	return &Tracker{fold: fold, channels: make(map[string]*Channel)}
}

// Channel returns the tracked channel by name, or nil if not joined.
func (t *Tracker) Channel(name string) *Channel {
	return t.channels[t.fold(name)]
}

// Channels returns all tracked channels in no particular order.
func (t *Tracker) Channels() []*Channel {
	out := make([]*Channel, 0, len(t.channels))
	for _, c := range t.channels {
		out = append(out, c)
	}
	return out
}

// Join creates the channel if absent and adds member nick to it.
func (t *Tracker) Join(channel, nick string) {
	key := t.fold(channel)
	c, ok := t.channels[key]
	if !ok {
		c = newChannel(channel)
		t.channels[key] = c
	}
	c.Members[t.fold(nick)] = &Member{Nick: nick, Modes: map[byte]struct{}{}}
}

// Part removes member nick from channel; if nick was the bot's own
// nick (selfNick), the channel is dropped entirely.
func (t *Tracker) Part(channel, nick, selfNick string) {
	key := t.fold(channel)
	c, ok := t.channels[key]
	if !ok {
		return
	}
	if t.fold(nick) == t.fold(selfNick) {
		delete(t.channels, key)
		return
	}
	delete(c.Members, t.fold(nick))
}

// QuitEverywhere removes nick from every tracked channel (spec §4.4:
// QUIT synthesizes a part in each shared channel).
func (t *Tracker) QuitEverywhere(nick string) {
	folded := t.fold(nick)
	for _, c := range t.channels {
		delete(c.Members, folded)
	}
}

// RenameEverywhere moves a member's key from oldNick to newNick in
// every channel it belongs to, preserving its accumulated modes.
func (t *Tracker) RenameEverywhere(oldNick, newNick string) {
	oldKey, newKey := t.fold(oldNick), t.fold(newNick)
	for _, c := range t.channels {
		m, ok := c.Members[oldKey]
		if !ok {
			continue
		}
		m.Nick = newNick
		delete(c.Members, oldKey)
		c.Members[newKey] = m
	}
}

// SetTopic records the topic for a tracked channel.
func (t *Tracker) SetTopic(channel, topic string) {
	if c := t.Channel(channel); c != nil {
		c.Topic = topic
	}
}

// ApplyMode adjusts a member's mode-prefix set for add (true) or
// remove (false) of the given mode letter.
func (t *Tracker) ApplyMode(channel string, mode byte, add bool, nick string) {
	c := t.Channel(channel)
	if c == nil {
		return
	}
	m, ok := c.Members[t.fold(nick)]
	if !ok {
		return
	}
	if add {
		m.Modes[mode] = struct{}{}
	} else {
		delete(m.Modes, mode)
	}
}

// ApplyNames populates channel membership from a 353 (RPL_NAMREPLY)
// entry list, decoding PREFIX symbols via is.
func (t *Tracker) ApplyNames(channel string, names []string, is ISupport) {
	key := t.fold(channel)
	c, ok := t.channels[key]
	if !ok {
		c = newChannel(channel)
		t.channels[key] = c
	}
	for _, raw := range names {
		if raw == "" {
			continue
		}
		modes, nick := is.PrefixesOf(raw)
		mk := t.fold(nick)
		m, ok := c.Members[mk]
		if !ok {
			m = &Member{Nick: nick, Modes: map[byte]struct{}{}}
			c.Members[mk] = m
		}
		for _, mode := range modes {
			m.Modes[mode] = struct{}{}
		}
	}
}
