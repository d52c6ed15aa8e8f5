package ircnet

// Kind tags an Event's concrete variant (spec §3 "tagged union over
// the set in §6").
type Kind string

const (
	KindConnect    Kind = "connect"
	KindDisconnect Kind = "disconnect"
	KindInvite     Kind = "invite"
	KindJoin       Kind = "join"
	KindKick       Kind = "kick"
	KindMessage    Kind = "message"
	KindMe         Kind = "me"
	KindMode       Kind = "mode"
	KindNames      Kind = "names"
	KindNick       Kind = "nick"
	KindNotice     Kind = "notice"
	KindPart       Kind = "part"
	KindTopic      Kind = "topic"
	KindWhois      Kind = "whois"
	KindCommand    Kind = "command"
)

// Event is the tagged union emitted by the protocol parser (spec §3,
// §4.4). Server is the owning server's id; Origin is the full
// "nick!user@host" form for events that carry one. Fields unused by a
// given Kind are left zero.
type Event struct {
	Kind    Kind
	Server  string
	Origin  string

	Channel string
	Target  string
	Message string
	Reason  string
	Topic   string

	// Mode carries a single applied mode change.
	Mode      byte
	ModeAdd   bool
	ModeArg   string

	// Names carries the accumulated membership for a names event.
	Names []string

	NewNick string

	// CommandPlugin is set on KindCommand: the plugin id the message's
	// command prefix addressed (spec §4.4 PRIVMSG row).
	CommandPlugin string
	CommandArgs   []string

	// WhoisNick/WhoisUser/WhoisHost/WhoisReal carry a 311/312/319
	// aggregate reply (spec §4.4 notes whois among dispatched events).
	WhoisNick string
	WhoisUser string
	WhoisHost string
	WhoisReal string
}
