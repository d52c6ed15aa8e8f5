package ircnet

import (
	"time"

	"github.com/nullbyte-dev/irccd/internal/casemap"
)

// State is one of the five connection lifecycle states (spec §4.3).
type State string

const (
	Disconnected     State = "disconnected"
	Connecting       State = "connecting"
	Handshaking      State = "handshaking"
	Connected        State = "connected"
	WaitingReconnect State = "waiting-reconnect"
)

// AutoJoinChannel is one channel to join once the handshake completes.
type AutoJoinChannel struct {
	Name string
	Key  string
}

// Options is the per-server connection option flagset (spec §3).
type Options struct {
	TLS           bool
	TLSVerify     bool
	IPv4          bool
	IPv6          bool
	AutoRejoin    bool
	JoinInvite    bool
	AutoReconnect bool
}

// Identity is the credential set sent during handshake.
type Identity struct {
	Nickname string
	Username string
	Realname string
	Password string
}

// Config is the static, user-supplied description of a server (spec
// §3 "Server"), as distinct from its mutable runtime state below.
type Config struct {
	ID          string
	Hostname    string
	Port        int
	Options     Options
	Identity    Identity
	CTCPVersion string
	CTCPSource  string
	CommandChar string // default "!"
	AutoJoin    []AutoJoinChannel
}

// backoffInitial/backoffCap bound the reconnect delay sequence (spec
// §4.3, TESTABLE PROPERTY 7).
const (
	backoffInitial = 1 * time.Second
	backoffCap     = 30 * time.Second
	// sustainedConnected is how long a connection must stay up before
	// a subsequent failure resets the backoff sequence back to
	// backoffInitial (spec §4.3: "reset after a sustained connected
	// period").
	sustainedConnected = 60 * time.Second
)

// NextBackoff doubles cur, capped at backoffCap. Pass 0 to get the
// initial delay.
func NextBackoff(cur time.Duration) time.Duration {
	if cur <= 0 {
		return backoffInitial
	}
	next := cur * 2
	if next > backoffCap {
		return backoffCap
	}
	return next
}

// Runtime is the mutable state a Server accumulates as it connects,
// handshakes, and operates (spec §3: "runtime state", "current
// nickname", "set of joined channels", "ISUPPORT-derived
// parameters").
type Runtime struct {
	State         State
	Nickname      string
	ISupport      ISupport
	Channels      *Tracker
	connectedAt   time.Time
	backoff       time.Duration
	nickRetries   int
}

// NewRuntime builds the initial runtime state for a freshly configured
// server, before any connection attempt.
func NewRuntime(cfg Config) *Runtime {
	r := &Runtime{
		State:    Disconnected,
		Nickname: cfg.Identity.Nickname,
		ISupport: NewISupport(),
	}
	r.Channels = NewTracker(r.fold)
	return r
}

func (r *Runtime) fold(s string) string {
	return casemap.Parse(r.ISupport.Casemap).Fold(s)
}

// OnConnected records a successful handshake completion and resets
// the reconnect backoff (spec §4.3 handshaking -> connected).
func (r *Runtime) OnConnected(serverNick string) {
	r.State = Connected
	r.Nickname = serverNick
	r.connectedAt = time.Now()
	r.nickRetries = 0
}

// OnDisconnect transitions to waiting-reconnect (returning the next
// backoff delay) or disconnected, resetting the backoff sequence when
// the prior connection was sustained long enough.
func (r *Runtime) OnDisconnect(autoReconnect bool) (next State, delay time.Duration) {
	if !r.connectedAt.IsZero() && time.Since(r.connectedAt) >= sustainedConnected {
		r.backoff = 0
	}
	r.connectedAt = time.Time{}
	if !autoReconnect {
		r.State = Disconnected
		return Disconnected, 0
	}
	r.backoff = NextBackoff(r.backoff)
	r.State = WaitingReconnect
	return WaitingReconnect, r.backoff
}

// RetryNick appends "_" for a 433 (nickname in use) collision during
// handshake, one more "_" per retry, never growing the nickname past
// maxLen bytes (spec §4.4 "Self-nick conflict").
func (r *Runtime) RetryNick(base string, maxLen int) string {
	r.nickRetries++
	candidate := base
	for i := 0; i < r.nickRetries && len(candidate)+1 <= maxLen; i++ {
		candidate += "_"
	}
	return candidate
}
