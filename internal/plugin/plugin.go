// Package plugin implements the plugin host (spec §4.6, C6): an
// ordered loader list, per-plugin options/templates/paths maps set
// before handle_load, and the fixed handle_* callback contract.
// Adapted from the teacher's botTask/botPlugin registration model
// (bot/tasks.go) and its panic-contained dispatch (bot/runtasks.go's
// callTask/checkPanic), generalized from Gopherbot's chat-plugin
// pipeline to irccd's IRC event pipeline.
package plugin

import (
	"regexp"
	"sync"

	"github.com/nullbyte-dev/irccd/internal/errcat"
	"github.com/nullbyte-dev/irccd/internal/ircnet"
	"github.com/nullbyte-dev/irccd/internal/xdgpath"
	"go.uber.org/zap"
)

// identifierRe matches the plugin id grammar shared with servers
// (spec §3: "[A-Za-z0-9_-]{1,16}").
var identifierRe = regexp.MustCompile(`^[A-Za-z0-9_-]{1,16}$`)

// ValidID reports whether id is a well-formed plugin identifier.
func ValidID(id string) bool { return identifierRe.MatchString(id) }

// Meta is the plugin's self-reported descriptive fields (spec §3
// "Plugin").
type Meta struct {
	Name    string
	Author  string
	License string
	Summary string
	Version string
}

// Callbacks is the fixed handle_* contract a loaded plugin may
// implement (spec §4.6). Any field left nil is "skipped silently".
type Callbacks struct {
	Load       func(Host) error
	Unload     func(Host) error
	Reload     func(Host) error
	Connect    func(Host, ircnet.Event) error
	Disconnect func(Host, ircnet.Event) error
	Invite     func(Host, ircnet.Event) error
	Join       func(Host, ircnet.Event) error
	Kick       func(Host, ircnet.Event) error
	Message    func(Host, ircnet.Event) error
	Me         func(Host, ircnet.Event) error
	Mode       func(Host, ircnet.Event) error
	Names      func(Host, ircnet.Event) error
	Nick       func(Host, ircnet.Event) error
	Notice     func(Host, ircnet.Event) error
	Part       func(Host, ircnet.Event) error
	Topic      func(Host, ircnet.Event) error
	Whois      func(Host, ircnet.Event) error
	Command    func(Host, ircnet.Event) error

	// GetOptions/GetTemplates/GetPaths let a plugin declare which keys
	// it understands (spec §4.6 "Enumeration callbacks").
	GetOptions   func() []string
	GetTemplates func() []string
	GetPaths     func() []string
}

// Host is the narrow surface a plugin callback is handed back into
// the bot (spec §4.6 "receives the bot handle"). Kept as an interface
// here so this package never imports internal/bot, avoiding a cycle;
// internal/bot satisfies it with *hostHandle, a view of its *Bot.
type Host interface {
	Send(server, command string, params ...string)
	Message(server, target, text string)
	Notice(server, target, text string)
	Log() *zap.Logger
}

// Plugin is one loaded plugin instance plus its host-owned state.
type Plugin struct {
	ID        string
	Meta      Meta
	Callbacks Callbacks

	mu        sync.RWMutex
	Options   map[string]string
	Templates map[string]string
	Paths     xdgpath.Dirs

	loadedFrom string // path the loader opened, for reload
	loaderName string
}

// SetOption/Option give thread-safe access to the per-plugin option
// map (spec §4.6 "options": opaque key/value pairs).
func (p *Plugin) SetOption(key, value string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.Options == nil {
		p.Options = make(map[string]string)
	}
	p.Options[key] = value
}

func (p *Plugin) Option(key string) (string, bool) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	v, ok := p.Options[key]
	return v, ok
}

func (p *Plugin) SetTemplate(key, value string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.Templates == nil {
		p.Templates = make(map[string]string)
	}
	p.Templates[key] = value
}

func (p *Plugin) Template(key string) (string, bool) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	v, ok := p.Templates[key]
	return v, ok
}

// errAlreadyExists/errNotFound build the categorized errors the
// registry returns (spec §6 plugin error codes).
func errAlreadyExists(id string) error {
	return errcat.New(errcat.Plugin, errcat.PluginAlreadyExists, "plugin %q already exists", id)
}

func errNotFound(id string) error {
	return errcat.New(errcat.Plugin, errcat.PluginNotFound, "plugin %q not found", id)
}

func errInvalidID(id string) error {
	return errcat.New(errcat.Plugin, errcat.PluginInvalidIdentifier, "invalid plugin identifier %q", id)
}
