// Package bot wires the connection manager, rule engine, plugin host,
// hook runner, timer service and control transport into the single
// top-level object (spec §4.1/§5, C11): one goroutine owns every
// mutable registry, and every other goroutine (per-connection socket
// pumps, the timer service, the control transport) only ever posts a
// deferred closure onto the loop channel instead of touching state
// directly. Adapted from the teacher's robot singleton and botContext
// (bot/robot.go, bot/botcontext.go): the same "one authoritative
// handle passed into every callback" shape, but as an explicit value
// with its logger as a struct field instead of a package global.
package bot

import (
	"context"
	"sync"

	"github.com/nullbyte-dev/irccd/internal/command"
	"github.com/nullbyte-dev/irccd/internal/hook"
	"github.com/nullbyte-dev/irccd/internal/ircnet"
	"github.com/nullbyte-dev/irccd/internal/plugin"
	"github.com/nullbyte-dev/irccd/internal/rule"
	"github.com/nullbyte-dev/irccd/internal/timer"
	"github.com/nullbyte-dev/irccd/internal/transport"
	"go.uber.org/zap"
)

// PluginSearchConfig is where plugin.Load looks when a request omits
// an explicit path (spec §3 "search path").
type PluginSearchConfig struct {
	Dirs []string
	Exts []string
}

// Config is everything Bot needs to come up: the servers to register
// (not yet dialed), the initial rule/hook lists, the control
// transport's bind address, and the plugin search path.
type Config struct {
	Servers      []ircnet.Config
	Rules        []rule.Rule
	Hooks        []hook.Hook
	Transport    transport.Config
	PluginBase   string
	PluginSearch PluginSearchConfig
	Version      transport.Version
}

// Bot is the top-level object (C11): it owns the server connection
// set, the rule engine, the plugin registry, the hook manager, the
// timer service and the control transport, and serializes every
// mutation onto loopCh (spec §5 "single-threaded mutation").
type Bot struct {
	log *zap.Logger

	mu          sync.RWMutex
	servers     map[string]*ircnet.Conn
	serverOrder []string

	rules   *rule.Engine
	plugins *plugin.Registry
	hooks   *hook.Manager
	timers  *timer.Service

	pluginSearch PluginSearchConfig
	pluginBase   string

	transport *transport.Server
	commands  *command.Registry

	// loopCh is the single funnel every external source posts
	// deferred work onto: socket pumps, the timer service's Dispatch
	// channel, and control-command execution (spec §5). Reconnect
	// timers do not post here; they re-dial directly. One goroutine
	// drains it; nothing else ever mutates servers/rules/plugins/hooks/
	// timers directly.
	loopCh chan func(*Bot)
	// stopCh is closed once, by Stop, to unwind every pump/timer
	// forwarding goroutine and the loop itself.
	stopCh chan struct{}
	wg     sync.WaitGroup
}

// New composes the registries (rule engine, plugin registry, hook
// manager, timer service, control transport, command registry) and
// registers the configured servers without dialing any of them —
// dialing happens in Start, so construction can never block on the
// network.
func New(cfg Config, log *zap.Logger) *Bot {
	if log == nil {
		log = zap.NewNop()
	}
	b := &Bot{
		log:          log,
		servers:      make(map[string]*ircnet.Conn),
		hooks:        hook.NewManager(log.Named("hook")),
		timers:       timer.NewService(),
		pluginSearch: cfg.PluginSearch,
		pluginBase:   cfg.PluginBase,
		loopCh:       make(chan func(*Bot), 256),
		stopCh:       make(chan struct{}),
	}
	b.rules = rule.NewEngine(b.casemapOf)
	for _, r := range cfg.Rules {
		b.rules.Add(r, -1)
	}
	for _, h := range cfg.Hooks {
		b.hooks.Add(h.ID, h.Path, h.TimeoutMs)
	}

	loaders := []plugin.Loader{
		&plugin.NativeLoader{Exts: []string{"", ".plugin"}, Logger: log.Named("native-plugin")},
		&plugin.ScriptLoader{Exts: []string{".js"}, HostFactory: b.installScriptHost},
	}
	b.plugins = plugin.NewRegistry(cfg.PluginBase, log.Named("plugin"), loaders...)

	b.commands = command.New(command.Deps{
		Servers:          b,
		Plugins:          b.plugins,
		PluginHost:       b.asHost(),
		PluginSearchDirs: cfg.PluginSearch.Dirs,
		PluginExts:       cfg.PluginSearch.Exts,
		Rules:            b.rules,
		Hooks:            b.hooks,
	})
	b.transport = transport.New(cfg.Transport, cfg.Version, &loopDispatcher{bot: b}, log.Named("transport"))

	for _, sc := range cfg.Servers {
		b.registerServer(sc)
	}
	return b
}

// registerServer adds a not-yet-dialed connection to the registry.
func (b *Bot) registerServer(cfg ircnet.Config) *ircnet.Conn {
	conn := ircnet.NewConn(cfg, b.log.Named("ircnet").With(zap.String("server", cfg.ID)))
	b.mu.Lock()
	b.servers[cfg.ID] = conn
	b.serverOrder = append(b.serverOrder, cfg.ID)
	b.mu.Unlock()
	return conn
}

// Start dials every configured server, starts the timer service and
// control transport, and runs the event loop until ctx is done or Stop
// is called.
func (b *Bot) Start(ctx context.Context) error {
	b.mu.RLock()
	conns := make([]*ircnet.Conn, 0, len(b.servers))
	for _, c := range b.servers {
		conns = append(conns, c)
	}
	b.mu.RUnlock()
	for _, c := range conns {
		b.dialAndPump(c)
	}

	b.timers.Start()
	b.wg.Add(1)
	go b.forwardTimers()

	if err := b.transport.Start(ctx); err != nil {
		return err
	}

	b.loop(ctx)
	return nil
}

// loop is the single goroutine that drains loopCh (spec §5); every
// other goroutine only ever reaches the bot through it.
func (b *Bot) loop(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case <-b.stopCh:
			return
		case fn := <-b.loopCh:
			fn(b)
		}
	}
}

// forwardTimers bridges the timer service's Dispatch channel onto
// loopCh so fired callbacks run on the loop thread (spec §4.7).
func (b *Bot) forwardTimers() {
	defer b.wg.Done()
	for {
		select {
		case <-b.stopCh:
			return
		case cb := <-b.timers.Dispatch:
			select {
			case b.loopCh <- func(*Bot) { cb() }:
			case <-b.stopCh:
				return
			}
		}
	}
}

// Stop shuts down the bot: every server is sent QUIT, every plugin is
// unloaded, and the timer service and control transport are stopped.
func (b *Bot) Stop(reason string) {
	b.mu.RLock()
	conns := make([]*ircnet.Conn, 0, len(b.servers))
	for _, c := range b.servers {
		conns = append(conns, c)
	}
	ids := append([]string(nil), b.plugins.List()...)
	b.mu.RUnlock()

	for _, id := range ids {
		if err := b.plugins.Unload(b.asHost(), id); err != nil {
			b.log.Warn("plugin unload during shutdown", zap.String("plugin", id), zap.Error(err))
		}
	}
	for _, c := range conns {
		c.Close(reason)
	}
	b.timers.Stop()
	b.transport.Stop()

	select {
	case <-b.stopCh:
	default:
		close(b.stopCh)
	}
	b.wg.Wait()
}

// casemapOf resolves a server id's current ISUPPORT-declared
// casemapping for the rule engine (spec §4.5), defaulting to ASCII for
// an unknown or not-yet-handshaken server.
func (b *Bot) casemapOf(server string) string {
	b.mu.RLock()
	conn, ok := b.servers[server]
	b.mu.RUnlock()
	if !ok {
		return "ascii"
	}
	return conn.Runtime().ISupport.Casemap
}
