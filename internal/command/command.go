// Package command implements the control command registry (spec
// §4.9/§6, C10): exec(bot, session, request) -> response | error.
// Each handler validates its request fields before mutating anything
// (grounded on how every original_source/libirccd/irccd/daemon/command/
// *.cpp handler parses and validates its JSON args before touching the
// corresponding service), then delegates to the rule engine, plugin
// registry, hook manager or server manager.
package command

import (
	"github.com/nullbyte-dev/irccd/internal/errcat"
	"github.com/nullbyte-dev/irccd/internal/hook"
	"github.com/nullbyte-dev/irccd/internal/ircnet"
	"github.com/nullbyte-dev/irccd/internal/plugin"
	"github.com/nullbyte-dev/irccd/internal/rule"
	"github.com/nullbyte-dev/irccd/internal/transport"
)

// ServerInfo is the server-info response payload (spec §6 "server-info
// | server | hostname, port, nickname, username, realname, channels").
type ServerInfo struct {
	Hostname string
	Port     int
	Nickname string
	Username string
	Realname string
	Channels []string
}

// ServerManager is the server-side surface the registry needs from the
// bot's connection set (spec §4.9's server-* command family). Kept as
// an interface so this package never imports internal/bot; internal/bot's
// connection manager satisfies it.
type ServerManager interface {
	List() []string
	Info(id string) (ServerInfo, bool)
	Connect(cfg ircnet.Config) error
	Disconnect(id string) error // id == "" disconnects every server
	Reconnect(id string) error  // id == "" reconnects every server
	Join(server, channel, password string) error
	Part(server, channel, reason string) error
	Kick(server, target, channel, reason string) error
	Invite(server, target, channel string) error
	Topic(server, channel, topic string) error
	Message(server, target, message string) error
	Me(server, target, message string) error
	Notice(server, target, message string) error
	Mode(server, channel, mode string, args []string) error
	Nick(server, nickname string) error
}

// Deps bundles everything a Registry dispatches into.
type Deps struct {
	Servers ServerManager

	Plugins          *plugin.Registry
	PluginHost       plugin.Host
	PluginSearchDirs []string
	PluginExts       []string

	Rules *rule.Engine
	Hooks *hook.Manager
}

// Registry maps each control command name to its handler and
// implements transport.Dispatcher.
type Registry struct {
	deps     Deps
	handlers map[string]func(Deps, transport.Request) transport.Response
}

// New builds the full command table (spec §6).
func New(deps Deps) *Registry {
	r := &Registry{deps: deps, handlers: make(map[string]func(Deps, transport.Request) transport.Response)}
	r.register(serverHandlers())
	r.register(pluginHandlers())
	r.register(ruleHandlers())
	r.register(hookHandlers())
	return r
}

func (r *Registry) register(m map[string]func(Deps, transport.Request) transport.Response) {
	for name, fn := range m {
		r.handlers[name] = fn
	}
}

// Exec implements transport.Dispatcher.
func (r *Registry) Exec(req transport.Request) transport.Response {
	h, ok := r.handlers[req.Command]
	if !ok {
		return transport.Err(req.Command, -1, string(errcat.Bot))
	}
	return h(r.deps, req)
}

// --- shared request-field helpers -----------------------------------

func str(fields map[string]interface{}, key string) (string, bool) {
	v, ok := fields[key]
	if !ok {
		return "", false
	}
	s, ok := v.(string)
	return s, ok
}

func strOr(fields map[string]interface{}, key, def string) string {
	if s, ok := str(fields, key); ok {
		return s
	}
	return def
}

func number(fields map[string]interface{}, key string) (float64, bool) {
	v, ok := fields[key]
	if !ok {
		return 0, false
	}
	n, ok := v.(float64) // encoding/json decodes JSON numbers as float64
	return n, ok
}

func boolOr(fields map[string]interface{}, key string, def bool) bool {
	v, ok := fields[key]
	if !ok {
		return def
	}
	b, ok := v.(bool)
	if !ok {
		return def
	}
	return b
}

func stringList(fields map[string]interface{}, key string) []string {
	v, ok := fields[key]
	if !ok {
		return nil
	}
	arr, ok := v.([]interface{})
	if !ok {
		return nil
	}
	out := make([]string, 0, len(arr))
	for _, item := range arr {
		if s, ok := item.(string); ok {
			out = append(out, s)
		}
	}
	return out
}

func errResp(req transport.Request, e *errcat.Error) transport.Response {
	return transport.Err(req.Command, int(e.Code), string(e.Category))
}
