package command

import (
	"testing"

	"github.com/nullbyte-dev/irccd/internal/errcat"
	"github.com/nullbyte-dev/irccd/internal/hook"
	"github.com/nullbyte-dev/irccd/internal/ircnet"
	"github.com/nullbyte-dev/irccd/internal/plugin"
	"github.com/nullbyte-dev/irccd/internal/rule"
	"github.com/nullbyte-dev/irccd/internal/transport"
	"go.uber.org/zap"
)

// fakeServers is a minimal ServerManager test double.
type fakeServers struct {
	connected map[string]ircnet.Config
	messages  []string
}

func newFakeServers() *fakeServers { return &fakeServers{connected: make(map[string]ircnet.Config)} }

func (f *fakeServers) List() []string {
	out := make([]string, 0, len(f.connected))
	for id := range f.connected {
		out = append(out, id)
	}
	return out
}

func (f *fakeServers) Info(id string) (ServerInfo, bool) {
	cfg, ok := f.connected[id]
	if !ok {
		return ServerInfo{}, false
	}
	return ServerInfo{Hostname: cfg.Hostname, Port: cfg.Port, Nickname: cfg.Identity.Nickname}, true
}

func (f *fakeServers) Connect(cfg ircnet.Config) error {
	if _, exists := f.connected[cfg.ID]; exists {
		return errcat.New(errcat.Server, errcat.ServerAlreadyExists, "server %q exists", cfg.ID)
	}
	f.connected[cfg.ID] = cfg
	return nil
}

func (f *fakeServers) mustExist(id string) error {
	if _, ok := f.connected[id]; !ok {
		return errcat.New(errcat.Server, errcat.ServerNotFound, "server %q not found", id)
	}
	return nil
}

func (f *fakeServers) Disconnect(id string) error { return f.mustExist(id) }
func (f *fakeServers) Reconnect(id string) error   { return f.mustExist(id) }
func (f *fakeServers) Join(server, channel, password string) error  { return f.mustExist(server) }
func (f *fakeServers) Part(server, channel, reason string) error    { return f.mustExist(server) }
func (f *fakeServers) Kick(server, target, channel, reason string) error { return f.mustExist(server) }
func (f *fakeServers) Invite(server, target, channel string) error  { return f.mustExist(server) }
func (f *fakeServers) Topic(server, channel, topic string) error    { return f.mustExist(server) }
func (f *fakeServers) Message(server, target, message string) error {
	if err := f.mustExist(server); err != nil {
		return err
	}
	f.messages = append(f.messages, message)
	return nil
}
func (f *fakeServers) Me(server, target, message string) error     { return f.mustExist(server) }
func (f *fakeServers) Notice(server, target, message string) error { return f.mustExist(server) }
func (f *fakeServers) Mode(server, channel, mode string, args []string) error {
	return f.mustExist(server)
}
func (f *fakeServers) Nick(server, nickname string) error { return f.mustExist(server) }

type fakeLoader struct {
	cbs  plugin.Callbacks
	meta plugin.Meta
}

func (fakeLoader) Name() string { return "fake" }
func (l fakeLoader) Open(id, path string) (plugin.Callbacks, plugin.Meta, error) {
	return l.cbs, l.meta, nil
}
func (fakeLoader) Find(id string, searchDirs, exts []string) (string, bool) {
	return "/fake/" + id, true
}

type fakeHost struct{}

func (fakeHost) Send(server, command string, params ...string) {}
func (fakeHost) Message(server, target, text string)            {}
func (fakeHost) Notice(server, target, text string)              {}
func (fakeHost) Log() *zap.Logger                                 { return zap.NewNop() }

func newTestDeps() Deps {
	return Deps{
		Servers:    newFakeServers(),
		Plugins:    plugin.NewRegistry("", zap.NewNop(), fakeLoader{meta: plugin.Meta{Name: "logger", Author: "a", Version: "1.0"}}),
		PluginHost: fakeHost{},
		Rules:      rule.NewEngine(nil),
		Hooks:      hook.NewManager(zap.NewNop()),
	}
}

func TestServerConnectListInfo(t *testing.T) {
	d := newTestDeps()
	r := New(d)

	resp := r.Exec(transport.Request{Command: "server-connect", Fields: map[string]interface{}{
		"name": "local", "host": "irc.example.org", "port": float64(6697),
	}})
	if resp.IsError {
		t.Fatalf("unexpected error: %+v", resp)
	}

	resp = r.Exec(transport.Request{Command: "server-list"})
	list := resp.Fields["list"].([]string)
	if len(list) != 1 || list[0] != "local" {
		t.Fatalf("unexpected server-list: %+v", list)
	}

	resp = r.Exec(transport.Request{Command: "server-info", Fields: map[string]interface{}{"server": "local"}})
	if resp.Fields["hostname"] != "irc.example.org" {
		t.Fatalf("unexpected server-info: %+v", resp.Fields)
	}

	resp = r.Exec(transport.Request{Command: "server-info", Fields: map[string]interface{}{"server": "ghost"}})
	if !resp.IsError || resp.ErrCat != string(errcat.Server) {
		t.Fatalf("expected server-not-found error, got %+v", resp)
	}
}

func TestServerMessageRequiresExistingServer(t *testing.T) {
	d := newTestDeps()
	r := New(d)
	resp := r.Exec(transport.Request{Command: "server-message", Fields: map[string]interface{}{
		"server": "ghost", "target": "#chan", "message": "hi",
	}})
	if !resp.IsError {
		t.Fatal("expected error for nonexistent server")
	}
}

func TestPluginLifecycleAndConfig(t *testing.T) {
	d := newTestDeps()
	r := New(d)

	resp := r.Exec(transport.Request{Command: "plugin-load", Fields: map[string]interface{}{"plugin": "logger"}})
	if resp.IsError {
		t.Fatalf("unexpected load error: %+v", resp)
	}

	resp = r.Exec(transport.Request{Command: "plugin-list"})
	list := resp.Fields["list"].([]string)
	if len(list) != 1 || list[0] != "logger" {
		t.Fatalf("unexpected plugin-list: %+v", list)
	}

	resp = r.Exec(transport.Request{Command: "plugin-info", Fields: map[string]interface{}{"plugin": "logger"}})
	if resp.Fields["name"] != "logger" || resp.Fields["version"] != "1.0" {
		t.Fatalf("unexpected plugin-info: %+v", resp.Fields)
	}

	resp = r.Exec(transport.Request{Command: "plugin-config", Fields: map[string]interface{}{
		"plugin": "logger", "variable": "timeout", "value": "30",
	}})
	if resp.IsError {
		t.Fatalf("unexpected set error: %+v", resp)
	}

	resp = r.Exec(transport.Request{Command: "plugin-config", Fields: map[string]interface{}{
		"plugin": "logger", "variable": "timeout",
	}})
	vars := resp.Fields["variables"].(map[string]interface{})
	if vars["timeout"] != "30" {
		t.Fatalf("unexpected get response: %+v", vars)
	}

	resp = r.Exec(transport.Request{Command: "plugin-unload", Fields: map[string]interface{}{"plugin": "logger"}})
	if resp.IsError {
		t.Fatalf("unexpected unload error: %+v", resp)
	}
	resp = r.Exec(transport.Request{Command: "plugin-list"})
	if len(resp.Fields["list"].([]string)) != 0 {
		t.Fatal("expected empty plugin list after unload")
	}
}

func TestRuleAddMoveRemoveMatchesSample(t *testing.T) {
	d := newTestDeps()
	r := New(d)

	r.Exec(transport.Request{Command: "rule-add", Fields: map[string]interface{}{
		"servers": []interface{}{"s1"}, "action": "drop",
	}})
	r.Exec(transport.Request{Command: "rule-add", Fields: map[string]interface{}{
		"channels": []interface{}{"#c"}, "action": "accept",
	}})

	resp := r.Exec(transport.Request{Command: "rule-list"})
	list := resp.Fields["list"].([]interface{})
	if len(list) != 2 {
		t.Fatalf("expected 2 rules, got %d", len(list))
	}

	r.Exec(transport.Request{Command: "rule-move", Fields: map[string]interface{}{"from": float64(0), "to": float64(1)}})
	resp = r.Exec(transport.Request{Command: "rule-list"})
	list = resp.Fields["list"].([]interface{})
	first := list[0].(map[string]interface{})
	if first["action"] != "accept" {
		t.Fatalf("expected accept rule first after move, got %+v", first)
	}

	r.Exec(transport.Request{Command: "rule-remove", Fields: map[string]interface{}{"index": float64(0)}})
	resp = r.Exec(transport.Request{Command: "rule-list"})
	list = resp.Fields["list"].([]interface{})
	if len(list) != 1 {
		t.Fatalf("expected 1 rule remaining, got %d", len(list))
	}
	remaining := list[0].(map[string]interface{})
	if remaining["action"] != "drop" {
		t.Fatalf("expected drop rule to remain, got %+v", remaining)
	}
}

func TestHookAddRemoveList(t *testing.T) {
	d := newTestDeps()
	r := New(d)

	resp := r.Exec(transport.Request{Command: "hook-add", Fields: map[string]interface{}{"id": "notify", "path": "/bin/true"}})
	if resp.IsError {
		t.Fatalf("unexpected error: %+v", resp)
	}
	resp = r.Exec(transport.Request{Command: "hook-list"})
	list := resp.Fields["list"].([]string)
	if len(list) != 1 || list[0] != "notify" {
		t.Fatalf("unexpected hook-list: %+v", list)
	}
	resp = r.Exec(transport.Request{Command: "hook-remove", Fields: map[string]interface{}{"id": "notify"}})
	if resp.IsError {
		t.Fatalf("unexpected remove error: %+v", resp)
	}
}

func TestUnknownCommand(t *testing.T) {
	d := newTestDeps()
	r := New(d)
	resp := r.Exec(transport.Request{Command: "bogus"})
	if !resp.IsError {
		t.Fatal("expected error for unknown command")
	}
}
