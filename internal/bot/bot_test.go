package bot

import (
	"testing"
	"time"

	"github.com/nullbyte-dev/irccd/internal/ircnet"
	"github.com/nullbyte-dev/irccd/internal/plugin"
	"github.com/nullbyte-dev/irccd/internal/rule"
	"github.com/nullbyte-dev/irccd/internal/transport"
	"go.uber.org/zap"
)

// fakeLoader hands back one fixed set of callbacks/meta for any id,
// mirroring internal/command's test double of the same name.
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

func newTestBot(t *testing.T, loader plugin.Loader) *Bot {
	t.Helper()
	b := New(Config{
		PluginSearch: PluginSearchConfig{Exts: []string{""}},
	}, zap.NewNop())
	if loader != nil {
		b.plugins = plugin.NewRegistry("", zap.NewNop(), loader)
	}
	return b
}

func TestHandleEventDispatchesToAllowedPlugin(t *testing.T) {
	var gotServer, gotChannel, gotMessage string
	loader := fakeLoader{
		meta: plugin.Meta{Name: "echo", Author: "a", Version: "1.0"},
		cbs: plugin.Callbacks{
			Message: func(h plugin.Host, ev ircnet.Event) error {
				gotServer, gotChannel, gotMessage = ev.Server, ev.Channel, ev.Message
				return nil
			},
		},
	}
	b := newTestBot(t, loader)
	if err := b.plugins.Load(b.asHost(), "echo", "", nil, nil); err != nil {
		t.Fatalf("load: %v", err)
	}

	b.handleEvent(ircnet.Event{
		Kind: ircnet.KindMessage, Server: "local", Channel: "#chan",
		Origin: "alice!a@host", Message: "hello",
	})

	if gotServer != "local" || gotChannel != "#chan" || gotMessage != "hello" {
		t.Fatalf("plugin did not observe the dispatched event: %q %q %q", gotServer, gotChannel, gotMessage)
	}
}

func TestHandleEventHonorsRuleDrop(t *testing.T) {
	called := false
	loader := fakeLoader{
		meta: plugin.Meta{Name: "echo", Author: "a", Version: "1.0"},
		cbs: plugin.Callbacks{
			Message: func(h plugin.Host, ev ircnet.Event) error {
				called = true
				return nil
			},
		},
	}
	b := newTestBot(t, loader)
	if err := b.plugins.Load(b.asHost(), "echo", "", nil, nil); err != nil {
		t.Fatalf("load: %v", err)
	}
	if _, err := b.rules.Add(rule.Rule{
		Servers: rule.NewSet([]string{"local"}),
		Action:  rule.Drop,
	}, -1); err != nil {
		t.Fatalf("add rule: %v", err)
	}

	b.handleEvent(ircnet.Event{Kind: ircnet.KindMessage, Server: "local", Channel: "#chan", Message: "hi"})

	if called {
		t.Fatal("plugin callback ran despite a dropping rule")
	}
}

func TestHandleEventHooksAreGatedOnEmptyPluginIDNotOnPluginRules(t *testing.T) {
	b := newTestBot(t, nil)
	// Scoped to plugin "irrelevant", this must not block hooks, which
	// are solved under the pseudo-plugin-id "" (spec §4.6).
	if _, err := b.rules.Add(rule.Rule{
		Servers: rule.NewSet([]string{"local"}),
		Plugins: rule.NewSet([]string{"irrelevant"}),
		Action:  rule.Drop,
	}, -1); err != nil {
		t.Fatalf("add rule: %v", err)
	}

	cand := rule.Candidate{Server: "local", Channel: "#chan", Event: "onJoin", Plugin: ""}
	if !b.rules.Solve(cand) {
		t.Fatal("a rule scoped to a different plugin id must not block the hook pseudo-plugin-id \"\"")
	}
}

func TestCasemapOfDefaultsToASCIIForUnknownServer(t *testing.T) {
	b := newTestBot(t, nil)
	if got := b.casemapOf("ghost"); got != "ascii" {
		t.Fatalf("expected ascii default, got %q", got)
	}
}

func TestCasemapOfReflectsISupport(t *testing.T) {
	b := newTestBot(t, nil)
	conn := b.registerServer(ircnet.Config{ID: "local", Hostname: "irc.example.org", Port: 6697})
	conn.Runtime().ISupport.Casemap = "rfc1459"

	if got := b.casemapOf("local"); got != "rfc1459" {
		t.Fatalf("expected rfc1459, got %q", got)
	}
}

func TestServerManagerListInfoAndMessage(t *testing.T) {
	b := newTestBot(t, nil)

	if err := b.Connect(ircnet.Config{ID: "local", Hostname: "irc.example.org", Port: 6667}); err != nil {
		t.Fatalf("connect: %v", err)
	}

	list := b.List()
	if len(list) != 1 || list[0] != "local" {
		t.Fatalf("unexpected server list: %+v", list)
	}

	info, ok := b.Info("local")
	if !ok || info.Hostname != "irc.example.org" || info.Port != 6667 {
		t.Fatalf("unexpected info: %+v", info)
	}

	if _, ok := b.Info("ghost"); ok {
		t.Fatal("expected Info to report false for an unregistered server")
	}

	if err := b.Message("ghost", "#chan", "hi"); err == nil {
		t.Fatal("expected error messaging an unregistered server")
	}
}

func TestConnectRejectsInvalidIdentifierAndDuplicate(t *testing.T) {
	b := newTestBot(t, nil)

	if err := b.Connect(ircnet.Config{ID: "not an id!", Hostname: "x", Port: 1}); err == nil {
		t.Fatal("expected invalid-identifier error")
	}

	if err := b.Connect(ircnet.Config{ID: "local", Hostname: "x", Port: 1}); err != nil {
		t.Fatalf("first connect: %v", err)
	}
	if err := b.Connect(ircnet.Config{ID: "local", Hostname: "x", Port: 1}); err == nil {
		t.Fatal("expected already-exists error on duplicate id")
	}
}

func TestLoopDispatcherRoundTripsThroughLoopChannel(t *testing.T) {
	b := newTestBot(t, nil)
	d := &loopDispatcher{bot: b}

	respCh := make(chan transport.Response, 1)
	go func() { respCh <- d.Exec(transport.Request{Command: "server-list"}) }()

	select {
	case fn := <-b.loopCh:
		fn(b)
	case <-time.After(time.Second):
		t.Fatal("loopDispatcher never posted work onto loopCh")
	}

	select {
	case resp := <-respCh:
		if resp.IsError {
			t.Fatalf("unexpected error response: %+v", resp)
		}
	case <-time.After(time.Second):
		t.Fatal("Exec never returned after the loop ran its work")
	}
}

func TestLoopDispatcherReturnsErrorAfterStop(t *testing.T) {
	b := newTestBot(t, nil)
	close(b.stopCh)
	d := &loopDispatcher{bot: b}

	resp := d.Exec(transport.Request{Command: "server-list"})
	if !resp.IsError {
		t.Fatal("expected an error response once the bot has stopped")
	}
}

func TestSplitMaskParsesNickUserHost(t *testing.T) {
	m := splitMask("alice!bob@example.org")
	if m.nick != "alice" || m.user != "bob" || m.host != "example.org" {
		t.Fatalf("unexpected split: %+v", m)
	}
	bare := splitMask("alice")
	if bare.nick != "alice" || bare.user != "" || bare.host != "" {
		t.Fatalf("unexpected split for bare nick: %+v", bare)
	}
}

func TestEventNameTranslatesKinds(t *testing.T) {
	cases := map[ircnet.Kind]string{
		ircnet.KindMessage: "onMessage",
		ircnet.KindJoin:    "onJoin",
		ircnet.KindCommand: "onCommand",
	}
	for k, want := range cases {
		if got := eventName(k); got != want {
			t.Fatalf("eventName(%q) = %q, want %q", k, got, want)
		}
	}
}
