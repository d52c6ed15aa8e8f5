package plugin

import (
	"testing"

	"github.com/nullbyte-dev/irccd/internal/errcat"
	"github.com/nullbyte-dev/irccd/internal/ircnet"
	"go.uber.org/zap"
)

type fakeHost struct{ sent []string }

func (f *fakeHost) Send(server, command string, params ...string) {
	f.sent = append(f.sent, command)
}
func (f *fakeHost) Message(server, target, text string) {}
func (f *fakeHost) Notice(server, target, text string)  {}
func (f *fakeHost) Log() *zap.Logger                    { return zap.NewNop() }

type fakeLoader struct {
	cbs  Callbacks
	meta Meta
	err  error
}

func (l *fakeLoader) Name() string { return "fake" }
func (l *fakeLoader) Find(id string, searchDirs, exts []string) (string, bool) {
	return id, true
}
func (l *fakeLoader) Open(id, path string) (Callbacks, Meta, error) {
	return l.cbs, l.meta, l.err
}

func TestRegistryLoadAddsPluginOnSuccess(t *testing.T) {
	loaded := false
	loader := &fakeLoader{cbs: Callbacks{Load: func(Host) error { loaded = true; return nil }}, meta: Meta{Name: "Echo"}}
	reg := NewRegistry("", zap.NewNop(), loader)
	if err := reg.Load(&fakeHost{}, "echo", "", nil, nil); err != nil {
		t.Fatal(err)
	}
	if !loaded {
		t.Fatal("expected handle_load to run")
	}
	if len(reg.List()) != 1 || reg.List()[0] != "echo" {
		t.Fatalf("unexpected list: %v", reg.List())
	}
}

func TestRegistryLoadDuplicateID(t *testing.T) {
	loader := &fakeLoader{}
	reg := NewRegistry("", zap.NewNop(), loader)
	reg.Load(&fakeHost{}, "echo", "", nil, nil)
	err := reg.Load(&fakeHost{}, "echo", "", nil, nil)
	ce, ok := err.(*errcat.Error)
	if !ok || ce.Code != errcat.PluginAlreadyExists {
		t.Fatalf("expected already_exists, got %v", err)
	}
}

func TestRegistryLoadInvalidID(t *testing.T) {
	reg := NewRegistry("", zap.NewNop())
	err := reg.Load(&fakeHost{}, "bad id!", "", nil, nil)
	ce, ok := err.(*errcat.Error)
	if !ok || ce.Code != errcat.PluginInvalidIdentifier {
		t.Fatalf("expected invalid_identifier, got %v", err)
	}
}

// TESTABLE PROPERTY 6 — a plugin whose callback panics does not
// prevent subsequent plugins from receiving the same event.
func TestDispatchPluginIsolation(t *testing.T) {
	var secondRan bool
	bad := &fakeLoader{cbs: Callbacks{Join: func(Host, ircnet.Event) error { panic("boom") }}}
	good := &fakeLoader{cbs: Callbacks{Join: func(Host, ircnet.Event) error { secondRan = true; return nil }}}

	reg := NewRegistry("", zap.NewNop())
	reg.loaders = []Loader{bad}
	reg.Load(&fakeHost{}, "bad", "", nil, nil)
	reg.loaders = []Loader{good}
	reg.Load(&fakeHost{}, "good", "", nil, nil)

	reg.Dispatch(&fakeHost{}, ircnet.Event{Kind: ircnet.KindJoin}, func(string) bool { return true })
	if !secondRan {
		t.Fatal("expected second plugin to run despite first panicking")
	}
}

func TestDispatchCommandOnlyTargetsNamedPlugin(t *testing.T) {
	var aRan, bRan bool
	a := &fakeLoader{cbs: Callbacks{Command: func(Host, ircnet.Event) error { aRan = true; return nil }}}
	b := &fakeLoader{cbs: Callbacks{Command: func(Host, ircnet.Event) error { bRan = true; return nil }}}

	reg := NewRegistry("", zap.NewNop())
	reg.loaders = []Loader{a}
	reg.Load(&fakeHost{}, "a", "", nil, nil)
	reg.loaders = []Loader{b}
	reg.Load(&fakeHost{}, "b", "", nil, nil)

	reg.Dispatch(&fakeHost{}, ircnet.Event{Kind: ircnet.KindCommand, CommandPlugin: "b"}, func(string) bool { return true })
	if aRan || !bRan {
		t.Fatalf("expected only b to run, got a=%v b=%v", aRan, bRan)
	}
}

// TESTABLE — SPEC_FULL §5(c): a command line whose first word names no
// loaded plugin falls back to an ordinary handle_message dispatch
// instead of being dropped.
func TestDispatchCommandFallsBackToMessageWhenPluginUnloaded(t *testing.T) {
	var commandRan bool
	var messageRan bool
	var gotKind ircnet.Kind
	a := &fakeLoader{cbs: Callbacks{
		Command: func(Host, ircnet.Event) error { commandRan = true; return nil },
		Message: func(host Host, ev ircnet.Event) error { messageRan = true; gotKind = ev.Kind; return nil },
	}}

	reg := NewRegistry("", zap.NewNop(), a)
	reg.Load(&fakeHost{}, "echo", "", nil, nil)

	ev := ircnet.Event{
		Kind:          ircnet.KindCommand,
		Channel:       "#chan",
		Message:       "!missing arg1 arg2",
		CommandPlugin: "missing",
		CommandArgs:   []string{"arg1", "arg2"},
	}
	reg.Dispatch(&fakeHost{}, ev, func(string) bool { return true })

	if commandRan {
		t.Fatal("handle_command should never run for an unmatched plugin id")
	}
	if !messageRan {
		t.Fatal("expected the fallback to reach handle_message on the loaded plugin")
	}
	if gotKind != ircnet.KindMessage {
		t.Fatalf("expected the redelivered event to be KindMessage, got %v", gotKind)
	}
}

func TestUnloadRemovesEvenOnError(t *testing.T) {
	loader := &fakeLoader{cbs: Callbacks{Unload: func(Host) error { return errcat.New(errcat.Plugin, errcat.PluginExecError, "boom") }}}
	reg := NewRegistry("", zap.NewNop(), loader)
	reg.Load(&fakeHost{}, "x", "", nil, nil)
	_ = reg.Unload(&fakeHost{}, "x")
	if len(reg.List()) != 0 {
		t.Fatal("expected plugin removed despite unload error")
	}
}
