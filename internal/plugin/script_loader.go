package plugin

import (
	"fmt"
	"os"

	"github.com/dop251/goja"
	"github.com/nullbyte-dev/irccd/internal/ircnet"
	"github.com/nullbyte-dev/irccd/internal/xdgpath"
)

// ScriptLoader runs scripted plugins in-process via goja, exposing
// the fixed host object surface named in spec §9: {Server, Plugin,
// Rule, Timer, Util, Directory, File, System, Unicode, Logger}. The
// scripting language itself is out of scope per spec §1 ("the
// embedded scripting runtime ... its execution semantics are not" in
// scope) — irccd picks JavaScript/goja because that is what the
// original implementation's own script host embeds
// (original_source/libirccd-js), giving this loader a concrete and
// grounded execution semantics even though the spec leaves the choice
// open.
type ScriptLoader struct {
	Exts []string // e.g. {".js"}
	// HostFactory builds the {Server, Plugin, Rule, Timer, Util,
	// Directory, File, System, Unicode, Logger} object surface for one
	// script instance; irccd's bot package supplies this so the
	// plugin package never depends on bot's concrete types.
	HostFactory func(rt *goja.Runtime, pluginID string) error
}

func (l *ScriptLoader) Name() string { return "script" }

func (l *ScriptLoader) Find(id string, searchDirs, exts []string) (string, bool) {
	use := exts
	if len(use) == 0 {
		use = l.Exts
	}
	return findInDirs(id, searchDirs, use)
}

// Open loads the script at path, installs the host object surface,
// runs it once so handle_load/etc can be registered as JS globals,
// and wraps each named global function as a Callbacks entry.
func (l *ScriptLoader) Open(id, path string) (Callbacks, Meta, error) {
	src, err := os.ReadFile(path)
	if err != nil {
		return Callbacks{}, Meta{}, err
	}

	rt := goja.New()
	if l.HostFactory != nil {
		if err := l.HostFactory(rt, id); err != nil {
			return Callbacks{}, Meta{}, err
		}
	}
	if _, err := rt.RunScript(path, string(src)); err != nil {
		return Callbacks{}, Meta{}, fmt.Errorf("running script plugin %s: %w", id, err)
	}

	meta := Meta{}
	for field, dst := range map[string]*string{
		"name": &meta.Name, "author": &meta.Author, "license": &meta.License,
		"summary": &meta.Summary, "version": &meta.Version,
	} {
		if v := rt.Get(field); v != nil && !goja.IsUndefined(v) {
			*dst = v.String()
		}
	}

	callFn := func(name string) func(Host, ircnet.Event) error {
		fnVal := rt.Get(name)
		if fnVal == nil || goja.IsUndefined(fnVal) {
			return nil
		}
		fn, ok := goja.AssertFunction(fnVal)
		if !ok {
			return nil
		}
		return func(host Host, ev ircnet.Event) error {
			_, err := fn(goja.Undefined(), rt.ToValue(ev))
			return err
		}
	}
	callVoid := func(name string) func(Host) error {
		fnVal := rt.Get(name)
		if fnVal == nil || goja.IsUndefined(fnVal) {
			return nil
		}
		fn, ok := goja.AssertFunction(fnVal)
		if !ok {
			return nil
		}
		return func(Host) error {
			_, err := fn(goja.Undefined())
			return err
		}
	}

	cbs := Callbacks{
		Load:       callVoid("handle_load"),
		Unload:     callVoid("handle_unload"),
		Reload:     callVoid("handle_reload"),
		Connect:    callFn("handle_connect"),
		Disconnect: callFn("handle_disconnect"),
		Invite:     callFn("handle_invite"),
		Join:       callFn("handle_join"),
		Kick:       callFn("handle_kick"),
		Message:    callFn("handle_message"),
		Me:         callFn("handle_me"),
		Mode:       callFn("handle_mode"),
		Names:      callFn("handle_names"),
		Nick:       callFn("handle_nick"),
		Notice:     callFn("handle_notice"),
		Part:       callFn("handle_part"),
		Topic:      callFn("handle_topic"),
		Whois:      callFn("handle_whois"),
		Command:    callFn("handle_command"),
	}
	return cbs, meta, nil
}

// InstallHostSurface populates rt's global object with the fixed
// {Server, Plugin, Rule, Timer, Util, Directory, File, System,
// Unicode, Logger} surface (spec §9). paths supplies the plugin's
// resolved filesystem locations for the Directory/File objects.
func InstallHostSurface(rt *goja.Runtime, host Host, paths xdgpath.Dirs) error {
	server := rt.NewObject()
	server.Set("send", func(srv, cmd string, params ...string) { host.Send(srv, cmd, params...) })
	server.Set("message", func(srv, target, text string) { host.Message(srv, target, text) })
	server.Set("notice", func(srv, target, text string) { host.Notice(srv, target, text) })
	if err := rt.Set("Server", server); err != nil {
		return err
	}

	directory := rt.NewObject()
	directory.Set("cache", paths.Cache)
	directory.Set("data", paths.Data)
	directory.Set("config", paths.Config)
	if err := rt.Set("Directory", directory); err != nil {
		return err
	}

	logger := rt.NewObject()
	logger.Set("info", func(msg string) { host.Log().Sugar().Info(msg) })
	logger.Set("warning", func(msg string) { host.Log().Sugar().Warn(msg) })
	logger.Set("debug", func(msg string) { host.Log().Sugar().Debug(msg) })
	if err := rt.Set("Logger", logger); err != nil {
		return err
	}

	// Plugin/Rule/Timer/Util/File/System/Unicode are populated by the
	// bot package's concrete HostFactory (it alone knows the rule
	// engine, timer service and casemapping in scope for this plugin
	// instance); this function only installs the subset that depends
	// solely on the plugin.Host interface.
	return nil
}
