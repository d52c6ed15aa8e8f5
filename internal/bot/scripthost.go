package bot

import (
	"os"
	"strings"
	"time"

	"github.com/dop251/goja"
	"github.com/nullbyte-dev/irccd/internal/plugin"
	"github.com/nullbyte-dev/irccd/internal/rule"
	"github.com/nullbyte-dev/irccd/internal/subst"
	"github.com/nullbyte-dev/irccd/internal/timer"
	"github.com/nullbyte-dev/irccd/internal/xdgpath"
)

// installScriptHost is the plugin.ScriptLoader HostFactory: it lays
// down the Server/Directory/Logger objects shared with every loader
// via plugin.InstallHostSurface, then adds the Plugin/Rule/Timer/Util/
// File/System/Unicode surface that depends on this bot's concrete rule
// engine, timer service and casemapping (spec §9).
func (b *Bot) installScriptHost(rt *goja.Runtime, pluginID string) error {
	host := b.asHost()
	paths := b.pluginPathsFor(pluginID)
	if err := plugin.InstallHostSurface(rt, host, paths); err != nil {
		return err
	}

	if err := installPluginObject(rt, b, pluginID); err != nil {
		return err
	}
	if err := installRuleObject(rt, b); err != nil {
		return err
	}
	if err := installTimerObject(rt, b, pluginID); err != nil {
		return err
	}
	if err := installUtilObject(rt); err != nil {
		return err
	}
	if err := installFileObject(rt, paths); err != nil {
		return err
	}
	if err := installSystemObject(rt); err != nil {
		return err
	}
	return installUnicodeObject(rt)
}

// pluginPathsFor resolves a plugin's cache/data/config directories,
// preferring any override already recorded in the registry (spec §6
// "plugin-paths") and falling back to the XDG default.
func (b *Bot) pluginPathsFor(pluginID string) xdgpath.Dirs {
	defaults := xdgpath.Default(pluginID)
	if overrides, err := b.plugins.Paths(pluginID); err == nil {
		if v := overrides["cache"]; v != "" {
			defaults.Cache = v
		}
		if v := overrides["data"]; v != "" {
			defaults.Data = v
		}
		if v := overrides["config"]; v != "" {
			defaults.Config = v
		}
	}
	return defaults
}

// installPluginObject exposes handle_load-time self-configuration:
// option and template get+set (spec §3 Plugin "options"/"templates"
// namespaces), mirroring jsapi-plugin.c's Plugin.config/
// Plugin.templates getters. Paths are not readable or settable through
// this object; the Directory object exposes them read-only.
func installPluginObject(rt *goja.Runtime, b *Bot, pluginID string) error {
	obj := rt.NewObject()
	obj.Set("setConfig", func(key, value string) { b.plugins.SetOption(pluginID, key, value) })
	obj.Set("config", func(key string) string {
		opts, err := b.plugins.Options(pluginID)
		if err != nil {
			return ""
		}
		return opts[key]
	})
	obj.Set("setTemplate", func(key, value string) { b.plugins.SetTemplate(pluginID, key, value) })
	obj.Set("template", func(key string) string {
		tpls, err := b.plugins.Templates(pluginID)
		if err != nil {
			return ""
		}
		return tpls[key]
	})
	return rt.Set("Plugin", obj)
}

// installRuleObject lets a script-level plugin ask whether it would
// be allowed to act on a given (server, channel, event) tuple without
// needing the control transport (spec §4.5/§9).
func installRuleObject(rt *goja.Runtime, b *Bot) error {
	obj := rt.NewObject()
	obj.Set("solve", func(server, channel, origin, pluginID, event string) bool {
		return b.rules.Solve(rule.Candidate{
			Server: server, Channel: channel, Origin: origin, Plugin: pluginID, Event: event,
		})
	})
	return rt.Set("Rule", obj)
}

// installTimerObject exposes create/start/stop/restart and binds every
// timer this plugin instance creates to its owning plugin id so
// DestroyOwned can sweep them on unload (spec §4.7).
func installTimerObject(rt *goja.Runtime, b *Bot, pluginID string) error {
	obj := rt.NewObject()
	obj.Set("createRepeating", func(delayMs int64, callback func()) map[string]interface{} {
		h, _ := b.timers.CreateRepeating(pluginID, delayMs, callback)
		return timerHandleValue(b, h)
	})
	obj.Set("createOneShot", func(delayMs int64, callback func()) map[string]interface{} {
		h := b.timers.CreateOneShot(pluginID, delayMs, callback)
		return timerHandleValue(b, h)
	})
	return rt.Set("Timer", obj)
}

func timerHandleValue(b *Bot, h timer.Handle) map[string]interface{} {
	return map[string]interface{}{
		"start":   func() { b.timers.StartTimer(h) },
		"stop":    func() { b.timers.StopTimer(h) },
		"restart": func() { b.timers.Restart(h) },
		"destroy": func() { b.timers.Destroy(h) },
	}
}

// installUtilObject exposes format (the subst engine), splituser and
// splithost, matching jsapi-util.c's Util.format/splituser/splithost.
func installUtilObject(rt *goja.Runtime) error {
	obj := rt.NewObject()
	obj.Set("format", func(tpl string, keywords map[string]string) string {
		return subst.Expand(tpl, subst.Context{Keywords: keywords, EnvEnabled: true})
	})
	obj.Set("splituser", func(mask string) string { return splitMask(mask).nick })
	obj.Set("splithost", func(mask string) string { return splitMask(mask).host })
	return rt.Set("Util", obj)
}

type maskParts struct{ nick, user, host string }

// splitMask parses "nick!user@host" (spec §3 "Origin"), tolerating a
// missing user or host segment.
func splitMask(mask string) maskParts {
	nick, rest := mask, ""
	if i := strings.IndexByte(mask, '!'); i >= 0 {
		nick, rest = mask[:i], mask[i+1:]
	}
	user, host := rest, ""
	if i := strings.IndexByte(rest, '@'); i >= 0 {
		user, host = rest[:i], rest[i+1:]
	}
	return maskParts{nick: nick, user: user, host: host}
}

// installFileObject exposes read/write/exists on the standard library
// (spec §9 "File"). The path given is used as is: access is not
// confined to the plugin's cache/data/config directories, and the
// paths argument is not consulted.
func installFileObject(rt *goja.Runtime, paths xdgpath.Dirs) error {
	obj := rt.NewObject()
	obj.Set("read", func(path string) (string, error) {
		b, err := os.ReadFile(path)
		return string(b), err
	})
	obj.Set("write", func(path, content string) error {
		return os.WriteFile(path, []byte(content), 0o644)
	})
	obj.Set("exists", func(path string) bool {
		_, err := os.Stat(path)
		return err == nil
	})
	return rt.Set("File", obj)
}

// installSystemObject exposes the subset of jsapi-system.c's System
// object that has a direct, side-effect-free Go equivalent: env, home,
// name and uptime. exec/popen/sleep/usleep are not wired — letting a
// script-level plugin spawn processes or block the single event loop
// thread would undermine the panic/error containment Dispatch already
// gives native Go plugins (TESTABLE PROPERTY 6), so that capability is
// left to hooks (C7), which already run off-thread with a deadline.
func installSystemObject(rt *goja.Runtime) error {
	started := time.Now()
	obj := rt.NewObject()
	obj.Set("env", func(name string) string { return os.Getenv(name) })
	obj.Set("home", func() string {
		home, _ := os.UserHomeDir()
		return home
	})
	obj.Set("name", func() string { return "irccd" })
	obj.Set("uptime", func() int64 { return int64(time.Since(started).Seconds()) })
	return rt.Set("System", obj)
}

// installUnicodeObject exposes the ASCII-width/case primitives
// jsapi-unicode.c provides to templates and plugins, backed by
// stdlib strings/unicode since Go's rune-aware case folding already
// covers duktape's hand-rolled Unicode tables (spec §9 "Unicode").
func installUnicodeObject(rt *goja.Runtime) error {
	obj := rt.NewObject()
	obj.Set("toUpper", strings.ToUpper)
	obj.Set("toLower", strings.ToLower)
	obj.Set("isSpace", func(s string) bool { return strings.TrimSpace(s) == "" })
	obj.Set("isDigit", func(s string) bool {
		for _, r := range s {
			if r < '0' || r > '9' {
				return false
			}
		}
		return len(s) > 0
	})
	return rt.Set("Unicode", obj)
}

