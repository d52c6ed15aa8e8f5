package plugin

import (
	"fmt"
	"sync"

	"github.com/nullbyte-dev/irccd/internal/errcat"
	"github.com/nullbyte-dev/irccd/internal/ircnet"
	"go.uber.org/zap"
)

// Registry owns the ordered set of loaded plugins and the loader
// chain used to open them (spec §4.6). Dispatch runs each matching
// plugin's callback to completion before moving to the next, on the
// single event-loop thread (spec §5); a recovered panic or returned
// error is logged and never stops the pipeline (TESTABLE PROPERTY 6).
type Registry struct {
	mu       sync.RWMutex
	order    []string
	byID     map[string]*Plugin
	loaders  []Loader
	basePath string
	log      *zap.Logger
}

// NewRegistry builds an empty Registry. loaders is consulted in order
// when opening a plugin; the first loader whose Open succeeds wins.
func NewRegistry(basePath string, log *zap.Logger, loaders ...Loader) *Registry {
	return &Registry{
		byID:     make(map[string]*Plugin),
		loaders:  loaders,
		basePath: basePath,
		log:      log,
	}
}

// List returns the loaded plugin ids in registration order.
func (r *Registry) List() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]string, len(r.order))
	copy(out, r.order)
	return out
}

// Info returns the loaded plugin's metadata.
func (r *Registry) Info(id string) (Meta, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	p, ok := r.byID[id]
	if !ok {
		return Meta{}, errNotFound(id)
	}
	return p.Meta, nil
}

func (r *Registry) get(id string) (*Plugin, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	p, ok := r.byID[id]
	return p, ok
}

// Load resolves id via the loader chain (path if given, else each
// loader's Find over searchDirs), runs handle_load, and adds the
// plugin to the registry only on success (spec §4.6 "load failure ->
// plugin is not added").
func (r *Registry) Load(host Host, id, path string, searchDirs, exts []string) error {
	if !ValidID(id) {
		return errInvalidID(id)
	}
	r.mu.Lock()
	if _, exists := r.byID[id]; exists {
		r.mu.Unlock()
		return errAlreadyExists(id)
	}
	r.mu.Unlock()

	var (
		cbs  Callbacks
		meta Meta
		err  error
		used Loader
		at   = path
	)
	for _, l := range r.loaders {
		candidate := path
		if candidate == "" {
			resolved, ok := l.Find(id, searchDirs, exts)
			if !ok {
				continue
			}
			candidate = resolved
		}
		cbs, meta, err = l.Open(id, candidate)
		if err == nil {
			used = l
			at = candidate
			break
		}
	}
	if used == nil {
		if err == nil {
			err = fmt.Errorf("no loader could open plugin %q", id)
		}
		return err
	}

	p := &Plugin{ID: id, Meta: meta, Callbacks: cbs, loadedFrom: at, loaderName: used.Name()}
	if cbs.Load != nil {
		if err := r.safeCall(id, "load", func() error { return cbs.Load(host) }); err != nil {
			return err
		}
	}
	r.mu.Lock()
	r.byID[id] = p
	r.order = append(r.order, id)
	r.mu.Unlock()
	return nil
}

// Unload runs handle_unload and removes the plugin regardless of
// whether that call reports an error (spec §4.6 "unload failure is
// reported but the plugin is still removed").
func (r *Registry) Unload(host Host, id string) error {
	p, ok := r.get(id)
	if !ok {
		return errNotFound(id)
	}
	var unloadErr error
	if p.Callbacks.Unload != nil {
		unloadErr = r.safeCall(id, "unload", func() error { return p.Callbacks.Unload(host) })
	}
	r.mu.Lock()
	delete(r.byID, id)
	for i, pid := range r.order {
		if pid == id {
			r.order = append(r.order[:i], r.order[i+1:]...)
			break
		}
	}
	r.mu.Unlock()
	return unloadErr
}

// Reload is load+unload without re-opening (spec §3 "Plugin"
// lifecycle): it calls handle_unload then handle_reload (falling back
// to handle_load when a plugin has no distinct reload hook), keeping
// the existing loaded instance in place.
func (r *Registry) Reload(host Host, id string) error {
	p, ok := r.get(id)
	if !ok {
		return errNotFound(id)
	}
	if p.Callbacks.Unload != nil {
		r.safeCall(id, "unload", func() error { return p.Callbacks.Unload(host) })
	}
	reload := p.Callbacks.Reload
	if reload == nil {
		reload = p.Callbacks.Load
	}
	if reload != nil {
		return r.safeCall(id, "reload", func() error { return reload(host) })
	}
	return nil
}

// safeCall invokes fn, converting any panic into a logged error so one
// bad plugin never takes down the bot or blocks later plugins
// (TESTABLE PROPERTY 6), mirroring the teacher's checkPanic recover
// wrapper around callTask.
func (r *Registry) safeCall(id, hook string, fn func() error) (err error) {
	defer func() {
		if rec := recover(); rec != nil {
			if r.log != nil {
				r.log.Error("plugin callback panicked",
					zap.String("plugin", id), zap.String("hook", hook), zap.Any("recover", rec))
			}
			err = fmt.Errorf("plugin %s: %s panicked: %v", id, hook, rec)
		}
	}()
	if callErr := fn(); callErr != nil {
		if r.log != nil {
			r.log.Warn("plugin callback error",
				zap.String("plugin", id), zap.String("hook", hook), zap.Error(callErr))
		}
		return callErr
	}
	return nil
}

// callbackFor resolves the handle_* func for ev.Kind, or nil when the
// plugin doesn't implement that hook (spec §4.6 "Missing callbacks are
// skipped silently").
func callbackFor(cbs Callbacks, ev ircnet.Event) func(Host, ircnet.Event) error {
	switch ev.Kind {
	case ircnet.KindConnect:
		return cbs.Connect
	case ircnet.KindDisconnect:
		return cbs.Disconnect
	case ircnet.KindInvite:
		return cbs.Invite
	case ircnet.KindJoin:
		return cbs.Join
	case ircnet.KindKick:
		return cbs.Kick
	case ircnet.KindMessage:
		return cbs.Message
	case ircnet.KindMe:
		return cbs.Me
	case ircnet.KindMode:
		return cbs.Mode
	case ircnet.KindNames:
		return cbs.Names
	case ircnet.KindNick:
		return cbs.Nick
	case ircnet.KindNotice:
		return cbs.Notice
	case ircnet.KindPart:
		return cbs.Part
	case ircnet.KindTopic:
		return cbs.Topic
	case ircnet.KindWhois:
		return cbs.Whois
	case ircnet.KindCommand:
		return cbs.Command
	default:
		return nil
	}
}

// Options returns a copy of the loaded plugin's option map (spec §6
// "plugin-config ... variables (get form)").
func (r *Registry) Options(id string) (map[string]string, error) {
	p, ok := r.get(id)
	if !ok {
		return nil, errNotFound(id)
	}
	p.mu.RLock()
	defer p.mu.RUnlock()
	out := make(map[string]string, len(p.Options))
	for k, v := range p.Options {
		out[k] = v
	}
	return out, nil
}

// SetOption sets one option on the loaded plugin (spec §6
// "plugin-config plugin, variable?, value?").
func (r *Registry) SetOption(id, key, value string) error {
	p, ok := r.get(id)
	if !ok {
		return errNotFound(id)
	}
	p.SetOption(key, value)
	return nil
}

// Templates returns a copy of the loaded plugin's template map.
func (r *Registry) Templates(id string) (map[string]string, error) {
	p, ok := r.get(id)
	if !ok {
		return nil, errNotFound(id)
	}
	p.mu.RLock()
	defer p.mu.RUnlock()
	out := make(map[string]string, len(p.Templates))
	for k, v := range p.Templates {
		out[k] = v
	}
	return out, nil
}

// SetTemplate sets one template string on the loaded plugin.
func (r *Registry) SetTemplate(id, key, value string) error {
	p, ok := r.get(id)
	if !ok {
		return errNotFound(id)
	}
	p.SetTemplate(key, value)
	return nil
}

// Paths returns the loaded plugin's cache/data/config directories as
// a variable->value map (spec §6 "plugin-paths plugin, variable?, value?").
func (r *Registry) Paths(id string) (map[string]string, error) {
	p, ok := r.get(id)
	if !ok {
		return nil, errNotFound(id)
	}
	p.mu.RLock()
	defer p.mu.RUnlock()
	return map[string]string{"cache": p.Paths.Cache, "data": p.Paths.Data, "config": p.Paths.Config}, nil
}

// SetPath overrides one of the loaded plugin's cache/data/config
// directories.
func (r *Registry) SetPath(id, variable, value string) error {
	p, ok := r.get(id)
	if !ok {
		return errNotFound(id)
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	switch variable {
	case "cache":
		p.Paths.Cache = value
	case "data":
		p.Paths.Data = value
	case "config":
		p.Paths.Config = value
	default:
		return errcat.New(errcat.Plugin, errcat.PluginInvalidIdentifier, "unknown path variable %q", variable)
	}
	return nil
}

// Dispatch delivers ev to every loaded plugin for which allowed(id)
// is true, in registration order (spec §5 "For a single event,
// plugins are invoked in registration order"). A KindCommand event is
// delivered only to the plugin it names (spec §4.6 handle_command), in
// place of handle_message — but only when that plugin is actually
// loaded; if the command's first word doesn't name a loaded plugin,
// the line is redelivered as an ordinary KindMessage event instead of
// silently dropped (spec §5(c)).
func (r *Registry) Dispatch(host Host, ev ircnet.Event, allowed func(pluginID string) bool) {
	r.mu.RLock()
	order := make([]string, len(r.order))
	copy(order, r.order)
	r.mu.RUnlock()

	if ev.Kind == ircnet.KindCommand && !containsID(order, ev.CommandPlugin) {
		ev = asMessageEvent(ev)
	}

	for _, id := range order {
		if ev.Kind == ircnet.KindCommand && id != ev.CommandPlugin {
			continue
		}
		if !allowed(id) {
			continue
		}
		p, ok := r.get(id)
		if !ok {
			continue
		}
		cb := callbackFor(p.Callbacks, ev)
		if cb == nil {
			continue
		}
		r.safeCall(id, string(ev.Kind), func() error { return cb(host, ev) })
	}
}

func containsID(order []string, id string) bool {
	for _, v := range order {
		if v == id {
			return true
		}
	}
	return false
}

// asMessageEvent strips a KindCommand event's command framing and
// returns the equivalent KindMessage event, for delivery when the
// named command plugin isn't loaded.
func asMessageEvent(ev ircnet.Event) ircnet.Event {
	ev.Kind = ircnet.KindMessage
	ev.CommandPlugin = ""
	ev.CommandArgs = nil
	return ev
}
