package command

import (
	"github.com/nullbyte-dev/irccd/internal/errcat"
	"github.com/nullbyte-dev/irccd/internal/transport"
)

func pluginHandlers() map[string]func(Deps, transport.Request) transport.Response {
	return map[string]func(Deps, transport.Request) transport.Response{
		"plugin-list":     handlePluginList,
		"plugin-info":     handlePluginInfo,
		"plugin-load":     handlePluginLoad,
		"plugin-unload":   handlePluginUnload,
		"plugin-reload":   handlePluginReload,
		"plugin-config":   configHandler((*Deps).pluginConfigGet, (*Deps).pluginConfigSet),
		"plugin-template": configHandler((*Deps).pluginTemplateGet, (*Deps).pluginTemplateSet),
		"plugin-paths":    configHandler((*Deps).pluginPathGet, (*Deps).pluginPathSet),
	}
}

func handlePluginList(d Deps, req transport.Request) transport.Response {
	return transport.OK(req.Command, map[string]interface{}{"list": d.Plugins.List()})
}

func requirePluginID(req transport.Request) (string, *transport.Response) {
	id, ok := str(req.Fields, "plugin")
	if !ok || id == "" {
		r := errResp(req, errcat.New(errcat.Plugin, errcat.PluginInvalidIdentifier, "missing plugin"))
		return "", &r
	}
	return id, nil
}

func handlePluginInfo(d Deps, req transport.Request) transport.Response {
	id, errR := requirePluginID(req)
	if errR != nil {
		return *errR
	}
	meta, err := d.Plugins.Info(id)
	if err != nil {
		return errFromAny(req, err, errcat.Plugin, errcat.PluginNotFound)
	}
	return transport.OK(req.Command, map[string]interface{}{
		"name":    meta.Name,
		"author":  meta.Author,
		"license": meta.License,
		"summary": meta.Summary,
		"version": meta.Version,
	})
}

func handlePluginLoad(d Deps, req transport.Request) transport.Response {
	id, errR := requirePluginID(req)
	if errR != nil {
		return *errR
	}
	path, _ := str(req.Fields, "path")
	if err := d.Plugins.Load(d.PluginHost, id, path, d.PluginSearchDirs, d.PluginExts); err != nil {
		return errFromAny(req, err, errcat.Plugin, errcat.PluginExecError)
	}
	return transport.OK(req.Command, nil)
}

func handlePluginUnload(d Deps, req transport.Request) transport.Response {
	id, errR := requirePluginID(req)
	if errR != nil {
		return *errR
	}
	if err := d.Plugins.Unload(d.PluginHost, id); err != nil {
		return errFromAny(req, err, errcat.Plugin, errcat.PluginExecError)
	}
	return transport.OK(req.Command, nil)
}

func handlePluginReload(d Deps, req transport.Request) transport.Response {
	id, errR := requirePluginID(req)
	if errR != nil {
		return *errR
	}
	if err := d.Plugins.Reload(d.PluginHost, id); err != nil {
		return errFromAny(req, err, errcat.Plugin, errcat.PluginExecError)
	}
	return transport.OK(req.Command, nil)
}

// configHandler builds a plugin-config/plugin-template/plugin-paths
// handler from a get/set pair: presence of "value" selects set mode,
// matching plugin_config_command.cpp's exec_set/exec_get split.
func configHandler(
	get func(*Deps, string) (map[string]string, error),
	set func(*Deps, string, string, string) error,
) func(Deps, transport.Request) transport.Response {
	return func(d Deps, req transport.Request) transport.Response {
		id, errR := requirePluginID(req)
		if errR != nil {
			return *errR
		}
		if value, ok := str(req.Fields, "value"); ok {
			variable, ok := str(req.Fields, "variable")
			if !ok || variable == "" {
				return errResp(req, errcat.New(errcat.Plugin, errcat.PluginInvalidIdentifier, "missing variable"))
			}
			if err := set(&d, id, variable, value); err != nil {
				return errFromAny(req, err, errcat.Plugin, errcat.PluginNotFound)
			}
			return transport.OK(req.Command, nil)
		}

		all, err := get(&d, id)
		if err != nil {
			return errFromAny(req, err, errcat.Plugin, errcat.PluginNotFound)
		}
		variables := all
		if variable, ok := str(req.Fields, "variable"); ok && variable != "" {
			variables = map[string]string{variable: all[variable]}
		}
		out := make(map[string]interface{}, len(variables))
		for k, v := range variables {
			out[k] = v
		}
		return transport.OK(req.Command, map[string]interface{}{"variables": out})
	}
}

func (d *Deps) pluginConfigGet(id string) (map[string]string, error)   { return d.Plugins.Options(id) }
func (d *Deps) pluginConfigSet(id, k, v string) error                  { return d.Plugins.SetOption(id, k, v) }
func (d *Deps) pluginTemplateGet(id string) (map[string]string, error) { return d.Plugins.Templates(id) }
func (d *Deps) pluginTemplateSet(id, k, v string) error                { return d.Plugins.SetTemplate(id, k, v) }
func (d *Deps) pluginPathGet(id string) (map[string]string, error)     { return d.Plugins.Paths(id) }
func (d *Deps) pluginPathSet(id, k, v string) error                    { return d.Plugins.SetPath(id, k, v) }
