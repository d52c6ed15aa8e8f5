// Package xdgpath resolves default per-plugin storage locations (spec
// §3 Plugin "paths" namespace: cache/data/config) when a plugin does
// not override them, grounded on
// _examples/original_source/libirccd/irccd/xdg.hpp.
package xdgpath

import (
	"os"
	"path/filepath"
)

// Dirs are the three default plugin-scoped directories.
type Dirs struct {
	Cache  string
	Data   string
	Config string
}

// Default returns "<base>/irccd/plugin/<id>" under each of XDG_CACHE_HOME,
// XDG_DATA_HOME and XDG_CONFIG_HOME, falling back to
// $HOME/.cache, $HOME/.local/share and $HOME/.config respectively when
// the environment variable is unset, matching xdg.hpp's search order.
func Default(pluginID string) Dirs {
	return Dirs{
		Cache:  filepath.Join(baseDir("XDG_CACHE_HOME", ".cache"), "irccd", "plugin", pluginID),
		Data:   filepath.Join(baseDir("XDG_DATA_HOME", ".local/share"), "irccd", "plugin", pluginID),
		Config: filepath.Join(baseDir("XDG_CONFIG_HOME", ".config"), "irccd", "plugin", pluginID),
	}
}

func baseDir(envVar, homeFallback string) string {
	if v := os.Getenv(envVar); v != "" {
		return v
	}
	home, err := os.UserHomeDir()
	if err != nil {
		home = "."
	}
	return filepath.Join(home, homeFallback)
}
