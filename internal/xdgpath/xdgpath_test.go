package xdgpath

import (
	"path/filepath"
	"testing"
)

func TestDefaultUsesXDGEnv(t *testing.T) {
	t.Setenv("XDG_CACHE_HOME", "/tmp/xdgcache")
	t.Setenv("XDG_DATA_HOME", "/tmp/xdgdata")
	t.Setenv("XDG_CONFIG_HOME", "/tmp/xdgconfig")

	d := Default("logger")
	if d.Cache != filepath.Join("/tmp/xdgcache", "irccd", "plugin", "logger") {
		t.Errorf("unexpected cache dir: %s", d.Cache)
	}
	if d.Data != filepath.Join("/tmp/xdgdata", "irccd", "plugin", "logger") {
		t.Errorf("unexpected data dir: %s", d.Data)
	}
	if d.Config != filepath.Join("/tmp/xdgconfig", "irccd", "plugin", "logger") {
		t.Errorf("unexpected config dir: %s", d.Config)
	}
}

func TestDefaultFallsBackToHome(t *testing.T) {
	t.Setenv("XDG_CACHE_HOME", "")
	t.Setenv("HOME", "/home/tester")
	d := Default("logger")
	if d.Cache != filepath.Join("/home/tester/.cache", "irccd", "plugin", "logger") {
		t.Errorf("unexpected fallback cache dir: %s", d.Cache)
	}
}
