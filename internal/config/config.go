// Package config loads irccd's TOML configuration document into the
// structures internal/bot.New needs (spec §6 "Configuration file
// layout"). BurntSushi/toml is used exactly as lrstanley-girc,
// foxcpp-infinitychat, aarondl-ultimateq and presbrey-pkg configure
// their own IRC stacks (SPEC_FULL §2): the original spec's INI-like
// sections (`[server.<id>]`, `[paths.<plugin>]`, `[templates.<plugin>]`,
// `[plugin.<plugin>]`, repeated `[rule]`, repeated `[hook]`) map onto
// TOML dotted tables and arrays-of-tables with the same section
// identity.
package config

import (
	"fmt"

	"github.com/BurntSushi/toml"
)

// LogsConfig is the [logs] section.
type LogsConfig struct {
	Verbose bool   `toml:"verbose"`
	File    string `toml:"file"`
	Syslog  bool   `toml:"syslog"`
}

// PathsConfig is the base-directory keys of the top-level [paths]
// section. Per-plugin path overrides live under `[paths.<plugin>]`,
// which TOML nests as subtables of this same section — those are
// decoded separately since a Go struct can't mix fixed scalar fields
// with an open set of subtable names.
type PathsConfig struct {
	Cache  string `toml:"cache"`
	Data   string `toml:"data"`
	Config string `toml:"config"`
	Plugin string `toml:"plugin"` // plugin search directory
}

// ServerConfig is one [server.<id>] table.
type ServerConfig struct {
	Hostname      string            `toml:"hostname"`
	Port          int               `toml:"port"`
	TLS           bool              `toml:"tls"`
	TLSVerify     bool              `toml:"tls-verify"`
	IPv4          bool              `toml:"ipv4"`
	IPv6          bool              `toml:"ipv6"`
	AutoRejoin    bool              `toml:"auto-rejoin"`
	JoinInvite    bool              `toml:"join-invite"`
	AutoReconnect bool              `toml:"auto-reconnect"`
	Nickname      string            `toml:"nickname"`
	Username      string            `toml:"username"`
	Realname      string            `toml:"realname"`
	Password      string            `toml:"password"`
	CTCPVersion   string            `toml:"ctcp-version"`
	CTCPSource    string            `toml:"ctcp-source"`
	CommandChar   string            `toml:"command-char"`
	Channels      map[string]string `toml:"channels"` // name -> key ("" if none)
}

// RuleConfig is one [[rule]] array-of-tables entry.
type RuleConfig struct {
	Servers  []string `toml:"servers"`
	Channels []string `toml:"channels"`
	Origins  []string `toml:"origins"`
	Plugins  []string `toml:"plugins"`
	Events   []string `toml:"events"`
	Action   string   `toml:"action"`
}

// HookConfig is one [[hook]] array-of-tables entry. TimeoutMs is
// optional; zero/absent falls back to the hook runner's default kill
// deadline (spec §5, 30s).
type HookConfig struct {
	ID        string `toml:"id"`
	Path      string `toml:"path"`
	TimeoutMs int64  `toml:"timeout_ms"`
}

// TransportConfig is the [transport] section.
type TransportConfig struct {
	Unix     string `toml:"unix"` // Unix socket path, mutually exclusive with Bind
	Bind     string `toml:"bind"` // host:port for TCP
	TLS      bool   `toml:"tls"`
	CertFile string `toml:"cert-file"`
	KeyFile  string `toml:"key-file"`
	Compact  bool   `toml:"compact"` // serve the ASCII variant instead of JSON
}

// Document is the parsed configuration document (spec §6).
type Document struct {
	Logs      LogsConfig              `toml:"logs"`
	Paths     PathsConfig             `toml:"paths"`
	Servers   map[string]ServerConfig `toml:"server"`
	Rules     []RuleConfig            `toml:"rule"`
	Hooks     []HookConfig            `toml:"hook"`
	Transport TransportConfig         `toml:"transport"`

	// PluginOptions, PluginPaths and PluginTemplates are filled in by
	// Load from the raw document, one entry per plugin id, since their
	// key sets are only known once a plugin declares get_options /
	// get_templates / get_paths (spec §4.6) and can't be modeled as a
	// fixed struct.
	PluginPath      map[string]string            `toml:"-"`
	PluginOptions   map[string]map[string]string `toml:"-"`
	PluginTemplates map[string]map[string]string `toml:"-"`
	PluginPaths     map[string]map[string]string `toml:"-"`
}

// Load parses the TOML document at path.
func Load(path string) (*Document, error) {
	var doc Document
	if _, err := toml.DecodeFile(path, &doc); err != nil {
		return nil, fmt.Errorf("loading config %s: %w", path, err)
	}

	// Second pass: pull the dynamic `[plugin.<id>]`, `[templates.<id>]`
	// and `[paths.<id>]` subtables that the typed decode above can't
	// reach, since toml.Primitive doesn't compose with a concrete
	// struct field for an already-named section like [paths].
	var raw struct {
		Plugin    map[string]map[string]interface{} `toml:"plugin"`
		Templates map[string]map[string]string      `toml:"templates"`
		Paths     map[string]toml.Primitive         `toml:"paths"`
	}
	md, err := toml.DecodeFile(path, &raw)
	if err != nil {
		return nil, fmt.Errorf("loading config %s: %w", path, err)
	}

	doc.PluginPath = make(map[string]string)
	doc.PluginOptions = make(map[string]map[string]string)
	for id, tbl := range raw.Plugin {
		opts := make(map[string]string)
		for k, v := range tbl {
			if k == "path" {
				if s, ok := v.(string); ok {
					doc.PluginPath[id] = s
				}
				continue
			}
			opts[k] = fmt.Sprintf("%v", v)
		}
		doc.PluginOptions[id] = opts
	}
	doc.PluginTemplates = raw.Templates

	doc.PluginPaths = make(map[string]map[string]string)
	for key, prim := range raw.Paths {
		if key == "cache" || key == "data" || key == "config" || key == "plugin" {
			continue // these are the base PathsConfig scalar keys, already decoded
		}
		var sub map[string]string
		if err := md.PrimitiveDecode(prim, &sub); err == nil {
			doc.PluginPaths[key] = sub
		}
	}

	return &doc, nil
}
