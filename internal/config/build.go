package config

import (
	"github.com/nullbyte-dev/irccd/internal/hook"
	"github.com/nullbyte-dev/irccd/internal/ircnet"
	"github.com/nullbyte-dev/irccd/internal/rule"
)

// ServerConfigs translates every [server.<id>] table into an ircnet.Config,
// keyed by server id (spec §3 "Server ... identified by a short id").
func (d *Document) ServerConfigs() map[string]ircnet.Config {
	out := make(map[string]ircnet.Config, len(d.Servers))
	for id, s := range d.Servers {
		cfg := ircnet.Config{
			ID:       id,
			Hostname: s.Hostname,
			Port:     s.Port,
			Options: ircnet.Options{
				TLS:           s.TLS,
				TLSVerify:     s.TLSVerify,
				IPv4:          s.IPv4,
				IPv6:          s.IPv6,
				AutoRejoin:    s.AutoRejoin,
				JoinInvite:    s.JoinInvite,
				AutoReconnect: s.AutoReconnect,
			},
			Identity: ircnet.Identity{
				Nickname: s.Nickname,
				Username: s.Username,
				Realname: s.Realname,
				Password: s.Password,
			},
			CTCPVersion: s.CTCPVersion,
			CTCPSource:  s.CTCPSource,
			CommandChar: s.CommandChar,
		}
		if cfg.CommandChar == "" {
			cfg.CommandChar = "!"
		}
		for name, key := range s.Channels {
			cfg.AutoJoin = append(cfg.AutoJoin, ircnet.AutoJoinChannel{Name: name, Key: key})
		}
		out[id] = cfg
	}
	return out
}

// RuleEngine translates the repeated [[rule]] tables into rule.Rule
// values in document order, preserving the ordered evaluation the rule
// engine relies on: it folds from allowed=true and the last matching
// rule's action wins.
func (d *Document) RuleEngine() []rule.Rule {
	out := make([]rule.Rule, 0, len(d.Rules))
	for _, r := range d.Rules {
		out = append(out, rule.Rule{
			Servers:  rule.NewSet(r.Servers),
			Channels: rule.NewSet(r.Channels),
			Origins:  rule.NewSet(r.Origins),
			Plugins:  rule.NewSet(r.Plugins),
			Events:   rule.NewSet(r.Events),
			Action:   rule.Action(r.Action),
		})
	}
	return out
}

// HookList translates the repeated [[hook]] tables into hook.Hook values.
func (d *Document) HookList() []hook.Hook {
	out := make([]hook.Hook, 0, len(d.Hooks))
	for _, h := range d.Hooks {
		out = append(out, hook.Hook{ID: h.ID, Path: h.Path, TimeoutMs: h.TimeoutMs})
	}
	return out
}
