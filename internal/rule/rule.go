// Package rule implements the accept/drop rule engine (spec §4.5, C5),
// grounded on _examples/original_source/libirccd/irccd/daemon/service/rule_service.cpp
// and command/rule_edit_command.cpp for the add/insert/edit/move semantics.
package rule

import (
	"github.com/nullbyte-dev/irccd/internal/casemap"
)

// Action is the rule's verdict when it matches.
type Action string

const (
	Accept Action = "accept"
	Drop   Action = "drop"
)

// Set is a case-insensitive match set; an empty Set matches everything.
type Set map[string]struct{}

// NewSet builds a Set from a slice of strings.
func NewSet(items []string) Set {
	if len(items) == 0 {
		return nil
	}
	s := make(Set, len(items))
	for _, it := range items {
		s[it] = struct{}{}
	}
	return s
}

// Items returns the set's members in no particular order.
func (s Set) Items() []string {
	out := make([]string, 0, len(s))
	for k := range s {
		out = append(out, k)
	}
	return out
}

// matches reports whether value (already case-folded by the caller) is a
// member of s, or whether s is empty (matches everything).
func (s Set) matches(foldedValue string, fold func(string) string) bool {
	if len(s) == 0 {
		return true
	}
	for member := range s {
		if fold(member) == foldedValue {
			return true
		}
	}
	return false
}

// Rule is one accept/drop filter over (server, channel, origin, plugin,
// event). Rule order is semantically significant: Rules are evaluated in
// slice order and the last match wins (spec §4.5).
type Rule struct {
	Servers  Set
	Channels Set
	Origins  Set
	Plugins  Set
	Events   Set
	Action   Action
}

// Candidate is the tuple a rule is evaluated against.
type Candidate struct {
	Server  string
	Channel string
	Origin  string // full nick!user@host; only the nick part is matched
	Plugin  string
	Event   string
}

func nickPart(origin string) string {
	for i, r := range origin {
		if r == '!' {
			return origin[:i]
		}
	}
	return origin
}

// Matches reports whether r applies to cand, folding channel and origin
// per the server's casemapping (spec §4.5, TESTABLE PROPERTY 2). Server,
// plugin and event names fold under plain ASCII casefolding since they
// aren't IRC protocol strings.
func (r Rule) Matches(cand Candidate, cm casemap.Mapping) bool {
	asciiFold := casemap.ASCII.Fold
	return r.Servers.matches(asciiFold(cand.Server), asciiFold) &&
		r.Channels.matches(cm.Fold(cand.Channel), cm.Fold) &&
		r.Origins.matches(cm.Fold(nickPart(cand.Origin)), cm.Fold) &&
		r.Plugins.matches(asciiFold(cand.Plugin), asciiFold) &&
		r.Events.matches(asciiFold(cand.Event), asciiFold)
}

// Solve folds over rules starting from allowed=true; every matching rule
// sets allowed = (rule.Action == Accept). An empty rule list allows
// everything (spec §4.5, TESTABLE PROPERTY 1).
func Solve(rules []Rule, cand Candidate, cm casemap.Mapping) bool {
	allowed := true
	for _, r := range rules {
		if r.Matches(cand, cm) {
			allowed = r.Action == Accept
		}
	}
	return allowed
}
