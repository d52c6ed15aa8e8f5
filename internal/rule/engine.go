package rule

import (
	"sync"

	"github.com/nullbyte-dev/irccd/internal/casemap"
	"github.com/nullbyte-dev/irccd/internal/errcat"
)

// Engine owns the ordered rule list and the casemapping lookup used when
// solving a candidate (spec §4.5: "Rule matching and dedup use the
// lowered form" per the matching server's casemapping).
type Engine struct {
	mu        sync.RWMutex
	rules     []Rule
	casemapOf func(server string) (mapping string)
}

// NewEngine builds an empty Engine. casemapOf resolves a server id to its
// current ISUPPORT-declared casemapping string (e.g. "ascii"); when nil,
// ASCII casemapping is assumed for every server.
func NewEngine(casemapOf func(server string) string) *Engine {
	return &Engine{casemapOf: casemapOf}
}

func (e *Engine) mappingFor(server string) casemap.Mapping {
	if e.casemapOf == nil {
		return casemap.ASCII
	}
	return casemap.Parse(e.casemapOf(server))
}

// Solve evaluates the current rule list against cand (spec §4.5).
func (e *Engine) Solve(cand Candidate) bool {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return Solve(e.rules, cand, e.mappingFor(cand.Server))
}

// List returns a copy of the current rules in order.
func (e *Engine) List() []Rule {
	e.mu.RLock()
	defer e.mu.RUnlock()
	out := make([]Rule, len(e.rules))
	copy(out, e.rules)
	return out
}

// Info returns the rule at index.
func (e *Engine) Info(index int) (Rule, error) {
	e.mu.RLock()
	defer e.mu.RUnlock()
	if index < 0 || index >= len(e.rules) {
		return Rule{}, errcat.New(errcat.Rule, errcat.RuleInvalidIndex, "invalid rule index %d", index)
	}
	return e.rules[index], nil
}

// Add appends r at the end, or inserts it at index when index >= 0.
// Inserting at position k shifts every rule originally at j>=k to j+1
// (spec TESTABLE PROPERTY 5).
func (e *Engine) Add(r Rule, index int) (int, error) {
	if r.Action != Accept && r.Action != Drop {
		return 0, errcat.New(errcat.Rule, errcat.RuleInvalidAction, "invalid rule action %q", r.Action)
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	if index < 0 || index > len(e.rules) {
		e.rules = append(e.rules, r)
		return len(e.rules) - 1, nil
	}
	e.rules = append(e.rules, Rule{})
	copy(e.rules[index+1:], e.rules[index:])
	e.rules[index] = r
	return index, nil
}

// Remove deletes the rule at index, shifting every rule originally at
// j>index down to j-1 (spec TESTABLE PROPERTY 5).
func (e *Engine) Remove(index int) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if index < 0 || index >= len(e.rules) {
		return errcat.New(errcat.Rule, errcat.RuleInvalidIndex, "invalid rule index %d", index)
	}
	e.rules = append(e.rules[:index], e.rules[index+1:]...)
	return nil
}

// Move relocates the rule at from to position to, shifting the rules in
// between accordingly.
func (e *Engine) Move(from, to int) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if from < 0 || from >= len(e.rules) {
		return errcat.New(errcat.Rule, errcat.RuleInvalidIndex, "invalid rule index %d", from)
	}
	if to < 0 || to >= len(e.rules) {
		return errcat.New(errcat.Rule, errcat.RuleInvalidIndex, "invalid rule index %d", to)
	}
	r := e.rules[from]
	e.rules = append(e.rules[:from], e.rules[from+1:]...)
	e.rules = append(e.rules, Rule{})
	copy(e.rules[to+1:], e.rules[to:])
	e.rules[to] = r
	return nil
}

// Edit atomically applies a base replacement and then independent
// add/remove lists for each of the five match sets, mirroring the
// original's rule_edit_command.cpp add-X/remove-X verbs (SPEC_FULL §4).
type Edit struct {
	Action        *Action
	AddServers    []string
	RemoveServers []string
	AddChannels   []string
	RemoveChannels []string
	AddOrigins    []string
	RemoveOrigins []string
	AddPlugins    []string
	RemovePlugins []string
	AddEvents     []string
	RemoveEvents  []string
}

func applySetEdit(s Set, add, remove []string) Set {
	out := make(Set, len(s)+len(add))
	for k := range s {
		out[k] = struct{}{}
	}
	for _, a := range add {
		out[a] = struct{}{}
	}
	for _, r := range remove {
		delete(out, r)
	}
	if len(out) == 0 {
		return nil
	}
	return out
}

// Edit mutates the rule at index in place using the given Edit.
func (e *Engine) Edit(index int, ed Edit) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if index < 0 || index >= len(e.rules) {
		return errcat.New(errcat.Rule, errcat.RuleInvalidIndex, "invalid rule index %d", index)
	}
	r := e.rules[index]
	if ed.Action != nil {
		if *ed.Action != Accept && *ed.Action != Drop {
			return errcat.New(errcat.Rule, errcat.RuleInvalidAction, "invalid rule action %q", *ed.Action)
		}
		r.Action = *ed.Action
	}
	r.Servers = applySetEdit(r.Servers, ed.AddServers, ed.RemoveServers)
	r.Channels = applySetEdit(r.Channels, ed.AddChannels, ed.RemoveChannels)
	r.Origins = applySetEdit(r.Origins, ed.AddOrigins, ed.RemoveOrigins)
	r.Plugins = applySetEdit(r.Plugins, ed.AddPlugins, ed.RemovePlugins)
	r.Events = applySetEdit(r.Events, ed.AddEvents, ed.RemoveEvents)
	e.rules[index] = r
	return nil
}

// Clear removes every rule.
func (e *Engine) Clear() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.rules = nil
}
