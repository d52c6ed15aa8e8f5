package command

import (
	"github.com/nullbyte-dev/irccd/internal/errcat"
	"github.com/nullbyte-dev/irccd/internal/rule"
	"github.com/nullbyte-dev/irccd/internal/transport"
)

func ruleHandlers() map[string]func(Deps, transport.Request) transport.Response {
	return map[string]func(Deps, transport.Request) transport.Response{
		"rule-list":   handleRuleList,
		"rule-info":   handleRuleInfo,
		"rule-add":    handleRuleAdd,
		"rule-edit":   handleRuleEdit,
		"rule-remove": handleRuleRemove,
		"rule-move":   handleRuleMove,
	}
}

// ruleFields renders a rule.Rule into the SPEC_FULL §4 object shape
// (servers, channels, origins, plugins, events, action, index),
// restoring the original's rule_edit_command.cpp/rule_service.cpp
// full-object response instead of a bare action string.
func ruleFields(r rule.Rule, index int) map[string]interface{} {
	return map[string]interface{}{
		"servers":  r.Servers.Items(),
		"channels": r.Channels.Items(),
		"origins":  r.Origins.Items(),
		"plugins":  r.Plugins.Items(),
		"events":   r.Events.Items(),
		"action":   string(r.Action),
		"index":    index,
	}
}

func handleRuleList(d Deps, req transport.Request) transport.Response {
	rules := d.Rules.List()
	list := make([]interface{}, len(rules))
	for i, r := range rules {
		list[i] = ruleFields(r, i)
	}
	return transport.OK(req.Command, map[string]interface{}{"list": list})
}

func requireIndex(req transport.Request, key string) (int, *transport.Response) {
	n, ok := number(req.Fields, key)
	if !ok {
		r := errResp(req, errcat.New(errcat.Rule, errcat.RuleInvalidIndex, "missing %s", key))
		return 0, &r
	}
	return int(n), nil
}

func handleRuleInfo(d Deps, req transport.Request) transport.Response {
	index, errR := requireIndex(req, "index")
	if errR != nil {
		return *errR
	}
	r, err := d.Rules.Info(index)
	if err != nil {
		return errFromAny(req, err, errcat.Rule, errcat.RuleInvalidIndex)
	}
	return transport.OK(req.Command, ruleFields(r, index))
}

func handleRuleAdd(d Deps, req transport.Request) transport.Response {
	action, ok := str(req.Fields, "action")
	if !ok {
		return errResp(req, errcat.New(errcat.Rule, errcat.RuleInvalidAction, "missing action"))
	}
	r := rule.Rule{
		Servers:  rule.NewSet(stringList(req.Fields, "servers")),
		Channels: rule.NewSet(stringList(req.Fields, "channels")),
		Origins:  rule.NewSet(stringList(req.Fields, "origins")),
		Plugins:  rule.NewSet(stringList(req.Fields, "plugins")),
		Events:   rule.NewSet(stringList(req.Fields, "events")),
		Action:   rule.Action(action),
	}
	index := -1
	if n, ok := number(req.Fields, "index"); ok {
		index = int(n)
	}
	if _, err := d.Rules.Add(r, index); err != nil {
		return errFromAny(req, err, errcat.Rule, errcat.RuleInvalidAction)
	}
	return transport.OK(req.Command, nil)
}

func handleRuleEdit(d Deps, req transport.Request) transport.Response {
	index, errR := requireIndex(req, "index")
	if errR != nil {
		return *errR
	}
	ed := rule.Edit{
		AddServers:     stringList(req.Fields, "add-servers"),
		RemoveServers:  stringList(req.Fields, "remove-servers"),
		AddChannels:    stringList(req.Fields, "add-channels"),
		RemoveChannels: stringList(req.Fields, "remove-channels"),
		AddOrigins:     stringList(req.Fields, "add-origins"),
		RemoveOrigins:  stringList(req.Fields, "remove-origins"),
		AddPlugins:     stringList(req.Fields, "add-plugins"),
		RemovePlugins:  stringList(req.Fields, "remove-plugins"),
		AddEvents:      stringList(req.Fields, "add-events"),
		RemoveEvents:   stringList(req.Fields, "remove-events"),
	}
	if action, ok := str(req.Fields, "action"); ok {
		a := rule.Action(action)
		ed.Action = &a
	}
	if err := d.Rules.Edit(index, ed); err != nil {
		return errFromAny(req, err, errcat.Rule, errcat.RuleInvalidIndex)
	}
	return transport.OK(req.Command, nil)
}

func handleRuleRemove(d Deps, req transport.Request) transport.Response {
	index, errR := requireIndex(req, "index")
	if errR != nil {
		return *errR
	}
	if err := d.Rules.Remove(index); err != nil {
		return errFromAny(req, err, errcat.Rule, errcat.RuleInvalidIndex)
	}
	return transport.OK(req.Command, nil)
}

func handleRuleMove(d Deps, req transport.Request) transport.Response {
	from, errR := requireIndex(req, "from")
	if errR != nil {
		return *errR
	}
	to, errR := requireIndex(req, "to")
	if errR != nil {
		return *errR
	}
	if err := d.Rules.Move(from, to); err != nil {
		return errFromAny(req, err, errcat.Rule, errcat.RuleInvalidIndex)
	}
	return transport.OK(req.Command, nil)
}
