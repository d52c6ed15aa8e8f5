package bot

import (
	"github.com/nullbyte-dev/irccd/internal/ircnet"
	"github.com/nullbyte-dev/irccd/internal/rule"
)

// eventName translates an ircnet.Kind into the "onX" string the rule
// engine and hook argv table key events on (spec §4.5/§6), matching
// the convention already fixed by internal/hook.Argv and the rule
// package's own tests — rule.Candidate.Event is never ev.Kind's plain
// lowercase wire name.
func eventName(k ircnet.Kind) string {
	switch k {
	case ircnet.KindConnect:
		return "onConnect"
	case ircnet.KindDisconnect:
		return "onDisconnect"
	case ircnet.KindInvite:
		return "onInvite"
	case ircnet.KindJoin:
		return "onJoin"
	case ircnet.KindKick:
		return "onKick"
	case ircnet.KindMessage:
		return "onMessage"
	case ircnet.KindMe:
		return "onMe"
	case ircnet.KindMode:
		return "onMode"
	case ircnet.KindNames:
		return "onNames"
	case ircnet.KindNick:
		return "onNick"
	case ircnet.KindNotice:
		return "onNotice"
	case ircnet.KindPart:
		return "onPart"
	case ircnet.KindTopic:
		return "onTopic"
	case ircnet.KindWhois:
		return "onWhois"
	case ircnet.KindCommand:
		return "onCommand"
	default:
		return string(k)
	}
}

// handleEvent is the single point every parsed IRC event passes
// through on the loop thread: plugins are dispatched first (rule-gated
// per plugin id), then hooks fire under the pseudo-plugin-id "" (spec
// §4.6 "Hooks fire after rule filtering using the empty plugin id").
func (b *Bot) handleEvent(ev ircnet.Event) {
	cand := rule.Candidate{
		Server:  ev.Server,
		Channel: ev.Channel,
		Origin:  ev.Origin,
		Event:   eventName(ev.Kind),
	}
	allowed := func(pluginID string) bool {
		cand.Plugin = pluginID
		return b.rules.Solve(cand)
	}

	b.plugins.Dispatch(b.asHost(), ev, allowed)

	if allowed("") {
		b.hooks.FireAll(ev)
	}
}
