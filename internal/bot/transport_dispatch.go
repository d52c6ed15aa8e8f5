package bot

import "github.com/nullbyte-dev/irccd/internal/transport"

// loopDispatcher funnels every control command through the event
// loop, so a server-connect/rule-add/plugin-load/etc mutation is
// serialized against plugin and timer dispatch exactly like an IRC
// event is (spec §5 "commands are synchronous from the client's view,
// but never run concurrently with event/timer dispatch").
type loopDispatcher struct {
	bot *Bot
}

// Exec implements transport.Dispatcher by posting the actual command
// execution onto loopCh and blocking until the loop goroutine runs it.
func (d *loopDispatcher) Exec(req transport.Request) transport.Response {
	result := make(chan transport.Response, 1)
	work := func(b *Bot) { result <- b.commands.Exec(req) }

	select {
	case d.bot.loopCh <- work:
	case <-d.bot.stopCh:
		return transport.Err(req.Command, -1, "bot")
	}

	select {
	case resp := <-result:
		return resp
	case <-d.bot.stopCh:
		return transport.Err(req.Command, -1, "bot")
	}
}
