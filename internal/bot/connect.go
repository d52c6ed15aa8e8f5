package bot

import (
	"context"
	"time"

	"github.com/nullbyte-dev/irccd/internal/ircnet"
	"go.uber.org/zap"
)

// dialDeadline bounds one connection attempt (spec §4.3 "a dial that
// never completes must not wedge the bot").
const dialDeadline = 30 * time.Second

// dialAndPump attempts to connect conn on its own goroutine, starting
// the event pump on success and scheduling a reconnect on failure, so
// Connect/Reconnect never block the calling command on the network
// (spec §5).
func (b *Bot) dialAndPump(conn *ircnet.Conn) {
	b.wg.Add(1)
	go func() {
		defer b.wg.Done()
		ctx, cancel := context.WithTimeout(context.Background(), dialDeadline)
		defer cancel()
		if err := conn.Dial(ctx); err != nil {
			b.log.Warn("dial failed", zap.String("server", conn.Config().ID), zap.Error(err))
			b.scheduleReconnect(conn)
			return
		}
		b.pump(conn)
	}()
}

// pump forwards one connection's parsed events onto loopCh until the
// connection closes, then synthesizes a disconnect event and either
// schedules a reconnect or leaves the server disconnected, depending
// on its configured auto-reconnect option (spec §4.3).
func (b *Bot) pump(conn *ircnet.Conn) {
	for {
		select {
		case <-b.stopCh:
			return
		case ev, ok := <-conn.Events:
			if !ok {
				return
			}
			b.postEvent(ev)
		case err := <-conn.Closed:
			b.log.Info("connection closed", zap.String("server", conn.Config().ID), zap.Error(err))
			b.postEvent(ircnet.Event{Kind: ircnet.KindDisconnect, Server: conn.Config().ID})
			b.scheduleReconnect(conn)
			return
		}
	}
}

// scheduleReconnect consults the connection's backoff state and
// either re-dials after a delay or leaves it disconnected, per the
// server's AutoReconnect option (spec §4.3, TESTABLE PROPERTY 7).
func (b *Bot) scheduleReconnect(conn *ircnet.Conn) {
	next, delay := conn.Runtime().OnDisconnect(conn.Config().Options.AutoReconnect)
	if next != ircnet.WaitingReconnect {
		return
	}
	time.AfterFunc(delay, func() {
		select {
		case <-b.stopCh:
		default:
			b.dialAndPump(conn)
		}
	})
}

// postEvent hands ev to the loop goroutine, giving up if the bot is
// shutting down.
func (b *Bot) postEvent(ev ircnet.Event) {
	select {
	case b.loopCh <- func(bb *Bot) { bb.handleEvent(ev) }:
	case <-b.stopCh:
	}
}
