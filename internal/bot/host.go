package bot

import (
	"github.com/nullbyte-dev/irccd/internal/subst"
	"go.uber.org/zap"
)

// hostHandle is *Bot viewed through the narrow plugin.Host interface
// (Send/Message/Notice/Log). It's a distinct named type, not a method
// set on *Bot itself, because command.ServerManager's Message/Notice
// return an error while plugin.Host's don't — the two interfaces
// can't both be satisfied by the same method name on one type.
type hostHandle Bot

// asHost views b through the plugin.Host interface.
func (b *Bot) asHost() *hostHandle { return (*hostHandle)(b) }

func (h *hostHandle) bot() *Bot { return (*Bot)(h) }

func (h *hostHandle) Send(server, command string, params ...string) {
	conn, ok := h.bot().connByID(server)
	if !ok {
		return
	}
	conn.Send(command, params...)
}

func (h *hostHandle) Message(server, target, text string) {
	conn, ok := h.bot().connByID(server)
	if !ok {
		return
	}
	conn.Message(target, text)
}

func (h *hostHandle) Notice(server, target, text string) {
	conn, ok := h.bot().connByID(server)
	if !ok {
		return
	}
	conn.Notice(target, text)
}

func (h *hostHandle) Log() *zap.Logger { return h.bot().log }

// RenderTemplate expands one of a loaded plugin's templates against
// keywords (spec §4.6 handle_join example: templates are substituted
// via the C2 engine before being sent).
func (h *hostHandle) RenderTemplate(pluginID, name string, keywords map[string]string) (string, error) {
	b := h.bot()
	templates, err := b.plugins.Templates(pluginID)
	if err != nil {
		return "", err
	}
	tpl, ok := templates[name]
	if !ok {
		return "", nil
	}
	return subst.Expand(tpl, subst.Context{Keywords: keywords, EnvEnabled: true}), nil
}
