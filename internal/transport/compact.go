package transport

import (
	"fmt"
	"strings"
)

// compactCommands is the fixed subset the ASCII compact protocol
// variant supports (spec §4.8 "Supported subset: server-disconnect,
// server-list, server-message, server-me, server-mode, server-nick,
// server-notice, server-part, server-topic").
var compactCommands = map[string][]string{
	"server-disconnect": {"server"},
	"server-list":       nil,
	"server-message":    {"server", "target", "message"},
	"server-me":         {"server", "target", "message"},
	"server-mode":       {"server", "channel", "mode", "args"},
	"server-nick":       {"server", "nickname"},
	"server-notice":     {"server", "target", "message"},
	"server-part":       {"server", "channel", "reason"},
	"server-topic":      {"server", "channel", "topic"},
}

// decodeCompact parses one space-separated ASCII request line:
// "<command> <arg1> <arg2> ...". The last declared field absorbs any
// remaining tokens verbatim (so a trailing message/reason/topic may
// itself contain spaces), matching how every JSON command's last
// free-text parameter works in spec §6's table.
func decodeCompact(line []byte) (Request, error) {
	fields := strings.Fields(string(line))
	if len(fields) == 0 {
		return Request{}, fmt.Errorf("empty compact request")
	}
	cmd := fields[0]
	names, ok := compactCommands[cmd]
	if !ok {
		return Request{}, fmt.Errorf("unsupported compact command %q", cmd)
	}
	out := make(map[string]interface{}, len(names))
	rest := strings.TrimSpace(strings.TrimPrefix(string(line), cmd))
	for i, name := range names {
		rest = strings.TrimLeft(rest, " ")
		if rest == "" {
			break
		}
		if i == len(names)-1 {
			out[name] = rest
			rest = ""
			break
		}
		tok, remainder, _ := strings.Cut(rest, " ")
		out[name] = tok
		rest = remainder
	}
	return Request{Command: cmd, Fields: out}, nil
}

// encodeCompact renders a Response as "OK ..."/"ERROR ..." (spec §4.8
// "responses start with OK or ERROR; server-list replies with
// OK <ws-separated ids>").
func encodeCompact(r Response) string {
	if r.IsError {
		return fmt.Sprintf("ERROR %s %d", r.ErrCat, r.ErrCode)
	}
	if r.Command == "server-list" {
		if listAny, ok := r.Fields["list"]; ok {
			if list, ok := listAny.([]string); ok {
				return "OK " + strings.Join(list, " ")
			}
		}
	}
	return "OK"
}
