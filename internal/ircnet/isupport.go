package ircnet

import "strings"

// ISupport holds the subset of numeric 005 tokens the bot needs to
// track channels and users (spec §4.3: "at minimum {CHANTYPES, PREFIX,
// CHANMODES, CASEMAPPING, CHARSET}").
type ISupport struct {
	ChanTypes  string            // e.g. "#&"
	Prefix     map[byte]byte     // mode letter -> prefix symbol, e.g. 'o' -> '@'
	PrefixOrd  []byte            // mode letters in descending priority order
	ChanModes  [4]string         // type A,B,C,D mode letters (list, param-always, param-set-only, no-param)
	Casemap    string            // raw CASEMAPPING token, e.g. "rfc1459"
	Charset    string            // raw CHARSET token, e.g. "utf-8"
}

// NewISupport returns defaults used before any 005 line has been seen
// (RFC 1459 channel types and modes, ascii casemapping).
func NewISupport() ISupport {
	return ISupport{
		ChanTypes: "#&",
		Prefix:    map[byte]byte{'o': '@', 'v': '+'},
		PrefixOrd: []byte{'o', 'v'},
		ChanModes: [4]string{"b", "k", "l", "imnpst"},
		Casemap:   "ascii",
	}
}

// ApplyToken parses one ISUPPORT token (e.g. "PREFIX=(ov)@+") and
// mutates is in place. Unknown tokens are ignored.
func (is *ISupport) ApplyToken(tok string) {
	name, value, hasValue := strings.Cut(tok, "=")
	name = strings.ToUpper(name)
	switch name {
	case "CHANTYPES":
		if hasValue {
			is.ChanTypes = value
		}
	case "CASEMAPPING":
		if hasValue {
			is.Casemap = value
		}
	case "CHARSET":
		if hasValue {
			is.Charset = value
		}
	case "CHANMODES":
		if !hasValue {
			return
		}
		parts := strings.SplitN(value, ",", 4)
		for i := 0; i < len(parts) && i < 4; i++ {
			is.ChanModes[i] = parts[i]
		}
	case "PREFIX":
		if !hasValue {
			return
		}
		// format "(modes)symbols"
		if len(value) == 0 || value[0] != '(' {
			return
		}
		close := strings.IndexByte(value, ')')
		if close < 0 {
			return
		}
		modes := value[1:close]
		symbols := value[close+1:]
		if len(modes) != len(symbols) {
			return
		}
		is.Prefix = make(map[byte]byte, len(modes))
		is.PrefixOrd = is.PrefixOrd[:0]
		for i := 0; i < len(modes); i++ {
			is.Prefix[modes[i]] = symbols[i]
			is.PrefixOrd = append(is.PrefixOrd, modes[i])
		}
	}
}

// IsChannel reports whether name begins with one of the server's
// advertised channel type sigils.
func (is ISupport) IsChannel(name string) bool {
	return len(name) > 0 && strings.IndexByte(is.ChanTypes, name[0]) >= 0
}

// PrefixesOf strips leading mode-prefix symbols (e.g. "@+nick" -> "ov",
// "nick") returning the mode letters found, in the order their symbols
// appear in the name, and the bare nickname.
func (is ISupport) PrefixesOf(nameWithPrefix string) (modes []byte, nick string) {
	i := 0
	symToMode := make(map[byte]byte, len(is.Prefix))
	for mode, sym := range is.Prefix {
		symToMode[sym] = mode
	}
	for i < len(nameWithPrefix) {
		mode, ok := symToMode[nameWithPrefix[i]]
		if !ok {
			break
		}
		modes = append(modes, mode)
		i++
	}
	return modes, nameWithPrefix[i:]
}
