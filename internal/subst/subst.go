// Package subst implements irccd's template substitution engine (spec
// §4.2, C2): pure expansion of #{keyword}, ${ENV}, $(shell), @{color}
// and date tokens inside plugin template strings (spec §3 Plugin
// "templates" namespace, spec §4.6 handle_join example).
//
// There is no teacher equivalent for this component (Gopherbot's
// templating is Slack markdown, not IRC attribute escapes); the token
// grammar and precedence below follow spec §4.2 directly, with the
// strftime-style date formatting grounded on github.com/ncruces/go-strftime
// (seen paired with chat/bot daemons in the retrieved pack, e.g.
// haasonsaas-nexus).
package subst

import (
	"os"
	"os/exec"
	"strconv"
	"strings"
	"time"

	"github.com/ncruces/go-strftime"
)

// Context carries everything a template expansion may reference.
type Context struct {
	// Time is used for #{date:FMT} expansion; the zero value means "now".
	Time time.Time
	// Keywords backs #{name} lookups; a missing key expands to "".
	Keywords map[string]string
	// EnvEnabled gates ${NAME} expansion; disabled expands to "".
	EnvEnabled bool
	// ShellEnabled gates $(cmd) expansion. MUST default to false per spec §4.2;
	// only set true for trusted templates that explicitly opt in.
	ShellEnabled bool
	// MaxLen bounds the output; 0 means unbounded. Truncation is silent,
	// per spec §4.2 "output is bounded by the caller's buffer".
	MaxLen int
}

// palette is the fixed IRC mIRC-style color table (spec §4.2).
var palette = map[string]int{
	"white": 0, "black": 1, "blue": 2, "green": 3, "red": 4, "brown": 5,
	"purple": 6, "orange": 7, "yellow": 8, "light-green": 9, "teal": 10,
	"cyan": 11, "light-blue": 12, "pink": 13, "grey": 14, "light-grey": 15,
}

const (
	attrBold      = '\x02'
	attrColor     = '\x03'
	attrItalic    = '\x1D'
	attrUnderline = '\x1F'
	attrReset     = '\x0F'
)

// Expand runs template through the substitution grammar and returns the
// resulting string. Unknown tokens pass through verbatim.
func Expand(template string, ctx Context) string {
	if ctx.Time.IsZero() {
		ctx.Time = time.Now()
	}
	var out strings.Builder
	runes := []rune(template)
	for i := 0; i < len(runes); {
		r := runes[i]
		switch r {
		case '#':
			if consumed, text, ok := expandHash(runes, i, ctx); ok {
				out.WriteString(text)
				i += consumed
				continue
			}
		case '$':
			if consumed, text, ok := expandDollar(runes, i, ctx); ok {
				out.WriteString(text)
				i += consumed
				continue
			}
		case '@':
			if consumed, text, ok := expandAt(runes, i); ok {
				out.WriteString(text)
				i += consumed
				continue
			}
		}
		out.WriteRune(r)
		i++
	}
	result := out.String()
	if ctx.MaxLen > 0 && len(result) > ctx.MaxLen {
		result = result[:ctx.MaxLen]
	}
	return result
}

// expandHash handles "##", "#{name}" and "#{date:FMT}" starting at i.
// Returns how many runes were consumed from the input and the text to emit.
func expandHash(runes []rune, i int, ctx Context) (int, string, bool) {
	if i+1 < len(runes) && runes[i+1] == '#' {
		return 2, "#", true
	}
	if i+1 >= len(runes) || runes[i+1] != '{' {
		return 0, "", false
	}
	end := indexRune(runes, i+2, '}')
	if end < 0 {
		return 0, "", false
	}
	inner := string(runes[i+2 : end])
	consumed := end - i + 1
	if strings.HasPrefix(inner, "date:") {
		layout := strings.TrimPrefix(inner, "date:")
		formatted, err := strftime.Format(layout, ctx.Time)
		if err != nil {
			return consumed, "", true
		}
		return consumed, formatted, true
	}
	value := ctx.Keywords[inner]
	return consumed, value, true
}

// expandDollar handles "$$", "${NAME}" and "$(cmd)" starting at i.
func expandDollar(runes []rune, i int, ctx Context) (int, string, bool) {
	if i+1 < len(runes) && runes[i+1] == '$' {
		return 2, "$", true
	}
	if i+1 < len(runes) && runes[i+1] == '{' {
		end := indexRune(runes, i+2, '}')
		if end < 0 {
			return 0, "", false
		}
		name := string(runes[i+2 : end])
		consumed := end - i + 1
		if !ctx.EnvEnabled {
			return consumed, "", true
		}
		return consumed, os.Getenv(name), true
	}
	if i+1 < len(runes) && runes[i+1] == '(' {
		end := indexRune(runes, i+2, ')')
		if end < 0 {
			return 0, "", false
		}
		cmdline := string(runes[i+2 : end])
		consumed := end - i + 1
		if !ctx.ShellEnabled {
			return consumed, "", true
		}
		out, err := exec.Command("/bin/sh", "-c", cmdline).Output()
		if err != nil {
			return consumed, "", true
		}
		return consumed, strings.TrimRight(string(out), "\n"), true
	}
	return 0, "", false
}

// expandAt handles "@@", "@{fg[,bg]}" and the "@b @i @u @o" attribute
// shorthands starting at i.
func expandAt(runes []rune, i int) (int, string, bool) {
	if i+1 < len(runes) && runes[i+1] == '@' {
		return 2, "@", true
	}
	if i+1 < len(runes) && runes[i+1] == '{' {
		end := indexRune(runes, i+2, '}')
		if end < 0 {
			return 0, "", false
		}
		spec := string(runes[i+2 : end])
		consumed := end - i + 1
		parts := strings.SplitN(spec, ",", 2)
		fg, ok := palette[strings.TrimSpace(parts[0])]
		if !ok {
			return consumed, "", true
		}
		text := string(attrColor) + strconv.Itoa(fg)
		if len(parts) == 2 {
			if bg, ok := palette[strings.TrimSpace(parts[1])]; ok {
				text += "," + strconv.Itoa(bg)
			}
		}
		return consumed, text, true
	}
	if i+1 < len(runes) {
		switch runes[i+1] {
		case 'b':
			return 2, string(attrBold), true
		case 'i':
			return 2, string(attrItalic), true
		case 'u':
			return 2, string(attrUnderline), true
		case 'o':
			return 2, string(attrReset), true
		}
	}
	return 0, "", false
}

func indexRune(runes []rune, from int, target rune) int {
	for i := from; i < len(runes); i++ {
		if runes[i] == target {
			return i
		}
	}
	return -1
}
