package command

import (
	"strings"
	"unicode"
)

// freeText commands take the rest of the line verbatim.
var freeText = map[string]bool{"say": true, "do": true, "raw": true}

// ParseLine splits a chat line into a command name and arguments. Lines
// starting with prefix name a command ("/remember ran \"Ran is a fox\"");
// anything else is speech and maps to say. Arguments of say, do and raw are
// kept as one verbatim string; other commands split on spaces with double
// quotes grouping words.
func (d *Dispatcher) ParseLine(line, prefix string) (string, []string) {
	line = strings.TrimSpace(line)
	rest, isCmd := strings.CutPrefix(line, prefix)
	if !isCmd || prefix == "" {
		return "say", []string{line}
	}
	name, tail, _ := strings.Cut(rest, " ")
	tail = strings.TrimSpace(tail)
	full, _ := d.Resolve(name)
	if freeText[full] {
		if tail == "" {
			return full, nil
		}
		return full, []string{tail}
	}
	return full, SplitArgs(tail)
}

// SplitArgs splits s on whitespace, treating "double quoted" runs as one
// argument.
func SplitArgs(s string) []string {
	var (
		args   []string
		cur    strings.Builder
		quoted bool
		inArg  bool
	)
	for _, r := range s {
		switch {
		case r == '"':
			quoted = !quoted
			inArg = true
		case unicode.IsSpace(r) && !quoted:
			if inArg {
				args = append(args, cur.String())
				cur.Reset()
				inArg = false
			}
		default:
			cur.WriteRune(r)
			inArg = true
		}
	}
	if inArg {
		args = append(args, cur.String())
	}
	return args
}
