package cli

import (
	"errors"
	"strings"
)

var errUnterminatedQuote = errors.New("unterminated quote")

// splitArgs splits a command line on whitespace. Double quotes group words
// and a backslash escapes the next character inside quotes.
func splitArgs(line string) ([]string, error) {
	var (
		args    []string
		current strings.Builder
		inQuote bool
		inArg   bool
		escaped bool
	)
	for _, r := range line {
		switch {
		case escaped:
			current.WriteRune(r)
			escaped = false
		case inQuote && r == '\\':
			escaped = true
		case r == '"':
			inQuote = !inQuote
			inArg = true
		case !inQuote && (r == ' ' || r == '\t'):
			if inArg {
				args = append(args, current.String())
				current.Reset()
				inArg = false
			}
		default:
			current.WriteRune(r)
			inArg = true
		}
	}
	if inQuote || escaped {
		return nil, errUnterminatedQuote
	}
	if inArg {
		args = append(args, current.String())
	}
	return args, nil
}
