package commands

import (
	"fmt"
	"regexp"
	"strconv"

	"github.com/josephlewis42/iocsh/core/shell"
)

var (
	escapeSequence = regexp.MustCompile(`\\(x[0-9a-fA-F]{1,2}|[0-7]{1,3}|[^x0-7])`)
	escapeChars    = map[byte]byte{
		'a':  '\a', // alert
		'b':  '\b', // backspace
		'f':  '\f', // form feed
		'n':  '\n', // newline
		'r':  '\r', // carriage return
		't':  '\t', // horizontal tab
		'v':  '\v', // vertical tab
		'\\': '\\',
		'\'': '\'',
		'"':  '"',
		'?':  '?',
	}
)

// unescape translates C style escape sequences. Unknown escapes produce the
// escaped character.
func unescape(s string) string {
	return escapeSequence.ReplaceAllStringFunc(s, func(seq string) string {
		body := seq[1:]

		switch {
		case body[0] == 'x':
			out, err := strconv.ParseUint(body[1:], 16, 8)
			if err != nil {
				return seq
			}
			return string([]byte{byte(out)})

		case body[0] >= '0' && body[0] <= '7':
			out, err := strconv.ParseUint(body, 8, 16)
			if err != nil {
				return seq
			}
			return string([]byte{byte(out)})

		default:
			if c, ok := escapeChars[body[0]]; ok {
				return string([]byte{c})
			}
			return body
		}
	})
}

// Echo prints its argument after translating escape sequences.
func Echo(s *shell.Shell, args shell.Args) error {
	str, _ := args.String(0)
	fmt.Fprintln(s.Stdout(), unescape(str))
	return nil
}

func init() {
	addCmd(shell.FuncDef{
		Name: "echo",
		Args: []shell.ArgDef{{Name: "string", Type: shell.ArgString}},
	}, Echo)
}
