package shell

import "strings"

// separators split words when they appear outside quotes.
const separators = " \t(),\r"

// Line is a tokenized command line.
type Line struct {
	// Args holds the command name followed by its arguments.
	Args []string
	// Redirects holds the I/O redirections, keyed by descriptor.
	Redirects Redirects
}

func isSeparator(c byte) bool {
	return strings.IndexByte(separators, c) >= 0
}

func isQuote(c byte) bool {
	return c == '"' || c == '\''
}

// Split breaks a line into words and redirections.
//
// Words are separated by spaces, tabs, commas, parentheses and carriage
// returns. Single or double quotes group characters into a single word and
// a backslash outside of quotes makes the next character literal.
//
// Outside of quotes "<NAME" redirects input, ">NAME" and ">>NAME" truncate
// or append output and "N>NAME" or "N>>NAME" redirect descriptor N (1-9).
// Redirections are removed from the word list.
//
// Split never writes diagnostics, callers decide whether to report errors.
// A line containing only separators returns ErrEmpty.
func Split(line string) (*Line, error) {
	out := &Line{Redirects: Redirects{}}

	var (
		word      strings.Builder
		inWord    bool
		quote     byte
		backslash bool
		// pending is a redirection waiting for its target.
		pending *Redirect
		// target is the redirection the current word names, nil for args.
		target *Redirect
	)

	endWord := func() {
		if target != nil {
			target.Name = word.String()
			target = nil
		} else {
			out.Args = append(out.Args, word.String())
		}
		word.Reset()
		inWord = false
	}

	for i := 0; i < len(line); i++ {
		c := line[i]
		sep := quote == 0 && !backslash && isSeparator(c)

		if quote == 0 && !backslash {
			fd := 1
			if c == '\\' {
				backslash = true
				continue
			}
			if c == '<' {
				if pending != nil {
					return nil, ErrIllegalRedirect
				}
				pending = &Redirect{Fd: 0, Mode: ModeRead}
				sep = true
			}
			if c >= '1' && c <= '9' && i+1 < len(line) && line[i+1] == '>' {
				fd = int(c - '0')
				c = '>'
				i++
			}
			if c == '>' {
				if pending != nil {
					return nil, ErrIllegalRedirect
				}
				pending = &Redirect{Fd: fd, Mode: ModeWrite}
				sep = true
				if i+1 < len(line) && line[i+1] == '>' {
					i++
					pending.Mode = ModeAppend
				}
			}
		}

		switch {
		case inWord:
			switch {
			case quote != 0 && c == quote:
				quote = 0
			case quote == 0 && !backslash && sep:
				endWord()
			case quote == 0 && !backslash && isQuote(c):
				quote = c
			default:
				word.WriteByte(c)
			}

		case !sep:
			if isQuote(c) && !backslash {
				quote = c
			}
			if pending != nil {
				if _, ok := out.Redirects[pending.Fd]; ok {
					return nil, ErrDuplicateRedirect
				}
				out.Redirects[pending.Fd] = pending
				target = pending
				pending = nil
			}
			if quote == 0 {
				word.WriteByte(c)
			}
			inWord = true
		}

		backslash = false
	}

	switch {
	case pending != nil:
		return nil, ErrIllegalRedirect
	case quote != 0:
		return nil, ErrUnbalancedQuote
	case backslash:
		return nil, ErrTrailingBackslash
	}

	if inWord {
		endWord()
	}

	if len(out.Args) == 0 && len(out.Redirects) == 0 {
		return nil, ErrEmpty
	}

	return out, nil
}
