package shell

import (
	"errors"
	"fmt"
)

// Kind classifies interpreter errors.
type Kind int

const (
	// SyntaxError is raised by the tokenizer and by macro expansion.
	SyntaxError Kind = iota + 1
	// LookupError means the command name isn't registered.
	LookupError
	// TypeError means a token couldn't be converted to its argument type.
	TypeError
	// IOError means a script or redirection target couldn't be opened.
	IOError
	// RuntimeError is an error or panic surfaced by a command.
	RuntimeError
	// ResourceError aborts the whole invocation.
	ResourceError
)

func (k Kind) String() string {
	switch k {
	case SyntaxError:
		return "syntax error"
	case LookupError:
		return "lookup error"
	case TypeError:
		return "type error"
	case IOError:
		return "i/o error"
	case RuntimeError:
		return "runtime error"
	case ResourceError:
		return "resource error"
	default:
		return fmt.Sprintf("Kind(%d)", int(k))
	}
}

var (
	// ErrUnbalancedQuote is returned by Split for unterminated quotes.
	ErrUnbalancedQuote = errors.New("Unbalanced quote.")
	// ErrTrailingBackslash is returned by Split for lines ending in '\'.
	ErrTrailingBackslash = errors.New("Trailing backslash.")
	// ErrIllegalRedirect is returned by Split for redirection operators
	// without a target.
	ErrIllegalRedirect = errors.New("Illegal redirection.")
	// ErrDuplicateRedirect is returned by Split when a descriptor is
	// redirected twice on the same line.
	ErrDuplicateRedirect = errors.New("Duplicate redirection.")
	// ErrEmpty is returned by Split when the line holds only separators.
	ErrEmpty = errors.New("empty line")

	// ErrBreak is returned by an invocation stopped by "on error break".
	ErrBreak = errors.New("iocsh Error: Break")
	// ErrHalt is returned by an invocation stopped by "on error halt" or
	// resumed after "on error wait".
	ErrHalt = errors.New("iocsh Error: Halt")
)

// Error is an error tied to a source location.
type Error struct {
	Kind Kind
	// File is the base name of the script, empty for interactive input and
	// injected commands.
	File string
	// Line is the 1-based line number within File.
	Line int
	Err  error
}

func (e *Error) Error() string {
	if e.File != "" {
		return fmt.Sprintf("%s line %d: %v", e.File, e.Line, e.Err)
	}
	return e.Err.Error()
}

func (e *Error) Unwrap() error {
	return e.Err
}

// KindOf returns the Kind of err, or 0 if it isn't an *Error.
func KindOf(err error) Kind {
	var shellErr *Error
	if errors.As(err, &shellErr) {
		return shellErr.Kind
	}
	return 0
}
