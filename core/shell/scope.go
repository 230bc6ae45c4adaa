package shell

import "fmt"

// OnError is the error policy of a non-interactive invocation.
type OnError int

const (
	// Continue ignores errors and carries on with the next line.
	Continue OnError = iota
	// Break stops the invocation and reports failure to the caller.
	Break
	// Halt suspends the invocation, either until it's resumed or for a
	// fixed time after which reading continues.
	Halt
)

func (o OnError) String() string {
	switch o {
	case Continue:
		return "continue"
	case Break:
		return "break"
	case Halt:
		return "halt"
	default:
		return fmt.Sprintf("OnError(%d)", int(o))
	}
}

// scope is the state of one invocation. Scopes form a stack through outer.
type scope struct {
	outer *scope

	onerr OnError
	// timeout is the wait in seconds for Halt, <= 0 waits for Resume.
	timeout     float64
	errored     bool
	interactive bool
}
