// Package ttylog records interactive console sessions and plays them back.
package ttylog

import "time"

// FD identifies the stream an event was seen on.
type FD int

const (
	FDStdin FD = iota
	FDStdout
	FDStderr
)

func (fd FD) String() string {
	switch fd {
	case FDStdin:
		return "stdin"
	case FDStdout:
		return "stdout"
	case FDStderr:
		return "stderr"
	default:
		return "unknown"
	}
}

// Entry is a single recorded event, either data on a stream or, when Closed
// is set, the end of the session.
type Entry struct {
	TimestampMicros int64
	Fd              FD
	Data            []byte
	Closed          bool
}

// Time returns the time the event happened.
func (e *Entry) Time() time.Time {
	return time.UnixMicro(e.TimestampMicros)
}
