package commands

import (
	"math"
	"time"

	"github.com/josephlewis42/iocsh/core/shell"
)

// EpicsThreadSleep pauses the shell. The sleep ends early if the invocation
// is cancelled.
func EpicsThreadSleep(s *shell.Shell, args shell.Args) error {
	seconds := args.Double(0)
	if seconds <= 0 {
		return nil
	}

	d := time.Duration(math.MaxInt64)
	if seconds < d.Seconds() {
		d = time.Duration(seconds * float64(time.Second))
	}

	timer := time.NewTimer(d)
	defer timer.Stop()

	ctx := s.Context()
	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func init() {
	addCmd(shell.FuncDef{
		Name: "epicsThreadSleep",
		Args: []shell.ArgDef{{Name: "seconds", Type: shell.ArgDouble}},
	}, EpicsThreadSleep)
}
