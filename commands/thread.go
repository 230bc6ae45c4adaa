package commands

import (
	"fmt"
	"strings"

	"github.com/josephlewis42/iocsh/core/shell"
)

// sessionState describes whether a session is suspended by "on error halt".
func sessionState(sh *shell.Shell) string {
	if sh.Halted() {
		return "SUSPENDED"
	}
	return "OK"
}

// EpicsThreadShow lists the named sessions, or the given ones. A leading
// "-level" argument is accepted and ignored.
func EpicsThreadShow(s *shell.Shell, args shell.Args) error {
	names := args.Argv(0)[1:]
	if len(names) > 0 && strings.HasPrefix(names[0], "-") {
		names = names[1:]
	}

	var sessions []*shell.Shell
	if len(names) == 0 {
		sessions = s.Table().Sessions()
	}
	for _, name := range names {
		sh, ok := s.Table().Session(name)
		if !ok {
			fmt.Fprintf(s.Stderr(), "\t'%s' is not a known thread name\n", name)
			continue
		}
		sessions = append(sessions, sh)
	}

	if len(sessions) == 0 {
		return nil
	}

	fmt.Fprintf(s.Stdout(), "%-24s %s\n", "NAME", "STATE")
	for _, sh := range sessions {
		fmt.Fprintf(s.Stdout(), "%-24s %s\n", sh.Name(), sessionState(sh))
	}
	return nil
}

// EpicsThreadResume resumes sessions suspended by "on error halt".
func EpicsThreadResume(s *shell.Shell, args shell.Args) error {
	for _, name := range args.Argv(0)[1:] {
		sh, ok := s.Table().Session(name)
		if !ok {
			fmt.Fprintf(s.Stderr(), "'%s' is not a valid thread name\n", name)
			continue
		}

		if !sh.Resume() {
			fmt.Fprintf(s.Stderr(), "Thread %s is not suspended\n", name)
		}
	}
	return nil
}

func init() {
	addCmd(shell.FuncDef{
		Name: "epicsThreadShow",
		Args: []shell.ArgDef{{Name: "[-level] [thread ...]", Type: shell.ArgArgv}},
		Usage: "List the console sessions and whether they're suspended.\n" +
			"  [-level] - accepted for compatibility\n" +
			"  [thread ...] - session names, all sessions if omitted\n",
	}, EpicsThreadShow)

	addCmd(shell.FuncDef{
		Name: "epicsThreadResume",
		Args: []shell.ArgDef{{Name: "[thread ...]", Type: shell.ArgArgv}},
		Usage: "Resume sessions suspended by 'on error halt'.\n" +
			"  [thread ...] - session names, see epicsThreadShow\n",
	}, EpicsThreadResume)
}
