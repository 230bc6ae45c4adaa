package commands

import (
	"errors"
	"fmt"
	"strconv"

	"github.com/josephlewis42/iocsh/core/shell"
)

// History prints or clears the persistent command history.
func History(s *shell.Shell, args shell.Args) error {
	cmd := &SimpleCommand{
		Use:   "history [-c] [count]",
		Short: "Display the command history, or the last count entries.",
	}

	opts := cmd.Flags()
	clearHistory := opts.Bool('c', "clear the history")

	return cmd.Run(s, args.Argv(0), func() error {
		store := s.History()
		if store == nil {
			return errors.New("history isn't enabled")
		}

		if *clearHistory {
			return store.Clear()
		}

		limit := 0
		if rest := opts.Args(); len(rest) > 0 {
			n, err := strconv.Atoi(rest[0])
			if err != nil || n < 0 {
				return fmt.Errorf("%s: numeric argument required", rest[0])
			}
			limit = n
		}

		cmds, err := store.Cmds(limit)
		if err != nil {
			return err
		}
		for _, c := range cmds {
			fmt.Fprintf(s.Stdout(), "%5d  %s\n", c.Seq, c.Text)
		}
		return nil
	})
}

func init() {
	addCmd(shell.FuncDef{
		Name: "history",
		Args: []shell.ArgDef{{Name: "[-c] [count]", Type: shell.ArgArgv}},
	}, History)
}
