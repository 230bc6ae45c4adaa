package cmd

import (
	"context"
	"os"
	"os/signal"
	"strings"

	"github.com/spf13/cobra"
)

var execMacros string

// execCmd runs a single command line.
var execCmd = &cobra.Command{
	Use:   "exec COMMAND [ARG...]",
	Short: "Run a single command line and exit.",
	Long: `Run a single command line and exit.

The arguments are joined with spaces and parsed like a line of a script, so
quoting and redirection work. The exit status is 1 if the line failed.`,
	Example: `  iocsh exec 'epicsEnvShow EPICS_BASE'
  iocsh exec -m 'P=pump1:' 'echo $(P)speed > /tmp/name.txt'`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cmd.SilenceUsage = true

		a, err := newApp(cmd, false)
		if err != nil {
			return err
		}
		defer a.Close()

		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
		defer stop()

		line := strings.Join(args, " ")
		sh := a.newShell(os.Stdin, cmd.OutOrStdout(), cmd.ErrOrStderr())
		sh.Events().SessionStart("exec")

		err = sh.Run(ctx, line, execMacros)
		sh.Events().SessionEnd(err)
		if err != nil {
			cmd.SilenceErrors = true
			return errFailed
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(execCmd)

	execCmd.Flags().StringVarP(&execMacros, "macros", "m", "", "macro definitions for the line")
}
