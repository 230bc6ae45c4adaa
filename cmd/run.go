package cmd

import (
	"context"
	"errors"
	"io"
	"log"
	"os"
	"os/signal"

	"github.com/josephlewis42/iocsh/core/console"
	"github.com/josephlewis42/iocsh/core/shell"
	"github.com/mattn/go-isatty"
	"github.com/spf13/afero"
	"github.com/spf13/cobra"
)

// mainSessionName lists the local shell for epicsThreadShow and
// epicsThreadResume.
const mainSessionName = "_main_"

var (
	runMacros    string
	runNoConsole bool
)

func isTerminal(fd uintptr) bool {
	return isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)
}

// newShell creates an interpreter over the given streams. If stdin is a
// terminal the console gets line editing, completion and history.
func (a *app) newShell(stdin *os.File, stdout, stderr io.Writer) *shell.Shell {
	dir, err := os.Getwd()
	if err != nil {
		dir = "/"
	}

	events := a.events.NewSession()
	opts := shell.Options{
		Name:    mainSessionName,
		Table:   a.table,
		Env:     a.env,
		Fs:      console.NewSessionFs(afero.NewOsFs(), events, false),
		Dir:     dir,
		Stdin:   stdin,
		Stdout:  stdout,
		Stderr:  stderr,
		Events:  events,
		History: a.history,
		Color:   a.color() && isTerminal(os.Stdout.Fd()),
	}

	if isTerminal(stdin.Fd()) {
		opts.Console = shell.ReadlineConsole(
			a.historyLimit(),
			nil,
			func() bool { return true },
			log.New(stderr, "", 0),
		)
	}

	return shell.New(opts)
}

// runCmd runs a startup script followed by the interactive console.
var runCmd = &cobra.Command{
	Use:   "run [SCRIPT]",
	Short: "Run a startup script then the interactive console.",
	Long: `Run a startup script then the interactive console.

The script defaults to startup_script from the configuration. Without a
script the console starts immediately. Input that isn't a terminal is read
line by line without editing.

A script suspended by "on error halt" resumes when the process receives
SIGUSR1.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cmd.SilenceUsage = true

		a, err := newApp(cmd, false)
		if err != nil {
			return err
		}
		defer a.Close()

		script, macros := "", runMacros
		if a.cfg != nil {
			script = a.cfg.StartupScript
			if macros == "" {
				macros = a.cfg.Macros
			}
		}
		if len(args) > 0 {
			script = args[0]
		}

		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
		defer stop()

		sh := a.newShell(os.Stdin, cmd.OutOrStdout(), cmd.ErrOrStderr())
		resumeOnSignal(ctx, sh)
		sh.Events().SessionStart(script)

		if script != "" {
			if err := sh.Load(ctx, script, macros); err != nil {
				sh.Events().SessionEnd(err)
				cmd.SilenceErrors = true
				return errFailed
			}
		}

		if !runNoConsole {
			err = sh.Load(ctx, shell.ConsoleName, "")
		}
		sh.Events().SessionEnd(err)
		if errors.Is(err, context.Canceled) {
			return nil
		}
		return err
	},
}

func init() {
	rootCmd.AddCommand(runCmd)

	runCmd.Flags().StringVarP(&runMacros, "macros", "m", "", "macro definitions for the script, e.g. \"P=pump1:,R=speed\"")
	runCmd.Flags().BoolVar(&runNoConsole, "no-console", false, "exit after the script instead of starting the console")
}
