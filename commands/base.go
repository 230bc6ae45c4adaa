// Package commands holds the stock commands of the interpreter.
package commands

import (
	"fmt"
	"io"
	"sort"

	"github.com/josephlewis42/iocsh/core/shell"
	getopt "github.com/pborman/getopt/v2"
)

// Command is a definition and its implementation.
type Command struct {
	Def  shell.FuncDef
	Func shell.Func
}

// AllCommands holds every stock command keyed by name.
var AllCommands = make(map[string]Command)

// addCmd adds a stock command.
func addCmd(def shell.FuncDef, fn shell.Func) {
	AllCommands[def.Name] = Command{Def: def, Func: fn}
}

// ListCommands returns the stock commands sorted by name.
func ListCommands() []Command {
	var out []Command
	for _, cmd := range AllCommands {
		out = append(out, cmd)
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].Def.Name < out[j].Def.Name
	})
	return out
}

// Register installs every stock command in t.
func Register(t *shell.Table) error {
	for _, cmd := range ListCommands() {
		if err := t.Register(cmd.Def, cmd.Func); err != nil {
			return fmt.Errorf("registering %s: %w", cmd.Def.Name, err)
		}
	}
	return nil
}

// SimpleCommand parses POSIX style flags for commands that take an argv.
type SimpleCommand struct {
	// Use holds a one line usage string
	Use string
	// Short holds a one line description of the command.
	Short string
	// ShowHelp sets whether help is displayed or not.
	// If this is non-nil when Run() is called, then the default help flag isn't
	// added.
	ShowHelp *bool

	flags *getopt.Set
}

// Flags gets the command's flag set.
func (s *SimpleCommand) Flags() *getopt.Set {
	if s.flags == nil {
		s.flags = getopt.New()
	}

	return s.flags
}

// PrintHelp writes help for the command to the given writer.
func (s *SimpleCommand) PrintHelp(w io.Writer) {
	fmt.Fprint(w, "usage: ")
	fmt.Fprintln(w, s.Use)
	fmt.Fprintln(w, s.Short)
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Flags:")
	s.Flags().PrintOptions(w)
}

// Run parses argv and calls callback if flag parsing was successful. Parse
// failures are reported on the shell's streams and mark the line as failed.
func (s *SimpleCommand) Run(sh *shell.Shell, argv []string, callback func() error) error {
	opts := s.Flags()

	// Add help flag if not overridden.
	if s.ShowHelp == nil {
		s.ShowHelp = opts.BoolLong("help", 'h', "show this help and exit")
	}

	if err := opts.Getopt(argv, nil); err != nil {
		sh.Events().InvalidInvocation(argv, err)
		fmt.Fprintf(sh.Stderr(), "error: %s\n\n", err)

		s.PrintHelp(sh.Stdout())
		sh.MarkError(true)
		return nil
	}

	if *s.ShowHelp {
		s.PrintHelp(sh.Stdout())
		return nil
	}

	return callback()
}
