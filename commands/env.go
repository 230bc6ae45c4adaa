package commands

import (
	"fmt"
	"sort"

	"github.com/josephlewis42/iocsh/core/shell"
)

// EpicsEnvSet sets an environment variable. Any macro of the same name is
// cleared so later lines see the new value.
func EpicsEnvSet(s *shell.Shell, args shell.Args) error {
	name, ok := args.String(0)
	if !ok {
		fmt.Fprintln(s.Stderr(), "Missing environment variable name argument.")
		return nil
	}
	value, ok := args.String(1)
	if !ok {
		fmt.Fprintln(s.Stderr(), "Missing environment variable value argument.")
		return nil
	}

	if err := s.Env().Setenv(name, value); err != nil {
		return err
	}
	s.ClearMacro(name)
	return nil
}

// EpicsEnvUnset removes an environment variable.
func EpicsEnvUnset(s *shell.Shell, args shell.Args) error {
	name, ok := args.String(0)
	if !ok {
		fmt.Fprintln(s.Stderr(), "Missing environment variable name argument.")
		return nil
	}

	if err := s.Env().Unsetenv(name); err != nil {
		return err
	}
	s.ClearMacro(name)
	return nil
}

// EpicsEnvShow prints one or all environment variables.
func EpicsEnvShow(s *shell.Shell, args shell.Args) error {
	w := s.Stdout()

	if name, ok := args.String(0); ok {
		if value, ok := s.Env().LookupEnv(name); ok {
			fmt.Fprintf(w, "%s=%s\n", name, value)
		} else {
			fmt.Fprintf(w, "%s is not an environment variable.\n", name)
		}
		return nil
	}

	env := s.Env().Environ()
	sort.Strings(env)
	for _, envDef := range env {
		fmt.Fprintln(w, envDef)
	}
	return nil
}

func init() {
	addCmd(shell.FuncDef{
		Name: "epicsEnvSet",
		Args: []shell.ArgDef{
			{Name: "name", Type: shell.ArgString},
			{Name: "value", Type: shell.ArgString},
		},
	}, EpicsEnvSet)

	addCmd(shell.FuncDef{
		Name: "epicsEnvUnset",
		Args: []shell.ArgDef{{Name: "name", Type: shell.ArgString}},
	}, EpicsEnvUnset)

	addCmd(shell.FuncDef{
		Name: "epicsEnvShow",
		Args: []shell.ArgDef{{Name: "[name]", Type: shell.ArgString}},
	}, EpicsEnvShow)
}
