package commands

import (
	"fmt"

	"github.com/josephlewis42/iocsh/core/shell"
)

// Cd changes the shell's working directory. Failures are reported but
// don't fail the line.
func Cd(s *shell.Shell, args shell.Args) error {
	dir, ok := args.String(0)
	if !ok || s.Chdir(dir) != nil {
		fmt.Fprintln(s.Stderr(), "Invalid directory path, ignored")
	}
	return nil
}

// Pwd prints the working directory.
func Pwd(s *shell.Shell, args shell.Args) error {
	fmt.Fprintln(s.Stdout(), s.Getwd())
	return nil
}

func init() {
	addCmd(shell.FuncDef{
		Name: "cd",
		Args: []shell.ArgDef{{Name: "directory name", Type: shell.ArgStringPath}},
	}, Cd)

	addCmd(shell.FuncDef{Name: "pwd"}, Pwd)
}
