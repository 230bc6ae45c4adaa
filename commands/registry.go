package commands

import (
	"fmt"

	"github.com/josephlewis42/iocsh/core/shell"
)

// RegistryDump lists every registered command and variable by domain.
func RegistryDump(s *shell.Shell, args shell.Args) error {
	w := s.Stdout()
	for _, cmd := range s.Table().Commands() {
		fmt.Fprintf(w, "%s %s\n", shell.CommandDomain, cmd.Def.Name)
	}
	for _, v := range s.Table().Variables() {
		fmt.Fprintf(w, "%s %s\n", shell.VariableDomain, v.Def.Name)
	}
	return nil
}

func init() {
	addCmd(shell.FuncDef{Name: "registryDump"}, RegistryDump)
}
