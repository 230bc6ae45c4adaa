package commands

import (
	"github.com/josephlewis42/iocsh/core/shell"
)

// Errlog writes a message to the event log without echoing it to the
// console.
func Errlog(s *shell.Shell, args shell.Args) error {
	message, _ := args.String(0)
	s.Events().Errlog(message)
	return nil
}

func init() {
	addCmd(shell.FuncDef{
		Name: "errlog",
		Args: []shell.ArgDef{{Name: "message", Type: shell.ArgString}},
	}, Errlog)
}
