package cmd

import (
	"fmt"
	"strings"

	"github.com/josephlewis42/iocsh/commands"
	"github.com/josephlewis42/iocsh/core/shell"
	"github.com/spf13/cobra"
)

// commandsCmd lists the registered commands.
var commandsCmd = &cobra.Command{
	Use:   "commands",
	Short: "Show the commands available to scripts and the console.",
	Args:  cobra.ExactArgs(0),
	RunE: func(cmd *cobra.Command, args []string) error {
		table := shell.NewTable(nil)
		if err := commands.Register(table); err != nil {
			return err
		}

		for _, c := range table.Commands() {
			var argNames []string
			for _, arg := range c.Def.Args {
				argNames = append(argNames, arg.Name)
			}
			fmt.Fprintln(cmd.OutOrStdout(), strings.TrimSpace(c.Def.Name+" "+strings.Join(argNames, " ")))
		}

		return nil
	},
}

func init() {
	rootCmd.AddCommand(commandsCmd)
}
