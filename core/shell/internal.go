package shell

import (
	"fmt"
	"io"
	"strconv"
	"strings"
)

const onUsage = "Usage: on error [continue | break | halt | wait <delay>]"

var varFuncDef = FuncDef{
	Name: "var",
	Args: []ArgDef{
		{Name: "[variable", Type: ArgString},
		{Name: "[value]]", Type: ArgString},
	},
	Usage: "Print all, print single variable or set value to single variable\n" +
		"  (default) - print all variables and their values defined in database definitions files\n" +
		"  variable  - if only parameter print value for this variable\n" +
		"  value     - set the value to variable\n",
}

func registerInternal(t *Table) {
	t.MustRegister(FuncDef{
		Name: "#",
		Args: []ArgDef{{Name: "newline-terminated comment", Type: ArgArgv}},
	}, func(*Shell, Args) error { return nil })

	t.MustRegister(FuncDef{
		Name:  "exit",
		Usage: "Return to caller.\n",
	}, func(*Shell, Args) error { return nil })

	t.MustRegister(FuncDef{
		Name: "help",
		Args: []ArgDef{{Name: "[command ...]", Type: ArgArgv}},
		Usage: "With no arguments, list available command names.\n" +
			"With arguments, list arguments and usage for command(s).\n" +
			"Command names may contain wildcards\n",
	}, help)

	t.MustRegister(FuncDef{
		Name: "iocshCmd",
		Args: []ArgDef{{Name: "command", Type: ArgString}},
		Usage: "Takes a single shell command and executes it\n" +
			"  * Stops at the first error, like 'on error break'\n",
	}, func(s *Shell, args Args) error {
		cmd, ok := args.String(0)
		if !ok {
			return nil
		}
		s.MarkError(s.Run(s.Context(), cmd, "") != nil)
		return nil
	})

	t.MustRegister(FuncDef{
		Name: "iocshLoad",
		Args: []ArgDef{
			{Name: "pathname", Type: ArgStringPath},
			{Name: "macros", Type: ArgString},
		},
		Usage: "Execute shell commands provided in file from first parameter\n" +
			"  * (optional) replace macros within the file with provided values\n",
	}, func(s *Shell, args Args) error {
		path, _ := args.String(0)
		macros, _ := args.String(1)
		errored, err := s.load(s.Context(), path, macros)
		s.MarkError(errored || err != nil)
		return nil
	})

	t.MustRegister(FuncDef{
		Name: "iocshRun",
		Args: []ArgDef{
			{Name: "command", Type: ArgString},
			{Name: "macros", Type: ArgString},
		},
		Usage: "Takes a single shell command, replaces macros and executes it\n" +
			"  * Stops at the first error, like 'on error break'\n",
	}, func(s *Shell, args Args) error {
		cmd, ok := args.String(0)
		if !ok {
			return nil
		}
		macros, _ := args.String(1)
		s.MarkError(s.Run(s.Context(), cmd, macros) != nil)
		return nil
	})

	t.MustRegister(FuncDef{
		Name: "on",
		Args: []ArgDef{{Name: "'error' 'continue' | 'break' | 'wait' [value] | 'halt'", Type: ArgArgv}},
		Usage: "Change shell error handling.\n" +
			"  continue (default) - Ignores error and continue with next commands.\n" +
			"  break - Return to caller without executing futher commands.\n" +
			"  halt - Suspend process.\n" +
			"  wait - stall process for [value] seconds, the continue.\n",
	}, on)
}

func help(s *Shell, args Args) error {
	argv := args.Argv(0)
	w := s.Stdout()

	if len(argv) <= 1 {
		col := 0
		for _, cmd := range s.table.Commands() {
			l := len(cmd.Def.Name)
			if l+col >= 79 {
				fmt.Fprintln(w)
				col = 0
			}
			fmt.Fprint(w, cmd.Def.Name)
			col += l
			if col >= 64 {
				fmt.Fprintln(w)
				col = 0
			} else {
				pad := 16 - col%16
				fmt.Fprint(w, strings.Repeat(" ", pad))
				col += pad
			}
		}
		if col != 0 {
			fmt.Fprintln(w)
		}

		fmt.Fprint(w, "\nType 'help <command>' to see the arguments of <command>.  eg. 'help db*'\n")
		return nil
	}

	commands := s.table.Commands()
	for _, pattern := range argv[1:] {
		for _, cmd := range commands {
			if !globMatch(pattern, cmd.Def.Name) {
				continue
			}
			printUsage(s, w, cmd.Def)
		}
	}
	return nil
}

func printUsage(s *Shell, w io.Writer, def FuncDef) {
	if def.Usage != "" {
		fmt.Fprint(w, "\nUsage: ")
	}
	s.bold.Fprint(w, def.Name)

	for _, arg := range def.Args {
		if arg.Type == ArgArgv || !strings.Contains(arg.Name, " ") {
			fmt.Fprintf(w, " %s", arg.Name)
		} else {
			fmt.Fprintf(w, " '%s'", arg.Name)
		}
	}
	fmt.Fprintln(w)

	if def.Usage != "" {
		fmt.Fprintf(w, "\n%s", def.Usage)
	}
}

func on(s *Shell, args Args) error {
	argv := args.Argv(0)
	sc := s.scope

	switch {
	case sc == nil:
		return nil

	case len(argv) < 3 || argv[1] != "error":
		fmt.Fprintln(s.Stderr(), onUsage)
		return nil

	case sc.interactive:
		fmt.Fprintln(s.Stderr(), "Interactive shell ignores  on error ...")
		return nil
	}

	// Errors before the policy change don't count.
	sc.errored = false

	switch argv[2] {
	case "continue":
		sc.onerr = Continue

	case "break":
		sc.onerr = Break

	case "halt":
		sc.onerr = Halt
		sc.timeout = 0

	case "wait":
		sc.onerr = Halt
		if len(argv) <= 3 {
			fmt.Fprintln(s.Stderr(), onUsage)
			break
		}

		timeout, err := strconv.ParseFloat(argv[3], 64)
		if err != nil {
			fmt.Fprintf(s.Stderr(), "Unable to parse 'on error wait' time %s\n", argv[3])
			timeout = waitFallback
		}
		sc.timeout = timeout

	default:
		fmt.Fprintln(s.Stderr(), onUsage)
		sc.errored = true
	}

	return nil
}

func varCommand(s *Shell, args Args) error {
	name, hasName := args.String(0)
	value, hasValue := args.String(1)

	if !hasValue {
		found := false
		for _, v := range s.table.Variables() {
			if !hasName || globMatch(name, v.Def.Name) {
				printVar(s, v.Def)
				found = true
			}
		}
		if !found && hasName {
			fmt.Fprintf(s.Stderr(), "No var matching %s found.\n", name)
		}
		return nil
	}

	v, ok := s.table.FindVariable(name)
	if !ok {
		fmt.Fprintf(s.Stderr(), "Var %s not found.\n", name)
		return nil
	}
	setVar(s, v.Def, value)
	return nil
}

func printVar(s *Shell, def VarDef) {
	switch storage := def.Storage.(type) {
	case *int:
		fmt.Fprintf(s.Stdout(), "%s = %d\n", def.Name, *storage)
	case *float64:
		fmt.Fprintf(s.Stdout(), "%s = %.6g\n", def.Name, *storage)
	}
}

func setVar(s *Shell, def VarDef, value string) {
	switch storage := def.Storage.(type) {
	case *int:
		v, err := strconv.ParseInt(value, 0, 64)
		if err != nil {
			fmt.Fprintf(s.Stderr(), "Invalid integer value. Var %s not changed.\n", def.Name)
			return
		}
		*storage = int(v)

	case *float64:
		v, err := strconv.ParseFloat(value, 64)
		if err != nil {
			fmt.Fprintf(s.Stderr(), "Invalid double value. Var %s not changed.\n", def.Name)
			return
		}
		*storage = v
	}
}
