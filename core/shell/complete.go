package shell

import (
	"path/filepath"
	"sort"
	"strings"

	"github.com/abiosoft/readline"
	"github.com/spf13/afero"
)

// Completer completes command names, variable names for "var" and paths for
// path arguments.
type Completer struct {
	shell *Shell
}

var _ readline.AutoCompleter = (*Completer)(nil)

// NewCompleter creates a completer for s.
func NewCompleter(s *Shell) *Completer {
	return &Completer{shell: s}
}

// Do implements readline.AutoCompleter.
func (c *Completer) Do(line []rune, pos int) ([][]rune, int) {
	prefix, candidates := c.Complete(string(line[:pos]))

	var out [][]rune
	for _, candidate := range candidates {
		out = append(out, []rune(strings.TrimPrefix(candidate, prefix)))
	}
	return out, len([]rune(prefix))
}

// Complete returns the word being completed at the end of text and the
// candidates that could replace it. Candidates that finish a word end with a
// space.
func (c *Completer) Complete(text string) (string, []string) {
	parsed, err := Split(text)

	var args []string
	switch {
	case err == nil:
		args = parsed.Args
	case err == ErrEmpty:
	default:
		// Unbalanced quotes and the like can't be completed.
		return "", nil
	}

	prefix := ""
	index := len(args)
	if text != "" && !isSeparator(text[len(text)-1]) && len(args) > 0 {
		prefix = args[len(args)-1]
		index--
	}

	if index == 0 {
		return prefix, c.commands(prefix)
	}

	cmd, ok := c.shell.table.FindCommand(args[0])
	if !ok {
		return prefix, nil
	}

	if cmd.Def.Name == varFuncDef.Name && index == 1 {
		return prefix, c.variables(prefix)
	}

	if index-1 < len(cmd.Def.Args) && cmd.Def.Args[index-1].Type == ArgStringPath {
		return prefix, c.paths(prefix)
	}

	return prefix, nil
}

func (c *Completer) commands(prefix string) []string {
	var out []string
	for _, cmd := range c.shell.table.Commands() {
		if strings.HasPrefix(cmd.Def.Name, prefix) {
			out = append(out, cmd.Def.Name+" ")
		}
	}
	return out
}

func (c *Completer) variables(prefix string) []string {
	var out []string
	for _, v := range c.shell.table.Variables() {
		if strings.HasPrefix(v.Def.Name, prefix) {
			out = append(out, v.Def.Name+" ")
		}
	}
	return out
}

func (c *Completer) paths(prefix string) []string {
	dir, base := filepath.Split(prefix)

	infos, err := afero.ReadDir(c.shell.fs, c.shell.Resolve(dir))
	if err != nil {
		return nil
	}

	var out []string
	for _, info := range infos {
		name := info.Name()
		if !strings.HasPrefix(name, base) {
			continue
		}
		if info.IsDir() {
			out = append(out, dir+name+"/")
		} else {
			out = append(out, dir+name+" ")
		}
	}
	sort.Strings(out)
	return out
}
