package shell

import (
	"bytes"
	"context"
	"io"
	"log"
	"testing"

	"github.com/josephlewis42/iocsh/core/registry"
	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func commandNames(cmds []Command) []string {
	var out []string
	for _, cmd := range cmds {
		out = append(out, cmd.Def.Name)
	}
	return out
}

func nop(*Shell, Args) error { return nil }

func TestTable_InternalCommands(t *testing.T) {
	table := NewTable(nil)

	assert.Equal(t, []string{"#", "exit", "help", "iocshCmd", "iocshLoad", "iocshRun", "on"}, commandNames(table.Commands()))
	assert.Empty(t, table.Variables())

	_, ok := table.FindCommand("var")
	assert.False(t, ok, "var is only registered with the first variable")
}

func TestTable_Register(t *testing.T) {
	table := NewTable(nil)

	require.NoError(t, table.Register(FuncDef{Name: "dbl"}, nop))
	require.NoError(t, table.Register(FuncDef{Name: "asInit"}, nop))
	require.NoError(t, table.Register(FuncDef{Name: "dbpf"}, nop))

	assert.Equal(t, []string{"#", "asInit", "dbl", "dbpf", "exit", "help", "iocshCmd", "iocshLoad", "iocshRun", "on"}, commandNames(table.Commands()))

	cmd, ok := table.FindCommand("dbl")
	require.True(t, ok)
	assert.Equal(t, "dbl", cmd.Def.Name)

	_, ok = table.FindCommand("db")
	assert.False(t, ok)
}

func TestTable_RegisterReplaces(t *testing.T) {
	table := NewTable(nil)
	var calls []string

	require.NoError(t, table.Register(FuncDef{Name: "dbl"}, func(*Shell, Args) error {
		calls = append(calls, "first")
		return nil
	}))
	require.NoError(t, table.Register(FuncDef{Name: "dbl", Usage: "List records.\n"}, func(*Shell, Args) error {
		calls = append(calls, "second")
		return nil
	}))

	assert.Len(t, table.Match("dbl"), 1)

	cmd, ok := table.FindCommand("dbl")
	require.True(t, ok)
	assert.Equal(t, "List records.\n", cmd.Def.Usage)

	s, _ := newInternalShell(table)
	require.NoError(t, s.Run(context.Background(), "dbl", ""))
	assert.Equal(t, []string{"second"}, calls)
}

func TestTable_RegisterInvalid(t *testing.T) {
	table := NewTable(nil)

	assert.Error(t, table.Register(FuncDef{Name: "x"}, nil))
	assert.Error(t, table.Register(FuncDef{Name: "x", Args: []ArgDef{{"a", ArgArgv}, {"b", ArgInt}}}, nop))
	assert.Panics(t, func() { table.MustRegister(FuncDef{}, nop) })

	_, ok := table.FindCommand("x")
	assert.False(t, ok)
}

func TestTable_SharedRegistry(t *testing.T) {
	reg := registry.NewMapRegistry()
	table := NewTable(reg)

	require.NoError(t, table.Register(FuncDef{Name: "dbl"}, nop))

	val, ok := reg.Find(CommandDomain, "dbl")
	require.True(t, ok)
	assert.IsType(t, &Command{}, val)
	assert.Equal(t, 8, reg.Len(CommandDomain))
}

func TestTable_RegisterVariable(t *testing.T) {
	var logs bytes.Buffer
	table := NewTable(nil)
	table.Logger = log.New(&logs, "", 0)

	debug := 0
	other := 0
	timeout := 1.0

	require.NoError(t, table.RegisterVariable(VarDef{Name: "asCaDebug", Type: ArgInt, Storage: &debug}))

	_, ok := table.FindCommand("var")
	assert.True(t, ok, "the first variable registers var")

	require.NoError(t, table.RegisterVariable(VarDef{Name: "dbTimeout", Type: ArgDouble, Storage: &timeout}))
	assert.Empty(t, logs.String())

	// Same definition, no warning.
	require.NoError(t, table.RegisterVariable(VarDef{Name: "asCaDebug", Type: ArgInt, Storage: &debug}))
	assert.Empty(t, logs.String())

	// Different storage.
	require.NoError(t, table.RegisterVariable(VarDef{Name: "asCaDebug", Type: ArgInt, Storage: &other}))
	assert.Equal(t, "Warning: iocshRegisterVariable redefining asCaDebug.\n", logs.String())

	v, ok := table.FindVariable("asCaDebug")
	require.True(t, ok)
	assert.Same(t, &other, v.Def.Storage)

	assert.Len(t, table.Variables(), 2)
	assert.Len(t, table.MatchVariables("as*"), 1)
}

func TestTable_RegisterVariableInvalid(t *testing.T) {
	table := NewTable(nil)
	n := 0

	cases := map[string]VarDef{
		"no name":         {Type: ArgInt, Storage: &n},
		"wrong storage":   {Name: "x", Type: ArgDouble, Storage: &n},
		"string":          {Name: "x", Type: ArgString, Storage: &n},
		"missing storage": {Name: "x", Type: ArgInt},
	}

	for tn, def := range cases {
		t.Run(tn, func(t *testing.T) {
			assert.Error(t, table.RegisterVariable(def))
		})
	}

	assert.EqualError(t, table.RegisterVariable(VarDef{Name: "x", Type: ArgString, Storage: &n}), "Can't handle variable x of type 2.")
	assert.Empty(t, table.Variables())
}

func TestTable_Match(t *testing.T) {
	table := NewTable(nil)
	for _, name := range []string{"dbl", "dbpf", "dbgf", "asInit"} {
		table.MustRegister(FuncDef{Name: name}, nop)
	}

	assert.Equal(t, []string{"dbgf", "dbl", "dbpf"}, commandNames(table.Match("db*")))
	assert.Equal(t, []string{"dbgf", "dbpf"}, commandNames(table.Match("db?f")))
	assert.Equal(t, []string{"dbgf", "dbpf"}, commandNames(table.Match("db[gp]f")))
	assert.Empty(t, table.Match("[bad"))
}

func TestTable_Clear(t *testing.T) {
	table := NewTable(nil)
	n := 0
	table.MustRegister(FuncDef{Name: "dbl"}, nop)
	require.NoError(t, table.RegisterVariable(VarDef{Name: "asCaDebug", Type: ArgInt, Storage: &n}))

	table.Clear()

	assert.Empty(t, table.Commands())
	assert.Empty(t, table.Variables())

	_, ok := table.FindCommand("dbl")
	assert.False(t, ok)
	_, ok = table.FindVariable("asCaDebug")
	assert.False(t, ok)

	table.MustRegister(FuncDef{Name: "dbl"}, nop)
	_, ok = table.FindCommand("dbl")
	assert.True(t, ok, "commands can be registered again after Clear")
}

func TestTable_Handle(t *testing.T) {
	table := NewTable(nil)
	assert.Nil(t, table.Handle())

	table.SetHandle("pdb")
	assert.Equal(t, "pdb", table.Handle())
}

func TestDefaultTable(t *testing.T) {
	assert.Same(t, DefaultTable(), DefaultTable())
}

func TestTable_Sessions(t *testing.T) {
	table := NewTable(nil)
	var listed []string
	table.MustRegister(FuncDef{Name: "sessions"}, func(s *Shell, args Args) error {
		for _, sh := range s.Table().Sessions() {
			listed = append(listed, sh.Name())
		}
		return nil
	})

	newShell := func(name string) *Shell {
		return New(Options{
			Name:   name,
			Table:  table,
			Fs:     afero.NewMemMapFs(),
			Dir:    "/",
			Stdout: io.Discard,
			Stderr: io.Discard,
		})
	}

	require.NoError(t, newShell("console-1").Run(context.Background(), "sessions", ""))
	require.NoError(t, newShell("").Run(context.Background(), "sessions", ""))

	assert.Equal(t, []string{"console-1"}, listed)
	assert.Empty(t, table.Sessions(), "shells are unlisted when their invocation ends")

	_, ok := table.Session("console-1")
	assert.False(t, ok)
}
