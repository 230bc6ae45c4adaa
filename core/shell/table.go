package shell

import (
	"errors"
	"fmt"
	"log"
	"os"
	"path"
	"sort"
	"sync"

	"github.com/josephlewis42/iocsh/core/registry"
)

// Registry domains used by Table.
const (
	CommandDomain  = "commands"
	VariableDomain = "variables"
)

// Command is a registered command definition.
type Command struct {
	Def  FuncDef
	Func Func

	released bool
}

// VarDef describes a variable backed by storage owned by the caller.
// Storage must be an *int for ArgInt or a *float64 for ArgDouble.
type VarDef struct {
	Name    string
	Type    ArgType
	Storage interface{}
}

// Variable is a registered variable definition.
type Variable struct {
	Def VarDef

	released bool
}

// Table holds the command and variable definitions shared by every shell in
// the process. Definitions are kept in name order for enumeration and
// indexed through a registry.Registry for lookup.
type Table struct {
	mu        sync.Mutex
	registry  registry.Registry
	commands  []*Command
	variables []*Variable
	handle    interface{}
	sessions  map[string]*Shell

	// Logger receives registration diagnostics.
	Logger *log.Logger
}

// NewTable creates a table backed by reg with the interpreter's own
// commands registered. If reg is nil an in-memory registry is used.
func NewTable(reg registry.Registry) *Table {
	if reg == nil {
		reg = registry.NewMapRegistry()
	}

	t := &Table{
		registry: reg,
		Logger:   log.New(os.Stderr, "", 0),
	}
	registerInternal(t)
	return t
}

var (
	defaultTable     *Table
	defaultTableOnce sync.Once
)

// DefaultTable returns the process-wide table, creating it on first use.
func DefaultTable() *Table {
	defaultTableOnce.Do(func() {
		defaultTable = NewTable(nil)
	})
	return defaultTable
}

// Register adds a command, replacing any existing command with the same
// name without changing its position.
func (t *Table) Register(def FuncDef, fn Func) error {
	if err := ValidateDef(def); err != nil {
		return err
	}
	if fn == nil {
		return fmt.Errorf("%s: nil command function", def.Name)
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	return t.registerLocked(def, fn)
}

// MustRegister is like Register but panics on failure, for use in init
// functions.
func (t *Table) MustRegister(def FuncDef, fn Func) {
	if err := t.Register(def, fn); err != nil {
		panic(err)
	}
}

func (t *Table) registerLocked(def FuncDef, fn Func) error {
	i := sort.Search(len(t.commands), func(i int) bool {
		return t.commands[i].Def.Name >= def.Name
	})

	if i < len(t.commands) && t.commands[i].Def.Name == def.Name {
		cmd := t.commands[i]
		cmd.Def = def
		cmd.Func = fn
		return nil
	}

	cmd := &Command{Def: def, Func: fn}
	if !t.registry.Add(CommandDomain, def.Name, cmd) {
		t.Logger.Printf("iocshRegister failed to add %s", def.Name)
		return fmt.Errorf("registry rejected command %q", def.Name)
	}

	t.commands = append(t.commands, nil)
	copy(t.commands[i+1:], t.commands[i:])
	t.commands[i] = cmd
	return nil
}

// RegisterVariable adds a variable. The first variable also registers the
// "var" command.
func (t *Table) RegisterVariable(def VarDef) error {
	if def.Name == "" {
		return errors.New("variable name must not be empty")
	}
	switch def.Type {
	case ArgInt:
		if _, ok := def.Storage.(*int); !ok {
			return fmt.Errorf("%s: int variables need *int storage, got %T", def.Name, def.Storage)
		}
	case ArgDouble:
		if _, ok := def.Storage.(*float64); !ok {
			return fmt.Errorf("%s: double variables need *float64 storage, got %T", def.Name, def.Storage)
		}
	default:
		return fmt.Errorf("Can't handle variable %s of type %d.", def.Name, int(def.Type))
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	if len(t.variables) == 0 {
		if err := t.registerLocked(varFuncDef, varCommand); err != nil {
			return err
		}
	}

	i := sort.Search(len(t.variables), func(i int) bool {
		return t.variables[i].Def.Name >= def.Name
	})

	if i < len(t.variables) && t.variables[i].Def.Name == def.Name {
		v := t.variables[i]
		if v.Def.Type != def.Type || v.Def.Storage != def.Storage {
			t.Logger.Printf("Warning: iocshRegisterVariable redefining %s.", def.Name)
		}
		v.Def = def
		return nil
	}

	v := &Variable{Def: def}
	if !t.registry.Add(VariableDomain, def.Name, v) {
		t.Logger.Printf("iocshRegisterVariable failed to add %s.", def.Name)
		return fmt.Errorf("registry rejected variable %q", def.Name)
	}

	t.variables = append(t.variables, nil)
	copy(t.variables[i+1:], t.variables[i:])
	t.variables[i] = v
	return nil
}

// FindCommand looks up a command by exact name.
func (t *Table) FindCommand(name string) (*Command, bool) {
	val, ok := t.registry.Find(CommandDomain, name)
	if !ok {
		return nil, false
	}
	cmd, ok := val.(*Command)
	if !ok {
		return nil, false
	}

	t.mu.Lock()
	defer t.mu.Unlock()
	if cmd.released {
		return nil, false
	}
	return &Command{Def: cmd.Def, Func: cmd.Func}, true
}

// FindVariable looks up a variable by exact name.
func (t *Table) FindVariable(name string) (*Variable, bool) {
	val, ok := t.registry.Find(VariableDomain, name)
	if !ok {
		return nil, false
	}
	v, ok := val.(*Variable)
	if !ok {
		return nil, false
	}

	t.mu.Lock()
	defer t.mu.Unlock()
	if v.released {
		return nil, false
	}
	return &Variable{Def: v.Def}, true
}

// Commands returns a snapshot of the commands in name order.
func (t *Table) Commands() []Command {
	t.mu.Lock()
	defer t.mu.Unlock()

	out := make([]Command, len(t.commands))
	for i, cmd := range t.commands {
		out[i] = Command{Def: cmd.Def, Func: cmd.Func}
	}
	return out
}

// Variables returns a snapshot of the variables in name order.
func (t *Table) Variables() []Variable {
	t.mu.Lock()
	defer t.mu.Unlock()

	out := make([]Variable, len(t.variables))
	for i, v := range t.variables {
		out[i] = Variable{Def: v.Def}
	}
	return out
}

// Match returns the commands whose names match the glob pattern.
func (t *Table) Match(pattern string) []Command {
	var out []Command
	for _, cmd := range t.Commands() {
		if globMatch(pattern, cmd.Def.Name) {
			out = append(out, cmd)
		}
	}
	return out
}

// MatchVariables returns the variables whose names match the glob pattern.
func (t *Table) MatchVariables(pattern string) []Variable {
	var out []Variable
	for _, v := range t.Variables() {
		if globMatch(pattern, v.Def.Name) {
			out = append(out, v)
		}
	}
	return out
}

func globMatch(pattern, name string) bool {
	ok, err := path.Match(pattern, name)
	return err == nil && ok
}

// Clear releases every definition. It's meant for process shutdown and must
// not be called while a shell might still dispatch commands.
func (t *Table) Clear() {
	t.mu.Lock()
	defer t.mu.Unlock()

	for _, cmd := range t.commands {
		cmd.released = true
	}
	for _, v := range t.variables {
		v.released = true
	}
	t.commands = nil
	t.variables = nil
}

// SetHandle sets the external handle bound to ArgHandle arguments.
func (t *Table) SetHandle(handle interface{}) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.handle = handle
}

// Handle gets the external handle bound to ArgHandle arguments.
func (t *Table) Handle() interface{} {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.handle
}

// addSession lists sh under its name, replacing any shell of the same name.
func (t *Table) addSession(sh *Shell) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.sessions == nil {
		t.sessions = make(map[string]*Shell)
	}
	t.sessions[sh.Name()] = sh
}

func (t *Table) removeSession(sh *Shell) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.sessions[sh.Name()] == sh {
		delete(t.sessions, sh.Name())
	}
}

// Session finds a named shell that's running an invocation.
func (t *Table) Session(name string) (*Shell, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()

	sh, ok := t.sessions[name]
	return sh, ok
}

// Sessions returns the named shells running an invocation, sorted by name.
func (t *Table) Sessions() []*Shell {
	t.mu.Lock()
	defer t.mu.Unlock()

	out := make([]*Shell, 0, len(t.sessions))
	for _, sh := range t.sessions {
		out = append(out, sh)
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].Name() < out[j].Name()
	})
	return out
}
