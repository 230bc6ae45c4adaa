package shell

import (
	"errors"
	"fmt"
	"runtime/debug"
	"strconv"
	"strings"
)

// ArgType is the kind of a declared command argument.
type ArgType int

const (
	// ArgInt is a signed integer, values that overflow are parsed as unsigned.
	ArgInt ArgType = iota
	// ArgDouble is a floating point number.
	ArgDouble
	// ArgString is a string that is only valid for the duration of the call.
	ArgString
	// ArgPersistentString is a string the command may keep.
	ArgPersistentString
	// ArgStringRecord is a string that completes as a record name.
	ArgStringRecord
	// ArgStringPath is a string that completes as a file path.
	ArgStringPath
	// ArgArgv binds the remaining tokens together with the one before them,
	// the command name when it's the first argument. It must be the last
	// argument.
	ArgArgv
	// ArgHandle binds the process-wide external handle.
	ArgHandle
)

// HandleName is the symbolic token accepted for ArgHandle arguments.
const HandleName = "pdbbase"

func (t ArgType) String() string {
	switch t {
	case ArgInt:
		return "int"
	case ArgDouble:
		return "double"
	case ArgString:
		return "string"
	case ArgPersistentString:
		return "persistent string"
	case ArgStringRecord:
		return "record name"
	case ArgStringPath:
		return "path"
	case ArgArgv:
		return "argv"
	case ArgHandle:
		return HandleName
	default:
		return fmt.Sprintf("ArgType(%d)", int(t))
	}
}

// ArgDef describes one argument of a command.
type ArgDef struct {
	Name string
	Type ArgType
}

// FuncDef describes a command's signature.
type FuncDef struct {
	Name  string
	Args  []ArgDef
	Usage string
}

// Func is a command implementation. Returned errors and panics are reported
// and mark the current scope as errored.
type Func func(s *Shell, args Args) error

// ValidateDef checks that a definition can be dispatched.
func ValidateDef(def FuncDef) error {
	if def.Name == "" {
		return errors.New("command name must not be empty")
	}
	for i, arg := range def.Args {
		switch arg.Type {
		case ArgInt, ArgDouble, ArgString, ArgPersistentString, ArgStringRecord, ArgStringPath, ArgHandle:
		case ArgArgv:
			if i != len(def.Args)-1 {
				return fmt.Errorf("%s: argv argument %q must be last", def.Name, arg.Name)
			}
		default:
			return fmt.Errorf("%s: illegal argument type %d", def.Name, int(arg.Type))
		}
	}
	return nil
}

// Arg is a single coerced argument: one of IntArg, DoubleArg, StringArg,
// ArgvArg or HandleArg.
type Arg interface {
	isArg()
}

// IntArg holds an ArgInt value.
type IntArg int

// DoubleArg holds an ArgDouble value.
type DoubleArg float64

// StringArg holds the value of the string kinds. Set is false when the
// argument was omitted.
type StringArg struct {
	Value string
	Set   bool
}

// ArgvArg holds the tokens bound by ArgArgv.
type ArgvArg []string

// HandleArg holds the value bound by ArgHandle.
type HandleArg struct {
	Value interface{}
}

func (IntArg) isArg()    {}
func (DoubleArg) isArg() {}
func (StringArg) isArg() {}
func (ArgvArg) isArg()   {}
func (HandleArg) isArg() {}

// Args is the coerced argument list passed to a Func, one entry per ArgDef.
type Args []Arg

func (a Args) get(i int) Arg {
	if i < 0 || i >= len(a) {
		return nil
	}
	return a[i]
}

// Int returns argument i as an integer, 0 if it isn't an IntArg.
func (a Args) Int(i int) int {
	if v, ok := a.get(i).(IntArg); ok {
		return int(v)
	}
	return 0
}

// Double returns argument i as a float, 0 if it isn't a DoubleArg.
func (a Args) Double(i int) float64 {
	if v, ok := a.get(i).(DoubleArg); ok {
		return float64(v)
	}
	return 0
}

// String returns argument i and whether it was supplied.
func (a Args) String(i int) (string, bool) {
	if v, ok := a.get(i).(StringArg); ok {
		return v.Value, v.Set
	}
	return "", false
}

// Argv returns the tokens bound to argument i.
func (a Args) Argv(i int) []string {
	if v, ok := a.get(i).(ArgvArg); ok {
		return []string(v)
	}
	return nil
}

// Handle returns the external handle bound to argument i.
func (a Args) Handle(i int) interface{} {
	if v, ok := a.get(i).(HandleArg); ok {
		return v.Value
	}
	return nil
}

// coerce builds the argument list for def from tokens, where tokens[0] is
// the command name. handle is the current process-wide external handle.
func coerce(def FuncDef, tokens []string, handle interface{}) (Args, error) {
	out := make(Args, 0, len(def.Args))

	for i, argDef := range def.Args {
		pos := i + 1

		if argDef.Type == ArgArgv {
			// Argument i binds tokens[i:], so the first element is the token
			// before the remainder: the command name when i is 0.
			out = append(out, ArgvArg(append([]string(nil), tokens[min(i, len(tokens)):]...)))
			continue
		}

		var tok string
		present := pos < len(tokens)
		if present {
			tok = tokens[pos]
		}

		arg, err := convert(argDef.Type, tok, present, handle)
		if err != nil {
			return nil, err
		}
		out = append(out, arg)
	}

	return out, nil
}

func convert(kind ArgType, tok string, present bool, handle interface{}) (Arg, error) {
	switch kind {
	case ArgInt:
		if tok == "" {
			return IntArg(0), nil
		}
		return parseInt(tok)

	case ArgDouble:
		if tok == "" {
			return DoubleArg(0), nil
		}
		if strings.Contains(tok, "_") {
			return nil, fmt.Errorf("Illegal double '%s'", tok)
		}
		v, err := strconv.ParseFloat(tok, 64)
		if err != nil && !errors.Is(err, strconv.ErrRange) {
			return nil, fmt.Errorf("Illegal double '%s'", tok)
		}
		return DoubleArg(v), nil

	case ArgString, ArgStringRecord, ArgStringPath:
		return StringArg{Value: tok, Set: present}, nil

	case ArgPersistentString:
		return StringArg{Value: strings.Clone(tok), Set: present}, nil

	case ArgHandle:
		if tok == "" || tok[0] == '0' || tok == HandleName {
			if handle == nil {
				return nil, fmt.Errorf("%s not present", HandleName)
			}
			return HandleArg{Value: handle}, nil
		}
		return nil, fmt.Errorf("Expecting '%s' got '%s'", HandleName, tok)

	default:
		return nil, fmt.Errorf("Illegal argument type %d", int(kind))
	}
}

func parseInt(tok string) (Arg, error) {
	if strings.Contains(tok, "_") {
		return nil, fmt.Errorf("Illegal integer '%s'", tok)
	}

	v, err := strconv.ParseInt(tok, 0, 64)
	if errors.Is(err, strconv.ErrRange) {
		u, uerr := strconv.ParseUint(tok, 0, 64)
		if uerr == nil {
			return IntArg(int(u)), nil
		}
		if errors.Is(uerr, strconv.ErrRange) || tok[0] == '-' {
			return nil, fmt.Errorf("Integer '%s' out of range", tok)
		}
		err = uerr
	}
	if err != nil {
		return nil, fmt.Errorf("Illegal integer '%s'", tok)
	}
	return IntArg(int(v)), nil
}

// invoke calls fn, converting panics into errors.
func invoke(s *Shell, fn Func, args Args) (err error) {
	defer func() {
		if r := recover(); r != nil {
			s.events.Panic(r, debug.Stack())
			err = fmt.Errorf("panic: %v", r)
		}
	}()

	return fn(s, args)
}
