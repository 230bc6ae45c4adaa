// Package shell is the command interpreter. It reads lines from scripts, an
// interactive console or single injected commands, expands macros, splits
// lines into words and redirections, and dispatches them to the commands
// registered in a Table under a per-invocation error policy.
package shell

import (
	"context"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fatih/color"
	"github.com/josephlewis42/iocsh/core/histstore"
	"github.com/josephlewis42/iocsh/core/logger"
	"github.com/josephlewis42/iocsh/core/macro"
	"github.com/josephlewis42/iocsh/core/vos"
	"github.com/spf13/afero"
)

const (
	// EnvPrompt holds the interactive prompt.
	EnvPrompt = "IOCSH_PS1"
	// EnvStartupScript is set to the path passed to Load.
	EnvStartupScript = "IOCSH_STARTUP_SCRIPT"

	// DefaultPrompt is used when EnvPrompt isn't set.
	DefaultPrompt = "iocsh> "
	// ConsoleName is the Load path that selects the interactive console,
	// like the empty path.
	ConsoleName = "<telnet>"

	// waitFallback is the "on error wait" delay used when the value can't
	// be parsed.
	waitFallback = 5.0
)

// ConsoleFactory creates the line editor for an interactive invocation.
type ConsoleFactory func(s *Shell) (LineEditor, error)

// Options configures a Shell. The zero value is usable.
type Options struct {
	// Name lists the shell in its Table's sessions while an invocation
	// runs. Unnamed shells aren't listed.
	Name string
	// Table holds the commands, DefaultTable() if nil.
	Table *Table
	// Env is the process environment, an empty one if nil.
	Env vos.VEnv
	// Fs is used for scripts and redirections, the OS filesystem if nil.
	Fs afero.Fs
	// Dir is the initial working directory, the process's if empty.
	Dir string

	Stdin  io.Reader
	Stdout io.Writer
	Stderr io.Writer

	// Events records interpreter events, discarded if nil.
	Events *logger.SessionLogger
	// History is the persistent command history, optional.
	History *histstore.Store
	// Color enables ANSI formatting.
	Color bool
	// Console creates the interactive line editor, a PlainLineEditor over
	// Stdin if nil.
	Console ConsoleFactory
}

// Shell is an interpreter context. Each session or goroutine needs its own
// Shell, they can share a Table and environment.
type Shell struct {
	table   *Table
	env     vos.VEnv
	fs      afero.Fs
	wd      string
	io      *vos.VIOAdapter
	events  *logger.SessionLogger
	history *histstore.Store
	console ConsoleFactory

	bold *color.Color
	red  *color.Color

	ctx       context.Context
	macros    *macro.Handle
	scope     *scope
	redirects Redirects

	name   string
	mu     sync.Mutex
	halted chan struct{}
}

// New creates a shell.
func New(opts Options) *Shell {
	s := &Shell{
		table:   opts.Table,
		env:     opts.Env,
		fs:      opts.Fs,
		wd:      opts.Dir,
		io:      vos.NewVIOAdapter(opts.Stdin, opts.Stdout, opts.Stderr),
		events:  opts.Events,
		history: opts.History,
		console: opts.Console,
		bold:    color.New(color.Bold),
		red:     color.New(color.FgRed),
		name:    opts.Name,
	}

	if s.table == nil {
		s.table = DefaultTable()
	}
	if s.env == nil {
		s.env = vos.NewMapEnv()
	}
	if s.fs == nil {
		s.fs = afero.NewOsFs()
	}
	if s.wd == "" {
		if wd, err := os.Getwd(); err == nil {
			s.wd = wd
		} else {
			s.wd = "/"
		}
	}
	if s.events == nil {
		s.events = logger.Discard().Sessionless()
	}
	if s.console == nil {
		s.console = func(s *Shell) (LineEditor, error) {
			return NewPlainLineEditor(s.Stdin(), s.Stdout()), nil
		}
	}

	for _, c := range []*color.Color{s.bold, s.red} {
		if opts.Color {
			c.EnableColor()
		} else {
			c.DisableColor()
		}
	}

	return s
}

// Table returns the command table.
func (s *Shell) Table() *Table {
	return s.table
}

// Env returns the process environment.
func (s *Shell) Env() vos.VEnv {
	return s.env
}

// Fs returns the filesystem used for scripts and redirections.
func (s *Shell) Fs() afero.Fs {
	return s.fs
}

// Events returns the event logger.
func (s *Shell) Events() *logger.SessionLogger {
	return s.events
}

// History returns the persistent command history, nil if there isn't one.
func (s *Shell) History() *histstore.Store {
	return s.history
}

// Stdin returns the current, possibly redirected, input stream.
func (s *Shell) Stdin() io.Reader {
	return s.io.Stdin()
}

// Stdout returns the current, possibly redirected, output stream.
func (s *Shell) Stdout() io.Writer {
	return s.io.Stdout()
}

// Stderr returns the current, possibly redirected, error stream.
func (s *Shell) Stderr() io.Writer {
	return s.io.Stderr()
}

// Descriptor returns the file bound to descriptor n (3-9) by the line that's
// currently being dispatched.
func (s *Shell) Descriptor(n int) (afero.File, bool) {
	if r, ok := s.redirects[n]; ok && r.File() != nil {
		return r.File(), true
	}
	return nil, false
}

// Getwd returns the working directory.
func (s *Shell) Getwd() string {
	return s.wd
}

// Chdir changes the working directory.
func (s *Shell) Chdir(dir string) error {
	path := s.Resolve(dir)

	info, err := s.fs.Stat(path)
	if err != nil {
		return err
	}
	if !info.IsDir() {
		return &os.PathError{Op: "chdir", Path: dir, Err: errors.New("not a directory")}
	}

	s.wd = path
	return nil
}

// Resolve makes name absolute relative to the working directory.
func (s *Shell) Resolve(name string) string {
	if filepath.IsAbs(name) {
		return filepath.Clean(name)
	}
	return filepath.Join(s.wd, name)
}

// Context returns the context of the innermost invocation, commands use it
// for blocking operations.
func (s *Shell) Context() context.Context {
	if s.ctx == nil {
		return context.Background()
	}
	return s.ctx
}

// Interactive reports whether the current invocation reads from a console.
func (s *Shell) Interactive() bool {
	return s.scope != nil && s.scope.interactive
}

// MarkError sets the errored flag of the current invocation when failed is
// true. It returns failed.
func (s *Shell) MarkError(failed bool) bool {
	if failed && s.scope != nil {
		s.scope.errored = true
	}
	return failed
}

// Name returns the name the shell is listed under, see Options.Name.
func (s *Shell) Name() string {
	return s.name
}

// Halted reports whether an invocation is suspended by "on error halt".
func (s *Shell) Halted() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.halted != nil
}

// Resume releases an invocation suspended by "on error halt". It returns
// false and has no effect if nothing is suspended.
func (s *Shell) Resume() bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.halted == nil {
		return false
	}
	close(s.halted)
	s.halted = nil
	return true
}

// halt suspends the caller until Resume is called or ctx is done.
func (s *Shell) halt(ctx context.Context) {
	resumed := make(chan struct{})
	s.mu.Lock()
	s.halted = resumed
	s.mu.Unlock()

	select {
	case <-resumed:
	case <-ctx.Done():
		s.mu.Lock()
		if s.halted == resumed {
			s.halted = nil
		}
		s.mu.Unlock()
	}
}

// ClearMacro removes a macro definition so the environment value of the
// same name is seen by later lines.
func (s *Shell) ClearMacro(name string) {
	if s.macros != nil {
		s.macros.Clear(name)
	}
}

// Load runs a script, or the interactive console if path is empty or
// ConsoleName. macros is a comma separated list of NAME=value definitions.
func (s *Shell) Load(ctx context.Context, path, macros string) error {
	_, err := s.load(ctx, path, macros)
	return err
}

// load is Load that also reports whether the script finished errored.
func (s *Shell) load(ctx context.Context, path, macros string) (bool, error) {
	if path != "" && path != ConsoleName {
		s.env.Setenv(EnvStartupScript, path)
	}
	return s.body(ctx, path, nil, macros)
}

// Run runs a single line. Unlike scripts, the line stops at the first error.
func (s *Shell) Run(ctx context.Context, line, macros string) error {
	_, err := s.body(ctx, "", &line, macros)
	return err
}

// location is the source of a line for diagnostics.
type location struct {
	file string
	line int
}

func (s *Shell) report(loc location, kind Kind, err error) {
	e := &Error{Kind: kind, File: loc.file, Line: loc.line, Err: err}
	if loc.file != "" {
		s.red.Fprintf(s.Stderr(), "%s line %d:", loc.file, loc.line)
		fmt.Fprintf(s.Stderr(), " %v\n", e.Err)
		return
	}
	fmt.Fprintln(s.Stderr(), e.Error())
}

// body is one invocation. It returns whether the invocation's scope was
// errored when it finished alongside the invocation result.
func (s *Shell) body(ctx context.Context, path string, command *string, macros string) (bool, error) {
	sc := &scope{}

	var (
		input    LineEditor
		filename string
	)

	switch {
	case command != nil:
		sc.onerr = Break

	case path == "" || path == ConsoleName:
		sc.interactive = true

		editor, err := s.console(s)
		if err != nil {
			fmt.Fprintln(s.Stderr(), "Can't allocate command-line object.")
			return true, &Error{Kind: ResourceError, Err: err}
		}
		input = editor

	default:
		f, err := s.fs.Open(s.Resolve(path))
		if err != nil {
			fmt.Fprintf(s.Stderr(), "Can't open %s: %v\n", path, reason(err))
			return true, &Error{Kind: IOError, Err: err}
		}
		filename = filepath.Base(path)
		input = NewPlainLineEditor(f, nil)
	}

	if input != nil {
		defer input.Close()
	}

	defs, err := macro.ParseDefinitions(macros)
	if err != nil {
		fmt.Fprintln(s.Stderr(), err)
		return true, &Error{Kind: SyntaxError, Err: err}
	}

	if s.macros == nil {
		s.macros = macro.New(s.env.LookupEnv)
	}
	outerCtx := s.ctx
	s.ctx = ctx
	sc.outer = s.scope
	s.scope = sc
	s.macros.PushScope()
	s.macros.Install(defs)

	if sc.outer == nil && s.name != "" {
		s.table.addSession(s)
		defer s.table.removeSession(s)
	}

	result := s.loop(ctx, sc, input, command, filename)

	s.macros.PopScope()
	s.scope = sc.outer
	s.ctx = outerCtx
	if sc.outer == nil {
		s.macros = nil
	}

	return sc.errored, result
}

func (s *Shell) loop(ctx context.Context, sc *scope, input LineEditor, command *string, filename string) error {
	var result error
	consumed := false
	loc := location{file: filename}
	script := !sc.interactive && command == nil

	for {
		if err := ctx.Err(); err != nil {
			return err
		}

		if !sc.interactive && sc.errored {
			switch sc.onerr {
			case Break:
				fmt.Fprintln(s.Stderr(), ErrBreak)
				return ErrBreak

			case Halt:
				result = ErrHalt
				if sc.timeout <= 0 || math.IsInf(sc.timeout, 0) {
					fmt.Fprintln(s.Stderr(), ErrHalt)
					s.halt(ctx)
					return ErrHalt
				}

				fmt.Fprintf(s.Stderr(), "iocsh Error: Waiting %.1f sec ...\n", sc.timeout)
				if err := sleep(ctx, sc.timeout); err != nil {
					return err
				}
			}
		}

		var raw string
		if command != nil {
			if consumed {
				break
			}
			raw, consumed = *command, true
		} else {
			prompt := ""
			if sc.interactive {
				prompt = s.prompt()
			}

			line, err := input.Readline(prompt)
			if err != nil {
				if !errors.Is(err, io.EOF) {
					fmt.Fprintf(s.Stderr(), "Error reading input: %v\n", err)
				}
				break
			}
			raw = line
		}
		loc.line++

		if exit := s.line(ctx, sc, raw, loc, script); exit {
			break
		}
	}

	return result
}

func (s *Shell) prompt() string {
	if prompt, ok := s.env.LookupEnv(EnvPrompt); ok {
		return prompt
	}
	return DefaultPrompt
}

func isSpace(r rune) bool {
	return r == ' ' || r == '\t' || r == '\n' || r == '\v' || r == '\f' || r == '\r'
}

// line handles one input line. It returns true if the invocation should
// end.
func (s *Shell) line(ctx context.Context, sc *scope, raw string, loc location, script bool) bool {
	trimmed := strings.TrimLeftFunc(raw, isSpace)
	if strings.HasPrefix(trimmed, "#") {
		if script && !strings.HasPrefix(trimmed, "#-") {
			fmt.Fprintln(s.Stdout(), raw)
		}
		return false
	}

	line, err := s.macros.Expand(raw)
	if err != nil {
		s.report(loc, SyntaxError, err)
		sc.errored = true
		return false
	}

	trimmed = strings.TrimLeftFunc(line, isSpace)
	if script && line != "" && !strings.HasPrefix(trimmed, "#-") {
		fmt.Fprintln(s.Stdout(), line)
	}
	if trimmed == "" || trimmed[0] == '#' {
		return false
	}

	parsed, err := Split(line)
	switch {
	case errors.Is(err, ErrEmpty):
		return true
	case err != nil:
		s.report(loc, SyntaxError, err)
		sc.errored = true
		return false
	}

	if len(parsed.Args) == 0 {
		if in := parsed.Redirects.Input(); in != nil {
			s.nested(ctx, sc, in.Name, parsed.Redirects.Without(0), loc)
			return false
		}
	}

	if len(parsed.Args) > 0 && parsed.Args[0] == "exit" {
		return true
	}

	s.dispatch(sc, parsed, loc)
	return false
}

// nested runs a script named by an input redirection with the remaining
// redirections of the line applied.
func (s *Shell) nested(ctx context.Context, sc *scope, name string, rs Redirects, loc location) {
	// An empty name would otherwise select the console.
	if name == "" {
		s.report(loc, IOError, &RedirectError{Name: name, Err: os.ErrNotExist})
		sc.errored = true
		return
	}

	if err := rs.Open(s.fs, s.Resolve); err != nil {
		s.report(loc, IOError, err)
		sc.errored = true
		return
	}
	rs.Activate(s.io)
	defer s.deactivate(rs, loc)

	// Macros of enclosing invocations stay visible through the handle's scopes.
	errored, err := s.body(ctx, name, nil, "")
	if err != nil || errored {
		sc.errored = true
	}
}

func (s *Shell) dispatch(sc *scope, parsed *Line, loc location) {
	rs := parsed.Redirects
	if err := rs.Open(s.fs, s.Resolve); err != nil {
		s.report(loc, IOError, err)
		sc.errored = true
		return
	}
	defer s.deactivate(rs, loc)

	if len(parsed.Args) == 0 {
		return
	}

	// Cleared once the command is actually called.
	sc.errored = true

	cmd, ok := s.table.FindCommand(parsed.Args[0])
	if !ok {
		s.report(loc, LookupError, fmt.Errorf("Command %s not found.", parsed.Args[0]))
		s.events.UnknownCommand(parsed.Args)
		return
	}

	args, err := coerce(cmd.Def, parsed.Args, s.table.Handle())
	if err != nil {
		s.report(loc, TypeError, err)
		s.events.InvalidInvocation(parsed.Args, err)
		return
	}

	rs.Activate(s.io)
	outer := s.redirects
	s.redirects = rs
	defer func() { s.redirects = outer }()

	sc.errored = false
	s.events.RunCommand(parsed.Args)

	if err := invoke(s, cmd.Func, args); err != nil {
		s.report(loc, RuntimeError, err)
		s.events.InvalidInvocation(parsed.Args, err)
		sc.errored = true
	}
}

func (s *Shell) deactivate(rs Redirects, loc location) {
	if err := rs.Deactivate(s.io); err != nil {
		s.report(loc, IOError, err)
	}
}

func sleep(ctx context.Context, seconds float64) error {
	timer := time.NewTimer(time.Duration(seconds * float64(time.Second)))
	defer timer.Stop()

	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
