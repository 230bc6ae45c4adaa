package shell

import (
	"bufio"
	"fmt"
	"io"
	"log"
	"strings"

	"github.com/abiosoft/readline"
	"github.com/josephlewis42/iocsh/core/histstore"
)

// LineEditor acquires input lines. Readline returns io.EOF once the input
// is exhausted.
type LineEditor interface {
	Readline(prompt string) (string, error)
	Close() error
}

// PlainLineEditor reads lines from a stream without any editing, it's used
// for scripts and for input that isn't a terminal.
type PlainLineEditor struct {
	r      *bufio.Reader
	closer io.Closer
	out    io.Writer
}

var _ LineEditor = (*PlainLineEditor)(nil)

// NewPlainLineEditor reads from r. Prompts are written to out if it's not
// nil. If r is an io.Closer it's closed by Close.
func NewPlainLineEditor(r io.Reader, out io.Writer) *PlainLineEditor {
	closer, _ := r.(io.Closer)
	return &PlainLineEditor{
		r:      bufio.NewReader(r),
		closer: closer,
		out:    out,
	}
}

// Readline implements LineEditor.Readline.
func (p *PlainLineEditor) Readline(prompt string) (string, error) {
	if prompt != "" && p.out != nil {
		fmt.Fprint(p.out, prompt)
	}

	line, err := p.r.ReadString('\n')
	if err != nil && (err != io.EOF || line == "") {
		return "", err
	}

	return strings.TrimSuffix(line, "\n"), nil
}

// Close implements LineEditor.Close.
func (p *PlainLineEditor) Close() error {
	if p.closer != nil {
		return p.closer.Close()
	}
	return nil
}

// ReadlineConfig configures a ReadlineEditor.
type ReadlineConfig struct {
	Stdin  io.Reader
	Stdout io.Writer
	Stderr io.Writer

	// Completer provides tab completion, optional.
	Completer readline.AutoCompleter
	// History loads and stores entered lines, optional.
	History *histstore.Store
	// HistoryLimit is the number of stored lines to load.
	HistoryLimit int

	// Width reports the terminal width, optional.
	Width func() int
	// IsTerminal reports whether the input is a terminal, optional.
	IsTerminal func() bool

	// Logger receives history errors, optional.
	Logger *log.Logger
}

// ReadlineEditor is an interactive LineEditor with history and completion.
type ReadlineEditor struct {
	rl      *readline.Instance
	history *histstore.Store
	logger  *log.Logger
}

var _ LineEditor = (*ReadlineEditor)(nil)

// NewReadlineEditor creates an interactive editor.
func NewReadlineEditor(config ReadlineConfig) (*ReadlineEditor, error) {
	cfg := &readline.Config{
		Stdin:                  readline.NewCancelableStdin(config.Stdin),
		Stdout:                 config.Stdout,
		Stderr:                 config.Stderr,
		AutoComplete:           config.Completer,
		DisableAutoSaveHistory: true,
		FuncGetWidth:           config.Width,
		FuncIsTerminal:         config.IsTerminal,
	}

	if err := cfg.Init(); err != nil {
		return nil, err
	}

	rl, err := readline.NewEx(cfg)
	if err != nil {
		return nil, err
	}

	logger := config.Logger
	if logger == nil {
		logger = log.New(io.Discard, "", 0)
	}

	editor := &ReadlineEditor{
		rl:      rl,
		history: config.History,
		logger:  logger,
	}

	if editor.history != nil {
		cmds, err := editor.history.Cmds(config.HistoryLimit)
		if err != nil {
			logger.Printf("Error loading history: %v", err)
		}
		for _, cmd := range cmds {
			rl.SaveHistory(cmd.Text)
		}
	}

	return editor, nil
}

// Readline implements LineEditor.Readline. An interrupt clears the line and
// returns an empty string.
func (r *ReadlineEditor) Readline(prompt string) (string, error) {
	r.rl.SetPrompt(prompt)
	line, err := r.rl.Readline()

	switch {
	case err == readline.ErrInterrupt:
		return "", nil
	case err != nil:
		return "", err
	}

	if strings.TrimSpace(line) != "" {
		r.rl.SaveHistory(line)
		if r.history != nil {
			if _, err := r.history.AddCmd(line); err != nil {
				r.logger.Printf("Error saving history: %v", err)
			}
		}
	}

	return line, nil
}

// Close implements LineEditor.Close.
func (r *ReadlineEditor) Close() error {
	return r.rl.Close()
}

// ReadlineConsole returns a ConsoleFactory that edits lines on the shell's
// current streams with completion and the shell's history.
func ReadlineConsole(historyLimit int, width func() int, isTerminal func() bool, logger *log.Logger) ConsoleFactory {
	return func(s *Shell) (LineEditor, error) {
		editor, err := NewReadlineEditor(ReadlineConfig{
			Stdin:        s.Stdin(),
			Stdout:       s.Stdout(),
			Stderr:       s.Stderr(),
			Completer:    NewCompleter(s),
			History:      s.History(),
			HistoryLimit: historyLimit,
			Width:        width,
			IsTerminal:   isTerminal,
			Logger:       logger,
		})
		if err != nil {
			return nil, err
		}
		return editor, nil
	}
}
