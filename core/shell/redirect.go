package shell

import (
	"errors"
	"fmt"
	"os"
	"sort"

	"github.com/josephlewis42/iocsh/core/vos"
	"github.com/spf13/afero"
)

// Mode is how a redirection target is opened.
type Mode int

const (
	// ModeRead opens the target for reading, it's used for descriptor 0.
	ModeRead Mode = iota
	// ModeWrite creates or truncates the target.
	ModeWrite
	// ModeAppend creates the target or appends to it.
	ModeAppend
)

func (m Mode) String() string {
	switch m {
	case ModeRead:
		return "<"
	case ModeWrite:
		return ">"
	case ModeAppend:
		return ">>"
	default:
		return fmt.Sprintf("Mode(%d)", int(m))
	}
}

func (m Mode) flags() int {
	switch m {
	case ModeWrite:
		return os.O_WRONLY | os.O_CREATE | os.O_TRUNC
	case ModeAppend:
		return os.O_WRONLY | os.O_CREATE | os.O_APPEND
	default:
		return os.O_RDONLY
	}
}

// Redirect is a single descriptor redirection parsed from a line.
type Redirect struct {
	Fd   int
	Name string
	Mode Mode

	file        afero.File
	saved       interface{}
	mustRestore bool
}

// File returns the open target, or nil if it hasn't been opened.
func (r *Redirect) File() afero.File {
	return r.file
}

// RedirectError is returned when a target can't be opened.
type RedirectError struct {
	Name string
	Err  error
}

func (e *RedirectError) Error() string {
	return fmt.Sprintf("Can't open %q: %v.", e.Name, reason(e.Err))
}

func (e *RedirectError) Unwrap() error {
	return e.Err
}

// reason strips the operation and path from *os.PathError so messages read
// like strerror output.
func reason(err error) error {
	var pathErr *os.PathError
	if errors.As(err, &pathErr) {
		return pathErr.Err
	}
	return err
}

// Redirects holds the redirections for one line keyed by descriptor.
type Redirects map[int]*Redirect

// Fds returns the redirected descriptors in ascending order.
func (rs Redirects) Fds() []int {
	var out []int
	for fd := range rs {
		out = append(out, fd)
	}
	sort.Ints(out)
	return out
}

// Input returns the descriptor 0 redirection if there is one.
func (rs Redirects) Input() *Redirect {
	return rs[0]
}

// Without returns a copy of the set without fd.
func (rs Redirects) Without(fd int) Redirects {
	out := make(Redirects, len(rs))
	for k, v := range rs {
		if k != fd {
			out[k] = v
		}
	}
	return out
}

// Open opens every target in descriptor order. resolve maps names to paths,
// for example to make them relative to the working directory. If any target
// fails to open, the targets opened so far are closed and a *RedirectError
// is returned.
func (rs Redirects) Open(fs afero.Fs, resolve func(string) string) error {
	for _, fd := range rs.Fds() {
		r := rs[fd]
		if r.file != nil {
			continue
		}

		if r.Name == "" {
			rs.closeAll()
			return &RedirectError{Name: r.Name, Err: os.ErrNotExist}
		}

		name := r.Name
		if resolve != nil {
			name = resolve(name)
		}

		f, err := fs.OpenFile(name, r.Mode.flags(), 0666)
		if err != nil {
			rs.closeAll()
			return &RedirectError{Name: r.Name, Err: err}
		}
		r.file = f
	}

	return nil
}

// Activate swaps the open targets for descriptors 0, 1 and 2 into streams,
// remembering the streams they replace. Other descriptors stay open and
// are only reachable through File.
func (rs Redirects) Activate(streams *vos.VIOAdapter) {
	for _, fd := range rs.Fds() {
		r := rs[fd]
		if r.file == nil || r.mustRestore || fd > 2 {
			continue
		}

		if old := streams.SetFd(fd, r.file); old != nil {
			r.saved = old
			r.mustRestore = true
		}
	}
}

// Deactivate restores the streams replaced by Activate and closes every
// open target. It's safe to call more than once.
func (rs Redirects) Deactivate(streams *vos.VIOAdapter) error {
	for _, fd := range rs.Fds() {
		r := rs[fd]
		if r.mustRestore {
			streams.SetFd(fd, r.saved)
			r.saved = nil
			r.mustRestore = false
		}
	}

	return rs.closeAll()
}

func (rs Redirects) closeAll() error {
	var errs []error
	for _, fd := range rs.Fds() {
		r := rs[fd]
		if r.file == nil {
			continue
		}
		if err := r.file.Close(); err != nil {
			errs = append(errs, fmt.Errorf("Error closing %q: %v", r.Name, reason(err)))
		}
		r.file = nil
	}
	return errors.Join(errs...)
}
