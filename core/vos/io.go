package vos

import (
	"io"
	"os"
)

// VIOAdapter holds a mutable set of standard streams. Redirection swaps the
// fields in place for the duration of a command.
type VIOAdapter struct {
	IStdin  io.ReadCloser
	IStdout io.WriteCloser
	IStderr io.WriteCloser
}

// NewVIOAdapter wraps the given streams, nil streams are replaced with
// /dev/null style streams.
func NewVIOAdapter(stdin io.Reader, stdout, stderr io.Writer) *VIOAdapter {
	return &VIOAdapter{
		IStdin:  toReadCloserOrDiscard(stdin),
		IStdout: toWriteCloserOrDiscard(stdout),
		IStderr: toWriteCloserOrDiscard(stderr),
	}
}

// NewNullIO creates a valid /dev/null style I/O, reads won't work and
// writes will be discarded.
func NewNullIO() *VIOAdapter {
	return NewVIOAdapter(nil, nil, nil)
}

var _ VIO = (*VIOAdapter)(nil)

func (pr *VIOAdapter) Stdin() io.ReadCloser {
	return pr.IStdin
}

func (pr *VIOAdapter) Stdout() io.WriteCloser {
	return pr.IStdout
}

func (pr *VIOAdapter) Stderr() io.WriteCloser {
	return pr.IStderr
}

// Fd gets the stream for descriptor 0, 1 or 2.
func (pr *VIOAdapter) Fd(fd int) interface{} {
	switch fd {
	case 0:
		return pr.IStdin
	case 1:
		return pr.IStdout
	case 2:
		return pr.IStderr
	default:
		return nil
	}
}

// SetFd replaces the stream for descriptor 0, 1 or 2 returning the previous
// one. Other descriptors and mismatched stream types are ignored and
// return nil.
func (pr *VIOAdapter) SetFd(fd int, stream interface{}) interface{} {
	switch fd {
	case 0:
		if r, ok := stream.(io.ReadCloser); ok {
			old := pr.IStdin
			pr.IStdin = r
			return old
		}
	case 1:
		if w, ok := stream.(io.WriteCloser); ok {
			old := pr.IStdout
			pr.IStdout = w
			return old
		}
	case 2:
		if w, ok := stream.(io.WriteCloser); ok {
			old := pr.IStderr
			pr.IStderr = w
			return old
		}
	}
	return nil
}

// NopCloser wraps streams that the interpreter must never close, such as
// the process stdio or an SSH channel.
func NopCloser(w io.Writer) io.WriteCloser {
	return nopWriteCloser{w}
}

func toWriteCloserOrDiscard(w io.Writer) io.WriteCloser {
	if w == nil {
		return &devNull{}
	}
	if wc, ok := w.(io.WriteCloser); ok {
		return wc
	}

	return nopWriteCloser{w}
}

func toReadCloserOrDiscard(r io.Reader) io.ReadCloser {
	if r == nil {
		return &devNull{}
	}
	if rc, ok := r.(io.ReadCloser); ok {
		return rc
	}

	return io.NopCloser(r)
}

type nopWriteCloser struct {
	io.Writer
}

func (nopWriteCloser) Close() error { return nil }

// devNull implemnets io.Reader and io.Writer, always closing for reads and
// discarding writes.
type devNull struct{}

var _ io.ReadCloser = (*devNull)(nil)
var _ io.WriteCloser = (*devNull)(nil)

func (*devNull) Read([]byte) (int, error) {
	return 0, os.ErrClosed
}

func (*devNull) Close() error {
	return nil
}

func (*devNull) Write(b []byte) (int, error) {
	return len(b), nil
}
