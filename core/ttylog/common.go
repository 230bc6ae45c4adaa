package ttylog

import (
	"context"
	"fmt"
	"io"
	"log"
	"sync"
	"time"

	"github.com/josephlewis42/iocsh/core/vos"
)

// LogSink receives log events.
type LogSink func(e *Entry) error

// LogSource adapts log readers.
type LogSource interface {
	// Next fetches the next available log entry. It returns io.EOF if the
	// source has no more log entries.
	Next() (*Entry, error)
}

// Format is a recording file format.
type Format string

const (
	FormatAsciicast Format = "asciicast"
	FormatUML       Format = "uml"
)

// FileExt returns the suggested file extension for the format.
func (f Format) FileExt() string {
	if f == FormatUML {
		return UMLFileExt
	}
	return AsciicastFileExt
}

// NewLogSink creates a sink writing the format to w.
func NewLogSink(format Format, w io.Writer) (LogSink, error) {
	switch format {
	case FormatAsciicast, "":
		return NewAsciicastLogSink(w), nil
	case FormatUML:
		return NewUMLLogSink(w), nil
	default:
		return nil, fmt.Errorf("unknown recording format %q", format)
	}
}

// NewLogSource creates a source reading the format from r.
func NewLogSource(format Format, r io.Reader) (LogSource, error) {
	switch format {
	case FormatAsciicast, "":
		return NewAsciicastLogSource(r), nil
	case FormatUML:
		return NewUMLLogSource(r), nil
	default:
		return nil, fmt.Errorf("unknown recording format %q", format)
	}
}

// NewRealTimePlayback plays back the results in real-time.
// If maxSleep > 0, it's used as the maximum duration to pause.
func NewRealTimePlayback(ctx context.Context, maxSleep time.Duration, next LogSink) LogSink {
	var once sync.Once
	var prevTimeMicros int64

	return func(e *Entry) error {
		once.Do(func() {
			prevTimeMicros = e.TimestampMicros
		})

		delta := e.TimestampMicros - prevTimeMicros
		prevTimeMicros = e.TimestampMicros

		if maxSleep > 0 && delta > 0 {
			sleepDuration := time.Duration(delta) * time.Microsecond
			if sleepDuration > maxSleep {
				sleepDuration = maxSleep
			}

			timer := time.NewTimer(sleepDuration)
			select {
			case <-timer.C:
			case <-ctx.Done():
				timer.Stop()
				return ctx.Err()
			}
		}

		return next(e)
	}
}

// NewClientOutput writes stdout and stderr to the given writer
func NewClientOutput(w io.Writer) LogSink {
	return func(e *Entry) error {
		if e.Closed || e.Fd == FDStdin {
			return nil
		}
		_, err := w.Write(e.Data)
		return err
	}
}

// Replay reads a stream of events to a callback.
func Replay(recording LogSource, callback LogSink) error {
	for {
		e, err := recording.Next()
		switch {
		case err == io.EOF:
			return nil
		case err != nil:
			return err
		}

		if err := callback(e); err != nil {
			return err
		}
	}
}

// Recorder tees the streams of a console session into a LogSink.
type Recorder struct {
	*vos.VIOAdapter

	mutex  sync.Mutex
	output LogSink
	logger *log.Logger
	closed bool
}

// NewRecorder creates streams that forward all traffic to output.
func NewRecorder(stdin io.Reader, stdout, stderr io.Writer, output LogSink, logger *log.Logger) *Recorder {
	if logger == nil {
		logger = log.New(io.Discard, "", 0)
	}

	recorder := &Recorder{
		output: output,
		logger: logger,
	}

	recorder.VIOAdapter = vos.NewVIOAdapter(
		&recorderReader{r: recorder, mockFd: FDStdin, wrapped: stdin},
		&recorderWriter{r: recorder, mockFd: FDStdout, wrapped: stdout},
		&recorderWriter{r: recorder, mockFd: FDStderr, wrapped: stderr},
	)

	return recorder
}

func (r *Recorder) record(e *Entry) {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	if r.closed {
		return
	}
	if err := r.output(e); err != nil {
		r.logger.Printf("Error recording session: %v", err)
	}
}

func (r *Recorder) recordIO(mockFd FD, data []byte) {
	if len(data) == 0 {
		return
	}
	r.record(&Entry{
		TimestampMicros: time.Now().UnixMicro(),
		Fd:              mockFd,
		Data:            append([]byte(nil), data...),
	})
}

// Close records the end of the session, later traffic isn't recorded.
func (r *Recorder) Close() error {
	r.record(&Entry{
		TimestampMicros: time.Now().UnixMicro(),
		Closed:          true,
	})

	r.mutex.Lock()
	defer r.mutex.Unlock()
	r.closed = true
	return nil
}

type recorderReader struct {
	r       *Recorder
	mockFd  FD
	wrapped io.Reader
}

var _ io.ReadCloser = (*recorderReader)(nil)

func (rc *recorderReader) Read(p []byte) (int, error) {
	n, err := rc.wrapped.Read(p)
	rc.r.recordIO(rc.mockFd, p[:n])
	return n, err
}

// Close is a no-op, the session owns the underlying stream.
func (rc *recorderReader) Close() error {
	return nil
}

type recorderWriter struct {
	r       *Recorder
	mockFd  FD
	wrapped io.Writer
}

var _ io.WriteCloser = (*recorderWriter)(nil)

func (rc *recorderWriter) Write(p []byte) (int, error) {
	n, err := rc.wrapped.Write(p)
	rc.r.recordIO(rc.mockFd, p[:n])
	return n, err
}

// Close is a no-op, the session owns the underlying stream.
func (rc *recorderWriter) Close() error {
	return nil
}
