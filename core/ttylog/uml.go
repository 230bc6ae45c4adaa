package ttylog

import (
	"bytes"
	"encoding/binary"
	"io"
	"time"
)

// UMLFileExt holds the suggested file extension for user-mode-linux
// recordings.
const UMLFileExt = "uml"

type mockFdOp int32

const (
	opOpen  mockFdOp = 1
	opClose mockFdOp = 2
	opWrite mockFdOp = 3
	opExec  mockFdOp = 4
)

type mockFdDir int32

const (
	dirRead  mockFdDir = 1
	dirWrite mockFdDir = 2
)

type umlEvent struct {
	Operation    int32  // Operation, maps into mockFdOp.
	Tty          uint32 // Should always be 0.
	Size         int32  // Number of bytes following this event that represent the data.
	Direction    int32  // Data direction, maps into mockFdDir.
	Seconds      uint32 // UNIX timestamp of the event.
	Microseconds uint32 // Microseconds after the timestamp of the event.
}

func writeUMLEvent(out io.Writer, timestampMicros int64, fd FD, op mockFdOp, data []byte) error {
	direction := dirWrite
	if fd == FDStdin {
		direction = dirRead
	}

	header := umlEvent{
		Operation:    int32(op),
		Size:         int32(len(data)),
		Direction:    int32(direction),
		Seconds:      uint32(timestampMicros / int64(time.Second/time.Microsecond)),
		Microseconds: uint32(timestampMicros % int64(time.Second/time.Microsecond)),
	}

	if err := binary.Write(out, binary.LittleEndian, &header); err != nil {
		return err
	}

	if len(data) > 0 {
		if _, err := out.Write(data); err != nil {
			return err
		}
	}

	return nil
}

// NewUMLLogSink creates a LogSink compatible with the user-mode-linux TTY
// recording format.
func NewUMLLogSink(w io.Writer) LogSink {
	return func(entry *Entry) error {
		if entry.Closed {
			return writeUMLEvent(w, entry.TimestampMicros, entry.Fd, opClose, nil)
		}
		return writeUMLEvent(w, entry.TimestampMicros, entry.Fd, opWrite, entry.Data)
	}
}

// UMLLogSource parses log events from a user-mode-linux formatted file.
type UMLLogSource struct {
	r io.Reader
}

var _ LogSource = (*UMLLogSource)(nil)

// NewUMLLogSource reads log events from a user-mode-linux formatted file.
func NewUMLLogSource(r io.Reader) *UMLLogSource {
	return &UMLLogSource{r: r}
}

// Next gets the next log entry, it returns io.EOF if there are no more.
func (log *UMLLogSource) Next() (*Entry, error) {
	var header umlEvent
	buf := &bytes.Buffer{}

	for {
		if err := binary.Read(log.r, binary.LittleEndian, &header); err != nil {
			return nil, io.EOF
		}
		buf.Reset()
		if _, err := io.CopyN(buf, log.r, int64(header.Size)); err != nil {
			return nil, err
		}

		timestampMicros := int64(header.Seconds)*int64(time.Second/time.Microsecond) + int64(header.Microseconds)

		// UML doesn't distinguish between stdout and stderr so it's all
		// reported as stdout.
		fd := FDStdout
		if mockFdDir(header.Direction) == dirRead {
			fd = FDStdin
		}

		switch mockFdOp(header.Operation) {
		case opClose:
			return &Entry{TimestampMicros: timestampMicros, Fd: fd, Closed: true}, nil
		case opWrite:
			return &Entry{TimestampMicros: timestampMicros, Fd: fd, Data: append([]byte(nil), buf.Bytes()...)}, nil
		case opOpen, opExec:
			fallthrough
		default:
			// Skip unknown or non-I/O operations
			continue
		}
	}
}
