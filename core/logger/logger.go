// Package logger is a standardized event logging framework for the
// interpreter. Events are structured log/slog records, normally written as
// newline delimited JSON so they can be summarized later.
package logger

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"math/rand"

	slogmulti "github.com/samber/slog-multi"
)

// Event names, stored in the record message.
const (
	EventSessionStart      = "session_start"
	EventSessionEnd        = "session_end"
	EventLoginAttempt      = "login_attempt"
	EventRunCommand        = "run_command"
	EventUnknownCommand    = "unknown_command"
	EventInvalidInvocation = "invalid_invocation"
	EventPanic             = "panic"
	EventOpenTTYLog        = "open_tty_log"
	EventErrlog            = "errlog"
	EventFileAccess        = "file_access"
)

// Record keys.
const (
	KeySessionID  = "session_id"
	KeySource     = "source"
	KeyCommand    = "command"
	KeyError      = "error"
	KeyContext    = "context"
	KeyStack      = "stacktrace"
	KeyUsername   = "username"
	KeyRemoteAddr = "remote_addr"
	KeyResult     = "result"
	KeyName       = "name"
	KeyMessage    = "message"
	KeyOp         = "op"
	KeyPath       = "path"
)

// Logger captures interaction event logs.
type Logger struct {
	slog *slog.Logger
}

// New creates a Logger that fans every event out to all of the handlers.
func New(handlers ...slog.Handler) *Logger {
	return &Logger{slog: slog.New(slogmulti.Fanout(handlers...))}
}

// NewJSONLinesLogger creates a Logger that exports events in newline
// delimited JSON object format, plus any extra handlers.
func NewJSONLinesLogger(w io.Writer, extra ...slog.Handler) *Logger {
	handlers := append([]slog.Handler{slog.NewJSONHandler(w, nil)}, extra...)
	return New(handlers...)
}

// Discard creates a Logger that drops every event.
func Discard() *Logger {
	return New()
}

// Slog exposes the underlying structured logger.
func (l *Logger) Slog() *slog.Logger {
	return l.slog
}

// NewSession creates a logger with attached session ID.
func (l *Logger) NewSession() *SessionLogger {
	return l.withSession(fmt.Sprintf("%d", rand.Uint64()))
}

// Sessionless creates a logger without a session ID.
func (l *Logger) Sessionless() *SessionLogger {
	return l.withSession("")
}

func (l *Logger) withSession(id string) *SessionLogger {
	out := &SessionLogger{sessionID: id, slog: l.slog}
	if id != "" {
		out.slog = l.slog.With(KeySessionID, id)
	}
	return out
}

// SessionLogger logs events with a shared session ID.
type SessionLogger struct {
	sessionID string
	slog      *slog.Logger
}

// SessionID returns the ID attached to every event, empty for sessionless
// loggers.
func (l *SessionLogger) SessionID() string {
	return l.sessionID
}

func (l *SessionLogger) record(level slog.Level, event string, attrs ...slog.Attr) {
	if l == nil {
		return
	}
	l.slog.LogAttrs(context.Background(), level, event, attrs...)
}

// SessionStart records the start of an interpreter session reading source.
func (l *SessionLogger) SessionStart(source string) {
	l.record(slog.LevelInfo, EventSessionStart, slog.String(KeySource, source))
}

// SessionEnd records the end of a session, err is the invocation result.
func (l *SessionLogger) SessionEnd(err error) {
	attrs := []slog.Attr{}
	if err != nil {
		attrs = append(attrs, slog.String(KeyError, err.Error()))
	}
	l.record(slog.LevelInfo, EventSessionEnd, attrs...)
}

// LoginAttempt records a console authentication attempt.
func (l *SessionLogger) LoginAttempt(username, remoteAddr string, accepted bool) {
	result := "rejected"
	if accepted {
		result = "accepted"
	}
	l.record(slog.LevelInfo, EventLoginAttempt,
		slog.String(KeyUsername, username),
		slog.String(KeyRemoteAddr, remoteAddr),
		slog.String(KeyResult, result))
}

// RunCommand records a dispatched command.
func (l *SessionLogger) RunCommand(args []string) {
	l.record(slog.LevelInfo, EventRunCommand, slog.Any(KeyCommand, args))
}

// UnknownCommand records a lookup failure.
func (l *SessionLogger) UnknownCommand(args []string) {
	l.record(slog.LevelWarn, EventUnknownCommand, slog.Any(KeyCommand, args))
}

// InvalidInvocation records a command that failed or was called with bad
// arguments.
func (l *SessionLogger) InvalidInvocation(args []string, err error) {
	l.record(slog.LevelWarn, EventInvalidInvocation,
		slog.Any(KeyCommand, args),
		slog.String(KeyError, err.Error()))
}

// Panic records a recovered panic.
func (l *SessionLogger) Panic(cause interface{}, stack []byte) {
	l.record(slog.LevelError, EventPanic,
		slog.String(KeyContext, fmt.Sprint(cause)),
		slog.String(KeyStack, string(stack)))
}

// OpenTTYLog records the name of a session recording.
func (l *SessionLogger) OpenTTYLog(name string) {
	l.record(slog.LevelInfo, EventOpenTTYLog, slog.String(KeyName, name))
}

// Errlog records a message sent to the error log instead of the console.
func (l *SessionLogger) Errlog(message string) {
	l.record(slog.LevelError, EventErrlog, slog.String(KeyMessage, message))
}

// FileAccess records a filesystem operation made by a command or redirection.
func (l *SessionLogger) FileAccess(op, path string, allowed bool) {
	level, result := slog.LevelInfo, "allowed"
	if !allowed {
		level, result = slog.LevelWarn, "denied"
	}
	l.record(level, EventFileAccess,
		slog.String(KeyOp, op),
		slog.String(KeyPath, path),
		slog.String(KeyResult, result))
}
