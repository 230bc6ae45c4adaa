package logger

import (
	"encoding/json"
	"io"
	"sort"
	"strings"
	"time"
)

// LogEntry is a decoded event from a JSON lines log.
type LogEntry struct {
	Time       time.Time `json:"time"`
	Level      string    `json:"level"`
	Event      string    `json:"msg"`
	SessionID  string    `json:"session_id,omitempty"`
	Source     string    `json:"source,omitempty"`
	Command    []string  `json:"command,omitempty"`
	Error      string    `json:"error,omitempty"`
	Context    string    `json:"context,omitempty"`
	Stacktrace string    `json:"stacktrace,omitempty"`
	Username   string    `json:"username,omitempty"`
	RemoteAddr string    `json:"remote_addr,omitempty"`
	Result     string    `json:"result,omitempty"`
	Name       string    `json:"name,omitempty"`
	Message    string    `json:"message,omitempty"`
	Op         string    `json:"op,omitempty"`
	Path       string    `json:"path,omitempty"`
}

func (le *LogEntry) commandName() string {
	if len(le.Command) > 0 {
		return le.Command[0]
	}
	return ""
}

// ReadJSONLinesLog parses a newline delimited JSON log.
func ReadJSONLinesLog(r io.Reader, handler func(le *LogEntry)) error {
	decoder := json.NewDecoder(r)
	for decoder.More() {
		var logEntry LogEntry
		if err := decoder.Decode(&logEntry); err != nil {
			return err
		}

		handler(&logEntry)
	}
	return nil
}

func NewBugReport() *BugReport {
	return &BugReport{
		InvalidInvocations: NewPathCounter("command", "error"),
		UnknownCommands:    NewPathCounter("command"),
	}
}

// BugReport pulls events that are likely bugs in scripts or commands.
type BugReport struct {
	LogEntries int `json:"log_entries"`

	InvalidInvocations *PathCounter `json:"invalid_invocations"`
	UnknownCommands    *PathCounter `json:"unknown_commands"`
	Panics             []string     `json:"panics"`
}

func (r *BugReport) Update(le *LogEntry) {
	r.LogEntries++

	switch le.Event {
	case EventPanic:
		r.Panics = append(r.Panics, le.Context)
	case EventUnknownCommand:
		r.UnknownCommands.Increment(le.commandName())
	case EventInvalidInvocation:
		r.InvalidInvocations.Increment(le.commandName(), le.Error)
	}
}

type InteractionReport struct {
	// Map of sessionID -> interactions
	interactions map[string]*InteractiveSession
}

type InteractiveSession struct {
	Login struct {
		Username   string `json:"username,omitempty"`
		RemoteAddr string `json:"remote_addr,omitempty"`
	} `json:"login"`
	Source     string   `json:"source"`
	TTYLog     string   `json:"tty_log,omitempty"`
	LogEntries int      `json:"log_entries"`
	Commands   []string `json:"commands"`
	Result     string   `json:"result,omitempty"`
}

func (i *InteractiveSession) Update(le *LogEntry) {
	i.LogEntries++

	switch le.Event {
	case EventLoginAttempt:
		i.Login.Username = le.Username
		i.Login.RemoteAddr = le.RemoteAddr
	case EventSessionStart:
		i.Source = le.Source
	case EventSessionEnd:
		i.Result = le.Error
	case EventRunCommand, EventUnknownCommand:
		i.Commands = append(i.Commands, strings.Join(le.Command, " "))
	case EventOpenTTYLog:
		i.TTYLog = le.Name
	}
}

func (i *InteractionReport) init() {
	if i.interactions == nil {
		i.interactions = make(map[string]*InteractiveSession)
	}
}

// MarshalJSON implemnts custom JSON marshaler.
func (i *InteractionReport) MarshalJSON() ([]byte, error) {
	i.init()

	return json.Marshal(i.interactions)
}

func (i *InteractionReport) Update(le *LogEntry) {
	i.init()

	if le.SessionID == "" {
		return
	}
	report, ok := i.interactions[le.SessionID]
	if !ok {
		report = &InteractiveSession{}
		i.interactions[le.SessionID] = report
	}

	report.Update(le)
}

// Report holds statistics about the logged events.
type Report struct {
	LogEntries     int        `json:"log_entries"`
	InvalidEntries StrCounter `json:"unknown_log_entries,omitempty"`

	Sessions          SessionReport           `json:"session_report"`
	LoginAttempt      LoginAttemptReport      `json:"login_attempt_report"`
	RunCommand        RunCommandReport        `json:"run_command_report"`
	UnknownCommand    UnknownCommandReport    `json:"unknown_command_report"`
	InvalidInvocation InvalidInvocationReport `json:"invalid_invocation_report"`
	Panic             PanicReport             `json:"panic_report"`
	Errlog            StrCounter              `json:"errlog_messages,omitempty"`
	FileAccess        *PathCounter            `json:"file_access,omitempty"`
}

func (r *Report) Update(le *LogEntry) {
	r.LogEntries++

	switch le.Event {
	case EventSessionStart, EventSessionEnd:
		r.Sessions.update(le)
	case EventLoginAttempt:
		r.LoginAttempt.update(le)
	case EventRunCommand:
		r.RunCommand.update(le)
	case EventPanic:
		r.Panic.update(le)
	case EventUnknownCommand:
		r.UnknownCommand.update(le)
	case EventInvalidInvocation:
		r.InvalidInvocation.update(le)
	case EventErrlog:
		r.Errlog.Increment(le.Message)
	case EventFileAccess:
		if r.FileAccess == nil {
			r.FileAccess = NewPathCounter("op", "path", "result")
		}
		r.FileAccess.Increment(le.Op, le.Path, le.Result)
	case EventOpenTTYLog:
		// Ignore
	default:
		r.InvalidEntries.Increment(le.Event)
	}
}

type SessionReport struct {
	Sources StrCounter `json:"sources"`
	Results StrCounter `json:"results"`
}

func (r *SessionReport) update(le *LogEntry) {
	switch le.Event {
	case EventSessionStart:
		r.Sources.Increment(le.Source)
	case EventSessionEnd:
		if le.Error == "" {
			r.Results.Increment("ok")
		} else {
			r.Results.Increment(le.Error)
		}
	}
}

type LoginAttemptReport struct {
	// List of usernames and their counts.
	Usernames StrCounter `json:"usernames"`
	// List of login attempt results and their counts.
	Results StrCounter `json:"results"`
}

func (r *LoginAttemptReport) update(le *LogEntry) {
	r.Usernames.Increment(le.Username)
	r.Results.Increment(le.Result)
}

type RunCommandReport struct {
	// Name of the command
	CommandNames StrCounter `json:"command_names"`
}

func (r *RunCommandReport) update(le *LogEntry) {
	if name := le.commandName(); name != "" {
		r.CommandNames.Increment(name)
	}
}

type UnknownCommandReport struct {
	CommandNames StrCounter `json:"command_names"`
}

func (r *UnknownCommandReport) update(le *LogEntry) {
	if name := le.commandName(); name != "" {
		r.CommandNames.Increment(name)
	}
}

type InvalidInvocationReport struct {
	CommandNames StrCounter `json:"command_counts"`
	Errors       StrCounter `json:"errors"`
}

func (r *InvalidInvocationReport) update(le *LogEntry) {
	if name := le.commandName(); name != "" {
		r.CommandNames.Increment(name)
	}
	r.Errors.Increment(le.Error)
}

type PanicReport struct {
	Contexts []string `json:"contexts"`
}

func (r *PanicReport) update(le *LogEntry) {
	r.Contexts = append(r.Contexts, le.Context)
}

// StrCounter counts the number of strings seen.
type StrCounter struct {
	internal map[string]int
}

// Increment adds one to the given key.
func (s *StrCounter) Increment(toAdd string) {
	if s.internal == nil {
		s.internal = make(map[string]int)
	}

	s.internal[toAdd]++
}

// Count returns the number of times key was seen.
func (s *StrCounter) Count(key string) int {
	return s.internal[key]
}

// MarshalJSON implemnts custom JSON marshaler.
func (s StrCounter) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.internal)
}

func NewPathCounter(cols ...string) *PathCounter {
	return &PathCounter{
		cols:     cols,
		internal: make(map[string]int),
	}
}

// PathCounter counts the number of column tuples seen.
type PathCounter struct {
	cols     []string
	internal map[string]int
}

// Increment adds one to the given key.
func (ctr *PathCounter) Increment(toAdd ...string) {
	if len(toAdd) != len(ctr.cols) {
		panic("wrong number of columns to add")
	}

	ctr.internal[toKey(toAdd...)]++
}

// MarshalJSON implemnts custom JSON marshaler.
func (ctr *PathCounter) MarshalJSON() ([]byte, error) {
	type Count struct {
		Count  int               `json:"count"`
		Fields map[string]string `json:"event"`
		Path   string            `json:"-"`
	}

	out := []Count{}
	for k, v := range ctr.internal {
		count := Count{
			Count:  v,
			Path:   k,
			Fields: make(map[string]string),
		}

		splitPath := fromKey(k)
		for colNum, colVal := range ctr.cols {
			count.Fields[colVal] = splitPath[colNum]
		}

		out = append(out, count)
	}

	sort.Slice(out, func(i, j int) bool {
		if out[i].Count == out[j].Count {
			return out[i].Path < out[j].Path
		}
		return out[i].Count > out[j].Count
	})

	return json.Marshal(out)
}

func toKey(vals ...string) string {
	key, _ := json.Marshal(vals)
	return string(key)
}

func fromKey(key string) (out []string) {
	json.Unmarshal([]byte(key), &out)
	return
}
