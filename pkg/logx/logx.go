// Package logx is a small structured logging facade over zerolog.
//
// It keeps a field-oriented API (WithField, WithFields, WithError) so call
// sites read the same regardless of the sink.
package logx

import (
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

// Fields is a set of structured key/value pairs attached to a log line
type Fields map[string]any

// Level is a logging severity
type Level int8

const (
	LevelTrace Level = iota
	LevelDebug
	LevelInfo
	LevelWarn
	LevelError
	LevelDisabled
)

var (
	mu     sync.RWMutex
	level  = LevelInfo
	output io.Writer = os.Stderr
	base   = newLogger(output, level)
)

func newLogger(w io.Writer, l Level) zerolog.Logger {
	return zerolog.New(w).Level(l.zerolog()).With().Timestamp().Logger()
}

func (l Level) zerolog() zerolog.Level {
	switch l {
	case LevelTrace:
		return zerolog.TraceLevel
	case LevelDebug:
		return zerolog.DebugLevel
	case LevelInfo:
		return zerolog.InfoLevel
	case LevelWarn:
		return zerolog.WarnLevel
	case LevelError:
		return zerolog.ErrorLevel
	default:
		return zerolog.Disabled
	}
}

// String returns the lowercase level name
func (l Level) String() string {
	switch l {
	case LevelTrace:
		return "trace"
	case LevelDebug:
		return "debug"
	case LevelInfo:
		return "info"
	case LevelWarn:
		return "warn"
	case LevelError:
		return "error"
	default:
		return "disabled"
	}
}

// ParseLevel maps a level name to a Level, defaulting to info
func ParseLevel(name string) Level {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "trace":
		return LevelTrace
	case "debug":
		return LevelDebug
	case "warn", "warning":
		return LevelWarn
	case "error":
		return LevelError
	case "off", "disabled", "none":
		return LevelDisabled
	default:
		return LevelInfo
	}
}

// SetLevel sets the global minimum level
func SetLevel(l Level) {
	mu.Lock()
	defer mu.Unlock()
	level = l
	base = newLogger(output, level)
}

// GetLevel returns the global minimum level
func GetLevel() Level {
	mu.RLock()
	defer mu.RUnlock()
	return level
}

// SetOutput redirects log output
func SetOutput(w io.Writer) {
	mu.Lock()
	defer mu.Unlock()
	output = w
	base = newLogger(output, level)
}

// SetPretty switches to human readable console output on w
func SetPretty(w io.Writer) {
	SetOutput(zerolog.ConsoleWriter{Out: w, TimeFormat: time.RFC3339})
}

func current() zerolog.Logger {
	mu.RLock()
	defer mu.RUnlock()
	return base
}

// Entry accumulates fields before a log call
type Entry struct {
	fields Fields
	err    error
}

// WithField starts an entry with one field
func WithField(key string, value any) *Entry {
	return (&Entry{}).WithField(key, value)
}

// WithFields starts an entry with several fields
func WithFields(fields Fields) *Entry {
	return (&Entry{}).WithFields(fields)
}

// WithError starts an entry carrying err
func WithError(err error) *Entry {
	return (&Entry{}).WithError(err)
}

// WithField returns a copy of the entry with key set
func (e *Entry) WithField(key string, value any) *Entry {
	return e.WithFields(Fields{key: value})
}

// WithFields returns a copy of the entry with fields merged in
func (e *Entry) WithFields(fields Fields) *Entry {
	merged := make(Fields, len(e.fields)+len(fields))
	for k, v := range e.fields {
		merged[k] = v
	}
	for k, v := range fields {
		merged[k] = v
	}
	return &Entry{fields: merged, err: e.err}
}

// WithError returns a copy of the entry carrying err
func (e *Entry) WithError(err error) *Entry {
	return &Entry{fields: e.fields, err: err}
}

func (e *Entry) log(l zerolog.Level, msg string) {
	logger := current()

	var ev *zerolog.Event
	if l == zerolog.FatalLevel {
		ev = logger.Fatal()
	} else {
		ev = logger.WithLevel(l)
	}

	if len(e.fields) > 0 {
		ev = ev.Fields(map[string]any(e.fields))
	}
	if e.err != nil {
		ev = ev.Err(e.err)
	}
	ev.Msg(msg)
}

func (e *Entry) Trace(args ...any) { e.log(zerolog.TraceLevel, fmt.Sprint(args...)) }
func (e *Entry) Debug(args ...any) { e.log(zerolog.DebugLevel, fmt.Sprint(args...)) }
func (e *Entry) Info(args ...any)  { e.log(zerolog.InfoLevel, fmt.Sprint(args...)) }
func (e *Entry) Warn(args ...any)  { e.log(zerolog.WarnLevel, fmt.Sprint(args...)) }
func (e *Entry) Error(args ...any) { e.log(zerolog.ErrorLevel, fmt.Sprint(args...)) }
func (e *Entry) Fatal(args ...any) { e.log(zerolog.FatalLevel, fmt.Sprint(args...)) }

func (e *Entry) Debugf(format string, args ...any) {
	e.log(zerolog.DebugLevel, fmt.Sprintf(format, args...))
}

func (e *Entry) Infof(format string, args ...any) {
	e.log(zerolog.InfoLevel, fmt.Sprintf(format, args...))
}

func (e *Entry) Warnf(format string, args ...any) {
	e.log(zerolog.WarnLevel, fmt.Sprintf(format, args...))
}

func (e *Entry) Errorf(format string, args ...any) {
	e.log(zerolog.ErrorLevel, fmt.Sprintf(format, args...))
}

var std = &Entry{}

func Trace(args ...any)                 { std.Trace(args...) }
func Debug(args ...any)                 { std.Debug(args...) }
func Info(args ...any)                  { std.Info(args...) }
func Warn(args ...any)                  { std.Warn(args...) }
func Error(args ...any)                 { std.Error(args...) }
func Fatal(args ...any)                 { std.Fatal(args...) }
func Debugf(format string, args ...any) { std.Debugf(format, args...) }
func Infof(format string, args ...any)  { std.Infof(format, args...) }
func Warnf(format string, args ...any)  { std.Warnf(format, args...) }
func Errorf(format string, args ...any) { std.Errorf(format, args...) }

func Fatalf(format string, args ...any) {
	std.log(zerolog.FatalLevel, fmt.Sprintf(format, args...))
}
