package logging

import (
	"fmt"
	"io"
	"os"
	"sync"
	"time"
)

// Level represents the severity of a log message.
type Level string

const (
	LevelDebug Level = "DEBUG"
	LevelInfo  Level = "INFO"
	LevelWarn  Level = "WARN"
	LevelError Level = "ERROR"
)

var levelRank = map[Level]int{
	LevelDebug: 0,
	LevelInfo:  1,
	LevelWarn:  2,
	LevelError: 3,
}

// ParseLevel maps a config string to a Level, defaulting to INFO.
func ParseLevel(s string) Level {
	switch Level(s) {
	case LevelDebug, LevelInfo, LevelWarn, LevelError:
		return Level(s)
	default:
		return LevelInfo
	}
}

// Entry is a single log record.
type Entry struct {
	Timestamp time.Time
	Level     Level
	Component string
	Message   string
	Err       error
	Fields    map[string]interface{}
}

// Formatter renders entries for output.
type Formatter interface {
	Format(e *Entry) string
}

// TextFormatter renders entries as single-line human-readable text.
type TextFormatter struct{}

func (f *TextFormatter) Format(e *Entry) string {
	msg := fmt.Sprintf("[%s] %s [%s] %s",
		e.Timestamp.Format("2006-01-02 15:04:05.000"), e.Level, e.Component, e.Message)
	if e.Err != nil {
		msg += fmt.Sprintf(" | error=%v", e.Err)
	}
	for k, v := range e.Fields {
		msg += fmt.Sprintf(" %s=%v", k, v)
	}
	return msg + "\n"
}

// Logger writes leveled, component-tagged log lines to one or more outputs.
type Logger struct {
	component string
	minLevel  Level
	outputs   []io.Writer
	formatter Formatter
	mu        sync.Mutex
}

// New creates a logger for a component, writing to stdout at INFO.
func New(component string) *Logger {
	return &Logger{
		component: component,
		minLevel:  LevelInfo,
		outputs:   []io.Writer{os.Stdout},
		formatter: &TextFormatter{},
	}
}

// SetMinLevel sets the minimum level that will be emitted.
func (l *Logger) SetMinLevel(level Level) *Logger {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.minLevel = level
	return l
}

// AddOutput adds an extra output writer.
func (l *Logger) AddOutput(w io.Writer) *Logger {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.outputs = append(l.outputs, w)
	return l
}

// Child returns a logger for a sub-component sharing this logger's outputs
// and level.
func (l *Logger) Child(component string) *Logger {
	l.mu.Lock()
	defer l.mu.Unlock()
	return &Logger{
		component: component,
		minLevel:  l.minLevel,
		outputs:   l.outputs,
		formatter: l.formatter,
	}
}

func (l *Logger) log(level Level, message string, err error, fields map[string]interface{}) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if levelRank[level] < levelRank[l.minLevel] {
		return
	}

	formatted := l.formatter.Format(&Entry{
		Timestamp: time.Now(),
		Level:     level,
		Component: l.component,
		Message:   message,
		Err:       err,
		Fields:    fields,
	})
	for _, out := range l.outputs {
		out.Write([]byte(formatted))
	}
}

// Debug logs a debug message.
func (l *Logger) Debug(message string) {
	l.log(LevelDebug, message, nil, nil)
}

// Debugf logs a formatted debug message.
func (l *Logger) Debugf(format string, args ...interface{}) {
	l.log(LevelDebug, fmt.Sprintf(format, args...), nil, nil)
}

// Info logs an info message.
func (l *Logger) Info(message string) {
	l.log(LevelInfo, message, nil, nil)
}

// Infof logs a formatted info message.
func (l *Logger) Infof(format string, args ...interface{}) {
	l.log(LevelInfo, fmt.Sprintf(format, args...), nil, nil)
}

// Warn logs a warning message.
func (l *Logger) Warn(message string) {
	l.log(LevelWarn, message, nil, nil)
}

// Warnf logs a formatted warning message.
func (l *Logger) Warnf(format string, args ...interface{}) {
	l.log(LevelWarn, fmt.Sprintf(format, args...), nil, nil)
}

// Error logs an error message with its cause.
func (l *Logger) Error(message string, err error) {
	l.log(LevelError, message, err, nil)
}

// WithFields logs an info message with structured fields.
func (l *Logger) WithFields(message string, fields map[string]interface{}) {
	l.log(LevelInfo, message, nil, fields)
}
