// Package log is the leveled logger shared by the database, the watcher and the CLI.
package log

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"sync"
	"time"

	"gopkg.in/natefinch/lumberjack.v2"
)

const defaultTimeFormat = "2006-01-02 15:04:05"

// Logger writes leveled lines for one component. Loggers derived with Named
// share the sink of their parent.
type Logger struct {
	sink *sink

	Name       string
	Level      LogLevel
	TimeFormat string
	NoColor    bool
	JSON       bool
}

// Rotation controls the size based rotation of log files.
type Rotation struct {
	MaxSize    int
	MaxBackups int
	MaxAge     int
	Compress   bool
}

// DefaultRotation keeps five files of 128MB for at most 16 days.
var DefaultRotation = Rotation{
	MaxSize:    128,
	MaxBackups: 5,
	MaxAge:     16,
}

type sink struct {
	mu     sync.Mutex
	w      io.Writer
	closer io.Closer
}

type logEntry struct {
	Timestamp string `json:"timestamp"`
	Level     string `json:"level"`
	Service   string `json:"service,omitempty"`
	Message   string `json:"message"`
}

// NewFileLogger writes into a rotated file and, when terminal is set, mirrors
// every line there in colour.
func NewFileLogger(name string, level LogLevel, file string, rotation Rotation, terminal io.Writer) *Logger {
	fileWriter := &lumberjack.Logger{
		Filename:   file,
		MaxSize:    rotation.MaxSize,
		MaxBackups: rotation.MaxBackups,
		MaxAge:     rotation.MaxAge,
		Compress:   rotation.Compress,
	}

	w := io.Writer(fileWriter)
	if terminal != nil {
		w = io.MultiWriter(terminal, fileWriter)
	}

	return &Logger{
		sink:       &sink{w: w, closer: fileWriter},
		Name:       name,
		Level:      level,
		TimeFormat: defaultTimeFormat,
		NoColor:    terminal == nil,
	}
}

// NewWriterLogger logs uncoloured lines into w.
func NewWriterLogger(name string, level LogLevel, w io.Writer) *Logger {
	return &Logger{
		sink:       &sink{w: w},
		Name:       name,
		Level:      level,
		TimeFormat: defaultTimeFormat,
		NoColor:    true,
	}
}

// NewNopLogger discards everything.
func NewNopLogger() *Logger {
	return NewWriterLogger("", Off, io.Discard)
}

// Close releases the log file, if any. It is shared with every Named child.
func (l *Logger) Close() error {
	l.sink.mu.Lock()
	defer l.sink.mu.Unlock()

	if l.sink.closer == nil {
		return nil
	}
	err := l.sink.closer.Close()
	l.sink.closer = nil
	return err
}

func (l *Logger) log(level LogLevel, msg string, args ...any) {
	if level < l.Level || level >= Off {
		return
	}

	timestamp := time.Now().Format(l.TimeFormat)
	if len(args) > 0 {
		msg = fmt.Sprintf(msg, args...)
	}

	line, err := l.format(timestamp, level, msg)
	if err != nil {
		return
	}

	l.sink.mu.Lock()
	defer l.sink.mu.Unlock()
	_, _ = l.sink.w.Write(line)
}

func (l *Logger) format(timestamp string, level LogLevel, msg string) ([]byte, error) {
	if l.JSON {
		buf, err := json.Marshal(logEntry{
			Timestamp: timestamp,
			Level:     level.String(),
			Service:   l.Name,
			Message:   msg,
		})
		if err != nil {
			return nil, errors.Join(errors.New("log: encode entry"), err)
		}
		return append(buf, '\n'), nil
	}

	prefix := fmt.Sprintf("[%s] %-5s", timestamp, level)
	if l.Name != "" {
		prefix += " [" + l.Name + "]"
	}

	if l.NoColor {
		return fmt.Appendf(nil, "%s %s\n", prefix, msg), nil
	}
	return fmt.Appendf(nil, "%s%s %s\033[0m\n", level.color(), prefix, msg), nil
}

func (l *Logger) Debug(msg string, args ...any) {
	l.log(Debug, msg, args...)
}

func (l *Logger) Info(msg string, args ...any) {
	l.log(Info, msg, args...)
}

func (l *Logger) Warn(msg string, args ...any) {
	l.log(Warn, msg, args...)
}

func (l *Logger) Error(msg string, args ...any) {
	l.log(Error, msg, args...)
}

// Named derives a child logger called "<parent>/<name>".
func (l *Logger) Named(name string) *Logger {
	child := *l
	if l.Name != "" {
		child.Name = l.Name + "/" + name
	} else {
		child.Name = name
	}
	return &child
}
