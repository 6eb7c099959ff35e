package logger

import (
	"fmt"
	"io"
	"log"
	"sync"
)

var (
	_ Logger = new(stubLogger)
	_ Logger = new(defaultLogger)
)

type Logger interface {
	Error(v ...interface{})
	Errorf(format string, v ...interface{})

	Warn(v ...interface{})
	Warnf(format string, v ...interface{})

	Info(v ...interface{})
	Infof(format string, v ...interface{})

	Debug(v ...interface{})
	Debugf(format string, v ...interface{})

	SetLevel(level int)
	SetOutput(w io.Writer)
}

const (
	LevelError = iota
	LevelWarn
	LevelInfo
	LevelDebug
	LevelAll
)

var levelTags = [...]string{
	LevelError: "[ERROR]",
	LevelWarn:  "[WARN]",
	LevelInfo:  "[INFO]",
	LevelDebug: "[DEBUG]",
}

// ParseLevel maps a config string to a level, unknown values fall back to LevelInfo.
func ParseLevel(s string) int {
	switch s {
	case "error":
		return LevelError
	case "warn", "warning":
		return LevelWarn
	case "debug":
		return LevelDebug
	case "all", "trace":
		return LevelAll
	}
	return LevelInfo
}

// NewLogger returns a logger prefixing every line with [trace].
func NewLogger(level int, trace string) Logger {
	return &defaultLogger{
		level: level,
		trace: fmt.Sprintf("[%s]", trace),
	}
}

// NewStubLogger discards everything, handy in tests.
func NewStubLogger() Logger {
	return &stubLogger{}
}

type stubLogger struct{}

func (l *stubLogger) SetLevel(_ int) {
}

func (l *stubLogger) SetOutput(_ io.Writer) {
}

func (l *stubLogger) Error(_ ...interface{}) {
}

func (l *stubLogger) Errorf(_ string, _ ...interface{}) {
}

func (l *stubLogger) Warn(_ ...interface{}) {
}

func (l *stubLogger) Warnf(_ string, _ ...interface{}) {
}

func (l *stubLogger) Info(_ ...interface{}) {
}

func (l *stubLogger) Infof(_ string, _ ...interface{}) {
}

func (l *stubLogger) Debug(_ ...interface{}) {
}

func (l *stubLogger) Debugf(_ string, _ ...interface{}) {
}

type defaultLogger struct {
	m     sync.RWMutex
	level int
	trace string
	out   *log.Logger // nil means the std log package
}

func (l *defaultLogger) SetLevel(level int) {
	l.m.Lock()
	l.level = level
	l.m.Unlock()
}

func (l *defaultLogger) SetOutput(w io.Writer) {
	l.m.Lock()
	l.out = log.New(w, "", log.LstdFlags|log.Lshortfile)
	l.m.Unlock()
}

func (l *defaultLogger) enabled(level int) bool {
	l.m.RLock()
	defer l.m.RUnlock()
	return l.level >= level
}

const defaultCallDepth = 3

func (l *defaultLogger) output(level int, v []interface{}) {
	if !l.enabled(level) {
		return
	}
	v = append([]interface{}{l.trace, levelTags[level]}, v...)
	s := fmt.Sprintln(v...)
	l.m.RLock()
	out := l.out
	l.m.RUnlock()
	if out != nil {
		_ = out.Output(defaultCallDepth, s)
		return
	}
	_ = log.Output(defaultCallDepth, s)
}

func (l *defaultLogger) Error(v ...interface{}) {
	l.output(LevelError, v)
}

func (l *defaultLogger) Errorf(format string, v ...interface{}) {
	l.output(LevelError, []interface{}{fmt.Sprintf(format, v...)})
}

func (l *defaultLogger) Warn(v ...interface{}) {
	l.output(LevelWarn, v)
}

func (l *defaultLogger) Warnf(format string, v ...interface{}) {
	l.output(LevelWarn, []interface{}{fmt.Sprintf(format, v...)})
}

func (l *defaultLogger) Info(v ...interface{}) {
	l.output(LevelInfo, v)
}

func (l *defaultLogger) Infof(format string, v ...interface{}) {
	l.output(LevelInfo, []interface{}{fmt.Sprintf(format, v...)})
}

func (l *defaultLogger) Debug(v ...interface{}) {
	l.output(LevelDebug, v)
}

func (l *defaultLogger) Debugf(format string, v ...interface{}) {
	l.output(LevelDebug, []interface{}{fmt.Sprintf(format, v...)})
}

var std = &defaultLogger{
	level: LevelInfo,
	trace: "[HAMMER]",
}

// Std returns the process-wide logger used by the package level helpers.
func Std() Logger {
	return std
}

func Error(v ...interface{}) {
	std.output(LevelError, v)
}

func Errorf(format string, v ...interface{}) {
	std.output(LevelError, []interface{}{fmt.Sprintf(format, v...)})
}

func Warn(v ...interface{}) {
	std.output(LevelWarn, v)
}

func Warnf(format string, v ...interface{}) {
	std.output(LevelWarn, []interface{}{fmt.Sprintf(format, v...)})
}

func Info(v ...interface{}) {
	std.output(LevelInfo, v)
}

func Infof(format string, v ...interface{}) {
	std.output(LevelInfo, []interface{}{fmt.Sprintf(format, v...)})
}

func Debug(v ...interface{}) {
	std.output(LevelDebug, v)
}

func Debugf(format string, v ...interface{}) {
	std.output(LevelDebug, []interface{}{fmt.Sprintf(format, v...)})
}

func SetLevel(level int) {
	std.SetLevel(level)
}

func SetOutput(w io.Writer) {
	std.SetOutput(w)
}
