package logger

import (
	"strings"

	"github.com/pion/logging"
)

var _ logging.LoggerFactory = new(LoggerFactory)

// LoggerFactory hands pion libraries a logging.LeveledLogger backed by our Logger,
// so dtls and friends end up in the same output.
type LoggerFactory struct {
	Level int
}

// NewLoggerFactory creates a factory whose loggers use the given level.
func NewLoggerFactory(level int) *LoggerFactory {
	return &LoggerFactory{Level: level}
}

func (f *LoggerFactory) NewLogger(scope string) logging.LeveledLogger {
	return &leveledLogger{l: NewLogger(f.Level, strings.ToUpper(scope))}
}

type leveledLogger struct {
	l Logger
}

// pion trace output is too chatty, it goes to debug.
func (p *leveledLogger) Trace(msg string) { p.l.Debug(msg) }

func (p *leveledLogger) Tracef(format string, args ...interface{}) { p.l.Debugf(format, args...) }

func (p *leveledLogger) Debug(msg string) { p.l.Debug(msg) }

func (p *leveledLogger) Debugf(format string, args ...interface{}) { p.l.Debugf(format, args...) }

func (p *leveledLogger) Info(msg string) { p.l.Info(msg) }

func (p *leveledLogger) Infof(format string, args ...interface{}) { p.l.Infof(format, args...) }

func (p *leveledLogger) Warn(msg string) { p.l.Warn(msg) }

func (p *leveledLogger) Warnf(format string, args ...interface{}) { p.l.Warnf(format, args...) }

func (p *leveledLogger) Error(msg string) { p.l.Error(msg) }

func (p *leveledLogger) Errorf(format string, args ...interface{}) { p.l.Errorf(format, args...) }
