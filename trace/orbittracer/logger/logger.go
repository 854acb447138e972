package logger

import (
	"log"

	"github.com/sirupsen/logrus"
)

type Logger interface {
	Debug(format string, args ...interface{})
	Info(format string, args ...interface{})
	Error(format string, args ...interface{})
}

type NoopLogger struct{}

func (l *NoopLogger) Debug(format string, args ...interface{}) {}
func (l *NoopLogger) Info(format string, args ...interface{})  {}
func (l *NoopLogger) Error(format string, args ...interface{}) {}

// StdLogger writes to the standard library logger.
type StdLogger struct{}

func (l *StdLogger) Debug(format string, args ...interface{}) {
	log.Printf("[Debug]"+format, args...)
}

func (l *StdLogger) Info(format string, args ...interface{}) {
	log.Printf("[Info]"+format, args...)
}

func (l *StdLogger) Error(format string, args ...interface{}) {
	log.Printf("[Error]"+format, args...)
}

// LogrusLogger adapts a logrus logger to the Logger interface.
type LogrusLogger struct {
	l *logrus.Logger
}

func NewLogrusLogger(l *logrus.Logger) *LogrusLogger {
	if l == nil {
		l = logrus.StandardLogger()
	}
	return &LogrusLogger{l: l}
}

func (l *LogrusLogger) Debug(format string, args ...interface{}) {
	l.l.Debugf(format, args...)
}

func (l *LogrusLogger) Info(format string, args ...interface{}) {
	l.l.Infof(format, args...)
}

func (l *LogrusLogger) Error(format string, args ...interface{}) {
	l.l.Errorf(format, args...)
}
