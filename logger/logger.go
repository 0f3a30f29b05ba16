package logger

import (
	"os"

	"github.com/sirupsen/logrus"
)

const (
	TRACE = "trace"
	DEBUG = "debug"
	INFO  = "info"
	WARN  = "warn"
	ERROR = "error"
)

type Logger interface {
	Trace(message string, args ...interface{})
	Debug(message string, args ...interface{})
	Info(message string, args ...interface{})
	Warn(message string, args ...interface{})
	Error(message string, args ...interface{})
	Log(level string, message string, args ...interface{})
}

type Loggers struct {
	Logrus *logrus.Logger
}

func (l *Loggers) Trace(message string, args ...interface{}) {
	l.Logrus.Tracef(message, args...)
}

func (l *Loggers) Debug(message string, args ...interface{}) {
	l.Logrus.Debugf(message, args...)
}

func (l *Loggers) Info(message string, args ...interface{}) {
	l.Logrus.Infof(message, args...)
}

func (l *Loggers) Warn(message string, args ...interface{}) {
	l.Logrus.Warnf(message, args...)
}

func (l *Loggers) Error(message string, args ...interface{}) {
	l.Logrus.Errorf(message, args...)
}

func (l *Loggers) Log(level string, message string, args ...interface{}) {
	parsed, err := logrus.ParseLevel(level)
	if err != nil {
		parsed = logrus.InfoLevel
	}

	l.Logrus.Logf(parsed, message, args...)
}

var Log Logger = New(INFO)

// New builds a logrus backed Logger writing json lines to stdout.
// Unknown levels fall back to info.
func New(level string) *Loggers {
	l := logrus.New()
	l.SetOutput(os.Stdout)
	l.SetFormatter(&logrus.JSONFormatter{})

	parsed, err := logrus.ParseLevel(level)
	if err != nil {
		parsed = logrus.InfoLevel
	}
	l.SetLevel(parsed)

	return &Loggers{Logrus: l}
}

func InitDefaultLogger(level string) {
	Log = New(level)
}

func SetLogger(logger Logger) {
	Log = logger
}
