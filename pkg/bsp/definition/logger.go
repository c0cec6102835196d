// Package definition holds the small set of interfaces a World
// configuration plugs into the core: today, just the logger contract.
package definition

import (
	"fmt"
	"os"

	"github.com/sirupsen/logrus"
)

// Logger is the diagnostic sink a World writes to through its deferred
// log channel (§4.1, §7). Implementations are expected to be safe for
// concurrent use: a Group fans calls out across processor goroutines.
type Logger interface {
	Info(v ...interface{})
	Infof(format string, v ...interface{})
	Warn(v ...interface{})
	Warnf(format string, v ...interface{})
	Error(v ...interface{})
	Errorf(format string, v ...interface{})
	Debug(v ...interface{})
	Debugf(format string, v ...interface{})
	Fatal(v ...interface{})
	Fatalf(format string, v ...interface{})
	Panic(v ...interface{})
	Panicf(format string, v ...interface{})

	// ToggleDebug enables or disables Debug/Debugf output and returns the
	// new state.
	ToggleDebug(enabled bool) bool
}

// DefaultLogger is the logrus-backed Logger used when a Configuration
// does not supply its own.
type DefaultLogger struct {
	entry *logrus.Entry
	debug bool
}

// NewDefaultLogger returns a DefaultLogger writing to stderr at info
// level with processor attribution carried via the "processor" field.
func NewDefaultLogger(processor int) *DefaultLogger {
	l := logrus.New()
	l.SetOutput(os.Stderr)
	l.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	l.SetLevel(logrus.InfoLevel)
	return &DefaultLogger{entry: l.WithField("processor", processor)}
}

func (l *DefaultLogger) Info(v ...interface{})  { l.entry.Info(v...) }
func (l *DefaultLogger) Warn(v ...interface{})  { l.entry.Warn(v...) }
func (l *DefaultLogger) Error(v ...interface{}) { l.entry.Error(v...) }
func (l *DefaultLogger) Fatal(v ...interface{}) { l.entry.Fatal(v...) }

func (l *DefaultLogger) Infof(format string, v ...interface{})  { l.entry.Infof(format, v...) }
func (l *DefaultLogger) Warnf(format string, v ...interface{})  { l.entry.Warnf(format, v...) }
func (l *DefaultLogger) Errorf(format string, v ...interface{}) { l.entry.Errorf(format, v...) }
func (l *DefaultLogger) Fatalf(format string, v ...interface{}) { l.entry.Fatalf(format, v...) }

func (l *DefaultLogger) Panic(v ...interface{}) { l.entry.Panic(v...) }
func (l *DefaultLogger) Panicf(format string, v ...interface{}) { l.entry.Panicf(format, v...) }

func (l *DefaultLogger) Debug(v ...interface{}) {
	if l.debug {
		l.entry.Debug(v...)
	}
}

func (l *DefaultLogger) Debugf(format string, v ...interface{}) {
	if l.debug {
		l.entry.Debugf(format, v...)
	}
}

// ToggleDebug implements Logger.
func (l *DefaultLogger) ToggleDebug(enabled bool) bool {
	l.debug = enabled
	if enabled {
		l.entry.Logger.SetLevel(logrus.DebugLevel)
	} else {
		l.entry.Logger.SetLevel(logrus.InfoLevel)
	}
	return l.debug
}

// attributed formats a message the way the deferred log flush prints it:
// with an explicit processor tag, for backends whose Logger does not
// already carry one per-entry.
func attributed(processor int, msg string) string {
	return fmt.Sprintf("[p%d] %s", processor, msg)
}

// Attributed is exported for backends (see package local) that buffer
// raw strings and only attach a Logger at flush time.
func Attributed(processor int, msg string) string { return attributed(processor, msg) }
