package smsc

import (
	"fmt"

	kitlog "github.com/go-kit/log"
)

// Logger provides the logging interface threaded through every session and
// server component, matching the shape the teacher library used so existing
// call sites (InfoF/ErrorF) read the same everywhere in this package.
type Logger interface {
	InfoF(msg string, params ...interface{})
	ErrorF(msg string, params ...interface{})
}

// KitLogger adapts a github.com/go-kit/log.Logger to the Logger interface.
type KitLogger struct {
	l kitlog.Logger
}

// NewKitLogger wraps l.
func NewKitLogger(l kitlog.Logger) KitLogger {
	return KitLogger{l: l}
}

// InfoF implements Logger.
func (k KitLogger) InfoF(msg string, params ...interface{}) {
	k.l.Log("level", "info", "msg", fmt.Sprintf(msg, params...))
}

// ErrorF implements Logger.
func (k KitLogger) ErrorF(msg string, params ...interface{}) {
	k.l.Log("level", "error", "msg", fmt.Sprintf(msg, params...))
}

// NopLogger discards everything; used as the zero-value default so tests and
// helpers never need to construct a logger just to satisfy the interface.
type NopLogger struct{}

// InfoF implements Logger.
func (NopLogger) InfoF(string, ...interface{}) {}

// ErrorF implements Logger.
func (NopLogger) ErrorF(string, ...interface{}) {}
