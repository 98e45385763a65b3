// Package logx provides a thin per-component prefix over the standard
// library logger, matching the plain log.Printf style used throughout
// the driver layer (no structured logging framework in this stack).
package logx

import (
	"log"
	"os"
)

// Logger prefixes every line with a component tag, e.g. "[chain0/fpga]".
type Logger struct {
	prefix string
	std    *log.Logger
}

// New creates a Logger tagged with component.
func New(component string) *Logger {
	return &Logger{
		prefix: "[" + component + "] ",
		std:    log.New(os.Stderr, "", log.LstdFlags),
	}
}

func (l *Logger) Printf(format string, args ...interface{}) {
	l.std.Printf(l.prefix+format, args...)
}

func (l *Logger) Println(args ...interface{}) {
	all := append([]interface{}{l.prefix}, args...)
	l.std.Println(all...)
}

// Warnf logs a recoverable condition, following the teacher's convention
// of calling out degraded-but-continuing operation explicitly.
func (l *Logger) Warnf(format string, args ...interface{}) {
	l.std.Printf(l.prefix+"warn: "+format, args...)
}
