// Package monitoring holds the diagnostic logger shared by the occlusion
// packages.
package monitoring

import (
	"io"
	"log"
)

// Logf is the package-level diagnostic logger. It defaults to log.Printf
// and may be replaced by SetLogger. Replace it before starting batch work;
// it is read without locking.
var Logf func(format string, v ...interface{}) = log.Printf

// SetLogger replaces the package logger. Passing nil installs a no-op logger.
func SetLogger(f func(format string, v ...interface{})) {
	if f == nil {
		Logf = func(string, ...interface{}) {}
		return
	}
	Logf = f
}

// Warnf logs a non-fatal condition with a WARNING prefix.
func Warnf(format string, v ...interface{}) {
	Logf("WARNING: "+format, v...)
}

// NewLogger returns a Logf-compatible function writing to w with the given
// prefix, used by the CLI to route diagnostics to stderr.
func NewLogger(w io.Writer, prefix string) func(format string, v ...interface{}) {
	l := log.New(w, prefix, log.LstdFlags)
	return l.Printf
}
