// Package debug provides opt-in diagnostic logging for gemterm.
//
// The terminal is owned by the TUI while gemterm runs, so debug output goes
// to a file. Enable it with GEMTERM_DEBUG_LOG=/path/to/file (or the debug_log
// config key):
//
//	debug.Log("dispatch %s", address)
//
// When disabled, every function is a no-op.
package debug

import (
	"io"
	"log"
	"sync/atomic"
	"time"
)

var logger atomic.Pointer[log.Logger]

// SetOutput enables logging to w. A nil writer disables logging.
func SetOutput(w io.Writer) {
	if w == nil {
		logger.Store(nil)
		return
	}
	logger.Store(log.New(w, "[gemterm] ", log.Ltime|log.Lmicroseconds))
}

// Enabled returns whether debug logging is enabled.
func Enabled() bool {
	return logger.Load() != nil
}

// Log writes a printf-style message if logging is enabled.
func Log(format string, args ...any) {
	if l := logger.Load(); l != nil {
		l.Printf(format, args...)
	}
}

// LogTiming writes a timing message if logging is enabled.
func LogTiming(name string, d time.Duration) {
	if l := logger.Load(); l != nil {
		l.Printf("%s took %v", name, d)
	}
}
