// Package monitoring provides a process-wide logging hook. Packages log
// through Logf; callers can swap the destination or silence output entirely
// (tests do this via SetLogger(nil)).
package monitoring

import "log"

// Logf is the logging function used throughout the process. It defaults to
// log.Printf. Replace it at startup, not while work is in flight.
var Logf func(format string, v ...interface{}) = log.Printf

// SetLogger installs f as the process logger. A nil f silences logging.
func SetLogger(f func(format string, v ...interface{})) {
	if f == nil {
		Logf = func(format string, v ...interface{}) {}
		return
	}
	Logf = f
}
