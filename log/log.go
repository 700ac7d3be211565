// Package log implements the levelled log lines used throughout eo-backup, e.g.
//
//	2024/03/07 02:00:01 INFO  Exporting 3 lists
//
// DEBUG lines are suppressed unless debugging has been enabled with SetDebug.
package log

import (
	"fmt"
	"io"
	syslog "log"
	"os"
	"sync"
)

var (
	mu     sync.RWMutex
	debug  bool
	logger = syslog.New(os.Stderr, "", syslog.LstdFlags)
)

// SetDebug enables or disables DEBUG log lines.
func SetDebug(enabled bool) {
	mu.Lock()
	defer mu.Unlock()

	debug = enabled
}

// SetOutput redirects log output. Defaults to os.Stderr.
func SetOutput(w io.Writer) {
	mu.Lock()
	defer mu.Unlock()

	logger.SetOutput(w)
}

func Debugf(format string, args ...any) {
	mu.RLock()
	enabled := debug
	mu.RUnlock()

	if enabled {
		write("DEBUG", format, args...)
	}
}

func Infof(format string, args ...any) {
	write("INFO", format, args...)
}

func Warnf(format string, args ...any) {
	write("WARN", format, args...)
}

func Errorf(format string, args ...any) {
	write("ERROR", format, args...)
}

func write(level string, format string, args ...any) {
	mu.RLock()
	defer mu.RUnlock()

	logger.Printf("%-5s %s", level, fmt.Sprintf(format, args...))
}
