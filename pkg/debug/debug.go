// Package debug writes diagnostic messages to stderr when TREEKIT_DEBUG is
// set. With the variable unset every function returns immediately.
//
//	TREEKIT_DEBUG=1 tk -file tree.json
package debug

import (
	"fmt"
	"io"
	"log"
	"os"
	"sync"
	"time"
)

const prefix = "[TREEKIT_DEBUG] "

var (
	mu      sync.RWMutex
	enabled bool
	logger  *log.Logger
)

func init() {
	if os.Getenv("TREEKIT_DEBUG") != "" {
		SetEnabled(true)
	}
}

// Enabled reports whether debug logging is on.
func Enabled() bool {
	mu.RLock()
	defer mu.RUnlock()
	return enabled
}

// SetEnabled switches debug logging on or off. Output goes to stderr unless
// SetOutput was called.
func SetEnabled(e bool) {
	mu.Lock()
	defer mu.Unlock()
	enabled = e
	if e && logger == nil {
		logger = log.New(os.Stderr, prefix, log.Ltime|log.Lmicroseconds)
	}
}

// SetOutput redirects debug output. The TUI points it at a file so messages
// do not tear the alternate screen.
func SetOutput(w io.Writer) {
	mu.Lock()
	defer mu.Unlock()
	logger = log.New(w, prefix, log.Ltime|log.Lmicroseconds)
}

func active() *log.Logger {
	mu.RLock()
	defer mu.RUnlock()
	if !enabled {
		return nil
	}
	return logger
}

// Log writes a printf-style message.
func Log(format string, args ...any) {
	if l := active(); l != nil {
		l.Printf(format, args...)
	}
}

// LogIf logs only when cond holds.
func LogIf(cond bool, format string, args ...any) {
	if !cond {
		return
	}
	Log(format, args...)
}

// LogTiming logs how long name took.
func LogTiming(name string, d time.Duration) {
	if l := active(); l != nil {
		l.Printf("%s took %v", name, d)
	}
}

// LogEnterExit logs entry immediately and exit with elapsed time when the
// returned function runs.
//
//	defer debug.LogEnterExit("load")()
func LogEnterExit(name string) func() {
	l := active()
	if l == nil {
		return func() {}
	}
	l.Printf("-> %s", name)
	start := time.Now()
	return func() {
		l.Printf("<- %s (%v)", name, time.Since(start))
	}
}

// Dump logs v with its type.
func Dump(name string, v any) {
	if l := active(); l != nil {
		l.Printf("%s: %T = %+v", name, v, v)
	}
}

// AssertNoError panics on err, but only while debugging.
func AssertNoError(err error, context string) {
	l := active()
	if l == nil || err == nil {
		return
	}
	l.Printf("ASSERTION FAILED: %s: %v", context, err)
	panic(fmt.Sprintf("debug assertion failed: %s: %v", context, err))
}

// Trace is LogEnterExit.
var Trace = LogEnterExit
