// Package buildlog provides the build's ambient logging: a thin wrapper
// over the standard library's log.Logger that prefixes every line with
// a phase and component tag and gates verbose output behind a single
// switch, the way the teacher's plugins prefix their own fmt.Printf
// diagnostics (e.g. "[image_optimization] WARNING: ...").
package buildlog

import (
	"fmt"
	"io"
	"log"
	"os"
	"sync"
)

// Level controls which messages reach the underlying writer.
type Level int

const (
	LevelQuiet Level = iota
	LevelNormal
	LevelVerbose
)

var (
	mu      sync.Mutex
	level   = LevelNormal
	std     = log.New(os.Stderr, "", 0)
)

// SetOutput redirects all buildlog output; used by tests.
func SetOutput(w io.Writer) {
	mu.Lock()
	defer mu.Unlock()
	std.SetOutput(w)
}

// SetLevel adjusts the verbosity gate for subsequent log calls.
func SetLevel(l Level) {
	mu.Lock()
	defer mu.Unlock()
	level = l
}

// Logger is a bound [phase]/[component] logger handed to a build phase
// or a pipeline component so call sites don't repeat their own tags.
type Logger struct {
	phase     string
	component string
}

// New returns a Logger tagged with the given phase and component, e.g.
// New("P10", "render").
func New(phase, component string) *Logger {
	return &Logger{phase: phase, component: component}
}

func (l *Logger) prefix() string {
	switch {
	case l.phase != "" && l.component != "":
		return fmt.Sprintf("[%s][%s] ", l.phase, l.component)
	case l.component != "":
		return fmt.Sprintf("[%s] ", l.component)
	case l.phase != "":
		return fmt.Sprintf("[%s] ", l.phase)
	default:
		return ""
	}
}

func (l *Logger) emit(min Level, format string, args ...interface{}) {
	mu.Lock()
	cur := level
	mu.Unlock()
	if cur < min {
		return
	}
	std.Printf(l.prefix()+format, args...)
}

// Info logs at normal verbosity.
func (l *Logger) Info(format string, args ...interface{}) {
	l.emit(LevelNormal, format, args...)
}

// Warn logs a warning; always shown unless quiet.
func (l *Logger) Warn(format string, args ...interface{}) {
	l.emit(LevelNormal, "WARNING: "+format, args...)
}

// Debug logs only when the verbosity gate is set to verbose.
func (l *Logger) Debug(format string, args ...interface{}) {
	l.emit(LevelVerbose, format, args...)
}

// Error always logs, even in quiet mode — it accompanies a build
// failure the caller is already surfacing.
func (l *Logger) Error(format string, args ...interface{}) {
	mu.Lock()
	cur := level
	mu.Unlock()
	_ = cur
	std.Printf(l.prefix()+"ERROR: "+format, args...)
}
