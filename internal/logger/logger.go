// Package logger provides component-scoped structured logging backed by zerolog.
package logger

import (
	"io"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/term"
)

var (
	mu  sync.RWMutex
	log = newLogger(os.Stderr, zerolog.InfoLevel)
)

func newLogger(w io.Writer, level zerolog.Level) zerolog.Logger {
	if f, ok := w.(*os.File); ok && term.IsTerminal(int(f.Fd())) {
		w = zerolog.ConsoleWriter{Out: f, TimeFormat: time.Kitchen}
	}
	return zerolog.New(w).Level(level).With().Timestamp().Logger()
}

// Setup replaces the global logger. An unknown level falls back to info.
func Setup(w io.Writer, level string) {
	lvl, err := zerolog.ParseLevel(strings.ToLower(level))
	if err != nil || level == "" {
		lvl = zerolog.InfoLevel
	}

	mu.Lock()
	defer mu.Unlock()
	log = newLogger(w, lvl)
}

// Disable silences all logging (used while a TUI owns the terminal)
func Disable() {
	mu.Lock()
	defer mu.Unlock()
	log = zerolog.Nop()
}

func current() zerolog.Logger {
	mu.RLock()
	defer mu.RUnlock()
	return log
}

func emit(e *zerolog.Event, component, msg string, fields map[string]interface{}) {
	if e == nil {
		return
	}
	e = e.Str("component", component)
	for k, v := range fields {
		e = e.Interface(k, v)
	}
	e.Msg(msg)
}

// DebugCF logs a debug message with component and fields
func DebugCF(component, msg string, fields map[string]interface{}) {
	l := current()
	emit(l.Debug(), component, msg, fields)
}

// InfoCF logs an info message with component and fields
func InfoCF(component, msg string, fields map[string]interface{}) {
	l := current()
	emit(l.Info(), component, msg, fields)
}

// WarnCF logs a warning with component and fields
func WarnCF(component, msg string, fields map[string]interface{}) {
	l := current()
	emit(l.Warn(), component, msg, fields)
}

// ErrorCF logs an error with component and fields
func ErrorCF(component, msg string, fields map[string]interface{}) {
	l := current()
	emit(l.Error(), component, msg, fields)
}
