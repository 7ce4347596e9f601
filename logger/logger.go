// Package logger defines the minimal leveled logger the loaders emit
// debug traces through. Hosts plug their own implementation in via
// conf.WithLogger; the default writes to the standard library log.
package logger

import (
	"fmt"
	"log"
	"strings"
)

type Logger interface {
	Debug(msg string, kv ...any)
	Info(msg string, kv ...any)
	Error(msg string, kv ...any)
}

// Default returns a Logger backed by the stdlib log package, prefixing
// every line with the component name.
func Default(name string) Logger {
	return &stdLogger{name: name}
}

// Nop returns a Logger that discards everything.
func Nop() Logger {
	return nopLogger{}
}

type stdLogger struct {
	name string
}

func (l *stdLogger) Debug(msg string, kv ...any) { l.emit("DEBUG", msg, kv) }
func (l *stdLogger) Info(msg string, kv ...any)  { l.emit("INFO", msg, kv) }
func (l *stdLogger) Error(msg string, kv ...any) { l.emit("ERROR", msg, kv) }

func (l *stdLogger) emit(level, msg string, kv []any) {
	var b strings.Builder
	fmt.Fprintf(&b, "[%s] %s | %s", level, l.name, msg)
	for i := 0; i+1 < len(kv); i += 2 {
		fmt.Fprintf(&b, " %v=%v", kv[i], kv[i+1])
	}
	if len(kv)%2 == 1 {
		fmt.Fprintf(&b, " %v", kv[len(kv)-1])
	}
	log.Println(b.String())
}

type nopLogger struct{}

func (nopLogger) Debug(string, ...any) {}
func (nopLogger) Info(string, ...any)  {}
func (nopLogger) Error(string, ...any) {}
