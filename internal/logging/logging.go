// Package logging wraps the standard log package with a component
// prefix, the way the corpus's small services log directly through
// stdlib log.Printf/log.Fatalf rather than a structured logging
// library.
package logging

import (
	"fmt"
	"log"
	"os"
)

// Logger prefixes every line with a component name.
type Logger struct {
	component string
	std       *log.Logger
}

// New constructs a Logger writing to stderr, prefixed with component.
func New(component string) *Logger {
	return &Logger{
		component: component,
		std:       log.New(os.Stderr, "", log.LstdFlags),
	}
}

func (l *Logger) line(format string, args ...interface{}) string {
	return fmt.Sprintf("[%s] %s", l.component, fmt.Sprintf(format, args...))
}

// Printf logs a formatted line.
func (l *Logger) Printf(format string, args ...interface{}) {
	l.std.Print(l.line(format, args...))
}

// Fatalf logs a formatted line and exits the process with status 1.
func (l *Logger) Fatalf(format string, args ...interface{}) {
	l.std.Fatal(l.line(format, args...))
}

// AtSimTime returns a Logger whose lines also carry a simulated
// timestamp, for use inside Executive receivers where wall-clock time
// is meaningless to the reader.
func (l *Logger) AtSimTime(simSeconds float64) *Logger {
	return &Logger{
		component: fmt.Sprintf("%s t=%.3f", l.component, simSeconds),
		std:       l.std,
	}
}
