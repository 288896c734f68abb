package testing

import (
	"fmt"
	"io"
	"os"
	"sync"
)

// stdoutLogger implements TestLogger for CLI mode
type stdoutLogger struct {
	verbose bool
	debug   bool

	mu     sync.Mutex
	out    io.Writer
	errOut io.Writer
}

// NewStdoutLogger creates a logger that outputs to stdout/stderr
func NewStdoutLogger(verbose, debug bool) TestLogger {
	return NewWriterLogger(verbose, debug, os.Stdout, os.Stderr)
}

// NewWriterLogger creates a logger writing progress to out and errors to errOut.
func NewWriterLogger(verbose, debug bool, out, errOut io.Writer) TestLogger {
	return &stdoutLogger{verbose: verbose, debug: debug, out: out, errOut: errOut}
}

func (l *stdoutLogger) write(w io.Writer, format string, args ...interface{}) {
	l.mu.Lock()
	defer l.mu.Unlock()
	fmt.Fprintf(w, format, args...)
}

func (l *stdoutLogger) Debug(format string, args ...interface{}) {
	if l.debug {
		l.write(l.out, format, args...)
	}
}

func (l *stdoutLogger) Info(format string, args ...interface{}) {
	if l.verbose || l.debug {
		l.write(l.out, format, args...)
	}
}

func (l *stdoutLogger) Error(format string, args ...interface{}) {
	l.write(l.errOut, format, args...)
}

func (l *stdoutLogger) IsDebugEnabled() bool {
	return l.debug
}

func (l *stdoutLogger) IsVerboseEnabled() bool {
	return l.verbose
}

// silentLogger implements TestLogger for embedded mode, suppressing all output
type silentLogger struct {
	verbose bool
	debug   bool
}

// NewSilentLogger creates a logger that suppresses all output
func NewSilentLogger(verbose, debug bool) TestLogger {
	return &silentLogger{verbose: verbose, debug: debug}
}

func (l *silentLogger) Debug(format string, args ...interface{}) {}

func (l *silentLogger) Info(format string, args ...interface{}) {}

func (l *silentLogger) Error(format string, args ...interface{}) {}

func (l *silentLogger) IsDebugEnabled() bool {
	return l.debug
}

func (l *silentLogger) IsVerboseEnabled() bool {
	return l.verbose
}
