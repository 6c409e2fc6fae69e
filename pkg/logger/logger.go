// Package logger provides the logging interface shared by every oscalarm
// component. Backends write to a stdlib *log.Logger, discard output, fan out
// to several loggers, or record calls for tests.
package logger

import (
	"fmt"
	"log"
	"strings"
	"sync"
)

// Logger defines the interface for leveled logging across all oscalarm components.
type Logger interface {
	// Info logs an informational message (e.g., "Next alarm set for 07:00").
	Info(format string, args ...interface{})

	// Warning logs a warning message (e.g., "Dropped malformed packet").
	Warning(format string, args ...interface{})

	// Error logs an error message (e.g., "Failed to send AlarmShouldFire: connection refused").
	Error(format string, args ...interface{})

	// Close releases resources held by the logger.
	// Safe to call multiple times. Returns nil for loggers without resources.
	Close() error
}

// StandardLogger wraps the stdlib *log.Logger for console/file output.
type StandardLogger struct {
	logger *log.Logger
}

// NewStandardLogger creates a logger that wraps the given *log.Logger.
func NewStandardLogger(l *log.Logger) *StandardLogger {
	return &StandardLogger{logger: l}
}

// Info logs an informational message with [INFO] prefix.
func (s *StandardLogger) Info(format string, args ...interface{}) {
	s.logger.Printf("[INFO] "+format, args...)
}

// Warning logs a warning message with [WARNING] prefix.
func (s *StandardLogger) Warning(format string, args ...interface{}) {
	s.logger.Printf("[WARNING] "+format, args...)
}

// Error logs an error message with [ERROR] prefix.
func (s *StandardLogger) Error(format string, args ...interface{}) {
	s.logger.Printf("[ERROR] "+format, args...)
}

// Close is a no-op for StandardLogger.
func (s *StandardLogger) Close() error {
	return nil
}

// NopLogger is a logger that discards all messages.
type NopLogger struct{}

// NewNopLogger creates a logger that discards all messages.
func NewNopLogger() *NopLogger {
	return &NopLogger{}
}

func (n *NopLogger) Info(format string, args ...interface{})    {}
func (n *NopLogger) Warning(format string, args ...interface{}) {}
func (n *NopLogger) Error(format string, args ...interface{})   {}
func (n *NopLogger) Close() error                               { return nil }

// OrNop returns l, or a NopLogger when l is nil. Constructors use it so
// that a nil Logger is always safe to pass.
func OrNop(l Logger) Logger {
	if l == nil {
		return NewNopLogger()
	}
	return l
}

// prefixed tags every message with a component name.
type prefixed struct {
	prefix string
	next   Logger
}

// WithPrefix returns a Logger that prepends "name: " to every message
// before handing it to l.
func WithPrefix(l Logger, name string) Logger {
	return &prefixed{prefix: name + ": ", next: OrNop(l)}
}

func (p *prefixed) Info(format string, args ...interface{}) {
	p.next.Info(p.prefix+format, args...)
}

func (p *prefixed) Warning(format string, args ...interface{}) {
	p.next.Warning(p.prefix+format, args...)
}

func (p *prefixed) Error(format string, args ...interface{}) {
	p.next.Error(p.prefix+format, args...)
}

func (p *prefixed) Close() error {
	return p.next.Close()
}

// quiet drops informational messages.
type quiet struct {
	next Logger
}

// Quiet returns a Logger that forwards only warnings and errors to l. The
// daemon uses it unless debug logging is enabled.
func Quiet(l Logger) Logger {
	return quiet{next: OrNop(l)}
}

func (q quiet) Info(string, ...interface{}) {}

func (q quiet) Warning(format string, args ...interface{}) {
	q.next.Warning(format, args...)
}

func (q quiet) Error(format string, args ...interface{}) {
	q.next.Error(format, args...)
}

func (q quiet) Close() error {
	return q.next.Close()
}

// stdWriter feeds lines written by a *log.Logger back into a Logger as warnings.
type stdWriter struct {
	l Logger
}

func (w stdWriter) Write(p []byte) (int, error) {
	w.l.Warning("%s", strings.TrimRight(string(p), "\n"))
	return len(p), nil
}

// ToStdLogger adapts l to a *log.Logger, for libraries that only accept the
// stdlib type (e.g. http.Server.ErrorLog). Those libraries only report
// problems, so every line is logged as a warning.
func ToStdLogger(l Logger) *log.Logger {
	return log.New(stdWriter{l: OrNop(l)}, "", 0)
}

// Ensure implementations satisfy the Logger interface.
var (
	_ Logger = (*StandardLogger)(nil)
	_ Logger = (*NopLogger)(nil)
	_ Logger = (*prefixed)(nil)
	_ Logger = quiet{}
)

// MockLogger implements Logger for testing purposes.
// It records all log calls and is safe for concurrent use, since timer
// callbacks and the receive loop log from their own goroutines.
type MockLogger struct {
	mu           sync.Mutex
	InfoCalls    []string
	WarningCalls []string
	ErrorCalls   []string
	CloseCalled  bool
}

// NewMockLogger creates a new MockLogger for testing.
func NewMockLogger() *MockLogger {
	return &MockLogger{}
}

// Info records the formatted message.
func (m *MockLogger) Info(format string, args ...interface{}) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.InfoCalls = append(m.InfoCalls, fmt.Sprintf(format, args...))
}

// Warning records the formatted message.
func (m *MockLogger) Warning(format string, args ...interface{}) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.WarningCalls = append(m.WarningCalls, fmt.Sprintf(format, args...))
}

// Error records the formatted message.
func (m *MockLogger) Error(format string, args ...interface{}) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.ErrorCalls = append(m.ErrorCalls, fmt.Sprintf(format, args...))
}

// Close records that Close was called.
func (m *MockLogger) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.CloseCalled = true
	return nil
}

// Errors returns a copy of the recorded error messages.
func (m *MockLogger) Errors() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.ErrorCalls...)
}

// Warnings returns a copy of the recorded warning messages.
func (m *MockLogger) Warnings() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.WarningCalls...)
}

// Infos returns a copy of the recorded info messages.
func (m *MockLogger) Infos() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.InfoCalls...)
}

var _ Logger = (*MockLogger)(nil)
