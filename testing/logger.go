package testing

import (
	"testing"

	"github.com/arloliu/keysplit/types"
)

// NewTestLogger returns a logger that writes every record through t.Logf,
// so output shows up next to the failing test. Fatal fails the test.
func NewTestLogger(t testing.TB) types.Logger {
	return &testLogger{tb: t}
}

type testLogger struct {
	tb testing.TB
}

var _ types.Logger = (*testLogger)(nil)

func (l *testLogger) Debug(msg string, keysAndValues ...any) {
	l.tb.Logf("DEBUG: %s %v", msg, keysAndValues)
}

func (l *testLogger) Info(msg string, keysAndValues ...any) {
	l.tb.Logf("INFO: %s %v", msg, keysAndValues)
}

func (l *testLogger) Warn(msg string, keysAndValues ...any) {
	l.tb.Logf("WARN: %s %v", msg, keysAndValues)
}

func (l *testLogger) Error(msg string, keysAndValues ...any) {
	l.tb.Logf("ERROR: %s %v", msg, keysAndValues)
}

func (l *testLogger) Fatal(msg string, keysAndValues ...any) {
	l.tb.Fatalf("FATAL: %s %v", msg, keysAndValues)
}
