package state

import (
	"context"
	"os"
	"testing"

	"github.com/openq1/q1display/log2"
)

// NewTestSession builds Session from inline config with mock links.
// Set env q1display_test_log_stderr=1 to see logs after panic.
func NewTestSession(t testing.TB, confString string) (context.Context, *Session) {
	fs := NewMockFullReader(map[string]string{
		"test-inline": confString,
	})

	var log *log2.Log
	if os.Getenv("q1display_test_log_stderr") == "1" {
		log = log2.NewStderr(log2.LDebug)
	} else {
		log = log2.NewTest(t, log2.LDebug)
	}
	log.SetFlags(log2.LTestFlags)

	s := NewSession(log, MustReadConfig(log, fs, "test-inline"))
	s.Display = new(MockDisplay)
	s.Printer = new(MockPrinter)
	t.Cleanup(func() {
		s.Alive.Stop()
		s.Alive.Wait()
	})
	return s.Context(context.Background()), s
}
