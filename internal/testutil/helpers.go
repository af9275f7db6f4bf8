package testutil

import (
	"context"
	"testing"
	"time"
)

const grace = 5 * time.Second

// Context is cancelled when t finishes, and expires shortly before the
// test binary's -timeout so a hung container call fails the test instead
// of killing the run.
func Context(t *testing.T) context.Context {
	t.Helper()
	deadline, ok := t.Deadline()
	if !ok {
		deadline = time.Now().Add(2 * time.Minute)
	}
	ctx, cancel := context.WithDeadline(context.Background(), deadline.Add(-grace))
	t.Cleanup(cancel)
	return ctx
}
