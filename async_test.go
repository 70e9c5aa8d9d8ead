package async

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/silkloop/async/loop"
)

// newTestLoop returns an isolated loop pinned to the portable poll backend,
// matching the pattern used in the loop package's own tests, so awaitable
// tests never depend on (or pollute) the process-wide default loop.
func newTestLoop(t *testing.T) *loop.Loop {
	t.Helper()
	l, err := loop.New(loop.WithBackend(loop.BackendPoll))
	require.NoError(t, err)
	t.Cleanup(func() { l.Close() })
	return l
}

// drain ticks l until done reports true or the deadline passes, failing the
// test on timeout. It is how these tests observe continuation dispatch
// without ever calling into core internals from outside the loop's own
// goroutine.
func drain(t *testing.T, l *loop.Loop, done func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for !done() {
		if time.Now().After(deadline) {
			t.Fatal("timed out waiting for the loop to settle")
		}
		l.Tick(true)
	}
}
