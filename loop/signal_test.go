package loop

import (
	"os"
	"syscall"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestSignalWatcherFires(t *testing.T) {
	l := newTestLoop(t)
	require.True(t, l.SignalHandlingEnabled())

	fired := make(chan os.Signal, 1)
	watcher, err := l.Signal(syscall.SIGUSR1, func(sig os.Signal) { fired <- sig })
	require.NoError(t, err)
	defer watcher.Cancel()

	require.NoError(t, syscall.Kill(syscall.Getpid(), syscall.SIGUSR1))

	deadline := time.Now().Add(time.Second)
	for time.Now().Before(deadline) {
		l.Tick(true)
		select {
		case sig := <-fired:
			require.Equal(t, syscall.SIGUSR1, sig)
			return
		default:
		}
	}
	t.Fatal("signal watcher did not fire within timeout")
}

func TestSignalDisabledReturnsUnsupported(t *testing.T) {
	l, err := New(WithConfig(Config{
		Backend:               BackendPoll,
		SignalHandlingEnabled: false,
	}))
	require.NoError(t, err)
	defer l.Close()

	_, err = l.Signal(syscall.SIGUSR2, func(os.Signal) {})
	require.Error(t, err)
	var unsupported *UnsupportedError
	require.ErrorAs(t, err, &unsupported)
}
