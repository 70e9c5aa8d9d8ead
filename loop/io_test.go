package loop

import (
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestIOWatcherFiresOnReadable(t *testing.T) {
	l := newTestLoop(t)

	r, w, err := os.Pipe()
	require.NoError(t, err)
	defer r.Close()
	defer w.Close()

	fired := make(chan bool, 1)
	io, err := l.IO(int(r.Fd()), true, false, 0, func(io *IO, readable, writable, timedOut bool) {
		fired <- readable
	})
	require.NoError(t, err)

	_, err = w.Write([]byte("x"))
	require.NoError(t, err)

	deadline := time.Now().Add(time.Second)
	for time.Now().Before(deadline) {
		l.Tick(true)
		select {
		case readable := <-fired:
			require.True(t, readable)
			require.False(t, io.active)
			require.NotContains(t, l.io.byFD, int(r.Fd()))
			return
		default:
		}
	}
	t.Fatal("io watcher did not fire within timeout")
}

func TestIOWatcherFiresTimedOut(t *testing.T) {
	l := newTestLoop(t)

	r, w, err := os.Pipe()
	require.NoError(t, err)
	defer r.Close()
	defer w.Close()

	fired := make(chan bool, 1)
	_, err = l.IO(int(r.Fd()), true, false, 10*time.Millisecond, func(io *IO, readable, writable, timedOut bool) {
		fired <- timedOut
	})
	require.NoError(t, err)

	deadline := time.Now().Add(time.Second)
	for time.Now().Before(deadline) {
		l.Tick(true)
		select {
		case timedOut := <-fired:
			require.True(t, timedOut)
			return
		default:
		}
	}
	t.Fatal("io watcher did not time out within deadline")
}

func TestIODuplicateAddIsResourceBusy(t *testing.T) {
	l := newTestLoop(t)

	r, w, err := os.Pipe()
	require.NoError(t, err)
	defer r.Close()
	defer w.Close()

	_, err = l.IO(int(r.Fd()), true, false, 0, func(*IO, bool, bool, bool) {})
	require.NoError(t, err)

	_, err = l.IO(int(r.Fd()), true, false, 0, func(*IO, bool, bool, bool) {})
	require.Error(t, err)
	var busy *ResourceBusyError
	require.ErrorAs(t, err, &busy)
}

func TestIOCancelRemovesWatcher(t *testing.T) {
	l := newTestLoop(t)

	r, w, err := os.Pipe()
	require.NoError(t, err)
	defer r.Close()
	defer w.Close()

	io, err := l.IO(int(r.Fd()), true, false, 0, func(*IO, bool, bool, bool) {})
	require.NoError(t, err)
	require.NoError(t, io.Cancel())

	_, err = l.IO(int(r.Fd()), true, false, 0, func(*IO, bool, bool, bool) {})
	require.NoError(t, err)
}
