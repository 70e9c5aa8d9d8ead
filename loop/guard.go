package loop

import (
	"fmt"
	"runtime/debug"
)

// guardLoop recovers a panic from a watcher callback into an error rather
// than letting it crash the process, mirroring the async package's guard
// (duplicated rather than imported to avoid an import cycle, since async
// already imports loop).
func guardLoop(f func()) (panicked error) {
	defer func() {
		if v := recover(); v != nil {
			panicked = fmt.Errorf("loop: panic: %v\n%s", v, debug.Stack())
		}
	}()
	f()
	return nil
}
