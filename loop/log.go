package loop

import (
	"sync"

	"go.uber.org/zap"
)

var (
	logger     *zap.Logger
	loggerOnce sync.Once
)

// Logger returns the loop package's logger instance, defaulting to a no-op
// logger until a host installs one with SetLogger.
func Logger() *zap.Logger {
	loggerOnce.Do(func() {
		if logger == nil {
			logger = zap.NewNop()
		}
	})
	return logger
}

// SetLogger configures the loop package's logger. Call it before
// constructing a Loop; changing it afterward is safe but watchers already
// logging through a captured *zap.Logger reference will not pick up the
// change.
func SetLogger(l *zap.Logger) {
	logger = l
	loggerOnce.Do(func() {})
}

func loopField(l *Loop) zap.Field    { return zap.Stringer("loop", l.id) }
func backendField(k BackendKind) zap.Field { return zap.String("backend", string(k)) }
func opField(op string) zap.Field    { return zap.String("op", op) }
func errField(err error) zap.Field   { return zap.Error(err) }
