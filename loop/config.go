package loop

import (
	"time"

	"github.com/BurntSushi/toml"
)

// BackendKind names a Backend implementation, used by Config and
// WithBackend to pick or force one.
type BackendKind string

const (
	// BackendAuto tries the accelerated native backend first, falling
	// back to the portable poll(2) backend.
	BackendAuto BackendKind = "auto"
	// BackendEpoll forces the Linux epoll backend.
	BackendEpoll BackendKind = "epoll"
	// BackendKqueue forces the Darwin/BSD kqueue backend.
	BackendKqueue BackendKind = "kqueue"
	// BackendPoll forces the portable poll(2) fallback backend.
	BackendPoll BackendKind = "poll"
)

// Config holds the zero-config defaults spec.md assumes, loadable from TOML
// so a host can override backend selection, queue depth, and signal
// handling without touching code.
type Config struct {
	Backend              BackendKind   `toml:"backend"`
	MaxQueueDepth        int           `toml:"max_queue_depth"`
	SignalHandlingEnabled bool         `toml:"signal_handling_enabled"`
	// PollGranularity is loaded and stored, but neither Loop nor any
	// Backend reads it.
	PollGranularity      time.Duration `toml:"poll_granularity"`
}

// DefaultConfig returns the configuration loop.New uses when no Config is
// supplied: auto backend selection, an unbounded deferred queue, signal
// handling enabled, and millisecond poll granularity.
func DefaultConfig() Config {
	return Config{
		Backend:               BackendAuto,
		MaxQueueDepth:         0,
		SignalHandlingEnabled: true,
		PollGranularity:       time.Millisecond,
	}
}

// LoadConfig reads a TOML file at path into a Config seeded with
// DefaultConfig, so a partial file only overrides the fields it sets.
func LoadConfig(path string) (Config, error) {
	cfg := DefaultConfig()
	_, err := toml.DecodeFile(path, &cfg)
	return cfg, err
}
