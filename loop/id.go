package loop

import "github.com/google/uuid"

// watcherID is a correlation identifier surfaced only through logging and
// String() methods; it plays no part in equality or hashing.
type watcherID string

func newWatcherID() watcherID {
	return watcherID(uuid.NewString())
}

func (id watcherID) String() string { return string(id) }
