package blockstore

import "errors"

var (
	// ErrNotStarted indicates an operation ran outside the Started state.
	ErrNotStarted = errors.New("store not started")

	// ErrAlreadyStarted indicates Start was called on a running store.
	ErrAlreadyStarted = errors.New("store already started")

	// ErrStopped indicates the store was stopped and cannot be restarted.
	ErrStopped = errors.New("store stopped")
)
