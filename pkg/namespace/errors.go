package namespace

import "errors"

// Sentinel errors shared by all namespace backends. Implementations wrap
// them with path context; callers discriminate with errors.Is.
var (
	// ErrNotFound indicates the path names no object or directory.
	ErrNotFound = errors.New("not found")

	// ErrExists indicates a conditional create collided with an existing
	// object.
	ErrExists = errors.New("already exists")

	// ErrAccessDenied indicates the namespace refused read or write access.
	ErrAccessDenied = errors.New("access denied")
)
