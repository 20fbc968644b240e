package block

import "errors"

var (
	// ErrInvalidID indicates a malformed block identifier (bad algorithm tag,
	// empty digest, or non-hex digest text).
	ErrInvalidID = errors.New("invalid block id")

	// ErrSizeMismatch indicates that a block's declared size does not match
	// the bytes actually available for it.
	ErrSizeMismatch = errors.New("block size mismatch")
)
