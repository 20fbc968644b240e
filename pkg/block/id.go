// Package block defines the content-addressed block value types shared by all
// store implementations: the hash identifier, per-call stats, and the lazily
// readable block itself.
package block

import (
	"crypto/sha1" //nolint:gosec // sha1 is supported for interop, not integrity
	"crypto/sha256"
	"crypto/sha512"
	"encoding/hex"
	"fmt"
	"strings"
)

// ID identifies a block by the hash of its content. It carries the algorithm
// tag and the raw digest; the canonical textual form is "algo:lowercase-hex".
//
// The zero ID is invalid. IDs are immutable and comparable, so they can be
// used directly as map keys.
type ID struct {
	algo   string
	digest string // raw digest bytes; stored as string to keep ID comparable
}

// NewID builds an ID from an algorithm tag and a raw digest.
func NewID(algo string, digest []byte) (ID, error) {
	if algo == "" {
		return ID{}, fmt.Errorf("empty algorithm: %w", ErrInvalidID)
	}
	if len(digest) == 0 {
		return ID{}, fmt.Errorf("empty digest: %w", ErrInvalidID)
	}
	return ID{algo: algo, digest: string(digest)}, nil
}

// ParseID parses the canonical "algo:hex" form.
func ParseID(s string) (ID, error) {
	algo, hexPart, ok := strings.Cut(s, ":")
	if !ok {
		return ID{}, fmt.Errorf("missing algorithm separator in %q: %w", s, ErrInvalidID)
	}
	return IDFromHex(algo, hexPart)
}

// IDFromHex builds an ID from an algorithm tag and a hex-encoded digest.
// Uppercase hex is rejected; the canonical form is lowercase only.
func IDFromHex(algo, hexDigest string) (ID, error) {
	if !IsHex(hexDigest) {
		return ID{}, fmt.Errorf("invalid hex digest %q: %w", hexDigest, ErrInvalidID)
	}
	raw, err := hex.DecodeString(hexDigest)
	if err != nil {
		return ID{}, fmt.Errorf("invalid hex digest %q: %w", hexDigest, ErrInvalidID)
	}
	return NewID(algo, raw)
}

// Sum hashes data with the named algorithm (sha1, sha256 or sha512) and
// returns the resulting ID.
func Sum(algo string, data []byte) (ID, error) {
	switch algo {
	case "sha1":
		d := sha1.Sum(data) //nolint:gosec
		return NewID(algo, d[:])
	case "sha256":
		d := sha256.Sum256(data)
		return NewID(algo, d[:])
	case "sha512":
		d := sha512.Sum512(data)
		return NewID(algo, d[:])
	default:
		return ID{}, fmt.Errorf("unsupported hash algorithm %q: %w", algo, ErrInvalidID)
	}
}

// Algorithm returns the hash algorithm tag.
func (id ID) Algorithm() string {
	return id.algo
}

// Digest returns a copy of the raw digest bytes.
func (id ID) Digest() []byte {
	return []byte(id.digest)
}

// Hex returns the lowercase hex encoding of the digest. This is the name a
// block file carries in the store's namespace.
func (id ID) Hex() string {
	return hex.EncodeToString([]byte(id.digest))
}

// String returns the canonical "algo:hex" form.
func (id ID) String() string {
	return id.algo + ":" + id.Hex()
}

// IsZero reports whether the ID is the invalid zero value.
func (id ID) IsZero() bool {
	return id.algo == "" && id.digest == ""
}

// digest hex length → algorithm tag. Block files are named by digest hex
// alone, so the algorithm is recovered from the digest width.
var algoByHexLen = map[int]string{
	40:  "sha1",
	64:  "sha256",
	128: "sha512",
}

// IDFromName recovers an ID from a block file name (the lowercase hex of the
// digest). It returns false when the name is not valid hex or its width does
// not correspond to a supported hash algorithm.
func IDFromName(name string) (ID, bool) {
	algo, ok := algoByHexLen[len(name)]
	if !ok || !IsHex(name) {
		return ID{}, false
	}
	id, err := IDFromHex(algo, name)
	if err != nil {
		return ID{}, false
	}
	return id, true
}

// IsHex reports whether name is a plausible block file name: non-empty, even
// length, lowercase hex digits only.
func IsHex(name string) bool {
	if len(name) == 0 || len(name)%2 != 0 {
		return false
	}
	for i := 0; i < len(name); i++ {
		c := name[i]
		if (c < '0' || c > '9') && (c < 'a' || c > 'f') {
			return false
		}
	}
	return true
}
