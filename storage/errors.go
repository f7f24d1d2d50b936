package storage

import "errors"

// Sentinel errors shared by every CAS backend. Backends wrap these with %w
// and callers match with errors.Is, so a replicating store can classify a
// replica's failure without knowing which backend produced it.
var (
	// ErrNotFound reports that no snapshot is stored under the given CID.
	ErrNotFound = errors.New("storage: not found")
	// ErrInvalidCID reports a CID that does not parse as lowercase
	// sha256-hex.
	ErrInvalidCID = errors.New("storage: invalid cid")
	// ErrCIDMismatch reports retrieved bytes whose hash no longer matches
	// their CID, meaning the backend corrupted or swapped the object.
	ErrCIDMismatch = errors.New("storage: cid mismatch")
	// ErrImmutable reports an attempt to overwrite a CID with different
	// bytes. Content addressing makes every object write-once.
	ErrImmutable = errors.New("storage: immutable object mismatch")
)

// IsNotFound reports whether err means the snapshot is absent rather than
// unreadable.
func IsNotFound(err error) bool { return errors.Is(err, ErrNotFound) }
