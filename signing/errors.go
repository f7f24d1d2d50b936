package signing

import "errors"

// Kind is a stable failure category for programmatic error handling.
//
// Kinds are intended to remain stable across versions. Callers should branch
// on Kind rather than matching error strings.
//
// NOTE: Error() strings are human-readable and may evolve. Use errors.As to
// extract *Error for structured handling, or the IsKind helper.
type Kind string

const (
	// KindEncoding covers malformed JSON-like values during canonicalization
	// (non-finite numbers, non-JSON Go types, invalid snapshot bytes).
	KindEncoding Kind = "Encoding"

	// KindSigning covers failures of the signing capability itself.
	KindSigning Kind = "Signing"

	// KindSelfCheckFailed is returned when a freshly produced signature does
	// not recover to the address reported by the signer.
	KindSelfCheckFailed Kind = "SelfCheckFailed"

	KindMissingSigningBlock Kind = "MissingSigningBlock"
	KindMissingField        Kind = "MissingField"
	KindBadEncoding         Kind = "BadEncoding"
	KindMalformedSignature  Kind = "MalformedSignature"
	KindRecoveryFailed      Kind = "RecoveryFailed"
	KindAddressMismatch     Kind = "AddressMismatch"
	KindPayloadTampered     Kind = "PayloadTampered"
)

// Error is the package's structured error type.
type Error struct {
	Kind    Kind
	Message string
	Cause   error
}

func (e *Error) Error() string {
	if e == nil {
		return "<nil>"
	}
	return e.Message
}

func (e *Error) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Cause
}

func newError(kind Kind, msg string) error {
	return &Error{Kind: kind, Message: msg}
}

func wrapError(kind Kind, msg string, cause error) error {
	if cause == nil {
		return newError(kind, msg)
	}
	return &Error{Kind: kind, Message: msg, Cause: cause}
}

// IsKind reports whether err is (or wraps) a *Error with the given Kind.
func IsKind(err error, kind Kind) bool {
	var e *Error
	if !errors.As(err, &e) {
		return false
	}
	return e.Kind == kind
}

// KindOf returns the Kind for a structured error, or "" if err is not one.
func KindOf(err error) Kind {
	var e *Error
	if !errors.As(err, &e) {
		return ""
	}
	return e.Kind
}
