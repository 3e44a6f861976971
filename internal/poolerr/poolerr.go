// Package poolerr defines the error taxonomy shared by the curve, commitment,
// proof, pool, and relayer layers (spec.md §7). Every error is a typed Kind
// wrapping an optional underlying cause; nothing is swallowed and nothing
// recovers by silently switching encodings.
package poolerr

import (
	"errors"
	"fmt"
)

// Kind is the error class. Ordering matches spec.md §7.
type Kind string

const (
	Curve         Kind = "curve"
	Commitment    Kind = "commitment"
	Proof         Kind = "proof"
	Validation    Kind = "validation"
	Resolution    Kind = "resolution"
	Capacity      Kind = "capacity"
	Safety        Kind = "safety"
	Serialization Kind = "serialization"
	NodeIO        Kind = "node_io"
)

// Recoverable reports whether the relayer should retry on the next head
// instead of treating the call as fatal (spec.md §7 propagation rules).
func (k Kind) Recoverable() bool {
	return k == Resolution || k == Capacity
}

// Error is the concrete error type every layer returns. Reason is a short
// machine-matchable tag (e.g. "duplicate_key", "banned_point",
// "nullifier_spent") so callers and tests can assert on a specific failure
// without string-matching the human message.
type Error struct {
	Kind   Kind
	Reason string
	Msg    string
	Cause  error
}

func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s[%s]: %s: %v", e.Kind, e.Reason, e.Msg, e.Cause)
	}
	return fmt.Sprintf("%s[%s]: %s", e.Kind, e.Reason, e.Msg)
}

func (e *Error) Unwrap() error { return e.Cause }

// Is supports errors.Is comparisons against a bare Kind/Reason pair built
// with New (Cause and Msg are ignored).
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return e.Kind == t.Kind && (t.Reason == "" || e.Reason == t.Reason)
}

// New builds an Error with no underlying cause.
func New(kind Kind, reason, msg string) *Error {
	return &Error{Kind: kind, Reason: reason, Msg: msg}
}

// Wrap builds an Error around an underlying cause.
func Wrap(kind Kind, reason, msg string, cause error) *Error {
	return &Error{Kind: kind, Reason: reason, Msg: msg, Cause: cause}
}

// KindOf extracts the Kind of err if it is (or wraps) a *Error, and ok=false
// otherwise.
func KindOf(err error) (Kind, bool) {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind, true
	}
	return "", false
}

// ReasonOf extracts the Reason tag, mirroring KindOf.
func ReasonOf(err error) (string, bool) {
	var e *Error
	if errors.As(err, &e) {
		return e.Reason, true
	}
	return "", false
}
