// Package evaerr defines the pipeline's error taxonomy as a closed set of
// kinds. Errors from the external-provider clients and the notifier's claim
// are wrapped in a *Error so callers can branch on Kind instead of
// string-matching; other store errors are returned as the driver gave them.
package evaerr

import (
	"errors"
	"fmt"
	"time"
)

// Kind classifies an error by how it should be handled.
type Kind int

const (
	// TransientExternal covers timeouts and rate-limit responses from an
	// external provider. Recovered locally by retry with backoff.
	TransientExternal Kind = iota
	// PermanentExternal covers auth failures and 4xx contract violations.
	// Recorded and skipped for the current cycle.
	PermanentExternal
	// StoreTransient covers a lost connection or deadlock. Retried at the
	// transaction boundary with bounded attempts.
	StoreTransient
	// StorePermanent covers a constraint violation or schema mismatch.
	// Must never be swallowed; callers should let it propagate to a crash.
	StorePermanent
	// InputInvalid covers admission validation failures. Returned to the
	// caller as a client error with no side effects.
	InputInvalid
	// Poison covers a draft whose attempts are exhausted. Excluded from
	// claims until an operator resets it.
	Poison
)

func (k Kind) String() string {
	switch k {
	case TransientExternal:
		return "transient_external"
	case PermanentExternal:
		return "permanent_external"
	case StoreTransient:
		return "store_transient"
	case StorePermanent:
		return "store_permanent"
	case InputInvalid:
		return "input_invalid"
	case Poison:
		return "poison"
	default:
		return "unknown"
	}
}

// Error is the typed error the external-provider clients and the notifier's
// claim return instead of a plain error value. RetryHint is populated for TransientExternal and StoreTransient
// errors; it is the backoff duration the caller should wait before retrying.
type Error struct {
	Kind      Kind
	Stage     string
	Err       error
	RetryHint time.Duration
}

func (e *Error) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("[%s] %s", e.Stage, e.Kind)
	}
	return fmt.Sprintf("[%s] %s: %v", e.Stage, e.Kind, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

// New wraps err as the given kind, tagged with the stage that observed it.
func New(stage string, kind Kind, err error) *Error {
	return &Error{Stage: stage, Kind: kind, Err: err}
}

// WithRetryHint attaches a backoff duration to a transient error.
func (e *Error) WithRetryHint(hint time.Duration) *Error {
	e.RetryHint = hint
	return e
}

// IsKind reports whether err is, or wraps, an *Error of the given kind.
func IsKind(err error, kind Kind) bool {
	var e *Error
	return errors.As(err, &e) && e.Kind == kind
}
