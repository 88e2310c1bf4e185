// Package apperr defines the domain errors surfaced by action handlers.
// The command facade renders every kind except Banned and Transient as a
// user-visible error message.
package apperr

import (
	"context"
	"errors"
	"fmt"
	"time"
)

// Kind classifies a domain error.
type Kind int

const (
	KindUnknown Kind = iota
	KindOnCooldown
	KindInsufficientFunds
	KindInvalidArgument
	KindNotFound
	KindLimitReached
	KindProtected
	KindBanned
	KindTransient
)

func (k Kind) String() string {
	switch k {
	case KindOnCooldown:
		return "on_cooldown"
	case KindInsufficientFunds:
		return "insufficient_funds"
	case KindInvalidArgument:
		return "invalid_argument"
	case KindNotFound:
		return "not_found"
	case KindLimitReached:
		return "limit_reached"
	case KindProtected:
		return "protected"
	case KindBanned:
		return "banned"
	case KindTransient:
		return "transient"
	default:
		return "unknown"
	}
}

// Error is a domain error. Only the fields relevant to Kind are set.
type Error struct {
	Kind      Kind
	Remaining time.Duration // OnCooldown
	Needed    int64         // InsufficientFunds
	Have      int64         // InsufficientFunds
	Reason    string        // InvalidArgument, LimitReached
	What      string        // NotFound, LimitReached
	Reset     time.Time     // LimitReached, zero when no reset applies
	Until     time.Time     // Protected
	Err       error         // Transient cause
}

func (e *Error) Error() string {
	switch e.Kind {
	case KindOnCooldown:
		return fmt.Sprintf("on cooldown for %s", e.Remaining.Round(time.Second))
	case KindInsufficientFunds:
		return fmt.Sprintf("insufficient funds: need %d, have %d", e.Needed, e.Have)
	case KindInvalidArgument:
		return "invalid argument: " + e.Reason
	case KindNotFound:
		return "not found: " + e.What
	case KindLimitReached:
		return "limit reached: " + e.What
	case KindProtected:
		return "target protected until " + e.Until.Format(time.RFC3339)
	case KindBanned:
		return "caller is banned"
	case KindTransient:
		if e.Err != nil {
			return "transient failure: " + e.Err.Error()
		}
		return "transient failure"
	default:
		return "unknown error"
	}
}

func (e *Error) Unwrap() error { return e.Err }

// Is matches errors of the same kind so errors.Is(err, ErrBanned) works.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.Kind == e.Kind && t.Err == nil && e.Kind != KindUnknown
}

// ErrBanned is returned when a bot-banned caller issues a command.
var ErrBanned = &Error{Kind: KindBanned}

func OnCooldown(remaining time.Duration) error {
	return &Error{Kind: KindOnCooldown, Remaining: remaining}
}

func InsufficientFunds(needed, have int64) error {
	return &Error{Kind: KindInsufficientFunds, Needed: needed, Have: have}
}

func InvalidArgument(format string, args ...any) error {
	return &Error{Kind: KindInvalidArgument, Reason: fmt.Sprintf(format, args...)}
}

func NotFound(what string) error {
	return &Error{Kind: KindNotFound, What: what}
}

// LimitReached reports an exhausted allowance; reset is zero when the limit
// never resets (already married, game in progress).
func LimitReached(what string, reset time.Time) error {
	return &Error{Kind: KindLimitReached, What: what, Reset: reset}
}

func Protected(until time.Time) error {
	return &Error{Kind: KindProtected, Until: until}
}

func Transient(err error) error {
	return &Error{Kind: KindTransient, Err: err}
}

// KindOf returns the kind of err, KindUnknown for foreign errors.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindUnknown
}

// As extracts the domain error from err.
func As(err error) (*Error, bool) {
	var e *Error
	ok := errors.As(err, &e)
	return e, ok
}

// Map converts infrastructure errors into domain errors. Domain errors pass
// through unchanged; everything else becomes Transient.
func Map(err error) error {
	if err == nil {
		return nil
	}
	if e, ok := As(err); ok && e.Kind != KindUnknown {
		return err
	}
	switch {
	case errors.Is(err, context.DeadlineExceeded):
		return Transient(fmt.Errorf("request timed out: %w", err))
	case errors.Is(err, context.Canceled):
		return Transient(fmt.Errorf("request was canceled: %w", err))
	default:
		return Transient(err)
	}
}
