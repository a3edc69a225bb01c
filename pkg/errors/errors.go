// Package errors provides the typed error taxonomy the promotion
// engine surfaces to its callers. It mirrors the AppError shape this
// codebase uses elsewhere, minus the HTTP status mapping that
// taxonomy carried: this engine has no HTTP surface to map onto, so
// the type stops at Kind.
package errors

import (
	"errors"
	"fmt"
)

// Kind identifies which error taxonomy bucket an Error belongs to.
type Kind string

const (
	// KindConfiguration covers bad promotion or graph construction:
	// cycles, unreachable layers, unsupported structural values,
	// negative discounts. Always detected at build time.
	KindConfiguration Kind = "CONFIGURATION_ERROR"

	// KindInvalidPromotion covers arithmetic failures (currency
	// mismatch, overflow, negative result) attributed to one promotion
	// during a solve.
	KindInvalidPromotion Kind = "INVALID_PROMOTION"

	// KindCurrencyMismatch is raised by Money/Discount operations whose
	// operands do not share a currency.
	KindCurrencyMismatch Kind = "CURRENCY_MISMATCH"

	// KindOverflow is raised by Money operations whose result does not
	// fit in the underlying minor-unit integer.
	KindOverflow Kind = "OVERFLOW"

	// KindNegativeResult is raised when a discount would take an
	// item's price below zero.
	KindNegativeResult Kind = "NEGATIVE_RESULT"

	// KindInfeasible means the solver determined no valid assignment
	// exists given the configured constraints.
	KindInfeasible Kind = "INFEASIBLE"

	// KindTimeout means the caller's deadline elapsed before the
	// solver reached an answer.
	KindTimeout Kind = "TIMEOUT"

	// KindInternal marks a bug-class invariant violation. It should
	// never occur; it exists so a violation is surfaced rather than
	// silently swallowed.
	KindInternal Kind = "INTERNAL_ERROR"
)

// Error is the engine's structured error type. It works with
// errors.As, and with errors.Is against another *Error of the same
// Kind (see the Is method) or any wrapped cause.
type Error struct {
	Kind    Kind
	Message string
	Details map[string]interface{}
	Cause   error
}

func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

// Unwrap implements the errors.Unwrap interface.
func (e *Error) Unwrap() error {
	return e.Cause
}

// Is reports whether target is an *Error with the same Kind, so that
// errors.Is(err, errors.Infeasible("")) style checks are unnecessary;
// callers compare by Kind via errors.As and inspect e.Kind directly, or
// use Is(err, KindX) below.
func (e *Error) Is(target error) bool {
	var other *Error
	if !As(target, &other) {
		return false
	}
	return e.Kind == other.Kind
}

// WithDetail attaches a structured detail field and returns the
// receiver for chaining.
func (e *Error) WithDetail(key string, value interface{}) *Error {
	if e.Details == nil {
		e.Details = make(map[string]interface{})
	}
	e.Details[key] = value
	return e
}

// WithCause attaches a wrapped cause and returns the receiver.
func (e *Error) WithCause(cause error) *Error {
	e.Cause = cause
	return e
}

// New creates a new *Error of the given kind.
func New(kind Kind, message string) *Error {
	return &Error{Kind: kind, Message: message}
}

// Newf creates a new *Error of the given kind with a formatted message.
func Newf(kind Kind, format string, args ...interface{}) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

// Is reports whether err is an *Error of the given Kind.
func Is(err error, kind Kind) bool {
	var e *Error
	if !errors.As(err, &e) {
		return false
	}
	return e.Kind == kind
}

// As delegates to the standard library's errors.As.
func As(err error, target interface{}) bool {
	return errors.As(err, target)
}

// KindOf returns the Kind of err, or "" if err is not an *Error.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return ""
}

// Configuration creates a KindConfiguration error.
func Configuration(message string) *Error {
	return New(KindConfiguration, message)
}

// Configurationf creates a KindConfiguration error with a formatted message.
func Configurationf(format string, args ...interface{}) *Error {
	return Newf(KindConfiguration, format, args...)
}

// InvalidPromotion creates a KindInvalidPromotion error naming the
// offending promotion key.
func InvalidPromotion(promotionKey string, cause error) *Error {
	return (&Error{
		Kind:    KindInvalidPromotion,
		Message: fmt.Sprintf("promotion %s is invalid", promotionKey),
	}).WithDetail("promotion_key", promotionKey).WithCause(cause)
}

// Infeasible creates a KindInfeasible error explaining which
// constraint could not be satisfied.
func Infeasible(message string) *Error {
	return New(KindInfeasible, message)
}

// Infeasiblef creates a KindInfeasible error with a formatted message.
func Infeasiblef(format string, args ...interface{}) *Error {
	return Newf(KindInfeasible, format, args...)
}

// Timeout creates a KindTimeout error.
func Timeout(message string) *Error {
	return New(KindTimeout, message)
}

// Internal creates a KindInternal error for a bug-class invariant
// violation.
func Internal(message string) *Error {
	return New(KindInternal, message)
}

// Internalf creates a KindInternal error with a formatted message.
func Internalf(format string, args ...interface{}) *Error {
	return Newf(KindInternal, format, args...)
}
