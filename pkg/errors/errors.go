package errors

import (
	"context"
	"errors"
	"fmt"
)

// Pipeline error taxonomy. Every failure escaping a stage wraps exactly one
// of these sentinels so callers can branch on kind without string matching.

var (
	// ErrConfig indicates an unresolvable configuration problem: unknown
	// model, missing credential for the resolved provider. Never retried.
	ErrConfig = errors.New("configuration error")

	// ErrTransient indicates a retryable upstream failure (timeout, 5xx,
	// connection reset).
	ErrTransient = errors.New("transient upstream error")

	// ErrPermanent indicates a non-retryable upstream failure (4xx, auth,
	// empty completion at a terminal stage).
	ErrPermanent = errors.New("permanent upstream error")

	// ErrCancelled indicates the run was aborted by an external signal.
	ErrCancelled = errors.New("run cancelled")

	// ErrPartialAnalyst indicates a single analyst failed. Non-fatal; the
	// run continues with an empty report for that analyst.
	ErrPartialAnalyst = errors.New("analyst failed")
)

// General-purpose sentinels shared by repositories and adapters.

var (
	// ErrNotFound indicates a resource was not found
	ErrNotFound = errors.New("resource not found")

	// ErrAlreadyExists indicates a resource already exists
	ErrAlreadyExists = errors.New("resource already exists")

	// ErrInvalidInput indicates invalid input parameters
	ErrInvalidInput = errors.New("invalid input")

	// ErrInternal indicates an internal error
	ErrInternal = errors.New("internal error")

	// ErrUnavailable indicates a service is unavailable
	ErrUnavailable = errors.New("service unavailable")

	// ErrNotImplemented indicates a capability is not implemented
	ErrNotImplemented = errors.New("not implemented")

	// ErrRateLimitExceeded indicates a provider rate limit was hit locally
	ErrRateLimitExceeded = errors.New("rate limit exceeded")
)

// Kind is the coarse classification surfaced to callers of RunDecision.
type Kind string

const (
	KindConfig         Kind = "config"
	KindTransient      Kind = "transient"
	KindPermanent      Kind = "permanent"
	KindCancelled      Kind = "cancelled"
	KindPartialAnalyst Kind = "partial_analyst"
	KindInternal       Kind = "internal"
)

// KindOf maps an error chain to its Kind. Unclassified errors are internal.
func KindOf(err error) Kind {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrConfig):
		return KindConfig
	case errors.Is(err, ErrCancelled), errors.Is(err, context.Canceled):
		return KindCancelled
	case errors.Is(err, ErrTransient):
		return KindTransient
	case errors.Is(err, ErrPermanent):
		return KindPermanent
	case errors.Is(err, ErrPartialAnalyst):
		return KindPartialAnalyst
	default:
		return KindInternal
	}
}

// Retryable reports whether the error may succeed on a retry.
func Retryable(err error) bool {
	return errors.Is(err, ErrTransient)
}

// Helper functions

// Is checks if err is or wraps target
func Is(err, target error) bool {
	return errors.Is(err, target)
}

// As finds the first error in err's chain that matches target type
func As(err error, target interface{}) bool {
	return errors.As(err, target)
}

// Wrap wraps an error with context
func Wrap(err error, message string) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", message, err)
}

// Wrapf wraps an error with formatted context
func Wrapf(err error, format string, args ...interface{}) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", fmt.Sprintf(format, args...), err)
}

func New(message string) error {
	return errors.New(message)
}

func Newf(format string, args ...interface{}) error {
	return fmt.Errorf(format, args...)
}
