// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package errs defines the error kinds shared across the acquisition and
// persistence engine. It follows the rest of the codebase's plain
// fmt.Errorf-with-%w wrapping idiom rather than a bespoke exception
// hierarchy; Kind is carried on a small wrapper type so callers can still
// branch on category with errors.As.
package errs

import "fmt"

// Kind categorizes an error for propagation-policy purposes. Names match
// the error kinds enumerated in SPEC_FULL.md §7.
type Kind string

const (
	NotFound         Kind = "not_found"
	SourceUnavailable Kind = "source_unavailable"
	RateLimited      Kind = "rate_limited"
	Paywalled        Kind = "paywalled"
	InvalidContent   Kind = "invalid_content"
	ParseFailure     Kind = "parse_failure"
	StorageFailure   Kind = "storage_failure"
	TimeoutExceeded  Kind = "timeout_exceeded"
	ConfigurationError Kind = "configuration_error"
)

// Error wraps an underlying error with a Kind and the operation that
// produced it, e.g. errs.E(errs.SourceUnavailable, "unpaywall.Resolve", err).
type Error struct {
	Kind Kind
	Op   string
	Err  error
}

func (e *Error) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("%s: %s", e.Op, e.Kind)
	}
	return fmt.Sprintf("%s: %s: %v", e.Op, e.Kind, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

// E constructs an *Error. It is a constructor, not a package-wide sentinel,
// so distinct call sites are still distinguishable in logs via Op.
func E(kind Kind, op string, err error) *Error {
	return &Error{Kind: kind, Op: op, Err: err}
}

// KindOf extracts the Kind from err if it (or something it wraps) is an
// *Error; otherwise it returns the empty Kind.
func KindOf(err error) Kind {
	for err != nil {
		if e, ok := err.(*Error); ok {
			return e.Kind
		}
		u, ok := err.(interface{ Unwrap() error })
		if !ok {
			break
		}
		err = u.Unwrap()
	}
	return ""
}
