package domain

import (
	"errors"
	"fmt"
)

// Kind classifies routing failures so the HTTP layer can map them to status
// codes without string matching.
type Kind string

const (
	KindInvalidRequest      Kind = "invalid_request"
	KindUnknownJurisdiction Kind = "unknown_jurisdiction"
	KindUpstreamUnavailable Kind = "upstream_data_unavailable"
	KindInternal            Kind = "internal_computation_error"
)

// Error is the routing error type surfaced across package boundaries. Detail
// is safe to show to callers for user-correctable kinds.
type Error struct {
	Kind   Kind
	Detail string
	Err    error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Detail, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Detail)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// InvalidRequest flags a user-correctable request problem.
func InvalidRequest(format string, args ...any) *Error {
	return &Error{Kind: KindInvalidRequest, Detail: fmt.Sprintf(format, args...)}
}

// UnknownJurisdiction flags a source or destination missing from the graph.
func UnknownJurisdiction(code string) *Error {
	return &Error{Kind: KindUnknownJurisdiction, Detail: fmt.Sprintf("jurisdiction %q is not in the corridor graph", code)}
}

// UpstreamUnavailable flags a corridor data source failure.
func UpstreamUnavailable(detail string, err error) *Error {
	return &Error{Kind: KindUpstreamUnavailable, Detail: detail, Err: err}
}

// Internal wraps an unexpected computation failure. The detail stays generic;
// the wrapped error is for server-side logs only.
func Internal(err error) *Error {
	return &Error{Kind: KindInternal, Detail: "internal computation error", Err: err}
}

// KindOf extracts the error kind, defaulting to KindInternal for unclassified
// errors.
func KindOf(err error) Kind {
	var re *Error
	if errors.As(err, &re) {
		return re.Kind
	}
	return KindInternal
}

// DetailOf extracts the caller-facing detail message.
func DetailOf(err error) string {
	var re *Error
	if errors.As(err, &re) {
		return re.Detail
	}
	return "internal computation error"
}
