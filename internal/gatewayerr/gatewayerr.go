// Package gatewayerr implements the closed error taxonomy from the gateway
// specification (§7): every adapter failure maps to exactly one Kind, and the
// dispatcher attaches source/operation context without changing the kind.
package gatewayerr

import (
	"errors"
	"fmt"
)

// Kind is the closed set of gateway error kinds. New values are never added
// at runtime; adapters and the dispatcher only ever produce one of these.
type Kind string

const (
	// InvalidArgument: schema, range, closed-set, or cross-field validation
	// failed. Surfaced immediately; never retried.
	InvalidArgument Kind = "invalid_argument"
	// NotFound: tool name unknown, or document handle refers to no document.
	NotFound Kind = "not_found"
	// AuthExpired: backend returned an auth/CSRF failure. Recovered locally
	// once; if it recurs the adapter reclassifies as BackendFailure.
	AuthExpired Kind = "auth_expired"
	// Timeout: deadline exceeded during a network or browser operation.
	Timeout Kind = "timeout"
	// BackendFailure: 5xx, malformed response, or unparseable HTML/PDF.
	BackendFailure Kind = "backend_failure"
	// AccessDenied: bot-challenge detected, captcha page, or rate-limit response.
	AccessDenied Kind = "access_denied"
	// ResourceExhausted: pool queue depth exceeded.
	ResourceExhausted Kind = "resource_exhausted"
	// ParseFailure: Markdown conversion or structured-response parsing failed.
	ParseFailure Kind = "parse_failure"
)

// Error is a structured gateway failure. It preserves a cause chain so
// errors.Is/As keep working across adapter boundaries while still carrying
// the classification and backend context the uniform envelope needs.
type Error struct {
	Kind      Kind
	SourceID  string
	Operation string
	Message   string
	// HTTPStatus is the backend's status code, set only for BackendFailure.
	HTTPStatus int
	// Excerpt is a short excerpt of the offending response body or container
	// kind, set for BackendFailure and ParseFailure.
	Excerpt string
	// FieldPath names the offending argument field, set for InvalidArgument.
	FieldPath string
	Cause     error
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e == nil {
		return ""
	}
	msg := fmt.Sprintf("%s: %s", e.Kind, e.Message)
	if e.SourceID != "" {
		msg = fmt.Sprintf("[%s] %s", e.SourceID, msg)
	}
	return msg
}

// Unwrap supports errors.Is/As against the wrapped cause.
func (e *Error) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Cause
}

// New constructs an Error of the given kind with a plain message.
func New(kind Kind, message string) *Error {
	return &Error{Kind: kind, Message: message}
}

// Newf constructs an Error of the given kind with a formatted message.
func Newf(kind Kind, format string, args ...any) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

// Wrap constructs an Error of the given kind wrapping an underlying cause.
// If message is empty the cause's message is reused, mirroring
// toolerrors.NewWithCause's convention in the agent runtime this pattern is
// grounded on.
func Wrap(kind Kind, message string, cause error) *Error {
	if message == "" && cause != nil {
		message = cause.Error()
	}
	return &Error{Kind: kind, Message: message, Cause: cause}
}

// WithSource returns a copy of e annotated with the originating source_id and
// operation name. The dispatcher calls this on every adapter error without
// changing Kind, per spec.md §7's propagation rule.
func (e *Error) WithSource(sourceID, operation string) *Error {
	if e == nil {
		return nil
	}
	out := *e
	out.SourceID = sourceID
	out.Operation = operation
	return &out
}

// WithFieldPath returns a copy of e annotated with the offending argument
// field name, for InvalidArgument errors raised during schema validation.
func (e *Error) WithFieldPath(fieldPath string) *Error {
	if e == nil {
		return nil
	}
	out := *e
	out.FieldPath = fieldPath
	return &out
}

// As extracts a *Error from err, or returns (nil, false) if err does not
// wrap one.
func As(err error) (*Error, bool) {
	var ge *Error
	if errors.As(err, &ge) {
		return ge, true
	}
	return nil, false
}

// KindOf returns the classified Kind of err, defaulting to BackendFailure for
// errors the gateway did not itself classify (e.g. a raw network error an
// adapter forgot to wrap).
func KindOf(err error) Kind {
	if ge, ok := As(err); ok {
		return ge.Kind
	}
	if err == nil {
		return ""
	}
	return BackendFailure
}
