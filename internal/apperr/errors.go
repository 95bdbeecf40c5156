// Package apperr defines the application error taxonomy shared by every layer
// of the API.
//
// A *Error is constructed at the point a violation is detected (handler,
// service, middleware) and returned up the call chain unchanged. The terminal
// HTTP error handler is the only place that turns it into a response, using
// the Classifier in this package to map any error (including foreign ones such
// as database driver or JWT errors) onto exactly one taxonomy entry.
//
// Conventions:
//   - Codes are UPPER_SNAKE_CASE and stable; clients branch on them.
//   - Status is the default HTTP status of the kind and is never overridden.
//   - Details carry client-safe structured context only (e.g. field_errors).
//   - IncidentID is populated for KindInternal only.
package apperr

import (
	"errors"
	"fmt"
)

// Error is the single concrete error type of the taxonomy.
type Error struct {
	Kind       Kind
	Status     int
	Code       string
	Message    string
	Details    map[string]any
	IncidentID string

	cause error
}

// Error implements the error interface. The string is meant for logs, never
// for clients.
func (e *Error) Error() string {
	if e == nil {
		return "<nil>"
	}
	if e.cause != nil {
		return fmt.Sprintf("%s (%d): %s: %v", e.Code, e.Status, e.Message, e.cause)
	}
	return fmt.Sprintf("%s (%d): %s", e.Code, e.Status, e.Message)
}

// Unwrap exposes the wrapped cause to errors.Is / errors.As.
func (e *Error) Unwrap() error { return e.cause }

// Is matches two taxonomy errors by kind, so callers can write
// errors.Is(err, apperr.NotFound("")).
func (e *Error) Is(target error) bool {
	var t *Error
	if !errors.As(target, &t) || t == nil || e == nil {
		return false
	}
	return t.Kind == e.Kind
}

// WithDetail sets a single detail key and returns the receiver for chaining.
func (e *Error) WithDetail(k string, v any) *Error {
	if e == nil {
		return nil
	}
	if e.Details == nil {
		e.Details = map[string]any{}
	}
	e.Details[k] = v
	return e
}

// WithCause attaches the underlying error for logging and errors.Is.
func (e *Error) WithCause(err error) *Error {
	if e == nil {
		return nil
	}
	e.cause = err
	return e
}

// newError builds an Error of kind k; an empty msg falls back to the kind's
// default message. details is cloned so later caller mutations don't leak in.
func newError(k Kind, msg string, details map[string]any) *Error {
	info := k.info()
	if msg == "" {
		msg = info.message
	}
	return &Error{
		Kind:    k,
		Status:  info.status,
		Code:    info.code,
		Message: msg,
		Details: cloneDetails(details),
	}
}

// Validation reports input that failed schema validation. The gatekeeper puts
// the violation list under details["field_errors"].
func Validation(msg string, details map[string]any) *Error {
	return newError(KindValidation, msg, details)
}

// Unprocessable reports a well-formed request that a service refuses on
// business grounds.
func Unprocessable(msg string, details map[string]any) *Error {
	return newError(KindUnprocessable, msg, details)
}

// Unauthorized reports a missing or unusable identity. msg is logged only.
func Unauthorized(msg string) *Error { return newError(KindUnauthorized, msg, nil) }

// Forbidden reports an authenticated caller lacking access. msg is logged only.
func Forbidden(msg string) *Error { return newError(KindForbidden, msg, nil) }

// NotFound reports a missing resource. msg is logged only.
func NotFound(msg string) *Error { return newError(KindNotFound, msg, nil) }

// Conflict reports a state conflict. msg is logged only.
func Conflict(msg string) *Error { return newError(KindConflict, msg, nil) }

// DuplicateResource reports a uniqueness violation.
func DuplicateResource(details map[string]any) *Error {
	return newError(KindDuplicateResource, "", details)
}

// InvalidReference reports a reference to a non-existent related resource.
func InvalidReference(details map[string]any) *Error {
	return newError(KindInvalidReference, "", details)
}

// MissingRequiredField reports a NOT NULL violation.
func MissingRequiredField(details map[string]any) *Error {
	return newError(KindMissingRequiredField, "", details)
}

// ConstraintViolation reports a CHECK constraint failure.
func ConstraintViolation(details map[string]any) *Error {
	return newError(KindConstraintViolation, "", details)
}

// InvalidToken reports a malformed or badly signed auth token.
func InvalidToken() *Error { return newError(KindInvalidToken, "", nil) }

// TokenExpired reports an auth token past its expiry.
func TokenExpired() *Error { return newError(KindTokenExpired, "", nil) }

// Internal reports an unclassified failure. Details are never attached.
func Internal(incidentID, msg string) *Error {
	e := newError(KindInternal, msg, nil)
	e.IncidentID = incidentID
	return e
}

// As is a shorthand for errors.As into *Error.
func As(err error) (*Error, bool) {
	var e *Error
	if errors.As(err, &e) && e != nil {
		return e, true
	}
	return nil, false
}

func cloneDetails(in map[string]any) map[string]any {
	if len(in) == 0 {
		return nil
	}
	out := make(map[string]any, len(in))
	for k, v := range in {
		if mv, ok := v.(map[string]any); ok {
			out[k] = cloneDetails(mv)
			continue
		}
		out[k] = v
	}
	return out
}
