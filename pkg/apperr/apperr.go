// Package apperr implements the error-handling taxonomy (7): NotFound,
// AlreadyExists, BadInput, NotConnected, Timeout, Upstream, Storage,
// Serialisation, Internal. Domain packages return sentinel errors; the HTTP
// DTO layer maps them to *apperr.Error with MapError (see
// internal/http/dto).
package apperr

import (
	"encoding/json"
	"fmt"
	"net/http"
	"runtime"
	"strings"
)

// ErrorType is one taxonomy member (7).
type ErrorType string

const (
	TypeNotFound      ErrorType = "not_found"
	TypeAlreadyExists ErrorType = "already_exists"
	TypeBadInput      ErrorType = "bad_input"
	TypeNotConnected  ErrorType = "not_connected"
	TypeTimeout       ErrorType = "timeout"
	TypeUpstream      ErrorType = "upstream"
	TypeStorage       ErrorType = "storage"
	TypeSerialisation ErrorType = "serialisation"
	TypeInternal      ErrorType = "internal"
)

// Error is the structured application error surfaced by the Control API:
// a taxonomy-bearing short code and a human message. Internal details
// (stack traces, upstream payloads) are never embedded in Error's JSON
// representation (7 — "User-visible behaviour").
type Error struct {
	Type       ErrorType              `json:"type"`
	Code       string                 `json:"code"`
	Message    string                 `json:"message"`
	Details    string                 `json:"details,omitempty"`
	Context    map[string]interface{} `json:"context,omitempty"`
	Cause      error                  `json:"-"`
	StackTrace string                 `json:"-"`
	HTTPStatus int                    `json:"-"`
}

func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Cause)
	}
	return e.Message
}

func (e *Error) Unwrap() error { return e.Cause }

func (e *Error) WithContext(key string, value interface{}) *Error {
	if e.Context == nil {
		e.Context = make(map[string]interface{})
	}
	e.Context[key] = value
	return e
}

func (e *Error) WithDetails(details string) *Error {
	e.Details = details
	return e
}

func (e *Error) WithCause(cause error) *Error {
	e.Cause = cause
	return e
}

func (e *Error) WithStackTrace() *Error {
	e.StackTrace = stackTrace()
	return e
}

func (e *Error) ToJSON() ([]byte, error) { return json.Marshal(e) }

// HTTPStatusCode maps the taxonomy to the exit codes in §6: not-found→404,
// bad input→400, not-connected→503, conflict (already-exists)→400,
// timeout→504, upstream→502, else 500.
func (e *Error) HTTPStatusCode() int {
	if e.HTTPStatus != 0 {
		return e.HTTPStatus
	}
	switch e.Type {
	case TypeNotFound:
		return http.StatusNotFound
	case TypeBadInput, TypeAlreadyExists:
		return http.StatusBadRequest
	case TypeNotConnected:
		return http.StatusServiceUnavailable
	case TypeTimeout:
		return http.StatusGatewayTimeout
	case TypeUpstream:
		return http.StatusBadGateway
	case TypeStorage, TypeSerialisation, TypeInternal:
		return http.StatusInternalServerError
	default:
		return http.StatusInternalServerError
	}
}

func New(t ErrorType, code, message string) *Error {
	return &Error{Type: t, Code: code, Message: message}
}

func NewWithCause(t ErrorType, code, message string, cause error) *Error {
	return &Error{Type: t, Code: code, Message: message, Cause: cause}
}

func NewNotFound(resource string) *Error {
	return New(TypeNotFound, "NOT_FOUND", fmt.Sprintf("%s not found", resource))
}

func NewAlreadyExists(resource string) *Error {
	return New(TypeAlreadyExists, "ALREADY_EXISTS", fmt.Sprintf("%s already exists", resource))
}

func NewBadInput(message string) *Error {
	return New(TypeBadInput, "BAD_INPUT", message)
}

func NewNotConnected(message string) *Error {
	if message == "" {
		message = "instance is not connected"
	}
	return New(TypeNotConnected, "NOT_CONNECTED", message)
}

func NewTimeout(message string) *Error {
	if message == "" {
		message = "operation timed out"
	}
	return New(TypeTimeout, "TIMEOUT", message)
}

func NewUpstream(message string, cause error) *Error {
	return NewWithCause(TypeUpstream, "UPSTREAM_ERROR", message, cause)
}

func NewStorage(operation string, cause error) *Error {
	return NewWithCause(TypeStorage, "STORAGE_ERROR", fmt.Sprintf("storage operation failed: %s", operation), cause).
		WithContext("operation", operation)
}

func NewSerialisation(reason string) *Error {
	return New(TypeSerialisation, "SERIALISATION_FALLBACK", reason)
}

func NewInternal(message string) *Error {
	if message == "" {
		message = "internal server error"
	}
	return New(TypeInternal, "INTERNAL_ERROR", message).WithStackTrace()
}

// Wrap wraps an existing error as an *Error, leaving it untouched if it
// already is one.
func Wrap(err error, t ErrorType, code, message string) *Error {
	if err == nil {
		return nil
	}
	if existing, ok := err.(*Error); ok {
		return existing
	}
	return NewWithCause(t, code, message, err)
}

func WrapInternal(err error, message string) *Error {
	if err == nil {
		return nil
	}
	return Wrap(err, TypeInternal, "INTERNAL_ERROR", message).WithStackTrace()
}

func Is(err error, t ErrorType) bool {
	if appErr, ok := err.(*Error); ok {
		return appErr.Type == t
	}
	return false
}

func IsNotFound(err error) bool      { return Is(err, TypeNotFound) }
func IsAlreadyExists(err error) bool { return Is(err, TypeAlreadyExists) }
func IsBadInput(err error) bool      { return Is(err, TypeBadInput) }
func IsNotConnected(err error) bool  { return Is(err, TypeNotConnected) }
func IsTimeout(err error) bool       { return Is(err, TypeTimeout) }
func IsInternal(err error) bool      { return Is(err, TypeInternal) }

func stackTrace() string {
	const depth = 32
	var pcs [depth]uintptr
	n := runtime.Callers(3, pcs[:])
	frames := runtime.CallersFrames(pcs[:n])

	var traces []string
	for {
		frame, more := frames.Next()
		traces = append(traces, fmt.Sprintf("%s:%d %s", frame.File, frame.Line, frame.Function))
		if !more {
			break
		}
	}
	return strings.Join(traces, "\n")
}

// Response is a flat error payload: the error message plus the optional
// code, details and context of an *Error. It carries no success flag.
type Response struct {
	Error   string                 `json:"error"`
	Code    string                 `json:"code,omitempty"`
	Details string                 `json:"details,omitempty"`
	Context map[string]interface{} `json:"context,omitempty"`
}

func ToResponse(err error) *Response {
	if appErr, ok := err.(*Error); ok {
		return &Response{Error: appErr.Message, Code: appErr.Code, Details: appErr.Details, Context: appErr.Context}
	}
	return &Response{Error: err.Error()}
}
