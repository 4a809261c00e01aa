// Package errs provides the unified connection error used across pgate.
//
// Every underlying client (Postgres, MySQL, …) reports failures in its own
// vocabulary. The gateway normalises them into *errs.Error before returning
// them to callers, so callers inspect one severity/code/description record
// instead of importing driver-specific packages.
//
// Usage:
//
//	h, err := gw.Connect(ctx, cfg)
//	if errs.IsInvalidPassword(err) {
//	    // ask for different credentials
//	}
package errs

import (
	"errors"
	"fmt"
)

// Severity grades a connection error.
type Severity int

const (
	SeverityError Severity = iota
	SeverityFatal
	SeverityWarning
)

func (s Severity) String() string {
	switch s {
	case SeverityFatal:
		return "fatal"
	case SeverityWarning:
		return "warning"
	default:
		return "error"
	}
}

// Well-known codes. Anything else is a pass-through of the client's signal.
const (
	CodeInvalidAuthorization = "28000"
	CodeInvalidPassword      = "28P01"
	CodeUnknown              = "unknown"
)

// Symbolic reasons some clients report instead of a SQLSTATE.
const (
	ReasonInvalidAuthorization = "invalid_authorization_specification"
	ReasonInvalidPassword      = "invalid_password"
)

const (
	descInvalidAuthorization = "Invalid authorization specification"
	descInvalidPassword      = "Invalid password"
	descCantConnect          = "Can't connect"
	descUnknown              = "Unknown connection failure"
)

// Error is the single error type returned by the connection gateway.
// Fields are read-only once constructed.
type Error struct {
	Severity    Severity
	Code        string
	Description string
	Cause       error // original client-level error, preserved for logging
}

func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("[%s] %s %s: %v", e.Severity, e.Code, e.Description, e.Cause)
	}
	return fmt.Sprintf("[%s] %s %s", e.Severity, e.Code, e.Description)
}

// Unwrap allows errors.Is / errors.As to traverse the cause chain.
func (e *Error) Unwrap() error {
	return e.Cause
}

// --- Constructors ---

// New creates an *Error with no cause.
func New(sev Severity, code, desc string) *Error {
	return &Error{Severity: sev, Code: code, Description: desc}
}

// Wrap creates an *Error carrying the underlying cause.
func Wrap(sev Severity, code, desc string, cause error) *Error {
	return &Error{Severity: sev, Code: code, Description: desc, Cause: cause}
}

// FromSignal maps a string-valued client failure reason onto the taxonomy.
// Both SQLSTATE codes and symbolic reasons are accepted for the two
// authentication failures; any other reason passes through as the code.
func FromSignal(reason string, cause error) *Error {
	switch reason {
	case CodeInvalidAuthorization, ReasonInvalidAuthorization:
		return Wrap(SeverityError, CodeInvalidAuthorization, descInvalidAuthorization, cause)
	case CodeInvalidPassword, ReasonInvalidPassword:
		return Wrap(SeverityError, CodeInvalidPassword, descInvalidPassword, cause)
	default:
		return Wrap(SeverityError, reason, descCantConnect, cause)
	}
}

// Unknown wraps a failure that carried no string-valued reason.
func Unknown(cause error) *Error {
	return Wrap(SeverityError, CodeUnknown, descUnknown, cause)
}

// --- Predicates ---

// IsInvalidAuthorization reports whether err is an authorization specification failure.
func IsInvalidAuthorization(err error) bool {
	return CodeOf(err) == CodeInvalidAuthorization
}

// IsInvalidPassword reports whether err is a bad-credentials failure.
func IsInvalidPassword(err error) bool {
	return CodeOf(err) == CodeInvalidPassword
}

// IsConnectFailed reports whether err is any gateway connection error.
func IsConnectFailed(err error) bool {
	var e *Error
	return errors.As(err, &e)
}

// CodeOf extracts the taxonomy code from any error in the chain, or "".
func CodeOf(err error) string {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return ""
}
