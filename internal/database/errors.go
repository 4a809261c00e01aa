package database

import (
	"errors"
	"fmt"

	"github.com/koustreak/pgate/internal/errs"
)

// FailureSignal is a client failure with a string-valued reason: a SQLSTATE
// code or a symbolic name such as "invalid_password". Drivers translate their
// native errors into FailureSignal before returning them.
type FailureSignal struct {
	Reason string
	Cause  error // original driver-level error, may be nil
}

func (s *FailureSignal) Error() string {
	if s.Cause != nil {
		return fmt.Sprintf("%s: %v", s.Reason, s.Cause)
	}
	return s.Reason
}

func (s *FailureSignal) Unwrap() error {
	return s.Cause
}

// Signal builds a bare FailureSignal with no cause.
func Signal(reason string) error {
	return &FailureSignal{Reason: reason}
}

// translate maps any client failure onto the errs taxonomy.
// Failures with no string reason become errs.CodeUnknown.
func translate(err error) *errs.Error {
	var sig *FailureSignal
	if errors.As(err, &sig) {
		return errs.FromSignal(sig.Reason, err)
	}
	return errs.Unknown(err)
}
