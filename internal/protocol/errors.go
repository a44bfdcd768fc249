package protocol

import (
	"errors"
	"fmt"
)

// ErrProtocolViolation is matched (with errors.Is) by every error that is
// caused by malformed or unexpected input from the remote end. the owner of
// the connection is expected to close it, not to crash.
var ErrProtocolViolation = errors.New("protocol violation")

type ViolationError struct {
	Reason string
}

func (e *ViolationError) Error() string {
	return "protocol violation: " + e.Reason
}

func (e *ViolationError) Is(target error) bool {
	return target == ErrProtocolViolation
}

func Violationf(format string, args ...any) error {
	return &ViolationError{Reason: fmt.Sprintf(format, args...)}
}
