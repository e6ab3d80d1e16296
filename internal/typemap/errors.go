package typemap

import (
	"errors"
	"fmt"

	"github.com/roach88/xbridge/internal/ir"
)

// UnrepresentableError reports a source type with no target mapping.
type UnrepresentableError struct {
	Type   string
	Reason string
}

func (e *UnrepresentableError) Error() string {
	return fmt.Sprintf("%s: %s: %s", ir.ErrUnrepresentableType, e.Type, e.Reason)
}

// Code returns the bridge error code.
func (e *UnrepresentableError) Code() ir.ErrorCode {
	return ir.ErrUnrepresentableType
}

// IsUnrepresentable returns true if err is an UnrepresentableError.
// Uses errors.As to handle wrapped errors.
func IsUnrepresentable(err error) bool {
	var ue *UnrepresentableError
	return errors.As(err, &ue)
}

func unrepresentable(t ir.TypeRef, format string, args ...any) error {
	return &UnrepresentableError{Type: t.String(), Reason: fmt.Sprintf(format, args...)}
}
