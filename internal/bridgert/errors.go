package bridgert

import (
	"fmt"

	"github.com/roach88/xbridge/internal/ir"
)

// FatalError is a runtime contract violation with no recovery path. It is
// raised by panicking, as the generated interface traps.
type FatalError struct {
	Code    ir.ErrorCode
	Message string
}

func (e *FatalError) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func fatal(code ir.ErrorCode, format string, args ...any) {
	panic(&FatalError{Code: code, Message: fmt.Sprintf(format, args...)})
}

// Trap runs fn and returns the FatalError it raised, or nil. Other panics
// propagate.
func Trap(fn func()) (fe *FatalError) {
	defer func() {
		if r := recover(); r != nil {
			e, ok := r.(*FatalError)
			if !ok {
				panic(r)
			}
			fe = e
		}
	}()
	fn()
	return nil
}
