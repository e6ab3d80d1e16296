package ir

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

type codedErr struct{ code ErrorCode }

func (e *codedErr) Error() string   { return string(e.code) }
func (e *codedErr) Code() ErrorCode { return e.code }

func TestCodeOf(t *testing.T) {
	wrapped := fmt.Errorf("generate: %w", &codedErr{code: ErrAmbiguousOverload})
	code, ok := CodeOf(wrapped)
	assert.True(t, ok)
	assert.Equal(t, ErrAmbiguousOverload, code)

	_, ok = CodeOf(errors.New("plain"))
	assert.False(t, ok)

	_, ok = CodeOf(nil)
	assert.False(t, ok)
}
