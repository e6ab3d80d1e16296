package bridgert

import "github.com/roach88/xbridge/internal/ir"

// Optional is a value that may be absent.
type Optional[T any] struct {
	value T
	ok    bool
}

// Some returns a present optional.
func Some[T any](v T) Optional[T] {
	return Optional[T]{value: v, ok: true}
}

// None returns an absent optional.
func None[T any]() Optional[T] {
	return Optional[T]{}
}

// IsSome reports whether a value is present.
func (o Optional[T]) IsSome() bool {
	return o.ok
}

// Get returns the value. Unwrapping an absent optional is fatal.
func (o Optional[T]) Get() T {
	if !o.ok {
		fatal(ir.ErrNilUnwrap, "unexpectedly found nil while unwrapping an optional value")
	}
	return o.value
}

// GetOr returns the value, or def when absent.
func (o Optional[T]) GetOr(def T) T {
	if !o.ok {
		return def
	}
	return o.value
}
