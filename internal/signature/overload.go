package signature

import (
	"errors"
	"fmt"

	"github.com/roach88/xbridge/internal/ir"
)

// AmbiguousOverloadError reports two declarations that collide in the
// target signature space.
type AmbiguousOverloadError struct {
	Scope     string // namespace or type the callables live in
	Signature string
	First     string // selector of the declaration seen first
	Second    string
}

func (e *AmbiguousOverloadError) Error() string {
	return fmt.Sprintf("%s: %s::%s is declared by both %s and %s; add a rename directive to one of them",
		ir.ErrAmbiguousOverload, e.Scope, e.Signature, e.First, e.Second)
}

// Code returns the bridge error code.
func (e *AmbiguousOverloadError) Code() ir.ErrorCode {
	return ir.ErrAmbiguousOverload
}

// IsAmbiguousOverload returns true if err is an AmbiguousOverloadError.
// Uses errors.As to handle wrapped errors.
func IsAmbiguousOverload(err error) bool {
	var ae *AmbiguousOverloadError
	return errors.As(err, &ae)
}

// OverloadSet tracks the callables of one scope, and the data members
// whose names no callable may reuse.
type OverloadSet struct {
	scope   string
	seen    map[string]string // overload key -> selector
	callers map[string]string // callable name -> first selector
	fields  map[string]string // data member name -> selector
}

// NewOverloadSet creates an empty set for a scope.
func NewOverloadSet(scope string) *OverloadSet {
	return &OverloadSet{
		scope:   scope,
		seen:    make(map[string]string),
		callers: make(map[string]string),
		fields:  make(map[string]string),
	}
}

// Add records a callable, failing when its signature is already taken.
// Source argument labels do not participate: they vanish in the target.
func (s *OverloadSet) Add(c *Callable) error {
	if first, ok := s.fields[c.Name]; ok {
		return &AmbiguousOverloadError{Scope: s.scope, Signature: c.Signature(), First: first, Second: c.Selector}
	}
	key := c.OverloadKey()
	if first, ok := s.seen[key]; ok {
		return &AmbiguousOverloadError{Scope: s.scope, Signature: c.Signature(), First: first, Second: c.Selector}
	}
	s.seen[key] = c.Selector
	if _, ok := s.callers[c.Name]; !ok {
		s.callers[c.Name] = c.Selector
	}
	return nil
}

// AddField records a data member. A data member cannot share its name with
// another member of any kind.
func (s *OverloadSet) AddField(name, selector string) error {
	first, ok := s.fields[name]
	if !ok {
		first, ok = s.callers[name]
	}
	if ok {
		return &AmbiguousOverloadError{Scope: s.scope, Signature: name, First: first, Second: selector}
	}
	s.fields[name] = selector
	return nil
}
