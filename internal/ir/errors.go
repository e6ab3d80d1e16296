package ir

import "errors"

// ErrorCode names a bridge error category. The same codes are used in
// diagnostics, the generation history and CLI output.
type ErrorCode string

const (
	// ErrUnrepresentableType: no target mapping exists. The declaration is
	// dropped from the emitted interface; the pass continues.
	ErrUnrepresentableType ErrorCode = "UnrepresentableType"

	// ErrAmbiguousOverload: two declarations collide in the target signature
	// space and need a rename directive.
	ErrAmbiguousOverload ErrorCode = "AmbiguousOverload"

	// ErrConstraintUnsatisfied: a generic instantiation was rejected.
	ErrConstraintUnsatisfied ErrorCode = "ConstraintUnsatisfied"

	// ErrNilUnwrap: a value was extracted from an absent optional. Runtime
	// only and always fatal.
	ErrNilUnwrap ErrorCode = "NilUnwrap"
)

// Codes for contract violations detected by the runtime model and for
// declarations that cannot appear where they are declared.
const (
	ErrEscapedReference ErrorCode = "EscapedReference"
	ErrInactiveCase     ErrorCode = "InactiveCase"
	ErrInvalidDecl      ErrorCode = "InvalidDeclaration"
)

// CodeOf returns the code of the first error in err's chain that carries
// one, via a Code() ErrorCode method.
func CodeOf(err error) (ErrorCode, bool) {
	var c interface{ Code() ErrorCode }
	if errors.As(err, &c) {
		return c.Code(), true
	}
	return "", false
}
