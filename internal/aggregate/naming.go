package aggregate

import (
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/roach88/xbridge/internal/signature"
)

var predicatePrefixes = []string{"is", "has", "can", "should", "will", "did", "was", "does"}

// readsAsPredicate reports whether a property name already reads as a
// boolean question: isEmpty, hasChildren, canUndo.
func readsAsPredicate(name string) bool {
	for _, prefix := range predicatePrefixes {
		rest, ok := strings.CutPrefix(name, prefix)
		if !ok || rest == "" {
			continue
		}
		r, _ := utf8.DecodeRuneInString(rest)
		if unicode.IsUpper(r) {
			return true
		}
	}
	return false
}

func getterName(base string, predicate bool) string {
	if predicate {
		return signature.SafeIdent(base)
	}
	return "get" + signature.Capitalize(base)
}

func setterName(base string) string {
	return "set" + signature.Capitalize(base)
}

func modifyName(base string) string {
	return "modify" + signature.Capitalize(base)
}

func plainName(name string) string {
	return strings.Trim(name, "`")
}
