package signature

import "strings"

// cppKeywords are reserved in the target language and cannot name a
// parameter or member.
var cppKeywords = map[string]bool{
	"alignas": true, "alignof": true, "and": true, "asm": true, "auto": true,
	"bool": true, "break": true, "case": true, "catch": true, "char": true,
	"class": true, "concept": true, "const": true, "consteval": true, "constexpr": true,
	"continue": true, "decltype": true, "default": true, "delete": true, "do": true,
	"double": true, "else": true, "enum": true, "explicit": true, "export": true,
	"extern": true, "false": true, "float": true, "for": true, "friend": true,
	"goto": true, "if": true, "inline": true, "int": true, "long": true,
	"mutable": true, "namespace": true, "new": true, "noexcept": true, "not": true,
	"nullptr": true, "operator": true, "or": true, "private": true, "protected": true,
	"public": true, "register": true, "requires": true, "return": true, "short": true,
	"signed": true, "sizeof": true, "static": true, "struct": true, "switch": true,
	"template": true, "this": true, "throw": true, "true": true, "try": true,
	"typedef": true, "typename": true, "union": true, "unsigned": true, "using": true,
	"virtual": true, "void": true, "volatile": true, "while": true, "xor": true,
}

// SafeIdent returns name, suffixed with an underscore when it is a target
// keyword. Source backticks are stripped.
func SafeIdent(name string) string {
	name = strings.Trim(name, "`")
	if cppKeywords[name] {
		return name + "_"
	}
	return name
}

// Capitalize upper-cases the first letter: "x" -> "X".
func Capitalize(name string) string {
	if name == "" {
		return name
	}
	return strings.ToUpper(name[:1]) + name[1:]
}
