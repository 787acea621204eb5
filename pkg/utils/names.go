package utils

import (
	"regexp"
	"strings"
)

// PlaceholderIdentifier is returned for names with no usable characters
const PlaceholderIdentifier = "Unnamed"

var identifier = regexp.MustCompile(`^[A-Za-z_$][A-Za-z0-9_$]*$`)

// reserved holds TypeScript keywords plus the names generated modules import themselves
var reserved = map[string]bool{
	"break": true, "case": true, "catch": true, "class": true, "const": true, "continue": true,
	"debugger": true, "default": true, "delete": true, "do": true, "else": true, "enum": true,
	"export": true, "extends": true, "false": true, "finally": true, "for": true, "function": true,
	"if": true, "import": true, "in": true, "instanceof": true, "new": true, "null": true,
	"return": true, "super": true, "switch": true, "this": true, "throw": true, "true": true,
	"try": true, "typeof": true, "var": true, "void": true, "while": true, "with": true,
	"yield": true, "let": true, "static": true, "implements": true, "interface": true,
	"package": true, "private": true, "protected": true, "public": true, "await": true,
	"undefined": true, "z": true,
}

// IsIdentifier reports whether s can be used as a generated identifier as-is
func IsIdentifier(s string) bool {
	return identifier.MatchString(s) && !reserved[s]
}

// IsReserved reports whether s collides with a keyword or a generated import
func IsReserved(s string) bool {
	return reserved[s]
}

// SanitizeIdentifier turns an arbitrary name into a valid identifier.
// Valid names are kept verbatim; anything else is rebuilt from its words in PascalCase.
func SanitizeIdentifier(name string) string {
	name = RemoveAccents(strings.TrimSpace(name))
	if identifier.MatchString(name) {
		if reserved[name] {
			return name + "_"
		}
		return name
	}
	out := ToPascalCase(name)
	if out == "" {
		return PlaceholderIdentifier
	}
	if out[0] >= '0' && out[0] <= '9' {
		out = "_" + out
	}
	return out
}

// FunctionName derives a camelCase function identifier from an operationId
func FunctionName(operationID string) string {
	out := ToCamelCase(operationID)
	switch {
	case out == "":
		return strings.ToLower(PlaceholderIdentifier[:1]) + PlaceholderIdentifier[1:]
	case out[0] >= '0' && out[0] <= '9':
		return "_" + out
	case reserved[out]:
		return out + "_"
	}
	return out
}
