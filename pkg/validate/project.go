// Package validate executes compiled validator expressions from Go.
//
// An expression tree is projected to JSON Schema 2020-12 and compiled with
// santhosh-tekuri/jsonschema. The projection follows the acceptance rules of the
// emitted zod expression: objects without a catch-all ignore unknown keys, a
// property with a default may be absent, and the exclusive union accepts a
// value only when exactly one member does.
package validate

import (
	"github.com/blimu-dev/zod-gen/pkg/zod"
)

// DefsPrefix is where component references point in projected documents
const DefsPrefix = "#/$defs/"

// Project returns the JSON Schema projection of e
func Project(e *zod.Expr) map[string]any {
	if e == nil {
		return map[string]any{}
	}
	out := project(e)
	if e.Default != nil {
		out["default"] = e.Default.Value
	}
	return out
}

func project(e *zod.Expr) map[string]any {
	switch e.Kind {
	case zod.KindRef:
		return map[string]any{"$ref": DefsPrefix + e.Ref}
	case zod.KindString:
		out := map[string]any{"type": "string"}
		if f, ok := formats[e.Format]; ok {
			out["format"] = f
		}
		applyChecks(out, e.Checks)
		return out
	case zod.KindNumber:
		out := map[string]any{"type": "number"}
		applyChecks(out, e.Checks)
		return out
	case zod.KindBoolean:
		return map[string]any{"type": "boolean"}
	case zod.KindBinary:
		// A decoded JSON value is never a Blob.
		return map[string]any{"not": map[string]any{}}
	case zod.KindArray:
		out := map[string]any{"type": "array", "items": Project(e.Items)}
		applyChecks(out, e.Checks)
		return out
	case zod.KindObject:
		return projectObject(e)
	case zod.KindEnum:
		return map[string]any{"enum": append([]any(nil), e.Values...)}
	case zod.KindLiteral:
		var v any
		if len(e.Values) > 0 {
			v = e.Values[0]
		}
		return map[string]any{"const": v}
	case zod.KindOpenEnum:
		return map[string]any{"anyOf": []any{
			map[string]any{"enum": append([]any(nil), e.Values...)},
			map[string]any{"type": "string"},
		}}
	case zod.KindNullable:
		return map[string]any{"anyOf": []any{Project(e.Inner), map[string]any{"type": "null"}}}
	case zod.KindUnion, zod.KindDiscriminate:
		return map[string]any{"anyOf": projectList(e.Members)}
	case zod.KindExclusive:
		return map[string]any{"oneOf": projectList(e.Members)}
	case zod.KindIntersection:
		return map[string]any{"allOf": projectList(e.Members)}
	}
	return map[string]any{}
}

var formats = map[string]string{
	zod.FormatEmail:    "email",
	zod.FormatUUID:     "uuid",
	zod.FormatURI:      "uri",
	zod.FormatDate:     "date",
	zod.FormatDateTime: "date-time",
	zod.FormatTime:     "time",
	zod.FormatDuration: "duration",
}

func applyChecks(out map[string]any, checks []zod.Check) {
	for _, c := range checks {
		switch c.Kind {
		case zod.CheckMinLength:
			out["minLength"] = c.Value
		case zod.CheckMaxLength:
			out["maxLength"] = c.Value
		case zod.CheckPattern:
			out["pattern"] = c.Pattern
		case zod.CheckGte:
			out["minimum"] = c.Value
		case zod.CheckGt:
			out["exclusiveMinimum"] = c.Value
		case zod.CheckLte:
			out["maximum"] = c.Value
		case zod.CheckLt:
			out["exclusiveMaximum"] = c.Value
		case zod.CheckInt:
			out["type"] = "integer"
		case zod.CheckMinItems:
			out["minItems"] = c.Value
		case zod.CheckMaxItems:
			out["maxItems"] = c.Value
		}
	}
}

func projectObject(e *zod.Expr) map[string]any {
	props := make(map[string]any, len(e.Fields))
	required := []any{}
	for _, f := range e.Fields {
		props[f.Name] = Project(f.Type)
		if !f.Optional && (f.Type == nil || f.Type.Default == nil) {
			required = append(required, f.Name)
		}
	}
	out := map[string]any{"type": "object", "properties": props}
	if len(required) > 0 {
		out["required"] = required
	}
	if e.Catchall != nil {
		out["additionalProperties"] = Project(e.Catchall)
	}
	return out
}

func projectList(members []*zod.Expr) []any {
	out := make([]any, 0, len(members))
	for _, m := range members {
		out = append(out, Project(m))
	}
	return out
}
