package compiler

import (
	"errors"
	"testing"

	"github.com/getkin/kin-openapi/openapi3"
	"github.com/google/go-cmp/cmp"

	"github.com/blimu-dev/zod-gen/pkg/openapi"
)

func TestCompileExpression(t *testing.T) {
	tests := []struct {
		name     string
		schema   string
		expected string
	}{
		{"string bounds", `{"type": "string", "minLength": 1, "maxLength": 5}`, `z.string().min(1).max(5)`},
		{"pattern", `{"type": "string", "pattern": "^a/b$"}`, `z.string().regex(/^a\/b$/)`},
		{"format drops length", `{"type": "string", "format": "email", "maxLength": 5}`, `z.email()`},
		{"uuid with default", `{"type": "string", "format": "uuid", "default": "x"}`, `z.uuid().default("x")`},
		{"date-time", `{"type": "string", "format": "date-time"}`, `z.iso.datetime()`},
		{"unknown format", `{"type": "string", "format": "hostname", "minLength": 3}`, `z.string().min(3)`},
		{"binary", `{"type": "string", "format": "binary"}`, `z.instanceof(Blob)`},
		{"integer bounds", `{"type": "integer", "minimum": 1, "maximum": 10}`, `z.number().gte(1).lte(10).int()`},
		{"exclusive bounds", `{"type": "number", "minimum": 0, "exclusiveMinimum": true, "maximum": 1.5, "exclusiveMaximum": true}`, `z.number().gt(0).lt(1.5)`},
		{"boolean default", `{"type": "boolean", "default": true}`, `z.boolean().default(true)`},
		{"string enum", `{"type": "string", "enum": ["a", "b"]}`, `z.enum(["a", "b"])`},
		{"numeric enum", `{"type": "integer", "enum": [1, 2]}`, `z.enum([1, 2])`},
		{"single enum", `{"enum": ["only"]}`, `z.literal("only")`},
		{"extensible enum wins", `{"type": "string", "enum": ["a"], "x-extensible-enum": ["x", "y"]}`, `z.union([z.enum(["x", "y"]), z.string()])`},
		{"type list with null", `{"type": ["string", "null"]}`, `z.string().nullable()`},
		{"type list", `{"type": ["string", "integer"]}`, `z.union([z.string(), z.number().int()])`},
		{"type list default", `{"type": ["string", "null"], "default": "x"}`, `z.string().nullable().default("x")`},
		{"legacy nullable", `{"type": "string", "nullable": true}`, `z.string().nullable()`},
		{"array", `{"type": "array", "items": {"type": "string"}, "minItems": 1, "maxItems": 3}`, `z.array(z.string()).min(1).max(3)`},
		{"inferred array", `{"items": {"type": "number"}}`, `z.array(z.number())`},
		{"array without items", `{"type": "array"}`, `z.array(z.unknown())`},
		{"array default", `{"type": "array", "items": {"type": "string"}, "default": ["a"]}`, `z.array(z.string()).default(["a"])`},
		{"object", `{"type": "object", "required": ["id"], "properties": {"id": {"type": "string"}, "display-name": {"type": "string"}}}`, `z.object({ id: z.string(), "display-name": z.string().optional() })`},
		{"property order", `{"type": "object", "properties": {"zeta": {"type": "string"}, "alpha": {"type": "string"}}}`, `z.object({ zeta: z.string().optional(), alpha: z.string().optional() })`},
		{"open object", `{"type": "object", "additionalProperties": true}`, `z.object({}).catchall(z.unknown())`},
		{"typed catchall", `{"additionalProperties": {"type": "integer"}}`, `z.object({}).catchall(z.number().int())`},
		{"closed object", `{"type": "object", "additionalProperties": false}`, `z.object({})`},
		{"ref property", `{"type": "object", "properties": {"a": {"$ref": "#/components/schemas/A"}}}`, `z.object({ a: A.optional() })`},
		{"allOf fold", `{"allOf": [{"$ref": "#/components/schemas/A"}, {"$ref": "#/components/schemas/B"}, {"type": "object"}]}`, `z.intersection(z.intersection(A, B), z.object({}))`},
		{"allOf single", `{"allOf": [{"$ref": "#/components/schemas/A"}]}`, `A`},
		{"oneOf discriminator", `{"oneOf": [{"$ref": "#/components/schemas/A"}, {"$ref": "#/components/schemas/B"}], "discriminator": {"propertyName": "kind"}}`, `z.discriminatedUnion("kind", [A, B])`},
		{"anyOf discriminator", `{"anyOf": [{"$ref": "#/components/schemas/A"}, {"$ref": "#/components/schemas/B"}], "discriminator": {"propertyName": "kind"}}`, `z.discriminatedUnion("kind", [A, B])`},
		{"oneOf", `{"oneOf": [{"$ref": "#/components/schemas/A"}, {"$ref": "#/components/schemas/B"}]}`, `z.union([A, B]).superRefine(exactlyOne([A, B]))`},
		{"anyOf", `{"anyOf": [{"$ref": "#/components/schemas/A"}, {"$ref": "#/components/schemas/B"}]}`, `z.union([A, B])`},
		{"empty", `{}`, `z.unknown()`},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			result := compileS(t, test.schema).Expression
			if result != test.expected {
				t.Errorf("Compile(%s) = %q, expected %q", test.schema, result, test.expected)
			}
		})
	}
}

func TestCompileSingleEnumIsLiteral(t *testing.T) {
	one := compileS(t, `{"type": "string", "enum": ["a"]}`)
	if one.Expr.Kind != "literal" {
		t.Errorf("single-value enum compiled to %s, expected literal", one.Expr.Kind)
	}
	two := compileS(t, `{"type": "string", "enum": ["a", "b"]}`)
	if two.Expr.Kind != "enum" {
		t.Errorf("two-value enum compiled to %s, expected enum", two.Expr.Kind)
	}
}

func TestCompileImports(t *testing.T) {
	out := compileS(t, `{"type": "object", "properties": {"a": {"$ref": "#/components/schemas/A"}, "b": {"type": "array", "items": {"$ref": "#/components/schemas/B"}}}}`)
	if diff := cmp.Diff([]string{"A", "B"}, out.TypeImports.Sorted()); diff != "" {
		t.Errorf("imports mismatch (-want +got):\n%s", diff)
	}

	leaf := compileS(t, `{"type": "string"}`)
	if len(leaf.TypeImports) != 0 {
		t.Errorf("string schema imported %v", leaf.TypeImports.Sorted())
	}
}

func TestCompileDeterministic(t *testing.T) {
	doc := loadDoc(t, schemaDoc(`{"oneOf": [{"$ref": "#/components/schemas/A"}, {"type": "object", "properties": {"b": {"$ref": "#/components/schemas/B"}, "c": {"type": "string"}}}]}`))
	c := New(doc, Options{})
	sr := doc.T.Components.Schemas["S"]

	first, err := c.Compile(sr, "/components/schemas/S")
	if err != nil {
		t.Fatal(err)
	}
	second, err := c.Compile(sr, "/components/schemas/S")
	if err != nil {
		t.Fatal(err)
	}
	if first.Expression != second.Expression {
		t.Errorf("expression changed between runs: %q vs %q", first.Expression, second.Expression)
	}
	if diff := cmp.Diff(first.TypeImports.Sorted(), second.TypeImports.Sorted()); diff != "" {
		t.Errorf("imports changed between runs:\n%s", diff)
	}
}

func TestCompileExtensibleEnumLiterals(t *testing.T) {
	out := compileS(t, `{"type": "string", "enum": ["a"], "x-extensible-enum": ["x", "y"]}`)
	if diff := cmp.Diff([]any{"x", "y"}, out.LiteralEnumValues); diff != "" {
		t.Errorf("literal values mismatch (-want +got):\n%s", diff)
	}
	if shape := TypeShape("S", out); shape != `"x" | "y" | (string & {})` {
		t.Errorf("TypeShape = %q", shape)
	}
}

func TestTypeShapeNestedExtensibleEnum(t *testing.T) {
	out := compileS(t, `{"type": "object", "required": ["state"], "properties": {"state": {"type": "string", "x-extensible-enum": ["on", "off"]}, "tags": {"type": "array", "items": {"type": "string", "x-extensible-enum": ["new"]}}}}`)
	expected := `{ state: "on" | "off" | (string & {}); tags?: Array<"new" | (string & {})> }`
	if shape := TypeShape("S", out); shape != expected {
		t.Errorf("TypeShape = %q, expected %q", shape, expected)
	}

	plain := compileS(t, `{"type": "object", "properties": {"state": {"type": "string"}}}`)
	if shape := TypeShape("S", plain); shape != "z.infer<typeof S>" {
		t.Errorf("TypeShape without open enums = %q", shape)
	}
}

func TestCompileUniqueItemsIgnored(t *testing.T) {
	out := compileS(t, `{"type": "array", "items": {"type": "string"}, "uniqueItems": true}`)
	if out.Expression != `z.array(z.string())` {
		t.Errorf("uniqueItems changed the expression: %q", out.Expression)
	}
	if diff := cmp.Diff([]string{"/components/schemas/S/uniqueItems"}, out.Ignored); diff != "" {
		t.Errorf("ignored mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]string{"uniqueItems"}, out.Expr.Ignored); diff != "" {
		t.Errorf("AST ignored mismatch (-want +got):\n%s", diff)
	}
}

func programmaticDoc(items *openapi3.SchemaRef) *openapi.Document {
	return openapi.NewDocument(&openapi3.T{
		OpenAPI: "3.0.3",
		Components: &openapi3.Components{Schemas: openapi3.Schemas{
			"S": &openapi3.SchemaRef{Value: &openapi3.Schema{Type: &openapi3.Types{"array"}, Items: items}},
		}},
	})
}

func TestCompileUnresolvedReference(t *testing.T) {
	doc := programmaticDoc(&openapi3.SchemaRef{Ref: "#/components/schemas/Missing"})
	_, err := New(doc, Options{}).Compile(doc.T.Components.Schemas["S"], "/components/schemas/S")
	if !errors.Is(err, ErrUnresolvedReference) {
		t.Fatalf("expected ErrUnresolvedReference, got %v", err)
	}
	var ce *Error
	if !errors.As(err, &ce) {
		t.Fatalf("expected *Error, got %T", err)
	}
	if ce.Ref != "#/components/schemas/Missing" || ce.Subject != "/components/schemas/S/items" {
		t.Errorf("error = %+v", ce)
	}
}

func TestCompileNonLocalReference(t *testing.T) {
	tests := []string{
		"https://example.com/schemas.json#/components/schemas/Pet",
		"common.yaml#/Pet",
		"#/components/schemas/S/items",
	}
	for _, ref := range tests {
		doc := programmaticDoc(&openapi3.SchemaRef{Ref: ref})
		out, err := New(doc, Options{}).Compile(doc.T.Components.Schemas["S"], "/components/schemas/S")
		if err != nil {
			t.Errorf("Compile with $ref %q failed: %v", ref, err)
			continue
		}
		if out.Expression != "z.array(z.unknown())" || len(out.TypeImports) != 0 {
			t.Errorf("Compile with $ref %q = %q imports %v", ref, out.Expression, out.TypeImports.Sorted())
		}
	}
}

func TestCompileTooDeep(t *testing.T) {
	schema := `{"type": "array", "items": {"type": "array", "items": {"type": "array", "items": {"type": "array", "items": {"type": "string"}}}}}`
	doc := loadDoc(t, schemaDoc(schema))

	_, err := New(doc, Options{MaxDepth: 2}).Compile(doc.T.Components.Schemas["S"], "/components/schemas/S")
	if !errors.Is(err, ErrSchemaTooDeep) {
		t.Fatalf("expected ErrSchemaTooDeep, got %v", err)
	}

	if _, err := New(doc, Options{}).Compile(doc.T.Components.Schemas["S"], "/components/schemas/S"); err != nil {
		t.Errorf("default depth rejected a four level schema: %v", err)
	}
}

func TestCompileComponents(t *testing.T) {
	doc := loadDoc(t, `
openapi: 3.0.3
info: {title: fixture, version: "1"}
paths: {}
components:
  schemas:
    Node: {"type": "object", "description": "tree", "properties": {"children": {"type": "array", "items": {"$ref": "#/components/schemas/Node"}}}}
    pet-owner: {"type": "object", "properties": {"pet": {"$ref": "#/components/schemas/Pet"}}}
    Pet: {"type": "object", "properties": {"name": {"type": "string"}}}
    Status: {"type": "string", "x-extensible-enum": ["active", "gone"]}
`)
	modules, err := New(doc, Options{}).CompileComponents(doc)
	if err != nil {
		t.Fatal(err)
	}
	var names []string
	for _, m := range modules {
		names = append(names, m.Name)
	}
	if diff := cmp.Diff([]string{"Node", "Pet", "Status", "PetOwner"}, names); diff != "" {
		t.Fatalf("module names mismatch (-want +got):\n%s", diff)
	}

	node := modules[0]
	if !node.Recursive {
		t.Error("Node should be marked recursive")
	}
	if node.Schema.TypeImports.Has("Node") {
		t.Error("module imports itself")
	}
	if node.Annotations.Description != "tree" {
		t.Errorf("description = %q", node.Annotations.Description)
	}
	if modules[1].Recursive {
		t.Error("Pet should not be recursive")
	}
	owner := modules[3]
	if owner.SourceName != "pet-owner" || !owner.Schema.TypeImports.Has("Pet") {
		t.Errorf("owner module = %+v", owner)
	}
	if modules[2].TypeShape != `"active" | "gone" | (string & {})` {
		t.Errorf("Status TypeShape = %q", modules[2].TypeShape)
	}
	if modules[1].TypeShape != "z.infer<typeof Pet>" {
		t.Errorf("Pet TypeShape = %q", modules[1].TypeShape)
	}
}
