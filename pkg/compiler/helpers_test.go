package compiler

import (
	"context"
	"strings"
	"testing"

	"github.com/blimu-dev/zod-gen/pkg/ir"
	"github.com/blimu-dev/zod-gen/pkg/openapi"
	"github.com/blimu-dev/zod-gen/pkg/validate"
)

// fixtureComponents are available to every single-schema fixture
const fixtureComponents = `
    A: {"type": "object", "required": ["a"], "properties": {"a": {"type": "string"}}}
    B: {"type": "object", "required": ["b"], "properties": {"b": {"type": "integer"}}}
`

func loadDoc(t *testing.T, src string) *openapi.Document {
	t.Helper()
	doc, err := openapi.LoadDocumentFromData(context.Background(), []byte(strings.TrimLeft(src, "\n")), nil)
	if err != nil {
		t.Fatalf("failed to load fixture: %v", err)
	}
	return doc
}

// schemaDoc wraps one schema, written as a JSON flow mapping, as component S
func schemaDoc(schema string) string {
	return `
openapi: 3.0.3
info: {title: fixture, version: "1"}
paths: {}
components:
  schemas:
    S: ` + schema + fixtureComponents
}

func compileS(t *testing.T, schema string) ir.CompiledSchema {
	t.Helper()
	doc := loadDoc(t, schemaDoc(schema))
	c := New(doc, Options{})
	out, err := c.Compile(doc.T.Components.Schemas["S"], "/components/schemas/S")
	if err != nil {
		t.Fatalf("Compile(%s) failed: %v", schema, err)
	}
	return out
}

// validatorFor compiles schema S of a fixture into an executable validator
func validatorFor(t *testing.T, schema string) *validate.Validator {
	t.Helper()
	doc := loadDoc(t, schemaDoc(schema))
	c := New(doc, Options{})
	modules, err := c.CompileComponents(doc)
	if err != nil {
		t.Fatalf("CompileComponents failed: %v", err)
	}
	reg := validate.NewRegistry(modules)
	for _, m := range modules {
		if m.Name == "S" {
			v, err := reg.CompileSchema(m.Schema)
			if err != nil {
				t.Fatalf("failed to build validator for %s: %v", m.Schema.Expression, err)
			}
			return v
		}
	}
	t.Fatal("schema S not compiled")
	return nil
}

// operationDoc wraps a paths block
func operationDoc(paths string) string {
	return `
openapi: 3.0.3
info: {title: fixture, version: "1"}
paths:
` + paths + `
components:
  schemas:
    User: {"type": "object", "required": ["id"], "properties": {"id": {"type": "string"}}}
    Error: {"type": "object", "properties": {"message": {"type": "string"}}}
  parameters:
    Verbose: {"name": "verbose", "in": "query", "schema": {"type": "boolean"}}
  securitySchemes:
    apiKey: {"type": "apiKey", "in": "header", "name": "X-Api-Key"}
    partnerKey: {"type": "apiKey", "in": "header", "name": "X-Partner-Key"}
    bearer: {"type": "http", "scheme": "bearer"}
`
}

func compileOp(t *testing.T, paths, path, method string) ir.Operation {
	t.Helper()
	op, err := tryCompileOp(t, paths, path, method)
	if err != nil {
		t.Fatalf("CompileOperation(%s %s) failed: %v", method, path, err)
	}
	return op
}

func tryCompileOp(t *testing.T, paths, path, method string) (ir.Operation, error) {
	t.Helper()
	doc := loadDoc(t, operationDoc(paths))
	item := doc.T.Paths.Value(path)
	if item == nil {
		t.Fatalf("path %s not in fixture", path)
	}
	op := item.GetOperation(strings.ToUpper(method))
	if op == nil {
		t.Fatalf("operation %s %s not in fixture", method, path)
	}
	return New(doc, Options{}).CompileOperation(OperationInput{
		OperationID: op.OperationID,
		Method:      method,
		Path:        path,
		Operation:   op,
		PathItem:    item,
	})
}
