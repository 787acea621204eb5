package compiler

import (
	"sort"
	"strings"

	"github.com/blimu-dev/zod-gen/pkg/ir"
	"github.com/blimu-dev/zod-gen/pkg/openapi"
	"github.com/blimu-dev/zod-gen/pkg/zod"
)

// CompileComponents compiles every components.schemas entry into its own module, sorted by name
func (c *Compiler) CompileComponents(doc *openapi.Document) ([]ir.SchemaModule, error) {
	if doc.T == nil || doc.T.Components == nil {
		return nil, nil
	}
	names := make([]string, 0, len(doc.T.Components.Schemas))
	for n := range doc.T.Components.Schemas {
		names = append(names, n)
	}
	sort.Strings(names)

	modules := make([]ir.SchemaModule, 0, len(names))
	graph := make(map[string]ir.Imports, len(names))
	for _, n := range names {
		sr := doc.T.Components.Schemas[n]
		ptr := openapi.Pointer("components", "schemas", n)
		compiled, err := c.Compile(sr, ptr)
		if err != nil {
			return nil, err
		}
		id := c.Identifier(n)
		graph[id] = compiled.TypeImports
		compiled.TypeImports = compiled.TypeImports.Without(id)
		m := ir.SchemaModule{
			Name:       id,
			SourceName: n,
			Schema:     compiled,
			TypeShape:  TypeShape(id, compiled),
		}
		if sr != nil && sr.Value != nil {
			m.Annotations = ir.Annotations{
				Title:       sr.Value.Title,
				Description: sr.Value.Description,
				Deprecated:  sr.Value.Deprecated,
			}
		}
		modules = append(modules, m)
	}
	for i := range modules {
		modules[i].Recursive = reaches(graph, modules[i].Name, modules[i].Name)
	}
	return modules, nil
}

// reaches reports whether target is reachable from start through at least one import edge
func reaches(graph map[string]ir.Imports, start, target string) bool {
	seen := map[string]bool{}
	stack := graph[start].Sorted()
	for len(stack) > 0 {
		n := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if n == target {
			return true
		}
		if seen[n] {
			continue
		}
		seen[n] = true
		stack = append(stack, graph[n].Sorted()...)
	}
	return false
}

// TypeShape returns the static type exported next to a validator named name.
// Extensible enums get an open literal union so editors still suggest the known
// values; z.infer would widen them to string, so schemas nesting one are spelled out.
func TypeShape(name string, compiled ir.CompiledSchema) string {
	if len(compiled.LiteralEnumValues) == 0 {
		if hasOpenEnum(compiled.Expr) {
			return compiled.Expr.TypeScript()
		}
		return "z.infer<typeof " + name + ">"
	}
	parts := make([]string, 0, len(compiled.LiteralEnumValues)+2)
	for _, v := range compiled.LiteralEnumValues {
		parts = append(parts, zod.ValueLiteral(v))
	}
	parts = append(parts, "(string & {})")
	if compiled.Expr != nil && compiled.Expr.Kind == zod.KindNullable {
		parts = append(parts, "null")
	}
	return strings.Join(parts, " | ")
}

func hasOpenEnum(e *zod.Expr) bool {
	found := false
	e.Walk(func(n *zod.Expr) {
		if n.Kind == zod.KindOpenEnum {
			found = true
		}
	})
	return found
}
