package compiler

import (
	"fmt"
	"sort"
	"strconv"

	"github.com/getkin/kin-openapi/openapi3"

	"github.com/blimu-dev/zod-gen/pkg/ir"
	"github.com/blimu-dev/zod-gen/pkg/openapi"
	"github.com/blimu-dev/zod-gen/pkg/utils"
	"github.com/blimu-dev/zod-gen/pkg/zod"
)

// DefaultMaxDepth bounds schema nesting when Options.MaxDepth is zero
const DefaultMaxDepth = 64

// ExtensibleEnumKey is the vendor extension for open string enums
const ExtensibleEnumKey = "x-extensible-enum"

// Options tunes schema compilation
type Options struct {
	// MaxDepth is the deepest nesting compiled before failing with SchemaTooDeep
	MaxDepth int
}

func (o Options) maxDepth() int {
	if o.MaxDepth <= 0 {
		return DefaultMaxDepth
	}
	return o.MaxDepth
}

// Compiler turns schema nodes and operations into render-ready descriptors.
// It only reads the document and is safe for concurrent use.
type Compiler struct {
	resolver *openapi.Resolver
	order    *openapi.Order
	opts     Options
	names    map[string]string
}

// New prepares a compiler for doc
func New(doc *openapi.Document, opts Options) *Compiler {
	return &Compiler{
		resolver: doc.Resolver(),
		order:    doc.Order,
		opts:     opts,
		names:    componentIdentifiers(doc.T),
	}
}

// componentIdentifiers assigns every component schema a unique sanitized identifier
func componentIdentifiers(doc *openapi3.T) map[string]string {
	out := map[string]string{}
	if doc == nil || doc.Components == nil {
		return out
	}
	names := make([]string, 0, len(doc.Components.Schemas))
	for n := range doc.Components.Schemas {
		names = append(names, n)
	}
	sort.Strings(names)
	taken := map[string]bool{}
	for _, n := range names {
		id := utils.SanitizeIdentifier(n)
		candidate := id
		for i := 2; taken[candidate]; i++ {
			candidate = id + strconv.Itoa(i)
		}
		taken[candidate] = true
		out[n] = candidate
	}
	return out
}

// Identifier returns the generated name of a component schema
func (c *Compiler) Identifier(component string) string {
	if id, ok := c.names[component]; ok {
		return id
	}
	return utils.SanitizeIdentifier(component)
}

// compiled is the result of one recursive step
type compiled struct {
	expr     *zod.Expr
	imports  ir.Imports
	literals []any
	ignored  []string
}

func unknownResult() compiled {
	return compiled{expr: zod.Unknown(), imports: ir.NewImports()}
}

// Compile compiles the schema found at JSON pointer ptr
func (c *Compiler) Compile(sr *openapi3.SchemaRef, ptr string) (ir.CompiledSchema, error) {
	res, err := c.compileRef(sr, ptr, 0)
	if err != nil {
		return ir.CompiledSchema{}, err
	}
	return finish(res), nil
}

func finish(res compiled) ir.CompiledSchema {
	return ir.CompiledSchema{
		Expression:        res.expr.String(),
		TypeImports:       res.imports,
		LiteralEnumValues: res.literals,
		Ignored:           res.ignored,
		Expr:              res.expr,
	}
}

// compileRef handles $ref boundaries (rules 1 and 2) before looking at the node itself
func (c *Compiler) compileRef(sr *openapi3.SchemaRef, ptr string, depth int) (compiled, error) {
	if depth > c.opts.maxDepth() {
		return compiled{}, &Error{Kind: KindSchemaTooDeep, Subject: ptr, Err: fmt.Errorf("nesting exceeds %d levels", c.opts.maxDepth())}
	}
	if sr == nil {
		return unknownResult(), nil
	}
	if sr.Ref != "" {
		name, ok := c.resolver.SchemaName(sr.Ref)
		if !ok {
			// Non-local and non-component refs are not followed.
			return unknownResult(), nil
		}
		if _, err := c.resolver.ResolveSchema(sr.Ref); err != nil {
			return compiled{}, unresolved(ptr, err)
		}
		id := c.Identifier(name)
		return compiled{expr: zod.Ref(id), imports: ir.NewImports(id)}, nil
	}
	if sr.Value == nil {
		return unknownResult(), nil
	}
	return c.compileValue(sr.Value, ptr, depth)
}

// compileValue compiles an inline node and applies its default last
func (c *Compiler) compileValue(s *openapi3.Schema, ptr string, depth int) (compiled, error) {
	res, err := c.compileShape(s, ptr, depth)
	if err != nil {
		return compiled{}, err
	}
	if s.Default != nil {
		res.expr.Default = &zod.Default{Value: s.Default, Literal: zod.ValueLiteral(s.Default)}
	}
	return res, nil
}

// compileShape applies rules 3 to 12 and 14, first match wins
func (c *Compiler) compileShape(s *openapi3.Schema, ptr string, depth int) (compiled, error) {
	// Rule 3: list of wire types.
	if s.Type != nil && (len(*s.Type) > 1 || s.Type.Is(openapi3.TypeNull)) {
		return c.compileTypeList(s, ptr, depth)
	}

	// Rule 6 outranks 4 and 5 on the same node.
	if values, ok := extensibleEnum(s); ok {
		return compiled{expr: zod.OpenEnum(values...), imports: ir.NewImports(), literals: values}, nil
	}
	// Rule 4.
	if len(s.Enum) >= 2 {
		return compiled{expr: zod.Enum(s.Enum...), imports: ir.NewImports()}, nil
	}
	// Rule 5.
	if len(s.Enum) == 1 {
		return compiled{expr: zod.Literal(s.Enum[0]), imports: ir.NewImports()}, nil
	}

	// Rule 7: legacy nullable flag.
	if s.Nullable {
		rest := *s
		rest.Nullable = false
		rest.Default = nil
		inner, err := c.compileShape(&rest, ptr, depth)
		if err != nil {
			return compiled{}, err
		}
		inner.expr = zod.Nullable(inner.expr)
		return inner, nil
	}

	// Rule 8.
	if s.AllOf != nil {
		return c.compileAllOf(s, ptr, depth)
	}

	// Rule 9: discriminator on oneOf or anyOf, handled identically.
	if s.Discriminator != nil && s.Discriminator.PropertyName != "" && (len(s.OneOf) > 0 || len(s.AnyOf) > 0) {
		members, key := s.OneOf, "oneOf"
		if len(members) == 0 {
			members, key = s.AnyOf, "anyOf"
		}
		parts, err := c.compileMembers(members, ptr+"/"+key, depth)
		if err != nil {
			return compiled{}, err
		}
		return combine(parts, func(exprs []*zod.Expr) *zod.Expr {
			return zod.DiscriminatedUnion(s.Discriminator.PropertyName, exprs...)
		}), nil
	}

	// Rule 10.
	if s.OneOf != nil {
		return c.compileUnion(s.OneOf, ptr+"/oneOf", depth, zod.ExclusiveUnion)
	}
	// Rule 11.
	if s.AnyOf != nil {
		return c.compileUnion(s.AnyOf, ptr+"/anyOf", depth, zod.Union)
	}

	// Rule 12.
	switch baseType(s) {
	case openapi3.TypeString:
		return compiled{expr: stringExpr(s), imports: ir.NewImports()}, nil
	case openapi3.TypeNumber:
		return compiled{expr: numberExpr(s, false), imports: ir.NewImports()}, nil
	case openapi3.TypeInteger:
		return compiled{expr: numberExpr(s, true), imports: ir.NewImports()}, nil
	case openapi3.TypeBoolean:
		return compiled{expr: &zod.Expr{Kind: zod.KindBoolean}, imports: ir.NewImports()}, nil
	case openapi3.TypeArray:
		return c.compileArray(s, ptr, depth)
	case openapi3.TypeObject:
		return c.compileObject(s, ptr, depth)
	}

	// Rule 14.
	return unknownResult(), nil
}

// compileTypeList strips null from a type list and compiles what remains
func (c *Compiler) compileTypeList(s *openapi3.Schema, ptr string, depth int) (compiled, error) {
	hasNull := false
	var rest []string
	for _, t := range s.Type.Slice() {
		if t == openapi3.TypeNull {
			hasNull = true
			continue
		}
		rest = append(rest, t)
	}
	single := func(t string) (compiled, error) {
		cp := *s
		cp.Type = &openapi3.Types{t}
		cp.Default = nil
		return c.compileShape(&cp, ptr, depth+1)
	}
	var res compiled
	switch len(rest) {
	case 0:
		return compiled{expr: zod.Literal(nil), imports: ir.NewImports()}, nil
	case 1:
		r, err := single(rest[0])
		if err != nil {
			return compiled{}, err
		}
		res = r
	default:
		parts := make([]compiled, 0, len(rest))
		for _, t := range rest {
			r, err := single(t)
			if err != nil {
				return compiled{}, err
			}
			parts = append(parts, r)
		}
		res = combine(parts, func(exprs []*zod.Expr) *zod.Expr { return zod.Union(exprs...) })
	}
	if hasNull {
		res.expr = zod.Nullable(res.expr)
	}
	return res, nil
}

// compileAllOf folds members left to right into intersections
func (c *Compiler) compileAllOf(s *openapi3.Schema, ptr string, depth int) (compiled, error) {
	parts, err := c.compileMembers(s.AllOf, ptr+"/allOf", depth)
	if err != nil {
		return compiled{}, err
	}
	switch len(parts) {
	case 0:
		return unknownResult(), nil
	case 1:
		return parts[0], nil
	}
	return combine(parts, func(exprs []*zod.Expr) *zod.Expr {
		acc := exprs[0]
		for _, e := range exprs[1:] {
			acc = zod.Intersection(acc, e)
		}
		return acc
	}), nil
}

func (c *Compiler) compileUnion(members openapi3.SchemaRefs, ptr string, depth int, build func(...*zod.Expr) *zod.Expr) (compiled, error) {
	parts, err := c.compileMembers(members, ptr, depth)
	if err != nil {
		return compiled{}, err
	}
	switch len(parts) {
	case 0:
		return unknownResult(), nil
	case 1:
		return parts[0], nil
	}
	return combine(parts, func(exprs []*zod.Expr) *zod.Expr { return build(exprs...) }), nil
}

func (c *Compiler) compileMembers(members openapi3.SchemaRefs, ptr string, depth int) ([]compiled, error) {
	out := make([]compiled, 0, len(members))
	for i, m := range members {
		r, err := c.compileRef(m, ptr+"/"+strconv.Itoa(i), depth+1)
		if err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, nil
}

// combine merges children's imports and ignored keywords under a new combinator node
func combine(parts []compiled, build func([]*zod.Expr) *zod.Expr) compiled {
	exprs := make([]*zod.Expr, 0, len(parts))
	imports := make([]ir.Imports, 0, len(parts))
	var ignored []string
	for _, p := range parts {
		exprs = append(exprs, p.expr)
		imports = append(imports, p.imports)
		ignored = append(ignored, p.ignored...)
	}
	return compiled{expr: build(exprs), imports: ir.NewImports().Union(imports...), ignored: ignored}
}

// baseType returns the declared single type, or infers it from the node's shape
func baseType(s *openapi3.Schema) string {
	if s.Type != nil && len(*s.Type) == 1 {
		return (*s.Type)[0]
	}
	switch {
	case len(s.Properties) > 0 || s.AdditionalProperties.Has != nil || s.AdditionalProperties.Schema != nil:
		return openapi3.TypeObject
	case s.Items != nil:
		return openapi3.TypeArray
	}
	return ""
}

// extensibleEnum returns the open literal set of a string schema carrying x-extensible-enum
func extensibleEnum(s *openapi3.Schema) ([]any, bool) {
	raw, ok := s.Extensions[ExtensibleEnumKey]
	if !ok {
		return nil, false
	}
	if s.Type != nil && !s.Type.Is(openapi3.TypeString) {
		return nil, false
	}
	list, ok := raw.([]any)
	if !ok || len(list) == 0 {
		return nil, false
	}
	values := make([]any, 0, len(list))
	for _, v := range list {
		values = append(values, fmt.Sprint(v))
	}
	return values, true
}

func stringExpr(s *openapi3.Schema) *zod.Expr {
	if s.Format == "binary" {
		return &zod.Expr{Kind: zod.KindBinary}
	}
	e := &zod.Expr{Kind: zod.KindString}
	if zod.HasFormatBase(s.Format) {
		e.Format = s.Format
		return e
	}
	if s.MinLength > 0 {
		e.Checks = append(e.Checks, zod.Check{Kind: zod.CheckMinLength, Value: float64(s.MinLength)})
	}
	if s.MaxLength != nil {
		e.Checks = append(e.Checks, zod.Check{Kind: zod.CheckMaxLength, Value: float64(*s.MaxLength)})
	}
	if s.Pattern != "" {
		e.Checks = append(e.Checks, zod.Check{Kind: zod.CheckPattern, Pattern: s.Pattern})
	}
	return e
}

func numberExpr(s *openapi3.Schema, integer bool) *zod.Expr {
	e := &zod.Expr{Kind: zod.KindNumber}
	if s.Min != nil {
		kind := zod.CheckGte
		if s.ExclusiveMin {
			kind = zod.CheckGt
		}
		e.Checks = append(e.Checks, zod.Check{Kind: kind, Value: *s.Min})
	}
	if s.Max != nil {
		kind := zod.CheckLte
		if s.ExclusiveMax {
			kind = zod.CheckLt
		}
		e.Checks = append(e.Checks, zod.Check{Kind: kind, Value: *s.Max})
	}
	if integer {
		e.Checks = append(e.Checks, zod.Check{Kind: zod.CheckInt})
	}
	return e
}

func (c *Compiler) compileArray(s *openapi3.Schema, ptr string, depth int) (compiled, error) {
	items := unknownResult()
	if s.Items != nil {
		r, err := c.compileRef(s.Items, ptr+"/items", depth+1)
		if err != nil {
			return compiled{}, err
		}
		items = r
	}
	e := &zod.Expr{Kind: zod.KindArray, Items: items.expr}
	if s.MinItems > 0 {
		e.Checks = append(e.Checks, zod.Check{Kind: zod.CheckMinItems, Value: float64(s.MinItems)})
	}
	if s.MaxItems != nil {
		e.Checks = append(e.Checks, zod.Check{Kind: zod.CheckMaxItems, Value: float64(*s.MaxItems)})
	}
	ignored := items.ignored
	if s.UniqueItems {
		e.Ignored = append(e.Ignored, "uniqueItems")
		ignored = append(ignored, ptr+"/uniqueItems")
	}
	return compiled{expr: e, imports: items.imports, ignored: ignored}, nil
}

func (c *Compiler) compileObject(s *openapi3.Schema, ptr string, depth int) (compiled, error) {
	required := make(map[string]bool, len(s.Required))
	for _, r := range s.Required {
		required[r] = true
	}
	names := make([]string, 0, len(s.Properties))
	for n := range s.Properties {
		names = append(names, n)
	}
	names = c.order.Sort(ptr+"/properties", names)

	e := &zod.Expr{Kind: zod.KindObject, Fields: make([]zod.Field, 0, len(names))}
	imports := []ir.Imports{}
	var ignored []string
	for _, n := range names {
		r, err := c.compileRef(s.Properties[n], ptr+"/properties/"+openapi.EscapePointer(n), depth+1)
		if err != nil {
			return compiled{}, err
		}
		e.Fields = append(e.Fields, zod.Field{Name: n, Type: r.expr, Optional: !required[n]})
		imports = append(imports, r.imports)
		ignored = append(ignored, r.ignored...)
	}

	switch {
	case s.AdditionalProperties.Schema != nil:
		r, err := c.compileRef(s.AdditionalProperties.Schema, ptr+"/additionalProperties", depth+1)
		if err != nil {
			return compiled{}, err
		}
		e.Catchall = r.expr
		imports = append(imports, r.imports)
		ignored = append(ignored, r.ignored...)
	case s.AdditionalProperties.Has != nil && *s.AdditionalProperties.Has:
		e.Catchall = zod.Unknown()
	}
	return compiled{expr: e, imports: ir.NewImports().Union(imports...), ignored: ignored}, nil
}
