package compiler

import (
	"sort"
	"strconv"
	"strings"

	"github.com/getkin/kin-openapi/openapi3"

	"github.com/blimu-dev/zod-gen/pkg/ir"
	"github.com/blimu-dev/zod-gen/pkg/openapi"
	"github.com/blimu-dev/zod-gen/pkg/zod"
)

// Parameter locations
const (
	InPath   = "path"
	InQuery  = "query"
	InHeader = "header"
	InCookie = "cookie"
)

// ParameterInput carries both parameter lists of one operation and where they were declared
type ParameterInput struct {
	PathLevel openapi3.Parameters
	// PathPointer locates the path item, e.g. "/paths/~1pets~1{id}"
	PathPointer string
	Operation   openapi3.Parameters
	// OperationPointer locates the operation, e.g. "/paths/~1pets~1{id}/get"
	OperationPointer string
	SecurityHeaders  []ir.SecurityHeader
}

type resolvedParam struct {
	param *openapi3.Parameter
	ptr   string
}

// AnalyzeParameters resolves, merges and partitions an operation's parameters
func (c *Compiler) AnalyzeParameters(in ParameterInput) (ir.ParameterGroups, error) {
	merged := make([]resolvedParam, 0, len(in.PathLevel)+len(in.Operation))
	index := map[string]int{}
	add := func(list openapi3.Parameters, base string) error {
		for i, pr := range list {
			p, err := c.resolver.ResolveParameter(pr)
			if err != nil {
				return unresolved(base+"/parameters/"+strconv.Itoa(i), err)
			}
			rp := resolvedParam{param: p, ptr: c.parameterPointer(pr, base, i)}
			key := p.In + "\x00" + p.Name
			if at, ok := index[key]; ok {
				merged[at] = rp
				continue
			}
			index[key] = len(merged)
			merged = append(merged, rp)
		}
		return nil
	}
	if err := add(in.PathLevel, in.PathPointer); err != nil {
		return ir.ParameterGroups{}, err
	}
	if err := add(in.Operation, in.OperationPointer); err != nil {
		return ir.ParameterGroups{}, err
	}

	var g ir.ParameterGroups
	for _, rp := range merged {
		compiled, err := c.parameterSchema(rp)
		if err != nil {
			return ir.ParameterGroups{}, err
		}
		p := ir.Parameter{
			Name:        rp.param.Name,
			In:          rp.param.In,
			Required:    rp.param.Required,
			Description: rp.param.Description,
			Schema:      compiled,
		}
		switch p.In {
		case InPath:
			p.Required = true
			g.Path = append(g.Path, p)
		case InQuery:
			g.Query = append(g.Query, p)
		case InHeader:
			g.Header = append(g.Header, p)
		default:
			g.Ignored = append(g.Ignored, p)
		}
	}

	declared := map[string]bool{}
	for _, h := range g.Header {
		declared[strings.ToLower(h.Name)] = true
	}
	for _, sh := range in.SecurityHeaders {
		if !declared[strings.ToLower(sh.Name)] {
			g.SecurityHeaders = append(g.SecurityHeaders, sh)
		}
	}

	g.PathOptional = len(g.Path) == 0
	g.QueryOptional = allOptional(g.Query)
	g.HeaderOptional = allOptional(g.Header)
	for _, sh := range g.SecurityHeaders {
		if sh.Required {
			g.HeaderOptional = false
		}
	}
	buildShapes(&g)
	return g, nil
}

// parameterPointer locates the parameter definition, following a component $ref
func (c *Compiler) parameterPointer(pr *openapi3.ParameterRef, base string, i int) string {
	if pr.Ref != "" && strings.HasPrefix(pr.Ref, openapi.ParametersPrefix) {
		return strings.TrimPrefix(pr.Ref, "#")
	}
	return base + "/parameters/" + strconv.Itoa(i)
}

// parameterSchema compiles schema, or the first content entry of content-style parameters
func (c *Compiler) parameterSchema(rp resolvedParam) (ir.CompiledSchema, error) {
	if rp.param.Schema != nil {
		return c.Compile(rp.param.Schema, rp.ptr+"/schema")
	}
	if len(rp.param.Content) > 0 {
		keys := make([]string, 0, len(rp.param.Content))
		for k := range rp.param.Content {
			keys = append(keys, k)
		}
		first := c.order.Sort(rp.ptr+"/content", keys)[0]
		if mt := rp.param.Content[first]; mt != nil && mt.Schema != nil {
			return c.Compile(mt.Schema, rp.ptr+"/content/"+openapi.EscapePointer(first)+"/schema")
		}
	}
	return finish(unknownResult()), nil
}

func allOptional(params []ir.Parameter) bool {
	for _, p := range params {
		if p.Required {
			return false
		}
	}
	return true
}

// buildShapes renders the params argument type, its destructuring pattern and its validator
func buildShapes(g *ir.ParameterGroups) {
	type group struct {
		key      string
		optional bool
		expr     *zod.Expr
	}
	var groups []group
	imports := []ir.Imports{}

	fields := func(params []ir.Parameter) *zod.Expr {
		obj := &zod.Expr{Kind: zod.KindObject}
		for _, p := range params {
			t := p.Schema.Expr
			if t == nil {
				t = zod.Unknown()
			}
			obj.Fields = append(obj.Fields, zod.Field{Name: p.Name, Type: t, Optional: !p.Required})
			imports = append(imports, p.Schema.TypeImports)
		}
		return obj
	}

	if len(g.Path) > 0 {
		groups = append(groups, group{key: "path", optional: g.PathOptional, expr: fields(g.Path)})
	}
	if len(g.Query) > 0 {
		groups = append(groups, group{key: "query", optional: g.QueryOptional, expr: fields(g.Query)})
	}
	if len(g.Header) > 0 || len(g.SecurityHeaders) > 0 {
		headers := fields(g.Header)
		for _, sh := range g.SecurityHeaders {
			headers.Fields = append(headers.Fields, zod.Field{
				Name:     sh.Name,
				Type:     &zod.Expr{Kind: zod.KindString},
				Optional: !sh.Required,
			})
		}
		groups = append(groups, group{key: "headers", optional: g.HeaderOptional, expr: headers})
	}
	if len(groups) == 0 {
		return
	}

	root := &zod.Expr{Kind: zod.KindObject}
	iface := make([]string, 0, len(groups))
	destructured := make([]string, 0, len(groups))
	for _, gr := range groups {
		root.Fields = append(root.Fields, zod.Field{Name: gr.key, Type: gr.expr, Optional: gr.optional})
		if gr.optional {
			iface = append(iface, gr.key+"?: "+gr.expr.TypeScript())
			destructured = append(destructured, gr.key+" = {}")
		} else {
			iface = append(iface, gr.key+": "+gr.expr.TypeScript())
			destructured = append(destructured, gr.key)
		}
	}
	g.ParamsInterface = "{ " + strings.Join(iface, "; ") + " }"
	g.Destructured = "{ " + strings.Join(destructured, ", ") + " }"
	g.Validator = ir.CompiledSchema{
		Expression:  root.String(),
		TypeImports: ir.NewImports().Union(imports...),
		Expr:        root,
	}
}

// SecurityHeaders lists the header API keys demanded by an operation's own security
// requirements. A header is required iff every alternative names its scheme.
func (c *Compiler) SecurityHeaders(op *openapi3.Operation) []ir.SecurityHeader {
	if op == nil || op.Security == nil || len(*op.Security) == 0 {
		return nil
	}
	alternatives := *op.Security
	var out []ir.SecurityHeader
	seen := map[string]int{}
	counts := map[string]int{}
	for _, req := range alternatives {
		names := make([]string, 0, len(req))
		for n := range req {
			names = append(names, n)
		}
		sort.Strings(names)
		for _, n := range names {
			scheme, ok := c.resolver.SecurityScheme(n)
			if !ok || scheme.Type != "apiKey" || scheme.In != InHeader || scheme.Name == "" {
				continue
			}
			counts[n]++
			if _, ok := seen[n]; ok {
				continue
			}
			seen[n] = len(out)
			out = append(out, ir.SecurityHeader{Name: scheme.Name, Scheme: n})
		}
	}
	for n, at := range seen {
		out[at].Required = counts[n] == len(alternatives)
	}
	return out
}
