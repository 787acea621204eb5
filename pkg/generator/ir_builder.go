package generator

import (
	"context"
	"fmt"
	"log/slog"
	"regexp"
	"runtime"
	"sort"
	"strings"

	"github.com/getkin/kin-openapi/openapi3"
	"golang.org/x/sync/errgroup"

	"github.com/blimu-dev/zod-gen/pkg/compiler"
	"github.com/blimu-dev/zod-gen/pkg/config"
	"github.com/blimu-dev/zod-gen/pkg/ir"
	"github.com/blimu-dev/zod-gen/pkg/openapi"
	"github.com/blimu-dev/zod-gen/pkg/utils"
)

// methods lists HTTP methods in the order operations of one path are emitted
var methods = []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS", "HEAD", "TRACE"}

// BuildOptions controls how a document is assembled into an IR
type BuildOptions struct {
	IncludeTags []string
	ExcludeTags []string
	// MaxSchemaDepth limits schema nesting; 0 selects the compiler default
	MaxSchemaDepth int
	// SynthesizeOperationIDs names operations without an operationId after their method and path
	SynthesizeOperationIDs bool
	// Concurrency bounds parallel operation compilation; 0 means GOMAXPROCS
	Concurrency int
	Logger      *slog.Logger
}

// OptionsForClient derives build options from a client configuration
func OptionsForClient(client config.Client, logger *slog.Logger) BuildOptions {
	return BuildOptions{
		IncludeTags:            client.IncludeTags,
		ExcludeTags:            client.ExcludeTags,
		MaxSchemaDepth:         client.SchemaDepth(),
		SynthesizeOperationIDs: client.SynthesizeOperationIDs,
		Logger:                 logger,
	}
}

// BuildIR compiles every schema and every selected operation of doc.
// Operations are compiled in parallel; the first failure cancels the rest.
func BuildIR(ctx context.Context, doc *openapi.Document, opts BuildOptions) (ir.IR, error) {
	logger := opts.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	include, exclude, err := compileTagFilters(opts.IncludeTags, opts.ExcludeTags)
	if err != nil {
		return ir.IR{}, err
	}

	c := compiler.New(doc, compiler.Options{MaxDepth: opts.MaxSchemaDepth})
	schemas, err := c.CompileComponents(doc)
	if err != nil {
		return ir.IR{}, err
	}
	for _, m := range schemas {
		if len(m.Schema.Ignored) > 0 {
			logger.Warn("unsupported schema keywords ignored", "schema", m.SourceName, "keywords", m.Schema.Ignored)
		}
	}

	inputs := collectOperations(doc, opts.SynthesizeOperationIDs)
	selected := inputs[:0]
	for _, in := range inputs {
		if shouldIncludeOperation(originalTags(in.Operation), include, exclude) {
			selected = append(selected, in)
		}
	}

	compiled := make([]ir.Operation, len(selected))
	g, gctx := errgroup.WithContext(ctx)
	limit := opts.Concurrency
	if limit <= 0 {
		limit = runtime.GOMAXPROCS(0)
	}
	g.SetLimit(limit)
	for i, in := range selected {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			op, err := c.CompileOperation(in)
			if err != nil {
				return err
			}
			compiled[i] = op
			logger.Debug("operation compiled",
				"operation", in.Label(),
				"variants", len(op.Union.Variants),
				"hasResponseMap", op.ContentTypes.Response != nil,
			)
			if ignored := op.IgnoredKeywords(); len(ignored) > 0 {
				logger.Warn("unsupported schema keywords ignored", "operation", in.Label(), "keywords", ignored)
			}
			if len(op.Params.Ignored) > 0 {
				logger.Warn("unsupported parameters ignored", "operation", in.Label(), "parameters", parameterNames(op.Params.Ignored))
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return ir.IR{}, err
	}

	result := ir.IR{Services: groupByTag(compiled), Schemas: schemas}
	if doc.T.Info != nil {
		result.Title = doc.T.Info.Title
		result.Version = doc.T.Info.Version
	}
	if len(include) > 0 || len(exclude) > 0 {
		result.Schemas = filterUnusedSchemas(result)
	}
	return result, nil
}

// collectOperations walks paths in sorted order and methods in canonical order
func collectOperations(doc *openapi.Document, synthesize bool) []compiler.OperationInput {
	if doc.T.Paths == nil {
		return nil
	}
	paths := make([]string, 0, doc.T.Paths.Len())
	for path := range doc.T.Paths.Map() {
		paths = append(paths, path)
	}
	sort.Strings(paths)
	var out []compiler.OperationInput
	for _, path := range paths {
		item := doc.T.Paths.Value(path)
		if item == nil {
			continue
		}
		for _, method := range methods {
			op := item.GetOperation(method)
			if op == nil {
				continue
			}
			id := op.OperationID
			if id == "" && synthesize {
				id = SynthesizeOperationID(method, path)
			}
			out = append(out, compiler.OperationInput{
				OperationID: id,
				Method:      method,
				Path:        path,
				Operation:   op,
				PathItem:    item,
			})
		}
	}
	return out
}

// SynthesizeOperationID derives an identifier such as "getPetsByPetIdToys"
// from "GET /pets/{petId}/toys"
func SynthesizeOperationID(method, path string) string {
	var b strings.Builder
	b.WriteString(strings.ToLower(method))
	for _, seg := range strings.Split(path, "/") {
		if seg == "" {
			continue
		}
		if strings.HasPrefix(seg, "{") && strings.HasSuffix(seg, "}") {
			b.WriteString("By")
			b.WriteString(utils.ToPascalCase(strings.Trim(seg, "{}")))
			continue
		}
		b.WriteString(utils.ToPascalCase(seg))
	}
	return b.String()
}

// originalTags returns the operation's tags, defaulting to the untagged group
func originalTags(op *openapi3.Operation) []string {
	if op == nil || len(op.Tags) == 0 {
		return []string{compiler.DefaultTag}
	}
	return op.Tags
}

// groupByTag groups operations by their first tag; services are sorted by tag,
// operations keep the order they were collected in
func groupByTag(ops []ir.Operation) []ir.Service {
	byTag := map[string]*ir.Service{}
	var tags []string
	for _, op := range ops {
		s, ok := byTag[op.Tag]
		if !ok {
			s = &ir.Service{Tag: op.Tag}
			byTag[op.Tag] = s
			tags = append(tags, op.Tag)
		}
		s.Operations = append(s.Operations, op)
	}
	sort.Strings(tags)
	out := make([]ir.Service, 0, len(tags))
	for _, t := range tags {
		out = append(out, *byTag[t])
	}
	return out
}

// compileTagFilters compiles regex patterns for tag filtering
func compileTagFilters(include, exclude []string) ([]*regexp.Regexp, []*regexp.Regexp, error) {
	inc := make([]*regexp.Regexp, 0, len(include))
	for _, p := range include {
		r, err := regexp.Compile(p)
		if err != nil {
			return nil, nil, fmt.Errorf("invalid includeTags pattern %q: %w", p, err)
		}
		inc = append(inc, r)
	}
	exc := make([]*regexp.Regexp, 0, len(exclude))
	for _, p := range exclude {
		r, err := regexp.Compile(p)
		if err != nil {
			return nil, nil, fmt.Errorf("invalid excludeTags pattern %q: %w", p, err)
		}
		exc = append(exc, r)
	}
	return inc, exc, nil
}

// shouldIncludeOperation determines if an operation should be included based on its original tags.
// Any tag matching an include pattern includes it; any tag matching an exclude pattern drops it.
func shouldIncludeOperation(originalTags []string, include, exclude []*regexp.Regexp) bool {
	included := len(include) == 0
	for _, tag := range originalTags {
		for _, r := range include {
			if r.MatchString(tag) {
				included = true
				break
			}
		}
		if included {
			break
		}
	}
	if !included {
		return false
	}

	for _, tag := range originalTags {
		for _, r := range exclude {
			if r.MatchString(tag) {
				return false
			}
		}
	}
	return true
}

// filterUnusedSchemas keeps the schemas the remaining operations reach, directly or transitively
func filterUnusedSchemas(in ir.IR) []ir.SchemaModule {
	byName := make(map[string]ir.SchemaModule, len(in.Schemas))
	for _, m := range in.Schemas {
		byName[m.Name] = m
	}

	referenced := map[string]bool{}
	var visit func(name string)
	visit = func(name string) {
		if referenced[name] {
			return
		}
		referenced[name] = true
		if m, ok := byName[name]; ok {
			for _, dep := range m.Schema.TypeImports.Sorted() {
				visit(dep)
			}
		}
	}
	for _, op := range in.Operations() {
		for _, name := range op.Imports.Sorted() {
			visit(name)
		}
	}

	out := make([]ir.SchemaModule, 0, len(referenced))
	for _, m := range in.Schemas {
		if referenced[m.Name] {
			out = append(out, m)
		}
	}
	return out
}

func parameterNames(params []ir.Parameter) []string {
	out := make([]string, 0, len(params))
	for _, p := range params {
		out = append(out, p.In+":"+p.Name)
	}
	return out
}
