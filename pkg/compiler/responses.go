package compiler

import (
	"mime"
	"sort"
	"strconv"
	"strings"

	"github.com/getkin/kin-openapi/openapi3"

	"github.com/blimu-dev/zod-gen/pkg/ir"
	"github.com/blimu-dev/zod-gen/pkg/openapi"
	"github.com/blimu-dev/zod-gen/pkg/utils"
	"github.com/blimu-dev/zod-gen/pkg/zod"
)

// DefaultContentType is used when an operation declares no content type at all
const DefaultContentType = "application/json"

// UnknownData is the data reference of content validated by nothing
const UnknownData = "z.unknown()"

// UnexpectedVariant names the catch-all error variant closing every response union
const UnexpectedVariant = "UnexpectedResponse"

// OperationInput identifies one operation of the document
type OperationInput struct {
	OperationID string
	Method      string
	Path        string
	Operation   *openapi3.Operation
	PathItem    *openapi3.PathItem
}

// Label names the operation in errors and logs
func (in OperationInput) Label() string {
	if in.OperationID != "" {
		return in.OperationID
	}
	return strings.ToUpper(in.Method) + " " + in.Path
}

// Pointer locates the operation in the document
func (in OperationInput) Pointer() string {
	return openapi.Pointer("paths", in.Path, strings.ToLower(in.Method))
}

// TypeName is the PascalCase prefix of every type generated for the operation
func (in OperationInput) TypeName() string {
	if in.OperationID == "" {
		return ""
	}
	return utils.SanitizeIdentifier(utils.ToPascalCase(in.OperationID))
}

// ResponseSet is everything the response compiler derives for one operation
type ResponseSet struct {
	Responses     []ir.ResponseEntry
	ContentTypes  ir.ContentTypeMaps
	Union         ir.ResponseUnion
	Deserializers ir.DeserializerMap
	Handlers      []ir.ResponseHandler
	InlineSchemas []ir.NamedSchema
	Imports       ir.Imports
}

// inlineNamer hands out the module-level names of one operation. Component
// identifiers are taken up front since the module imports them.
type inlineNamer struct {
	in   OperationInput
	used map[string]bool
}

func (c *Compiler) newInlineNamer(in OperationInput) *inlineNamer {
	used := make(map[string]bool, len(c.names))
	for _, id := range c.names {
		used[id] = true
	}
	return &inlineNamer{in: in, used: used}
}

// reserve claims name, numbering it when a component or earlier name holds it
func (n *inlineNamer) reserve(name string) string {
	candidate := name
	for i := 2; n.used[candidate]; i++ {
		candidate = name + strconv.Itoa(i)
	}
	n.used[candidate] = true
	return candidate
}

// operationNames are the fixed per-operation declarations of a module
type operationNames struct {
	Union         string
	Params        string
	Deserializers string
}

func (n *inlineNamer) operationNames() operationNames {
	_, typ := n.in.identity()
	return operationNames{
		Union:         n.reserve(typ + "Response"),
		Params:        n.reserve(typ + "Params"),
		Deserializers: n.reserve(typ + "Deserializers"),
	}
}

func (n *inlineNamer) name(subject, suffix string, contentTypes []string, ct string) (string, error) {
	base := n.in.TypeName()
	if base == "" {
		return "", &Error{
			Kind:      KindMissingOperationIdentity,
			Operation: n.in.Label(),
			Subject:   subject,
			Err:       ErrMissingOperationIdentity,
		}
	}
	name := base + suffix
	if len(contentTypes) > 1 {
		name += mediaSuffix(ct, false)
		if n.used[name] {
			name = base + suffix + mediaSuffix(ct, true)
		}
	}
	for i := 2; n.used[name]; i++ {
		name = base + suffix + strconv.Itoa(i)
	}
	n.used[name] = true
	return name, nil
}

// mediaSuffix is the PascalCase subtype of ct, or the whole media type when full is set
func mediaSuffix(ct string, full bool) string {
	mt := MediaType(ct)
	if !full {
		if i := strings.IndexByte(mt, '/'); i >= 0 {
			mt = mt[i+1:]
		}
	}
	if s := utils.ToPascalCase(mt); s != "" {
		return s
	}
	return "Any"
}

// MediaType strips parameters from a content type
func MediaType(ct string) string {
	if mt, _, err := mime.ParseMediaType(ct); err == nil {
		return mt
	}
	if i := strings.IndexByte(ct, ';'); i >= 0 {
		ct = ct[:i]
	}
	return strings.ToLower(strings.TrimSpace(ct))
}

// IsJSONLike reports whether a content type carries JSON, vendor "+json" types included
func IsJSONLike(ct string) bool {
	return strings.Contains(strings.ToLower(ct), "json")
}

// Strategy decides how one status/content-type pair is parsed
func Strategy(ct string, hasSchema, mixed bool) ir.ParsingStrategy {
	jsonLike := IsJSONLike(ct)
	return ir.ParsingStrategy{
		IsJSONLike:                      jsonLike,
		UseValidation:                   hasSchema && jsonLike,
		RequiresRuntimeContentTypeCheck: mixed,
	}
}

// HasMixedContentTypes reports whether cts mixes JSON-like and other content types
func HasMixedContentTypes(cts []string) bool {
	var jsonLike, other bool
	for _, ct := range cts {
		if IsJSONLike(ct) {
			jsonLike = true
		} else {
			other = true
		}
	}
	return jsonLike && other
}

// statusRank orders explicit codes numerically and puts "2XX" after every explicit 2xx code
func statusRank(code string) (float64, bool) {
	if n, err := strconv.Atoi(code); err == nil {
		return float64(n), true
	}
	if len(code) == 3 && strings.EqualFold(code[1:], "XX") && code[0] >= '1' && code[0] <= '5' {
		return float64(code[0]-'0')*100 + 99.5, true
	}
	return 0, false
}

// SortStatusCodes drops "default" and sorts the rest ascending
func SortStatusCodes(codes []string) []string {
	out := make([]string, 0, len(codes))
	for _, c := range codes {
		if c != "default" {
			out = append(out, c)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		ri, oki := statusRank(out[i])
		rj, okj := statusRank(out[j])
		switch {
		case oki && okj:
			return ri < rj
		case oki != okj:
			return oki
		}
		return out[i] < out[j]
	})
	return out
}

// CompileResponses walks every status code and content type of an operation
func (c *Compiler) CompileResponses(in OperationInput) (ResponseSet, error) {
	names := c.newInlineNamer(in)
	return c.compileResponses(in, names, names.operationNames())
}

func (c *Compiler) compileResponses(in OperationInput, names *inlineNamer, fixed operationNames) (ResponseSet, error) {
	set := ResponseSet{Imports: ir.NewImports()}
	if in.Operation == nil || in.Operation.Responses == nil {
		set.finish(fixed)
		return set, nil
	}
	opPtr := in.Pointer()
	responses := in.Operation.Responses.Map()
	codes := make([]string, 0, len(responses))
	for code := range responses {
		codes = append(codes, code)
	}

	imports := []ir.Imports{set.Imports}
	for _, code := range SortStatusCodes(codes) {
		rr := responses[code]
		ptr := opPtr + "/responses/" + openapi.EscapePointer(code)
		resp, err := c.resolver.ResolveResponse(rr)
		if err != nil {
			return ResponseSet{}, withOperation(in.Label(), unresolved(ptr, err))
		}
		if rr.Ref != "" && strings.HasPrefix(rr.Ref, openapi.ResponsesPrefix) {
			ptr = strings.TrimPrefix(rr.Ref, "#")
		}

		keys := make([]string, 0, len(resp.Content))
		for ct := range resp.Content {
			keys = append(keys, ct)
		}
		cts := c.order.Sort(ptr+"/content", keys)
		entry := ir.ResponseEntry{
			StatusCode:           code,
			HasContent:           len(cts) > 0,
			HasMixedContentTypes: HasMixedContentTypes(cts),
		}
		if resp.Description != nil {
			entry.Description = *resp.Description
		}
		// keys match the negotiated media type, which carries no parameters
		seen := map[string]bool{}
		for _, ct := range cts {
			key := MediaType(ct)
			if seen[key] {
				continue
			}
			seen[key] = true
			ce, named, err := c.contentEntry(ct, resp.Content[ct], ptr+"/content/"+openapi.EscapePointer(ct), entry.HasMixedContentTypes, func(subject string) (string, error) {
				return names.name(subject, "Response"+code, cts, ct)
			})
			if err != nil {
				return ResponseSet{}, withOperation(in.Label(), err)
			}
			ce.ContentType = key
			if ce.Schema != nil {
				imports = append(imports, ce.Schema.TypeImports)
			}
			if named != nil {
				set.InlineSchemas = append(set.InlineSchemas, *named)
			}
			entry.ContentTypes = append(entry.ContentTypes, ce)
		}
		set.Responses = append(set.Responses, entry)
	}
	set.Imports = ir.NewImports().Union(imports...)
	set.finish(fixed)
	return set, nil
}

// contentEntry compiles one media type. Inline schemas are named through name.
func (c *Compiler) contentEntry(ct string, mt *openapi3.MediaType, ptr string, mixed bool, name func(subject string) (string, error)) (ir.ContentTypeEntry, *ir.NamedSchema, error) {
	entry := ir.ContentTypeEntry{ContentType: ct, DataRef: UnknownData, DataType: "unknown"}
	if mt == nil || mt.Schema == nil {
		entry.Strategy = Strategy(ct, false, mixed)
		return entry, nil, nil
	}
	compiled, err := c.Compile(mt.Schema, ptr+"/schema")
	if err != nil {
		return ir.ContentTypeEntry{}, nil, err
	}
	entry.Schema = &compiled
	entry.Strategy = Strategy(ct, true, mixed)

	switch compiled.Expr.Kind {
	case zod.KindUnknown:
		if compiled.Expr.Default == nil {
			return entry, nil, nil
		}
	case zod.KindRef:
		if compiled.Expr.Default == nil {
			entry.DataRef = compiled.Expr.Ref
			entry.DataType = compiled.Expr.Ref
			return entry, nil, nil
		}
	}
	n, err := name(ptr + "/schema")
	if err != nil {
		return ir.ContentTypeEntry{}, nil, err
	}
	entry.DataRef = n
	entry.DataType = n
	return entry, &ir.NamedSchema{Name: n, Schema: compiled, TypeShape: TypeShape(n, compiled)}, nil
}

// finish derives the maps, union, deserializer slots and handlers from the response entries
func (set *ResponseSet) finish(names operationNames) {
	set.ContentTypes.Response = buildResponseMap(set.Responses)
	set.ContentTypes.DefaultResponseContentType = defaultResponseContentType(set.Responses)
	if set.ContentTypes.Response != nil {
		set.ContentTypes.Response.Default = set.ContentTypes.DefaultResponseContentType
	}

	set.Union = buildUnion(names.Union, set.Responses, set.ContentTypes.Response != nil)
	set.Deserializers = buildDeserializers(names.Deserializers, set.ContentTypes.Response)
	set.Handlers = ResponseHandlers(set.Responses, set.Union.Name, set.ContentTypes.Response != nil)
}

// buildResponseMap returns nil unless every status has a content type with a schema
func buildResponseMap(responses []ir.ResponseEntry) *ir.ResponseContentTypeMap {
	if len(responses) == 0 {
		return nil
	}
	m := &ir.ResponseContentTypeMap{}
	for _, r := range responses {
		row := ir.StatusContentTypes{StatusCode: r.StatusCode}
		for _, ce := range r.ContentTypes {
			if ce.Schema != nil {
				row.Entries = append(row.Entries, ce)
			}
		}
		if len(row.Entries) == 0 {
			return nil
		}
		m.Statuses = append(m.Statuses, row)
	}
	return m
}

// defaultResponseContentType is the first content type in status then declaration order
func defaultResponseContentType(responses []ir.ResponseEntry) string {
	for _, r := range responses {
		if len(r.ContentTypes) > 0 {
			return r.ContentTypes[0].ContentType
		}
	}
	return DefaultContentType
}

// statusType is the static type of a status code: a literal for explicit codes
func statusType(code string) string {
	if _, err := strconv.Atoi(code); err == nil {
		return code
	}
	return "number"
}

func buildUnion(name string, responses []ir.ResponseEntry, keyedByContentType bool) ir.ResponseUnion {
	u := ir.ResponseUnion{Name: name, ErrorVariant: UnexpectedVariant}
	for _, r := range responses {
		if !r.HasContent {
			u.Variants = append(u.Variants, ir.UnionVariant{
				StatusCode: r.StatusCode,
				TypeScript: "ApiVoidResponse<" + statusType(r.StatusCode) + ">",
			})
			continue
		}
		for _, ce := range r.ContentTypes {
			ctType := "string"
			if keyedByContentType {
				ctType = zod.ValueLiteral(ce.ContentType)
			}
			u.Variants = append(u.Variants, ir.UnionVariant{
				StatusCode:  r.StatusCode,
				ContentType: ce.ContentType,
				DataRef:     ce.DataRef,
				TypeScript:  "ApiResponse<" + statusType(r.StatusCode) + ", " + ctType + ", " + ce.DataType + ">",
			})
		}
	}
	var b strings.Builder
	for _, v := range u.Variants {
		b.WriteString("\n  | ")
		b.WriteString(v.TypeScript)
	}
	b.WriteString("\n  | ")
	b.WriteString(u.ErrorVariant)
	u.TypeScript = b.String()
	return u
}

// buildDeserializers lists one slot per distinct content type of the response map
func buildDeserializers(name string, m *ir.ResponseContentTypeMap) ir.DeserializerMap {
	d := ir.DeserializerMap{Name: name}
	if m == nil {
		d.TypeScript = "Partial<Record<string, Deserializer>>"
		return d
	}
	seen := map[string]bool{}
	for _, row := range m.Statuses {
		for _, ce := range row.Entries {
			if !seen[ce.ContentType] {
				seen[ce.ContentType] = true
				d.ContentTypes = append(d.ContentTypes, ce.ContentType)
			}
		}
	}
	slots := make([]string, 0, len(d.ContentTypes))
	for _, ct := range d.ContentTypes {
		slots = append(slots, zod.ValueLiteral(ct)+"?: Deserializer")
	}
	if len(slots) == 0 {
		d.TypeScript = "{}"
	} else {
		d.TypeScript = "{ " + strings.Join(slots, "; ") + " }"
	}
	return d
}
