package ir

import (
	"github.com/blimu-dev/zod-gen/pkg/zod"
)

// CompiledSchema is the result of compiling one schema node
type CompiledSchema struct {
	// Expression is the rendered validator construction expression
	Expression string
	// TypeImports names the component schemas the expression refers to
	TypeImports Imports
	// LiteralEnumValues is set for extensible enums so the type layer can emit an open literal union
	LiteralEnumValues []any
	// Ignored lists keywords that were recognized but cannot be represented
	Ignored []string
	// Expr is the AST Expression was rendered from
	Expr *zod.Expr
}

// IsEmpty reports whether no schema was compiled
func (c CompiledSchema) IsEmpty() bool { return c.Expr == nil && c.Expression == "" }

// SchemaModule is a compiled component schema, rendered as its own module
type SchemaModule struct {
	// Name is the sanitized identifier the module exports
	Name string
	// SourceName is the key under components.schemas
	SourceName  string
	Schema      CompiledSchema
	TypeShape   string
	Annotations Annotations
	// Recursive is set when the schema reaches itself through references and must be built lazily
	Recursive bool
}

// Annotations captures non-structural metadata that renderers may print.
type Annotations struct {
	Title       string
	Description string
	Deprecated  bool
}

// NamedSchema is an inline schema that received a synthesized name
type NamedSchema struct {
	Name      string
	Schema    CompiledSchema
	TypeShape string
}

// Parameter is a resolved path, query, header or cookie parameter
type Parameter struct {
	Name        string
	In          string
	Required    bool
	Description string
	Schema      CompiledSchema
}

// SecurityHeader is a header demanded by the operation's own security requirements
type SecurityHeader struct {
	Name     string
	Scheme   string
	Required bool
}

// ParameterGroups partitions an operation's parameters by location
type ParameterGroups struct {
	Path            []Parameter
	Query           []Parameter
	Header          []Parameter
	SecurityHeaders []SecurityHeader
	// Ignored holds parameters in locations that are recognized but not supported (cookie)
	Ignored []Parameter

	PathOptional   bool
	QueryOptional  bool
	HeaderOptional bool

	// ParamsInterface is the static shape of the params argument
	ParamsInterface string
	// Destructured is the destructuring pattern for the params argument
	Destructured string
	// Validator validates the params argument as a whole
	Validator CompiledSchema
}

// IsEmpty reports whether the operation takes no parameters at all
func (g ParameterGroups) IsEmpty() bool {
	return len(g.Path) == 0 && len(g.Query) == 0 && len(g.Header) == 0 && len(g.SecurityHeaders) == 0
}

// ParsingStrategy decides how one status/content-type pair is parsed at runtime
type ParsingStrategy struct {
	IsJSONLike                      bool
	UseValidation                   bool
	RequiresRuntimeContentTypeCheck bool
}

// ContentTypeEntry is one declared content type and its compiled schema
type ContentTypeEntry struct {
	ContentType string
	// Schema is nil when the media type declares no schema
	Schema *CompiledSchema
	// DataRef is the expression the body is validated with: a component or inline schema name
	DataRef string
	// DataType is the static type of the parsed body
	DataType string
	Strategy ParsingStrategy
}

// ResponseEntry is one declared status code
type ResponseEntry struct {
	StatusCode           string
	Description          string
	ContentTypes         []ContentTypeEntry
	HasContent           bool
	HasMixedContentTypes bool
}

// ContentTypeMap maps content types to schemas in declaration order
type ContentTypeMap struct {
	Entries []ContentTypeEntry
	Default string
}

// ContentTypes lists the map's keys in order
func (m ContentTypeMap) ContentTypes() []string {
	out := make([]string, 0, len(m.Entries))
	for _, e := range m.Entries {
		out = append(out, e.ContentType)
	}
	return out
}

// StatusContentTypes is the response map row for one status code
type StatusContentTypes struct {
	StatusCode string
	Entries    []ContentTypeEntry
}

// ResponseContentTypeMap maps status codes to content types to schemas
type ResponseContentTypeMap struct {
	Statuses []StatusContentTypes
	Default  string
}

// ContentTypeMaps holds the request and response content-type maps.
// Response is nil when any explicit status lacks a schema-bearing content type.
type ContentTypeMaps struct {
	Request  *ContentTypeMap
	Response *ResponseContentTypeMap
	// DefaultResponseContentType is used when the caller does not request one
	DefaultResponseContentType string
}

// RequestBody describes the operation's request body
type RequestBody struct {
	Required    bool
	Description string
	Content     ContentTypeMap
	// TypeScript is the static type of the body argument
	TypeScript string
}

// UnionVariant is one member of the response union
type UnionVariant struct {
	StatusCode  string
	ContentType string
	// DataRef is empty for void variants and "z.unknown()" for schema-less content
	DataRef string
	// TypeScript is the rendered variant type
	TypeScript string
}

// IsVoid reports whether the variant carries no body
func (v UnionVariant) IsVoid() bool { return v.ContentType == "" }

// ResponseUnion is the discriminated union of every response an operation can return
type ResponseUnion struct {
	Name     string
	Variants []UnionVariant
	// ErrorVariant names the shared error variant appended once per operation
	ErrorVariant string
	// TypeScript is the rendered union type
	TypeScript string
}

// DeserializerMap lists one deserializer slot per content type in the response map
type DeserializerMap struct {
	Name         string
	ContentTypes []string
	TypeScript   string
}

// ResponseHandler is a render-ready branch for one status code
type ResponseHandler struct {
	StatusCode string
	// Condition is the status test guarding the branch
	Condition string
	HasData   bool
	Code      string
}

// Operation is the render-ready descriptor of one API operation
type Operation struct {
	OperationID  string
	FunctionName string
	TypeName     string
	// ParamsName names the parameter validator and its type
	ParamsName  string
	Method      string
	Path        string
	Tag         string
	Tags        []string
	Summary     string
	Description string
	Deprecated  bool

	Params        ParameterGroups
	RequestBody   *RequestBody
	Responses     []ResponseEntry
	ContentTypes  ContentTypeMaps
	Union         ResponseUnion
	Deserializers DeserializerMap
	Handlers      []ResponseHandler
	InlineSchemas []NamedSchema
	Imports       Imports
}

// IgnoredKeywords lists the unrepresentable keywords met in the operation's own
// parameter, body and response schemas. Referenced components report their own.
func (op Operation) IgnoredKeywords() []string {
	var out []string
	for _, group := range [][]Parameter{op.Params.Path, op.Params.Query, op.Params.Header} {
		for _, p := range group {
			out = append(out, p.Schema.Ignored...)
		}
	}
	if op.RequestBody != nil {
		for _, ce := range op.RequestBody.Content.Entries {
			if ce.Schema != nil {
				out = append(out, ce.Schema.Ignored...)
			}
		}
	}
	for _, r := range op.Responses {
		for _, ce := range r.ContentTypes {
			if ce.Schema != nil {
				out = append(out, ce.Schema.Ignored...)
			}
		}
	}
	return out
}

// Service groups operations, typically by tag
type Service struct {
	Tag        string
	Operations []Operation
}

// IR is the compiled form of a whole document
type IR struct {
	Title    string
	Version  string
	Services []Service
	Schemas  []SchemaModule
}

// Operations flattens every service's operations
func (in IR) Operations() []Operation {
	var out []Operation
	for _, s := range in.Services {
		out = append(out, s.Operations...)
	}
	return out
}
