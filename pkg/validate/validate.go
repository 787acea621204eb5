package validate

import (
	"bytes"
	"errors"
	"fmt"
	"sort"
	"strings"

	json "github.com/goccy/go-json"
	"github.com/santhosh-tekuri/jsonschema/v6"
	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/blimu-dev/zod-gen/pkg/ir"
	"github.com/blimu-dev/zod-gen/pkg/openapi"
	"github.com/blimu-dev/zod-gen/pkg/zod"
)

const (
	draft2020   = "https://json-schema.org/draft/2020-12/schema"
	resourceURL = "mem://zod-gen/validator.json"
)

// Registry holds the component schemas references resolve against
type Registry struct {
	defs map[string]any
}

// NewRegistry projects every component module once
func NewRegistry(modules []ir.SchemaModule) *Registry {
	r := &Registry{defs: make(map[string]any, len(modules))}
	for _, m := range modules {
		r.defs[m.Name] = Project(m.Schema.Expr)
	}
	return r
}

// Has reports whether a component named name is registered
func (r *Registry) Has(name string) bool {
	_, ok := r.defs[name]
	return ok
}

// Document returns the standalone JSON Schema document validating e
func (r *Registry) Document(e *zod.Expr) map[string]any {
	doc := Project(e)
	doc["$schema"] = draft2020
	if r != nil && len(r.defs) > 0 {
		doc["$defs"] = r.defs
	}
	return doc
}

// Compile builds a validator for e. Component references must be registered.
func (r *Registry) Compile(e *zod.Expr) (*Validator, error) {
	for _, ref := range e.Refs() {
		if r == nil || !r.Has(ref) {
			return nil, fmt.Errorf("validator references unknown schema %q", ref)
		}
	}
	raw, err := json.Marshal(r.Document(e))
	if err != nil {
		return nil, fmt.Errorf("failed to encode validator: %w", err)
	}
	doc, err := jsonschema.UnmarshalJSON(bytes.NewReader(raw))
	if err != nil {
		return nil, fmt.Errorf("failed to decode validator: %w", err)
	}

	c := jsonschema.NewCompiler()
	c.DefaultDraft(jsonschema.Draft2020)
	c.AssertFormat()
	if err := c.AddResource(resourceURL, doc); err != nil {
		return nil, fmt.Errorf("failed to add validator resource: %w", err)
	}
	sch, err := c.Compile(resourceURL)
	if err != nil {
		return nil, fmt.Errorf("failed to compile validator: %w", err)
	}
	return &Validator{schema: sch, expression: e.String()}, nil
}

// CompileSchema builds a validator for a compiled schema
func (r *Registry) CompileSchema(s ir.CompiledSchema) (*Validator, error) {
	if s.Expr == nil {
		return r.Compile(zod.Unknown())
	}
	return r.Compile(s.Expr)
}

// Validator checks decoded JSON values against one expression
type Validator struct {
	schema     *jsonschema.Schema
	expression string
}

// Expression returns the zod source the validator was built from
func (v *Validator) Expression() string { return v.expression }

// Validate checks v, any value encoding/json can marshal
func (v *Validator) Validate(value any) error {
	raw, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("failed to encode value: %w", err)
	}
	return v.ValidateJSON(raw)
}

// ValidateJSON checks a JSON document
func (v *Validator) ValidateJSON(data []byte) error {
	inst, err := jsonschema.UnmarshalJSON(bytes.NewReader(data))
	if err != nil {
		return fmt.Errorf("invalid JSON: %w", err)
	}
	if err := v.schema.Validate(inst); err != nil {
		var verr *jsonschema.ValidationError
		if errors.As(err, &verr) {
			return newValidationError(verr)
		}
		return err
	}
	return nil
}

// Issue is one leaf validation failure
type Issue struct {
	// Path is the JSON pointer of the rejected value
	Path    string
	Keyword string
	Message string
}

// ValidationError is returned when a value is rejected
type ValidationError struct {
	Issues []Issue
	cause  *jsonschema.ValidationError
}

func (e *ValidationError) Error() string {
	if len(e.Issues) == 0 {
		return "validation failed"
	}
	parts := make([]string, 0, len(e.Issues))
	for _, i := range e.Issues {
		path := i.Path
		if path == "" {
			path = "/"
		}
		parts = append(parts, path+": "+i.Message)
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

func (e *ValidationError) Unwrap() error { return e.cause }

func newValidationError(verr *jsonschema.ValidationError) *ValidationError {
	out := &ValidationError{cause: verr}
	collect(verr, out, message.NewPrinter(language.English))
	sort.SliceStable(out.Issues, func(i, j int) bool { return out.Issues[i].Path < out.Issues[j].Path })
	return out
}

// collect flattens the error tree into its leaves
func collect(verr *jsonschema.ValidationError, out *ValidationError, p *message.Printer) {
	if verr == nil {
		return
	}
	if len(verr.Causes) == 0 {
		issue := Issue{Path: openapi.Pointer(verr.InstanceLocation...)}
		if verr.ErrorKind != nil {
			issue.Keyword = strings.Join(verr.ErrorKind.KeywordPath(), "/")
			issue.Message = verr.ErrorKind.LocalizedString(p)
		}
		out.Issues = append(out.Issues, issue)
		return
	}
	for _, c := range verr.Causes {
		collect(c, out, p)
	}
}
