package openapi

import (
	"errors"
	"fmt"
	"strings"

	"github.com/getkin/kin-openapi/openapi3"
)

// ErrUnresolvedReference is returned when a local $ref names nothing in the document
var ErrUnresolvedReference = errors.New("unresolved reference")

// Component pointer prefixes
const (
	SchemasPrefix         = "#/components/schemas/"
	ParametersPrefix      = "#/components/parameters/"
	RequestBodiesPrefix   = "#/components/requestBodies/"
	ResponsesPrefix       = "#/components/responses/"
	SecuritySchemesPrefix = "#/components/securitySchemes/"
)

// UnresolvedError reports the $ref that could not be resolved
type UnresolvedError struct {
	Ref string
}

func (e *UnresolvedError) Error() string {
	return fmt.Sprintf("unresolved reference %q", e.Ref)
}

// Unwrap lets errors.Is match ErrUnresolvedReference
func (e *UnresolvedError) Unwrap() error { return ErrUnresolvedReference }

// Resolver resolves $ref pointers against a loaded document. It never mutates the document.
type Resolver struct {
	doc *openapi3.T
}

// NewResolver creates a resolver over doc
func NewResolver(doc *openapi3.T) *Resolver {
	return &Resolver{doc: doc}
}

// Doc returns the underlying document
func (r *Resolver) Doc() *openapi3.T { return r.doc }

// IsLocal reports whether ref points into the same document
func IsLocal(ref string) bool {
	return strings.HasPrefix(ref, "#/")
}

// componentName returns the single-segment component name under prefix
func componentName(ref, prefix string) (string, bool) {
	if !strings.HasPrefix(ref, prefix) {
		return "", false
	}
	name := strings.TrimPrefix(ref, prefix)
	if name == "" || strings.Contains(name, "/") {
		return "", false
	}
	return UnescapePointer(name), true
}

// SchemaName returns the component name of a local component-schema ref
func (r *Resolver) SchemaName(ref string) (string, bool) {
	return componentName(ref, SchemasPrefix)
}

// ResolveSchema looks up a component schema by ref
func (r *Resolver) ResolveSchema(ref string) (*openapi3.SchemaRef, error) {
	name, ok := r.SchemaName(ref)
	if !ok {
		return nil, &UnresolvedError{Ref: ref}
	}
	if r.doc == nil || r.doc.Components == nil {
		return nil, &UnresolvedError{Ref: ref}
	}
	sr, ok := r.doc.Components.Schemas[name]
	if !ok || sr == nil {
		return nil, &UnresolvedError{Ref: ref}
	}
	return sr, nil
}

// ResolveParameter returns the parameter behind pr, following local refs
func (r *Resolver) ResolveParameter(pr *openapi3.ParameterRef) (*openapi3.Parameter, error) {
	if pr == nil {
		return nil, errors.New("nil parameter")
	}
	if pr.Ref == "" || pr.Value != nil {
		if pr.Value == nil {
			return nil, errors.New("parameter has neither $ref nor value")
		}
		return pr.Value, nil
	}
	name, ok := componentName(pr.Ref, ParametersPrefix)
	if !ok || r.doc == nil || r.doc.Components == nil {
		return nil, &UnresolvedError{Ref: pr.Ref}
	}
	target, ok := r.doc.Components.Parameters[name]
	if !ok || target == nil || target.Value == nil {
		return nil, &UnresolvedError{Ref: pr.Ref}
	}
	return target.Value, nil
}

// ResolveRequestBody returns the request body behind rb, following local refs
func (r *Resolver) ResolveRequestBody(rb *openapi3.RequestBodyRef) (*openapi3.RequestBody, error) {
	if rb == nil {
		return nil, nil
	}
	if rb.Value != nil {
		return rb.Value, nil
	}
	name, ok := componentName(rb.Ref, RequestBodiesPrefix)
	if !ok || r.doc == nil || r.doc.Components == nil {
		return nil, &UnresolvedError{Ref: rb.Ref}
	}
	target, ok := r.doc.Components.RequestBodies[name]
	if !ok || target == nil || target.Value == nil {
		return nil, &UnresolvedError{Ref: rb.Ref}
	}
	return target.Value, nil
}

// ResolveResponse returns the response behind rr, following local refs
func (r *Resolver) ResolveResponse(rr *openapi3.ResponseRef) (*openapi3.Response, error) {
	if rr == nil {
		return nil, errors.New("nil response")
	}
	if rr.Value != nil {
		return rr.Value, nil
	}
	name, ok := componentName(rr.Ref, ResponsesPrefix)
	if !ok || r.doc == nil || r.doc.Components == nil {
		return nil, &UnresolvedError{Ref: rr.Ref}
	}
	target, ok := r.doc.Components.Responses[name]
	if !ok || target == nil || target.Value == nil {
		return nil, &UnresolvedError{Ref: rr.Ref}
	}
	return target.Value, nil
}

// SecurityScheme returns the named security scheme, if declared
func (r *Resolver) SecurityScheme(name string) (*openapi3.SecurityScheme, bool) {
	if r.doc == nil || r.doc.Components == nil {
		return nil, false
	}
	sr, ok := r.doc.Components.SecuritySchemes[name]
	if !ok || sr == nil || sr.Value == nil {
		return nil, false
	}
	return sr.Value, true
}
