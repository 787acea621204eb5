package compiler

import (
	"strings"

	"github.com/blimu-dev/zod-gen/pkg/ir"
	"github.com/blimu-dev/zod-gen/pkg/openapi"
	"github.com/blimu-dev/zod-gen/pkg/utils"
)

// DefaultTag groups operations that declare no tag
const DefaultTag = "default"

// identity returns the function and type names of an operation, derived from
// method and path when it has no operationId
func (in OperationInput) identity() (fn, typ string) {
	if in.OperationID != "" {
		return utils.FunctionName(in.OperationID), in.TypeName()
	}
	label := strings.ToLower(in.Method) + " " + in.Path
	return utils.FunctionName(label), utils.SanitizeIdentifier(utils.ToPascalCase(label))
}

// CompileOperation compiles parameters, request body and responses of one operation.
// Operations share nothing, so callers may compile them concurrently.
func (c *Compiler) CompileOperation(in OperationInput) (ir.Operation, error) {
	fn, typ := in.identity()
	op := ir.Operation{
		OperationID:  in.OperationID,
		FunctionName: fn,
		TypeName:     typ,
		Method:       strings.ToUpper(in.Method),
		Path:         in.Path,
		Tag:          DefaultTag,
	}
	if in.Operation != nil {
		op.Summary = in.Operation.Summary
		op.Description = in.Operation.Description
		op.Deprecated = in.Operation.Deprecated
		op.Tags = append([]string(nil), in.Operation.Tags...)
		if len(op.Tags) > 0 {
			op.Tag = op.Tags[0]
		}
	}

	pin := ParameterInput{
		PathPointer:      openapi.Pointer("paths", in.Path),
		OperationPointer: in.Pointer(),
		SecurityHeaders:  c.SecurityHeaders(in.Operation),
	}
	if in.PathItem != nil {
		pin.PathLevel = in.PathItem.Parameters
	}
	if in.Operation != nil {
		pin.Operation = in.Operation.Parameters
	}
	params, err := c.AnalyzeParameters(pin)
	if err != nil {
		return ir.Operation{}, withOperation(in.Label(), err)
	}
	op.Params = params

	names := c.newInlineNamer(in)
	fixed := names.operationNames()
	op.ParamsName = fixed.Params
	body, bodySchemas, err := c.compileRequestBody(in, names)
	if err != nil {
		return ir.Operation{}, withOperation(in.Label(), err)
	}
	op.RequestBody = body

	set, err := c.compileResponses(in, names, fixed)
	if err != nil {
		return ir.Operation{}, err
	}
	op.Responses = set.Responses
	op.ContentTypes = set.ContentTypes
	if body != nil {
		op.ContentTypes.Request = &body.Content
	}
	op.Union = set.Union
	op.Deserializers = set.Deserializers
	op.Handlers = set.Handlers
	op.InlineSchemas = append(bodySchemas, set.InlineSchemas...)

	imports := []ir.Imports{params.Validator.TypeImports, set.Imports}
	if body != nil {
		for _, ce := range body.Content.Entries {
			if ce.Schema != nil {
				imports = append(imports, ce.Schema.TypeImports)
			}
		}
	}
	op.Imports = ir.NewImports().Union(imports...)
	return op, nil
}

// compileRequestBody builds the request content-type map; the first declared type is the default
func (c *Compiler) compileRequestBody(in OperationInput, names *inlineNamer) (*ir.RequestBody, []ir.NamedSchema, error) {
	if in.Operation == nil || in.Operation.RequestBody == nil {
		return nil, nil, nil
	}
	ptr := in.Pointer() + "/requestBody"
	rb, err := c.resolver.ResolveRequestBody(in.Operation.RequestBody)
	if err != nil {
		return nil, nil, unresolved(ptr, err)
	}
	if rb == nil {
		return nil, nil, nil
	}
	if ref := in.Operation.RequestBody.Ref; ref != "" && strings.HasPrefix(ref, openapi.RequestBodiesPrefix) {
		ptr = strings.TrimPrefix(ref, "#")
	}

	keys := make([]string, 0, len(rb.Content))
	for ct := range rb.Content {
		keys = append(keys, ct)
	}
	cts := c.order.Sort(ptr+"/content", keys)
	mixed := HasMixedContentTypes(cts)

	out := &ir.RequestBody{Required: rb.Required, Description: rb.Description}
	var named []ir.NamedSchema
	var types []string
	seen := map[string]bool{}
	for _, ct := range cts {
		ce, ns, err := c.contentEntry(ct, rb.Content[ct], ptr+"/content/"+openapi.EscapePointer(ct), mixed, func(subject string) (string, error) {
			return names.name(subject, "Body", cts, ct)
		})
		if err != nil {
			return nil, nil, err
		}
		if ns != nil {
			named = append(named, *ns)
		}
		if !seen[ce.DataType] {
			seen[ce.DataType] = true
			types = append(types, ce.DataType)
		}
		out.Content.Entries = append(out.Content.Entries, ce)
	}
	out.Content.Default = DefaultContentType
	if len(cts) > 0 {
		out.Content.Default = cts[0]
	}
	if len(types) == 0 {
		out.TypeScript = "unknown"
	} else {
		out.TypeScript = strings.Join(types, " | ")
	}
	return out, named, nil
}
