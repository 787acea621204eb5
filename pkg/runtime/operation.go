// Package runtime executes compiled operations over net/http and parses their
// responses the way the generated TypeScript client does: the response is
// matched to a status branch, the body is read according to its content type,
// and Parse applies deserializers and validators on demand.
package runtime

import (
	"fmt"
	"strconv"

	"github.com/blimu-dev/zod-gen/pkg/compiler"
	"github.com/blimu-dev/zod-gen/pkg/ir"
	"github.com/blimu-dev/zod-gen/pkg/validate"
)

// Operation is a compiled operation with its response validators built
type Operation struct {
	ir.Operation
	params     *validate.Validator
	validators map[string]*validate.Validator
}

func validatorKey(status, contentType string) string {
	return status + "\x00" + compiler.MediaType(contentType)
}

// NewOperation builds a validator for every schema-bearing response content type of op
func NewOperation(op ir.Operation, reg *validate.Registry) (*Operation, error) {
	out := &Operation{Operation: op, validators: map[string]*validate.Validator{}}
	for _, r := range op.Responses {
		for _, ce := range r.ContentTypes {
			if ce.Schema == nil {
				continue
			}
			v, err := reg.CompileSchema(*ce.Schema)
			if err != nil {
				return nil, fmt.Errorf("%s: response %s %s: %w", op.FunctionName, r.StatusCode, ce.ContentType, err)
			}
			out.validators[validatorKey(r.StatusCode, ce.ContentType)] = v
		}
	}
	if op.Params.Validator.Expr != nil {
		v, err := reg.CompileSchema(op.Params.Validator)
		if err != nil {
			return nil, fmt.Errorf("%s: parameters: %w", op.FunctionName, err)
		}
		out.params = v
	}
	return out, nil
}

// ValidateParams checks a params argument shaped like the operation's ParamsInterface
func (o *Operation) ValidateParams(params map[string]any) error {
	if o.params == nil {
		return nil
	}
	return o.params.Validate(params)
}

// match returns the response branch handling status: an explicit code first, then its range
func (o *Operation) match(status int) *ir.ResponseEntry {
	code := strconv.Itoa(status)
	for i := range o.Responses {
		if o.Responses[i].StatusCode == code {
			return &o.Responses[i]
		}
	}
	class := code[:1]
	for i := range o.Responses {
		sc := o.Responses[i].StatusCode
		if len(sc) == 3 && sc[:1] == class && (sc[1:] == "XX" || sc[1:] == "xx") {
			return &o.Responses[i]
		}
	}
	return nil
}

// declares reports whether the branch lists contentType
func declares(r *ir.ResponseEntry, contentType string) bool {
	mt := compiler.MediaType(contentType)
	for _, ce := range r.ContentTypes {
		if compiler.MediaType(ce.ContentType) == mt {
			return true
		}
	}
	return false
}

// shouldValidate mirrors the validate flag the generated handler passes to parseBody
func shouldValidate(r *ir.ResponseEntry, contentType string) bool {
	if r.HasMixedContentTypes {
		return compiler.IsJSONLike(contentType)
	}
	for _, ce := range r.ContentTypes {
		if ce.Strategy.UseValidation {
			return true
		}
	}
	return false
}
