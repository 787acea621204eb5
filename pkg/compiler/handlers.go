package compiler

import (
	"strconv"
	"strings"

	"github.com/blimu-dev/zod-gen/pkg/ir"
	"github.com/blimu-dev/zod-gen/pkg/zod"
)

// StatusCondition is the TypeScript test selecting a status branch
func StatusCondition(code string) string {
	if _, err := strconv.Atoi(code); err == nil {
		return "response.status === " + code
	}
	if rank, ok := statusRank(code); ok {
		lo := int(rank) / 100 * 100
		return "response.status >= " + strconv.Itoa(lo) + " && response.status <= " + strconv.Itoa(lo+99)
	}
	return "false"
}

// statusValue is the status written into the returned variant
func statusValue(code string) string {
	if _, err := strconv.Atoi(code); err == nil {
		return code
	}
	return "response.status"
}

// ResponseHandlers renders one branch per status code, in the order given.
// A status without content returns its void variant directly; otherwise the
// branch binds the body to data and exposes parse() over the status' schemas.
func ResponseHandlers(responses []ir.ResponseEntry, union string, keyedByContentType bool) []ir.ResponseHandler {
	out := make([]ir.ResponseHandler, 0, len(responses))
	for _, r := range responses {
		h := ir.ResponseHandler{
			StatusCode: r.StatusCode,
			Condition:  StatusCondition(r.StatusCode),
			HasData:    r.HasContent,
		}
		if !r.HasContent {
			h.Code = "return { status: " + statusValue(r.StatusCode) + `, contentType: "", data: undefined, response } as ` + union + ";"
		} else {
			h.Code = contentHandler(r, union, keyedByContentType)
		}
		out = append(out, h)
	}
	return out
}

func contentHandler(r ir.ResponseEntry, union string, keyedByContentType bool) string {
	var b strings.Builder
	b.WriteString("const schemas = { ")
	validate := false
	for i, ce := range r.ContentTypes {
		if i > 0 {
			b.WriteString(", ")
		}
		b.WriteString(zod.ValueLiteral(ce.ContentType))
		b.WriteString(": ")
		b.WriteString(ce.DataRef)
		if ce.Strategy.UseValidation {
			validate = true
		}
	}
	b.WriteString(" };\n")
	if keyedByContentType {
		b.WriteString("if (!(contentType in schemas)) {\n")
		b.WriteString("  return unexpectedResponse(response, contentType) as " + union + ";\n")
		b.WriteString("}\n")
	}
	b.WriteString("const data = await readBody(response, contentType);\n")

	status := statusValue(r.StatusCode)
	ret := func(validate bool) string {
		return "return { status: " + status + ", contentType, data, response, parse: () => parseBody(schemas, data, contentType, " +
			strconv.FormatBool(validate) + ", options.deserializers) } as " + union + ";"
	}
	if r.HasMixedContentTypes {
		b.WriteString("if (isJsonLike(contentType)) {\n")
		b.WriteString("  " + ret(true) + "\n")
		b.WriteString("}\n")
		b.WriteString(ret(false))
		return b.String()
	}
	b.WriteString(ret(validate))
	return b.String()
}
