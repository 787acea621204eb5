package typescript

import (
	"sort"
	"strings"

	"github.com/blimu-dev/zod-gen/pkg/ir"
	"github.com/blimu-dev/zod-gen/pkg/zod"
)

// operationView is the data handed to operation.ts.gotmpl
type operationView struct {
	Op             ir.Operation
	ZodImport      string
	RuntimeImports []string
	Signature      []string
	PathTemplate   string
	HasHeaders     bool
}

func newOperationView(op ir.Operation, zodImport string) operationView {
	return operationView{
		Op:             op,
		ZodImport:      zodImport,
		RuntimeImports: runtimeImports(op),
		Signature:      buildSignature(op),
		PathTemplate:   buildPathTemplate(op.Path),
		HasHeaders:     len(op.Params.Header) > 0 || len(op.Params.SecurityHeaders) > 0,
	}
}

// runtimeImports lists the runtime symbols an operation module refers to
func runtimeImports(op ir.Operation) []string {
	names := map[string]bool{
		"DEFAULT_BASE_URL":   true,
		"RequestOptions":     true,
		"UnexpectedResponse": true,
		"buildUrl":           true,
		"mediaType":          true,
		"send":               true,
		"unexpectedResponse": true,
	}
	if strings.Contains(op.Deserializers.TypeScript, "Deserializer") {
		names["Deserializer"] = true
	}
	if op.RequestBody != nil {
		names["encodeBody"] = true
	}
	for _, v := range op.Union.Variants {
		if v.IsVoid() {
			names["ApiVoidResponse"] = true
		} else {
			names["ApiResponse"] = true
		}
	}
	for _, h := range op.Handlers {
		if h.HasData {
			names["readBody"] = true
			names["parseBody"] = true
		}
		if strings.Contains(h.Code, "isJsonLike(") {
			names["isJsonLike"] = true
		}
	}
	exprs := []string{op.Params.Validator.Expression}
	for _, ns := range op.InlineSchemas {
		exprs = append(exprs, ns.Schema.Expression)
	}
	for _, e := range exprs {
		if usesExactlyOne(e) {
			names["exactlyOne"] = true
		}
	}

	out := make([]string, 0, len(names))
	for n := range names {
		out = append(out, n)
	}
	sort.Strings(out)
	return out
}

// buildSignature returns the parameter list of the generated function
func buildSignature(op ir.Operation) []string {
	var parts []string
	if !op.Params.IsEmpty() {
		p := op.Params.Destructured + ": " + op.ParamsName
		if op.Params.PathOptional && op.Params.QueryOptional && op.Params.HeaderOptional {
			p += " = {}"
		}
		parts = append(parts, p)
	}
	if op.RequestBody != nil {
		if op.RequestBody.Required {
			parts = append(parts, "body: "+op.RequestBody.TypeScript)
		} else {
			parts = append(parts, "body?: "+op.RequestBody.TypeScript)
		}
	}
	return append(parts, "options: RequestOptions<"+op.Deserializers.Name+"> = {}")
}

// buildPathTemplate converts an OpenAPI path to a TypeScript template literal
// reading the destructured path group, e.g. `/pets/${encodeURIComponent(String(path.petId))}`
func buildPathTemplate(path string) string {
	var b strings.Builder
	b.WriteString("`")
	for i := 0; i < len(path); i++ {
		if path[i] == '{' {
			if j := strings.IndexByte(path[i:], '}'); j > 0 {
				name := path[i+1 : i+j]
				b.WriteString("${encodeURIComponent(String(")
				b.WriteString(accessor("path", name))
				b.WriteString("))}")
				i += j
				continue
			}
		}
		switch path[i] {
		case '`', '\\':
			b.WriteByte('\\')
		case '$':
			if i+1 < len(path) && path[i+1] == '{' {
				b.WriteByte('\\')
			}
		}
		b.WriteByte(path[i])
	}
	b.WriteString("`")
	return b.String()
}

// accessor reads a property of obj, using bracket notation for non-identifiers
func accessor(obj, name string) string {
	key := zod.PropertyKey(name)
	if key == name {
		return obj + "." + name
	}
	return obj + "[" + key + "]"
}

// usesExactlyOne reports whether an expression needs the exclusive-union helper
func usesExactlyOne(expression string) bool {
	return strings.Contains(expression, "exactlyOne(")
}

// jsdoc renders a doc block followed by a newline, or nothing when there is nothing to say
func jsdoc(title, description string, deprecated bool, indent string) string {
	var lines []string
	if title != "" {
		lines = append(lines, title)
	}
	if description != "" {
		if len(lines) > 0 {
			lines = append(lines, "")
		}
		lines = append(lines, strings.Split(strings.TrimSpace(description), "\n")...)
	}
	if deprecated {
		lines = append(lines, "@deprecated")
	}
	if len(lines) == 0 {
		return ""
	}
	var b strings.Builder
	b.WriteString(indent + "/**\n")
	for _, l := range lines {
		l = strings.ReplaceAll(l, "*/", "*\\/")
		if l == "" {
			b.WriteString(indent + " *\n")
		} else {
			b.WriteString(indent + " * " + l + "\n")
		}
	}
	b.WriteString(indent + " */\n")
	return b.String()
}

// jsString renders s as a double-quoted string literal
func jsString(s string) string {
	return zod.ValueLiteral(s)
}
