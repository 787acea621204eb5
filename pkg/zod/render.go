package zod

import (
	"regexp"
	"strconv"
	"strings"

	json "github.com/goccy/go-json"
)

var identRe = regexp.MustCompile(`^[A-Za-z_$][A-Za-z0-9_$]*$`)

// formatBases maps recognized string formats to their specialized constructors.
var formatBases = map[string]string{
	FormatEmail:    "z.email()",
	FormatUUID:     "z.uuid()",
	FormatURI:      "z.url()",
	FormatDate:     "z.iso.date()",
	FormatDateTime: "z.iso.datetime()",
	FormatTime:     "z.iso.time()",
	FormatDuration: "z.iso.duration()",
}

// HasFormatBase reports whether format selects a specialized string base.
func HasFormatBase(format string) bool {
	_, ok := formatBases[format]
	return ok
}

// String renders e as a zod expression.
func (e *Expr) String() string {
	var b strings.Builder
	e.render(&b)
	return b.String()
}

func (e *Expr) render(b *strings.Builder) {
	if e == nil {
		b.WriteString("z.unknown()")
		return
	}
	switch e.Kind {
	case KindRef:
		b.WriteString(e.Ref)
	case KindString:
		if base, ok := formatBases[e.Format]; ok {
			b.WriteString(base)
		} else {
			b.WriteString("z.string()")
		}
		renderChecks(b, e.Checks)
	case KindNumber:
		b.WriteString("z.number()")
		renderChecks(b, e.Checks)
	case KindBoolean:
		b.WriteString("z.boolean()")
	case KindBinary:
		b.WriteString("z.instanceof(Blob)")
	case KindArray:
		b.WriteString("z.array(")
		e.Items.render(b)
		b.WriteString(")")
		renderChecks(b, e.Checks)
	case KindObject:
		renderObject(b, e)
	case KindEnum:
		b.WriteString("z.enum(")
		renderValues(b, e.Values)
		b.WriteString(")")
	case KindLiteral:
		b.WriteString("z.literal(")
		if len(e.Values) > 0 {
			b.WriteString(ValueLiteral(e.Values[0]))
		}
		b.WriteString(")")
	case KindOpenEnum:
		b.WriteString("z.union([z.enum(")
		renderValues(b, e.Values)
		b.WriteString("), z.string()])")
	case KindNullable:
		e.Inner.render(b)
		b.WriteString(".nullable()")
	case KindUnion:
		b.WriteString("z.union(")
		renderList(b, e.Members)
		b.WriteString(")")
	case KindExclusive:
		b.WriteString("z.union(")
		renderList(b, e.Members)
		b.WriteString(").superRefine(exactlyOne(")
		renderList(b, e.Members)
		b.WriteString("))")
	case KindIntersection:
		b.WriteString("z.intersection(")
		e.Members[0].render(b)
		b.WriteString(", ")
		e.Members[1].render(b)
		b.WriteString(")")
	case KindDiscriminate:
		b.WriteString("z.discriminatedUnion(")
		b.WriteString(quote(e.Discriminator))
		b.WriteString(", ")
		renderList(b, e.Members)
		b.WriteString(")")
	default:
		b.WriteString("z.unknown()")
	}
	if e.Default != nil {
		b.WriteString(".default(")
		b.WriteString(e.Default.Literal)
		b.WriteString(")")
	}
}

func renderObject(b *strings.Builder, e *Expr) {
	if len(e.Fields) == 0 {
		b.WriteString("z.object({})")
	} else {
		b.WriteString("z.object({ ")
		for i, f := range e.Fields {
			if i > 0 {
				b.WriteString(", ")
			}
			b.WriteString(PropertyKey(f.Name))
			b.WriteString(": ")
			f.Type.render(b)
			if f.Optional {
				b.WriteString(".optional()")
			}
		}
		b.WriteString(" })")
	}
	if e.Catchall != nil {
		b.WriteString(".catchall(")
		e.Catchall.render(b)
		b.WriteString(")")
	}
}

func renderChecks(b *strings.Builder, checks []Check) {
	for _, c := range checks {
		switch c.Kind {
		case CheckMinLength, CheckMinItems:
			b.WriteString(".min(" + Number(c.Value) + ")")
		case CheckMaxLength, CheckMaxItems:
			b.WriteString(".max(" + Number(c.Value) + ")")
		case CheckPattern:
			b.WriteString(".regex(" + RegexLiteral(c.Pattern) + ")")
		case CheckInt:
			b.WriteString(".int()")
		case CheckGte:
			b.WriteString(".gte(" + Number(c.Value) + ")")
		case CheckGt:
			b.WriteString(".gt(" + Number(c.Value) + ")")
		case CheckLte:
			b.WriteString(".lte(" + Number(c.Value) + ")")
		case CheckLt:
			b.WriteString(".lt(" + Number(c.Value) + ")")
		}
	}
}

func renderList(b *strings.Builder, members []*Expr) {
	b.WriteString("[")
	for i, m := range members {
		if i > 0 {
			b.WriteString(", ")
		}
		m.render(b)
	}
	b.WriteString("]")
}

func renderValues(b *strings.Builder, values []any) {
	b.WriteString("[")
	for i, v := range values {
		if i > 0 {
			b.WriteString(", ")
		}
		b.WriteString(ValueLiteral(v))
	}
	b.WriteString("]")
}

// ValueLiteral renders v using its native literal syntax: quoted strings, bare
// numbers and booleans, JSON for arrays and objects.
func ValueLiteral(v any) string {
	switch t := v.(type) {
	case nil:
		return "null"
	case string:
		return quote(t)
	case bool:
		return strconv.FormatBool(t)
	case float64:
		return Number(t)
	case float32:
		return Number(float64(t))
	case int:
		return strconv.Itoa(t)
	case int64:
		return strconv.FormatInt(t, 10)
	}
	data, err := json.MarshalNoEscape(v)
	if err != nil {
		return "undefined"
	}
	return string(data)
}

// Number renders a float without exponent or trailing zeros.
func Number(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}

// PropertyKey returns name as an object key, quoting it when it is not a bare identifier.
func PropertyKey(name string) string {
	if identRe.MatchString(name) {
		return name
	}
	return quote(name)
}

// RegexLiteral renders pattern as a JavaScript regex literal.
func RegexLiteral(pattern string) string {
	var b strings.Builder
	b.WriteByte('/')
	escaped := false
	for _, r := range pattern {
		switch {
		case escaped:
			escaped = false
		case r == '\\':
			escaped = true
		case r == '/':
			b.WriteByte('\\')
		case r == '\n':
			b.WriteString(`\n`)
			continue
		}
		b.WriteRune(r)
	}
	b.WriteByte('/')
	return b.String()
}

func quote(s string) string {
	data, err := json.MarshalNoEscape(s)
	if err != nil {
		return strconv.Quote(s)
	}
	return string(data)
}
