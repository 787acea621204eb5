package zod

import "strings"

// TypeScript renders the input type accepted by e. It is the static
// counterpart of String: a field with a default may be omitted.
func (e *Expr) TypeScript() string {
	var b strings.Builder
	e.typeScript(&b)
	return b.String()
}

func (e *Expr) typeScript(b *strings.Builder) {
	if e == nil {
		b.WriteString("unknown")
		return
	}
	switch e.Kind {
	case KindRef:
		b.WriteString(e.Ref)
	case KindString:
		b.WriteString("string")
	case KindNumber:
		b.WriteString("number")
	case KindBoolean:
		b.WriteString("boolean")
	case KindBinary:
		b.WriteString("Blob")
	case KindArray:
		b.WriteString("Array<")
		e.Items.typeScript(b)
		b.WriteString(">")
	case KindObject:
		typeScriptObject(b, e)
	case KindEnum, KindLiteral:
		for i, v := range e.Values {
			if i > 0 {
				b.WriteString(" | ")
			}
			b.WriteString(ValueLiteral(v))
		}
	case KindOpenEnum:
		for _, v := range e.Values {
			b.WriteString(ValueLiteral(v))
			b.WriteString(" | ")
		}
		b.WriteString("(string & {})")
	case KindNullable:
		b.WriteString("(")
		e.Inner.typeScript(b)
		b.WriteString(") | null")
	case KindUnion, KindExclusive, KindDiscriminate:
		joinTypes(b, e.Members, " | ")
	case KindIntersection:
		joinTypes(b, e.Members, " & ")
	default:
		b.WriteString("unknown")
	}
}

func typeScriptObject(b *strings.Builder, e *Expr) {
	if len(e.Fields) == 0 {
		if e.Catchall != nil {
			b.WriteString("Record<string, ")
			e.Catchall.typeScript(b)
			b.WriteString(">")
			return
		}
		b.WriteString("{}")
		return
	}
	if e.Catchall != nil {
		b.WriteString("(")
	}
	b.WriteString("{ ")
	for i, f := range e.Fields {
		if i > 0 {
			b.WriteString("; ")
		}
		b.WriteString(PropertyKey(f.Name))
		if f.Optional || (f.Type != nil && f.Type.Default != nil) {
			b.WriteString("?")
		}
		b.WriteString(": ")
		f.Type.typeScript(b)
	}
	b.WriteString(" }")
	if e.Catchall != nil {
		b.WriteString(" & Record<string, ")
		e.Catchall.typeScript(b)
		b.WriteString(">)")
	}
}

func joinTypes(b *strings.Builder, members []*Expr, sep string) {
	b.WriteString("(")
	for i, m := range members {
		if i > 0 {
			b.WriteString(sep)
		}
		m.typeScript(b)
	}
	b.WriteString(")")
}
