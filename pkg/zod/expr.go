// Package zod models validator construction expressions as a small AST.
//
// The schema compiler builds an Expr tree; String renders it as a zod (v4)
// TypeScript expression, and the validate package projects the very same tree
// to JSON Schema so the emitted validator can be exercised from Go.
package zod

// Kind identifies the combinator or base type of an expression node.
type Kind string

const (
	KindUnknown      Kind = "unknown"
	KindRef          Kind = "ref"
	KindString       Kind = "string"
	KindNumber       Kind = "number"
	KindBoolean      Kind = "boolean"
	KindBinary       Kind = "binary"
	KindArray        Kind = "array"
	KindObject       Kind = "object"
	KindEnum         Kind = "enum"
	KindLiteral      Kind = "literal"
	KindOpenEnum     Kind = "openEnum"
	KindNullable     Kind = "nullable"
	KindUnion        Kind = "union"
	KindExclusive    Kind = "exclusiveUnion"
	KindIntersection Kind = "intersection"
	KindDiscriminate Kind = "discriminatedUnion"
)

// Formats with a dedicated base expression.
const (
	FormatEmail    = "email"
	FormatUUID     = "uuid"
	FormatURI      = "uri"
	FormatDate     = "date"
	FormatDateTime = "date-time"
	FormatTime     = "time"
	FormatDuration = "duration"
)

// CheckKind is a constraint suffix applied to a base expression.
type CheckKind string

const (
	CheckMinLength CheckKind = "minLength"
	CheckMaxLength CheckKind = "maxLength"
	CheckPattern   CheckKind = "pattern"
	CheckGte       CheckKind = "gte"
	CheckGt        CheckKind = "gt"
	CheckLte       CheckKind = "lte"
	CheckLt        CheckKind = "lt"
	CheckInt       CheckKind = "int"
	CheckMinItems  CheckKind = "minItems"
	CheckMaxItems  CheckKind = "maxItems"
)

// Check is one constraint suffix. Value carries bounds, Pattern the regex source.
type Check struct {
	Kind    CheckKind
	Value   float64
	Pattern string
}

// Field is an object member.
type Field struct {
	Name     string
	Type     *Expr
	Optional bool
}

// Default holds a default value; Literal is its rendered source form.
type Default struct {
	Value   any
	Literal string
}

// Expr is one node of a validator expression.
type Expr struct {
	Kind Kind

	// Ref is the symbolic component name for KindRef.
	Ref string

	// Format selects a specialized string base.
	Format string
	Checks []Check

	Items *Expr

	Fields   []Field
	Catchall *Expr

	// Values holds enum and literal members in wire representation.
	Values []any

	Members       []*Expr
	Discriminator string

	Inner *Expr

	Default *Default

	// Ignored lists recognized keywords the expression cannot represent.
	Ignored []string
}

// Unknown returns the fallback expression.
func Unknown() *Expr { return &Expr{Kind: KindUnknown} }

// Ref returns a named reference to a component schema.
func Ref(name string) *Expr { return &Expr{Kind: KindRef, Ref: name} }

// Nullable wraps inner so it also accepts null.
func Nullable(inner *Expr) *Expr { return &Expr{Kind: KindNullable, Inner: inner} }

// Union accepts a value matching any member.
func Union(members ...*Expr) *Expr { return &Expr{Kind: KindUnion, Members: members} }

// ExclusiveUnion accepts a value matching exactly one member.
func ExclusiveUnion(members ...*Expr) *Expr { return &Expr{Kind: KindExclusive, Members: members} }

// Intersection requires both sides to hold.
func Intersection(left, right *Expr) *Expr {
	return &Expr{Kind: KindIntersection, Members: []*Expr{left, right}}
}

// DiscriminatedUnion selects a member by the value of property.
func DiscriminatedUnion(property string, members ...*Expr) *Expr {
	return &Expr{Kind: KindDiscriminate, Discriminator: property, Members: members}
}

// Enum is a closed set of literal values.
func Enum(values ...any) *Expr { return &Expr{Kind: KindEnum, Values: values} }

// Literal is a single literal value.
func Literal(value any) *Expr { return &Expr{Kind: KindLiteral, Values: []any{value}} }

// OpenEnum accepts the listed strings or any other string.
func OpenEnum(values ...any) *Expr { return &Expr{Kind: KindOpenEnum, Values: values} }

// IsOpen reports whether an object expression accepts undeclared keys with a typed catch-all.
func (e *Expr) IsOpen() bool { return e != nil && e.Kind == KindObject && e.Catchall != nil }

// Walk calls fn for e and every descendant, depth first.
func (e *Expr) Walk(fn func(*Expr)) {
	if e == nil {
		return
	}
	fn(e)
	e.Items.Walk(fn)
	for _, f := range e.Fields {
		f.Type.Walk(fn)
	}
	e.Catchall.Walk(fn)
	for _, m := range e.Members {
		m.Walk(fn)
	}
	e.Inner.Walk(fn)
}

// Refs returns the component names referenced anywhere in e, in first-seen order.
func (e *Expr) Refs() []string {
	var out []string
	seen := map[string]bool{}
	e.Walk(func(n *Expr) {
		if n.Kind == KindRef && !seen[n.Ref] {
			seen[n.Ref] = true
			out = append(out, n.Ref)
		}
	})
	return out
}
