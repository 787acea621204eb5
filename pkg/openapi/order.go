package openapi

import (
	"sort"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

// Order records the declaration order of every mapping in a document, keyed by JSON pointer.
type Order struct {
	keys map[string][]string
}

// EmptyOrder returns an index that knows no mapping; lookups fall back to sorted keys.
func EmptyOrder() *Order {
	return &Order{keys: map[string][]string{}}
}

// BuildOrder indexes data, which may be YAML or JSON.
func BuildOrder(data []byte) (*Order, error) {
	var root yaml.Node
	if err := yaml.Unmarshal(data, &root); err != nil {
		return nil, err
	}
	o := EmptyOrder()
	if len(root.Content) > 0 {
		o.index("", root.Content[0])
	}
	return o, nil
}

func (o *Order) index(ptr string, n *yaml.Node) {
	switch n.Kind {
	case yaml.MappingNode:
		keys := make([]string, 0, len(n.Content)/2)
		for i := 0; i+1 < len(n.Content); i += 2 {
			k := n.Content[i].Value
			keys = append(keys, k)
			o.index(ptr+"/"+EscapePointer(k), n.Content[i+1])
		}
		o.keys[ptr] = keys
	case yaml.SequenceNode:
		for i, c := range n.Content {
			o.index(ptr+"/"+strconv.Itoa(i), c)
		}
	case yaml.AliasNode:
		if n.Alias != nil {
			o.index(ptr, n.Alias)
		}
	}
}

// Keys returns the keys of the mapping at ptr in declaration order.
func (o *Order) Keys(ptr string) ([]string, bool) {
	if o == nil {
		return nil, false
	}
	k, ok := o.keys[ptr]
	return k, ok
}

// Sort orders present (the keys of a decoded map) by declaration order at ptr.
// Keys the index does not know are appended in sorted order.
func (o *Order) Sort(ptr string, present []string) []string {
	set := make(map[string]bool, len(present))
	for _, k := range present {
		set[k] = true
	}
	out := make([]string, 0, len(present))
	if declared, ok := o.Keys(ptr); ok {
		for _, k := range declared {
			if set[k] {
				out = append(out, k)
				delete(set, k)
			}
		}
	}
	rest := make([]string, 0, len(set))
	for k := range set {
		rest = append(rest, k)
	}
	sort.Strings(rest)
	return append(out, rest...)
}

// EscapePointer escapes one JSON pointer reference token.
func EscapePointer(token string) string {
	token = strings.ReplaceAll(token, "~", "~0")
	return strings.ReplaceAll(token, "/", "~1")
}

// UnescapePointer reverses EscapePointer.
func UnescapePointer(token string) string {
	token = strings.ReplaceAll(token, "~1", "/")
	return strings.ReplaceAll(token, "~0", "~")
}

// Pointer joins tokens into a JSON pointer, escaping each.
func Pointer(tokens ...string) string {
	var b strings.Builder
	for _, t := range tokens {
		b.WriteByte('/')
		b.WriteString(EscapePointer(t))
	}
	return b.String()
}
