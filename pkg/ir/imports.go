package ir

import "sort"

// Imports is a merge-only set of symbolic component names.
// Values are never mutated after construction; Union returns a fresh set.
type Imports map[string]struct{}

// NewImports builds a set from names.
func NewImports(names ...string) Imports {
	out := make(Imports, len(names))
	for _, n := range names {
		if n != "" {
			out[n] = struct{}{}
		}
	}
	return out
}

// Union returns a new set holding every name of s and others.
func (s Imports) Union(others ...Imports) Imports {
	out := make(Imports, len(s))
	for n := range s {
		out[n] = struct{}{}
	}
	for _, o := range others {
		for n := range o {
			out[n] = struct{}{}
		}
	}
	return out
}

// Without returns a new set minus names.
func (s Imports) Without(names ...string) Imports {
	out := s.Union()
	for _, n := range names {
		delete(out, n)
	}
	return out
}

// Has reports whether name is in the set.
func (s Imports) Has(name string) bool {
	_, ok := s[name]
	return ok
}

// Sorted lists the names alphabetically.
func (s Imports) Sorted() []string {
	out := make([]string, 0, len(s))
	for n := range s {
		out = append(out, n)
	}
	sort.Strings(out)
	return out
}
