package executor

import (
	"strconv"
	"strings"
)

// Path is an ordered response path: each element is a response-name (string)
// or a list index (int). It is never mutated in place — With always returns a
// new slice, so a Path handed to one resolver is never altered by a sibling's
// descent.
type Path []any

// With returns a new Path with elem appended, leaving p untouched.
func (p Path) With(elem any) Path {
	np := make(Path, len(p)+1)
	copy(np, p)
	np[len(p)] = elem
	return np
}

// String renders the path as "a.b[2].c" for error messages.
func (p Path) String() string {
	var b strings.Builder
	for i, elem := range p {
		switch v := elem.(type) {
		case string:
			if i > 0 {
				b.WriteByte('.')
			}
			b.WriteString(v)
		case int:
			b.WriteByte('[')
			b.WriteString(strconv.Itoa(v))
			b.WriteByte(']')
		}
	}
	return b.String()
}

// RootKey returns the first response-name segment of the path, i.e. the
// top-level field this path descends from.
func (p Path) RootKey() (string, bool) {
	for _, elem := range p {
		if s, ok := elem.(string); ok {
			return s, true
		}
	}
	return "", false
}
