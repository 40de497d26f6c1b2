package logic

import (
	"fmt"
	"sort"
	"strings"
)

// Path is the sequence of keys and indexes traversed to reach a value.
// Elements are string keys, int indexes, or Pointer values for indirect
// segments.
type Path []any

func (p Path) String() string {
	parts := make([]string, len(p))
	for i, elem := range p {
		parts[i] = fmt.Sprintf("%#v", elem)
	}
	return strings.Join(parts, " -> ")
}

// Pointer converts a literal path back into a Pointer. Non-string, non-int
// elements (nested pointers) become indirect segments.
func (p Path) Pointer() Pointer {
	if len(p) == 0 {
		return Pointer{}
	}
	name, _ := p[0].(string)
	ptr := Pointer{Name: name}
	for _, elem := range p[1:] {
		switch e := elem.(type) {
		case string:
			ptr.Segments = append(ptr.Segments, KeySegment(e))
		case int:
			ptr.Segments = append(ptr.Segments, IndexSegment(e))
		case Pointer:
			ptr.Segments = append(ptr.Segments, PointerSegment{Pointer: e})
		}
	}
	return ptr
}

// LookupError is a missing key or index, with the path traversed before the
// failure.
type LookupError struct {
	Key  any
	Path Path
}

func (e *LookupError) Error() string {
	full := append(append(Path{}, e.Path...), e.Key)
	return "lookup failed: " + full.String()
}

// FullPath returns the path including the missing key itself.
func (e *LookupError) FullPath() Path {
	return append(append(Path{}, e.Path...), e.Key)
}

// ObjectProxy wraps a mapping so lookups on it are pointer-tracked.
type ObjectProxy struct {
	Target map[string]any
	path   Path
}

// Get returns the proxied child value, or a *LookupError for a missing key.
func (p ObjectProxy) Get(key string) (any, error) {
	child, ok := p.Target[key]
	if !ok {
		return nil, &LookupError{Key: key, Path: p.path}
	}
	return MakeProxy(child, append(append(Path{}, p.path...), key)), nil
}

// Has reports whether the key exists without extending the path.
func (p ObjectProxy) Has(key string) bool {
	_, ok := p.Target[key]
	return ok
}

// Keys returns the mapping's keys in sorted order.
func (p ObjectProxy) Keys() []string {
	keys := make([]string, 0, len(p.Target))
	for k := range p.Target {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func (p ObjectProxy) Len() int { return len(p.Target) }

// ArrayProxy wraps a sequence so index lookups on it are pointer-tracked.
type ArrayProxy struct {
	Target []any
	path   Path
}

// Get returns the proxied element, or a *LookupError for an out-of-range
// index.
func (p ArrayProxy) Get(index int) (any, error) {
	if index < 0 || index >= len(p.Target) {
		return nil, &LookupError{Key: index, Path: p.path}
	}
	return MakeProxy(p.Target[index], append(append(Path{}, p.path...), index)), nil
}

func (p ArrayProxy) Len() int { return len(p.Target) }

// MakeProxy wraps mappings and sequences in path-tracking proxies. Scalars
// pass through unchanged.
func MakeProxy(v any, path Path) any {
	switch val := v.(type) {
	case map[string]any:
		return ObjectProxy{Target: val, path: path}
	case []any:
		return ArrayProxy{Target: val, path: path}
	case ObjectProxy:
		return ObjectProxy{Target: val.Target, path: path}
	case ArrayProxy:
		return ArrayProxy{Target: val.Target, path: path}
	default:
		return v
	}
}

// Unwrap removes a proxy wrapper, returning the underlying plain value.
func Unwrap(v any) any {
	switch val := v.(type) {
	case ObjectProxy:
		return val.Target
	case ArrayProxy:
		return val.Target
	case Undefined:
		return val
	default:
		return v
	}
}

// pathOf returns the tracked path of a proxied value, or nil.
func pathOf(v any) Path {
	switch val := v.(type) {
	case ObjectProxy:
		return val.path
	case ArrayProxy:
		return val.path
	default:
		return nil
	}
}

// Equal is proxy-aware structural equality: proxies compare equal to plain
// structures of equal contents, and integer and floating point numbers
// compare by value.
func Equal(a, b any) bool {
	a, b = Unwrap(a), Unwrap(b)
	if na, ok := toFloat(a); ok {
		nb, ok := toFloat(b)
		return ok && na == nb
	}
	switch av := a.(type) {
	case map[string]any:
		bv, ok := b.(map[string]any)
		if !ok || len(av) != len(bv) {
			return false
		}
		for k, v := range av {
			other, ok := bv[k]
			if !ok || !Equal(v, other) {
				return false
			}
		}
		return true
	case []any:
		bv, ok := b.([]any)
		if !ok || len(av) != len(bv) {
			return false
		}
		for i := range av {
			if !Equal(av[i], bv[i]) {
				return false
			}
		}
		return true
	default:
		return a == b
	}
}

func toFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	case float64:
		return n, true
	case float32:
		return float64(n), true
	default:
		return 0, false
	}
}
