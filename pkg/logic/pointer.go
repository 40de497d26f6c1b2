package logic

import (
	"fmt"
	"regexp"
	"strings"
)

// InvalidPointerError is returned when a pointer string violates the grammar.
type InvalidPointerError struct {
	Input  string
	Reason string
}

func (e *InvalidPointerError) Error() string {
	return fmt.Sprintf("invalid pointer %q: %s", e.Input, e.Reason)
}

// Segment is one access step of a Pointer. It is a closed union:
// KeySegment, IndexSegment, or PointerSegment.
type Segment interface {
	isSegment()
}

// KeySegment accesses a mapping by string key.
type KeySegment string

// IndexSegment accesses a sequence by non-negative index.
type IndexSegment int

// PointerSegment is an indirect segment whose key or index is the value of
// another pointer, e.g. the "n" in "items[n]".
type PointerSegment struct {
	Pointer Pointer
}

func (KeySegment) isSegment()     {}
func (IndexSegment) isSegment()   {}
func (PointerSegment) isSegment() {}

// Pointer is a parsed path into a nested structure. It is used both to read
// a value and to produce a structurally-shared copy with the value replaced.
// A Pointer is immutable after construction.
type Pointer struct {
	Name     string
	Segments []Segment
}

var identifierRe = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

// String returns the canonical text form. The result parses back to an
// equal pointer.
func (p Pointer) String() string {
	var b strings.Builder
	b.WriteString(p.Name)
	for _, seg := range p.Segments {
		switch s := seg.(type) {
		case KeySegment:
			if identifierRe.MatchString(string(s)) {
				b.WriteByte('.')
				b.WriteString(string(s))
			} else {
				b.WriteByte('[')
				b.WriteString(quoteKey(string(s)))
				b.WriteByte(']')
			}
		case IndexSegment:
			fmt.Fprintf(&b, "[%d]", int(s))
		case PointerSegment:
			b.WriteByte('[')
			b.WriteString(s.Pointer.String())
			b.WriteByte(']')
		}
	}
	return b.String()
}

func quoteKey(s string) string {
	escaped := strings.ReplaceAll(s, `\`, `\\`)
	escaped = strings.ReplaceAll(escaped, `"`, `\"`)
	return `"` + escaped + `"`
}

// Path returns the access path as a slice of string keys, int indexes, and
// Pointer values for indirect segments.
func (p Pointer) Path() Path {
	path := make(Path, 0, len(p.Segments)+1)
	path = append(path, p.Name)
	for _, seg := range p.Segments {
		switch s := seg.(type) {
		case KeySegment:
			path = append(path, string(s))
		case IndexSegment:
			path = append(path, int(s))
		case PointerSegment:
			path = append(path, s.Pointer)
		}
	}
	return path
}

// Indirect reports whether any segment is itself a pointer, meaning the
// concrete path depends on the evaluation context.
func (p Pointer) Indirect() bool {
	for _, seg := range p.Segments {
		if _, ok := seg.(PointerSegment); ok {
			return true
		}
	}
	return false
}

// Resolve replaces indirect segments with their evaluated values, yielding
// a pointer whose path is fully concrete for the given context.
func (p Pointer) Resolve(context map[string]any) (Pointer, error) {
	if !p.Indirect() {
		return p, nil
	}
	out := Pointer{Name: p.Name, Segments: make([]Segment, len(p.Segments))}
	for i, seg := range p.Segments {
		ps, ok := seg.(PointerSegment)
		if !ok {
			out.Segments[i] = seg
			continue
		}
		v, err := ps.Pointer.Evaluate(context)
		if err != nil {
			return Pointer{}, err
		}
		switch val := Unwrap(v).(type) {
		case string:
			out.Segments[i] = KeySegment(val)
		case int:
			out.Segments[i] = IndexSegment(val)
		case float64:
			out.Segments[i] = IndexSegment(int(val))
		default:
			return Pointer{}, fmt.Errorf("pointer segment %q must resolve to a string or integer", ps.Pointer.String())
		}
	}
	return out, nil
}

// Evaluate looks up the pointer's value in context. A missing key or index
// returns a *LookupError carrying the path traversed so far. The returned
// value is proxy-wrapped if it is a mapping or sequence.
func (p Pointer) Evaluate(context map[string]any) (any, error) {
	var cur any = ObjectProxy{Target: context}
	var curPath Path
	for _, elem := range p.Path() {
		key, err := resolveSegmentValue(elem, context)
		if err != nil {
			return nil, err
		}
		switch o := cur.(type) {
		case ObjectProxy:
			k, ok := key.(string)
			if !ok {
				return nil, &LookupError{Key: key, Path: curPath}
			}
			cur, err = o.Get(k)
		case ArrayProxy:
			i, ok := key.(int)
			if !ok {
				return nil, &LookupError{Key: key, Path: curPath}
			}
			cur, err = o.Get(i)
		default:
			return nil, &LookupError{Key: key, Path: curPath}
		}
		if err != nil {
			return nil, err
		}
		curPath = append(curPath[:len(curPath):len(curPath)], key)
	}
	return cur, nil
}

// resolveSegmentValue turns a path element into a concrete key or index,
// evaluating indirect pointer segments against the root context.
func resolveSegmentValue(elem any, context map[string]any) (any, error) {
	ptr, ok := elem.(Pointer)
	if !ok {
		return elem, nil
	}
	v, err := ptr.Evaluate(context)
	if err != nil {
		return nil, err
	}
	switch val := Unwrap(v).(type) {
	case string:
		return val, nil
	case int:
		return val, nil
	case float64:
		return int(val), nil
	default:
		return nil, fmt.Errorf("pointer %s: index expression must be string or integer, got %T", ptr, val)
	}
}

// Set returns a new context with the pointer's target replaced by value.
// Every mapping or sequence on the path to the target is copied; siblings
// are shared with the original. A missing non-terminal segment is a
// *LookupError, so a caller can resolve the parent value first; only the
// final segment may introduce a new entry. It fails if a non-terminal
// segment resolves to a type incompatible with the next segment's kind.
func (p Pointer) Set(context map[string]any, value any) (map[string]any, error) {
	path := p.Path()
	resolved := make([]any, len(path))
	for i, elem := range path {
		key, err := resolveSegmentValue(elem, context)
		if err != nil {
			return nil, err
		}
		resolved[i] = key
	}
	updated, err := setAtPath(any(context), nil, resolved, value)
	if err != nil {
		return nil, err
	}
	m, ok := updated.(map[string]any)
	if !ok {
		return nil, fmt.Errorf("pointer %s: root is not a mapping", p)
	}
	return m, nil
}

func setAtPath(obj any, done Path, path []any, value any) (any, error) {
	if len(path) == 0 {
		return Unwrap(value), nil
	}
	key := path[0]
	switch o := Unwrap(obj).(type) {
	case map[string]any:
		k, ok := key.(string)
		if !ok {
			return nil, fmt.Errorf("cannot use index %v as a mapping key", key)
		}
		child, exists := o[k]
		if !exists && len(path) > 1 {
			return nil, &LookupError{Key: k, Path: done}
		}
		updated, err := setAtPath(child, appendPath(done, k), path[1:], value)
		if err != nil {
			return nil, err
		}
		copied := make(map[string]any, len(o)+1)
		for mk, mv := range o {
			copied[mk] = mv
		}
		copied[k] = updated
		return copied, nil
	case []any:
		i, ok := key.(int)
		if !ok {
			return nil, fmt.Errorf("cannot use key %v as a sequence index", key)
		}
		if i < 0 || (i >= len(o) && len(path) > 1) {
			return nil, &LookupError{Key: i, Path: done}
		}
		var child any
		if i < len(o) {
			child = o[i]
		}
		updated, err := setAtPath(child, appendPath(done, i), path[1:], value)
		if err != nil {
			return nil, err
		}
		copied := make([]any, len(o), len(o)+1)
		copy(copied, o)
		if i < len(o) {
			copied[i] = updated
		} else {
			// an index at or past the end appends
			copied = append(copied, updated)
		}
		return copied, nil
	default:
		return nil, fmt.Errorf("cannot descend into %T with segment %v", obj, key)
	}
}

func appendPath(p Path, elem any) Path {
	return append(p[:len(p):len(p)], elem)
}

// pointer parser

type pointerParser struct {
	input string
	pos   int
}

// Parse parses a pointer string. The grammar is
// name ('.' name | '[' (int | quoted-string | pointer) ']')* with optional
// space around the whole pointer and inside brackets. Violations return an
// *InvalidPointerError.
func Parse(s string) (Pointer, error) {
	p := &pointerParser{input: s}
	p.skipSpace()
	ptr, err := p.parsePointer()
	if err != nil {
		return Pointer{}, err
	}
	p.skipSpace()
	if p.pos != len(p.input) {
		return Pointer{}, p.fail("unexpected trailing input")
	}
	return ptr, nil
}

// MustParse is a test and document-literal helper; it panics on error.
func MustParse(s string) Pointer {
	ptr, err := Parse(s)
	if err != nil {
		panic(err)
	}
	return ptr
}

func (p *pointerParser) fail(reason string) error {
	return &InvalidPointerError{Input: p.input, Reason: reason}
}

func (p *pointerParser) skipSpace() {
	for p.pos < len(p.input) && (p.input[p.pos] == ' ' || p.input[p.pos] == '\t') {
		p.pos++
	}
}

func (p *pointerParser) peek() byte {
	if p.pos < len(p.input) {
		return p.input[p.pos]
	}
	return 0
}

func (p *pointerParser) parsePointer() (Pointer, error) {
	name, err := p.parseName()
	if err != nil {
		return Pointer{}, err
	}
	ptr := Pointer{Name: name}
	for {
		switch p.peek() {
		case '.':
			p.pos++
			seg, err := p.parseName()
			if err != nil {
				return Pointer{}, err
			}
			ptr.Segments = append(ptr.Segments, KeySegment(seg))
		case '[':
			p.pos++
			seg, err := p.parseBracket()
			if err != nil {
				return Pointer{}, err
			}
			ptr.Segments = append(ptr.Segments, seg)
		default:
			return ptr, nil
		}
	}
}

func (p *pointerParser) parseName() (string, error) {
	start := p.pos
	if p.pos >= len(p.input) || !isNameStart(p.input[p.pos]) {
		return "", p.fail("expected a name")
	}
	for p.pos < len(p.input) && isNameChar(p.input[p.pos]) {
		p.pos++
	}
	return p.input[start:p.pos], nil
}

func (p *pointerParser) parseBracket() (Segment, error) {
	p.skipSpace()
	var seg Segment
	switch {
	case p.peek() == '"':
		key, err := p.parseQuoted()
		if err != nil {
			return nil, err
		}
		seg = KeySegment(key)
	case p.peek() >= '0' && p.peek() <= '9':
		idx, err := p.parseNumber()
		if err != nil {
			return nil, err
		}
		seg = IndexSegment(idx)
	case isNameStart(p.peek()):
		inner, err := p.parsePointer()
		if err != nil {
			return nil, err
		}
		seg = PointerSegment{Pointer: inner}
	default:
		return nil, p.fail("expected an index, quoted key, or pointer in brackets")
	}
	p.skipSpace()
	if p.peek() != ']' {
		return nil, p.fail("expected closing bracket")
	}
	p.pos++
	return seg, nil
}

func (p *pointerParser) parseNumber() (int, error) {
	start := p.pos
	for p.pos < len(p.input) && p.input[p.pos] >= '0' && p.input[p.pos] <= '9' {
		p.pos++
	}
	text := p.input[start:p.pos]
	if len(text) > 1 && text[0] == '0' {
		return 0, p.fail("leading zeros are not allowed")
	}
	n := 0
	for _, c := range text {
		n = n*10 + int(c-'0')
	}
	return n, nil
}

func (p *pointerParser) parseQuoted() (string, error) {
	p.pos++ // opening quote
	var b strings.Builder
	for p.pos < len(p.input) {
		c := p.input[p.pos]
		switch c {
		case '"':
			p.pos++
			return b.String(), nil
		case '\\':
			p.pos++
			if p.pos >= len(p.input) {
				return "", p.fail("unterminated escape")
			}
			b.WriteByte(p.input[p.pos])
			p.pos++
		default:
			b.WriteByte(c)
			p.pos++
		}
	}
	return "", p.fail("unterminated quoted key")
}

func isNameStart(c byte) bool {
	return c == '_' || (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z')
}

func isNameChar(c byte) bool {
	return isNameStart(c) || (c >= '0' && c <= '9')
}
