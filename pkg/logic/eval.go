package logic

import (
	"fmt"
	"math"
	"strings"
	"time"
)

// Expression is a compiled, sandboxed expression. Evaluation has no side
// effects on the context. Compiled expressions are immutable and safe for
// concurrent use.
type Expression struct {
	Source string
	root   exprNode
}

// NewExpression compiles an expression source string.
func NewExpression(source string) (*Expression, error) {
	root, err := parseExpression(source)
	if err != nil {
		return nil, err
	}
	return &Expression{Source: source, root: root}, nil
}

// MustExpression compiles an expression, panicking on error. Intended for
// tests and hard-coded document literals.
func MustExpression(source string) *Expression {
	e, err := NewExpression(source)
	if err != nil {
		panic(err)
	}
	return e
}

// Evaluate runs the expression against a context. An unresolved name or
// member access yields an Undefined value rather than an error; the error
// surfaces only when the Undefined is used. Mapping and sequence results
// are returned proxy-wrapped.
func (e *Expression) Evaluate(context map[string]any) (any, error) {
	return evalNode(e.root, context)
}

// EvaluateStrict is Evaluate, but an Undefined result is forced into its
// error immediately.
func (e *Expression) EvaluateStrict(context map[string]any) (any, error) {
	v, err := e.Evaluate(context)
	if err != nil {
		return nil, err
	}
	if u, ok := v.(Undefined); ok {
		return nil, u.Err()
	}
	return v, nil
}

func (e *Expression) String() string { return e.Source }

func evalNode(node exprNode, ctx map[string]any) (any, error) {
	switch n := node.(type) {
	case literalNode:
		return n.value, nil
	case nameNode:
		v, ok := ctx[n.name]
		if !ok {
			return Undefined{Key: n.name}, nil
		}
		return MakeProxy(v, Path{n.name}), nil
	case attrNode:
		obj, err := evalNode(n.object, ctx)
		if err != nil {
			return nil, err
		}
		return member(obj, n.name)
	case indexNode:
		obj, err := evalNode(n.object, ctx)
		if err != nil {
			return nil, err
		}
		idx, err := evalNode(n.index, ctx)
		if err != nil {
			return nil, err
		}
		if u, ok := idx.(Undefined); ok {
			return nil, u.Err()
		}
		return member(obj, Unwrap(idx))
	case unaryNode:
		return evalUnary(n, ctx)
	case binaryNode:
		return evalBinary(n, ctx)
	case boolNode:
		return evalBool(n, ctx)
	case callNode:
		return evalCall(n, ctx)
	case listNode:
		items := make([]any, len(n.items))
		for i, item := range n.items {
			v, err := evalNode(item, ctx)
			if err != nil {
				return nil, err
			}
			if u, ok := v.(Undefined); ok {
				return nil, u.Err()
			}
			items[i] = Unwrap(v)
		}
		return MakeProxy(items, nil), nil
	default:
		return nil, fmt.Errorf("unhandled expression node %T", node)
	}
}

// member resolves obj.name / obj[key]. A missing member of a defined
// container becomes an Undefined placeholder carrying the container's
// tracked path; accessing a member of an Undefined fails immediately.
func member(obj any, key any) (any, error) {
	switch o := obj.(type) {
	case Undefined:
		return nil, o.Err()
	case ObjectProxy:
		k, ok := key.(string)
		if !ok {
			return nil, fmt.Errorf("mapping keys must be strings, got %T", key)
		}
		child, err := o.Get(k)
		if err != nil {
			return Undefined{Key: k, Path: o.path}, nil
		}
		return child, nil
	case ArrayProxy:
		i, ok := toIndexValue(key)
		if !ok {
			return nil, fmt.Errorf("sequence indexes must be integers, got %T", key)
		}
		child, err := o.Get(i)
		if err != nil {
			return Undefined{Key: i, Path: o.path}, nil
		}
		return child, nil
	case nil:
		return nil, fmt.Errorf("cannot access %v on null", key)
	default:
		return nil, fmt.Errorf("cannot access %v on %T", key, Unwrap(obj))
	}
}

func toIndexValue(v any) (int, bool) {
	switch n := v.(type) {
	case int:
		return n, true
	case float64:
		if n == math.Trunc(n) {
			return int(n), true
		}
		return 0, false
	default:
		return 0, false
	}
}

func evalUnary(n unaryNode, ctx map[string]any) (any, error) {
	v, err := evalNode(n.x, ctx)
	if err != nil {
		return nil, err
	}
	if u, ok := v.(Undefined); ok {
		return nil, u.Err()
	}
	switch n.op {
	case "not":
		return !Truthy(v), nil
	case "-":
		f, ok := toFloat(Unwrap(v))
		if !ok {
			return nil, fmt.Errorf("cannot negate %T", Unwrap(v))
		}
		return -f, nil
	default:
		return nil, fmt.Errorf("unhandled unary operator %q", n.op)
	}
}

func evalBinary(n binaryNode, ctx map[string]any) (any, error) {
	left, err := evalNode(n.l, ctx)
	if err != nil {
		return nil, err
	}
	if u, ok := left.(Undefined); ok {
		return nil, u.Err()
	}
	right, err := evalNode(n.r, ctx)
	if err != nil {
		return nil, err
	}
	if u, ok := right.(Undefined); ok {
		return nil, u.Err()
	}
	l, r := Unwrap(left), Unwrap(right)
	switch n.op {
	case "==":
		return Equal(l, r), nil
	case "!=":
		return !Equal(l, r), nil
	case "in":
		return containsValue(r, l)
	case "+":
		if ls, ok := l.(string); ok {
			rs, ok := r.(string)
			if !ok {
				return nil, fmt.Errorf("cannot concatenate string and %T", r)
			}
			return ls + rs, nil
		}
		return arith(n.op, l, r)
	case "-", "*", "/", "%":
		return arith(n.op, l, r)
	case "<", "<=", ">", ">=":
		return compare(n.op, l, r)
	default:
		return nil, fmt.Errorf("unhandled binary operator %q", n.op)
	}
}

func arith(op string, l, r any) (any, error) {
	lf, ok := toFloat(l)
	if !ok {
		return nil, fmt.Errorf("operator %q requires numbers, got %T", op, l)
	}
	rf, ok := toFloat(r)
	if !ok {
		return nil, fmt.Errorf("operator %q requires numbers, got %T", op, r)
	}
	switch op {
	case "+":
		return lf + rf, nil
	case "-":
		return lf - rf, nil
	case "*":
		return lf * rf, nil
	case "/":
		if rf == 0 {
			return nil, fmt.Errorf("division by zero")
		}
		return lf / rf, nil
	case "%":
		if rf == 0 {
			return nil, fmt.Errorf("division by zero")
		}
		return math.Mod(lf, rf), nil
	}
	return nil, fmt.Errorf("unhandled arithmetic operator %q", op)
}

func compare(op string, l, r any) (any, error) {
	if ls, ok := l.(string); ok {
		rs, ok := r.(string)
		if !ok {
			return nil, fmt.Errorf("cannot compare string and %T", r)
		}
		switch op {
		case "<":
			return ls < rs, nil
		case "<=":
			return ls <= rs, nil
		case ">":
			return ls > rs, nil
		case ">=":
			return ls >= rs, nil
		}
	}
	lf, ok := toFloat(l)
	if !ok {
		return nil, fmt.Errorf("operator %q requires comparable values, got %T", op, l)
	}
	rf, ok := toFloat(r)
	if !ok {
		return nil, fmt.Errorf("operator %q requires comparable values, got %T", op, r)
	}
	switch op {
	case "<":
		return lf < rf, nil
	case "<=":
		return lf <= rf, nil
	case ">":
		return lf > rf, nil
	case ">=":
		return lf >= rf, nil
	}
	return nil, fmt.Errorf("unhandled comparison operator %q", op)
}

func containsValue(container, item any) (any, error) {
	switch c := container.(type) {
	case string:
		s, ok := item.(string)
		if !ok {
			return nil, fmt.Errorf("'in' on a string requires a string operand")
		}
		return strings.Contains(c, s), nil
	case []any:
		for _, v := range c {
			if Equal(v, item) {
				return true, nil
			}
		}
		return false, nil
	case map[string]any:
		k, ok := item.(string)
		if !ok {
			return false, nil
		}
		_, exists := c[k]
		return exists, nil
	default:
		return nil, fmt.Errorf("'in' requires a string, sequence, or mapping, got %T", container)
	}
}

func evalBool(n boolNode, ctx map[string]any) (any, error) {
	// short-circuit; the last evaluated operand is the result, like the
	// source expression language
	var last any
	for _, item := range n.items {
		v, err := evalNode(item, ctx)
		if err != nil {
			return nil, err
		}
		if u, ok := v.(Undefined); ok {
			return nil, u.Err()
		}
		last = v
		t := Truthy(v)
		if n.op == "and" && !t {
			return v, nil
		}
		if n.op == "or" && t {
			return v, nil
		}
	}
	return last, nil
}

func evalCall(n callNode, ctx map[string]any) (any, error) {
	switch n.name {
	case "now":
		if len(n.args) != 0 {
			return nil, fmt.Errorf("now() takes no arguments")
		}
		return time.Now().Format(time.RFC3339), nil
	case "len":
		if len(n.args) != 1 {
			return nil, fmt.Errorf("len() takes one argument")
		}
		v, err := evalNode(n.args[0], ctx)
		if err != nil {
			return nil, err
		}
		if u, ok := v.(Undefined); ok {
			return nil, u.Err()
		}
		switch val := Unwrap(v).(type) {
		case string:
			return float64(len(val)), nil
		case []any:
			return float64(len(val)), nil
		case map[string]any:
			return float64(len(val)), nil
		default:
			return nil, fmt.Errorf("len() requires a string, sequence, or mapping, got %T", val)
		}
	case "range":
		if len(n.args) != 1 {
			return nil, fmt.Errorf("range() takes one argument")
		}
		v, err := evalNode(n.args[0], ctx)
		if err != nil {
			return nil, err
		}
		if u, ok := v.(Undefined); ok {
			return nil, u.Err()
		}
		count, ok := toFloat(Unwrap(v))
		if !ok || count != math.Trunc(count) || count < 0 {
			return nil, fmt.Errorf("range() requires a non-negative integer, got %v", Unwrap(v))
		}
		items := make([]any, int(count))
		for i := range items {
			items[i] = float64(i)
		}
		return items, nil
	case "default":
		if len(n.args) != 2 {
			return nil, fmt.Errorf("default() takes two arguments")
		}
		v, err := evalNode(n.args[0], ctx)
		if err != nil {
			return nil, err
		}
		if _, ok := v.(Undefined); ok || v == nil {
			return evalNode(n.args[1], ctx)
		}
		return v, nil
	default:
		return nil, fmt.Errorf("unknown function %q", n.name)
	}
}

// Truthy applies the expression language's truth rules: nil, false, zero,
// empty strings, and empty collections are false. Everything else is true.
func Truthy(v any) bool {
	switch val := Unwrap(v).(type) {
	case nil:
		return false
	case bool:
		return val
	case string:
		return val != ""
	case []any:
		return len(val) > 0
	case map[string]any:
		return len(val) > 0
	default:
		if f, ok := toFloat(val); ok {
			return f != 0
		}
		return true
	}
}
