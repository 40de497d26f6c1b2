package logic

import (
	"fmt"
)

// Evaluable is a value that can be evaluated against a template context.
type Evaluable interface {
	Evaluate(context map[string]any) (any, error)
}

// literalValue is a constant Evaluable.
type literalValue struct {
	value any
}

func (l literalValue) Evaluate(map[string]any) (any, error) { return l.value, nil }

// andGroup evaluates to true when every item is truthy.
type andGroup struct {
	items []Evaluable
}

func (g andGroup) Evaluate(ctx map[string]any) (any, error) {
	for _, item := range g.items {
		v, err := item.Evaluate(ctx)
		if err != nil {
			return nil, err
		}
		if u, ok := v.(Undefined); ok {
			return nil, u.Err()
		}
		if !Truthy(v) {
			return false, nil
		}
	}
	return true, nil
}

// orGroup evaluates to true when any item is truthy.
type orGroup struct {
	items []Evaluable
}

func (g orGroup) Evaluate(ctx map[string]any) (any, error) {
	for _, item := range g.items {
		v, err := item.Evaluate(ctx)
		if err != nil {
			return nil, err
		}
		if u, ok := v.(Undefined); ok {
			return nil, u.Err()
		}
		if Truthy(v) {
			return true, nil
		}
	}
	return false, nil
}

// When is a step or option guard. The zero value is always true. Document
// forms: a scalar, an expression string, a list (AND), or {"and"/"or": [...]}.
type When struct {
	cond Evaluable
	raw  any
}

// WhenAlways is the zero-value guard, spelled out.
var WhenAlways = When{}

// NewWhen builds a When from its raw document form.
func NewWhen(raw any) (When, error) {
	if raw == nil {
		return When{}, nil
	}
	cond, err := buildEvaluable(raw)
	if err != nil {
		return When{}, err
	}
	return When{cond: cond, raw: raw}, nil
}

// WhenExpr builds a When guard from a single expression source.
func WhenExpr(source string) (When, error) {
	return NewWhen(source)
}

func buildEvaluable(raw any) (Evaluable, error) {
	switch v := raw.(type) {
	case string:
		return NewExpression(v)
	case []any:
		items, err := buildEvaluables(v)
		if err != nil {
			return nil, err
		}
		return andGroup{items: items}, nil
	case map[string]any:
		if andRaw, ok := v["and"]; ok {
			list, ok := andRaw.([]any)
			if !ok {
				return nil, fmt.Errorf(`"and" requires a list`)
			}
			items, err := buildEvaluables(list)
			if err != nil {
				return nil, err
			}
			return andGroup{items: items}, nil
		}
		if orRaw, ok := v["or"]; ok {
			list, ok := orRaw.([]any)
			if !ok {
				return nil, fmt.Errorf(`"or" requires a list`)
			}
			items, err := buildEvaluables(list)
			if err != nil {
				return nil, err
			}
			return orGroup{items: items}, nil
		}
		return nil, fmt.Errorf("invalid condition: %v", v)
	default:
		return literalValue{value: v}, nil
	}
}

func buildEvaluables(raws []any) ([]Evaluable, error) {
	items := make([]Evaluable, len(raws))
	for i, raw := range raws {
		item, err := buildEvaluable(raw)
		if err != nil {
			return nil, err
		}
		items[i] = item
	}
	return items, nil
}

// Eval evaluates the guard to a boolean. A missing value inside the guard
// surfaces as an *UndefinedError, which the resolver treats as a value to
// chase like any other.
func (w When) Eval(context map[string]any) (bool, error) {
	if w.cond == nil {
		return true, nil
	}
	v, err := w.cond.Evaluate(context)
	if err != nil {
		return false, err
	}
	if u, ok := v.(Undefined); ok {
		return false, u.Err()
	}
	return Truthy(v), nil
}

// Raw returns the guard's original document form, or nil for the default.
func (w When) Raw() any { return w.raw }

// IsZero reports whether the guard is the always-true default.
func (w When) IsZero() bool { return w.cond == nil }
