package input

import (
	"fmt"
	"math"

	"github.com/aretw0/parley/pkg/logic"
)

// NumberFieldTemplate is the declarative definition of a numeric input.
type NumberFieldTemplate struct {
	Set          *logic.Pointer
	Label        *logic.Template
	IsOptional   bool
	Default      *float64
	DefaultExpr  *logic.Expression
	Min          *float64
	Max          *float64
	MinExpr      *logic.Expression
	MaxExpr      *logic.Expression
	Integer      bool
	InputMode    string
	Autocomplete string
}

func (t *NumberFieldTemplate) FieldType() string      { return "number" }
func (t *NumberFieldTemplate) Target() *logic.Pointer { return t.Set }
func (t *NumberFieldTemplate) Optional() bool         { return t.IsOptional }

// GetField materializes the template against a context. Min and max
// expressions are evaluated here, so a bound may depend on earlier answers.
func (t *NumberFieldTemplate) GetField(ctx map[string]any) (Field, error) {
	min, err := evalBound(t.MinExpr, t.Min, ctx)
	if err != nil {
		return nil, err
	}
	max, err := evalBound(t.MaxExpr, t.Max, ctx)
	if err != nil {
		return nil, err
	}
	f := &NumberField{
		Opt:     t.IsOptional,
		Min:     min,
		Max:     max,
		Integer: t.Integer,
	}
	schema, err := t.getSchema(ctx, min, max)
	if err != nil {
		return nil, err
	}
	f.SchemaFragment = schema
	return f, nil
}

func (t *NumberFieldTemplate) getSchema(ctx map[string]any, min, max *float64) (map[string]any, error) {
	typ := "number"
	if t.Integer {
		typ = "integer"
	}
	schema := map[string]any{"x-type": "number"}
	if t.IsOptional {
		schema["type"] = []any{typ, "null"}
	} else {
		schema["type"] = typ
	}
	if err := applyLabel(schema, t.Label, ctx); err != nil {
		return nil, err
	}
	if t.DefaultExpr != nil {
		v, err := t.DefaultExpr.EvaluateStrict(ctx)
		if err != nil {
			return nil, err
		}
		schema["default"] = logic.Unwrap(v)
	} else if t.Default != nil {
		schema["default"] = *t.Default
	}
	if min != nil {
		schema["minimum"] = *min
	}
	if max != nil {
		schema["maximum"] = *max
	}
	if t.InputMode != "" {
		schema["x-inputMode"] = t.InputMode
	}
	if t.Autocomplete != "" {
		schema["x-autoComplete"] = t.Autocomplete
	}
	return schema, nil
}

func evalBound(expr *logic.Expression, literal *float64, ctx map[string]any) (*float64, error) {
	if expr == nil {
		return literal, nil
	}
	v, err := expr.EvaluateStrict(ctx)
	if err != nil {
		return nil, err
	}
	f, ok := numberValue(logic.Unwrap(v))
	if !ok {
		return nil, fmt.Errorf("bound expression %q did not evaluate to a number", expr)
	}
	return &f, nil
}

func numberValue(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	default:
		return 0, false
	}
}

// NumberField is a materialized numeric field.
type NumberField struct {
	Opt            bool
	Min            *float64
	Max            *float64
	Integer        bool
	SchemaFragment map[string]any
}

func (f *NumberField) FieldType() string      { return "number" }
func (f *NumberField) Optional() bool         { return f.Opt }
func (f *NumberField) Schema() map[string]any { return f.SchemaFragment }

func (f *NumberField) Validators() []Validator {
	isNumber := func(v any) bool { _, ok := numberValue(v); return ok }
	validators := []Validator{typeCheck(f.Opt, isNumber, "a number")}
	if f.Min != nil || f.Max != nil {
		validators = append(validators, f.validateRange)
	}
	validators = append(validators, f.coerceInteger, typeCheck(f.Opt, isNumber, "a number"))
	return validators
}

func (f *NumberField) validateRange(value any) (any, error) {
	if value == nil {
		return nil, nil
	}
	n, _ := numberValue(value)
	if f.Min != nil && n < *f.Min {
		return nil, fmt.Errorf("must be at least %s", logic.Stringify(*f.Min))
	}
	if f.Max != nil && n > *f.Max {
		return nil, fmt.Errorf("must be at most %s", logic.Stringify(*f.Max))
	}
	return value, nil
}

func (f *NumberField) coerceInteger(value any) (any, error) {
	if value == nil || !f.Integer {
		return value, nil
	}
	n, _ := numberValue(value)
	return math.Trunc(n), nil
}
