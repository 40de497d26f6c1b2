package input

import (
	"fmt"
	"time"

	"github.com/aretw0/parley/pkg/logic"
)

const dateLayout = "2006-01-02"

// DateFieldTemplate is the declarative definition of a calendar date input.
// Dates travel as ISO "YYYY-MM-DD" strings in responses and data.
type DateFieldTemplate struct {
	Set          *logic.Pointer
	Label        *logic.Template
	IsOptional   bool
	Default      string
	DefaultExpr  *logic.Expression
	Min          string
	Max          string
	MinExpr      *logic.Expression
	MaxExpr      *logic.Expression
	InputMode    string
	Autocomplete string
}

func (t *DateFieldTemplate) FieldType() string      { return "date" }
func (t *DateFieldTemplate) Target() *logic.Pointer { return t.Set }
func (t *DateFieldTemplate) Optional() bool         { return t.IsOptional }

// GetField materializes the template against a context.
func (t *DateFieldTemplate) GetField(ctx map[string]any) (Field, error) {
	min, err := evalDateBound(t.MinExpr, t.Min, ctx)
	if err != nil {
		return nil, err
	}
	max, err := evalDateBound(t.MaxExpr, t.Max, ctx)
	if err != nil {
		return nil, err
	}
	f := &DateField{Opt: t.IsOptional, Min: min, Max: max}
	schema, err := t.getSchema(ctx, min, max)
	if err != nil {
		return nil, err
	}
	f.SchemaFragment = schema
	return f, nil
}

func (t *DateFieldTemplate) getSchema(ctx map[string]any, min, max string) (map[string]any, error) {
	schema := map[string]any{
		"x-type": "date",
		"format": "date",
	}
	if t.IsOptional {
		schema["type"] = []any{"string", "null"}
	} else {
		schema["type"] = "string"
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
	} else if t.Default != "" {
		schema["default"] = t.Default
	}
	if min != "" {
		schema["x-minimum"] = min
	}
	if max != "" {
		schema["x-maximum"] = max
	}
	if t.InputMode != "" {
		schema["x-inputMode"] = t.InputMode
	}
	if t.Autocomplete != "" {
		schema["x-autoComplete"] = t.Autocomplete
	}
	return schema, nil
}

func evalDateBound(expr *logic.Expression, literal string, ctx map[string]any) (string, error) {
	if expr == nil {
		return literal, nil
	}
	v, err := expr.EvaluateStrict(ctx)
	if err != nil {
		return "", err
	}
	s, ok := logic.Unwrap(v).(string)
	if !ok {
		return "", fmt.Errorf("date bound expression %q did not evaluate to a string", expr)
	}
	if _, err := time.Parse(dateLayout, s); err != nil {
		return "", fmt.Errorf("date bound expression %q produced %q: %w", expr, s, err)
	}
	return s, nil
}

// DateField is a materialized date field.
type DateField struct {
	Opt            bool
	Min            string
	Max            string
	SchemaFragment map[string]any
}

func (f *DateField) FieldType() string      { return "date" }
func (f *DateField) Optional() bool         { return f.Opt }
func (f *DateField) Schema() map[string]any { return f.SchemaFragment }

func (f *DateField) Validators() []Validator {
	validators := []Validator{f.validateDate}
	if f.Min != "" || f.Max != "" {
		validators = append(validators, f.validateRange)
	}
	validators = append(validators, f.validateRequired)
	return validators
}

// validateDate parses and canonicalizes the incoming value.
func (f *DateField) validateDate(value any) (any, error) {
	if value == nil {
		return nil, nil
	}
	s, ok := logic.Unwrap(value).(string)
	if !ok {
		return nil, fmt.Errorf("invalid date")
	}
	d, err := time.Parse(dateLayout, s)
	if err != nil {
		return nil, fmt.Errorf("invalid date")
	}
	return d.Format(dateLayout), nil
}

func (f *DateField) validateRange(value any) (any, error) {
	if value == nil {
		return nil, nil
	}
	s := value.(string)
	if f.Min != "" && s < f.Min {
		return nil, fmt.Errorf("must be on or after %s", f.Min)
	}
	if f.Max != "" && s > f.Max {
		return nil, fmt.Errorf("must be on or before %s", f.Max)
	}
	return s, nil
}

func (f *DateField) validateRequired(value any) (any, error) {
	if value == nil && !f.Opt {
		return nil, fmt.Errorf("a value is required")
	}
	return value, nil
}
