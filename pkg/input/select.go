package input

import (
	"fmt"
	"strconv"

	"github.com/aretw0/parley/pkg/logic"
)

// SelectOptionTemplate is one choice in a select or button field. Options
// may be conditionally included via When, and their value may be computed
// per context.
type SelectOptionTemplate struct {
	ID        string
	Label     *logic.Template
	Value     any
	ValueExpr *logic.Expression
	Default   bool
	Primary   bool
	When      logic.When
}

// SelectOption is a materialized, selectable choice.
type SelectOption struct {
	ID      string         `json:"id"`
	Value   any            `json:"value"`
	Default bool           `json:"default,omitempty"`
	Schema  map[string]any `json:"schema"`
}

// materializeOptions filters and evaluates option templates for a context.
// Option ids default to their 1-based position among the declared options.
func materializeOptions(templates []SelectOptionTemplate, ctx map[string]any) ([]SelectOption, error) {
	var options []SelectOption
	for idx, t := range templates {
		included, err := t.When.Eval(ctx)
		if err != nil {
			return nil, err
		}
		if !included {
			continue
		}
		id := t.ID
		if id == "" {
			id = strconv.Itoa(idx + 1)
		}
		value := t.Value
		if t.ValueExpr != nil {
			v, err := t.ValueExpr.EvaluateStrict(ctx)
			if err != nil {
				return nil, err
			}
			value = logic.Unwrap(v)
		}
		schema := map[string]any{"const": id}
		if t.Label != nil {
			label, err := t.Label.Render(ctx)
			if err != nil {
				return nil, err
			}
			schema["title"] = label
		}
		if t.Primary {
			schema["x-primary"] = true
		}
		options = append(options, SelectOption{ID: id, Value: value, Default: t.Default, Schema: schema})
	}
	return options, nil
}

// SelectFieldTemplate is the declarative definition of a choice input.
// Max > 1 makes it a multi-select; Min == 0 makes it optional.
type SelectFieldTemplate struct {
	Set          *logic.Pointer
	Label        *logic.Template
	Component    string
	Options      []SelectOptionTemplate
	Min          int
	Max          int
	Autocomplete string
}

func (t *SelectFieldTemplate) FieldType() string      { return "select" }
func (t *SelectFieldTemplate) Target() *logic.Pointer { return t.Set }
func (t *SelectFieldTemplate) Optional() bool         { return t.Min == 0 }

func (t *SelectFieldTemplate) multi() bool { return t.Max > 1 }

// GetField materializes the template against a context, filtering options
// by their guards.
func (t *SelectFieldTemplate) GetField(ctx map[string]any) (Field, error) {
	options, err := materializeOptions(t.Options, ctx)
	if err != nil {
		return nil, err
	}
	min, max := t.Min, t.Max
	if max == 0 {
		max = 1
	}
	f := &SelectField{
		Opt:     t.Min == 0,
		Multi:   t.multi(),
		Min:     min,
		Max:     max,
		Options: options,
	}
	schema, err := t.getSchema(ctx, f, options)
	if err != nil {
		return nil, err
	}
	f.SchemaFragment = schema
	return f, nil
}

func (t *SelectFieldTemplate) getSchema(ctx map[string]any, f *SelectField, options []SelectOption) (map[string]any, error) {
	schema := map[string]any{"x-type": "select"}
	if err := applyLabel(schema, t.Label, ctx); err != nil {
		return nil, err
	}
	optionSchemas := make([]any, len(options))
	var defaults []any
	for i, opt := range options {
		optionSchemas[i] = opt.Schema
		if opt.Default {
			defaults = append(defaults, opt.ID)
		}
	}
	if f.Multi {
		schema["type"] = "array"
		schema["items"] = map[string]any{"oneOf": optionSchemas}
		schema["uniqueItems"] = true
		schema["minItems"] = f.Min
		schema["maxItems"] = f.Max
		if len(defaults) > 0 {
			schema["default"] = defaults
		}
	} else {
		if f.Opt {
			schema["type"] = []any{"string", "null"}
			optionSchemas = append(optionSchemas, map[string]any{"type": "null"})
		} else {
			schema["type"] = "string"
		}
		schema["oneOf"] = optionSchemas
		if len(defaults) > 0 {
			schema["default"] = defaults[0]
		}
	}
	component := t.Component
	if component == "" {
		component = "dropdown"
	}
	schema["x-component"] = component
	if t.Autocomplete != "" {
		schema["x-autoComplete"] = t.Autocomplete
	}
	return schema, nil
}

// SelectField is a materialized choice field.
type SelectField struct {
	Opt            bool
	Multi          bool
	Min            int
	Max            int
	Options        []SelectOption
	SchemaFragment map[string]any
}

func (f *SelectField) FieldType() string      { return "select" }
func (f *SelectField) Optional() bool         { return f.Opt }
func (f *SelectField) Schema() map[string]any { return f.SchemaFragment }

func (f *SelectField) Validators() []Validator {
	if f.Multi {
		return []Validator{f.validateMultiType, dedupeIDs, f.validateSize, f.convertMulti}
	}
	return []Validator{f.validateScalarType, f.convertScalar}
}

func (f *SelectField) validateScalarType(value any) (any, error) {
	value = logic.Unwrap(value)
	if value == nil {
		if f.Opt {
			return nil, nil
		}
		return nil, fmt.Errorf("a selection is required")
	}
	if _, ok := value.(string); !ok {
		return nil, fmt.Errorf("invalid value")
	}
	return value, nil
}

func (f *SelectField) validateMultiType(value any) (any, error) {
	value = logic.Unwrap(value)
	if value == nil {
		value = []any{}
	}
	list, ok := value.([]any)
	if !ok {
		return nil, fmt.Errorf("invalid value")
	}
	for _, v := range list {
		if _, ok := v.(string); !ok {
			return nil, fmt.Errorf("invalid value")
		}
	}
	return list, nil
}

// dedupeIDs drops duplicate selections, keeping first-occurrence order.
func dedupeIDs(value any) (any, error) {
	list := value.([]any)
	seen := make(map[string]bool, len(list))
	out := make([]any, 0, len(list))
	for _, v := range list {
		id := v.(string)
		if seen[id] {
			continue
		}
		seen[id] = true
		out = append(out, v)
	}
	return out, nil
}

func (f *SelectField) validateSize(value any) (any, error) {
	list := value.([]any)
	if len(list) < f.Min {
		return nil, fmt.Errorf("choose at least %d", f.Min)
	}
	if len(list) > f.Max {
		return nil, fmt.Errorf("choose at most %d", f.Max)
	}
	return list, nil
}

func (f *SelectField) convertMulti(value any) (any, error) {
	list := value.([]any)
	out := make([]any, len(list))
	for i, v := range list {
		converted, err := f.convertOption(v.(string))
		if err != nil {
			return nil, err
		}
		out[i] = converted
	}
	return out, nil
}

func (f *SelectField) convertScalar(value any) (any, error) {
	if value == nil {
		return nil, nil
	}
	return f.convertOption(value.(string))
}

// convertOption maps a selected id to the option's value. Ids outside the
// (filtered) option set are rejected.
func (f *SelectField) convertOption(id string) (any, error) {
	for _, opt := range f.Options {
		if opt.ID == id {
			return opt.Value, nil
		}
	}
	return nil, fmt.Errorf("invalid value")
}
