package input

import "github.com/aretw0/parley/pkg/logic"

// ButtonFieldTemplate presents a row of buttons; pressing one answers the
// question with that option's value. It is always a single required choice.
type ButtonFieldTemplate struct {
	Set     *logic.Pointer
	Label   *logic.Template
	Options []SelectOptionTemplate
}

func (t *ButtonFieldTemplate) FieldType() string      { return "button" }
func (t *ButtonFieldTemplate) Target() *logic.Pointer { return t.Set }
func (t *ButtonFieldTemplate) Optional() bool         { return false }

func (t *ButtonFieldTemplate) GetField(ctx map[string]any) (Field, error) {
	options, err := materializeOptions(t.Options, ctx)
	if err != nil {
		return nil, err
	}
	f := &ButtonField{Options: options}
	schema := map[string]any{
		"x-type": "button",
		"type":   "string",
	}
	if err := applyLabel(schema, t.Label, ctx); err != nil {
		return nil, err
	}
	optionSchemas := make([]any, len(options))
	for i, opt := range options {
		optionSchemas[i] = opt.Schema
	}
	schema["oneOf"] = optionSchemas
	f.SchemaFragment = schema
	return f, nil
}

// ButtonField is a materialized button group.
type ButtonField struct {
	Options        []SelectOption
	SchemaFragment map[string]any
}

func (f *ButtonField) FieldType() string      { return "button" }
func (f *ButtonField) Optional() bool         { return false }
func (f *ButtonField) Schema() map[string]any { return f.SchemaFragment }

func (f *ButtonField) Validators() []Validator {
	inner := &SelectField{Opt: false, Options: f.Options}
	return []Validator{inner.validateScalarType, inner.convertScalar}
}
