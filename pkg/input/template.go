package input

import (
	"fmt"

	"github.com/aretw0/parley/pkg/logic"
)

// QuestionTemplate is the declarative definition of one prompt in a flow
// definition. Materializing it against an evaluation context produces a
// Question whose field schemas and option sets reflect that context.
type QuestionTemplate struct {
	ID          string
	Title       *logic.Template
	Description *logic.Template
	Fields      []FieldTemplate
	When        logic.When

	// Raw is the document form the template was decoded from, kept for
	// serialization. Templates built in code leave it nil.
	Raw map[string]any
}

// Provides returns the canonical pointer strings this question answers
// directly. Indirect targets are excluded; see ProvidesIndirect.
func (t *QuestionTemplate) Provides() []string {
	var out []string
	for _, f := range t.Fields {
		p := f.Target()
		if p == nil || p.Indirect() {
			continue
		}
		out = append(out, p.String())
	}
	return out
}

// ProvidesIndirect returns the targets whose concrete path depends on the
// evaluation context.
func (t *QuestionTemplate) ProvidesIndirect() []logic.Pointer {
	var out []logic.Pointer
	for _, f := range t.Fields {
		p := f.Target()
		if p == nil || !p.Indirect() {
			continue
		}
		out = append(out, *p)
	}
	return out
}

// Applicable evaluates the question's guard against a context.
func (t *QuestionTemplate) Applicable(ctx map[string]any) (bool, error) {
	return t.When.Eval(ctx)
}

// GetQuestion materializes the template: fields are assigned positional ids
// (field_0, field_1, ...), indirect targets are resolved to concrete
// pointers, and the response schema is assembled as an object schema whose
// required list names every non-optional field.
func (t *QuestionTemplate) GetQuestion(ctx map[string]any) (*Question, error) {
	q := &Question{
		ID:      t.ID,
		Fields:  make(map[string]Field, len(t.Fields)),
		Targets: make(map[string]logic.Pointer, len(t.Fields)),
	}
	properties := make(map[string]any, len(t.Fields))
	var required []any
	for i, ft := range t.Fields {
		id := fmt.Sprintf("field_%d", i)
		field, err := ft.GetField(ctx)
		if err != nil {
			return nil, err
		}
		q.FieldIDs = append(q.FieldIDs, id)
		q.Fields[id] = field
		if target := ft.Target(); target != nil {
			resolved, err := target.Resolve(ctx)
			if err != nil {
				return nil, err
			}
			q.Targets[id] = resolved
		}
		properties[id] = field.Schema()
		if !field.Optional() {
			required = append(required, id)
		}
	}
	schema := map[string]any{
		"type":                 "object",
		"properties":           properties,
		"additionalProperties": false,
	}
	if len(required) > 0 {
		schema["required"] = required
	}
	if t.Title != nil {
		title, err := t.Title.Render(ctx)
		if err != nil {
			return nil, err
		}
		schema["title"] = title
	}
	if t.Description != nil {
		desc, err := t.Description.Render(ctx)
		if err != nil {
			return nil, err
		}
		schema["description"] = desc
	}
	q.SchemaFragment = schema
	return q, nil
}
