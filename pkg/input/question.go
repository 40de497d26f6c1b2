package input

import (
	"github.com/aretw0/parley/pkg/logic"
)

// FieldTemplate is the declarative definition of one input field. The
// concrete kinds form a closed union mirroring Field.
type FieldTemplate interface {
	// FieldType returns the field kind identifier.
	FieldType() string
	// Target returns the pointer the parsed value is written to, or nil
	// for fields whose value is discarded.
	Target() *logic.Pointer
	// Optional reports whether a null value is accepted.
	Optional() bool
	// GetField materializes the template against an evaluation context.
	GetField(ctx map[string]any) (Field, error)
}

// Answer is one parsed response value bound to its destination pointer.
type Answer struct {
	Target logic.Pointer
	Value  any
}

// Question is a materialized prompt: a set of fields keyed by positional
// id, the pointer each field writes to, and the combined response schema.
// It is a pure data snapshot and survives a serialization round trip.
type Question struct {
	ID             string
	FieldIDs       []string
	Fields         map[string]Field
	Targets        map[string]logic.Pointer
	SchemaFragment map[string]any
}

// Schema returns the object schema a response must satisfy.
func (q *Question) Schema() map[string]any { return q.SchemaFragment }

// Parse validates a raw response against every field. Missing keys are
// treated as null. Failures are aggregated per field into a
// *ValidationError; on success each answered field yields one Answer in
// declaration order, skipping fields without a target.
func (q *Question) Parse(response map[string]any) ([]Answer, error) {
	failures := make(map[string]string)
	var answers []Answer
	for _, id := range q.FieldIDs {
		field := q.Fields[id]
		value, err := ParseValue(field, response[id])
		if err != nil {
			failures[id] = err.Error()
			continue
		}
		target, ok := q.Targets[id]
		if !ok {
			continue
		}
		answers = append(answers, Answer{Target: target, Value: value})
	}
	if len(failures) > 0 {
		return nil, &ValidationError{Fields: failures}
	}
	return answers, nil
}
