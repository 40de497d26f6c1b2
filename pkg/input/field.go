package input

import (
	"fmt"
	"sort"
	"strings"

	"github.com/aretw0/parley/pkg/logic"
)

// Validator checks or coerces a single response value. Validators run in
// order; the output of one is the input of the next.
type Validator func(value any) (any, error)

// Field is a materialized input field: a schema fragment plus the validator
// chain derived from its template against one evaluation context. The
// concrete kinds form a closed union (text, number, date, select, button).
type Field interface {
	// FieldType returns the field kind identifier.
	FieldType() string
	// Optional reports whether a null value is accepted.
	Optional() bool
	// Schema returns the field's JSON-schema fragment.
	Schema() map[string]any
	// Validators returns the ordered validator chain.
	Validators() []Validator
}

// ParseValue runs a field's validator chain over a raw response value.
func ParseValue(f Field, value any) (any, error) {
	cur := value
	for _, validate := range f.Validators() {
		next, err := validate(cur)
		if err != nil {
			return nil, err
		}
		cur = next
	}
	return cur, nil
}

// ValidationError aggregates per-field failures for one parsed response.
// It is local to the current update pass: the question stays pending and
// the caller gets the same schema back with these messages.
type ValidationError struct {
	Fields map[string]string
}

func (e *ValidationError) Error() string {
	keys := make([]string, 0, len(e.Fields))
	for k := range e.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, len(keys))
	for i, k := range keys {
		parts[i] = fmt.Sprintf("%s: %s", k, e.Fields[k])
	}
	return "invalid response: " + strings.Join(parts, "; ")
}

// typeCheck builds the leading (and trailing) type validator shared by the
// scalar field kinds.
func typeCheck(optional bool, check func(any) bool, what string) Validator {
	return func(value any) (any, error) {
		if value == nil {
			if optional {
				return nil, nil
			}
			return nil, fmt.Errorf("a value is required")
		}
		if !check(logic.Unwrap(value)) {
			return nil, fmt.Errorf("expected %s", what)
		}
		return logic.Unwrap(value), nil
	}
}
