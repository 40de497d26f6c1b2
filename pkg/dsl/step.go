package dsl

// StepBuilder configures one step. The zero keys of the underlying
// document stay absent, so built steps round-trip byte-for-byte with their
// YAML form.
type StepBuilder struct {
	kind string
	doc  map[string]any
}

func newStep(kind string, value any) *StepBuilder {
	return &StepBuilder{kind: kind, doc: map[string]any{kind: value}}
}

// When guards the step. A string is evaluated as an expression; a list
// requires every entry to hold.
func (s *StepBuilder) When(condition any) *StepBuilder {
	s.doc["when"] = condition
	return s
}

// Description sets the body of an exit step.
func (s *StepBuilder) Description(text string) *StepBuilder {
	s.doc["description"] = text
	return s
}

// Value sets the expression a sub step evaluates on the child's data to
// produce its result.
func (s *StepBuilder) Value(expr string) *StepBuilder {
	s.doc["value"] = expr
	return s
}

// Context sets extra context values handed to a sub step's child. String
// values are evaluated as expressions against the parent.
func (s *StepBuilder) Context(values map[string]any) *StepBuilder {
	s.doc["context"] = values
	return s
}

// InitialData seeds the child data of a sub step. String values are
// evaluated as expressions against the parent.
func (s *StepBuilder) InitialData(values map[string]any) *StepBuilder {
	s.doc["initial_data"] = values
	return s
}

// Map runs a sub step once per item of the expression's list, collecting
// the results. The current item is exposed under the map_var name.
func (s *StepBuilder) Map(expr, mapVar string) *StepBuilder {
	s.doc["map"] = expr
	s.doc["map_var"] = mapVar
	return s
}

func (s *StepBuilder) document() map[string]any {
	return s.doc
}
