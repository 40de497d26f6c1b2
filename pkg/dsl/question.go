package dsl

// QuestionBuilder configures one question and its fields.
type QuestionBuilder struct {
	id          string
	title       string
	description string
	when        any
	fields      []*FieldBuilder
}

// Title sets the question title, rendered as a template.
func (q *QuestionBuilder) Title(title string) *QuestionBuilder {
	q.title = title
	return q
}

// Description sets the question description, rendered as a template.
func (q *QuestionBuilder) Description(text string) *QuestionBuilder {
	q.description = text
	return q
}

// When guards the question.
func (q *QuestionBuilder) When(condition any) *QuestionBuilder {
	q.when = condition
	return q
}

// Text adds a text field storing its answer at the pointer.
func (q *QuestionBuilder) Text(set string) *FieldBuilder {
	return q.field("text", set)
}

// Number adds a number field storing its answer at the pointer.
func (q *QuestionBuilder) Number(set string) *FieldBuilder {
	return q.field("number", set)
}

// Select adds a select field storing the chosen option's value at the
// pointer.
func (q *QuestionBuilder) Select(set string) *FieldBuilder {
	return q.field("select", set)
}

// Date adds a date field storing its answer at the pointer.
func (q *QuestionBuilder) Date(set string) *FieldBuilder {
	return q.field("date", set)
}

func (q *QuestionBuilder) field(fieldType, set string) *FieldBuilder {
	fb := &FieldBuilder{doc: map[string]any{"type": fieldType}}
	if set != "" {
		fb.doc["set"] = set
	}
	q.fields = append(q.fields, fb)
	return fb
}

func (q *QuestionBuilder) document() map[string]any {
	doc := map[string]any{"id": q.id}
	if q.title != "" {
		doc["title"] = q.title
	}
	if q.description != "" {
		doc["description"] = q.description
	}
	if q.when != nil {
		doc["when"] = q.when
	}
	fields := make([]any, len(q.fields))
	for i, fb := range q.fields {
		fields[i] = fb.doc
	}
	doc["fields"] = fields
	return doc
}

// FieldBuilder configures one field of a question.
type FieldBuilder struct {
	doc map[string]any
}

// Label sets the field label, rendered as a template.
func (f *FieldBuilder) Label(label string) *FieldBuilder {
	f.doc["label"] = label
	return f
}

// Optional marks the field as answerable with null.
func (f *FieldBuilder) Optional() *FieldBuilder {
	f.doc["optional"] = true
	return f
}

// Default sets the field's default value.
func (f *FieldBuilder) Default(value any) *FieldBuilder {
	f.doc["default"] = value
	return f
}

// Min bounds the field from below: length for text, value for number,
// ISO date for date, selected option count for select.
func (f *FieldBuilder) Min(min any) *FieldBuilder {
	f.doc["min"] = min
	return f
}

// Max bounds the field from above.
func (f *FieldBuilder) Max(max any) *FieldBuilder {
	f.doc["max"] = max
	return f
}

// Integer restricts a number field to whole values.
func (f *FieldBuilder) Integer() *FieldBuilder {
	f.doc["integer"] = true
	return f
}

// Format sets a text field format such as "email".
func (f *FieldBuilder) Format(format string) *FieldBuilder {
	f.doc["format"] = format
	return f
}

// Regex requires a text field to match the regular expression.
func (f *FieldBuilder) Regex(pattern string) *FieldBuilder {
	f.doc["regex"] = pattern
	return f
}

// Option adds a select option with a label and a stored value.
func (f *FieldBuilder) Option(label string, value any) *FieldBuilder {
	options, _ := f.doc["options"].([]any)
	f.doc["options"] = append(options, map[string]any{"label": label, "value": value})
	return f
}

// Component sets the select presentation component (dropdown, radio,
// checkbox).
func (f *FieldBuilder) Component(component string) *FieldBuilder {
	f.doc["component"] = component
	return f
}
