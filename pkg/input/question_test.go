package input

import (
	"testing"

	"github.com/aretw0/parley/pkg/logic"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func nameQuestion() *QuestionTemplate {
	first := logic.MustParse("name.first")
	last := logic.MustParse("name.last")
	return &QuestionTemplate{
		ID:          "name",
		Title:       logic.MustTemplate("{{ title }}"),
		Description: logic.MustTemplate("desc"),
		Fields: []FieldTemplate{
			&TextFieldTemplate{Set: &first, Label: logic.MustTemplate("First")},
			&TextFieldTemplate{Set: &last, Label: logic.MustTemplate("Last"), IsOptional: true},
		},
	}
}

func TestQuestionSchema(t *testing.T) {
	q, err := nameQuestion().GetQuestion(map[string]any{"title": "Test"})
	require.NoError(t, err)

	schema := q.Schema()
	assert.Equal(t, "object", schema["type"])
	assert.Equal(t, "Test", schema["title"])
	assert.Equal(t, "desc", schema["description"])
	assert.Equal(t, []any{"field_0"}, schema["required"])

	properties := schema["properties"].(map[string]any)
	require.Len(t, properties, 2)
	assert.Equal(t, "First", properties["field_0"].(map[string]any)["title"])
	assert.Equal(t, "Last", properties["field_1"].(map[string]any)["title"])
}

func TestQuestionProvides(t *testing.T) {
	q := nameQuestion()
	assert.Equal(t, []string{"name.first", "name.last"}, q.Provides())
	assert.Empty(t, q.ProvidesIndirect())
}

func TestQuestionProvidesIndirect(t *testing.T) {
	ptr := logic.MustParse("people[idx].name")
	q := &QuestionTemplate{
		ID:     "person",
		Fields: []FieldTemplate{&TextFieldTemplate{Set: &ptr}},
	}
	assert.Empty(t, q.Provides())
	indirect := q.ProvidesIndirect()
	require.Len(t, indirect, 1)
	assert.Equal(t, "people[idx].name", indirect[0].String())
}

func TestQuestionParse(t *testing.T) {
	q, err := nameQuestion().GetQuestion(map[string]any{"title": "Test"})
	require.NoError(t, err)

	answers, err := q.Parse(map[string]any{"field_0": "Jo", "field_1": "Doe"})
	require.NoError(t, err)
	require.Len(t, answers, 2)
	assert.Equal(t, "name.first", answers[0].Target.String())
	assert.Equal(t, "Jo", answers[0].Value)
	assert.Equal(t, "name.last", answers[1].Target.String())
	assert.Equal(t, "Doe", answers[1].Value)
}

func TestQuestionParseMissingOptional(t *testing.T) {
	q, err := nameQuestion().GetQuestion(map[string]any{"title": "Test"})
	require.NoError(t, err)

	// an absent optional field parses as null
	answers, err := q.Parse(map[string]any{"field_0": "Jo"})
	require.NoError(t, err)
	require.Len(t, answers, 2)
	assert.Nil(t, answers[1].Value)
}

func TestQuestionParseAggregatesErrors(t *testing.T) {
	q, err := nameQuestion().GetQuestion(map[string]any{"title": "Test"})
	require.NoError(t, err)

	_, err = q.Parse(map[string]any{"field_0": 1, "field_1": 2})
	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Len(t, verr.Fields, 2)
	assert.Contains(t, verr.Fields, "field_0")
	assert.Contains(t, verr.Fields, "field_1")
}

func TestQuestionResolvesIndirectTargets(t *testing.T) {
	ptr := logic.MustParse("people[idx].name")
	tmpl := &QuestionTemplate{
		ID:     "person",
		Fields: []FieldTemplate{&TextFieldTemplate{Set: &ptr}},
	}
	q, err := tmpl.GetQuestion(map[string]any{"idx": 1})
	require.NoError(t, err)
	assert.Equal(t, "people[1].name", q.Targets["field_0"].String())
}

func TestQuestionApplicable(t *testing.T) {
	when, err := logic.WhenExpr("include")
	require.NoError(t, err)
	q := &QuestionTemplate{ID: "q", When: when}

	ok, err := q.Applicable(map[string]any{"include": true})
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = q.Applicable(map[string]any{"include": false})
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestQuestionNoTargetField(t *testing.T) {
	tmpl := &QuestionTemplate{
		ID: "confirm",
		Fields: []FieldTemplate{
			&ButtonFieldTemplate{Options: []SelectOptionTemplate{{ID: "1", Value: true}}},
		},
	}
	q, err := tmpl.GetQuestion(map[string]any{})
	require.NoError(t, err)

	answers, err := q.Parse(map[string]any{"field_0": "1"})
	require.NoError(t, err)
	assert.Empty(t, answers)
}
