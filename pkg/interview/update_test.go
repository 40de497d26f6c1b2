package interview_test

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"github.com/aretw0/parley/pkg/input"
	"github.com/aretw0/parley/pkg/interview"
)

// buildContext assembles an interview context from a YAML document with
// questions, steps, and optional nested interviews.
func buildContext(t *testing.T, doc string, data map[string]any) *interview.Context {
	t.Helper()

	var cfg struct {
		Questions  []map[string]any `yaml:"questions"`
		Steps      []any            `yaml:"steps"`
		Interviews map[string]struct {
			Questions []map[string]any `yaml:"questions"`
			Steps     []any            `yaml:"steps"`
		} `yaml:"interviews"`
	}
	require.NoError(t, yaml.Unmarshal([]byte(doc), &cfg))

	questions, order := decodeQuestions(t, cfg.Questions)
	steps, err := interview.DecodeSteps(cfg.Steps)
	require.NoError(t, err)

	interviews := make(map[string]*interview.Interview, len(cfg.Interviews))
	for id, sub := range cfg.Interviews {
		subQuestions, subOrder := decodeQuestions(t, sub.Questions)
		subSteps, err := interview.DecodeSteps(sub.Steps)
		require.NoError(t, err)
		interviews[id] = &interview.Interview{
			Questions:     subQuestions,
			QuestionOrder: subOrder,
			Steps:         subSteps,
		}
	}

	state := interview.NewState("", nil, data)
	return interview.NewContext(questions, order, steps, state, interviews)
}

func decodeQuestions(t *testing.T, raw []map[string]any) (map[string]*input.QuestionTemplate, []string) {
	t.Helper()
	questions := make(map[string]*input.QuestionTemplate, len(raw))
	var order []string
	for _, r := range raw {
		tmpl, err := input.DecodeQuestionTemplate(r)
		require.NoError(t, err)
		questions[tmpl.ID] = tmpl
		order = append(order, tmpl.ID)
	}
	return questions, order
}

// runInterview drives updates until completion or exit, popping one
// response list per question in order.
func runInterview(t *testing.T, r *interview.Runner, ic *interview.Context, responses [][]any) (*interview.Context, interview.Content) {
	t.Helper()

	ic, content, err := r.Update(context.Background(), ic, nil)
	require.NoError(t, err)
	for !ic.State.Completed {
		if _, isExit := content.(*interview.ExitContent); isExit {
			return ic, content
		}
		require.NotEmpty(t, responses, "interview asked more questions than expected")
		response := map[string]any{}
		for i, v := range responses[0] {
			response[fmt.Sprintf("field_%d", i)] = v
		}
		responses = responses[1:]

		ic, content, err = r.Update(context.Background(), ic, response)
		require.NoError(t, err)
	}
	require.Empty(t, responses, "interview asked fewer questions than expected")
	return ic, content
}

func TestUpdateEmptyInterview(t *testing.T) {
	ic := buildContext(t, `{}`, nil)
	r := interview.NewRunner()

	final, content := runInterview(t, r, ic, nil)
	assert.True(t, final.State.Completed)
	assert.Nil(t, content)
	assert.Empty(t, final.State.Data)
}

const askFlowDoc = `
questions:
  - id: q-first
    title: First name
    fields:
      - type: text
        set: first_name
        label: First name
  - id: q-last
    title: Last name
    fields:
      - type: text
        set: last_name
        label: Last name
steps:
  - ask: q-first
  - ask: q-last
`

func TestUpdateAskFlow(t *testing.T) {
	ic := buildContext(t, askFlowDoc, nil)
	r := interview.NewRunner()

	final, content := runInterview(t, r, ic, [][]any{{"fname"}, {"lname"}})
	assert.Nil(t, content)
	assert.Equal(t, map[string]any{
		"first_name": "fname",
		"last_name":  "lname",
	}, final.State.Data)
	assert.ElementsMatch(t, []string{"q-first", "q-last"}, final.State.AnsweredQuestionIDs)
}

const setFlowDoc = `
questions:
  - id: q-first
    fields:
      - type: text
        set: first_name
  - id: q-last
    fields:
      - type: text
        set: last_name
steps:
  - set: full_name
    value: first_name + " " + last_name
`

// The set step's dependencies are unanswered, so the resolver asks for
// first_name and then last_name before the value can be computed.
func TestUpdateSetChasesDependencies(t *testing.T) {
	ic := buildContext(t, setFlowDoc, nil)
	r := interview.NewRunner()

	next, content, err := r.Update(context.Background(), ic, nil)
	require.NoError(t, err)
	ask, ok := content.(*interview.AskContent)
	require.True(t, ok)
	assert.Equal(t, "q-first", next.State.CurrentQuestion.ID, "first_name should be chased first")
	assert.NotNil(t, ask.Schema)

	final, content := runInterview(t, r, ic, [][]any{{"fname"}, {"lname"}})
	assert.Nil(t, content)
	assert.Equal(t, map[string]any{
		"first_name": "fname",
		"last_name":  "lname",
		"full_name":  "fname lname",
	}, final.State.Data)
}

const setParentFlowDoc = `
questions:
  - id: q-plan
    title: Plan
    fields:
      - type: select
        set: plan
        options:
          - label: Basic
            value: {tier: basic}
          - label: Pro
            value: {tier: pro}
steps:
  - set: plan.confirmed
    value: "true"
`

// The set step's target sits inside a value no step produces, so writing
// it surfaces the missing parent and the resolver asks the question
// providing it.
func TestUpdateSetResolvesMissingParent(t *testing.T) {
	ic := buildContext(t, setParentFlowDoc, nil)
	r := interview.NewRunner()

	next, content, err := r.Update(context.Background(), ic, nil)
	require.NoError(t, err)
	ask, ok := content.(*interview.AskContent)
	require.True(t, ok)
	assert.Equal(t, "Plan", ask.Schema["title"])
	assert.Equal(t, "q-plan", next.State.CurrentQuestion.ID)

	final, content, err := r.Update(context.Background(), next, map[string]any{"field_0": "2"})
	require.NoError(t, err)
	assert.Nil(t, content)
	assert.True(t, final.State.Completed)
	assert.Equal(t, map[string]any{
		"plan": map[string]any{"tier": "pro", "confirmed": true},
	}, final.State.Data)
}

const exitFlowDoc = `
questions:
  - id: q-choice
    title: Continue?
    fields:
      - type: select
        set: choice
        component: buttons
        options:
          - label: "Yes"
            value: 1
          - label: "No"
            value: 2
steps:
  - ask: q-choice
  - exit: Goodbye
    when: choice == 2
`

func TestUpdateExit(t *testing.T) {
	ic := buildContext(t, exitFlowDoc, nil)
	r := interview.NewRunner()

	_, content := runInterview(t, r, ic, [][]any{{"2"}})
	exit, ok := content.(*interview.ExitContent)
	require.True(t, ok)
	assert.Equal(t, "Goodbye", exit.Title)
}

func TestUpdateReemitsPendingQuestion(t *testing.T) {
	ic := buildContext(t, setFlowDoc, nil)
	r := interview.NewRunner()

	asked, content, err := r.Update(context.Background(), ic, nil)
	require.NoError(t, err)
	first := content.(*interview.AskContent)

	again, content, err := r.Update(context.Background(), asked, nil)
	require.NoError(t, err)
	second := content.(*interview.AskContent)

	assert.Same(t, asked, again, "an absent response should not advance the state")
	assert.Equal(t, first.Schema, second.Schema)
	assert.Empty(t, again.State.AnsweredQuestionIDs)
}

func TestUpdateValidationError(t *testing.T) {
	ic := buildContext(t, askFlowDoc, nil)
	r := interview.NewRunner()

	asked, _, err := r.Update(context.Background(), ic, nil)
	require.NoError(t, err)

	_, _, err = r.Update(context.Background(), asked, map[string]any{"field_0": ""})
	var verr *input.ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Contains(t, verr.Fields, "field_0")

	// the pending question survives a rejected response
	assert.NotNil(t, asked.State.CurrentQuestion)
	assert.Empty(t, asked.State.AnsweredQuestionIDs)
}

const oscillatingDoc = `
steps:
  - set: x
    value: "1"
    when: x != 1
  - set: x
    value: "2"
    when: x == 1
`

func TestUpdateMaxPassesExceeded(t *testing.T) {
	ic := buildContext(t, oscillatingDoc, map[string]any{"x": 0})
	r := interview.NewRunner()

	_, _, err := r.Update(context.Background(), ic, nil)
	var ierr *interview.InterviewError
	require.ErrorAs(t, err, &ierr)
	assert.Contains(t, err.Error(), "max update count")
}

type fakeHTTPClient struct {
	calls  int
	result any
}

func (c *fakeHTTPClient) PostJSON(ctx context.Context, url string, body map[string]any) (any, error) {
	c.calls++
	return c.result, nil
}

const httpFlowDoc = `
steps:
  - url: https://pricing.example.net/price
    result: pricing
`

func TestUpdateHTTPStep(t *testing.T) {
	client := &fakeHTTPClient{result: map[string]any{"total": 1000.0}}
	r := interview.NewRunner(interview.WithHTTPClient(client))

	ic := buildContext(t, httpFlowDoc, nil)
	final, content := runInterview(t, r, ic, nil)
	assert.Nil(t, content)
	assert.Equal(t, map[string]any{"pricing": map[string]any{"total": 1000.0}}, final.State.Data)
	assert.Equal(t, 1, client.calls)
}

func TestUpdateHTTPStepSkipsResolvedResult(t *testing.T) {
	client := &fakeHTTPClient{result: map[string]any{"total": 1000.0}}
	r := interview.NewRunner(interview.WithHTTPClient(client))

	ic := buildContext(t, httpFlowDoc, map[string]any{"pricing": map[string]any{"total": 5.0}})
	final, _ := runInterview(t, r, ic, nil)
	assert.Equal(t, 0, client.calls, "a resolved result pointer skips the request")
	assert.Equal(t, map[string]any{"total": 5.0}, final.State.Data["pricing"])
}

const ensureFlowDoc = `
questions:
  - id: q-age
    fields:
      - type: number
        set: age
        integer: true
steps:
  - ensure: age >= 18
`

func TestUpdateEnsure(t *testing.T) {
	ic := buildContext(t, ensureFlowDoc, nil)
	r := interview.NewRunner()

	final, content := runInterview(t, r, ic, [][]any{{21}})
	assert.Nil(t, content)
	assert.True(t, final.State.Completed)

	ic = buildContext(t, ensureFlowDoc, map[string]any{"age": 10})
	_, _, err := r.Update(context.Background(), ic, nil)
	var ierr *interview.InterviewError
	require.ErrorAs(t, err, &ierr)
}

const subFlowDoc = `
questions:
  - id: q-tier
    title: Tier
    fields:
      - type: select
        set: registration
        options:
          - label: Standard
            value: {tier: standard}
steps:
  - sub: meal
    result: registration.meal
    value: meal_choice
interviews:
  meal:
    questions:
      - id: q-meal
        title: Meal
        fields:
          - type: text
            set: meal_choice
    steps:
      - ask: q-meal
`

func TestUpdateSubInterview(t *testing.T) {
	ic := buildContext(t, subFlowDoc, nil)
	r := interview.NewRunner()

	// The result's parent value is missing, so the question providing it
	// comes first.
	ic, content, err := r.Update(context.Background(), ic, nil)
	require.NoError(t, err)
	ask, ok := content.(*interview.AskContent)
	require.True(t, ok)
	assert.Equal(t, "Tier", ask.Schema["title"])
	require.Nil(t, ic.State.Parent)

	child, content, err := r.Update(context.Background(), ic, map[string]any{"field_0": "1"})
	require.NoError(t, err)
	ask, ok = content.(*interview.AskContent)
	require.True(t, ok)
	assert.Equal(t, "Meal", ask.Schema["title"])
	require.NotNil(t, child.State.Parent, "the ask should come from the nested run")
	assert.Contains(t, child.State.Context, "parent_data")

	final, content, err := r.Update(context.Background(), child, map[string]any{"field_0": "vegetarian"})
	require.NoError(t, err)
	assert.Nil(t, content)
	assert.True(t, final.State.Completed)
	assert.Nil(t, final.State.Parent, "completion should land back in the parent")
	assert.Equal(t, map[string]any{
		"registration": map[string]any{"tier": "standard", "meal": "vegetarian"},
	}, final.State.Data)
}

const subMapFlowDoc = `
steps:
  - sub: meal
    result: meals
    map: "[0, 1]"
    map_var: person
interviews:
  meal:
    questions:
      - id: q-meal
        title: "Meal for guest {{ person }}"
        fields:
          - type: text
            set: meal_choice
    steps:
      - ask: q-meal
`

func TestUpdateSubInterviewMap(t *testing.T) {
	ic := buildContext(t, subMapFlowDoc, nil)
	r := interview.NewRunner()

	final, content := runInterview(t, r, ic, [][]any{{"veg"}, {"fish"}})
	assert.Nil(t, content)
	assert.Equal(t, []any{
		map[string]any{"meal_choice": "veg"},
		map[string]any{"meal_choice": "fish"},
	}, final.State.Data["meals"])
}
