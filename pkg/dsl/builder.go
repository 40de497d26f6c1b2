package dsl

import (
	"fmt"

	"github.com/aretw0/parley/pkg/input"
	"github.com/aretw0/parley/pkg/interview"
)

// Builder assembles one interview. Questions and steps accumulate in call
// order; Build compiles them through the same decoders the YAML config
// uses, so a built interview behaves and serializes exactly like a loaded
// one.
type Builder struct {
	id        string
	questions []*QuestionBuilder
	StepList
}

// NewInterview creates a builder for an interview with the given id.
func NewInterview(id string) *Builder {
	return &Builder{id: id}
}

// Question adds a question. If the id was already added, the existing
// builder is returned.
func (b *Builder) Question(id string) *QuestionBuilder {
	for _, qb := range b.questions {
		if qb.id == id {
			return qb
		}
	}
	qb := &QuestionBuilder{id: id}
	b.questions = append(b.questions, qb)
	return qb
}

// Build compiles the interview.
func (b *Builder) Build() (*interview.Interview, error) {
	iv := &interview.Interview{
		Questions: make(map[string]*input.QuestionTemplate, len(b.questions)),
	}
	for _, qb := range b.questions {
		tmpl, err := input.DecodeQuestionTemplate(qb.document())
		if err != nil {
			return nil, fmt.Errorf("question %s: %w", qb.id, err)
		}
		iv.Questions[qb.id] = tmpl
		iv.QuestionOrder = append(iv.QuestionOrder, qb.id)
	}

	steps, err := interview.DecodeSteps(b.documents())
	if err != nil {
		return nil, err
	}
	iv.Steps = steps
	return iv, nil
}

// StepList accumulates step documents. It is embedded in Builder and used
// standalone for the bodies of block steps.
type StepList struct {
	steps []*StepBuilder
}

func (l *StepList) add(step *StepBuilder) *StepBuilder {
	l.steps = append(l.steps, step)
	return step
}

func (l *StepList) documents() []any {
	docs := make([]any, len(l.steps))
	for i, s := range l.steps {
		docs[i] = s.document()
	}
	return docs
}

// Ask adds a step that asks the question with the given id.
func (l *StepList) Ask(questionID string) *StepBuilder {
	return l.add(newStep("ask", questionID))
}

// Set adds a step that evaluates value and stores it at the pointer.
func (l *StepList) Set(pointer, value string) *StepBuilder {
	step := newStep("set", pointer)
	step.doc["value"] = value
	return l.add(step)
}

// Exit adds a step that stops the interview with a message.
func (l *StepList) Exit(title string) *StepBuilder {
	return l.add(newStep("exit", title))
}

// Ensure adds a step that fails the interview unless every condition holds.
func (l *StepList) Ensure(conditions ...string) *StepBuilder {
	docs := make([]any, len(conditions))
	for i, c := range conditions {
		docs[i] = c
	}
	return l.add(newStep("ensure", docs))
}

// HTTP adds a step that posts the interview data to url and stores the
// response at the result pointer.
func (l *StepList) HTTP(result, url string) *StepBuilder {
	step := newStep("url", url)
	step.doc["result"] = result
	return l.add(step)
}

// Sub adds a step that runs another interview and stores its result at the
// pointer.
func (l *StepList) Sub(interviewID, result string) *StepBuilder {
	step := newStep("sub", interviewID)
	step.doc["result"] = result
	return l.add(step)
}

// Block adds a step grouping nested steps under one guard. The body is
// built with the passed StepList.
func (l *StepList) Block(body func(*StepList)) *StepBuilder {
	var nested StepList
	body(&nested)
	return l.add(newStep("block", nested.documents()))
}
