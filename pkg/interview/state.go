package interview

import (
	"time"

	"github.com/aretw0/parley/pkg/input"
	"github.com/aretw0/parley/pkg/logic"
)

// DefaultExpiration is how long a fresh interview stays valid.
const DefaultExpiration = time.Hour

// ParentRef links a sub-interview back to the interview that started it.
// When the child completes, Result (a pointer into the parent's data)
// receives the child's result and the parent resumes.
type ParentRef struct {
	Context *Context
	Result  logic.Pointer
	Value   *logic.Expression
}

// State is an immutable snapshot of interview progress. Mutating operations
// return a new State; callers never observe partial updates. CurrentQuestion
// is non-nil only while a response is awaited.
type State struct {
	DateStarted time.Time
	DateExpires time.Time
	Target      string
	Parent      *ParentRef

	// Context holds read-only inputs supplied at start; Data is the
	// growing answer set.
	Context map[string]any
	Data    map[string]any

	Completed           bool
	AnsweredQuestionIDs []string
	CurrentQuestion     *input.Question
}

// NewState builds a fresh running state.
func NewState(target string, context, data map[string]any) State {
	started := time.Now()
	if context == nil {
		context = map[string]any{}
	}
	if data == nil {
		data = map[string]any{}
	}
	return State{
		DateStarted: started,
		DateExpires: started.Add(DefaultExpiration),
		Target:      target,
		Context:     context,
		Data:        data,
	}
}

// TemplateContext merges context and data for expression evaluation, with
// data winning on key collision.
func (s State) TemplateContext() map[string]any {
	merged := make(map[string]any, len(s.Context)+len(s.Data))
	for k, v := range s.Context {
		merged[k] = v
	}
	for k, v := range s.Data {
		merged[k] = v
	}
	return merged
}

// Expired reports whether the state is past its expiration.
func (s State) Expired(now time.Time) bool {
	return !now.Before(s.DateExpires)
}

// Answered reports whether a question id has been answered.
func (s State) Answered(id string) bool {
	for _, answered := range s.AnsweredQuestionIDs {
		if answered == id {
			return true
		}
	}
	return false
}

// WithData returns a copy with data replaced.
func (s State) WithData(data map[string]any) State {
	s.Data = data
	return s
}

// WithCompleted returns a copy marked completed.
func (s State) WithCompleted() State {
	s.Completed = true
	return s
}

// WithQuestion returns a copy awaiting the given question.
func (s State) WithQuestion(q *input.Question) State {
	s.CurrentQuestion = q
	return s
}

// WithAnswered returns a copy with id recorded as answered. Recording the
// same id twice is a no-op; the answered set only grows.
func (s State) WithAnswered(id string) State {
	if s.Answered(id) {
		return s
	}
	ids := make([]string, 0, len(s.AnsweredQuestionIDs)+1)
	ids = append(ids, s.AnsweredQuestionIDs...)
	ids = append(ids, id)
	s.AnsweredQuestionIDs = ids
	return s
}
