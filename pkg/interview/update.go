package interview

import (
	"context"
	"log/slog"

	"github.com/aretw0/parley/internal/logging"
	"github.com/aretw0/parley/pkg/logic"
)

// MaxUpdateCount bounds the passes one update may run. Exceeding it means
// the document oscillates without completing and is a fatal error.
const MaxUpdateCount = 100

// Runner drives interview updates. It is stateless and safe for concurrent
// use across interviews.
type Runner struct {
	http      HTTPClient
	logger    *slog.Logger
	maxPasses int
}

// RunnerOption configures a Runner.
type RunnerOption func(*Runner)

// WithHTTPClient sets the client used by http steps.
func WithHTTPClient(client HTTPClient) RunnerOption {
	return func(r *Runner) {
		r.http = client
	}
}

// WithLogger sets the runner's logger.
func WithLogger(logger *slog.Logger) RunnerOption {
	return func(r *Runner) {
		r.logger = logger
	}
}

// NewRunner creates a Runner.
func NewRunner(opts ...RunnerOption) *Runner {
	r := &Runner{
		http:      NewHTTPClient(),
		logger:    logging.NewNop(),
		maxPasses: MaxUpdateCount,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Update advances an interview. Responses answer the pending question, if
// any; passing none while a question is pending re-emits the same question
// without running any steps. The returned content is the next question, an
// exit message, or nil when the interview completed.
func (r *Runner) Update(ctx context.Context, ic *Context, responses map[string]any) (*Context, Content, error) {
	if ic.State.CurrentQuestion != nil {
		if len(responses) == 0 {
			return ic, newAskContent(ic.State.CurrentQuestion.Schema()), nil
		}
		state, err := applyResponses(ic.State, responses)
		if err != nil {
			return nil, nil, err
		}
		ic = ic.WithState(state)
	}

	for pass := 0; pass < r.maxPasses; pass++ {
		next, content, err := r.runPass(ctx, ic)
		if err != nil {
			return nil, nil, err
		}
		if content != nil {
			return next, content, nil
		}
		if next.State.Completed {
			if next.State.Parent != nil {
				resumed, err := resumeParent(next)
				if err != nil {
					return nil, nil, err
				}
				ic = resumed
				continue
			}
			return next, nil, nil
		}
		ic = next
	}
	return nil, nil, errorf("max update count exceeded")
}

// applyResponses parses the pending question's responses, merges the
// answers into data, records the question as answered, and clears it.
func applyResponses(state State, responses map[string]any) (State, error) {
	q := state.CurrentQuestion
	answers, err := q.Parse(responses)
	if err != nil {
		return State{}, err
	}
	data := state.Data
	for _, answer := range answers {
		data, err = answer.Target.Set(data, answer.Value)
		if err != nil {
			return State{}, err
		}
	}
	state = state.WithData(data)
	state.CurrentQuestion = nil
	return state.WithAnswered(q.ID), nil
}

// runPass runs the top-level steps once. It ends early at the first step
// that changes state or produces content; a full pass with neither marks
// the state completed. A missing value surfacing anywhere in the pass is
// handed to the resolver, which turns it into the next question to ask.
func (r *Runner) runPass(ctx context.Context, ic *Context) (*Context, Content, error) {
	next, content, err := r.runSteps(ctx, ic, ic.Steps)
	if err == nil {
		if content == nil && next == ic {
			return ic.WithState(ic.State.WithCompleted()), nil, nil
		}
		return next, content, nil
	}

	path, ok := logic.UndefinedPath(err)
	if !ok {
		return nil, nil, err
	}
	id, question, rerr := resolveQuestion(path, ic, nil)
	if rerr != nil {
		return nil, nil, rerr
	}
	r.logger.Debug("asking question for missing value",
		"question", id, "path", path.Pointer().String())
	state := ic.State.WithQuestion(question)
	return ic.WithState(state), newAskContent(question.Schema()), nil
}

// runSteps executes steps in order against ic, short-circuiting on the
// first state change or content. It returns ic itself when nothing
// changed.
func (r *Runner) runSteps(ctx context.Context, ic *Context, steps []Step) (*Context, Content, error) {
	for _, step := range steps {
		tmplCtx := ic.State.TemplateContext()
		applies, err := step.When().Eval(tmplCtx)
		if err != nil {
			return nil, nil, err
		}
		if !applies {
			continue
		}
		next, content, err := r.runStep(ctx, ic, step)
		if err != nil {
			return nil, nil, err
		}
		if content != nil || next != ic {
			return next, content, nil
		}
	}
	return ic, nil, nil
}

// runStep dispatches over the closed step union.
func (r *Runner) runStep(ctx context.Context, ic *Context, step Step) (*Context, Content, error) {
	switch s := step.(type) {
	case *AskStep:
		return runAsk(ic, s)
	case *SetStep:
		return runSet(ic, s)
	case *ExitStep:
		return runExit(ic, s)
	case *EnsureStep:
		return runEnsure(ic, s)
	case *HTTPStep:
		return r.runHTTP(ctx, ic, s)
	case *BlockStep:
		return r.runSteps(ctx, ic, s.Steps)
	case *SubStep:
		return runSub(ic, s)
	default:
		return nil, nil, errorf("unhandled step kind %T", step)
	}
}

func runAsk(ic *Context, s *AskStep) (*Context, Content, error) {
	if ic.State.Answered(s.Ask) {
		return ic, nil, nil
	}
	tmpl := ic.Questions[s.Ask]
	if tmpl == nil {
		return nil, nil, errorf("no question with id %q", s.Ask)
	}
	question, err := tmpl.GetQuestion(ic.State.TemplateContext())
	if err != nil {
		return nil, nil, err
	}
	state := ic.State.WithQuestion(question)
	return ic.WithState(state), newAskContent(question.Schema()), nil
}

func runSet(ic *Context, s *SetStep) (*Context, Content, error) {
	tmplCtx := ic.State.TemplateContext()
	value, err := s.Value.EvaluateStrict(tmplCtx)
	if err != nil {
		return nil, nil, err
	}
	current, err := s.Set.Evaluate(tmplCtx)
	if err == nil {
		if logic.Equal(current, value) {
			return ic, nil, nil
		}
	} else if _, isLookup := logic.UndefinedPath(err); !isLookup {
		return nil, nil, err
	}
	// Set reports a missing parent as a lookup error, which the update
	// loop resolves into the question providing it.
	data, err := s.Set.Set(ic.State.Data, value)
	if err != nil {
		return nil, nil, err
	}
	return ic.WithState(ic.State.WithData(data)), nil, nil
}

func runExit(ic *Context, s *ExitStep) (*Context, Content, error) {
	tmplCtx := ic.State.TemplateContext()
	title, err := s.Title.Render(tmplCtx)
	if err != nil {
		return nil, nil, err
	}
	content := &ExitContent{Type: "exit", Title: title}
	if s.Description != nil {
		desc, err := s.Description.Render(tmplCtx)
		if err != nil {
			return nil, nil, err
		}
		content.Description = desc
	}
	return ic, content, nil
}

func runEnsure(ic *Context, s *EnsureStep) (*Context, Content, error) {
	tmplCtx := ic.State.TemplateContext()
	for _, expr := range s.Exprs {
		v, err := expr.EvaluateStrict(tmplCtx)
		if err != nil {
			return nil, nil, err
		}
		if !logic.Truthy(v) {
			return nil, nil, errorf("condition %q not satisfied", expr.Source)
		}
	}
	return ic, nil, nil
}

func (r *Runner) runHTTP(ctx context.Context, ic *Context, s *HTTPStep) (*Context, Content, error) {
	tmplCtx := ic.State.TemplateContext()
	if _, err := s.Result.Evaluate(tmplCtx); err == nil {
		// result already present
		return ic, nil, nil
	} else if _, isLookup := logic.UndefinedPath(err); !isLookup {
		return nil, nil, err
	}
	body := map[string]any{
		"data":    ic.State.Data,
		"context": ic.State.Context,
	}
	result, err := r.http.PostJSON(ctx, s.URL, body)
	if err != nil {
		return nil, nil, err
	}
	data, err := s.Result.Set(ic.State.Data, result)
	if err != nil {
		return nil, nil, err
	}
	return ic.WithState(ic.State.WithData(data)), nil, nil
}

func runSub(ic *Context, s *SubStep) (*Context, Content, error) {
	tmplCtx := ic.State.TemplateContext()
	if s.Map != nil {
		return runSubMap(ic, s, tmplCtx)
	}
	set, err := pointerSet(s.Result, tmplCtx)
	if err != nil {
		return nil, nil, err
	}
	if set {
		return ic, nil, nil
	}
	return startSub(ic, s, tmplCtx, nil)
}

// runSubMap fills the result list one nested interview at a time: the
// first item without a value starts a run; when every item has one the
// step is a no-op.
func runSubMap(ic *Context, s *SubStep, tmplCtx map[string]any) (*Context, Content, error) {
	set, err := pointerSet(s.Result, tmplCtx)
	if err != nil {
		return nil, nil, err
	}
	if !set {
		data, err := s.Result.Set(ic.State.Data, []any{})
		if err != nil {
			return nil, nil, err
		}
		ic = ic.WithState(ic.State.WithData(data))
		tmplCtx = ic.State.TemplateContext()
	}
	rawItems, err := s.Map.EvaluateStrict(tmplCtx)
	if err != nil {
		return nil, nil, err
	}
	items, ok := logic.Unwrap(rawItems).([]any)
	if !ok {
		return nil, nil, errorf("sub-interview map must be a sequence")
	}
	for _, item := range items {
		ptr, err := itemPointer(s.Result, item)
		if err != nil {
			return nil, nil, err
		}
		v, evalErr := ptr.Evaluate(tmplCtx)
		if evalErr == nil && logic.Unwrap(v) != nil {
			continue
		}
		return startSub(ic, s, tmplCtx, item)
	}
	return ic, nil, nil
}

func startSub(ic *Context, s *SubStep, tmplCtx map[string]any, item any) (*Context, Content, error) {
	sub := ic.Interviews[s.Sub]
	if sub == nil {
		return nil, nil, errorf("no interview with id %q", s.Sub)
	}
	childContext := map[string]any{
		"parent_context": ic.State.Context,
		"parent_data":    ic.State.Data,
	}
	if err := evalValueMap(s.Context, tmplCtx, childContext); err != nil {
		return nil, nil, err
	}
	childData := map[string]any{}
	if err := evalValueMap(s.InitialData, tmplCtx, childData); err != nil {
		return nil, nil, err
	}
	if s.MapVar != "" {
		childContext[s.MapVar] = item
	}
	resultPtr := s.Result
	if item != nil {
		ptr, err := itemPointer(s.Result, item)
		if err != nil {
			return nil, nil, err
		}
		resultPtr = ptr
	}
	state := State{
		DateStarted: ic.State.DateStarted,
		DateExpires: ic.State.DateExpires,
		Context:     childContext,
		Data:        childData,
		Parent: &ParentRef{
			Context: ic,
			Result:  resultPtr,
			Value:   s.Value,
		},
	}
	child := NewContext(sub.Questions, sub.QuestionOrder, sub.Steps, state, ic.Interviews)
	return child, nil, nil
}

// resumeParent writes a completed sub-interview's result into its parent
// and returns the parent context, ready to continue.
func resumeParent(child *Context) (*Context, error) {
	ref := child.State.Parent
	var result any
	if ref.Value != nil {
		v, err := ref.Value.EvaluateStrict(child.State.TemplateContext())
		if err != nil {
			return nil, err
		}
		result = logic.Unwrap(v)
	} else {
		result = child.State.Data
	}
	parent := ref.Context
	data, err := ref.Result.Set(parent.State.Data, result)
	if err != nil {
		return nil, err
	}
	return parent.WithState(parent.State.WithData(data)), nil
}

// pointerSet reports whether a pointer resolves to a non-null value. Only
// the value itself being absent counts as unset; a missing parent or index
// value is an error, so the caller's lookup failure reaches the resolver
// before a nested run starts against a target that cannot be written.
func pointerSet(p logic.Pointer, tmplCtx map[string]any) (bool, error) {
	v, err := p.Evaluate(tmplCtx)
	if err == nil {
		return logic.Unwrap(v) != nil, nil
	}
	if path, isLookup := logic.UndefinedPath(err); isLookup && len(path) == len(p.Path()) {
		return false, nil
	}
	return false, err
}

// itemPointer extends a pointer with a map item as its final segment.
func itemPointer(p logic.Pointer, item any) (logic.Pointer, error) {
	segments := make([]logic.Segment, 0, len(p.Segments)+1)
	segments = append(segments, p.Segments...)
	switch v := logic.Unwrap(item).(type) {
	case string:
		segments = append(segments, logic.KeySegment(v))
	case int:
		segments = append(segments, logic.IndexSegment(v))
	case float64:
		segments = append(segments, logic.IndexSegment(int(v)))
	default:
		return logic.Pointer{}, errorf("sub-interview map items must be strings or integers, got %T", item)
	}
	return logic.Pointer{Name: p.Name, Segments: segments}, nil
}

// evalValueMap evaluates a step's key/value configuration into dst. String
// values are expressions; everything else is taken literally.
func evalValueMap(src map[string]any, tmplCtx map[string]any, dst map[string]any) error {
	for k, v := range src {
		expr, ok := v.(*logic.Expression)
		if !ok {
			dst[k] = v
			continue
		}
		value, err := expr.EvaluateStrict(tmplCtx)
		if err != nil {
			return err
		}
		dst[k] = logic.Unwrap(value)
	}
	return nil
}
