package interview

import (
	"bytes"
	"compress/gzip"
	"crypto/md5"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"time"

	"github.com/mitchellh/mapstructure"

	"github.com/aretw0/parley/pkg/input"
	"github.com/aretw0/parley/pkg/logic"
)

// DecodeSteps decodes a step list from its document form.
func DecodeSteps(raw []any) ([]Step, error) {
	steps := make([]Step, 0, len(raw))
	for i, r := range raw {
		step, err := DecodeStep(r)
		if err != nil {
			return nil, fmt.Errorf("step %d: %w", i, err)
		}
		steps = append(steps, step)
	}
	return steps, nil
}

// DecodeStep decodes a single step. The kind is picked by the presence of
// its marker key: block, ask, exit, set, ensure, sub, or url.
func DecodeStep(raw any) (Step, error) {
	m, ok := raw.(map[string]any)
	if !ok {
		return nil, fmt.Errorf("invalid step: %v", raw)
	}
	base, err := decodeStepBase(m)
	if err != nil {
		return nil, err
	}
	switch {
	case hasKey(m, "block"):
		return decodeBlockStep(m, base)
	case hasKey(m, "ask"):
		return decodeAskStep(m, base)
	case hasKey(m, "exit"):
		return decodeExitStep(m, base)
	case hasKey(m, "set"):
		return decodeSetStep(m, base)
	case hasKey(m, "ensure"):
		return decodeEnsureStep(m, base)
	case hasKey(m, "sub"):
		return decodeSubStep(m, base)
	case hasKey(m, "url"):
		return decodeHTTPStep(m, base)
	default:
		return nil, fmt.Errorf("invalid step: %v", m)
	}
}

func hasKey(m map[string]any, key string) bool {
	_, ok := m[key]
	return ok
}

func decodeStepBase(m map[string]any) (stepBase, error) {
	when, err := logic.NewWhen(m["when"])
	if err != nil {
		return stepBase{}, err
	}
	return stepBase{when: when, raw: m}, nil
}

func decodeStrict(raw, out any) error {
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:           out,
		ErrorUnused:      true,
		WeaklyTypedInput: true,
	})
	if err != nil {
		return err
	}
	return dec.Decode(raw)
}

func decodeAskStep(m map[string]any, base stepBase) (Step, error) {
	var dto struct {
		Ask  string `mapstructure:"ask"`
		When any    `mapstructure:"when"`
	}
	if err := decodeStrict(m, &dto); err != nil {
		return nil, err
	}
	return &AskStep{stepBase: base, Ask: dto.Ask}, nil
}

func decodeSetStep(m map[string]any, base stepBase) (Step, error) {
	var dto struct {
		Set   string `mapstructure:"set"`
		Value string `mapstructure:"value"`
		When  any    `mapstructure:"when"`
	}
	if err := decodeStrict(m, &dto); err != nil {
		return nil, err
	}
	ptr, err := logic.Parse(dto.Set)
	if err != nil {
		return nil, err
	}
	value, err := logic.NewExpression(dto.Value)
	if err != nil {
		return nil, err
	}
	return &SetStep{stepBase: base, Set: ptr, Value: value}, nil
}

func decodeExitStep(m map[string]any, base stepBase) (Step, error) {
	var dto struct {
		Exit        string `mapstructure:"exit"`
		Description string `mapstructure:"description"`
		When        any    `mapstructure:"when"`
	}
	if err := decodeStrict(m, &dto); err != nil {
		return nil, err
	}
	title, err := logic.NewTemplate(dto.Exit)
	if err != nil {
		return nil, err
	}
	step := &ExitStep{stepBase: base, Title: title}
	if dto.Description != "" {
		if step.Description, err = logic.NewTemplate(dto.Description); err != nil {
			return nil, err
		}
	}
	return step, nil
}

func decodeEnsureStep(m map[string]any, base stepBase) (Step, error) {
	var dto struct {
		Ensure any `mapstructure:"ensure"`
		When   any `mapstructure:"when"`
	}
	if err := decodeStrict(m, &dto); err != nil {
		return nil, err
	}
	var sources []any
	switch v := dto.Ensure.(type) {
	case []any:
		sources = v
	default:
		sources = []any{v}
	}
	step := &EnsureStep{stepBase: base}
	for _, src := range sources {
		s, ok := src.(string)
		if !ok {
			return nil, fmt.Errorf("ensure requires expression strings, got %v", src)
		}
		expr, err := logic.NewExpression(s)
		if err != nil {
			return nil, err
		}
		step.Exprs = append(step.Exprs, expr)
	}
	return step, nil
}

func decodeHTTPStep(m map[string]any, base stepBase) (Step, error) {
	var dto struct {
		URL    string `mapstructure:"url"`
		Result string `mapstructure:"result"`
		When   any    `mapstructure:"when"`
	}
	if err := decodeStrict(m, &dto); err != nil {
		return nil, err
	}
	ptr, err := logic.Parse(dto.Result)
	if err != nil {
		return nil, err
	}
	return &HTTPStep{stepBase: base, URL: dto.URL, Result: ptr}, nil
}

func decodeBlockStep(m map[string]any, base stepBase) (Step, error) {
	var dto struct {
		Block []any `mapstructure:"block"`
		When  any   `mapstructure:"when"`
	}
	if err := decodeStrict(m, &dto); err != nil {
		return nil, err
	}
	steps, err := DecodeSteps(dto.Block)
	if err != nil {
		return nil, err
	}
	return &BlockStep{stepBase: base, Steps: steps}, nil
}

func decodeSubStep(m map[string]any, base stepBase) (Step, error) {
	var dto struct {
		Sub         string         `mapstructure:"sub"`
		Result      string         `mapstructure:"result"`
		Context     map[string]any `mapstructure:"context"`
		InitialData map[string]any `mapstructure:"initial_data"`
		Value       string         `mapstructure:"value"`
		Map         string         `mapstructure:"map"`
		MapVar      string         `mapstructure:"map_var"`
		When        any            `mapstructure:"when"`
	}
	if err := decodeStrict(m, &dto); err != nil {
		return nil, err
	}
	ptr, err := logic.Parse(dto.Result)
	if err != nil {
		return nil, err
	}
	step := &SubStep{
		stepBase: base,
		Sub:      dto.Sub,
		Result:   ptr,
		MapVar:   dto.MapVar,
	}
	if step.Context, err = decodeValueMap(dto.Context); err != nil {
		return nil, err
	}
	if step.InitialData, err = decodeValueMap(dto.InitialData); err != nil {
		return nil, err
	}
	if dto.Value != "" {
		if step.Value, err = logic.NewExpression(dto.Value); err != nil {
			return nil, err
		}
	}
	if dto.Map != "" {
		if step.Map, err = logic.NewExpression(dto.Map); err != nil {
			return nil, err
		}
	}
	return step, nil
}

// decodeValueMap parses a mapping whose string values are expressions and
// whose other values are literals.
func decodeValueMap(src map[string]any) (map[string]any, error) {
	if len(src) == 0 {
		return nil, nil
	}
	out := make(map[string]any, len(src))
	for k, v := range src {
		s, ok := v.(string)
		if !ok {
			out[k] = v
			continue
		}
		expr, err := logic.NewExpression(s)
		if err != nil {
			return nil, fmt.Errorf("key %s: %w", k, err)
		}
		out[k] = expr
	}
	return out, nil
}

// Persisted document forms. A context is stored as two parts: the state
// part, which changes every update, and the context part holding the
// definitions, which is shared between runs of the same interview. Both
// are content-addressed; the state part references its context part by
// key.

type stateJSON struct {
	DateStarted         time.Time       `json:"date_started"`
	DateExpires         time.Time       `json:"date_expires"`
	Target              string          `json:"target,omitempty"`
	Context             map[string]any  `json:"context"`
	Data                map[string]any  `json:"data"`
	Completed           bool            `json:"completed"`
	AnsweredQuestionIDs []string        `json:"answered_question_ids,omitempty"`
	CurrentQuestion     *input.Question `json:"current_question,omitempty"`
	Parent              *parentJSON     `json:"parent,omitempty"`
}

type parentJSON struct {
	Context contextJSON `json:"context"`
	Result  string      `json:"result"`
	Value   string      `json:"value,omitempty"`
}

type definitionsJSON struct {
	Questions     map[string]map[string]any `json:"questions"`
	QuestionOrder []string                  `json:"question_order"`
	Steps         []map[string]any          `json:"steps"`
	Interviews    map[string]interviewJSON  `json:"interviews,omitempty"`
}

type interviewJSON struct {
	Questions     map[string]map[string]any `json:"questions"`
	QuestionOrder []string                  `json:"question_order"`
	Steps         []map[string]any          `json:"steps"`
}

type contextJSON struct {
	State stateJSON `json:"state"`
	definitionsJSON
}

type statePartJSON struct {
	State      stateJSON `json:"state"`
	ContextKey string    `json:"context_key"`
}

// Parts is a context split into its two persisted blobs, each gzip
// compressed and addressed by the base64 MD5 of its JSON form.
type Parts struct {
	StateKey   string
	ContextKey string
	State      []byte
	Context    []byte
}

// EncodeParts serializes a context for storage.
func EncodeParts(ic *Context) (Parts, error) {
	doc, err := encodeContext(ic)
	if err != nil {
		return Parts{}, err
	}
	contextKey, contextBytes, err := toBytes(doc.definitionsJSON)
	if err != nil {
		return Parts{}, err
	}
	statePart := statePartJSON{State: doc.State, ContextKey: contextKey}
	stateKey, stateBytes, err := toBytes(statePart)
	if err != nil {
		return Parts{}, err
	}
	return Parts{
		StateKey:   stateKey,
		ContextKey: contextKey,
		State:      stateBytes,
		Context:    contextBytes,
	}, nil
}

// ContextKeyFromState reads the context part reference out of a stored
// state blob.
func ContextKeyFromState(stateData []byte) (string, error) {
	raw, err := fromBytes(stateData)
	if err != nil {
		return "", err
	}
	var part struct {
		ContextKey string `json:"context_key"`
	}
	if err := json.Unmarshal(raw, &part); err != nil {
		return "", err
	}
	if part.ContextKey == "" {
		return "", errorf("state part has no context key")
	}
	return part.ContextKey, nil
}

// DecodeParts rebuilds a context from its stored blobs. The path indices
// are rebuilt from the question templates rather than persisted.
func DecodeParts(stateData, contextData []byte) (*Context, error) {
	stateRaw, err := fromBytes(stateData)
	if err != nil {
		return nil, err
	}
	var statePart statePartJSON
	if err := json.Unmarshal(stateRaw, &statePart); err != nil {
		return nil, err
	}
	contextRaw, err := fromBytes(contextData)
	if err != nil {
		return nil, err
	}
	var defs definitionsJSON
	if err := json.Unmarshal(contextRaw, &defs); err != nil {
		return nil, err
	}
	return decodeContext(contextJSON{State: statePart.State, definitionsJSON: defs})
}

func encodeContext(ic *Context) (contextJSON, error) {
	state, err := encodeState(ic.State)
	if err != nil {
		return contextJSON{}, err
	}
	doc := contextJSON{State: state}
	if doc.definitionsJSON, err = encodeDefinitions(ic.Questions, ic.questionOrder, ic.Steps); err != nil {
		return contextJSON{}, err
	}
	if len(ic.Interviews) > 0 {
		doc.Interviews = make(map[string]interviewJSON, len(ic.Interviews))
		for id, iv := range ic.Interviews {
			defs, err := encodeDefinitions(iv.Questions, iv.QuestionOrder, iv.Steps)
			if err != nil {
				return contextJSON{}, fmt.Errorf("interview %s: %w", id, err)
			}
			doc.Interviews[id] = interviewJSON{
				Questions:     defs.Questions,
				QuestionOrder: defs.QuestionOrder,
				Steps:         defs.Steps,
			}
		}
	}
	return doc, nil
}

func encodeDefinitions(questions map[string]*input.QuestionTemplate, order []string, steps []Step) (definitionsJSON, error) {
	defs := definitionsJSON{
		Questions:     make(map[string]map[string]any, len(questions)),
		QuestionOrder: order,
		Steps:         make([]map[string]any, 0, len(steps)),
	}
	for id, tmpl := range questions {
		if tmpl.Raw == nil {
			return definitionsJSON{}, errorf("question %s has no document form", id)
		}
		defs.Questions[id] = tmpl.Raw
	}
	for _, step := range steps {
		defs.Steps = append(defs.Steps, step.Raw())
	}
	return defs, nil
}

func encodeState(state State) (stateJSON, error) {
	doc := stateJSON{
		DateStarted:         state.DateStarted,
		DateExpires:         state.DateExpires,
		Target:              state.Target,
		Context:             state.Context,
		Data:                state.Data,
		Completed:           state.Completed,
		AnsweredQuestionIDs: state.AnsweredQuestionIDs,
		CurrentQuestion:     state.CurrentQuestion,
	}
	if state.Parent != nil {
		parentDoc, err := encodeContext(state.Parent.Context)
		if err != nil {
			return stateJSON{}, err
		}
		doc.Parent = &parentJSON{
			Context: parentDoc,
			Result:  state.Parent.Result.String(),
		}
		if state.Parent.Value != nil {
			doc.Parent.Value = state.Parent.Value.Source
		}
	}
	return doc, nil
}

func decodeContext(doc contextJSON) (*Context, error) {
	questions, err := decodeQuestions(doc.Questions)
	if err != nil {
		return nil, err
	}
	steps, err := decodeRawSteps(doc.Steps)
	if err != nil {
		return nil, err
	}
	interviews := make(map[string]*Interview, len(doc.Interviews))
	for id, iv := range doc.Interviews {
		subQuestions, err := decodeQuestions(iv.Questions)
		if err != nil {
			return nil, fmt.Errorf("interview %s: %w", id, err)
		}
		subSteps, err := decodeRawSteps(iv.Steps)
		if err != nil {
			return nil, fmt.Errorf("interview %s: %w", id, err)
		}
		interviews[id] = &Interview{
			Questions:     subQuestions,
			QuestionOrder: iv.QuestionOrder,
			Steps:         subSteps,
		}
	}
	state, err := decodeState(doc.State)
	if err != nil {
		return nil, err
	}
	return NewContext(questions, doc.QuestionOrder, steps, state, interviews), nil
}

func decodeQuestions(raw map[string]map[string]any) (map[string]*input.QuestionTemplate, error) {
	questions := make(map[string]*input.QuestionTemplate, len(raw))
	for id, r := range raw {
		tmpl, err := input.DecodeQuestionTemplate(r)
		if err != nil {
			return nil, err
		}
		questions[id] = tmpl
	}
	return questions, nil
}

func decodeRawSteps(raw []map[string]any) ([]Step, error) {
	steps := make([]Step, 0, len(raw))
	for i, r := range raw {
		step, err := DecodeStep(r)
		if err != nil {
			return nil, fmt.Errorf("step %d: %w", i, err)
		}
		steps = append(steps, step)
	}
	return steps, nil
}

func decodeState(doc stateJSON) (State, error) {
	state := State{
		DateStarted:         doc.DateStarted,
		DateExpires:         doc.DateExpires,
		Target:              doc.Target,
		Context:             doc.Context,
		Data:                doc.Data,
		Completed:           doc.Completed,
		AnsweredQuestionIDs: doc.AnsweredQuestionIDs,
		CurrentQuestion:     doc.CurrentQuestion,
	}
	if state.Context == nil {
		state.Context = map[string]any{}
	}
	if state.Data == nil {
		state.Data = map[string]any{}
	}
	if doc.Parent != nil {
		parent, err := decodeContext(doc.Parent.Context)
		if err != nil {
			return State{}, err
		}
		result, err := logic.Parse(doc.Parent.Result)
		if err != nil {
			return State{}, err
		}
		ref := &ParentRef{Context: parent, Result: result}
		if doc.Parent.Value != "" {
			if ref.Value, err = logic.NewExpression(doc.Parent.Value); err != nil {
				return State{}, err
			}
		}
		state.Parent = ref
	}
	return state, nil
}

// toBytes marshals v, derives its content key, and compresses it.
func toBytes(v any) (string, []byte, error) {
	raw, err := json.Marshal(v)
	if err != nil {
		return "", nil, err
	}
	sum := md5.Sum(raw)
	key := base64.RawURLEncoding.EncodeToString(sum[:])
	var buf bytes.Buffer
	zw := gzip.NewWriter(&buf)
	if _, err := zw.Write(raw); err != nil {
		return "", nil, err
	}
	if err := zw.Close(); err != nil {
		return "", nil, err
	}
	return key, buf.Bytes(), nil
}

func fromBytes(b []byte) ([]byte, error) {
	zr, err := gzip.NewReader(bytes.NewReader(b))
	if err != nil {
		return nil, err
	}
	defer zr.Close()
	return io.ReadAll(zr)
}
