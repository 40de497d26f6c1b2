package interview

import (
	"github.com/aretw0/parley/pkg/input"
	"github.com/aretw0/parley/pkg/logic"
)

// Interview is a loaded interview definition: its question templates keyed
// by id, the ids in document order, and its top-level steps.
type Interview struct {
	Questions     map[string]*input.QuestionTemplate
	QuestionOrder []string
	Steps         []Step
}

// indirectEntry is one question target whose concrete path depends on the
// evaluation context.
type indirectEntry struct {
	id      string
	pointer logic.Pointer
}

// Context is everything an update needs: the current state plus the
// immutable definitions in scope. The path indices are derived from the
// question templates and rebuilt on deserialization.
type Context struct {
	State     State
	Questions map[string]*input.QuestionTemplate
	Steps     []Step

	// pathIndex maps a canonical provided-pointer string to the ids of
	// the questions that can populate it, in document order.
	// indirectIndex maps the longest literal prefix of an indirect
	// target to its candidate entries.
	pathIndex     map[string][]string
	indirectIndex map[string][]indirectEntry
	questionOrder []string

	// Interviews carries every registered interview so sub-interview
	// steps can start nested runs.
	Interviews map[string]*Interview
}

// NewContext assembles a Context and builds the provided-path indices.
func NewContext(questions map[string]*input.QuestionTemplate, order []string, steps []Step, state State, interviews map[string]*Interview) *Context {
	ic := &Context{
		State:         state,
		Questions:     questions,
		Steps:         steps,
		Interviews:    interviews,
		questionOrder: order,
		pathIndex:     make(map[string][]string),
		indirectIndex: make(map[string][]indirectEntry),
	}
	for _, id := range order {
		tmpl := questions[id]
		if tmpl == nil {
			continue
		}
		for _, provided := range tmpl.Provides() {
			ic.pathIndex[provided] = append(ic.pathIndex[provided], id)
		}
		for _, ptr := range tmpl.ProvidesIndirect() {
			prefix := literalPrefix(ptr)
			ic.indirectIndex[prefix] = append(ic.indirectIndex[prefix], indirectEntry{id: id, pointer: ptr})
		}
	}
	return ic
}

// WithState returns a copy with the state replaced; indices are shared.
func (ic *Context) WithState(state State) *Context {
	copied := *ic
	copied.State = state
	return &copied
}

// literalPrefix returns the canonical string of the pointer's leading
// literal segments, up to the first indirect one.
func literalPrefix(p logic.Pointer) string {
	prefix := logic.Pointer{Name: p.Name}
	for _, seg := range p.Segments {
		if _, indirect := seg.(logic.PointerSegment); indirect {
			break
		}
		prefix.Segments = append(prefix.Segments, seg)
	}
	return prefix.String()
}
