package interview

import (
	"github.com/aretw0/parley/pkg/logic"
)

// Content is the payload an update hands back to the caller: a question to
// render or an exit message. The kinds form a closed union.
type Content interface {
	ContentType() string
}

// AskContent carries the schema of the question awaiting a response.
type AskContent struct {
	Type   string         `json:"type"`
	Schema map[string]any `json:"schema"`
}

func (AskContent) ContentType() string { return "question" }

func newAskContent(schema map[string]any) *AskContent {
	return &AskContent{Type: "question", Schema: schema}
}

// ExitContent terminates the interview with a message.
type ExitContent struct {
	Type        string `json:"type"`
	Title       string `json:"title"`
	Description string `json:"description,omitempty"`
}

func (ExitContent) ContentType() string { return "exit" }

// Step is one entry in an interview's step list. The concrete kinds form a
// closed union (ask, set, exit, ensure, http, block, sub); the executor
// dispatches over them exhaustively. Steps are immutable configuration.
type Step interface {
	// When returns the step's guard.
	When() logic.When
	// Raw returns the step's document form, used for serialization.
	Raw() map[string]any

	isStep()
}

// stepBase carries the parts shared by every step kind.
type stepBase struct {
	when logic.When
	raw  map[string]any
}

func (b stepBase) When() logic.When    { return b.when }
func (b stepBase) Raw() map[string]any { return b.raw }
func (b stepBase) isStep()             {}

// AskStep presents a question by id. Already-answered ids are skipped.
type AskStep struct {
	stepBase
	Ask string
}

// SetStep writes an expression's value at a pointer, unless the value there
// already equals it.
type SetStep struct {
	stepBase
	Set   logic.Pointer
	Value *logic.Expression
}

// ExitStep ends the interview with a rendered message.
type ExitStep struct {
	stepBase
	Title       *logic.Template
	Description *logic.Template
}

// EnsureStep forces evaluation of one or more expressions so missing values
// are chased even when nothing else references them.
type EnsureStep struct {
	stepBase
	Exprs []*logic.Expression
}

// HTTPStep posts the interview data to a service and stores the JSON
// response at a pointer. It is a no-op when the result is already set.
type HTTPStep struct {
	stepBase
	URL    string
	Result logic.Pointer
}

// BlockStep groups nested steps; a pass short-circuits on the first nested
// state change or content, like the top-level loop.
type BlockStep struct {
	stepBase
	Steps []Step
}

// SubStep starts a nested interview whose result lands at a pointer in the
// parent's data. With Map set, one nested run is started per item until the
// result list is filled.
type SubStep struct {
	stepBase
	Sub         string
	Result      logic.Pointer
	Context     map[string]any
	InitialData map[string]any
	Value       *logic.Expression
	Map         *logic.Expression
	MapVar      string
}
