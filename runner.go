package parley

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"sort"
	"strconv"
	"strings"

	"github.com/aretw0/parley/pkg/input"
	"github.com/aretw0/parley/pkg/interview"
)

// Runner drives an interview interactively using the provided IO. This
// allows for easy testing and integration with different frontends (CLI,
// TUI, etc).
type Runner struct {
	Input  io.Reader
	Output io.Writer
}

// NewRunner creates a new Runner. Input and Output must be set before Run
// (use os.Stdin/os.Stdout for a terminal session).
func NewRunner() *Runner {
	return &Runner{}
}

// Run starts the named interview and loops until it completes, exits, or
// the input reaches EOF. It returns the result for a completed run and nil
// for an exited or abandoned one.
func (r *Runner) Run(ctx context.Context, engine *Engine, interviewID, target string) (*Result, error) {
	if r.Input == nil {
		return nil, fmt.Errorf("input reader must be set (use os.Stdin)")
	}
	if r.Output == nil {
		return nil, fmt.Errorf("output writer must be set (use os.Stdout)")
	}
	lineReader := bufio.NewReader(r.Input)

	key, _, err := engine.Start(ctx, interviewID, target, nil, nil)
	if err != nil {
		return nil, err
	}

	var responses map[string]any
	for {
		nextKey, content, err := engine.Update(ctx, key, responses)
		responses = nil

		var verr *input.ValidationError
		if errors.As(err, &verr) {
			for id, msg := range verr.Fields {
				fmt.Fprintf(r.Output, "invalid %s: %s\n", id, msg)
			}
			// The pending question is unchanged; the next update
			// re-emits it.
			continue
		}
		if err != nil {
			return nil, err
		}
		key = nextKey

		switch c := content.(type) {
		case *interview.AskContent:
			responses, err = r.prompt(lineReader, c.Schema)
			if err == io.EOF {
				return nil, nil
			}
			if err != nil {
				return nil, err
			}
		case *interview.ExitContent:
			fmt.Fprintln(r.Output, c.Title)
			if c.Description != "" {
				fmt.Fprintln(r.Output, c.Description)
			}
			return nil, nil
		case nil:
			return engine.Result(ctx, key)
		}
	}
}

// prompt renders a question schema and reads one response per field.
func (r *Runner) prompt(lineReader *bufio.Reader, schema map[string]any) (map[string]any, error) {
	if title, ok := schema["title"].(string); ok && title != "" {
		fmt.Fprintln(r.Output, title)
	}
	if desc, ok := schema["description"].(string); ok && desc != "" {
		fmt.Fprintln(r.Output, desc)
	}

	properties, _ := schema["properties"].(map[string]any)
	responses := make(map[string]any, len(properties))
	for _, id := range fieldOrder(properties) {
		fieldSchema, _ := properties[id].(map[string]any)
		r.printOptions(fieldSchema)
		fmt.Fprint(r.Output, fieldPrompt(fieldSchema))

		text, err := lineReader.ReadString('\n')
		if err != nil && (err != io.EOF || text == "") {
			return nil, err
		}
		if value := parseLine(strings.TrimSpace(text), fieldSchema); value != nil {
			responses[id] = value
		}
	}
	return responses, nil
}

// fieldOrder sorts field ids by their numeric suffix.
func fieldOrder(properties map[string]any) []string {
	ids := make([]string, 0, len(properties))
	for id := range properties {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool {
		return fieldIndex(ids[i]) < fieldIndex(ids[j])
	})
	return ids
}

func fieldIndex(id string) int {
	n, err := strconv.Atoi(strings.TrimPrefix(id, "field_"))
	if err != nil {
		return 0
	}
	return n
}

// printOptions lists a select field's choices by id.
func (r *Runner) printOptions(fieldSchema map[string]any) {
	oneOf, _ := optionSchemas(fieldSchema)
	for _, raw := range oneOf {
		option, _ := raw.(map[string]any)
		id, ok := option["const"]
		if !ok {
			continue
		}
		if title, ok := option["title"].(string); ok && title != "" {
			fmt.Fprintf(r.Output, "  %v) %s\n", id, title)
		} else {
			fmt.Fprintf(r.Output, "  %v)\n", id)
		}
	}
}

func optionSchemas(fieldSchema map[string]any) ([]any, bool) {
	if oneOf, ok := fieldSchema["oneOf"].([]any); ok {
		return oneOf, true
	}
	if items, ok := fieldSchema["items"].(map[string]any); ok {
		oneOf, ok := items["oneOf"].([]any)
		return oneOf, ok
	}
	return nil, false
}

func fieldPrompt(fieldSchema map[string]any) string {
	if fieldSchema == nil {
		return "> "
	}
	label, _ := fieldSchema["title"].(string)
	if label == "" {
		return "> "
	}
	return label + "> "
}

// parseLine interprets a response line as JSON when possible so numeric and
// boolean answers keep their type; anything else stays a string. Select
// answers are option ids and stay strings. An empty line is no answer.
func parseLine(text string, fieldSchema map[string]any) any {
	if text == "" {
		return nil
	}
	if fieldSchema["x-type"] == "select" {
		// A JSON list answers a multi-select; anything else is one
		// option id.
		var list []any
		if err := json.Unmarshal([]byte(text), &list); err == nil {
			return list
		}
		return text
	}
	var value any
	if err := json.Unmarshal([]byte(text), &value); err == nil {
		return value
	}
	return text
}
