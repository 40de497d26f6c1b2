package logic

import (
	"fmt"
	"strconv"
	"strings"
)

// Template is text with embedded {{ expression }} interpolations. Rendering
// a template whose expressions hit a missing value fails with the
// *UndefinedError for that value, which lets the interview resolver chase
// the question that supplies it.
type Template struct {
	Source string
	parts  []templatePart
}

type templatePart struct {
	text string
	expr *Expression
}

// NewTemplate compiles a template source string.
func NewTemplate(source string) (*Template, error) {
	t := &Template{Source: source}
	rest := source
	for {
		open := strings.Index(rest, "{{")
		if open < 0 {
			if rest != "" {
				t.parts = append(t.parts, templatePart{text: rest})
			}
			return t, nil
		}
		if open > 0 {
			t.parts = append(t.parts, templatePart{text: rest[:open]})
		}
		rest = rest[open+2:]
		close := strings.Index(rest, "}}")
		if close < 0 {
			return nil, fmt.Errorf("invalid template %q: unclosed {{", source)
		}
		expr, err := NewExpression(strings.TrimSpace(rest[:close]))
		if err != nil {
			return nil, fmt.Errorf("invalid template %q: %w", source, err)
		}
		t.parts = append(t.parts, templatePart{expr: expr})
		rest = rest[close+2:]
	}
}

// MustTemplate compiles a template, panicking on error.
func MustTemplate(source string) *Template {
	t, err := NewTemplate(source)
	if err != nil {
		panic(err)
	}
	return t
}

// Render evaluates the template against a context. Forcing an undefined
// value into output returns its *UndefinedError.
func (t *Template) Render(context map[string]any) (string, error) {
	var b strings.Builder
	for _, part := range t.parts {
		if part.expr == nil {
			b.WriteString(part.text)
			continue
		}
		v, err := part.expr.EvaluateStrict(context)
		if err != nil {
			return "", err
		}
		b.WriteString(Stringify(v))
	}
	return b.String(), nil
}

func (t *Template) String() string { return t.Source }

// Stringify converts an expression result to its text form. Null renders
// empty; whole floats render without a fraction.
func Stringify(v any) string {
	switch val := Unwrap(v).(type) {
	case nil:
		return ""
	case string:
		return val
	case bool:
		return strconv.FormatBool(val)
	case float64:
		return strconv.FormatFloat(val, 'f', -1, 64)
	case int:
		return strconv.Itoa(val)
	default:
		return fmt.Sprintf("%v", val)
	}
}
