package input

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/aretw0/parley/pkg/logic"
)

// DefaultTextMaxLen is the default maximum text length.
const DefaultTextMaxLen = 300

// TextFieldTemplate is the declarative definition of a text input.
type TextFieldTemplate struct {
	Set          *logic.Pointer
	Label        *logic.Template
	IsOptional   bool
	Default      string
	DefaultExpr  *logic.Expression
	Min          int
	Max          int
	Pattern      string
	PatternJS    string
	Format       string
	InputMode    string
	Autocomplete string
}

func (t *TextFieldTemplate) FieldType() string      { return "text" }
func (t *TextFieldTemplate) Target() *logic.Pointer { return t.Set }
func (t *TextFieldTemplate) Optional() bool         { return t.IsOptional }

// GetField materializes the template against a context.
func (t *TextFieldTemplate) GetField(ctx map[string]any) (Field, error) {
	min, max := t.Min, t.Max
	if min == 0 && !t.IsOptional {
		min = 1
	}
	if max == 0 {
		max = DefaultTextMaxLen
	}
	f := &TextField{
		Opt:     t.IsOptional,
		Min:     min,
		Max:     max,
		Pattern: t.Pattern,
		Format:  t.Format,
	}
	if t.Pattern != "" {
		re, err := regexp.Compile(t.Pattern)
		if err != nil {
			return nil, fmt.Errorf("invalid pattern %q: %w", t.Pattern, err)
		}
		f.re = re
	}
	schema, err := t.getSchema(ctx, min, max)
	if err != nil {
		return nil, err
	}
	f.SchemaFragment = schema
	return f, nil
}

func (t *TextFieldTemplate) getSchema(ctx map[string]any, min, max int) (map[string]any, error) {
	schema := map[string]any{
		"x-type":    "text",
		"minLength": min,
		"maxLength": max,
	}
	if t.IsOptional {
		schema["type"] = []any{"string", "null"}
	} else {
		schema["type"] = "string"
	}
	if err := applyLabel(schema, t.Label, ctx); err != nil {
		return nil, err
	}
	if t.DefaultExpr != nil {
		v, err := t.DefaultExpr.EvaluateStrict(ctx)
		if err != nil {
			return nil, err
		}
		schema["default"] = logic.Unwrap(v)
	} else if t.Default != "" {
		schema["default"] = t.Default
	}
	if pattern := firstNonEmpty(t.PatternJS, t.Pattern); pattern != "" {
		schema["pattern"] = pattern
	}
	if t.Format == TextFormatEmail {
		schema["format"] = "email"
	}
	if t.InputMode != "" {
		schema["x-inputMode"] = t.InputMode
	}
	if t.Autocomplete != "" {
		schema["x-autoComplete"] = t.Autocomplete
	}
	return schema, nil
}

// TextFormatEmail enables email syntax and domain checks.
const TextFormatEmail = "email"

// TextField is a materialized text field.
type TextField struct {
	Opt            bool
	Min            int
	Max            int
	Pattern        string
	Format         string
	SchemaFragment map[string]any

	re *regexp.Regexp
}

func (f *TextField) FieldType() string      { return "text" }
func (f *TextField) Optional() bool         { return f.Opt }
func (f *TextField) Schema() map[string]any { return f.SchemaFragment }

func (f *TextField) Validators() []Validator {
	isString := func(v any) bool { _, ok := v.(string); return ok }
	validators := []Validator{
		typeCheck(f.Opt, isString, "a string"),
		f.strip,
		coerceEmptyToNull,
		f.validateLength,
	}
	if f.Pattern != "" {
		validators = append(validators, f.validatePattern)
	}
	if f.Format == TextFormatEmail {
		validators = append(validators, validateEmail, validateEmailDomain)
	}
	// run the type check again in case the value was coerced to null
	validators = append(validators, typeCheck(f.Opt, isString, "a string"))
	return validators
}

func (f *TextField) strip(value any) (any, error) {
	if s, ok := value.(string); ok {
		return strings.TrimSpace(s), nil
	}
	return value, nil
}

func coerceEmptyToNull(value any) (any, error) {
	if s, ok := value.(string); ok && s == "" {
		return nil, nil
	}
	return value, nil
}

func (f *TextField) validateLength(value any) (any, error) {
	s, ok := value.(string)
	if !ok {
		return value, nil
	}
	if f.Min > 0 && len(s) < f.Min {
		return nil, fmt.Errorf("must be at least %d characters", f.Min)
	}
	if f.Max > 0 && len(s) > f.Max {
		return nil, fmt.Errorf("must be at most %d characters", f.Max)
	}
	return s, nil
}

func (f *TextField) validatePattern(value any) (any, error) {
	s, ok := value.(string)
	if !ok {
		return value, nil
	}
	if f.re == nil {
		re, err := regexp.Compile(f.Pattern)
		if err != nil {
			return nil, fmt.Errorf("invalid value")
		}
		f.re = re
	}
	if !f.re.MatchString(s) {
		return nil, fmt.Errorf("invalid value")
	}
	return s, nil
}

var emailRe = regexp.MustCompile(`^[^@\s]+@[^@\s]+$`)

func validateEmail(value any) (any, error) {
	s, ok := value.(string)
	if !ok {
		return value, nil
	}
	if !emailRe.MatchString(s) {
		return nil, fmt.Errorf("invalid email")
	}
	return s, nil
}

// validateEmailDomain applies a cheap deliverability heuristic: the domain
// must have at least one dot and an alphabetic final label of two or more
// characters. Some downstream payment services reject unknown suffixes long
// after the user typed their address, so catching the obvious cases here is
// better UX than failing later.
func validateEmailDomain(value any) (any, error) {
	s, ok := value.(string)
	if !ok {
		return value, nil
	}
	at := strings.LastIndex(s, "@")
	domain := s[at+1:]
	dot := strings.LastIndex(domain, ".")
	if dot <= 0 || dot == len(domain)-1 {
		return nil, fmt.Errorf("invalid email")
	}
	suffix := domain[dot+1:]
	if len(suffix) < 2 {
		return nil, fmt.Errorf("invalid email")
	}
	for _, c := range suffix {
		if c < 'a' || c > 'z' {
			if c < 'A' || c > 'Z' {
				return nil, fmt.Errorf("invalid email")
			}
		}
	}
	return s, nil
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}

func applyLabel(schema map[string]any, label *logic.Template, ctx map[string]any) error {
	if label == nil {
		return nil
	}
	title, err := label.Render(ctx)
	if err != nil {
		return err
	}
	if title != "" {
		schema["title"] = title
	}
	return nil
}
