package input

import (
	"encoding/json"
	"fmt"

	"github.com/aretw0/parley/pkg/logic"
	"github.com/mitchellh/mapstructure"
)

// DecodeFieldTemplate builds a field template from a decoded config value
// (e.g. a YAML mapping). The "type" key selects the field kind.
func DecodeFieldTemplate(raw any) (FieldTemplate, error) {
	m, ok := raw.(map[string]any)
	if !ok {
		return nil, fmt.Errorf("invalid field config: %v", raw)
	}
	fieldType, _ := m["type"].(string)
	switch fieldType {
	case "text":
		return decodeTextTemplate(m)
	case "number":
		return decodeNumberTemplate(m)
	case "date":
		return decodeDateTemplate(m)
	case "select":
		return decodeSelectTemplate(m)
	case "button":
		return decodeButtonTemplate(m)
	case "":
		return nil, fmt.Errorf("missing field type: %v", raw)
	default:
		return nil, fmt.Errorf("no such field type: %s", fieldType)
	}
}

// DecodeQuestionTemplate builds a question template from a decoded config
// value.
func DecodeQuestionTemplate(raw any) (*QuestionTemplate, error) {
	var dto struct {
		ID          string `mapstructure:"id"`
		Title       string `mapstructure:"title"`
		Description string `mapstructure:"description"`
		Fields      []any  `mapstructure:"fields"`
		When        any    `mapstructure:"when"`
	}
	if err := decodeStrict(raw, &dto); err != nil {
		return nil, err
	}
	if dto.ID == "" {
		return nil, fmt.Errorf("question is missing an id")
	}
	t := &QuestionTemplate{ID: dto.ID}
	if m, ok := raw.(map[string]any); ok {
		t.Raw = m
	}
	var err error
	if t.Title, err = optionalTemplate(dto.Title); err != nil {
		return nil, fmt.Errorf("question %s: %w", dto.ID, err)
	}
	if t.Description, err = optionalTemplate(dto.Description); err != nil {
		return nil, fmt.Errorf("question %s: %w", dto.ID, err)
	}
	if t.When, err = logic.NewWhen(dto.When); err != nil {
		return nil, fmt.Errorf("question %s: %w", dto.ID, err)
	}
	for i, rawField := range dto.Fields {
		field, err := DecodeFieldTemplate(rawField)
		if err != nil {
			return nil, fmt.Errorf("question %s, field %d: %w", dto.ID, i, err)
		}
		t.Fields = append(t.Fields, field)
	}
	return t, nil
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

func optionalTemplate(source string) (*logic.Template, error) {
	if source == "" {
		return nil, nil
	}
	return logic.NewTemplate(source)
}

func optionalExpression(source string) (*logic.Expression, error) {
	if source == "" {
		return nil, nil
	}
	return logic.NewExpression(source)
}

func optionalPointer(source string) (*logic.Pointer, error) {
	if source == "" {
		return nil, nil
	}
	p, err := logic.Parse(source)
	if err != nil {
		return nil, err
	}
	return &p, nil
}

type textTemplateDTO struct {
	Type         string `mapstructure:"type"`
	Set          string `mapstructure:"set"`
	Label        string `mapstructure:"label"`
	Optional     bool   `mapstructure:"optional"`
	Default      string `mapstructure:"default"`
	DefaultExpr  string `mapstructure:"default_expr"`
	Min          *int   `mapstructure:"min"`
	Max          *int   `mapstructure:"max"`
	Regex        string `mapstructure:"regex"`
	RegexJS      string `mapstructure:"regex_js"`
	Format       string `mapstructure:"format"`
	InputMode    string `mapstructure:"input_mode"`
	Autocomplete string `mapstructure:"autocomplete"`
}

func decodeTextTemplate(raw map[string]any) (FieldTemplate, error) {
	var dto textTemplateDTO
	if err := decodeStrict(raw, &dto); err != nil {
		return nil, err
	}
	t := &TextFieldTemplate{
		IsOptional:   dto.Optional,
		Default:      dto.Default,
		Pattern:      dto.Regex,
		PatternJS:    dto.RegexJS,
		Format:       dto.Format,
		InputMode:    dto.InputMode,
		Autocomplete: dto.Autocomplete,
	}
	if dto.Min != nil {
		t.Min = *dto.Min
	}
	if dto.Max != nil {
		t.Max = *dto.Max
	}
	var err error
	if t.Set, err = optionalPointer(dto.Set); err != nil {
		return nil, err
	}
	if t.Label, err = optionalTemplate(dto.Label); err != nil {
		return nil, err
	}
	if t.DefaultExpr, err = optionalExpression(dto.DefaultExpr); err != nil {
		return nil, err
	}
	return t, nil
}

type numberTemplateDTO struct {
	Type         string   `mapstructure:"type"`
	Set          string   `mapstructure:"set"`
	Label        string   `mapstructure:"label"`
	Optional     bool     `mapstructure:"optional"`
	Default      *float64 `mapstructure:"default"`
	DefaultExpr  string   `mapstructure:"default_expr"`
	Min          *float64 `mapstructure:"min"`
	Max          *float64 `mapstructure:"max"`
	MinExpr      string   `mapstructure:"min_expr"`
	MaxExpr      string   `mapstructure:"max_expr"`
	Integer      bool     `mapstructure:"integer"`
	InputMode    string   `mapstructure:"input_mode"`
	Autocomplete string   `mapstructure:"autocomplete"`
}

func decodeNumberTemplate(raw map[string]any) (FieldTemplate, error) {
	var dto numberTemplateDTO
	if err := decodeStrict(raw, &dto); err != nil {
		return nil, err
	}
	t := &NumberFieldTemplate{
		IsOptional:   dto.Optional,
		Default:      dto.Default,
		Min:          dto.Min,
		Max:          dto.Max,
		Integer:      dto.Integer,
		InputMode:    dto.InputMode,
		Autocomplete: dto.Autocomplete,
	}
	var err error
	if t.Set, err = optionalPointer(dto.Set); err != nil {
		return nil, err
	}
	if t.Label, err = optionalTemplate(dto.Label); err != nil {
		return nil, err
	}
	if t.DefaultExpr, err = optionalExpression(dto.DefaultExpr); err != nil {
		return nil, err
	}
	if t.MinExpr, err = optionalExpression(dto.MinExpr); err != nil {
		return nil, err
	}
	if t.MaxExpr, err = optionalExpression(dto.MaxExpr); err != nil {
		return nil, err
	}
	return t, nil
}

type dateTemplateDTO struct {
	Type         string `mapstructure:"type"`
	Set          string `mapstructure:"set"`
	Label        string `mapstructure:"label"`
	Optional     bool   `mapstructure:"optional"`
	Default      string `mapstructure:"default"`
	DefaultExpr  string `mapstructure:"default_expr"`
	Min          string `mapstructure:"min"`
	Max          string `mapstructure:"max"`
	MinExpr      string `mapstructure:"min_expr"`
	MaxExpr      string `mapstructure:"max_expr"`
	InputMode    string `mapstructure:"input_mode"`
	Autocomplete string `mapstructure:"autocomplete"`
}

func decodeDateTemplate(raw map[string]any) (FieldTemplate, error) {
	var dto dateTemplateDTO
	if err := decodeStrict(raw, &dto); err != nil {
		return nil, err
	}
	t := &DateFieldTemplate{
		IsOptional:   dto.Optional,
		Default:      dto.Default,
		Min:          dto.Min,
		Max:          dto.Max,
		InputMode:    dto.InputMode,
		Autocomplete: dto.Autocomplete,
	}
	var err error
	if t.Set, err = optionalPointer(dto.Set); err != nil {
		return nil, err
	}
	if t.Label, err = optionalTemplate(dto.Label); err != nil {
		return nil, err
	}
	if t.DefaultExpr, err = optionalExpression(dto.DefaultExpr); err != nil {
		return nil, err
	}
	if t.MinExpr, err = optionalExpression(dto.MinExpr); err != nil {
		return nil, err
	}
	if t.MaxExpr, err = optionalExpression(dto.MaxExpr); err != nil {
		return nil, err
	}
	return t, nil
}

type selectOptionDTO struct {
	ID        string `mapstructure:"id"`
	Label     string `mapstructure:"label"`
	Value     any    `mapstructure:"value"`
	ValueExpr string `mapstructure:"value_expr"`
	Default   bool   `mapstructure:"default"`
	Primary   bool   `mapstructure:"primary"`
	When      any    `mapstructure:"when"`
}

func decodeOptionTemplates(raw []any) ([]SelectOptionTemplate, error) {
	out := make([]SelectOptionTemplate, 0, len(raw))
	for i, rawOpt := range raw {
		var dto selectOptionDTO
		if err := decodeStrict(rawOpt, &dto); err != nil {
			return nil, fmt.Errorf("option %d: %w", i, err)
		}
		opt := SelectOptionTemplate{
			ID:      dto.ID,
			Value:   dto.Value,
			Default: dto.Default,
			Primary: dto.Primary,
		}
		var err error
		if opt.Label, err = optionalTemplate(dto.Label); err != nil {
			return nil, fmt.Errorf("option %d: %w", i, err)
		}
		if opt.ValueExpr, err = optionalExpression(dto.ValueExpr); err != nil {
			return nil, fmt.Errorf("option %d: %w", i, err)
		}
		if opt.When, err = logic.NewWhen(dto.When); err != nil {
			return nil, fmt.Errorf("option %d: %w", i, err)
		}
		out = append(out, opt)
	}
	return out, nil
}

type selectTemplateDTO struct {
	Type         string `mapstructure:"type"`
	Set          string `mapstructure:"set"`
	Label        string `mapstructure:"label"`
	Component    string `mapstructure:"component"`
	Options      []any  `mapstructure:"options"`
	Min          int    `mapstructure:"min"`
	Max          int    `mapstructure:"max"`
	Autocomplete string `mapstructure:"autocomplete"`
}

func decodeSelectTemplate(raw map[string]any) (FieldTemplate, error) {
	var dto selectTemplateDTO
	if err := decodeStrict(raw, &dto); err != nil {
		return nil, err
	}
	t := &SelectFieldTemplate{
		Component:    dto.Component,
		Min:          dto.Min,
		Max:          dto.Max,
		Autocomplete: dto.Autocomplete,
	}
	var err error
	if t.Set, err = optionalPointer(dto.Set); err != nil {
		return nil, err
	}
	if t.Label, err = optionalTemplate(dto.Label); err != nil {
		return nil, err
	}
	if t.Options, err = decodeOptionTemplates(dto.Options); err != nil {
		return nil, err
	}
	return t, nil
}

type buttonTemplateDTO struct {
	Type    string `mapstructure:"type"`
	Set     string `mapstructure:"set"`
	Label   string `mapstructure:"label"`
	Options []any  `mapstructure:"options"`
}

func decodeButtonTemplate(raw map[string]any) (FieldTemplate, error) {
	var dto buttonTemplateDTO
	if err := decodeStrict(raw, &dto); err != nil {
		return nil, err
	}
	t := &ButtonFieldTemplate{}
	var err error
	if t.Set, err = optionalPointer(dto.Set); err != nil {
		return nil, err
	}
	if t.Label, err = optionalTemplate(dto.Label); err != nil {
		return nil, err
	}
	if t.Options, err = decodeOptionTemplates(dto.Options); err != nil {
		return nil, err
	}
	return t, nil
}

// fieldJSON is the wire form of a materialized field. Validator chains are
// rebuilt from the data on decode, so a stored question keeps validating
// the same way after a round trip.
type fieldJSON struct {
	Type    string         `json:"type"`
	Opt     bool           `json:"optional,omitempty"`
	Multi   bool           `json:"multi,omitempty"`
	Min     any            `json:"min,omitempty"`
	Max     any            `json:"max,omitempty"`
	Pattern string         `json:"pattern,omitempty"`
	Format  string         `json:"format,omitempty"`
	Integer bool           `json:"integer,omitempty"`
	Options []SelectOption `json:"options,omitempty"`
	Schema  map[string]any `json:"schema"`
}

func encodeField(f Field) (*fieldJSON, error) {
	switch field := f.(type) {
	case *TextField:
		return &fieldJSON{
			Type: "text", Opt: field.Opt,
			Min: field.Min, Max: field.Max,
			Pattern: field.Pattern, Format: field.Format,
			Schema: field.SchemaFragment,
		}, nil
	case *NumberField:
		return &fieldJSON{
			Type: "number", Opt: field.Opt,
			Min: field.Min, Max: field.Max,
			Integer: field.Integer,
			Schema:  field.SchemaFragment,
		}, nil
	case *DateField:
		return &fieldJSON{
			Type: "date", Opt: field.Opt,
			Min: field.Min, Max: field.Max,
			Schema: field.SchemaFragment,
		}, nil
	case *SelectField:
		return &fieldJSON{
			Type: "select", Opt: field.Opt, Multi: field.Multi,
			Min: field.Min, Max: field.Max,
			Options: field.Options,
			Schema:  field.SchemaFragment,
		}, nil
	case *ButtonField:
		return &fieldJSON{
			Type:    "button",
			Options: field.Options,
			Schema:  field.SchemaFragment,
		}, nil
	default:
		return nil, fmt.Errorf("unknown field type %T", f)
	}
}

func (j *fieldJSON) field() (Field, error) {
	switch j.Type {
	case "text":
		return &TextField{
			Opt: j.Opt,
			Min: jsonInt(j.Min), Max: jsonInt(j.Max),
			Pattern: j.Pattern, Format: j.Format,
			SchemaFragment: j.Schema,
		}, nil
	case "number":
		return &NumberField{
			Opt: j.Opt,
			Min: jsonFloatPtr(j.Min), Max: jsonFloatPtr(j.Max),
			Integer:        j.Integer,
			SchemaFragment: j.Schema,
		}, nil
	case "date":
		return &DateField{
			Opt: j.Opt,
			Min: jsonString(j.Min), Max: jsonString(j.Max),
			SchemaFragment: j.Schema,
		}, nil
	case "select":
		return &SelectField{
			Opt: j.Opt, Multi: j.Multi,
			Min: jsonInt(j.Min), Max: jsonInt(j.Max),
			Options:        j.Options,
			SchemaFragment: j.Schema,
		}, nil
	case "button":
		return &ButtonField{
			Options:        j.Options,
			SchemaFragment: j.Schema,
		}, nil
	default:
		return nil, fmt.Errorf("no such field type: %s", j.Type)
	}
}

func jsonInt(v any) int {
	if f, ok := v.(float64); ok {
		return int(f)
	}
	if i, ok := v.(int); ok {
		return i
	}
	return 0
}

func jsonFloatPtr(v any) *float64 {
	if f, ok := v.(float64); ok {
		return &f
	}
	if i, ok := v.(int); ok {
		f := float64(i)
		return &f
	}
	return nil
}

func jsonString(v any) string {
	s, _ := v.(string)
	return s
}

type questionFieldJSON struct {
	ID     string `json:"id"`
	Target string `json:"target,omitempty"`
	fieldJSON
}

type questionJSON struct {
	ID     string              `json:"id"`
	Fields []questionFieldJSON `json:"fields"`
	Schema map[string]any      `json:"schema"`
}

func (q *Question) MarshalJSON() ([]byte, error) {
	out := questionJSON{ID: q.ID, Schema: q.SchemaFragment}
	for _, id := range q.FieldIDs {
		encoded, err := encodeField(q.Fields[id])
		if err != nil {
			return nil, err
		}
		entry := questionFieldJSON{ID: id, fieldJSON: *encoded}
		if target, ok := q.Targets[id]; ok {
			entry.Target = target.String()
		}
		out.Fields = append(out.Fields, entry)
	}
	return json.Marshal(out)
}

func (q *Question) UnmarshalJSON(data []byte) error {
	var in questionJSON
	if err := json.Unmarshal(data, &in); err != nil {
		return err
	}
	q.ID = in.ID
	q.SchemaFragment = in.Schema
	q.FieldIDs = nil
	q.Fields = make(map[string]Field, len(in.Fields))
	q.Targets = make(map[string]logic.Pointer, len(in.Fields))
	for _, entry := range in.Fields {
		field, err := entry.field()
		if err != nil {
			return err
		}
		q.FieldIDs = append(q.FieldIDs, entry.ID)
		q.Fields[entry.ID] = field
		if entry.Target != "" {
			target, err := logic.Parse(entry.Target)
			if err != nil {
				return err
			}
			q.Targets[entry.ID] = target
		}
	}
	return nil
}
