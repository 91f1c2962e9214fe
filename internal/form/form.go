// Package form turns a collection's field list into editors, coerces edits by
// input kind, checks required fields and produces the create/update payload.
package form

import (
	"encoding/json"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	"SchemaDesk/internal/model"
	"SchemaDesk/internal/schema"
)

// Mode - режим формы.
type Mode int

const (
	ModeCreate Mode = iota
	ModeEdit
)

// Editor описывает один редактор формы.
type Editor struct {
	Name     string           `json:"name"`
	Type     model.FieldType  `json:"type"`
	Kind     schema.InputKind `json:"kind"`
	Required bool             `json:"required"`
	Options  []string         `json:"options,omitempty"`
	// Accept заполнен только у файловых полей: загрузку делает Uploader.
	Accept []string `json:"accept,omitempty"`
	Value  any      `json:"value"`
}

// Form - состояние формы создания или редактирования элемента.
type Form struct {
	mode   Mode
	fields []model.FieldSchema
	index  map[string]int
	values map[string]any
}

// NewCreate создаёт форму нового элемента, заполненную значениями по умолчанию.
func NewCreate(fields []model.FieldSchema, today time.Time) *Form {
	f := newForm(ModeCreate, fields)
	for _, fs := range fields {
		f.values[fs.Name] = schema.DefaultValueAt(fs.Type, today)
	}
	return f
}

// NewEdit создаёт форму по существующему элементу.
// Поля, которых у элемента ещё нет, получают значения по умолчанию.
func NewEdit(fields []model.FieldSchema, item *model.Item, today time.Time) *Form {
	f := newForm(ModeEdit, fields)
	for _, fs := range fields {
		if v, ok := item.Values[fs.Name]; ok {
			f.values[fs.Name] = v
		} else {
			f.values[fs.Name] = schema.DefaultValueAt(fs.Type, today)
		}
	}
	return f
}

func newForm(mode Mode, fields []model.FieldSchema) *Form {
	idx := make(map[string]int, len(fields))
	for i, fs := range fields {
		idx[fs.Name] = i
	}
	return &Form{
		mode:   mode,
		fields: fields,
		index:  idx,
		values: make(map[string]any, len(fields)),
	}
}

// Mode возвращает режим формы.
func (f *Form) Mode() Mode { return f.mode }

// Editors возвращает редакторы в порядке полей схемы.
func (f *Form) Editors() []Editor {
	out := make([]Editor, 0, len(f.fields))
	for _, fs := range f.fields {
		e := Editor{
			Name:     fs.Name,
			Type:     fs.Type,
			Kind:     schema.InputKindFor(fs),
			Required: fs.Required,
			Value:    f.values[fs.Name],
		}
		switch e.Kind {
		case schema.InputSelect:
			e.Options = append([]string(nil), fs.Options...)
		case schema.InputFile:
			e.Accept = schema.AllowedMIMETypes(schema.AttachmentCategoryFor(fs))
		}
		out = append(out, e)
	}
	return out
}

// Value возвращает текущее значение поля.
func (f *Form) Value(name string) (any, bool) {
	v, ok := f.values[name]
	return v, ok
}

// Values возвращает копию текущих значений.
func (f *Form) Values() map[string]any {
	out := make(map[string]any, len(f.values))
	for k, v := range f.values {
		out[k] = v
	}
	return out
}

// Set приводит значение к виду поля и сохраняет его.
func (f *Form) Set(name string, raw any) error {
	i, ok := f.index[name]
	if !ok {
		ve := &model.ValidationError{}
		ve.Add(name, "unknown field")
		return ve
	}
	v, err := coerce(f.fields[i], raw)
	if err != nil {
		ve := &model.ValidationError{}
		ve.Add(name, err.Error())
		return ve
	}
	f.values[name] = v
	return nil
}

// SetAll применяет набор значений и собирает все ошибки в одну.
// Ошибки идут в порядке полей схемы, неизвестные имена - в конце по алфавиту.
func (f *Form) SetAll(values map[string]any) error {
	var ve model.ValidationError
	for _, fs := range f.fields {
		raw, ok := values[fs.Name]
		if !ok {
			continue
		}
		v, err := coerce(fs, raw)
		if err != nil {
			ve.Add(fs.Name, err.Error())
			continue
		}
		f.values[fs.Name] = v
	}
	unknown := make([]string, 0)
	for k := range values {
		if _, ok := f.index[k]; !ok {
			unknown = append(unknown, k)
		}
	}
	sort.Strings(unknown)
	for _, k := range unknown {
		ve.Add(k, "unknown field")
	}
	if ve.HasErrors() {
		return &ve
	}
	return nil
}

// Validate проверяет обязательные поля и возвращает *model.ValidationError
// со всеми незаполненными полями.
func (f *Form) Validate() error {
	var ve model.ValidationError
	for _, fs := range f.fields {
		if fs.Required && isMissing(fs, f.values[fs.Name]) {
			ve.Add(fs.Name, "is required")
		}
	}
	if ve.HasErrors() {
		return &ve
	}
	return nil
}

// Submit валидирует форму и собирает payload. При ошибке ничего не пишется:
// запись делает вызывающий.
func (f *Form) Submit(at time.Time) (Payload, error) {
	if err := f.Validate(); err != nil {
		return Payload{}, err
	}
	at = at.UTC()
	p := Payload{Values: make(map[string]any, len(f.fields)), UpdatedAt: at}
	for _, fs := range f.fields {
		p.Values[fs.Name] = f.values[fs.Name]
	}
	if f.mode == ModeCreate {
		created := at
		p.CreatedAt = &created
	}
	return p, nil
}

// Patch - правка отдельных ячеек: применяет partial поверх элемента,
// проверяет итоговый элемент и возвращает payload только с изменёнными полями.
func Patch(fields []model.FieldSchema, item *model.Item, partial map[string]any, at time.Time) (Payload, error) {
	f := NewEdit(fields, item, at)
	if err := f.SetAll(partial); err != nil {
		return Payload{}, err
	}
	if err := f.Validate(); err != nil {
		return Payload{}, err
	}
	p := Payload{Values: make(map[string]any, len(partial)), UpdatedAt: at.UTC()}
	for k := range partial {
		p.Values[k] = f.values[k]
	}
	return p, nil
}

// isMissing - предикат "поле не заполнено" для обязательных полей.
// Для boolean любое явное значение, в том числе false, считается заполненным.
func isMissing(fs model.FieldSchema, v any) bool {
	switch x := v.(type) {
	case nil:
		return true
	case string:
		return x == ""
	case []any:
		return len(x) == 0
	case []string:
		return len(x) == 0
	case map[string]any:
		return len(x) == 0
	case bool:
		return !x && fs.Type != model.FieldTypeBoolean
	}
	return false
}

func coerce(fs model.FieldSchema, raw any) (any, error) {
	if raw == nil {
		return nil, nil
	}
	switch schema.InputKindFor(fs) {
	case schema.InputNumber:
		return toNumber(raw)
	case schema.InputCheckbox:
		return toBool(raw)
	case schema.InputDate:
		return toDate(raw)
	case schema.InputSelect:
		s, ok := raw.(string)
		if !ok {
			return nil, fmt.Errorf("must be a string")
		}
		if s == "" || len(fs.Options) == 0 {
			return s, nil
		}
		for _, o := range fs.Options {
			if o == s {
				return s, nil
			}
		}
		return nil, fmt.Errorf("must be one of %v", fs.Options)
	case schema.InputFile:
		s, ok := raw.(string)
		if !ok {
			return nil, fmt.Errorf("must be a file URL")
		}
		if s == "" {
			return nil, nil
		}
		return s, nil
	}

	switch fs.Type {
	case model.FieldTypeString:
		s, ok := raw.(string)
		if !ok {
			return nil, fmt.Errorf("must be a string")
		}
		return s, nil
	case model.FieldTypeArray:
		return toJSONKind[[]any](raw, "must be an array")
	case model.FieldTypeObject:
		return toJSONKind[map[string]any](raw, "must be an object")
	}
	return raw, nil
}

func toNumber(raw any) (any, error) {
	switch x := raw.(type) {
	case float64:
		return x, nil
	case float32:
		return float64(x), nil
	case int:
		return float64(x), nil
	case int64:
		return float64(x), nil
	case json.Number:
		n, err := x.Float64()
		if err != nil {
			return nil, fmt.Errorf("must be a number")
		}
		return n, nil
	case string:
		s := strings.TrimSpace(x)
		if s == "" {
			return nil, nil
		}
		n, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return nil, fmt.Errorf("must be a number")
		}
		return n, nil
	}
	return nil, fmt.Errorf("must be a number")
}

func toBool(raw any) (any, error) {
	switch x := raw.(type) {
	case bool:
		return x, nil
	case string:
		switch strings.ToLower(strings.TrimSpace(x)) {
		case "true", "on", "1":
			return true, nil
		case "false", "off", "0", "":
			return false, nil
		}
	}
	return nil, fmt.Errorf("must be a boolean")
}

func toDate(raw any) (any, error) {
	s, ok := raw.(string)
	if !ok {
		return nil, fmt.Errorf("must be a date (YYYY-MM-DD)")
	}
	s = strings.TrimSpace(s)
	if s == "" {
		return "", nil
	}
	if t, err := time.Parse(schema.DateLayout, s); err == nil {
		return t.Format(schema.DateLayout), nil
	}
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t.Format(schema.DateLayout), nil
	}
	return nil, fmt.Errorf("must be a date (YYYY-MM-DD)")
}

// toJSONKind принимает значение нужного вида или его JSON-текст.
func toJSONKind[T any](raw any, msg string) (any, error) {
	if v, ok := raw.(T); ok {
		return v, nil
	}
	s, ok := raw.(string)
	if !ok {
		return nil, fmt.Errorf("%s", msg)
	}
	if strings.TrimSpace(s) == "" {
		var zero T
		if err := json.Unmarshal([]byte(zeroJSON[T]()), &zero); err != nil {
			return nil, err
		}
		return zero, nil
	}
	var v T
	if err := json.Unmarshal([]byte(s), &v); err != nil {
		return nil, fmt.Errorf("%s", msg)
	}
	return v, nil
}

func zeroJSON[T any]() string {
	var zero T
	if _, ok := any(zero).([]any); ok {
		return "[]"
	}
	return "{}"
}
