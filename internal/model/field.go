package model

import (
	"fmt"
	"regexp"
	"strings"
)

// FieldType - объявленный тип поля коллекции.
type FieldType string

const (
	FieldTypeString   FieldType = "string"
	FieldTypeNumber   FieldType = "number"
	FieldTypeBoolean  FieldType = "boolean"
	FieldTypeDate     FieldType = "date"
	FieldTypeEnum     FieldType = "enum"
	FieldTypeArray    FieldType = "array"
	FieldTypeObject   FieldType = "object"
	FieldTypeImage    FieldType = "image"
	FieldTypeFile     FieldType = "file"
	FieldTypeDocument FieldType = "document"
)

// FieldSchema описывает один атрибут данных коллекции.
type FieldSchema struct {
	Name     string    `json:"name"`
	Type     FieldType `json:"type"`
	Required bool      `json:"required"`
	Options  []string  `json:"options"`
}

// Имена полей становятся ключами сортировки и JSON-путями в хранилище.
var fieldNameRe = regexp.MustCompile(`^[A-Za-z0-9_-]+$`)

// Reserved имена, которые хранилище ведёт само.
var reservedFieldNames = map[string]bool{
	"id":        true,
	"createdAt": true,
	"updatedAt": true,
}

// ValidFieldName сообщает, можно ли использовать name как имя поля.
func ValidFieldName(name string) bool {
	return fieldNameRe.MatchString(name)
}

// ParseOptions разбирает ввод вида "a, b ,,c" в список опций enum.
func ParseOptions(raw string) []string {
	parts := strings.Split(raw, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

// NormalizeFields возвращает копию списка полей, в которой options
// очищены у всех типов, кроме enum, а у enum убраны пустые значения.
func NormalizeFields(fields []FieldSchema) []FieldSchema {
	out := make([]FieldSchema, len(fields))
	for i, f := range fields {
		f.Name = strings.TrimSpace(f.Name)
		if f.Type == FieldTypeEnum {
			opts := make([]string, 0, len(f.Options))
			for _, o := range f.Options {
				if o = strings.TrimSpace(o); o != "" {
					opts = append(opts, o)
				}
			}
			f.Options = opts
		} else {
			f.Options = []string{}
		}
		out[i] = f
	}
	return out
}

// ValidateFieldList проверяет инварианты списка полей коллекции.
// isKnownType приходит снаружи, чтобы model не зависел от реестра типов.
func ValidateFieldList(fields []FieldSchema, isKnownType func(FieldType) bool) error {
	var ve ValidationError
	if len(fields) == 0 {
		ve.Add("fields", "at least one field is required")
		return &ve
	}
	seen := make(map[string]bool, len(fields))
	for i, f := range fields {
		path := fmt.Sprintf("fields[%d]", i)
		switch {
		case f.Name == "":
			ve.Add(path+".name", "is required")
		case !ValidFieldName(f.Name):
			ve.Add(path+".name", fmt.Sprintf("invalid name %q (allowed: letters, digits, _ -)", f.Name))
		case reservedFieldNames[f.Name]:
			ve.Add(path+".name", fmt.Sprintf("%q is reserved", f.Name))
		case seen[f.Name]:
			ve.Add(path+".name", fmt.Sprintf("duplicate field name %q", f.Name))
		}
		seen[f.Name] = true

		if !isKnownType(f.Type) {
			ve.Add(path+".type", fmt.Sprintf("unknown field type %q", f.Type))
		}
		if f.Type == FieldTypeEnum && f.Required && len(f.Options) == 0 {
			ve.Add(path+".options", "required enum needs at least one option")
		}
		if f.Type != FieldTypeEnum && len(f.Options) > 0 {
			ve.Add(path+".options", "options are only allowed for enum fields")
		}
	}
	if ve.HasErrors() {
		return &ve
	}
	return nil
}
