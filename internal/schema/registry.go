// Package schema maps a field's declared type to its default value, its input
// kind and, for attachment types, the MIME types an upload may carry.
package schema

import (
	"time"

	"SchemaDesk/internal/model"
)

// InputKind is the semantic editor used for a field.
type InputKind string

const (
	InputText     InputKind = "text"
	InputNumber   InputKind = "number"
	InputCheckbox InputKind = "checkbox"
	InputDate     InputKind = "date"
	InputSelect   InputKind = "select"
	InputFile     InputKind = "file"
)

// AttachmentCategory groups attachment field types by what they accept.
type AttachmentCategory string

const (
	CategoryNone     AttachmentCategory = ""
	CategoryImage    AttachmentCategory = "image"
	CategoryDocument AttachmentCategory = "document"
	CategoryFile     AttachmentCategory = "file"
)

// DateLayout is the storage format of date fields.
const DateLayout = "2006-01-02"

// TypeInfo describes a field type for the collection builder.
type TypeInfo struct {
	ID   model.FieldType `json:"id"`
	Name string          `json:"name"`
	// RequiresPaidTier marks types whose uploads may be rejected by the blob store plan.
	RequiresPaidTier bool `json:"requiresPaidTier,omitempty"`
}

var fieldTypes = []TypeInfo{
	{ID: model.FieldTypeString, Name: "Text"},
	{ID: model.FieldTypeNumber, Name: "Number"},
	{ID: model.FieldTypeBoolean, Name: "Boolean"},
	{ID: model.FieldTypeDate, Name: "Date"},
	{ID: model.FieldTypeEnum, Name: "Enum (Select)"},
	{ID: model.FieldTypeArray, Name: "Array"},
	{ID: model.FieldTypeObject, Name: "Object"},
	{ID: model.FieldTypeImage, Name: "Image", RequiresPaidTier: true},
	{ID: model.FieldTypeFile, Name: "File", RequiresPaidTier: true},
	{ID: model.FieldTypeDocument, Name: "Document", RequiresPaidTier: true},
}

var (
	imageMIME = []string{"image/jpeg", "image/png", "image/gif", "image/webp"}
	docMIME   = []string{
		"application/pdf",
		"application/msword",
		"application/vnd.openxmlformats-officedocument.wordprocessingml.document",
		"application/vnd.ms-excel",
		"application/vnd.openxmlformats-officedocument.spreadsheetml.sheet",
		"application/vnd.ms-powerpoint",
		"application/vnd.openxmlformats-officedocument.presentationml.presentation",
	}
)

// FieldTypes returns the supported field types in builder order.
func FieldTypes() []TypeInfo {
	out := make([]TypeInfo, len(fieldTypes))
	copy(out, fieldTypes)
	return out
}

// IsValidType reports whether t is one of the supported field types.
func IsValidType(t model.FieldType) bool {
	for _, ft := range fieldTypes {
		if ft.ID == t {
			return true
		}
	}
	return false
}

// DefaultValueFor returns the initial value of a new item's field, dated today.
func DefaultValueFor(t model.FieldType) any {
	return DefaultValueAt(t, time.Now())
}

// DefaultValueAt is DefaultValueFor with an explicit clock.
// Unknown types fall back to the empty string.
func DefaultValueAt(t model.FieldType, now time.Time) any {
	switch t {
	case model.FieldTypeNumber:
		return float64(0)
	case model.FieldTypeBoolean:
		return false
	case model.FieldTypeArray:
		return []any{}
	case model.FieldTypeObject:
		return map[string]any{}
	case model.FieldTypeDate:
		return now.Format(DateLayout)
	case model.FieldTypeImage, model.FieldTypeFile, model.FieldTypeDocument:
		return nil
	default:
		return ""
	}
}

// InputKindFor picks the editor for a field. Unknown types edit as text.
func InputKindFor(f model.FieldSchema) InputKind {
	switch f.Type {
	case model.FieldTypeString:
		return InputText
	case model.FieldTypeNumber:
		return InputNumber
	case model.FieldTypeBoolean:
		return InputCheckbox
	case model.FieldTypeDate:
		return InputDate
	case model.FieldTypeEnum:
		return InputSelect
	case model.FieldTypeImage, model.FieldTypeFile, model.FieldTypeDocument:
		return InputFile
	default:
		return InputText
	}
}

// AttachmentCategoryFor returns the attachment category of a field, or CategoryNone.
func AttachmentCategoryFor(f model.FieldSchema) AttachmentCategory {
	switch f.Type {
	case model.FieldTypeImage:
		return CategoryImage
	case model.FieldTypeDocument:
		return CategoryDocument
	case model.FieldTypeFile:
		return CategoryFile
	default:
		return CategoryNone
	}
}

// IsAttachment reports whether the field stores an uploaded file URL.
func IsAttachment(f model.FieldSchema) bool {
	return AttachmentCategoryFor(f) != CategoryNone
}

// AllowedMIMETypes returns the accepted content types for a category.
// The file category accepts the union of images and documents.
func AllowedMIMETypes(c AttachmentCategory) []string {
	switch c {
	case CategoryImage:
		return append([]string(nil), imageMIME...)
	case CategoryDocument:
		return append([]string(nil), docMIME...)
	case CategoryFile:
		out := make([]string, 0, len(imageMIME)+len(docMIME))
		out = append(out, imageMIME...)
		return append(out, docMIME...)
	default:
		return nil
	}
}

// MIMEAllowed reports whether contentType may be stored in a field of category c.
func MIMEAllowed(c AttachmentCategory, contentType string) bool {
	for _, m := range AllowedMIMETypes(c) {
		if m == contentType {
			return true
		}
	}
	return false
}
