package model

import "strings"

// ValidationError - ошибки проверки, собранные по всем полям сразу.
type ValidationError struct {
	Errors []FieldError `json:"errors"`
}

// FieldError - одна ошибка конкретного поля.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// Error склеивает сообщения полей через "; ".
func (e *ValidationError) Error() string {
	parts := make([]string, len(e.Errors))
	for i, fe := range e.Errors {
		parts[i] = fe.Field + ": " + fe.Message
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

// Add добавляет ошибку поля.
func (e *ValidationError) Add(field, message string) {
	e.Errors = append(e.Errors, FieldError{Field: field, Message: message})
}

// HasErrors сообщает, есть ли хоть одна ошибка.
func (e *ValidationError) HasErrors() bool {
	return len(e.Errors) > 0
}

// Fields возвращает имена полей с ошибками в порядке появления, без повторов.
func (e *ValidationError) Fields() []string {
	seen := make(map[string]bool, len(e.Errors))
	out := make([]string, 0, len(e.Errors))
	for _, fe := range e.Errors {
		if !seen[fe.Field] {
			seen[fe.Field] = true
			out = append(out, fe.Field)
		}
	}
	return out
}
