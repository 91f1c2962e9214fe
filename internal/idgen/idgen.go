// Package idgen выдаёт идентификаторы документов в стиле авто-id хранилища:
// 20 символов из латиницы и цифр.
package idgen

import (
	"fmt"

	nanoid "github.com/matoous/go-nanoid/v2"
)

const (
	alphabet = "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"
	// Length - длина идентификатора.
	Length = 20
)

// New возвращает новый идентификатор документа.
func New() (string, error) {
	id, err := nanoid.Generate(alphabet, Length)
	if err != nil {
		return "", fmt.Errorf("idgen: %w", err)
	}
	return id, nil
}
