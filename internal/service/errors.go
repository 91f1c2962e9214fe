package service

import (
	"SchemaDesk/internal/blob"
	"SchemaDesk/internal/model"
	"errors"
	"fmt"

	"gorm.io/gorm"
)

// Виды ошибок, которые видит HTTP-слой.
var (
	ErrNotFound              = errors.New("not found")
	ErrUnauthorizedOperation = errors.New("unauthorized operation")
	ErrRemoteOperation       = errors.New("remote operation failed")

	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrSetupDone          = errors.New("setup already completed")
	ErrInvalidResetToken  = errors.New("invalid or expired reset token")
)

// classify приводит ошибку хранилища к одному из видов выше.
// Ошибки валидации и уже классифицированные ошибки проходят как есть.
func classify(op string, err error) error {
	if err == nil {
		return nil
	}
	var ve *model.ValidationError
	switch {
	case errors.As(err, &ve):
		return err
	case errors.Is(err, ErrNotFound),
		errors.Is(err, ErrUnauthorizedOperation),
		errors.Is(err, ErrRemoteOperation):
		return err
	case errors.Is(err, gorm.ErrRecordNotFound):
		return fmt.Errorf("%s: %w", op, ErrNotFound)
	case errors.Is(err, blob.ErrAccessDenied):
		return fmt.Errorf("%s: %w: %w", op, ErrUnauthorizedOperation, err)
	}
	return fmt.Errorf("%s: %w: %w", op, ErrRemoteOperation, err)
}
