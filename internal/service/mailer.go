package service

import (
	"context"

	"go.uber.org/zap"
)

// Mailer доставляет письмо со ссылкой сброса пароля.
type Mailer interface {
	SendPasswordReset(ctx context.Context, email, token string) error
}

// LogMailer пишет токен сброса в лог вместо отправки письма.
type LogMailer struct {
	Log *zap.SugaredLogger
}

func (m LogMailer) SendPasswordReset(ctx context.Context, email, token string) error {
	m.Log.Infow("Password reset requested", "email", email, "token", token)
	return nil
}
