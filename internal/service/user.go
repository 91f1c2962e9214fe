package service

import (
	"SchemaDesk/internal/model"
	"SchemaDesk/internal/repo"
	"context"
	"errors"
	"fmt"
	"net/mail"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

const (
	minPasswordLen = 6
	resetTokenTTL  = time.Hour
	resetAudience  = "password-reset"
)

// UserService - учётные записи консоли: первичная настройка, вход, сброс пароля.
type UserService struct {
	repo   repo.UserRepository
	secret string
	mailer Mailer
	log    *zap.SugaredLogger
	now    func() time.Time

	setupMu   sync.Mutex
	setupDone atomic.Bool
}

// NewUserService создаёт сервис пользователей. secret подписывает токены сброса.
func NewUserService(r repo.UserRepository, secret string, mailer Mailer, log *zap.SugaredLogger) *UserService {
	if log == nil {
		log = zap.NewNop().Sugar()
	}
	if mailer == nil {
		mailer = LogMailer{Log: log}
	}
	return &UserService{repo: r, secret: secret, mailer: mailer, log: log, now: time.Now}
}

// SetupRequired сообщает, что в системе ещё нет ни одного пользователя.
// Как только пользователь появился, ответ кешируется.
func (s *UserService) SetupRequired(ctx context.Context) (bool, error) {
	if s.setupDone.Load() {
		return false, nil
	}
	n, err := s.repo.Count(ctx)
	if err != nil {
		return false, classify("count users", err)
	}
	if n > 0 {
		s.setupDone.Store(true)
		return false, nil
	}
	return true, nil
}

// Setup создаёт первого администратора. Работает только на пустой базе.
func (s *UserService) Setup(ctx context.Context, email, password string) (*model.User, error) {
	s.setupMu.Lock()
	defer s.setupMu.Unlock()

	required, err := s.SetupRequired(ctx)
	if err != nil {
		return nil, err
	}
	if !required {
		return nil, ErrSetupDone
	}
	email, err = checkCredentials(email, password)
	if err != nil {
		return nil, err
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}
	u, err := s.repo.CreateUser(ctx, &model.User{Email: email, Password: string(hash), Role: model.RoleAdmin})
	if err != nil {
		return nil, classify("create user", err)
	}
	s.setupDone.Store(true)
	s.log.Infow("Initial administrator created", "user_id", u.ID, "email", u.Email)
	return u, nil
}

// Login проверяет email и пароль.
func (s *UserService) Login(ctx context.Context, email, password string) (*model.User, error) {
	u, err := s.repo.GetUserByEmail(ctx, normalizeEmail(email))
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrInvalidCredentials
	}
	if err != nil {
		return nil, classify("get user", err)
	}
	if err := bcrypt.CompareHashAndPassword([]byte(u.Password), []byte(password)); err != nil {
		return nil, ErrInvalidCredentials
	}
	return u, nil
}

// Me возвращает пользователя сессии.
func (s *UserService) Me(ctx context.Context, userID int64) (*model.User, error) {
	u, err := s.repo.GetUserByID(ctx, userID)
	if err != nil {
		return nil, classify("get user", err)
	}
	return u, nil
}

// RequestPasswordReset отправляет токен сброса. Для неизвестного email
// ничего не делает и ошибки не возвращает.
func (s *UserService) RequestPasswordReset(ctx context.Context, email string) error {
	u, err := s.repo.GetUserByEmail(ctx, normalizeEmail(email))
	if errors.Is(err, gorm.ErrRecordNotFound) {
		s.log.Infow("Password reset for unknown email", "email", email)
		return nil
	}
	if err != nil {
		return classify("get user", err)
	}
	token, err := s.resetToken(u)
	if err != nil {
		return err
	}
	if err := s.mailer.SendPasswordReset(ctx, u.Email, token); err != nil {
		return classify("send reset mail", err)
	}
	return nil
}

// ConfirmPasswordReset меняет пароль по токену сброса.
// Токен одноразовый: он подписан в том числе текущим хешем пароля.
func (s *UserService) ConfirmPasswordReset(ctx context.Context, token, password string) error {
	if len(password) < minPasswordLen {
		ve := &model.ValidationError{}
		ve.Add("password", fmt.Sprintf("must be at least %d characters", minPasswordLen))
		return ve
	}
	claims := &jwt.RegisteredClaims{}
	var user *model.User
	_, err := jwt.ParseWithClaims(token, claims, func(t *jwt.Token) (any, error) {
		var id int64
		if _, err := fmt.Sscan(claims.Subject, &id); err != nil {
			return nil, err
		}
		u, err := s.repo.GetUserByID(ctx, id)
		if err != nil {
			return nil, err
		}
		user = u
		return s.resetKey(u), nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithAudience(resetAudience),
		jwt.WithTimeFunc(s.now),
	)
	if err != nil || user == nil {
		s.log.Warnw("Invalid password reset token", "error", err)
		return ErrInvalidResetToken
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	if err := s.repo.UpdatePassword(ctx, user.ID, string(hash)); err != nil {
		return classify("update password", err)
	}
	s.log.Infow("Password reset", "user_id", user.ID)
	return nil
}

func (s *UserService) resetToken(u *model.User) (string, error) {
	now := s.now()
	claims := jwt.RegisteredClaims{
		ID:        uuid.NewString(),
		Subject:   fmt.Sprint(u.ID),
		Audience:  jwt.ClaimStrings{resetAudience},
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(resetTokenTTL)),
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.resetKey(u))
}

func (s *UserService) resetKey(u *model.User) []byte {
	return []byte(s.secret + ":" + u.Password)
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func checkCredentials(email, password string) (string, error) {
	email = normalizeEmail(email)
	var ve model.ValidationError
	if _, err := mail.ParseAddress(email); err != nil || email == "" {
		ve.Add("email", "must be a valid email address")
	}
	if len(password) < minPasswordLen {
		ve.Add("password", fmt.Sprintf("must be at least %d characters", minPasswordLen))
	}
	if ve.HasErrors() {
		return "", &ve
	}
	return email, nil
}
