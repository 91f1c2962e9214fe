// Package session держит состояние авторизации CLI: текущего пользователя,
// признак загрузки и последнюю ошибку. Объект создаётся явно и передаётся
// тем, кому он нужен.
package session

import (
	"SchemaDesk/internal/cli/api"
	"SchemaDesk/internal/cli/repo"
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"sync"
)

// ErrNotLoggedIn - токена нет или сервер его не принял.
var ErrNotLoggedIn = errors.New("not logged in")

// User - пользователь, как его отдаёт /api/auth/me.
type User struct {
	ID    int64  `json:"id"`
	Email string `json:"email"`
	Role  string `json:"role"`
}

// State - снимок состояния сессии.
type State struct {
	User    *User
	Loading bool
	Err     error
}

type credentials struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Session - состояние авторизации и подписчики на его изменения.
type Session struct {
	Client *api.Client
	tokens repo.TokenStore

	mu     sync.Mutex
	state  State
	subs   map[int]func(State)
	nextID int
}

// New создаёт сессию; токен берётся из tokens при Init.
func New(client *api.Client, tokens repo.TokenStore) *Session {
	return &Session{Client: client, tokens: tokens, subs: map[int]func(State){}}
}

// Subscribe регистрирует обработчик изменений состояния и возвращает функцию отписки.
func (s *Session) Subscribe(fn func(State)) (unsubscribe func()) {
	s.mu.Lock()
	id := s.nextID
	s.nextID++
	s.subs[id] = fn
	s.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			s.mu.Lock()
			delete(s.subs, id)
			s.mu.Unlock()
		})
	}
}

// State возвращает текущее состояние.
func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// User возвращает текущего пользователя или ErrNotLoggedIn.
func (s *Session) User() (*User, error) {
	st := s.State()
	if st.User == nil {
		return nil, ErrNotLoggedIn
	}
	return st.User, nil
}

func (s *Session) set(st State) {
	s.mu.Lock()
	s.state = st
	fns := make([]func(State), 0, len(s.subs))
	for _, fn := range s.subs {
		fns = append(fns, fn)
	}
	s.mu.Unlock()
	for _, fn := range fns {
		fn(st)
	}
}

// Init читает сохранённый токен и узнаёт по нему пользователя.
// Просроченный или отозванный токен удаляется.
func (s *Session) Init(ctx context.Context) error {
	s.set(State{Loading: true})

	token, err := s.tokens.Load()
	if err != nil {
		s.set(State{Err: ErrNotLoggedIn})
		return ErrNotLoggedIn
	}
	s.Client.Token = token

	var u User
	if err := s.Client.GetJSON(ctx, "/api/auth/me", &u); err != nil {
		if api.IsStatus(err, http.StatusUnauthorized) {
			_ = s.tokens.Clear()
			s.Client.Token = ""
			err = ErrNotLoggedIn
		}
		s.set(State{Err: err})
		return err
	}
	s.set(State{User: &u})
	return nil
}

// Login входит по email и паролю и сохраняет токен.
func (s *Session) Login(ctx context.Context, email, password string) (*User, error) {
	return s.authenticate(ctx, "/api/auth/login", email, password)
}

// Setup создаёт первого администратора; сервер сразу выдаёт токен.
func (s *Session) Setup(ctx context.Context, email, password string) (*User, error) {
	return s.authenticate(ctx, "/api/setup", email, password)
}

func (s *Session) authenticate(ctx context.Context, path, email, password string) (*User, error) {
	s.set(State{Loading: true})
	var u User
	resp, err := s.Client.PostJSON(ctx, path, credentials{Email: email, Password: password}, &u)
	if err != nil {
		s.set(State{Err: err})
		return nil, err
	}
	token, err := api.TokenFromResponse(resp)
	if err != nil {
		s.set(State{Err: err})
		return nil, err
	}
	if err := s.tokens.Save(token); err != nil {
		err = fmt.Errorf("saving auth: %w", err)
		s.set(State{Err: err})
		return nil, err
	}
	if uc, ok := s.tokens.(repo.UserContextStore); ok {
		_ = uc.SaveEmail(u.Email)
	}
	s.Client.Token = token
	s.set(State{User: &u})
	return &u, nil
}

// Logout завершает сессию на сервере и удаляет токен локально,
// даже если сервер недоступен.
func (s *Session) Logout(ctx context.Context) error {
	var remoteErr error
	if s.Client.Token != "" {
		_, remoteErr = s.Client.PostJSON(ctx, "/api/auth/logout", nil, nil)
	}
	s.Client.Token = ""
	if err := s.tokens.Clear(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return err
	}
	s.set(State{})
	if remoteErr != nil && !api.IsStatus(remoteErr, http.StatusUnauthorized) {
		return fmt.Errorf("server logout: %w", remoteErr)
	}
	return nil
}
