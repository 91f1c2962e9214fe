package fs

import (
	"SchemaDesk/internal/cli/repo"
	"errors"
	"os"
	"path/filepath"
	"strings"
)

// ErrEmpty - файл есть, но пуст.
var ErrEmpty = errors.New("empty file")

// AuthFSStore - файловое хранилище токена и последнего email для CLI.
// Path - путь к файлу токена; пустой Path означает каталог конфигурации пользователя.
type AuthFSStore struct {
	Path string
}

var (
	_ repo.TokenStore       = AuthFSStore{}
	_ repo.UserContextStore = AuthFSStore{}
)

func configDir() (string, error) {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "SchemaDesk"), nil
}

func (s AuthFSStore) tokenPath() (string, error) {
	if s.Path != "" {
		return s.Path, nil
	}
	dir, err := configDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "auth_token"), nil
}

func (s AuthFSStore) emailPath() (string, error) {
	p, err := s.tokenPath()
	if err != nil {
		return "", err
	}
	return p + ".email", nil
}

func writeFile(p string, data string) error {
	if err := os.MkdirAll(filepath.Dir(p), 0o700); err != nil {
		return err
	}
	return os.WriteFile(p, []byte(data), 0o600)
}

func readTrimmed(p string) (string, error) {
	b, err := os.ReadFile(p)
	if err != nil {
		return "", err
	}
	// обрезаем завершающие переводы строки/пробелы
	s := strings.TrimRight(string(b), " \t\r\n")
	if s == "" {
		return "", ErrEmpty
	}
	return s, nil
}

// Save сохраняет auth‑токен в файл.
func (s AuthFSStore) Save(token string) error {
	p, err := s.tokenPath()
	if err != nil {
		return err
	}
	return writeFile(p, token)
}

// Load читает auth‑токен из файла.
func (s AuthFSStore) Load() (string, error) {
	p, err := s.tokenPath()
	if err != nil {
		return "", err
	}
	return readTrimmed(p)
}

// Clear удаляет файл токена.
func (s AuthFSStore) Clear() error {
	p, err := s.tokenPath()
	if err != nil {
		return err
	}
	if err := os.Remove(p); err != nil && !errors.Is(err, os.ErrNotExist) {
		return err
	}
	return nil
}

// SaveEmail сохраняет email пользователя в файл рядом с токеном.
func (s AuthFSStore) SaveEmail(email string) error {
	if strings.TrimSpace(email) == "" {
		return errors.New("empty email")
	}
	p, err := s.emailPath()
	if err != nil {
		return err
	}
	return writeFile(p, email)
}

// LoadEmail читает сохранённый email.
func (s AuthFSStore) LoadEmail() (string, error) {
	p, err := s.emailPath()
	if err != nil {
		return "", err
	}
	return readTrimmed(p)
}
