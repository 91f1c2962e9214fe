package blob

import (
	"SchemaDesk/internal/model"
	"SchemaDesk/internal/repo"
	"context"
	"strings"

	"gorm.io/datatypes"
)

// FilesPath - префикс, под которым сервер отдаёт файлы из БД.
const FilesPath = "/api/files/"

// DBStore хранит вложения в таблице blobs. Подходит для локальной работы без S3.
type DBStore struct {
	repo    repo.BlobRepository
	baseURL string
}

// NewDBStore создаёт хранилище; baseURL - внешний адрес сервера, может быть пустым.
func NewDBStore(r repo.BlobRepository, baseURL string) *DBStore {
	return &DBStore{repo: r, baseURL: strings.TrimRight(baseURL, "/")}
}

func (s *DBStore) Put(ctx context.Context, key string, data []byte, contentType string, meta map[string]string) error {
	m := make(datatypes.JSONMap, len(meta))
	for k, v := range meta {
		m[k] = v
	}
	return s.repo.Put(ctx, &model.Blob{Key: key, ContentType: contentType, Data: data, Meta: m})
}

func (s *DBStore) URL(key string) string {
	return s.baseURL + FilesPath + escapeKey(key)
}

func (s *DBStore) Delete(ctx context.Context, key string) error {
	return s.repo.Delete(ctx, key)
}

func (s *DBStore) KeyFromURL(u string) (string, bool) {
	return keyAfterPrefix(u, s.baseURL+FilesPath)
}

// Open возвращает сохранённый объект для отдачи по HTTP.
func (s *DBStore) Open(ctx context.Context, key string) (*model.Blob, error) {
	return s.repo.Get(ctx, key)
}
