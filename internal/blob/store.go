// Package blob хранит вложения элементов: S3-совместимое хранилище или таблица в БД.
package blob

import (
	"context"
	"errors"
)

// ErrAccessDenied - хранилище отказало в записи: нет прав, закончилась квота
// или тариф не позволяет загрузку.
var ErrAccessDenied = errors.New("blob storage access denied")

// Store - хранилище объектов по ключу.
type Store interface {
	Put(ctx context.Context, key string, data []byte, contentType string, meta map[string]string) error
	// URL возвращает публичный адрес объекта.
	URL(key string) string
	Delete(ctx context.Context, key string) error
	// KeyFromURL восстанавливает ключ по адресу, выданному URL.
	// Для чужих адресов ok == false.
	KeyFromURL(url string) (key string, ok bool)
}
