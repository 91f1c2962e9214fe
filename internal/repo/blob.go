package repo

import (
	"SchemaDesk/internal/model"
	"context"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// BlobRepository хранит содержимое загруженных файлов, когда S3 не настроен.
type BlobRepository interface {
	// Put создаёт или перезаписывает объект по ключу.
	Put(ctx context.Context, b *model.Blob) error
	Get(ctx context.Context, key string) (*model.Blob, error)
	// Delete удаляет объект; отсутствие объекта ошибкой не считается.
	Delete(ctx context.Context, key string) error
}

type blobRepo struct {
	db *gorm.DB
}

// NewBlobRepository создаёт реализацию репозитория для Blob.
func NewBlobRepository(db *gorm.DB) BlobRepository {
	return &blobRepo{db: db}
}

func (r *blobRepo) Put(ctx context.Context, b *model.Blob) error {
	return r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "key"}},
		DoUpdates: clause.AssignmentColumns([]string{"content_type", "data", "meta"}),
	}).Create(b).Error
}

func (r *blobRepo) Get(ctx context.Context, key string) (*model.Blob, error) {
	if key == "" {
		return nil, gorm.ErrRecordNotFound
	}
	var b model.Blob
	if err := r.db.WithContext(ctx).Where(&model.Blob{Key: key}).First(&b).Error; err != nil {
		return nil, err
	}
	return &b, nil
}

func (r *blobRepo) Delete(ctx context.Context, key string) error {
	if key == "" {
		return nil
	}
	return r.db.WithContext(ctx).Where(&model.Blob{Key: key}).Delete(&model.Blob{}).Error
}
