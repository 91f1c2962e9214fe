package model

import (
	"time"

	"gorm.io/datatypes"
)

// Blob - содержимое загруженного файла, когда файлы хранятся в БД.
type Blob struct {
	Key         string `gorm:"primaryKey;size:512"`
	ContentType string `gorm:"not null"`
	Data        []byte `gorm:"not null"`
	Meta        datatypes.JSONMap
	CreatedAt   time.Time `gorm:"autoCreateTime"`
}
