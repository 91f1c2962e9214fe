package model

import (
	"encoding/json"
	"time"

	"gorm.io/datatypes"
)

// Document - серверная модель записи schema-less хранилища.
// Коллекции лежат в контейнере "collections", элементы - в контейнере с id коллекции.
// Ключ составной: id уникален в пределах контейнера.
type Document struct {
	ID        string         `gorm:"primaryKey;size:40"`
	Container string         `gorm:"primaryKey;size:64;index"`
	Data      datatypes.JSON `gorm:"not null"`

	// Время ставит сервис, а не gorm: updatedAt у коллекции пуст до первой правки.
	CreatedAt time.Time  `gorm:"not null;index;autoCreateTime:false"`
	UpdatedAt *time.Time `gorm:"index;autoUpdateTime:false"`
}

// Fields декодирует открытый набор атрибутов документа.
func (d *Document) Fields() (map[string]any, error) {
	m := map[string]any{}
	if len(d.Data) == 0 {
		return m, nil
	}
	if err := json.Unmarshal(d.Data, &m); err != nil {
		return nil, err
	}
	return m, nil
}

// SetFields кодирует атрибуты в Data.
func (d *Document) SetFields(fields map[string]any) error {
	if fields == nil {
		fields = map[string]any{}
	}
	b, err := json.Marshal(fields)
	if err != nil {
		return err
	}
	d.Data = datatypes.JSON(b)
	return nil
}
