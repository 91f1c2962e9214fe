package model

import (
	"encoding/json"
	"time"
)

// Item - документ коллекции; смысл значений задаёт схема коллекции при отображении.
type Item struct {
	ID           string
	CollectionID string
	Values       map[string]any
	CreatedAt    time.Time
	UpdatedAt    *time.Time
}

// MarshalJSON отдаёт элемент плоским объектом: поля схемы плюс id и метки времени.
func (it Item) MarshalJSON() ([]byte, error) {
	out := make(map[string]any, len(it.Values)+3)
	for k, v := range it.Values {
		out[k] = v
	}
	out["id"] = it.ID
	out["createdAt"] = it.CreatedAt.UTC().Format(time.RFC3339Nano)
	if it.UpdatedAt != nil {
		out["updatedAt"] = it.UpdatedAt.UTC().Format(time.RFC3339Nano)
	}
	return json.Marshal(out)
}

// ItemFromDocument восстанавливает элемент из документа контейнера коллекции.
func ItemFromDocument(d *Document) (*Item, error) {
	values, err := d.Fields()
	if err != nil {
		return nil, err
	}
	return &Item{
		ID:           d.ID,
		CollectionID: d.Container,
		Values:       values,
		CreatedAt:    d.CreatedAt,
		UpdatedAt:    d.UpdatedAt,
	}, nil
}
