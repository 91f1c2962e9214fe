package model

import (
	"encoding/json"
	"time"
)

// CollectionsContainer - контейнер, в котором хранятся схемы коллекций.
const CollectionsContainer = "collections"

// Collection - пользовательская схема и контейнер её элементов.
type Collection struct {
	ID          string        `json:"id"`
	Name        string        `json:"name"`
	Description string        `json:"description"`
	Fields      []FieldSchema `json:"fields"`
	CreatedAt   time.Time     `json:"createdAt"`
	UpdatedAt   *time.Time    `json:"updatedAt,omitempty"`
}

// collectionData - то, что попадает в Data документа.
type collectionData struct {
	Name        string        `json:"name"`
	Description string        `json:"description"`
	Fields      []FieldSchema `json:"fields"`
}

// Field ищет поле по имени.
func (c *Collection) Field(name string) (FieldSchema, bool) {
	for _, f := range c.Fields {
		if f.Name == name {
			return f, true
		}
	}
	return FieldSchema{}, false
}

// Document собирает документ для хранилища.
func (c *Collection) Document() (*Document, error) {
	b, err := json.Marshal(collectionData{Name: c.Name, Description: c.Description, Fields: c.Fields})
	if err != nil {
		return nil, err
	}
	return &Document{
		ID:        c.ID,
		Container: CollectionsContainer,
		Data:      b,
		CreatedAt: c.CreatedAt,
		UpdatedAt: c.UpdatedAt,
	}, nil
}

// CollectionFromDocument восстанавливает коллекцию из документа.
func CollectionFromDocument(d *Document) (*Collection, error) {
	var data collectionData
	if len(d.Data) > 0 {
		if err := json.Unmarshal(d.Data, &data); err != nil {
			return nil, err
		}
	}
	if data.Fields == nil {
		data.Fields = []FieldSchema{}
	}
	return &Collection{
		ID:          d.ID,
		Name:        data.Name,
		Description: data.Description,
		Fields:      data.Fields,
		CreatedAt:   d.CreatedAt,
		UpdatedAt:   d.UpdatedAt,
	}, nil
}
