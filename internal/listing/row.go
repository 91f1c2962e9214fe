package listing

import (
	"SchemaDesk/internal/model"
	"encoding/json"
	"time"
)

// Row - запись страницы списка: атрибуты документа плюс поля,
// добавленные декоратором (например itemsCount на дашборде).
type Row struct {
	ID        string
	Values    map[string]any
	CreatedAt time.Time
	UpdatedAt *time.Time
}

func rowFromDocument(d *model.Document) (Row, error) {
	values, err := d.Fields()
	if err != nil {
		return Row{}, err
	}
	return Row{ID: d.ID, Values: values, CreatedAt: d.CreatedAt, UpdatedAt: d.UpdatedAt}, nil
}

// MarshalJSON отдаёт строку плоским объектом, как model.Item.
func (r Row) MarshalJSON() ([]byte, error) {
	out := make(map[string]any, len(r.Values)+3)
	for k, v := range r.Values {
		out[k] = v
	}
	out["id"] = r.ID
	out["createdAt"] = r.CreatedAt.UTC().Format(time.RFC3339Nano)
	if r.UpdatedAt != nil {
		out["updatedAt"] = r.UpdatedAt.UTC().Format(time.RFC3339Nano)
	}
	return json.Marshal(out)
}
