package form

import (
	"encoding/json"
	"time"
)

// Payload - то, что форма отдаёт на запись.
// CreatedAt заполнен только в режиме создания.
type Payload struct {
	Values    map[string]any
	CreatedAt *time.Time
	UpdatedAt time.Time
}

// MarshalJSON раскладывает значения и метки времени в один объект.
func (p Payload) MarshalJSON() ([]byte, error) {
	m := make(map[string]any, len(p.Values)+2)
	for k, v := range p.Values {
		m[k] = v
	}
	if p.CreatedAt != nil {
		m["createdAt"] = p.CreatedAt.UTC().Format(time.RFC3339Nano)
	}
	m["updatedAt"] = p.UpdatedAt.UTC().Format(time.RFC3339Nano)
	return json.Marshal(m)
}
