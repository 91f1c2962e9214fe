package listing

import (
	"SchemaDesk/internal/repo"
	"SchemaDesk/internal/schema"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// normalizeFilters убирает пустые значения и приводит фильтры по датам
// создания и изменения к виду YYYY-MM-DD.
func normalizeFilters(in map[string]string) map[string]string {
	out := make(map[string]string, len(in))
	for k, v := range in {
		v = strings.TrimSpace(v)
		if k == "" || v == "" {
			continue
		}
		if k == repo.SortCreatedAt || k == repo.SortUpdatedAt {
			v = normalizeDate(v)
		}
		out[k] = v
	}
	return out
}

func normalizeDate(v string) string {
	if t, err := time.Parse(time.RFC3339, v); err == nil {
		return t.UTC().Format(schema.DateLayout)
	}
	if len(v) > len(schema.DateLayout) {
		if _, err := time.Parse(schema.DateLayout, v[:len(schema.DateLayout)]); err == nil {
			return v[:len(schema.DateLayout)]
		}
	}
	return v
}

func sameFilters(a, b map[string]string) bool {
	if len(a) != len(b) {
		return false
	}
	for k, v := range a {
		if bv, ok := b[k]; !ok || bv != v {
			return false
		}
	}
	return true
}

// applyFilters оставляет строки, подходящие под все фильтры.
// Фильтр работает только по уже загруженной странице.
func applyFilters(rows []Row, filters map[string]string) []Row {
	if len(filters) == 0 {
		return rows
	}
	out := make([]Row, 0, len(rows))
	for _, r := range rows {
		if matches(r, filters) {
			out = append(out, r)
		}
	}
	return out
}

func matches(r Row, filters map[string]string) bool {
	for k, want := range filters {
		switch k {
		case repo.SortCreatedAt:
			if r.CreatedAt.UTC().Format(schema.DateLayout) != want {
				return false
			}
		case repo.SortUpdatedAt:
			if r.UpdatedAt == nil || r.UpdatedAt.UTC().Format(schema.DateLayout) != want {
				return false
			}
		case "id":
			if !containsFold(r.ID, want) {
				return false
			}
		default:
			v, ok := r.Values[k]
			if !ok || v == nil || !containsFold(stringify(v), want) {
				return false
			}
		}
	}
	return true
}

func containsFold(s, sub string) bool {
	return strings.Contains(strings.ToLower(s), strings.ToLower(sub))
}

func stringify(v any) string {
	switch x := v.(type) {
	case string:
		return x
	case float64:
		return strconv.FormatFloat(x, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(x)
	case []any, map[string]any:
		b, err := json.Marshal(x)
		if err != nil {
			return ""
		}
		return string(b)
	}
	return fmt.Sprint(v)
}
