package handlers

import (
	"SchemaDesk/internal/listing"
	"net/http"
	"net/url"
	"strconv"
	"strings"
)

const filterPrefix = "filter."

// listResponse - страница списка вместе с выбором на ней.
type listResponse struct {
	*listing.Page
	Selected    []string `json:"selected"`
	AllSelected bool     `json:"allSelected"`
}

func newListResponse(v *listing.View, p *listing.Page) listResponse {
	return listResponse{Page: p, Selected: v.Selection.IDs(), AllSelected: v.Selection.AllSelected()}
}

// loadView применяет параметры запроса к состоянию списка и грузит страницу.
//
//	page      номер страницы; без него перечитывается текущая
//	limit     строк на странице
//	sort, dir ключ и направление сортировки
//	filter.X  фильтр по полю X; набор фильтров задаётся запросом целиком
func loadView(r *http.Request, v *listing.View) (*listing.Page, error) {
	q := r.URL.Query()
	if s := q.Get("limit"); s != "" {
		n, err := strconv.Atoi(s)
		if err != nil {
			return nil, listing.ErrInvalidPageSize
		}
		if err := v.List.SetItemsPerPage(n); err != nil {
			return nil, err
		}
	}
	if field := q.Get("sort"); field != "" {
		dir := strings.ToLower(q.Get("dir"))
		if dir == "" {
			dir = listing.Asc
		}
		if err := v.List.SetSort(field, dir); err != nil {
			return nil, err
		}
	}
	v.List.SetFilters(filtersFrom(q))

	if s := q.Get("page"); s != "" {
		n, err := strconv.Atoi(s)
		if err != nil {
			return nil, listing.ErrPageOutOfRange
		}
		return v.Load(r.Context(), n)
	}
	return v.Refresh(r.Context())
}

func filtersFrom(q url.Values) map[string]string {
	out := map[string]string{}
	for k, vals := range q {
		if strings.HasPrefix(k, filterPrefix) && len(vals) > 0 {
			out[strings.TrimPrefix(k, filterPrefix)] = vals[0]
		}
	}
	return out
}

type sortRequest struct {
	Field string `json:"field"`
}
