package commands

import (
	"SchemaDesk/internal/config"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"testing"
)

// withTempConfig возвращает конфиг с токеном во временном каталоге,
// чтобы артефакты CLI не попадали в домашний каталог.
func withTempConfig(t *testing.T, serverURL string) *config.Config {
	t.Helper()
	return &config.Config{ServerURL: serverURL, TokenFile: filepath.Join(t.TempDir(), "token")}
}

// fakeAPI - минимальный админский API в памяти: один пользователь,
// одна коллекция books и постраничный список её элементов.
type fakeAPI struct {
	mu       sync.Mutex
	items    []string
	selected map[string]bool
	// page - последняя загруженная страница, как у серверного представления
	page     int
	requests []string
	// created - тело последнего POST /api/collections
	created map[string]any
}

func newFakeAPI(t *testing.T, n int) (*fakeAPI, *httptest.Server) {
	t.Helper()
	f := &fakeAPI{selected: map[string]bool{}}
	for i := 1; i <= n; i++ {
		f.items = append(f.items, "item"+strconv.Itoa(i))
	}
	ts := httptest.NewServer(f)
	t.Cleanup(ts.Close)
	return f, ts
}

func (f *fakeAPI) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func (f *fakeAPI) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.requests = append(f.requests, r.Method+" "+r.URL.Path)

	me := map[string]any{"id": 1, "email": "admin@example.com", "role": "admin"}
	switch r.URL.Path {
	case "/api/auth/login", "/api/setup":
		var c struct{ Email, Password string }
		_ = json.NewDecoder(r.Body).Decode(&c)
		if c.Password != "secret1" {
			f.writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "invalid email or password", "code": "UNAUTHORIZED"})
			return
		}
		http.SetCookie(w, &http.Cookie{Name: "auth_token", Value: "tok-1"})
		f.writeJSON(w, http.StatusOK, me)
		return
	case "/api/auth/logout":
		w.WriteHeader(http.StatusNoContent)
		return
	}

	if c, err := r.Cookie("auth_token"); err != nil || c.Value != "tok-1" {
		f.writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "unauthorized", "code": "UNAUTHORIZED"})
		return
	}
	switch {
	case r.URL.Path == "/api/auth/me":
		f.writeJSON(w, http.StatusOK, me)
	case r.URL.Path == "/api/collections" && r.Method == http.MethodPost:
		_ = json.NewDecoder(r.Body).Decode(&f.created)
		body := map[string]any{"id": "col1", "itemsCount": 0}
		for k, v := range f.created {
			body[k] = v
		}
		f.writeJSON(w, http.StatusCreated, body)
	case r.URL.Path == "/api/collections":
		f.writeJSON(w, http.StatusOK, map[string]any{
			"items": []map[string]any{{
				"id": "books", "name": "Books", "itemsCount": len(f.items), "createdAt": "2024-04-10T08:00:00Z",
			}},
			"totalItems": 1, "currentPage": 1, "lastPage": 1,
		})
	case r.URL.Path == "/api/collections/books/items" && r.Method == http.MethodGet:
		page, _ := strconv.Atoi(r.URL.Query().Get("page"))
		if page != 1 && page != f.page+1 {
			f.writeJSON(w, http.StatusBadRequest, map[string]string{"error": "page requires the previous page to be loaded first", "code": "INVALID_PAGE"})
			return
		}
		f.page = page
		f.selected = map[string]bool{}
		f.writeJSON(w, http.StatusOK, f.pageBody())
	case strings.HasPrefix(r.URL.Path, "/api/collections/books/selection/"):
		id := strings.TrimPrefix(r.URL.Path, "/api/collections/books/selection/")
		if id == "all" {
			for _, it := range f.pageIDs() {
				f.selected[it] = true
			}
		} else {
			f.selected[id] = true
		}
		f.writeJSON(w, http.StatusOK, map[string]any{"count": len(f.selected)})
	case r.URL.Path == "/api/collections/books/items" && r.Method == http.MethodDelete:
		kept := f.items[:0]
		n := 0
		for _, it := range f.items {
			if f.selected[it] {
				n++
				continue
			}
			kept = append(kept, it)
		}
		f.items = kept
		f.selected = map[string]bool{}
		f.writeJSON(w, http.StatusOK, map[string]any{"deleted": n, "page": f.pageBody()})
	default:
		f.writeJSON(w, http.StatusNotFound, map[string]string{"error": "not found", "code": "NOT_FOUND"})
	}
}

const fakePageSize = 5

func (f *fakeAPI) pageIDs() []string {
	from := (f.page - 1) * fakePageSize
	if from >= len(f.items) {
		return nil
	}
	to := from + fakePageSize
	if to > len(f.items) {
		to = len(f.items)
	}
	return f.items[from:to]
}

func (f *fakeAPI) pageBody() map[string]any {
	rows := []map[string]any{}
	for _, id := range f.pageIDs() {
		rows = append(rows, map[string]any{"id": id, "title": "Title " + id, "read": false, "createdAt": "2024-04-10T08:00:00Z"})
	}
	last := (len(f.items) + fakePageSize - 1) / fakePageSize
	if last == 0 {
		last = 1
	}
	return map[string]any{
		"items":       rows,
		"totalItems":  len(f.items),
		"hasMore":     len(rows) == fakePageSize,
		"currentPage": f.page,
		"lastPage":    last,
		"collection": map[string]any{
			"id": "books", "name": "Books",
			"fields": []map[string]any{{"name": "title", "type": "text"}, {"name": "read", "type": "boolean"}},
		},
	}
}
