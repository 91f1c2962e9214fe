package listing

import (
	"SchemaDesk/internal/model"
	"SchemaDesk/internal/repo"
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var base = time.Date(2024, 4, 10, 8, 0, 0, 0, time.UTC)

// fakeSource - упорядоченная выборка в памяти с keyset-курсором.
type fakeSource struct {
	mu       sync.Mutex
	docs     []model.Document
	countErr error
	// block/entered позволяют придержать Query
	block   chan struct{}
	entered chan struct{}
}

func newFakeSource(docs []model.Document) *fakeSource {
	return &fakeSource{docs: docs}
}

func sortKey(v any) string {
	switch x := v.(type) {
	case nil:
		return ""
	case time.Time:
		return x.UTC().Format("20060102150405.000000000")
	}
	return fmt.Sprint(v)
}

func docKey(d *model.Document, field string) string {
	c, _ := repo.NewCursor(d, field)
	return sortKey(c.Value)
}

func (f *fakeSource) Query(ctx context.Context, q repo.PageQuery) ([]model.Document, error) {
	if f.entered != nil {
		f.entered <- struct{}{}
	}
	if f.block != nil {
		<-f.block
	}
	f.mu.Lock()
	defer f.mu.Unlock()

	less := func(ka, ida, kb, idb string) bool {
		if ka != kb {
			return ka < kb
		}
		return ida < idb
	}
	var out []model.Document
	for i := range f.docs {
		d := f.docs[i]
		if d.Container != q.Container {
			continue
		}
		if q.After != nil {
			k, ak := docKey(&d, q.SortField), sortKey(q.After.Value)
			if !q.Desc && !less(ak, q.After.ID, k, d.ID) {
				continue
			}
			if q.Desc && !less(k, d.ID, ak, q.After.ID) {
				continue
			}
		}
		out = append(out, d)
	}
	sort.Slice(out, func(i, j int) bool {
		ki, kj := docKey(&out[i], q.SortField), docKey(&out[j], q.SortField)
		if q.Desc {
			return less(kj, out[j].ID, ki, out[i].ID)
		}
		return less(ki, out[i].ID, kj, out[j].ID)
	})
	if q.Limit > 0 && len(out) > q.Limit {
		out = out[:q.Limit]
	}
	return out, nil
}

func (f *fakeSource) Count(ctx context.Context, container string) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.countErr != nil {
		return 0, f.countErr
	}
	var n int64
	for _, d := range f.docs {
		if d.Container == container {
			n++
		}
	}
	return n, nil
}

var _ Source = (*fakeSource)(nil)

// books строит n элементов: book01 самый старый.
func books(t *testing.T, n int) []model.Document {
	t.Helper()
	docs := make([]model.Document, 0, n)
	for i := 1; i <= n; i++ {
		genre := "Fantasy"
		if i%2 == 0 {
			genre = "SciFi"
		}
		d := model.Document{
			ID:        fmt.Sprintf("book%02d", i),
			Container: "books",
			CreatedAt: base.Add(time.Duration(i) * time.Minute),
		}
		require.NoError(t, d.SetFields(map[string]any{"title": fmt.Sprintf("Title %02d", i), "genre": genre}))
		docs = append(docs, d)
	}
	return docs
}

func TestEngine_PaginationScenario(t *testing.T) {
	ctx := context.Background()
	e := NewEngine(newFakeSource(books(t, 25)), "books")

	p1, err := e.Load(ctx, 1)
	require.NoError(t, err)
	assert.Len(t, p1.Items, 10)
	assert.True(t, p1.HasMore)
	assert.Equal(t, int64(25), p1.TotalItems)
	assert.Equal(t, 3, p1.LastPage)
	assert.Equal(t, "createdAt", p1.SortField)
	assert.Equal(t, Desc, p1.SortDirection)
	assert.Equal(t, "book25", p1.Items[0].ID)

	p2, err := e.Load(ctx, 2)
	require.NoError(t, err)
	assert.Equal(t, "book15", p2.Items[0].ID)
	assert.True(t, p2.HasMore)

	p3, err := e.Load(ctx, 3)
	require.NoError(t, err)
	assert.Len(t, p3.Items, 5)
	assert.False(t, p3.HasMore)
	assert.Equal(t, []string{"book05", "book04", "book03", "book02", "book01"}, p3.IDs())

	// назад на первую страницу можно всегда
	p1again, err := e.Load(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, p1.IDs(), p1again.IDs())
}

func TestEngine_PageBounds(t *testing.T) {
	ctx := context.Background()
	e := NewEngine(newFakeSource(books(t, 25)), "books")

	_, err := e.Load(ctx, 2)
	assert.ErrorIs(t, err, ErrPageNotVisited)
	_, err = e.Load(ctx, 0)
	assert.ErrorIs(t, err, ErrPageOutOfRange)

	_, err = e.Load(ctx, 1)
	require.NoError(t, err)
	_, err = e.Load(ctx, 4)
	assert.ErrorIs(t, err, ErrPageOutOfRange)
	_, err = e.Load(ctx, 3)
	assert.ErrorIs(t, err, ErrPageNotVisited)
}

func TestEngine_EmptyContainer(t *testing.T) {
	e := NewEngine(newFakeSource(nil), "books")
	p, err := e.Load(context.Background(), 1)
	require.NoError(t, err)
	assert.Empty(t, p.Items)
	assert.False(t, p.HasMore)
	assert.Equal(t, 1, p.LastPage)
}

func TestEngine_ExactMultipleHasMoreOnLastPage(t *testing.T) {
	ctx := context.Background()
	e := NewEngine(newFakeSource(books(t, 20)), "books")

	_, err := e.Load(ctx, 1)
	require.NoError(t, err)
	p2, err := e.Load(ctx, 2)
	require.NoError(t, err)
	// полная последняя страница ещё не признак конца данных
	assert.True(t, p2.HasMore)
	assert.Equal(t, 2, p2.LastPage)
}

func TestEngine_ToggleSort(t *testing.T) {
	ctx := context.Background()
	e := NewEngine(newFakeSource(books(t, 25)), "books")

	_, err := e.Load(ctx, 1)
	require.NoError(t, err)
	_, err = e.Load(ctx, 2)
	require.NoError(t, err)

	// тот же ключ - меняется только направление
	require.NoError(t, e.ToggleSort("createdAt"))
	assert.Equal(t, 1, e.CurrentPage())
	_, err = e.Load(ctx, 2)
	assert.ErrorIs(t, err, ErrPageNotVisited)

	p, err := e.Load(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, "createdAt", p.SortField)
	assert.Equal(t, Asc, p.SortDirection)
	assert.Equal(t, "book01", p.Items[0].ID)

	// новый ключ - по возрастанию
	require.NoError(t, e.ToggleSort("title"))
	p, err = e.Load(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, "title", p.SortField)
	assert.Equal(t, Asc, p.SortDirection)
	assert.Equal(t, "book01", p.Items[0].ID)

	require.NoError(t, e.ToggleSort("title"))
	p, err = e.Load(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, Desc, p.SortDirection)
	assert.Equal(t, "book25", p.Items[0].ID)

	assert.ErrorIs(t, e.ToggleSort("bad field"), ErrInvalidSortField)
}

func TestEngine_SettersAreNoOpWhenUnchanged(t *testing.T) {
	ctx := context.Background()
	e := NewEngine(newFakeSource(books(t, 25)), "books")

	_, err := e.Load(ctx, 1)
	require.NoError(t, err)
	_, err = e.Load(ctx, 2)
	require.NoError(t, err)

	require.NoError(t, e.SetItemsPerPage(DefaultPageSize))
	require.NoError(t, e.SetSort("createdAt", Desc))
	e.SetFilters(map[string]string{"title": " "})
	assert.Equal(t, 2, e.CurrentPage())
	_, err = e.Load(ctx, 3)
	assert.NoError(t, err)

	assert.ErrorIs(t, e.SetItemsPerPage(7), ErrInvalidPageSize)
	assert.ErrorIs(t, e.SetSort("title", "sideways"), ErrInvalidSortField)

	require.NoError(t, e.SetItemsPerPage(50))
	assert.Equal(t, 1, e.CurrentPage())
	p, err := e.Load(ctx, 1)
	require.NoError(t, err)
	assert.Len(t, p.Items, 25)
	assert.False(t, p.HasMore)
}

func TestEngine_FiltersApplyToLoadedPageOnly(t *testing.T) {
	ctx := context.Background()
	e := NewEngine(newFakeSource(books(t, 25)), "books")

	e.SetFilters(map[string]string{"genre": "scifi"})
	p, err := e.Load(ctx, 1)
	require.NoError(t, err)
	// страница 25..16, из них чётные
	assert.Equal(t, []string{"book24", "book22", "book20", "book18", "book16"}, p.IDs())
	// total не фильтруется
	assert.Equal(t, int64(25), p.TotalItems)
	assert.True(t, p.HasMore)
	assert.Equal(t, map[string]string{"genre": "scifi"}, p.Filters)

	e.SetFilters(map[string]string{"createdAt": base.Add(time.Minute).Format(time.RFC3339)})
	p, err = e.Load(ctx, 1)
	require.NoError(t, err)
	assert.Len(t, p.Items, 10)
	assert.Equal(t, "2024-04-10", p.Filters["createdAt"])

	e.SetFilters(map[string]string{"createdAt": "2024-04-11"})
	p, err = e.Load(ctx, 1)
	require.NoError(t, err)
	assert.Empty(t, p.Items)

	// updatedAt не задан ни у одного элемента
	e.SetFilters(map[string]string{"updatedAt": "2024-04-10"})
	p, err = e.Load(ctx, 1)
	require.NoError(t, err)
	assert.Empty(t, p.Items)
}

func TestEngine_StaleFetchDiscarded(t *testing.T) {
	ctx := context.Background()
	src := newFakeSource(books(t, 25))
	src.block = make(chan struct{})
	src.entered = make(chan struct{}, 1)
	e := NewEngine(src, "books")

	errCh := make(chan error, 1)
	go func() {
		_, err := e.Load(ctx, 1)
		errCh <- err
	}()

	<-src.entered
	require.NoError(t, e.ToggleSort("title"))
	close(src.block)
	assert.ErrorIs(t, <-errCh, ErrStale)

	// следующая загрузка видит уже новое состояние
	p, err := e.Load(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, "title", p.SortField)
}

func TestEngine_CountFailure(t *testing.T) {
	src := newFakeSource(books(t, 3))
	src.countErr = errors.New("offline")
	e := NewEngine(src, "books")
	_, err := e.Load(context.Background(), 1)
	assert.ErrorIs(t, err, src.countErr)
}

func TestEngine_RefreshKeepsCurrentPage(t *testing.T) {
	ctx := context.Background()
	src := newFakeSource(books(t, 25))
	e := NewEngine(src, "books")

	_, err := e.Load(ctx, 1)
	require.NoError(t, err)
	_, err = e.Load(ctx, 2)
	require.NoError(t, err)

	// удаляем первый элемент второй страницы
	src.mu.Lock()
	for i := range src.docs {
		if src.docs[i].ID == "book15" {
			src.docs = append(src.docs[:i], src.docs[i+1:]...)
			break
		}
	}
	src.mu.Unlock()

	p, err := e.Refresh(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, p.CurrentPage)
	assert.Equal(t, "book14", p.Items[0].ID)
	assert.Equal(t, int64(24), p.TotalItems)
}
