// Package listing implements the paginated, sortable and filterable list of a
// container. Pages are fetched with keyset cursors, so page N is reachable only
// after page N-1 has been loaded in the current sort/filter/page-size state.
package listing

import (
	"SchemaDesk/internal/model"
	"SchemaDesk/internal/repo"
	"context"
	"errors"
	"fmt"
	"sync"

	"go.uber.org/zap"
)

// Допустимые размеры страницы и значения по умолчанию.
var PageSizes = []int{5, 10, 25, 50, 100, 500}

const (
	DefaultPageSize  = 10
	DefaultSortField = repo.SortCreatedAt
)

// Направления сортировки.
const (
	Asc  = "asc"
	Desc = "desc"
)

var (
	ErrPageNotVisited   = errors.New("page requires the previous page to be loaded first")
	ErrPageOutOfRange   = errors.New("page out of range")
	ErrInvalidPageSize  = errors.New("invalid page size")
	ErrInvalidSortField = errors.New("invalid sort field")
	// ErrStale - состояние списка изменилось, пока шла загрузка; результат отброшен.
	ErrStale = errors.New("list state changed during fetch")
)

// Source - то, откуда список берёт документы.
type Source interface {
	Query(ctx context.Context, q repo.PageQuery) ([]model.Document, error)
	Count(ctx context.Context, container string) (int64, error)
}

// Decorator дополняет строки страницы до фильтрации.
// Ошибка декоратора проваливает всю загрузку.
type Decorator func(ctx context.Context, rows []Row) error

// Page - результат загрузки страницы.
type Page struct {
	Items         []Row             `json:"items"`
	TotalItems    int64             `json:"totalItems"`
	HasMore       bool              `json:"hasMore"`
	CurrentPage   int               `json:"currentPage"`
	LastPage      int               `json:"lastPage"`
	ItemsPerPage  int               `json:"itemsPerPage"`
	SortField     string            `json:"sortField"`
	SortDirection string            `json:"sortDirection"`
	Filters       map[string]string `json:"filters"`
}

// IDs возвращает id строк страницы.
func (p *Page) IDs() []string {
	ids := make([]string, len(p.Items))
	for i, r := range p.Items {
		ids[i] = r.ID
	}
	return ids
}

// Option настраивает Engine.
type Option func(*Engine)

// WithDecorator задаёт декоратор строк.
func WithDecorator(d Decorator) Option {
	return func(e *Engine) { e.decorate = d }
}

// WithLogger задаёт логгер.
func WithLogger(l *zap.SugaredLogger) Option {
	return func(e *Engine) { e.log = l }
}

// Engine - состояние списка одного контейнера.
type Engine struct {
	src       Source
	container string
	decorate  Decorator
	log       *zap.SugaredLogger

	// fetchMu: в каждый момент идёт не больше одной загрузки
	fetchMu sync.Mutex

	mu        sync.Mutex
	sortField string
	desc      bool
	filters   map[string]string
	perPage   int
	page      int
	total     int64
	loaded    bool
	// cursors[n] - последний документ страницы n
	cursors map[int]repo.Cursor
	gen     uint64
}

// NewEngine создаёт список контейнера с сортировкой createdAt desc и 10 строками на странице.
func NewEngine(src Source, container string, opts ...Option) *Engine {
	e := &Engine{
		src:       src,
		container: container,
		log:       zap.NewNop().Sugar(),
		sortField: DefaultSortField,
		desc:      true,
		filters:   map[string]string{},
		perPage:   DefaultPageSize,
		page:      1,
		cursors:   map[int]repo.Cursor{},
	}
	for _, o := range opts {
		o(e)
	}
	return e
}

// Container возвращает имя контейнера.
func (e *Engine) Container() string { return e.container }

// ToggleSort: тот же ключ меняет направление, новый ключ включается по возрастанию.
func (e *Engine) ToggleSort(field string) error {
	if !validSortField(field) {
		return fmt.Errorf("%w: %q", ErrInvalidSortField, field)
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	if field == e.sortField {
		e.desc = !e.desc
	} else {
		e.sortField = field
		e.desc = false
	}
	e.resetLocked()
	return nil
}

// SetSort задаёт сортировку явно. Повтор текущей сортировки ничего не сбрасывает.
func (e *Engine) SetSort(field, direction string) error {
	if !validSortField(field) {
		return fmt.Errorf("%w: %q", ErrInvalidSortField, field)
	}
	var desc bool
	switch direction {
	case Asc:
	case Desc:
		desc = true
	default:
		return fmt.Errorf("%w: direction %q", ErrInvalidSortField, direction)
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	if field == e.sortField && desc == e.desc {
		return nil
	}
	e.sortField, e.desc = field, desc
	e.resetLocked()
	return nil
}

// SetFilters заменяет набор фильтров.
func (e *Engine) SetFilters(filters map[string]string) {
	f := normalizeFilters(filters)
	e.mu.Lock()
	defer e.mu.Unlock()
	if sameFilters(f, e.filters) {
		return
	}
	e.filters = f
	e.resetLocked()
}

// SetItemsPerPage меняет размер страницы.
func (e *Engine) SetItemsPerPage(n int) error {
	if !validPageSize(n) {
		return fmt.Errorf("%w: %d", ErrInvalidPageSize, n)
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	if n == e.perPage {
		return nil
	}
	e.perPage = n
	e.resetLocked()
	return nil
}

// CurrentPage возвращает номер текущей страницы.
func (e *Engine) CurrentPage() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.page
}

// Invalidate сбрасывает курсоры и возвращает список на первую страницу.
func (e *Engine) Invalidate() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.resetLocked()
}

func (e *Engine) resetLocked() {
	e.cursors = map[int]repo.Cursor{}
	e.page = 1
	e.gen++
}

// Refresh перечитывает текущую страницу, например после удаления.
func (e *Engine) Refresh(ctx context.Context) (*Page, error) {
	return e.Load(ctx, e.CurrentPage())
}

type snapshot struct {
	gen       uint64
	sortField string
	desc      bool
	filters   map[string]string
	perPage   int
	after     *repo.Cursor
}

// Load загружает страницу page. Для page > 1 нужна уже загруженная страница page-1.
func (e *Engine) Load(ctx context.Context, page int) (*Page, error) {
	e.mu.Lock()
	e.gen++
	myGen := e.gen
	e.mu.Unlock()

	e.fetchMu.Lock()
	defer e.fetchMu.Unlock()

	snap, err := e.prepare(myGen, page)
	if err != nil {
		return nil, err
	}

	total, err := e.src.Count(ctx, e.container)
	if err != nil {
		return nil, fmt.Errorf("count %s: %w", e.container, err)
	}
	docs, err := e.src.Query(ctx, repo.PageQuery{
		Container: e.container,
		SortField: snap.sortField,
		Desc:      snap.desc,
		Limit:     snap.perPage,
		After:     snap.after,
	})
	if err != nil {
		return nil, fmt.Errorf("query %s: %w", e.container, err)
	}

	rows := make([]Row, 0, len(docs))
	for i := range docs {
		r, err := rowFromDocument(&docs[i])
		if err != nil {
			return nil, fmt.Errorf("decode %s/%s: %w", e.container, docs[i].ID, err)
		}
		rows = append(rows, r)
	}
	if e.decorate != nil && len(rows) > 0 {
		if err := e.decorate(ctx, rows); err != nil {
			return nil, err
		}
	}
	visible := applyFilters(rows, snap.filters)

	var last *repo.Cursor
	if len(docs) > 0 {
		c, err := repo.NewCursor(&docs[len(docs)-1], snap.sortField)
		if err != nil {
			return nil, err
		}
		last = &c
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	if e.gen != snap.gen {
		e.log.Debugw("listing: stale page discarded", "container", e.container, "page", page)
		return nil, ErrStale
	}
	if last != nil {
		e.cursors[page] = *last
	}
	e.page = page
	e.total = total
	e.loaded = true

	dir := Asc
	if snap.desc {
		dir = Desc
	}
	e.log.Debugw("listing: page loaded",
		"container", e.container,
		"page", page,
		"raw", len(docs),
		"visible", len(visible),
		"total", total,
	)
	return &Page{
		Items:         visible,
		TotalItems:    total,
		HasMore:       len(docs) == snap.perPage,
		CurrentPage:   page,
		LastPage:      lastPage(total, snap.perPage),
		ItemsPerPage:  snap.perPage,
		SortField:     snap.sortField,
		SortDirection: dir,
		Filters:       copyFilters(snap.filters),
	}, nil
}

// prepare проверяет номер страницы и снимает состояние для запроса.
func (e *Engine) prepare(gen uint64, page int) (snapshot, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.gen != gen {
		return snapshot{}, ErrStale
	}
	if page < 1 {
		return snapshot{}, fmt.Errorf("%w: %d", ErrPageOutOfRange, page)
	}
	if e.loaded && page > lastPage(e.total, e.perPage) {
		return snapshot{}, fmt.Errorf("%w: %d", ErrPageOutOfRange, page)
	}
	s := snapshot{
		gen:       gen,
		sortField: e.sortField,
		desc:      e.desc,
		filters:   copyFilters(e.filters),
		perPage:   e.perPage,
	}
	if page > 1 {
		c, ok := e.cursors[page-1]
		if !ok {
			return snapshot{}, fmt.Errorf("%w: %d", ErrPageNotVisited, page)
		}
		s.after = &c
	}
	return s, nil
}

func lastPage(total int64, perPage int) int {
	if total <= 0 || perPage <= 0 {
		return 1
	}
	return int((total + int64(perPage) - 1) / int64(perPage))
}

func copyFilters(f map[string]string) map[string]string {
	out := make(map[string]string, len(f))
	for k, v := range f {
		out[k] = v
	}
	return out
}

func validPageSize(n int) bool {
	for _, s := range PageSizes {
		if s == n {
			return true
		}
	}
	return false
}

func validSortField(field string) bool {
	if field == repo.SortCreatedAt || field == repo.SortUpdatedAt {
		return true
	}
	return model.ValidFieldName(field)
}
