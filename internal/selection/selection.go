// Package selection держит набор выбранных элементов текущей страницы
// и выполняет массовое удаление пачками.
package selection

import (
	"context"
	"errors"
	"fmt"
	"sync"
)

// MaxBatchSize - предел одной пакетной операции хранилища.
const MaxBatchSize = 500

// ErrEmptySelection - удалять нечего.
var ErrEmptySelection = errors.New("selection is empty")

// Selection - выбранные id в пределах загруженной страницы.
type Selection struct {
	mu          sync.Mutex
	page        []string
	selected    map[string]struct{}
	allSelected bool
}

// New создаёт пустой набор.
func New() *Selection {
	return &Selection{selected: map[string]struct{}{}}
}

// Reset вызывается на каждую загрузку страницы: набор очищается
// и привязывается к новым id.
func (s *Selection) Reset(pageIDs []string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.page = append([]string(nil), pageIDs...)
	s.selected = map[string]struct{}{}
	s.allSelected = false
}

// SelectAll выбирает всю страницу, а если она уже выбрана - снимает выбор.
func (s *Selection) SelectAll() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.allSelected {
		s.selected = map[string]struct{}{}
		s.allSelected = false
		return
	}
	for _, id := range s.page {
		s.selected[id] = struct{}{}
	}
	s.allSelected = len(s.page) > 0
}

// SelectOne переключает id и возвращает, выбран ли он теперь.
// id не с текущей страницы игнорируется.
func (s *Selection) SelectOne(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.onPage(id) {
		return false
	}
	_, was := s.selected[id]
	if was {
		delete(s.selected, id)
	} else {
		s.selected[id] = struct{}{}
	}
	s.allSelected = len(s.page) > 0 && len(s.selected) == len(s.page)
	return !was
}

// Clear снимает выбор.
func (s *Selection) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.selected = map[string]struct{}{}
	s.allSelected = false
}

// Forget убирает удалённые id из набора.
func (s *Selection) Forget(ids ...string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, id := range ids {
		delete(s.selected, id)
	}
	s.allSelected = len(s.page) > 0 && len(s.selected) == len(s.page)
}

// IDs возвращает выбранные id в порядке страницы.
func (s *Selection) IDs() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]string, 0, len(s.selected))
	for _, id := range s.page {
		if _, ok := s.selected[id]; ok {
			out = append(out, id)
		}
	}
	return out
}

// AllSelected сообщает, выбрана ли вся страница.
func (s *Selection) AllSelected() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.allSelected
}

// Len - число выбранных id.
func (s *Selection) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.selected)
}

func (s *Selection) onPage(id string) bool {
	for _, p := range s.page {
		if p == id {
			return true
		}
	}
	return false
}

// Deleter - пакетное удаление документов контейнера.
type Deleter interface {
	DeleteBatch(ctx context.Context, container string, ids []string) (int64, error)
}

// Batches режет ids на куски не длиннее size.
func Batches(ids []string, size int) [][]string {
	if size <= 0 {
		size = MaxBatchSize
	}
	out := make([][]string, 0, (len(ids)+size-1)/size)
	for start := 0; start < len(ids); start += size {
		end := start + size
		if end > len(ids) {
			end = len(ids)
		}
		out = append(out, ids[start:end])
	}
	return out
}

// BulkDelete удаляет ids последовательными пачками по MaxBatchSize.
// Первая неудачная пачка прерывает операцию; уже выполненные пачки не откатываются.
// Возвращает число удалённых документов.
func BulkDelete(ctx context.Context, d Deleter, container string, ids []string) (int64, error) {
	if len(ids) == 0 {
		return 0, ErrEmptySelection
	}
	var total int64
	for i, batch := range Batches(ids, MaxBatchSize) {
		if err := ctx.Err(); err != nil {
			return total, err
		}
		n, err := d.DeleteBatch(ctx, container, batch)
		if err != nil {
			return total, fmt.Errorf("delete batch %d: %w", i+1, err)
		}
		total += n
	}
	return total, nil
}
