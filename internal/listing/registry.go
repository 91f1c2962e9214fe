package listing

import (
	"SchemaDesk/internal/model"
	"SchemaDesk/internal/selection"
	"context"
	"sync"

	"go.uber.org/zap"
)

// View - список контейнера вместе с выбором на его текущей странице.
type View struct {
	List      *Engine
	Selection *selection.Selection
}

// Load загружает страницу и привязывает выбор к её строкам.
func (v *View) Load(ctx context.Context, page int) (*Page, error) {
	p, err := v.List.Load(ctx, page)
	if err != nil {
		return nil, err
	}
	v.Selection.Reset(p.IDs())
	return p, nil
}

// Refresh перечитывает текущую страницу.
func (v *View) Refresh(ctx context.Context) (*Page, error) {
	return v.Load(ctx, v.List.CurrentPage())
}

type viewKey struct {
	userID    int64
	container string
}

// Registry хранит по одному View на пару (пользователь, контейнер).
type Registry struct {
	mu        sync.Mutex
	views     map[viewKey]*View
	newEngine func(container string) *Engine
}

// NewRegistry создаёт реестр; newEngine строит список для нового контейнера.
func NewRegistry(newEngine func(container string) *Engine) *Registry {
	return &Registry{views: map[viewKey]*View{}, newEngine: newEngine}
}

// NewDocumentRegistry - реестр списков поверх хранилища документов.
// Список коллекций (дашборд) дополнительно считает элементы каждой коллекции.
func NewDocumentRegistry(src Source, counter Counter, log *zap.SugaredLogger) *Registry {
	if log == nil {
		log = zap.NewNop().Sugar()
	}
	return NewRegistry(func(container string) *Engine {
		opts := []Option{WithLogger(log)}
		if container == model.CollectionsContainer {
			opts = append(opts, WithDecorator(ItemsCountDecorator(counter)))
		}
		return NewEngine(src, container, opts...)
	})
}

// View возвращает состояние списка пользователя, создавая его при первом обращении.
func (r *Registry) View(userID int64, container string) *View {
	r.mu.Lock()
	defer r.mu.Unlock()
	k := viewKey{userID: userID, container: container}
	if v, ok := r.views[k]; ok {
		return v
	}
	v := &View{List: r.newEngine(container), Selection: selection.New()}
	r.views[k] = v
	return v
}

// Peek возвращает View, не создавая его.
func (r *Registry) Peek(userID int64, container string) (*View, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	v, ok := r.views[viewKey{userID: userID, container: container}]
	return v, ok
}

// Drop забывает списки контейнера у всех пользователей.
func (r *Registry) Drop(container string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for k := range r.views {
		if k.container == container {
			delete(r.views, k)
		}
	}
}

// DropUser забывает все списки пользователя, например при выходе.
func (r *Registry) DropUser(userID int64) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for k := range r.views {
		if k.userID == userID {
			delete(r.views, k)
		}
	}
}
