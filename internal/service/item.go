package service

import (
	"SchemaDesk/internal/events"
	"SchemaDesk/internal/form"
	"SchemaDesk/internal/idgen"
	"SchemaDesk/internal/model"
	"SchemaDesk/internal/repo"
	"SchemaDesk/internal/selection"
	"context"
	"errors"
	"time"

	"go.uber.org/zap"
)

// ItemService - элементы коллекций: запись идёт только через форму.
type ItemService struct {
	docs        repo.DocumentRepository
	collections *CollectionService
	pub         events.Publisher
	log         *zap.SugaredLogger
	now         func() time.Time
	newID       func() (string, error)
}

// NewItemService создаёт сервис элементов.
func NewItemService(docs repo.DocumentRepository, collections *CollectionService, pub events.Publisher, log *zap.SugaredLogger) *ItemService {
	if pub == nil {
		pub = events.NoopPublisher{}
	}
	if log == nil {
		log = zap.NewNop().Sugar()
	}
	return &ItemService{
		docs:        docs,
		collections: collections,
		pub:         pub,
		log:         log,
		now:         time.Now,
		newID:       idgen.New,
	}
}

// CreateForm возвращает форму нового элемента коллекции.
func (s *ItemService) CreateForm(ctx context.Context, collectionID string) (*form.Form, error) {
	c, err := s.collections.Get(ctx, collectionID)
	if err != nil {
		return nil, err
	}
	return form.NewCreate(c.Fields, s.now()), nil
}

// EditForm возвращает форму редактирования элемента.
func (s *ItemService) EditForm(ctx context.Context, collectionID, id string) (*form.Form, error) {
	c, it, err := s.load(ctx, collectionID, id)
	if err != nil {
		return nil, err
	}
	return form.NewEdit(c.Fields, it, s.now()), nil
}

// Create заполняет форму значениями values и сохраняет новый элемент.
func (s *ItemService) Create(ctx context.Context, userID int64, collectionID string, values map[string]any) (*model.Item, error) {
	f, err := s.CreateForm(ctx, collectionID)
	if err != nil {
		return nil, err
	}
	if err := f.SetAll(values); err != nil {
		return nil, err
	}
	p, err := f.Submit(s.now())
	if err != nil {
		return nil, err
	}
	id, err := s.newID()
	if err != nil {
		return nil, classify("create item", err)
	}
	updated := p.UpdatedAt
	doc := &model.Document{ID: id, Container: collectionID, CreatedAt: *p.CreatedAt, UpdatedAt: &updated}
	if err := doc.SetFields(p.Values); err != nil {
		return nil, err
	}
	if err := s.docs.Create(ctx, doc); err != nil {
		s.log.Errorw("ItemService.Create: store error", "collection", collectionID, "error", err)
		return nil, classify("create item", err)
	}
	s.publish(ctx, events.TopicItemCreated, userID, collectionID, id)
	return &model.Item{ID: id, CollectionID: collectionID, Values: p.Values, CreatedAt: *p.CreatedAt, UpdatedAt: &updated}, nil
}

// Get возвращает элемент.
func (s *ItemService) Get(ctx context.Context, collectionID, id string) (*model.Item, error) {
	doc, err := s.docs.Get(ctx, collectionID, id)
	if err != nil {
		return nil, classify("get item", err)
	}
	it, err := model.ItemFromDocument(doc)
	if err != nil {
		return nil, classify("decode item", err)
	}
	return it, nil
}

// Update - сохранение формы редактирования. Пишутся только поля схемы,
// createdAt не меняется, атрибуты вне схемы остаются в документе.
func (s *ItemService) Update(ctx context.Context, userID int64, collectionID, id string, values map[string]any) (*model.Item, error) {
	c, it, err := s.load(ctx, collectionID, id)
	if err != nil {
		return nil, err
	}
	f := form.NewEdit(c.Fields, it, s.now())
	if err := f.SetAll(values); err != nil {
		return nil, err
	}
	p, err := f.Submit(s.now())
	if err != nil {
		return nil, err
	}
	return s.merge(ctx, userID, it, p)
}

// Patch - правка отдельных ячеек из таблицы.
func (s *ItemService) Patch(ctx context.Context, userID int64, collectionID, id string, partial map[string]any) (*model.Item, error) {
	c, it, err := s.load(ctx, collectionID, id)
	if err != nil {
		return nil, err
	}
	p, err := form.Patch(c.Fields, it, partial, s.now())
	if err != nil {
		return nil, err
	}
	return s.merge(ctx, userID, it, p)
}

func (s *ItemService) merge(ctx context.Context, userID int64, it *model.Item, p form.Payload) (*model.Item, error) {
	if err := s.docs.Merge(ctx, it.CollectionID, it.ID, p.Values, p.UpdatedAt); err != nil {
		s.log.Errorw("ItemService.merge: store error", "collection", it.CollectionID, "id", it.ID, "error", err)
		return nil, classify("update item", err)
	}
	for k, v := range p.Values {
		it.Values[k] = v
	}
	updated := p.UpdatedAt
	it.UpdatedAt = &updated
	s.publish(ctx, events.TopicItemUpdated, userID, it.CollectionID, it.ID)
	return it, nil
}

// Delete удаляет один элемент.
func (s *ItemService) Delete(ctx context.Context, userID int64, collectionID, id string) error {
	if _, err := s.Get(ctx, collectionID, id); err != nil {
		return err
	}
	if err := s.docs.Delete(ctx, collectionID, id); err != nil {
		return classify("delete item", err)
	}
	s.publish(ctx, events.TopicItemsDeleted, userID, collectionID, id)
	return nil
}

// DeleteMany удаляет выбранные элементы пачками. Возвращает число удалённых;
// при ошибке оно показывает, сколько успело удалиться до сбоя.
func (s *ItemService) DeleteMany(ctx context.Context, userID int64, collectionID string, ids []string) (int64, error) {
	n, err := selection.BulkDelete(ctx, s.docs, collectionID, ids)
	if n > 0 {
		s.publish(ctx, events.TopicItemsDeleted, userID, collectionID, ids...)
	}
	if err != nil {
		if errors.Is(err, selection.ErrEmptySelection) {
			ve := &model.ValidationError{}
			ve.Add("ids", "no items selected")
			return 0, ve
		}
		s.log.Errorw("ItemService.DeleteMany: bulk delete failed", "collection", collectionID, "deleted", n, "error", err)
		return n, classify("delete items", err)
	}
	return n, nil
}

func (s *ItemService) load(ctx context.Context, collectionID, id string) (*model.Collection, *model.Item, error) {
	c, err := s.collections.Get(ctx, collectionID)
	if err != nil {
		return nil, nil, err
	}
	it, err := s.Get(ctx, collectionID, id)
	if err != nil {
		return nil, nil, err
	}
	return c, it, nil
}

func (s *ItemService) publish(ctx context.Context, topic string, userID int64, container string, ids ...string) {
	ev := events.Change{Container: container, IDs: ids, UserID: userID, At: s.now().UTC()}
	if err := s.pub.Publish(ctx, topic, ev); err != nil {
		s.log.Warnw("publish event failed", "topic", topic, "error", err)
	}
}
