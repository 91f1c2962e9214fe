package service

import (
	"SchemaDesk/internal/events"
	"SchemaDesk/internal/idgen"
	"SchemaDesk/internal/listing"
	"SchemaDesk/internal/model"
	"SchemaDesk/internal/repo"
	"SchemaDesk/internal/schema"
	"SchemaDesk/internal/selection"
	"context"
	"strings"
	"time"

	"go.uber.org/zap"
)

// CollectionInput - то, что приходит из конструктора коллекции.
type CollectionInput struct {
	Name        string              `json:"name"`
	Description string              `json:"description"`
	Fields      []model.FieldSchema `json:"fields"`
}

// CollectionService управляет схемами коллекций.
type CollectionService struct {
	docs  repo.DocumentRepository
	views *listing.Registry
	pub   events.Publisher
	log   *zap.SugaredLogger
	now   func() time.Time
	newID func() (string, error)
}

// NewCollectionService создаёт сервис коллекций. views может быть nil.
func NewCollectionService(docs repo.DocumentRepository, views *listing.Registry, pub events.Publisher, log *zap.SugaredLogger) *CollectionService {
	if pub == nil {
		pub = events.NoopPublisher{}
	}
	if log == nil {
		log = zap.NewNop().Sugar()
	}
	return &CollectionService{docs: docs, views: views, pub: pub, log: log, now: time.Now, newID: idgen.New}
}

func validateCollection(in CollectionInput) (CollectionInput, error) {
	in.Name = strings.TrimSpace(in.Name)
	in.Description = strings.TrimSpace(in.Description)
	in.Fields = model.NormalizeFields(in.Fields)

	var ve model.ValidationError
	if in.Name == "" {
		ve.Add("name", "collection name is required")
	}
	if err := model.ValidateFieldList(in.Fields, schema.IsValidType); err != nil {
		if fe, ok := err.(*model.ValidationError); ok {
			ve.Errors = append(ve.Errors, fe.Errors...)
		} else {
			return in, err
		}
	}
	if ve.HasErrors() {
		return in, &ve
	}
	return in, nil
}

// Create сохраняет новую коллекцию.
func (s *CollectionService) Create(ctx context.Context, userID int64, in CollectionInput) (*model.Collection, error) {
	in, err := validateCollection(in)
	if err != nil {
		return nil, err
	}
	id, err := s.newID()
	if err != nil {
		return nil, classify("create collection", err)
	}
	c := &model.Collection{
		ID:          id,
		Name:        in.Name,
		Description: in.Description,
		Fields:      in.Fields,
		CreatedAt:   s.now().UTC(),
	}
	doc, err := c.Document()
	if err != nil {
		return nil, err
	}
	if err := s.docs.Create(ctx, doc); err != nil {
		s.log.Errorw("CollectionService.Create: store error", "error", err)
		return nil, classify("create collection", err)
	}
	s.publish(ctx, events.TopicCollectionCreated, userID, c.ID)
	return c, nil
}

// Get возвращает коллекцию по id.
func (s *CollectionService) Get(ctx context.Context, id string) (*model.Collection, error) {
	doc, err := s.docs.Get(ctx, model.CollectionsContainer, id)
	if err != nil {
		return nil, classify("get collection", err)
	}
	c, err := model.CollectionFromDocument(doc)
	if err != nil {
		return nil, classify("decode collection", err)
	}
	return c, nil
}

// Update целиком заменяет имя, описание и список полей. Элементы не трогаются.
func (s *CollectionService) Update(ctx context.Context, userID int64, id string, in CollectionInput) (*model.Collection, error) {
	in, err := validateCollection(in)
	if err != nil {
		return nil, err
	}
	c, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	at := s.now().UTC()
	c.Name, c.Description, c.Fields, c.UpdatedAt = in.Name, in.Description, in.Fields, &at

	doc, err := c.Document()
	if err != nil {
		return nil, err
	}
	if err := s.docs.Replace(ctx, doc); err != nil {
		s.log.Errorw("CollectionService.Update: store error", "id", id, "error", err)
		return nil, classify("update collection", err)
	}
	s.publish(ctx, events.TopicCollectionUpdated, userID, id)
	return c, nil
}

// Delete удаляет элементы коллекции пачками, затем саму коллекцию.
// Если пачка упала, уже удалённые элементы не восстанавливаются.
func (s *CollectionService) Delete(ctx context.Context, userID int64, id string) error {
	if _, err := s.Get(ctx, id); err != nil {
		return err
	}
	var removed int64
	for {
		ids, err := s.docs.ListIDs(ctx, id, selection.MaxBatchSize)
		if err != nil {
			return classify("list items", err)
		}
		if len(ids) == 0 {
			break
		}
		n, err := s.docs.DeleteBatch(ctx, id, ids)
		if err != nil {
			s.log.Errorw("CollectionService.Delete: batch failed", "id", id, "removed", removed, "error", err)
			return classify("delete items", err)
		}
		removed += n
	}
	if err := s.docs.Delete(ctx, model.CollectionsContainer, id); err != nil {
		return classify("delete collection", err)
	}
	if s.views != nil {
		s.views.Drop(id)
	}
	s.log.Infow("Collection deleted", "id", id, "items_removed", removed)
	s.publish(ctx, events.TopicCollectionDeleted, userID, id)
	return nil
}

// CountItems считает элементы коллекции.
func (s *CollectionService) CountItems(ctx context.Context, id string) (int64, error) {
	n, err := s.docs.Count(ctx, id)
	if err != nil {
		return 0, classify("count items", err)
	}
	return n, nil
}

func (s *CollectionService) publish(ctx context.Context, topic string, userID int64, id string) {
	ev := events.Change{Container: model.CollectionsContainer, IDs: []string{id}, UserID: userID, At: s.now().UTC()}
	if err := s.pub.Publish(ctx, topic, ev); err != nil {
		s.log.Warnw("publish event failed", "topic", topic, "error", err)
	}
}
