// Package events рассылает уведомления об изменениях коллекций и элементов:
// в NATS (если настроен) и подписчикам внутри процесса (websocket).
package events

import (
	"context"
	"errors"
	"time"
)

// Темы событий.
const (
	TopicCollectionCreated = "schemadesk.collection.created"
	TopicCollectionUpdated = "schemadesk.collection.updated"
	TopicCollectionDeleted = "schemadesk.collection.deleted"
	TopicItemCreated       = "schemadesk.item.created"
	TopicItemUpdated       = "schemadesk.item.updated"
	TopicItemsDeleted      = "schemadesk.item.deleted"
)

// Change - событие изменения документов контейнера.
type Change struct {
	Container string    `json:"container"`
	IDs       []string  `json:"ids"`
	UserID    int64     `json:"userId,omitempty"`
	At        time.Time `json:"at"`
}

// Publisher публикует событие в тему.
type Publisher interface {
	Publish(ctx context.Context, topic string, event any) error
	Close() error
}

// NoopPublisher ничего не делает (NATS не настроен и подписчиков нет).
type NoopPublisher struct{}

func (NoopPublisher) Publish(ctx context.Context, topic string, event any) error { return nil }

func (NoopPublisher) Close() error { return nil }

// Multi рассылает событие всем публикаторам и собирает ошибки.
type Multi []Publisher

func (m Multi) Publish(ctx context.Context, topic string, event any) error {
	var errs []error
	for _, p := range m {
		if err := p.Publish(ctx, topic, event); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func (m Multi) Close() error {
	var errs []error
	for _, p := range m {
		if err := p.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
