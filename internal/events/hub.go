package events

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
)

// Message - событие в том виде, в каком его получает подписчик.
type Message struct {
	Topic string          `json:"topic"`
	Data  json.RawMessage `json:"data"`
}

// Hub раздаёт события подписчикам внутри процесса.
// Медленный подписчик не тормозит публикацию: при полном буфере сообщение
// для него отбрасывается.
type Hub struct {
	mu     sync.Mutex
	subs   map[int]chan Message
	next   int
	buffer int
	closed bool
}

// NewHub создаёт хаб с буфером buffer сообщений на подписчика.
func NewHub(buffer int) *Hub {
	if buffer < 1 {
		buffer = 64
	}
	return &Hub{subs: map[int]chan Message{}, buffer: buffer}
}

// Subscribe возвращает канал событий и функцию отписки, закрывающую канал.
func (h *Hub) Subscribe() (<-chan Message, func()) {
	h.mu.Lock()
	defer h.mu.Unlock()
	ch := make(chan Message, h.buffer)
	if h.closed {
		close(ch)
		return ch, func() {}
	}
	id := h.next
	h.next++
	h.subs[id] = ch

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			h.mu.Lock()
			defer h.mu.Unlock()
			if c, ok := h.subs[id]; ok {
				delete(h.subs, id)
				close(c)
			}
		})
	}
}

func (h *Hub) Publish(ctx context.Context, topic string, event any) error {
	data, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshaling event: %w", err)
	}
	msg := Message{Topic: topic, Data: data}

	h.mu.Lock()
	defer h.mu.Unlock()
	for _, ch := range h.subs {
		select {
		case ch <- msg:
		default:
		}
	}
	return nil
}

// Close отписывает всех.
func (h *Hub) Close() error {
	h.mu.Lock()
	defer h.mu.Unlock()
	for id, ch := range h.subs {
		delete(h.subs, id)
		close(ch)
	}
	h.closed = true
	return nil
}

// Subscribers - число активных подписчиков.
func (h *Hub) Subscribers() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.subs)
}
