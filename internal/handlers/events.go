package handlers

import (
	"SchemaDesk/internal/events"
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/coder/websocket"
	"go.uber.org/zap"
)

const writeTimeout = 5 * time.Second

// EventsHandler транслирует события изменений в websocket.
type EventsHandler struct {
	Hub    *events.Hub
	Logger *zap.SugaredLogger
}

// NewEventsHandler создаёт хендлер событий
func NewEventsHandler(hub *events.Hub, logger *zap.SugaredLogger) *EventsHandler {
	return &EventsHandler{Hub: hub, Logger: logger}
}

// Stream держит соединение, пока клиент не отключится или хаб не закроется.
func (h *EventsHandler) Stream(w http.ResponseWriter, r *http.Request) {
	conn, err := websocket.Accept(w, r, nil)
	if err != nil {
		h.Logger.Warnw("Events: websocket accept failed", "error", err)
		return
	}
	defer conn.CloseNow()

	msgs, cancel := h.Hub.Subscribe()
	defer cancel()

	// входящие сообщения не ждём; CloseRead отменит ctx при закрытии клиентом
	ctx := conn.CloseRead(r.Context())
	for {
		select {
		case <-ctx.Done():
			return
		case m, ok := <-msgs:
			if !ok {
				_ = conn.Close(websocket.StatusGoingAway, "server shutting down")
				return
			}
			if err := writeMessage(ctx, conn, m); err != nil {
				h.Logger.Debugw("Events: write failed", "error", err)
				return
			}
		}
	}
}

func writeMessage(ctx context.Context, conn *websocket.Conn, m events.Message) error {
	b, err := json.Marshal(m)
	if err != nil {
		return err
	}
	ctx, cancel := context.WithTimeout(ctx, writeTimeout)
	defer cancel()
	return conn.Write(ctx, websocket.MessageText, b)
}
