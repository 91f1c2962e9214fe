package handlers_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/coder/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHandlers_EventsStream(t *testing.T) {
	s := newTestServer(t)
	s.setup()
	srv := httptest.NewServer(s.router)
	defer srv.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	hdr := http.Header{}
	for _, c := range s.cookies {
		hdr.Add("Cookie", c.String())
	}
	conn, _, err := websocket.Dial(ctx, "ws"+strings.TrimPrefix(srv.URL, "http")+"/api/events", &websocket.DialOptions{HTTPHeader: hdr})
	require.NoError(t, err)
	defer conn.CloseNow()

	require.Eventually(t, func() bool { return s.hub.Subscribers() == 1 }, time.Second, 10*time.Millisecond)

	cid := createBooks(t, s)

	_, data, err := conn.Read(ctx)
	require.NoError(t, err)
	var msg struct {
		Topic string `json:"topic"`
		Data  struct {
			Container string   `json:"container"`
			IDs       []string `json:"ids"`
		} `json:"data"`
	}
	require.NoError(t, json.Unmarshal(data, &msg))
	assert.Equal(t, "schemadesk.collection.created", msg.Topic)
	assert.Equal(t, []string{cid}, msg.Data.IDs)
}

func TestHandlers_EventsRequireAuth(t *testing.T) {
	s := newTestServer(t)
	s.setup()
	s.cookies = nil
	rr := s.do(http.MethodGet, "/api/events", nil)
	assert.Equal(t, http.StatusUnauthorized, rr.Code)
}
