package handlers_test

import (
	"SchemaDesk/internal/blob"
	"SchemaDesk/internal/config"
	"SchemaDesk/internal/events"
	"SchemaDesk/internal/handlers"
	"SchemaDesk/internal/listing"
	"SchemaDesk/internal/repo"
	"SchemaDesk/internal/service"
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	gormsqlite "gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
	_ "modernc.org/sqlite"
)

type testServer struct {
	t       *testing.T
	router  http.Handler
	cfg     *config.Config
	hub     *events.Hub
	cookies []*http.Cookie
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	name := strings.NewReplacer("/", "_", " ", "_").Replace(t.Name())
	dial := gormsqlite.Dialector{DriverName: "sqlite", DSN: fmt.Sprintf("file:h_%s?mode=memory&cache=shared", name)}
	db, err := gorm.Open(dial, &gorm.Config{Logger: logger.Discard})
	require.NoError(t, err)
	require.NoError(t, repo.Migrate(db))
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			_ = sqlDB.Close()
		}
	})

	cfg := &config.Config{AuthSecret: "test-secret", UploadMaxMB: 1}
	log := zap.NewNop().Sugar()
	docs := repo.NewDocumentRepository(db)
	hub := events.NewHub(16)
	views := listing.NewDocumentRegistry(docs, docs, log)
	files := blob.NewDBStore(repo.NewBlobRepository(db), "")
	collections := service.NewCollectionService(docs, views, hub, log)

	h := handlers.NewHandler(handlers.Deps{
		Users:       service.NewUserService(repo.NewUserRepository(db), cfg.AuthSecret, nil, log),
		Collections: collections,
		Items:       service.NewItemService(docs, collections, hub, log),
		Views:       views,
		Uploader:    blob.NewUploader(files, cfg.UploadMaxBytes(), log),
		Files:       files,
		Hub:         hub,
		Logger:      log,
		Config:      cfg,
	})
	return &testServer{t: t, router: h.Router, cfg: cfg, hub: hub}
}

func (s *testServer) do(method, path string, body any) *httptest.ResponseRecorder {
	s.t.Helper()
	var r io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		require.NoError(s.t, err)
		r = bytes.NewReader(b)
	}
	req := httptest.NewRequest(method, path, r)
	req.Header.Set("Content-Type", "application/json")
	return s.send(req)
}

func (s *testServer) send(req *http.Request) *httptest.ResponseRecorder {
	for _, c := range s.cookies {
		req.AddCookie(c)
	}
	rr := httptest.NewRecorder()
	s.router.ServeHTTP(rr, req)
	return rr
}

// setup создаёт администратора и запоминает cookie сессии.
func (s *testServer) setup() {
	s.t.Helper()
	rr := s.do(http.MethodPost, "/api/setup", map[string]string{"email": "admin@example.com", "password": "secret1"})
	require.Equal(s.t, http.StatusCreated, rr.Code, rr.Body.String())
	s.cookies = rr.Result().Cookies()
}

func decode[T any](t *testing.T, rr *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &v), rr.Body.String())
	return v
}

type errorResp struct {
	Error  string `json:"error"`
	Code   string `json:"code"`
	Fields []struct {
		Field string `json:"field"`
	} `json:"fields"`
}

type pageResp struct {
	Items       []map[string]any `json:"items"`
	TotalItems  int64            `json:"totalItems"`
	HasMore     bool             `json:"hasMore"`
	CurrentPage int              `json:"currentPage"`
	LastPage    int              `json:"lastPage"`
	SortField   string           `json:"sortField"`
	Selected    []string         `json:"selected"`
	AllSelected bool             `json:"allSelected"`
}

var booksCollection = map[string]any{
	"name": "Books",
	"fields": []map[string]any{
		{"name": "title", "type": "string", "required": true},
		{"name": "read", "type": "boolean"},
		{"name": "cover", "type": "image"},
	},
}
