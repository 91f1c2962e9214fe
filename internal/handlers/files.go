package handlers

import (
	"SchemaDesk/internal/blob"
	"errors"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

// FilesHandler отдаёт вложения, сохранённые в БД.
type FilesHandler struct {
	Store  *blob.DBStore
	Logger *zap.SugaredLogger
}

// NewFilesHandler создаёт хендлер файлов
func NewFilesHandler(store *blob.DBStore, logger *zap.SugaredLogger) *FilesHandler {
	return &FilesHandler{Store: store, Logger: logger}
}

// Serve отдаёт объект по ключу из пути.
func (h *FilesHandler) Serve(w http.ResponseWriter, r *http.Request) {
	key, err := url.PathUnescape(strings.TrimPrefix(r.URL.EscapedPath(), blob.FilesPath))
	if err != nil || key == "" {
		http.NotFound(w, r)
		return
	}
	b, err := h.Store.Open(r.Context(), key)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		http.NotFound(w, r)
		return
	}
	if err != nil {
		h.Logger.Errorw("Files.Serve: store error", "key", key, "error", err)
		writeError(w, http.StatusInternalServerError, "internal error", CodeRemoteOperation)
		return
	}
	w.Header().Set("Content-Type", b.ContentType)
	w.Header().Set("Content-Length", strconv.Itoa(len(b.Data)))
	w.Header().Set("Cache-Control", "private, max-age=3600")
	_, _ = w.Write(b.Data)
}
