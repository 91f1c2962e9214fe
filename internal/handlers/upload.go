package handlers

import (
	"SchemaDesk/internal/blob"
	"SchemaDesk/internal/model"
	"SchemaDesk/internal/service"
	"errors"
	"io"
	"net/http"

	"go.uber.org/zap"
)

// UploadHandler принимает вложения для полей image/file/document.
type UploadHandler struct {
	CollectionService *service.CollectionService
	Uploader          *blob.Uploader
	Logger            *zap.SugaredLogger
}

// NewUploadHandler создаёт хендлер загрузок
func NewUploadHandler(cs *service.CollectionService, uploader *blob.Uploader, logger *zap.SugaredLogger) *UploadHandler {
	return &UploadHandler{CollectionService: cs, Uploader: uploader, Logger: logger}
}

// Upload загрузка файла в поле коллекции: multipart с полями
// collection, field, previous (необязательно) и файлом file.
func (h *UploadHandler) Upload(w http.ResponseWriter, r *http.Request) {
	// Лимит общего тела запроса
	maxBody := h.Uploader.MaxBytes() + 1<<20
	r.Body = http.MaxBytesReader(w, r.Body, maxBody)

	if err := r.ParseMultipartForm(10 << 20); err != nil {
		h.Logger.Warnw("Upload: invalid multipart form", "error", err)
		var mbe *http.MaxBytesError
		if errors.As(err, &mbe) {
			writeError(w, http.StatusRequestEntityTooLarge, "payload too large", CodeInvalidRequest)
			return
		}
		writeError(w, http.StatusBadRequest, "invalid multipart form", CodeInvalidRequest)
		return
	}

	c, err := h.CollectionService.Get(r.Context(), r.FormValue("collection"))
	if err != nil {
		fail(w, h.Logger, "Upload", err)
		return
	}
	fieldName := r.FormValue("field")
	field, ok := c.Field(fieldName)
	if !ok {
		ve := &model.ValidationError{}
		ve.Add("field", "unknown field "+fieldName)
		fail(w, h.Logger, "Upload", ve)
		return
	}

	file, hdr, err := r.FormFile("file")
	if err != nil {
		h.Logger.Warnw("Upload: missing file", "error", err)
		writeError(w, http.StatusBadRequest, "missing file", CodeInvalidRequest)
		return
	}
	defer file.Close()
	data, err := io.ReadAll(file)
	if err != nil {
		h.Logger.Warnw("Upload: failed to read file", "error", err)
		writeError(w, http.StatusBadRequest, "failed to read file", CodeInvalidRequest)
		return
	}

	contentType := hdr.Header.Get("Content-Type")
	if contentType == "" {
		contentType = http.DetectContentType(data)
	}
	res, err := h.Uploader.Upload(r.Context(), blob.Upload{
		Field:       field,
		FileName:    hdr.Filename,
		ContentType: contentType,
		Data:        data,
		PreviousURL: r.FormValue("previous"),
	})
	if err != nil {
		fail(w, h.Logger, "Upload", err)
		return
	}
	writeJSON(w, http.StatusCreated, res)
}

// Remove удаляет ранее загруженный файл по его адресу.
func (h *UploadHandler) Remove(w http.ResponseWriter, r *http.Request) {
	u := r.URL.Query().Get("url")
	if u == "" {
		writeError(w, http.StatusBadRequest, "url is required", CodeInvalidRequest)
		return
	}
	if err := h.Uploader.Remove(r.Context(), u); err != nil {
		fail(w, h.Logger, "Upload.Remove", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
