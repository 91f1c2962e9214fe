package handlers

import (
	"SchemaDesk/internal/blob"
	"SchemaDesk/internal/listing"
	"SchemaDesk/internal/middleware"
	"SchemaDesk/internal/model"
	"SchemaDesk/internal/schema"
	"SchemaDesk/internal/service"
	"net/http"
	"sync"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

// CollectionHandler - дашборд и конструктор коллекций.
type CollectionHandler struct {
	CollectionService *service.CollectionService
	Views             *listing.Registry
	Uploader          *blob.Uploader
	Logger            *zap.SugaredLogger

	probeOnce sync.Once
	uploadsOK bool
}

// NewCollectionHandler создаёт хендлер коллекций
func NewCollectionHandler(cs *service.CollectionService, views *listing.Registry, uploader *blob.Uploader, logger *zap.SugaredLogger) *CollectionHandler {
	return &CollectionHandler{CollectionService: cs, Views: views, Uploader: uploader, Logger: logger}
}

type collectionResponse struct {
	*model.Collection
	ItemsCount int64 `json:"itemsCount"`
}

// FieldTypes отдаёт реестр типов полей. Типы-вложения помечаются
// недоступными, если хранилище отказало в пробной записи.
func (h *CollectionHandler) FieldTypes(w http.ResponseWriter, r *http.Request) {
	h.probeOnce.Do(func() {
		if h.Uploader == nil {
			return
		}
		ok, err := h.Uploader.Probe(r.Context())
		if err != nil {
			h.Logger.Warnw("FieldTypes: storage probe failed", "error", err)
		}
		h.uploadsOK = ok
	})
	writeJSON(w, http.StatusOK, map[string]any{
		"types":          schema.FieldTypes(),
		"uploadsEnabled": h.uploadsOK,
	})
}

// List - дашборд: страница коллекций с числом элементов.
func (h *CollectionHandler) List(w http.ResponseWriter, r *http.Request) {
	uid, _ := middleware.GetUserIDFromContext(r.Context())
	v := h.Views.View(uid, model.CollectionsContainer)
	p, err := loadView(r, v)
	if err != nil {
		fail(w, h.Logger, "Collections.List", err)
		return
	}
	writeJSON(w, http.StatusOK, newListResponse(v, p))
}

// ToggleSort переключает сортировку дашборда.
func (h *CollectionHandler) ToggleSort(w http.ResponseWriter, r *http.Request) {
	uid, _ := middleware.GetUserIDFromContext(r.Context())
	toggleSort(w, r, h.Views.View(uid, model.CollectionsContainer), h.Logger)
}

// Create сохраняет новую коллекцию.
func (h *CollectionHandler) Create(w http.ResponseWriter, r *http.Request) {
	uid, _ := middleware.GetUserIDFromContext(r.Context())
	var in service.CollectionInput
	if err := decodeJSON(r, &in); err != nil {
		h.Logger.Warnw("Collections.Create: invalid request body", "error", err)
		writeError(w, http.StatusBadRequest, "invalid request", CodeInvalidRequest)
		return
	}
	c, err := h.CollectionService.Create(r.Context(), uid, in)
	if err != nil {
		fail(w, h.Logger, "Collections.Create", err)
		return
	}
	writeJSON(w, http.StatusCreated, collectionResponse{Collection: c})
}

// Get возвращает схему коллекции и число её элементов.
func (h *CollectionHandler) Get(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "cid")
	c, err := h.CollectionService.Get(r.Context(), id)
	if err != nil {
		fail(w, h.Logger, "Collections.Get", err)
		return
	}
	n, err := h.CollectionService.CountItems(r.Context(), id)
	if err != nil {
		fail(w, h.Logger, "Collections.Get", err)
		return
	}
	writeJSON(w, http.StatusOK, collectionResponse{Collection: c, ItemsCount: n})
}

// Update заменяет имя, описание и поля коллекции.
func (h *CollectionHandler) Update(w http.ResponseWriter, r *http.Request) {
	uid, _ := middleware.GetUserIDFromContext(r.Context())
	var in service.CollectionInput
	if err := decodeJSON(r, &in); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request", CodeInvalidRequest)
		return
	}
	c, err := h.CollectionService.Update(r.Context(), uid, chi.URLParam(r, "cid"), in)
	if err != nil {
		fail(w, h.Logger, "Collections.Update", err)
		return
	}
	writeJSON(w, http.StatusOK, collectionResponse{Collection: c})
}

// Delete удаляет коллекцию вместе с элементами.
func (h *CollectionHandler) Delete(w http.ResponseWriter, r *http.Request) {
	uid, _ := middleware.GetUserIDFromContext(r.Context())
	if err := h.CollectionService.Delete(r.Context(), uid, chi.URLParam(r, "cid")); err != nil {
		fail(w, h.Logger, "Collections.Delete", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func toggleSort(w http.ResponseWriter, r *http.Request, v *listing.View, log *zap.SugaredLogger) {
	var req sortRequest
	if err := decodeJSON(r, &req); err != nil || req.Field == "" {
		writeError(w, http.StatusBadRequest, "field is required", CodeInvalidRequest)
		return
	}
	if err := v.List.ToggleSort(req.Field); err != nil {
		fail(w, log, "ToggleSort", err)
		return
	}
	p, err := v.Load(r.Context(), 1)
	if err != nil {
		fail(w, log, "ToggleSort", err)
		return
	}
	writeJSON(w, http.StatusOK, newListResponse(v, p))
}
