package handlers

import (
	"SchemaDesk/internal/form"
	"SchemaDesk/internal/listing"
	"SchemaDesk/internal/middleware"
	"SchemaDesk/internal/model"
	"SchemaDesk/internal/service"
	"context"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

// ItemHandler - таблица элементов коллекции, формы и выбор строк.
type ItemHandler struct {
	ItemService       *service.ItemService
	CollectionService *service.CollectionService
	Views             *listing.Registry
	Logger            *zap.SugaredLogger
}

// NewItemHandler создаёт хендлер items
func NewItemHandler(is *service.ItemService, cs *service.CollectionService, views *listing.Registry, logger *zap.SugaredLogger) *ItemHandler {
	return &ItemHandler{ItemService: is, CollectionService: cs, Views: views, Logger: logger}
}

type itemsResponse struct {
	listResponse
	Collection *model.Collection `json:"collection"`
}

type formResponse struct {
	Mode    string        `json:"mode"`
	Editors []form.Editor `json:"editors"`
}

func newFormResponse(f *form.Form) formResponse {
	mode := "create"
	if f.Mode() == form.ModeEdit {
		mode = "edit"
	}
	return formResponse{Mode: mode, Editors: f.Editors()}
}

// view возвращает список коллекции для пользователя запроса,
// предварительно убедившись, что коллекция существует.
func (h *ItemHandler) view(r *http.Request) (*listing.View, *model.Collection, error) {
	c, err := h.CollectionService.Get(r.Context(), chi.URLParam(r, "cid"))
	if err != nil {
		return nil, nil, err
	}
	uid, _ := middleware.GetUserIDFromContext(r.Context())
	return h.Views.View(uid, c.ID), c, nil
}

// List - страница элементов коллекции.
func (h *ItemHandler) List(w http.ResponseWriter, r *http.Request) {
	v, c, err := h.view(r)
	if err != nil {
		fail(w, h.Logger, "Items.List", err)
		return
	}
	p, err := loadView(r, v)
	if err != nil {
		fail(w, h.Logger, "Items.List", err)
		return
	}
	writeJSON(w, http.StatusOK, itemsResponse{listResponse: newListResponse(v, p), Collection: c})
}

// ToggleSort переключает сортировку таблицы элементов.
func (h *ItemHandler) ToggleSort(w http.ResponseWriter, r *http.Request) {
	v, _, err := h.view(r)
	if err != nil {
		fail(w, h.Logger, "Items.ToggleSort", err)
		return
	}
	toggleSort(w, r, v, h.Logger)
}

// CreateForm - редакторы формы нового элемента.
func (h *ItemHandler) CreateForm(w http.ResponseWriter, r *http.Request) {
	f, err := h.ItemService.CreateForm(r.Context(), chi.URLParam(r, "cid"))
	if err != nil {
		fail(w, h.Logger, "Items.CreateForm", err)
		return
	}
	writeJSON(w, http.StatusOK, newFormResponse(f))
}

// EditForm - редакторы формы существующего элемента.
func (h *ItemHandler) EditForm(w http.ResponseWriter, r *http.Request) {
	f, err := h.ItemService.EditForm(r.Context(), chi.URLParam(r, "cid"), chi.URLParam(r, "iid"))
	if err != nil {
		fail(w, h.Logger, "Items.EditForm", err)
		return
	}
	writeJSON(w, http.StatusOK, newFormResponse(f))
}

// Create отправляет форму создания.
func (h *ItemHandler) Create(w http.ResponseWriter, r *http.Request) {
	uid, _ := middleware.GetUserIDFromContext(r.Context())
	values, ok := h.decodeValues(w, r)
	if !ok {
		return
	}
	it, err := h.ItemService.Create(r.Context(), uid, chi.URLParam(r, "cid"), values)
	if err != nil {
		fail(w, h.Logger, "Items.Create", err)
		return
	}
	writeJSON(w, http.StatusCreated, it)
}

// Get возвращает элемент.
func (h *ItemHandler) Get(w http.ResponseWriter, r *http.Request) {
	it, err := h.ItemService.Get(r.Context(), chi.URLParam(r, "cid"), chi.URLParam(r, "iid"))
	if err != nil {
		fail(w, h.Logger, "Items.Get", err)
		return
	}
	writeJSON(w, http.StatusOK, it)
}

// Update отправляет форму редактирования.
func (h *ItemHandler) Update(w http.ResponseWriter, r *http.Request) {
	uid, _ := middleware.GetUserIDFromContext(r.Context())
	values, ok := h.decodeValues(w, r)
	if !ok {
		return
	}
	it, err := h.ItemService.Update(r.Context(), uid, chi.URLParam(r, "cid"), chi.URLParam(r, "iid"), values)
	if err != nil {
		fail(w, h.Logger, "Items.Update", err)
		return
	}
	writeJSON(w, http.StatusOK, it)
}

// Patch - правка ячеек прямо в таблице.
func (h *ItemHandler) Patch(w http.ResponseWriter, r *http.Request) {
	uid, _ := middleware.GetUserIDFromContext(r.Context())
	values, ok := h.decodeValues(w, r)
	if !ok {
		return
	}
	it, err := h.ItemService.Patch(r.Context(), uid, chi.URLParam(r, "cid"), chi.URLParam(r, "iid"), values)
	if err != nil {
		fail(w, h.Logger, "Items.Patch", err)
		return
	}
	writeJSON(w, http.StatusOK, it)
}

// Delete удаляет один элемент и возвращает обновлённую страницу.
func (h *ItemHandler) Delete(w http.ResponseWriter, r *http.Request) {
	uid, _ := middleware.GetUserIDFromContext(r.Context())
	cid, iid := chi.URLParam(r, "cid"), chi.URLParam(r, "iid")
	if err := h.ItemService.Delete(r.Context(), uid, cid, iid); err != nil {
		fail(w, h.Logger, "Items.Delete", err)
		return
	}
	// как и после пакетного удаления, текущая страница перечитывается
	v := h.Views.View(uid, cid)
	v.Selection.Forget(iid)
	p, err := refreshAfterDelete(r.Context(), v)
	if err != nil {
		fail(w, h.Logger, "Items.Delete", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"deleted": 1, "page": newListResponse(v, p)})
}

// DeleteSelected удаляет выбранные на текущей странице элементы
// и перечитывает страницу.
func (h *ItemHandler) DeleteSelected(w http.ResponseWriter, r *http.Request) {
	uid, _ := middleware.GetUserIDFromContext(r.Context())
	v, _, err := h.view(r)
	if err != nil {
		fail(w, h.Logger, "Items.DeleteSelected", err)
		return
	}
	ids := v.Selection.IDs()
	n, err := h.ItemService.DeleteMany(r.Context(), uid, v.List.Container(), ids)
	if err != nil {
		fail(w, h.Logger, "Items.DeleteSelected", err)
		return
	}
	v.Selection.Forget(ids...)
	h.Logger.Infow("Items deleted", "collection", v.List.Container(), "count", n)

	p, err := refreshAfterDelete(r.Context(), v)
	if err != nil {
		fail(w, h.Logger, "Items.DeleteSelected", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"deleted": n, "page": newListResponse(v, p)})
}

// refreshAfterDelete перечитывает текущую страницу; если она опустела,
// список возвращается на первую.
func refreshAfterDelete(ctx context.Context, v *listing.View) (*listing.Page, error) {
	p, err := v.Refresh(ctx)
	if err == nil && (len(p.Items) > 0 || p.CurrentPage == 1) {
		return p, nil
	}
	if err != nil && !errors.Is(err, listing.ErrPageOutOfRange) {
		return nil, err
	}
	v.List.Invalidate()
	return v.Load(ctx, 1)
}

// Selection - текущий выбор на странице.
func (h *ItemHandler) Selection(w http.ResponseWriter, r *http.Request) {
	v, _, err := h.view(r)
	if err != nil {
		fail(w, h.Logger, "Items.Selection", err)
		return
	}
	writeSelection(w, v)
}

// SelectAll выбирает все строки страницы или снимает выбор, если выбраны все.
func (h *ItemHandler) SelectAll(w http.ResponseWriter, r *http.Request) {
	v, _, err := h.view(r)
	if err != nil {
		fail(w, h.Logger, "Items.SelectAll", err)
		return
	}
	v.Selection.SelectAll()
	writeSelection(w, v)
}

// SelectOne переключает выбор строки.
func (h *ItemHandler) SelectOne(w http.ResponseWriter, r *http.Request) {
	v, _, err := h.view(r)
	if err != nil {
		fail(w, h.Logger, "Items.SelectOne", err)
		return
	}
	v.Selection.SelectOne(chi.URLParam(r, "iid"))
	writeSelection(w, v)
}

// ClearSelection снимает выбор.
func (h *ItemHandler) ClearSelection(w http.ResponseWriter, r *http.Request) {
	v, _, err := h.view(r)
	if err != nil {
		fail(w, h.Logger, "Items.ClearSelection", err)
		return
	}
	v.Selection.Clear()
	writeSelection(w, v)
}

func writeSelection(w http.ResponseWriter, v *listing.View) {
	writeJSON(w, http.StatusOK, map[string]any{
		"selected":    v.Selection.IDs(),
		"allSelected": v.Selection.AllSelected(),
		"count":       v.Selection.Len(),
	})
}

func (h *ItemHandler) decodeValues(w http.ResponseWriter, r *http.Request) (map[string]any, bool) {
	var values map[string]any
	if err := decodeJSON(r, &values); err != nil {
		h.Logger.Warnw("Items: invalid request body", "error", err)
		writeError(w, http.StatusBadRequest, "invalid request", CodeInvalidRequest)
		return nil, false
	}
	return values, true
}
