package handlers_test

import (
	"bytes"
	"fmt"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/textproto"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHandlers_ItemFormAndValidation(t *testing.T) {
	s := newTestServer(t)
	s.setup()
	cid := createBooks(t, s)

	rr := s.do(http.MethodGet, "/api/collections/"+cid+"/form", nil)
	require.Equal(t, http.StatusOK, rr.Code)
	f := decode[struct {
		Mode    string `json:"mode"`
		Editors []struct {
			Name string `json:"name"`
			Kind string `json:"kind"`
		} `json:"editors"`
	}](t, rr)
	assert.Equal(t, "create", f.Mode)
	require.Len(t, f.Editors, 3)
	assert.Equal(t, "checkbox", f.Editors[1].Kind)
	assert.Equal(t, "file", f.Editors[2].Kind)

	rr = s.do(http.MethodPost, "/api/collections/"+cid+"/items", map[string]any{"title": ""})
	require.Equal(t, http.StatusBadRequest, rr.Code)
	e := decode[errorResp](t, rr)
	require.Len(t, e.Fields, 1)
	assert.Equal(t, "title", e.Fields[0].Field)

	rr = s.do(http.MethodPost, "/api/collections/"+cid+"/items", map[string]any{"title": "Dune"})
	require.Equal(t, http.StatusCreated, rr.Code)
	item := decode[map[string]any](t, rr)
	iid := item["id"].(string)
	assert.Equal(t, false, item["read"])

	rr = s.do(http.MethodPatch, "/api/collections/"+cid+"/items/"+iid, map[string]any{"read": "on"})
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
	assert.Equal(t, true, decode[map[string]any](t, rr)["read"])

	rr = s.do(http.MethodGet, "/api/collections/"+cid+"/items/"+iid+"/form", nil)
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Body.String(), `"mode":"edit"`)

	rr = s.do(http.MethodPut, "/api/collections/"+cid+"/items/"+iid, map[string]any{"title": "Dune Messiah"})
	require.Equal(t, http.StatusOK, rr.Code)
	rr = s.do(http.MethodGet, "/api/collections/"+cid+"/items/"+iid, nil)
	assert.Equal(t, "Dune Messiah", decode[map[string]any](t, rr)["title"])

	rr = s.do(http.MethodDelete, "/api/collections/"+cid+"/items/"+iid, nil)
	assert.Equal(t, http.StatusOK, rr.Code)
	rr = s.do(http.MethodGet, "/api/collections/"+cid+"/items/"+iid, nil)
	assert.Equal(t, http.StatusNotFound, rr.Code)
}

func TestHandlers_PaginationSelectionBulkDelete(t *testing.T) {
	s := newTestServer(t)
	s.setup()
	cid := createBooks(t, s)
	for i := 1; i <= 12; i++ {
		rr := s.do(http.MethodPost, "/api/collections/"+cid+"/items", map[string]any{"title": fmt.Sprintf("Book %02d", i)})
		require.Equal(t, http.StatusCreated, rr.Code)
	}
	items := "/api/collections/" + cid + "/items"

	rr := s.do(http.MethodGet, items+"?page=1&limit=5&sort=title&dir=asc", nil)
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
	page := decode[pageResp](t, rr)
	require.Len(t, page.Items, 5)
	assert.True(t, page.HasMore)
	assert.Equal(t, int64(12), page.TotalItems)
	assert.Equal(t, 3, page.LastPage)
	assert.Equal(t, "Book 01", page.Items[0]["title"])

	rr = s.do(http.MethodGet, items+"?page=3&limit=5&sort=title&dir=asc", nil)
	assert.Equal(t, http.StatusBadRequest, rr.Code)

	rr = s.do(http.MethodGet, items+"?page=2&limit=5&sort=title&dir=asc", nil)
	require.Equal(t, http.StatusOK, rr.Code)
	page = decode[pageResp](t, rr)
	assert.Equal(t, "Book 06", page.Items[0]["title"])

	rr = s.do(http.MethodDelete, items, nil)
	assert.Equal(t, http.StatusBadRequest, rr.Code)

	rr = s.do(http.MethodPost, "/api/collections/"+cid+"/selection/all", nil)
	require.Equal(t, http.StatusOK, rr.Code)
	sel := decode[pageResp](t, rr)
	assert.True(t, sel.AllSelected)
	assert.Len(t, sel.Selected, 5)

	// снятие одной строки сбрасывает "выбраны все"
	rr = s.do(http.MethodPost, "/api/collections/"+cid+"/selection/"+sel.Selected[0], nil)
	sel = decode[pageResp](t, rr)
	assert.False(t, sel.AllSelected)
	assert.Len(t, sel.Selected, 4)

	rr = s.do(http.MethodDelete, items, nil)
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
	res := decode[struct {
		Deleted int64    `json:"deleted"`
		Page    pageResp `json:"page"`
	}](t, rr)
	assert.Equal(t, int64(4), res.Deleted)
	assert.Equal(t, int64(8), res.Page.TotalItems)
	assert.Empty(t, res.Page.Selected)

	rr = s.do(http.MethodDelete, "/api/collections/"+cid+"/selection", nil)
	assert.Equal(t, http.StatusOK, rr.Code)
}

func TestHandlers_SingleDeleteRefetchesPage(t *testing.T) {
	s := newTestServer(t)
	s.setup()
	cid := createBooks(t, s)
	for i := 1; i <= 6; i++ {
		rr := s.do(http.MethodPost, "/api/collections/"+cid+"/items", map[string]any{"title": fmt.Sprintf("Book %02d", i)})
		require.Equal(t, http.StatusCreated, rr.Code)
	}
	items := "/api/collections/" + cid + "/items"

	rr := s.do(http.MethodGet, items+"?page=1&limit=5&sort=title&dir=asc", nil)
	require.Equal(t, http.StatusOK, rr.Code)
	rr = s.do(http.MethodGet, items+"?page=2&limit=5&sort=title&dir=asc", nil)
	require.Equal(t, http.StatusOK, rr.Code)
	page := decode[pageResp](t, rr)
	require.Len(t, page.Items, 1)
	last := page.Items[0]["id"].(string)

	// вторая страница опустела, список возвращается на первую
	rr = s.do(http.MethodDelete, items+"/"+last, nil)
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
	res := decode[struct {
		Deleted int64    `json:"deleted"`
		Page    pageResp `json:"page"`
	}](t, rr)
	assert.Equal(t, int64(1), res.Deleted)
	assert.Equal(t, 1, res.Page.CurrentPage)
	assert.Equal(t, int64(5), res.Page.TotalItems)
	assert.Len(t, res.Page.Items, 5)

	// удаление с первой страницы оставляет её текущей
	first := res.Page.Items[0]["id"].(string)
	rr = s.do(http.MethodDelete, items+"/"+first, nil)
	require.Equal(t, http.StatusOK, rr.Code)
	res = decode[struct {
		Deleted int64    `json:"deleted"`
		Page    pageResp `json:"page"`
	}](t, rr)
	assert.Equal(t, 1, res.Page.CurrentPage)
	assert.Len(t, res.Page.Items, 4)
	assert.NotEqual(t, first, res.Page.Items[0]["id"])
}

func multipartUpload(t *testing.T, fields map[string]string, fileName, contentType string, data []byte) *http.Request {
	t.Helper()
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	for k, v := range fields {
		require.NoError(t, mw.WriteField(k, v))
	}
	h := textproto.MIMEHeader{}
	h.Set("Content-Disposition", fmt.Sprintf(`form-data; name="file"; filename=%q`, fileName))
	h.Set("Content-Type", contentType)
	part, err := mw.CreatePart(h)
	require.NoError(t, err)
	_, _ = part.Write(data)
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, "/api/uploads", &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	return req
}

func TestHandlers_UploadAndServe(t *testing.T) {
	s := newTestServer(t)
	s.setup()
	cid := createBooks(t, s)
	png := []byte("\x89PNG\r\n\x1a\nfake")

	rr := s.send(multipartUpload(t, map[string]string{"collection": cid, "field": "cover"}, "my cover.png", "image/png", png))
	require.Equal(t, http.StatusCreated, rr.Code, rr.Body.String())
	res := decode[struct {
		URL string `json:"url"`
		Key string `json:"key"`
	}](t, rr)
	assert.Contains(t, res.Key, "uploads/cover/")
	assert.Contains(t, res.Key, "_my_cover.png")

	rr = s.do(http.MethodGet, res.URL, nil)
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "image/png", rr.Header().Get("Content-Type"))
	assert.Equal(t, png, rr.Body.Bytes())

	rr = s.send(multipartUpload(t, map[string]string{"collection": cid, "field": "cover"}, "doc.pdf", "application/pdf", []byte("%PDF")))
	assert.Equal(t, http.StatusBadRequest, rr.Code)
	assert.Equal(t, "cover", decode[errorResp](t, rr).Fields[0].Field)

	rr = s.send(multipartUpload(t, map[string]string{"collection": cid, "field": "title"}, "a.png", "image/png", png))
	assert.Equal(t, http.StatusBadRequest, rr.Code)

	rr = s.do(http.MethodDelete, "/api/uploads?url="+res.URL, nil)
	assert.Equal(t, http.StatusNoContent, rr.Code)
	rr = s.do(http.MethodGet, res.URL, nil)
	assert.Equal(t, http.StatusNotFound, rr.Code)
}
