package handlers_test

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHandlers_SetupFlow(t *testing.T) {
	s := newTestServer(t)

	rr := s.do(http.MethodGet, "/api/collections", nil)
	assert.Equal(t, http.StatusConflict, rr.Code)
	assert.Equal(t, "SETUP_REQUIRED", decode[errorResp](t, rr).Code)

	rr = s.do(http.MethodGet, "/api/bootstrap", nil)
	require.Equal(t, http.StatusOK, rr.Code)
	assert.JSONEq(t, `{"setupRequired":true}`, rr.Body.String())

	rr = s.do(http.MethodPost, "/api/setup", map[string]string{"email": "bad", "password": "1"})
	assert.Equal(t, http.StatusBadRequest, rr.Code)
	assert.Len(t, decode[errorResp](t, rr).Fields, 2)

	s.setup()
	rr = s.do(http.MethodGet, "/api/bootstrap", nil)
	assert.JSONEq(t, `{"setupRequired":false}`, rr.Body.String())

	rr = s.do(http.MethodPost, "/api/setup", map[string]string{"email": "x@example.com", "password": "secret1"})
	assert.Equal(t, http.StatusConflict, rr.Code)
	assert.Equal(t, "SETUP_DONE", decode[errorResp](t, rr).Code)

	rr = s.do(http.MethodGet, "/api/auth/me", nil)
	require.Equal(t, http.StatusOK, rr.Code)
	assert.JSONEq(t, `{"id":1,"email":"admin@example.com","role":"admin"}`, rr.Body.String())
}

func TestHandlers_LoginLogout(t *testing.T) {
	s := newTestServer(t)
	s.setup()
	s.cookies = nil

	rr := s.do(http.MethodGet, "/api/collections", nil)
	assert.Equal(t, http.StatusUnauthorized, rr.Code)

	rr = s.do(http.MethodPost, "/api/auth/login", map[string]string{"email": "admin@example.com", "password": "wrong1"})
	assert.Equal(t, http.StatusUnauthorized, rr.Code)

	rr = s.do(http.MethodPost, "/api/auth/login", map[string]string{"email": "Admin@Example.com", "password": "secret1"})
	require.Equal(t, http.StatusOK, rr.Code)
	s.cookies = rr.Result().Cookies()

	rr = s.do(http.MethodGet, "/api/collections", nil)
	assert.Equal(t, http.StatusOK, rr.Code)

	rr = s.do(http.MethodPost, "/api/auth/logout", nil)
	assert.Equal(t, http.StatusNoContent, rr.Code)
	cookies := rr.Result().Cookies()
	require.Len(t, cookies, 1)
	assert.Empty(t, cookies[0].Value)

	// неизвестный email не раскрывается
	rr = s.do(http.MethodPost, "/api/auth/reset", map[string]string{"email": "ghost@example.com"})
	assert.Equal(t, http.StatusAccepted, rr.Code)
	rr = s.do(http.MethodPost, "/api/auth/reset/confirm", map[string]string{"token": "bad", "password": "secret2"})
	assert.Equal(t, http.StatusBadRequest, rr.Code)
	assert.Equal(t, "INVALID_RESET_TOKEN", decode[errorResp](t, rr).Code)
}
