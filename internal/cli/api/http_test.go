package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestPostJSON_SendsToken_And_ParsesBody(t *testing.T) {
	// test server проверяет cookie и JSON
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if c := r.Header.Get("Cookie"); !strings.Contains(c, "auth_token=tok123") {
			t.Errorf("Cookie header missing token, got: %q", c)
		}
		if r.URL.Path != "/api/collections" {
			t.Errorf("path: %s", r.URL.Path)
		}
		var m map[string]any
		if err := json.NewDecoder(r.Body).Decode(&m); err != nil {
			t.Errorf("bad json: %v", err)
		}
		if m["x"] != float64(1) { // JSON number → float64
			t.Errorf("unexpected payload: %#v", m)
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"ok":true}`))
	}))
	defer ts.Close()

	c := New(ts.URL+"/", "tok123")
	var out struct {
		OK bool `json:"ok"`
	}
	resp, err := c.PostJSON(context.Background(), "/api/collections", map[string]any{"x": 1}, &out)
	if err != nil {
		t.Fatalf("PostJSON err: %v", err)
	}
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status: %d", resp.StatusCode)
	}
	if !out.OK {
		t.Fatalf("body not decoded")
	}
}

func TestPostJSON_JSONMarshalError(t *testing.T) {
	// chan в payload вызовет ошибку json.Marshal
	c := New("http://example.invalid", "")
	if _, err := c.PostJSON(context.Background(), "/", map[string]any{"c": make(chan int)}, nil); err == nil {
		t.Fatalf("expected marshal error")
	}
}

func TestDo_ServerErrors(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/json":
			w.WriteHeader(http.StatusBadRequest)
			_, _ = w.Write([]byte(`{"error":"validation failed","code":"VALIDATION_FAILED","fields":{"name":"required"}}`))
		default:
			http.Error(w, "boom", http.StatusInternalServerError)
		}
	}))
	defer ts.Close()
	c := New(ts.URL, "")

	err := c.GetJSON(context.Background(), "/json", nil)
	var apiErr *Error
	if !errors.As(err, &apiErr) {
		t.Fatalf("expected *Error, got %v", err)
	}
	if apiErr.Code != "VALIDATION_FAILED" || apiErr.Fields["name"] != "required" {
		t.Fatalf("unexpected error: %#v", apiErr)
	}
	if !IsStatus(err, http.StatusBadRequest) {
		t.Fatalf("IsStatus 400 expected")
	}

	// не-JSON тело попадает в сообщение как есть
	err = c.DeleteJSON(context.Background(), "/plain", nil)
	if !errors.As(err, &apiErr) || apiErr.Message != "boom" || apiErr.Status != 500 {
		t.Fatalf("unexpected plain error: %v", err)
	}
}

func TestTokenFromResponse(t *testing.T) {
	resp := &http.Response{Header: http.Header{}}
	// Добавим Set-Cookie вручную (http.SetCookie ожидает ResponseWriter)
	resp.Header.Add("Set-Cookie", (&http.Cookie{Name: "auth_token", Value: "tok-abc"}).String())
	tok, err := TokenFromResponse(resp)
	if err != nil || tok != "tok-abc" {
		t.Fatalf("got %q err=%v", tok, err)
	}

	if _, err := TokenFromResponse(&http.Response{Header: http.Header{}}); !errors.Is(err, ErrNoAuthCookie) {
		t.Fatalf("expected ErrNoAuthCookie, got %v", err)
	}
}

func TestDo_NetworkError(t *testing.T) {
	c := New("http://127.0.0.1:1", "")
	if err := c.GetJSON(context.Background(), "/", nil); err == nil {
		t.Fatalf("expected network error")
	}
}
