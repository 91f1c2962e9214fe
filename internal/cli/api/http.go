package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
)

// CookieName - имя cookie, в которой сервер выдаёт токен.
const CookieName = "auth_token"

// ErrNoAuthCookie - в ответе нет auth cookie.
var ErrNoAuthCookie = errors.New("no auth cookie in response")

// Error - ошибка, которую сервер вернул в теле ответа.
type Error struct {
	Status  int
	Message string            `json:"error"`
	Code    string            `json:"code"`
	Fields  map[string]string `json:"fields,omitempty"`
}

func (e *Error) Error() string {
	if e.Code == "" {
		return fmt.Sprintf("server error %d: %s", e.Status, e.Message)
	}
	return fmt.Sprintf("%s (%s)", e.Message, e.Code)
}

// Client - HTTP-клиент админского API.
type Client struct {
	BaseURL string
	Token   string
	HTTP    *http.Client
}

// New создаёт клиента для сервера baseURL.
func New(baseURL, token string) *Client {
	return &Client{BaseURL: strings.TrimRight(baseURL, "/"), Token: token, HTTP: http.DefaultClient}
}

// Do отправляет запрос с JSON-телом payload (если не nil) и декодирует ответ в out (если не nil).
// Ответ с кодом >= 400 превращается в *Error.
func (c *Client) Do(ctx context.Context, method, path string, payload, out any) (*http.Response, error) {
	var body io.Reader
	if payload != nil {
		b, err := json.Marshal(payload)
		if err != nil {
			return nil, err
		}
		body = bytes.NewReader(b)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.BaseURL+path, body)
	if err != nil {
		return nil, err
	}
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept", "application/json")
	if c.Token != "" {
		req.AddCookie(&http.Cookie{Name: CookieName, Value: c.Token})
	}

	hc := c.HTTP
	if hc == nil {
		hc = http.DefaultClient
	}
	resp, err := hc.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return resp, err
	}

	if resp.StatusCode >= http.StatusBadRequest {
		apiErr := &Error{Status: resp.StatusCode}
		if jerr := json.Unmarshal(data, apiErr); jerr != nil || apiErr.Message == "" {
			apiErr.Message = strings.TrimSpace(string(data))
		}
		return resp, apiErr
	}
	if out != nil && len(bytes.TrimSpace(data)) > 0 {
		if err := json.Unmarshal(data, out); err != nil {
			return resp, fmt.Errorf("decode %s %s: %w", method, path, err)
		}
	}
	return resp, nil
}

// GetJSON - GET с декодированием ответа.
func (c *Client) GetJSON(ctx context.Context, path string, out any) error {
	_, err := c.Do(ctx, http.MethodGet, path, nil, out)
	return err
}

// PostJSON - POST с JSON-телом.
func (c *Client) PostJSON(ctx context.Context, path string, payload, out any) (*http.Response, error) {
	return c.Do(ctx, http.MethodPost, path, payload, out)
}

// DeleteJSON - DELETE с декодированием ответа.
func (c *Client) DeleteJSON(ctx context.Context, path string, out any) error {
	_, err := c.Do(ctx, http.MethodDelete, path, nil, out)
	return err
}

// TokenFromResponse извлекает auth cookie из ответа.
func TokenFromResponse(resp *http.Response) (string, error) {
	for _, c := range resp.Cookies() {
		if c.Name == CookieName && c.Value != "" {
			return c.Value, nil
		}
	}
	return "", ErrNoAuthCookie
}

// IsStatus сообщает, что err - ответ сервера с кодом status.
func IsStatus(err error, status int) bool {
	var apiErr *Error
	return errors.As(err, &apiErr) && apiErr.Status == status
}
