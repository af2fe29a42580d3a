package httpclient

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeConfig struct {
	url    string
	token  string
	expiry time.Time
	device string
}

func (c *fakeConfig) GetServerURL() string      { return c.url }
func (c *fakeConfig) GetToken() string          { return c.token }
func (c *fakeConfig) GetTokenExpiry() time.Time { return c.expiry }
func (c *fakeConfig) GetDeviceID() string       { return c.device }

func TestDoRequestHeaders(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		assert.Equal(t, "Bearer tok", r.Header.Get("Authorization"))
		assert.Equal(t, "dev-1", r.Header.Get("X-Device-Id"))
		assert.Equal(t, "custom", r.Header.Get("X-Extra"))
		w.Write([]byte(`{"ok": true}`))
	}))
	defer server.Close()

	client := NewClient(&fakeConfig{
		url:    server.URL,
		token:  "tok",
		expiry: time.Now().Add(time.Hour),
		device: "dev-1",
	})
	resp, err := client.DoRequest(context.Background(), RequestOptions{
		Method:  http.MethodGet,
		Path:    "/ping",
		Headers: map[string]string{"X-Extra": "custom"},
	})
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, []byte(`{"ok": true}`), resp.Body)
}

func TestDoRequestSkipsExpiredToken(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Empty(t, r.Header.Get("Authorization"))
		w.WriteHeader(http.StatusNoContent)
	}))
	defer server.Close()

	client := NewClient(&fakeConfig{
		url:    server.URL,
		token:  "tok",
		expiry: time.Now().Add(-time.Minute),
	})
	_, err := client.DoRequest(context.Background(), RequestOptions{Method: http.MethodGet, Path: "/ping"})
	require.NoError(t, err)
}

func TestDoRequestErrorCarriesBody(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusConflict)
		w.Write([]byte(`{"error": {"code": "E041"}}`))
	}))
	defer server.Close()

	client := NewClient(&fakeConfig{url: server.URL})
	_, err := client.DoRequest(context.Background(), RequestOptions{Method: http.MethodPost, Path: "/x"})
	require.Error(t, err)

	var httpErr *HTTPError
	require.True(t, errors.As(err, &httpErr))
	assert.Equal(t, http.StatusConflict, httpErr.StatusCode)
	assert.JSONEq(t, `{"error": {"code": "E041"}}`, string(httpErr.Body))
}
