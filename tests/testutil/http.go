package testutil

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/hazina/backend/internal/interfaces/http/dto"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Client sends requests to an in-process handler
type Client struct {
	Handler http.Handler
	Token   string
}

// NewClient creates a Client for h
func NewClient(h http.Handler) *Client {
	return &Client{Handler: h}
}

// As returns a copy of the client that sends token as its bearer credential
func (c *Client) As(token string) *Client {
	return &Client{Handler: c.Handler, Token: token}
}

// Do sends a request. body may be nil, a string, []byte or any value encoded as JSON.
func (c *Client) Do(t *testing.T, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()

	req := httptest.NewRequest(method, path, ToReader(t, body))
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.Token != "" {
		req.Header.Set("Authorization", "Bearer "+c.Token)
	}
	w := httptest.NewRecorder()
	c.Handler.ServeHTTP(w, req)
	return w
}

// ToReader encodes body for a request
func ToReader(t *testing.T, body any) io.Reader {
	t.Helper()
	switch b := body.(type) {
	case nil:
		return nil
	case string:
		return bytes.NewBufferString(b)
	case []byte:
		return bytes.NewReader(b)
	default:
		data, err := json.Marshal(b)
		require.NoError(t, err, "Failed to marshal request body")
		return bytes.NewReader(data)
	}
}

// DecodeData unmarshals the data field of a success envelope into T
func DecodeData[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var envelope struct {
		Success bool `json:"success"`
		Data    T    `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &envelope), "Failed to parse response: %s", w.Body.String())
	require.True(t, envelope.Success, "Expected a success response: %s", w.Body.String())
	return envelope.Data
}

// DecodeResponse unmarshals the whole envelope
func DecodeResponse(t *testing.T, w *httptest.ResponseRecorder) dto.Response {
	t.Helper()
	var resp dto.Response
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp), "Failed to parse response: %s", w.Body.String())
	return resp
}

// AssertError asserts an error envelope with the given status and code
func AssertError(t *testing.T, w *httptest.ResponseRecorder, status int, code string) {
	t.Helper()
	assert.Equal(t, status, w.Code, w.Body.String())
	resp := DecodeResponse(t, w)
	assert.False(t, resp.Success)
	if assert.NotNil(t, resp.Error) {
		assert.Equal(t, code, resp.Error.Code)
	}
}
