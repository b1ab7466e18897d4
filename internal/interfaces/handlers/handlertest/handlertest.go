// Package handlertest holds helpers for Fiber handler tests.
package handlertest

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
)

// AsUser puts userID into Locals the way the session middleware does.
func AsUser(userID uuid.UUID) fiber.Handler {
	return func(c *fiber.Ctx) error {
		c.Locals("user", map[string]interface{}{"user_id": userID.String(), "email": "test@example.com"})
		return c.Next()
	}
}

// Body is a decoded response envelope.
type Body map[string]interface{}

// Data returns the "data" member as an object.
func (b Body) Data() map[string]interface{} {
	m, _ := b["data"].(map[string]interface{})
	return m
}

// List returns the "data" member as an array.
func (b Body) List() []interface{} {
	l, _ := b["data"].([]interface{})
	return l
}

// Message returns the success message or the error message.
func (b Body) Message() string {
	if e, ok := b["error"].(map[string]interface{}); ok {
		s, _ := e["message"].(string)
		return s
	}
	s, _ := b["message"].(string)
	return s
}

// Details returns error.details.
func (b Body) Details() map[string]interface{} {
	e, _ := b["error"].(map[string]interface{})
	d, _ := e["details"].(map[string]interface{})
	return d
}

// Do sends a JSON request (body may be nil) and decodes the JSON response.
func Do(t *testing.T, app *fiber.App, method, path string, body interface{}) (int, Body) {
	t.Helper()
	var r io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		require.NoError(t, err)
		r = bytes.NewReader(b)
	}
	req := httptest.NewRequest(method, path, r)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	out := Body{}
	if len(raw) > 0 {
		_ = json.Unmarshal(raw, &out)
	}
	return resp.StatusCode, out
}
