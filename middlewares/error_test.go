package middlewares

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"companies-backend/validation"
)

func errorBody(t *testing.T, handlerErr error) (int, map[string]any) {
	t.Helper()
	app := fiber.New(fiber.Config{ErrorHandler: ErrorHandler})
	app.Get("/", func(c *fiber.Ctx) error { return handlerErr })

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/", nil), -1)
	require.NoError(t, err)
	defer resp.Body.Close()

	var body map[string]any
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	return resp.StatusCode, body
}

func TestErrorHandler(t *testing.T) {
	t.Run("fiber error", func(t *testing.T) {
		status, body := errorBody(t, fiber.NewError(fiber.StatusNotFound, "Company not found"))
		assert.Equal(t, http.StatusNotFound, status)
		assert.Equal(t, "Company not found", body["message"])
	})

	t.Run("validation errors", func(t *testing.T) {
		status, body := errorBody(t, validation.Errors{"cif": {"cif has already been taken"}})
		assert.Equal(t, http.StatusUnprocessableEntity, status)
		assert.Equal(t, "The given data was invalid.", body["message"])
		assert.Equal(t, map[string]any{"cif": []any{"cif has already been taken"}}, body["errors"])
	})

	t.Run("unknown error is sanitized", func(t *testing.T) {
		status, body := errorBody(t, errors.New("pq: connection refused"))
		assert.Equal(t, http.StatusInternalServerError, status)
		assert.Equal(t, "internal server error", body["message"])
	})
}
