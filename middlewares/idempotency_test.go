package middlewares

import (
	"bytes"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"companies-backend/database/databasetest"
	"companies-backend/models"
)

type idemFixture struct {
	app   *fiber.App
	db    *gorm.DB
	calls int
	fail  bool
}

func newIdemFixture(t *testing.T) *idemFixture {
	f := &idemFixture{db: databasetest.New(t)}
	f.app = fiber.New(fiber.Config{ErrorHandler: ErrorHandler})
	f.app.Use(func(c *fiber.Ctx) error {
		if uid := c.Get("X-User"); uid != "" {
			c.Locals(LocalUserID, uid)
		}
		return c.Next()
	})
	f.app.Use(Idempotency(f.db))
	handler := func(c *fiber.Ctx) error {
		f.calls++
		if f.fail {
			return fiber.NewError(fiber.StatusUnprocessableEntity, "nope")
		}
		return c.Status(fiber.StatusCreated).JSON(fiber.Map{"call": f.calls})
	}
	f.app.Post("/things", handler)
	f.app.Get("/things", handler)
	return f
}

func (f *idemFixture) send(t *testing.T, method, key, user, body string) (*http.Response, string) {
	t.Helper()
	req := httptest.NewRequest(method, "/things", bytes.NewBufferString(body))
	req.Header.Set("Content-Type", "application/json")
	if key != "" {
		req.Header.Set("Idempotency-Key", key)
	}
	if user != "" {
		req.Header.Set("X-User", user)
	}
	resp, err := f.app.Test(req, -1)
	require.NoError(t, err)
	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp, string(raw)
}

func TestIdempotency_ReplaysStoredResponse(t *testing.T) {
	f := newIdemFixture(t)

	first, firstBody := f.send(t, http.MethodPost, "k1", "u1", `{"a":1}`)
	require.Equal(t, http.StatusCreated, first.StatusCode)

	second, secondBody := f.send(t, http.MethodPost, "k1", "u1", `{"a":1}`)
	assert.Equal(t, http.StatusCreated, second.StatusCode)
	assert.Equal(t, "true", second.Header.Get("Idempotent-Replayed"))
	assert.JSONEq(t, firstBody, secondBody)
	assert.Equal(t, 1, f.calls)
}

func TestIdempotency_KeyReuseWithDifferentRequest(t *testing.T) {
	f := newIdemFixture(t)

	f.send(t, http.MethodPost, "k1", "u1", `{"a":1}`)
	resp, _ := f.send(t, http.MethodPost, "k1", "u1", `{"a":2}`)
	assert.Equal(t, http.StatusConflict, resp.StatusCode)
	assert.Equal(t, 1, f.calls)
}

func TestIdempotency_KeysAreScopedPerUser(t *testing.T) {
	f := newIdemFixture(t)

	f.send(t, http.MethodPost, "k1", "u1", `{"a":1}`)
	resp, _ := f.send(t, http.MethodPost, "k1", "u2", `{"a":1}`)
	assert.Equal(t, http.StatusCreated, resp.StatusCode)
	assert.Empty(t, resp.Header.Get("Idempotent-Replayed"))
	assert.Equal(t, 2, f.calls)
}

func TestIdempotency_PendingKeyConflicts(t *testing.T) {
	f := newIdemFixture(t)
	body := `{"a":1}`
	pending := models.IdempotencyKey{
		Key:         "k1",
		UserID:      "u1",
		Method:      http.MethodPost,
		Path:        "/things",
		RequestHash: requestHash(http.MethodPost, "/things", []byte(body), "u1"),
	}
	require.NoError(t, f.db.Create(&pending).Error)

	resp, _ := f.send(t, http.MethodPost, "k1", "u1", body)
	assert.Equal(t, http.StatusConflict, resp.StatusCode)
	assert.Zero(t, f.calls)
}

func TestIdempotency_FailedRequestReleasesKey(t *testing.T) {
	f := newIdemFixture(t)

	f.fail = true
	resp, _ := f.send(t, http.MethodPost, "k1", "u1", `{"a":1}`)
	assert.Equal(t, http.StatusUnprocessableEntity, resp.StatusCode)

	var n int64
	require.NoError(t, f.db.Model(&models.IdempotencyKey{}).Count(&n).Error)
	assert.Zero(t, n)

	f.fail = false
	resp, _ = f.send(t, http.MethodPost, "k1", "u1", `{"a":1}`)
	assert.Equal(t, http.StatusCreated, resp.StatusCode)
	assert.Equal(t, 2, f.calls)
}

func TestIdempotency_Passthrough(t *testing.T) {
	f := newIdemFixture(t)

	f.send(t, http.MethodPost, "", "u1", `{"a":1}`)
	f.send(t, http.MethodPost, "", "u1", `{"a":1}`)
	f.send(t, http.MethodGet, "k1", "u1", "")
	f.send(t, http.MethodGet, "k1", "u1", "")
	assert.Equal(t, 4, f.calls)
}

func TestIdempotency_Rejects(t *testing.T) {
	f := newIdemFixture(t)

	long, _ := f.send(t, http.MethodPost, strings.Repeat("k", 129), "u1", `{}`)
	assert.Equal(t, http.StatusBadRequest, long.StatusCode)

	anon, _ := f.send(t, http.MethodPost, "k1", "", `{}`)
	assert.Equal(t, http.StatusUnauthorized, anon.StatusCode)
	assert.Zero(t, f.calls)
}
