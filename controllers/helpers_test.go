package controllers_test

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"companies-backend/config"
	"companies-backend/database/databasetest"
	"companies-backend/middlewares"
	"companies-backend/models"
	"companies-backend/pagination"
	"companies-backend/routes"
)

const testSecret = "test-secret"

type testEnv struct {
	t     *testing.T
	app   *fiber.App
	db    *gorm.DB
	admin string
	user  string
}

func testConfig() *config.Config {
	return &config.Config{
		App: config.AppConfig{
			Env:             "test",
			BodyLimitBytes:  4 * 1024 * 1024,
			AllowedOrigins:  "*",
			RateLimitMax:    10000,
			RateLimitWindow: time.Minute,
		},
		JWT:        config.JWTConfig{Secret: testSecret, TTL: time.Hour},
		Pagination: pagination.Config{DefaultPerPage: 15, MaxPerPage: 100},
	}
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	db := databasetest.New(t)
	app := routes.NewApp(db, testConfig(), zap.NewNop())

	admin, err := middlewares.GenerateJWT([]byte(testSecret), "admin-1", models.RoleAdmin, time.Hour)
	require.NoError(t, err)
	user, err := middlewares.GenerateJWT([]byte(testSecret), "user-1", models.RoleUser, time.Hour)
	require.NoError(t, err)

	return &testEnv{t: t, app: app, db: db, admin: admin, user: user}
}

type response struct {
	Status int
	Header http.Header
	Body   map[string]any
}

// do sends a request through the app. body may be nil, a string (sent raw) or any value
// (JSON-encoded). headers are name/value pairs.
func (e *testEnv) do(method, path string, body any, token string, headers ...string) response {
	e.t.Helper()

	var reader io.Reader
	switch b := body.(type) {
	case nil:
	case string:
		reader = bytes.NewBufferString(b)
	default:
		raw, err := json.Marshal(b)
		require.NoError(e.t, err)
		reader = bytes.NewReader(raw)
	}

	req := httptest.NewRequest(method, path, reader)
	if reader != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	for i := 0; i+1 < len(headers); i += 2 {
		req.Header.Set(headers[i], headers[i+1])
	}

	resp, err := e.app.Test(req, -1)
	require.NoError(e.t, err)
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	require.NoError(e.t, err)

	out := response{Status: resp.StatusCode, Header: resp.Header}
	if len(raw) > 0 {
		require.NoError(e.t, json.Unmarshal(raw, &out.Body), "body: %s", raw)
	}
	return out
}

func (e *testEnv) seedCompany(name, cif string) models.Company {
	e.t.Helper()
	c := models.Company{
		Name:           name,
		CIF:            cif,
		ContactPerson:  "Contact " + name,
		CompanyAddress: "Calle Mayor 1, Madrid",
	}
	require.NoError(e.t, e.db.Create(&c).Error)
	return c
}

func (e *testEnv) countCompanies() int64 {
	e.t.Helper()
	var n int64
	require.NoError(e.t, e.db.Model(&models.Company{}).Count(&n).Error)
	return n
}

func (e *testEnv) loadCompany(id uint) models.Company {
	e.t.Helper()
	var c models.Company
	require.NoError(e.t, e.db.First(&c, id).Error)
	return c
}

func companyPath(id any) string {
	return fmt.Sprintf("/api/v1/companies/%v", id)
}

func validCompany() map[string]any {
	return map[string]any{
		"name":            "Energía Solar S.L.",
		"cif":             "B12345678",
		"contact_person":  "Lucía Fernández",
		"company_address": "Avenida de la Luz 12, Sevilla",
	}
}

func errorFields(t *testing.T, body map[string]any) map[string]any {
	t.Helper()
	errs, ok := body["errors"].(map[string]any)
	require.True(t, ok, "expected an errors map, got %v", body)
	return errs
}

func keys(m map[string]any) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	return out
}
