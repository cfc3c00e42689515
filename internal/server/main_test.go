package server

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"blackdonut/internal/config"
	"blackdonut/internal/database"
	"blackdonut/internal/mailer"
	"blackdonut/internal/media"

	"github.com/gofiber/fiber/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// fakeStore keeps uploads in memory.
type fakeStore struct {
	mu       sync.Mutex
	uploaded []string
	deleted  []string
}

func (f *fakeStore) Upload(_ context.Context, kind media.Kind, publicID string, r io.Reader) (*media.Asset, error) {
	if _, err := io.Copy(io.Discard, r); err != nil {
		return nil, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.uploaded = append(f.uploaded, publicID)
	return &media.Asset{URL: "https://cdn.test/" + string(kind) + "/" + publicID, PublicID: publicID}, nil
}

func (f *fakeStore) Delete(_ context.Context, _ media.Kind, publicID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.deleted = append(f.deleted, publicID)
	return nil
}

type outbox struct {
	mu   sync.Mutex
	sent []mailer.Message
}

func (o *outbox) Send(_ context.Context, msg mailer.Message) error {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.sent = append(o.sent, msg)
	return nil
}

func testConfig() *config.Config {
	return &config.Config{
		JWTSecret:              "test-secret-test-secret-test-secret",
		Env:                    "test",
		AllowedOrigins:         "http://localhost:5173",
		FrontendURL:            "http://localhost:5173",
		FeatureFlags:           "engagement_events=true",
		RateLimitAuthRequests:  10,
		RateLimitWriteRequests: 60,
	}
}

type testEnv struct {
	srv   *Server
	app   *fiber.App
	store *fakeStore
	mail  *outbox
}

func newTestEnv(t *testing.T, rdb *redis.Client) *testEnv {
	t.Helper()
	t.Setenv("APP_ENV", "test")

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })
	require.NoError(t, database.Migrate(db))

	store, mail := &fakeStore{}, &outbox{}
	srv, err := NewServerWithDeps(testConfig(), db, rdb, store, mail)
	require.NoError(t, err)
	return &testEnv{srv: srv, app: srv.NewApp(), store: store, mail: mail}
}

// call sends a request and decodes the JSON body.
func (e *testEnv) call(t *testing.T, req *http.Request, cookies ...*http.Cookie) (*http.Response, map[string]interface{}) {
	t.Helper()
	for _, c := range cookies {
		req.AddCookie(c)
	}
	resp, err := e.app.Test(req, -1)
	require.NoError(t, err)
	defer func() { _ = resp.Body.Close() }()

	var body map[string]interface{}
	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	if len(raw) > 0 {
		_ = json.Unmarshal(raw, &body)
	}
	return resp, body
}

func (e *testEnv) callJSON(t *testing.T, method, path string, payload interface{}, cookies ...*http.Cookie) (*http.Response, map[string]interface{}) {
	t.Helper()
	var r io.Reader
	if payload != nil {
		raw, err := json.Marshal(payload)
		require.NoError(t, err)
		r = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, path, r)
	req.Header.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSON)
	return e.call(t, req, cookies...)
}

func multipartRequest(t *testing.T, method, path, fileField, filename string, fields map[string]string) *http.Request {
	t.Helper()
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	for k, v := range fields {
		require.NoError(t, w.WriteField(k, v))
	}
	if fileField != "" {
		part, err := w.CreateFormFile(fileField, filename)
		require.NoError(t, err)
		_, err = part.Write([]byte("not really a video"))
		require.NoError(t, err)
	}
	require.NoError(t, w.Close())

	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set(fiber.HeaderContentType, w.FormDataContentType())
	return req
}

func sessionCookie(t *testing.T, resp *http.Response, name string) *http.Cookie {
	t.Helper()
	for _, c := range resp.Cookies() {
		if c.Name == name && c.Value != "" {
			return &http.Cookie{Name: c.Name, Value: c.Value}
		}
	}
	t.Fatalf("cookie %s not set", name)
	return nil
}

func (e *testEnv) registerPartner(t *testing.T, email string) (*http.Cookie, uint) {
	t.Helper()
	resp, body := e.callJSON(t, http.MethodPost, "/api/auth/food-partner/register", map[string]string{
		"name":        "Donut Hut",
		"contactName": "Ada",
		"phone":       "555-0100",
		"address":     "1 Glaze St",
		"email":       email,
		"password":    "secret123",
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode, body)
	partner := body["foodPartner"].(map[string]interface{})
	return sessionCookie(t, resp, partnerCookie), uint(partner["id"].(float64))
}

func (e *testEnv) registerUser(t *testing.T, email string) *http.Cookie {
	t.Helper()
	resp, body := e.callJSON(t, http.MethodPost, "/api/auth/user/register", map[string]string{
		"fullName": "Grace Hopper",
		"email":    email,
		"password": "secret123",
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode, body)
	return sessionCookie(t, resp, userCookie)
}

func (e *testEnv) createFood(t *testing.T, partner *http.Cookie, name string) uint {
	t.Helper()
	req := multipartRequest(t, http.MethodPost, "/api/food", "video", "clip.mp4", map[string]string{
		"name":        name,
		"description": "fresh",
	})
	resp, body := e.call(t, req, partner)
	require.Equal(t, http.StatusCreated, resp.StatusCode, body)
	return uint(body["food"].(map[string]interface{})["id"].(float64))
}
