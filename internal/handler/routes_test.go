package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/thorsignia/backend/internal/database"
	"github.com/thorsignia/backend/internal/model"
	"github.com/thorsignia/backend/internal/notify"
	"github.com/thorsignia/backend/internal/repository"
	"github.com/thorsignia/backend/internal/service"
	"github.com/thorsignia/backend/internal/storage"
)

type failingMailer struct{}

func (failingMailer) Send(context.Context, notify.Message) error {
	return errors.New("smtp: connection refused")
}

type testServer struct {
	srv    *httptest.Server
	db     database.DB
	backup *storage.JSONFileLog
}

func newTestServer(t *testing.T, restricted bool, mailer notify.Mailer) *testServer {
	t.Helper()
	db, err := database.OpenSQLiteMemory(context.Background())
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	backup := storage.NewJSONFileLog(filepath.Join(t.TempDir(), "contact_submissions.json"))
	svc := service.NewContactService(repository.NewSQLContactRepository(db), service.Options{
		Mailer:    mailer,
		Backup:    backup,
		EmailFrom: "noreply@x.com",
		EmailTo:   "info@x.com",
	})
	h := New(db, Options{Environment: "development", Restricted: restricted, Stats: svc})
	contacts := NewContactHandler(svc, restricted, nil)

	srv := httptest.NewServer(Routes(h, contacts, nil, ""))
	t.Cleanup(srv.Close)
	return &testServer{srv: srv, db: db, backup: backup}
}

func (ts *testServer) post(t *testing.T, body any) (*http.Response, map[string]any) {
	t.Helper()
	buf, err := json.Marshal(body)
	require.NoError(t, err)
	resp, err := http.Post(ts.srv.URL+"/api/contacts", "application/json", bytes.NewReader(buf))
	require.NoError(t, err)
	defer resp.Body.Close()
	var out map[string]any
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	return resp, out
}

func (ts *testServer) get(t *testing.T, path string, out any) *http.Response {
	t.Helper()
	resp, err := http.Get(ts.srv.URL + path)
	require.NoError(t, err)
	defer resp.Body.Close()
	if out != nil {
		require.NoError(t, json.NewDecoder(resp.Body).Decode(out))
	}
	return resp
}

func countContacts(t *testing.T, db database.DB) int64 {
	t.Helper()
	row, err := db.Get(context.Background(), "SELECT COUNT(*) AS n FROM contacts")
	require.NoError(t, err)
	n, err := row.Int64("n")
	require.NoError(t, err)
	return n
}

func TestRoutes_SubmitThenGet(t *testing.T) {
	ts := newTestServer(t, false, notify.NewMailbox(nil, 10))

	resp, body := ts.post(t, map[string]string{
		"name": "Ada", "email": "ada@x.com", "company": "Acme", "message": "hi",
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	assert.Equal(t, "Contact saved successfully", body["message"])
	assert.Equal(t, true, body["emailSent"])
	assert.Equal(t, true, body["backupCreated"])
	id, ok := body["id"].(float64)
	require.True(t, ok, "id must be a number, got %T", body["id"])

	var got map[string]any
	resp = ts.get(t, fmt.Sprintf("/api/contacts/%d", int64(id)), &got)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "Ada", got["name"])
	assert.Equal(t, "ada@x.com", got["email"])
	assert.Equal(t, "Acme", got["company"])
	assert.Equal(t, "hi", got["message"])
	assert.Nil(t, got["phone"])
	assert.NotEmpty(t, got["created_at"])
	assert.NotEmpty(t, resp.Header.Get(RequestIDHeader))
}

func TestRoutes_MissingFieldWritesNothing(t *testing.T) {
	ts := newTestServer(t, false, notify.NewMailbox(nil, 10))

	for _, field := range []string{"name", "email", "company", "message"} {
		payload := map[string]string{
			"name": "Ada", "email": "ada@x.com", "company": "Acme", "message": "hi",
		}
		delete(payload, field)

		resp, body := ts.post(t, payload)

		assert.Equal(t, http.StatusBadRequest, resp.StatusCode, field)
		assert.Equal(t, "Missing required field: "+field, body["error"])
	}
	assert.Zero(t, countContacts(t, ts.db))
}

func TestRoutes_SequentialIDsAreDistinct(t *testing.T) {
	ts := newTestServer(t, false, notify.NewMailbox(nil, 10))

	seen := map[float64]bool{}
	for i := range 5 {
		resp, body := ts.post(t, map[string]string{
			"name": fmt.Sprintf("n%d", i), "email": "e@x.com", "company": "c", "message": "m",
		})
		require.Equal(t, http.StatusCreated, resp.StatusCode)
		id := body["id"].(float64)
		assert.False(t, seen[id], "duplicate id %v", id)
		seen[id] = true
	}

	var list []model.Contact
	ts.get(t, "/api/contacts", &list)
	require.Len(t, list, 5)
	assert.Greater(t, list[0].ID, list[4].ID, "list must be newest first")
}

func TestRoutes_EmailFailureStillSaves(t *testing.T) {
	ts := newTestServer(t, false, failingMailer{})

	resp, body := ts.post(t, map[string]string{
		"name": "Ada", "email": "ada@x.com", "company": "Acme", "message": "hi",
	})

	require.Equal(t, http.StatusCreated, resp.StatusCode)
	assert.Equal(t, false, body["emailSent"])
	assert.Equal(t, true, body["backupCreated"])

	id := int64(body["id"].(float64))
	resp = ts.get(t, fmt.Sprintf("/api/contacts/%d", id), nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, int64(1), countContacts(t, ts.db))
}

func TestRoutes_RestrictedMode(t *testing.T) {
	ts := newTestServer(t, true, notify.NewMailbox(nil, 10))

	resp, _ := ts.post(t, map[string]string{
		"name": "Ada", "email": "ada@x.com", "company": "Acme", "message": "hi",
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	for _, path := range []string{"/api/contacts", "/api/contacts/1", "/api/debug", "/api/debug/database"} {
		var body map[string]string
		resp := ts.get(t, path, &body)
		assert.Equal(t, http.StatusForbidden, resp.StatusCode, path)
		assert.Equal(t, "Access restricted in production", body["error"], path)
	}
}

func TestRoutes_UnknownIDIs404(t *testing.T) {
	ts := newTestServer(t, false, notify.NewMailbox(nil, 10))

	var body map[string]string
	resp := ts.get(t, "/api/contacts/424242", &body)

	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	assert.Equal(t, "Contact not found", body["error"])
}

func TestRoutes_HealthAndBanner(t *testing.T) {
	ts := newTestServer(t, false, notify.NewMailbox(nil, 10))

	var health map[string]any
	resp := ts.get(t, "/api/health", &health)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "ok", health["status"])
	assert.Equal(t, "SQLite", health["database_type"])
	assert.Equal(t, "nosniff", resp.Header.Get("X-Content-Type-Options"))

	var banner map[string]string
	resp = ts.get(t, "/", &banner)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "Thor Signia API is running", banner["message"])
}

func TestRoutes_DebugDatabaseReportsTable(t *testing.T) {
	ts := newTestServer(t, false, notify.NewMailbox(nil, 10))
	ts.post(t, map[string]string{
		"name": "Ada", "email": "ada@x.com", "company": "Acme", "message": "hi",
	})

	var resp debugDatabaseResponse
	ts.get(t, "/api/debug/database", &resp)

	assert.True(t, resp.Table.Exists)
	assert.Equal(t, int64(1), resp.Table.RowCount)
	require.NotNil(t, resp.Table.RecentSubmission)
	assert.Equal(t, "Ada", resp.Table.RecentSubmission.Name)
}

func TestRoutes_RateLimitedSubmit(t *testing.T) {
	db, err := database.OpenSQLiteMemory(context.Background())
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	svc := service.NewContactService(repository.NewSQLContactRepository(db), service.Options{})
	srv := httptest.NewServer(Routes(
		New(db, Options{}),
		NewContactHandler(svc, false, nil),
		NewRateLimiter(t.Context(), 1),
		"",
	))
	t.Cleanup(srv.Close)

	payload := `{"name":"a","email":"b","company":"c","message":"d"}`
	codes := make([]int, 0, 2)
	for range 2 {
		resp, err := http.Post(srv.URL+"/api/contacts", "application/json", bytes.NewBufferString(payload))
		require.NoError(t, err)
		resp.Body.Close()
		codes = append(codes, resp.StatusCode)
	}
	assert.Equal(t, []int{http.StatusCreated, http.StatusTooManyRequests}, codes)
}
