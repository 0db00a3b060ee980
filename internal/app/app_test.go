package app

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/stravasync/stravasync/internal/activities"
	"github.com/stravasync/stravasync/internal/db"
	"github.com/stravasync/stravasync/internal/strava"
)

type emptySource struct{}

func (emptySource) ListActivities(ctx context.Context, perPage, page int) ([]strava.SummaryActivity, error) {
	return nil, nil
}

func (emptySource) GetActivity(ctx context.Context, id int64) (*strava.DetailedActivity, error) {
	return nil, &strava.APIError{StatusCode: http.StatusNotFound, Message: "Not Found"}
}

func newRouter(t *testing.T, syncToken string) http.Handler {
	t.Helper()
	conn, err := db.OpenMemory()
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close(conn) })
	require.NoError(t, activities.Migrate(conn))

	store := activities.NewStore(conn)
	src := emptySource{}
	h := activities.NewHandler(activities.NewSyncer(src, store, activities.SyncOptions{}), activities.NewViews(store), src)
	return NewRouter(h, nil, syncToken)
}

func get(h http.Handler, method, target string, header map[string]string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, target, nil)
	for k, v := range header {
		req.Header.Set(k, v)
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestRouterServiceEndpoints(t *testing.T) {
	r := newRouter(t, "")

	rec := get(r, http.MethodGet, "/", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "Server is up!\n", rec.Body.String())

	rec = get(r, http.MethodGet, "/healthz", nil)
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = get(r, http.MethodGet, "/metrics", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, strings.Contains(rec.Body.String(), "stravasync_"), "expected stravasync metrics to be exposed")

	rec = get(r, http.MethodGet, "/activities", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "[]", strings.TrimSpace(rec.Body.String()))
	assert.NotEmpty(t, rec.Header().Get("Server-Timing"))
}

func TestRouterGuardsSyncOnly(t *testing.T) {
	r := newRouter(t, "s3cret")

	rec := get(r, http.MethodPost, "/sync", nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = get(r, http.MethodPost, "/sync", map[string]string{"Authorization": "Bearer s3cret"})
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"inserted_activities":0`)

	rec = get(r, http.MethodGet, "/prs", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestRouterCORS(t *testing.T) {
	r := newRouter(t, "")

	rec := get(r, http.MethodGet, "/prs_table", map[string]string{"Origin": "http://localhost:5173"})
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "http://localhost:5173", rec.Header().Get("Access-Control-Allow-Origin"))
}

func TestNewServerTimeouts(t *testing.T) {
	srv := NewServer(":0", http.NotFoundHandler())
	assert.Equal(t, ":0", srv.Addr)
	assert.Positive(t, srv.ReadHeaderTimeout)
	assert.Greater(t, srv.WriteTimeout, srv.ReadTimeout)
}
