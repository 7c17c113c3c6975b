package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/shabelingo/shabelingo-api/internal/api"
	"github.com/shabelingo/shabelingo-api/internal/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()

	cfg, err := config.LoadFrom("", writeConfig(t, "memory", ""))
	require.NoError(t, err)

	st, err := openStorage(context.Background(), cfg.Database, discardLogger())
	require.NoError(t, err)

	app, err := newApplication(cfg, discardLogger(), st)
	require.NoError(t, err)

	srv := httptest.NewServer(app.setupRouter())
	t.Cleanup(srv.Close)
	return srv
}

func request(t *testing.T, srv *httptest.Server, method, path string, userID uuid.UUID, body string, out any) int {
	t.Helper()

	req, err := http.NewRequest(method, srv.URL+path, strings.NewReader(body))
	require.NoError(t, err)
	if userID != uuid.Nil {
		req.Header.Set("X-User-ID", userID.String())
	}

	resp, err := srv.Client().Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	if out != nil {
		raw, err := io.ReadAll(resp.Body)
		require.NoError(t, err)
		require.NoError(t, json.Unmarshal(raw, out), string(raw))
	}
	return resp.StatusCode
}

func TestReviewFlow(t *testing.T) {
	srv := newTestServer(t)
	userID := uuid.New()

	var created api.MemoResponse
	status := request(t, srv, http.MethodPost, "/api/memos", userID,
		`{"original_text":"猫","translated_text":"cat","evaluation_text":"neko"}`, &created)
	require.Equal(t, http.StatusCreated, status)

	var daily api.SessionResponse
	status = request(t, srv, http.MethodGet, "/api/review/daily", userID, "", &daily)
	require.Equal(t, http.StatusOK, status)
	require.Equal(t, 1, daily.Count)
	assert.Equal(t, created.ID, daily.Memos[0].ID)

	var reviewed api.ReviewResponse
	status = request(t, srv, http.MethodPost, "/api/memos/"+created.ID+"/review", userID,
		`{"grade":5,"expected_version":1}`, &reviewed)
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, "review", reviewed.Memo.Review.Status)
	assert.Equal(t, 1, reviewed.Memo.Review.Interval)
	assert.Equal(t, 2.6, reviewed.Memo.Review.EaseFactor)
	assert.Equal(t, int64(2), reviewed.Memo.Version)

	// A retried submission with the old version is rejected.
	status = request(t, srv, http.MethodPost, "/api/memos/"+created.ID+"/review", userID,
		`{"grade":5,"expected_version":1}`, nil)
	assert.Equal(t, http.StatusConflict, status)

	// Reviewed tomorrow, so neither due nor new today.
	status = request(t, srv, http.MethodGet, "/api/review/daily", userID, "", &daily)
	require.Equal(t, http.StatusOK, status)
	assert.Zero(t, daily.Count)

	var random api.SessionResponse
	status = request(t, srv, http.MethodGet, "/api/review/random?limit=5", userID, "", &random)
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, 1, random.Count)

	status = request(t, srv, http.MethodPost, "/api/memos/"+created.ID+"/pronunciation", userID,
		`{"score":92}`, &reviewed)
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, 5, reviewed.Grade)
	assert.Equal(t, 6, reviewed.Memo.Review.Interval)

	// Editing the text keeps the schedule.
	var edited api.MemoResponse
	status = request(t, srv, http.MethodPatch, "/api/memos/"+created.ID, userID,
		`{"note":"counter word: 匹"}`, &edited)
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, "counter word: 匹", edited.Note)
	assert.Equal(t, "cat", edited.TranslatedText)
	assert.Equal(t, reviewed.Memo.Review.Interval, edited.Review.Interval)
	assert.Equal(t, reviewed.Memo.Version+1, edited.Version)

	var listed api.MemoListResponse
	status = request(t, srv, http.MethodGet, "/api/memos", userID, "", &listed)
	require.Equal(t, http.StatusOK, status)
	require.Equal(t, 1, listed.Count)
	assert.Equal(t, "counter word: 匹", listed.Memos[0].Note)

	// Another user cannot see, edit or grade the memo.
	other := uuid.New()
	assert.Equal(t, http.StatusForbidden,
		request(t, srv, http.MethodGet, "/api/memos/"+created.ID, other, "", nil))
	assert.Equal(t, http.StatusForbidden,
		request(t, srv, http.MethodPatch, "/api/memos/"+created.ID, other, `{"note":"mine"}`, nil))
	assert.Equal(t, http.StatusForbidden,
		request(t, srv, http.MethodPost, "/api/memos/"+created.ID+"/review", other, `{"grade":3}`, nil))

	var empty api.MemoListResponse
	require.Equal(t, http.StatusOK, request(t, srv, http.MethodGet, "/api/memos", other, "", &empty))
	assert.Zero(t, empty.Count)

	assert.Equal(t, http.StatusNoContent,
		request(t, srv, http.MethodDelete, "/api/memos/"+created.ID, userID, "", nil))
	assert.Equal(t, http.StatusNotFound,
		request(t, srv, http.MethodGet, "/api/memos/"+created.ID, userID, "", nil))
}

func TestRouterIdentityAndHealth(t *testing.T) {
	srv := newTestServer(t)

	assert.Equal(t, http.StatusUnauthorized,
		request(t, srv, http.MethodGet, "/api/review/daily", uuid.Nil, "", nil))

	var health api.HealthResponse
	require.Equal(t, http.StatusOK, request(t, srv, http.MethodGet, "/health", uuid.Nil, "", &health))
	assert.Equal(t, "memory", health.Database)

	var notFound struct {
		Error string `json:"error"`
	}
	require.Equal(t, http.StatusNotFound, request(t, srv, http.MethodGet, "/nowhere", uuid.Nil, "", &notFound))
	assert.Equal(t, "Resource not found", notFound.Error)

	resp, err := srv.Client().Get(srv.URL + "/health")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.NotEmpty(t, resp.Header.Get("X-Request-ID"), fmt.Sprintf("headers: %v", resp.Header))
}
