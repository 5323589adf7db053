package webserver

import (
	"context"
	"encoding/json"
	"io"
	"net"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/spboyer/modelrank/internal/models"
	"github.com/spboyer/modelrank/internal/recommend"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubRecommender struct {
	err error
}

func (s *stubRecommender) Recommend(_ context.Context, req recommend.Request) (*models.RecommendationResult, error) {
	if s.err != nil {
		return nil, s.err
	}
	return &models.RecommendationResult{
		TaskProfile: models.TaskProfile{
			TaskType:      models.TaskGeneral,
			WeightQuality: 0.5,
			WeightSpeed:   0.25,
			WeightCost:    0.25,
			MissingPolicy: models.MissingPenalize,
		},
		SnapshotTS:      "2025-06-01T12:00:00Z",
		Recommendations: []models.ScoredRecommendation{},
	}, nil
}

func newTestServer(t *testing.T, cfg Config) *Server {
	t.Helper()
	if cfg.Recommender == nil {
		cfg.Recommender = &stubRecommender{}
	}
	srv, err := New(cfg)
	require.NoError(t, err)
	return srv
}

func TestNew_RequiresRecommender(t *testing.T) {
	_, err := New(Config{})
	require.Error(t, err)
}

func TestNew_DefaultAddr(t *testing.T) {
	srv := newTestServer(t, Config{})
	assert.Equal(t, DefaultAddr, srv.srv.Addr)
}

func TestHealthEndpoint(t *testing.T) {
	handler := newTestServer(t, Config{}).Handler()

	req := httptest.NewRequest(http.MethodGet, "/api/health", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))

	var body map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "ok", body["status"])
}

func TestRecommendEndpoint(t *testing.T) {
	handler := newTestServer(t, Config{}).Handler()

	req := httptest.NewRequest(http.MethodPost, "/api/recommend", strings.NewReader(`{"task_text": "chat"}`))
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Contains(t, body, "task_profile")
	assert.Equal(t, false, body["refreshed"])
}

func TestRecommendEndpoint_NoData(t *testing.T) {
	handler := newTestServer(t, Config{Recommender: &stubRecommender{err: &recommend.NoDataError{}}}).Handler()

	req := httptest.NewRequest(http.MethodPost, "/api/recommend", strings.NewReader(`{"task_text": "chat"}`))
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestFormPage(t *testing.T) {
	handler := newTestServer(t, Config{}).Handler()

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Header().Get("Content-Type"), "text/html")
	assert.Contains(t, rec.Body.String(), "/api/recommend")
}

func TestUnknownPathIs404(t *testing.T) {
	handler := newTestServer(t, Config{}).Handler()

	for _, path := range []string{"/nope", "/api/unknown"} {
		req := httptest.NewRequest(http.MethodGet, path, nil)
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusNotFound, rec.Code, path)
	}
}

func TestCORSIsWired(t *testing.T) {
	handler := newTestServer(t, Config{AllowedOrigins: []string{"http://localhost:5173"}}).Handler()

	req := httptest.NewRequest(http.MethodGet, "/api/health", nil)
	req.Header.Set("Origin", "http://localhost:5173")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	assert.Equal(t, "http://localhost:5173", rec.Header().Get("Access-Control-Allow-Origin"))
}

func TestServe_ShutsDownOnCancel(t *testing.T) {
	srv := newTestServer(t, Config{})
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- srv.Serve(ctx, ln) }()

	resp, err := http.Get("http://" + ln.Addr().String() + "/api/health")
	require.NoError(t, err)
	body, _ := io.ReadAll(resp.Body)
	resp.Body.Close() //nolint:errcheck
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, string(body), `"ok"`)

	cancel()
	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(10 * time.Second):
		t.Fatal("server did not shut down")
	}
}

func TestListenAndServe_BadAddress(t *testing.T) {
	srv := newTestServer(t, Config{Addr: "127.0.0.1:-1"})
	err := srv.ListenAndServe(context.Background())
	require.Error(t, err)
}
