package server

import (
	"context"
	"io"
	"net"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"classifier-service/internal/config"
	"classifier-service/internal/handler"
	"classifier-service/internal/metrics"
	"classifier-service/internal/models"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type stubClassifier struct{}

func (stubClassifier) Classify(_ context.Context, text string) (*models.PredictionResult, error) {
	return &models.PredictionResult{Category: "Artist", Model: "stub", PreprocessedText: text, WordCount: 1}, nil
}

func (stubClassifier) ClassifyBatch(context.Context, []string) (*models.BatchPredictResponse, error) {
	return &models.BatchPredictResponse{Results: []models.BatchItem{}}, nil
}

func (stubClassifier) ModelComparison() []models.ComparisonRow { return nil }
func (stubClassifier) Stats() models.Stats                     { return models.Stats{} }
func (stubClassifier) ModelInfo() models.ModelInfo             { return models.ModelInfo{} }
func (stubClassifier) ModelName() string                       { return "stub" }

func newTestServer(t *testing.T, mutate func(*config.ServerConfig)) *Server {
	t.Helper()
	cfg := config.Default().Server
	cfg.ShutdownTimeout = time.Second
	if mutate != nil {
		mutate(&cfg)
	}
	h := handler.NewHandler(stubClassifier{}, zap.NewNop())
	return New(cfg, h, metrics.New(), zap.NewNop())
}

func get(s *Server, path string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	s.Router().ServeHTTP(w, httptest.NewRequest(http.MethodGet, path, nil))
	return w
}

func TestServer_Routes(t *testing.T) {
	s := newTestServer(t, nil)

	w := get(s, "/health")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"status": "healthy", "model": "stub"}`, w.Body.String())
	assert.NotEmpty(t, w.Header().Get("X-Request-ID"))

	w = get(s, "/api/models")
	assert.JSONEq(t, `[]`, w.Body.String())

	w = get(s, "/metrics")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `classifier_http_requests_total{method="GET",path="/health",status="200"} 1`)
}

func TestServer_PanicIsCountedAsServerError(t *testing.T) {
	s := newTestServer(t, nil)
	s.Router().GET("/boom", func(c *gin.Context) {
		panic("boom")
	})

	w := get(s, "/boom")
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.JSONEq(t, `{"error": "internal server error"}`, w.Body.String())

	w = get(s, "/metrics")
	assert.Contains(t, w.Body.String(), `classifier_http_requests_total{method="GET",path="/boom",status="500"} 1`)
}

func TestServer_BodyLimit(t *testing.T) {
	s := newTestServer(t, func(cfg *config.ServerConfig) { cfg.MaxBodyBytes = 16 })

	req := httptest.NewRequest(http.MethodPost, "/predict", strings.NewReader(`{"text": "`+strings.Repeat("x", 64)+`"}`))
	w := httptest.NewRecorder()
	s.Router().ServeHTTP(w, req)

	assert.Equal(t, http.StatusRequestEntityTooLarge, w.Code)
}

func TestServer_StaticPages(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "index.html"), []byte("<h1>classify</h1>"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "dashboard.html"), []byte("<h1>dashboard</h1>"), 0o644))
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "static"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "static", "app.js"), []byte("console.log(1)"), 0o644))

	s := newTestServer(t, func(cfg *config.ServerConfig) { cfg.StaticDir = dir })

	assert.Contains(t, get(s, "/").Body.String(), "classify")
	assert.Contains(t, get(s, "/dashboard").Body.String(), "dashboard")
	assert.Equal(t, "console.log(1)", get(s, "/static/app.js").Body.String())
}

func TestServer_NoStaticPagesByDefault(t *testing.T) {
	s := newTestServer(t, nil)

	assert.Equal(t, http.StatusNotFound, get(s, "/").Code)
}

func TestServer_ServeAndShutdown(t *testing.T) {
	s := newTestServer(t, nil)
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- s.Serve(ctx, ln) }()

	resp, err := http.Get("http://" + ln.Addr().String() + "/health")
	require.NoError(t, err)
	body, _ := io.ReadAll(resp.Body)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, string(body), "healthy")

	cancel()

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("server did not shut down")
	}
}
