package gateway

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"fileworks-hq/vulcan/pkg/artifact"
	"fileworks-hq/vulcan/pkg/capability"
	"fileworks-hq/vulcan/pkg/config"
	"fileworks-hq/vulcan/pkg/gateway/handlers"
	"fileworks-hq/vulcan/pkg/ledger"
	"fileworks-hq/vulcan/pkg/ledger/storage"
	"fileworks-hq/vulcan/pkg/pipeline"
	"fileworks-hq/vulcan/pkg/registry"
	"fileworks-hq/vulcan/pkg/telemetry/metrics"
)

func testConfig() *config.Config {
	cfg := &config.Config{}
	config.ApplyDefaults(cfg)
	return cfg
}

func newTestServer(t *testing.T) *Server {
	t.Helper()

	dir := t.TempDir()
	store, err := artifact.NewStore(artifact.StoreConfig{
		Dir:    filepath.Join(dir, "blobs"),
		DBPath: filepath.Join(dir, "artifacts.db"),
		TTL:    30 * time.Minute,
	})
	if err != nil {
		t.Fatalf("failed to create store: %v", err)
	}
	t.Cleanup(func() { store.Close() })

	usage := ledger.New(storage.NewMemoryBackend(), nil, 5)
	reg := registry.New()
	collector := metrics.NewCollector(metrics.Config{Namespace: "vulcan"})
	p := pipeline.New(usage, reg, capability.NewExecutor(capability.ExecutorConfig{}), store, collector)

	return NewServer(testConfig(), Dependencies{
		Pipeline:  p,
		Downloads: handlers.NewDownloadHandler(store, collector.Artifacts),
		Collector: collector,
	})
}

func TestServer_Routes(t *testing.T) {
	server := newTestServer(t)
	handler := server.setupRoutes()

	cases := []struct {
		method string
		path   string
		status int
	}{
		{http.MethodGet, "/health", http.StatusOK},
		{http.MethodGet, "/ready", http.StatusOK},
		{http.MethodGet, "/metrics", http.StatusOK},
		{http.MethodGet, "/download/000000000000000000000000", http.StatusNotFound},
		{http.MethodGet, "/nonexistent", http.StatusNotFound},
	}

	for _, tc := range cases {
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, httptest.NewRequest(tc.method, tc.path, nil))
		if rec.Code != tc.status {
			t.Errorf("%s %s: expected %d, got %d", tc.method, tc.path, tc.status, rec.Code)
		}
	}
}

func TestServer_HealthPayload(t *testing.T) {
	handler := newTestServer(t).setupRoutes()

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))

	var body map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("Failed to parse health body: %v", err)
	}
	if body["status"] != "ok" {
		t.Errorf("Unexpected health status %v", body["status"])
	}
	if rec.Header().Get("X-Request-ID") == "" {
		t.Error("Expected request ID header from middleware chain")
	}
}

func TestServer_ProcessRouteWired(t *testing.T) {
	handler := newTestServer(t).setupRoutes()

	// An empty registry resolves nothing; the route itself must still
	// answer with the accepted-but-unsupported envelope.
	req := httptest.NewRequest(http.MethodPost, "/api/tools/some-tool/process",
		strings.NewReader(`{"url":"https://example.com/v"}`))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusAccepted {
		t.Fatalf("Expected 202 from empty registry, got %d: %s", rec.Code, rec.Body.String())
	}
}

func TestServer_CORSPreflight(t *testing.T) {
	handler := newTestServer(t).setupRoutes()

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodOptions, "/api/tools/x/process", nil))

	if rec.Code != http.StatusNoContent {
		t.Fatalf("Expected 204 preflight, got %d", rec.Code)
	}
	if rec.Header().Get("Access-Control-Allow-Origin") == "" {
		t.Error("Expected CORS headers on preflight")
	}
}
