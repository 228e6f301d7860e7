package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"fileworks-hq/vulcan/pkg/artifact"
	"fileworks-hq/vulcan/pkg/capability"
	"fileworks-hq/vulcan/pkg/ledger"
	"fileworks-hq/vulcan/pkg/ledger/storage"
	"fileworks-hq/vulcan/pkg/pipeline"
	"fileworks-hq/vulcan/pkg/registry"
)

type echoCapability struct {
	id      string
	gotURL  string
	gotOpts map[string]string
}

func (c *echoCapability) ID() string { return c.id }

func (c *echoCapability) Execute(ctx context.Context, in *capability.Input) (*capability.Outcome, error) {
	c.gotURL = in.SourceURL
	c.gotOpts = in.Options
	if len(in.Files) == 0 {
		return capability.StructuredOutcome(json.RawMessage(`{"resolved":true}`)), nil
	}
	return capability.InlineOutcome("result.pdf", "application/pdf", []byte("converted")), nil
}

type rejectingCapability struct {
	id    string
	class capability.FailureClass
}

func (c *rejectingCapability) ID() string { return c.id }

func (c *rejectingCapability) Execute(ctx context.Context, in *capability.Input) (*capability.Outcome, error) {
	return nil, &capability.Failure{Class: c.class, Tool: c.id, Message: "rejected"}
}

func newHandlerStore(t *testing.T, ttl time.Duration) *artifact.Store {
	t.Helper()
	dir := t.TempDir()
	store, err := artifact.NewStore(artifact.StoreConfig{
		Dir:    filepath.Join(dir, "blobs"),
		DBPath: filepath.Join(dir, "artifacts.db"),
		TTL:    ttl,
	})
	if err != nil {
		t.Fatalf("failed to create store: %v", err)
	}
	t.Cleanup(func() { store.Close() })
	return store
}

func newHandler(t *testing.T, freeLimit int, store *artifact.Store, caps ...capability.Capability) *ProcessHandler {
	t.Helper()
	reg := registry.New()
	for _, c := range caps {
		if err := reg.Register(c); err != nil {
			t.Fatalf("Register failed: %v", err)
		}
	}
	usage := ledger.New(storage.NewMemoryBackend(), nil, freeLimit)
	p := pipeline.New(usage, reg, capability.NewExecutor(capability.ExecutorConfig{}), store, nil)
	return NewProcessHandler(p, freeLimit, 10<<20)
}

func multipartRequest(t *testing.T, target string, fields map[string]string, files map[string][]byte) *http.Request {
	t.Helper()
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	for name, data := range files {
		part, err := mw.CreateFormFile("files", name)
		if err != nil {
			t.Fatalf("CreateFormFile failed: %v", err)
		}
		part.Write(data)
	}
	for name, value := range fields {
		mw.WriteField(name, value)
	}
	mw.Close()

	req := httptest.NewRequest(http.MethodPost, target, &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	req.SetPathValue("tool", strings.TrimSuffix(strings.TrimPrefix(target, "/api/tools/"), "/process"))
	return req
}

func TestProcessHandler_MultipartSuccess(t *testing.T) {
	store := newHandlerStore(t, 30*time.Minute)
	handler := newHandler(t, 5, store, &echoCapability{id: "compress-pdf"})

	req := multipartRequest(t, "/api/tools/compress-pdf/process", nil,
		map[string][]byte{"doc.pdf": []byte("pdf-bytes")})
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d: %s", rec.Code, rec.Body.String())
	}

	var resp ProcessResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("Failed to parse response: %v", err)
	}
	if !resp.Success {
		t.Fatal("Expected success response")
	}
	if !strings.HasPrefix(resp.Result.DownloadURL, "/download/") {
		t.Errorf("Unexpected download URL %q", resp.Result.DownloadURL)
	}
	if resp.Result.Filename != "result.pdf" {
		t.Errorf("Unexpected filename %q", resp.Result.Filename)
	}
	if resp.Usage.Remaining != 4 {
		t.Errorf("Expected 4 remaining, got %d", resp.Usage.Remaining)
	}
	if resp.Usage.Limit != 5 {
		t.Errorf("Expected limit 5, got %d", resp.Usage.Limit)
	}

	// The stored artifact is downloadable.
	id := strings.TrimPrefix(resp.Result.DownloadURL, "/download/")
	dlReq := httptest.NewRequest(http.MethodGet, resp.Result.DownloadURL, nil)
	dlReq.SetPathValue("id", id)
	dlRec := httptest.NewRecorder()
	NewDownloadHandler(store, nil).ServeHTTP(dlRec, dlReq)

	if dlRec.Code != http.StatusOK {
		t.Fatalf("Expected 200 download, got %d", dlRec.Code)
	}
	if dlRec.Body.String() != "converted" {
		t.Errorf("Unexpected download body %q", dlRec.Body.String())
	}
	if !strings.Contains(dlRec.Header().Get("Content-Disposition"), "result.pdf") {
		t.Errorf("Unexpected disposition %q", dlRec.Header().Get("Content-Disposition"))
	}
}

func TestProcessHandler_UnknownToolAccepted(t *testing.T) {
	handler := newHandler(t, 5, newHandlerStore(t, 30*time.Minute))

	req := multipartRequest(t, "/api/tools/merge-pdf/process", nil,
		map[string][]byte{"doc.pdf": []byte("pdf")})
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusAccepted {
		t.Fatalf("Expected 202 for unknown tool, got %d", rec.Code)
	}
	var resp ProcessResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("Failed to parse response: %v", err)
	}
	if resp.Success {
		t.Error("Expected success false for unsupported tool")
	}
	if !strings.Contains(resp.Message, "merge-pdf") {
		t.Errorf("Expected tool name in message, got %q", resp.Message)
	}
}

func TestProcessHandler_QuotaExceeded(t *testing.T) {
	store := newHandlerStore(t, 30*time.Minute)
	handler := newHandler(t, 1, store, &echoCapability{id: "compress-pdf"})

	for i := 0; i < 2; i++ {
		req := multipartRequest(t, "/api/tools/compress-pdf/process", nil,
			map[string][]byte{"doc.pdf": []byte("pdf")})
		req.Header.Set("X-Forwarded-For", "203.0.113.9")
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)

		if i == 0 && rec.Code != http.StatusOK {
			t.Fatalf("Expected first request to pass, got %d", rec.Code)
		}
		if i == 1 {
			if rec.Code != http.StatusTooManyRequests {
				t.Fatalf("Expected 429, got %d", rec.Code)
			}
			var resp ErrorResponse
			if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
				t.Fatalf("Failed to parse response: %v", err)
			}
			if resp.Remaining == nil || *resp.Remaining != 0 {
				t.Errorf("Expected remaining 0, got %v", resp.Remaining)
			}
		}
	}
}

func TestProcessHandler_NoFilesRejected(t *testing.T) {
	handler := newHandler(t, 5, newHandlerStore(t, 30*time.Minute), &echoCapability{id: "compress-pdf"})

	req := multipartRequest(t, "/api/tools/compress-pdf/process", nil, nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("Expected 400 without files, got %d", rec.Code)
	}
}

func TestProcessHandler_JSONSourceURL(t *testing.T) {
	cap := &echoCapability{id: "youtube-download"}
	handler := newHandler(t, 5, newHandlerStore(t, 30*time.Minute), cap)

	body := `{"tool":"youtube-download","url":"https://youtube.com/watch?v=x"}`
	req := httptest.NewRequest(http.MethodPost, "/api/tools/youtube-download/process", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	req.SetPathValue("tool", "youtube-download")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	if cap.gotURL != "https://youtube.com/watch?v=x" {
		t.Errorf("Capability saw URL %q", cap.gotURL)
	}

	var resp ProcessResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("Failed to parse response: %v", err)
	}
	if string(resp.Result.Payload) != `{"resolved":true}` {
		t.Errorf("Unexpected payload %s", resp.Result.Payload)
	}
}

func TestProcessHandler_AngleFoldedIntoOptions(t *testing.T) {
	cap := &echoCapability{id: "rotate-pdf"}
	handler := newHandler(t, 5, newHandlerStore(t, 30*time.Minute), cap)

	req := multipartRequest(t, "/api/tools/rotate-pdf/process",
		map[string]string{"angle": "180"},
		map[string][]byte{"doc.pdf": []byte("pdf")})
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d", rec.Code)
	}
	if cap.gotOpts["angle"] != "180" {
		t.Errorf("Expected angle option 180, got %q", cap.gotOpts["angle"])
	}
}

func TestProcessHandler_ToolFieldOverridesPath(t *testing.T) {
	cap := &echoCapability{id: "pdf-to-word"}
	handler := newHandler(t, 5, newHandlerStore(t, 30*time.Minute), cap)

	req := multipartRequest(t, "/api/tools/compress-pdf/process",
		map[string]string{"tool": "pdf-to-word"},
		map[string][]byte{"doc.pdf": []byte("pdf")})
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("Expected override to resolve, got %d: %s", rec.Code, rec.Body.String())
	}
}

func TestProcessHandler_InvalidInputFailure(t *testing.T) {
	handler := newHandler(t, 5, newHandlerStore(t, 30*time.Minute),
		&rejectingCapability{id: "rotate-pdf", class: capability.FailureInvalidInput})

	req := multipartRequest(t, "/api/tools/rotate-pdf/process", nil,
		map[string][]byte{"doc.pdf": []byte("pdf")})
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("Expected 400 for invalid input, got %d", rec.Code)
	}
}

func TestProcessHandler_UpstreamFailure(t *testing.T) {
	handler := newHandler(t, 5, newHandlerStore(t, 30*time.Minute),
		&rejectingCapability{id: "pdf-to-word", class: capability.FailureUpstream})

	req := multipartRequest(t, "/api/tools/pdf-to-word/process", nil,
		map[string][]byte{"doc.pdf": []byte("pdf")})
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("Expected 500 for upstream failure, got %d", rec.Code)
	}
	var resp ErrorResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("Failed to parse response: %v", err)
	}
	if resp.Error != "rejected" {
		t.Errorf("Expected failure detail, got %q", resp.Error)
	}
}

func TestProcessHandler_DirectStreamWhenStoreDown(t *testing.T) {
	store := newHandlerStore(t, 30*time.Minute)
	handler := newHandler(t, 5, store, &echoCapability{id: "compress-pdf"})

	// A closed store cannot accept artifacts; the result streams back
	// directly instead of failing.
	store.Close()

	req := multipartRequest(t, "/api/tools/compress-pdf/process", nil,
		map[string][]byte{"doc.pdf": []byte("pdf")})
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("Expected 200 direct stream, got %d", rec.Code)
	}
	if rec.Body.String() != "converted" {
		t.Errorf("Unexpected body %q", rec.Body.String())
	}
	if !strings.Contains(rec.Header().Get("Content-Disposition"), "result.pdf") {
		t.Errorf("Expected attachment disposition, got %q", rec.Header().Get("Content-Disposition"))
	}
	if rec.Header().Get("X-Usage-Remaining") != "4" {
		t.Errorf("Expected remaining header 4, got %q", rec.Header().Get("X-Usage-Remaining"))
	}
}

func TestProcessHandler_UploadTooLarge(t *testing.T) {
	store := newHandlerStore(t, 30*time.Minute)
	reg := registry.New()
	if err := reg.Register(&echoCapability{id: "compress-pdf"}); err != nil {
		t.Fatalf("Register failed: %v", err)
	}
	usage := ledger.New(storage.NewMemoryBackend(), nil, 5)
	p := pipeline.New(usage, reg, capability.NewExecutor(capability.ExecutorConfig{}), store, nil)
	handler := NewProcessHandler(p, 5, 64)

	req := multipartRequest(t, "/api/tools/compress-pdf/process", nil,
		map[string][]byte{"doc.pdf": bytes.Repeat([]byte("x"), 4096)})
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusRequestEntityTooLarge {
		t.Fatalf("Expected 413, got %d", rec.Code)
	}
}

// unwritableBackend reads normally but cannot persist increments.
type unwritableBackend struct {
	storage.Backend
}

func (b *unwritableBackend) Increment(ctx context.Context, key string) (*storage.UsageRecord, error) {
	return nil, errors.New("read-only filesystem")
}

func TestProcessHandler_ChargeFailureIsServerError(t *testing.T) {
	store := newHandlerStore(t, 30*time.Minute)
	reg := registry.New()
	if err := reg.Register(&echoCapability{id: "compress-pdf"}); err != nil {
		t.Fatalf("Register failed: %v", err)
	}
	usage := ledger.New(&unwritableBackend{Backend: storage.NewMemoryBackend()}, nil, 5)
	p := pipeline.New(usage, reg, capability.NewExecutor(capability.ExecutorConfig{}), store, nil)
	handler := NewProcessHandler(p, 5, 10<<20)

	req := multipartRequest(t, "/api/tools/compress-pdf/process", nil,
		map[string][]byte{"doc.pdf": []byte("pdf-bytes")})
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("Expected 500 when the charge cannot be persisted, got %d: %s", rec.Code, rec.Body.String())
	}
	var resp ErrorResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("Failed to decode response: %v", err)
	}
	if resp.Success {
		t.Error("Expected success=false envelope")
	}
}
