package convert

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"fileworks-hq/vulcan/pkg/capability"
)

// fakeService stubs the conversion API surface used by the client.
type fakeService struct {
	mux        *http.ServeMux
	server     *httptest.Server
	tokenCalls atomic.Int32
	uploads    atomic.Int32
	pollsUntil int32
	polls      atomic.Int32
	lastQuery  string
}

func newFakeService(t *testing.T) *fakeService {
	t.Helper()
	fs := &fakeService{mux: http.NewServeMux(), pollsUntil: 2}

	fs.mux.HandleFunc("POST /token", func(w http.ResponseWriter, r *http.Request) {
		fs.tokenCalls.Add(1)
		if err := r.ParseForm(); err != nil || r.Form.Get("grant_type") != "client_credentials" {
			http.Error(w, "bad grant", http.StatusBadRequest)
			return
		}
		json.NewEncoder(w).Encode(map[string]any{
			"access_token": "tok-123",
			"expires_in":   3600,
			"token_type":   "Bearer",
		})
	})

	fs.mux.HandleFunc("PUT /storage/file/", func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer tok-123" {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}
		fs.uploads.Add(1)
		w.WriteHeader(http.StatusCreated)
	})

	fs.mux.HandleFunc("GET /convert/", func(w http.ResponseWriter, r *http.Request) {
		fs.lastQuery = r.URL.RawQuery
		w.Write([]byte("converted-bytes"))
	})

	fs.mux.HandleFunc("POST /jobs/", func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]string{"id": "job-7", "status": "queued"})
	})

	fs.mux.HandleFunc("GET /jobs/job-7", func(w http.ResponseWriter, r *http.Request) {
		status := "processing"
		if fs.polls.Add(1) >= fs.pollsUntil {
			status = "done"
		}
		json.NewEncoder(w).Encode(map[string]string{"id": "job-7", "status": status})
	})

	fs.mux.HandleFunc("GET /jobs/job-7/result", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/zip")
		w.Write([]byte("zip-bytes"))
	})

	fs.server = httptest.NewServer(fs.mux)
	t.Cleanup(fs.server.Close)
	return fs
}

func (fs *fakeService) client(t *testing.T) *Client {
	t.Helper()
	client, err := NewClient(ClientConfig{
		BaseURL:      fs.server.URL,
		TokenURL:     fs.server.URL + "/token",
		ClientID:     "id",
		ClientSecret: "secret",
	})
	if err != nil {
		t.Fatalf("NewClient failed: %v", err)
	}
	return client
}

func TestToken_Cached(t *testing.T) {
	fs := newFakeService(t)
	client := fs.client(t)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		token, err := client.Token(ctx)
		if err != nil {
			t.Fatalf("Token failed: %v", err)
		}
		if token != "tok-123" {
			t.Errorf("Unexpected token %q", token)
		}
	}

	if calls := fs.tokenCalls.Load(); calls != 1 {
		t.Errorf("Expected 1 token call, got %d", calls)
	}
}

func TestConversion_Execute(t *testing.T) {
	fs := newFakeService(t)
	cap := NewPDFToWord(fs.client(t))

	in := &capability.Input{
		Files: []capability.File{{Name: "report.pdf", Data: []byte("pdf")}},
	}
	outcome, err := cap.Execute(context.Background(), in)
	if err != nil {
		t.Fatalf("Execute failed: %v", err)
	}
	if outcome.Kind != capability.OutcomeInline {
		t.Fatalf("Expected inline outcome, got %q", outcome.Kind)
	}
	if outcome.File.Filename != "report.docx" {
		t.Errorf("Expected report.docx, got %q", outcome.File.Filename)
	}
	if string(outcome.File.Data) != "converted-bytes" {
		t.Errorf("Unexpected converted data %q", outcome.File.Data)
	}
	if fs.uploads.Load() != 1 {
		t.Errorf("Expected 1 upload, got %d", fs.uploads.Load())
	}
}

func TestConversion_NoFile(t *testing.T) {
	fs := newFakeService(t)
	cap := NewCompressPDF(fs.client(t))

	_, err := cap.Execute(context.Background(), &capability.Input{})
	var failure *capability.Failure
	if !errors.As(err, &failure) {
		t.Fatalf("Expected Failure, got %v", err)
	}
	if failure.Class != capability.FailureInvalidInput {
		t.Errorf("Expected invalid_input class, got %q", failure.Class)
	}
}

func TestRotatePDF_AngleValidation(t *testing.T) {
	fs := newFakeService(t)
	cap := NewRotatePDF(fs.client(t))
	in := &capability.Input{
		Files: []capability.File{{Name: "doc.pdf", Data: []byte("pdf")}},
	}

	// Missing angle.
	_, err := cap.Execute(context.Background(), in)
	var failure *capability.Failure
	if !errors.As(err, &failure) || failure.Class != capability.FailureInvalidInput {
		t.Fatalf("Expected invalid_input for missing angle, got %v", err)
	}

	// Bad angle.
	in.Options = map[string]string{"angle": "45"}
	_, err = cap.Execute(context.Background(), in)
	if !errors.As(err, &failure) || failure.Class != capability.FailureInvalidInput {
		t.Fatalf("Expected invalid_input for bad angle, got %v", err)
	}

	// Valid angle reaches the service.
	in.Options = map[string]string{"angle": "180"}
	outcome, err := cap.Execute(context.Background(), in)
	if err != nil {
		t.Fatalf("Execute failed: %v", err)
	}
	if outcome.File.Filename != "doc.pdf" {
		t.Errorf("Expected doc.pdf, got %q", outcome.File.Filename)
	}
	if !strings.Contains(fs.lastQuery, "angle=180") {
		t.Errorf("Expected angle in query, got %q", fs.lastQuery)
	}
}

func TestPageRender_ThroughExecutor(t *testing.T) {
	fs := newFakeService(t)
	cap := NewPageRender(fs.client(t))

	executor := capability.NewExecutor(capability.ExecutorConfig{
		PollInterval:    time.Millisecond,
		PollDeadline:    time.Second,
		MaxPollAttempts: 50,
	})

	in := &capability.Input{
		Files: []capability.File{{Name: "report.pdf", Data: []byte("pdf")}},
	}
	outcome := executor.Run(context.Background(), cap, in)
	if !outcome.Succeeded() {
		t.Fatalf("Expected success, got %+v", outcome.Failure)
	}
	if outcome.File.Filename != "pages.zip" {
		t.Errorf("Expected pages.zip, got %q", outcome.File.Filename)
	}
	if string(outcome.File.Data) != "zip-bytes" {
		t.Errorf("Unexpected result data %q", outcome.File.Data)
	}
	if fs.polls.Load() < fs.pollsUntil {
		t.Errorf("Expected at least %d polls, got %d", fs.pollsUntil, fs.polls.Load())
	}
}

func TestOutputFilename(t *testing.T) {
	tests := []struct {
		in   string
		ext  string
		want string
	}{
		{"report.pdf", ".docx", "report.docx"},
		{"archive.tar.gz", ".pdf", "archive.tar.pdf"},
		{"", ".pdf", "output.pdf"},
		{"noext", ".xlsx", "noext.xlsx"},
	}
	for _, tt := range tests {
		if got := outputFilename(tt.in, tt.ext); got != tt.want {
			t.Errorf("outputFilename(%q, %q) = %q, want %q", tt.in, tt.ext, got, tt.want)
		}
	}
}
