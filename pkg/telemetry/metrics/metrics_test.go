package metrics

import (
	"net/http/httptest"
	"strings"
	"testing"
	"time"
)

func TestCollector_RecordsAndExposes(t *testing.T) {
	collector := NewCollector(Config{Namespace: "vulcan"})

	collector.Request.RecordRequest("POST", "/api/tools/{tool}/process", 200, 120*time.Millisecond)
	collector.Request.RecordUploadSize("/api/tools/{tool}/process", 4096)
	collector.Pipeline.RecordOutcome("compress-pdf", "inline", false, 300*time.Millisecond)
	collector.Pipeline.RecordQuotaDecision("allowed")
	collector.Pipeline.RecordQuotaCharge("ok")
	collector.Artifacts.RecordStored(4096)
	collector.Artifacts.RecordReclaimed(2)
	collector.Artifacts.RecordDownload("ok")

	rec := httptest.NewRecorder()
	req := httptest.NewRequest("GET", "/metrics", nil)
	collector.Handler().ServeHTTP(rec, req)

	if rec.Code != 200 {
		t.Fatalf("Expected 200 from scrape, got %d", rec.Code)
	}

	body := rec.Body.String()
	for _, metric := range []string{
		"vulcan_http_requests_total",
		"vulcan_http_request_duration_seconds",
		"vulcan_pipeline_outcomes_total",
		"vulcan_quota_decisions_total",
		"vulcan_quota_charges_total",
		"vulcan_artifacts_stored_total",
		"vulcan_artifacts_reclaimed_total",
		"vulcan_artifacts_downloads_total",
	} {
		if !strings.Contains(body, metric) {
			t.Errorf("Expected scrape output to contain %q", metric)
		}
	}
}

func TestCollector_DefaultNamespace(t *testing.T) {
	collector := NewCollector(Config{})
	collector.Pipeline.RecordQuotaDecision("denied")

	rec := httptest.NewRecorder()
	collector.Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))

	if !strings.Contains(rec.Body.String(), "vulcan_quota_decisions_total") {
		t.Error("Expected default vulcan namespace")
	}
}
