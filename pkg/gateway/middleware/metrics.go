package middleware

import (
	"net/http"
	"time"

	"fileworks-hq/vulcan/pkg/telemetry/metrics"
)

// MetricsMiddleware records request counts, durations, and upload sizes.
// The route pattern is used as the path label so per-artifact download URLs
// do not explode label cardinality.
func MetricsMiddleware(rm *metrics.RequestMetrics) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()

			rw := &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}
			next.ServeHTTP(rw, r)

			path := r.Pattern
			if path == "" {
				path = r.URL.Path
			}
			rm.RecordRequest(r.Method, path, rw.statusCode, time.Since(start))
			if r.Method == http.MethodPost && r.ContentLength > 0 {
				rm.RecordUploadSize(path, r.ContentLength)
			}
		})
	}
}
