package handlers

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"time"
)

// ResultPayload describes a delivered processing result. Stored results
// carry a download handle; structured results carry the payload inline.
type ResultPayload struct {
	DownloadURL string          `json:"downloadUrl,omitempty"`
	Filename    string          `json:"filename,omitempty"`
	SizeBytes   int64           `json:"sizeBytes,omitempty"`
	ExpiresAt   *time.Time      `json:"expiresAt,omitempty"`
	Payload     json.RawMessage `json:"payload,omitempty"`
}

// UsageInfo reports the client's remaining free allowance.
type UsageInfo struct {
	Remaining int  `json:"remaining"`
	Limit     int  `json:"limit"`
	Unlimited bool `json:"unlimited"`
}

// ProcessResponse is the JSON envelope for processing requests.
type ProcessResponse struct {
	Success bool           `json:"success"`
	Message string         `json:"message"`
	Result  *ResultPayload `json:"result,omitempty"`
	Usage   *UsageInfo     `json:"usage,omitempty"`
}

// ErrorResponse is the JSON envelope for rejected or failed requests.
type ErrorResponse struct {
	Success   bool   `json:"success"`
	Message   string `json:"message"`
	Error     string `json:"error,omitempty"`
	Remaining *int   `json:"remaining,omitempty"`
}

// writeJSON writes v as the JSON response body with the given status.
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Default().Warn("failed to encode response", "error", err)
	}
}

// writeError writes an ErrorResponse with the given status and message.
func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, ErrorResponse{Success: false, Message: message})
}
