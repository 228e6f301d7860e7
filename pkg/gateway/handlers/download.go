package handlers

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strconv"

	"fileworks-hq/vulcan/pkg/artifact"
	"fileworks-hq/vulcan/pkg/telemetry/metrics"
)

// DownloadHandler serves stored artifacts by id. Expired handles return
// the same 404 status as unknown ones but a message telling the client
// to re-run the tool.
type DownloadHandler struct {
	store   *artifact.Store
	metrics *metrics.ArtifactMetrics
	logger  *slog.Logger
}

// NewDownloadHandler creates the download handler. The metrics group may
// be nil in tests.
func NewDownloadHandler(store *artifact.Store, am *metrics.ArtifactMetrics) *DownloadHandler {
	return &DownloadHandler{
		store:   store,
		metrics: am,
		logger:  slog.Default().With("component", "download_handler"),
	}
}

// ServeHTTP implements http.Handler.
func (h *DownloadHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")

	meta, reader, err := h.store.Open(r.Context(), id)
	if err != nil {
		h.writeOpenError(w, id, err)
		return
	}
	defer reader.Close()

	w.Header().Set("Content-Type", meta.ContentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", meta.Filename))
	w.Header().Set("Content-Length", strconv.FormatInt(meta.Size, 10))
	w.WriteHeader(http.StatusOK)

	if _, err := io.Copy(w, reader); err != nil {
		h.logger.Warn("download interrupted", "id", id, "error", err)
		h.record("error")
		return
	}
	h.record("ok")
}

// writeOpenError maps store errors to download responses.
func (h *DownloadHandler) writeOpenError(w http.ResponseWriter, id string, err error) {
	var expired *artifact.ExpiredError
	switch {
	case errors.As(err, &expired):
		h.record("expired")
		writeError(w, http.StatusNotFound, "download link expired, re-run the tool to get a fresh one")

	case errors.Is(err, artifact.ErrNotFound):
		h.record("not_found")
		writeError(w, http.StatusNotFound, "file not found")

	default:
		h.logger.Error("failed to open artifact", "id", id, "error", err)
		h.record("error")
		writeError(w, http.StatusInternalServerError, "internal server error")
	}
}

func (h *DownloadHandler) record(result string) {
	if h.metrics != nil {
		h.metrics.RecordDownload(result)
	}
}
