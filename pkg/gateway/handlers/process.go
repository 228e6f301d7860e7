package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"mime"
	"net/http"
	"strings"

	"fileworks-hq/vulcan/pkg/capability"
	"fileworks-hq/vulcan/pkg/identity"
	"fileworks-hq/vulcan/pkg/pipeline"
)

// multipartMemoryLimit is how much of a parsed form is held in memory
// before spilling to temp files.
const multipartMemoryLimit = 32 << 20

// ProcessHandler admits tool processing requests. It accepts multipart
// uploads for file-driven tools and JSON bodies for URL-driven tools.
type ProcessHandler struct {
	pipeline  *pipeline.Pipeline
	freeLimit int
	maxUpload int64
	logger    *slog.Logger
}

// NewProcessHandler creates the processing handler.
func NewProcessHandler(p *pipeline.Pipeline, freeLimit int, maxUpload int64) *ProcessHandler {
	return &ProcessHandler{
		pipeline:  p,
		freeLimit: freeLimit,
		maxUpload: maxUpload,
		logger:    slog.Default().With("component", "process_handler"),
	}
}

// jsonRequest is the body of a URL-driven processing request.
type jsonRequest struct {
	Tool    string            `json:"tool"`
	URL     string            `json:"url"`
	Options map[string]string `json:"options"`
}

// ServeHTTP implements http.Handler.
func (h *ProcessHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	tool := r.PathValue("tool")

	in, override, ok := h.parseRequest(w, r)
	if !ok {
		return
	}
	if override != "" {
		tool = override
	}
	if tool == "" {
		writeError(w, http.StatusBadRequest, "no tool specified")
		return
	}
	if len(in.Files) == 0 && in.SourceURL == "" {
		writeError(w, http.StatusBadRequest, "no files uploaded and no source url given")
		return
	}

	id := identity.FromRequest(r)
	result, err := h.pipeline.Process(r.Context(), id, tool, in)
	if err != nil {
		h.writeProcessError(w, tool, err)
		return
	}

	outcome := result.Outcome
	if !outcome.Succeeded() {
		h.writeFailure(w, tool, outcome)
		return
	}

	usage := &UsageInfo{
		Remaining: result.Remaining,
		Limit:     h.freeLimit,
		Unlimited: result.Premium,
	}

	switch outcome.Kind {
	case capability.OutcomeStructured:
		writeJSON(w, http.StatusOK, ProcessResponse{
			Success: true,
			Message: "processing complete",
			Result:  &ResultPayload{Payload: outcome.Document},
			Usage:   usage,
		})

	case capability.OutcomeInline:
		if result.Artifact == nil {
			// Store degraded, hand the bytes straight back.
			h.streamDirect(w, outcome, usage)
			return
		}
		expires := result.Artifact.ExpiresAt
		writeJSON(w, http.StatusOK, ProcessResponse{
			Success: true,
			Message: "processing complete",
			Result: &ResultPayload{
				DownloadURL: "/download/" + result.Artifact.ID,
				Filename:    result.Artifact.Filename,
				SizeBytes:   result.Artifact.Size,
				ExpiresAt:   &expires,
			},
			Usage: usage,
		})

	default:
		h.logger.Error("capability produced unknown outcome kind", "tool", tool, "kind", outcome.Kind)
		writeError(w, http.StatusInternalServerError, "internal server error")
	}
}

// parseRequest extracts the capability input and optional tool override
// from the request body. On failure it writes the error response itself
// and returns ok false.
func (h *ProcessHandler) parseRequest(w http.ResponseWriter, r *http.Request) (*capability.Input, string, bool) {
	r.Body = http.MaxBytesReader(w, r.Body, h.maxUpload)

	contentType := r.Header.Get("Content-Type")
	mediaType, _, err := mime.ParseMediaType(contentType)
	if err != nil {
		writeError(w, http.StatusBadRequest, "malformed content type")
		return nil, "", false
	}

	switch {
	case mediaType == "multipart/form-data":
		return h.parseMultipart(w, r)
	case mediaType == "application/json":
		return h.parseJSON(w, r)
	default:
		writeError(w, http.StatusBadRequest, fmt.Sprintf("unsupported content type %q", mediaType))
		return nil, "", false
	}
}

// parseMultipart handles file uploads. The optional tool field overrides
// the path segment, the options field carries a JSON object, and a bare
// angle field is folded into the options for rotation.
func (h *ProcessHandler) parseMultipart(w http.ResponseWriter, r *http.Request) (*capability.Input, string, bool) {
	if err := r.ParseMultipartForm(multipartMemoryLimit); err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			writeError(w, http.StatusRequestEntityTooLarge,
				fmt.Sprintf("upload exceeds the %d byte limit", maxErr.Limit))
			return nil, "", false
		}
		writeError(w, http.StatusBadRequest, "malformed multipart body")
		return nil, "", false
	}

	in := &capability.Input{Options: map[string]string{}}

	for _, key := range []string{"files", "files[]", "file"} {
		for _, header := range r.MultipartForm.File[key] {
			f, err := header.Open()
			if err != nil {
				writeError(w, http.StatusBadRequest, "unreadable file part")
				return nil, "", false
			}
			data, err := io.ReadAll(f)
			f.Close()
			if err != nil {
				writeError(w, http.StatusBadRequest, "unreadable file part")
				return nil, "", false
			}
			in.Files = append(in.Files, capability.File{
				Name:        header.Filename,
				ContentType: header.Header.Get("Content-Type"),
				Data:        data,
			})
		}
	}

	if raw := r.FormValue("options"); raw != "" {
		if err := json.Unmarshal([]byte(raw), &in.Options); err != nil {
			writeError(w, http.StatusBadRequest, "options field is not a JSON object")
			return nil, "", false
		}
	}
	if angle := r.FormValue("angle"); angle != "" {
		in.Options["angle"] = angle
	}
	if u := strings.TrimSpace(r.FormValue("url")); u != "" {
		in.SourceURL = u
	}

	return in, r.FormValue("tool"), true
}

// parseJSON handles URL-driven requests.
func (h *ProcessHandler) parseJSON(w http.ResponseWriter, r *http.Request) (*capability.Input, string, bool) {
	var body jsonRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, "malformed JSON body")
		return nil, "", false
	}

	in := &capability.Input{
		SourceURL: strings.TrimSpace(body.URL),
		Options:   body.Options,
	}
	if in.Options == nil {
		in.Options = map[string]string{}
	}
	return in, body.Tool, true
}

// writeProcessError maps pipeline admission errors to their responses.
func (h *ProcessHandler) writeProcessError(w http.ResponseWriter, tool string, err error) {
	var quota *pipeline.QuotaExceededError
	switch {
	case errors.As(err, &quota):
		zero := 0
		writeJSON(w, http.StatusTooManyRequests, ErrorResponse{
			Success:   false,
			Message:   fmt.Sprintf("free usage limit of %d operations reached", quota.Limit),
			Remaining: &zero,
		})

	case pipeline.IsNotFound(err):
		writeJSON(w, http.StatusAccepted, ProcessResponse{
			Success: false,
			Message: fmt.Sprintf("tool %q is not supported yet", tool),
		})

	default:
		h.logger.Error("processing request failed", "tool", tool, "error", err)
		writeError(w, http.StatusInternalServerError, "internal server error")
	}
}

// writeFailure maps a failed capability outcome to a response. Input
// problems are the client's fault, everything else is a server error.
func (h *ProcessHandler) writeFailure(w http.ResponseWriter, tool string, outcome *capability.Outcome) {
	status := http.StatusInternalServerError
	detail := ""
	if outcome.Failure != nil {
		detail = outcome.Failure.Message
		if outcome.Failure.Class == capability.FailureInvalidInput {
			status = http.StatusBadRequest
		}
	}

	h.logger.Warn("tool processing failed", "tool", tool, "status", status, "detail", detail)
	writeJSON(w, status, ErrorResponse{
		Success: false,
		Message: "processing failed",
		Error:   detail,
	})
}

// streamDirect writes the produced bytes as an attachment when the
// artifact store could not hold them.
func (h *ProcessHandler) streamDirect(w http.ResponseWriter, outcome *capability.Outcome, usage *UsageInfo) {
	file := outcome.File

	w.Header().Set("Content-Type", file.ContentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", file.Filename))
	w.Header().Set("X-Usage-Remaining", fmt.Sprintf("%d", usage.Remaining))
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(file.Data); err != nil {
		h.logger.Warn("failed to stream result", "filename", file.Filename, "error", err)
	}
}
