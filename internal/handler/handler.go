package handler

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/YannKr/overmark/internal/config"
	"github.com/YannKr/overmark/internal/diskstat"
	"github.com/YannKr/overmark/internal/sse"
	"github.com/YannKr/overmark/internal/watermark"
)

// DiskStats reports free space on the data volume.
type DiskStats interface {
	Get() diskstat.Stats
}

type Handler struct {
	DB   *sql.DB
	Cfg  *config.Config
	SSE  *sse.Hub
	Open watermark.SessionFactory
	Tool watermark.ToolChecker
	Disk DiskStats
}

func New(database *sql.DB, cfg *config.Config, sseHub *sse.Hub, open watermark.SessionFactory, tool watermark.ToolChecker) *Handler {
	return &Handler{
		DB:   database,
		Cfg:  cfg,
		SSE:  sseHub,
		Open: open,
		Tool: tool,
	}
}

func (h *Handler) diskStats() diskstat.Stats {
	if h.Disk == nil {
		return diskstat.Stats{}
	}
	return h.Disk.Get()
}

func renderJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("encode json response", "error", err)
	}
}

type apiError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func renderJSONError(w http.ResponseWriter, status int, code, message string) {
	renderJSON(w, status, map[string]apiError{"error": {Code: code, Message: message}})
}

// renderWatermarkError maps session and option errors to a status code.
func renderWatermarkError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, watermark.ErrConfiguration),
		errors.Is(err, watermark.ErrNoMarkerSet):
		renderJSONError(w, http.StatusBadRequest, "INVALID_REQUEST", err.Error())
	case errors.Is(err, watermark.ErrSourceNotFound),
		errors.Is(err, watermark.ErrMarkerNotFound):
		renderJSONError(w, http.StatusNotFound, "NOT_FOUND", err.Error())
	case errors.Is(err, watermark.ErrUnsupportedSource):
		renderJSONError(w, http.StatusUnsupportedMediaType, "UNSUPPORTED_SOURCE", err.Error())
	case errors.Is(err, watermark.ErrDestinationNotWritable):
		renderJSONError(w, http.StatusUnprocessableEntity, "NOT_WRITABLE", err.Error())
	case errors.Is(err, watermark.ErrToolNotAvailable):
		renderJSONError(w, http.StatusServiceUnavailable, "TOOL_UNAVAILABLE", err.Error())
	default:
		slog.Error("watermark request", "error", err)
		renderJSONError(w, http.StatusInternalServerError, "INTERNAL_ERROR", "internal error")
	}
}

// decodeRequest reads a watermark request body and checks its paths
// against the configured root.
func (h *Handler) decodeRequest(w http.ResponseWriter, r *http.Request) (watermark.Request, bool) {
	var req watermark.Request
	body := http.MaxBytesReader(w, r.Body, h.Cfg.MaxRequestBytes)
	dec := json.NewDecoder(body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(&req); err != nil {
		renderJSONError(w, http.StatusBadRequest, "BAD_REQUEST", "invalid JSON body")
		return req, false
	}
	if req.Source == "" {
		renderJSONError(w, http.StatusBadRequest, "BAD_REQUEST", "source is required")
		return req, false
	}
	if err := h.checkPaths(req); err != nil {
		renderJSONError(w, http.StatusForbidden, "FORBIDDEN_PATH", err.Error())
		return req, false
	}
	return req, true
}

func (h *Handler) checkPaths(req watermark.Request) error {
	if h.Cfg.AllowedRoot == "" {
		return nil
	}
	root, _ := resolve(h.Cfg.AllowedRoot)
	for _, p := range []string{req.Source, req.Output, req.Image} {
		if p == "" {
			continue
		}
		real, ok := resolve(p)
		if !ok || !within(root, real) {
			return fmt.Errorf("path %s is outside %s", p, h.Cfg.AllowedRoot)
		}
	}
	return nil
}

// resolve follows symlinks through the longest existing prefix of path and
// appends the missing tail unchanged, so outputs that do not exist yet are
// still anchored to their real parent. ok is false for a dangling symlink.
func resolve(path string) (string, bool) {
	path = filepath.Clean(path)
	var tail []string
	for cur := path; ; {
		real, err := filepath.EvalSymlinks(cur)
		if err == nil {
			return filepath.Join(append([]string{real}, tail...)...), true
		}
		if fi, lerr := os.Lstat(cur); lerr == nil && fi.Mode()&os.ModeSymlink != 0 {
			return "", false
		}
		parent := filepath.Dir(cur)
		if parent == cur {
			return path, true
		}
		tail = append([]string{filepath.Base(cur)}, tail...)
		cur = parent
	}
}

func within(root, path string) bool {
	if !filepath.IsAbs(path) {
		return false
	}
	rel, err := filepath.Rel(filepath.Clean(root), filepath.Clean(path))
	if err != nil {
		return false
	}
	return rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator))
}
