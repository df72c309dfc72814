package handler

import (
	"fmt"
	"net/http"

	"github.com/YannKr/overmark/internal/watermark"
)

type apiPosition struct {
	Name   string `json:"name"`
	Anchor string `json:"anchor"`
}

// APIPositions - GET /api/v1/positions
func (h *Handler) APIPositions(w http.ResponseWriter, r *http.Request) {
	positions := watermark.Positions()
	out := make([]apiPosition, 0, len(positions))
	for _, p := range positions {
		out = append(out, apiPosition{Name: string(p), Anchor: p.Anchor()})
	}
	renderJSON(w, http.StatusOK, map[string]any{"positions": out})
}

type apiHealth struct {
	Status      string   `json:"status"`
	DiskFreePct *float64 `json:"disk_free_pct,omitempty"`
}

// Healthz - GET /healthz
//
// Reports 503 when the database is unreachable, the image tool is
// missing or the data volume is nearly full.
func (h *Handler) Healthz(w http.ResponseWriter, r *http.Request) {
	if err := h.DB.PingContext(r.Context()); err != nil {
		renderJSONError(w, http.StatusServiceUnavailable, "DB_UNAVAILABLE", err.Error())
		return
	}
	if h.Tool != nil {
		if err := h.Tool.Check(r.Context()); err != nil {
			renderJSONError(w, http.StatusServiceUnavailable, "TOOL_UNAVAILABLE", err.Error())
			return
		}
	}
	health := apiHealth{Status: "ok"}
	if disk := h.diskStats(); !disk.CapturedAt.IsZero() {
		pct := disk.PctFree()
		health.DiskFreePct = &pct
		if disk.Low(h.Cfg.DiskMinFreePct) {
			renderJSONError(w, http.StatusServiceUnavailable, "DISK_FULL", fmt.Sprintf("%.1f%% free on data volume", pct))
			return
		}
	}
	renderJSON(w, http.StatusOK, health)
}
