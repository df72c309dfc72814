package handler

import (
	"context"
	"net/http"

	"github.com/YannKr/overmark/internal/watermark"
)

type apiCommand struct {
	Command string `json:"command"`
	Family  string `json:"family"`
	Marker  string `json:"marker"`
	Source  string `json:"source"`
	Dest    string `json:"dest"`
}

// APICommandPreview - POST /api/v1/commands
//
// Builds the command for a request without running it.
func (h *Handler) APICommandPreview(w http.ResponseWriter, r *http.Request) {
	req, ok := h.decodeRequest(w, r)
	if !ok {
		return
	}
	cmd, err := h.buildCommand(r.Context(), req)
	if err != nil {
		renderWatermarkError(w, err)
		return
	}
	renderJSON(w, http.StatusOK, cmd)
}

// buildCommand opens a session for req and returns the command it would
// run. Errors are the session's own, suitable for renderWatermarkError.
func (h *Handler) buildCommand(ctx context.Context, req watermark.Request) (apiCommand, error) {
	session, err := req.Open(ctx, h.Open)
	if err != nil {
		return apiCommand{}, err
	}
	command, err := session.Command(req.Output)
	if err != nil {
		return apiCommand{}, err
	}
	dest := req.Output
	if dest == "" {
		dest = session.Source()
	}
	return apiCommand{
		Command: command,
		Family:  session.Family().String(),
		Marker:  req.Kind(),
		Source:  session.Source(),
		Dest:    dest,
	}, nil
}
