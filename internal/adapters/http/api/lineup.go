package api

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/okian/gridcast/internal/domain/types"
)

// maxLineupBody bounds the POST /lineup payload.
const maxLineupBody = 1 << 16

// LineupDependencies defines the lineup optimizer.
type LineupDependencies interface {
	Lineup(ctx context.Context, req types.LineupRequest) (types.Lineup, error)
}

// LineupHandler picks starters for a posted roster.
type LineupHandler struct {
	deps LineupDependencies
}

// NewLineupHandler creates a new lineup handler.
func NewLineupHandler(deps LineupDependencies) *LineupHandler {
	return &LineupHandler{deps: deps}
}

// HandleLineup handles POST /lineup.
func (h *LineupHandler) HandleLineup(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.NotFound(w, r)
		return
	}

	var req types.LineupRequest
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxLineupBody))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&req); err != nil {
		writeErr(w, WrapKind("decode body", ErrBadRequest, err))
		return
	}
	if req.Week < 0 {
		writeErr(w, NewKind("validate week", ErrBadRequest))
		return
	}

	l, err := h.deps.Lineup(r.Context(), req)
	if err != nil {
		writeErr(w, Wrap("lineup", err))
		return
	}
	writeJSON(w, http.StatusOK, l)
}
