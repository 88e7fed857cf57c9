package api

import (
	"context"
	"net/http"

	"github.com/okian/gridcast/internal/domain/types"
)

// BaselineDependencies defines the baseline read operations.
type BaselineDependencies interface {
	Baselines(ctx context.Context, format string) (types.BaselineReport, error)
	History(ctx context.Context, format string) (types.HistoryReport, error)
}

// BaselinesHandler serves positional baseline tables.
type BaselinesHandler struct {
	deps BaselineDependencies
}

// NewBaselinesHandler creates a new baselines handler.
func NewBaselinesHandler(deps BaselineDependencies) *BaselinesHandler {
	return &BaselinesHandler{deps: deps}
}

// HandleBaselines handles GET /baselines?format=.
func (h *BaselinesHandler) HandleBaselines(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.NotFound(w, r)
		return
	}
	report, err := h.deps.Baselines(r.Context(), r.URL.Query().Get("format"))
	if err != nil {
		writeErr(w, Wrap("baselines", err))
		return
	}
	writeJSON(w, http.StatusOK, report)
}

// HandleHistory handles GET /baselines/history?format=.
func (h *BaselinesHandler) HandleHistory(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.NotFound(w, r)
		return
	}
	report, err := h.deps.History(r.Context(), r.URL.Query().Get("format"))
	if err != nil {
		writeErr(w, Wrap("baseline history", err))
		return
	}
	writeJSON(w, http.StatusOK, report)
}
