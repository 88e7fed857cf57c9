package api

import (
	"context"
	"net/http"
	"strings"

	"github.com/okian/gridcast/internal/domain/types"
)

// RunDependencies defines the archive read operations.
type RunDependencies interface {
	Runs(ctx context.Context, limit int) ([]types.Run, error)
	Run(ctx context.Context, id string) (types.Run, error)
}

// RunsHandler serves archived runs.
type RunsHandler struct {
	deps     RunDependencies
	maxLimit int
}

// NewRunsHandler creates a new runs handler.
func NewRunsHandler(deps RunDependencies, maxLimit int) *RunsHandler {
	return &RunsHandler{deps: deps, maxLimit: maxLimit}
}

// HandleList handles GET /runs?limit=.
func (h *RunsHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.NotFound(w, r)
		return
	}
	limit, err := queryInt(r, "limit", 0)
	if err != nil {
		writeErr(w, err)
		return
	}
	if limit > h.maxLimit {
		limit = h.maxLimit
	}
	runs, err := h.deps.Runs(r.Context(), limit)
	if err != nil {
		writeErr(w, Wrap("list runs", err))
		return
	}
	if runs == nil {
		runs = []types.Run{}
	}
	writeJSON(w, http.StatusOK, runs)
}

// HandleRun handles GET /runs/{id}.
func (h *RunsHandler) HandleRun(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.NotFound(w, r)
		return
	}
	id := strings.TrimPrefix(r.URL.Path, "/runs/")
	if id == "" || strings.Contains(id, "/") {
		writeErr(w, NewKind("run id", ErrBadRequest))
		return
	}
	run, err := h.deps.Run(r.Context(), id)
	if err != nil {
		writeErr(w, Wrap("run", err))
		return
	}
	writeJSON(w, http.StatusOK, run)
}
