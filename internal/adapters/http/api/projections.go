package api

import (
	"context"
	"net/http"
	"net/url"
	"strings"

	"github.com/okian/gridcast/internal/domain/types"
)

// ProjectionDependencies defines the projection read operations.
type ProjectionDependencies interface {
	Projections(ctx context.Context, format, position string, week, limit int) (types.ProjectionList, error)
	Player(ctx context.Context, format string, week int, name string) (types.Projection, error)
}

// ProjectionsHandler serves projection lists and single-player lookups.
type ProjectionsHandler struct {
	deps     ProjectionDependencies
	maxLimit int
}

// NewProjectionsHandler creates a new projections handler.
func NewProjectionsHandler(deps ProjectionDependencies, maxLimit int) *ProjectionsHandler {
	return &ProjectionsHandler{deps: deps, maxLimit: maxLimit}
}

// HandleList handles GET /projections?format=&position=&week=&limit=.
func (h *ProjectionsHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.NotFound(w, r)
		return
	}
	week, err := queryInt(r, "week", 0)
	if err != nil {
		writeErr(w, err)
		return
	}
	limit, err := queryInt(r, "limit", 0)
	if err != nil {
		writeErr(w, err)
		return
	}
	if limit == 0 || limit > h.maxLimit {
		limit = h.maxLimit
	}

	q := r.URL.Query()
	list, err := h.deps.Projections(r.Context(), q.Get("format"), q.Get("position"), week, limit)
	if err != nil {
		writeErr(w, Wrap("list projections", err))
		return
	}
	writeJSON(w, http.StatusOK, list)
}

// HandlePlayer handles GET /projections/{name}?format=&week=.
func (h *ProjectionsHandler) HandlePlayer(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.NotFound(w, r)
		return
	}
	raw := strings.TrimPrefix(r.URL.EscapedPath(), "/projections/")
	name, err := url.PathUnescape(raw)
	if err != nil || strings.TrimSpace(name) == "" || strings.Contains(name, "/") {
		writeErr(w, NewKind("player name", ErrBadRequest))
		return
	}
	week, err := queryInt(r, "week", 0)
	if err != nil {
		writeErr(w, err)
		return
	}

	p, err := h.deps.Player(r.Context(), r.URL.Query().Get("format"), week, name)
	if err != nil {
		writeErr(w, Wrap("player", err))
		return
	}
	writeJSON(w, http.StatusOK, p)
}
