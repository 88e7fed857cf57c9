package api

import (
	"context"
	"net/http"
	"strconv"

	"github.com/okian/gridcast/internal/domain/types"
)

// AccuracyDependencies defines the accuracy read operation.
type AccuracyDependencies interface {
	Accuracy(ctx context.Context, format, position string, week int, withWeeks bool) (types.AccuracyReport, error)
}

// AccuracyHandler serves historical accuracy records.
type AccuracyHandler struct {
	deps AccuracyDependencies
}

// NewAccuracyHandler creates a new accuracy handler.
func NewAccuracyHandler(deps AccuracyDependencies) *AccuracyHandler {
	return &AccuracyHandler{deps: deps}
}

// HandleAccuracy handles GET /accuracy?format=&position=&week=&weeks=.
func (h *AccuracyHandler) HandleAccuracy(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.NotFound(w, r)
		return
	}
	week, err := queryInt(r, "week", 0)
	if err != nil {
		writeErr(w, err)
		return
	}
	q := r.URL.Query()
	withWeeks := false
	if raw := q.Get("weeks"); raw != "" {
		if withWeeks, err = strconv.ParseBool(raw); err != nil {
			writeErr(w, WrapKind("parse weeks", ErrBadRequest, err))
			return
		}
	}

	report, err := h.deps.Accuracy(r.Context(), q.Get("format"), q.Get("position"), week, withWeeks)
	if err != nil {
		writeErr(w, Wrap("accuracy", err))
		return
	}
	writeJSON(w, http.StatusOK, report)
}
