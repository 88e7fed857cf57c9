package api

import (
	"context"
	"net/http"
	"strings"

	"github.com/okian/gridcast/internal/domain/types"
)

// Waiver list defaults.
const (
	DefaultWaiverMinPoints = 8.0
	DefaultWaiverLimit     = 30
)

// WaiverDependencies defines the waiver read operation.
type WaiverDependencies interface {
	Waivers(ctx context.Context, format, position string, week int, minPoints float64, rostered []string, limit int) (types.WaiverList, error)
}

// WaiversHandler serves the best players not on a roster.
type WaiversHandler struct {
	deps     WaiverDependencies
	maxLimit int
}

// NewWaiversHandler creates a new waivers handler.
func NewWaiversHandler(deps WaiverDependencies, maxLimit int) *WaiversHandler {
	return &WaiversHandler{deps: deps, maxLimit: maxLimit}
}

// HandleWaivers handles
// GET /waivers?format=&position=&week=&min=&exclude=&limit=. exclude may be
// repeated or comma separated.
func (h *WaiversHandler) HandleWaivers(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.NotFound(w, r)
		return
	}
	week, err := queryInt(r, "week", 0)
	if err != nil {
		writeErr(w, err)
		return
	}
	limit, err := queryInt(r, "limit", DefaultWaiverLimit)
	if err != nil {
		writeErr(w, err)
		return
	}
	if limit == 0 || limit > h.maxLimit {
		limit = h.maxLimit
	}
	minPoints, err := queryFloat(r, "min", DefaultWaiverMinPoints)
	if err != nil {
		writeErr(w, err)
		return
	}

	q := r.URL.Query()
	var rostered []string
	for _, raw := range q["exclude"] {
		for _, name := range strings.Split(raw, ",") {
			if name = strings.TrimSpace(name); name != "" {
				rostered = append(rostered, name)
			}
		}
	}

	list, err := h.deps.Waivers(r.Context(), q.Get("format"), q.Get("position"), week, minPoints, rostered, limit)
	if err != nil {
		writeErr(w, Wrap("waivers", err))
		return
	}
	writeJSON(w, http.StatusOK, list)
}
