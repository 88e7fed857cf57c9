package api

import (
	"context"
	"encoding/json"
	"net/http"

	"golang.org/x/time/rate"

	"github.com/okian/gridcast/internal/domain/types"
	"github.com/okian/gridcast/pkg/metrics"
)

// maxRecomputeBody bounds the POST /recompute payload.
const maxRecomputeBody = 1 << 12

// RecomputeDependencies defines how recomputes are scheduled.
type RecomputeDependencies interface {
	RequestRecompute(ctx context.Context, format string, week int) (types.RecomputeResult, error)
}

// RecomputeHandler accepts recompute requests.
type RecomputeHandler struct {
	deps    RecomputeDependencies
	limiter *rate.Limiter
}

// NewRecomputeHandler creates a new recompute handler. A nil limiter
// disables throttling.
func NewRecomputeHandler(deps RecomputeDependencies, limiter *rate.Limiter) *RecomputeHandler {
	return &RecomputeHandler{deps: deps, limiter: limiter}
}

// recomputeRequest mirrors the OpenAPI schema for POST /recompute.
type recomputeRequest struct {
	Format string `json:"format"`
	Week   int    `json:"week"`
}

func (req recomputeRequest) validate() error {
	if req.Week < 0 {
		return NewKind("validate week", ErrBadRequest)
	}
	return nil
}

// HandleRecompute handles POST /recompute. It answers 202 when a job is
// queued, 200 when it joined a pending one and 429 when throttled or the
// queue is full.
func (h *RecomputeHandler) HandleRecompute(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.NotFound(w, r)
		return
	}
	if h.limiter != nil && !h.limiter.Allow() {
		metrics.RecordRecomputeRejected(metrics.ReasonRateLimited)
		writeErr(w, NewKind("recompute", ErrRateLimited))
		return
	}

	var req recomputeRequest
	if r.ContentLength != 0 {
		dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxRecomputeBody))
		dec.DisallowUnknownFields()
		if err := dec.Decode(&req); err != nil {
			writeErr(w, WrapKind("decode body", ErrBadRequest, err))
			return
		}
	}
	if err := req.validate(); err != nil {
		writeErr(w, err)
		return
	}

	res, err := h.deps.RequestRecompute(r.Context(), req.Format, req.Week)
	if err != nil {
		writeErr(w, Wrap("recompute", err))
		return
	}
	status := http.StatusAccepted
	if res.Status == types.RecomputeDuplicate {
		status = http.StatusOK
	}
	writeJSON(w, status, res)
}
