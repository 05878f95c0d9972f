package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	model "github.com/okian/eventrank/internal/domain/model"
	"github.com/okian/eventrank/internal/domain/types"
)

// maxBatchBytes bounds a POST /batches body.
const maxBatchBytes = 8 << 20

// BatchDependencies defines the interface for batch evaluation.
type BatchDependencies interface {
	Evaluate(ctx context.Context, batch []model.Record) (types.Report, error)
}

// BatchesHandler handles batch evaluation requests.
type BatchesHandler struct {
	deps BatchDependencies
}

// NewBatchesHandler creates a new batches handler.
func NewBatchesHandler(deps BatchDependencies) *BatchesHandler {
	return &BatchesHandler{deps: deps}
}

// HandlePostBatch handles POST /batches requests. Malformed records inside a
// well-formed body are reported in the response, not rejected.
func (h *BatchesHandler) HandlePostBatch(w http.ResponseWriter, r *http.Request) {
	const op = "api.post_batch"
	if r.Method != http.MethodPost {
		http.NotFound(w, r)
		return
	}

	var req batchRequest
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBatchBytes))
	if err := dec.Decode(&req); err != nil {
		writeKindError(w, WrapKind(op, ErrBadRequest, err))
		return
	}
	if len(req.Records) == 0 {
		writeKindError(w, WrapKind(op, ErrBadRequest, errors.New("no records")))
		return
	}

	report, err := h.deps.Evaluate(r.Context(), req.Records)
	if err != nil {
		writeKindError(w, Wrap(op, err))
		return
	}
	writeJSON(w, http.StatusOK, report)
}
