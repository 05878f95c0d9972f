package api

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/okian/eventrank/internal/domain/scoring"
)

// WeightsDependencies defines the interface for reading and replacing weights.
type WeightsDependencies interface {
	Weights() scoring.WeightConfig
	UpdateWeights(ctx context.Context, w scoring.WeightConfig) error
}

// WeightsHandler handles weight configuration requests.
type WeightsHandler struct {
	deps WeightsDependencies
}

// NewWeightsHandler creates a new weights handler.
func NewWeightsHandler(deps WeightsDependencies) *WeightsHandler {
	return &WeightsHandler{deps: deps}
}

// HandleWeights handles GET /weights and PUT /weights. A PUT body is a map of
// factor name to weight; every stored record is rescored when it is accepted.
func (h *WeightsHandler) HandleWeights(w http.ResponseWriter, r *http.Request) {
	const op = "api.weights"
	switch r.Method {
	case http.MethodGet:
		writeJSON(w, http.StatusOK, weightsFrom(h.deps.Weights()))
	case http.MethodPut:
		var req map[string]float64
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeKindError(w, WrapKind(op, ErrBadRequest, err))
			return
		}
		cfg, err := scoring.WeightsFromMap(req)
		if err != nil {
			writeKindError(w, Wrap(op, err))
			return
		}
		if err := h.deps.UpdateWeights(r.Context(), cfg); err != nil {
			writeKindError(w, Wrap(op, err))
			return
		}
		writeJSON(w, http.StatusOK, weightsFrom(cfg))
	default:
		http.NotFound(w, r)
	}
}
