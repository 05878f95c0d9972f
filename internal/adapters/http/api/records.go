package api

import (
	"context"
	"net/http"
	"strings"

	"github.com/okian/eventrank/internal/domain/types"
)

// RecordDependencies defines the interface for single record lookups.
type RecordDependencies interface {
	Record(ctx context.Context, id string) (types.Detail, error)
}

// RecordsHandler handles record lookups.
type RecordsHandler struct {
	deps RecordDependencies
}

// NewRecordsHandler creates a new records handler.
func NewRecordsHandler(deps RecordDependencies) *RecordsHandler {
	return &RecordsHandler{deps: deps}
}

// HandleGetRecord handles GET /records/{id} requests.
func (h *RecordsHandler) HandleGetRecord(w http.ResponseWriter, r *http.Request) {
	const op = "api.get_record"
	if r.Method != http.MethodGet {
		http.NotFound(w, r)
		return
	}
	// Extract path parameter after /records/
	id := strings.TrimPrefix(r.URL.Path, "/records/")
	if id == "" || strings.Contains(id, "/") {
		writeKindError(w, NewKind(op, ErrBadRequest))
		return
	}
	detail, err := h.deps.Record(r.Context(), id)
	if err != nil {
		writeKindError(w, Wrap(op, err))
		return
	}
	writeJSON(w, http.StatusOK, detail)
}
