package api

import (
	"context"
	"errors"
	"net/http"
	"strings"

	service "github.com/okian/dgaops/internal/app"
	"github.com/okian/dgaops/internal/domain/model"
)

// RankDependencies defines the interface for rank operations.
type RankDependencies interface {
	Rank(ctx context.Context, id string) (model.ModelRef, error)
}

// RankHandler handles rank requests.
type RankHandler struct {
	deps RankDependencies
}

// NewRankHandler creates a new rank handler.
func NewRankHandler(deps RankDependencies) *RankHandler {
	return &RankHandler{deps: deps}
}

// HandleGetRank handles GET /rank/{model_id} requests.
func (h *RankHandler) HandleGetRank(w http.ResponseWriter, r *http.Request) {
	const op = "api.get_rank"
	if r.Method != http.MethodGet {
		http.NotFound(w, r)
		return
	}
	id := strings.TrimPrefix(r.URL.Path, "/rank/")
	if id == "" || strings.Contains(id, "/") {
		writeError(w, http.StatusBadRequest, "bad_request", NewKind(op, ErrBadRequest))
		return
	}
	ref, err := h.deps.Rank(r.Context(), id)
	if err != nil {
		if errors.Is(err, service.ErrNoExport) || errors.Is(err, service.ErrModelNotFound) {
			writeError(w, http.StatusNotFound, "not_found", WrapKind(op, ErrNotFound, err))
			return
		}
		writeError(w, http.StatusInternalServerError, "internal_error", Wrap(op, err))
		return
	}
	writeJSON(w, http.StatusOK, ref)
}
