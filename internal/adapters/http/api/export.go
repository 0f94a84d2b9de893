package api

import (
	"context"
	"errors"
	"net/http"

	service "github.com/okian/dgaops/internal/app"
	"github.com/okian/dgaops/internal/domain/export"
)

// ExportDependencies defines the interface for running exports.
type ExportDependencies interface {
	Export(ctx context.Context) (Report, error)
}

// ExportHandler handles export requests.
type ExportHandler struct {
	deps ExportDependencies
}

// NewExportHandler creates a new export handler.
func NewExportHandler(deps ExportDependencies) *ExportHandler {
	return &ExportHandler{deps: deps}
}

// HandlePostExport handles POST /export requests.
func (h *ExportHandler) HandlePostExport(w http.ResponseWriter, r *http.Request) {
	const op = "api.post_export"
	if r.Method != http.MethodPost {
		http.NotFound(w, r)
		return
	}
	report, err := h.deps.Export(r.Context())
	if err != nil {
		switch {
		case errors.Is(err, service.ErrRuntimeUnavailable), errors.Is(err, service.ErrNoRuntime):
			writeError(w, http.StatusBadGateway, "runtime_unavailable", WrapKind(op, ErrUnavailable, err))
		case errors.Is(err, service.ErrEmptyLeaderboard):
			writeError(w, http.StatusNotFound, "empty_leaderboard", WrapKind(op, ErrNotFound, err))
		case errors.Is(err, export.ErrNativeExport):
			writeError(w, http.StatusBadGateway, "native_export_failed", Wrap(op, err))
		default:
			writeError(w, http.StatusInternalServerError, "internal_error", Wrap(op, err))
		}
		return
	}
	writeJSON(w, http.StatusOK, report)
}
