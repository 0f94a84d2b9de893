package api

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"golang.org/x/time/rate"

	"github.com/okian/dgaops/internal/config"
	"github.com/okian/dgaops/internal/domain/model"
	"github.com/okian/dgaops/internal/domain/playbook"
	"github.com/okian/dgaops/pkg/metrics"
)

// PlaybookDependencies defines the interface for playbook generation.
type PlaybookDependencies interface {
	Playbook(ctx context.Context, findings model.Findings) (playbook.Result, error)
}

// PlaybookHandler handles playbook requests. All callers share one limiter
// so the upstream API quota is respected process-wide.
type PlaybookHandler struct {
	deps    PlaybookDependencies
	limiter *rate.Limiter
}

// NewPlaybookHandler creates a playbook handler allowing rps requests per
// second with the given burst.
func NewPlaybookHandler(deps PlaybookDependencies, rps float64, burst int) *PlaybookHandler {
	return &PlaybookHandler{
		deps:    deps,
		limiter: rate.NewLimiter(rate.Limit(rps), burst),
	}
}

type playbookRequest struct {
	Findings string `json:"findings"`
}

type playbookResponse struct {
	Status         string `json:"status"`
	Kind           string `json:"kind"`
	Text           string `json:"text,omitempty"`
	Message        string `json:"message,omitempty"`
	UpstreamStatus int    `json:"upstream_status,omitempty"`
}

// HandlePostPlaybook handles POST /playbook requests. Classified upstream
// failures are returned with 200 and status "failed".
func (h *PlaybookHandler) HandlePostPlaybook(w http.ResponseWriter, r *http.Request) {
	const op = "api.post_playbook"
	if r.Method != http.MethodPost {
		http.NotFound(w, r)
		return
	}
	var req playbookRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", WrapKind(op, ErrBadRequest, err))
		return
	}
	if strings.TrimSpace(req.Findings) == "" {
		writeError(w, http.StatusBadRequest, "bad_request", WrapKind(op, ErrBadRequest, errors.New("missing findings")))
		return
	}
	if !h.limiter.Allow() {
		metrics.RecordRateLimited()
		writeError(w, http.StatusTooManyRequests, "rate_limited", NewKind(op, ErrRateLimited))
		return
	}

	res, err := h.deps.Playbook(r.Context(), model.Findings(req.Findings))
	if err != nil {
		code := "internal_error"
		if errors.Is(err, config.ErrMissingAPIKey) {
			code = "missing_api_key"
		}
		writeError(w, http.StatusServiceUnavailable, code, WrapKind(op, ErrUnavailable, err))
		return
	}

	resp := playbookResponse{Status: "ok", Kind: res.Kind.String(), Text: res.Text}
	if !res.OK() {
		resp = playbookResponse{
			Status:         "failed",
			Kind:           res.Kind.String(),
			Message:        res.Message,
			UpstreamStatus: res.Status,
		}
	}
	writeJSON(w, http.StatusOK, resp)
}
