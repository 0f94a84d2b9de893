// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"context"
	"encoding/json"
	"net/http"

	service "github.com/okian/dgaops/internal/app"
	"github.com/okian/dgaops/internal/domain/model"
	"github.com/okian/dgaops/internal/domain/playbook"
)

// maxRequestBody bounds JSON request bodies.
const maxRequestBody = 1 << 20

// Dependencies required by HTTP handlers. Using an interface bundle keeps
// the handler layer loosely coupled to implementations in other packages.
type Dependencies interface {
	// Export runs one artifact export. Calls are serialised by the implementation.
	Export(ctx context.Context) (Report, error)

	// Playbook generates a playbook. The error is only set when no request
	// could be attempted.
	Playbook(ctx context.Context, findings model.Findings) (playbook.Result, error)

	// Read operations expose the last exported leaderboard.
	TopN(ctx context.Context, n int) (model.Leaderboard, error)
	Rank(ctx context.Context, id string) (model.ModelRef, error)
}

// Report mirrors the shape returned by POST /export.
type Report = service.Report

// Server wires HTTP routes for the business API.
type Server struct {
	healthHandler      *HealthHandler
	exportHandler      *ExportHandler
	playbookHandler    *PlaybookHandler
	leaderboardHandler *LeaderboardHandler
	rankHandler        *RankHandler
}

// NewServer creates a new API server with all handlers.
func NewServer(deps Dependencies, opts ...Option) *Server {
	cfg := defaultServerConfig()
	for _, opt := range opts {
		opt(&cfg)
	}
	return &Server{
		healthHandler:      NewHealthHandler(),
		exportHandler:      NewExportHandler(deps),
		playbookHandler:    NewPlaybookHandler(deps, cfg.playbookRPS, cfg.playbookBurst),
		leaderboardHandler: NewLeaderboardHandler(deps, cfg.maxLimit),
		rankHandler:        NewRankHandler(deps),
	}
}

// Register attaches all HTTP routes to mux.
func (s *Server) Register(_ context.Context, mux *http.ServeMux) {
	mux.HandleFunc("/healthz", MetricsMiddleware(s.healthHandler.HandleHealth, "healthz"))
	mux.HandleFunc("/export", MetricsMiddleware(s.exportHandler.HandlePostExport, "export"))
	mux.HandleFunc("/playbook", MetricsMiddleware(s.playbookHandler.HandlePostPlaybook, "playbook"))
	mux.HandleFunc("/leaderboard", MetricsMiddleware(s.leaderboardHandler.HandleGetLeaderboard, "leaderboard"))
	mux.HandleFunc("/rank/", MetricsMiddleware(s.rankHandler.HandleGetRank, "rank"))
}

type errorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code string, err error) {
	msg := http.StatusText(status)
	if err != nil {
		msg = err.Error()
	}
	writeJSON(w, status, errorResponse{Code: code, Message: msg})
}

func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxRequestBody))
	dec.DisallowUnknownFields()
	return dec.Decode(dst)
}
