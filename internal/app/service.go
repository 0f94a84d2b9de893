// Package service wires the exporter, the artifact store and the playbook
// client into the operations exposed by the CLI and the HTTP API.
package service

import (
	"context"
	"fmt"
	"sync"

	"github.com/okian/dgaops/internal/adapters/artifactstore"
	"github.com/okian/dgaops/internal/domain/export"
	"github.com/okian/dgaops/internal/domain/model"
	"github.com/okian/dgaops/internal/domain/playbook"
	"github.com/okian/dgaops/pkg/logger"
)

// Runtime is the modeling runtime holding the trained leaderboard.
type Runtime interface {
	export.Resolver
	Ping(ctx context.Context) error
	Leaderboard(ctx context.Context, project string) (model.Leaderboard, error)
	Shutdown(ctx context.Context) error
}

// Explainer turns findings into a playbook result. It never fails.
type Explainer interface {
	Explain(ctx context.Context, findings model.Findings, apiKey string) playbook.Result
}

// KeySource returns the generative API key or an error naming what is missing.
type KeySource func() (string, error)

// Report describes one finished export.
type Report struct {
	RunID        string               `json:"run_id"`
	Leaderboard  model.Leaderboard    `json:"leaderboard"`
	Artifacts    model.ArtifactResult `json:"artifacts"`
	ManifestPath string               `json:"manifest_path"`
}

// Service implements the dependencies of the HTTP API and the CLI.
type Service struct {
	// mu serialises exports sharing the output directory.
	mu sync.Mutex

	lastMu sync.RWMutex
	last   *Report

	runtime   Runtime
	exporter  *export.Exporter
	explainer Explainer
	apiKey    KeySource

	project         string
	outputDir       string
	artifactName    string
	overwrite       bool
	shutdownRuntime bool

	logger logger.Logger
}

// New constructs a Service. Export needs WithRuntime, Playbook needs
// WithExplainer and WithKeySource.
func New(opts ...Option) *Service {
	s := &Service{
		outputDir:    "./models",
		artifactName: "best_dga_model",
		logger:       logger.Nop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.runtime != nil && s.exporter == nil {
		s.exporter = export.New(s.runtime, export.WithLogger(s.logger.Named("export")))
	}
	return s
}

// Export reads the project leaderboard, exports the leader's artifacts,
// renames the native artifact and writes the manifest.
func (s *Service) Export(ctx context.Context) (Report, error) {
	if s.runtime == nil {
		return Report{}, ErrNoRuntime
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.shutdownRuntime {
		defer s.shutdown(ctx)
	}

	if err := s.runtime.Ping(ctx); err != nil {
		return Report{}, fmt.Errorf("%w: %w", ErrRuntimeUnavailable, err)
	}
	lb, err := s.runtime.Leaderboard(ctx, s.project)
	if err != nil {
		return Report{}, fmt.Errorf("%w: %w", ErrRuntimeUnavailable, err)
	}
	best, ok := lb.Leader()
	if !ok {
		return Report{}, fmt.Errorf("%w: %s", ErrEmptyLeaderboard, s.project)
	}
	s.logger.Info(ctx, "leaderboard loaded",
		logger.String("project", s.project),
		logger.String("leader", best.ID),
		logger.Int("models", len(lb)))

	res, err := s.exporter.Export(ctx, lb, best, s.outputDir)
	if err != nil {
		return Report{}, err
	}

	if s.artifactName != "" {
		renamed, err := artifactstore.Rename(res.NativePath, s.artifactName, s.overwrite)
		if err != nil {
			return Report{}, fmt.Errorf("rename native artifact: %w", err)
		}
		s.logger.Info(ctx, "native artifact renamed",
			logger.String("from", res.NativePath), logger.String("to", renamed))
		res.NativePath = renamed
	}

	manifest, err := artifactstore.NewManifest(s.outputDir, s.project, lb, res)
	if err != nil {
		return Report{}, fmt.Errorf("build manifest: %w", err)
	}
	path, err := artifactstore.WriteManifest(s.outputDir, manifest)
	if err != nil {
		return Report{}, fmt.Errorf("write manifest: %w", err)
	}

	report := Report{
		RunID:        manifest.RunID,
		Leaderboard:  lb,
		Artifacts:    res,
		ManifestPath: path,
	}
	s.lastMu.Lock()
	s.last = &report
	s.lastMu.Unlock()
	return report, nil
}

// LastReport returns the most recent successful export.
func (s *Service) LastReport() (Report, bool) {
	s.lastMu.RLock()
	defer s.lastMu.RUnlock()
	if s.last == nil {
		return Report{}, false
	}
	return *s.last, true
}

// TopN returns the first n entries of the last exported leaderboard.
func (s *Service) TopN(_ context.Context, n int) (model.Leaderboard, error) {
	report, ok := s.LastReport()
	if !ok {
		return nil, ErrNoExport
	}
	return report.Leaderboard.Top(n), nil
}

// Rank looks up a model on the last exported leaderboard.
func (s *Service) Rank(_ context.Context, id string) (model.ModelRef, error) {
	report, ok := s.LastReport()
	if !ok {
		return model.ModelRef{}, ErrNoExport
	}
	for _, ref := range report.Leaderboard {
		if ref.ID == id {
			return ref, nil
		}
	}
	return model.ModelRef{}, fmt.Errorf("%w: %s", ErrModelNotFound, id)
}

func (s *Service) shutdown(ctx context.Context) {
	if err := s.runtime.Shutdown(context.WithoutCancel(ctx)); err != nil {
		s.logger.Warn(ctx, "runtime shutdown failed", logger.Error(err))
	}
}

// Playbook generates a playbook for findings. A missing key is returned as
// an error before any request is made; every other failure is carried by
// the Result.
func (s *Service) Playbook(ctx context.Context, findings model.Findings) (playbook.Result, error) {
	if s.explainer == nil || s.apiKey == nil {
		return playbook.Result{}, ErrNoExplainer
	}
	key, err := s.apiKey()
	if err != nil {
		return playbook.Result{}, err
	}
	return s.explainer.Explain(ctx, findings, key), nil
}
