// Package export produces deployable artifacts from a ranked leaderboard.
//
// The leader is always saved in the runtime's native format. A portable
// artifact is taken from the leader when possible, otherwise from the first
// candidate down the leaderboard that supports it.
package export

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/okian/dgaops/internal/domain/model"
	"github.com/okian/dgaops/pkg/logger"
	"github.com/okian/dgaops/pkg/metrics"
)

const defaultDirPermission = 0o750

// Model is a trained model handle as seen by the exporter.
type Model interface {
	ID() string
	// ExportPortable writes a self-contained scoring artifact into dir and
	// returns its path.
	ExportPortable(ctx context.Context, dir string) (string, error)
	// SaveNative writes the runtime-specific artifact into dir and returns its path.
	SaveNative(ctx context.Context, dir string) (string, error)
}

// Resolver turns leaderboard entries into model handles.
type Resolver interface {
	Resolve(ctx context.Context, ref model.ModelRef) (Model, error)
}

// Exporter runs the portable fallback walk and the native save. It holds no
// per-export state; callers serialise exports that share an output directory.
type Exporter struct {
	resolver Resolver
	logger   logger.Logger
	dirPerm  os.FileMode
}

// New creates an Exporter resolving models through r.
func New(r Resolver, opts ...Option) *Exporter {
	e := &Exporter{
		resolver: r,
		logger:   logger.Nop(),
		dirPerm:  defaultDirPermission,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// attempt is the outcome of one portable export: a path, or the reason the
// candidate was skipped.
type attempt struct {
	path string
	skip error
}

func (a attempt) ok() bool { return a.skip == nil }

// Export saves artifacts for best into outDir. Portable export failures are
// recovered by walking lb in rank order; only native export failures are
// returned, wrapped in ErrNativeExport.
func (e *Exporter) Export(ctx context.Context, lb model.Leaderboard, best model.ModelRef, outDir string) (model.ArtifactResult, error) {
	start := time.Now()
	defer func() {
		metrics.RecordExportDuration(float64(time.Since(start).Milliseconds()))
	}()

	if outDir == "" {
		metrics.RecordNativeFailure()
		return model.ArtifactResult{}, fmt.Errorf("%w: empty output directory", ErrNativeExport)
	}
	if err := os.MkdirAll(outDir, e.dirPerm); err != nil {
		metrics.RecordNativeFailure()
		return model.ArtifactResult{}, fmt.Errorf("%w: create %s: %w", ErrNativeExport, outDir, err)
	}

	leader, err := e.resolver.Resolve(ctx, best)
	if err != nil {
		metrics.RecordNativeFailure()
		return model.ArtifactResult{}, fmt.Errorf("%w: resolve leader %s: %w", ErrNativeExport, best.ID, err)
	}

	var res model.ArtifactResult
	if a := e.exportPortable(ctx, leader, outDir); a.ok() {
		res.PortablePath, res.SourceModelID = a.path, best.ID
		e.logger.Info(ctx, "portable artifact saved",
			logger.String("model_id", best.ID), logger.String("path", a.path))
	} else {
		e.logger.Warn(ctx, "leader cannot export a portable artifact; walking leaderboard",
			logger.String("model_id", best.ID), logger.Error(a.skip))
		metrics.RecordFallbackWalk()
		res.PortablePath, res.SourceModelID = e.walk(ctx, lb, best, outDir)
	}

	if !res.Portable() {
		metrics.RecordPortableMissing()
		e.logger.Info(ctx, "no portable artifact found; the native artifact remains usable",
			logger.Int("candidates", len(lb)))
	}

	nativePath, err := leader.SaveNative(ctx, outDir)
	if err != nil {
		metrics.RecordNativeFailure()
		return model.ArtifactResult{}, fmt.Errorf("%w: %s: %w", ErrNativeExport, best.ID, err)
	}
	res.NativePath, res.NativeModelID = nativePath, best.ID
	e.logger.Info(ctx, "native artifact saved",
		logger.String("model_id", best.ID), logger.String("path", nativePath))

	return res, nil
}

// walk returns the first portable artifact down the leaderboard. The leader
// was already tried and is skipped. Candidates after the first success are
// never resolved.
func (e *Exporter) walk(ctx context.Context, lb model.Leaderboard, best model.ModelRef, outDir string) (string, string) {
	skipped := 0
	for _, ref := range lb {
		if ref.ID == best.ID {
			continue
		}
		if ctx.Err() != nil {
			e.logger.Warn(ctx, "leaderboard walk interrupted", logger.Error(ctx.Err()), logger.Int("skipped", skipped))
			return "", ""
		}

		m, err := e.resolver.Resolve(ctx, ref)
		if err != nil {
			metrics.RecordPortableAttempt(metrics.OutcomeSkipped)
			e.logger.Debug(ctx, "candidate skipped", logger.String("model_id", ref.ID), logger.Error(err))
			skipped++
			continue
		}
		a := e.exportPortable(ctx, m, outDir)
		if !a.ok() {
			e.logger.Debug(ctx, "candidate skipped", logger.String("model_id", ref.ID), logger.Error(a.skip))
			skipped++
			continue
		}

		e.logger.Info(ctx, "portable artifact saved from fallback model",
			logger.String("model_id", ref.ID),
			logger.Int("rank", ref.Rank),
			logger.Int("skipped", skipped),
			logger.String("path", a.path))
		return a.path, ref.ID
	}
	return "", ""
}

func (e *Exporter) exportPortable(ctx context.Context, m Model, outDir string) attempt {
	path, err := m.ExportPortable(ctx, outDir)
	if err == nil && path == "" {
		err = fmt.Errorf("%w: %s returned no path", ErrPortableUnsupported, m.ID())
	}
	if err != nil {
		metrics.RecordPortableAttempt(metrics.OutcomeSkipped)
		return attempt{skip: err}
	}
	metrics.RecordPortableAttempt(metrics.OutcomeSaved)
	return attempt{path: path}
}
