package service

import (
	"github.com/okian/dgaops/internal/domain/export"
	"github.com/okian/dgaops/pkg/logger"
)

// Option applies a configuration option to the Service.
type Option func(*Service)

// WithLogger sets a custom logger for the service.
func WithLogger(l logger.Logger) Option {
	return func(s *Service) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithRuntime sets the modeling runtime used by Export.
func WithRuntime(r Runtime) Option {
	return func(s *Service) {
		s.runtime = r
	}
}

// WithExporter replaces the exporter built from the runtime.
func WithExporter(e *export.Exporter) Option {
	return func(s *Service) {
		s.exporter = e
	}
}

// WithExplainer sets the playbook client.
func WithExplainer(e Explainer) Option {
	return func(s *Service) {
		s.explainer = e
	}
}

// WithKeySource sets where the generative API key comes from.
func WithKeySource(k KeySource) Option {
	return func(s *Service) {
		s.apiKey = k
	}
}

// WithProject selects the AutoML project.
func WithProject(project string) Option {
	return func(s *Service) {
		s.project = project
	}
}

// WithOutputDir sets the artifact directory.
func WithOutputDir(dir string) Option {
	return func(s *Service) {
		if dir != "" {
			s.outputDir = dir
		}
	}
}

// WithArtifactName sets the base name of the renamed native artifact. An
// empty name keeps the runtime's file name.
func WithArtifactName(name string, overwrite bool) Option {
	return func(s *Service) {
		s.artifactName = name
		s.overwrite = overwrite
	}
}

// WithRuntimeShutdown asks the runtime to stop after each export.
func WithRuntimeShutdown(enabled bool) Option {
	return func(s *Service) {
		s.shutdownRuntime = enabled
	}
}
