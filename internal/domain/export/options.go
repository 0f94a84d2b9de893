package export

import (
	"os"

	"github.com/okian/dgaops/pkg/logger"
)

// Option applies a configuration option to the Exporter.
type Option func(*Exporter)

// WithLogger sets the logger used for progress and skip reasons.
func WithLogger(l logger.Logger) Option {
	return func(e *Exporter) {
		if l != nil {
			e.logger = l
		}
	}
}

// WithDirPermission sets the mode used when creating the output directory.
func WithDirPermission(perm os.FileMode) Option {
	return func(e *Exporter) {
		if perm != 0 {
			e.dirPerm = perm
		}
	}
}
