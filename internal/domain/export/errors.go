package export

import "errors"

// Sentinel kinds for export errors.
var (
	// ErrNativeExport wraps every fatal failure of the native artifact step.
	ErrNativeExport = errors.New("native artifact export failed")
	// ErrPortableUnsupported may be returned by runtimes whose model family
	// cannot produce a portable artifact. The exporter treats any error the
	// same way; this only gives adapters a common kind.
	ErrPortableUnsupported = errors.New("portable export unsupported")
)
