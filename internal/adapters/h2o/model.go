package h2o

import (
	"context"
	"errors"
	"fmt"
	"net/url"

	"github.com/okian/dgaops/internal/domain/export"
)

// Model is a handle to a model living on the cluster.
type Model struct {
	client *Client
	id     string
	algo   string
}

// ID returns the model key.
func (m *Model) ID() string { return m.id }

// Algo returns the algorithm family reported by the cluster, e.g. "gbm".
func (m *Model) Algo() string { return m.algo }

// ExportPortable downloads the MOJO zip into dir. Model families without
// MOJO support answer with an error status, reported as
// export.ErrPortableUnsupported.
func (m *Model) ExportPortable(ctx context.Context, dir string) (string, error) {
	path, err := m.client.download(ctx, "h2o.mojo", "/3/Models/"+url.PathEscape(m.id)+"/mojo", dir, m.id+".zip")
	if err != nil {
		var apiErr *APIError
		if errors.As(err, &apiErr) {
			return "", fmt.Errorf("%w: %s (%s): %w", export.ErrPortableUnsupported, m.id, m.algo, err)
		}
		return "", err
	}
	return path, nil
}

// SaveNative downloads the binary model into dir. The file is named after
// the model key, like h2o.download_model does.
func (m *Model) SaveNative(ctx context.Context, dir string) (string, error) {
	return m.client.download(ctx, "h2o.binary", "/3/Models.fetch.bin/"+url.PathEscape(m.id), dir, m.id)
}
