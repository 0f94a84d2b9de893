// Package h2o talks to an H2O-3 cluster over its REST API: it reads AutoML
// leaderboards and downloads model artifacts for the exporter.
package h2o

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/okian/dgaops/internal/domain/export"
	"github.com/okian/dgaops/internal/domain/model"
	"github.com/okian/dgaops/pkg/logger"
)

const (
	defaultRequestTimeout = 5 * time.Minute
	filePermission        = 0o640
	maxErrorBody          = 64 << 10
)

// Client is an H2O REST client. It implements export.Resolver.
type Client struct {
	baseURL        string
	httpClient     *http.Client
	requestTimeout time.Duration
	logger         logger.Logger
}

// New creates a client for the cluster at baseURL, e.g. http://localhost:54321.
func New(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL:        strings.TrimSuffix(baseURL, "/"),
		httpClient:     &http.Client{},
		requestTimeout: defaultRequestTimeout,
		logger:         logger.Nop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

type cloudResponse struct {
	Version      string `json:"version"`
	CloudName    string `json:"cloud_name"`
	CloudSize    int    `json:"cloud_size"`
	CloudHealthy bool   `json:"cloud_healthy"`
}

// Ping checks that the cluster is up and healthy.
func (c *Client) Ping(ctx context.Context) error {
	var cloud cloudResponse
	if err := c.getJSON(ctx, "h2o.ping", "/3/Cloud", &cloud); err != nil {
		return err
	}
	if !cloud.CloudHealthy {
		return fmt.Errorf("%w: %s", ErrUnhealthy, cloud.CloudName)
	}
	c.logger.Info(ctx, "connected to h2o cluster",
		logger.String("version", cloud.Version),
		logger.String("cloud", cloud.CloudName),
		logger.Int("nodes", cloud.CloudSize))
	return nil
}

// Shutdown asks the cluster to stop. Call it once the export finished.
func (c *Client) Shutdown(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, c.requestTimeout)
	defer cancel()

	resp, err := c.do(ctx, "h2o.shutdown", http.MethodPost, "/3/Shutdown")
	if err != nil {
		return err
	}
	_ = resp.Body.Close()
	c.logger.Info(ctx, "h2o cluster shutdown requested")
	return nil
}

type keyV3 struct {
	Name string `json:"name"`
}

type leaderboardResponse struct {
	ProjectName string  `json:"project_name"`
	Models      []keyV3 `json:"models"`
}

// Leaderboard returns the AutoML leaderboard of project in rank order.
func (c *Client) Leaderboard(ctx context.Context, project string) (model.Leaderboard, error) {
	var lb leaderboardResponse
	if err := c.getJSON(ctx, "h2o.leaderboard", "/99/Leaderboards/"+url.PathEscape(project), &lb); err != nil {
		return nil, err
	}
	ids := make([]string, 0, len(lb.Models))
	for _, m := range lb.Models {
		if m.Name != "" {
			ids = append(ids, m.Name)
		}
	}
	if len(ids) == 0 {
		return nil, fmt.Errorf("%w: %s", ErrEmptyLeaderboard, project)
	}
	return model.NewLeaderboard(ids...), nil
}

type modelsResponse struct {
	Models []struct {
		ModelID keyV3  `json:"model_id"`
		Algo    string `json:"algo"`
	} `json:"models"`
}

// Resolve checks that ref exists on the cluster and returns a handle to it.
func (c *Client) Resolve(ctx context.Context, ref model.ModelRef) (export.Model, error) {
	var models modelsResponse
	path := "/3/Models/" + url.PathEscape(ref.ID)
	if err := c.getJSON(ctx, "h2o.resolve", path, &models); err != nil {
		var apiErr *APIError
		if errors.As(err, &apiErr) && apiErr.Status == http.StatusNotFound {
			return nil, fmt.Errorf("%w: %s", ErrModelNotFound, ref.ID)
		}
		return nil, err
	}
	if len(models.Models) == 0 {
		return nil, fmt.Errorf("%w: %s", ErrModelNotFound, ref.ID)
	}
	return &Model{client: c, id: ref.ID, algo: models.Models[0].Algo}, nil
}

// getJSON issues a GET and decodes a 2xx JSON answer into dst.
func (c *Client) getJSON(ctx context.Context, op, path string, dst any) error {
	ctx, cancel := context.WithTimeout(ctx, c.requestTimeout)
	defer cancel()

	resp, err := c.do(ctx, op, http.MethodGet, path)
	if err != nil {
		return err
	}
	defer func() { _ = resp.Body.Close() }()

	if err := json.NewDecoder(resp.Body).Decode(dst); err != nil {
		return fmt.Errorf("%s: decode response: %w", op, err)
	}
	return nil
}

// do sends a request and turns non-2xx answers into *APIError. On success
// the caller owns the body.
func (c *Client) do(ctx context.Context, op, method, path string) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, nil)
	if err != nil {
		return nil, fmt.Errorf("%s: create request: %w", op, err)
	}
	req.Header.Set("Accept", "application/json")

	c.logger.Debug(ctx, "h2o request", logger.String("op", op), logger.String("method", method), logger.String("path", path))

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%s: do request: %w", op, err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		defer func() { _ = resp.Body.Close() }()
		return nil, newAPIError(op, resp)
	}
	return resp, nil
}

type errorResponse struct {
	Msg    string `json:"msg"`
	DevMsg string `json:"dev_msg"`
}

func newAPIError(op string, resp *http.Response) *APIError {
	raw, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
	msg := strings.TrimSpace(string(raw))
	var er errorResponse
	if json.Unmarshal(raw, &er) == nil {
		switch {
		case er.Msg != "":
			msg = er.Msg
		case er.DevMsg != "":
			msg = er.DevMsg
		}
	}
	if msg == "" {
		msg = resp.Status
	}
	return &APIError{Op: op, Status: resp.StatusCode, Msg: msg}
}

// download streams path into dir/name via a temporary file so a failed
// transfer never leaves a partial artifact behind.
func (c *Client) download(ctx context.Context, op, path, dir, fallbackName string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, c.requestTimeout)
	defer cancel()

	resp, err := c.do(ctx, op, http.MethodGet, path)
	if err != nil {
		return "", err
	}
	defer func() { _ = resp.Body.Close() }()

	name := attachmentName(resp.Header.Get("Content-Disposition"), fallbackName)
	tmp, err := os.CreateTemp(dir, "."+name+".*.part")
	if err != nil {
		return "", fmt.Errorf("%s: create temp file: %w", op, err)
	}
	tmpName := tmp.Name()
	defer func() { _ = os.Remove(tmpName) }()

	if _, err := io.Copy(tmp, resp.Body); err != nil {
		_ = tmp.Close()
		return "", fmt.Errorf("%s: write %s: %w", op, name, err)
	}
	if err := tmp.Close(); err != nil {
		return "", fmt.Errorf("%s: close %s: %w", op, name, err)
	}
	if err := os.Chmod(tmpName, filePermission); err != nil {
		return "", fmt.Errorf("%s: chmod %s: %w", op, name, err)
	}

	dst := filepath.Join(dir, name)
	if err := os.Rename(tmpName, dst); err != nil {
		return "", fmt.Errorf("%s: move %s: %w", op, name, err)
	}
	return dst, nil
}

// attachmentName takes the file name from a Content-Disposition header,
// reduced to its base name, or falls back.
func attachmentName(header, fallback string) string {
	if header == "" {
		return fallback
	}
	_, params, err := mime.ParseMediaType(header)
	if err != nil {
		return fallback
	}
	name := filepath.Base(params["filename"])
	if name == "." || name == "/" || name == "" || name == ".." {
		return fallback
	}
	return name
}
