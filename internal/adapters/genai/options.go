package genai

import (
	"net/http"
	"time"

	"github.com/okian/dgaops/pkg/logger"
)

// Option applies a configuration option to the Client.
type Option func(*Client)

// WithHTTPClient overrides the default HTTP client. Its Timeout is left
// untouched; the per-call bound comes from WithTimeout.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		if hc != nil {
			c.httpClient = hc
		}
	}
}

// WithTimeout bounds a single Explain call, response body included.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		if d > 0 {
			c.timeout = d
		}
	}
}

// WithKeyInQuery sends the API key as the "key" query parameter instead of
// the x-goog-api-key header.
func WithKeyInQuery(enabled bool) Option {
	return func(c *Client) {
		c.keyInQuery = enabled
	}
}

// WithMaxResponseBytes caps how much of a response body is read.
func WithMaxResponseBytes(n int64) Option {
	return func(c *Client) {
		if n > 0 {
			c.maxBody = n
		}
	}
}

// WithSnippetLength sets how many characters of a bad body are kept in
// failure messages.
func WithSnippetLength(n int) Option {
	return func(c *Client) {
		if n > 0 {
			c.snippet = n
		}
	}
}

// WithLogger sets a custom logger.
func WithLogger(l logger.Logger) Option {
	return func(c *Client) {
		if l != nil {
			c.logger = l
		}
	}
}
