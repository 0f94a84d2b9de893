// Package config defines the dgaops configuration and its loading hooks.
package config

import (
	"fmt"
	"strings"
	"time"
)

// Config contains process configuration.
type Config struct {
	// LogLevel controls verbosity: debug, info, warn, error.
	LogLevel string `koanf:"log_level"`

	// LogFormat is "text" or "json".
	LogFormat string `koanf:"log_format"`

	// Addr configures the HTTP listen address of the serve command.
	Addr string `koanf:"addr"`

	// OutputDir receives exported artifacts and the manifest.
	OutputDir string `koanf:"output_dir"`

	// ArtifactName is the stable base name given to the native artifact.
	// Empty disables the rename.
	ArtifactName string `koanf:"artifact_name"`

	// Overwrite allows the rename to replace an existing file.
	Overwrite bool `koanf:"overwrite"`

	// H2OURL is the base URL of the modeling runtime REST API.
	H2OURL string `koanf:"h2o_url"`

	// ProjectName selects the AutoML project whose leaderboard is exported.
	ProjectName string `koanf:"project_name"`

	// ShutdownRuntime asks the runtime to shut down after an export.
	ShutdownRuntime bool `koanf:"shutdown_runtime"`

	// APIURL is the generateContent endpoint of the generative API.
	APIURL string `koanf:"api_url"`

	// APIKeyEnv names the environment variable holding the API key.
	APIKeyEnv string `koanf:"api_key_env"`

	// APIKeyInQuery sends the key as a "key" query parameter instead of a header.
	APIKeyInQuery bool `koanf:"api_key_in_query"`

	// TimeoutMS bounds a single generative API call.
	TimeoutMS int `koanf:"timeout_ms"`

	// PlaybookRPS and PlaybookBurst rate limit POST /playbook.
	PlaybookRPS   float64 `koanf:"playbook_rps"`
	PlaybookBurst int     `koanf:"playbook_burst"`
}

// DefaultAPIURL is the Gemini generateContent endpoint.
const DefaultAPIURL = "https://generativelanguage.googleapis.com/v1beta/models/gemini-1.5-flash-latest:generateContent"

// New returns a Config populated with defaults.
func New() *Config {
	return &Config{
		LogLevel:      "info",
		LogFormat:     "text",
		Addr:          ":9080",
		OutputDir:     "./models",
		ArtifactName:  "best_dga_model",
		H2OURL:        "http://localhost:54321",
		ProjectName:   "dga_automl",
		APIURL:        DefaultAPIURL,
		APIKeyEnv:     "GOOGLE_API_KEY",
		TimeoutMS:     30_000,
		PlaybookRPS:   1,
		PlaybookBurst: 5,
	}
}

// Timeout returns TimeoutMS as a duration.
func (c *Config) Timeout() time.Duration {
	return time.Duration(c.TimeoutMS) * time.Millisecond
}

// Validate reports the first invalid field.
func (c *Config) Validate() error {
	switch {
	case strings.TrimSpace(c.Addr) == "":
		return fmt.Errorf("%w: addr must not be empty", ErrInvalidConfig)
	case strings.TrimSpace(c.OutputDir) == "":
		return fmt.Errorf("%w: output_dir must not be empty", ErrInvalidConfig)
	case strings.ContainsAny(c.ArtifactName, `/\`):
		return fmt.Errorf("%w: artifact_name must be a base name", ErrInvalidConfig)
	case strings.TrimSpace(c.APIURL) == "":
		return fmt.Errorf("%w: api_url must not be empty", ErrInvalidConfig)
	case strings.TrimSpace(c.APIKeyEnv) == "":
		return fmt.Errorf("%w: api_key_env must not be empty", ErrInvalidConfig)
	case c.TimeoutMS <= 0:
		return fmt.Errorf("%w: timeout_ms must be positive", ErrInvalidConfig)
	case c.PlaybookRPS <= 0 || c.PlaybookBurst <= 0:
		return fmt.Errorf("%w: playbook_rps and playbook_burst must be positive", ErrInvalidConfig)
	}
	return nil
}
