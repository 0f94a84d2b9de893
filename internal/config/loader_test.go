package config_test

import (
	"context"
	"errors"
	"os"
	"testing"

	"github.com/okian/dgaops/internal/config"
	"github.com/smartystreets/goconvey/convey"
)

func TestConfigLoader(t *testing.T) {
	convey.Convey("Given a config loader", t, func() {
		ctx := context.Background()

		convey.Convey("When loading config with defaults only", func() {
			clearConfigEnvVars()

			cfg, err := config.Load(ctx)

			convey.Convey("Then it should load successfully with defaults", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(cfg, convey.ShouldNotBeNil)
				convey.So(cfg.Addr, convey.ShouldEqual, ":9080")
				convey.So(cfg.TimeoutMS, convey.ShouldEqual, 30_000)
				convey.So(cfg.ProjectName, convey.ShouldEqual, "dga_automl")
			})
		})

		convey.Convey("When loading config with environment variables", func() {
			_ = os.Setenv("DGAOPS_ADDR", ":8080")
			_ = os.Setenv("DGAOPS_OUTPUT_DIR", "/tmp/artifacts")
			_ = os.Setenv("DGAOPS_TIMEOUT_MS", "5000")
			_ = os.Setenv("DGAOPS_OVERWRITE", "true")
			defer clearConfigEnvVars()

			cfg, err := config.Load(ctx)

			convey.Convey("Then it should override defaults with env vars", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(cfg.Addr, convey.ShouldEqual, ":8080")
				convey.So(cfg.OutputDir, convey.ShouldEqual, "/tmp/artifacts")
				convey.So(cfg.TimeoutMS, convey.ShouldEqual, 5000)
				convey.So(cfg.Overwrite, convey.ShouldBeTrue)
			})
		})

		convey.Convey("When loading config with both file and environment variables", func() {
			yamlContent := `
# exporter settings
output_dir: "./out"
artifact_name: "dga_prod"
project_name: "dga_nightly"
timeout_ms: 10000
`
			tmpFile := createTempConfigFile(yamlContent)
			defer func() { _ = os.Remove(tmpFile) }()

			_ = os.Setenv("DGAOPS_CONFIG", tmpFile)
			_ = os.Setenv("DGAOPS_TIMEOUT_MS", "2000")
			defer clearConfigEnvVars()

			cfg, err := config.Load(ctx)

			convey.Convey("Then environment variables should override file values", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(cfg.OutputDir, convey.ShouldEqual, "./out")
				convey.So(cfg.ArtifactName, convey.ShouldEqual, "dga_prod")
				convey.So(cfg.ProjectName, convey.ShouldEqual, "dga_nightly")
				convey.So(cfg.TimeoutMS, convey.ShouldEqual, 2000)
				convey.So(cfg.APIKeyEnv, convey.ShouldEqual, "GOOGLE_API_KEY")
			})
		})

		convey.Convey("When loading config with invalid YAML file", func() {
			tmpFile := createTempConfigFile(`invalid: yaml: content: [`)
			defer func() { _ = os.Remove(tmpFile) }()

			_ = os.Setenv("DGAOPS_CONFIG", tmpFile)
			defer clearConfigEnvVars()

			cfg, err := config.Load(ctx)

			convey.Convey("Then it should return a load error", func() {
				convey.So(cfg, convey.ShouldBeNil)
				convey.So(errors.Is(err, config.ErrLoadConfig), convey.ShouldBeTrue)
			})
		})

		convey.Convey("When loading config with non-existent file", func() {
			_ = os.Setenv("DGAOPS_CONFIG", "/non/existent/file.yaml")
			defer clearConfigEnvVars()

			cfg, err := config.Load(ctx)

			convey.Convey("Then it should return an error", func() {
				convey.So(err, convey.ShouldNotBeNil)
				convey.So(cfg, convey.ShouldBeNil)
			})
		})

		convey.Convey("When loading config with an invalid numeric value", func() {
			_ = os.Setenv("DGAOPS_TIMEOUT_MS", "soon")
			defer clearConfigEnvVars()

			cfg, err := config.Load(ctx)

			convey.Convey("Then it should return an error", func() {
				convey.So(err, convey.ShouldNotBeNil)
				convey.So(cfg, convey.ShouldBeNil)
			})
		})

		convey.Convey("When loading config with empty output dir", func() {
			_ = os.Setenv("DGAOPS_OUTPUT_DIR", "")
			defer clearConfigEnvVars()

			cfg, err := config.Load(ctx)

			convey.Convey("Then it should return a validation error", func() {
				convey.So(cfg, convey.ShouldBeNil)
				convey.So(errors.Is(err, config.ErrInvalidConfig), convey.ShouldBeTrue)
				convey.So(err.Error(), convey.ShouldContainSubstring, "output_dir must not be empty")
			})
		})
	})
}

func TestConfigAPIKey(t *testing.T) {
	convey.Convey("Given a config naming an API key variable", t, func() {
		cfg := config.New()
		cfg.APIKeyEnv = "DGAOPS_TEST_API_KEY"
		defer func() { _ = os.Unsetenv("DGAOPS_TEST_API_KEY") }()

		convey.Convey("When the variable is unset", func() {
			_ = os.Unsetenv("DGAOPS_TEST_API_KEY")
			_, err := cfg.APIKey()

			convey.Convey("Then ErrMissingAPIKey names the variable", func() {
				convey.So(errors.Is(err, config.ErrMissingAPIKey), convey.ShouldBeTrue)
				convey.So(err.Error(), convey.ShouldContainSubstring, "DGAOPS_TEST_API_KEY")
			})
		})

		convey.Convey("When the variable is set", func() {
			_ = os.Setenv("DGAOPS_TEST_API_KEY", " secret-key ")
			key, err := cfg.APIKey()

			convey.Convey("Then the trimmed key is returned", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(key, convey.ShouldEqual, "secret-key")
			})
		})
	})
}

// Helper functions.

func clearConfigEnvVars() {
	envVars := []string{
		"DGAOPS_CONFIG",
		"DGAOPS_ADDR",
		"DGAOPS_OUTPUT_DIR",
		"DGAOPS_TIMEOUT_MS",
		"DGAOPS_OVERWRITE",
	}
	for _, envVar := range envVars {
		_ = os.Unsetenv(envVar)
	}
}

func createTempConfigFile(content string) string {
	tmpFile, err := os.CreateTemp("", "dgaops-config-*.yaml")
	if err != nil {
		panic(err)
	}
	if _, err := tmpFile.WriteString(content); err != nil {
		panic(err)
	}
	if err := tmpFile.Close(); err != nil {
		panic(err)
	}
	return tmpFile.Name()
}
