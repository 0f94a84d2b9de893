package config_test

import (
	"errors"
	"testing"
	"time"

	"github.com/okian/dgaops/internal/config"
	"github.com/smartystreets/goconvey/convey"
)

func TestConfig_New(t *testing.T) {
	convey.Convey("Given a new config with default options", t, func() {
		cfg := config.New()

		convey.Convey("Then it should have sensible defaults", func() {
			convey.So(cfg.Addr, convey.ShouldEqual, ":9080")
			convey.So(cfg.OutputDir, convey.ShouldEqual, "./models")
			convey.So(cfg.ArtifactName, convey.ShouldEqual, "best_dga_model")
			convey.So(cfg.APIKeyEnv, convey.ShouldEqual, "GOOGLE_API_KEY")
			convey.So(cfg.Timeout(), convey.ShouldEqual, 30*time.Second)
			convey.So(cfg.Validate(), convey.ShouldBeNil)
		})
	})
}

func TestConfig_Validate(t *testing.T) {
	convey.Convey("Given configs with one invalid field", t, func() {
		cases := map[string]func(*config.Config){
			"addr":          func(c *config.Config) { c.Addr = " " },
			"output_dir":    func(c *config.Config) { c.OutputDir = "" },
			"artifact_name": func(c *config.Config) { c.ArtifactName = "models/best" },
			"api_url":       func(c *config.Config) { c.APIURL = "" },
			"api_key_env":   func(c *config.Config) { c.APIKeyEnv = "" },
			"timeout_ms":    func(c *config.Config) { c.TimeoutMS = 0 },
			"playbook_rps":  func(c *config.Config) { c.PlaybookRPS = 0 },
		}
		for field, mutate := range cases {
			cfg := config.New()
			mutate(cfg)
			err := cfg.Validate()
			convey.So(err, convey.ShouldNotBeNil)
			convey.So(errors.Is(err, config.ErrInvalidConfig), convey.ShouldBeTrue)
			convey.So(err.Error(), convey.ShouldContainSubstring, field)
		}
	})
}
