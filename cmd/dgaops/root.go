package main

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/okian/dgaops/internal/adapters/genai"
	"github.com/okian/dgaops/internal/adapters/h2o"
	service "github.com/okian/dgaops/internal/app"
	"github.com/okian/dgaops/internal/config"
	"github.com/okian/dgaops/pkg/logger"
)

// app holds what every subcommand needs once flags are parsed.
type app struct {
	cfg *config.Config
	log logger.Logger
}

func newRootCommand() *cobra.Command {
	a := &app{}
	defaults := config.New()

	root := &cobra.Command{
		Use:           "dgaops",
		Short:         "Export DGA detection models and generate incident playbooks",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return a.setup(cmd)
		},
	}

	pf := root.PersistentFlags()
	pf.String("log-level", defaults.LogLevel, "log level: debug, info, warn, error")
	pf.String("log-format", defaults.LogFormat, "log format: text or json")

	root.AddCommand(newExportCommand(a))
	root.AddCommand(newPlaybookCommand(a))
	root.AddCommand(newServeCommand(a))
	return root
}

// setup loads configuration (defaults, file, env), applies explicitly set
// flags on top and initializes logging.
func (a *app) setup(cmd *cobra.Command) error {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	cfg, err := config.Load(ctx)
	if err != nil {
		return cliError{code: exitConfig, err: err}
	}
	applyFlags(cmd, cfg)
	if err := cfg.Validate(); err != nil {
		return cliError{code: exitConfig, err: err}
	}

	if err := logger.Init(logger.WithOutput(cmd.ErrOrStderr()), logger.WithFormat(cfg.LogFormat)); err != nil {
		return cliError{code: exitConfig, err: err}
	}
	a.log = logger.Get()
	if err := logger.SetLevelString(cfg.LogLevel); err != nil {
		a.log.Warn(ctx, "invalid log_level; falling back to info", logger.String("log_level", cfg.LogLevel), logger.Error(err))
		_ = logger.SetLevelString("info")
	}
	a.cfg = cfg
	return nil
}

// applyFlags copies flags the user set on the command line into cfg.
func applyFlags(cmd *cobra.Command, cfg *config.Config) {
	flags := cmd.Flags()
	str := func(name string, dst *string) {
		if flags.Changed(name) {
			*dst, _ = flags.GetString(name)
		}
	}
	boolean := func(name string, dst *bool) {
		if flags.Changed(name) {
			*dst, _ = flags.GetBool(name)
		}
	}
	integer := func(name string, dst *int) {
		if flags.Changed(name) {
			*dst, _ = flags.GetInt(name)
		}
	}
	float := func(name string, dst *float64) {
		if flags.Changed(name) {
			*dst, _ = flags.GetFloat64(name)
		}
	}

	str("log-level", &cfg.LogLevel)
	str("log-format", &cfg.LogFormat)
	str("addr", &cfg.Addr)
	str("output-dir", &cfg.OutputDir)
	str("artifact-name", &cfg.ArtifactName)
	boolean("overwrite", &cfg.Overwrite)
	str("h2o-url", &cfg.H2OURL)
	str("project", &cfg.ProjectName)
	boolean("shutdown-runtime", &cfg.ShutdownRuntime)
	str("api-url", &cfg.APIURL)
	str("api-key-env", &cfg.APIKeyEnv)
	boolean("key-in-query", &cfg.APIKeyInQuery)
	integer("timeout-ms", &cfg.TimeoutMS)
	float("playbook-rps", &cfg.PlaybookRPS)
	integer("playbook-burst", &cfg.PlaybookBurst)
}

// exportFlags registers the flags shared by export and serve.
func exportFlags(cmd *cobra.Command) {
	d := config.New()
	f := cmd.Flags()
	f.String("output-dir", d.OutputDir, "directory receiving the artifacts")
	f.String("artifact-name", d.ArtifactName, "stable base name for the native artifact (empty keeps the runtime name)")
	f.Bool("overwrite", d.Overwrite, "replace an existing artifact with the same name")
	f.String("h2o-url", d.H2OURL, "base URL of the H2O REST API")
	f.String("project", d.ProjectName, "AutoML project whose leaderboard is exported")
	f.Bool("shutdown-runtime", d.ShutdownRuntime, "shut the H2O cluster down after exporting")
}

// playbookFlags registers the flags shared by playbook and serve.
func playbookFlags(cmd *cobra.Command) {
	d := config.New()
	f := cmd.Flags()
	f.String("api-url", d.APIURL, "generateContent endpoint of the generative API")
	f.String("api-key-env", d.APIKeyEnv, "environment variable holding the API key")
	f.Bool("key-in-query", d.APIKeyInQuery, "send the API key as a query parameter instead of a header")
	f.Int("timeout-ms", d.TimeoutMS, "timeout of one generative API call in milliseconds")
}

// newService wires the adapters selected by the configuration.
func (a *app) newService() *service.Service {
	rt := h2o.New(a.cfg.H2OURL, h2o.WithLogger(a.log.Named("h2o")))
	explainer := genai.New(a.cfg.APIURL,
		genai.WithTimeout(a.cfg.Timeout()),
		genai.WithKeyInQuery(a.cfg.APIKeyInQuery),
		genai.WithLogger(a.log.Named("genai")),
	)
	return service.New(
		service.WithLogger(a.log.Named("service")),
		service.WithRuntime(rt),
		service.WithExplainer(explainer),
		service.WithKeySource(a.cfg.APIKey),
		service.WithProject(a.cfg.ProjectName),
		service.WithOutputDir(a.cfg.OutputDir),
		service.WithArtifactName(a.cfg.ArtifactName, a.cfg.Overwrite),
		service.WithRuntimeShutdown(a.cfg.ShutdownRuntime),
	)
}
