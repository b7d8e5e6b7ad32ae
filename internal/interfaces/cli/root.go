// Package cli implements the ipfolio command tree: serve, worker, migrate,
// import and token.
package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/ipfolio/ipfolio/internal/config"
	"github.com/ipfolio/ipfolio/internal/infrastructure/monitoring/logging"
)

// Build-time variables, injected via -ldflags.
var (
	Version   = "dev"
	GitCommit = "unknown"
	BuildDate = "unknown"
)

type rootOptions struct {
	configPath string
	logLevel   string
}

// runtime carries what every subcommand needs after the root pre-run.
type runtime struct {
	cfg        *config.Config
	configPath string
	logger     logging.Logger
}

// NewRootCommand builds the ipfolio command tree.
func NewRootCommand() *cobra.Command {
	opts := &rootOptions{}
	rt := &runtime{}

	cmd := &cobra.Command{
		Use:     "ipfolio",
		Short:   "IPfolio patent portfolio management backend",
		Long:    "IPfolio manages patent families, jurisdiction deposits, cabinet\nassignments and per-entity country rights, with role-scoped access\nand spreadsheet import reconciliation.",
		Version: fmt.Sprintf("%s (commit: %s, built: %s)", Version, GitCommit, BuildDate),
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return rt.init(opts)
		},
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	pf := cmd.PersistentFlags()
	pf.StringVarP(&opts.configPath, "config", "c", "", "config file path (default: env-only configuration)")
	pf.StringVar(&opts.logLevel, "log-level", "", "override configured log level (debug, info, warn, error)")

	cmd.AddCommand(
		newServeCommand(rt),
		newWorkerCommand(rt),
		newMigrateCommand(rt),
		newImportCommand(rt),
		newTokenCommand(rt),
	)
	return cmd
}

func (rt *runtime) init(opts *rootOptions) error {
	var (
		cfg *config.Config
		err error
	)
	if opts.configPath != "" {
		cfg, err = config.Load(opts.configPath)
	} else {
		cfg, err = config.LoadFromEnv()
	}
	if err != nil {
		return fmt.Errorf("loading configuration: %w", err)
	}
	if opts.logLevel != "" {
		cfg.Log.Level = opts.logLevel
	}

	logger, err := logging.NewLogger(logging.LogConfig{
		Level:  cfg.Log.Level,
		Format: cfg.Log.Format,
	})
	if err != nil {
		return fmt.Errorf("building logger: %w", err)
	}

	rt.cfg = cfg
	rt.configPath = opts.configPath
	rt.logger = logger
	return nil
}

// Execute runs the command tree.
func Execute() error {
	return NewRootCommand().Execute()
}
