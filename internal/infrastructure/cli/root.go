// Package cli implements the localrag command line.
package cli

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/0xcro3dile/localrag-fts/internal/app"
	"github.com/0xcro3dile/localrag-fts/internal/infrastructure/config"
	"github.com/0xcro3dile/localrag-fts/internal/infrastructure/logger"
)

var (
	version = "dev"

	cfgFile  string
	logLevel string
)

var rootCmd = &cobra.Command{
	Use:   "localrag",
	Short: "Local retrieval-augmented chat over your documents",
	Long: `localrag indexes plain-text documents into a SQLite full-text index
and answers questions with a local LLM, grounding each answer in the
best-matching fragments.`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "", "config file (default: localrag.yaml, localrag.yml or localrag.toml)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "override logging.level (debug, info, warn, error)")
}

// Execute runs the root command.
func Execute(ctx context.Context, v string) error {
	if v != "" {
		version = v
	}
	return rootCmd.ExecuteContext(ctx)
}

// openApp loads the configuration and wires the application.
func openApp() (*app.App, error) {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return nil, err
	}
	if logLevel != "" {
		cfg.Logging.Level = logLevel
	}

	log, err := logger.New(cfg.Logging.Format, cfg.Logging.Level)
	if err != nil {
		return nil, err
	}
	return app.Build(cfg, log)
}
