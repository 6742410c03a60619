package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/Gobusters/ectologger"
	"github.com/Gobusters/ectologger/zapadapter"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/Ramsey-B/clover/config"
)

var (
	// Version information set by main.
	Version = "dev"
	// Commit is the git commit hash.
	Commit = "unknown"

	cfg    *config.Config
	logger ectologger.Logger
)

// rootCmd represents the base command when called without any subcommands.
var rootCmd = &cobra.Command{
	Use:   "clover",
	Short: "Contact deduplication service",
	Long: `Clover finds and merges duplicate CRM contacts.

It scores contact pairs against weighted matching rules, keeps the
latest bulk run's matches for review, and merges confirmed duplicates
into a single master record.`,
	SilenceUsage:      true,
	PersistentPreRunE: setupCommand,
}

// Execute adds all child commands to the root command and runs it.
func Execute(version, commit string) {
	Version = version
	Commit = commit

	ctx, cancel := signal.NotifyContext(context.Background(),
		syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(dedupeCmd)
	rootCmd.AddCommand(rulesCmd)
}

func setupCommand(cmd *cobra.Command, _ []string) error {
	var err error
	cfg, err = config.Load()
	if err != nil {
		return errors.Wrap(err, "failed to load config")
	}
	if cfg.Version == "dev" {
		cfg.Version = Version
	}

	logger, err = newLogger(cfg)
	if err != nil {
		return errors.Wrap(err, "failed to create logger")
	}
	return nil
}

func newLogger(cfg *config.Config) (ectologger.Logger, error) {
	level, err := zap.ParseAtomicLevel(cfg.LogLevel)
	if err != nil {
		return nil, fmt.Errorf("invalid LOG_LEVEL %q: %w", cfg.LogLevel, err)
	}

	zapConfig := zap.NewProductionConfig()
	if cfg.PrettyLogs {
		zapConfig = zap.NewDevelopmentConfig()
	}
	zapConfig.Level = level

	zapLogger, err := zapConfig.Build(zap.Fields(
		zap.String("service", cfg.AppName),
		zap.String("version", cfg.Version),
	))
	if err != nil {
		return nil, err
	}
	return zapadapter.NewZapEctoLogger(zapLogger, nil), nil
}
