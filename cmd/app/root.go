package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/jobflow/jobflow-backend/internal/config"
	"github.com/jobflow/jobflow-backend/internal/database"
	"github.com/jobflow/jobflow-backend/internal/logger"
)

// RootOptions holds global flags for all commands.
type RootOptions struct {
	LogLevel string
}

// NewRootCommand creates the root command with every subcommand attached.
func NewRootCommand() *cobra.Command {
	opts := &RootOptions{}

	cmd := &cobra.Command{
		Use:           "jobflow",
		Short:         "JobFlow workforce management backend",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	cmd.PersistentFlags().StringVar(&opts.LogLevel, "log-level", "", "override logging.level (debug|info|warn|error)")

	cmd.AddCommand(NewServeCommand(opts))
	cmd.AddCommand(NewMigrateCommand(opts))
	cmd.AddCommand(NewAccrueCommand(opts))
	return cmd
}

// env is what every command needs: configuration, a logger and the database.
type env struct {
	cfg *config.Config
	log *zap.SugaredLogger
	db  *database.DB
}

func (e *env) Close() {
	if e.db != nil {
		e.db.Close()
	}
	_ = e.log.Sync()
}

func setup(ctx context.Context, opts *RootOptions) (*env, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	if opts.LogLevel != "" {
		cfg.Logging.Level = opts.LogLevel
	}

	log, err := logger.New(cfg.Logging.Level)
	if err != nil {
		return nil, err
	}

	db, err := database.Open(ctx, cfg.Postgres, log)
	if err != nil {
		_ = log.Sync()
		return nil, err
	}
	return &env{cfg: cfg, log: log, db: db}, nil
}

func migrate(ctx context.Context, e *env) error {
	ctx, cancel := context.WithTimeout(ctx, e.cfg.Postgres.MigrateTimeout)
	defer cancel()
	return database.Migrate(ctx, e.db.SQL, e.log)
}
