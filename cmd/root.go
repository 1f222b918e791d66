/*
Copyright © 2026 NAME HERE <EMAIL ADDRESS>
*/
package cmd

import (
	"context"
	"database/sql"
	"fmt"
	"os"

	"github.com/lidercheck/apiserver/config"
	"github.com/lidercheck/apiserver/internal/db"
	"github.com/lidercheck/apiserver/internal/logging"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var (
	cfg    config.Config
	logger *zap.Logger
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "lidercheck",
	Short: "Shop-floor checklist and line-stop tracker",
	Long: `lidercheck stores production and maintenance checklists, line-stop
justifications, meeting minutes and scrap records, and serves them over a
JSON API.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		cfg = config.LoadConfig()

		var err error
		logger, err = logging.New(cfg.LogLevel)
		if err != nil {
			return fmt.Errorf("failed to initialize logger: %w", err)
		}
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if logger != nil {
			_ = logger.Sync()
		}
	},
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// openStore opens the live database and brings its schema up to date.
func openStore(ctx context.Context) (*sql.DB, *db.Manager, error) {
	handle, err := db.Open(ctx, cfg)
	if err != nil {
		return nil, nil, fmt.Errorf("open database: %w", err)
	}

	manager := db.NewManager(handle, db.DialectOf(cfg.Database), db.MigrationURL(cfg.Database), cfg.AdminPassword, logger)
	if err := manager.EnsureSchema(ctx); err != nil {
		_ = handle.Close()
		return nil, nil, err
	}
	return handle, manager, nil
}
