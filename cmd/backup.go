/*
Copyright © 2026 NAME HERE <EMAIL ADDRESS>
*/
package cmd

import (
	"fmt"

	"github.com/lidercheck/apiserver/internal/db"
	"github.com/lidercheck/apiserver/internal/services"
	"github.com/lidercheck/apiserver/internal/storage"
	"github.com/spf13/cobra"
)

// backupCmd represents the backup command.
var backupCmd = &cobra.Command{
	Use:   "backup",
	Short: "Store a copy of the live database in the configured storage",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		handle, _, err := openStore(ctx)
		if err != nil {
			return err
		}
		defer handle.Close()

		objects, err := storage.New(ctx, cfg.Storage)
		if err != nil {
			return err
		}

		key, err := services.NewBackupService(handle, db.DialectOf(cfg.Database), objects, logger).Archive(ctx)
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "stored %s in %s\n", key, objects.Bucket())
		return nil
	},
}

func init() {
	rootCmd.AddCommand(backupCmd)
}
