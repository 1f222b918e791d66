/*
Copyright © 2026 NAME HERE <EMAIL ADDRESS>
*/
package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

// cleanupCmd represents the cleanup command.
var cleanupCmd = &cobra.Command{
	Use:   "cleanup",
	Short: "Delete line stops and meetings stored without an id",
	RunE: func(cmd *cobra.Command, args []string) error {
		handle, manager, err := openStore(cmd.Context())
		if err != nil {
			return err
		}
		defer handle.Close()

		lineStops, meetings, err := manager.PurgeBlankIDs(cmd.Context())
		if err != nil {
			return err
		}
		logger.Info("blank ids purged", zap.Int64("line_stops", lineStops), zap.Int64("meetings", meetings))
		fmt.Fprintf(cmd.OutOrStdout(), "removed %d line stops and %d meetings\n", lineStops, meetings)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(cleanupCmd)
}
