/*
Copyright © 2026 NAME HERE <EMAIL ADDRESS>
*/
package cmd

import (
	"fmt"
	"text/tabwriter"

	"github.com/lidercheck/apiserver/internal/reconcile"
	"github.com/lidercheck/apiserver/internal/store"
	"github.com/spf13/cobra"
)

var (
	reconcileLegacyPath string
	reconcileDryRun     bool
)

// reconcileCmd represents the reconcile command.
var reconcileCmd = &cobra.Command{
	Use:   "reconcile",
	Short: "Copy records from a legacy database into the live store",
	Long: `Reads every known table of a legacy SQLite file, maps its columns onto
the current schema and writes the records through the live store. Rows that
fail are logged and counted; they never stop the run. Usage:

	lidercheck reconcile --legacy old.db --dry-run
`,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		path := reconcileLegacyPath
		if path == "" {
			path = cfg.LegacyDBPath
		}
		source, err := reconcile.OpenSource(ctx, path)
		if err != nil {
			return err
		}
		defer source.Close()

		handle, _, err := openStore(ctx)
		if err != nil {
			return err
		}
		defer handle.Close()

		targets := reconcile.Targets{
			Users:     store.NewUserRepository(handle),
			Settings:  store.NewConfigRepository(handle),
			Scraps:    store.NewScrapRepository(handle),
			Logs:      store.NewChecklistLogRepository(handle),
			Meetings:  store.NewMeetingRepository(handle),
			Materials: store.NewMaterialRepository(handle),
		}
		report, err := reconcile.New(source, targets, logger, reconcile.WithDryRun(reconcileDryRun)).Run(ctx)
		if err != nil {
			return err
		}

		out := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
		fmt.Fprintln(out, "ENTITY\tTABLE\tFOUND\tMIGRATED\tFAILED")
		for _, t := range report.Tables {
			fmt.Fprintf(out, "%s\t%s\t%d\t%d\t%d\n", t.Entity, t.Table, t.Found, t.Migrated, t.Failed)
		}
		found, migrated, failed := report.Totals()
		fmt.Fprintf(out, "total\t\t%d\t%d\t%d\n", found, migrated, failed)
		if err := out.Flush(); err != nil {
			return err
		}
		if len(report.Skipped) > 0 {
			fmt.Fprintf(cmd.OutOrStdout(), "no legacy table for: %v\n", report.Skipped)
		}
		if report.DryRun {
			fmt.Fprintln(cmd.OutOrStdout(), "dry run: nothing was written")
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(reconcileCmd)

	reconcileCmd.Flags().StringVar(&reconcileLegacyPath, "legacy", "", "legacy database file (default LEGACY_DB_PATH)")
	reconcileCmd.Flags().BoolVar(&reconcileDryRun, "dry-run", false, "read and map every row without writing")
}
