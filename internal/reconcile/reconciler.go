// Package reconcile copies the records of a legacy database into the
// current schema.
//
// The legacy schema drifted over time, so every entity lists the table names
// it may live under and every field lists the column names it may have used.
// Rows are written one at a time; a row that fails is logged and counted and
// never stops the rest of the batch.
package reconcile

import (
	"context"
	"fmt"

	"go.uber.org/zap"
)

// TableReport counts the outcome of one legacy table.
type TableReport struct {
	Entity   string `json:"entity"`
	Table    string `json:"table"`
	Found    int    `json:"found"`
	Migrated int    `json:"migrated"`
	Failed   int    `json:"failed"`
	Error    string `json:"error,omitempty"`
}

// Report summarizes a reconciliation run.
type Report struct {
	DryRun bool          `json:"dryRun"`
	Tables []TableReport `json:"tables"`

	// Skipped lists entities none of whose candidate tables exist.
	Skipped []string `json:"skipped"`
}

// Totals sums the per-table counts.
func (r Report) Totals() (found, migrated, failed int) {
	for _, t := range r.Tables {
		found += t.Found
		migrated += t.Migrated
		failed += t.Failed
	}
	return found, migrated, failed
}

// Reconciler runs a migration plan from a Source into Targets.
type Reconciler struct {
	source   *Source
	targets  Targets
	entities []Entity
	logger   *zap.Logger
	dryRun   bool
}

// Option configures a Reconciler.
type Option func(*Reconciler)

// WithDryRun resolves every row without writing.
func WithDryRun(dryRun bool) Option {
	return func(r *Reconciler) {
		r.dryRun = dryRun
	}
}

// WithEntities replaces the default migration plan.
func WithEntities(entities []Entity) Option {
	return func(r *Reconciler) {
		r.entities = entities
	}
}

func New(source *Source, targets Targets, logger *zap.Logger, opts ...Option) *Reconciler {
	if logger == nil {
		logger = zap.NewNop()
	}
	r := &Reconciler{
		source:   source,
		targets:  targets,
		entities: Entities(),
		logger:   logger,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Run migrates every entity. Only a failure to list the legacy tables or a
// cancelled context aborts the run; the report covers the work done so far.
func (r *Reconciler) Run(ctx context.Context) (Report, error) {
	report := Report{DryRun: r.dryRun, Tables: []TableReport{}, Skipped: []string{}}

	tables, err := r.source.Tables(ctx)
	if err != nil {
		return report, fmt.Errorf("list legacy tables: %w", err)
	}
	r.logger.Info("legacy tables found", zap.Strings("tables", tables))

	for _, entity := range r.entities {
		var selected []string
		if entity.EveryTable {
			selected = AllExisting(tables, entity.Tables)
		} else if table, ok := FirstExisting(tables, entity.Tables); ok {
			selected = []string{table}
		}

		if len(selected) == 0 {
			r.logger.Info("entity skipped, no legacy table",
				zap.String("entity", entity.Name),
				zap.Strings("candidates", entity.Tables),
			)
			report.Skipped = append(report.Skipped, entity.Name)
			continue
		}

		for _, table := range selected {
			tableReport, err := r.migrateTable(ctx, entity, table)
			report.Tables = append(report.Tables, tableReport)
			if err != nil {
				return report, err
			}
		}
	}

	found, migrated, failed := report.Totals()
	r.logger.Info("reconciliation finished",
		zap.Bool("dry_run", r.dryRun),
		zap.Int("found", found),
		zap.Int("migrated", migrated),
		zap.Int("failed", failed),
	)
	return report, nil
}

func (r *Reconciler) migrateTable(ctx context.Context, entity Entity, table string) (TableReport, error) {
	report := TableReport{Entity: entity.Name, Table: table}

	rows, err := r.source.Rows(ctx, table)
	if err != nil {
		r.logger.Warn("legacy table unreadable",
			zap.String("entity", entity.Name),
			zap.String("table", table),
			zap.Error(err),
		)
		report.Error = err.Error()
		return report, ctx.Err()
	}
	report.Found = len(rows)

	for _, row := range rows {
		if err := ctx.Err(); err != nil {
			return report, err
		}

		rec := Resolve(row, entity.Fields)
		if err := entity.write(ctx, r.targets, rec, r.dryRun); err != nil {
			report.Failed++
			r.logger.Warn("legacy row not migrated",
				zap.String("entity", entity.Name),
				zap.String("table", table),
				zap.Any("legacy_id", row["id"]),
				zap.Error(err),
			)
			continue
		}
		report.Migrated++
	}

	r.logger.Info("legacy table migrated",
		zap.String("entity", entity.Name),
		zap.String("table", table),
		zap.Int("found", report.Found),
		zap.Int("migrated", report.Migrated),
		zap.Int("failed", report.Failed),
	)
	return report, nil
}
