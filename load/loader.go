// Package load applies an in-memory extraction result to persistent storage
// and verifies the committed state afterwards.
package load

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"github.com/ddoherty145/OPP-Equipment-Tracker/report"
)

// Tx is one whole-document load transaction.
type Tx interface {
	UpsertEquipment(ctx context.Context, equipmentID, name string) (int64, error)
	InsertUsageLog(ctx context.Context, equipmentRef int64, entry report.UsageLog) (bool, error)
	Commit() error
	Rollback() error
}

// Backend is the storage handle the loader is written against. The SQL store
// implements it; tests substitute in-memory fakes.
type Backend interface {
	Begin(ctx context.Context) (Tx, error)
}

// Options control a single load run.
type Options struct {
	// DryRun reports intended counts without issuing any mutating calls.
	DryRun bool
}

// Summary is the operator-facing outcome of one load run.
type Summary struct {
	RunID        string
	DryRun       bool
	Equipment    int // equipment upserted
	LogsInserted int
	LogsSkipped  int // duplicate natural key, no-op
	RowsRejected int // malformed/orphaned rows dropped during parsing
}

// Loader writes extraction results to a storage backend.
type Loader struct {
	backend Backend
	logger  *slog.Logger
}

// New creates a Loader. A nil logger falls back to slog.Default.
func New(backend Backend, logger *slog.Logger) *Loader {
	if logger == nil {
		logger = slog.Default()
	}
	return &Loader{backend: backend, logger: logger}
}

// Load applies one document's extraction as a single transaction: every
// equipment upserted, every log inserted or skipped, then one commit. Any
// storage error rolls the whole document back — partial documents are never
// committed. An empty extraction touches storage not at all.
func (l *Loader) Load(ctx context.Context, ex *report.Extraction, opts Options) (Summary, error) {
	sum := Summary{
		RunID:        uuid.NewString(),
		DryRun:       opts.DryRun,
		RowsRejected: ex.Stats.Rejected(),
	}
	logger := l.logger.With("run_id", sum.RunID, "dry_run", opts.DryRun)

	if ex.Empty() {
		logger.Info("no equipment data to load")
		return sum, nil
	}

	if opts.DryRun {
		sum.Equipment = len(ex.Equipment)
		sum.LogsInserted = ex.TotalLogs()
		logger.Info("dry run, skipping storage",
			"equipment", sum.Equipment, "logs", sum.LogsInserted)
		return sum, nil
	}

	tx, err := l.backend.Begin(ctx)
	if err != nil {
		return sum, fmt.Errorf("begin load: %w", err)
	}

	if err := l.loadAll(ctx, tx, ex, &sum, logger); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil {
			logger.Error("rollback failed", "error", rbErr)
		}
		return sum, err
	}
	if err := tx.Commit(); err != nil {
		return sum, fmt.Errorf("commit load: %w", err)
	}

	logger.Info("load committed",
		"equipment", sum.Equipment,
		"logs_inserted", sum.LogsInserted,
		"logs_skipped", sum.LogsSkipped,
		"rows_rejected", sum.RowsRejected)
	return sum, nil
}

func (l *Loader) loadAll(ctx context.Context, tx Tx, ex *report.Extraction, sum *Summary, logger *slog.Logger) error {
	for _, eq := range ex.Equipment {
		ref, err := tx.UpsertEquipment(ctx, eq.EquipmentID, eq.Name)
		if err != nil {
			return fmt.Errorf("equipment %s: %w", eq.EquipmentID, err)
		}
		sum.Equipment++

		inserted, skipped := 0, 0
		for _, entry := range eq.Logs {
			ok, err := tx.InsertUsageLog(ctx, ref, entry)
			if err != nil {
				return fmt.Errorf("equipment %s log %s: %w", eq.EquipmentID, entry.Date, err)
			}
			if ok {
				inserted++
			} else {
				skipped++
			}
		}
		sum.LogsInserted += inserted
		sum.LogsSkipped += skipped

		logger.Info("equipment loaded",
			"equipment_id", eq.EquipmentID,
			"db_id", ref,
			"logs_inserted", inserted,
			"logs_skipped", skipped)
	}
	return nil
}
