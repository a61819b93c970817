// Package store persists normalized equipment usage records.
//
// The production backend is PostgreSQL behind a bounded pgx connection pool;
// tests run the same statements against in-memory SQLite. All SQL uses $N
// placeholders in first-occurrence order, which both backends bind
// positionally, and ON CONFLICT clauses both backends resolve atomically.
package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/ddoherty145/OPP-Equipment-Tracker/report"
)

var (
	// ErrNotFound is returned for lookups of absent equipment.
	ErrNotFound = errors.New("equipment not found")
	// ErrDuplicate is returned when a created usage log collides with the
	// natural key of an existing one.
	ErrDuplicate = errors.New("duplicate usage log")
)

// Store wraps the relational database holding equipment and usage logs.
type Store struct {
	db             *sql.DB
	schema         string
	acquireTimeout time.Duration
	closeFns       []func()
}

// DB exposes the underlying handle for health checks.
func (s *Store) DB() *sql.DB { return s.db }

// Close releases the database and its pool.
func (s *Store) Close() error {
	err := s.db.Close()
	for _, fn := range s.closeFns {
		fn()
	}
	return err
}

// EnsureSchema applies the backend's DDL. Development and test convenience;
// production schema ownership is external.
func (s *Store) EnsureSchema(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, s.schema); err != nil {
		return fmt.Errorf("ensure schema: %w", err)
	}
	return nil
}

// Tx is one whole-document load transaction. Everything applied through it
// commits or rolls back as a unit.
type Tx struct {
	tx   *sql.Tx
	conn *sql.Conn
}

// Begin checks a connection out of the pool (blocking at most the configured
// acquire timeout) and opens a transaction on it.
func (s *Store) Begin(ctx context.Context) (*Tx, error) {
	acquireCtx := ctx
	if s.acquireTimeout > 0 {
		var cancel context.CancelFunc
		acquireCtx, cancel = context.WithTimeout(ctx, s.acquireTimeout)
		defer cancel()
	}
	conn, err := s.db.Conn(acquireCtx)
	if err != nil {
		return nil, fmt.Errorf("acquire connection: %w", err)
	}

	tx, err := conn.BeginTx(ctx, nil)
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("begin transaction: %w", err)
	}
	return &Tx{tx: tx, conn: conn}, nil
}

// Commit commits the transaction and returns its connection to the pool.
func (t *Tx) Commit() error {
	err := t.tx.Commit()
	t.conn.Close()
	if err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}

// Rollback discards all pending changes. Safe to call after Commit.
func (t *Tx) Rollback() error {
	err := t.tx.Rollback()
	t.conn.Close()
	if err != nil && !errors.Is(err, sql.ErrTxDone) {
		return fmt.Errorf("rollback: %w", err)
	}
	return nil
}

// UpsertEquipment inserts the equipment or, on an equipment_id conflict,
// refreshes its name and updated_at. The surrogate id comes back either way,
// atomically — two documents racing on a new equipment_id resolve at the
// store, not in the application.
func (t *Tx) UpsertEquipment(ctx context.Context, equipmentID, name string) (int64, error) {
	const q = `
		INSERT INTO equipment (equipment_id, name)
		VALUES ($1, $2)
		ON CONFLICT (equipment_id) DO UPDATE SET
			name = excluded.name,
			updated_at = CURRENT_TIMESTAMP
		RETURNING id`

	var id int64
	if err := t.tx.QueryRowContext(ctx, q, equipmentID, name).Scan(&id); err != nil {
		return 0, fmt.Errorf("upsert equipment %s: %w", equipmentID, err)
	}
	return id, nil
}

// InsertUsageLog inserts one usage log, keyed by the natural key. A conflict
// is a no-op: the log already exists and false is returned.
func (t *Tx) InsertUsageLog(ctx context.Context, equipmentRef int64, entry report.UsageLog) (bool, error) {
	const q = `
		INSERT INTO usage_logs (equipment_id, date, hours, cost, revenue, profit)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (equipment_id, date, hours, cost, revenue) DO NOTHING`

	res, err := t.tx.ExecContext(ctx, q,
		equipmentRef, entry.Date, entry.Hours, entry.Cost, entry.Revenue, entry.Profit)
	if err != nil {
		return false, fmt.Errorf("insert usage log %s: %w", entry.Date, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("insert usage log %s: %w", entry.Date, err)
	}
	return n > 0, nil
}

// Equipment is one stored equipment row.
type Equipment struct {
	ID          int64  `json:"id"`
	EquipmentID string `json:"equipment_id"`
	Name        string `json:"name"`
	CreatedAt   string `json:"created_at"`
	UpdatedAt   string `json:"updated_at"`
}

// StoredUsageLog is one stored usage log row.
type StoredUsageLog struct {
	ID           int64           `json:"id"`
	EquipmentRef int64           `json:"equipment_id"`
	Date         string          `json:"date"`
	Hours        decimal.Decimal `json:"hours"`
	Cost         decimal.Decimal `json:"cost"`
	Revenue      decimal.Decimal `json:"revenue"`
	Profit       decimal.Decimal `json:"profit"`
}

// EquipmentAggregate is one equipment row with its usage totals.
type EquipmentAggregate struct {
	ID           int64           `json:"id"`
	EquipmentID  string          `json:"equipment_id"`
	Name         string          `json:"name"`
	LogCount     int64           `json:"log_count"`
	TotalHours   decimal.Decimal `json:"total_hours"`
	TotalCost    decimal.Decimal `json:"total_cost"`
	TotalRevenue decimal.Decimal `json:"total_revenue"`
	TotalProfit  decimal.Decimal `json:"total_profit"`
}

// Totals is the fleet-wide aggregate.
type Totals struct {
	TotalEquipment int64           `json:"total_equipment"`
	TotalLogs      int64           `json:"total_logs"`
	TotalHours     decimal.Decimal `json:"total_hours"`
	TotalCost      decimal.Decimal `json:"total_cost"`
	TotalRevenue   decimal.Decimal `json:"total_revenue"`
	TotalProfit    decimal.Decimal `json:"total_profit"`
	AvgHoursPerLog decimal.Decimal `json:"avg_hours_per_log"`
}

// EquipmentAggregates returns every equipment row with its log count and
// summed hours/cost/revenue/profit, ordered by external id. Read-only.
func (s *Store) EquipmentAggregates(ctx context.Context) ([]EquipmentAggregate, error) {
	const q = `
		SELECT e.id, e.equipment_id, e.name,
		       COUNT(ul.id),
		       COALESCE(SUM(ul.hours), 0),
		       COALESCE(SUM(ul.cost), 0),
		       COALESCE(SUM(ul.revenue), 0),
		       COALESCE(SUM(ul.profit), 0)
		FROM equipment e
		LEFT JOIN usage_logs ul ON e.id = ul.equipment_id
		GROUP BY e.id, e.equipment_id, e.name
		ORDER BY e.equipment_id`

	rows, err := s.db.QueryContext(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("equipment aggregates: %w", err)
	}
	defer rows.Close()

	var out []EquipmentAggregate
	for rows.Next() {
		var a EquipmentAggregate
		if err := rows.Scan(&a.ID, &a.EquipmentID, &a.Name, &a.LogCount,
			&a.TotalHours, &a.TotalCost, &a.TotalRevenue, &a.TotalProfit); err != nil {
			return nil, fmt.Errorf("equipment aggregates: %w", err)
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

// SummaryTotals returns the fleet-wide totals.
func (s *Store) SummaryTotals(ctx context.Context) (Totals, error) {
	const q = `
		SELECT COUNT(DISTINCT e.id),
		       COUNT(ul.id),
		       COALESCE(SUM(ul.hours), 0),
		       COALESCE(SUM(ul.cost), 0),
		       COALESCE(SUM(ul.revenue), 0),
		       COALESCE(SUM(ul.profit), 0),
		       COALESCE(AVG(ul.hours), 0)
		FROM equipment e
		LEFT JOIN usage_logs ul ON e.id = ul.equipment_id`

	var t Totals
	err := s.db.QueryRowContext(ctx, q).Scan(&t.TotalEquipment, &t.TotalLogs,
		&t.TotalHours, &t.TotalCost, &t.TotalRevenue, &t.TotalProfit, &t.AvgHoursPerLog)
	if err != nil {
		return Totals{}, fmt.Errorf("summary totals: %w", err)
	}
	return t, nil
}

// GetEquipment returns one equipment row by surrogate id.
func (s *Store) GetEquipment(ctx context.Context, id int64) (*Equipment, error) {
	const q = `
		SELECT id, equipment_id, name,
		       CAST(created_at AS TEXT), CAST(updated_at AS TEXT)
		FROM equipment WHERE id = $1`

	var e Equipment
	err := s.db.QueryRowContext(ctx, q, id).Scan(&e.ID, &e.EquipmentID, &e.Name, &e.CreatedAt, &e.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get equipment %d: %w", id, err)
	}
	return &e, nil
}

// ListUsageLogs returns all logs for one equipment, newest first.
func (s *Store) ListUsageLogs(ctx context.Context, equipmentRef int64) ([]StoredUsageLog, error) {
	const q = `
		SELECT id, equipment_id, CAST(date AS TEXT), hours, cost, revenue, profit
		FROM usage_logs
		WHERE equipment_id = $1
		ORDER BY date DESC, id DESC`

	rows, err := s.db.QueryContext(ctx, q, equipmentRef)
	if err != nil {
		return nil, fmt.Errorf("list usage logs: %w", err)
	}
	defer rows.Close()

	var out []StoredUsageLog
	for rows.Next() {
		var l StoredUsageLog
		if err := rows.Scan(&l.ID, &l.EquipmentRef, &l.Date,
			&l.Hours, &l.Cost, &l.Revenue, &l.Profit); err != nil {
			return nil, fmt.Errorf("list usage logs: %w", err)
		}
		out = append(out, l)
	}
	return out, rows.Err()
}

// CreateUsageLog inserts a single usage log outside the import pipeline
// (read-API write path). Profit is recomputed; a natural-key collision is
// ErrDuplicate; an unknown equipment ref is ErrNotFound.
func (s *Store) CreateUsageLog(ctx context.Context, equipmentRef int64, date string, hours, cost, revenue decimal.Decimal) (*StoredUsageLog, error) {
	var exists int
	err := s.db.QueryRowContext(ctx, `SELECT 1 FROM equipment WHERE id = $1`, equipmentRef).Scan(&exists)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("check equipment %d: %w", equipmentRef, err)
	}

	profit := revenue.Sub(cost)

	const q = `
		INSERT INTO usage_logs (equipment_id, date, hours, cost, revenue, profit)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (equipment_id, date, hours, cost, revenue) DO NOTHING
		RETURNING id`

	var id int64
	err = s.db.QueryRowContext(ctx, q, equipmentRef, date, hours, cost, revenue, profit).Scan(&id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrDuplicate
	}
	if err != nil {
		return nil, fmt.Errorf("create usage log: %w", err)
	}

	return &StoredUsageLog{
		ID:           id,
		EquipmentRef: equipmentRef,
		Date:         date,
		Hours:        hours,
		Cost:         cost,
		Revenue:      revenue,
		Profit:       profit,
	}, nil
}
