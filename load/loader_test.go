package load

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/shopspring/decimal"

	"github.com/ddoherty145/OPP-Equipment-Tracker/report"
	"github.com/ddoherty145/OPP-Equipment-Tracker/store"
)

// fakeBackend is an in-memory Backend with staged transactions, so rollback
// and commit semantics can be asserted without a database.
type fakeBackend struct {
	equipment map[string]int64          // equipment_id -> surrogate id
	names     map[int64]string
	logs      map[string]bool           // natural key -> present
	nextID    int64
	begun     int

	failUpsert string // equipment_id that errors on upsert
	failInsert string // date that errors on insert
}

func newFakeBackend() *fakeBackend {
	return &fakeBackend{
		equipment: map[string]int64{},
		names:     map[int64]string{},
		logs:      map[string]bool{},
	}
}

func (b *fakeBackend) Begin(ctx context.Context) (Tx, error) {
	b.begun++
	return &fakeTx{
		backend:   b,
		equipment: map[string]int64{},
		names:     map[int64]string{},
		logs:      map[string]bool{},
	}, nil
}

type fakeTx struct {
	backend    *fakeBackend
	equipment  map[string]int64
	names      map[int64]string
	logs       map[string]bool
	committed  bool
	rolledBack bool
}

func (t *fakeTx) UpsertEquipment(ctx context.Context, equipmentID, name string) (int64, error) {
	if equipmentID == t.backend.failUpsert {
		return 0, errors.New("storage unavailable")
	}
	id, ok := t.backend.equipment[equipmentID]
	if !ok {
		id, ok = t.equipment[equipmentID]
	}
	if !ok {
		t.backend.nextID++
		id = t.backend.nextID
		t.equipment[equipmentID] = id
	}
	t.names[id] = name
	return id, nil
}

func (t *fakeTx) InsertUsageLog(ctx context.Context, ref int64, entry report.UsageLog) (bool, error) {
	if entry.Date == t.backend.failInsert {
		return false, errors.New("constraint violation")
	}
	key := fmt.Sprintf("%d|%s|%s|%s|%s", ref, entry.Date,
		entry.Hours.String(), entry.Cost.String(), entry.Revenue.String())
	if t.backend.logs[key] || t.logs[key] {
		return false, nil
	}
	t.logs[key] = true
	return true, nil
}

func (t *fakeTx) Commit() error {
	t.committed = true
	for k, v := range t.equipment {
		t.backend.equipment[k] = v
	}
	for k, v := range t.names {
		t.backend.names[k] = v
	}
	for k := range t.logs {
		t.backend.logs[k] = true
	}
	return nil
}

func (t *fakeTx) Rollback() error {
	t.rolledBack = true
	return nil
}

func mustLog(t *testing.T, date, hours, cost, revenue string) report.UsageLog {
	t.Helper()
	h := decimal.RequireFromString(hours)
	c := decimal.RequireFromString(cost)
	r := decimal.RequireFromString(revenue)
	return report.UsageLog{Date: date, Hours: h, Cost: c, Revenue: r, Profit: r.Sub(c)}
}

func sampleExtraction(t *testing.T) *report.Extraction {
	t.Helper()
	return &report.Extraction{
		Equipment: []*report.EquipmentUsage{
			{
				EquipmentID: "10125-DL",
				Name:        "Int'l 2275 Dump Truck",
				Logs: []report.UsageLog{
					mustLog(t, "2024-01-15", "8.50", "120.00", "450.00"),
					mustLog(t, "2024-01-16", "4.00", "60.00", "200.00"),
				},
			},
			{
				EquipmentID: "EX-200",
				Name:        "Excavator 200",
				Logs: []report.UsageLog{
					mustLog(t, "2024-01-17", "2.00", "30.00", "90.00"),
				},
			},
		},
	}
}

func TestLoadCounts(t *testing.T) {
	backend := newFakeBackend()
	sum, err := New(backend, nil).Load(context.Background(), sampleExtraction(t), Options{})
	if err != nil {
		t.Fatal(err)
	}

	if sum.Equipment != 2 || sum.LogsInserted != 3 || sum.LogsSkipped != 0 {
		t.Errorf("summary = %+v", sum)
	}
	if sum.RunID == "" {
		t.Error("expected a run id")
	}
	if len(backend.equipment) != 2 || len(backend.logs) != 3 {
		t.Errorf("backend state: %d equipment, %d logs", len(backend.equipment), len(backend.logs))
	}
}

func TestLoadRerunSkipsDuplicates(t *testing.T) {
	backend := newFakeBackend()
	loader := New(backend, nil)
	ctx := context.Background()

	if _, err := loader.Load(ctx, sampleExtraction(t), Options{}); err != nil {
		t.Fatal(err)
	}
	sum, err := loader.Load(ctx, sampleExtraction(t), Options{})
	if err != nil {
		t.Fatal(err)
	}

	if sum.LogsInserted != 0 {
		t.Errorf("LogsInserted = %d, want 0 on re-run", sum.LogsInserted)
	}
	if sum.LogsSkipped != 3 {
		t.Errorf("LogsSkipped = %d, want 3 on re-run", sum.LogsSkipped)
	}
	if len(backend.logs) != 3 {
		t.Errorf("re-run duplicated logs: %d", len(backend.logs))
	}
}

func TestLoadDryRun(t *testing.T) {
	backend := newFakeBackend()
	ex := sampleExtraction(t)
	ex.Stats.BadDates = 1

	sum, err := New(backend, nil).Load(context.Background(), ex, Options{DryRun: true})
	if err != nil {
		t.Fatal(err)
	}

	if backend.begun != 0 {
		t.Error("dry run must not begin a transaction")
	}
	if sum.Equipment != 2 || sum.LogsInserted != 3 {
		t.Errorf("dry-run intended counts = %+v", sum)
	}
	if sum.RowsRejected != 1 {
		t.Errorf("RowsRejected = %d, want 1", sum.RowsRejected)
	}
	if !sum.DryRun {
		t.Error("summary must be flagged as dry run")
	}
}

func TestLoadEmptyExtraction(t *testing.T) {
	backend := newFakeBackend()
	sum, err := New(backend, nil).Load(context.Background(), &report.Extraction{}, Options{})
	if err != nil {
		t.Fatal(err)
	}
	if backend.begun != 0 {
		t.Error("empty extraction must not touch storage")
	}
	if sum.Equipment != 0 || sum.LogsInserted != 0 {
		t.Errorf("summary = %+v", sum)
	}
}

func TestLoadStorageErrorRollsBackWholeDocument(t *testing.T) {
	backend := newFakeBackend()
	backend.failInsert = "2024-01-17" // last log of the second equipment

	_, err := New(backend, nil).Load(context.Background(), sampleExtraction(t), Options{})
	if err == nil {
		t.Fatal("expected storage error to be fatal")
	}
	if len(backend.equipment) != 0 || len(backend.logs) != 0 {
		t.Errorf("partial document committed: %d equipment, %d logs",
			len(backend.equipment), len(backend.logs))
	}
}

func TestLoadIdempotentAgainstSQL(t *testing.T) {
	st := store.OpenTestStore(t)
	loader := New(StoreBackend(st), nil)
	ctx := context.Background()

	first, err := loader.Load(ctx, sampleExtraction(t), Options{})
	if err != nil {
		t.Fatal(err)
	}
	if first.Equipment != 2 || first.LogsInserted != 3 {
		t.Fatalf("first run summary = %+v", first)
	}

	second, err := loader.Load(ctx, sampleExtraction(t), Options{})
	if err != nil {
		t.Fatal(err)
	}
	if second.LogsInserted != 0 || second.LogsSkipped != 3 {
		t.Fatalf("second run summary = %+v", second)
	}

	aggs, err := st.EquipmentAggregates(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if len(aggs) != 2 {
		t.Fatalf("expected 2 equipment rows after re-run, got %d", len(aggs))
	}
	var logs int64
	for _, a := range aggs {
		logs += a.LogCount
	}
	if logs != 3 {
		t.Errorf("expected 3 usage logs after re-run, got %d", logs)
	}
}

func TestVerifyAfterLoad(t *testing.T) {
	st := store.OpenTestStore(t)
	ctx := context.Background()

	if _, err := New(StoreBackend(st), nil).Load(ctx, sampleExtraction(t), Options{}); err != nil {
		t.Fatal(err)
	}

	rep, err := Verify(ctx, st)
	if err != nil {
		t.Fatal(err)
	}
	if rep.Empty() {
		t.Fatal("expected committed rows")
	}

	var hours, profit decimal.Decimal
	for _, row := range rep.Rows {
		hours = hours.Add(row.TotalHours)
		profit = profit.Add(row.TotalProfit)
	}
	if !rep.Totals.TotalHours.Equal(hours) {
		t.Errorf("grand total hours %s != sum %s", rep.Totals.TotalHours, hours)
	}
	if !rep.Totals.TotalProfit.Equal(profit) {
		t.Errorf("grand total profit %s != sum %s", rep.Totals.TotalProfit, profit)
	}

	var sb strings.Builder
	rep.Render(&sb)
	out := sb.String()
	if !strings.Contains(out, "10125-DL") || !strings.Contains(out, "TOTAL") {
		t.Errorf("unexpected report rendering:\n%s", out)
	}
}

func TestVerifyEmptyStore(t *testing.T) {
	st := store.OpenTestStore(t)
	rep, err := Verify(context.Background(), st)
	if err != nil {
		t.Fatal(err)
	}
	if !rep.Empty() {
		t.Error("expected empty report")
	}

	var sb strings.Builder
	rep.Render(&sb)
	if !strings.Contains(sb.String(), "No data found") {
		t.Errorf("unexpected empty rendering: %q", sb.String())
	}
}
