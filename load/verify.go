package load

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/ddoherty145/OPP-Equipment-Tracker/store"
)

// Reader is the read-only aggregate surface the verifier consumes.
// *store.Store satisfies it.
type Reader interface {
	EquipmentAggregates(ctx context.Context) ([]store.EquipmentAggregate, error)
	SummaryTotals(ctx context.Context) (store.Totals, error)
}

// Report is the post-load verification result: committed per-equipment
// aggregates plus the grand total. Purely observational.
type Report struct {
	Rows   []store.EquipmentAggregate
	Totals store.Totals
}

// Empty reports whether storage holds no equipment at all.
func (r *Report) Empty() bool { return len(r.Rows) == 0 }

// Verify re-reads aggregated totals from storage for operator sanity
// checking. It must run after the load transaction commits; it reflects
// committed state only and is safe to run repeatedly.
func Verify(ctx context.Context, reader Reader) (*Report, error) {
	rows, err := reader.EquipmentAggregates(ctx)
	if err != nil {
		return nil, fmt.Errorf("verify aggregates: %w", err)
	}
	totals, err := reader.SummaryTotals(ctx)
	if err != nil {
		return nil, fmt.Errorf("verify totals: %w", err)
	}
	return &Report{Rows: rows, Totals: totals}, nil
}

// Render writes the report as an aligned operator table.
func (r *Report) Render(w io.Writer) {
	if r.Empty() {
		fmt.Fprintln(w, "No data found in database")
		return
	}

	fmt.Fprintf(w, "%-15s %-30s %-8s %-10s %-12s %-12s\n",
		"Equipment ID", "Name", "Logs", "Hours", "Revenue", "Profit")
	fmt.Fprintln(w, strings.Repeat("-", 95))

	for _, row := range r.Rows {
		name := row.Name
		if len(name) > 30 {
			name = name[:28] + "..."
		}
		fmt.Fprintf(w, "%-15s %-30s %-8d %-10s $%-11s $%-11s\n",
			row.EquipmentID, name, row.LogCount,
			row.TotalHours.StringFixed(2),
			row.TotalRevenue.StringFixed(2),
			row.TotalProfit.StringFixed(2))
	}

	fmt.Fprintln(w, strings.Repeat("-", 95))
	fmt.Fprintf(w, "%-15s %-30s %-8d %-10s $%-11s $%-11s\n",
		"TOTAL", "", r.Totals.TotalLogs,
		r.Totals.TotalHours.StringFixed(2),
		r.Totals.TotalRevenue.StringFixed(2),
		r.Totals.TotalProfit.StringFixed(2))
}
