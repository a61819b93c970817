package httpapi

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"testing"

	"github.com/shopspring/decimal"

	"github.com/ddoherty145/OPP-Equipment-Tracker/report"
	"github.com/ddoherty145/OPP-Equipment-Tracker/store"
)

func seededServer(t *testing.T) (*httptest.Server, *store.Store, int64) {
	t.Helper()
	st := store.OpenTestStore(t)
	ctx := context.Background()

	tx, err := st.Begin(ctx)
	if err != nil {
		t.Fatal(err)
	}
	id, err := tx.UpsertEquipment(ctx, "10125-DL", "Int'l 2275 Dump Truck")
	if err != nil {
		t.Fatal(err)
	}
	c := decimal.RequireFromString("120.00")
	rev := decimal.RequireFromString("450.00")
	_, err = tx.InsertUsageLog(ctx, id, report.UsageLog{
		Date:    "2024-01-15",
		Hours:   decimal.RequireFromString("8.50"),
		Cost:    c,
		Revenue: rev,
		Profit:  rev.Sub(c),
	})
	if err != nil {
		t.Fatal(err)
	}
	if err := tx.Commit(); err != nil {
		t.Fatal(err)
	}

	srv := httptest.NewServer(NewServer(st, nil).Router())
	t.Cleanup(srv.Close)
	return srv, st, id
}

func getJSON(t *testing.T, url string, wantStatus int, into any) {
	t.Helper()
	resp, err := http.Get(url)
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != wantStatus {
		t.Fatalf("GET %s: status %d, want %d", url, resp.StatusCode, wantStatus)
	}
	if into != nil {
		if err := json.NewDecoder(resp.Body).Decode(into); err != nil {
			t.Fatalf("decode %s: %v", url, err)
		}
	}
}

func TestRoot(t *testing.T) {
	srv, _, _ := seededServer(t)
	var body map[string]string
	getJSON(t, srv.URL+"/", http.StatusOK, &body)
	if body["status"] != "running" {
		t.Errorf("status = %q", body["status"])
	}
}

func TestListEquipment(t *testing.T) {
	srv, _, _ := seededServer(t)

	var aggs []store.EquipmentAggregate
	getJSON(t, srv.URL+"/equipment", http.StatusOK, &aggs)

	if len(aggs) != 1 {
		t.Fatalf("expected 1 equipment, got %d", len(aggs))
	}
	a := aggs[0]
	if a.EquipmentID != "10125-DL" || a.LogCount != 1 {
		t.Errorf("aggregate = %+v", a)
	}
	if !a.TotalProfit.Equal(decimal.RequireFromString("330.00")) {
		t.Errorf("TotalProfit = %s", a.TotalProfit)
	}
}

func TestGetEquipmentDetail(t *testing.T) {
	srv, _, id := seededServer(t)

	var body struct {
		Equipment store.Equipment       `json:"equipment"`
		UsageLogs []store.StoredUsageLog `json:"usage_logs"`
	}
	getJSON(t, srv.URL+"/equipment/"+itoa(id), http.StatusOK, &body)

	if body.Equipment.EquipmentID != "10125-DL" {
		t.Errorf("equipment = %+v", body.Equipment)
	}
	if len(body.UsageLogs) != 1 || body.UsageLogs[0].Date != "2024-01-15" {
		t.Errorf("usage_logs = %+v", body.UsageLogs)
	}
}

func TestGetEquipmentNotFound(t *testing.T) {
	srv, _, _ := seededServer(t)
	var body map[string]string
	getJSON(t, srv.URL+"/equipment/99999", http.StatusNotFound, &body)
	if body["detail"] != "Equipment not found" {
		t.Errorf("detail = %q", body["detail"])
	}
}

func TestAnalyticsSummary(t *testing.T) {
	srv, _, _ := seededServer(t)

	var totals store.Totals
	getJSON(t, srv.URL+"/analytics/summary", http.StatusOK, &totals)

	if totals.TotalEquipment != 1 || totals.TotalLogs != 1 {
		t.Errorf("totals = %+v", totals)
	}
	if !totals.TotalRevenue.Equal(decimal.RequireFromString("450.00")) {
		t.Errorf("TotalRevenue = %s", totals.TotalRevenue)
	}
}

func TestCreateUsageLog(t *testing.T) {
	srv, st, id := seededServer(t)

	payload := `{"equipment_id": ` + itoa(id) + `, "date": "2024-02-01", "hours": 3.00, "cost": 50.00, "revenue": 120.00}`
	resp, err := http.Post(srv.URL+"/usage_logs", "application/json", strings.NewReader(payload))
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("status = %d, want 201", resp.StatusCode)
	}

	var created store.StoredUsageLog
	if err := json.NewDecoder(resp.Body).Decode(&created); err != nil {
		t.Fatal(err)
	}
	if !created.Profit.Equal(decimal.RequireFromString("70.00")) {
		t.Errorf("Profit = %s, want 70.00 (server-computed)", created.Profit)
	}

	logs, err := st.ListUsageLogs(context.Background(), id)
	if err != nil {
		t.Fatal(err)
	}
	if len(logs) != 2 {
		t.Errorf("expected 2 logs after create, got %d", len(logs))
	}

	// Replaying the same create is a conflict, not a duplicate row.
	resp2, err := http.Post(srv.URL+"/usage_logs", "application/json", strings.NewReader(payload))
	if err != nil {
		t.Fatal(err)
	}
	defer resp2.Body.Close()
	if resp2.StatusCode != http.StatusConflict {
		t.Errorf("replay status = %d, want 409", resp2.StatusCode)
	}
}

func TestCreateUsageLogBadRequests(t *testing.T) {
	srv, _, id := seededServer(t)

	cases := []string{
		`not json`,
		`{"equipment_id": ` + itoa(id) + `, "date": "01/15/2024", "hours": 1, "cost": 1, "revenue": 2}`,
		`{"equipment_id": ` + itoa(id) + `, "date": "2024-02-01", "hours": -1, "cost": 1, "revenue": 2}`,
	}
	for _, payload := range cases {
		resp, err := http.Post(srv.URL+"/usage_logs", "application/json", strings.NewReader(payload))
		if err != nil {
			t.Fatal(err)
		}
		resp.Body.Close()
		if resp.StatusCode != http.StatusBadRequest {
			t.Errorf("payload %q: status = %d, want 400", payload, resp.StatusCode)
		}
	}

	// Unknown equipment.
	resp, err := http.Post(srv.URL+"/usage_logs", "application/json",
		strings.NewReader(`{"equipment_id": 99999, "date": "2024-02-01", "hours": 1, "cost": 1, "revenue": 2}`))
	if err != nil {
		t.Fatal(err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusNotFound {
		t.Errorf("unknown equipment status = %d, want 404", resp.StatusCode)
	}
}

func itoa(id int64) string {
	return strconv.FormatInt(id, 10)
}
