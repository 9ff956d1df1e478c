package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"path/filepath"
	"testing"

	"github.com/hankyul/CommitteeGo/pkg/schema"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	store, err := Open(filepath.Join(t.TempDir(), "data", "committee.db"), nil)
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func TestUpsertMarketDailyPreservesNull(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()

	kospi := -1.44
	rec := MarketDailyRecord{Date: "2025-01-15", KospiPct: &kospi}
	if err := store.UpsertMarketDaily(ctx, rec); err != nil {
		t.Fatalf("upsert: %v", err)
	}

	var gotKospi, gotVix any
	row := store.db.QueryRow(`SELECT kospi_pct, vix FROM market_daily WHERE date = '2025-01-15'`)
	if err := row.Scan(&gotKospi, &gotVix); err != nil {
		t.Fatalf("scan: %v", err)
	}
	if gotKospi != -1.44 {
		t.Errorf("kospi_pct = %v", gotKospi)
	}
	if gotVix != nil {
		t.Errorf("vix should be NULL, got %v", gotVix)
	}
}

func TestUpsertMarketDailyReplacesRow(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()

	first := 1.0
	second := 2.5
	if err := store.UpsertMarketDaily(ctx, MarketDailyRecord{Date: "2025-01-15", KospiPct: &first}); err != nil {
		t.Fatalf("first upsert: %v", err)
	}
	if err := store.UpsertMarketDaily(ctx, MarketDailyRecord{Date: "2025-01-15", KospiPct: &second}); err != nil {
		t.Fatalf("second upsert: %v", err)
	}

	var got float64
	if err := store.db.QueryRow(`SELECT kospi_pct FROM market_daily WHERE date = '2025-01-15'`).Scan(&got); err != nil {
		t.Fatalf("scan: %v", err)
	}
	if got != 2.5 {
		t.Errorf("kospi_pct = %v, want 2.5", got)
	}
}

func TestFlowRollingSums(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()

	// 19 days of history: neither window is complete yet.
	for day := 1; day <= 19; day++ {
		net := 100.0
		date := fmt.Sprintf("2025-01-%02d", day)
		if err := store.UpsertMarketFlowDaily(ctx, date, &net); err != nil {
			t.Fatalf("upsert day %d: %v", day, err)
		}
	}
	rows, err := store.GetLastNMarketFlow(ctx, 1)
	if err != nil {
		t.Fatalf("get flows: %v", err)
	}
	if rows[0].Foreign20d != nil {
		t.Errorf("20d sum should be NULL with 19 rows, got %v", *rows[0].Foreign20d)
	}

	// The 20th day completes the short window but not the long one.
	net := 100.0
	if err := store.UpsertMarketFlowDaily(ctx, "2025-01-20", &net); err != nil {
		t.Fatalf("upsert day 20: %v", err)
	}
	rows, err = store.GetLastNMarketFlow(ctx, 1)
	if err != nil {
		t.Fatalf("get flows: %v", err)
	}
	if rows[0].Foreign20d == nil || *rows[0].Foreign20d != 2000.0 {
		t.Errorf("20d sum = %v, want 2000", rows[0].Foreign20d)
	}
	if rows[0].Foreign60d != nil {
		t.Errorf("60d sum should be NULL with 20 rows, got %v", *rows[0].Foreign60d)
	}
}

func TestFlowRollingSumSkipsNullWindow(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()

	// One NULL inside the window keeps the rolling sum NULL.
	for day := 1; day <= 20; day++ {
		date := fmt.Sprintf("2025-02-%02d", day)
		var net *float64
		if day != 10 {
			v := 50.0
			net = &v
		}
		if err := store.UpsertMarketFlowDaily(ctx, date, net); err != nil {
			t.Fatalf("upsert day %d: %v", day, err)
		}
	}

	rows, err := store.GetLastNMarketFlow(ctx, 1)
	if err != nil {
		t.Fatalf("get flows: %v", err)
	}
	if rows[0].Foreign20d != nil {
		t.Errorf("20d sum over a window with a NULL should stay NULL, got %v", *rows[0].Foreign20d)
	}
}

func TestUpsertMacroTables(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()

	us10y := 4.25
	fedFunds := 4.5
	if err := store.UpsertDailyMacro(ctx, "2025-01-15",
		schema.MacroDaily{US10Y: &us10y},
		schema.MacroStructural{FedFundsRate: &fedFunds}); err != nil {
		t.Fatalf("daily macro: %v", err)
	}

	cpi := 2.9
	if err := store.UpsertMonthlyMacro(ctx, "2025-01-15", schema.MacroMonthly{CPIYoY: &cpi}); err != nil {
		t.Fatalf("monthly macro: %v", err)
	}
	gdp := 2.3
	if err := store.UpsertQuarterlyMacro(ctx, "2025-01-15", schema.MacroQuarterly{GDPQoQAnnualized: &gdp}); err != nil {
		t.Fatalf("quarterly macro: %v", err)
	}

	var gotRate, gotUS2Y any
	row := store.db.QueryRow(`SELECT fed_funds_rate, us2y FROM daily_macro WHERE date = '2025-01-15'`)
	if err := row.Scan(&gotRate, &gotUS2Y); err != nil {
		t.Fatalf("scan: %v", err)
	}
	if gotRate != 4.5 {
		t.Errorf("fed_funds_rate = %v", gotRate)
	}
	if gotUS2Y != nil {
		t.Errorf("us2y should be NULL, got %v", gotUS2Y)
	}
}

func TestSaveSnapshotPersistsSeries(t *testing.T) {
	store := openTestStore(t)

	snapshot := &schema.Snapshot{
		AsOfDate: "2025-01-15",
		Markets: schema.Markets{
			KR: schema.MarketsKR{KospiPct: -1.44},
			FX: schema.MarketsFX{USDKRW: 1465.09},
		},
		FlowSummary: schema.FlowSummary{ForeignNet: -2950},
	}
	status := map[string]string{"markets": "OK", "flows": "OK"}
	store.SaveSnapshot(context.Background(), snapshot, status)

	var count int
	if err := store.db.QueryRow(`SELECT COUNT(*) FROM market_daily`).Scan(&count); err != nil {
		t.Fatalf("count: %v", err)
	}
	if count != 1 {
		t.Errorf("market_daily rows = %d", count)
	}
	var usdkrw sql.NullFloat64
	if err := store.db.QueryRow(`SELECT usdkrw FROM market_daily`).Scan(&usdkrw); err != nil {
		t.Fatalf("select usdkrw: %v", err)
	}
	if !usdkrw.Valid || usdkrw.Float64 != 1465.09 {
		t.Errorf("usdkrw = %+v, want 1465.09", usdkrw)
	}
	if err := store.db.QueryRow(`SELECT COUNT(*) FROM daily_macro`).Scan(&count); err != nil {
		t.Fatalf("count: %v", err)
	}
	if count != 0 {
		t.Errorf("daily_macro rows = %d with nil macro block", count)
	}
}

func TestSaveSnapshotStoresNullForFailedSources(t *testing.T) {
	store := openTestStore(t)

	// An all-sentinel snapshot: every provider failed, values are 0.0 fillers.
	snapshot := &schema.Snapshot{
		AsOfDate:    "2025-01-16",
		FlowSummary: schema.FlowSummary{Note: "flows_fetch_failed: unavailable"},
	}
	status := map[string]string{"markets": "FAIL", "flows": "FAIL"}
	store.SaveSnapshot(context.Background(), snapshot, status)

	var usdkrw, kospi, foreignNet sql.NullFloat64
	row := store.db.QueryRow(`SELECT usdkrw, kospi_pct FROM market_daily WHERE date = ?`, "2025-01-16")
	if err := row.Scan(&usdkrw, &kospi); err != nil {
		t.Fatalf("select market_daily: %v", err)
	}
	if usdkrw.Valid {
		t.Errorf("usdkrw stored as %v, want NULL for a failed fetch", usdkrw.Float64)
	}
	if kospi.Valid {
		t.Errorf("kospi_pct stored as %v, want NULL for a failed fetch", kospi.Float64)
	}
	row = store.db.QueryRow(`SELECT foreign_net FROM market_flow_daily WHERE date = ?`, "2025-01-16")
	if err := row.Scan(&foreignNet); err != nil {
		t.Fatalf("select market_flow_daily: %v", err)
	}
	if foreignNet.Valid {
		t.Errorf("foreign_net stored as %v, want NULL for a failed fetch", foreignNet.Float64)
	}
}

func TestOpenRequiresPath(t *testing.T) {
	if _, err := Open("  ", nil); err == nil {
		t.Fatal("expected error for blank path")
	}
}
