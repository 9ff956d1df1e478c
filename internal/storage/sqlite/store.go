// Package sqlite persists daily market and macro series for downstream jobs.
// The schema is NULL-based: a missing value is stored as NULL, never as a 0.0
// placeholder, so real zeros stay distinguishable from fetch failures.
package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	_ "github.com/mattn/go-sqlite3"
	"go.uber.org/zap"

	"github.com/hankyul/CommitteeGo/pkg/schema"
)

type Store struct {
	db     *sql.DB
	logger *zap.Logger
}

// MarketDailyRecord is one day of index and FX moves. Nil means NULL.
type MarketDailyRecord struct {
	Date      string
	KospiPct  *float64
	KosdaqPct *float64
	SP500Pct  *float64
	NasdaqPct *float64
	DowPct    *float64
	USDKRW    *float64
	USDKRWPct *float64
	US10Y     *float64
	VIX       *float64
}

// FlowRow is one market_flow_daily row.
type FlowRow struct {
	Date       string
	ForeignNet *float64
	Foreign20d *float64
	Foreign60d *float64
}

// Open creates or opens the database and ensures the schema exists.
func Open(dbPath string, logger *zap.Logger) (*Store, error) {
	if strings.TrimSpace(dbPath) == "" {
		return nil, fmt.Errorf("db path is required")
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil {
		return nil, fmt.Errorf("create db dir: %w", err)
	}

	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}

	pragmas := []string{
		"PRAGMA journal_mode=WAL;",
		"PRAGMA busy_timeout=3000;",
		"PRAGMA synchronous=NORMAL;",
		"PRAGMA foreign_keys=ON;",
	}
	for _, p := range pragmas {
		if _, err := db.Exec(p); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("set pragma %s: %w", p, err)
		}
	}

	if err := initSchema(db); err != nil {
		_ = db.Close()
		return nil, err
	}

	return &Store{db: db, logger: logger}, nil
}

func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

func initSchema(db *sql.DB) error {
	ddl := `
CREATE TABLE IF NOT EXISTS market_daily (
    date TEXT PRIMARY KEY,
    kospi_pct REAL,
    kosdaq_pct REAL,
    sp500_pct REAL,
    nasdaq_pct REAL,
    dow_pct REAL,
    usdkrw REAL,
    usdkrw_pct REAL,
    us10y REAL,
    vix REAL,
    created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
);

CREATE TABLE IF NOT EXISTS market_flow_daily (
    date TEXT PRIMARY KEY,
    foreign_net REAL,
    foreign_20d REAL,
    foreign_60d REAL,
    created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
);

CREATE TABLE IF NOT EXISTS daily_macro (
    date TEXT PRIMARY KEY,
    us10y REAL,
    us2y REAL,
    spread_2_10 REAL,
    vix REAL,
    dxy REAL,
    usdkrw REAL,
    fed_funds_rate REAL,
    real_rate REAL,
    created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
);

CREATE TABLE IF NOT EXISTS monthly_macro (
    date TEXT PRIMARY KEY,
    unemployment_rate REAL,
    cpi_yoy REAL,
    core_cpi_yoy REAL,
    pce_yoy REAL,
    pmi REAL,
    wage_level REAL,
    wage_yoy REAL,
    created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
);

CREATE TABLE IF NOT EXISTS quarterly_macro (
    date TEXT PRIMARY KEY,
    real_gdp REAL,
    gdp_qoq_annualized REAL,
    created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
);
`
	if _, err := db.Exec(ddl); err != nil {
		return fmt.Errorf("init schema: %w", err)
	}
	return nil
}

// UpsertMarketDaily stores one day of index and FX moves.
func (s *Store) UpsertMarketDaily(ctx context.Context, rec MarketDailyRecord) error {
	if rec.Date == "" {
		return fmt.Errorf("market daily date is required")
	}
	_, err := s.db.ExecContext(ctx, `
INSERT INTO market_daily (date, kospi_pct, kosdaq_pct, sp500_pct, nasdaq_pct, dow_pct, usdkrw, usdkrw_pct, us10y, vix)
VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
ON CONFLICT(date) DO UPDATE SET
    kospi_pct=excluded.kospi_pct,
    kosdaq_pct=excluded.kosdaq_pct,
    sp500_pct=excluded.sp500_pct,
    nasdaq_pct=excluded.nasdaq_pct,
    dow_pct=excluded.dow_pct,
    usdkrw=excluded.usdkrw,
    usdkrw_pct=excluded.usdkrw_pct,
    us10y=excluded.us10y,
    vix=excluded.vix
`, rec.Date, nullable(rec.KospiPct), nullable(rec.KosdaqPct), nullable(rec.SP500Pct),
		nullable(rec.NasdaqPct), nullable(rec.DowPct), nullable(rec.USDKRW),
		nullable(rec.USDKRWPct), nullable(rec.US10Y), nullable(rec.VIX))
	if err != nil {
		return fmt.Errorf("upsert market_daily: %w", err)
	}
	return nil
}

// UpsertMarketFlowDaily stores the foreign net flow for one day and refreshes
// the 20d/60d rolling sums for that row.
func (s *Store) UpsertMarketFlowDaily(ctx context.Context, date string, foreignNet *float64) error {
	if date == "" {
		return fmt.Errorf("flow date is required")
	}
	_, err := s.db.ExecContext(ctx, `
INSERT INTO market_flow_daily (date, foreign_net)
VALUES (?, ?)
ON CONFLICT(date) DO UPDATE SET
    foreign_net=excluded.foreign_net
`, date, nullable(foreignNet))
	if err != nil {
		return fmt.Errorf("upsert market_flow_daily: %w", err)
	}
	return s.updateFlowRollings(ctx, date)
}

// rollingSum returns the sum of foreign_net over the last n rows, or nil when
// the window holds fewer than n non-NULL values. Insufficient history stays
// NULL rather than masquerading as a small sum.
func (s *Store) rollingSum(ctx context.Context, n int) (*float64, error) {
	row := s.db.QueryRowContext(ctx, `
SELECT SUM(foreign_net), SUM(CASE WHEN foreign_net IS NOT NULL THEN 1 ELSE 0 END)
FROM (
    SELECT foreign_net
    FROM market_flow_daily
    ORDER BY date DESC
    LIMIT ?
)
`, n)
	var sum sql.NullFloat64
	var count int
	if err := row.Scan(&sum, &count); err != nil {
		return nil, fmt.Errorf("rolling sum: %w", err)
	}
	if count < n || !sum.Valid {
		return nil, nil
	}
	return &sum.Float64, nil
}

func (s *Store) updateFlowRollings(ctx context.Context, date string) error {
	sum20, err := s.rollingSum(ctx, 20)
	if err != nil {
		return err
	}
	sum60, err := s.rollingSum(ctx, 60)
	if err != nil {
		return err
	}
	_, err = s.db.ExecContext(ctx, `
UPDATE market_flow_daily
SET foreign_20d = ?, foreign_60d = ?
WHERE date = ?
`, nullable(sum20), nullable(sum60), date)
	if err != nil {
		return fmt.Errorf("update flow rollings: %w", err)
	}
	return nil
}

// UpsertDailyMacro stores one day of macro rates and structural levels.
func (s *Store) UpsertDailyMacro(ctx context.Context, date string, d schema.MacroDaily, st schema.MacroStructural) error {
	if date == "" {
		return fmt.Errorf("daily macro date is required")
	}
	_, err := s.db.ExecContext(ctx, `
INSERT INTO daily_macro (date, us10y, us2y, spread_2_10, vix, dxy, usdkrw, fed_funds_rate, real_rate)
VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
ON CONFLICT(date) DO UPDATE SET
    us10y=excluded.us10y,
    us2y=excluded.us2y,
    spread_2_10=excluded.spread_2_10,
    vix=excluded.vix,
    dxy=excluded.dxy,
    usdkrw=excluded.usdkrw,
    fed_funds_rate=excluded.fed_funds_rate,
    real_rate=excluded.real_rate
`, date, nullable(d.US10Y), nullable(d.US2Y), nullable(d.Spread2s10s), nullable(d.VIX),
		nullable(d.DXY), nullable(d.USDKRW), nullable(st.FedFundsRate), nullable(st.RealRate))
	if err != nil {
		return fmt.Errorf("upsert daily_macro: %w", err)
	}
	return nil
}

// UpsertMonthlyMacro stores one month of macro indicators.
func (s *Store) UpsertMonthlyMacro(ctx context.Context, date string, m schema.MacroMonthly) error {
	if date == "" {
		return fmt.Errorf("monthly macro date is required")
	}
	_, err := s.db.ExecContext(ctx, `
INSERT INTO monthly_macro (date, unemployment_rate, cpi_yoy, core_cpi_yoy, pce_yoy, pmi, wage_level, wage_yoy)
VALUES (?, ?, ?, ?, ?, ?, ?, ?)
ON CONFLICT(date) DO UPDATE SET
    unemployment_rate=excluded.unemployment_rate,
    cpi_yoy=excluded.cpi_yoy,
    core_cpi_yoy=excluded.core_cpi_yoy,
    pce_yoy=excluded.pce_yoy,
    pmi=excluded.pmi,
    wage_level=excluded.wage_level,
    wage_yoy=excluded.wage_yoy
`, date, nullable(m.UnemploymentRate), nullable(m.CPIYoY), nullable(m.CoreCPIYoY),
		nullable(m.PCEYoY), nullable(m.PMI), nullable(m.WageLevel), nullable(m.WageYoY))
	if err != nil {
		return fmt.Errorf("upsert monthly_macro: %w", err)
	}
	return nil
}

// UpsertQuarterlyMacro stores one quarter of GDP figures.
func (s *Store) UpsertQuarterlyMacro(ctx context.Context, date string, q schema.MacroQuarterly) error {
	if date == "" {
		return fmt.Errorf("quarterly macro date is required")
	}
	_, err := s.db.ExecContext(ctx, `
INSERT INTO quarterly_macro (date, real_gdp, gdp_qoq_annualized)
VALUES (?, ?, ?)
ON CONFLICT(date) DO UPDATE SET
    real_gdp=excluded.real_gdp,
    gdp_qoq_annualized=excluded.gdp_qoq_annualized
`, date, nullable(q.RealGDP), nullable(q.GDPQoQAnnualized))
	if err != nil {
		return fmt.Errorf("upsert quarterly_macro: %w", err)
	}
	return nil
}

// GetLastNMarketFlow returns up to n flow rows, most recent first.
func (s *Store) GetLastNMarketFlow(ctx context.Context, n int) ([]FlowRow, error) {
	rows, err := s.db.QueryContext(ctx, `
SELECT date, foreign_net, foreign_20d, foreign_60d
FROM market_flow_daily
ORDER BY date DESC
LIMIT ?
`, n)
	if err != nil {
		return nil, fmt.Errorf("query market_flow_daily: %w", err)
	}
	defer rows.Close()

	var result []FlowRow
	for rows.Next() {
		var r FlowRow
		var net, d20, d60 sql.NullFloat64
		if err := rows.Scan(&r.Date, &net, &d20, &d60); err != nil {
			return nil, fmt.Errorf("scan flow row: %w", err)
		}
		r.ForeignNet = fromNull(net)
		r.Foreign20d = fromNull(d20)
		r.Foreign60d = fromNull(d60)
		result = append(result, r)
	}
	return result, rows.Err()
}

// SaveSnapshot persists the storable series of one snapshot through the safe
// upsert paths. Status is the assembler's source ledger: series whose source
// is not "OK" are stored as NULL so failed-fetch sentinels never land as real
// 0.0 rows. DB trouble is logged and swallowed: persistence is a side channel
// and must never fail the pipeline.
func (s *Store) SaveSnapshot(ctx context.Context, snapshot *schema.Snapshot, status map[string]string) {
	if s == nil || snapshot == nil {
		return
	}
	date := snapshot.AsOfDate
	ok := func(source string) bool { return status[source] == "OK" }
	gated := func(source string, v float64) *float64 {
		if !ok(source) {
			return nil
		}
		return ptr(v)
	}

	m := snapshot.Markets
	s.SafeUpsertMarketDaily(ctx, MarketDailyRecord{
		Date:      date,
		KospiPct:  gated("markets", m.KR.KospiPct),
		KosdaqPct: gated("markets", m.KR.KosdaqPct),
		SP500Pct:  gated("markets", m.US.SP500Pct),
		NasdaqPct: gated("markets", m.US.NasdaqPct),
		DowPct:    gated("markets", m.US.DowPct),
		USDKRW:    gated("markets", m.FX.USDKRW),
		USDKRWPct: gated("markets", m.FX.USDKRWPct),
		VIX:       gated("markets", m.Volatility.VIX),
	})
	s.SafeUpsertMarketFlowDaily(ctx, date, gated("flows", snapshot.FlowSummary.ForeignNet))

	if snapshot.Macro != nil && ok("macro") {
		s.SafeUpsertDailyMacro(ctx, date, snapshot.Macro.Daily, snapshot.Macro.Structural)
		s.SafeUpsertMonthlyMacro(ctx, date, snapshot.Macro.Monthly)
		s.SafeUpsertQuarterlyMacro(ctx, date, snapshot.Macro.Quarterly)
	}
}

func (s *Store) SafeUpsertMarketDaily(ctx context.Context, rec MarketDailyRecord) {
	if err := s.UpsertMarketDaily(ctx, rec); err != nil {
		s.logger.Warn("db upsert failed", zap.String("table", "market_daily"), zap.Error(err))
	}
}

func (s *Store) SafeUpsertMarketFlowDaily(ctx context.Context, date string, foreignNet *float64) {
	if err := s.UpsertMarketFlowDaily(ctx, date, foreignNet); err != nil {
		s.logger.Warn("db upsert failed", zap.String("table", "market_flow_daily"), zap.Error(err))
	}
}

func (s *Store) SafeUpsertDailyMacro(ctx context.Context, date string, d schema.MacroDaily, st schema.MacroStructural) {
	if err := s.UpsertDailyMacro(ctx, date, d, st); err != nil {
		s.logger.Warn("db upsert failed", zap.String("table", "daily_macro"), zap.Error(err))
	}
}

func (s *Store) SafeUpsertMonthlyMacro(ctx context.Context, date string, m schema.MacroMonthly) {
	if err := s.UpsertMonthlyMacro(ctx, date, m); err != nil {
		s.logger.Warn("db upsert failed", zap.String("table", "monthly_macro"), zap.Error(err))
	}
}

func (s *Store) SafeUpsertQuarterlyMacro(ctx context.Context, date string, q schema.MacroQuarterly) {
	if err := s.UpsertQuarterlyMacro(ctx, date, q); err != nil {
		s.logger.Warn("db upsert failed", zap.String("table", "quarterly_macro"), zap.Error(err))
	}
}

func nullable(v *float64) any {
	if v == nil {
		return nil
	}
	return *v
}

func fromNull(v sql.NullFloat64) *float64 {
	if !v.Valid {
		return nil
	}
	f := v.Float64
	return &f
}

func ptr(v float64) *float64 {
	return &v
}
