package dataflows

import (
	"context"
	"fmt"
	"time"

	"github.com/piquette/finance-go/chart"
	"github.com/piquette/finance-go/datetime"
	"github.com/piquette/finance-go/quote"

	"github.com/hankyul/CommitteeGo/pkg/schema"
)

// Symbols used for the daily markets block. KOSPI and KOSDAQ carry the Korean
// session, the US trio covers the overnight lead, KRW=X is the spot proxy.
const (
	symbolKospi  = "^KS11"
	symbolKosdaq = "^KQ11"
	symbolSP500  = "^GSPC"
	symbolNasdaq = "^IXIC"
	symbolDow    = "^DJI"
	symbolVIX    = "^VIX"
	symbolUS10Y  = "^TNX"
	symbolUS2Y   = "^IRX"
	symbolKRW    = "KRW=X"
)

// sectorETFs maps the S&P sector trackers to display names for sector_moves.
var sectorETFs = []struct {
	Symbol string
	Name   string
}{
	{"XLK", "Tech"},
	{"XLF", "Financials"},
	{"XLE", "Energy"},
	{"XLV", "Health Care"},
	{"XLI", "Industrials"},
	{"XLY", "Consumer Disc"},
	{"XLP", "Staples"},
	{"XLU", "Utilities"},
	{"XLB", "Materials"},
	{"XLC", "Comm Services"},
}

// YahooClient handles Yahoo Finance data operations
type YahooClient struct {
	retry *RetryConfig
}

// NewYahooClient creates a new Yahoo Finance client
func NewYahooClient() *YahooClient {
	return &YahooClient{
		retry: DefaultRetryConfig(),
	}
}

// KospiChangePct returns the KOSPI daily change percent from the last two
// closes.
func (yc *YahooClient) KospiChangePct(ctx context.Context) (float64, error) {
	return yc.ChangePct(ctx, symbolKospi)
}

// ChangePct computes the daily percentage change of a symbol from its last
// two available closes.
func (yc *YahooClient) ChangePct(ctx context.Context, symbol string) (float64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}

	var pct float64
	err := WithRetry(yc.retry, func() error {
		closes, err := yc.recentCloses(symbol, 7)
		if err != nil {
			return err
		}
		if len(closes) < 2 {
			return fmt.Errorf("insufficient closes for %s: got %d", symbol, len(closes))
		}
		prev, latest := closes[len(closes)-2], closes[len(closes)-1]
		if prev == 0 {
			return fmt.Errorf("zero previous close for %s", symbol)
		}
		pct = (latest - prev) / prev * 100.0
		return nil
	})
	return pct, err
}

// LatestClose returns the most recent close for a symbol, trying the quote
// endpoint first and falling back to the daily chart.
func (yc *YahooClient) LatestClose(ctx context.Context, symbol string) (float64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}

	if q, err := quote.Get(symbol); err == nil && q != nil && q.RegularMarketPrice > 0 {
		return q.RegularMarketPrice, nil
	}

	closes, err := yc.recentCloses(symbol, 7)
	if err != nil {
		return 0, err
	}
	if len(closes) == 0 {
		return 0, fmt.Errorf("no closes for %s", symbol)
	}
	return closes[len(closes)-1], nil
}

// Markets assembles the daily markets block: Korean and US index moves, the
// USD/KRW rate with its change, and the VIX level. Individual symbol failures
// zero that field and surface as a combined error so the builder can note the
// degradation while keeping the values that did load.
func (yc *YahooClient) Markets(ctx context.Context) (schema.Markets, error) {
	var m schema.Markets
	var failures []string

	fetch := func(symbol string, dst *float64) {
		v, err := yc.ChangePct(ctx, symbol)
		if err != nil {
			failures = append(failures, symbol)
			return
		}
		*dst = v
	}

	fetch(symbolKospi, &m.KR.KospiPct)
	fetch(symbolKosdaq, &m.KR.KosdaqPct)
	fetch(symbolSP500, &m.US.SP500Pct)
	fetch(symbolNasdaq, &m.US.NasdaqPct)
	fetch(symbolDow, &m.US.DowPct)
	fetch(symbolKRW, &m.FX.USDKRWPct)

	if v, err := yc.LatestClose(ctx, symbolKRW); err == nil {
		m.FX.USDKRW = v
	} else {
		failures = append(failures, symbolKRW+":spot")
	}
	if v, err := yc.LatestClose(ctx, symbolVIX); err == nil {
		m.Volatility.VIX = v
	} else {
		failures = append(failures, symbolVIX)
	}

	if len(failures) >= 8 {
		return m, fmt.Errorf("all market symbols failed: %v", failures)
	}
	if len(failures) > 0 {
		return m, fmt.Errorf("partial market data, failed symbols: %v", failures)
	}
	return m, nil
}

// SectorMoves returns daily percentage changes for the S&P sector trackers.
func (yc *YahooClient) SectorMoves(ctx context.Context) ([]SectorMove, error) {
	moves := make([]SectorMove, 0, len(sectorETFs))
	for _, etf := range sectorETFs {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		pct, err := yc.ChangePct(ctx, etf.Symbol)
		if err != nil {
			continue
		}
		moves = append(moves, SectorMove{Name: etf.Name, ChangePct: pct})
	}
	if len(moves) == 0 {
		return nil, fmt.Errorf("no sector data available")
	}
	return moves, nil
}

// USDKRW returns the KRW spot from Yahoo. Used as the last resort behind the
// public FX JSON endpoints.
func (yc *YahooClient) USDKRW(ctx context.Context) (float64, error) {
	for _, symbol := range []string{symbolKRW, "USDKRW=X"} {
		if v, err := yc.LatestClose(ctx, symbol); err == nil && v > 0 {
			return v, nil
		}
	}
	return 0, fmt.Errorf("usdkrw: %w", ErrUnavailable)
}

// DailyRates fetches the Yahoo-sourced half of the daily macro block: the 10Y
// and 2Y yield proxies, their spread, the VIX level, and the dollar index.
func (yc *YahooClient) DailyRates(ctx context.Context) schema.MacroDaily {
	var d schema.MacroDaily

	if v, err := yc.LatestClose(ctx, symbolUS10Y); err == nil {
		scaled := scaleYield(v)
		d.US10Y = &scaled
	}
	if v, err := yc.LatestClose(ctx, symbolUS2Y); err == nil {
		scaled := scaleYield(v)
		d.US2Y = &scaled
	}
	if d.US10Y != nil && d.US2Y != nil {
		spread := *d.US10Y - *d.US2Y
		d.Spread2s10s = &spread
	}
	if v, err := yc.LatestClose(ctx, symbolVIX); err == nil {
		d.VIX = &v
	}
	for _, symbol := range []string{"DX-Y.NYB", "^DXY"} {
		if v, err := yc.LatestClose(ctx, symbol); err == nil && v > 0 {
			d.DXY = &v
			break
		}
	}
	if v, err := yc.USDKRW(ctx); err == nil {
		d.USDKRW = &v
	}

	return d
}

// recentCloses returns the non-zero daily closes of the last n calendar days,
// oldest first.
func (yc *YahooClient) recentCloses(symbol string, days int) ([]float64, error) {
	end := time.Now()
	start := end.AddDate(0, 0, -days)

	params := &chart.Params{
		Symbol:   symbol,
		Start:    datetime.New(&start),
		End:      datetime.New(&end),
		Interval: datetime.OneDay,
	}

	iter := chart.Get(params)
	closes := make([]float64, 0, days)
	for iter.Next() {
		bar := iter.Bar()
		if bar == nil || bar.Close.IsZero() {
			continue
		}
		closes = append(closes, bar.Close.InexactFloat64())
	}
	if err := iter.Err(); err != nil {
		return nil, fmt.Errorf("failed to get chart for %s: %w", symbol, err)
	}
	return closes, nil
}

// scaleYield normalizes Yahoo yield indexes: ^TNX and ^IRX quote yield*10, so
// anything above 20 gets divided back to a percent.
func scaleYield(v float64) float64 {
	if v > 20 {
		return v / 10.0
	}
	return v
}
