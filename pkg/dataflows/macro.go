package dataflows

import (
	"context"
	"fmt"

	"github.com/hankyul/CommitteeGo/pkg/schema"
)

// MacroAggregator combines the Yahoo rate proxies with the FRED series into
// the snapshot's macro block.
type MacroAggregator struct {
	yahoo *YahooClient
	fred  *FREDClient
}

// NewMacroAggregator creates a macro provider backed by Yahoo and FRED.
func NewMacroAggregator(yahoo *YahooClient, fred *FREDClient) *MacroAggregator {
	return &MacroAggregator{
		yahoo: yahoo,
		fred:  fred,
	}
}

// Macro fetches all macro layers. Series that fail stay nil; the method
// errors only when not a single value could be fetched.
func (ma *MacroAggregator) Macro(ctx context.Context) (*schema.Macro, error) {
	m := &schema.Macro{
		Daily:      ma.yahoo.DailyRates(ctx),
		Monthly:    ma.monthly(ctx),
		Quarterly:  ma.quarterly(ctx),
		Structural: ma.structural(ctx),
	}

	if macroIsEmpty(m) {
		return nil, fmt.Errorf("macro: %w", ErrUnavailable)
	}
	return m, nil
}

func (ma *MacroAggregator) monthly(ctx context.Context) schema.MacroMonthly {
	m := schema.MacroMonthly{
		UnemploymentRate: ma.fred.Latest(ctx, seriesUnemployment),
		CPIYoY:           ma.fred.YoYFromIndex(ctx, seriesCPI),
		CoreCPIYoY:       ma.fred.YoYFromIndex(ctx, seriesCoreCPI),
		PCEYoY:           ma.fred.YoYFromIndex(ctx, seriesPCE),
		PMI:              ma.fred.PMI(ctx),
		WageLevel:        ma.fred.Latest(ctx, seriesWage),
	}
	if values, err := ma.fred.LastN(ctx, seriesWage, 13); err == nil {
		m.WageYoY = YoYFromValues(values)
	}
	return m
}

func (ma *MacroAggregator) quarterly(ctx context.Context) schema.MacroQuarterly {
	return schema.MacroQuarterly{
		RealGDP:          ma.fred.Latest(ctx, seriesRealGDP),
		GDPQoQAnnualized: ma.fred.Latest(ctx, seriesGDPGrowth),
	}
}

// structural derives the real policy rate as Fed Funds minus the 10Y
// breakeven inflation expectation.
func (ma *MacroAggregator) structural(ctx context.Context) schema.MacroStructural {
	s := schema.MacroStructural{
		FedFundsRate: ma.fred.Latest(ctx, seriesFedFunds),
	}
	if s.FedFundsRate != nil {
		if breakeven := ma.fred.Latest(ctx, seriesBreakeven10Y); breakeven != nil {
			realRate := *s.FedFundsRate - *breakeven
			s.RealRate = &realRate
		}
	}
	return s
}

func macroIsEmpty(m *schema.Macro) bool {
	d, mo, q, s := m.Daily, m.Monthly, m.Quarterly, m.Structural
	for _, p := range []*float64{
		d.US10Y, d.US2Y, d.Spread2s10s, d.VIX, d.DXY, d.USDKRW,
		mo.UnemploymentRate, mo.CPIYoY, mo.CoreCPIYoY, mo.PCEYoY, mo.PMI, mo.WageLevel, mo.WageYoY,
		q.RealGDP, q.GDPQoQAnnualized,
		s.FedFundsRate, s.RealRate,
	} {
		if p != nil {
			return false
		}
	}
	return true
}
