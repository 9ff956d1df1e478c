package dataflows

import (
	"context"

	"github.com/hankyul/CommitteeGo/pkg/schema"
)

// MockProvider is a fully configurable provider for tests and dry runs. Zero
// values are returned as-is; set the Err fields to simulate failures.
type MockProvider struct {
	USDKRWValue float64
	USDKRWErr   error

	KospiPct    float64
	KospiPctErr error

	MarketsValue schema.Markets
	MarketsErr   error

	Sectors    []SectorMove
	SectorsErr error

	FlowsValue FlowTotals
	FlowsErr   error

	KoreanFlow    *schema.KoreanMarketFlow
	KoreanFlowErr error

	HeadlineList []string
	HeadlinesErr error

	MacroValue *schema.Macro
	MacroErr   error
}

func (m *MockProvider) USDKRW(ctx context.Context) (float64, error) {
	return m.USDKRWValue, m.USDKRWErr
}

func (m *MockProvider) KospiChangePct(ctx context.Context) (float64, error) {
	return m.KospiPct, m.KospiPctErr
}

func (m *MockProvider) Markets(ctx context.Context) (schema.Markets, error) {
	return m.MarketsValue, m.MarketsErr
}

func (m *MockProvider) SectorMoves(ctx context.Context) ([]SectorMove, error) {
	return m.Sectors, m.SectorsErr
}

func (m *MockProvider) Flows(ctx context.Context) (FlowTotals, error) {
	return m.FlowsValue, m.FlowsErr
}

func (m *MockProvider) MarketFlow(ctx context.Context, date string) (*schema.KoreanMarketFlow, error) {
	return m.KoreanFlow, m.KoreanFlowErr
}

func (m *MockProvider) Headlines(ctx context.Context, limit int) ([]string, error) {
	if m.HeadlinesErr != nil {
		return nil, m.HeadlinesErr
	}
	if limit < len(m.HeadlineList) {
		return m.HeadlineList[:limit], nil
	}
	return m.HeadlineList, nil
}

func (m *MockProvider) Macro(ctx context.Context) (*schema.Macro, error) {
	return m.MacroValue, m.MacroErr
}

// MockProviderSet wires one MockProvider into every provider slot.
func MockProviderSet(m *MockProvider) *ProviderSet {
	return &ProviderSet{
		FX:         m,
		Equity:     m,
		Flows:      m,
		KoreanFlow: m,
		Headlines:  m,
		Macro:      m,
	}
}
