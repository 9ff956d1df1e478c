package dataflows

import (
	"context"

	"github.com/hankyul/CommitteeGo/pkg/schema"
)

// FXProvider returns the USD/KRW spot rate.
type FXProvider interface {
	USDKRW(ctx context.Context) (float64, error)
}

// EquityProvider returns index change percentages and the markets block.
type EquityProvider interface {
	KospiChangePct(ctx context.Context) (float64, error)
	Markets(ctx context.Context) (schema.Markets, error)
	SectorMoves(ctx context.Context) ([]SectorMove, error)
}

// FlowProvider returns aggregate investor net flows for the Korean market.
type FlowProvider interface {
	Flows(ctx context.Context) (FlowTotals, error)
}

// KoreanFlowProvider returns the per-market investor breakdown.
type KoreanFlowProvider interface {
	MarketFlow(ctx context.Context, date string) (*schema.KoreanMarketFlow, error)
}

// HeadlineProvider returns recent news headlines, newest first.
type HeadlineProvider interface {
	Headlines(ctx context.Context, limit int) ([]string, error)
}

// ItemFetcher returns recent news items with article links, newest first.
// The report digest reads items where the snapshot only needs titles.
type ItemFetcher interface {
	FetchItems(ctx context.Context, limit int) ([]Item, error)
}

// MacroProvider returns the macro indicator blocks. Individual series that
// fail stay nil inside the returned struct; the provider errors only when
// nothing at all could be fetched.
type MacroProvider interface {
	Macro(ctx context.Context) (*schema.Macro, error)
}

// ProviderSet bundles all providers a snapshot build needs. A nil member is
// treated as a permanently failing provider, which lets callers assemble
// partial sets (tests, offline runs) without stub boilerplate.
type ProviderSet struct {
	FX         FXProvider
	Equity     EquityProvider
	Flows      FlowProvider
	KoreanFlow KoreanFlowProvider
	Headlines  HeadlineProvider
	Macro      MacroProvider
}

// DefaultProviders wires the production provider set: Yahoo for equities,
// public FX endpoints with Yahoo fallback, KRX for flows, Google News for
// headlines, FRED plus Yahoo for macro. With Longport credentials configured
// the broker overlays the US index moves; without them the Yahoo path serves
// alone.
func DefaultProviders(cfg ProviderConfig) *ProviderSet {
	yahoo := NewYahooClient()
	krx := NewKRXFlowClient()

	equity := EquityProvider(yahoo)
	if broker, err := NewLongportClient(cfg.LongportAppKey, cfg.LongportAppSecret, cfg.LongportAccessToken); err == nil {
		equity = &BrokerEquity{EquityProvider: yahoo, Broker: broker}
	}

	return &ProviderSet{
		FX:         NewFXClient(yahoo),
		Equity:     equity,
		Flows:      krx,
		KoreanFlow: krx,
		Headlines:  NewNewsClient(cfg.NewsQuery),
		Macro:      NewMacroAggregator(yahoo, NewFREDClient(cfg.FREDAPIKey)),
	}
}

// ProviderConfig carries the few settings providers need from the app config.
type ProviderConfig struct {
	NewsQuery  string
	FREDAPIKey string

	LongportAppKey      string
	LongportAppSecret   string
	LongportAccessToken string
}
