package dataflows

import (
	"context"

	"github.com/hankyul/CommitteeGo/pkg/schema"
)

// FallbackProvider satisfies every provider interface and fails every call
// with ErrUnavailable. Wiring it in place of a real provider produces a fully
// degraded but structurally valid snapshot, which is exactly what offline or
// keyless environments need.
type FallbackProvider struct{}

// NewFallbackProvider creates a provider that reports every field unavailable.
func NewFallbackProvider() *FallbackProvider {
	return &FallbackProvider{}
}

func (f *FallbackProvider) USDKRW(ctx context.Context) (float64, error) {
	return 0, ErrUnavailable
}

func (f *FallbackProvider) KospiChangePct(ctx context.Context) (float64, error) {
	return 0, ErrUnavailable
}

func (f *FallbackProvider) Markets(ctx context.Context) (schema.Markets, error) {
	return schema.Markets{}, ErrUnavailable
}

func (f *FallbackProvider) SectorMoves(ctx context.Context) ([]SectorMove, error) {
	return nil, ErrUnavailable
}

func (f *FallbackProvider) Flows(ctx context.Context) (FlowTotals, error) {
	return FlowTotals{}, ErrUnavailable
}

func (f *FallbackProvider) MarketFlow(ctx context.Context, date string) (*schema.KoreanMarketFlow, error) {
	return nil, ErrUnavailable
}

func (f *FallbackProvider) Headlines(ctx context.Context, limit int) ([]string, error) {
	return nil, ErrUnavailable
}

func (f *FallbackProvider) Macro(ctx context.Context) (*schema.Macro, error) {
	return nil, ErrUnavailable
}

// FallbackProviderSet returns a ProviderSet whose every member fails with
// ErrUnavailable.
func FallbackProviderSet() *ProviderSet {
	f := NewFallbackProvider()
	return &ProviderSet{
		FX:         f,
		Equity:     f,
		Flows:      f,
		KoreanFlow: f,
		Headlines:  f,
		Macro:      f,
	}
}
