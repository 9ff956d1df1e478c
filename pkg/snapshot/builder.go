package snapshot

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/hankyul/CommitteeGo/pkg/dataflows"
	"github.com/hankyul/CommitteeGo/pkg/schema"
)

// Source status values recorded per snapshot field.
const (
	StatusOK   = "OK"
	StatusFail = "FAIL"
)

// SourceStatus maps each snapshot source to OK or FAIL. It exists for
// operational visibility only and never gates the pipeline.
type SourceStatus map[string]string

// DefaultWatchlist seeds the monitored symbol list when none is configured.
var DefaultWatchlist = []string{"SPY", "QQQ", "XLK"}

// Builder assembles the daily snapshot from a provider set. Every provider
// call is wrapped: a failure degrades to a typed sentinel plus a reason in
// the relevant note, and the build itself never fails. This is the only stage
// allowed to touch external systems.
type Builder struct {
	providers     *dataflows.ProviderSet
	logger        *zap.Logger
	watchlist     []string
	headlineLimit int
	timeout       time.Duration
}

// Option configures a Builder.
type Option func(*Builder)

// WithWatchlist overrides the default watchlist symbols.
func WithWatchlist(symbols []string) Option {
	return func(b *Builder) {
		if len(symbols) > 0 {
			b.watchlist = symbols
		}
	}
}

// WithHeadlineLimit sets how many headlines a snapshot carries.
func WithHeadlineLimit(limit int) Option {
	return func(b *Builder) {
		if limit > 0 {
			b.headlineLimit = limit
		}
	}
}

// WithProviderTimeout bounds each individual provider call.
func WithProviderTimeout(d time.Duration) Option {
	return func(b *Builder) {
		if d > 0 {
			b.timeout = d
		}
	}
}

// NewBuilder creates a snapshot builder. A nil provider set degrades every
// field, producing a fully sentinel snapshot.
func NewBuilder(providers *dataflows.ProviderSet, logger *zap.Logger, opts ...Option) *Builder {
	if providers == nil {
		providers = &dataflows.ProviderSet{}
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	b := &Builder{
		providers:     providers,
		logger:        logger,
		watchlist:     DefaultWatchlist,
		headlineLimit: 8,
		timeout:       15 * time.Second,
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// Build assembles the snapshot for marketDate (YYYY-MM-DD). It always
// returns a structurally complete snapshot; the returned SourceStatus says
// which sources loaded.
func (b *Builder) Build(ctx context.Context, marketDate string) (*schema.Snapshot, SourceStatus) {
	status := SourceStatus{
		"usdkrw":    StatusFail,
		"kospi":     StatusFail,
		"markets":   StatusFail,
		"flows":     StatusFail,
		"headlines": StatusFail,
		"macro":     StatusFail,
		"sectors":   StatusFail,
		"krx_flow":  StatusFail,
	}
	var notes []string

	fail := func(source, reason string) {
		notes = append(notes, fmt.Sprintf("%s_fetch_failed: %s", source, reason))
		b.logger.Warn("snapshot source degraded",
			zap.String("source", source),
			zap.String("reason", reason))
	}

	usdkrw := b.fetchUSDKRW(ctx, status, fail)
	kospiPct := b.fetchKospi(ctx, status, fail)
	markets := b.fetchMarkets(ctx, status, fail)
	flows := b.fetchFlows(ctx, status, fail)
	headlines := b.fetchHeadlines(ctx, status, fail)
	sectors := b.fetchSectors(ctx, status, fail)
	macro := b.fetchMacro(ctx, status, fail)
	krxFlow := b.fetchKoreanFlow(ctx, marketDate, status, fail)

	// Prefer the dedicated FX provider's spot in the markets block when the
	// Yahoo spot is missing.
	if markets.FX.USDKRW == 0 && usdkrw != 0 {
		markets.FX.USDKRW = usdkrw
	}

	snap := &schema.Snapshot{
		AsOfDate: marketDate,
		MarketSummary: schema.MarketSummary{
			Note:           b.marketNote(notes, usdkrw, kospiPct, status),
			KospiChangePct: kospiPct,
			USDKRW:         usdkrw,
		},
		FlowSummary: schema.FlowSummary{
			Note:           b.flowNote(notes),
			ForeignNet:     flows.Foreign,
			InstitutionNet: flows.Institution,
			RetailNet:      flows.Retail,
		},
		Markets:          markets,
		Macro:            macro,
		SectorMoves:      sectors,
		NewsHeadlines:    headlines,
		Watchlist:        capList(b.watchlist, schema.MaxWatchlist),
		KoreanMarketFlow: krxFlow,
	}

	b.logger.Info("snapshot assembled",
		zap.String("as_of_date", marketDate),
		zap.Any("source_status", status))
	return snap, status
}

func (b *Builder) fetchUSDKRW(ctx context.Context, status SourceStatus, fail func(string, string)) float64 {
	if b.providers.FX == nil {
		fail("usdkrw", "provider_not_configured")
		return 0
	}
	callCtx, cancel := context.WithTimeout(ctx, b.timeout)
	defer cancel()

	v, err := b.providers.FX.USDKRW(callCtx)
	if err != nil {
		fail("usdkrw", err.Error())
		return 0
	}
	status["usdkrw"] = StatusOK
	return v
}

func (b *Builder) fetchKospi(ctx context.Context, status SourceStatus, fail func(string, string)) float64 {
	if b.providers.Equity == nil {
		fail("kospi_change_pct", "provider_not_configured")
		return 0
	}
	callCtx, cancel := context.WithTimeout(ctx, b.timeout)
	defer cancel()

	v, err := b.providers.Equity.KospiChangePct(callCtx)
	if err != nil {
		fail("kospi_change_pct", err.Error())
		return 0
	}
	status["kospi"] = StatusOK
	return v
}

func (b *Builder) fetchMarkets(ctx context.Context, status SourceStatus, fail func(string, string)) schema.Markets {
	if b.providers.Equity == nil {
		fail("markets", "provider_not_configured")
		return schema.Markets{}
	}
	callCtx, cancel := context.WithTimeout(ctx, b.timeout)
	defer cancel()

	// Partial market data is kept: the provider returns whatever symbols
	// loaded alongside the error describing the rest.
	m, err := b.providers.Equity.Markets(callCtx)
	if err != nil {
		fail("markets", err.Error())
		return m
	}
	status["markets"] = StatusOK
	return m
}

func (b *Builder) fetchFlows(ctx context.Context, status SourceStatus, fail func(string, string)) dataflows.FlowTotals {
	if b.providers.Flows == nil {
		fail("flows", "provider_not_configured")
		return dataflows.FlowTotals{}
	}
	callCtx, cancel := context.WithTimeout(ctx, b.timeout)
	defer cancel()

	flows, err := b.providers.Flows.Flows(callCtx)
	if err != nil {
		fail("flows", err.Error())
		return dataflows.FlowTotals{}
	}
	status["flows"] = StatusOK
	return flows
}

func (b *Builder) fetchHeadlines(ctx context.Context, status SourceStatus, fail func(string, string)) []string {
	if b.providers.Headlines == nil {
		fail("headlines", "provider_not_configured")
		return []string{}
	}
	callCtx, cancel := context.WithTimeout(ctx, b.timeout)
	defer cancel()

	headlines, err := b.providers.Headlines.Headlines(callCtx, b.headlineLimit)
	if err != nil {
		fail("headlines", err.Error())
		return []string{}
	}
	status["headlines"] = StatusOK
	return capList(headlines, schema.MaxNewsHeadlines)
}

func (b *Builder) fetchSectors(ctx context.Context, status SourceStatus, fail func(string, string)) []string {
	degraded := []string{"n/a", "n/a", "n/a"}
	if b.providers.Equity == nil {
		fail("sector_moves", "provider_not_configured")
		return degraded
	}
	callCtx, cancel := context.WithTimeout(ctx, b.timeout)
	defer cancel()

	moves, err := b.providers.Equity.SectorMoves(callCtx)
	if err != nil {
		fail("sector_moves", err.Error())
		return degraded
	}

	out := make([]string, 0, len(moves))
	for _, move := range moves {
		out = append(out, move.String())
	}
	status["sectors"] = StatusOK
	return capList(out, schema.MaxSectorMoves)
}

func (b *Builder) fetchMacro(ctx context.Context, status SourceStatus, fail func(string, string)) *schema.Macro {
	if b.providers.Macro == nil {
		fail("macro", "provider_not_configured")
		return nil
	}
	callCtx, cancel := context.WithTimeout(ctx, b.timeout)
	defer cancel()

	macro, err := b.providers.Macro.Macro(callCtx)
	if err != nil {
		fail("macro", err.Error())
		return nil
	}
	status["macro"] = StatusOK
	return macro
}

func (b *Builder) fetchKoreanFlow(ctx context.Context, marketDate string, status SourceStatus, fail func(string, string)) *schema.KoreanMarketFlow {
	if b.providers.KoreanFlow == nil {
		fail("korean_market_flow", "provider_not_configured")
		return nil
	}
	callCtx, cancel := context.WithTimeout(ctx, b.timeout)
	defer cancel()

	flow, err := b.providers.KoreanFlow.MarketFlow(callCtx, marketDate)
	if err != nil {
		fail("korean_market_flow", err.Error())
		return nil
	}
	status["krx_flow"] = StatusOK
	return flow
}

// marketNote builds the headline note agents read. With at least one real
// market number it carries the compact human summary; otherwise it lists the
// market-level failure reasons.
func (b *Builder) marketNote(notes []string, usdkrw, kospiPct float64, status SourceStatus) string {
	if usdkrw != 0 || kospiPct != 0 {
		headlinesState := "Headlines loaded."
		if status["headlines"] != StatusOK {
			headlinesState = "Headlines unavailable."
		}
		flowsState := "Flows loaded."
		if status["flows"] != StatusOK {
			flowsState = "Flows unavailable."
		}
		return fmt.Sprintf("KOSPI %.2f%%, USD/KRW %.2f. %s %s",
			kospiPct, usdkrw, headlinesState, flowsState)
	}

	var marketNotes []string
	for _, note := range notes {
		if strings.HasPrefix(note, "usdkrw") || strings.HasPrefix(note, "kospi") {
			marketNotes = append(marketNotes, note)
		}
	}
	if len(marketNotes) == 0 {
		return "market_summary_note_unavailable"
	}
	return strings.Join(marketNotes, "; ")
}

func (b *Builder) flowNote(notes []string) string {
	var flowNotes []string
	for _, note := range notes {
		if strings.HasPrefix(note, "flows") {
			flowNotes = append(flowNotes, note)
		}
	}
	if len(flowNotes) == 0 {
		return "flows loaded"
	}
	return strings.Join(flowNotes, "; ")
}

func capList(list []string, max int) []string {
	if list == nil {
		return []string{}
	}
	if len(list) > max {
		return list[:max]
	}
	return list
}
