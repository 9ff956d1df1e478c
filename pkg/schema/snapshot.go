package schema

// Snapshot is the single immutable fact packet for one committee run. Every
// field is always populated: either with a real fetched value or with a
// documented sentinel (0.0 / empty slice / nil optional block) plus a failure
// reason appended to the relevant note field. Builders must not mutate a
// Snapshot after handing it out.
type Snapshot struct {
	AsOfDate        string            `json:"as_of_date"`
	MarketSummary   MarketSummary     `json:"market_summary"`
	FlowSummary     FlowSummary       `json:"flow_summary"`
	Markets         Markets           `json:"markets"`
	Macro           *Macro            `json:"macro,omitempty"`
	SectorMoves     []string          `json:"sector_moves"`
	NewsHeadlines   []string          `json:"news_headlines"`
	Watchlist       []string          `json:"watchlist"`
	KoreanMarketFlow *KoreanMarketFlow `json:"korean_market_flow,omitempty"`
}

// MarketSummary is the compact market overview read by text-only agents.
type MarketSummary struct {
	Note           string  `json:"note"`
	KospiChangePct float64 `json:"kospi_change_pct"`
	USDKRW         float64 `json:"usdkrw"`
}

// FlowSummary aggregates investor net flows in 억원 (hundred million KRW).
type FlowSummary struct {
	Note           string  `json:"note"`
	ForeignNet     float64 `json:"foreign_net"`
	InstitutionNet float64 `json:"institution_net"`
	RetailNet      float64 `json:"retail_net"`
}

// Markets carries the daily percentage moves used for report display and the
// chair's indicator context.
type Markets struct {
	KR         MarketsKR         `json:"kr"`
	US         MarketsUS         `json:"us"`
	FX         MarketsFX         `json:"fx"`
	Volatility MarketsVolatility `json:"volatility"`
}

type MarketsKR struct {
	KospiPct  float64 `json:"kospi_pct"`
	KosdaqPct float64 `json:"kosdaq_pct"`
}

type MarketsUS struct {
	SP500Pct  float64 `json:"sp500_pct"`
	NasdaqPct float64 `json:"nasdaq_pct"`
	DowPct    float64 `json:"dow_pct"`
}

type MarketsFX struct {
	USDKRW    float64 `json:"usdkrw"`
	USDKRWPct float64 `json:"usdkrw_pct"`
}

type MarketsVolatility struct {
	VIX float64 `json:"vix"`
}

// Macro groups the optional macro indicator blocks. Missing series are nil,
// never 0.0, so downstream persistence can store NULL.
type Macro struct {
	Daily      MacroDaily      `json:"daily"`
	Monthly    MacroMonthly    `json:"monthly"`
	Quarterly  MacroQuarterly  `json:"quarterly"`
	Structural MacroStructural `json:"structural"`
}

type MacroDaily struct {
	US10Y      *float64 `json:"us10y"`
	US2Y       *float64 `json:"us2y"`
	Spread2s10s *float64 `json:"spread_2_10"`
	VIX        *float64 `json:"vix"`
	DXY        *float64 `json:"dxy"`
	USDKRW     *float64 `json:"usdkrw"`
}

type MacroMonthly struct {
	UnemploymentRate *float64 `json:"unemployment_rate"`
	CPIYoY           *float64 `json:"cpi_yoy"`
	CoreCPIYoY       *float64 `json:"core_cpi_yoy"`
	PCEYoY           *float64 `json:"pce_yoy"`
	PMI              *float64 `json:"pmi"`
	WageLevel        *float64 `json:"wage_level"`
	WageYoY          *float64 `json:"wage_yoy"`
}

type MacroQuarterly struct {
	RealGDP           *float64 `json:"real_gdp"`
	GDPQoQAnnualized *float64 `json:"gdp_qoq_annualized"`
}

type MacroStructural struct {
	FedFundsRate *float64 `json:"fed_funds_rate"`
	RealRate     *float64 `json:"real_rate"`
}

// KoreanMarketFlow is the optional per-market investor breakdown (억원 net buy).
type KoreanMarketFlow struct {
	Date   string                  `json:"date"`
	Market map[string]InvestorFlow `json:"market"`
}

type InvestorFlow struct {
	Foreign     int64 `json:"foreign"`
	Institution int64 `json:"institution"`
	Individual  int64 `json:"individual"`
}

const (
	// MaxNewsHeadlines bounds the headline list carried in a snapshot.
	MaxNewsHeadlines = 10
	// MaxSectorMoves bounds the sector movement list.
	MaxSectorMoves = 10
	// MaxWatchlist bounds the monitored symbol list.
	MaxWatchlist = 50
)
