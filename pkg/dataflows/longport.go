package dataflows

import (
	"context"
	"errors"
	"fmt"

	lpconfig "github.com/longportapp/openapi-go/config"
	"github.com/longportapp/openapi-go/quote"

	"github.com/hankyul/CommitteeGo/pkg/schema"
)

// watchlist symbols use Longport notation, e.g. "AAPL.US" or "005930.KR".

// LongportClient is the optional watchlist quote source. It activates only
// when API credentials are configured; without them the watchlist stays a
// plain symbol list in the snapshot.
type LongportClient struct {
	quoteCtx *quote.QuoteContext
}

// NewLongportClient creates a Longport quote client from explicit credentials.
func NewLongportClient(appKey, appSecret, accessToken string) (*LongportClient, error) {
	if appKey == "" || appSecret == "" || accessToken == "" {
		return nil, errors.New("longport API credentials not configured")
	}

	conf, err := lpconfig.New(lpconfig.WithConfigKey(appKey, appSecret, accessToken))
	if err != nil {
		return nil, err
	}

	quoteContext, err := quote.NewFromCfg(conf)
	if err != nil {
		return nil, err
	}

	return &LongportClient{quoteCtx: quoteContext}, nil
}

// DailySticks returns the last count daily candlesticks for a symbol.
func (lpc *LongportClient) DailySticks(ctx context.Context, symbol string, count int) ([]*quote.Candlestick, error) {
	if lpc.quoteCtx == nil {
		return nil, errors.New("quote context is nil")
	}
	return lpc.quoteCtx.Candlesticks(ctx, symbol, quote.PeriodDay, int32(count), quote.AdjustTypeNo)
}

// ChangePct computes the daily change percent of a symbol from its last two
// daily closes.
func (lpc *LongportClient) ChangePct(ctx context.Context, symbol string) (float64, error) {
	sticks, err := lpc.DailySticks(ctx, symbol, 2)
	if err != nil {
		return 0, err
	}
	if len(sticks) < 2 {
		return 0, fmt.Errorf("insufficient candlesticks for %s: got %d", symbol, len(sticks))
	}

	prev := sticks[len(sticks)-2].Close
	latest := sticks[len(sticks)-1].Close
	if prev == nil || latest == nil || prev.IsZero() {
		return 0, fmt.Errorf("unusable closes for %s", symbol)
	}
	return latest.Sub(*prev).Div(*prev).InexactFloat64() * 100.0, nil
}

// WatchlistMoves formats daily moves for the configured watchlist symbols,
// skipping ones the API cannot resolve.
func (lpc *LongportClient) WatchlistMoves(ctx context.Context, symbols []string) []string {
	moves := make([]string, 0, len(symbols))
	for _, symbol := range symbols {
		pct, err := lpc.ChangePct(ctx, symbol)
		if err != nil {
			continue
		}
		moves = append(moves, fmt.Sprintf("%s %+.2f%%", symbol, pct))
	}
	return moves
}

// USIndexQuoter is the broker surface BrokerEquity needs: a daily change
// percent per symbol.
type USIndexQuoter interface {
	ChangePct(ctx context.Context, symbol string) (float64, error)
}

// US index ETF proxies in Longport symbol notation.
const (
	symbolSP500Proxy  = "SPY.US"
	symbolNasdaqProxy = "QQQ.US"
	symbolDowProxy    = "DIA.US"
)

// BrokerEquity overlays broker-sourced US index moves on top of a base equity
// provider. A symbol the broker cannot resolve keeps the base value, so a
// partial broker outage degrades per field rather than per block.
type BrokerEquity struct {
	EquityProvider
	Broker USIndexQuoter
}

func (b *BrokerEquity) Markets(ctx context.Context) (schema.Markets, error) {
	markets, err := b.EquityProvider.Markets(ctx)
	if err != nil {
		return markets, err
	}
	if pct, qerr := b.Broker.ChangePct(ctx, symbolSP500Proxy); qerr == nil {
		markets.US.SP500Pct = pct
	}
	if pct, qerr := b.Broker.ChangePct(ctx, symbolNasdaqProxy); qerr == nil {
		markets.US.NasdaqPct = pct
	}
	if pct, qerr := b.Broker.ChangePct(ctx, symbolDowProxy); qerr == nil {
		markets.US.DowPct = pct
	}
	return markets, nil
}
