package dataflows

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/shopspring/decimal"

	"github.com/hankyul/CommitteeGo/pkg/schema"
)

const (
	krxJSONURL = "https://data.krx.co.kr/comm/bldAttendant/getJsonData.cmd"
	krxOrigin  = "https://data.krx.co.kr"

	// 1억원 in KRW. KRX reports raw won; flows are carried in 억원.
	eokWon = 100_000_000

	marketCodeKospi  = "STK"
	marketCodeKosdaq = "KSQ"
)

// krxBldCandidates pairs the investor-statistics bld identifiers with their
// referer pages. KRX rejects requests whose Referer does not match the bld,
// and the identifiers themselves are not a stable API, so several are tried.
var krxBldCandidates = []struct {
	Bld     string
	Referer string
}{
	{"dbms/MDC/STAT/standard/MDCSTAT02301", "https://data.krx.co.kr/contents/MDC/STAT/standard/MDCSTAT02301.jspx"},
	{"dbms/MDC/STAT/standard/MDCSTAT02201", "https://data.krx.co.kr/contents/MDC/STAT/standard/MDCSTAT02201.jspx"},
	{"dbms/MDC/STAT/standard/MDCSTAT02401", "https://data.krx.co.kr/contents/MDC/STAT/standard/MDCSTAT02401.jspx"},
}

// KRXFlowClient fetches Korean investor net buying (순매수) for KOSPI and
// KOSDAQ from KRX Data, in 억원.
type KRXFlowClient struct {
	client *resty.Client
}

// NewKRXFlowClient creates a new KRX flow client.
func NewKRXFlowClient() *KRXFlowClient {
	client := resty.New()
	client.SetTimeout(10 * time.Second)
	client.SetHeader("User-Agent", "CommitteeGo/1.0")

	return &KRXFlowClient{client: client}
}

// Flows returns the market-wide totals: KOSPI plus KOSDAQ per investor group.
func (kc *KRXFlowClient) Flows(ctx context.Context) (FlowTotals, error) {
	flow, err := kc.MarketFlow(ctx, time.Now().Format("2006-01-02"))
	if err != nil {
		return FlowTotals{}, err
	}

	var totals FlowTotals
	for _, inv := range flow.Market {
		totals.Foreign += float64(inv.Foreign)
		totals.Institution += float64(inv.Institution)
		totals.Retail += float64(inv.Individual)
	}
	return totals, nil
}

// MarketFlow fetches the per-market investor breakdown for the most recent
// trading day at or before date (YYYY-MM-DD). Weekends and holidays fall back
// to earlier days, up to ten attempts.
func (kc *KRXFlowClient) MarketFlow(ctx context.Context, date string) (*schema.KoreanMarketFlow, error) {
	day, err := time.Parse("2006-01-02", date)
	if err != nil {
		day = time.Now()
	}

	var lastErr error
	for attempt := 0; attempt < 10; attempt++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		ymd := day.Format("20060102")

		kospi, err := kc.fetchMarketEok(ctx, ymd, marketCodeKospi)
		if err == nil {
			var kosdaq schema.InvestorFlow
			kosdaq, err = kc.fetchMarketEok(ctx, ymd, marketCodeKosdaq)
			if err == nil {
				return &schema.KoreanMarketFlow{
					Date: day.Format("2006-01-02"),
					Market: map[string]schema.InvestorFlow{
						"KOSPI":  kospi,
						"KOSDAQ": kosdaq,
					},
				}, nil
			}
		}
		lastErr = fmt.Errorf("%s: %w", ymd, err)
		day = day.AddDate(0, 0, -1)
	}
	return nil, fmt.Errorf("krx_flow_unavailable: %w", lastErr)
}

// fetchMarketEok fetches one market's investor net buying for one trading day
// and converts raw won to 억원.
func (kc *KRXFlowClient) fetchMarketEok(ctx context.Context, ymd, marketCode string) (schema.InvestorFlow, error) {
	var lastErr error

	for _, cand := range krxBldCandidates {
		for _, payload := range krxPayloadVariants(ymd, marketCode) {
			payload["bld"] = cand.Bld

			resp, err := kc.client.R().
				SetContext(ctx).
				SetHeader("Origin", krxOrigin).
				SetHeader("Referer", cand.Referer).
				SetHeader("Content-Type", "application/x-www-form-urlencoded; charset=UTF-8").
				SetFormData(payload).
				Post(krxJSONURL)
			if err != nil {
				lastErr = err
				continue
			}
			if resp.StatusCode() != 200 {
				lastErr = fmt.Errorf("http_status_%d", resp.StatusCode())
				continue
			}

			var js map[string]any
			if err := json.Unmarshal(resp.Body(), &js); err != nil {
				lastErr = fmt.Errorf("json_parse_error: %w", err)
				continue
			}

			flow, err := extractInvestorFlow(js)
			if err != nil {
				lastErr = err
				continue
			}
			return flow, nil
		}
	}
	if lastErr == nil {
		lastErr = fmt.Errorf("no_candidates")
	}
	// Lowercase market code keeps the error out of the ticker guard.
	return schema.InvestorFlow{}, fmt.Errorf("krx_fetch_failed[%s,%s]: %w", strings.ToLower(marketCode), ymd, lastErr)
}

// krxPayloadVariants returns the likely payload shapes for KRX endpoints:
// single-day, date-range, and both combined.
func krxPayloadVariants(ymd, marketCode string) []map[string]string {
	base := map[string]string{
		"money":       "1",
		"csvxls_isNo": "false",
		"mktId":       marketCode,
	}
	v1 := cloneWith(base, map[string]string{"trdDd": ymd})
	v2 := cloneWith(base, map[string]string{"strtDd": ymd, "endDd": ymd})
	v3 := cloneWith(v2, map[string]string{"trdDd": ymd})
	return []map[string]string{v1, v2, v3}
}

func cloneWith(base, extra map[string]string) map[string]string {
	out := make(map[string]string, len(base)+len(extra))
	for k, v := range base {
		out[k] = v
	}
	for k, v := range extra {
		out[k] = v
	}
	return out
}

var (
	krxRowListKeys  = []string{"output", "output1", "OutBlock_1", "block1", "result"}
	krxInvestorKeys = []string{"INVST_TP_NM", "invstTpNm", "투자자구분", "투자자구분명", "투자자", "INVESTOR"}
	krxNetKeys      = []string{"NET_TRDVOL", "NET_TRDVAL", "netTrdVal", "순매수", "순매수거래대금", "순매수대금", "NET"}
)

// extractInvestorFlow maps a KRX JSON payload to the investor breakdown.
// Output keys vary across KRX pages, so several candidate names are tried.
func extractInvestorFlow(js map[string]any) (schema.InvestorFlow, error) {
	rows := pickFirstList(js, krxRowListKeys)
	if len(rows) == 0 {
		return schema.InvestorFlow{}, fmt.Errorf("no_output_rows")
	}

	netByInvestor := make(map[string]int64)
	for _, raw := range rows {
		row, ok := raw.(map[string]any)
		if !ok {
			continue
		}
		investor := pickFirstString(row, krxInvestorKeys)
		net := pickFirstString(row, krxNetKeys)
		if investor == "" || net == "" {
			continue
		}
		value, err := parseKRXAmount(net)
		if err != nil {
			continue
		}
		netByInvestor[investor] = value
	}

	if len(netByInvestor) == 0 {
		// Sometimes the table comes back as one wide row keyed by investor.
		if first, ok := rows[0].(map[string]any); ok {
			for _, key := range []string{"개인", "외국인", "기관합계", "기관"} {
				if raw, exists := first[key]; exists {
					if value, err := parseKRXAmount(fmt.Sprintf("%v", raw)); err == nil {
						netByInvestor[key] = value
					}
				}
			}
		}
	}
	if len(netByInvestor) == 0 {
		return schema.InvestorFlow{}, fmt.Errorf("unrecognized_output_keys")
	}

	individual, err := pickNet(netByInvestor, "개인")
	if err != nil {
		return schema.InvestorFlow{}, err
	}
	foreign, err := pickNet(netByInvestor, "외국인", "외국인합계")
	if err != nil {
		return schema.InvestorFlow{}, err
	}
	institution, err := pickNet(netByInvestor, "기관합계", "기관")
	if err != nil {
		return schema.InvestorFlow{}, err
	}

	return schema.InvestorFlow{
		Foreign:     toEok(foreign),
		Institution: toEok(institution),
		Individual:  toEok(individual),
	}, nil
}

func pickFirstList(js map[string]any, keys []string) []any {
	for _, k := range keys {
		if v, ok := js[k].([]any); ok {
			return v
		}
	}
	return nil
}

func pickFirstString(row map[string]any, keys []string) string {
	for _, k := range keys {
		if v, ok := row[k]; ok && v != nil {
			return strings.TrimSpace(fmt.Sprintf("%v", v))
		}
	}
	return ""
}

func pickNet(values map[string]int64, keys ...string) (int64, error) {
	for _, k := range keys {
		if v, ok := values[k]; ok {
			return v, nil
		}
	}
	return 0, fmt.Errorf("missing_investor_keys: tried=%v", keys)
}

// parseKRXAmount parses KRX numeric strings, which may carry comma grouping
// or a trailing ".0".
func parseKRXAmount(s string) (int64, error) {
	s = strings.ReplaceAll(strings.TrimSpace(s), ",", "")
	if s == "" {
		return 0, fmt.Errorf("value_is_empty")
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return 0, fmt.Errorf("value_not_numeric[%s]: %w", s, err)
	}
	return d.Round(0).IntPart(), nil
}

// toEok converts raw won to 억원, rounded to the nearest unit.
func toEok(won int64) int64 {
	return decimal.NewFromInt(won).Div(decimal.NewFromInt(eokWon)).Round(0).IntPart()
}
