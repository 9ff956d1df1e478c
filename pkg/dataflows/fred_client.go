package dataflows

import (
	"context"
	"encoding/json"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
)

// fredBase is the FRED series observations endpoint.
const fredBase = "https://api.stlouisfed.org/fred/series/observations"

// FRED series IDs for the macro blocks.
const (
	seriesUnemployment = "UNRATE"
	seriesCPI          = "CPIAUCSL"
	seriesCoreCPI      = "CPILFESL"
	seriesPCE          = "PCEPI"
	seriesWage         = "CES0500000003"
	seriesRealGDP      = "GDPC1"
	seriesGDPGrowth    = "A191RL1Q225SBEA"
	seriesFedFunds     = "FEDFUNDS"
	seriesBreakeven10Y = "T10YIE"
)

// FREDClient fetches macro series from the FRED observations API. Every
// method is best-effort: a missing key or upstream failure yields nil, never
// a pipeline abort, so persistence stores NULL for the series.
type FREDClient struct {
	client *resty.Client
	apiKey string
}

// NewFREDClient creates a new FRED client. An empty key disables all fetches.
func NewFREDClient(apiKey string) *FREDClient {
	client := resty.New()
	client.SetTimeout(10 * time.Second)
	client.SetHeader("User-Agent", "CommitteeGo/1.0")

	return &FREDClient{
		client: client,
		apiKey: strings.Trim(strings.TrimSpace(apiKey), `"'`),
	}
}

type fredObservation struct {
	Date  string `json:"date"`
	Value string `json:"value"`
}

type fredResponse struct {
	Observations []fredObservation `json:"observations"`
}

// LastN returns the last n numeric values of a series, oldest first. Entries
// FRED marks as missing (".") are skipped.
func (fc *FREDClient) LastN(ctx context.Context, seriesID string, n int) ([]float64, error) {
	if fc.apiKey == "" {
		return nil, fmt.Errorf("fred: api key missing")
	}

	resp, err := fc.client.R().
		SetContext(ctx).
		SetQueryParams(map[string]string{
			"series_id":  seriesID,
			"api_key":    fc.apiKey,
			"file_type":  "json",
			"sort_order": "desc",
			"limit":      strconv.Itoa(n),
		}).
		Get(fredBase)
	if err != nil {
		return nil, fmt.Errorf("fred fetch failed for %s: %w", seriesID, err)
	}
	if resp.StatusCode() != 200 {
		return nil, fmt.Errorf("fred http_status_%d for %s", resp.StatusCode(), seriesID)
	}

	var payload fredResponse
	if err := json.Unmarshal(resp.Body(), &payload); err != nil {
		return nil, fmt.Errorf("fred json parse failed for %s: %w", seriesID, err)
	}

	// Observations come newest first; reverse to oldest first.
	values := make([]float64, 0, len(payload.Observations))
	for i := len(payload.Observations) - 1; i >= 0; i-- {
		raw := payload.Observations[i].Value
		if raw == "." || raw == "" {
			continue
		}
		v, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			continue
		}
		values = append(values, v)
	}
	if len(values) == 0 {
		return nil, fmt.Errorf("fred: no numeric observations for %s", seriesID)
	}
	return values, nil
}

// Latest returns the most recent value of a series, or nil on any failure.
func (fc *FREDClient) Latest(ctx context.Context, seriesID string) *float64 {
	values, err := fc.LastN(ctx, seriesID, 1)
	if err != nil {
		return nil
	}
	v := values[len(values)-1]
	return &v
}

// YoYFromIndex computes the year-over-year percentage change of a monthly
// index series from its last 13 values.
func (fc *FREDClient) YoYFromIndex(ctx context.Context, seriesID string) *float64 {
	values, err := fc.LastN(ctx, seriesID, 13)
	if err != nil {
		return nil
	}
	return YoYFromValues(values)
}

// YoYFromValues computes YoY% from an oldest-first monthly value slice. It
// needs 13 values so the earliest is exactly one year behind the latest.
func YoYFromValues(values []float64) *float64 {
	if len(values) < 13 {
		return nil
	}
	base := values[len(values)-13]
	latest := values[len(values)-1]
	if base == 0 {
		return nil
	}
	yoy := (latest - base) / base * 100.0
	return &yoy
}

var ismPMIRe = regexp.MustCompile(`(?i)Manufacturing PMI[^0-9]{0,80}at\s+([0-9]{1,2}(?:\.[0-9])?)`)

// PMI scrapes the latest ISM Manufacturing PMI headline. FRED does not carry
// the ISM series reliably, so the public release page is the source. Values
// outside the plausible 30-70 band are treated as missing.
func (fc *FREDClient) PMI(ctx context.Context) *float64 {
	resp, err := fc.client.R().SetContext(ctx).Get("https://go.weareism.org/ism-manufacturing-pmi")
	if err != nil || resp.StatusCode() != 200 {
		return nil
	}

	m := ismPMIRe.FindStringSubmatch(string(resp.Body()))
	if m == nil {
		return nil
	}
	v, err := strconv.ParseFloat(m[1], 64)
	if err != nil || v < 30 || v > 70 {
		return nil
	}
	return &v
}
