package dataflows

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/go-resty/resty/v2"
)

// fxEndpoints are tried in order; each entry names the source, its URL, and
// the JSON path down to the KRW rate.
var fxEndpoints = []struct {
	Name string
	URL  string
	Path []string
}{
	{"er_api", "https://open.er-api.com/v6/latest/USD", []string{"rates", "KRW"}},
	{"exchangerate_host", "https://api.exchangerate.host/latest?base=USD&symbols=KRW", []string{"rates", "KRW"}},
	{"fawaz_api", "https://cdn.jsdelivr.net/npm/@fawazahmed0/currency-api@1/latest/currencies/usd/krw.json", []string{"krw"}},
}

// FXClient fetches the USD/KRW spot from free public JSON endpoints, falling
// back to Yahoo when every endpoint refuses.
type FXClient struct {
	client   *resty.Client
	fallback FXProvider
}

// NewFXClient creates a new FX client. fallback may be nil.
func NewFXClient(fallback FXProvider) *FXClient {
	client := resty.New()
	client.SetTimeout(7 * time.Second)
	client.SetHeader("User-Agent", "CommitteeGo/1.0")

	return &FXClient{
		client:   client,
		fallback: fallback,
	}
}

// USDKRW returns the USD/KRW spot rate from the first endpoint that answers.
func (fx *FXClient) USDKRW(ctx context.Context) (float64, error) {
	lastReason := "unavailable"

	for _, src := range fxEndpoints {
		resp, err := fx.client.R().SetContext(ctx).Get(src.URL)
		if err != nil {
			lastReason = fmt.Sprintf("%s: %v", src.Name, err)
			continue
		}
		if resp.StatusCode() != 200 {
			lastReason = fmt.Sprintf("%s: http_status_%d", src.Name, resp.StatusCode())
			continue
		}

		var payload map[string]any
		if err := json.Unmarshal(resp.Body(), &payload); err != nil {
			lastReason = fmt.Sprintf("%s: json_parse_error", src.Name)
			continue
		}

		value, ok := extractJSONValue(payload, src.Path)
		if !ok {
			lastReason = fmt.Sprintf("%s: key_missing", src.Name)
			continue
		}
		return value, nil
	}

	if fx.fallback != nil {
		if v, err := fx.fallback.USDKRW(ctx); err == nil {
			return v, nil
		}
	}
	return 0, fmt.Errorf("usdkrw: %s", lastReason)
}

// extractJSONValue walks a decoded JSON tree along path and coerces the leaf
// to float64.
func extractJSONValue(payload map[string]any, path []string) (float64, bool) {
	var current any = payload
	for _, key := range path {
		node, ok := current.(map[string]any)
		if !ok {
			return 0, false
		}
		current, ok = node[key]
		if !ok {
			return 0, false
		}
	}
	value, ok := current.(float64)
	return value, ok
}
