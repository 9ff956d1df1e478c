package dataflows

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
)

func TestExtractJSONValue(t *testing.T) {
	raw := `{"result": "success", "rates": {"KRW": 1465.09, "JPY": 147.2}}`
	var payload map[string]any
	if err := json.Unmarshal([]byte(raw), &payload); err != nil {
		t.Fatalf("unmarshal failed: %v", err)
	}

	tests := []struct {
		name string
		path []string
		want float64
		ok   bool
	}{
		{"nested rate", []string{"rates", "KRW"}, 1465.09, true},
		{"missing key", []string{"rates", "USD"}, 0, false},
		{"non-numeric leaf", []string{"result"}, 0, false},
		{"path through leaf", []string{"result", "KRW"}, 0, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := extractJSONValue(payload, tt.path)
			if ok != tt.ok {
				t.Fatalf("ok = %v, want %v", ok, tt.ok)
			}
			if ok && got != tt.want {
				t.Errorf("value = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestFallbackProviderSet(t *testing.T) {
	set := FallbackProviderSet()
	ctx := context.Background()

	if _, err := set.FX.USDKRW(ctx); !errors.Is(err, ErrUnavailable) {
		t.Errorf("FX error = %v, want ErrUnavailable", err)
	}
	if _, err := set.Equity.KospiChangePct(ctx); !errors.Is(err, ErrUnavailable) {
		t.Errorf("equity error = %v, want ErrUnavailable", err)
	}
	if _, err := set.Flows.Flows(ctx); !errors.Is(err, ErrUnavailable) {
		t.Errorf("flows error = %v, want ErrUnavailable", err)
	}
	if _, err := set.Headlines.Headlines(ctx, 5); !errors.Is(err, ErrUnavailable) {
		t.Errorf("headlines error = %v, want ErrUnavailable", err)
	}
	if _, err := set.Macro.Macro(ctx); !errors.Is(err, ErrUnavailable) {
		t.Errorf("macro error = %v, want ErrUnavailable", err)
	}
}
