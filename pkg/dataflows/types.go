package dataflows

import (
	"errors"
	"fmt"
	"time"
)

// ErrUnavailable is returned by providers that have no data source configured
// or whose upstream refused every endpoint. The snapshot builder treats it the
// same as any other provider error: substitute a sentinel and note the reason.
var ErrUnavailable = errors.New("unavailable")

// FlowTotals aggregates investor net flows across the whole market, in 억원
// (hundred million KRW). Positive means net buying.
type FlowTotals struct {
	Foreign     float64 `json:"foreign"`
	Institution float64 `json:"institution"`
	Retail      float64 `json:"retail"`
}

// SectorMove is one named sector with its daily percentage change.
type SectorMove struct {
	Name      string  `json:"name"`
	ChangePct float64 `json:"change_pct"`
}

// String renders the move the way it appears in snapshots, e.g. "Tech +1.20%".
func (s SectorMove) String() string {
	return fmt.Sprintf("%s %+.2f%%", s.Name, s.ChangePct)
}

// RetryConfig controls exponential backoff for flaky upstream endpoints.
type RetryConfig struct {
	MaxRetries int
	BaseDelay  time.Duration
	MaxDelay   time.Duration
	Multiplier float64
}

// DefaultRetryConfig returns sensible retry defaults
func DefaultRetryConfig() *RetryConfig {
	return &RetryConfig{
		MaxRetries: 2,
		BaseDelay:  500 * time.Millisecond,
		MaxDelay:   5 * time.Second,
		Multiplier: 2.0,
	}
}

// WithRetry executes a function with exponential backoff retry
func WithRetry(config *RetryConfig, fn func() error) error {
	var lastErr error

	for attempt := 0; attempt <= config.MaxRetries; attempt++ {
		if attempt > 0 {
			delay := time.Duration(float64(config.BaseDelay) *
				pow(config.Multiplier, float64(attempt-1)))
			if delay > config.MaxDelay {
				delay = config.MaxDelay
			}
			time.Sleep(delay)
		}

		if err := fn(); err != nil {
			lastErr = err
			continue
		}

		return nil
	}

	return fmt.Errorf("max retries exceeded: %w", lastErr)
}

// pow is a simple power function for floats
func pow(base, exp float64) float64 {
	result := 1.0
	for i := 0; i < int(exp); i++ {
		result *= base
	}
	return result
}
