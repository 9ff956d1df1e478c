package dataflows

import (
	"math"
	"testing"
)

func TestYoYFromValues(t *testing.T) {
	tests := []struct {
		name   string
		values []float64
		want   float64
		isNil  bool
	}{
		{
			name:   "flat index",
			values: repeat(100, 13),
			want:   0,
		},
		{
			name:   "three percent rise",
			values: append(repeat(100, 12), 103),
			want:   3.0,
		},
		{
			name:   "too few values",
			values: repeat(100, 12),
			isNil:  true,
		},
		{
			name:   "zero base",
			values: append([]float64{0}, repeat(100, 12)...),
			isNil:  true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := YoYFromValues(tt.values)
			if tt.isNil {
				if got != nil {
					t.Fatalf("expected nil, got %v", *got)
				}
				return
			}
			if got == nil {
				t.Fatal("expected value, got nil")
			}
			if math.Abs(*got-tt.want) > 1e-9 {
				t.Errorf("YoY = %v, want %v", *got, tt.want)
			}
		})
	}
}

func TestScaleYield(t *testing.T) {
	if got := scaleYield(43.5); got != 4.35 {
		t.Errorf("scaleYield(43.5) = %v, want 4.35", got)
	}
	if got := scaleYield(4.35); got != 4.35 {
		t.Errorf("scaleYield(4.35) = %v, want unchanged 4.35", got)
	}
}

func TestISMPMIPattern(t *testing.T) {
	body := `<p>The Manufacturing PMI&#174; registered at 47.9 percent in August.</p>`
	m := ismPMIRe.FindStringSubmatch(body)
	if m == nil {
		t.Fatal("expected a PMI match")
	}
	if m[1] != "47.9" {
		t.Errorf("matched %q, want 47.9", m[1])
	}
}

func repeat(v float64, n int) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = v
	}
	return out
}
