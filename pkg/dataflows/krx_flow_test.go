package dataflows

import (
	"encoding/json"
	"testing"
)

func TestExtractInvestorFlow(t *testing.T) {
	raw := `{
		"output": [
			{"INVST_TP_NM": "개인", "NET_TRDVAL": "123,400,000,000"},
			{"INVST_TP_NM": "외국인", "NET_TRDVAL": "-56,700,000,000"},
			{"INVST_TP_NM": "기관합계", "NET_TRDVAL": "98,100,000,000"}
		]
	}`
	var js map[string]any
	if err := json.Unmarshal([]byte(raw), &js); err != nil {
		t.Fatalf("unmarshal failed: %v", err)
	}

	flow, err := extractInvestorFlow(js)
	if err != nil {
		t.Fatalf("extractInvestorFlow failed: %v", err)
	}
	if flow.Individual != 1234 {
		t.Errorf("individual = %d 억원, want 1234", flow.Individual)
	}
	if flow.Foreign != -567 {
		t.Errorf("foreign = %d 억원, want -567", flow.Foreign)
	}
	if flow.Institution != 981 {
		t.Errorf("institution = %d 억원, want 981", flow.Institution)
	}
}

func TestExtractInvestorFlowWideRow(t *testing.T) {
	raw := `{"OutBlock_1": [{"개인": "100000000", "외국인": "-200000000", "기관합계": "300000000"}]}`
	var js map[string]any
	if err := json.Unmarshal([]byte(raw), &js); err != nil {
		t.Fatalf("unmarshal failed: %v", err)
	}

	flow, err := extractInvestorFlow(js)
	if err != nil {
		t.Fatalf("extractInvestorFlow failed: %v", err)
	}
	if flow.Individual != 1 || flow.Foreign != -2 || flow.Institution != 3 {
		t.Errorf("unexpected flow: %+v", flow)
	}
}

func TestExtractInvestorFlowNoRows(t *testing.T) {
	js := map[string]any{"output": []any{}}
	if _, err := extractInvestorFlow(js); err == nil {
		t.Fatal("expected error for empty output")
	}
}

func TestParseKRXAmount(t *testing.T) {
	tests := []struct {
		input   string
		want    int64
		wantErr bool
	}{
		{"1,234", 1234, false},
		{"-5,600", -5600, false},
		{"789.0", 789, false},
		{"", 0, true},
		{"abc", 0, true},
	}

	for _, tt := range tests {
		got, err := parseKRXAmount(tt.input)
		if tt.wantErr {
			if err == nil {
				t.Errorf("parseKRXAmount(%q): expected error", tt.input)
			}
			continue
		}
		if err != nil {
			t.Errorf("parseKRXAmount(%q): %v", tt.input, err)
			continue
		}
		if got != tt.want {
			t.Errorf("parseKRXAmount(%q) = %d, want %d", tt.input, got, tt.want)
		}
	}
}

func TestToEok(t *testing.T) {
	if got := toEok(123_400_000_000); got != 1234 {
		t.Errorf("toEok = %d, want 1234", got)
	}
	if got := toEok(-150_000_000); got != -2 {
		t.Errorf("toEok(-1.5억) = %d, want -2 (round half away)", got)
	}
}

func TestKRXPayloadVariants(t *testing.T) {
	variants := krxPayloadVariants("20250829", marketCodeKospi)
	if len(variants) != 3 {
		t.Fatalf("expected 3 variants, got %d", len(variants))
	}
	if variants[0]["trdDd"] != "20250829" {
		t.Errorf("variant A missing trdDd")
	}
	if variants[1]["strtDd"] != "20250829" || variants[1]["endDd"] != "20250829" {
		t.Errorf("variant B missing date range")
	}
	if variants[2]["trdDd"] != "20250829" || variants[2]["strtDd"] != "20250829" {
		t.Errorf("variant C should carry both shapes")
	}
	for i, v := range variants {
		if v["mktId"] != marketCodeKospi {
			t.Errorf("variant %d missing mktId", i)
		}
	}
}
