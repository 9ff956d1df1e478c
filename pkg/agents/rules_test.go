package agents

import (
	"context"
	"testing"

	"github.com/hankyul/CommitteeGo/pkg/schema"
)

func degradedSnapshot() *schema.Snapshot {
	return &schema.Snapshot{
		AsOfDate: "2026-08-31",
		MarketSummary: schema.MarketSummary{
			Note: "usdkrw_fetch_failed: unavailable; kospi_change_pct_fetch_failed: unavailable",
		},
		FlowSummary: schema.FlowSummary{
			Note: "flows_fetch_failed: unavailable",
		},
		SectorMoves:   []string{"n/a", "n/a", "n/a"},
		NewsHeadlines: []string{},
		Watchlist:     []string{"SPY", "QQQ", "XLK"},
	}
}

func healthySnapshot() *schema.Snapshot {
	return &schema.Snapshot{
		AsOfDate: "2026-08-31",
		MarketSummary: schema.MarketSummary{
			Note:           "KOSPI 1.20%, USD/KRW 1391.50. Headlines loaded. Flows loaded.",
			KospiChangePct: 1.2,
			USDKRW:         1391.5,
		},
		FlowSummary: schema.FlowSummary{
			Note:           "flows loaded",
			ForeignNet:     2500,
			InstitutionNet: 900,
			RetailNet:      -3400,
		},
		Markets: schema.Markets{
			KR:         schema.MarketsKR{KospiPct: 1.2, KosdaqPct: 1.5},
			Volatility: schema.MarketsVolatility{VIX: 15.0},
		},
		SectorMoves:   []string{"Tech +1.80%", "Financials +0.30%"},
		NewsHeadlines: []string{"코스피 반등 지속"},
		Watchlist:     []string{"SPY", "QQQ", "XLK"},
	}
}

func TestRuleAgentsDegradedDataMeansNeutralLow(t *testing.T) {
	snap := degradedSnapshot()
	ctx := context.Background()

	for _, agent := range RuleAgents() {
		stance, err := agent.Run(ctx, snap)
		if err != nil {
			t.Fatalf("%s: %v", agent.Name(), err)
		}
		if stance.RegimeTag != schema.RegimeNeutral {
			t.Errorf("%s regime = %s, want NEUTRAL on degraded data", agent.Name(), stance.RegimeTag)
		}
		if stance.Confidence != schema.ConfidenceLow {
			t.Errorf("%s confidence = %s, want LOW on degraded data", agent.Name(), stance.Confidence)
		}
	}
}

func TestRuleAgentsEvidenceResolves(t *testing.T) {
	ctx := context.Background()
	for _, snap := range []*schema.Snapshot{degradedSnapshot(), healthySnapshot()} {
		resolver, err := schema.NewEvidenceResolver(snap)
		if err != nil {
			t.Fatalf("resolver: %v", err)
		}
		for _, agent := range RuleAgents() {
			stance, err := agent.Run(ctx, snap)
			if err != nil {
				t.Fatalf("%s: %v", agent.Name(), err)
			}
			for _, id := range stance.EvidenceIDs {
				if !resolver.Resolves(id) {
					t.Errorf("%s cites %q which does not resolve", agent.Name(), id)
				}
			}
		}
	}
}

func TestRuleAgentsStanceShape(t *testing.T) {
	ctx := context.Background()
	snap := healthySnapshot()

	for _, agent := range RuleAgents() {
		stance, err := agent.Run(ctx, snap)
		if err != nil {
			t.Fatalf("%s: %v", agent.Name(), err)
		}
		if stance.AgentName != agent.Name() {
			t.Errorf("stance agent = %s, want %s", stance.AgentName, agent.Name())
		}
		if len(stance.CoreClaims) == 0 || len(stance.CoreClaims) > schema.MaxCoreClaims {
			t.Errorf("%s claims = %d, want 1..%d", agent.Name(), len(stance.CoreClaims), schema.MaxCoreClaims)
		}
		if stance.KoreanComment == "" {
			t.Errorf("%s missing korean comment", agent.Name())
		}
		if stance.Origin != schema.OriginRule {
			t.Errorf("%s origin = %s, want rule", agent.Name(), stance.Origin)
		}
	}
}

func TestFlowRuleDirections(t *testing.T) {
	ctx := context.Background()

	snap := healthySnapshot()
	stance, _ := (&FlowRule{}).Run(ctx, snap)
	if stance.RegimeTag != schema.RegimeRiskOn {
		t.Errorf("dual buying should be RISK_ON, got %s", stance.RegimeTag)
	}

	snap.FlowSummary.ForeignNet = -2500
	snap.FlowSummary.InstitutionNet = -900
	stance, _ = (&FlowRule{}).Run(ctx, snap)
	if stance.RegimeTag != schema.RegimeRiskOff {
		t.Errorf("dual selling should be RISK_OFF, got %s", stance.RegimeTag)
	}
}

func TestBreadthRuleVolatilityRegimes(t *testing.T) {
	ctx := context.Background()

	snap := healthySnapshot()
	snap.Markets.KR = schema.MarketsKR{KospiPct: 1.5, KosdaqPct: 1.5}
	snap.Markets.Volatility.VIX = 14
	stance, _ := (&BreadthRule{}).Run(ctx, snap)
	if stance.RegimeTag != schema.RegimeRiskOn {
		t.Errorf("strong spread + low vix should be RISK_ON, got %s", stance.RegimeTag)
	}

	snap.Markets.Volatility.VIX = 32
	stance, _ = (&BreadthRule{}).Run(ctx, snap)
	if stance.RegimeTag != schema.RegimeRiskOff {
		t.Errorf("vix >= 30 should be RISK_OFF, got %s", stance.RegimeTag)
	}
}

func TestLiquidityRuleThresholds(t *testing.T) {
	ctx := context.Background()
	dxyHigh, realRate, spread := 106.0, 1.0, 0.3

	snap := healthySnapshot()
	snap.Macro = &schema.Macro{
		Daily:      schema.MacroDaily{DXY: &dxyHigh, Spread2s10s: &spread},
		Structural: schema.MacroStructural{RealRate: &realRate},
	}
	stance, _ := (&LiquidityRule{}).Run(ctx, snap)
	if stance.RegimeTag != schema.RegimeRiskOff {
		t.Errorf("DXY 106 should be RISK_OFF, got %s", stance.RegimeTag)
	}

	dxyLow := 98.0
	snap.Macro.Daily.DXY = &dxyLow
	stance, _ = (&LiquidityRule{}).Run(ctx, snap)
	if stance.RegimeTag != schema.RegimeRiskOn {
		t.Errorf("DXY 98 with benign rates should be RISK_ON, got %s", stance.RegimeTag)
	}
}

func TestRiskRuleKeywords(t *testing.T) {
	ctx := context.Background()
	snap := healthySnapshot()
	snap.NewsHeadlines = []string{"Moody's downgrade hits banks"}

	stance, _ := (&RiskRule{}).Run(ctx, snap)
	if stance.RegimeTag != schema.RegimeRiskOff {
		t.Errorf("downgrade headline should be RISK_OFF, got %s", stance.RegimeTag)
	}
	if stance.Confidence != schema.ConfidenceHigh {
		t.Errorf("concrete risk evidence should be HIGH confidence, got %s", stance.Confidence)
	}
}
