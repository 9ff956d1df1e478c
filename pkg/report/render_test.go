package report

import (
	"strings"
	"testing"

	"github.com/hankyul/CommitteeGo/pkg/schema"
)

func sampleReport() *schema.Report {
	return &schema.Report{
		GeneratedAt: "2025-01-15T22:00:00Z",
		MarketDate:  "2025-01-15",
		Snapshot: schema.Snapshot{
			AsOfDate: "2025-01-15",
			MarketSummary: schema.MarketSummary{
				Note:           "KOSPI -1.44%, USD/KRW 1465.09. Headlines loaded. Flows loaded.",
				KospiChangePct: -1.44,
				USDKRW:         1465.09,
			},
			FlowSummary: schema.FlowSummary{
				Note:           "flows loaded",
				ForeignNet:     -1234,
				InstitutionNet: 567,
				RetailNet:      667,
			},
			Markets: schema.Markets{
				KR: schema.MarketsKR{KospiPct: -1.44, KosdaqPct: -0.80},
				US: schema.MarketsUS{SP500Pct: 0.25, NasdaqPct: 0.40, DowPct: -0.10},
				FX: schema.MarketsFX{USDKRW: 1465.09, USDKRWPct: 0.31},
			},
			Watchlist: []string{"SPY"},
		},
		Stances: []schema.Stance{
			{
				AgentName:     schema.AgentMacro,
				CoreClaims:    []string{"달러 강세 지속"},
				KoreanComment: "환율 부담이 큽니다.",
				RegimeTag:     schema.RegimeRiskOff,
				EvidenceIDs:   []string{"snapshot.market_summary.usdkrw"},
				Confidence:    schema.ConfidenceMed,
			},
			{
				AgentName:     schema.AgentFlow,
				CoreClaims:    []string{"외국인 순매도"},
				KoreanComment: "수급이 약합니다.",
				RegimeTag:     schema.RegimeNeutral,
				EvidenceIDs:   []string{"snapshot.flow_summary.note"},
				Confidence:    schema.ConfidenceLow,
				RawResponse:   `{"regime_tag":"NEUTRAL"}`,
			},
		},
		CommitteeResult: schema.CommitteeResult{
			Consensus:   "Committee adopts a defensive posture and reduces risk exposure.",
			MajorityTag: schema.RegimeRiskOff,
			KeyPoints: []schema.KeyPoint{
				{Point: "Majority regime tag is RISK_OFF.", Sources: []string{"macro"}},
			},
			Disagreements: []schema.Disagreement{
				{
					Topic:          "Regime tags",
					Majority:       schema.RegimeRiskOff,
					Minority:       schema.RegimeNeutral,
					MinorityAgents: []string{"flow"},
					WhyItMatters:   "Minority risk regime can change positioning boundaries.",
				},
			},
			OpsGuidance: []schema.OpsGuidance{
				{Level: schema.OpsOK, Text: "Keep exposure focused on resilience."},
				{Level: schema.OpsCaution, Text: "Favor defensive positioning."},
				{Level: schema.OpsAvoid, Text: "Avoid high-beta risk assets."},
			},
		},
	}
}

func TestMarkdownTranslatesKnownPhrases(t *testing.T) {
	md := Markdown(sampleReport())

	wants := []string{
		"# 데일리 AI 투자위원회",
		"날짜: 2025-01-15",
		"위원회는 방어적 입장을 채택하고 위험 노출을 줄입니다.",
		"- 다수 국면 태그 is RISK_OFF. (출처: macro)",
		"- 매크로: 환율 부담이 큽니다.",
		"- 수급: 수급이 약합니다.",
		"국면 투표: NEUTRAL=1, RISK_ON=0, RISK_OFF=1",
		"요약: 현재 국면은 RISK_OFF로 판단됩니다.",
		"- 국면 태그: 다수=RISK_OFF, 소수=NEUTRAL, 에이전트=[flow].",
		"[OK/유지]",
		"[CAUTION/주의]",
		"[AVOID/회피]",
		"국내: KOSPI -1.44%, KOSDAQ -0.80%",
		"미국: S&P500 +0.25%, NASDAQ +0.40%, DOW -0.10%",
		"환율: USD/KRW 1465.09 (+0.31%)",
		"- 외국인: **-1234** / 기관: **+567** / 개인: **+667**",
	}
	for _, want := range wants {
		if !strings.Contains(md, want) {
			t.Errorf("markdown missing %q", want)
		}
	}
}

func TestMarkdownRawResponseBlocks(t *testing.T) {
	md := Markdown(sampleReport())
	if !strings.Contains(md, "```\n{\"regime_tag\":\"NEUTRAL\"}\n```") {
		t.Error("raw response not fenced")
	}
	if !strings.Contains(md, "(stub or raw response unavailable)") {
		t.Error("missing placeholder for stance without raw response")
	}
}

func TestMarkdownOptionalBlocksMissing(t *testing.T) {
	report := sampleReport()
	report.Snapshot.Macro = nil
	report.Snapshot.KoreanMarketFlow = nil

	md := Markdown(report)
	if strings.Contains(md, "## 매크로 (요약)") {
		t.Error("macro section rendered without data")
	}
	if !strings.Contains(md, "- 데이터: unavailable") {
		t.Error("missing korean flow unavailable line")
	}
}

func TestMarkdownMacroNilFieldsShowNA(t *testing.T) {
	dxy := 105.3
	report := sampleReport()
	report.Snapshot.Macro = &schema.Macro{
		Daily: schema.MacroDaily{DXY: &dxy},
	}

	md := Markdown(report)
	if !strings.Contains(md, "DXY 105.30") {
		t.Error("present daily value not rendered")
	}
	if !strings.Contains(md, "미10년 n/a") {
		t.Error("missing value should render n/a")
	}
	if !strings.Contains(md, "- 월간: 실업률 n/a") {
		t.Error("empty monthly block should render n/a values")
	}
}

func TestMarkdownKoreanFlow(t *testing.T) {
	report := sampleReport()
	report.Snapshot.KoreanMarketFlow = &schema.KoreanMarketFlow{
		Date: "20250115",
		Market: map[string]schema.InvestorFlow{
			"KOSPI": {Foreign: -2950, Institution: 1200, Individual: 1750},
		},
	}

	md := Markdown(report)
	if !strings.Contains(md, "- 기준일: 20250115") {
		t.Error("missing flow date")
	}
	if !strings.Contains(md, "- KOSPI: 외국인 **-2950** / 기관 **+1200** / 개인 **+1750**") {
		t.Error("missing KOSPI investor line")
	}
	if !strings.Contains(md, "- KOSDAQ: n/a") {
		t.Error("missing KOSDAQ n/a line")
	}
}

func TestAppendDigest(t *testing.T) {
	base := "# brief\n"
	md := AppendDigest(base, []DigestEntry{
		{
			Title:   "코스피 하락 마감",
			Link:    "https://example.com/a",
			Summary: []string{"첫째 줄", "둘째 줄", "셋째 줄"},
		},
	})
	for _, want := range []string{"## 뉴스 요약", "### 코스피 하락 마감", "- 첫째 줄", "원문: https://example.com/a"} {
		if !strings.Contains(md, want) {
			t.Errorf("digest missing %q", want)
		}
	}
	if AppendDigest(base, nil) != base {
		t.Error("empty digest should leave markdown unchanged")
	}
}

func TestTranslateFallsBackToOriginal(t *testing.T) {
	if got := translateSentence("완전히 새로운 문장"); got != "완전히 새로운 문장" {
		t.Errorf("unknown sentence changed: %q", got)
	}
	if got := translatePhrase("Unrelated point"); got != "Unrelated point" {
		t.Errorf("unknown phrase changed: %q", got)
	}
	if got := agentLabel(schema.AgentName("custom")); got != "custom" {
		t.Errorf("unknown agent label = %q", got)
	}
}
