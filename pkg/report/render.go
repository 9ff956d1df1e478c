// Package report renders the validated committee output as a Korean morning
// brief in markdown. Canonical English chair phrases are translated through
// fixed tables; free text passes through untouched.
package report

import (
	"fmt"
	"strings"

	"github.com/hankyul/CommitteeGo/pkg/schema"
)

var levelLabels = map[schema.OpsLevel]string{
	schema.OpsOK:      "유지",
	schema.OpsCaution: "주의",
	schema.OpsAvoid:   "회피",
}

var phrasePrefixes = map[string]string{
	"Majority regime tag":   "다수 국면 태그",
	"Shared evidence focus": "공통 근거",
	"Shared claim":          "공통 주장",
	"Regime tags":           "국면 태그",
}

var sentenceTranslations = map[string]string{
	"Committee agrees on a neutral stance with selective monitoring.":      "위원회는 선별적 모니터링 하에 중립적 스탠스를 유지합니다.",
	"Committee maintains a neutral posture with selective positioning.":    "위원회는 선별적 포지셔닝을 전제로 중립적 입장을 유지합니다.",
	"Committee adopts a defensive posture and reduces risk exposure.":      "위원회는 방어적 입장을 채택하고 위험 노출을 줄입니다.",
	"Committee leans constructive while keeping risk discipline intact.":   "위원회는 리스크 관리를 전제로 우호적 기조를 취합니다.",
	"No dissenting regime tags are present.":                               "다른 국면 태그의 이견은 없습니다.",
	"Minority risk regime can change positioning boundaries.":              "소수 의견 국면은 포지션 경계에 영향을 줄 수 있습니다.",
	"Maintain balanced exposure.":                                          "노출을 균형 있게 유지합니다.",
	"Keep risk limits tight.":                                              "리스크 한도를 엄격히 유지합니다.",
	"Avoid aggressive leverage.":                                           "과도한 레버리지는 피합니다.",
	"Keep exposure focused on resilience.":                                 "방어력 있는 자산 중심으로 노출을 유지합니다.",
	"Favor defensive positioning.":                                         "방어적 포지셔닝을 우선합니다.",
	"Avoid high-beta risk assets.":                                         "고베타 위험 자산은 피합니다.",
	"Add exposure gradually to market leaders.":                            "주도주 중심으로 노출을 점진적으로 늘립니다.",
	"Watch crowded positioning and reversals.":                             "쏠림과 급반전 가능성을 주시합니다.",
	"Avoid chasing extended names.":                                        "과열 종목 추격 매수는 피합니다.",
}

var agentLabels = map[schema.AgentName]string{
	schema.AgentMacro:     "매크로",
	schema.AgentFlow:      "수급",
	schema.AgentSector:    "섹터",
	schema.AgentRisk:      "리스크",
	schema.AgentEarnings:  "실적",
	schema.AgentBreadth:   "시장폭",
	schema.AgentLiquidity: "유동성",
}

func translateLevel(level schema.OpsLevel) string {
	if label, ok := levelLabels[level]; ok {
		return label
	}
	return string(level)
}

func translatePhrase(text string) string {
	for prefix, replacement := range phrasePrefixes {
		if strings.HasPrefix(text, prefix) {
			return replacement + text[len(prefix):]
		}
	}
	return text
}

func translateSentence(text string) string {
	if translated, ok := sentenceTranslations[text]; ok {
		return translated
	}
	return text
}

func agentLabel(name schema.AgentName) string {
	if label, ok := agentLabels[name]; ok {
		return label
	}
	return string(name)
}

// fmtOpt renders an optional numeric value, showing "n/a" for missing series.
func fmtOpt(value *float64, digits int, suffix string) string {
	if value == nil {
		return "n/a"
	}
	return fmt.Sprintf("%.*f%s", digits, *value, suffix)
}

// Markdown renders the full morning brief.
func Markdown(report *schema.Report) string {
	var b strings.Builder

	b.WriteString("# 데일리 AI 투자위원회\n\n")
	fmt.Fprintf(&b, "날짜: %s\n", report.MarketDate)
	fmt.Fprintf(&b, "생성 시각: %s\n\n", report.GeneratedAt)

	result := report.CommitteeResult

	b.WriteString("## 합의 결과\n")
	b.WriteString(translateSentence(result.Consensus))
	b.WriteString("\n\n## 핵심 포인트\n")
	for _, kp := range result.KeyPoints {
		fmt.Fprintf(&b, "- %s (출처: %s)\n", translatePhrase(kp.Point), strings.Join(kp.Sources, ", "))
	}

	b.WriteString("\n## AI 한줄 의견\n")
	for _, stance := range report.Stances {
		fmt.Fprintf(&b, "- %s: %s\n", agentLabel(stance.AgentName), stance.KoreanComment)
	}

	b.WriteString("\n## AI 핵심 주장\n")
	for _, stance := range report.Stances {
		fmt.Fprintf(&b, "### %s\n", agentLabel(stance.AgentName))
		for _, claim := range stance.CoreClaims {
			fmt.Fprintf(&b, "- %s\n", claim)
		}
	}

	b.WriteString("\n## AI 원문 응답\n")
	for _, stance := range report.Stances {
		fmt.Fprintf(&b, "### %s\n", agentLabel(stance.AgentName))
		if stance.RawResponse != "" {
			b.WriteString("```\n")
			b.WriteString(stance.RawResponse)
			b.WriteString("\n```\n")
		} else {
			b.WriteString("(stub or raw response unavailable)\n")
		}
	}

	counts := map[schema.RegimeTag]int{}
	for _, stance := range report.Stances {
		counts[stance.RegimeTag]++
	}
	fmt.Fprintf(&b, "\n국면 투표: NEUTRAL=%d, RISK_ON=%d, RISK_OFF=%d\n",
		counts[schema.RegimeNeutral], counts[schema.RegimeRiskOn], counts[schema.RegimeRiskOff])
	fmt.Fprintf(&b, "요약: 현재 국면은 %s로 판단됩니다.\n", result.MajorityTag)

	b.WriteString("\n## 이견\n")
	if len(result.Disagreements) == 0 {
		b.WriteString("- 다른 국면 태그의 이견은 없습니다.\n")
	}
	for _, d := range result.Disagreements {
		fmt.Fprintf(&b, "- %s: 다수=%s, 소수=%s, 에이전트=[%s]. %s\n",
			translatePhrase(d.Topic), d.Majority, d.Minority,
			strings.Join(d.MinorityAgents, ", "), translateSentence(d.WhyItMatters))
	}

	b.WriteString("\n## 운영 가이드\n")
	for _, g := range result.OpsGuidance {
		fmt.Fprintf(&b, "- [%s/%s] %s\n", g.Level, translateLevel(g.Level), translateSentence(g.Text))
	}

	m := report.Snapshot.Markets
	b.WriteString("\n## 글로벌 시장\n")
	fmt.Fprintf(&b, "국내: KOSPI %+.2f%%, KOSDAQ %+.2f%%\n", m.KR.KospiPct, m.KR.KosdaqPct)
	fmt.Fprintf(&b, "미국: S&P500 %+.2f%%, NASDAQ %+.2f%%, DOW %+.2f%%\n", m.US.SP500Pct, m.US.NasdaqPct, m.US.DowPct)
	fmt.Fprintf(&b, "환율: USD/KRW %.2f (%+.2f%%)\n", m.FX.USDKRW, m.FX.USDKRWPct)

	s := report.Snapshot.MarketSummary
	b.WriteString("\n## 시장 지표\n")
	fmt.Fprintf(&b, "- KOSPI 일일 등락: **%+.2f%%**\n", s.KospiChangePct)
	fmt.Fprintf(&b, "- USD/KRW: **%.2f**\n", s.USDKRW)
	fmt.Fprintf(&b, "- 요약: %s\n", s.Note)

	f := report.Snapshot.FlowSummary
	b.WriteString("\n## 수급 (억원, 순매수)\n")
	fmt.Fprintf(&b, "- 외국인: **%+.0f** / 기관: **%+.0f** / 개인: **%+.0f**\n", f.ForeignNet, f.InstitutionNet, f.RetailNet)
	fmt.Fprintf(&b, "- 비고: %s\n", f.Note)

	b.WriteString("\n## 한국 수급 (KOSPI/KOSDAQ, 억원 순매수)\n")
	writeKoreanFlow(&b, report.Snapshot.KoreanMarketFlow)

	if report.Snapshot.Macro != nil {
		writeMacro(&b, report.Snapshot.Macro)
	}

	return b.String()
}

func writeKoreanFlow(b *strings.Builder, kf *schema.KoreanMarketFlow) {
	if kf == nil {
		b.WriteString("- 데이터: unavailable (수집 실패/휴장일 등)\n")
		return
	}
	fmt.Fprintf(b, "- 기준일: %s\n", kf.Date)
	for _, market := range []string{"KOSPI", "KOSDAQ"} {
		inv, ok := kf.Market[market]
		if !ok {
			fmt.Fprintf(b, "- %s: n/a\n", market)
			continue
		}
		fmt.Fprintf(b, "- %s: 외국인 **%+d** / 기관 **%+d** / 개인 **%+d**\n",
			market, inv.Foreign, inv.Institution, inv.Individual)
	}
}

func writeMacro(b *strings.Builder, macro *schema.Macro) {
	b.WriteString("\n## 매크로 (요약)\n")

	d := macro.Daily
	fmt.Fprintf(b, "- 일간: 미10년 %s / 미2년 %s / 2-10 %s\n",
		fmtOpt(d.US10Y, 2, "%"), fmtOpt(d.US2Y, 2, "%"), fmtOpt(d.Spread2s10s, 2, "%p"))
	fmt.Fprintf(b, "        DXY %s / USDKRW %s / VIX %s\n",
		fmtOpt(d.DXY, 2, ""), fmtOpt(d.USDKRW, 2, ""), fmtOpt(d.VIX, 1, ""))

	mth := macro.Monthly
	fmt.Fprintf(b, "- 월간: 실업률 %s, CPI YoY %s, Core CPI YoY %s, PCE YoY %s, PMI %s\n",
		fmtOpt(mth.UnemploymentRate, 2, "%"), fmtOpt(mth.CPIYoY, 2, "%"),
		fmtOpt(mth.CoreCPIYoY, 2, "%"), fmtOpt(mth.PCEYoY, 2, "%"), fmtOpt(mth.PMI, 1, ""))
	fmt.Fprintf(b, "          임금 레벨 %s, 임금 YoY %s\n",
		fmtOpt(mth.WageLevel, 2, ""), fmtOpt(mth.WageYoY, 2, "%"))

	q := macro.Quarterly
	fmt.Fprintf(b, "- 분기: 실질 GDP %s, GDP QoQ 연율 %s\n",
		fmtOpt(q.RealGDP, 2, ""), fmtOpt(q.GDPQoQAnnualized, 2, "%"))

	st := macro.Structural
	fmt.Fprintf(b, "- 구조: 기준금리 %s, 실질금리 %s\n",
		fmtOpt(st.FedFundsRate, 2, "%"), fmtOpt(st.RealRate, 2, "%"))
}

// DigestEntry is one summarized article for the optional news section.
type DigestEntry struct {
	Title   string
	Link    string
	Summary []string
}

// AppendDigest renders optional 3-line article summaries under the brief.
func AppendDigest(markdown string, entries []DigestEntry) string {
	if len(entries) == 0 {
		return markdown
	}
	var b strings.Builder
	b.WriteString(markdown)
	b.WriteString("\n## 뉴스 요약\n")
	for _, entry := range entries {
		fmt.Fprintf(&b, "### %s\n", entry.Title)
		for _, line := range entry.Summary {
			fmt.Fprintf(&b, "- %s\n", line)
		}
		if entry.Link != "" {
			fmt.Fprintf(&b, "원문: %s\n", entry.Link)
		}
	}
	return b.String()
}
