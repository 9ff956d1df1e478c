package agents

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/hankyul/CommitteeGo/pkg/schema"
)

const commonOutputRules = "Output JSON only. No markdown. " +
	"Required keys: agent_name, core_claims, regime_tag, evidence_ids, confidence, korean_comment. " +
	"core_claims must be 1~3 short lines. " +
	"regime_tag must be one of RISK_ON/NEUTRAL/RISK_OFF. " +
	"confidence must be one of LOW/MED/HIGH. " +
	"korean_comment must be one short Korean sentence. " +
	"evidence_ids must use allowed snapshot paths only."

var agentBaseSystemPrompts = map[schema.AgentName]string{
	schema.AgentMacro: "You are the MACRO pre-analysis agent for an investment committee. " +
		"Be conservative, explicitly acknowledge uncertainty, and avoid overconfident claims. " +
		"Focus on macro regime interpretation from market_summary and macro context. " + commonOutputRules,
	schema.AgentFlow: "You are the FLOW pre-analysis agent. " +
		"Map numeric flow context to directional interpretation with stable logic. " +
		"Prefer consistency over creativity. " + commonOutputRules,
	schema.AgentSector: "You are the SECTOR pre-analysis agent. " +
		"Perform keyword/sector signal classification and produce concise claims. " +
		"Do not invent unseen sectors or tickers. " + commonOutputRules,
	schema.AgentRisk: "You are the RISK pre-analysis agent. " +
		"Precision is critical: avoid false alarms and overreaction. " +
		"Only emit RISK_OFF when risk evidence is concrete. " + commonOutputRules,
	schema.AgentEarnings: "You are the EARNINGS-REVISION pre-analysis agent. " +
		"Judge whether earnings momentum supports or undermines the market. " +
		"Do not extrapolate single headlines into trends. " + commonOutputRules,
	schema.AgentBreadth: "You are the BREADTH/TECHNICAL pre-analysis agent. " +
		"Read index diffusion and the volatility regime, not single-name moves. " + commonOutputRules,
	schema.AgentLiquidity: "You are the LIQUIDITY/POLICY pre-analysis agent. " +
		"Weigh dollar, real-rate, and curve pressure on risk assets. " + commonOutputRules,
}

// SystemPrompt returns the per-agent system prompt with the live market and
// headline context appended.
func SystemPrompt(name schema.AgentName, snap *schema.Snapshot) string {
	base, ok := agentBaseSystemPrompts[name]
	if !ok {
		base = "You are a pre-analysis agent for an investment committee. " + commonOutputRules
	}
	return base + snapshotContextBlock(snap)
}

// snapshotContextBlock builds a compact context block: indices, key
// indicators, and headlines.
func snapshotContextBlock(snap *schema.Snapshot) string {
	m := snap.Markets

	headlineLines := "- (none)"
	if len(snap.NewsHeadlines) > 0 {
		lines := make([]string, 0, len(snap.NewsHeadlines))
		for _, h := range snap.NewsHeadlines {
			lines = append(lines, "- "+h)
		}
		headlineLines = strings.Join(lines, "\n")
	}

	return fmt.Sprintf(
		"\n\nMarket Context (use this as primary evidence):\n"+
			"- KOSPI: %+.2f%%\n"+
			"- KOSDAQ: %+.2f%%\n"+
			"- S&P500: %+.2f%%\n"+
			"- NASDAQ: %+.2f%%\n"+
			"- DOW: %+.2f%%\n"+
			"- USD/KRW: %.2f (%+.2f%%)\n"+
			"- VIX: %.2f\n"+
			"- Market note: %s\n"+
			"- Flow note: %s\n"+
			"\nNews Headlines:\n%s\n",
		m.KR.KospiPct, m.KR.KosdaqPct,
		m.US.SP500Pct, m.US.NasdaqPct, m.US.DowPct,
		m.FX.USDKRW, m.FX.USDKRWPct,
		m.Volatility.VIX,
		snap.MarketSummary.Note,
		snap.FlowSummary.Note,
		headlineLines,
	)
}

// AllowedEvidenceIDs lists the snapshot paths LLM agents may cite. Paths into
// optional blocks appear only when the snapshot carries them.
func AllowedEvidenceIDs(snap *schema.Snapshot) []string {
	ids := []string{
		"snapshot.market_summary.note",
		"snapshot.market_summary.usdkrw",
		"snapshot.market_summary.kospi_change_pct",
		"snapshot.flow_summary.note",
		"snapshot.sector_moves",
		"snapshot.news_headlines",
		"snapshot.watchlist",
		"snapshot.markets.kr.kospi_pct",
		"snapshot.markets.volatility.vix",
	}
	if snap != nil && snap.Macro != nil {
		ids = append(ids,
			"snapshot.macro.daily.dxy",
			"snapshot.macro.structural.real_rate",
			"snapshot.macro.daily.spread_2_10",
		)
	}
	return ids
}

// UserPrompt serializes the snapshot and the evidence whitelist into the user
// message for one agent call.
func UserPrompt(snap *schema.Snapshot) (string, error) {
	payload := map[string]any{
		"snapshot":             snap,
		"instruction":          "Generate one stance JSON for this agent.",
		"allowed_evidence_ids": AllowedEvidenceIDs(snap),
	}
	raw, err := json.Marshal(payload)
	if err != nil {
		return "", fmt.Errorf("failed to build user prompt: %w", err)
	}
	return string(raw), nil
}
