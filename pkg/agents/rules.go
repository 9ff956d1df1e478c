package agents

import (
	"context"
	"strings"

	"github.com/hankyul/CommitteeGo/pkg/schema"
)

// The rule agents encode each seat's reading of the snapshot as small keyword
// and threshold heuristics. They share one hard rule: when the primary fields
// a seat depends on are degraded sentinels, the stance is NEUTRAL with LOW
// confidence. Confidence never exceeds what the data actually supports.

// MacroRule reads the market summary tone.
type MacroRule struct{}

func (a *MacroRule) Name() schema.AgentName { return schema.AgentMacro }

func (a *MacroRule) Run(ctx context.Context, snap *schema.Snapshot) (*schema.Stance, error) {
	var (
		regime     schema.RegimeTag
		confidence schema.ConfidenceLevel
		claims     []string
		comment    string
	)

	dataUnavailable := snap.MarketSummary.USDKRW == 0 &&
		snap.MarketSummary.KospiChangePct == 0 &&
		strings.Contains(snap.MarketSummary.Note, "fetch_failed")

	switch {
	case dataUnavailable:
		regime = schema.RegimeNeutral
		confidence = schema.ConfidenceLow
		claims = []string{"Macro data unavailable.", "Use neutral stance."}
		comment = "거시 데이터가 부족해 중립을 유지합니다."
	case strings.Contains(strings.ToLower(snap.MarketSummary.Note), "volatile"):
		regime = schema.RegimeRiskOff
		confidence = schema.ConfidenceMed
		claims = []string{"Macro tone is cautious.", "Volatility noted.", "Prefer defense."}
		comment = "변동성 경고가 있어 방어적 접근이 필요합니다."
	default:
		regime = schema.RegimeNeutral
		confidence = schema.ConfidenceMed
		claims = []string{"Macro tone is balanced.", "No major shocks.", "Stay selective."}
		comment = "거시는 균형적이며 선택적 대응이 적절합니다."
	}

	return &schema.Stance{
		AgentName:     a.Name(),
		CoreClaims:    claims,
		KoreanComment: comment,
		RegimeTag:     regime,
		EvidenceIDs: []string{
			"snapshot.market_summary.usdkrw",
			"snapshot.market_summary.kospi_change_pct",
			"snapshot.news_headlines",
		},
		Confidence: confidence,
		Origin:     schema.OriginRule,
	}, nil
}

// FlowRule reads the investor flow summary.
type FlowRule struct{}

func (a *FlowRule) Name() schema.AgentName { return schema.AgentFlow }

func (a *FlowRule) Run(ctx context.Context, snap *schema.Snapshot) (*schema.Stance, error) {
	var (
		regime     schema.RegimeTag
		confidence schema.ConfidenceLevel
		claims     []string
		comment    string
	)

	fs := snap.FlowSummary
	dataUnavailable := (fs.ForeignNet == 0 || fs.InstitutionNet == 0 || fs.RetailNet == 0) &&
		strings.Contains(fs.Note, "fetch_failed")

	switch {
	case dataUnavailable:
		regime = schema.RegimeNeutral
		confidence = schema.ConfidenceLow
		claims = []string{"Flow data unavailable.", "Use neutral stance."}
		comment = "수급 데이터가 없어 중립을 유지합니다."
	case fs.ForeignNet > 0 && fs.InstitutionNet > 0:
		regime = schema.RegimeRiskOn
		confidence = schema.ConfidenceHigh
		claims = []string{"Flows are supportive.", "Demand leads supply.", "Risk appetite rising."}
		comment = "수급 흐름이 우호적이라 위험 선호가 높아 보입니다."
	case fs.ForeignNet < 0 && fs.InstitutionNet < 0:
		regime = schema.RegimeRiskOff
		confidence = schema.ConfidenceMed
		claims = []string{"Foreign and institutional selling.", "Supply pressure dominant.", "Trim risk exposure."}
		comment = "외국인·기관 동반 매도로 수급 부담이 큽니다."
	default:
		regime = schema.RegimeNeutral
		confidence = schema.ConfidenceMed
		claims = []string{"Flows are balanced.", "No strong tilt.", "Keep positions moderate."}
		comment = "수급이 균형적이라 포지션은 보수적으로 유지하세요."
	}

	return &schema.Stance{
		AgentName:     a.Name(),
		CoreClaims:    claims,
		KoreanComment: comment,
		RegimeTag:     regime,
		EvidenceIDs:   []string{"snapshot.flow_summary.note", "snapshot.watchlist"},
		Confidence:    confidence,
		Origin:        schema.OriginRule,
	}, nil
}

// SectorRule reads the sector movement list.
type SectorRule struct{}

func (a *SectorRule) Name() schema.AgentName { return schema.AgentSector }

func (a *SectorRule) Run(ctx context.Context, snap *schema.Snapshot) (*schema.Stance, error) {
	var (
		regime     schema.RegimeTag
		confidence schema.ConfidenceLevel
		claims     []string
		comment    string
	)

	sectorText := strings.ToLower(strings.Join(snap.SectorMoves, " "))
	techLeads := strings.Contains(sectorText, "tech +")

	if techLeads {
		regime = schema.RegimeRiskOn
		confidence = schema.ConfidenceMed
		claims = []string{"Growth sectors show strength.", "Tech tone is firm.", "Risk appetite improving."}
		comment = "성장/테크가 강해 위험 선호가 개선됩니다."
	} else {
		regime = schema.RegimeNeutral
		confidence = schema.ConfidenceLow
		claims = []string{"Sector moves are mixed.", "No clear leader.", "Maintain balance."}
		comment = "섹터 주도주가 불명확해 균형 유지가 낫습니다."
	}

	return &schema.Stance{
		AgentName:     a.Name(),
		CoreClaims:    claims,
		KoreanComment: comment,
		RegimeTag:     regime,
		EvidenceIDs:   []string{"snapshot.sector_moves", "snapshot.watchlist"},
		Confidence:    confidence,
		Origin:        schema.OriginRule,
	}, nil
}

// RiskRule scans headlines for stress keywords.
type RiskRule struct{}

func (a *RiskRule) Name() schema.AgentName { return schema.AgentRisk }

func (a *RiskRule) Run(ctx context.Context, snap *schema.Snapshot) (*schema.Stance, error) {
	var (
		regime     schema.RegimeTag
		confidence schema.ConfidenceLevel
		claims     []string
		comment    string
	)

	headlineText := strings.ToLower(strings.Join(snap.NewsHeadlines, " "))
	stressed := strings.Contains(headlineText, "risk") ||
		strings.Contains(headlineText, "downgrade") ||
		strings.Contains(headlineText, "급락")
	dataUnavailable := len(snap.NewsHeadlines) == 0 &&
		(strings.Contains(snap.MarketSummary.Note, "fetch_failed") ||
			strings.Contains(snap.MarketSummary.Note, "Headlines unavailable"))

	switch {
	case dataUnavailable:
		regime = schema.RegimeNeutral
		confidence = schema.ConfidenceLow
		claims = []string{"Headline data unavailable.", "Use neutral stance."}
		comment = "뉴스 데이터가 없어 중립을 유지합니다."
	case stressed:
		regime = schema.RegimeRiskOff
		confidence = schema.ConfidenceHigh
		claims = []string{"Risk signals elevated.", "Headline risk rising.", "Reduce exposure."}
		comment = "리스크 신호가 높아 노출 축소가 필요합니다."
	default:
		regime = schema.RegimeNeutral
		confidence = schema.ConfidenceMed
		claims = []string{"Risk signals stable.", "No acute stress.", "Maintain discipline."}
		comment = "급격한 리스크는 없어 규율을 유지하세요."
	}

	return &schema.Stance{
		AgentName:     a.Name(),
		CoreClaims:    claims,
		KoreanComment: comment,
		RegimeTag:     regime,
		EvidenceIDs: []string{
			"snapshot.market_summary.usdkrw",
			"snapshot.market_summary.kospi_change_pct",
			"snapshot.news_headlines",
		},
		Confidence: confidence,
		Origin:     schema.OriginRule,
	}, nil
}

// EarningsRule reads earnings-revision cues from headlines and the KOSPI move.
type EarningsRule struct{}

func (a *EarningsRule) Name() schema.AgentName { return schema.AgentEarnings }

func (a *EarningsRule) Run(ctx context.Context, snap *schema.Snapshot) (*schema.Stance, error) {
	var (
		regime     schema.RegimeTag
		confidence schema.ConfidenceLevel
		claims     []string
		comment    string
	)

	headlineText := strings.ToLower(strings.Join(snap.NewsHeadlines, " "))
	downgradeCue := strings.Contains(headlineText, "실적 하향") ||
		strings.Contains(headlineText, "어닝 쇼크") ||
		strings.Contains(headlineText, "guidance cut")

	switch {
	case downgradeCue:
		regime = schema.RegimeRiskOff
		confidence = schema.ConfidenceMed
		claims = []string{
			"실적/가이던스 하향 신호가 누적됩니다.",
			"이익 추정치 둔화 가능성이 커졌습니다.",
			"밸류에이션 리레이팅 압력이 발생할 수 있습니다.",
		}
		comment = "이익 모멘텀이 약해져 방어적 접근이 유리합니다."
	case snap.Markets.KR.KospiPct >= 1.0:
		regime = schema.RegimeRiskOn
		confidence = schema.ConfidenceMed
		claims = []string{
			"실적/가이던스 상향 관련 단서가 우세합니다.",
			"이익 추정치 개선 기대가 유지됩니다.",
			"주가 상승의 펀더멘털 정당화 가능성이 있습니다.",
		}
		comment = "이익 모멘텀이 견조해 위험자산 선호를 지지합니다."
	default:
		regime = schema.RegimeNeutral
		confidence = schema.ConfidenceLow
		claims = []string{
			"실적 추정치 방향성이 뚜렷하지 않습니다.",
			"상향/하향 신호가 혼재되어 있습니다.",
			"확증 신호 전까지 중립 대응이 적절합니다.",
		}
		comment = "이익 모멘텀 신호가 혼재되어 중립을 유지합니다."
	}

	return &schema.Stance{
		AgentName:     a.Name(),
		CoreClaims:    claims,
		KoreanComment: comment,
		RegimeTag:     regime,
		EvidenceIDs: []string{
			"snapshot.markets.kr.kospi_pct",
			"snapshot.news_headlines",
			"snapshot.market_summary.note",
		},
		Confidence: confidence,
		Origin:     schema.OriginRule,
	}, nil
}

// BreadthRule compares Korean index diffusion against the volatility regime.
type BreadthRule struct{}

func (a *BreadthRule) Name() schema.AgentName { return schema.AgentBreadth }

func (a *BreadthRule) Run(ctx context.Context, snap *schema.Snapshot) (*schema.Stance, error) {
	var (
		regime     schema.RegimeTag
		confidence schema.ConfidenceLevel
		claims     []string
		comment    string
	)

	spread := (snap.Markets.KR.KospiPct + snap.Markets.KR.KosdaqPct) / 2.0
	vix := snap.Markets.Volatility.VIX

	switch {
	case spread >= 1.2 && vix > 0 && vix < 25:
		regime = schema.RegimeRiskOn
		confidence = schema.ConfidenceMed
		claims = []string{
			"국내 지수 확산 강도가 미국 대비 우위입니다.",
			"시장 내부체력(브레드스)이 개선되는 구간입니다.",
			"추세 추종 전략의 효율이 높아질 수 있습니다.",
		}
		comment = "브레드스가 개선되어 기술적 추세는 우호적입니다."
	case spread <= -1.2 || vix >= 30:
		regime = schema.RegimeRiskOff
		confidence = schema.ConfidenceMed
		claims = []string{
			"지수 확산이 약화되어 추세 신뢰도가 낮습니다.",
			"변동성 레짐이 위험자산에 불리한 구간입니다.",
			"손절·비중관리 규칙을 강화할 필요가 있습니다.",
		}
		comment = "브레드스 약화와 변동성 상승으로 보수적 대응이 필요합니다."
	default:
		regime = schema.RegimeNeutral
		confidence = schema.ConfidenceLow
		claims = []string{
			"추세 확산과 역추세 신호가 공존합니다.",
			"기술적 우위가 명확하지 않습니다.",
			"방향 확정 전까지 균형 비중이 적절합니다.",
		}
		comment = "브레드스 신호가 혼재되어 중립 대응이 합리적입니다."
	}

	return &schema.Stance{
		AgentName:     a.Name(),
		CoreClaims:    claims,
		KoreanComment: comment,
		RegimeTag:     regime,
		EvidenceIDs: []string{
			"snapshot.markets.kr.kospi_pct",
			"snapshot.markets.volatility.vix",
			"snapshot.market_summary.note",
		},
		Confidence: confidence,
		Origin:     schema.OriginRule,
	}, nil
}

// LiquidityRule reads dollar, real-rate, and curve pressure from the macro
// block. Thresholds: DXY 105 / real rate 2.2 / inverted 2s10s flag risk-off;
// DXY at or below 100 with benign rates flags risk-on.
type LiquidityRule struct{}

func (a *LiquidityRule) Name() schema.AgentName { return schema.AgentLiquidity }

func (a *LiquidityRule) Run(ctx context.Context, snap *schema.Snapshot) (*schema.Stance, error) {
	var (
		regime     schema.RegimeTag
		confidence schema.ConfidenceLevel
		claims     []string
		comment    string
		dxy        *float64
		realRate   *float64
		spread     *float64
	)

	if snap.Macro != nil {
		dxy = snap.Macro.Daily.DXY
		realRate = snap.Macro.Structural.RealRate
		spread = snap.Macro.Daily.Spread2s10s
	}

	riskOff := (dxy != nil && *dxy >= 105) ||
		(realRate != nil && *realRate >= 2.2) ||
		(spread != nil && *spread < -0.2)
	riskOn := dxy != nil && *dxy <= 100 &&
		(realRate == nil || *realRate <= 1.5) &&
		(spread == nil || *spread >= 0)

	switch {
	case snap.Macro == nil:
		regime = schema.RegimeNeutral
		confidence = schema.ConfidenceLow
		claims = []string{
			"유동성 지표를 확보하지 못했습니다.",
			"확증 신호 없이는 중립이 적절합니다.",
		}
		comment = "유동성 데이터가 없어 중립을 유지합니다."
	case riskOff:
		regime = schema.RegimeRiskOff
		confidence = schema.ConfidenceMed
		claims = []string{
			"달러·실질금리 환경이 위험자산에 부담으로 작용합니다.",
			"유동성 여건이 타이트해 밸류에이션 할인 요인이 큽니다.",
			"정책/금리 민감 자산 비중 축소가 필요합니다.",
		}
		comment = "유동성 여건이 긴축적이라 보수적 운용이 유리합니다."
	case riskOn:
		regime = schema.RegimeRiskOn
		confidence = schema.ConfidenceMed
		claims = []string{
			"달러 압력이 완화되고 금리 부담이 제한적입니다.",
			"유동성 환경이 위험자산 회복에 우호적입니다.",
			"정책 충격 가능성이 낮아 비중 확대 여지가 있습니다.",
		}
		comment = "유동성/정책 환경이 우호적이라 리스크온을 지지합니다."
	default:
		regime = schema.RegimeNeutral
		confidence = schema.ConfidenceLow
		claims = []string{
			"유동성 지표가 방향성 없이 혼재되어 있습니다.",
			"정책 민감도는 높지만 확증 신호는 부족합니다.",
			"과도한 베팅보다 리스크 균형이 유효합니다.",
		}
		comment = "유동성 신호가 혼재되어 중립적 비중 관리가 적절합니다."
	}

	// Cite macro fields only when this snapshot actually carries them.
	evidence := []string{"snapshot.market_summary.note"}
	if snap.Macro != nil {
		if dxy != nil {
			evidence = append(evidence, "snapshot.macro.daily.dxy")
		}
		if realRate != nil {
			evidence = append(evidence, "snapshot.macro.structural.real_rate")
		}
		if spread != nil {
			evidence = append(evidence, "snapshot.macro.daily.spread_2_10")
		}
	}

	return &schema.Stance{
		AgentName:     a.Name(),
		CoreClaims:    claims,
		KoreanComment: comment,
		RegimeTag:     regime,
		EvidenceIDs:   evidence,
		Confidence:    confidence,
		Origin:        schema.OriginRule,
	}, nil
}
