package schema

import "fmt"

// RegimeTag is the closed market-posture classification. Values are a closed
// set so vote tie-breaking and the guidance table stay total functions.
type RegimeTag string

const (
	RegimeRiskOn  RegimeTag = "RISK_ON"
	RegimeNeutral RegimeTag = "NEUTRAL"
	RegimeRiskOff RegimeTag = "RISK_OFF"
)

// RegimeTags lists every valid tag in tie-break precedence order: on an even
// vote split the committee biases defensive, so RISK_OFF wins over NEUTRAL,
// which wins over RISK_ON.
var RegimeTags = []RegimeTag{RegimeRiskOff, RegimeNeutral, RegimeRiskOn}

func (r RegimeTag) Valid() bool {
	switch r {
	case RegimeRiskOn, RegimeNeutral, RegimeRiskOff:
		return true
	}
	return false
}

// ConfidenceLevel expresses how much data backed a stance. It must never
// exceed the completeness of the data the agent actually saw.
type ConfidenceLevel string

const (
	ConfidenceLow  ConfidenceLevel = "LOW"
	ConfidenceMed  ConfidenceLevel = "MED"
	ConfidenceHigh ConfidenceLevel = "HIGH"
)

func (c ConfidenceLevel) Valid() bool {
	switch c {
	case ConfidenceLow, ConfidenceMed, ConfidenceHigh:
		return true
	}
	return false
}

// AgentName identifies one committee member.
type AgentName string

const (
	AgentMacro     AgentName = "macro"
	AgentFlow      AgentName = "flow"
	AgentSector    AgentName = "sector"
	AgentRisk      AgentName = "risk"
	AgentEarnings  AgentName = "earnings"
	AgentBreadth   AgentName = "breadth"
	AgentLiquidity AgentName = "liquidity"
)

// AllAgentNames lists the full committee roster.
var AllAgentNames = []AgentName{
	AgentMacro, AgentFlow, AgentSector, AgentRisk,
	AgentEarnings, AgentBreadth, AgentLiquidity,
}

func (a AgentName) Valid() bool {
	for _, name := range AllAgentNames {
		if a == name {
			return true
		}
	}
	return false
}

// ParseAgentName converts a config string into an AgentName.
func ParseAgentName(s string) (AgentName, error) {
	name := AgentName(s)
	if !name.Valid() {
		return "", fmt.Errorf("unknown agent name %q", s)
	}
	return name, nil
}

// StanceOrigin records which path produced a stance, so telemetry and the
// validator can tell an LLM result apart from its rule-based fallback.
type StanceOrigin string

const (
	OriginRule         StanceOrigin = "rule"
	OriginParsed       StanceOrigin = "parsed"
	OriginFallbackUsed StanceOrigin = "fallback_used"
)

// Stance is one agent's directional opinion for a single run. It is created
// once and never mutated.
type Stance struct {
	AgentName     AgentName       `json:"agent_name"`
	CoreClaims    []string        `json:"core_claims"`
	KoreanComment string          `json:"korean_comment"`
	RegimeTag     RegimeTag       `json:"regime_tag"`
	EvidenceIDs   []string        `json:"evidence_ids"`
	Confidence    ConfidenceLevel `json:"confidence"`
	RawResponse   string          `json:"raw_response,omitempty"`
	Origin        StanceOrigin    `json:"origin,omitempty"`
}

const (
	// MaxCoreClaims bounds the claims carried by one stance.
	MaxCoreClaims = 3
	// MaxEvidenceIDs bounds the evidence references per stance.
	MaxEvidenceIDs = 10
	// MaxShortText is the character bound for claims and key points.
	MaxShortText = 200
	// MaxKoreanComment is the character bound for the one-line comment.
	MaxKoreanComment = 120
)
