package schema

// OpsLevel is one rung of the three-tier operational guidance ladder.
type OpsLevel string

const (
	OpsOK      OpsLevel = "OK"
	OpsCaution OpsLevel = "CAUTION"
	OpsAvoid   OpsLevel = "AVOID"
)

// OpsLevels lists the required ladder, in display order.
var OpsLevels = []OpsLevel{OpsOK, OpsCaution, OpsAvoid}

func (l OpsLevel) Valid() bool {
	switch l {
	case OpsOK, OpsCaution, OpsAvoid:
		return true
	}
	return false
}

// KeyPoint is a shared theme with the agents that support it.
type KeyPoint struct {
	Point   string   `json:"point"`
	Sources []string `json:"sources"`
}

// Disagreement records one minority regime tag against the majority.
type Disagreement struct {
	Topic          string    `json:"topic"`
	Majority       RegimeTag `json:"majority"`
	Minority       RegimeTag `json:"minority"`
	MinorityAgents []string  `json:"minority_agents"`
	WhyItMatters   string    `json:"why_it_matters"`
}

// OpsGuidance is one advisory line at a fixed level.
type OpsGuidance struct {
	Level OpsLevel `json:"level"`
	Text  string   `json:"text"`
}

// CommitteeResult is the chair's reduction of all stances for one run.
// OpsGuidance always holds exactly one entry per level; Disagreements is
// empty when the committee is unanimous.
type CommitteeResult struct {
	Consensus     string         `json:"consensus"`
	MajorityTag   RegimeTag      `json:"majority_tag"`
	KeyPoints     []KeyPoint     `json:"key_points"`
	Disagreements []Disagreement `json:"disagreements"`
	OpsGuidance   []OpsGuidance  `json:"ops_guidance"`
}

const (
	// MaxKeyPoints bounds the key point list.
	MaxKeyPoints = 3
	// MaxKeyPointSources bounds the contributing agents per key point.
	MaxKeyPointSources = 5
)
