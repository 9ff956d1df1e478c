package chair

import (
	"fmt"
	"sort"

	"github.com/hankyul/CommitteeGo/pkg/schema"
)

// Chair reduces the committee's stances into one result: a single-sentence
// consensus, up to three key points, one disagreement per dissenting regime
// tag, and the fixed three-level guidance ladder.
type Chair struct{}

// NewChair creates a rule-based chair.
func NewChair() *Chair {
	return &Chair{}
}

// consensus and guidance are total functions of the majority tag.
var consensusByTag = map[schema.RegimeTag]string{
	schema.RegimeRiskOff: "Committee adopts a defensive posture and reduces risk exposure.",
	schema.RegimeNeutral: "Committee maintains a neutral posture with selective positioning.",
	schema.RegimeRiskOn:  "Committee leans constructive while keeping risk discipline intact.",
}

var guidanceByTag = map[schema.RegimeTag][]schema.OpsGuidance{
	schema.RegimeRiskOff: {
		{Level: schema.OpsOK, Text: "Keep exposure focused on resilience."},
		{Level: schema.OpsCaution, Text: "Favor defensive positioning."},
		{Level: schema.OpsAvoid, Text: "Avoid high-beta risk assets."},
	},
	schema.RegimeNeutral: {
		{Level: schema.OpsOK, Text: "Maintain balanced exposure."},
		{Level: schema.OpsCaution, Text: "Keep risk limits tight."},
		{Level: schema.OpsAvoid, Text: "Avoid aggressive leverage."},
	},
	schema.RegimeRiskOn: {
		{Level: schema.OpsOK, Text: "Add exposure gradually to market leaders."},
		{Level: schema.OpsCaution, Text: "Watch crowded positioning and reversals."},
		{Level: schema.OpsAvoid, Text: "Avoid chasing extended names."},
	},
}

// Run reduces stances deterministically. It errors on an empty stance list:
// a committee with no members seated has nothing to decide, and the pipeline
// must halt rather than fabricate a consensus.
func (c *Chair) Run(stances []*schema.Stance) (*schema.CommitteeResult, error) {
	if len(stances) == 0 {
		return nil, fmt.Errorf("no stances to reduce")
	}

	counts := TallyVotes(stances)
	majority := MajorityTag(counts)

	result := &schema.CommitteeResult{
		Consensus:     consensusByTag[majority],
		MajorityTag:   majority,
		KeyPoints:     buildKeyPoints(stances, majority),
		Disagreements: buildDisagreements(stances, counts, majority),
		OpsGuidance:   guidanceByTag[majority],
	}

	if err := checkSingleSentence(result.Consensus); err != nil {
		return nil, err
	}
	return result, nil
}

// TallyVotes counts stances per regime tag.
func TallyVotes(stances []*schema.Stance) map[schema.RegimeTag]int {
	counts := map[schema.RegimeTag]int{
		schema.RegimeRiskOn:  0,
		schema.RegimeNeutral: 0,
		schema.RegimeRiskOff: 0,
	}
	for _, stance := range stances {
		counts[stance.RegimeTag]++
	}
	return counts
}

// MajorityTag returns the plurality tag. Ties break toward the defensive end:
// RISK_OFF beats NEUTRAL beats RISK_ON, so an evenly split committee never
// comes out risk-seeking. Iterating schema.RegimeTags in order with a strict
// greater-than makes the earlier (more defensive) tag win ties.
func MajorityTag(counts map[schema.RegimeTag]int) schema.RegimeTag {
	best := schema.RegimeTags[0]
	bestCount := counts[best]
	for _, tag := range schema.RegimeTags[1:] {
		if counts[tag] > bestCount {
			best = tag
			bestCount = counts[tag]
		}
	}
	return best
}

// buildKeyPoints derives up to three shared themes: the majority regime, the
// most widely cited evidence path, and the most repeated claim. The latter
// two appear only when at least two agents share them.
func buildKeyPoints(stances []*schema.Stance, majority schema.RegimeTag) []schema.KeyPoint {
	points := make([]schema.KeyPoint, 0, schema.MaxKeyPoints)

	var majorityAgents []string
	for _, stance := range stances {
		if stance.RegimeTag == majority {
			majorityAgents = append(majorityAgents, string(stance.AgentName))
		}
	}
	if len(majorityAgents) == 0 {
		majorityAgents = []string{"unknown"}
	}
	points = append(points, schema.KeyPoint{
		Point:   fmt.Sprintf("Majority regime tag: %s.", majority),
		Sources: capSources(majorityAgents),
	})

	if evidence, agents := mostShared(stances, func(s *schema.Stance) []string { return s.EvidenceIDs }); len(agents) >= 2 {
		points = append(points, schema.KeyPoint{
			Point:   fmt.Sprintf("Shared evidence focus: %s.", evidence),
			Sources: capSources(agents),
		})
	}

	if claim, agents := mostShared(stances, func(s *schema.Stance) []string { return s.CoreClaims }); len(agents) >= 2 {
		points = append(points, schema.KeyPoint{
			Point:   "Shared claim: " + claim,
			Sources: capSources(agents),
		})
	}

	if len(points) > schema.MaxKeyPoints {
		points = points[:schema.MaxKeyPoints]
	}
	return points
}

// mostShared finds the item cited by the most distinct agents. Ties break by
// item string so results stay deterministic across runs.
func mostShared(stances []*schema.Stance, items func(*schema.Stance) []string) (string, []string) {
	agentsByItem := make(map[string]map[string]bool)
	for _, stance := range stances {
		for _, item := range items(stance) {
			if agentsByItem[item] == nil {
				agentsByItem[item] = make(map[string]bool)
			}
			agentsByItem[item][string(stance.AgentName)] = true
		}
	}

	var bestItem string
	bestCount := 0
	for item, agents := range agentsByItem {
		if len(agents) > bestCount || (len(agents) == bestCount && item < bestItem) {
			bestItem = item
			bestCount = len(agents)
		}
	}
	if bestItem == "" {
		return "", nil
	}

	agents := make([]string, 0, len(agentsByItem[bestItem]))
	for agent := range agentsByItem[bestItem] {
		agents = append(agents, agent)
	}
	sort.Strings(agents)
	return bestItem, agents
}

// buildDisagreements records one entry per dissenting regime tag, in
// precedence order. A unanimous committee has no disagreements.
func buildDisagreements(stances []*schema.Stance, counts map[schema.RegimeTag]int, majority schema.RegimeTag) []schema.Disagreement {
	disagreements := make([]schema.Disagreement, 0, 2)

	for _, tag := range schema.RegimeTags {
		if tag == majority || counts[tag] == 0 {
			continue
		}

		var minorityAgents []string
		for _, stance := range stances {
			if stance.RegimeTag == tag {
				minorityAgents = append(minorityAgents, string(stance.AgentName))
			}
		}
		disagreements = append(disagreements, schema.Disagreement{
			Topic:          "Regime tags",
			Majority:       majority,
			Minority:       tag,
			MinorityAgents: capSources(minorityAgents),
			WhyItMatters:   "Minority risk regime can change positioning boundaries.",
		})
	}
	return disagreements
}

func capSources(sources []string) []string {
	if len(sources) > schema.MaxKeyPointSources {
		return sources[:schema.MaxKeyPointSources]
	}
	return sources
}

// checkSingleSentence enforces the one-sentence consensus invariant.
func checkSingleSentence(consensus string) error {
	terminators := 0
	for _, ch := range consensus {
		switch ch {
		case '\n':
			return fmt.Errorf("consensus must be a single sentence")
		case '.', '!', '?':
			terminators++
		}
	}
	if terminators > 1 {
		return fmt.Errorf("consensus must be a single sentence")
	}
	return nil
}
