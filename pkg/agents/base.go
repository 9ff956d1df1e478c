package agents

import (
	"context"

	"github.com/hankyul/CommitteeGo/pkg/schema"
)

// StanceAgent is one committee member. Implementations are stateless: Run is
// a pure function of the snapshot (plus, for LLM agents, the model call) and
// must not touch external data sources beyond its own model backend.
type StanceAgent interface {
	Name() schema.AgentName
	Run(ctx context.Context, snap *schema.Snapshot) (*schema.Stance, error)
}

// RuleAgents returns the full rule-based committee roster, in the canonical
// order. Rule agents never fail and need no credentials, so they are both the
// default backend and the fallback behind LLM agents.
func RuleAgents() []StanceAgent {
	return []StanceAgent{
		&MacroRule{},
		&FlowRule{},
		&SectorRule{},
		&RiskRule{},
		&EarningsRule{},
		&BreadthRule{},
		&LiquidityRule{},
	}
}

// RuleAgentFor returns the rule agent for one committee seat, or nil for an
// unknown seat.
func RuleAgentFor(name schema.AgentName) StanceAgent {
	for _, agent := range RuleAgents() {
		if agent.Name() == name {
			return agent
		}
	}
	return nil
}
