package agents

import (
	"strings"

	"github.com/hankyul/CommitteeGo/pkg/schema"
)

// ModelBackend selects which model family drives the LLM agents.
type ModelBackend string

const (
	BackendRule     ModelBackend = "rule"
	BackendOpenAI   ModelBackend = "openai"
	BackendDeepSeek ModelBackend = "deepseek"
)

// ParseBackend parses a config string with a rule-based default: without an
// explicit LLM backend the committee runs deterministically.
func ParseBackend(value string) ModelBackend {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "openai", "gpt":
		return BackendOpenAI
	case "deepseek":
		return BackendDeepSeek
	default:
		return BackendRule
	}
}

// AgentModelProfile is the recommended model set for one seat.
type AgentModelProfile struct {
	Agent         schema.AgentName
	OpenAIModel   string
	DeepSeekModel string
	Rationale     string
}

// agentModelProfiles centralizes per-seat model preferences so backends can
// change without touching agent logic.
var agentModelProfiles = map[schema.AgentName]AgentModelProfile{
	schema.AgentMacro: {
		Agent:         schema.AgentMacro,
		OpenAIModel:   "gpt-4.1",
		DeepSeekModel: "deepseek-chat",
		Rationale:     "보수적 추론과 불확실성 표현 안정성을 우선.",
	},
	schema.AgentFlow: {
		Agent:         schema.AgentFlow,
		OpenAIModel:   "gpt-4.1",
		DeepSeekModel: "deepseek-chat",
		Rationale:     "수치/문맥 매핑 정확도와 처리비용 균형.",
	},
	schema.AgentSector: {
		Agent:         schema.AgentSector,
		OpenAIModel:   "gpt-4.1-mini",
		DeepSeekModel: "deepseek-chat",
		Rationale:     "키워드 분류 중심 업무라 경량 모델 효율이 높음.",
	},
	schema.AgentRisk: {
		Agent:         schema.AgentRisk,
		OpenAIModel:   "gpt-4.1",
		DeepSeekModel: "deepseek-reasoner",
		Rationale:     "과민탐지 억제를 위해 precision 우선 모델을 배치.",
	},
	schema.AgentEarnings: {
		Agent:         schema.AgentEarnings,
		OpenAIModel:   "gpt-4.1-mini",
		DeepSeekModel: "deepseek-chat",
		Rationale:     "헤드라인 분류 중심이라 경량 모델로 충분.",
	},
	schema.AgentBreadth: {
		Agent:         schema.AgentBreadth,
		OpenAIModel:   "gpt-4.1-mini",
		DeepSeekModel: "deepseek-chat",
		Rationale:     "수치 임계값 판정 위주라 경량 모델로 충분.",
	},
	schema.AgentLiquidity: {
		Agent:         schema.AgentLiquidity,
		OpenAIModel:   "gpt-4.1",
		DeepSeekModel: "deepseek-reasoner",
		Rationale:     "금리/달러 복합 판단이라 추론력 우선.",
	},
}

// ModelCandidates returns the models to try for one seat, preferred first.
// The first successful parse wins; exhausting the list falls back to rules.
func ModelCandidates(name schema.AgentName, backend ModelBackend) []string {
	profile, ok := agentModelProfiles[name]
	if !ok {
		profile = AgentModelProfile{OpenAIModel: "gpt-4.1-mini", DeepSeekModel: "deepseek-chat"}
	}

	switch backend {
	case BackendOpenAI:
		candidates := []string{profile.OpenAIModel}
		if profile.OpenAIModel != "gpt-4.1-mini" {
			candidates = append(candidates, "gpt-4.1-mini")
		}
		return candidates
	case BackendDeepSeek:
		candidates := []string{profile.DeepSeekModel}
		if profile.DeepSeekModel != "deepseek-chat" {
			candidates = append(candidates, "deepseek-chat")
		}
		return candidates
	default:
		return nil
	}
}
