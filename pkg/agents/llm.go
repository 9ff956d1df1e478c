package agents

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/cloudwego/eino-ext/components/model/deepseek"
	"github.com/cloudwego/eino-ext/components/model/openai"
	"github.com/cloudwego/eino/components/model"
	einoschema "github.com/cloudwego/eino/schema"
	"go.uber.org/zap"

	"github.com/hankyul/CommitteeGo/pkg/schema"
)

// Tracer records LLM call telemetry. The trace package implements it; tests
// and rule-only runs use NopTracer.
type Tracer interface {
	Log(event string, payload map[string]any)
}

// NopTracer discards all trace events.
type NopTracer struct{}

func (NopTracer) Log(string, map[string]any) {}

// ChatModelFactory builds a chat model for one named model. Injected so tests
// can substitute a canned model without network access.
type ChatModelFactory func(ctx context.Context, modelName string) (model.BaseChatModel, error)

// LLMConfig carries the credentials and knobs for LLM-backed agents.
type LLMConfig struct {
	Backend        ModelBackend
	OpenAIAPIKey   string
	OpenAIBaseURL  string
	DeepSeekAPIKey string
	Temperature    float32
	MaxTokens      int
}

// NewChatModelFactory returns the production factory for the configured
// backend.
func NewChatModelFactory(cfg LLMConfig) ChatModelFactory {
	return func(ctx context.Context, modelName string) (model.BaseChatModel, error) {
		switch cfg.Backend {
		case BackendOpenAI:
			maxTokens := cfg.MaxTokens
			if maxTokens <= 0 {
				maxTokens = 2000
			}
			temperature := cfg.Temperature
			return openai.NewChatModel(ctx, &openai.ChatModelConfig{
				BaseURL:     cfg.OpenAIBaseURL,
				APIKey:      cfg.OpenAIAPIKey,
				Model:       modelName,
				MaxTokens:   &maxTokens,
				Temperature: &temperature,
			})
		case BackendDeepSeek:
			maxTokens := cfg.MaxTokens
			if maxTokens <= 0 {
				maxTokens = 2000
			}
			return deepseek.NewChatModel(ctx, &deepseek.ChatModelConfig{
				APIKey:    cfg.DeepSeekAPIKey,
				Model:     modelName,
				MaxTokens: maxTokens,
			})
		default:
			return nil, fmt.Errorf("backend %q has no chat models", cfg.Backend)
		}
	}
}

// LLMAgent wraps one committee seat with an LLM generation path. Any failure
// along the way (credentials, transport, JSON shape, enum values) falls back
// to the seat's rule agent, with the stance origin marked for telemetry.
type LLMAgent struct {
	name     schema.AgentName
	backend  ModelBackend
	fallback StanceAgent
	factory  ChatModelFactory
	tracer   Tracer
	logger   *zap.Logger
}

// NewLLMAgent creates an LLM-backed agent in front of a rule fallback.
func NewLLMAgent(name schema.AgentName, cfg LLMConfig, fallback StanceAgent, tracer Tracer, logger *zap.Logger) *LLMAgent {
	if fallback == nil {
		fallback = RuleAgentFor(name)
	}
	if tracer == nil {
		tracer = NopTracer{}
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &LLMAgent{
		name:     name,
		backend:  cfg.Backend,
		fallback: fallback,
		factory:  NewChatModelFactory(cfg),
		tracer:   tracer,
		logger:   logger,
	}
}

// WithFactory substitutes the chat model factory. Used by tests.
func (a *LLMAgent) WithFactory(factory ChatModelFactory) *LLMAgent {
	a.factory = factory
	return a
}

func (a *LLMAgent) Name() schema.AgentName { return a.name }

// Run generates a stance via the model candidates, falling back to the rule
// agent when every candidate fails. Run itself never returns an error: the
// committee must always get a stance from every seat.
func (a *LLMAgent) Run(ctx context.Context, snap *schema.Snapshot) (*schema.Stance, error) {
	candidates := ModelCandidates(a.name, a.backend)
	if len(candidates) == 0 {
		return a.fallback.Run(ctx, snap)
	}

	systemPrompt := SystemPrompt(a.name, snap)
	userPrompt, err := UserPrompt(snap)
	if err != nil {
		return a.fallbackStance(ctx, snap, []map[string]string{{"stage": "prepare", "error": err.Error()}})
	}

	var errors []map[string]string
	for _, modelName := range candidates {
		stance, raw, err := a.generateOnce(ctx, modelName, systemPrompt, userPrompt, snap)
		if err != nil {
			a.logger.Warn("llm generation failed",
				zap.String("agent", string(a.name)),
				zap.String("model", modelName),
				zap.Error(err))
			errors = append(errors, map[string]string{"model": modelName, "error": err.Error()})
			continue
		}

		a.tracer.Log("llm_agent_response", map[string]any{
			"agent":         string(a.name),
			"model":         modelName,
			"backend":       string(a.backend),
			"raw_response":  raw,
			"parsed":        stance,
			"fallback_used": false,
		})
		return stance, nil
	}

	return a.fallbackStance(ctx, snap, errors)
}

func (a *LLMAgent) fallbackStance(ctx context.Context, snap *schema.Snapshot, errors []map[string]string) (*schema.Stance, error) {
	stance, err := a.fallback.Run(ctx, snap)
	if err != nil {
		return nil, err
	}
	stance.Origin = schema.OriginFallbackUsed

	a.tracer.Log("llm_agent_response", map[string]any{
		"agent":           string(a.name),
		"backend":         string(a.backend),
		"errors":          errors,
		"fallback_used":   true,
		"fallback_stance": stance,
	})
	return stance, nil
}

func (a *LLMAgent) generateOnce(ctx context.Context, modelName, systemPrompt, userPrompt string, snap *schema.Snapshot) (*schema.Stance, string, error) {
	cm, err := a.factory(ctx, modelName)
	if err != nil {
		return nil, "", fmt.Errorf("chat model init: %w", err)
	}

	msg, err := cm.Generate(ctx, []*einoschema.Message{
		einoschema.SystemMessage(systemPrompt),
		einoschema.UserMessage(userPrompt),
	})
	if err != nil {
		return nil, "", fmt.Errorf("generate: %w", err)
	}

	stance, err := ParseStanceJSON(msg.Content, a.name)
	if err != nil {
		return nil, msg.Content, err
	}
	return stance, msg.Content, nil
}

// ParseStanceJSON decodes a model response into a stance. The agent name is
// forced: a model must not reassign its own seat. Markdown fences around the
// JSON are tolerated.
func ParseStanceJSON(text string, name schema.AgentName) (*schema.Stance, error) {
	cleaned := stripJSONFences(text)

	var stance schema.Stance
	if err := json.Unmarshal([]byte(cleaned), &stance); err != nil {
		return nil, fmt.Errorf("stance json parse: %w", err)
	}

	stance.AgentName = name
	stance.Origin = schema.OriginParsed
	stance.RawResponse = text

	if !stance.RegimeTag.Valid() {
		return nil, fmt.Errorf("invalid regime_tag %q", stance.RegimeTag)
	}
	if !stance.Confidence.Valid() {
		return nil, fmt.Errorf("invalid confidence %q", stance.Confidence)
	}
	if len(stance.CoreClaims) == 0 || len(stance.CoreClaims) > schema.MaxCoreClaims {
		return nil, fmt.Errorf("core_claims must carry 1..%d entries, got %d",
			schema.MaxCoreClaims, len(stance.CoreClaims))
	}
	if len(stance.EvidenceIDs) == 0 {
		return nil, fmt.Errorf("evidence_ids must not be empty")
	}
	return &stance, nil
}

func stripJSONFences(text string) string {
	s := strings.TrimSpace(text)
	if strings.HasPrefix(s, "```") {
		s = strings.TrimPrefix(s, "```json")
		s = strings.TrimPrefix(s, "```")
		if idx := strings.LastIndex(s, "```"); idx >= 0 {
			s = s[:idx]
		}
	}
	return strings.TrimSpace(s)
}

// BuildCommittee assembles the agent roster for the configured seats and
// backend. Unknown seat names are skipped; rule backend returns plain rule
// agents.
func BuildCommittee(agentIDs []string, cfg LLMConfig, tracer Tracer, logger *zap.Logger) []StanceAgent {
	names := make([]schema.AgentName, 0, len(agentIDs))
	if len(agentIDs) == 0 {
		names = schema.AllAgentNames
	} else {
		for _, id := range agentIDs {
			name, err := schema.ParseAgentName(id)
			if err != nil {
				if logger != nil {
					logger.Warn("skipping unknown agent", zap.String("agent", id))
				}
				continue
			}
			names = append(names, name)
		}
	}

	committee := make([]StanceAgent, 0, len(names))
	for _, name := range names {
		rule := RuleAgentFor(name)
		if cfg.Backend == BackendRule {
			committee = append(committee, rule)
			continue
		}
		committee = append(committee, NewLLMAgent(name, cfg, rule, tracer, logger))
	}
	return committee
}
