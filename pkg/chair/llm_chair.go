package chair

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	einoschema "github.com/cloudwego/eino/schema"
	"go.uber.org/zap"

	"github.com/hankyul/CommitteeGo/pkg/agents"
	"github.com/hankyul/CommitteeGo/pkg/schema"
)

// Reducer turns the stance set into a committee result.
type Reducer interface {
	Reduce(ctx context.Context, snap *schema.Snapshot, stances []*schema.Stance) (*schema.CommitteeResult, error)
}

// Reduce lets the rule chair satisfy Reducer; it ignores the snapshot.
func (c *Chair) Reduce(ctx context.Context, snap *schema.Snapshot, stances []*schema.Stance) (*schema.CommitteeResult, error) {
	return c.Run(stances)
}

// LLMChair synthesizes the consensus with a model, validating the shape and
// falling back to the rule chair on any failure. An empty stance list is
// fatal either way.
type LLMChair struct {
	model    string
	factory  agents.ChatModelFactory
	fallback *Chair
	tracer   agents.Tracer
	logger   *zap.Logger
}

// NewLLMChair creates an LLM-backed chair. The model defaults per backend.
func NewLLMChair(cfg agents.LLMConfig, model string, tracer agents.Tracer, logger *zap.Logger) *LLMChair {
	if model == "" {
		switch cfg.Backend {
		case agents.BackendDeepSeek:
			model = "deepseek-chat"
		default:
			model = "gpt-4.1-mini"
		}
	}
	if tracer == nil {
		tracer = agents.NopTracer{}
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &LLMChair{
		model:    model,
		factory:  agents.NewChatModelFactory(cfg),
		fallback: NewChair(),
		tracer:   tracer,
		logger:   logger,
	}
}

// WithFactory substitutes the chat model factory. Used by tests.
func (lc *LLMChair) WithFactory(factory agents.ChatModelFactory) *LLMChair {
	lc.factory = factory
	return lc
}

func (lc *LLMChair) Reduce(ctx context.Context, snap *schema.Snapshot, stances []*schema.Stance) (*schema.CommitteeResult, error) {
	if len(stances) == 0 {
		return nil, fmt.Errorf("no stances to reduce")
	}

	result, raw, err := lc.generate(ctx, snap, stances)
	if err != nil {
		lc.logger.Warn("llm chair failed, using rule chair",
			zap.String("model", lc.model),
			zap.Error(err))
		lc.tracer.Log("llm_chair_response", map[string]any{
			"model":         lc.model,
			"error":         err.Error(),
			"fallback_used": true,
		})
		return lc.fallback.Run(stances)
	}

	lc.tracer.Log("llm_chair_response", map[string]any{
		"model":         lc.model,
		"raw_response":  raw,
		"parsed":        result,
		"fallback_used": false,
	})
	return result, nil
}

func (lc *LLMChair) generate(ctx context.Context, snap *schema.Snapshot, stances []*schema.Stance) (*schema.CommitteeResult, string, error) {
	cm, err := lc.factory(ctx, lc.model)
	if err != nil {
		return nil, "", fmt.Errorf("chat model init: %w", err)
	}

	userPrompt, err := chairUserPrompt(snap, stances)
	if err != nil {
		return nil, "", err
	}

	msg, err := cm.Generate(ctx, []*einoschema.Message{
		einoschema.SystemMessage(chairSystemPrompt),
		einoschema.UserMessage(userPrompt),
	})
	if err != nil {
		return nil, "", fmt.Errorf("generate: %w", err)
	}

	result, err := ParseResultJSON(msg.Content, stances)
	if err != nil {
		return nil, msg.Content, err
	}
	return result, msg.Content, nil
}

const chairSystemPrompt = "You are the CHAIR of an investment committee. " +
	"Synthesize agent stances into one pragmatic consensus. " +
	"Use both market indicators and agent opinions as evidence. " +
	"Output JSON only. No markdown. " +
	"All natural-language text must be in Korean. " +
	"Required keys: consensus, majority_tag, key_points, disagreements, ops_guidance. " +
	"consensus must be one sentence. " +
	"key_points must be 1~3 items with keys point, sources. " +
	"disagreements must have one item per dissenting regime tag and be empty when unanimous. " +
	"ops_guidance must be exactly 3 items with levels OK, CAUTION, AVOID and concise text. " +
	"Prefer evidence IDs and agent names from the provided input."

func chairUserPrompt(snap *schema.Snapshot, stances []*schema.Stance) (string, error) {
	m := snap.Markets
	payload := map[string]any{
		"indicator_context": map[string]any{
			"market_summary": snap.MarketSummary.Note,
			"flow_summary":   snap.FlowSummary.Note,
			"indices": map[string]float64{
				"kospi_pct":  m.KR.KospiPct,
				"kosdaq_pct": m.KR.KosdaqPct,
				"sp500_pct":  m.US.SP500Pct,
				"nasdaq_pct": m.US.NasdaqPct,
				"dow_pct":    m.US.DowPct,
			},
			"fx_vol": map[string]float64{
				"usdkrw":     m.FX.USDKRW,
				"usdkrw_pct": m.FX.USDKRWPct,
				"vix":        m.Volatility.VIX,
			},
			"macro":     snap.Macro,
			"headlines": snap.NewsHeadlines,
		},
		"agent_opinions": stances,
		"raw_snapshot":   snap,
	}
	raw, err := json.Marshal(payload)
	if err != nil {
		return "", fmt.Errorf("failed to build chair prompt: %w", err)
	}
	return string(raw), nil
}

// ParseResultJSON decodes and shape-checks a model-produced committee result.
// The majority tag is recomputed from the actual stances: the model may word
// the consensus, but it does not get to miscount the vote.
func ParseResultJSON(text string, stances []*schema.Stance) (*schema.CommitteeResult, error) {
	var result schema.CommitteeResult
	if err := json.Unmarshal([]byte(stripFences(text)), &result); err != nil {
		return nil, fmt.Errorf("result json parse: %w", err)
	}

	result.MajorityTag = MajorityTag(TallyVotes(stances))

	if err := checkSingleSentence(result.Consensus); err != nil {
		return nil, err
	}
	if len(result.KeyPoints) == 0 || len(result.KeyPoints) > schema.MaxKeyPoints {
		return nil, fmt.Errorf("key_points must carry 1..%d entries, got %d",
			schema.MaxKeyPoints, len(result.KeyPoints))
	}
	if len(result.OpsGuidance) != len(schema.OpsLevels) {
		return nil, fmt.Errorf("ops_guidance must carry exactly %d entries, got %d",
			len(schema.OpsLevels), len(result.OpsGuidance))
	}
	seen := make(map[schema.OpsLevel]bool)
	for _, g := range result.OpsGuidance {
		if !g.Level.Valid() {
			return nil, fmt.Errorf("invalid ops level %q", g.Level)
		}
		if seen[g.Level] {
			return nil, fmt.Errorf("duplicate ops level %q", g.Level)
		}
		seen[g.Level] = true
	}
	for _, d := range result.Disagreements {
		if !d.Majority.Valid() || !d.Minority.Valid() {
			return nil, fmt.Errorf("disagreement carries invalid regime tag")
		}
	}
	return &result, nil
}

func stripFences(text string) string {
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
