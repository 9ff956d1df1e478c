package chair

import (
	"context"
	"errors"
	"testing"

	"github.com/cloudwego/eino/components/model"
	einoschema "github.com/cloudwego/eino/schema"

	"github.com/hankyul/CommitteeGo/pkg/agents"
	"github.com/hankyul/CommitteeGo/pkg/schema"
)

func stanceWith(name schema.AgentName, tag schema.RegimeTag) *schema.Stance {
	return &schema.Stance{
		AgentName:     name,
		CoreClaims:    []string{"claim"},
		KoreanComment: "코멘트",
		RegimeTag:     tag,
		EvidenceIDs:   []string{"snapshot.market_summary.note"},
		Confidence:    schema.ConfidenceMed,
		Origin:        schema.OriginRule,
	}
}

func stancesFor(tags ...schema.RegimeTag) []*schema.Stance {
	stances := make([]*schema.Stance, 0, len(tags))
	for i, tag := range tags {
		stances = append(stances, stanceWith(schema.AllAgentNames[i], tag))
	}
	return stances
}

func TestChairMajorityWithOneMinority(t *testing.T) {
	// 3x RISK_OFF vs 1x NEUTRAL: defensive majority, single disagreement.
	stances := stancesFor(schema.RegimeRiskOff, schema.RegimeRiskOff, schema.RegimeRiskOff, schema.RegimeNeutral)

	result, err := NewChair().Run(stances)
	if err != nil {
		t.Fatalf("run failed: %v", err)
	}
	if result.MajorityTag != schema.RegimeRiskOff {
		t.Errorf("majority = %s, want RISK_OFF", result.MajorityTag)
	}
	if len(result.Disagreements) != 1 {
		t.Fatalf("disagreements = %d, want 1", len(result.Disagreements))
	}
	d := result.Disagreements[0]
	if d.Minority != schema.RegimeNeutral || d.Majority != schema.RegimeRiskOff {
		t.Errorf("disagreement = %+v", d)
	}
	if len(d.MinorityAgents) != 1 {
		t.Errorf("minority agents = %v", d.MinorityAgents)
	}
}

func TestChairUnanimousHasNoDisagreements(t *testing.T) {
	stances := stancesFor(schema.RegimeNeutral, schema.RegimeNeutral, schema.RegimeNeutral)

	result, err := NewChair().Run(stances)
	if err != nil {
		t.Fatalf("run failed: %v", err)
	}
	if len(result.Disagreements) != 0 {
		t.Errorf("unanimous committee should have no disagreements, got %d", len(result.Disagreements))
	}
	if result.MajorityTag != schema.RegimeNeutral {
		t.Errorf("majority = %s", result.MajorityTag)
	}
}

func TestChairTwoMinorityTags(t *testing.T) {
	// 4x RISK_ON, 2x NEUTRAL, 1x RISK_OFF: two disagreement records.
	stances := stancesFor(
		schema.RegimeRiskOn, schema.RegimeRiskOn, schema.RegimeRiskOn, schema.RegimeRiskOn,
		schema.RegimeNeutral, schema.RegimeNeutral,
		schema.RegimeRiskOff,
	)

	result, err := NewChair().Run(stances)
	if err != nil {
		t.Fatalf("run failed: %v", err)
	}
	if result.MajorityTag != schema.RegimeRiskOn {
		t.Errorf("majority = %s, want RISK_ON", result.MajorityTag)
	}
	if len(result.Disagreements) != 2 {
		t.Fatalf("disagreements = %d, want 2", len(result.Disagreements))
	}
	// Precedence order: RISK_OFF minority is listed before NEUTRAL.
	if result.Disagreements[0].Minority != schema.RegimeRiskOff {
		t.Errorf("first minority = %s, want RISK_OFF", result.Disagreements[0].Minority)
	}
	if result.Disagreements[1].Minority != schema.RegimeNeutral {
		t.Errorf("second minority = %s, want NEUTRAL", result.Disagreements[1].Minority)
	}
}

func TestChairTieBreaksDefensive(t *testing.T) {
	tests := []struct {
		name string
		tags []schema.RegimeTag
		want schema.RegimeTag
	}{
		{"off vs on", []schema.RegimeTag{schema.RegimeRiskOff, schema.RegimeRiskOn}, schema.RegimeRiskOff},
		{"neutral vs on", []schema.RegimeTag{schema.RegimeNeutral, schema.RegimeRiskOn}, schema.RegimeNeutral},
		{"off vs neutral", []schema.RegimeTag{schema.RegimeRiskOff, schema.RegimeNeutral}, schema.RegimeRiskOff},
		{"three way", []schema.RegimeTag{schema.RegimeRiskOn, schema.RegimeNeutral, schema.RegimeRiskOff}, schema.RegimeRiskOff},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result, err := NewChair().Run(stancesFor(tt.tags...))
			if err != nil {
				t.Fatalf("run failed: %v", err)
			}
			if result.MajorityTag != tt.want {
				t.Errorf("majority = %s, want %s", result.MajorityTag, tt.want)
			}
		})
	}
}

func TestChairDeterministic(t *testing.T) {
	stances := stancesFor(schema.RegimeRiskOff, schema.RegimeNeutral, schema.RegimeRiskOn, schema.RegimeNeutral)

	first, err := NewChair().Run(stances)
	if err != nil {
		t.Fatalf("run failed: %v", err)
	}
	for i := 0; i < 5; i++ {
		again, err := NewChair().Run(stances)
		if err != nil {
			t.Fatalf("run failed: %v", err)
		}
		if again.Consensus != first.Consensus || again.MajorityTag != first.MajorityTag {
			t.Fatal("chair output changed across identical runs")
		}
		if len(again.Disagreements) != len(first.Disagreements) {
			t.Fatal("disagreement count changed across identical runs")
		}
		if len(again.KeyPoints) != len(first.KeyPoints) || again.KeyPoints[0].Point != first.KeyPoints[0].Point {
			t.Fatal("key points changed across identical runs")
		}
	}
}

func TestChairEmptyStancesErrors(t *testing.T) {
	if _, err := NewChair().Run(nil); err == nil {
		t.Fatal("expected error on empty stance list")
	}
}

func TestChairOpsGuidanceLadder(t *testing.T) {
	for _, tag := range schema.RegimeTags {
		result, err := NewChair().Run(stancesFor(tag))
		if err != nil {
			t.Fatalf("run failed: %v", err)
		}
		if len(result.OpsGuidance) != 3 {
			t.Fatalf("%s: ops guidance = %d entries, want 3", tag, len(result.OpsGuidance))
		}
		for i, level := range schema.OpsLevels {
			if result.OpsGuidance[i].Level != level {
				t.Errorf("%s: slot %d = %s, want %s", tag, i, result.OpsGuidance[i].Level, level)
			}
			if result.OpsGuidance[i].Text == "" {
				t.Errorf("%s: slot %d has empty text", tag, i)
			}
		}
	}
}

func TestChairSharedKeyPoints(t *testing.T) {
	stances := stancesFor(schema.RegimeNeutral, schema.RegimeNeutral, schema.RegimeNeutral)
	// All three share the same evidence and claim via stanceWith defaults.
	result, err := NewChair().Run(stances)
	if err != nil {
		t.Fatalf("run failed: %v", err)
	}
	if len(result.KeyPoints) != 3 {
		t.Fatalf("key points = %d, want 3 (majority + evidence + claim)", len(result.KeyPoints))
	}
	if result.KeyPoints[1].Point != "Shared evidence focus: snapshot.market_summary.note." {
		t.Errorf("evidence point = %q", result.KeyPoints[1].Point)
	}
	if len(result.KeyPoints[1].Sources) != 3 {
		t.Errorf("evidence sources = %v", result.KeyPoints[1].Sources)
	}
}

const validResultJSON = `{
	"consensus": "위원회는 방어적 기조를 유지합니다.",
	"key_points": [{"point": "달러 강세 부담", "sources": ["macro", "liquidity"]}],
	"disagreements": [],
	"ops_guidance": [
		{"level": "OK", "text": "방어주 중심 유지"},
		{"level": "CAUTION", "text": "레버리지 축소"},
		{"level": "AVOID", "text": "고베타 종목 회피"}
	]
}`

type cannedChatModel struct {
	content string
	err     error
}

func (c *cannedChatModel) Generate(ctx context.Context, input []*einoschema.Message, opts ...model.Option) (*einoschema.Message, error) {
	if c.err != nil {
		return nil, c.err
	}
	return einoschema.AssistantMessage(c.content, nil), nil
}

func (c *cannedChatModel) Stream(ctx context.Context, input []*einoschema.Message, opts ...model.Option) (*einoschema.StreamReader[*einoschema.Message], error) {
	return nil, errors.New("stream not supported")
}

func TestLLMChairParsesResult(t *testing.T) {
	lc := NewLLMChair(agents.LLMConfig{Backend: agents.BackendOpenAI}, "", nil, nil).
		WithFactory(func(ctx context.Context, modelName string) (model.BaseChatModel, error) {
			return &cannedChatModel{content: validResultJSON}, nil
		})

	stances := stancesFor(schema.RegimeRiskOff, schema.RegimeRiskOff)
	result, err := lc.Reduce(context.Background(), &schema.Snapshot{}, stances)
	if err != nil {
		t.Fatalf("reduce failed: %v", err)
	}
	if result.Consensus != "위원회는 방어적 기조를 유지합니다." {
		t.Errorf("consensus = %q", result.Consensus)
	}
	// Majority is recomputed from stances, not trusted from the model.
	if result.MajorityTag != schema.RegimeRiskOff {
		t.Errorf("majority = %s", result.MajorityTag)
	}
}

func TestLLMChairFallsBackOnError(t *testing.T) {
	lc := NewLLMChair(agents.LLMConfig{Backend: agents.BackendOpenAI}, "", nil, nil).
		WithFactory(func(ctx context.Context, modelName string) (model.BaseChatModel, error) {
			return nil, errors.New("no credentials")
		})

	stances := stancesFor(schema.RegimeNeutral, schema.RegimeNeutral)
	result, err := lc.Reduce(context.Background(), &schema.Snapshot{}, stances)
	if err != nil {
		t.Fatalf("reduce failed: %v", err)
	}
	if result.Consensus != consensusByTag[schema.RegimeNeutral] {
		t.Errorf("expected rule chair consensus, got %q", result.Consensus)
	}
}

func TestParseResultJSONRejectsBadShapes(t *testing.T) {
	stances := stancesFor(schema.RegimeNeutral)
	tests := []struct {
		name string
		body string
	}{
		{"two sentences", `{"consensus":"One. Two.","key_points":[{"point":"p","sources":["a"]}],"disagreements":[],"ops_guidance":[{"level":"OK","text":"t"},{"level":"CAUTION","text":"t"},{"level":"AVOID","text":"t"}]}`},
		{"missing level", `{"consensus":"One.","key_points":[{"point":"p","sources":["a"]}],"disagreements":[],"ops_guidance":[{"level":"OK","text":"t"},{"level":"CAUTION","text":"t"}]}`},
		{"duplicate level", `{"consensus":"One.","key_points":[{"point":"p","sources":["a"]}],"disagreements":[],"ops_guidance":[{"level":"OK","text":"t"},{"level":"OK","text":"t"},{"level":"AVOID","text":"t"}]}`},
		{"no key points", `{"consensus":"One.","key_points":[],"disagreements":[],"ops_guidance":[{"level":"OK","text":"t"},{"level":"CAUTION","text":"t"},{"level":"AVOID","text":"t"}]}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := ParseResultJSON(tt.body, stances); err == nil {
				t.Error("expected parse error")
			}
		})
	}
}
