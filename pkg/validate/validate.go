// Package validate enforces structural and content constraints on committee
// artifacts before anything is persisted or rendered. Unlike the snapshot
// layer, which degrades and continues, validation fails closed: any issue
// aborts the run.
package validate

import (
	"fmt"
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/hankyul/CommitteeGo/pkg/schema"
)

// ValidationErrors aggregates every issue found in one artifact so all
// problems surface together instead of one at a time.
type ValidationErrors struct {
	Issues []string
}

func (e *ValidationErrors) Error() string {
	return fmt.Sprintf("validation failed with %d issue(s): %s", len(e.Issues), strings.Join(e.Issues, "; "))
}

func (e *ValidationErrors) add(format string, args ...any) {
	e.Issues = append(e.Issues, fmt.Sprintf(format, args...))
}

func (e *ValidationErrors) orNil() error {
	if len(e.Issues) == 0 {
		return nil
	}
	return e
}

// forbiddenPhrases are trading directives the advisory output must never
// contain.
var forbiddenPhrases = []string{
	"무조건 매수",
	"반드시 매도",
	"절대 손실 없음",
	"확정 수익",
}

// allowedNonTickerTokens are upper-case words that look like ticker symbols
// but are ordinary market vocabulary.
var allowedNonTickerTokens = map[string]bool{
	"USD": true, "CPI": true, "GDP": true, "PMI": true,
	"FOMC": true, "ETF": true, "AI": true, "OIL": true,
	"FED": true, "CNBC": true, "KOSPI": true, "KOSDAQ": true,
	"KRW": true, "VIX": true, "DXY": true,
	"RISK_ON": true, "RISK_OFF": true, "NEUTRAL": true,
	"OK": true, "CAUTION": true, "AVOID": true,
}

var tickerPattern = regexp.MustCompile(`\b[A-Z][A-Z0-9]{1,11}\b`)

// Validator checks stances and committee results against the snapshot they
// were produced from. Evidence ids must resolve to concrete values in that
// snapshot, and ticker mentions must stay within the snapshot watchlist.
type Validator struct {
	resolver  *schema.EvidenceResolver
	watchlist map[string]bool
}

// New builds a validator bound to one run's snapshot.
func New(snapshot *schema.Snapshot) (*Validator, error) {
	if snapshot == nil {
		return nil, fmt.Errorf("validator requires a snapshot")
	}
	resolver, err := schema.NewEvidenceResolver(snapshot)
	if err != nil {
		return nil, fmt.Errorf("build evidence resolver: %w", err)
	}
	watchlist := make(map[string]bool, len(snapshot.Watchlist))
	for _, ticker := range snapshot.Watchlist {
		watchlist[strings.ToUpper(ticker)] = true
	}
	return &Validator{resolver: resolver, watchlist: watchlist}, nil
}

// Snapshot checks the bounds the assembler promises on list fields.
func (v *Validator) Snapshot(snapshot *schema.Snapshot) error {
	errs := &ValidationErrors{}
	if snapshot == nil {
		errs.add("snapshot is nil")
		return errs
	}
	if len(snapshot.NewsHeadlines) > schema.MaxNewsHeadlines {
		errs.add("news_headlines has %d entries, max %d", len(snapshot.NewsHeadlines), schema.MaxNewsHeadlines)
	}
	if len(snapshot.SectorMoves) > schema.MaxSectorMoves {
		errs.add("sector_moves has %d entries, max %d", len(snapshot.SectorMoves), schema.MaxSectorMoves)
	}
	if len(snapshot.Watchlist) > schema.MaxWatchlist {
		errs.add("watchlist has %d entries, max %d", len(snapshot.Watchlist), schema.MaxWatchlist)
	}
	if snapshot.AsOfDate == "" {
		errs.add("as_of_date is empty")
	}
	return errs.orNil()
}

// Stances validates every stance in one pass, collecting all issues. The
// committee must have at least one member.
func (v *Validator) Stances(stances []*schema.Stance) error {
	errs := &ValidationErrors{}
	if len(stances) == 0 {
		errs.add("at least one stance is required")
		return errs
	}
	for i, stance := range stances {
		v.checkStance(errs, i, stance)
	}
	return errs.orNil()
}

func (v *Validator) checkStance(errs *ValidationErrors, idx int, stance *schema.Stance) {
	if stance == nil {
		errs.add("stance[%d] is nil", idx)
		return
	}
	label := fmt.Sprintf("stance[%d] (%s)", idx, stance.AgentName)

	if !stance.AgentName.Valid() {
		errs.add("%s: unknown agent name %q", label, stance.AgentName)
	}
	if !stance.RegimeTag.Valid() {
		errs.add("%s: invalid regime_tag %q", label, stance.RegimeTag)
	}
	if !stance.Confidence.Valid() {
		errs.add("%s: invalid confidence %q", label, stance.Confidence)
	}
	switch stance.Origin {
	case schema.OriginRule, schema.OriginParsed, schema.OriginFallbackUsed:
	default:
		errs.add("%s: invalid origin %q", label, stance.Origin)
	}

	if len(stance.CoreClaims) == 0 {
		errs.add("%s: core_claims is empty", label)
	}
	if len(stance.CoreClaims) > schema.MaxCoreClaims {
		errs.add("%s: core_claims has %d entries, max %d", label, len(stance.CoreClaims), schema.MaxCoreClaims)
	}
	for j, claim := range stance.CoreClaims {
		if claim == "" {
			errs.add("%s: core_claims[%d] is empty", label, j)
		}
		if utf8.RuneCountInString(claim) > schema.MaxShortText {
			errs.add("%s: core_claims[%d] exceeds %d characters", label, j, schema.MaxShortText)
		}
	}

	if stance.KoreanComment == "" {
		errs.add("%s: korean_comment is empty", label)
	}
	if utf8.RuneCountInString(stance.KoreanComment) > schema.MaxKoreanComment {
		errs.add("%s: korean_comment exceeds %d characters", label, schema.MaxKoreanComment)
	}

	if len(stance.EvidenceIDs) == 0 {
		errs.add("%s: evidence_ids is empty", label)
	}
	if len(stance.EvidenceIDs) > schema.MaxEvidenceIDs {
		errs.add("%s: evidence_ids has %d entries, max %d", label, len(stance.EvidenceIDs), schema.MaxEvidenceIDs)
	}
	for _, id := range stance.EvidenceIDs {
		if !schema.ValidEvidenceIDFormat(id) {
			errs.add("%s: malformed evidence id %q", label, id)
			continue
		}
		if !v.resolver.Resolves(id) {
			errs.add("%s: evidence id %q does not resolve in the snapshot", label, id)
		}
	}

	texts := append([]string{stance.KoreanComment}, stance.CoreClaims...)
	v.checkContent(errs, label, texts)
}

// Result validates the committee verdict after chair reduction.
func (v *Validator) Result(result *schema.CommitteeResult) error {
	errs := &ValidationErrors{}
	if result == nil {
		errs.add("committee result is nil")
		return errs
	}

	if result.Consensus == "" {
		errs.add("consensus is empty")
	}
	if strings.Contains(result.Consensus, "\n") {
		errs.add("consensus must not contain newlines")
	}
	if terminators := strings.Count(result.Consensus, ".") +
		strings.Count(result.Consensus, "!") +
		strings.Count(result.Consensus, "?"); terminators > 1 {
		errs.add("consensus must be a single sentence, found %d terminators", terminators)
	}
	if !result.MajorityTag.Valid() {
		errs.add("invalid majority_tag %q", result.MajorityTag)
	}

	if len(result.KeyPoints) == 0 {
		errs.add("key_points is empty")
	}
	if len(result.KeyPoints) > schema.MaxKeyPoints {
		errs.add("key_points has %d entries, max %d", len(result.KeyPoints), schema.MaxKeyPoints)
	}
	for i, kp := range result.KeyPoints {
		if kp.Point == "" {
			errs.add("key_points[%d].point is empty", i)
		}
		if utf8.RuneCountInString(kp.Point) > schema.MaxShortText {
			errs.add("key_points[%d].point exceeds %d characters", i, schema.MaxShortText)
		}
		if len(kp.Sources) > schema.MaxKeyPointSources {
			errs.add("key_points[%d] has %d sources, max %d", i, len(kp.Sources), schema.MaxKeyPointSources)
		}
	}

	for i, d := range result.Disagreements {
		if !d.Majority.Valid() {
			errs.add("disagreements[%d]: invalid majority tag %q", i, d.Majority)
		}
		if !d.Minority.Valid() {
			errs.add("disagreements[%d]: invalid minority tag %q", i, d.Minority)
		}
		if d.Majority == d.Minority {
			errs.add("disagreements[%d]: majority and minority tags are both %q", i, d.Majority)
		}
		if len(d.MinorityAgents) == 0 {
			errs.add("disagreements[%d]: minority_agents is empty", i)
		}
	}

	v.checkOpsGuidance(errs, result.OpsGuidance)

	texts := []string{result.Consensus}
	for _, kp := range result.KeyPoints {
		texts = append(texts, kp.Point)
	}
	for _, d := range result.Disagreements {
		texts = append(texts, d.Topic, d.WhyItMatters)
	}
	for _, g := range result.OpsGuidance {
		texts = append(texts, g.Text)
	}
	v.checkContent(errs, "committee result", texts)

	return errs.orNil()
}

func (v *Validator) checkOpsGuidance(errs *ValidationErrors, guidance []schema.OpsGuidance) {
	if len(guidance) != 3 {
		errs.add("ops_guidance has %d entries, want exactly 3", len(guidance))
	}
	seen := make(map[schema.OpsLevel]bool, 3)
	for i, g := range guidance {
		if !g.Level.Valid() {
			errs.add("ops_guidance[%d]: invalid level %q", i, g.Level)
			continue
		}
		if seen[g.Level] {
			errs.add("ops_guidance[%d]: duplicate level %q", i, g.Level)
		}
		seen[g.Level] = true
		if g.Text == "" {
			errs.add("ops_guidance[%d]: text is empty", i)
		}
	}
	for _, level := range schema.OpsLevels {
		if len(guidance) > 0 && !seen[level] {
			errs.add("ops_guidance is missing level %q", level)
		}
	}
}

// checkContent enforces the advisory-mandate guardrails: no forbidden trading
// directives and no ticker mentions outside the snapshot watchlist.
func (v *Validator) checkContent(errs *ValidationErrors, label string, texts []string) {
	for _, text := range texts {
		lowered := strings.ToLower(text)
		for _, phrase := range forbiddenPhrases {
			if strings.Contains(lowered, strings.ToLower(phrase)) {
				errs.add("%s: forbidden phrase %q detected", label, phrase)
			}
		}
		for _, token := range tickerPattern.FindAllString(text, -1) {
			if allowedNonTickerTokens[token] {
				continue
			}
			if !v.watchlist[token] {
				errs.add("%s: ticker %q is not in the snapshot watchlist", label, token)
			}
		}
	}
}

// Pipeline runs every check for one complete run: snapshot bounds, all
// stances, and the committee result. Any issue is fatal to the run.
func Pipeline(snapshot *schema.Snapshot, stances []*schema.Stance, result *schema.CommitteeResult) error {
	v, err := New(snapshot)
	if err != nil {
		return err
	}
	if err := v.Snapshot(snapshot); err != nil {
		return err
	}
	if err := v.Stances(stances); err != nil {
		return err
	}
	return v.Result(result)
}
