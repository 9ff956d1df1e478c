// Package pipeline runs one complete committee cycle: snapshot assembly,
// parallel stance generation, validation, chair reduction, persistence, and
// report rendering. A run either publishes one complete validated artifact
// set or nothing at all.
package pipeline

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/hankyul/CommitteeGo/config"
	"github.com/hankyul/CommitteeGo/internal/storage"
	"github.com/hankyul/CommitteeGo/internal/storage/sqlite"
	"github.com/hankyul/CommitteeGo/internal/telegram"
	"github.com/hankyul/CommitteeGo/internal/trace"
	"github.com/hankyul/CommitteeGo/pkg/agents"
	"github.com/hankyul/CommitteeGo/pkg/chair"
	"github.com/hankyul/CommitteeGo/pkg/dataflows"
	"github.com/hankyul/CommitteeGo/pkg/report"
	"github.com/hankyul/CommitteeGo/pkg/schema"
	"github.com/hankyul/CommitteeGo/pkg/snapshot"
	"github.com/hankyul/CommitteeGo/pkg/validate"
)

// Pipeline owns every collaborator for one deployment. Construct it once and
// call Run per market date.
type Pipeline struct {
	cfg      *config.Config
	builder  *snapshot.Builder
	members  []agents.StanceAgent
	reducer  chair.Reducer
	runStore *storage.RunStore
	dbStore  *sqlite.Store
	sender   *telegram.Sender
	tracer   *trace.Logger
	logger   *zap.Logger

	// Article digest for the report appendix. A nil fetcher disables it.
	newsItems dataflows.ItemFetcher
	digester  *dataflows.NewsDigester
}

// Outcome reports what a completed run produced.
type Outcome struct {
	MarketDate string
	RunDir     string
	Snapshot   *schema.Snapshot
	Stances    []*schema.Stance
	Result     *schema.CommitteeResult
	ReportMD   string
	Status     snapshot.SourceStatus
}

// Option overrides a default collaborator, mainly for tests.
type Option func(*Pipeline)

// WithProviders substitutes the data provider set. Injected providers mean an
// offline or test run, so the live-web article digest is disabled with them;
// re-enable it explicitly with WithDigest.
func WithProviders(providers *dataflows.ProviderSet) Option {
	return func(p *Pipeline) {
		p.builder = snapshot.NewBuilder(providers, p.logger,
			snapshot.WithHeadlineLimit(p.cfg.HeadlineLimit),
			snapshot.WithProviderTimeout(time.Duration(p.cfg.ProviderTimeoutSec)*time.Second))
		p.newsItems = nil
	}
}

// WithDigest substitutes the news item source feeding the report digest.
func WithDigest(fetcher dataflows.ItemFetcher) Option {
	return func(p *Pipeline) { p.newsItems = fetcher }
}

// WithMembers substitutes the seated committee.
func WithMembers(members []agents.StanceAgent) Option {
	return func(p *Pipeline) { p.members = members }
}

// WithReducer substitutes the chair.
func WithReducer(reducer chair.Reducer) Option {
	return func(p *Pipeline) { p.reducer = reducer }
}

// WithDBStore substitutes (or, with nil, disables) series persistence.
func WithDBStore(store *sqlite.Store) Option {
	return func(p *Pipeline) { p.dbStore = store }
}

// New wires a pipeline from configuration.
func New(cfg *config.Config, logger *zap.Logger, opts ...Option) (*Pipeline, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	tracer := trace.New(cfg.TracePath, logger)
	llmCfg := agents.LLMConfig{
		Backend:        agents.ParseBackend(cfg.LLMBackend),
		OpenAIAPIKey:   cfg.OpenAIAPIKey,
		OpenAIBaseURL:  cfg.OpenAIBaseURL,
		DeepSeekAPIKey: cfg.DeepSeekAPIKey,
		Temperature:    cfg.Temperature,
	}

	p := &Pipeline{
		cfg:       cfg,
		members:   agents.BuildCommittee(cfg.AgentIDs, llmCfg, tracer, logger),
		runStore:  storage.NewRunStore(cfg.RunsDir),
		sender:    telegram.NewSender(cfg.TelegramBotToken, joinIDs(cfg.TelegramChatIDs), logger),
		tracer:    tracer,
		logger:    logger,
		newsItems: dataflows.NewNewsClient(cfg.NewsQuery),
		digester:  dataflows.NewNewsDigester(),
	}

	if llmCfg.Backend == agents.BackendRule {
		p.reducer = chair.NewChair()
	} else {
		p.reducer = chair.NewLLMChair(llmCfg, cfg.ChairModel, tracer, logger)
	}

	providers := dataflows.DefaultProviders(dataflows.ProviderConfig{
		NewsQuery:           cfg.NewsQuery,
		FREDAPIKey:          cfg.FREDAPIKey,
		LongportAppKey:      cfg.LongportAppKey,
		LongportAppSecret:   cfg.LongportAppSecret,
		LongportAccessToken: cfg.LongportAccessToken,
	})
	p.builder = snapshot.NewBuilder(providers, logger,
		snapshot.WithHeadlineLimit(cfg.HeadlineLimit),
		snapshot.WithProviderTimeout(time.Duration(cfg.ProviderTimeoutSec)*time.Second))

	if cfg.DBPath != "" {
		store, err := sqlite.Open(cfg.DBPath, logger)
		if err != nil {
			// Series persistence is a side channel; run without it.
			logger.Warn("sqlite unavailable, continuing without series persistence", zap.Error(err))
		} else {
			p.dbStore = store
		}
	}

	for _, opt := range opts {
		opt(p)
	}
	return p, nil
}

// Close releases held resources.
func (p *Pipeline) Close() error {
	if p.dbStore != nil {
		return p.dbStore.Close()
	}
	return nil
}

// Run executes one full cycle for the given market date.
func (p *Pipeline) Run(ctx context.Context, marketDate string) (*Outcome, error) {
	started := time.Now()
	p.logger.Info("pipeline start", zap.String("market_date", marketDate))
	p.tracer.Log("pipeline_start", map[string]any{"market_date": marketDate})

	snap, status := p.builder.Build(ctx, marketDate)
	p.logger.Info("snapshot assembled",
		zap.String("market_date", marketDate),
		zap.Any("source_status", status))

	stances := p.generateStances(ctx, snap)

	validator, err := validate.New(snap)
	if err != nil {
		return nil, fmt.Errorf("build validator: %w", err)
	}
	if err := validator.Snapshot(snap); err != nil {
		return nil, fmt.Errorf("snapshot validation: %w", err)
	}
	if err := validator.Stances(stances); err != nil {
		return nil, fmt.Errorf("stance validation: %w", err)
	}

	result, err := p.reducer.Reduce(ctx, snap, stances)
	if err != nil {
		return nil, fmt.Errorf("chair reduction: %w", err)
	}
	if err := validator.Result(result); err != nil {
		return nil, fmt.Errorf("committee result validation: %w", err)
	}

	stanceValues := make([]schema.Stance, len(stances))
	for i, s := range stances {
		stanceValues[i] = *s
	}
	rep := schema.BuildReport(marketDate, *snap, stanceValues, *result)
	reportMD := report.Markdown(&rep)
	reportMD = p.appendNewsDigest(ctx, reportMD, status)

	runDir, err := p.runStore.Save(storage.RunArtifacts{
		MarketDate: marketDate,
		Snapshot:   snap,
		Stances:    stances,
		Result:     result,
		Report:     &rep,
		ReportMD:   reportMD,
	})
	if err != nil {
		return nil, fmt.Errorf("persist run artifacts: %w", err)
	}

	if p.dbStore != nil {
		p.dbStore.SaveSnapshot(ctx, snap, status)
	}

	p.tracer.Log("pipeline_done", map[string]any{
		"market_date": marketDate,
		"majority":    string(result.MajorityTag),
		"elapsed_ms":  time.Since(started).Milliseconds(),
	})
	p.logger.Info("pipeline done",
		zap.String("market_date", marketDate),
		zap.String("majority", string(result.MajorityTag)),
		zap.String("run_dir", runDir),
		zap.Duration("elapsed", time.Since(started)))

	return &Outcome{
		MarketDate: marketDate,
		RunDir:     runDir,
		Snapshot:   snap,
		Stances:    stances,
		Result:     result,
		ReportMD:   reportMD,
		Status:     status,
	}, nil
}

// digestArticleLimit caps how many articles the report appendix summarizes.
const digestArticleLimit = 3

// appendNewsDigest attaches 3-line article summaries under the brief. The
// digest is best-effort: a disabled fetcher, failed headline source, or empty
// item list leaves the report unchanged.
func (p *Pipeline) appendNewsDigest(ctx context.Context, markdown string, status snapshot.SourceStatus) string {
	if p.newsItems == nil || p.digester == nil || status["headlines"] != snapshot.StatusOK {
		return markdown
	}
	items, err := p.newsItems.FetchItems(ctx, digestArticleLimit)
	if err != nil || len(items) == 0 {
		if err != nil {
			p.logger.Warn("news digest skipped", zap.Error(err))
		}
		return markdown
	}
	entries := make([]report.DigestEntry, 0, len(items))
	for _, item := range p.digester.Digest(ctx, items) {
		entries = append(entries, report.DigestEntry{
			Title:   item.Title,
			Link:    item.Link,
			Summary: item.SummaryLines,
		})
	}
	return report.AppendDigest(markdown, entries)
}

// generateStances runs every seated agent against the same snapshot, one
// goroutine per seat, and returns stances in roster order.
func (p *Pipeline) generateStances(ctx context.Context, snap *schema.Snapshot) []*schema.Stance {
	type seatResult struct {
		index  int
		stance *schema.Stance
	}

	results := make([]seatResult, 0, len(p.members))
	var mu sync.Mutex
	var wg sync.WaitGroup

	for i, member := range p.members {
		wg.Add(1)
		go func(index int, agent agents.StanceAgent) {
			defer wg.Done()
			stance, err := agent.Run(ctx, snap)
			if err != nil {
				// Agents fall back internally; an error here means even the
				// rule path failed, which only happens on a nil snapshot.
				p.logger.Error("agent failed", zap.String("agent", string(agent.Name())), zap.Error(err))
				return
			}
			mu.Lock()
			results = append(results, seatResult{index: index, stance: stance})
			mu.Unlock()
		}(i, member)
	}
	wg.Wait()

	sort.Slice(results, func(a, b int) bool { return results[a].index < results[b].index })
	stances := make([]*schema.Stance, 0, len(results))
	for _, r := range results {
		stances = append(stances, r.stance)
	}
	return stances
}

// SendReport delivers the rendered brief for a market date, reading it back
// from the run store so `send` works independently of `run`.
func (p *Pipeline) SendReport(ctx context.Context, marketDate string) error {
	md, err := p.runStore.LoadReportMD(marketDate)
	if err != nil {
		return fmt.Errorf("no stored report for %s: %w", marketDate, err)
	}
	return p.sender.Send(ctx, md)
}

// RunAndSend is the nightly entrypoint: run the pipeline, then deliver.
func (p *Pipeline) RunAndSend(ctx context.Context, marketDate string) (*Outcome, error) {
	outcome, err := p.Run(ctx, marketDate)
	if err != nil {
		return nil, err
	}
	if err := p.sender.Send(ctx, outcome.ReportMD); err != nil {
		// The artifacts are already published; delivery trouble is not fatal.
		p.logger.Warn("report delivery failed", zap.Error(err))
	}
	return outcome, nil
}

func joinIDs(ids []string) string {
	return strings.Join(ids, ",")
}
