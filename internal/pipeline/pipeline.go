package pipeline

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/ppiankov/casechain/internal/canon"
	"github.com/ppiankov/casechain/internal/chain"
	"github.com/ppiankov/casechain/internal/classify"
	"github.com/ppiankov/casechain/internal/evaluate"
	"github.com/ppiankov/casechain/internal/infer"
	"github.com/ppiankov/casechain/internal/logging"
	"github.com/ppiankov/casechain/internal/model"
	"github.com/ppiankov/casechain/internal/source"
	"github.com/ppiankov/casechain/internal/stats"
	"github.com/ppiankov/casechain/internal/store"
	"github.com/ppiankov/casechain/internal/taxonomy"
)

// Pipeline wires loading, chain building, evaluation and inference for one run
type Pipeline struct {
	config    *model.Config
	table     *taxonomy.Table
	builder   *chain.Builder
	evaluator *evaluate.Evaluator
	engine    *infer.Engine
	renderer  *Renderer
	logger    *zap.Logger
	progress  *rate.Sometimes
	now       func() time.Time
}

// NewPipeline creates a pipeline from configuration. Invalid taxonomy
// extensions or policy names are reported here, before any data is read.
func NewPipeline(cfg *model.Config, logger *zap.Logger) (*Pipeline, error) {
	if cfg == nil {
		cfg = model.DefaultConfig()
	}
	logger = logging.OrNop(logger)

	table, err := taxonomy.FromConfig(cfg.Taxonomy)
	if err != nil {
		return nil, fmt.Errorf("taxonomy: %w", err)
	}
	engine, err := infer.FromConfig(cfg.Inference, logger.Named("infer"))
	if err != nil {
		return nil, fmt.Errorf("inference: %w", err)
	}

	builder := chain.NewBuilder(
		canon.New(canon.WithMinDigits(cfg.Matching.MinDigits)),
		classify.New(table),
		chain.WithWorkers(cfg.Chain.Workers),
		chain.WithFuzzyThreshold(cfg.Matching.FuzzyThreshold),
		chain.WithEmbeddedOrigin(cfg.Chain.ExpandEmbeddedOrigin),
		chain.WithOversizedGroup(cfg.Matching.OversizedGroup),
		chain.WithLogger(logger.Named("chain")),
	)

	return &Pipeline{
		config:  cfg,
		table:   table,
		builder: builder,
		evaluator: evaluate.NewEvaluator(builder,
			evaluate.WithSweepWorkers(cfg.Matching.SweepWorkers),
			evaluate.WithLogger(logger.Named("evaluate")),
		),
		engine:   engine,
		renderer: NewRenderer(),
		logger:   logger,
		progress: &rate.Sometimes{First: 1, Interval: 2 * time.Second},
		now:      time.Now,
	}, nil
}

// Taxonomy returns the active movement table
func (p *Pipeline) Taxonomy() *taxonomy.Table {
	return p.table
}

// Renderer returns the output renderer
func (p *Pipeline) Renderer() *Renderer {
	return p.renderer
}

// Load reads records from a CSV, JSON or SQLite file
func (p *Pipeline) Load(ctx context.Context, path string) ([]model.Record, error) {
	records, report, err := source.Load(ctx, path)
	if err != nil {
		return nil, fmt.Errorf("load records: %w", err)
	}
	fields := []zap.Field{
		zap.String("path", report.Path),
		zap.String("format", string(report.Format)),
		zap.Int("records", report.Records),
	}
	if report.BadCodes > 0 || report.BadDates > 0 {
		p.logger.Warn("records repaired while loading",
			append(fields, zap.Int("bad_codes", report.BadCodes), zap.Int("bad_dates", report.BadDates))...)
	} else {
		p.logger.Info("records loaded", fields...)
	}
	return records, nil
}

// Evaluate compares matching strategies. An empty list uses the configured set.
func (p *Pipeline) Evaluate(ctx context.Context, records []model.Record, names []string) (*model.Evaluation, error) {
	if len(names) == 0 {
		names = p.config.Matching.Strategies
	}
	strategies, err := canon.ParseStrategies(names)
	if err != nil {
		return nil, err
	}
	return p.evaluator.Evaluate(ctx, records, strategies)
}

// Analyze builds chains under one strategy, infers a verdict per multi-tier
// chain and aggregates the statistics. An empty name uses the configured default.
func (p *Pipeline) Analyze(ctx context.Context, src string, records []model.Record, name string) (*model.Report, error) {
	if name == "" {
		name = p.config.Matching.DefaultStrategy
	}
	strategy, err := canon.ParseStrategy(name)
	if err != nil {
		return nil, err
	}

	row, res, err := p.evaluator.EvaluateOne(ctx, records, strategy)
	if err != nil {
		return nil, err
	}
	row.Rank = 1

	chains := res.MultiTier()
	verdicts := make([]model.VerdictRecord, 0, len(chains))
	for i, c := range chains {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if vr, ok := p.engine.Infer(c); ok {
			verdicts = append(verdicts, vr)
		}
		p.progress.Do(func() {
			p.logger.Info("inferring verdicts", zap.Int("done", i+1), zap.Int("total", len(chains)))
		})
	}

	report := &model.Report{
		GeneratedAt:     p.now().UTC(),
		Source:          src,
		Strategy:        string(strategy),
		TaxonomyVersion: p.table.Version(),
		Evaluation:      row,
		Verdicts:        verdicts,
		Statistics: stats.Compute(stats.Input{
			Chains:       len(res.Chains),
			Approximate:  res.Approximate,
			Verdicts:     verdicts,
			TaxonomyGaps: res.TaxonomyGaps,
		}),
	}
	p.logger.Info("analysis complete",
		zap.String("strategy", report.Strategy),
		zap.Int("verdicts", len(verdicts)),
		zap.Float64("worker_success_rate", report.Statistics.WorkerSuccessRate),
		zap.Float64("worker_success_rate_all", report.Statistics.WorkerSuccessAll))
	return report, nil
}

// StorePath resolves the database path from a flag value or the config
func (p *Pipeline) StorePath(flag string) string {
	if flag != "" {
		return flag
	}
	return p.config.Store.Path
}

// Import copies records into the SQLite store at path
func (p *Pipeline) Import(ctx context.Context, path string, records []model.Record) (int, error) {
	s, err := store.Open(path)
	if err != nil {
		return 0, err
	}
	defer func() { _ = s.Close() }()
	return s.SaveRecords(ctx, records)
}

// SaveReport persists an analyze report and returns the run id
func (p *Pipeline) SaveReport(ctx context.Context, path string, report *model.Report) (string, error) {
	s, err := store.Open(path)
	if err != nil {
		return "", err
	}
	defer func() { _ = s.Close() }()

	runID, err := s.SaveReport(ctx, report)
	if err != nil {
		return "", fmt.Errorf("save report: %w", err)
	}
	p.logger.Info("report stored", zap.String("db", path), zap.String("run_id", runID))
	return runID, nil
}

// SaveEvaluation persists a strategy comparison and returns the run id
func (p *Pipeline) SaveEvaluation(ctx context.Context, path, src string, eval *model.Evaluation) (string, error) {
	s, err := store.Open(path)
	if err != nil {
		return "", err
	}
	defer func() { _ = s.Close() }()

	runID, err := s.SaveEvaluation(ctx, src, eval)
	if err != nil {
		return "", fmt.Errorf("save evaluation: %w", err)
	}
	p.logger.Info("evaluation stored", zap.String("db", path), zap.String("run_id", runID))
	return runID, nil
}
