package evaluate

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/ppiankov/casechain/internal/canon"
	"github.com/ppiankov/casechain/internal/chain"
	"github.com/ppiankov/casechain/internal/model"
)

// Evaluator compares matching strategies over one record set
type Evaluator struct {
	builder *chain.Builder
	workers int
	logger  *zap.Logger
	now     func() time.Time
}

// Option configures an Evaluator
type Option func(*Evaluator)

// WithSweepWorkers bounds how many strategies are built at once
func WithSweepWorkers(n int) Option {
	return func(e *Evaluator) {
		e.workers = n
	}
}

// WithLogger sets the logger
func WithLogger(logger *zap.Logger) Option {
	return func(e *Evaluator) {
		if logger != nil {
			e.logger = logger
		}
	}
}

// NewEvaluator creates an evaluator around a chain builder
func NewEvaluator(builder *chain.Builder, opts ...Option) *Evaluator {
	e := &Evaluator{
		builder: builder,
		workers: 1,
		logger:  zap.NewNop(),
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(e)
	}
	if e.workers <= 0 {
		e.workers = 1
	}
	return e
}

// Evaluate builds chains under every strategy and returns the ranked table.
// No strategy is preferred by the evaluator itself.
func (e *Evaluator) Evaluate(ctx context.Context, records []model.Record, strategies []canon.Strategy) (*model.Evaluation, error) {
	if len(strategies) == 0 {
		strategies = canon.AllStrategies()
	}

	rows := make([]model.StrategyEvaluation, len(strategies))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(e.workers)

	for i, s := range strategies {
		i, s := i, s
		g.Go(func() error {
			row, _, err := e.EvaluateOne(gctx, records, s)
			if err != nil {
				return err
			}
			rows[i] = *row
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	Rank(rows)
	for _, row := range rows {
		e.logger.Info("strategy evaluated",
			zap.Int("rank", row.Rank),
			zap.String("summary", Describe(row)))
	}

	return &model.Evaluation{
		GeneratedAt:     e.now().UTC(),
		TaxonomyVersion: e.builder.TaxonomyVersion(),
		Records:         len(records),
		Strategies:      rows,
	}, nil
}

// EvaluateOne builds and summarizes a single strategy, returning the chains too
func (e *Evaluator) EvaluateOne(ctx context.Context, records []model.Record, s canon.Strategy) (*model.StrategyEvaluation, *chain.Result, error) {
	res, err := e.builder.Build(ctx, records, s)
	if err != nil {
		return nil, nil, fmt.Errorf("evaluate %s: %w", s, err)
	}
	if !res.Accounting.Balanced() {
		return nil, nil, fmt.Errorf("evaluate %s: accounting mismatch %+v", s, res.Accounting)
	}
	row := Summarize(res)
	return &row, res, nil
}
