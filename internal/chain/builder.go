package chain

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"go.uber.org/zap"

	"github.com/ppiankov/casechain/internal/canon"
	"github.com/ppiankov/casechain/internal/classify"
	"github.com/ppiankov/casechain/internal/model"
	"github.com/ppiankov/casechain/internal/worker"
)

// ErrCrossCourtMerge flags a group holding same-tier records from different
// courts. It is a data-quality warning, never fatal.
var ErrCrossCourtMerge = errors.New("cross-court merge")

// Unresolved is a record that could not be canonicalized under a strategy
type Unresolved struct {
	RecordID string `json:"record_id"`
	Raw      string `json:"raw_process_number"`
	Reason   string `json:"reason"`
}

// Result is the outcome of building chains under one strategy
type Result struct {
	Strategy     canon.Strategy
	Approximate  bool
	Records      int
	Chains       []model.Chain // Every group, sorted by core
	Unresolvable []Unresolved
	Accounting   model.Accounting
	Oversized    map[string]int // Cores whose group exceeds the configured size
	TaxonomyGaps map[int]int    // Unknown movement code -> records carrying it
}

// MultiTier returns the chains eligible for outcome inference
func (r *Result) MultiTier() []model.Chain {
	var out []model.Chain
	for _, c := range r.Chains {
		if c.MultiTier() {
			out = append(out, c)
		}
	}
	return out
}

// SingleTier returns chains with fewer than two placed tiers
func (r *Result) SingleTier() []model.Chain {
	var out []model.Chain
	for _, c := range r.Chains {
		if !c.MultiTier() {
			out = append(out, c)
		}
	}
	return out
}

// Builder groups records into candidate chains
type Builder struct {
	canon          *canon.Canonicalizer
	classifier     *classify.Classifier
	batch          *worker.BatchProcessor
	fuzzyThreshold float64
	expandEmbedded bool
	oversized      int
	logger         *zap.Logger
}

// Option configures a Builder
type Option func(*Builder)

// WithWorkers sets how many partitions are built in parallel
func WithWorkers(n int) Option {
	return func(b *Builder) {
		b.batch = worker.NewBatchProcessor(n)
	}
}

// WithFuzzyThreshold sets the normalized edit distance used by the fuzzy strategy
func WithFuzzyThreshold(threshold float64) Option {
	return func(b *Builder) {
		b.fuzzyThreshold = threshold
	}
}

// WithEmbeddedOrigin enables synthetic origin entries derived from the
// movement history of higher-tier records
func WithEmbeddedOrigin(enabled bool) Option {
	return func(b *Builder) {
		b.expandEmbedded = enabled
	}
}

// WithOversizedGroup sets the group size above which a core is reported
func WithOversizedGroup(n int) Option {
	return func(b *Builder) {
		b.oversized = n
	}
}

// WithLogger sets the logger
func WithLogger(logger *zap.Logger) Option {
	return func(b *Builder) {
		if logger != nil {
			b.logger = logger
		}
	}
}

// NewBuilder creates a chain builder. Nil collaborators select defaults.
func NewBuilder(cn *canon.Canonicalizer, classifier *classify.Classifier, opts ...Option) *Builder {
	if cn == nil {
		cn = canon.New()
	}
	if classifier == nil {
		classifier = classify.New(nil)
	}
	b := &Builder{
		canon:          cn,
		classifier:     classifier,
		batch:          worker.NewBatchProcessor(1),
		fuzzyThreshold: canon.DefaultFuzzyThreshold,
		logger:         zap.NewNop(),
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// partResult carries the chains of one partition
type partResult struct {
	chains []model.Chain
	gaps   map[int]int
}

func (r *partResult) GetError() error { return nil }

// Build canonicalizes, groups, orders and collapses records into chains.
// Record-level problems are counted in the result; the only errors are an
// unknown strategy and cancellation.
func (b *Builder) Build(ctx context.Context, records []model.Record, strategy canon.Strategy) (*Result, error) {
	if _, err := canon.ParseStrategy(string(strategy)); err != nil {
		return nil, err
	}

	result := &Result{
		Strategy:     strategy,
		Approximate:  strategy.Approximate(),
		Records:      len(records),
		Oversized:    make(map[string]int),
		TaxonomyGaps: make(map[int]int),
	}

	labels := b.label(records, strategy, result)
	keys, groups := canon.Groups(labels)

	results := b.batch.ProcessPartitions(ctx, keys, func(ctx context.Context, part []string) worker.Result {
		pr := &partResult{gaps: make(map[int]int)}
		for _, key := range part {
			if ctx.Err() != nil {
				break
			}
			members := make([]model.Record, len(groups[key]))
			for i, idx := range groups[key] {
				members[i] = records[idx]
			}
			pr.chains = append(pr.chains, b.assemble(key, strategy, members, pr.gaps))
		}
		return pr
	})
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("build chains (%s): %w", strategy, err)
	}

	for _, r := range results {
		pr := r.(*partResult)
		result.Chains = append(result.Chains, pr.chains...)
		for code, n := range pr.gaps {
			result.TaxonomyGaps[code] += n
		}
	}
	sort.Slice(result.Chains, func(i, j int) bool { return result.Chains[i].Core < result.Chains[j].Core })

	result.Accounting = model.Accounting{
		Input:        len(records),
		Unresolvable: len(result.Unresolvable),
	}
	crossCourt := 0
	for _, c := range result.Chains {
		if c.MultiTier() {
			result.Accounting.Members += len(c.RecordIDs)
		} else {
			result.Accounting.SingleTierOnly += len(c.RecordIDs)
		}
		if b.oversized > 0 && len(c.RecordIDs) > b.oversized {
			result.Oversized[c.Core] = len(c.RecordIDs)
		}
		if c.CrossCourtMerge {
			crossCourt++
			b.logger.Debug("suspected false-positive merge",
				zap.String("strategy", string(strategy)),
				zap.String("core", c.Core),
				zap.Error(ErrCrossCourtMerge))
		}
	}

	b.logger.Info("chains built",
		zap.String("strategy", string(strategy)),
		zap.Int("records", len(records)),
		zap.Int("groups", len(result.Chains)),
		zap.Int("multi_tier", result.Accounting.Members),
		zap.Int("unresolvable", len(result.Unresolvable)),
		zap.Int("cross_court", crossCourt))

	return result, nil
}

// label returns the group key of every record, "" for unresolvable ones
func (b *Builder) label(records []model.Record, strategy canon.Strategy, result *Result) []string {
	labels := make([]string, len(records))

	if strategy == canon.Fuzzy {
		raws := make([]string, len(records))
		for i, r := range records {
			raws[i] = r.RawProcessNumber
		}
		var errs []error
		labels, errs = b.canon.Link(raws, b.fuzzyThreshold)
		for i, err := range errs {
			if err != nil {
				result.Unresolvable = append(result.Unresolvable, unresolved(records[i], err))
			}
		}
		return labels
	}

	for i, r := range records {
		core, err := b.canon.Canonicalize(r.RawProcessNumber, strategy)
		if err != nil {
			result.Unresolvable = append(result.Unresolvable, unresolved(r, err))
			continue
		}
		labels[i] = core
	}
	return labels
}

func unresolved(r model.Record, err error) Unresolved {
	return Unresolved{RecordID: r.ID, Raw: r.RawProcessNumber, Reason: err.Error()}
}

// TaxonomyVersion returns the version of the movement table used to classify
func (b *Builder) TaxonomyVersion() string {
	return b.classifier.Table().Version()
}
