package model

import (
	"strings"
	"time"
)

// ChainEntry is the collapsed decision of one tier within a chain
type ChainEntry struct {
	Tier      Tier            `json:"tier"`
	Category  OutcomeCategory `json:"category"`
	Ambiguous bool            `json:"ambiguous,omitempty"` // Same-tier codes disagree with no precedence
	Tribunals []Tribunal      `json:"tribunals"`
	RecordIDs []string        `json:"record_ids"`
	Date      *time.Time      `json:"date,omitempty"`     // Earliest judgment date seen at this tier
	Embedded  bool            `json:"embedded,omitempty"` // Derived from another tier's movement history
}

// Chain is an ordered cross-tier sequence believed to belong to one case
type Chain struct {
	Core            string       `json:"core"`
	Strategy        string       `json:"strategy"`
	Approximate     bool         `json:"approximate,omitempty"`
	Entries         []ChainEntry `json:"entries"`            // Placed tiers in precedence order
	Unplaced        []ChainEntry `json:"unplaced,omitempty"` // Records whose tier is unknown
	CrossCourtMerge bool         `json:"cross_court_merge,omitempty"`
	RecordIDs       []string     `json:"record_ids"`
}

// Tiers returns the placed tiers of the chain in order
func (c *Chain) Tiers() []Tier {
	tiers := make([]Tier, len(c.Entries))
	for i, e := range c.Entries {
		tiers[i] = e.Tier
	}
	return tiers
}

// HasTier reports whether the chain carries an entry for tier t
func (c *Chain) HasTier(t Tier) bool {
	for _, e := range c.Entries {
		if e.Tier == t {
			return true
		}
	}
	return false
}

// MultiTier reports whether at least two placed tiers are represented
func (c *Chain) MultiTier() bool {
	return len(c.Entries) >= 2
}

// Ambiguous reports whether any tier collapsed to an ambiguous outcome
func (c *Chain) Ambiguous() bool {
	for _, e := range c.Entries {
		if e.Ambiguous {
			return true
		}
	}
	return false
}

// HighConfidence reports whether the chain can feed high-confidence aggregates
func (c *Chain) HighConfidence() bool {
	return c.MultiTier() && !c.CrossCourtMerge && !c.Ambiguous()
}

// Pattern renders the tier sequence, e.g. "ORIGIN→APPELLATE→SUPERIOR"
func (c *Chain) Pattern() string {
	return TierPattern(c.Tiers())
}

// TierPattern joins tier names with arrows
func TierPattern(tiers []Tier) string {
	names := make([]string, len(tiers))
	for i, t := range tiers {
		names[i] = t.String()
	}
	return strings.Join(names, "→")
}

// Accounting tracks where every input record ended up for one strategy
type Accounting struct {
	Input          int `json:"input" yaml:"input"`
	Members        int `json:"resolved_chain_members" yaml:"resolved_chain_members"`
	SingleTierOnly int `json:"single_tier_only" yaml:"single_tier_only"`
	Unresolvable   int `json:"unresolvable" yaml:"unresolvable"`
}

// Balanced reports whether every input record is in exactly one bucket
func (a Accounting) Balanced() bool {
	return a.Members+a.SingleTierOnly+a.Unresolvable == a.Input
}

// StrategyEvaluation is one row of the strategy comparison table
type StrategyEvaluation struct {
	Strategy                string         `json:"strategy" yaml:"strategy"`
	Rank                    int            `json:"rank" yaml:"rank"`
	Approximate             bool           `json:"approximate" yaml:"approximate"`
	ChainCount              int            `json:"chain_count" yaml:"chain_count"` // Chains with two or more tiers
	SingleTierCount         int            `json:"single_tier_count" yaml:"single_tier_count"`
	ThreeTierCount          int            `json:"three_tier_count" yaml:"three_tier_count"`
	HighConfidenceCount     int            `json:"high_confidence_count" yaml:"high_confidence_count"`
	HighConfidenceThreeTier int            `json:"high_confidence_three_tier" yaml:"high_confidence_three_tier"`
	CrossCourtMerges        int            `json:"cross_court_merges" yaml:"cross_court_merges"`
	AmbiguousChains         int            `json:"ambiguous_chains" yaml:"ambiguous_chains"`
	TierPatternCounts       map[string]int `json:"tier_pattern_counts" yaml:"tier_pattern_counts"`
	TierPairCounts          map[string]int `json:"tier_pair_counts" yaml:"tier_pair_counts"`
	GroupsPerTier           map[string]int `json:"groups_per_tier" yaml:"groups_per_tier"`
	CoverageRatio           float64        `json:"coverage_ratio" yaml:"coverage_ratio"`
	Accounting              Accounting     `json:"accounting" yaml:"accounting"`
	Signals                 []Signal       `json:"signals,omitempty" yaml:"signals,omitempty"`
}

// Evaluation is the ranked comparison of matching strategies
type Evaluation struct {
	GeneratedAt     time.Time            `json:"generated_at" yaml:"generated_at"`
	TaxonomyVersion string               `json:"taxonomy_version" yaml:"taxonomy_version"`
	Records         int                  `json:"records" yaml:"records"`
	Strategies      []StrategyEvaluation `json:"strategies" yaml:"strategies"` // Ranked, best first
}

// Table indexes the evaluation rows by strategy name
func (e *Evaluation) Table() map[string]StrategyEvaluation {
	table := make(map[string]StrategyEvaluation, len(e.Strategies))
	for _, s := range e.Strategies {
		table[s.Strategy] = s
	}
	return table
}

// Transition is one tier-to-tier step of outcome inference
type Transition struct {
	From      Tier            `json:"from"`
	To        Tier            `json:"to"`
	Category  OutcomeCategory `json:"category"`
	Appellant Appellant       `json:"appellant"`
	Partial   bool            `json:"partial,omitempty"`   // Appeal partially granted, polarity kept
	Reversed  bool            `json:"reversed,omitempty"`  // Worker position flipped at this step
	State     string          `json:"state"`               // State entered after the step
	Tribunals []Tribunal      `json:"tribunals,omitempty"` // Court(s) ruling at the destination tier
}

// VerdictRecord is the inference output for one chain
type VerdictRecord struct {
	CaseCore          string            `json:"case_core"`
	StrategyUsed      string            `json:"strategy_used"`
	Approximate       bool              `json:"approximate,omitempty"`
	HighConfidence    bool              `json:"high_confidence"`
	CrossCourtMerge   bool              `json:"cross_court_merge,omitempty"`
	Tribunals         []Tribunal        `json:"tribunals"`
	TierSequence      []Tier            `json:"tier_sequence"`
	OutcomeSequence   []OutcomeCategory `json:"outcome_category_sequence"`
	AppellantSequence []Appellant       `json:"appellant_inference_sequence"`
	Transitions       []Transition      `json:"transitions"`
	FinalVerdict      Verdict           `json:"final_verdict"`
	State             string            `json:"state"`              // Terminal machine state
	Excluded          bool              `json:"excluded,omitempty"` // Left out of success-rate denominators
	Reason            string            `json:"reason,omitempty"`
}

// RateCounter counts appeal outcomes for one party or court
type RateCounter struct {
	Success int     `json:"success"`
	Failure int     `json:"failure"`
	Partial int     `json:"partial"`
	Total   int     `json:"total"`
	Rate    float64 `json:"success_rate"`
}

// Statistics aggregates verdicts for the reporting boundary
type Statistics struct {
	Chains             int                                     `json:"chains"`
	Approximate        bool                                    `json:"approximate,omitempty"` // Built by an approximate strategy
	Inferred           int                                     `json:"inferred"`
	Excluded           int                                     `json:"excluded"`
	CrossCourtExcluded int                                     `json:"cross_court_excluded"`
	Verdicts           map[Verdict]int                         `json:"verdicts"`
	WorkerSuccessRate  float64                                 `json:"worker_success_rate"`     // Wins over decided chains
	WorkerSuccessAll   float64                                 `json:"worker_success_rate_all"` // Wins over every counted chain, undetermined included
	Appeals            map[string]*RateCounter                 `json:"appeals"`                 // Keyed "TIER/APPELLANT"
	ByTribunal         map[Tribunal]map[Appellant]*RateCounter `json:"by_tribunal"`
	FlowPatterns       map[string]int                          `json:"flow_patterns"`
	Reversals          int                                     `json:"reversals"`
	PartialSteps       int                                     `json:"partial_steps"`
	TaxonomyGaps       map[int]int                             `json:"taxonomy_gaps,omitempty"` // Unknown movement code counts
}

// Report is the complete output of an analyze run
type Report struct {
	GeneratedAt     time.Time           `json:"generated_at"`
	Source          string              `json:"source"`
	Strategy        string              `json:"strategy"`
	TaxonomyVersion string              `json:"taxonomy_version"`
	Evaluation      *StrategyEvaluation `json:"evaluation"`
	Verdicts        []VerdictRecord     `json:"verdicts"`
	Statistics      Statistics          `json:"statistics"`
}

// Signal represents a diagnostic signal with transparent scoring data
type Signal struct {
	Type        SignalType             `json:"type" yaml:"type"`
	Severity    SignalSeverity         `json:"severity" yaml:"severity"`
	Description string                 `json:"description" yaml:"description"`
	Data        map[string]interface{} `json:"data,omitempty" yaml:"data,omitempty"`
}

// SignalType classifies the type of diagnostic signal
type SignalType string

const (
	SignalUnresolvable   SignalType = "unresolvable_identifiers" // Numbers too short for the strategy
	SignalCrossCourt     SignalType = "cross_court_merge"        // Same-tier records from different courts
	SignalAmbiguity      SignalType = "ambiguous_tiers"          // Tiers collapsed to conflicting codes
	SignalCoverage       SignalType = "three_tier_coverage"      // Three-tier chains vs theoretical max
	SignalApproximate    SignalType = "approximate_matching"     // Strategy trades precision for recall
	SignalOversizedGroup SignalType = "oversized_group"          // Suspiciously many records under one core
	SignalTaxonomyGap    SignalType = "taxonomy_gap"             // Movement codes missing from the taxonomy
)

// SignalSeverity indicates the importance of the signal
type SignalSeverity string

const (
	SeverityInfo     SignalSeverity = "info"
	SeverityWarning  SignalSeverity = "warning"
	SeverityCritical SignalSeverity = "critical"
)
