package infer

import (
	"fmt"
	"sort"

	"go.uber.org/zap"

	"github.com/ppiankov/casechain/internal/model"
)

// State is a step of the outcome inference machine
type State string

const (
	StateStart            State = "START"
	StateOriginDecided    State = "ORIGIN_DECIDED"
	StateAppellateDecided State = "APPELLATE_DECIDED"
	StateSuperiorDecided  State = "SUPERIOR_DECIDED"
	StateFinal            State = "FINAL"
	StateUndetermined     State = "UNDETERMINED" // Absorbing
)

// decided maps the tier just ruled on to the state it leads to
var decided = map[model.Tier]State{
	model.TierOrigin:    StateOriginDecided,
	model.TierAppellate: StateAppellateDecided,
	model.TierSuperior:  StateSuperiorDecided,
}

// Engine derives party-outcome verdicts from chains
type Engine struct {
	settlement    SettlementPolicy
	missingOrigin MissingOriginPolicy
	logger        *zap.Logger
}

// Option configures an Engine
type Option func(*Engine)

// WithSettlementPolicy sets how settlements are read
func WithSettlementPolicy(p SettlementPolicy) Option {
	return func(e *Engine) {
		e.settlement = p
	}
}

// WithMissingOriginPolicy sets how chains without an origin ruling are reported
func WithMissingOriginPolicy(p MissingOriginPolicy) Option {
	return func(e *Engine) {
		e.missingOrigin = p
	}
}

// WithLogger sets the logger
func WithLogger(logger *zap.Logger) Option {
	return func(e *Engine) {
		if logger != nil {
			e.logger = logger
		}
	}
}

// NewEngine creates an engine with undetermined defaults for both policies
func NewEngine(opts ...Option) *Engine {
	e := &Engine{
		settlement:    SettlementUndetermined,
		missingOrigin: MissingOriginUndetermined,
		logger:        zap.NewNop(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// FromConfig creates an engine from the inference config section
func FromConfig(cfg model.InferenceConfig, logger *zap.Logger) (*Engine, error) {
	settlement, err := ParseSettlementPolicy(cfg.SettlementPolicy)
	if err != nil {
		return nil, err
	}
	missing, err := ParseMissingOriginPolicy(cfg.MissingOriginPolicy)
	if err != nil {
		return nil, err
	}
	return NewEngine(
		WithSettlementPolicy(settlement),
		WithMissingOriginPolicy(missing),
		WithLogger(logger),
	), nil
}

// machine is the running state of one chain's inference
type machine struct {
	state     State
	favorable bool // Worker position at the last decided tier
	reason    string
}

func (m *machine) halt(reason string) {
	if m.state != StateUndetermined {
		m.state = StateUndetermined
		m.reason = reason
	}
}

// Infer runs the machine over a chain. It returns false for chains with
// fewer than two placed tiers, which are not inferred.
func (e *Engine) Infer(c model.Chain) (model.VerdictRecord, bool) {
	if !c.MultiTier() {
		return model.VerdictRecord{}, false
	}

	vr := model.VerdictRecord{
		CaseCore:        c.Core,
		StrategyUsed:    c.Strategy,
		Approximate:     c.Approximate,
		HighConfidence:  c.HighConfidence(),
		CrossCourtMerge: c.CrossCourtMerge,
		Tribunals:       tribunals(c.Entries),
	}
	for _, entry := range c.Entries {
		vr.TierSequence = append(vr.TierSequence, entry.Tier)
		vr.OutcomeSequence = append(vr.OutcomeSequence, entry.Category)
	}

	m := &machine{state: StateStart}
	e.origin(m, c.Entries[0])
	if c.Entries[0].Tier != model.TierOrigin && e.missingOrigin == MissingOriginExclude {
		vr.Excluded = true
	}

	prev := c.Entries[0].Tier
	for _, entry := range c.Entries[1:] {
		t := e.step(m, prev, entry)
		vr.Transitions = append(vr.Transitions, t)
		vr.AppellantSequence = append(vr.AppellantSequence, t.Appellant)
		prev = entry.Tier
	}

	if m.state != StateUndetermined {
		m.state = StateFinal
	}
	vr.State = string(m.state)

	switch {
	case m.state == StateUndetermined:
		vr.FinalVerdict = model.VerdictUndetermined
		vr.Reason = m.reason
	case m.favorable:
		vr.FinalVerdict = model.VerdictWorkerWins
	default:
		vr.FinalVerdict = model.VerdictWorkerLoses
	}

	e.logger.Debug("chain inferred",
		zap.String("core", vr.CaseCore),
		zap.String("pattern", c.Pattern()),
		zap.String("verdict", string(vr.FinalVerdict)),
		zap.String("reason", vr.Reason))

	return vr, true
}

// InferAll infers every multi-tier chain, preserving chain order
func (e *Engine) InferAll(chains []model.Chain) []model.VerdictRecord {
	var out []model.VerdictRecord
	for _, c := range chains {
		if vr, ok := e.Infer(c); ok {
			out = append(out, vr)
		}
	}
	return out
}

// origin sets the baseline polarity from the first placed entry
func (e *Engine) origin(m *machine, entry model.ChainEntry) {
	if entry.Tier != model.TierOrigin {
		m.halt("no origin ruling in chain")
		return
	}
	if entry.Ambiguous {
		m.halt("ambiguous ORIGIN outcome")
		return
	}

	switch entry.Category {
	case model.OutcomeFavorableFirst:
		m.favorable = true
	case model.OutcomeUnfavorableFirst:
		m.favorable = false
	case model.OutcomeSettlementHomologated:
		if e.settlement != SettlementWorkerWins {
			m.halt("settlement at ORIGIN")
			return
		}
		m.favorable = true
	case model.OutcomeExtinguishedNoMerit:
		m.halt("ORIGIN extinguished without a merits ruling")
		return
	default:
		m.halt(fmt.Sprintf("ORIGIN outcome %s", entry.Category))
		return
	}
	m.state = StateOriginDecided
}

// step applies one tier-to-tier transition
func (e *Engine) step(m *machine, from model.Tier, entry model.ChainEntry) model.Transition {
	t := model.Transition{
		From:      from,
		To:        entry.Tier,
		Category:  entry.Category,
		Appellant: model.AppellantNotApplicable,
		Tribunals: entry.Tribunals,
	}
	if m.state == StateUndetermined {
		t.State = string(m.state)
		return t
	}
	if entry.Ambiguous {
		m.halt(fmt.Sprintf("ambiguous %s outcome", entry.Tier))
		t.State = string(m.state)
		return t
	}

	// The party the current position disfavours is the one appealing
	appellant := model.AppellantWorker
	if m.favorable {
		appellant = model.AppellantEmployer
	}

	switch entry.Category {
	case model.OutcomeAppealGranted:
		t.Appellant = appellant
		m.favorable = !m.favorable
		t.Reversed = true
	case model.OutcomeAppealDenied:
		t.Appellant = appellant
	case model.OutcomeAppealPartiallyGranted:
		t.Appellant = appellant
		t.Partial = true
	case model.OutcomeSettlementHomologated:
		if e.settlement != SettlementWorkerWins {
			m.halt(fmt.Sprintf("settlement at %s", entry.Tier))
			t.State = string(m.state)
			return t
		}
		m.favorable = true
	case model.OutcomeExtinguishedNoMerit:
		m.halt(fmt.Sprintf("%s extinguished without a merits ruling", entry.Tier))
		t.State = string(m.state)
		return t
	default:
		m.halt(fmt.Sprintf("%s outcome %s", entry.Tier, entry.Category))
		t.State = string(m.state)
		return t
	}

	m.state = decided[entry.Tier]
	t.State = string(m.state)
	return t
}

func tribunals(entries []model.ChainEntry) []model.Tribunal {
	seen := make(map[model.Tribunal]bool)
	var out []model.Tribunal
	for _, e := range entries {
		for _, tr := range e.Tribunals {
			if !seen[tr] {
				seen[tr] = true
				out = append(out, tr)
			}
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}
