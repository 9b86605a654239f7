package stats

import (
	"fmt"
	"strings"

	"github.com/ppiankov/casechain/internal/model"
)

// Input is everything the aggregator needs from one analyze run
type Input struct {
	Chains       int // Groups built, single-tier included
	Approximate  bool
	Verdicts     []model.VerdictRecord
	TaxonomyGaps map[int]int
}

// AppealKey indexes appeal counters by ruling tier and appellant
func AppealKey(tier model.Tier, appellant model.Appellant) string {
	return tier.String() + "/" + string(appellant)
}

// Compute aggregates verdicts into report statistics. Cross-court chains
// are counted but kept out of every aggregate, and excluded chains leave
// the success-rate denominators. WorkerSuccessAll keeps undetermined chains
// in its denominator, so the missing-origin policy shows up there.
func Compute(in Input) model.Statistics {
	st := model.Statistics{
		Chains:       in.Chains,
		Approximate:  in.Approximate,
		Verdicts:     make(map[model.Verdict]int),
		Appeals:      make(map[string]*model.RateCounter),
		ByTribunal:   make(map[model.Tribunal]map[model.Appellant]*model.RateCounter),
		FlowPatterns: make(map[string]int),
		TaxonomyGaps: make(map[int]int, len(in.TaxonomyGaps)),
	}
	for code, n := range in.TaxonomyGaps {
		st.TaxonomyGaps[code] = n
	}

	counted := 0
	decided := 0
	wins := 0
	for _, vr := range in.Verdicts {
		st.Inferred++
		if vr.CrossCourtMerge {
			st.CrossCourtExcluded++
			continue
		}
		if vr.Excluded {
			st.Excluded++
			continue
		}

		counted++
		st.Verdicts[vr.FinalVerdict]++
		st.FlowPatterns[FlowPattern(vr)]++
		switch vr.FinalVerdict {
		case model.VerdictWorkerWins:
			decided++
			wins++
		case model.VerdictWorkerLoses:
			decided++
		}

		for _, t := range vr.Transitions {
			if t.Reversed {
				st.Reversals++
			}
			if t.Partial {
				st.PartialSteps++
			}
			if t.Appellant == model.AppellantNotApplicable {
				continue
			}
			count(counter(st.Appeals, AppealKey(t.To, t.Appellant)), t)
			for _, tr := range t.Tribunals {
				byParty, ok := st.ByTribunal[tr]
				if !ok {
					byParty = make(map[model.Appellant]*model.RateCounter)
					st.ByTribunal[tr] = byParty
				}
				c, ok := byParty[t.Appellant]
				if !ok {
					c = &model.RateCounter{}
					byParty[t.Appellant] = c
				}
				count(c, t)
			}
		}
	}

	if decided > 0 {
		st.WorkerSuccessRate = float64(wins) / float64(decided)
	}
	if counted > 0 {
		st.WorkerSuccessAll = float64(wins) / float64(counted)
	}
	for _, c := range st.Appeals {
		finish(c)
	}
	for _, byParty := range st.ByTribunal {
		for _, c := range byParty {
			finish(c)
		}
	}
	return st
}

// FlowPattern renders the tier and outcome sequence of a verdict,
// e.g. "ORIGIN:FAVORABLE_FIRST -> APPELLATE:APPEAL_DENIED"
func FlowPattern(vr model.VerdictRecord) string {
	steps := make([]string, len(vr.TierSequence))
	for i, tier := range vr.TierSequence {
		category := model.OutcomeUnknown
		if i < len(vr.OutcomeSequence) {
			category = vr.OutcomeSequence[i]
		}
		steps[i] = fmt.Sprintf("%s:%s", tier, category)
	}
	return strings.Join(steps, " -> ")
}

func counter(m map[string]*model.RateCounter, key string) *model.RateCounter {
	c, ok := m[key]
	if !ok {
		c = &model.RateCounter{}
		m[key] = c
	}
	return c
}

// count records one appeal step: granted is a success for the appellant,
// denied a failure, partial its own bucket
func count(c *model.RateCounter, t model.Transition) {
	switch {
	case t.Partial:
		c.Partial++
	case t.Reversed:
		c.Success++
	default:
		c.Failure++
	}
	c.Total++
}

func finish(c *model.RateCounter) {
	if c.Total > 0 {
		c.Rate = float64(c.Success) / float64(c.Total)
	}
}
