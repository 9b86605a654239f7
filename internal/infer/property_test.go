package infer_test

import (
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"

	"github.com/ppiankov/casechain/internal/infer"
	"github.com/ppiankov/casechain/internal/model"
)

func chainFrom(origin int, rest []int) model.Chain {
	c := model.Chain{Core: "x", Strategy: "fixed_window"}
	c.Entries = append(c.Entries, model.ChainEntry{Tier: model.TierOrigin, Category: model.AllOutcomes[origin]})
	tiers := []model.Tier{model.TierAppellate, model.TierSuperior}
	for i, r := range rest {
		if i >= len(tiers) {
			break
		}
		c.Entries = append(c.Entries, model.ChainEntry{Tier: tiers[i], Category: model.AllOutcomes[r]})
	}
	return c
}

// TestUndeterminedIsAbsorbing verifies inference never leaves UNDETERMINED.
// Property: once a transition enters UNDETERMINED every later transition
// stays there, the verdict is UNDETERMINED, and rewriting later tiers
// changes nothing
func TestUndeterminedIsAbsorbing(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 500
	properties := gopter.NewProperties(parameters)

	outcome := gen.IntRange(0, len(model.AllOutcomes)-1)

	for _, policy := range []infer.SettlementPolicy{infer.SettlementUndetermined, infer.SettlementWorkerWins} {
		policy := policy
		e := infer.NewEngine(infer.WithSettlementPolicy(policy))

		properties.Property("undetermined is absorbing under "+string(policy), prop.ForAll(
			func(origin int, rest []int, replacement int) bool {
				if len(rest) == 0 {
					return true
				}
				c := chainFrom(origin, rest)
				vr, ok := e.Infer(c)
				if !ok {
					return false
				}

				first := c.Entries[0].Category
				originHalts := first != model.OutcomeFavorableFirst && first != model.OutcomeUnfavorableFirst &&
					!(first == model.OutcomeSettlementHomologated && policy == infer.SettlementWorkerWins)

				// entered is the index of the entry that halted the machine
				entered := -1
				if originHalts {
					entered = 0
				} else {
					for i, tr := range vr.Transitions {
						if tr.State == string(infer.StateUndetermined) {
							entered = i + 1
							break
						}
					}
				}
				for i, tr := range vr.Transitions {
					if entered < 0 || i < entered {
						continue
					}
					if tr.State != string(infer.StateUndetermined) || tr.Appellant != model.AppellantNotApplicable {
						return false
					}
				}
				if entered < 0 {
					return vr.FinalVerdict != model.VerdictUndetermined
				}
				if vr.FinalVerdict != model.VerdictUndetermined {
					return false
				}

				// Rewrite every entry after the one that halted the machine
				for j := entered + 1; j < len(c.Entries); j++ {
					c.Entries[j].Category = model.AllOutcomes[replacement]
				}
				again, _ := e.Infer(c)
				return again.FinalVerdict == model.VerdictUndetermined
			},
			outcome,
			gen.SliceOfN(2, outcome),
			outcome,
		))
	}

	properties.TestingRun(t)
}
