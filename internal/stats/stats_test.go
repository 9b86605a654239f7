package stats

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ppiankov/casechain/internal/infer"
	"github.com/ppiankov/casechain/internal/model"
)

func chainOf(core string, entries ...model.ChainEntry) model.Chain {
	return model.Chain{Core: core, Strategy: "fixed_window", Entries: entries}
}

func entry(tier model.Tier, category model.OutcomeCategory, tribunal string) model.ChainEntry {
	return model.ChainEntry{Tier: tier, Category: category, Tribunals: []model.Tribunal{model.Tribunal(tribunal)}}
}

func verdicts(t *testing.T, e *infer.Engine, chains ...model.Chain) []model.VerdictRecord {
	t.Helper()
	out := e.InferAll(chains)
	require.Len(t, out, len(chains))
	return out
}

func TestCompute(t *testing.T) {
	e := infer.NewEngine(infer.WithMissingOriginPolicy(infer.MissingOriginExclude))

	crossCourt := chainOf("cc",
		entry(model.TierOrigin, model.OutcomeFavorableFirst, "TRT2"),
		entry(model.TierAppellate, model.OutcomeAppealGranted, "TRT2"),
	)
	crossCourt.CrossCourtMerge = true

	vrs := verdicts(t, e,
		// worker loses at origin, wins the TRT appeal
		chainOf("a",
			entry(model.TierOrigin, model.OutcomeUnfavorableFirst, "TRT2"),
			entry(model.TierAppellate, model.OutcomeAppealGranted, "TRT2"),
		),
		// employer appeals a favorable origin and loses, then loses again at TST
		chainOf("b",
			entry(model.TierOrigin, model.OutcomeFavorableFirst, "TRT15"),
			entry(model.TierAppellate, model.OutcomeAppealDenied, "TRT15"),
			entry(model.TierSuperior, model.OutcomeAppealDenied, "TST"),
		),
		// worker appeal partially granted
		chainOf("c",
			entry(model.TierOrigin, model.OutcomeUnfavorableFirst, "TRT2"),
			entry(model.TierAppellate, model.OutcomeAppealPartiallyGranted, "TRT2"),
		),
		// undetermined
		chainOf("d",
			entry(model.TierOrigin, model.OutcomeFavorableFirst, "TRT2"),
			entry(model.TierSuperior, model.OutcomeUnknown, "TST"),
		),
		// no origin, excluded
		chainOf("e",
			entry(model.TierAppellate, model.OutcomeAppealDenied, "TRT2"),
			entry(model.TierSuperior, model.OutcomeAppealGranted, "TST"),
		),
		crossCourt,
	)

	st := Compute(Input{Chains: 9, Verdicts: vrs, TaxonomyGaps: map[int]int{999: 1}})

	assert.Equal(t, 9, st.Chains)
	assert.Equal(t, 6, st.Inferred)
	assert.Equal(t, 1, st.Excluded)
	assert.Equal(t, 1, st.CrossCourtExcluded)
	assert.Equal(t, map[model.Verdict]int{
		model.VerdictWorkerWins:   2,
		model.VerdictWorkerLoses:  1,
		model.VerdictUndetermined: 1,
	}, st.Verdicts)
	assert.InDelta(t, 2.0/3.0, st.WorkerSuccessRate, 1e-9)
	assert.InDelta(t, 2.0/4.0, st.WorkerSuccessAll, 1e-9)

	workerTRT := st.Appeals[AppealKey(model.TierAppellate, model.AppellantWorker)]
	require.NotNil(t, workerTRT)
	assert.Equal(t, model.RateCounter{Success: 1, Partial: 1, Total: 2, Rate: 0.5}, *workerTRT)

	employerTRT := st.Appeals[AppealKey(model.TierAppellate, model.AppellantEmployer)]
	require.NotNil(t, employerTRT)
	assert.Equal(t, model.RateCounter{Failure: 1, Total: 1}, *employerTRT)

	employerTST := st.Appeals[AppealKey(model.TierSuperior, model.AppellantEmployer)]
	require.NotNil(t, employerTST)
	assert.Equal(t, 1, employerTST.Failure)

	assert.Equal(t, 1, st.ByTribunal["TRT2"][model.AppellantWorker].Success)
	assert.Equal(t, 1, st.ByTribunal["TST"][model.AppellantEmployer].Total)
	assert.NotContains(t, st.ByTribunal["TRT2"], model.AppellantEmployer)

	assert.Equal(t, 1, st.Reversals)
	assert.Equal(t, 1, st.PartialSteps)
	assert.Equal(t, 1, st.FlowPatterns["ORIGIN:UNFAVORABLE_FIRST -> APPELLATE:APPEAL_GRANTED"])
	assert.Equal(t, map[int]int{999: 1}, st.TaxonomyGaps)
}

func TestCompute_Empty(t *testing.T) {
	st := Compute(Input{Approximate: true})
	assert.True(t, st.Approximate)
	assert.Zero(t, st.WorkerSuccessRate)
	assert.Zero(t, st.WorkerSuccessAll)
	assert.Empty(t, st.Verdicts)
	assert.Empty(t, st.Appeals)
}

func TestCompute_MissingOriginPolicy(t *testing.T) {
	won := chainOf("won",
		entry(model.TierOrigin, model.OutcomeUnfavorableFirst, "TRT2"),
		entry(model.TierAppellate, model.OutcomeAppealGranted, "TRT2"),
	)
	noOrigin := chainOf("no-origin",
		entry(model.TierAppellate, model.OutcomeAppealDenied, "TRT2"),
		entry(model.TierSuperior, model.OutcomeAppealDenied, "TST"),
	)

	tests := []struct {
		name     string
		policy   infer.MissingOriginPolicy
		verdicts map[model.Verdict]int
		all      float64
	}{
		{
			name:     "undetermined",
			policy:   infer.MissingOriginUndetermined,
			verdicts: map[model.Verdict]int{model.VerdictWorkerWins: 1, model.VerdictUndetermined: 1},
			all:      0.5,
		},
		{
			name:     "exclude",
			policy:   infer.MissingOriginExclude,
			verdicts: map[model.Verdict]int{model.VerdictWorkerWins: 1},
			all:      1.0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := infer.NewEngine(infer.WithMissingOriginPolicy(tt.policy))
			st := Compute(Input{Chains: 2, Verdicts: verdicts(t, e, won, noOrigin)})

			assert.Equal(t, tt.verdicts, st.Verdicts)
			assert.InDelta(t, 1.0, st.WorkerSuccessRate, 1e-9)
			assert.InDelta(t, tt.all, st.WorkerSuccessAll, 1e-9)
		})
	}
}

func TestFlowPattern(t *testing.T) {
	vr := model.VerdictRecord{
		TierSequence:    []model.Tier{model.TierOrigin, model.TierSuperior},
		OutcomeSequence: []model.OutcomeCategory{model.OutcomeFavorableFirst, model.OutcomeAppealGranted},
	}
	assert.Equal(t, "ORIGIN:FAVORABLE_FIRST -> SUPERIOR:APPEAL_GRANTED", FlowPattern(vr))
}
