package pipeline

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ppiankov/casechain/internal/model"
)

func TestRenderer_GroupsLargeNumbers(t *testing.T) {
	r := NewRenderer()
	report := &model.Report{
		Source:     "big.csv",
		Strategy:   "fixed_window",
		Evaluation: &model.StrategyEvaluation{Accounting: model.Accounting{Input: 1234567}},
		Statistics: model.Statistics{Verdicts: map[model.Verdict]int{model.VerdictWorkerWins: 4321}},
	}

	var buf bytes.Buffer
	r.WriteSummary(&buf, report)
	assert.Contains(t, buf.String(), "1,234,567")
	assert.Contains(t, buf.String(), "4,321")
}

func TestRenderer_ApproximateWarning(t *testing.T) {
	r := NewRenderer()
	report := &model.Report{Strategy: "fuzzy", Statistics: model.Statistics{Approximate: true}}

	var buf bytes.Buffer
	require.NoError(t, r.WriteMarkdown(&buf, report))
	assert.Contains(t, buf.String(), "approximate strategy")
}

func TestRenderer_EvaluationTable(t *testing.T) {
	r := NewRenderer()
	eval := &model.Evaluation{
		Records:         10,
		TaxonomyVersion: "v1",
		Strategies: []model.StrategyEvaluation{
			{Strategy: "fixed_window", Rank: 1, ChainCount: 3},
			{Strategy: "fuzzy", Rank: 2, Approximate: true, Signals: []model.Signal{
				{Type: model.SignalApproximate, Severity: model.SeverityWarning, Description: "approximate matching"},
			}},
		},
	}

	var buf bytes.Buffer
	r.WriteEvaluationTable(&buf, eval)
	out := buf.String()
	assert.Contains(t, out, "fixed_window")
	assert.Contains(t, out, "fuzzy~")
	assert.Contains(t, out, "[warning] fuzzy: approximate matching")
}

func TestRenderer_WriteJSONAndYAML(t *testing.T) {
	r := NewRenderer()
	eval := &model.Evaluation{Records: 2, Strategies: []model.StrategyEvaluation{{Strategy: "full_digits", Rank: 1}}}

	var buf bytes.Buffer
	require.NoError(t, r.WriteJSON(&buf, eval))
	var decoded model.Evaluation
	require.NoError(t, json.Unmarshal(buf.Bytes(), &decoded))
	assert.Equal(t, "full_digits", decoded.Strategies[0].Strategy)

	buf.Reset()
	require.NoError(t, r.WriteYAML(&buf, eval))
	assert.Contains(t, buf.String(), "strategy: full_digits")
}

func TestTopPatterns(t *testing.T) {
	counts := map[string]int{"b": 2, "a": 2, "c": 5, "d": 1}
	assert.Equal(t, []string{"c", "a", "b"}, topPatterns(counts, 3))
	assert.Len(t, topPatterns(counts, 10), 4)
}
