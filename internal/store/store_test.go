package store

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ppiankov/casechain/internal/model"
)

func openTemp(t *testing.T) *Store {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "nested", "casechain.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func date(s string) *time.Time {
	t, _ := time.Parse("2006-01-02", s)
	return &t
}

func TestStore_RecordsRoundTrip(t *testing.T) {
	s := openTemp(t)
	ctx := context.Background()

	records := []model.Record{
		{
			ID:               "b",
			RawProcessNumber: "0001234-56.2020.5.02.0001",
			Tribunal:         "TRT2",
			Tier:             model.TierAppellate,
			Movements:        []model.Movement{{Code: 237, At: date("2021-05-01")}, {Code: 11009}},
			JudgmentDate:     date("2021-05-01"),
		},
		{
			ID:               "a",
			RawProcessNumber: "0001234-56.2020.5.02.0001",
			Tribunal:         "TRT2",
			Tier:             model.TierOrigin,
			Movements:        model.MovementsFromCodes(219),
		},
	}
	n, err := s.SaveRecords(ctx, records)
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	got, err := s.LoadRecords(ctx)
	require.NoError(t, err)
	require.Len(t, got, 2)

	assert.Equal(t, "a", got[0].ID)
	assert.Equal(t, model.TierOrigin, got[0].Tier)
	assert.Nil(t, got[0].JudgmentDate)
	assert.Equal(t, []int{219}, got[0].MovementCodes())

	assert.Equal(t, "b", got[1].ID)
	assert.Equal(t, model.TierAppellate, got[1].Tier)
	assert.Equal(t, model.Tribunal("TRT2"), got[1].Tribunal)
	require.NotNil(t, got[1].JudgmentDate)
	assert.True(t, got[1].JudgmentDate.Equal(*date("2021-05-01")))
	require.Len(t, got[1].Movements, 2)
	require.NotNil(t, got[1].Movements[0].At)
	assert.Nil(t, got[1].Movements[1].At)
}

func TestStore_SaveRecordsUpserts(t *testing.T) {
	s := openTemp(t)
	ctx := context.Background()

	_, err := s.SaveRecords(ctx, []model.Record{{ID: "x", RawProcessNumber: "1", Tier: model.TierOrigin}})
	require.NoError(t, err)
	_, err = s.SaveRecords(ctx, []model.Record{{ID: "x", RawProcessNumber: "2", Tier: model.TierSuperior, Tribunal: "TST"}})
	require.NoError(t, err)

	got, err := s.LoadRecords(ctx)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "2", got[0].RawProcessNumber)
	assert.Equal(t, model.TierSuperior, got[0].Tier)
}

func TestStore_SaveReport(t *testing.T) {
	s := openTemp(t)
	ctx := context.Background()
	s.now = func() time.Time { return time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC) }

	report := &model.Report{
		Source:          "records.csv",
		Strategy:        "fixed_window",
		TaxonomyVersion: "test",
		Evaluation: &model.StrategyEvaluation{
			Strategy:   "fixed_window",
			Rank:       1,
			Accounting: model.Accounting{Input: 3, Members: 2, SingleTierOnly: 1},
		},
		Verdicts: []model.VerdictRecord{
			{CaseCore: "z", FinalVerdict: model.VerdictWorkerLoses, State: "FINAL"},
			{CaseCore: "a", FinalVerdict: model.VerdictWorkerWins, State: "FINAL"},
		},
		Statistics: model.Statistics{Chains: 2},
	}
	runID, err := s.SaveReport(ctx, report)
	require.NoError(t, err)
	assert.NotEmpty(t, runID)

	runs, err := s.Runs(ctx, 0)
	require.NoError(t, err)
	require.Len(t, runs, 1)
	assert.Equal(t, runID, runs[0].ID)
	assert.Equal(t, "analyze", runs[0].Kind)
	assert.Equal(t, 3, runs[0].Records)
	assert.Equal(t, 2024, runs[0].CreatedAt.Year())

	verdicts, err := s.Verdicts(ctx, runID)
	require.NoError(t, err)
	require.Len(t, verdicts, 2)
	assert.Equal(t, "a", verdicts[0].CaseCore)
	assert.Equal(t, model.VerdictWorkerWins, verdicts[0].FinalVerdict)
}

func TestStore_SaveEvaluation(t *testing.T) {
	s := openTemp(t)
	ctx := context.Background()

	eval := &model.Evaluation{
		TaxonomyVersion: "test",
		Records:         10,
		Strategies: []model.StrategyEvaluation{
			{Strategy: "fixed_window", Rank: 1, CoverageRatio: 0.5},
			{Strategy: "full_digits", Rank: 2},
		},
	}
	runID, err := s.SaveEvaluation(ctx, "records.json", eval)
	require.NoError(t, err)

	var rows int
	require.NoError(t, s.db.QueryRow(`SELECT COUNT(*) FROM evaluations WHERE run_id = ?`, runID).Scan(&rows))
	assert.Equal(t, 2, rows)

	verdicts, err := s.Verdicts(ctx, runID)
	require.NoError(t, err)
	assert.Empty(t, verdicts)
}

func TestStore_RunsNewestFirst(t *testing.T) {
	s := openTemp(t)
	ctx := context.Background()

	stamps := []time.Time{
		time.Date(2024, 1, 2, 3, 4, 5, 120_000_000, time.UTC),
		time.Date(2024, 1, 2, 3, 4, 5, 100_000_000, time.UTC),
		time.Date(2024, 1, 2, 3, 4, 5, 300_000_000, time.UTC),
		time.Date(2024, 1, 2, 3, 4, 5, 300_000_000, time.UTC),
	}
	var ids []string
	for _, at := range stamps {
		at := at
		s.now = func() time.Time { return at }
		id, err := s.SaveEvaluation(ctx, "records.csv", &model.Evaluation{TaxonomyVersion: "test"})
		require.NoError(t, err)
		ids = append(ids, id)
	}

	runs, err := s.Runs(ctx, 0)
	require.NoError(t, err)
	require.Len(t, runs, 4)

	got := make([]string, len(runs))
	for i, r := range runs {
		got[i] = r.ID
	}
	// equal timestamps fall back to insertion order
	assert.Equal(t, []string{ids[3], ids[2], ids[0], ids[1]}, got)
	assert.True(t, runs[2].CreatedAt.Equal(stamps[0]))
}

func TestStore_VerdictsUnknownRun(t *testing.T) {
	s := openTemp(t)
	_, err := s.Verdicts(context.Background(), "missing")
	assert.True(t, errors.Is(err, ErrRunNotFound))
}

func TestStore_ReopenKeepsData(t *testing.T) {
	path := filepath.Join(t.TempDir(), "casechain.db")
	ctx := context.Background()

	s, err := Open(path)
	require.NoError(t, err)
	_, err = s.SaveRecords(ctx, []model.Record{{ID: "r1", RawProcessNumber: "123"}})
	require.NoError(t, err)
	require.NoError(t, s.Close())

	s, err = Open(path)
	require.NoError(t, err)
	defer func() { _ = s.Close() }()
	got, err := s.LoadRecords(ctx)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, model.TierUnknown, got[0].Tier)
}
