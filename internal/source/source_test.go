package source

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ppiankov/casechain/internal/model"
	"github.com/ppiankov/casechain/internal/store"
)

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestDetectFormat(t *testing.T) {
	tests := []struct {
		path string
		want Format
	}{
		{"a.csv", FormatCSV},
		{"a.TSV", FormatCSV},
		{"a.json", FormatJSON},
		{"a.jsonl", FormatJSON},
		{"a.db", FormatSQLite},
		{"a.sqlite3", FormatSQLite},
	}
	for _, tt := range tests {
		got, err := DetectFormat(tt.path)
		require.NoError(t, err, tt.path)
		assert.Equal(t, tt.want, got, tt.path)
	}

	_, err := DetectFormat("a.xlsx")
	assert.True(t, errors.Is(err, ErrUnsupportedFormat))
}

func TestLoad_CSV(t *testing.T) {
	path := writeFile(t, "consolidated.csv", "\ufeffid,numero_processo,tribunal,grau,movimentos,data_julgamento\n"+
		"r1,0001234-56.2020.5.02.0001,trt2,G1,219;11009,2020-06-01\n"+
		",0001234-56.2020.5.02.0001,TRT2,G2,\"[237, x]\",01/02/2021\n"+
		"r3,0001234-56.2020.5.02.0001,TST,,242@2022-03-04,not-a-date\n")

	records, report, err := Load(context.Background(), path)
	require.NoError(t, err)
	require.Len(t, records, 3)

	assert.Equal(t, "r1", records[0].ID)
	assert.Equal(t, model.Tribunal("TRT2"), records[0].Tribunal)
	assert.Equal(t, model.TierOrigin, records[0].Tier)
	assert.Equal(t, []int{219, 11009}, records[0].MovementCodes())
	require.NotNil(t, records[0].JudgmentDate)
	assert.Equal(t, 2020, records[0].JudgmentDate.Year())

	assert.Equal(t, "consolidated#2", records[1].ID)
	assert.Equal(t, model.TierAppellate, records[1].Tier)
	assert.Equal(t, []int{237}, records[1].MovementCodes())
	require.NotNil(t, records[1].JudgmentDate)
	assert.Equal(t, 2, int(records[1].JudgmentDate.Month()))

	assert.Equal(t, model.TierSuperior, records[2].Tier, "TST implies the superior tier")
	require.Len(t, records[2].Movements, 1)
	require.NotNil(t, records[2].Movements[0].At)
	assert.Nil(t, records[2].JudgmentDate)

	assert.Equal(t, 3, report.Records)
	assert.Equal(t, 1, report.BadCodes)
	assert.Equal(t, 1, report.BadDates)
}

func TestLoad_TSVEnglishHeaders(t *testing.T) {
	path := writeFile(t, "records.tsv", "record_id\traw_process_number\tcourt\ttier\tmovement_codes\n"+
		"x\t123\tTRT15\tAPPELLATE\t238\n")

	records, _, err := Load(context.Background(), path)
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, "x", records[0].ID)
	assert.Equal(t, "123", records[0].RawProcessNumber)
	assert.Equal(t, model.TierAppellate, records[0].Tier)
}

func TestLoad_CSVWithoutNumberColumn(t *testing.T) {
	path := writeFile(t, "bad.csv", "id,tribunal\nr1,TRT2\n")
	_, _, err := Load(context.Background(), path)
	assert.Error(t, err)
}

func TestLoad_EmptyCSV(t *testing.T) {
	path := writeFile(t, "empty.csv", "")
	records, report, err := Load(context.Background(), path)
	require.NoError(t, err)
	assert.Empty(t, records)
	assert.Equal(t, 0, report.Records)
}

func TestLoad_JSONArray(t *testing.T) {
	path := writeFile(t, "docs.json", `[
	  {"id": "d1", "numeroProcesso": "00012345620205020001", "tribunal": "TRT2", "grau": "G1",
	   "dataJulgamento": "2020-06-01T00:00:00.000Z",
	   "movimentos": [{"codigo": 219, "dataHora": "2020-06-01T10:00:00.000Z"}, {"codigo": "11009"}]},
	  {"raw_process_number": "00012345620205020001", "tribunal": "trt2", "tier": "APPELLATE", "movement_codes": [237]}
	]`)

	records, report, err := Load(context.Background(), path)
	require.NoError(t, err)
	require.Len(t, records, 2)

	assert.Equal(t, "d1", records[0].ID)
	assert.Equal(t, []int{219, 11009}, records[0].MovementCodes())
	require.NotNil(t, records[0].Movements[0].At)
	assert.Nil(t, records[0].Movements[1].At)
	require.NotNil(t, records[0].JudgmentDate)

	assert.Equal(t, "docs#2", records[1].ID)
	assert.Equal(t, model.Tribunal("TRT2"), records[1].Tribunal)
	assert.Equal(t, model.TierAppellate, records[1].Tier)
	assert.Equal(t, []int{237}, records[1].MovementCodes())
	assert.Equal(t, 0, report.BadCodes)
}

func TestLoad_SearchResponse(t *testing.T) {
	path := writeFile(t, "search.json", `{"took": 3, "hits": {"total": {"value": 1}, "hits": [
	  {"_id": "TST_1", "_source": {"numeroProcesso": "00012345620205020001", "tribunal": "TST", "grau": "GS",
	   "movimentos": [{"codigo": 242}, {"codigo": 0}]}}
	]}}`)

	records, report, err := Load(context.Background(), path)
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, "TST_1", records[0].ID)
	assert.Equal(t, model.TierSuperior, records[0].Tier)
	assert.Equal(t, []int{242}, records[0].MovementCodes())
	assert.Equal(t, 1, report.BadCodes)
}

func TestLoad_JSONLines(t *testing.T) {
	path := writeFile(t, "stream.jsonl", `{"id": "a", "numeroProcesso": "1", "grau": "G1"}
{"id": "b", "numeroProcesso": "2", "grau": "G2"}
`)

	records, _, err := Load(context.Background(), path)
	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.Equal(t, "b", records[1].ID)
	assert.Equal(t, model.TierAppellate, records[1].Tier)
}

func TestLoad_JSONRejectsScalars(t *testing.T) {
	path := writeFile(t, "scalar.json", `42`)
	_, _, err := Load(context.Background(), path)
	assert.True(t, errors.Is(err, ErrUnsupportedFormat))
}

func TestLoad_SQLite(t *testing.T) {
	path := filepath.Join(t.TempDir(), "records.db")
	s, err := store.Open(path)
	require.NoError(t, err)
	_, err = s.SaveRecords(context.Background(), []model.Record{
		{ID: "s1", RawProcessNumber: "0001234-56.2020.5.02.0001", Tribunal: "TRT2", Tier: model.TierOrigin, Movements: model.MovementsFromCodes(220)},
	})
	require.NoError(t, err)
	require.NoError(t, s.Close())

	records, report, err := Load(context.Background(), path)
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, FormatSQLite, report.Format)
	assert.Equal(t, []int{220}, records[0].MovementCodes())
}

func TestLoad_MissingFile(t *testing.T) {
	_, _, err := Load(context.Background(), filepath.Join(t.TempDir(), "nope.csv"))
	assert.Error(t, err)
}
