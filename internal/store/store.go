package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"

	"github.com/ppiankov/casechain/internal/model"

	_ "modernc.org/sqlite"
)

// ErrRunNotFound is returned when a run id is unknown
var ErrRunNotFound = errors.New("run not found")

const schema = `
CREATE TABLE IF NOT EXISTS records (
	id TEXT PRIMARY KEY,
	raw_process_number TEXT NOT NULL,
	tribunal TEXT NOT NULL DEFAULT '',
	tier TEXT NOT NULL DEFAULT 'UNKNOWN',
	movements JSON NOT NULL DEFAULT '[]',
	judgment_date TEXT
);
CREATE TABLE IF NOT EXISTS runs (
	run_id TEXT PRIMARY KEY,
	kind TEXT NOT NULL,
	source TEXT NOT NULL DEFAULT '',
	strategy TEXT NOT NULL DEFAULT '',
	taxonomy_version TEXT NOT NULL DEFAULT '',
	records INTEGER NOT NULL DEFAULT 0,
	created_at TEXT NOT NULL,
	statistics JSON
);
CREATE TABLE IF NOT EXISTS evaluations (
	run_id TEXT NOT NULL REFERENCES runs(run_id),
	strategy TEXT NOT NULL,
	rank INTEGER NOT NULL,
	coverage_ratio REAL NOT NULL,
	payload JSON NOT NULL,
	PRIMARY KEY (run_id, strategy)
);
CREATE TABLE IF NOT EXISTS verdicts (
	run_id TEXT NOT NULL REFERENCES runs(run_id),
	case_core TEXT NOT NULL,
	final_verdict TEXT NOT NULL,
	excluded INTEGER NOT NULL DEFAULT 0,
	payload JSON NOT NULL,
	PRIMARY KEY (run_id, case_core)
);
CREATE INDEX IF NOT EXISTS idx_verdicts_verdict ON verdicts(run_id, final_verdict);
`

// Run is one persisted evaluate or analyze invocation
type Run struct {
	ID              string    `json:"run_id"`
	Kind            string    `json:"kind"` // evaluate, analyze
	Source          string    `json:"source"`
	Strategy        string    `json:"strategy,omitempty"`
	TaxonomyVersion string    `json:"taxonomy_version"`
	Records         int       `json:"records"`
	CreatedAt       time.Time `json:"created_at"`
}

// Store persists records and run results in SQLite
type Store struct {
	db   *sql.DB
	path string
	now  func() time.Time
}

// Open creates or opens the database at path and applies the schema
func Open(path string) (*Store, error) {
	if path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
			return nil, fmt.Errorf("create store directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open store: %w", err)
	}
	db.SetMaxOpenConns(1)
	for _, pragma := range []string{
		"PRAGMA busy_timeout = 5000",
		"PRAGMA journal_mode = WAL",
		"PRAGMA foreign_keys = ON",
	} {
		if _, err := db.Exec(pragma); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("%s: %w", pragma, err)
		}
	}
	if _, err := db.Exec(schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("apply schema: %w", err)
	}

	return &Store{db: db, path: path, now: time.Now}, nil
}

// Close closes the database
func (s *Store) Close() error {
	return s.db.Close()
}

// Path returns the database location
func (s *Store) Path() string {
	return s.path
}

// SaveRecords upserts records by id and returns how many were written
func (s *Store) SaveRecords(ctx context.Context, records []model.Record) (int, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("begin: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	stmt, err := tx.PrepareContext(ctx, `INSERT OR REPLACE INTO records
		(id, raw_process_number, tribunal, tier, movements, judgment_date)
		VALUES (?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return 0, fmt.Errorf("prepare: %w", err)
	}
	defer func() { _ = stmt.Close() }()

	for _, r := range records {
		movements, err := json.Marshal(r.Movements)
		if err != nil {
			return 0, fmt.Errorf("encode movements of %s: %w", r.ID, err)
		}
		if _, err := stmt.ExecContext(ctx, r.ID, r.RawProcessNumber, string(r.Tribunal), r.Tier.String(), string(movements), formatTime(r.JudgmentDate)); err != nil {
			return 0, fmt.Errorf("insert record %s: %w", r.ID, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("commit: %w", err)
	}
	return len(records), nil
}

// LoadRecords returns every stored record ordered by id
func (s *Store) LoadRecords(ctx context.Context) ([]model.Record, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT id, raw_process_number, tribunal, tier, movements, judgment_date
		FROM records ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("query records: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var records []model.Record
	for rows.Next() {
		var (
			r         model.Record
			tribunal  string
			tier      string
			movements string
			judged    sql.NullString
		)
		if err := rows.Scan(&r.ID, &r.RawProcessNumber, &tribunal, &tier, &movements, &judged); err != nil {
			return nil, fmt.Errorf("scan record: %w", err)
		}
		r.Tribunal = model.Tribunal(tribunal)
		r.Tier = model.ParseTier(tier, r.Tribunal)
		if err := json.Unmarshal([]byte(movements), &r.Movements); err != nil {
			return nil, fmt.Errorf("decode movements of %s: %w", r.ID, err)
		}
		r.JudgmentDate = parseTime(judged)
		records = append(records, r)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return records, nil
}

// SaveEvaluation persists a strategy comparison and returns its run id
func (s *Store) SaveEvaluation(ctx context.Context, source string, eval *model.Evaluation) (string, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return "", fmt.Errorf("begin: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	runID, err := s.insertRun(ctx, tx, Run{
		Kind:            "evaluate",
		Source:          source,
		TaxonomyVersion: eval.TaxonomyVersion,
		Records:         eval.Records,
	}, nil)
	if err != nil {
		return "", err
	}
	for _, row := range eval.Strategies {
		if err := insertEvaluation(ctx, tx, runID, row); err != nil {
			return "", err
		}
	}
	if err := tx.Commit(); err != nil {
		return "", fmt.Errorf("commit: %w", err)
	}
	return runID, nil
}

// SaveReport persists an analyze report and returns its run id
func (s *Store) SaveReport(ctx context.Context, report *model.Report) (string, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return "", fmt.Errorf("begin: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	records := 0
	if report.Evaluation != nil {
		records = report.Evaluation.Accounting.Input
	}
	runID, err := s.insertRun(ctx, tx, Run{
		Kind:            "analyze",
		Source:          report.Source,
		Strategy:        report.Strategy,
		TaxonomyVersion: report.TaxonomyVersion,
		Records:         records,
	}, report.Statistics)
	if err != nil {
		return "", err
	}
	if report.Evaluation != nil {
		if err := insertEvaluation(ctx, tx, runID, *report.Evaluation); err != nil {
			return "", err
		}
	}

	stmt, err := tx.PrepareContext(ctx, `INSERT INTO verdicts (run_id, case_core, final_verdict, excluded, payload) VALUES (?, ?, ?, ?, ?)`)
	if err != nil {
		return "", fmt.Errorf("prepare: %w", err)
	}
	defer func() { _ = stmt.Close() }()
	for _, vr := range report.Verdicts {
		payload, err := json.Marshal(vr)
		if err != nil {
			return "", fmt.Errorf("encode verdict %s: %w", vr.CaseCore, err)
		}
		if _, err := stmt.ExecContext(ctx, runID, vr.CaseCore, string(vr.FinalVerdict), vr.Excluded, string(payload)); err != nil {
			return "", fmt.Errorf("insert verdict %s: %w", vr.CaseCore, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return "", fmt.Errorf("commit: %w", err)
	}
	return runID, nil
}

// Runs lists the most recent runs first
func (s *Store) Runs(ctx context.Context, limit int) ([]Run, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := s.db.QueryContext(ctx, `SELECT run_id, kind, source, strategy, taxonomy_version, records, created_at
		FROM runs ORDER BY created_at DESC, rowid DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("query runs: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var runs []Run
	for rows.Next() {
		var r Run
		var created string
		if err := rows.Scan(&r.ID, &r.Kind, &r.Source, &r.Strategy, &r.TaxonomyVersion, &r.Records, &created); err != nil {
			return nil, fmt.Errorf("scan run: %w", err)
		}
		if t := parseTime(sql.NullString{String: created, Valid: true}); t != nil {
			r.CreatedAt = *t
		}
		runs = append(runs, r)
	}
	return runs, rows.Err()
}

// Verdicts returns the verdicts stored for a run, ordered by case core
func (s *Store) Verdicts(ctx context.Context, runID string) ([]model.VerdictRecord, error) {
	var exists int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM runs WHERE run_id = ?`, runID).Scan(&exists); err != nil {
		return nil, fmt.Errorf("lookup run: %w", err)
	}
	if exists == 0 {
		return nil, fmt.Errorf("%w: %s", ErrRunNotFound, runID)
	}

	rows, err := s.db.QueryContext(ctx, `SELECT payload FROM verdicts WHERE run_id = ? ORDER BY case_core`, runID)
	if err != nil {
		return nil, fmt.Errorf("query verdicts: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var out []model.VerdictRecord
	for rows.Next() {
		var payload string
		if err := rows.Scan(&payload); err != nil {
			return nil, fmt.Errorf("scan verdict: %w", err)
		}
		var vr model.VerdictRecord
		if err := json.Unmarshal([]byte(payload), &vr); err != nil {
			return nil, fmt.Errorf("decode verdict: %w", err)
		}
		out = append(out, vr)
	}
	return out, rows.Err()
}

func (s *Store) insertRun(ctx context.Context, tx *sql.Tx, run Run, statistics interface{}) (string, error) {
	run.ID = uuid.New().String()
	var stats sql.NullString
	if statistics != nil {
		b, err := json.Marshal(statistics)
		if err != nil {
			return "", fmt.Errorf("encode statistics: %w", err)
		}
		stats = sql.NullString{String: string(b), Valid: true}
	}
	now := s.now().UTC()
	_, err := tx.ExecContext(ctx, `INSERT INTO runs (run_id, kind, source, strategy, taxonomy_version, records, created_at, statistics)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		run.ID, run.Kind, run.Source, run.Strategy, run.TaxonomyVersion, run.Records, formatTime(&now), stats)
	if err != nil {
		return "", fmt.Errorf("insert run: %w", err)
	}
	return run.ID, nil
}

func insertEvaluation(ctx context.Context, tx *sql.Tx, runID string, row model.StrategyEvaluation) error {
	payload, err := json.Marshal(row)
	if err != nil {
		return fmt.Errorf("encode evaluation %s: %w", row.Strategy, err)
	}
	_, err = tx.ExecContext(ctx, `INSERT INTO evaluations (run_id, strategy, rank, coverage_ratio, payload) VALUES (?, ?, ?, ?, ?)`,
		runID, row.Strategy, row.Rank, row.CoverageRatio, string(payload))
	if err != nil {
		return fmt.Errorf("insert evaluation %s: %w", row.Strategy, err)
	}
	return nil
}

// timeLayout is fixed width so stored timestamps sort as text
const timeLayout = "2006-01-02T15:04:05.000000000Z07:00"

func formatTime(t *time.Time) sql.NullString {
	if t == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: t.UTC().Format(timeLayout), Valid: true}
}

func parseTime(s sql.NullString) *time.Time {
	if !s.Valid || s.String == "" {
		return nil
	}
	t, err := time.Parse(time.RFC3339Nano, s.String)
	if err != nil {
		return nil
	}
	return &t
}
