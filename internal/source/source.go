package source

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/ppiankov/casechain/internal/model"
	"github.com/ppiankov/casechain/internal/store"
)

// ErrUnsupportedFormat is returned for inputs whose format cannot be determined
var ErrUnsupportedFormat = errors.New("unsupported record format")

// Format names a record file layout
type Format string

const (
	FormatCSV    Format = "csv"    // Consolidated table, one row per record
	FormatJSON   Format = "json"   // Court API documents: array, search response or JSON lines
	FormatSQLite Format = "sqlite" // records table written by `casechain import`
)

// DetectFormat picks a format from the file extension
func DetectFormat(path string) (Format, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".csv", ".tsv":
		return FormatCSV, nil
	case ".json", ".jsonl", ".ndjson":
		return FormatJSON, nil
	case ".db", ".sqlite", ".sqlite3":
		return FormatSQLite, nil
	}
	return "", fmt.Errorf("%w: %s", ErrUnsupportedFormat, path)
}

// Report describes what a load skipped or repaired
type Report struct {
	Path     string `json:"path"`
	Format   Format `json:"format"`
	Records  int    `json:"records"`
	BadCodes int    `json:"bad_codes"` // Movement tokens that are not integers
	BadDates int    `json:"bad_dates"` // Dates that could not be parsed, left empty
}

// Load reads every record from path, picking the format by extension
func Load(ctx context.Context, path string) ([]model.Record, *Report, error) {
	format, err := DetectFormat(path)
	if err != nil {
		return nil, nil, err
	}
	return LoadFormat(ctx, path, format)
}

// LoadFormat reads every record from path in the given format
func LoadFormat(ctx context.Context, path string, format Format) ([]model.Record, *Report, error) {
	report := &Report{Path: path, Format: format}
	prefix := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))

	var records []model.Record
	switch format {
	case FormatSQLite:
		s, err := store.Open(path)
		if err != nil {
			return nil, nil, err
		}
		defer func() { _ = s.Close() }()
		records, err = s.LoadRecords(ctx)
		if err != nil {
			return nil, nil, err
		}
	case FormatCSV, FormatJSON:
		f, err := os.Open(path)
		if err != nil {
			return nil, nil, fmt.Errorf("open records: %w", err)
		}
		defer func() { _ = f.Close() }()

		p := &parser{prefix: prefix, report: report}
		if format == FormatCSV {
			records, err = p.readCSV(f, strings.EqualFold(filepath.Ext(path), ".tsv"))
		} else {
			records, err = p.readJSON(f)
		}
		if err != nil {
			return nil, nil, fmt.Errorf("read %s: %w", path, err)
		}
	default:
		return nil, nil, fmt.Errorf("%w: %s", ErrUnsupportedFormat, format)
	}

	report.Records = len(records)
	return records, report, nil
}

// parser holds the repair counters shared by the text formats
type parser struct {
	prefix string
	report *Report
}

// id returns a stable identifier for rows that carry none
func (p *parser) id(given string, row int) string {
	if given = strings.TrimSpace(given); given != "" {
		return given
	}
	return fmt.Sprintf("%s#%d", p.prefix, row)
}

var dateLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.000Z0700",
	"2006-01-02T15:04:05.000",
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"20060102150405",
	"2006-01-02",
	"02/01/2006",
}

// date parses the timestamp layouts seen in court sources; empty input
// yields nil without counting as a repair
func (p *parser) date(raw string) *time.Time {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil
	}
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, raw); err == nil {
			t = t.UTC()
			return &t
		}
	}
	p.report.BadDates++
	return nil
}

var codeSplit = regexp.MustCompile(`[\s,;|\[\]]+`)

// movements parses a movement list cell such as "219;11009",
// "[219, 11009]" or "219@2021-03-04|11009@2021-03-10"
func (p *parser) movements(cell string) []model.Movement {
	var out []model.Movement
	for _, tok := range codeSplit.Split(cell, -1) {
		if tok == "" {
			continue
		}
		codePart, datePart, _ := strings.Cut(tok, "@")
		code, err := strconv.Atoi(codePart)
		if err != nil || code <= 0 {
			p.report.BadCodes++
			continue
		}
		out = append(out, model.Movement{Code: code, At: p.date(datePart)})
	}
	return out
}
