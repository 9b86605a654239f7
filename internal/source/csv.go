package source

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/ppiankov/casechain/internal/model"
)

// Header aliases accepted for each field, English and Portuguese
var csvColumns = map[string][]string{
	"id":       {"id", "record_id"},
	"number":   {"raw_process_number", "numero_processo", "numeroprocesso", "process_number"},
	"tribunal": {"tribunal", "court"},
	"grade":    {"tier", "grau", "grade", "instancia"},
	"moves":    {"movement_codes", "movimentos", "codigos_movimento", "movements"},
	"date":     {"judgment_date", "data_julgamento", "datajulgamento"},
}

func (p *parser) readCSV(r io.Reader, tabs bool) ([]model.Record, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true
	if tabs {
		reader.Comma = '\t'
	}

	header, err := reader.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, nil
		}
		return nil, fmt.Errorf("header: %w", err)
	}
	index := columnIndex(header)
	if _, ok := index["number"]; !ok {
		return nil, fmt.Errorf("no process number column in header %v", header)
	}

	cell := func(row []string, field string) string {
		i, ok := index[field]
		if !ok || i >= len(row) {
			return ""
		}
		return strings.TrimSpace(row[i])
	}

	var records []model.Record
	for line := 1; ; line++ {
		row, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("row %d: %w", line, err)
		}
		tribunal := model.Tribunal(cell(row, "tribunal")).Normalize()
		records = append(records, model.Record{
			ID:               p.id(cell(row, "id"), line),
			RawProcessNumber: cell(row, "number"),
			Tribunal:         tribunal,
			Tier:             model.ParseTier(cell(row, "grade"), tribunal),
			Movements:        p.movements(cell(row, "moves")),
			JudgmentDate:     p.date(cell(row, "date")),
		})
	}
	return records, nil
}

func columnIndex(header []string) map[string]int {
	index := make(map[string]int)
	for i, h := range header {
		h = strings.ToLower(strings.TrimSpace(strings.TrimPrefix(h, "\ufeff")))
		for field, aliases := range csvColumns {
			if _, taken := index[field]; taken {
				continue
			}
			for _, a := range aliases {
				if h == a {
					index[field] = i
				}
			}
		}
	}
	return index
}
