package source

import (
	"bufio"
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/ppiankov/casechain/internal/model"
)

// document is one process as returned by the court data API
type document struct {
	ID             string     `json:"id"`
	Number         string     `json:"numeroProcesso"`
	Tribunal       string     `json:"tribunal"`
	Grade          string     `json:"grau"`
	JudgmentDate   string     `json:"dataJulgamento"`
	Movements      []movement `json:"movimentos"`
	RawNumberAlias string     `json:"raw_process_number"`
	TierAlias      string     `json:"tier"`
	CodesAlias     []int      `json:"movement_codes"`
	DateAlias      string     `json:"judgment_date"`
}

type movement struct {
	Code flexInt `json:"codigo"`
	At   string  `json:"dataHora"`
}

// flexInt accepts codes serialized as numbers or strings
type flexInt int

func (f *flexInt) UnmarshalJSON(b []byte) error {
	s := strings.Trim(string(b), `"`)
	if s == "" || s == "null" {
		*f = 0
		return nil
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return fmt.Errorf("movement code %s: %w", b, err)
	}
	*f = flexInt(n)
	return nil
}

type searchResponse struct {
	Hits struct {
		Hits []struct {
			ID     string   `json:"_id"`
			Source document `json:"_source"`
		} `json:"hits"`
	} `json:"hits"`
}

func (p *parser) readJSON(r io.Reader) ([]model.Record, error) {
	br := bufio.NewReader(r)
	first, err := peekNonSpace(br)
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, nil
		}
		return nil, err
	}

	var docs []document
	switch first {
	case '[':
		if err := json.NewDecoder(br).Decode(&docs); err != nil {
			return nil, fmt.Errorf("decode array: %w", err)
		}
	case '{':
		docs, err = decodeObjects(br)
		if err != nil {
			return nil, err
		}
	default:
		return nil, fmt.Errorf("%w: unexpected %q", ErrUnsupportedFormat, first)
	}

	records := make([]model.Record, 0, len(docs))
	for i, d := range docs {
		records = append(records, p.record(d, i+1))
	}
	return records, nil
}

// decodeObjects handles a single search response or a stream of documents
func decodeObjects(r io.Reader) ([]document, error) {
	dec := json.NewDecoder(r)
	var docs []document
	for {
		var raw json.RawMessage
		if err := dec.Decode(&raw); err != nil {
			if errors.Is(err, io.EOF) {
				return docs, nil
			}
			return nil, fmt.Errorf("decode object %d: %w", len(docs)+1, err)
		}
		if bytes.Contains(raw, []byte(`"_source"`)) {
			var resp searchResponse
			if err := json.Unmarshal(raw, &resp); err != nil {
				return nil, fmt.Errorf("decode search response: %w", err)
			}
			for _, h := range resp.Hits.Hits {
				d := h.Source
				if d.ID == "" {
					d.ID = h.ID
				}
				docs = append(docs, d)
			}
			continue
		}
		var d document
		if err := json.Unmarshal(raw, &d); err != nil {
			return nil, fmt.Errorf("decode object %d: %w", len(docs)+1, err)
		}
		docs = append(docs, d)
	}
}

func (p *parser) record(d document, row int) model.Record {
	number := firstNonEmpty(d.Number, d.RawNumberAlias)
	tribunal := model.Tribunal(d.Tribunal).Normalize()

	var movements []model.Movement
	for _, m := range d.Movements {
		if m.Code <= 0 {
			p.report.BadCodes++
			continue
		}
		movements = append(movements, model.Movement{Code: int(m.Code), At: p.date(m.At)})
	}
	for _, c := range d.CodesAlias {
		movements = append(movements, model.Movement{Code: c})
	}

	return model.Record{
		ID:               p.id(d.ID, row),
		RawProcessNumber: number,
		Tribunal:         tribunal,
		Tier:             model.ParseTier(firstNonEmpty(d.Grade, d.TierAlias), tribunal),
		Movements:        movements,
		JudgmentDate:     p.date(firstNonEmpty(d.JudgmentDate, d.DateAlias)),
	}
}

func peekNonSpace(br *bufio.Reader) (byte, error) {
	for {
		b, err := br.ReadByte()
		if err != nil {
			return 0, err
		}
		if b == ' ' || b == '\n' || b == '\r' || b == '\t' || b == 0xEF || b == 0xBB || b == 0xBF {
			continue
		}
		return b, br.UnreadByte()
	}
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v = strings.TrimSpace(v); v != "" {
			return v
		}
	}
	return ""
}
