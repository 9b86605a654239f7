package taxonomy

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/ppiankov/casechain/internal/model"
)

// Kind says how a movement code participates in classification
type Kind string

const (
	KindMerits     Kind = "merits"     // Rules on the claim or the appeal
	KindClosing    Kind = "closing"    // Ends the instance without further merits review
	KindProcedural Kind = "procedural" // Never decides an outcome
)

// ErrInvalidEntry is returned when a table entry cannot be accepted
var ErrInvalidEntry = errors.New("invalid taxonomy entry")

// Entry describes one movement code
type Entry struct {
	Code         int
	Name         string
	Tiers        []model.Tier // Tiers the code is meaningful at
	Category     model.OutcomeCategory
	FavorsWorker *bool // Set only on origin rulings, where it must match Category
	Kind         Kind
}

// AppliesTo reports whether the code is meaningful at tier t.
// Records of unknown tier accept every code.
func (e Entry) AppliesTo(t model.Tier) bool {
	if !t.Placed() {
		return true
	}
	for _, tier := range e.Tiers {
		if tier == t {
			return true
		}
	}
	return false
}

// Decisive reports whether the code can decide a record's outcome
func (e Entry) Decisive() bool {
	return e.Kind == KindMerits || e.Kind == KindClosing
}

// Table is a frozen movement-code taxonomy. It has no mutation API;
// extending it means building a new table.
type Table struct {
	version string
	entries map[int]Entry
}

// NewTable validates entries and freezes them under version
func NewTable(version string, entries []Entry) (*Table, error) {
	if strings.TrimSpace(version) == "" {
		return nil, fmt.Errorf("%w: empty version", ErrInvalidEntry)
	}
	t := &Table{
		version: version,
		entries: make(map[int]Entry, len(entries)),
	}
	for _, e := range entries {
		if err := validate(e); err != nil {
			return nil, err
		}
		if _, dup := t.entries[e.Code]; dup {
			return nil, fmt.Errorf("%w: duplicate code %d", ErrInvalidEntry, e.Code)
		}
		e.Tiers = append([]model.Tier(nil), e.Tiers...)
		t.entries[e.Code] = e
	}
	return t, nil
}

func validate(e Entry) error {
	if e.Code <= 0 {
		return fmt.Errorf("%w: code %d", ErrInvalidEntry, e.Code)
	}
	switch e.Kind {
	case KindMerits, KindClosing:
		if !e.Category.Valid() || e.Category == model.OutcomeUnknown {
			return fmt.Errorf("%w: code %d has category %q", ErrInvalidEntry, e.Code, e.Category)
		}
		if len(e.Tiers) == 0 {
			return fmt.Errorf("%w: code %d applies to no tier", ErrInvalidEntry, e.Code)
		}
	case KindProcedural:
		if e.Category != "" && e.Category != model.OutcomeUnknown {
			return fmt.Errorf("%w: procedural code %d cannot carry category %q", ErrInvalidEntry, e.Code, e.Category)
		}
	default:
		return fmt.Errorf("%w: code %d has kind %q", ErrInvalidEntry, e.Code, e.Kind)
	}
	for _, t := range e.Tiers {
		if !t.Placed() {
			return fmt.Errorf("%w: code %d lists tier %s", ErrInvalidEntry, e.Code, t)
		}
	}
	if e.FavorsWorker != nil {
		want, ok := polarityOf(e.Category)
		if !ok {
			return fmt.Errorf("%w: code %d category %s carries no polarity", ErrInvalidEntry, e.Code, e.Category)
		}
		if *e.FavorsWorker != want {
			return fmt.Errorf("%w: code %d is %s but favors_worker is %t", ErrInvalidEntry, e.Code, e.Category, *e.FavorsWorker)
		}
	}
	return nil
}

// polarityOf reports whether a category favors the worker. Only origin
// rulings have a polarity of their own; an appeal result depends on who
// appealed.
func polarityOf(c model.OutcomeCategory) (favors bool, ok bool) {
	switch c {
	case model.OutcomeFavorableFirst:
		return true, true
	case model.OutcomeUnfavorableFirst:
		return false, true
	}
	return false, false
}

// Version identifies the table contents
func (t *Table) Version() string {
	return t.version
}

// Len returns the number of known codes
func (t *Table) Len() int {
	return len(t.entries)
}

// Lookup returns the entry for code. Unknown codes are not an error.
func (t *Table) Lookup(code int) (Entry, bool) {
	e, ok := t.entries[code]
	return e, ok
}

// Category returns the outcome category of code, UNKNOWN_OUTCOME for gaps
func (t *Table) Category(code int) model.OutcomeCategory {
	e, ok := t.entries[code]
	if !ok || e.Kind == KindProcedural {
		return model.OutcomeUnknown
	}
	return e.Category
}

// Entries returns a copy of every entry sorted by code
func (t *Table) Entries() []Entry {
	out := make([]Entry, 0, len(t.entries))
	for _, e := range t.entries {
		e.Tiers = append([]model.Tier(nil), e.Tiers...)
		out = append(out, e)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Code < out[j].Code })
	return out
}

// Gaps returns the codes in codes that the table does not know, deduplicated
// and in first-seen order
func (t *Table) Gaps(codes []int) []int {
	var gaps []int
	seen := make(map[int]bool)
	for _, c := range codes {
		if _, ok := t.entries[c]; ok || seen[c] {
			continue
		}
		seen[c] = true
		gaps = append(gaps, c)
	}
	return gaps
}
