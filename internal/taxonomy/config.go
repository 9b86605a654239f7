package taxonomy

import (
	"fmt"
	"strings"

	"github.com/ppiankov/casechain/internal/model"
)

// FromConfig builds the built-in table extended by cfg.ExtraCodes.
// An extra code replaces the built-in entry with the same code.
func FromConfig(cfg model.TaxonomyConfig) (*Table, error) {
	if len(cfg.ExtraCodes) == 0 && cfg.Version == "" {
		return Default(), nil
	}

	byCode := make(map[int]Entry)
	order := make([]int, 0)
	for _, e := range DefaultEntries() {
		byCode[e.Code] = e
		order = append(order, e.Code)
	}
	for _, raw := range cfg.ExtraCodes {
		e, err := ParseEntry(raw)
		if err != nil {
			return nil, err
		}
		if _, ok := byCode[e.Code]; !ok {
			order = append(order, e.Code)
		}
		byCode[e.Code] = e
	}

	entries := make([]Entry, 0, len(order))
	for _, code := range order {
		entries = append(entries, byCode[code])
	}

	version := cfg.Version
	if version == "" {
		version = DefaultVersion + "+local"
	}
	return NewTable(version, entries)
}

// ParseEntry converts the config form of a movement code
func ParseEntry(raw model.TaxonomyEntry) (Entry, error) {
	e := Entry{
		Code:         raw.Code,
		Name:         raw.Name,
		Category:     model.OutcomeCategory(strings.ToUpper(strings.TrimSpace(raw.Category))),
		FavorsWorker: raw.FavorsWorker,
		Kind:         Kind(strings.ToLower(strings.TrimSpace(raw.Kind))),
	}
	if e.Kind == "" {
		e.Kind = KindMerits
	}
	for _, name := range raw.Tiers {
		tier := model.ParseTier(name, "")
		if !tier.Placed() {
			return Entry{}, fmt.Errorf("%w: code %d lists tier %q", ErrInvalidEntry, raw.Code, name)
		}
		e.Tiers = append(e.Tiers, tier)
	}
	if len(e.Tiers) == 0 {
		e.Tiers = append([]model.Tier(nil), anyPlace...)
	}
	if favors, ok := polarityOf(e.Category); ok && e.FavorsWorker == nil {
		e.FavorsWorker = &favors
	}
	if err := validate(e); err != nil {
		return Entry{}, err
	}
	return e, nil
}

// ConfigEntry renders e in its config form
func (e Entry) ConfigEntry() model.TaxonomyEntry {
	tiers := make([]string, len(e.Tiers))
	for i, t := range e.Tiers {
		tiers[i] = t.String()
	}
	return model.TaxonomyEntry{
		Code:         e.Code,
		Name:         e.Name,
		Tiers:        tiers,
		Category:     string(e.Category),
		FavorsWorker: e.FavorsWorker,
		Kind:         string(e.Kind),
	}
}

// Export renders the whole table in config form, e.g. for `casechain taxonomy`
func (t *Table) Export() model.TaxonomyConfig {
	entries := t.Entries()
	out := model.TaxonomyConfig{
		Version:    t.version,
		ExtraCodes: make([]model.TaxonomyEntry, len(entries)),
	}
	for i, e := range entries {
		out.ExtraCodes[i] = e.ConfigEntry()
	}
	return out
}
