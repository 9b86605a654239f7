package chain

import (
	"sort"
	"time"

	"github.com/ppiankov/casechain/internal/canon"
	"github.com/ppiankov/casechain/internal/model"
)

// assemble orders one group by tier precedence and date, then collapses
// each placed tier to a single classified entry
func (b *Builder) assemble(core string, strategy canon.Strategy, members []model.Record, gaps map[int]int) model.Chain {
	sort.SliceStable(members, func(i, j int) bool {
		ri, rj := members[i].Tier.Rank(), members[j].Tier.Rank()
		if ri != rj {
			return ri < rj
		}
		if d := compareDates(members[i].JudgmentDate, members[j].JudgmentDate); d != 0 {
			return d < 0
		}
		return members[i].ID < members[j].ID
	})

	chain := model.Chain{
		Core:        core,
		Strategy:    string(strategy),
		Approximate: strategy.Approximate(),
		RecordIDs:   make([]string, 0, len(members)),
	}

	byTier := make(map[model.Tier][]model.Record)
	for _, r := range members {
		chain.RecordIDs = append(chain.RecordIDs, r.ID)
		for _, code := range b.classifier.Table().Gaps(r.MovementCodes()) {
			gaps[code]++
		}
		if !r.Tier.Placed() {
			chain.Unplaced = append(chain.Unplaced, b.collapse(model.TierUnknown, []model.Record{r}))
			continue
		}
		byTier[r.Tier] = append(byTier[r.Tier], r)
	}

	for _, tier := range model.PlacedTiers {
		records, ok := byTier[tier]
		if !ok {
			if tier == model.TierOrigin && b.expandEmbedded {
				if entry, found := b.embeddedOrigin(members); found {
					chain.Entries = append(chain.Entries, entry)
				}
			}
			continue
		}
		entry := b.collapse(tier, records)
		if len(entry.Tribunals) > 1 {
			chain.CrossCourtMerge = true
		}
		chain.Entries = append(chain.Entries, entry)
	}

	return chain
}

// collapse merges same-tier records into one entry by classifying their
// histories together. Undated movements take their record's judgment date
// so that later judgments outrank earlier ones.
func (b *Builder) collapse(tier model.Tier, records []model.Record) model.ChainEntry {
	entry := model.ChainEntry{Tier: tier}

	histories := make([][]model.Movement, 0, len(records))
	seenTribunal := make(map[model.Tribunal]bool)
	for _, r := range records {
		entry.RecordIDs = append(entry.RecordIDs, r.ID)
		if tr := r.Tribunal.Normalize(); tr != "" && !seenTribunal[tr] {
			seenTribunal[tr] = true
			entry.Tribunals = append(entry.Tribunals, tr)
		}
		if r.JudgmentDate != nil && (entry.Date == nil || r.JudgmentDate.Before(*entry.Date)) {
			d := *r.JudgmentDate
			entry.Date = &d
		}
		movements := make([]model.Movement, 0, len(r.Movements))
		for _, m := range r.Movements {
			if m.At == nil && len(records) > 1 {
				m.At = r.JudgmentDate
			}
			movements = append(movements, m)
		}
		histories = append(histories, movements)
	}
	sort.Slice(entry.Tribunals, func(i, j int) bool { return entry.Tribunals[i] < entry.Tribunals[j] })

	cls := b.classifier.ClassifyHistories(tier, histories...)
	entry.Category = cls.Category
	entry.Ambiguous = cls.Ambiguous
	return entry
}

// embeddedOrigin looks for first-instance merits codes carried in the
// history of higher-tier records
func (b *Builder) embeddedOrigin(members []model.Record) (model.ChainEntry, bool) {
	var histories [][]model.Movement
	var ids []string
	for _, r := range members {
		if r.Tier != model.TierAppellate && r.Tier != model.TierSuperior {
			continue
		}
		var movements []model.Movement
		for _, m := range r.Movements {
			e, ok := b.classifier.Table().Lookup(m.Code)
			if !ok || !e.Category.IsOriginRuling() {
				continue
			}
			if m.At == nil {
				m.At = r.JudgmentDate
			}
			movements = append(movements, m)
		}
		if len(movements) > 0 {
			ids = append(ids, r.ID)
			histories = append(histories, movements)
		}
	}
	if len(histories) == 0 {
		return model.ChainEntry{}, false
	}

	cls := b.classifier.ClassifyHistories(model.TierOrigin, histories...)
	return model.ChainEntry{
		Tier:      model.TierOrigin,
		Category:  cls.Category,
		Ambiguous: cls.Ambiguous,
		RecordIDs: ids,
		Embedded:  true,
	}, true
}

// compareDates orders dated before undated
func compareDates(a, b *time.Time) int {
	switch {
	case a == nil && b == nil:
		return 0
	case a == nil:
		return 1
	case b == nil:
		return -1
	case a.Before(*b):
		return -1
	case a.After(*b):
		return 1
	}
	return 0
}
