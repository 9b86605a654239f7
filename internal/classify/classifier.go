package classify

import (
	"errors"
	"fmt"
	"time"

	"github.com/ppiankov/casechain/internal/model"
	"github.com/ppiankov/casechain/internal/taxonomy"
)

// ErrAmbiguous marks conflicting merits codes that cannot be ordered
var ErrAmbiguous = errors.New("ambiguous classification")

// Classification is the outcome of one record (or one collapsed tier)
// together with the evidence that produced it
type Classification struct {
	Category     model.OutcomeCategory
	Code         int   // Deciding movement code, 0 when nothing decided
	Ambiguous    bool  // Merits codes conflicted and nothing ordered them
	Conflicting  []int // Codes involved in an unresolved conflict
	UnknownCodes []int // Codes missing from the taxonomy, first-seen order
	Inapplicable []int // Known codes that do not apply at the record's tier
}

// Err returns ErrAmbiguous wrapped with the conflicting codes, or nil
func (c Classification) Err() error {
	if !c.Ambiguous {
		return nil
	}
	return fmt.Errorf("%w: codes %v", ErrAmbiguous, c.Conflicting)
}

// Classifier maps movement histories to outcome categories against a frozen taxonomy
type Classifier struct {
	table *taxonomy.Table
}

// New creates a classifier; a nil table selects the built-in taxonomy
func New(table *taxonomy.Table) *Classifier {
	if table == nil {
		table = taxonomy.Default()
	}
	return &Classifier{table: table}
}

// Table returns the taxonomy in use
func (c *Classifier) Table() *taxonomy.Table {
	return c.table
}

// Classify returns the single outcome category of bare movement codes
func (c *Classifier) Classify(tier model.Tier, codes []int) model.OutcomeCategory {
	return c.ClassifyMovements(tier, model.MovementsFromCodes(codes...)).Category
}

type decisive struct {
	entry  taxonomy.Entry
	at     *time.Time
	source int // Index of the history the movement came from
}

// ClassifyMovements classifies one record's history. Its order is the
// source's chronological order.
func (c *Classifier) ClassifyMovements(tier model.Tier, movements []model.Movement) Classification {
	return c.ClassifyHistories(tier, movements)
}

// ClassifyHistories applies the tie-break rule to the merged histories of
// records at one tier:
//
//  1. procedural, unknown and tier-inapplicable codes never decide
//  2. a closing code that is the last decisive movement wins
//  3. otherwise the merits codes after the last closing code decide when
//     they agree on one category
//  4. disagreeing merits codes are settled by date when every one is dated,
//     else by position when they all come from one history. Equal latest
//     dates, or undated codes spread over several histories, leave the
//     record UNKNOWN_OUTCOME and ambiguous.
func (c *Classifier) ClassifyHistories(tier model.Tier, histories ...[]model.Movement) Classification {
	result := Classification{Category: model.OutcomeUnknown}

	var steps []decisive
	seenUnknown := make(map[int]bool)
	seenInapplicable := make(map[int]bool)
	for source, movements := range histories {
		for _, m := range movements {
			e, ok := c.table.Lookup(m.Code)
			switch {
			case !ok:
				if !seenUnknown[m.Code] {
					seenUnknown[m.Code] = true
					result.UnknownCodes = append(result.UnknownCodes, m.Code)
				}
			case !e.Decisive():
			case !e.AppliesTo(tier):
				if !seenInapplicable[m.Code] {
					seenInapplicable[m.Code] = true
					result.Inapplicable = append(result.Inapplicable, m.Code)
				}
			default:
				steps = append(steps, decisive{entry: e, at: m.At, source: source})
			}
		}
	}

	if len(steps) == 0 {
		return result
	}

	last := steps[len(steps)-1]
	if last.entry.Kind == taxonomy.KindClosing {
		result.Category = last.entry.Category
		result.Code = last.entry.Code
		return result
	}

	start := 0
	for i := len(steps) - 1; i >= 0; i-- {
		if steps[i].entry.Kind == taxonomy.KindClosing {
			start = i + 1
			break
		}
	}
	merits := steps[start:]

	if winner, ok := agreed(merits); ok {
		result.Category = winner.entry.Category
		result.Code = winner.entry.Code
		return result
	}
	if winner, ok := settle(merits); ok {
		result.Category = winner.entry.Category
		result.Code = winner.entry.Code
		return result
	}

	result.Ambiguous = true
	seen := make(map[int]bool)
	for _, s := range merits {
		if !seen[s.entry.Code] {
			seen[s.entry.Code] = true
			result.Conflicting = append(result.Conflicting, s.entry.Code)
		}
	}
	return result
}

// agreed returns the last step when every step shares one category
func agreed(steps []decisive) (decisive, bool) {
	for _, s := range steps[1:] {
		if s.entry.Category != steps[0].entry.Category {
			return decisive{}, false
		}
	}
	return steps[len(steps)-1], true
}

// settle orders disagreeing merits steps and returns the last one
func settle(steps []decisive) (decisive, bool) {
	dated := true
	single := true
	for _, s := range steps {
		if s.at == nil {
			dated = false
		}
		if s.source != steps[0].source {
			single = false
		}
	}
	switch {
	case dated:
		return latest(steps)
	case single:
		return steps[len(steps)-1], true
	}
	return decisive{}, false
}

// latest returns the dated step strictly later than every step of a
// different category
func latest(steps []decisive) (decisive, bool) {
	best := steps[0]
	for _, s := range steps[1:] {
		if !s.at.Before(*best.at) {
			best = s
		}
	}
	for _, s := range steps {
		if s.entry.Category != best.entry.Category && !s.at.Before(*best.at) {
			return decisive{}, false
		}
	}
	return best, true
}
