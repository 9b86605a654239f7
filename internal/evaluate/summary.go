package evaluate

import (
	"fmt"
	"sort"

	"github.com/ppiankov/casechain/internal/chain"
	"github.com/ppiankov/casechain/internal/model"
)

// Summarize turns one strategy's chains into a comparison row
func Summarize(res *chain.Result) model.StrategyEvaluation {
	row := model.StrategyEvaluation{
		Strategy:          string(res.Strategy),
		Approximate:       res.Approximate,
		TierPatternCounts: make(map[string]int),
		TierPairCounts:    make(map[string]int),
		GroupsPerTier:     make(map[string]int),
		Accounting:        res.Accounting,
	}
	for _, tier := range model.PlacedTiers {
		row.GroupsPerTier[tier.String()] = 0
	}

	for i := range res.Chains {
		c := &res.Chains[i]
		for _, tier := range c.Tiers() {
			row.GroupsPerTier[tier.String()]++
		}
		if !c.MultiTier() {
			row.SingleTierCount++
			continue
		}

		row.ChainCount++
		row.TierPatternCounts[c.Pattern()]++
		tiers := c.Tiers()
		for a := 0; a < len(tiers); a++ {
			for b := a + 1; b < len(tiers); b++ {
				row.TierPairCounts[model.TierPattern([]model.Tier{tiers[a], tiers[b]})]++
			}
		}

		threeTier := len(tiers) == len(model.PlacedTiers)
		if threeTier {
			row.ThreeTierCount++
		}
		if c.CrossCourtMerge {
			row.CrossCourtMerges++
		}
		if c.Ambiguous() {
			row.AmbiguousChains++
		}
		if c.HighConfidence() {
			row.HighConfidenceCount++
			if threeTier {
				row.HighConfidenceThreeTier++
			}
		}
	}

	row.CoverageRatio = coverage(row.ThreeTierCount, row.GroupsPerTier)
	row.Signals = signals(res, row)
	return row
}

// coverage is three-tier chains over the theoretical maximum, which is
// bounded by the scarcest tier
func coverage(threeTier int, groups map[string]int) float64 {
	max := -1
	for _, tier := range model.PlacedTiers {
		if n := groups[tier.String()]; max < 0 || n < max {
			max = n
		}
	}
	if max <= 0 {
		return 0
	}
	return float64(threeTier) / float64(max)
}

// Rank orders rows best first and assigns 1-based ranks: more high-confidence
// three-tier chains, then higher coverage, then fewer cross-court merges,
// then strategy name.
func Rank(rows []model.StrategyEvaluation) {
	sort.SliceStable(rows, func(i, j int) bool {
		a, b := rows[i], rows[j]
		if a.HighConfidenceThreeTier != b.HighConfidenceThreeTier {
			return a.HighConfidenceThreeTier > b.HighConfidenceThreeTier
		}
		if a.CoverageRatio != b.CoverageRatio {
			return a.CoverageRatio > b.CoverageRatio
		}
		if a.CrossCourtMerges != b.CrossCourtMerges {
			return a.CrossCourtMerges < b.CrossCourtMerges
		}
		return a.Strategy < b.Strategy
	})
	for i := range rows {
		rows[i].Rank = i + 1
	}
}

// Describe renders a one-line summary of a row for logs and tables
func Describe(row model.StrategyEvaluation) string {
	return fmt.Sprintf("%s: %d chains, %d three-tier (%d high confidence), coverage %.2f, %d cross-court",
		row.Strategy, row.ChainCount, row.ThreeTierCount, row.HighConfidenceThreeTier, row.CoverageRatio, row.CrossCourtMerges)
}
