package evaluate

import (
	"fmt"
	"sort"

	"github.com/ppiankov/casechain/internal/chain"
	"github.com/ppiankov/casechain/internal/model"
)

// signals generates the diagnostic signals of one strategy row
func signals(res *chain.Result, row model.StrategyEvaluation) []model.Signal {
	out := []model.Signal{
		coverageSignal(row),
		unresolvableSignal(row.Accounting),
	}
	if s, ok := crossCourtSignal(row); ok {
		out = append(out, s)
	}
	if s, ok := ambiguitySignal(row); ok {
		out = append(out, s)
	}
	if row.Approximate {
		out = append(out, model.Signal{
			Type:        model.SignalApproximate,
			Severity:    model.SeverityWarning,
			Description: "Approximate matching: chains may join unrelated cases",
			Data: map[string]interface{}{
				"strategy": row.Strategy,
				"chains":   row.ChainCount,
			},
		})
	}
	if s, ok := oversizedSignal(res.Oversized); ok {
		out = append(out, s)
	}
	if s, ok := taxonomyGapSignal(res.TaxonomyGaps); ok {
		out = append(out, s)
	}
	return out
}

func coverageSignal(row model.StrategyEvaluation) model.Signal {
	severity := model.SeverityInfo
	if row.ThreeTierCount == 0 {
		severity = model.SeverityCritical
	} else if row.CoverageRatio < 0.1 {
		severity = model.SeverityWarning
	}

	return model.Signal{
		Type:        model.SignalCoverage,
		Severity:    severity,
		Description: fmt.Sprintf("Three-tier coverage: %.2f (%d chains)", row.CoverageRatio, row.ThreeTierCount),
		Data: map[string]interface{}{
			"three_tier":      row.ThreeTierCount,
			"groups_per_tier": row.GroupsPerTier,
			"ratio":           row.CoverageRatio,
			"formula":         "three_tier_chains / min(groups_with_origin, groups_with_appellate, groups_with_superior)",
		},
	}
}

func unresolvableSignal(acc model.Accounting) model.Signal {
	ratio := 0.0
	if acc.Input > 0 {
		ratio = float64(acc.Unresolvable) / float64(acc.Input)
	}

	severity := model.SeverityInfo
	if ratio > 0.25 {
		severity = model.SeverityCritical
	} else if ratio > 0.05 {
		severity = model.SeverityWarning
	}

	return model.Signal{
		Type:        model.SignalUnresolvable,
		Severity:    severity,
		Description: fmt.Sprintf("Unresolvable identifiers: %d/%d (%.1f%%)", acc.Unresolvable, acc.Input, ratio*100),
		Data: map[string]interface{}{
			"unresolvable": acc.Unresolvable,
			"input":        acc.Input,
			"ratio":        ratio,
			"formula":      "unresolvable / input_records",
		},
	}
}

func crossCourtSignal(row model.StrategyEvaluation) (model.Signal, bool) {
	if row.CrossCourtMerges == 0 {
		return model.Signal{}, false
	}
	ratio := float64(row.CrossCourtMerges) / float64(row.ChainCount)

	severity := model.SeverityWarning
	if ratio > 0.2 {
		severity = model.SeverityCritical
	}

	return model.Signal{
		Type:        model.SignalCrossCourt,
		Severity:    severity,
		Description: fmt.Sprintf("Suspected false-positive merges: %d chains join same-tier records of different courts", row.CrossCourtMerges),
		Data: map[string]interface{}{
			"cross_court": row.CrossCourtMerges,
			"chains":      row.ChainCount,
			"ratio":       ratio,
			"formula":     "cross_court_chains / multi_tier_chains",
		},
	}, true
}

func ambiguitySignal(row model.StrategyEvaluation) (model.Signal, bool) {
	if row.AmbiguousChains == 0 {
		return model.Signal{}, false
	}
	return model.Signal{
		Type:        model.SignalAmbiguity,
		Severity:    model.SeverityWarning,
		Description: fmt.Sprintf("%d chains carry a tier with conflicting movement codes", row.AmbiguousChains),
		Data: map[string]interface{}{
			"ambiguous": row.AmbiguousChains,
			"chains":    row.ChainCount,
		},
	}, true
}

func oversizedSignal(oversized map[string]int) (model.Signal, bool) {
	if len(oversized) == 0 {
		return model.Signal{}, false
	}
	largest, size := "", 0
	for core, n := range oversized {
		if n > size || (n == size && core < largest) {
			largest, size = core, n
		}
	}
	return model.Signal{
		Type:        model.SignalOversizedGroup,
		Severity:    model.SeverityWarning,
		Description: fmt.Sprintf("%d cores group suspiciously many records (largest %s: %d)", len(oversized), largest, size),
		Data: map[string]interface{}{
			"groups":  len(oversized),
			"largest": largest,
			"size":    size,
		},
	}, true
}

func taxonomyGapSignal(gaps map[int]int) (model.Signal, bool) {
	if len(gaps) == 0 {
		return model.Signal{}, false
	}
	codes := make([]int, 0, len(gaps))
	records := 0
	for code, n := range gaps {
		codes = append(codes, code)
		records += n
	}
	sort.Ints(codes)
	return model.Signal{
		Type:        model.SignalTaxonomyGap,
		Severity:    model.SeverityInfo,
		Description: fmt.Sprintf("%d movement codes missing from the taxonomy", len(codes)),
		Data: map[string]interface{}{
			"codes":   codes,
			"records": records,
		},
	}, true
}
