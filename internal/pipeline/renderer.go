package pipeline

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"gopkg.in/yaml.v3"

	"github.com/ppiankov/casechain/internal/model"
	"github.com/ppiankov/casechain/internal/stats"
)

const rule = "═══════════════════════════════════════════════════════════"

// Renderer writes evaluations and reports as JSON, YAML, Markdown or text
type Renderer struct {
	printer *message.Printer
}

// NewRenderer creates a renderer with English number grouping
func NewRenderer() *Renderer {
	return &Renderer{printer: message.NewPrinter(language.English)}
}

// WriteJSON writes v as indented JSON
func (r *Renderer) WriteJSON(w io.Writer, v interface{}) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// WriteYAML writes v as YAML
func (r *Renderer) WriteYAML(w io.Writer, v interface{}) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(v); err != nil {
		return err
	}
	return enc.Close()
}

// RenderJSON writes v to path, or to stdout when path is "-"
func (r *Renderer) RenderJSON(v interface{}, path string) error {
	return r.toFile(path, func(w io.Writer) error { return r.WriteJSON(w, v) })
}

// RenderYAML writes v to path, or to stdout when path is "-"
func (r *Renderer) RenderYAML(v interface{}, path string) error {
	return r.toFile(path, func(w io.Writer) error { return r.WriteYAML(w, v) })
}

// RenderMarkdown writes the report as Markdown to path, or stdout when path is "-"
func (r *Renderer) RenderMarkdown(report *model.Report, path string) error {
	return r.toFile(path, func(w io.Writer) error { return r.WriteMarkdown(w, report) })
}

func (r *Renderer) toFile(path string, write func(io.Writer) error) (err error) {
	if path == "-" {
		return write(os.Stdout)
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("create output directory: %w", err)
		}
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	defer func() {
		if closeErr := f.Close(); closeErr != nil && err == nil {
			err = fmt.Errorf("close %s: %w", path, closeErr)
		}
	}()
	return write(f)
}

// WriteEvaluationTable prints the ranked strategy table
func (r *Renderer) WriteEvaluationTable(w io.Writer, eval *model.Evaluation) {
	p := r.printer
	p.Fprintf(w, "\n%s\n  Strategy Evaluation (%d records, taxonomy %s)\n%s\n\n", rule, eval.Records, eval.TaxonomyVersion, rule)
	p.Fprintf(w, "  %-4s %-16s %8s %8s %8s %8s %9s %8s %8s\n",
		"RANK", "STRATEGY", "CHAINS", "3-TIER", "HC-3T", "SINGLE", "COVERAGE", "XCOURT", "UNRES")
	for _, row := range eval.Strategies {
		name := row.Strategy
		if row.Approximate {
			name += "~"
		}
		p.Fprintf(w, "  %-4d %-16s %8d %8d %8d %8d %9.3f %8d %8d\n",
			row.Rank, name, row.ChainCount, row.ThreeTierCount, row.HighConfidenceThreeTier,
			row.SingleTierCount, row.CoverageRatio, row.CrossCourtMerges, row.Accounting.Unresolvable)
	}
	p.Fprintf(w, "\n  ~ approximate strategy, use for recall estimates only\n\n")

	for _, row := range eval.Strategies {
		for _, s := range row.Signals {
			if s.Severity == model.SeverityInfo {
				continue
			}
			p.Fprintf(w, "  [%s] %s: %s\n", s.Severity, row.Strategy, s.Description)
		}
	}
	p.Fprintf(w, "%s\n", rule)
}

// WriteSummary prints the boxed summary of an analyze report
func (r *Renderer) WriteSummary(w io.Writer, report *model.Report) {
	p := r.printer
	st := report.Statistics

	p.Fprintf(w, "\n%s\n  Case Chain Analysis\n%s\n\n", rule, rule)
	p.Fprintf(w, "  Source:            %s\n", report.Source)
	p.Fprintf(w, "  Strategy:          %s\n", report.Strategy)
	if st.Approximate {
		p.Fprintf(w, "  Warning:           approximate strategy, results are estimates\n")
	}
	p.Fprintf(w, "  Taxonomy:          %s\n", report.TaxonomyVersion)
	if ev := report.Evaluation; ev != nil {
		acc := ev.Accounting
		p.Fprintf(w, "  Records:           %d (%d in chains, %d single-tier, %d unresolvable)\n",
			acc.Input, acc.Members, acc.SingleTierOnly, acc.Unresolvable)
		p.Fprintf(w, "  Chains:            %d multi-tier, %d three-tier\n", ev.ChainCount, ev.ThreeTierCount)
	}
	p.Fprintf(w, "\n")
	p.Fprintf(w, "  Worker wins:       %d\n", st.Verdicts[model.VerdictWorkerWins])
	p.Fprintf(w, "  Worker loses:      %d\n", st.Verdicts[model.VerdictWorkerLoses])
	p.Fprintf(w, "  Undetermined:      %d\n", st.Verdicts[model.VerdictUndetermined])
	p.Fprintf(w, "  Excluded:          %d (+%d cross-court)\n", st.Excluded, st.CrossCourtExcluded)
	p.Fprintf(w, "  Worker success:    %.1f%% of decided, %.1f%% of all\n", st.WorkerSuccessRate*100, st.WorkerSuccessAll*100)
	p.Fprintf(w, "  Reversals:         %d\n", st.Reversals)
	if len(st.TaxonomyGaps) > 0 {
		p.Fprintf(w, "  Unknown codes:     %d distinct\n", len(st.TaxonomyGaps))
	}
	p.Fprintf(w, "\n%s\n", rule)
}

// WriteMarkdown renders the report as a Markdown document
func (r *Renderer) WriteMarkdown(w io.Writer, report *model.Report) error {
	p := r.printer
	st := report.Statistics
	var b strings.Builder

	b.WriteString("# Case Chain Analysis\n\n")
	b.WriteString(p.Sprintf("- Source: `%s`\n", report.Source))
	b.WriteString(p.Sprintf("- Strategy: `%s`\n", report.Strategy))
	b.WriteString(p.Sprintf("- Taxonomy: `%s`\n", report.TaxonomyVersion))
	b.WriteString(p.Sprintf("- Generated: %s\n", report.GeneratedAt.Format("2006-01-02 15:04:05 UTC")))
	if st.Approximate {
		b.WriteString("\n> Chains were built with an approximate strategy. Treat every figure as an estimate.\n")
	}

	if ev := report.Evaluation; ev != nil {
		b.WriteString("\n## Record Accounting\n\n| Bucket | Records |\n|---|---:|\n")
		b.WriteString(p.Sprintf("| Input | %d |\n| In multi-tier chains | %d |\n| Single-tier only | %d |\n| Unresolvable | %d |\n",
			ev.Accounting.Input, ev.Accounting.Members, ev.Accounting.SingleTierOnly, ev.Accounting.Unresolvable))
		if len(ev.Signals) > 0 {
			b.WriteString("\n## Signals\n\n")
			for _, s := range ev.Signals {
				b.WriteString(p.Sprintf("- **%s** `%s`: %s\n", s.Severity, s.Type, s.Description))
			}
		}
	}

	b.WriteString("\n## Verdicts\n\n| Verdict | Chains |\n|---|---:|\n")
	for _, v := range []model.Verdict{model.VerdictWorkerWins, model.VerdictWorkerLoses, model.VerdictUndetermined} {
		b.WriteString(p.Sprintf("| %s | %d |\n", v, st.Verdicts[v]))
	}
	b.WriteString(p.Sprintf("\nWorker success rate: **%.1f%%** of decided chains, %.1f%% of all counted chains (excluded: %d, cross-court: %d)\n",
		st.WorkerSuccessRate*100, st.WorkerSuccessAll*100, st.Excluded, st.CrossCourtExcluded))

	if len(st.Appeals) > 0 {
		b.WriteString("\n## Appeal Success\n\n| Tier / Appellant | Success | Partial | Failure | Rate |\n|---|---:|---:|---:|---:|\n")
		for _, key := range sortedKeys(st.Appeals) {
			c := st.Appeals[key]
			b.WriteString(p.Sprintf("| %s | %d | %d | %d | %.1f%% |\n", key, c.Success, c.Partial, c.Failure, c.Rate*100))
		}
	}

	if len(st.ByTribunal) > 0 {
		b.WriteString("\n## Appeal Success by Tribunal\n\n| Tribunal | Appellant | Success | Total | Rate |\n|---|---|---:|---:|---:|\n")
		tribunals := make([]string, 0, len(st.ByTribunal))
		for t := range st.ByTribunal {
			tribunals = append(tribunals, string(t))
		}
		sort.Strings(tribunals)
		for _, t := range tribunals {
			byParty := st.ByTribunal[model.Tribunal(t)]
			for _, a := range []model.Appellant{model.AppellantWorker, model.AppellantEmployer} {
				if c, ok := byParty[a]; ok {
					b.WriteString(p.Sprintf("| %s | %s | %d | %d | %.1f%% |\n", t, a, c.Success, c.Total, c.Rate*100))
				}
			}
		}
	}

	if len(st.FlowPatterns) > 0 {
		b.WriteString("\n## Flow Patterns\n\n| Pattern | Chains |\n|---|---:|\n")
		for _, pattern := range topPatterns(st.FlowPatterns, 20) {
			b.WriteString(p.Sprintf("| %s | %d |\n", pattern, st.FlowPatterns[pattern]))
		}
	}

	if len(st.TaxonomyGaps) > 0 {
		codes := make([]int, 0, len(st.TaxonomyGaps))
		for code := range st.TaxonomyGaps {
			codes = append(codes, code)
		}
		sort.Ints(codes)
		b.WriteString("\n## Unknown Movement Codes\n\n| Code | Records |\n|---:|---:|\n")
		for _, code := range codes {
			b.WriteString(p.Sprintf("| %d | %d |\n", code, st.TaxonomyGaps[code]))
		}
	}

	examples := 0
	for _, vr := range report.Verdicts {
		if examples == 10 {
			break
		}
		if vr.FinalVerdict == model.VerdictUndetermined {
			continue
		}
		if examples == 0 {
			b.WriteString("\n## Example Chains\n\n")
		}
		examples++
		b.WriteString(p.Sprintf("- `%s` %s → **%s**\n", vr.CaseCore, stats.FlowPattern(vr), vr.FinalVerdict))
	}

	_, err := io.WriteString(w, b.String())
	return err
}

func sortedKeys(m map[string]*model.RateCounter) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// topPatterns returns the n most frequent patterns, ties broken by name
func topPatterns(counts map[string]int, n int) []string {
	patterns := make([]string, 0, len(counts))
	for p := range counts {
		patterns = append(patterns, p)
	}
	sort.Slice(patterns, func(i, j int) bool {
		if counts[patterns[i]] != counts[patterns[j]] {
			return counts[patterns[i]] > counts[patterns[j]]
		}
		return patterns[i] < patterns[j]
	})
	if len(patterns) > n {
		patterns = patterns[:n]
	}
	return patterns
}
