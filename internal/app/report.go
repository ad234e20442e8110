package app

import (
	"fmt"
	"sort"
	"strings"

	"github.com/hyperifyio/arxivsubj/internal/corpus"
)

type labelCount struct {
	Label string
	Count int
}

// subjectDistribution orders labels by descending count, then name.
func subjectDistribution(c corpus.Corpus) []labelCount {
	counts := c.LabelCounts()
	out := make([]labelCount, 0, len(counts))
	for l, n := range counts {
		out = append(out, labelCount{Label: l, Count: n})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Count != out[j].Count {
			return out[i].Count > out[j].Count
		}
		return out[i].Label < out[j].Label
	})
	return out
}

// summaryFacts are the headline key/value lines shared by the Markdown and
// PDF renderings.
func summaryFacts(res Result) [][2]string {
	facts := [][2]string{
		{"Listing", res.ListingURL},
		{"References", fmt.Sprintf("%d", res.References)},
		{"Records", fmt.Sprintf("%d (skipped %d)", res.Corpus.Len(), res.Corpus.Skips.Total())},
		{"Vectorizer", fmt.Sprintf("%s, %d features", res.Vectorizer, res.Features)},
		{"Classes", fmt.Sprintf("%d", len(res.Classes))},
		{"Support vectors", fmt.Sprintf("%d", res.SupportVectors)},
		{"Train accuracy", fmt.Sprintf("%.3f (n=%d)", res.TrainScore, res.TrainSize)},
	}
	if res.TestSize > 0 {
		facts = append(facts, [2]string{"Test accuracy", fmt.Sprintf("%.3f (n=%d)", res.TestScore, res.TestSize)})
	} else {
		facts = append(facts, [2]string{"Test accuracy", "n/a (no held-out records)"})
	}
	return facts
}

// renderSummary renders the run summary as Markdown.
func renderSummary(res Result) string {
	var b strings.Builder
	b.WriteString("# arXiv subject classification\n\n")
	for _, f := range summaryFacts(res) {
		fmt.Fprintf(&b, "- %s: %s\n", f[0], f[1])
	}
	fmt.Fprintf(&b, "- Generated: %s\n", res.GeneratedAt.Format("2006-01-02T15:04:05Z07:00"))

	b.WriteString("\n## Subjects\n\n| Subject | Abstracts |\n|---|---:|\n")
	for _, lc := range subjectDistribution(res.Corpus) {
		fmt.Fprintf(&b, "| %s | %d |\n", escapeCell(lc.Label), lc.Count)
	}

	if kinds := res.Corpus.Skips.Kinds(); len(kinds) > 0 {
		b.WriteString("\n## Skipped pages\n\n| Reason | Pages |\n|---|---:|\n")
		for _, k := range kinds {
			fmt.Fprintf(&b, "| %s | %d |\n", k.Describe(), res.Corpus.Skips[k])
		}
	}

	if len(res.Timings) > 0 {
		b.WriteString("\n## Timings\n\n| Stage | Elapsed |\n|---|---:|\n")
		for _, t := range res.Timings {
			fmt.Fprintf(&b, "| %s | %s |\n", t.Stage, t.Elapsed.Round(1e6))
		}
	}
	return b.String()
}

func escapeCell(s string) string {
	return strings.ReplaceAll(s, "|", `\|`)
}
