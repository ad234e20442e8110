// Package corpus holds the positionally aligned (url, label, abstract)
// sequences collected over a scrape, plus counts of skipped pages.
package corpus

import (
	"fmt"
	"sort"

	"github.com/hyperifyio/arxivsubj/internal/extract"
)

// SkipKind names why a page produced no record.
type SkipKind string

const (
	SkipRetrieval        SkipKind = "retrieval"
	SkipRobots           SkipKind = "robots"
	SkipLabelNotFound    SkipKind = "label_not_found"
	SkipAbstractNotFound SkipKind = "abstract_not_found"
	SkipDecode           SkipKind = "decode"
	SkipOther            SkipKind = "other"
)

// Describe returns the human readable reason used in summaries.
func (k SkipKind) Describe() string {
	switch k {
	case SkipRetrieval:
		return "retrieval failed"
	case SkipRobots:
		return "disallowed by robots.txt"
	case SkipLabelNotFound:
		return "no primary subject found"
	case SkipAbstractNotFound:
		return "no abstract found"
	case SkipDecode:
		return "undecodable bytes"
	default:
		return "other error"
	}
}

// SkipStats counts skipped pages per kind.
type SkipStats map[SkipKind]int

// Total returns the number of skipped pages.
func (s SkipStats) Total() int {
	n := 0
	for _, v := range s {
		n += v
	}
	return n
}

// Kinds returns the kinds with a non-zero count in a stable order.
func (s SkipStats) Kinds() []SkipKind {
	out := make([]SkipKind, 0, len(s))
	for k, v := range s {
		if v > 0 {
			out = append(out, k)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// Corpus accumulates complete records. URLs[i], Labels[i] and Texts[i]
// always describe the same page.
type Corpus struct {
	URLs   []string
	Labels []string
	Texts  []string
	Skips  SkipStats
}

// New returns an empty corpus.
func New() Corpus {
	return Corpus{Skips: SkipStats{}}
}

// Reset returns a fresh empty corpus; the receiver is left untouched.
func (c Corpus) Reset() Corpus {
	return New()
}

// Len is the number of complete records.
func (c Corpus) Len() int { return len(c.Labels) }

// Add appends one complete record.
func (c *Corpus) Add(url string, rec extract.AbstractRecord) {
	c.URLs = append(c.URLs, url)
	c.Labels = append(c.Labels, rec.Label)
	c.Texts = append(c.Texts, rec.Text)
}

// Skip records a page that produced no record.
func (c *Corpus) Skip(kind SkipKind) {
	if c.Skips == nil {
		c.Skips = SkipStats{}
	}
	c.Skips[kind]++
}

// Validate checks that the three sequences are aligned.
func (c Corpus) Validate() error {
	if len(c.Labels) != len(c.Texts) || len(c.Labels) != len(c.URLs) {
		return fmt.Errorf("corpus misaligned: %d urls, %d labels, %d texts", len(c.URLs), len(c.Labels), len(c.Texts))
	}
	return nil
}

// LabelCounts returns how many records carry each label.
func (c Corpus) LabelCounts() map[string]int {
	out := make(map[string]int)
	for _, l := range c.Labels {
		out[l]++
	}
	return out
}
