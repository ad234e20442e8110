package features

import (
	"context"
	"math"
	"regexp"
	"sort"
	"strings"
)

// termPattern keeps runs of two or more word characters.
var termPattern = regexp.MustCompile(`[\p{L}\p{N}_]{2,}`)

// TFIDF weights raw term counts by smoothed inverse document frequency and
// L2-normalizes every row. The vocabulary is built from the fitted batch and
// sorted alphabetically; MinDF drops terms seen in fewer documents.
type TFIDF struct {
	MinDF int

	vocab map[string]int
	terms []string
	idf   []float64
}

// NewTFIDF returns a vectorizer that keeps every term (min_df = 1).
func NewTFIDF() *TFIDF { return &TFIDF{MinDF: 1} }

func (t *TFIDF) Name() string { return "tfidf" }

// Terms splits a document into lower-cased terms.
func Terms(doc string) []string {
	return termPattern.FindAllString(strings.ToLower(doc), -1)
}

// Fit builds the vocabulary and idf weights from docs.
func (t *TFIDF) Fit(docs []string) {
	df := make(map[string]int)
	for _, d := range docs {
		seen := make(map[string]struct{})
		for _, term := range Terms(d) {
			if _, ok := seen[term]; ok {
				continue
			}
			seen[term] = struct{}{}
			df[term]++
		}
	}
	minDF := t.MinDF
	if minDF < 1 {
		minDF = 1
	}
	terms := make([]string, 0, len(df))
	for term, n := range df {
		if n >= minDF {
			terms = append(terms, term)
		}
	}
	sort.Strings(terms)

	n := float64(len(docs))
	t.vocab = make(map[string]int, len(terms))
	t.terms = terms
	t.idf = make([]float64, len(terms))
	for i, term := range terms {
		t.vocab[term] = i
		t.idf[i] = math.Log((1+n)/(1+float64(df[term]))) + 1
	}
}

// Vocabulary returns the fitted column names.
func (t *TFIDF) Vocabulary() []string { return t.terms }

// Transform weights docs with the fitted vocabulary. Unknown terms are dropped.
func (t *TFIDF) Transform(docs []string) Matrix {
	rows := make([]Vector, len(docs))
	for i, d := range docs {
		counts := make(map[int]float64)
		for _, term := range Terms(d) {
			if j, ok := t.vocab[term]; ok {
				counts[j]++
			}
		}
		idx := make([]int, 0, len(counts))
		for j := range counts {
			idx = append(idx, j)
		}
		sort.Ints(idx)
		vals := make([]float64, len(idx))
		for k, j := range idx {
			vals[k] = counts[j] * t.idf[j]
		}
		normalizeL2(vals)
		rows[i] = Vector{Indices: idx, Values: vals}
	}
	return Matrix{Rows: rows, Dim: len(t.terms), Vocabulary: t.terms}
}

// FitTransform fits on docs and returns their weighted rows.
func (t *TFIDF) FitTransform(_ context.Context, docs []string) (Matrix, error) {
	t.Fit(docs)
	return t.Transform(docs), nil
}
