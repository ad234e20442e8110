package svm

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"github.com/rs/zerolog/log"

	"github.com/hyperifyio/arxivsubj/internal/features"
)

var (
	// ErrShape reports misaligned inputs, such as a label count that differs
	// from the row count.
	ErrShape = errors.New("svm: shape mismatch")
	// ErrNoSamples is returned when training on an empty matrix.
	ErrNoSamples = errors.New("svm: no training samples")
)

// Params configures training. Zero fields take the defaults of
// DefaultParams; Gamma <= 0 means 1/n_features.
type Params struct {
	C       float64
	Gamma   float64
	Tol     float64
	MaxIter int
}

// DefaultParams returns C = 1e6 with gamma derived from the feature count.
func DefaultParams() Params {
	return Params{C: 1e6, Tol: 1e-3}
}

func (p Params) withDefaults(dim, n int) Params {
	d := DefaultParams()
	if p.C <= 0 {
		p.C = d.C
	}
	if p.Tol <= 0 {
		p.Tol = d.Tol
	}
	if p.Gamma <= 0 {
		p.Gamma = 1
		if dim > 0 {
			p.Gamma = 1 / float64(dim)
		}
	}
	if p.MaxIter <= 0 {
		p.MaxIter = 10_000_000
		if 100*n > p.MaxIter {
			p.MaxIter = 100 * n
		}
	}
	return p
}

// machine separates Classes[pos] (positive decision) from Classes[neg].
type machine struct {
	pos, neg int
	sv       []features.Vector
	svNorm   []float64
	coef     []float64
	rho      float64
}

func (m machine) decision(k RBF, x features.Vector, xNorm float64) float64 {
	var sum float64
	for i, s := range m.sv {
		sum += m.coef[i] * k.Eval(s.Dot(x), m.svNorm[i], xNorm)
	}
	return sum - m.rho
}

// Model is a trained one-vs-one ensemble.
type Model struct {
	Classes []string
	Gamma   float64
	C       float64

	kernel   RBF
	machines []machine
}

// Train fits one binary machine per pair of distinct labels. Labels are
// ordered lexically; a single distinct label yields a model that always
// predicts it.
func Train(ctx context.Context, x features.Matrix, labels []string, p Params) (*Model, error) {
	if x.Len() != len(labels) {
		return nil, fmt.Errorf("%w: %d rows, %d labels", ErrShape, x.Len(), len(labels))
	}
	if x.Len() == 0 {
		return nil, ErrNoSamples
	}
	p = p.withDefaults(x.Dim, x.Len())

	classes, byClass := groupByClass(labels)
	m := &Model{Classes: classes, Gamma: p.Gamma, C: p.C, kernel: RBF{Gamma: p.Gamma}}
	if len(classes) == 1 {
		log.Warn().Str("class", classes[0]).Msg("single class in training data")
		return m, nil
	}

	norms := squaredNorms(x.Rows)
	k := gram(m.kernel, x.Rows, norms)
	for a := 0; a < len(classes); a++ {
		for b := a + 1; b < len(classes); b++ {
			sub := append(append([]int(nil), byClass[a]...), byClass[b]...)
			y := make([]float64, len(sub))
			for i := range y {
				if i < len(byClass[a]) {
					y[i] = 1
				} else {
					y[i] = -1
				}
			}
			sol, err := solve(ctx, k, sub, y, p.C, p.Tol, p.MaxIter)
			if err != nil {
				return nil, err
			}
			if sol.iters >= p.MaxIter {
				log.Warn().Str("pos", classes[a]).Str("neg", classes[b]).Int("iterations", sol.iters).Msg("solver hit iteration limit")
			}
			mc := machine{pos: a, neg: b, rho: sol.rho}
			for i, al := range sol.alpha {
				if al <= 0 {
					continue
				}
				mc.sv = append(mc.sv, x.Rows[sub[i]])
				mc.svNorm = append(mc.svNorm, norms[sub[i]])
				mc.coef = append(mc.coef, al*y[i])
			}
			log.Debug().Str("pos", classes[a]).Str("neg", classes[b]).Int("support_vectors", len(mc.sv)).Int("iterations", sol.iters).Msg("trained pair")
			m.machines = append(m.machines, mc)
		}
	}
	return m, nil
}

func groupByClass(labels []string) ([]string, [][]int) {
	seen := make(map[string]struct{})
	var classes []string
	for _, l := range labels {
		if _, ok := seen[l]; !ok {
			seen[l] = struct{}{}
			classes = append(classes, l)
		}
	}
	sort.Strings(classes)
	index := make(map[string]int, len(classes))
	for i, c := range classes {
		index[c] = i
	}
	byClass := make([][]int, len(classes))
	for i, l := range labels {
		c := index[l]
		byClass[c] = append(byClass[c], i)
	}
	return classes, byClass
}

// SupportVectors sums support vectors over all binary machines.
func (m *Model) SupportVectors() int {
	n := 0
	for _, mc := range m.machines {
		n += len(mc.sv)
	}
	return n
}

// PredictOne returns the label with the most pairwise votes. Ties go to the
// lexically smaller label.
func (m *Model) PredictOne(x features.Vector) string {
	if len(m.Classes) == 1 {
		return m.Classes[0]
	}
	votes := make([]int, len(m.Classes))
	xn := x.SquaredNorm()
	for _, mc := range m.machines {
		if mc.decision(m.kernel, x, xn) > 0 {
			votes[mc.pos]++
		} else {
			votes[mc.neg]++
		}
	}
	best := 0
	for c := 1; c < len(votes); c++ {
		if votes[c] > votes[best] {
			best = c
		}
	}
	return m.Classes[best]
}

// Predict labels every row of x.
func (m *Model) Predict(x features.Matrix) []string {
	out := make([]string, x.Len())
	for i, r := range x.Rows {
		out[i] = m.PredictOne(r)
	}
	return out
}

// Score returns the fraction of rows whose prediction equals the label.
func (m *Model) Score(x features.Matrix, labels []string) (float64, error) {
	if x.Len() != len(labels) {
		return 0, fmt.Errorf("%w: %d rows, %d labels", ErrShape, x.Len(), len(labels))
	}
	return Accuracy(labels, m.Predict(x)), nil
}

// Accuracy is the share of positions where want and got agree. Empty input
// scores 0.
func Accuracy(want, got []string) float64 {
	if len(want) == 0 || len(want) != len(got) {
		return 0
	}
	hit := 0
	for i := range want {
		if want[i] == got[i] {
			hit++
		}
	}
	return float64(hit) / float64(len(want))
}
