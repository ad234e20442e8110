// Package svm trains a C-support-vector classifier with an RBF kernel and
// combines binary machines one-vs-one for multi-class labels.
package svm

import (
	"math"

	"gonum.org/v1/gonum/mat"

	"github.com/hyperifyio/arxivsubj/internal/features"
)

// RBF is the Gaussian kernel exp(-Gamma*||a-b||^2).
type RBF struct {
	Gamma float64
}

// Eval computes the kernel from the inner product and squared norms of two
// rows, so sparse rows never need densifying.
func (k RBF) Eval(dot, normA, normB float64) float64 {
	d := normA + normB - 2*dot
	if d < 0 {
		d = 0
	}
	return math.Exp(-k.Gamma * d)
}

// Between evaluates the kernel on two rows.
func (k RBF) Between(a, b features.Vector) float64 {
	return k.Eval(a.Dot(b), a.SquaredNorm(), b.SquaredNorm())
}

// gram computes the symmetric kernel matrix over rows.
func gram(k RBF, rows []features.Vector, norms []float64) *mat.SymDense {
	n := len(rows)
	g := mat.NewSymDense(n, nil)
	for i := 0; i < n; i++ {
		g.SetSym(i, i, 1)
		for j := i + 1; j < n; j++ {
			g.SetSym(i, j, k.Eval(rows[i].Dot(rows[j]), norms[i], norms[j]))
		}
	}
	return g
}

func squaredNorms(rows []features.Vector) []float64 {
	out := make([]float64, len(rows))
	for i, r := range rows {
		out[i] = r.SquaredNorm()
	}
	return out
}
