// Package features converts normalized abstracts into numeric row vectors.
package features

import (
	"context"

	"gonum.org/v1/gonum/floats"
)

// Vectorizer builds a feature matrix from a batch of documents. Row i of the
// result describes docs[i].
type Vectorizer interface {
	FitTransform(ctx context.Context, docs []string) (Matrix, error)
	Name() string
}

// Vector is a sparse row. Indices are strictly increasing.
type Vector struct {
	Indices []int
	Values  []float64
}

// Dot returns the inner product of two sparse rows.
func (v Vector) Dot(w Vector) float64 {
	var sum float64
	i, j := 0, 0
	for i < len(v.Indices) && j < len(w.Indices) {
		switch {
		case v.Indices[i] == w.Indices[j]:
			sum += v.Values[i] * w.Values[j]
			i++
			j++
		case v.Indices[i] < w.Indices[j]:
			i++
		default:
			j++
		}
	}
	return sum
}

// SquaredNorm returns ||v||^2.
func (v Vector) SquaredNorm() float64 {
	return floats.Dot(v.Values, v.Values)
}

// Matrix is a row-major sparse matrix with Dim columns.
type Matrix struct {
	Rows       []Vector
	Dim        int
	Vocabulary []string // column names when known
}

// Len returns the number of rows.
func (m Matrix) Len() int { return len(m.Rows) }

// Subset returns the rows at idx, in that order. Rows are shared.
func (m Matrix) Subset(idx []int) Matrix {
	rows := make([]Vector, len(idx))
	for k, i := range idx {
		rows[k] = m.Rows[i]
	}
	return Matrix{Rows: rows, Dim: m.Dim, Vocabulary: m.Vocabulary}
}

// At returns entry (i, j).
func (m Matrix) At(i, j int) float64 {
	r := m.Rows[i]
	for k, idx := range r.Indices {
		if idx == j {
			return r.Values[k]
		}
		if idx > j {
			break
		}
	}
	return 0
}

// denseVector wraps a dense slice as a sparse row over every column.
func denseVector(values []float64) Vector {
	idx := make([]int, len(values))
	for i := range idx {
		idx[i] = i
	}
	return Vector{Indices: idx, Values: values}
}

// normalizeL2 scales values in place to unit length. Zero vectors are left alone.
func normalizeL2(values []float64) {
	n := floats.Norm(values, 2)
	if n == 0 {
		return
	}
	floats.Scale(1/n, values)
}
