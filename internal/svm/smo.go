package svm

import (
	"context"
	"math"

	"gonum.org/v1/gonum/mat"
)

const tau = 1e-12

// solution of one binary dual problem.
type solution struct {
	alpha []float64
	rho   float64
	iters int
}

// solve runs SMO with maximal-violating-pair selection on
//
//	min 0.5 a'Qa - e'a  s.t.  y'a = 0, 0 <= a_i <= c
//
// where Q_ij = y_i y_j K(sub[i], sub[j]).
func solve(ctx context.Context, k *mat.SymDense, sub []int, y []float64, c, tol float64, maxIter int) (solution, error) {
	n := len(sub)
	alpha := make([]float64, n)
	grad := make([]float64, n)
	for i := range grad {
		grad[i] = -1
	}
	q := func(i, j int) float64 { return y[i] * y[j] * k.At(sub[i], sub[j]) }

	iter := 0
	for ; iter < maxIter; iter++ {
		if iter%1000 == 0 {
			if err := ctx.Err(); err != nil {
				return solution{}, err
			}
		}
		i, j, ok := selectPair(alpha, grad, y, c, tol)
		if !ok {
			break
		}
		oldI, oldJ := alpha[i], alpha[j]
		qii, qjj, qij := q(i, i), q(j, j), q(i, j)
		if y[i] != y[j] {
			quad := qii + qjj + 2*qij
			if quad <= 0 {
				quad = tau
			}
			delta := (-grad[i] - grad[j]) / quad
			diff := alpha[i] - alpha[j]
			alpha[i] += delta
			alpha[j] += delta
			if diff > 0 {
				if alpha[j] < 0 {
					alpha[j] = 0
					alpha[i] = diff
				}
			} else if alpha[i] < 0 {
				alpha[i] = 0
				alpha[j] = -diff
			}
			if diff > 0 {
				if alpha[i] > c {
					alpha[i] = c
					alpha[j] = c - diff
				}
			} else if alpha[j] > c {
				alpha[j] = c
				alpha[i] = c + diff
			}
		} else {
			quad := qii + qjj - 2*qij
			if quad <= 0 {
				quad = tau
			}
			delta := (grad[i] - grad[j]) / quad
			sum := alpha[i] + alpha[j]
			alpha[i] -= delta
			alpha[j] += delta
			if sum > c {
				if alpha[i] > c {
					alpha[i] = c
					alpha[j] = sum - c
				}
				if alpha[j] > c {
					alpha[j] = c
					alpha[i] = sum - c
				}
			} else {
				if alpha[j] < 0 {
					alpha[j] = 0
					alpha[i] = sum
				}
				if alpha[i] < 0 {
					alpha[i] = 0
					alpha[j] = sum
				}
			}
		}
		dI, dJ := alpha[i]-oldI, alpha[j]-oldJ
		for t := 0; t < n; t++ {
			grad[t] += q(t, i)*dI + q(t, j)*dJ
		}
	}
	return solution{alpha: alpha, rho: computeRho(alpha, grad, y, c), iters: iter}, nil
}

// selectPair picks the pair that most violates the KKT conditions. ok is
// false once the violation is below tol.
func selectPair(alpha, grad, y []float64, c, tol float64) (i, j int, ok bool) {
	gmax, gmin := math.Inf(-1), math.Inf(1)
	i, j = -1, -1
	for t := range alpha {
		v := -y[t] * grad[t]
		if inUp(alpha[t], y[t], c) && v >= gmax {
			gmax, i = v, t
		}
		if inLow(alpha[t], y[t], c) && v <= gmin {
			gmin, j = v, t
		}
	}
	if i < 0 || j < 0 || gmax-gmin < tol {
		return 0, 0, false
	}
	return i, j, true
}

func inUp(a, y, c float64) bool {
	return (y > 0 && a < c) || (y < 0 && a > 0)
}

func inLow(a, y, c float64) bool {
	return (y > 0 && a > 0) || (y < 0 && a < c)
}

// computeRho averages y_i*G_i over free variables, falling back to the
// midpoint of the feasible interval when every variable sits at a bound.
func computeRho(alpha, grad, y []float64, c float64) float64 {
	ub, lb := math.Inf(1), math.Inf(-1)
	var sum float64
	free := 0
	for t := range alpha {
		yg := y[t] * grad[t]
		switch {
		case alpha[t] >= c:
			if y[t] < 0 {
				ub = math.Min(ub, yg)
			} else {
				lb = math.Max(lb, yg)
			}
		case alpha[t] <= 0:
			if y[t] > 0 {
				ub = math.Min(ub, yg)
			} else {
				lb = math.Max(lb, yg)
			}
		default:
			free++
			sum += yg
		}
	}
	if free > 0 {
		return sum / float64(free)
	}
	return (ub + lb) / 2
}
