package svm

import (
	"errors"
	"math"
	"math/rand"
)

// ErrSplit is returned when a split would leave either side empty.
var ErrSplit = errors.New("svm: cannot split")

// Split shuffles 0..n-1 with seed and returns disjoint train and test index
// sets. The test side gets ceil(testFraction*n) rows.
func Split(n int, testFraction float64, seed int64) (train, test []int, err error) {
	if testFraction <= 0 || testFraction >= 1 {
		return nil, nil, errors.New("svm: test fraction must be in (0,1)")
	}
	nTest := int(math.Ceil(testFraction * float64(n)))
	if n < 2 || nTest >= n {
		return nil, nil, ErrSplit
	}
	perm := rand.New(rand.NewSource(seed)).Perm(n)
	return perm[nTest:], perm[:nTest], nil
}

// Labels picks labels[i] for each i in idx.
func Labels(labels []string, idx []int) []string {
	out := make([]string, len(idx))
	for k, i := range idx {
		out[k] = labels[i]
	}
	return out
}
