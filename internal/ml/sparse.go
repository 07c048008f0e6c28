// Package ml evaluates the exported training artifacts: a TF-IDF vectorizer and
// a family of linear and naive Bayes classifiers over its sparse output.
package ml

import (
	"fmt"
	"math"
	"sort"
)

// SparseVector is a feature vector holding only non-zero entries.
// Indices are strictly increasing.
type SparseVector struct {
	Dim     int
	Indices []int
	Values  []float64
}

func newSparseVector(dim int, counts map[int]float64) SparseVector {
	v := SparseVector{
		Dim:     dim,
		Indices: make([]int, 0, len(counts)),
		Values:  make([]float64, 0, len(counts)),
	}
	for idx := range counts {
		v.Indices = append(v.Indices, idx)
	}
	sort.Ints(v.Indices)
	for _, idx := range v.Indices {
		v.Values = append(v.Values, counts[idx])
	}
	return v
}

// NNZ returns the number of stored entries.
func (v SparseVector) NNZ() int {
	return len(v.Indices)
}

// Dense expands the vector. Used by tests and debugging output.
func (v SparseVector) Dense() []float64 {
	out := make([]float64, v.Dim)
	for i, idx := range v.Indices {
		out[idx] = v.Values[i]
	}
	return out
}

// Dot multiplies the vector with a dense weight row of the same dimension.
func (v SparseVector) Dot(row []float64) float64 {
	var sum float64
	for i, idx := range v.Indices {
		sum += v.Values[i] * row[idx]
	}
	return sum
}

func (v SparseVector) check(numFeatures int) error {
	if v.Dim != numFeatures {
		return fmt.Errorf("X has %d features, but the model expects %d", v.Dim, numFeatures)
	}
	if len(v.Indices) != len(v.Values) {
		return fmt.Errorf("malformed sparse vector: %d indices, %d values", len(v.Indices), len(v.Values))
	}
	for _, idx := range v.Indices {
		if idx < 0 || idx >= numFeatures {
			return fmt.Errorf("feature index %d out of range [0, %d)", idx, numFeatures)
		}
	}
	return nil
}

func (v SparseVector) normalize(norm string) {
	var total float64
	switch norm {
	case NormL2:
		for _, x := range v.Values {
			total += x * x
		}
		total = math.Sqrt(total)
	case NormL1:
		for _, x := range v.Values {
			total += math.Abs(x)
		}
	default:
		return
	}
	if total == 0 {
		return
	}
	for i := range v.Values {
		v.Values[i] /= total
	}
}
