// Package distance provides vector distance kernels for exact search.
// All functions assume both slices have the same length; enforcing the
// dimension contract is the caller's responsibility.
package distance

import (
	"fmt"
	"math"
	"slices"

	"github.com/viterin/vek/vek32"
)

// Dot returns the dot product of two vectors.
func Dot(a, b []float32) float32 {
	return vek32.Dot(a, b)
}

// SquaredL2 returns the squared Euclidean distance between two vectors.
// Smaller means more similar. The square root is deliberately not taken:
// it is monotone and ranking by squared distance is cheaper.
func SquaredL2(a, b []float32) float32 {
	d := vek32.Distance(a, b)
	return d * d
}

// NormalizeL2InPlace L2-normalizes v in place.
// Returns false if v is empty or has zero norm.
func NormalizeL2InPlace(v []float32) bool {
	if len(v) == 0 {
		return false
	}
	norm2 := vek32.Dot(v, v)
	if norm2 == 0 {
		return false
	}
	inv := float32(1 / math.Sqrt(float64(norm2)))
	vek32.MulNumber_Inplace(v, inv)
	return true
}

// NormalizeL2Copy returns an L2-normalized copy of src.
// Returns false if src is empty or has zero norm.
func NormalizeL2Copy(src []float32) ([]float32, bool) {
	dst := slices.Clone(src)
	if !NormalizeL2InPlace(dst) {
		return nil, false
	}
	return dst, true
}

// Metric represents the distance metric used for vector comparison.
type Metric int

const (
	MetricL2 Metric = iota
	MetricDot
)

func (m Metric) String() string {
	switch m {
	case MetricL2:
		return "L2"
	case MetricDot:
		return "Dot"
	default:
		return fmt.Sprintf("Unknown(%d)", m)
	}
}

// Func is a function type for distance calculation.
type Func func(a, b []float32) float32

// Provider returns the distance function for the given metric.
func Provider(m Metric) (Func, error) {
	switch m {
	case MetricL2:
		return SquaredL2, nil
	case MetricDot:
		return Dot, nil
	default:
		return nil, fmt.Errorf("unsupported metric: %v", m)
	}
}
