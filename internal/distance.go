package internal

import (
	"fmt"
	"math"
)

// Metric names the distance function an index ranks by. Lower is closer.
type Metric string

const (
	// MetricL2 is the squared Euclidean distance.
	MetricL2 Metric = "l2"
	// MetricCosine is 1 - cosine similarity, in [0, 2].
	MetricCosine Metric = "cosine"
)

func (m Metric) Distance(a, b []float32) (float64, error) {
	if len(a) != len(b) {
		return 0, fmt.Errorf("%w: %d vs %d", ErrDimensionMismatch, len(a), len(b))
	}

	switch m {
	case MetricL2, "":
		return squaredL2(a, b), nil
	case MetricCosine:
		return cosineDistance(a, b), nil
	default:
		return 0, fmt.Errorf("%w: unknown metric %q", ErrInvalidArgument, m)
	}
}

func squaredL2(a, b []float32) float64 {
	var sum float64
	for i := range a {
		d := float64(a[i]) - float64(b[i])
		sum += d * d
	}
	return sum
}

// cosineDistance treats a zero-magnitude vector as orthogonal to everything.
func cosineDistance(a, b []float32) float64 {
	var dot, na2, nb2 float64
	for i := range a {
		va, vb := float64(a[i]), float64(b[i])
		dot += va * vb
		na2 += va * va
		nb2 += vb * vb
	}
	if na2 == 0 || nb2 == 0 {
		return 1
	}
	return 1 - dot/(math.Sqrt(na2)*math.Sqrt(nb2))
}
