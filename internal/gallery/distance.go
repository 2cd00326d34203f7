package gallery

import (
	"math"
)

// EuclideanDistance returns the L2 distance between two embeddings.
// Vectors of different length are infinitely far apart.
func EuclideanDistance(a, b []float64) float64 {
	if len(a) != len(b) {
		return math.Inf(1)
	}

	var sum float64
	for i := range a {
		diff := a[i] - b[i]
		sum += diff * diff
	}
	return math.Sqrt(sum)
}

// Confidence maps a distance to [0, 1]. It is monotone, not a calibrated probability.
func Confidence(distance float64) float64 {
	return math.Max(0, math.Min(1, 1-distance))
}
