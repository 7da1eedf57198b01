// Package risk computes and orders risk severity for failure scenarios.
package risk

// Likelihood and impact share a bounded 1-10 scale; scores map onto 0-100.
const (
	ScaleMin = 1
	ScaleMax = 10

	ScoreMax = ScaleMax * ScaleMax
)

// Clamp bounds a likelihood or impact value to the valid scale. Out-of-range
// values from the generation service are clamped, not rejected, so noisy
// output cannot fail the pipeline.
func Clamp(v int) int {
	if v < ScaleMin {
		return ScaleMin
	}
	if v > ScaleMax {
		return ScaleMax
	}
	return v
}

// Score converts a (likelihood, impact) pair into a single comparable risk
// score on the 0-100 range. It is pure and monotonically non-decreasing in
// each input.
func Score(likelihood, impact int) int {
	return Clamp(likelihood) * Clamp(impact)
}

// BucketLevel labels one axis cell of the report's risk matrix.
type BucketLevel string

const (
	BucketLow    BucketLevel = "low"
	BucketMedium BucketLevel = "medium"
	BucketHigh   BucketLevel = "high"
)

// Bucket maps a likelihood or impact value to its matrix bucket.
func Bucket(v int) BucketLevel {
	switch c := Clamp(v); {
	case c <= 3:
		return BucketLow
	case c <= 7:
		return BucketMedium
	default:
		return BucketHigh
	}
}
