// Package vector provides the numeric primitives for embedding comparison.
package vector

import (
	"fmt"
	"math"

	"github.com/reunite-labs/reunite/internal/domain"
)

// CosineSimilarity returns dot(a,b) / (|a|*|b|) in [-1, 1].
// Empty or mismatched-length vectors are an error, never a silent zero:
// the caller decides whether to drop the pair or score it as 0.
// A zero-magnitude vector on either side yields 0.
func CosineSimilarity(a, b []float32) (float64, error) {
	if len(a) == 0 || len(b) == 0 {
		return 0, fmt.Errorf("%w: empty vector (len(a)=%d, len(b)=%d)",
			domain.ErrVectorDimMismatch, len(a), len(b))
	}
	if len(a) != len(b) {
		return 0, fmt.Errorf("%w: len(a)=%d, len(b)=%d",
			domain.ErrVectorDimMismatch, len(a), len(b))
	}

	var dot, magA, magB float64
	for i := range a {
		av := float64(a[i])
		bv := float64(b[i])
		dot += av * bv
		magA += av * av
		magB += bv * bv
	}

	if magA == 0 || magB == 0 {
		return 0, nil
	}
	return dot / (math.Sqrt(magA) * math.Sqrt(magB)), nil
}
