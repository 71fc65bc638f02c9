// Package maxsim implements the ColBERT late-interaction scoring
// kernel (spec.md §4.11): S = Q·Dᵀ, score = Σᵢ maxⱼ S[i,j], both
// matrices already L2-normalized by the Encoder Facade.
//
// New code: the teacher has no equivalent numeric kernel, but its
// internal/search/reranker.go establishes the shape of a
// small, allocation-light numeric helper living next to the retrieval
// package that calls it — that shape is followed here.
package maxsim

import (
	"math"
	"strconv"

	"github.com/docbert/docbert/internal/encoder"
	docerrors "github.com/docbert/docbert/internal/errors"
)

// Score computes MaxSim(q, d). An empty document matrix scores 0.0
// regardless of the query (spec.md §4.11); an empty query matrix also
// naturally scores 0.0 since the outer sum has no terms. Non-finite
// inputs (NaN, ±Inf) propagate to the result unchanged — there is no
// sanitization step.
func Score(q, d encoder.Matrix) (float32, error) {
	if q.Dimension != d.Dimension {
		return 0, docerrors.New(docerrors.ErrCodeNumericShapeMismatch,
			"maxsim: query and document dimension mismatch", nil).
			WithDetail("query_dim", strconv.Itoa(q.Dimension)).WithDetail("doc_dim", strconv.Itoa(d.Dimension))
	}
	if d.NumTokens == 0 {
		return 0.0, nil
	}

	var total float32
	for i := 0; i < q.NumTokens; i++ {
		qRow := q.Row(i)
		best := dot(qRow, d.Row(0))
		for j := 1; j < d.NumTokens; j++ {
			best = maxPropagating(best, dot(qRow, d.Row(j)))
		}
		total += best
	}
	return total, nil
}

func dot(a, b []float32) float32 {
	var sum float32
	for k := range a {
		sum += a[k] * b[k]
	}
	return sum
}

// maxPropagating behaves like math.Max but, unlike it, lets a NaN
// operand poison the result instead of being discarded — ordinary `>`
// comparisons against NaN are always false, which would silently drop
// a non-finite score rather than surface it (spec.md §4.11's "no
// silent sanitization").
func maxPropagating(a, b float32) float32 {
	if math.IsNaN(float64(a)) || math.IsNaN(float64(b)) {
		return float32(math.NaN())
	}
	if a > b {
		return a
	}
	return b
}
