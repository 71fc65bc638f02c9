package maxsim

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/docbert/docbert/internal/encoder"
)

func mat(dim int, rows ...[]float32) encoder.Matrix {
	data := make([]float32, 0, len(rows)*dim)
	for _, r := range rows {
		data = append(data, r...)
	}
	return encoder.Matrix{NumTokens: len(rows), Dimension: dim, Data: data}
}

func TestScoreMatchesReferenceFormula(t *testing.T) {
	q := mat(2, []float32{1, 0}, []float32{0, 1})
	d := mat(2, []float32{1, 0}, []float32{0, 1}, []float32{0.5, 0.5})

	// row0 best = max(1, 0, 0.5) = 1; row1 best = max(0, 1, 0.5) = 1
	got, err := Score(q, d)
	require.NoError(t, err)
	assert.InDelta(t, 2.0, got, 1e-6)
}

func TestScoreEmptyDocumentIsZero(t *testing.T) {
	q := mat(2, []float32{1, 0})
	d := encoder.Matrix{NumTokens: 0, Dimension: 2}

	got, err := Score(q, d)
	require.NoError(t, err)
	assert.Equal(t, float32(0.0), got)
}

func TestScoreEmptyQueryIsZero(t *testing.T) {
	q := encoder.Matrix{NumTokens: 0, Dimension: 2}
	d := mat(2, []float32{1, 0})

	got, err := Score(q, d)
	require.NoError(t, err)
	assert.Equal(t, float32(0.0), got)
}

func TestScoreDimensionMismatchErrors(t *testing.T) {
	q := mat(2, []float32{1, 0})
	d := mat(3, []float32{1, 0, 0})

	_, err := Score(q, d)
	require.Error(t, err)
}

func TestScoreNonFinitePropagates(t *testing.T) {
	q := mat(1, []float32{float32(math.NaN())})
	d := mat(1, []float32{1})

	got, err := Score(q, d)
	require.NoError(t, err)
	assert.True(t, math.IsNaN(float64(got)))
}

func TestScoreIsDeterministicUnderReordering(t *testing.T) {
	q := mat(2, []float32{1, 0}, []float32{0, 1})
	d1 := mat(2, []float32{0.9, 0.1}, []float32{0.1, 0.9})
	d2 := mat(2, []float32{0.1, 0.9}, []float32{0.9, 0.1})

	s1, err := Score(q, d1)
	require.NoError(t, err)
	s2, err := Score(q, d2)
	require.NoError(t, err)
	assert.InDelta(t, s1, s2, 1e-6)
}
