package encoder

import (
	"math"
	"math/rand"
	"regexp"
	"strings"

	"github.com/cespare/xxhash/v2"
)

var tokenPattern = regexp.MustCompile(`[\p{L}\p{N}]+`)

func tokenize(text string) []string {
	words := tokenPattern.FindAllString(text, -1)
	out := make([]string, len(words))
	for i, w := range words {
		out[i] = strings.ToLower(w)
	}
	return out
}

// tokenVector derives a deterministic unit vector for key: the same
// key (model ID + token, independent of position) always yields the
// same vector, so shared vocabulary between two texts contributes
// identical rows to MaxSim's inner product (spec.md §4.5, S6).
func tokenVector(key string, dimension int) []float32 {
	seed := int64(xxhash.Sum64String(key))
	rng := rand.New(rand.NewSource(seed))
	vec := make([]float32, dimension)
	var sumSquares float64
	for i := range vec {
		v := rng.NormFloat64()
		vec[i] = float32(v)
		sumSquares += v * v
	}
	norm := math.Sqrt(sumSquares)
	if norm == 0 {
		return vec
	}
	for i := range vec {
		vec[i] = float32(float64(vec[i]) / norm)
	}
	return vec
}

// maskToken is the padding token used to fill a query to its fixed
// length, standing in for the tokenizer's real mask token.
const maskToken = "[mask]"

// buildMatrix assembles a prefixed, length-bounded token matrix for
// text under modelID. truncateTo bounds the total row count with the
// prefix included, so at most truncateTo-1 real tokens are kept; if
// padTo is nonzero the result is padded with maskToken rows up to
// exactly padTo rows total.
func buildMatrix(modelID, prefix, text string, dimension, truncateTo, padTo int) Matrix {
	tokens := tokenize(text)
	budget := truncateTo - 1
	if budget < 0 {
		budget = 0
	}
	if len(tokens) > budget {
		tokens = tokens[:budget]
	}

	all := make([]string, 0, len(tokens)+1)
	all = append(all, prefix)
	all = append(all, tokens...)

	for padTo > 0 && len(all) < padTo {
		all = append(all, maskToken)
	}

	dim := dimension
	data := make([]float32, len(all)*dim)
	for i, tok := range all {
		copy(data[i*dim:(i+1)*dim], tokenVector(modelID+"\x1f"+tok, dim))
	}
	return Matrix{NumTokens: len(all), Dimension: dim, Data: data}
}
