package chunk

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSplitShortTextYieldsSingleChunkAtIndexZero(t *testing.T) {
	text := "a short document body"
	chunks := Split(text, DefaultSize, DefaultOverlap)
	require.Len(t, chunks, 1)
	assert.Equal(t, 0, chunks[0].Index)
	assert.Equal(t, text, chunks[0].Text)
	assert.Equal(t, 0, chunks[0].StartOffset)
}

func TestSplitExactlySizeYieldsSingleChunk(t *testing.T) {
	text := strings.Repeat("x", 100)
	chunks := Split(text, 100, 20)
	require.Len(t, chunks, 1)
}

func TestSplitLongTextProducesOverlappingWindows(t *testing.T) {
	words := make([]string, 0, 400)
	for i := 0; i < 400; i++ {
		words = append(words, "word")
	}
	text := strings.Join(words, " ")

	chunks := Split(text, 100, 20)
	require.Greater(t, len(chunks), 1)
	for i, c := range chunks {
		assert.Equal(t, i, c.Index)
	}
}

func TestSplitChunksCoverTextContiguously(t *testing.T) {
	words := make([]string, 0, 500)
	for i := 0; i < 500; i++ {
		words = append(words, "tok")
	}
	text := strings.Join(words, " ")

	chunks := Split(text, 150, 30)
	require.Greater(t, len(chunks), 1)
	for i := 1; i < len(chunks); i++ {
		prevEnd := chunks[i-1].StartOffset + len([]rune(chunks[i-1].Text))
		assert.LessOrEqual(t, chunks[i].StartOffset, prevEnd,
			"chunk %d must start at or before the previous chunk's end", i)
	}
	last := chunks[len(chunks)-1]
	totalRunes := len([]rune(text))
	assert.Equal(t, totalRunes, last.StartOffset+len([]rune(last.Text)))
}

func TestSplitSnapsToWordBoundaryWhenPossible(t *testing.T) {
	text := strings.Repeat("word ", 50)
	chunks := Split(text, 40, 10)
	require.Greater(t, len(chunks), 1)
	first := chunks[0].Text
	assert.False(t, strings.HasSuffix(first, "wor"), "chunk should not cut mid-word when a boundary is nearby")
}

func TestSplitFallsBackToMidWordCutWithoutBoundary(t *testing.T) {
	text := strings.Repeat("x", 500)
	chunks := Split(text, 100, 10)
	require.Greater(t, len(chunks), 1)
	assert.Equal(t, 100, len([]rune(chunks[0].Text)))
}

func TestSplitZeroOverlapProducesDisjointWindows(t *testing.T) {
	text := strings.Repeat("a", 300)
	chunks := Split(text, 100, 0)
	require.Len(t, chunks, 3)
	assert.Equal(t, 0, chunks[0].StartOffset)
	assert.Equal(t, 100, chunks[1].StartOffset)
	assert.Equal(t, 200, chunks[2].StartOffset)
}

func TestSplitGuardsAgainstOverlapGreaterOrEqualToSize(t *testing.T) {
	text := strings.Repeat("y", 300)
	chunks := Split(text, 100, 500)
	require.NotEmpty(t, chunks)
	for i := 1; i < len(chunks); i++ {
		assert.Greater(t, chunks[i].StartOffset, chunks[i-1].StartOffset, "chunker must always make forward progress")
	}
}
