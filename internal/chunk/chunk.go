// Package chunk partitions document bodies into overlapping windows
// for per-chunk embedding (spec.md §4.7).
//
// New algorithm: the teacher's chunkers are structure-aware (Markdown
// headers, tree-sitter symbols) and don't apply to docbert's simpler
// fixed-size/overlap contract. The package shape — options struct,
// pure Chunk function, doc-comment register — follows the teacher's
// markdown chunker.
package chunk

import "unicode"

// DefaultSize and DefaultOverlap are spec.md §4.7's defaults.
const (
	DefaultSize    = 1024
	DefaultOverlap = 200
)

// maxBoundaryLookback bounds how far Split backtracks from a window's
// raw end to find a word boundary before giving up and cutting mid-word.
const maxBoundaryLookback = 64

// Chunk is one window of a chunked body.
type Chunk struct {
	Index       int
	Text        string
	StartOffset int
}

// Split partitions text into windows of at most size runes, with
// overlap runes reused between adjacent windows. Window boundaries
// snap to the nearest preceding whitespace within a bounded look-back;
// if none is found, the window is cut mid-word. Text of length <= size
// yields a single chunk at index 0. Pure and deterministic.
func Split(text string, size, overlap int) []Chunk {
	if size <= 0 {
		size = DefaultSize
	}
	if overlap < 0 {
		overlap = 0
	}
	if overlap >= size {
		overlap = size - 1
	}

	runes := []rune(text)
	n := len(runes)
	if n <= size {
		return []Chunk{{Index: 0, Text: text, StartOffset: 0}}
	}

	lookback := maxBoundaryLookback
	if lookback > size/2 {
		lookback = size / 2
	}

	var chunks []Chunk
	start, index := 0, 0
	for start < n {
		end := start + size
		if end >= n {
			chunks = append(chunks, Chunk{Index: index, Text: string(runes[start:n]), StartOffset: start})
			break
		}

		snapped := snapToWordBoundary(runes, start, end, lookback)
		chunks = append(chunks, Chunk{Index: index, Text: string(runes[start:snapped]), StartOffset: start})

		next := snapped - overlap
		if next <= start {
			next = snapped
		}
		start = next
		index++
	}
	return chunks
}

// snapToWordBoundary searches backward from end for the nearest
// preceding whitespace rune, no further back than limit. It returns
// end unchanged if no boundary is found in range.
func snapToWordBoundary(runes []rune, start, end, lookback int) int {
	limit := end - lookback
	if limit < start+1 {
		limit = start + 1
	}
	for i := end; i > limit; i-- {
		if unicode.IsSpace(runes[i-1]) {
			return i - 1
		}
	}
	return end
}
