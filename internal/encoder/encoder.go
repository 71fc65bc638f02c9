// Package encoder is the Encoder Facade (spec.md §4.5): it turns text
// into per-token embedding matrices for both documents and queries.
//
// Grounded on the teacher's internal/embed package (Embedder interface,
// ProviderType resolution in factory.go, FileLock in lock.go) but
// reshaped from a single pooled vector per text to a per-token matrix,
// since MaxSim (spec.md §4.11) needs individual token vectors, not a
// pooled embedding.
package encoder

import "context"

// Matrix is the in-memory counterpart of an EmbeddingMatrix: NumTokens
// rows of Dimension float32 values, row-major (token-major) layout.
type Matrix struct {
	NumTokens int
	Dimension int
	Data      []float32
}

// Row returns the token-i vector as a slice view into Data.
func (m Matrix) Row(i int) []float32 {
	return m.Data[i*m.Dimension : (i+1)*m.Dimension]
}

// Encoder is the capability set {encode_documents, encode_query,
// document_length, query_length} from spec.md §4.5.
type Encoder interface {
	EncodeDocuments(ctx context.Context, texts []string) ([]Matrix, error)
	EncodeQuery(ctx context.Context, text string) (Matrix, error)
	DocumentLength() int
	QueryLength() int

	// ModelID reports the active model identifier, for status/diagnostic
	// output (not part of spec.md's capability set, but every backend
	// has a stable answer for it).
	ModelID() string
}

// Fallback token-budget constants, used whenever a model's own
// sentence-transformers config doesn't specify document_length/
// query_length (spec.md §4.5).
const (
	DefaultDocumentLength = 180
	DefaultQueryLength    = 32
)

// DefaultModelID is the compiled-in default used when no override, env
// var, or stored setting names a model (spec.md §4.5 priority chain,
// step 4).
const DefaultModelID = "colbert-ir/colbertv2.0"
