package encoder

import "context"

// StaticDimension is the token-vector width produced by StaticBackend.
// Small by design: this backend exists for tests and --offline use,
// not for embedding quality.
const StaticDimension = 128

// StaticBackend is a deterministic, dependency-free Encoder: no model
// download, no network, same text always produces the same matrix.
// Named after the teacher's own ProviderStatic concept in
// internal/embed/factory.go. Unlike the teacher's StaticEmbedder (one
// pooled vector per text via FNV hashing), this produces one vector
// per token so MaxSim (spec.md §4.11) has individual rows to compare.
type StaticBackend struct {
	docLen   int
	queryLen int
}

// NewStaticBackend builds a StaticBackend with the spec's fallback
// token budgets (180 document tokens, 32 query tokens).
func NewStaticBackend() *StaticBackend {
	return &StaticBackend{docLen: DefaultDocumentLength, queryLen: DefaultQueryLength}
}

const staticModelID = "static"

func (s *StaticBackend) EncodeDocuments(_ context.Context, texts []string) ([]Matrix, error) {
	out := make([]Matrix, len(texts))
	for i, t := range texts {
		out[i] = buildMatrix(staticModelID, "[doc]", t, StaticDimension, s.docLen, 0)
	}
	return out, nil
}

func (s *StaticBackend) EncodeQuery(_ context.Context, text string) (Matrix, error) {
	return buildMatrix(staticModelID, "[query]", text, StaticDimension, s.queryLen, s.queryLen), nil
}

func (s *StaticBackend) DocumentLength() int { return s.docLen }
func (s *StaticBackend) QueryLength() int    { return s.queryLen }
func (s *StaticBackend) ModelID() string     { return staticModelID }

var _ Encoder = (*StaticBackend)(nil)
