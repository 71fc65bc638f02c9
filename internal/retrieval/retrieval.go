// Package retrieval implements the two retrieval pipelines of
// spec.md §4.10: Hybrid (BM25 candidate generation, optionally
// reranked by MaxSim) and Semantic (exhaustive MaxSim over every
// embedded document). Grounded on internal/search/engine.go's Engine
// shape — options struct, dependency fields, stable-sort-with-tiebreak
// result ordering — generalized from its RRF/classifier/reranker
// fusion pipeline down to spec.md's two fixed pipelines.
package retrieval

import (
	"context"
	"sort"

	"github.com/docbert/docbert/internal/configstore"
	"github.com/docbert/docbert/internal/embedstore"
	"github.com/docbert/docbert/internal/encoder"
	"github.com/docbert/docbert/internal/identity"
	"github.com/docbert/docbert/internal/maxsim"
	"github.com/docbert/docbert/internal/textindex"
)

// textIndexCandidateLimit is the fixed candidate pool size pulled from
// the Text Index before reranking (spec.md §4.10 step 1).
const textIndexCandidateLimit = 1000

// Engine wires the Text Index, Embedding Store, Config Store, and
// Encoder Facade needed to run both retrieval pipelines.
type Engine struct {
	Text    *textindex.Index
	Embed   *embedstore.Store
	Config  *configstore.Store
	Encoder encoder.Encoder
}

// Result is a single ranked retrieval record (spec.md §4.10 "Result
// records"). The caller formats these for CLI or MCP output.
type Result struct {
	Rank       int
	Score      float64
	DocIDShort string
	DocNumID   uint64
	Collection string
	Path       string
	Title      string
	bm25Rank   int
}

// HybridParams are the inputs to the Hybrid ("search") pipeline.
type HybridParams struct {
	Query      string
	Count      int
	Collection string // empty means search across all collections
	MinScore   float64
	BM25Only   bool
	NoFuzzy    bool
	All        bool
}

// Search runs the Hybrid pipeline (spec.md §4.10 "Hybrid").
func (e *Engine) Search(ctx context.Context, p HybridParams) ([]Result, error) {
	hits, err := e.fetchCandidates(ctx, p.Query, p.Collection, !p.NoFuzzy)
	if err != nil {
		return nil, err
	}

	if p.BM25Only {
		results := make([]Result, 0, len(hits))
		for i, h := range hits {
			results = append(results, Result{
				Score:      h.Score,
				DocIDShort: h.DocID,
				DocNumID:   h.DocNumID,
				Collection: h.Collection,
				Path:       h.Path,
				Title:      h.Title,
				bm25Rank:   i,
			})
		}
		return finalize(results, p.MinScore, p.Count, p.All), nil
	}

	q, err := e.Encoder.EncodeQuery(ctx, p.Query)
	if err != nil {
		return nil, err
	}

	results := make([]Result, 0, len(hits))
	for i, h := range hits {
		m, found, err := e.Embed.Get(h.DocNumID)
		if err != nil {
			return nil, err
		}
		if !found {
			continue
		}
		score, err := maxsim.Score(q, toEncoderMatrix(m))
		if err != nil {
			return nil, err
		}
		results = append(results, Result{
			Score:      float64(score),
			DocIDShort: h.DocID,
			DocNumID:   h.DocNumID,
			Collection: h.Collection,
			Path:       h.Path,
			Title:      h.Title,
			bm25Rank:   i,
		})
	}
	return finalize(results, p.MinScore, p.Count, p.All), nil
}

func (e *Engine) fetchCandidates(ctx context.Context, query, collection string, fuzzy bool) ([]textindex.Hit, error) {
	switch {
	case collection != "" && fuzzy:
		return e.Text.SearchFuzzy(ctx, query, collection, textIndexCandidateLimit)
	case collection != "" && !fuzzy:
		return e.Text.SearchInCollection(ctx, query, collection, textIndexCandidateLimit)
	case collection == "" && fuzzy:
		return e.Text.SearchFuzzy(ctx, query, "", textIndexCandidateLimit)
	default:
		return e.Text.Search(ctx, query, textIndexCandidateLimit)
	}
}

// SemanticParams are the inputs to the Semantic ("ssearch") pipeline.
type SemanticParams struct {
	Query    string
	Count    int
	MinScore float64
	All      bool
}

// Semantic runs the Semantic pipeline (spec.md §4.10 "Semantic"):
// O(N·tokens·dim·|q|) exhaustive MaxSim over every embedded document.
//
// Candidates come from the Config Store's document metadata, not the
// Embedding Store's key set: ingestion writes one embedding per chunk
// (identity.ChunkID(numeric, k) for k=0,1,2,…) for documents spanning
// more than one chunk, but only chunk 0 is a document's retrieval
// identity (spec.md §3/§9). Walking embedstore.ListIDs() would score
// — and surface as ghost results, since they have no Text Index entry
// of their own — every trailing chunk too.
func (e *Engine) Semantic(ctx context.Context, p SemanticParams) ([]Result, error) {
	docs, err := e.Config.ListAllMetadata()
	if err != nil {
		return nil, err
	}

	q, err := e.Encoder.EncodeQuery(ctx, p.Query)
	if err != nil {
		return nil, err
	}

	results := make([]Result, 0, len(docs))
	for i, doc := range docs {
		chunkZero := identity.ChunkID(doc.Numeric, 0)
		m, found, err := e.Embed.Get(chunkZero)
		if err != nil {
			return nil, err
		}
		if !found {
			continue
		}
		score, err := maxsim.Score(q, toEncoderMatrix(m))
		if err != nil {
			return nil, err
		}

		r := Result{
			Score:      float64(score),
			DocIDShort: identity.ShortForm(doc.Numeric),
			DocNumID:   doc.Numeric,
			Collection: doc.Collection,
			Path:       doc.RelativePath,
			bm25Rank:   i,
		}
		if hit, found, err := e.Text.GetByNumID(ctx, doc.Numeric); err != nil {
			return nil, err
		} else if found {
			r.Title = hit.Title
		}
		results = append(results, r)
	}
	return finalize(results, p.MinScore, p.Count, p.All), nil
}

// finalize filters by min score, sorts by score descending (stable,
// breaking ties by the original BM25/enumeration rank), and limits to
// count unless all is set.
func finalize(results []Result, minScore float64, count int, all bool) []Result {
	filtered := results[:0]
	for _, r := range results {
		if r.Score >= minScore {
			filtered = append(filtered, r)
		}
	}

	sort.SliceStable(filtered, func(i, j int) bool {
		if filtered[i].Score != filtered[j].Score {
			return filtered[i].Score > filtered[j].Score
		}
		return filtered[i].bm25Rank < filtered[j].bm25Rank
	})

	for i := range filtered {
		filtered[i].Rank = i + 1
	}

	if all || count <= 0 || count >= len(filtered) {
		return filtered
	}
	return filtered[:count]
}

func toEncoderMatrix(m embedstore.Matrix) encoder.Matrix {
	return encoder.Matrix{
		NumTokens: int(m.NumTokens),
		Dimension: int(m.Dimension),
		Data:      m.Data,
	}
}
