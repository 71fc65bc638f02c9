package retrieval

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/docbert/docbert/internal/configstore"
	"github.com/docbert/docbert/internal/embedstore"
	"github.com/docbert/docbert/internal/encoder"
	"github.com/docbert/docbert/internal/identity"
	"github.com/docbert/docbert/internal/textindex"
)

func newTestEngine(t *testing.T) *Engine {
	t.Helper()
	dir := t.TempDir()
	embed, err := embedstore.Open(filepath.Join(dir, "embeddings.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = embed.Close() })

	config, err := configstore.Open(filepath.Join(dir, "config.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = config.Close() })

	text, err := textindex.OpenInMemory()
	require.NoError(t, err)
	t.Cleanup(func() { _ = text.Close() })

	return &Engine{Text: text, Embed: embed, Config: config, Encoder: encoder.NewStaticBackend()}
}

func indexAndEmbed(t *testing.T, e *Engine, collection, path, title, body string) uint64 {
	t.Helper()
	id := identity.Derive(collection, path)

	w := e.Text.NewWriter()
	require.NoError(t, w.AddDocument(textindex.Document{
		DocID: id.String(), DocNumID: id.Numeric, Collection: collection, Path: path, Title: title, Body: body,
	}))
	require.NoError(t, w.Commit())

	m, err := e.Encoder.EncodeDocuments(context.Background(), []string{body})
	require.NoError(t, err)
	require.NoError(t, e.Embed.Put(identity.ChunkID(id.Numeric, 0), uint32(m[0].NumTokens), uint32(m[0].Dimension), m[0].Data))
	require.NoError(t, e.Config.PutMetadata(id.Numeric, collection, path, 0))
	return id.Numeric
}

func TestHybridBM25OnlySkipsEncoder(t *testing.T) {
	e := newTestEngine(t)
	indexAndEmbed(t, e, "docs", "a.md", "Alpha Guide", "alpha content about widgets")

	results, err := e.Search(context.Background(), HybridParams{Query: "Alpha", Count: 10, BM25Only: true})
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, 1, results[0].Rank)
}

func TestHybridRerankFiltersCandidatesWithoutEmbedding(t *testing.T) {
	e := newTestEngine(t)
	id := identity.Derive("docs", "a.md")
	w := e.Text.NewWriter()
	require.NoError(t, w.AddDocument(textindex.Document{
		DocID: id.String(), DocNumID: id.Numeric, Collection: "docs", Path: "a.md", Title: "Widgets", Body: "widgets galore",
	}))
	require.NoError(t, w.Commit())

	results, err := e.Search(context.Background(), HybridParams{Query: "widgets", Count: 10})
	require.NoError(t, err)
	assert.Empty(t, results, "candidates without a stored embedding must be dropped")
}

func TestHybridAppliesMinScoreFilter(t *testing.T) {
	e := newTestEngine(t)
	indexAndEmbed(t, e, "docs", "a.md", "Widgets", "widgets galore and more widgets")

	results, err := e.Search(context.Background(), HybridParams{Query: "widgets", Count: 10, MinScore: 1e9})
	require.NoError(t, err)
	assert.Empty(t, results)
}

func TestHybridLimitsToCountUnlessAll(t *testing.T) {
	e := newTestEngine(t)
	for i := 0; i < 5; i++ {
		indexAndEmbed(t, e, "docs", string(rune('a'+i))+".md", "Widgets", "widgets content shared across docs")
	}

	limited, err := e.Search(context.Background(), HybridParams{Query: "widgets", Count: 2})
	require.NoError(t, err)
	assert.Len(t, limited, 2)

	all, err := e.Search(context.Background(), HybridParams{Query: "widgets", Count: 2, All: true})
	require.NoError(t, err)
	assert.Len(t, all, 5)
}

func TestSemanticScoresEveryEmbeddedDocument(t *testing.T) {
	e := newTestEngine(t)
	indexAndEmbed(t, e, "docs", "a.md", "Alpha", "alpha body text")
	indexAndEmbed(t, e, "docs", "b.md", "Beta", "beta body text")

	results, err := e.Semantic(context.Background(), SemanticParams{Query: "alpha", Count: 10, All: true})
	require.NoError(t, err)
	require.Len(t, results, 2)
	for _, r := range results {
		assert.NotEmpty(t, r.DocIDShort)
	}
}

func TestSemanticIgnoresTrailingChunkEmbeddings(t *testing.T) {
	e := newTestEngine(t)
	numeric := indexAndEmbed(t, e, "docs", "a.md", "Alpha", "alpha body text")

	m, err := e.Encoder.EncodeDocuments(context.Background(), []string{"a stray trailing chunk"})
	require.NoError(t, err)
	require.NoError(t, e.Embed.Put(identity.ChunkID(numeric, 1), uint32(m[0].NumTokens), uint32(m[0].Dimension), m[0].Data))

	results, err := e.Semantic(context.Background(), SemanticParams{Query: "alpha", Count: 10, All: true})
	require.NoError(t, err)
	require.Len(t, results, 1, "a chunk-1 embedding must not surface as its own result")
	assert.Equal(t, numeric, results[0].DocNumID)
	assert.Equal(t, "docs", results[0].Collection)
	assert.Equal(t, "a.md", results[0].Path)
}

func TestFinalizeBreaksScoreTiesByOriginalRank(t *testing.T) {
	results := []Result{
		{Score: 1.0, DocIDShort: "second", bm25Rank: 1},
		{Score: 1.0, DocIDShort: "first", bm25Rank: 0},
	}
	out := finalize(results, 0, 10, false)
	require.Len(t, out, 2)
	assert.Equal(t, "first", out[0].DocIDShort)
	assert.Equal(t, "second", out[1].DocIDShort)
}
