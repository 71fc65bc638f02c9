package textindex

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/blevesearch/bleve/v2"
	"github.com/blevesearch/bleve/v2/mapping"

	docerrors "github.com/docbert/docbert/internal/errors"
)

// Index is the Text Index: a single Bleve index over title/body prose,
// opened either on disk (one directory per deployment) or in memory
// (tests, --offline dry runs).
type Index struct {
	mu     sync.RWMutex
	bleve  bleve.Index
	path   string
	closed bool
}

// Open opens (creating if absent) the Text Index rooted at dir,
// auto-recovering from a corrupted index the same way the teacher's
// BleveBM25Index does: detect, log, remove, recreate.
func Open(dir string) (*Index, error) {
	m, err := buildMapping()
	if err != nil {
		return nil, docerrors.Wrap(docerrors.ErrCodeTextIndexOpen, err)
	}

	if err := os.MkdirAll(filepath.Dir(dir), 0o755); err != nil {
		return nil, docerrors.New(docerrors.ErrCodeTextIndexOpen, "cannot create text index parent dir", err).
			WithDetail("path", dir)
	}

	if validErr := validateIndexIntegrity(dir); validErr != nil {
		slog.Warn("text_index_corrupted", slog.String("path", dir), slog.String("error", validErr.Error()))
		if rmErr := os.RemoveAll(dir); rmErr != nil {
			return nil, docerrors.StoreCorruption("text index corrupted and cannot be removed", rmErr).
				WithDetail("path", dir)
		}
		slog.Info("text_index_cleared", slog.String("path", dir), slog.String("reason", "corruption detected, rebuild required"))
	}

	idx, err := bleve.Open(dir)
	switch {
	case err == bleve.ErrorIndexPathDoesNotExist:
		idx, err = bleve.New(dir, m)
	case err != nil && isCorruptionError(err):
		slog.Warn("text_index_open_failed", slog.String("path", dir), slog.String("error", err.Error()))
		if rmErr := os.RemoveAll(dir); rmErr != nil {
			return nil, docerrors.StoreCorruption("text index corrupted, cannot clear", rmErr)
		}
		idx, err = bleve.New(dir, m)
	}
	if err != nil {
		return nil, docerrors.Wrap(docerrors.ErrCodeTextIndexOpen, err)
	}

	return &Index{bleve: idx, path: dir}, nil
}

// OpenInMemory opens a throwaway, non-persistent index for tests.
func OpenInMemory() (*Index, error) {
	m, err := buildMapping()
	if err != nil {
		return nil, docerrors.Wrap(docerrors.ErrCodeTextIndexOpen, err)
	}
	idx, err := bleve.NewMemOnly(m)
	if err != nil {
		return nil, docerrors.Wrap(docerrors.ErrCodeTextIndexOpen, err)
	}
	return &Index{bleve: idx}, nil
}

func buildMapping() (*mapping.IndexMappingImpl, error) {
	doc := bleve.NewDocumentMapping()

	keyword := func(stored bool) *mapping.FieldMapping {
		f := bleve.NewKeywordFieldMapping()
		f.Store = stored
		f.IncludeInAll = false
		return f
	}
	numeric := func() *mapping.FieldMapping {
		f := bleve.NewNumericFieldMapping()
		f.Store = true
		f.IncludeInAll = false
		return f
	}

	doc.AddFieldMappingsAt("doc_id", keyword(true))
	doc.AddFieldMappingsAt("doc_num_id", numeric())
	doc.AddFieldMappingsAt("collection", keyword(true))

	pathField := keyword(true)
	pathField.Index = false
	doc.AddFieldMappingsAt("path", pathField)

	titleField := bleve.NewTextFieldMapping()
	titleField.Analyzer = ProseAnalyzerName
	titleField.Store = true
	titleField.IncludeInAll = false
	doc.AddFieldMappingsAt("title", titleField)

	bodyField := bleve.NewTextFieldMapping()
	bodyField.Analyzer = ProseAnalyzerName
	bodyField.Store = false
	bodyField.IncludeInAll = false
	doc.AddFieldMappingsAt("body", bodyField)

	doc.AddFieldMappingsAt("mtime", numeric())

	m := bleve.NewIndexMapping()
	if err := registerProseAnalyzer(m); err != nil {
		return nil, fmt.Errorf("register prose analyzer: %w", err)
	}
	m.DefaultMapping = doc
	m.DefaultAnalyzer = ProseAnalyzerName
	return m, nil
}

// validateIndexIntegrity mirrors the teacher's pre-open sanity check
// against Bleve's own index_meta.json.
func validateIndexIntegrity(path string) error {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return nil
	}
	metaPath := filepath.Join(path, "index_meta.json")
	info, err := os.Stat(metaPath)
	if os.IsNotExist(err) {
		return fmt.Errorf("index_meta.json missing (corrupted index)")
	}
	if err != nil {
		return fmt.Errorf("cannot stat index_meta.json: %w", err)
	}
	if info.Size() == 0 {
		return fmt.Errorf("index_meta.json is empty (corrupted)")
	}
	data, err := os.ReadFile(metaPath)
	if err != nil {
		return fmt.Errorf("cannot read index_meta.json: %w", err)
	}
	var meta map[string]interface{}
	if err := json.Unmarshal(data, &meta); err != nil {
		return fmt.Errorf("index_meta.json is corrupt: %w", err)
	}
	return nil
}

func isCorruptionError(err error) bool {
	if err == nil {
		return false
	}
	s := err.Error()
	return strings.Contains(s, "unexpected end of JSON") ||
		strings.Contains(s, "error parsing mapping JSON") ||
		strings.Contains(s, "failed to load segment") ||
		strings.Contains(s, "error opening bolt") ||
		strings.Contains(s, "no such file or directory") ||
		err == bleve.ErrorIndexMetaCorrupt
}

// Close releases the underlying Bleve index.
func (idx *Index) Close() error {
	idx.mu.Lock()
	defer idx.mu.Unlock()
	if idx.closed {
		return nil
	}
	idx.closed = true
	return idx.bleve.Close()
}

func bleveDocID(numeric uint64) string {
	return fmt.Sprintf("%016x", numeric)
}

// Writer batches document adds/deletes into a single Bleve batch,
// committed atomically — mirroring Config Store's Batch, so an ingest
// run fsyncs the Text Index once per batch, not once per document.
type Writer struct {
	idx   *Index
	batch *bleve.Batch
}

// NewWriter starts a batch against idx.
func (idx *Index) NewWriter() *Writer {
	return &Writer{idx: idx, batch: idx.bleve.NewBatch()}
}

// AddDocument stages doc for indexing (overwriting any prior document
// with the same numeric ID).
func (w *Writer) AddDocument(doc Document) error {
	d := indexDoc{
		DocID:      doc.DocID,
		DocNumID:   doc.DocNumID,
		Collection: doc.Collection,
		Path:       doc.Path,
		Title:      doc.Title,
		Body:       doc.Body,
		MTime:      doc.MTime,
	}
	if err := w.batch.Index(bleveDocID(doc.DocNumID), d); err != nil {
		return docerrors.Wrap(docerrors.ErrCodeTextIndexCommit, err)
	}
	return nil
}

// DeleteByNumID stages a deletion.
func (w *Writer) DeleteByNumID(numeric uint64) {
	w.batch.Delete(bleveDocID(numeric))
}

// Commit executes the staged batch as a single Bleve commit.
func (w *Writer) Commit() error {
	w.idx.mu.Lock()
	defer w.idx.mu.Unlock()
	if w.idx.closed {
		return docerrors.New(docerrors.ErrCodeTextIndexCommit, "text index is closed", nil)
	}
	if err := w.idx.bleve.Batch(w.batch); err != nil {
		return docerrors.Wrap(docerrors.ErrCodeTextIndexCommit, err)
	}
	return nil
}

// Search runs an exact (non-fuzzy) query across every collection.
func (idx *Index) Search(ctx context.Context, queryStr string, limit int) ([]Hit, error) {
	return idx.search(ctx, queryStr, "", false, limit)
}

// SearchInCollection runs an exact query restricted to one collection.
func (idx *Index) SearchInCollection(ctx context.Context, queryStr, collection string, limit int) ([]Hit, error) {
	return idx.search(ctx, queryStr, collection, false, limit)
}

// GetByNumID fetches the stored fields for a single document by its
// numeric ID, used by the Semantic pipeline to recover
// collection/path/title for an embedding-only candidate.
func (idx *Index) GetByNumID(ctx context.Context, numeric uint64) (Hit, bool, error) {
	idx.mu.RLock()
	defer idx.mu.RUnlock()

	if idx.closed {
		return Hit{}, false, docerrors.New(docerrors.ErrCodeTextIndexQuery, "text index is closed", nil)
	}

	req := bleve.NewSearchRequest(bleve.NewDocIDQuery([]string{bleveDocID(numeric)}))
	req.Size = 1
	req.Fields = []string{"doc_id", "doc_num_id", "collection", "path", "title", "mtime"}

	result, err := idx.bleve.SearchInContext(ctx, req)
	if err != nil {
		return Hit{}, false, docerrors.Wrap(docerrors.ErrCodeTextIndexQuery, err)
	}
	if len(result.Hits) == 0 {
		return Hit{}, false, nil
	}
	h := result.Hits[0]
	return Hit{
		DocID:      fieldString(h.Fields, "doc_id"),
		DocNumID:   fieldUint64(h.Fields, "doc_num_id"),
		Collection: fieldString(h.Fields, "collection"),
		Path:       fieldString(h.Fields, "path"),
		Title:      fieldString(h.Fields, "title"),
		MTime:      fieldUint64(h.Fields, "mtime"),
	}, true, nil
}

// FindByShortID resolves a document's short display ID (with or
// without its leading "#") to its stored fields. Short IDs are not
// guaranteed unique (spec.md §9): on a collision this returns the
// lowest numeric ID deterministically, "first-match-wins".
func (idx *Index) FindByShortID(ctx context.Context, shortID string) (Hit, bool, error) {
	idx.mu.RLock()
	defer idx.mu.RUnlock()

	if idx.closed {
		return Hit{}, false, docerrors.New(docerrors.ErrCodeTextIndexQuery, "text index is closed", nil)
	}

	normalized := shortID
	if !strings.HasPrefix(normalized, "#") {
		normalized = "#" + normalized
	}

	termQ := bleve.NewTermQuery(normalized)
	termQ.SetField("doc_id")

	req := bleve.NewSearchRequest(termQ)
	req.Size = 1000
	req.Fields = []string{"doc_id", "doc_num_id", "collection", "path", "title", "mtime"}
	req.SortBy([]string{"doc_num_id"})

	result, err := idx.bleve.SearchInContext(ctx, req)
	if err != nil {
		return Hit{}, false, docerrors.Wrap(docerrors.ErrCodeTextIndexQuery, err)
	}
	if len(result.Hits) == 0 {
		return Hit{}, false, nil
	}
	h := result.Hits[0]
	return Hit{
		DocID:      fieldString(h.Fields, "doc_id"),
		DocNumID:   fieldUint64(h.Fields, "doc_num_id"),
		Collection: fieldString(h.Fields, "collection"),
		Path:       fieldString(h.Fields, "path"),
		Title:      fieldString(h.Fields, "title"),
		MTime:      fieldUint64(h.Fields, "mtime"),
	}, true, nil
}

// SearchFuzzy runs the exact query unioned with a Levenshtein-distance-1
// fuzzy query over the same terms, score-sum combined (spec.md §4.4):
// Bleve scores the disjunction as the sum of the matching sub-query
// scores, scaled by the fraction of sub-queries that matched.
func (idx *Index) SearchFuzzy(ctx context.Context, queryStr, collection string, limit int) ([]Hit, error) {
	return idx.search(ctx, queryStr, collection, true, limit)
}

func (idx *Index) search(ctx context.Context, queryStr, collection string, fuzzy bool, limit int) ([]Hit, error) {
	idx.mu.RLock()
	defer idx.mu.RUnlock()

	if idx.closed {
		return nil, docerrors.New(docerrors.ErrCodeTextIndexQuery, "text index is closed", nil)
	}
	if strings.TrimSpace(queryStr) == "" {
		return []Hit{}, nil
	}

	q := matchQuery(queryStr)
	if fuzzy {
		if fq := fuzzyQuery(queryStr); fq != nil {
			union := bleve.NewDisjunctionQuery(q, fq)
			union.SetMin(0)
			q = union
		}
	}
	if collection != "" {
		collTerm := bleve.NewTermQuery(collection)
		collTerm.SetField("collection")
		conj := bleve.NewConjunctionQuery(q, collTerm)
		q = conj
	}

	req := bleve.NewSearchRequest(q)
	req.Size = limit
	req.Fields = []string{"doc_id", "doc_num_id", "collection", "path", "title", "mtime"}

	result, err := idx.bleve.SearchInContext(ctx, req)
	if err != nil {
		return nil, docerrors.Wrap(docerrors.ErrCodeTextIndexQuery, err)
	}

	hits := make([]Hit, 0, len(result.Hits))
	for _, h := range result.Hits {
		hits = append(hits, Hit{
			DocID:      fieldString(h.Fields, "doc_id"),
			DocNumID:   fieldUint64(h.Fields, "doc_num_id"),
			Collection: fieldString(h.Fields, "collection"),
			Path:       fieldString(h.Fields, "path"),
			Title:      fieldString(h.Fields, "title"),
			MTime:      fieldUint64(h.Fields, "mtime"),
			Score:      h.Score,
		})
	}
	return hits, nil
}

// matchQuery searches title (2x boosted) and body, combining the two
// as a disjunction: a document's score is the sum of the field scores
// that matched, scaled by the fraction of the two fields that matched.
func matchQuery(queryStr string) *bleve.DisjunctionQuery {
	titleQ := bleve.NewMatchQuery(queryStr)
	titleQ.SetField("title")
	titleQ.SetBoost(2.0)

	bodyQ := bleve.NewMatchQuery(queryStr)
	bodyQ.SetField("body")

	dq := bleve.NewDisjunctionQuery(titleQ, bodyQ)
	dq.SetMin(0)
	return dq
}

// fuzzyQuery builds a Levenshtein-distance-1 term query per
// significant (length >= 3) query term, over both fields, unioned in
// one disjunction (matching term scores are summed). Returns nil if the
// query has no significant terms.
func fuzzyQuery(queryStr string) bleve.Query {
	terms := strings.Fields(strings.ToLower(queryStr))
	var disjuncts []bleve.Query
	for _, term := range terms {
		if len(term) < 3 {
			continue
		}
		titleFuzzy := bleve.NewFuzzyQuery(term)
		titleFuzzy.SetField("title")
		titleFuzzy.SetFuzziness(1)
		titleFuzzy.SetBoost(2.0)

		bodyFuzzy := bleve.NewFuzzyQuery(term)
		bodyFuzzy.SetField("body")
		bodyFuzzy.SetFuzziness(1)

		disjuncts = append(disjuncts, titleFuzzy, bodyFuzzy)
	}
	if len(disjuncts) == 0 {
		return nil
	}
	dq := bleve.NewDisjunctionQuery(disjuncts...)
	dq.SetMin(0)
	return dq
}

func fieldString(fields map[string]interface{}, key string) string {
	v, _ := fields[key].(string)
	return v
}

func fieldUint64(fields map[string]interface{}, key string) uint64 {
	switch v := fields[key].(type) {
	case float64:
		return uint64(v)
	case uint64:
		return v
	default:
		return 0
	}
}
