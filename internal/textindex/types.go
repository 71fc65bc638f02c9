// Package textindex wraps github.com/blevesearch/bleve/v2 as the Text
// Index (spec.md §4.4): a BM25-scored inverted index over document
// title and body, with exact and fuzzy query paths.
//
// Grounded on the teacher's internal/store/bm25.go (BleveBM25Index):
// same corruption-check-then-recreate idiom on open, same
// custom-analyzer registration via init() + registry.RegisterTokenFilter.
// The analyzer itself differs — English prose instead of source code.
package textindex

// Document is a single unit written to the index. DocNumID is the
// authoritative key (bleve's internal document ID is derived from it);
// DocID is the short display form carried as a stored keyword field,
// indexed so FindByShortID can match it.
type Document struct {
	DocID      string
	DocNumID   uint64
	Collection string
	Path       string
	Title      string
	Body       string
	MTime      uint64
}

// Hit is a single scored search result.
type Hit struct {
	DocID      string
	DocNumID   uint64
	Collection string
	Path       string
	Title      string
	MTime      uint64
	Score      float64
}

// indexDoc is the JSON-ish shape bleve actually indexes; field names
// here are the mapping's field names.
type indexDoc struct {
	DocID      string `json:"doc_id"`
	DocNumID   uint64 `json:"doc_num_id"`
	Collection string `json:"collection"`
	Path       string `json:"path"`
	Title      string `json:"title"`
	Body       string `json:"body"`
	MTime      uint64 `json:"mtime"`
}
