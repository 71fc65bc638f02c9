// Package docbert wires the Config Store, Embedding Store, Text
// Index, and Encoder Facade into a single Engine consumed by both the
// CLI (cmd/docbert) and the MCP server (internal/mcpserver), the way
// the teacher's pkg/indexer and pkg/searcher each wrap a single
// storage concern behind one small interface for its two consumers.
package docbert

import (
	"context"
	"path/filepath"

	"github.com/docbert/docbert/internal/configstore"
	"github.com/docbert/docbert/internal/diffsync"
	"github.com/docbert/docbert/internal/docparse"
	"github.com/docbert/docbert/internal/embedstore"
	"github.com/docbert/docbert/internal/encoder"
	docerrors "github.com/docbert/docbert/internal/errors"
	"github.com/docbert/docbert/internal/identity"
	"github.com/docbert/docbert/internal/ingest"
	"github.com/docbert/docbert/internal/retrieval"
	"github.com/docbert/docbert/internal/textindex"
	"github.com/docbert/docbert/internal/walker"
	"github.com/docbert/docbert/internal/xdgpath"
)

// Engine is the single entry point into docbert's core operations.
type Engine struct {
	config *configstore.Store
	embed  *embedstore.Store
	text   *textindex.Index
	enc    encoder.Encoder

	ingester  *ingest.Ingester
	retriever *retrieval.Engine

	paths xdgpath.Paths
}

// Options configures Open.
type Options struct {
	// ModelOverride takes precedence over DOCBERT_MODEL and the
	// model_name setting (encoder.ResolveModelID's priority chain).
	ModelOverride string

	// Offline selects the deterministic StaticBackend instead of the
	// ColbertEncoder, mirroring the teacher's --offline flag.
	Offline bool
}

// Open bootstraps the data directory and every store, resolving the
// active model per encoder.ResolveModelID's priority chain.
func Open(opts Options) (*Engine, error) {
	paths, err := xdgpath.Bootstrap()
	if err != nil {
		return nil, err
	}

	config, err := configstore.Open(paths.ConfigDB)
	if err != nil {
		return nil, err
	}
	embed, err := embedstore.Open(paths.EmbeddingsDB)
	if err != nil {
		_ = config.Close()
		return nil, err
	}
	text, err := textindex.Open(paths.TextIndexDir)
	if err != nil {
		_ = config.Close()
		_ = embed.Close()
		return nil, err
	}

	settingValue, settingFound, err := config.GetSetting(configstore.SettingModelName)
	if err != nil {
		_ = config.Close()
		_ = embed.Close()
		_ = text.Close()
		return nil, err
	}
	modelID := encoder.ResolveModelID(opts.ModelOverride, settingValue, settingFound)

	var enc encoder.Encoder
	if opts.Offline {
		enc = encoder.NewStaticBackend()
	} else {
		enc, err = encoder.NewColbertEncoder(paths.DataDir, modelID)
		if err != nil {
			_ = config.Close()
			_ = embed.Close()
			_ = text.Close()
			return nil, err
		}
	}

	return &Engine{
		config: config,
		embed:  embed,
		text:   text,
		enc:    enc,
		ingester: &ingest.Ingester{
			Config:       config,
			Embed:        embed,
			Text:         text,
			Encoder:      enc,
			ChunkSize:    chunkDefaultSize,
			ChunkOverlap: chunkDefaultOverlap,
		},
		retriever: &retrieval.Engine{Text: text, Embed: embed, Config: config, Encoder: enc},
		paths:     paths,
	}, nil
}

// Close releases every store's resources.
func (e *Engine) Close() error {
	var firstErr error
	if err := e.text.Close(); err != nil && firstErr == nil {
		firstErr = err
	}
	if err := e.embed.Close(); err != nil && firstErr == nil {
		firstErr = err
	}
	if err := e.config.Close(); err != nil && firstErr == nil {
		firstErr = err
	}
	return firstErr
}

// --- collections ---

func (e *Engine) AddCollection(name, rootPath string) error {
	abs, err := filepath.Abs(rootPath)
	if err != nil {
		return docerrors.New(docerrors.ErrCodeConfigInvalid, "cannot resolve collection root path", err).
			WithDetail("path", rootPath)
	}
	return e.config.UpsertCollection(name, abs)
}

func (e *Engine) RemoveCollection(ctx context.Context, name string) error {
	numerics, err := e.config.RemoveCollection(name)
	if err != nil {
		return err
	}
	return diffsync.ApplyDeletions(ctx, e.text, e.embed, e.config, numerics)
}

func (e *Engine) ListCollections() ([]configstore.Collection, error) {
	return e.config.ListCollections()
}

// --- contexts ---

func (e *Engine) AddContext(uri, description string) error {
	return e.config.SetContext(uri, description)
}

func (e *Engine) RemoveContext(uri string) error {
	return e.config.RemoveContext(uri)
}

func (e *Engine) ListContexts() ([]configstore.Context, error) {
	return e.config.ListContexts()
}

// --- model settings ---

func (e *Engine) ModelShow() (value string, found bool, err error) {
	return e.config.GetSetting(configstore.SettingModelName)
}

func (e *Engine) ModelSet(modelID string) error {
	return e.config.SetSetting(configstore.SettingModelName, modelID)
}

func (e *Engine) ModelClear() error {
	return e.config.ClearSetting(configstore.SettingModelName)
}

// --- sync / ingest ---

const (
	chunkDefaultSize    = 1024
	chunkDefaultOverlap = 200
)

// SyncResult reports the outcome of reconciling one collection against
// disk (spec.md §4.8/§4.9).
type SyncResult struct {
	Collection string
	New        int
	Changed    int
	Deleted    int
	Failed     []ingest.FailedFile
}

// Sync walks collection's root, diffs it against stored metadata, and
// applies the new/changed/deleted reconciliation in one pass.
func (e *Engine) Sync(ctx context.Context, collection string) (SyncResult, error) {
	colls, err := e.config.ListCollections()
	if err != nil {
		return SyncResult{}, err
	}
	var root string
	found := false
	for _, c := range colls {
		if c.Name == collection {
			root = c.RootPath
			found = true
			break
		}
	}
	if !found {
		return SyncResult{}, docerrors.NotFound(docerrors.ErrCodeNotFoundCollection, "collection", collection)
	}

	observed, err := walker.Discover(root)
	if err != nil {
		return SyncResult{}, err
	}

	diff, err := diffsync.Compute(e.config, collection, observed)
	if err != nil {
		return SyncResult{}, err
	}

	toIngest := append(append([]walker.File{}, diff.New...), diff.Changed...)
	result := SyncResult{Collection: collection, New: len(diff.New), Changed: len(diff.Changed), Deleted: len(diff.Deleted)}

	if len(toIngest) > 0 {
		ingestResult, err := e.ingester.Ingest(ctx, collection, toIngest)
		if err != nil {
			return result, err
		}
		result.Failed = ingestResult.Failed
	}

	if err := diffsync.ApplyDeletions(ctx, e.text, e.embed, e.config, diff.Deleted); err != nil {
		return result, err
	}
	return result, nil
}

// Rebuild discards every indexed document for collection and reingests
// its root from scratch, the remedy for Store corruption (spec.md §6,
// §8 P-rebuild) since corruption is never auto-repaired.
func (e *Engine) Rebuild(ctx context.Context, collection string) (SyncResult, error) {
	meta, err := e.config.ListMetadataIn(collection)
	if err != nil {
		return SyncResult{}, err
	}
	numerics := make([]uint64, 0, len(meta))
	for _, m := range meta {
		numerics = append(numerics, m.Numeric)
	}
	if err := diffsync.ApplyDeletions(ctx, e.text, e.embed, e.config, numerics); err != nil {
		return SyncResult{}, err
	}
	return e.Sync(ctx, collection)
}

// RebuildAll runs Rebuild over every registered collection.
func (e *Engine) RebuildAll(ctx context.Context) ([]SyncResult, error) {
	colls, err := e.config.ListCollections()
	if err != nil {
		return nil, err
	}
	results := make([]SyncResult, 0, len(colls))
	for _, c := range colls {
		r, err := e.Rebuild(ctx, c.Name)
		if err != nil {
			return results, err
		}
		results = append(results, r)
	}
	return results, nil
}

// SyncAll runs Sync over every registered collection.
func (e *Engine) SyncAll(ctx context.Context) ([]SyncResult, error) {
	colls, err := e.config.ListCollections()
	if err != nil {
		return nil, err
	}
	results := make([]SyncResult, 0, len(colls))
	for _, c := range colls {
		r, err := e.Sync(ctx, c.Name)
		if err != nil {
			return results, err
		}
		results = append(results, r)
	}
	return results, nil
}

// --- retrieval ---

func (e *Engine) Search(ctx context.Context, p retrieval.HybridParams) ([]retrieval.Result, error) {
	return e.retriever.Search(ctx, p)
}

func (e *Engine) Semantic(ctx context.Context, p retrieval.SemanticParams) ([]retrieval.Result, error) {
	return e.retriever.Semantic(ctx, p)
}

// --- document lookup (docbert get / multi-get) ---

// Document is a single resolved document: current metadata plus its
// freshly re-read title/body (the file on disk is always the source
// of truth; content is never duplicated into the Text Index or
// Embedding Store beyond what each needs for its own job).
type Document struct {
	DocIDShort string
	DocNumID   uint64
	Collection string
	Path       string
	Title      string
	Body       string
	MTime      uint64
}

// Get resolves a short document ID (as printed in a search result,
// e.g. "abc123" or "#abc123") to its current content, re-reading the
// file from disk. First-match-wins on a short-ID collision, matching
// the display-form collision policy of identity.ID.
func (e *Engine) Get(ctx context.Context, docIDShort string) (Document, bool, error) {
	hit, found, err := e.text.FindByShortID(ctx, docIDShort)
	if err != nil || !found {
		return Document{}, found, err
	}
	return e.resolveDocument(hit)
}

// MultiGet resolves several short IDs in one call, skipping any that
// don't resolve rather than failing the whole batch.
func (e *Engine) MultiGet(ctx context.Context, docIDsShort []string) ([]Document, error) {
	docs := make([]Document, 0, len(docIDsShort))
	for _, id := range docIDsShort {
		doc, found, err := e.Get(ctx, id)
		if err != nil {
			return docs, err
		}
		if found {
			docs = append(docs, doc)
		}
	}
	return docs, nil
}

func (e *Engine) resolveDocument(hit textindex.Hit) (Document, bool, error) {
	colls, err := e.config.ListCollections()
	if err != nil {
		return Document{}, false, err
	}
	var root string
	for _, c := range colls {
		if c.Name == hit.Collection {
			root = c.RootPath
			break
		}
	}
	if root == "" {
		return Document{}, false, nil
	}

	parsed, err := docparse.Parse(filepath.Join(root, hit.Path))
	if err != nil {
		return Document{}, false, err
	}

	return Document{
		DocIDShort: identity.ShortForm(hit.DocNumID),
		DocNumID:   hit.DocNumID,
		Collection: hit.Collection,
		Path:       hit.Path,
		Title:      parsed.Title,
		Body:       parsed.Body,
		MTime:      hit.MTime,
	}, true, nil
}

// --- status ---

// Status summarizes the current index for diagnostics (docbert status
// / docbert_status).
type Status struct {
	Collections []CollectionStatus
	ModelID     string
	DataDir     string
}

// CollectionStatus is the per-collection portion of Status.
type CollectionStatus struct {
	Name          string
	RootPath      string
	DocumentCount int
}

func (e *Engine) Status() (Status, error) {
	colls, err := e.config.ListCollections()
	if err != nil {
		return Status{}, err
	}

	st := Status{DataDir: e.paths.DataDir, ModelID: e.enc.ModelID()}
	for _, c := range colls {
		meta, err := e.config.ListMetadataIn(c.Name)
		if err != nil {
			return Status{}, err
		}
		st.Collections = append(st.Collections, CollectionStatus{
			Name: c.Name, RootPath: c.RootPath, DocumentCount: len(meta),
		})
	}
	return st, nil
}
