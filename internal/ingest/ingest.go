// Package ingest runs the five-step ingestion algorithm of spec.md
// §4.8: derive identity, delete any stale Text Index entry, index the
// document's title/body, chunk and encode the body into the Embedding
// Store, and persist the authoritative metadata row. Grounded on the
// batching and per-document error isolation shape of
// internal/index/coordinator.go, generalized from file-event handling
// down to docbert's explicit file-list ingest call.
package ingest

import (
	"context"
	"log/slog"

	"github.com/docbert/docbert/internal/chunk"
	"github.com/docbert/docbert/internal/configstore"
	"github.com/docbert/docbert/internal/docparse"
	"github.com/docbert/docbert/internal/embedstore"
	"github.com/docbert/docbert/internal/encoder"
	docerrors "github.com/docbert/docbert/internal/errors"
	"github.com/docbert/docbert/internal/identity"
	"github.com/docbert/docbert/internal/textindex"
	"github.com/docbert/docbert/internal/walker"
)

// Ingester wires together the stores and encoder needed to ingest
// discovered files into a collection.
type Ingester struct {
	Config       *configstore.Store
	Embed        *embedstore.Store
	Text         *textindex.Index
	Encoder      encoder.Encoder
	ChunkSize    int
	ChunkOverlap int
}

// Result reports how many files were committed and which, if any,
// were skipped due to a per-document failure.
type Result struct {
	Indexed int
	Failed  []FailedFile
}

// FailedFile names a file that could not be ingested and why.
type FailedFile struct {
	RelativePath string
	Err          error
}

// Ingest runs spec.md §4.8 over files, committing the Text Index
// writer once at the end of the batch. A failure on one file is
// logged and skipped; the rest of the batch still commits (§7's
// propagation policy).
func (ig *Ingester) Ingest(ctx context.Context, collection string, files []walker.File) (Result, error) {
	writer := ig.Text.NewWriter()

	var result Result
	for _, f := range files {
		if err := ig.ingestOne(ctx, writer, collection, f); err != nil {
			slog.Warn("ingest_failed",
				slog.String("collection", collection),
				slog.String("path", f.RelativePath),
				slog.String("error", err.Error()))
			result.Failed = append(result.Failed, FailedFile{RelativePath: f.RelativePath, Err: err})
			continue
		}
		result.Indexed++
	}

	if result.Indexed > 0 {
		if err := writer.Commit(); err != nil {
			return result, err
		}
	}
	return result, nil
}

func (ig *Ingester) ingestOne(ctx context.Context, writer *textindex.Writer, collection string, f walker.File) error {
	// Step 1: derive identity.
	id := identity.Derive(collection, f.RelativePath)

	doc, err := docparse.Parse(f.AbsolutePath)
	if err != nil {
		return err
	}

	// Step 2: delete any stale Text Index entry for this identity.
	writer.DeleteByNumID(id.Numeric)

	// Step 3: index title/body.
	if err := writer.AddDocument(textindex.Document{
		DocID:      id.String(),
		DocNumID:   id.Numeric,
		Collection: collection,
		Path:       f.RelativePath,
		Title:      doc.Title,
		Body:       doc.Body,
		MTime:      f.MTime,
	}); err != nil {
		return err
	}

	// Step 4: chunk, encode, write embeddings. The chunk-0 embedding is
	// written eagerly since it's required for current retrieval (§4.8);
	// chunks beyond 0 are written in the same pass for simplicity — the
	// spec permits lazy computation but doesn't require it.
	chunks := chunk.Split(doc.Body, ig.ChunkSize, ig.ChunkOverlap)
	texts := make([]string, len(chunks))
	for i, c := range chunks {
		texts[i] = c.Text
	}
	matrices, err := ig.Encoder.EncodeDocuments(ctx, texts)
	if err != nil {
		return err
	}
	if len(matrices) != len(chunks) {
		return docerrors.New(docerrors.ErrCodeNumericShapeMismatch,
			"encoder returned a different number of matrices than chunks", nil)
	}
	for i, m := range matrices {
		chunkID := identity.ChunkID(id.Numeric, chunks[i].Index)
		if err := ig.Embed.Put(chunkID, uint32(m.NumTokens), uint32(m.Dimension), m.Data); err != nil {
			return err
		}
	}

	// A re-ingested document may now chunk into fewer pieces than it
	// did on a prior pass (its body shrank); anything beyond the
	// current chunk set is a stranded embedding from that earlier
	// write and must be removed or it lingers forever (never scored,
	// never cleaned up by a later deletion that only knows today's
	// chunk count).
	for k := len(chunks); ; k++ {
		existed, err := ig.Embed.Remove(identity.ChunkID(id.Numeric, k))
		if err != nil {
			return err
		}
		if !existed {
			break
		}
	}

	// Step 5: persist the authoritative metadata row, only after every
	// embedding for this document has been durably written — never
	// leave metadata without its embedding.
	if err := ig.Config.PutMetadata(id.Numeric, collection, f.RelativePath, f.MTime); err != nil {
		return err
	}
	return nil
}
