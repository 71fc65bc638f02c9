// Package diffsync implements the incremental diff and reconciliation
// algorithm of spec.md §4.9: classify observed files against stored
// metadata into new/changed/deleted, and apply deletions across every
// store. Grounded on internal/index/consistency.go's reconciliation
// shape (compare observed vs. stored, apply the delta), replacing its
// gitignore-driven reconciliation with docbert's mtime-driven one.
package diffsync

import (
	"context"

	"github.com/docbert/docbert/internal/configstore"
	"github.com/docbert/docbert/internal/embedstore"
	"github.com/docbert/docbert/internal/identity"
	"github.com/docbert/docbert/internal/textindex"
	"github.com/docbert/docbert/internal/walker"
)

// Diff is the classification result of spec.md §4.9.
type Diff struct {
	New     []walker.File
	Changed []walker.File
	Deleted []uint64
}

// Compute classifies observed against the collection's stored
// metadata: absent from stored -> New; mtime differs -> Changed;
// stored entries with no observed counterpart -> Deleted (by numeric
// ID).
func Compute(config *configstore.Store, collection string, observed []walker.File) (Diff, error) {
	stored, err := config.ListMetadataIn(collection)
	if err != nil {
		return Diff{}, err
	}

	storedByNumeric := make(map[uint64]configstore.DocumentMetadata, len(stored))
	for _, m := range stored {
		storedByNumeric[m.Numeric] = m
	}

	var diff Diff
	seen := make(map[uint64]bool, len(observed))
	for _, f := range observed {
		id := identity.Derive(collection, f.RelativePath)
		seen[id.Numeric] = true

		existing, ok := storedByNumeric[id.Numeric]
		switch {
		case !ok:
			diff.New = append(diff.New, f)
		case existing.MTime != f.MTime:
			diff.Changed = append(diff.Changed, f)
		}
	}

	for numeric := range storedByNumeric {
		if !seen[numeric] {
			diff.Deleted = append(diff.Deleted, numeric)
		}
	}
	return diff, nil
}

// ApplyDeletions removes every trace of the given numeric document
// IDs from the Text Index, Embedding Store, and Config Store, in that
// order so a crash mid-apply leaves the document merely "stale" rather
// than dangling in a store that still thinks it's present.
func ApplyDeletions(ctx context.Context, text *textindex.Index, embed *embedstore.Store, config *configstore.Store, numerics []uint64) error {
	if len(numerics) == 0 {
		return nil
	}

	writer := text.NewWriter()
	for _, numeric := range numerics {
		writer.DeleteByNumID(numeric)
	}
	if err := writer.Commit(); err != nil {
		return err
	}

	for _, numeric := range numerics {
		if err := removeChunkEmbeddings(embed, numeric); err != nil {
			return err
		}
		if err := config.DeleteMetadata(numeric); err != nil {
			return err
		}
	}
	return nil
}

// removeChunkEmbeddings removes every chunk embedding written for a
// document: identity.ChunkID(numeric, k) for k=0,1,2,… is deterministic
// and contiguous, so probing k upward until Remove reports a miss finds
// every key ingestion could have written, with no separate enumeration
// needed.
func removeChunkEmbeddings(embed *embedstore.Store, numeric uint64) error {
	for k := 0; ; k++ {
		existed, err := embed.Remove(identity.ChunkID(numeric, k))
		if err != nil {
			return err
		}
		if !existed {
			return nil
		}
	}
}
