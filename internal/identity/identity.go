// Package identity derives stable document identities from a
// (collection, relative path) pair. The hash algorithm is part of the
// on-disk schema: changing it invalidates every persisted numeric ID
// and requires a rebuild (see SchemaVersion).
package identity

import (
	"fmt"

	"github.com/cespare/xxhash/v2"
)

// SchemaVersion is frozen alongside the hash algorithm below. Bump it
// (and migrate stored IDs) if the algorithm ever changes.
const SchemaVersion = 1

// unitSeparator keeps ("ab", "c") and ("a", "bc") from colliding when
// the collection name and relative path are concatenated.
const unitSeparator = "\x1f"

// ID is a document's identity: a 64-bit numeric key used in every
// store, plus its 6-hex-character display form.
type ID struct {
	Numeric uint64
	Short   string
}

// String renders the short form with its display prefix, e.g. "#abc123".
func (id ID) String() string {
	return "#" + id.Short
}

// Derive computes the deterministic identity for a (collection,
// relativePath) pair. The same inputs always produce the same Numeric,
// across runs and platforms (P1).
func Derive(collection, relativePath string) ID {
	numeric := xxhash.Sum64String(collection + unitSeparator + relativePath)
	return ID{
		Numeric: numeric,
		Short:   shortForm(numeric),
	}
}

// shortForm renders the low 24 bits of numeric as 6 lowercase hex
// characters, zero-padded.
func shortForm(numeric uint64) string {
	return fmt.Sprintf("%06x", numeric&0xFFFFFF)
}

// ShortForm exposes shortForm for callers that already hold a numeric
// ID (e.g. read back from a store) and need its display form without
// re-deriving it from (collection, path).
func ShortForm(numeric uint64) string {
	return shortForm(numeric)
}

// ChunkID derives the identity of chunk `index` of the document whose
// base numeric ID is `base`. index 0 always equals base, matching the
// convention that chunk 0 is the document's own embedding key.
func ChunkID(base uint64, index int) uint64 {
	return base ^ (uint64(index) << 48)
}
