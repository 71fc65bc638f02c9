// Package configstore persists collections, contexts, per-document
// metadata, and settings in a single transactional key-value database
// backed by go.etcd.io/bbolt. bbolt's transaction model — one writer,
// any number of concurrent MVCC readers over a consistent snapshot,
// fsync on every write commit — is the single-writer/multi-reader
// contract spec.md §4.2 describes.
package configstore

// Collection is a named, rooted directory tree registered for indexing.
type Collection struct {
	Name     string
	RootPath string
}

// DocumentMetadata is the authoritative record of "this document is
// currently indexed" (spec.md §3).
type DocumentMetadata struct {
	Numeric      uint64
	Collection   string
	RelativePath string
	MTime        uint64
}

// Context is a display-only reference kept for agent-facing tooling.
type Context struct {
	URI         string // "bert://<collection>"
	Description string
}

// SettingModelName is the only semantically load-bearing settings key
// (spec.md §3).
const SettingModelName = "model_name"

// SchemaVersionKey stores the frozen identity-hash schema version so a
// store opened against a different version can be detected and the
// operator pointed at rebuild.
const SchemaVersionKey = "_schema_version"
