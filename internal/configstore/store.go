package configstore

import (
	"bytes"
	"encoding/binary"
	"encoding/gob"
	"fmt"

	bolt "go.etcd.io/bbolt"

	docerrors "github.com/docbert/docbert/internal/errors"
	"github.com/docbert/docbert/internal/identity"
)

var (
	bucketCollections = []byte("collections")
	bucketContexts    = []byte("contexts")
	bucketMetadata    = []byte("document_metadata")
	bucketSettings    = []byte("settings")
	bucketMetaByColl  = []byte("metadata_by_collection")
)

var allBuckets = [][]byte{
	bucketCollections, bucketContexts, bucketMetadata, bucketSettings, bucketMetaByColl,
}

// Store is the Config Store: a single-writer, multi-reader
// transactional key-value database with four logical tables plus one
// secondary index (spec.md §4.2).
type Store struct {
	db *bolt.DB
}

// Open opens (creating if absent) the Config Store at path, ensures
// its buckets exist, and checks the identity schema version.
func Open(path string) (*Store, error) {
	db, err := bolt.Open(path, 0o600, nil)
	if err != nil {
		return nil, docerrors.New(docerrors.ErrCodeStoreOpen, "cannot open config store", err).
			WithDetail("path", path)
	}

	s := &Store{db: db}
	if err := s.init(); err != nil {
		_ = db.Close()
		return nil, err
	}
	return s, nil
}

func (s *Store) init() error {
	err := s.db.Update(func(tx *bolt.Tx) error {
		for _, b := range allBuckets {
			if _, err := tx.CreateBucketIfNotExists(b); err != nil {
				return err
			}
		}

		settings := tx.Bucket(bucketSettings)
		existing := settings.Get([]byte(SchemaVersionKey))
		if existing == nil {
			return settings.Put([]byte(SchemaVersionKey), []byte(fmt.Sprintf("%d", identity.SchemaVersion)))
		}
		want := fmt.Sprintf("%d", identity.SchemaVersion)
		if string(existing) != want {
			return docerrors.StoreCorruption(
				fmt.Sprintf("config store schema version %s does not match expected %s", existing, want), nil)
		}
		return nil
	})
	if err != nil {
		if de, ok := err.(*docerrors.DocbertError); ok {
			return de
		}
		return docerrors.Wrap(docerrors.ErrCodeStoreOpen, err)
	}
	return nil
}

// Close releases the underlying database file.
func (s *Store) Close() error {
	return s.db.Close()
}

func numericKey(n uint64) []byte {
	buf := make([]byte, 8)
	binary.BigEndian.PutUint64(buf, n)
	return buf
}

func collectionIndexKey(collection string, numeric uint64) []byte {
	var buf bytes.Buffer
	buf.WriteString(collection)
	buf.WriteByte(0)
	buf.Write(numericKey(numeric))
	return buf.Bytes()
}

// --- collections ---

// UpsertCollection registers a collection. Re-adding an existing name
// with a different root path is an error (names are unique).
func (s *Store) UpsertCollection(name, rootPath string) error {
	return s.db.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket(bucketCollections)
		if existing := b.Get([]byte(name)); existing != nil {
			var c Collection
			if err := gobDecode(existing, &c); err != nil {
				return err
			}
			if c.RootPath != rootPath {
				return docerrors.New(docerrors.ErrCodeConfigDuplicate,
					fmt.Sprintf("collection %q already exists with a different root path", name), nil).
					WithDetail("existing_root", c.RootPath).WithDetail("requested_root", rootPath)
			}
			return nil
		}
		raw, err := gobEncode(Collection{Name: name, RootPath: rootPath})
		if err != nil {
			return err
		}
		return b.Put([]byte(name), raw)
	})
}

// ListCollections returns all registered collections.
func (s *Store) ListCollections() ([]Collection, error) {
	var out []Collection
	err := s.db.View(func(tx *bolt.Tx) error {
		return tx.Bucket(bucketCollections).ForEach(func(_, v []byte) error {
			var c Collection
			if err := gobDecode(v, &c); err != nil {
				return err
			}
			out = append(out, c)
			return nil
		})
	})
	return out, err
}

// RemoveCollection deletes the collection row and every document
// metadata row under it, returning the numeric IDs that were removed
// so the caller can purge the Text Index and Embedding Store too (I2).
func (s *Store) RemoveCollection(name string) ([]uint64, error) {
	var removed []uint64
	err := s.db.Update(func(tx *bolt.Tx) error {
		colls := tx.Bucket(bucketCollections)
		if colls.Get([]byte(name)) == nil {
			return docerrors.NotFound(docerrors.ErrCodeNotFoundCollection, "collection", name)
		}

		index := tx.Bucket(bucketMetaByColl)
		meta := tx.Bucket(bucketMetadata)

		prefix := append([]byte(name), 0)
		c := index.Cursor()
		for k, _ := c.Seek(prefix); k != nil && bytes.HasPrefix(k, prefix); k, _ = c.Next() {
			numeric := binary.BigEndian.Uint64(k[len(prefix):])
			removed = append(removed, numeric)
		}
		for _, numeric := range removed {
			if err := index.Delete(collectionIndexKey(name, numeric)); err != nil {
				return err
			}
			if err := meta.Delete(numericKey(numeric)); err != nil {
				return err
			}
		}
		return colls.Delete([]byte(name))
	})
	if err != nil {
		return nil, err
	}
	return removed, nil
}

// --- contexts ---

func (s *Store) SetContext(uri, description string) error {
	return s.db.Update(func(tx *bolt.Tx) error {
		raw, err := gobEncode(Context{URI: uri, Description: description})
		if err != nil {
			return err
		}
		return tx.Bucket(bucketContexts).Put([]byte(uri), raw)
	})
}

func (s *Store) GetContext(uri string) (Context, bool, error) {
	var ctx Context
	found := false
	err := s.db.View(func(tx *bolt.Tx) error {
		raw := tx.Bucket(bucketContexts).Get([]byte(uri))
		if raw == nil {
			return nil
		}
		found = true
		return gobDecode(raw, &ctx)
	})
	return ctx, found, err
}

func (s *Store) ListContexts() ([]Context, error) {
	var out []Context
	err := s.db.View(func(tx *bolt.Tx) error {
		return tx.Bucket(bucketContexts).ForEach(func(_, v []byte) error {
			var c Context
			if err := gobDecode(v, &c); err != nil {
				return err
			}
			out = append(out, c)
			return nil
		})
	})
	return out, err
}

func (s *Store) RemoveContext(uri string) error {
	return s.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket(bucketContexts).Delete([]byte(uri))
	})
}

// --- document metadata ---

// PutMetadata writes (or overwrites) the metadata row for numeric,
// maintaining the collection secondary index.
func (s *Store) PutMetadata(numeric uint64, collection, relativePath string, mtime uint64) error {
	return s.db.Update(func(tx *bolt.Tx) error {
		return putMetadataTx(tx, numeric, collection, relativePath, mtime)
	})
}

func putMetadataTx(tx *bolt.Tx, numeric uint64, collection, relativePath string, mtime uint64) error {
	meta := tx.Bucket(bucketMetadata)
	index := tx.Bucket(bucketMetaByColl)

	if existing := meta.Get(numericKey(numeric)); existing != nil {
		var old DocumentMetadata
		if err := gobDecode(existing, &old); err != nil {
			return err
		}
		if old.Collection != collection {
			if err := index.Delete(collectionIndexKey(old.Collection, numeric)); err != nil {
				return err
			}
		}
	}

	raw, err := gobEncode(DocumentMetadata{
		Numeric:      numeric,
		Collection:   collection,
		RelativePath: relativePath,
		MTime:        mtime,
	})
	if err != nil {
		return err
	}
	if err := meta.Put(numericKey(numeric), raw); err != nil {
		return err
	}
	return index.Put(collectionIndexKey(collection, numeric), nil)
}

func (s *Store) GetMetadata(numeric uint64) (DocumentMetadata, bool, error) {
	var m DocumentMetadata
	found := false
	err := s.db.View(func(tx *bolt.Tx) error {
		raw := tx.Bucket(bucketMetadata).Get(numericKey(numeric))
		if raw == nil {
			return nil
		}
		found = true
		return gobDecode(raw, &m)
	})
	return m, found, err
}

func (s *Store) ListMetadataIn(collection string) ([]DocumentMetadata, error) {
	var out []DocumentMetadata
	err := s.db.View(func(tx *bolt.Tx) error {
		meta := tx.Bucket(bucketMetadata)
		index := tx.Bucket(bucketMetaByColl)
		prefix := append([]byte(collection), 0)
		c := index.Cursor()
		for k, _ := c.Seek(prefix); k != nil && bytes.HasPrefix(k, prefix); k, _ = c.Next() {
			numeric := binary.BigEndian.Uint64(k[len(prefix):])
			raw := meta.Get(numericKey(numeric))
			if raw == nil {
				continue
			}
			var m DocumentMetadata
			if err := gobDecode(raw, &m); err != nil {
				return err
			}
			out = append(out, m)
		}
		return nil
	})
	return out, err
}

// ListAllMetadata returns every document metadata row across every
// collection, read directly off the primary bucket rather than the
// per-collection secondary index. Callers that need chunk-0 document
// identities without caring which collection they belong to (e.g.
// semantic search) should use this instead of enumerating another
// store's keys.
func (s *Store) ListAllMetadata() ([]DocumentMetadata, error) {
	var out []DocumentMetadata
	err := s.db.View(func(tx *bolt.Tx) error {
		return tx.Bucket(bucketMetadata).ForEach(func(_, v []byte) error {
			var m DocumentMetadata
			if err := gobDecode(v, &m); err != nil {
				return err
			}
			out = append(out, m)
			return nil
		})
	})
	return out, err
}

func (s *Store) DeleteMetadata(numeric uint64) error {
	return s.db.Update(func(tx *bolt.Tx) error {
		return deleteMetadataTx(tx, numeric)
	})
}

func deleteMetadataTx(tx *bolt.Tx, numeric uint64) error {
	meta := tx.Bucket(bucketMetadata)
	raw := meta.Get(numericKey(numeric))
	if raw == nil {
		return nil
	}
	var m DocumentMetadata
	if err := gobDecode(raw, &m); err != nil {
		return err
	}
	if err := tx.Bucket(bucketMetaByColl).Delete(collectionIndexKey(m.Collection, numeric)); err != nil {
		return err
	}
	return meta.Delete(numericKey(numeric))
}

// --- settings ---

func (s *Store) SetSetting(key, value string) error {
	return s.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket(bucketSettings).Put([]byte(key), []byte(value))
	})
}

func (s *Store) GetSetting(key string) (string, bool, error) {
	var value string
	found := false
	err := s.db.View(func(tx *bolt.Tx) error {
		raw := tx.Bucket(bucketSettings).Get([]byte(key))
		if raw == nil {
			return nil
		}
		found = true
		value = string(raw)
		return nil
	})
	return value, found, err
}

func (s *Store) ClearSetting(key string) error {
	return s.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket(bucketSettings).Delete([]byte(key))
	})
}

// --- bulk ingestion ---

// Batch runs fn against a single bbolt write transaction, so a whole
// ingest batch of metadata puts/deletes commits (and fsyncs) once
// instead of once per document (spec.md §4.2's "stage writes ...
// followed by a durable commit").
func (s *Store) Batch(fn func(*BatchTx) error) error {
	return s.db.Update(func(tx *bolt.Tx) error {
		return fn(&BatchTx{tx: tx})
	})
}

// BatchTx exposes the subset of Store operations valid inside Batch.
type BatchTx struct {
	tx *bolt.Tx
}

func (b *BatchTx) PutMetadata(numeric uint64, collection, relativePath string, mtime uint64) error {
	return putMetadataTx(b.tx, numeric, collection, relativePath, mtime)
}

func (b *BatchTx) DeleteMetadata(numeric uint64) error {
	return deleteMetadataTx(b.tx, numeric)
}

func gobEncode(v any) ([]byte, error) {
	var buf bytes.Buffer
	if err := gob.NewEncoder(&buf).Encode(v); err != nil {
		return nil, docerrors.Wrap(docerrors.ErrCodeStoreCommit, err)
	}
	return buf.Bytes(), nil
}

func gobDecode(raw []byte, v any) error {
	if err := gob.NewDecoder(bytes.NewReader(raw)).Decode(v); err != nil {
		return docerrors.StoreCorruption("malformed config store record", err)
	}
	return nil
}
