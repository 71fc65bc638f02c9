// Package embedstore persists per-document token-embedding matrices
// in a bbolt database, keyed by the numeric document/chunk ID, using
// the bit-exact wire format of spec.md §3:
//
//	[u32 LE num_tokens][u32 LE dimension][data: f32 LE, token-major]
package embedstore

import (
	"encoding/binary"
	"math"
	"strconv"

	bolt "go.etcd.io/bbolt"

	docerrors "github.com/docbert/docbert/internal/errors"
)

var bucketVectors = []byte("vectors")

// Matrix is the in-memory counterpart of the wire-format embedding.
type Matrix struct {
	NumTokens uint32
	Dimension uint32
	Data      []float32
}

// Store is the Embedding Store: a single bucket keyed by numeric ID,
// independent of the Config Store so it can be backed up, compacted,
// or rebuilt on its own (spec.md §4.3).
type Store struct {
	db *bolt.DB
}

// Open opens (creating if absent) the Embedding Store at path.
func Open(path string) (*Store, error) {
	db, err := bolt.Open(path, 0o600, nil)
	if err != nil {
		return nil, docerrors.New(docerrors.ErrCodeStoreOpen, "cannot open embedding store", err).
			WithDetail("path", path)
	}
	err = db.Update(func(tx *bolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists(bucketVectors)
		return err
	})
	if err != nil {
		_ = db.Close()
		return nil, docerrors.Wrap(docerrors.ErrCodeStoreOpen, err)
	}
	return &Store{db: db}, nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

func numericKey(id uint64) []byte {
	buf := make([]byte, 8)
	binary.BigEndian.PutUint64(buf, id)
	return buf
}

// Encode serializes a matrix to its bit-exact wire layout (P2/I4).
func Encode(numTokens, dimension uint32, data []float32) []byte {
	buf := make([]byte, 8+len(data)*4)
	binary.LittleEndian.PutUint32(buf[0:4], numTokens)
	binary.LittleEndian.PutUint32(buf[4:8], dimension)
	for i, f := range data {
		binary.LittleEndian.PutUint32(buf[8+i*4:12+i*4], math.Float32bits(f))
	}
	return buf
}

// Decode parses the wire layout, validating that the payload length
// matches num_tokens*dimension*4 + 8; a mismatch is a Store corruption
// error (spec.md §4.3).
func Decode(raw []byte) (Matrix, error) {
	if len(raw) < 8 {
		return Matrix{}, docerrors.StoreCorruption("embedding payload shorter than header", nil)
	}
	numTokens := binary.LittleEndian.Uint32(raw[0:4])
	dimension := binary.LittleEndian.Uint32(raw[4:8])
	wantLen := 8 + int(numTokens)*int(dimension)*4
	if len(raw) != wantLen {
		return Matrix{}, docerrors.StoreCorruption("embedding payload length mismatch", nil).
			WithDetail("want_len", strconv.Itoa(wantLen)).WithDetail("got_len", strconv.Itoa(len(raw)))
	}
	data := make([]float32, int(numTokens)*int(dimension))
	for i := range data {
		off := 8 + i*4
		data[i] = math.Float32frombits(binary.LittleEndian.Uint32(raw[off : off+4]))
	}
	return Matrix{NumTokens: numTokens, Dimension: dimension, Data: data}, nil
}

// Put writes (overwriting) the embedding matrix at id.
func (s *Store) Put(id uint64, numTokens, dimension uint32, data []float32) error {
	raw := Encode(numTokens, dimension, data)
	return s.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket(bucketVectors).Put(numericKey(id), raw)
	})
}

// Get reads and decodes the embedding matrix at id, returning
// found=false if absent.
func (s *Store) Get(id uint64) (Matrix, bool, error) {
	var m Matrix
	found := false
	var decodeErr error
	err := s.db.View(func(tx *bolt.Tx) error {
		raw := tx.Bucket(bucketVectors).Get(numericKey(id))
		if raw == nil {
			return nil
		}
		found = true
		// Copy out of the mmap'd page before the transaction ends.
		cp := make([]byte, len(raw))
		copy(cp, raw)
		m, decodeErr = Decode(cp)
		return nil
	})
	if err != nil {
		return Matrix{}, false, err
	}
	if decodeErr != nil {
		return Matrix{}, false, decodeErr
	}
	return m, found, nil
}

// Remove deletes the embedding at id, reporting whether it existed.
func (s *Store) Remove(id uint64) (bool, error) {
	existed := false
	err := s.db.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket(bucketVectors)
		existed = b.Get(numericKey(id)) != nil
		return b.Delete(numericKey(id))
	})
	return existed, err
}

// BatchPut writes multiple matrices in one transaction, preserving the
// caller's ordering guarantees are irrelevant to a keyed store, but
// the single transaction means one fsync for the whole batch.
func (s *Store) BatchPut(ids []uint64, matrices []Matrix) error {
	if len(ids) != len(matrices) {
		return docerrors.New(docerrors.ErrCodeNumericShapeMismatch,
			"ids and matrices length mismatch", nil)
	}
	return s.db.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket(bucketVectors)
		for i, id := range ids {
			m := matrices[i]
			if err := b.Put(numericKey(id), Encode(m.NumTokens, m.Dimension, m.Data)); err != nil {
				return err
			}
		}
		return nil
	})
}

// BatchGet reads multiple matrices, preserving input order and
// yielding a zero Matrix with found=false for any missing ID.
func (s *Store) BatchGet(ids []uint64) ([]Matrix, []bool, error) {
	matrices := make([]Matrix, len(ids))
	found := make([]bool, len(ids))
	var firstErr error
	err := s.db.View(func(tx *bolt.Tx) error {
		b := tx.Bucket(bucketVectors)
		for i, id := range ids {
			raw := b.Get(numericKey(id))
			if raw == nil {
				continue
			}
			cp := make([]byte, len(raw))
			copy(cp, raw)
			m, err := Decode(cp)
			if err != nil {
				if firstErr == nil {
					firstErr = err
				}
				continue
			}
			matrices[i] = m
			found[i] = true
		}
		return nil
	})
	if err != nil {
		return nil, nil, err
	}
	if firstErr != nil {
		return nil, nil, firstErr
	}
	return matrices, found, nil
}

// BatchRemove deletes multiple embeddings in one transaction.
func (s *Store) BatchRemove(ids []uint64) error {
	return s.db.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket(bucketVectors)
		for _, id := range ids {
			if err := b.Delete(numericKey(id)); err != nil {
				return err
			}
		}
		return nil
	})
}

// ListIDs returns every numeric ID currently stored, one per chunk —
// this includes chunk-0 AND every trailing chunk of documents spanning
// more than one chunk window. Callers that want one entry per document
// (e.g. retrieval, which only ever consumes chunk 0) must enumerate
// document identities elsewhere, not from this store's key set.
func (s *Store) ListIDs() ([]uint64, error) {
	var ids []uint64
	err := s.db.View(func(tx *bolt.Tx) error {
		return tx.Bucket(bucketVectors).ForEach(func(k, _ []byte) error {
			ids = append(ids, binary.BigEndian.Uint64(k))
			return nil
		})
	})
	return ids, err
}
