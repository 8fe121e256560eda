// Package kvstore is a bbolt-backed local cache: raw transaction bytes by
// txid, and raw (still CBOR-encoded) token metadata bytes by reference. It
// exists to avoid re-fetching from the chain gateway on every restart.
package kvstore

import (
	"fmt"
	"time"

	bolt "go.etcd.io/bbolt"
)

var (
	bucketRawTx    = []byte("raw_tx_by_txid")
	bucketTokenRef = []byte("token_group_by_ref")
)

// Store wraps one bbolt database file.
type Store struct {
	db *bolt.DB
}

// Open creates (if needed) and opens the bbolt database at path, ensuring
// both buckets exist before returning, exactly as the teacher's
// node/store.Open does for its own bucket set.
func Open(path string) (*Store, error) {
	db, err := bolt.Open(path, 0o600, &bolt.Options{Timeout: 1 * time.Second})
	if err != nil {
		return nil, fmt.Errorf("kvstore: open bbolt: %w", err)
	}
	s := &Store{db: db}
	if err := s.db.Update(func(tx *bolt.Tx) error {
		for _, b := range [][]byte{bucketRawTx, bucketTokenRef} {
			if _, err := tx.CreateBucketIfNotExists(b); err != nil {
				return fmt.Errorf("create bucket %s: %w", string(b), err)
			}
		}
		return nil
	}); err != nil {
		_ = db.Close()
		return nil, err
	}
	return s, nil
}

// Close releases the underlying file lock.
func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

// PutTx caches rawTx under txid.
func (s *Store) PutTx(txid [32]byte, rawTx []byte) error {
	return s.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket(bucketRawTx).Put(txid[:], rawTx)
	})
}

// GetTx retrieves a cached transaction's raw bytes, if present.
func (s *Store) GetTx(txid [32]byte) ([]byte, bool, error) {
	var out []byte
	err := s.db.View(func(tx *bolt.Tx) error {
		v := tx.Bucket(bucketRawTx).Get(txid[:])
		if v == nil {
			return nil
		}
		out = append([]byte(nil), v...)
		return nil
	})
	if err != nil {
		return nil, false, err
	}
	return out, out != nil, nil
}

// PutTokenMetadata caches raw (still-CBOR-encoded) metadata bytes under ref.
func (s *Store) PutTokenMetadata(ref [36]byte, raw []byte) error {
	return s.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket(bucketTokenRef).Put(ref[:], raw)
	})
}

// GetTokenMetadata retrieves cached raw metadata bytes for ref, if present.
func (s *Store) GetTokenMetadata(ref [36]byte) ([]byte, bool, error) {
	var out []byte
	err := s.db.View(func(tx *bolt.Tx) error {
		v := tx.Bucket(bucketTokenRef).Get(ref[:])
		if v == nil {
			return nil
		}
		out = append([]byte(nil), v...)
		return nil
	})
	if err != nil {
		return nil, false, err
	}
	return out, out != nil, nil
}
