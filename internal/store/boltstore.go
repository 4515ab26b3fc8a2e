package store

import (
	"fmt"
	"path/filepath"

	"github.com/boltdb/bolt"
	"github.com/hashicorp/go-hclog"

	"github.com/heysubinoy/adrakdb/pkg/kv"
)

const boltFile = "bolt.db"

var boltBucket = []byte("kv")

// BoltStore adapts a bolt database to the kv.Engine interface. It owns
// no log format of its own; durability and space reclamation are bolt's
// problem.
type BoltStore struct {
	db     *bolt.DB
	logger hclog.Logger
}

// Compile-time check to ensure BoltStore implements kv.Engine.
var _ kv.Engine = (*BoltStore)(nil)

// OpenBoltStore opens or creates a bolt-backed engine in dir.
func OpenBoltStore(dir string, logger hclog.Logger) (*BoltStore, error) {
	if logger == nil {
		logger = hclog.NewNullLogger()
	}

	db, err := bolt.Open(filepath.Join(dir, boltFile), 0600, nil)
	if err != nil {
		return nil, fmt.Errorf("open bolt database: %w", err)
	}

	err = db.Update(func(tx *bolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists(boltBucket)
		return err
	})
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("create bolt bucket: %w", err)
	}

	logger.Info("bolt engine opened", "dir", dir)
	return &BoltStore{db: db, logger: logger}, nil
}

// Get retrieves a value by key.
func (s *BoltStore) Get(key string) (string, bool, error) {
	var value string
	var found bool
	err := s.db.View(func(tx *bolt.Tx) error {
		// The returned slice is only valid inside the transaction.
		if v := tx.Bucket(boltBucket).Get([]byte(key)); v != nil {
			value = string(v)
			found = true
		}
		return nil
	})
	if err != nil {
		return "", false, fmt.Errorf("bolt get: %w", err)
	}
	return value, found, nil
}

// Set stores a key-value pair.
func (s *BoltStore) Set(key, value string) error {
	err := s.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket(boltBucket).Put([]byte(key), []byte(value))
	})
	if err != nil {
		return fmt.Errorf("bolt set: %w", err)
	}
	return nil
}

// Remove deletes a key, failing with kv.ErrKeyNotFound if it is absent.
func (s *BoltStore) Remove(key string) error {
	err := s.db.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket(boltBucket)
		if b.Get([]byte(key)) == nil {
			return kv.ErrKeyNotFound
		}
		return b.Delete([]byte(key))
	})
	if err != nil && err != kv.ErrKeyNotFound {
		return fmt.Errorf("bolt remove: %w", err)
	}
	return err
}

// Close closes the underlying bolt database.
func (s *BoltStore) Close() error {
	return s.db.Close()
}
