package storage

import (
	"errors"
	"fmt"

	"github.com/adenium-io/adenium-go/pkg/core/storage/dbconfig"
	"github.com/cockroachdb/pebble"
)

// PebbleStore is a Store backed by a Pebble LSM database.
type PebbleStore struct {
	db *pebble.DB
}

// NewPebbleStore opens (creating if needed) a Pebble database in the
// configured directory.
func NewPebbleStore(cfg dbconfig.PebbleDBOptions) (*PebbleStore, error) {
	opts := &pebble.Options{
		ReadOnly:         cfg.ReadOnly,
		ErrorIfNotExists: cfg.ReadOnly,
	}
	if cfg.CacheSize > 0 {
		cache := pebble.NewCache(cfg.CacheSize)
		defer cache.Unref()
		opts.Cache = cache
	}
	db, err := pebble.Open(cfg.DataDirectoryPath, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to open Pebble instance: %w", err)
	}
	return &PebbleStore{db: db}, nil
}

// Get implements the Store interface.
func (s *PebbleStore) Get(key []byte) ([]byte, error) {
	val, closer, err := s.db.Get(key)
	if err != nil {
		if errors.Is(err, pebble.ErrNotFound) {
			return nil, ErrKeyNotFound
		}
		return nil, err
	}
	defer closer.Close()

	valCopy := make([]byte, len(val))
	copy(valCopy, val)
	return valCopy, nil
}

// Put implements the Store interface.
func (s *PebbleStore) Put(key, value []byte) error {
	return s.db.Set(key, value, pebble.NoSync)
}

// Delete implements the Store interface.
func (s *PebbleStore) Delete(key []byte) error {
	return s.db.Delete(key, pebble.NoSync)
}

// PutChangeSet implements the Store interface.
func (s *PebbleStore) PutChangeSet(puts map[string][]byte) error {
	batch := s.db.NewBatch()
	defer batch.Close()

	for k, v := range puts {
		var err error
		if v != nil {
			err = batch.Set([]byte(k), v, nil)
		} else {
			err = batch.Delete([]byte(k), nil)
		}
		if err != nil {
			return err
		}
	}
	return batch.Commit(pebble.NoSync)
}

// Seek implements the Store interface.
func (s *PebbleStore) Seek(rng SeekRange, f func(k, v []byte) bool) {
	rang := seekRangeToPrefixes(rng)
	iter, err := s.db.NewIter(&pebble.IterOptions{
		LowerBound: rang.Start,
		UpperBound: rang.Limit,
	})
	if err != nil {
		return
	}
	defer iter.Close()

	for iter.First(); iter.Valid(); iter.Next() {
		if !f(iter.Key(), iter.Value()) {
			break
		}
	}
}

// Flush implements the Store interface, it syncs the write-ahead log.
func (s *PebbleStore) Flush() error {
	return s.db.LogData(nil, pebble.Sync)
}

// Close implements the Store interface.
func (s *PebbleStore) Close() error {
	return s.db.Close()
}
