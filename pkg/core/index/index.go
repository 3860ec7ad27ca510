/*
Package index provides a persistent key-value index authenticated by the
trie root. The root is kept in the same store along with the trie nodes and
is updated atomically with them.
*/
package index

import (
	"errors"
	"fmt"
	"sync"

	"github.com/adenium-io/adenium-go/pkg/config"
	"github.com/adenium-io/adenium-go/pkg/core/mpt"
	"github.com/adenium-io/adenium-go/pkg/core/storage"
	"github.com/adenium-io/adenium-go/pkg/util"
	"go.uber.org/zap"
)

// Version is the current index schema version.
const Version = "0.1.0"

// ErrIncompatibleVersion is returned on attempt to open an index created by
// an incompatible version.
var ErrIncompatibleVersion = errors.New("incompatible index version")

// Index is a persistent trie-backed index.
type Index struct {
	store storage.Store
	cache *mpt.NodeCache
	mode  mpt.Mode
	log   *zap.Logger

	lock sync.RWMutex
	root util.Uint256
}

// Open loads the index state from the store initializing it if the store
// is empty. Index takes ownership of the store.
func Open(store storage.Store, cfg config.TrieConfiguration, log *zap.Logger) (*Index, error) {
	if log == nil {
		log = zap.NewNop()
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	ver, err := storage.Version(store)
	switch {
	case errors.Is(err, storage.ErrKeyNotFound):
		if err := storage.PutVersion(store, Version); err != nil {
			return nil, fmt.Errorf("failed to store version: %w", err)
		}
	case err != nil:
		return nil, fmt.Errorf("failed to read version: %w", err)
	case ver != Version:
		return nil, fmt.Errorf("%w: %q, expected %q", ErrIncompatibleVersion, ver, Version)
	}

	idx := &Index{
		store: store,
		cache: mpt.NewNodeCache(cfg.CacheSize),
		mode:  cfg.TrieMode(),
		log:   log,
	}
	data, err := store.Get(storage.SYSTrieRoot.Bytes())
	switch {
	case errors.Is(err, storage.ErrKeyNotFound):
	case err != nil:
		return nil, fmt.Errorf("failed to read trie root: %w", err)
	default:
		idx.root, err = util.Uint256DecodeBytes(data)
		if err != nil {
			return nil, fmt.Errorf("bad trie root: %w", err)
		}
	}
	log.Info("index opened",
		zap.Stringer("root", idx.root),
		zap.Stringer("mode", idx.mode))
	return idx, nil
}

// trie returns trie over the given store with the current root.
func (idx *Index) trie(s storage.Store) *mpt.Trie {
	return mpt.NewTrie(idx.root, mpt.Config{
		Store:  storage.NewPrefixStore(s, storage.DataTrie),
		Cache:  idx.cache,
		Mode:   idx.mode,
		Logger: idx.log,
	})
}

// Root returns the current trie root hash.
func (idx *Index) Root() util.Uint256 {
	idx.lock.RLock()
	defer idx.lock.RUnlock()
	return idx.root
}

// Get returns the value stored for the key.
func (idx *Index) Get(key []byte) (util.Uint256, bool, error) {
	idx.lock.RLock()
	defer idx.lock.RUnlock()
	return idx.trie(idx.store).Search(key)
}

// Put sets the value for the key.
func (idx *Index) Put(key []byte, value util.Uint256) error {
	idx.lock.Lock()
	defer idx.lock.Unlock()

	batch := storage.NewMemCachedStore(idx.store)
	tr := idx.trie(batch)
	if err := tr.Insert(key, value); err != nil {
		return err
	}
	return idx.commit(batch, tr.Root())
}

// Delete removes the key and tells whether it was present.
func (idx *Index) Delete(key []byte) (bool, error) {
	idx.lock.Lock()
	defer idx.lock.Unlock()

	batch := storage.NewMemCachedStore(idx.store)
	tr := idx.trie(batch)
	ok, err := tr.Delete(key)
	if err != nil || !ok {
		return false, err
	}
	if err := idx.commit(batch, tr.Root()); err != nil {
		return false, err
	}
	return true, nil
}

// commit writes trie changes together with the new root.
func (idx *Index) commit(batch *storage.MemCachedStore, root util.Uint256) error {
	if root == idx.root {
		return nil
	}
	var err error
	if root.IsZero() {
		err = batch.Delete(storage.SYSTrieRoot.Bytes())
	} else {
		err = batch.Put(storage.SYSTrieRoot.Bytes(), root.Bytes())
	}
	if err != nil {
		return err
	}
	if _, err := batch.Persist(); err != nil {
		return fmt.Errorf("failed to persist index changes: %w", err)
	}
	idx.root = root
	if err := idx.store.Flush(); err != nil {
		return fmt.Errorf("failed to flush the store: %w", err)
	}
	return nil
}

// Walk calls f for every stored key-value pair in ascending key order until
// f returns false.
func (idx *Index) Walk(f func(key []byte, value util.Uint256) bool) error {
	idx.lock.RLock()
	defer idx.lock.RUnlock()
	return idx.trie(idx.store).Walk(f)
}

// Proof returns the proof of the key against the current root.
func (idx *Index) Proof(key []byte) ([][]byte, error) {
	idx.lock.RLock()
	defer idx.lock.RUnlock()
	return idx.trie(idx.store).GetProof(key)
}

// Close closes the underlying store.
func (idx *Index) Close() error {
	idx.lock.Lock()
	defer idx.lock.Unlock()

	idx.log.Info("closing index", zap.Stringer("root", idx.root))
	idx.cache.Purge()
	return idx.store.Close()
}
