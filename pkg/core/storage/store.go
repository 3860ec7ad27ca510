package storage

import (
	"errors"
	"fmt"

	"github.com/adenium-io/adenium-go/pkg/core/storage/dbconfig"
	"github.com/syndtr/goleveldb/leveldb/util"
)

// KeyPrefix constants.
const (
	// DataTrie is used for trie node entries identified by Uint256 and
	// their reference counters.
	DataTrie KeyPrefix = 0x03
	// SYSTrieRoot holds the current trie root hash.
	SYSTrieRoot KeyPrefix = 0xc0
	// SYSVersion holds the storage schema version.
	SYSVersion KeyPrefix = 0xf0
)

// SeekRange represents options for Store.Seek operation.
type SeekRange struct {
	// Prefix denotes the Seek's lookup key.
	Prefix []byte
	// Start denotes value appended to the Prefix to start Seek from.
	// Seeking starting from some key includes this key to the result;
	// if no matching key was found then next suitable key is picked up.
	// Empty Start means seeking through all keys in the DB with matching
	// Prefix.
	Start []byte
}

// ErrKeyNotFound is an error returned by Store implementations
// when a certain key is not found.
var ErrKeyNotFound = errors.New("key not found")

type (
	// Store is the underlying KV backend for the trie and index data. Keys
	// and values are opaque byte strings.
	Store interface {
		// Get returns ErrKeyNotFound if there is no such key.
		Get(key []byte) ([]byte, error)
		// Put upserts the value.
		Put(key, value []byte) error
		// Delete removes the key, absent keys are not an error.
		Delete(key []byte) error
		// PutChangeSet allows to push prepared changeset to the Store
		// atomically, nil values are deletions.
		PutChangeSet(puts map[string][]byte) error
		// Seek can guarantee that provided key (k) and value (v) are the only valid until the next call to f.
		// Seek continues iteration until false is returned from f.
		// Key and value slices should not be modified.
		// Seek guarantees that key-value items are sorted by key in ascending way.
		Seek(rng SeekRange, f func(k, v []byte) bool)
		// Flush is a durability barrier, everything written before it
		// survives a crash after it returns.
		Flush() error
		Close() error
	}

	// KeyPrefix is a constant byte added as a prefix for each key
	// stored.
	KeyPrefix uint8
)

// Bytes returns the bytes representation of KeyPrefix.
func (k KeyPrefix) Bytes() []byte {
	return []byte{byte(k)}
}

// Has reports whether the key is present in s.
func Has(s Store, key []byte) (bool, error) {
	_, err := s.Get(key)
	if err == nil {
		return true, nil
	}
	if errors.Is(err, ErrKeyNotFound) {
		return false, nil
	}
	return false, err
}

func seekRangeToPrefixes(sr SeekRange) *util.Range {
	start := make([]byte, len(sr.Prefix)+len(sr.Start))
	copy(start, sr.Prefix)
	copy(start[len(sr.Prefix):], sr.Start)

	rang := util.BytesPrefix(sr.Prefix)
	rang.Start = start
	return rang
}

// NewStore creates storage with preselected in configuration database type.
func NewStore(cfg dbconfig.DBConfiguration) (Store, error) {
	var (
		store Store
		err   error
	)
	switch cfg.Type {
	case dbconfig.LevelDB:
		store, err = NewLevelDBStore(cfg.LevelDBOptions)
	case dbconfig.InMemoryDB:
		store = NewMemoryStore()
	case dbconfig.BoltDB:
		store, err = NewBoltDBStore(cfg.BoltDBOptions)
	case dbconfig.PebbleDB:
		store, err = NewPebbleStore(cfg.PebbleDBOptions)
	default:
		return nil, fmt.Errorf("%w: %s", dbconfig.ErrUnknownType, cfg.Type)
	}
	if err != nil {
		return nil, err
	}
	switch cfg.Compression {
	case "", dbconfig.NoCompression:
	case dbconfig.LZ4Compression:
		store = NewCompressedStore(store)
	default:
		_ = store.Close()
		return nil, fmt.Errorf("%w: %s", dbconfig.ErrUnknownCompression, cfg.Compression)
	}
	return store, nil
}
