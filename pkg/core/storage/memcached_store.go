package storage

import (
	"bytes"
	"sort"
	"strings"
	"sync"
)

// MemCachedStore is a wrapper around persistent store that caches all changes
// being made for them to be later flushed in one batch.
type MemCachedStore struct {
	mut sync.RWMutex
	mem map[string][]byte
	del map[string]struct{}

	// Persistent Store.
	ps Store
}

// KeyValue represents key-value pair.
type KeyValue struct {
	Key   []byte
	Value []byte
}

// NewMemCachedStore creates a new MemCachedStore object.
func NewMemCachedStore(lower Store) *MemCachedStore {
	return &MemCachedStore{
		mem: make(map[string][]byte),
		del: make(map[string]struct{}),
		ps:  lower,
	}
}

// Get implements the Store interface.
func (s *MemCachedStore) Get(key []byte) ([]byte, error) {
	s.mut.RLock()
	defer s.mut.RUnlock()
	k := string(key)
	if val, ok := s.mem[k]; ok {
		return val, nil
	}
	if _, ok := s.del[k]; ok {
		return nil, ErrKeyNotFound
	}
	return s.ps.Get(key)
}

// Put implements the Store interface. Never returns an error.
func (s *MemCachedStore) Put(key, value []byte) error {
	k := string(key)
	s.mut.Lock()
	s.mem[k] = bytes.Clone(value)
	delete(s.del, k)
	s.mut.Unlock()
	return nil
}

// Delete implements the Store interface. Never returns an error.
func (s *MemCachedStore) Delete(key []byte) error {
	k := string(key)
	s.mut.Lock()
	delete(s.mem, k)
	s.del[k] = struct{}{}
	s.mut.Unlock()
	return nil
}

// PutChangeSet implements the Store interface. Never returns an error.
func (s *MemCachedStore) PutChangeSet(puts map[string][]byte) error {
	s.mut.Lock()
	for k, v := range puts {
		if v == nil {
			delete(s.mem, k)
			s.del[k] = struct{}{}
		} else {
			s.mem[k] = v
			delete(s.del, k)
		}
	}
	s.mut.Unlock()
	return nil
}

// Seek implements the Store interface. Cached changes shadow the
// persistent store contents.
func (s *MemCachedStore) Seek(rng SeekRange, f func(k, v []byte) bool) {
	var (
		sPrefix = string(rng.Prefix)
		sStart  = string(rng.Start)
		merged  = make(map[string][]byte)
	)
	s.mut.RLock()
	s.ps.Seek(rng, func(k, v []byte) bool {
		key := string(k)
		if _, ok := s.del[key]; !ok {
			merged[key] = bytes.Clone(v)
		}
		return true
	})
	for k, v := range s.mem {
		if strings.HasPrefix(k, sPrefix) && (len(sStart) == 0 || k[len(sPrefix):] >= sStart) {
			merged[k] = v
		}
	}
	s.mut.RUnlock()

	keys := make([]string, 0, len(merged))
	for k := range merged {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		if !f([]byte(k), merged[k]) {
			break
		}
	}
}

// Len returns the number of buffered changes (both puts and deletions).
func (s *MemCachedStore) Len() int {
	s.mut.RLock()
	defer s.mut.RUnlock()
	return len(s.mem) + len(s.del)
}

// Persist flushes all the changes made into the underlying Store in one
// change set. It returns the number of keys put (deletions are not counted).
// Buffered changes are kept intact if the underlying Store fails.
func (s *MemCachedStore) Persist() (int, error) {
	s.mut.Lock()
	defer s.mut.Unlock()
	keys := len(s.mem)
	if keys == 0 && len(s.del) == 0 {
		return 0, nil
	}
	batch := make(map[string][]byte, keys+len(s.del))
	for k, v := range s.mem {
		batch[k] = v
	}
	for k := range s.del {
		batch[k] = nil
	}
	err := s.ps.PutChangeSet(batch)
	if err != nil {
		return 0, err
	}
	s.mem = make(map[string][]byte)
	s.del = make(map[string]struct{})
	return keys, nil
}

// Flush persists buffered changes and then flushes the underlying Store.
func (s *MemCachedStore) Flush() error {
	if _, err := s.Persist(); err != nil {
		return err
	}
	return s.ps.Flush()
}

// Close implements Store interface, it drops buffered changes and closes
// the underlying Store.
func (s *MemCachedStore) Close() error {
	s.mut.Lock()
	s.mem = make(map[string][]byte)
	s.del = make(map[string]struct{})
	s.mut.Unlock()
	return s.ps.Close()
}
