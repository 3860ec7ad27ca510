package storage

import (
	"bytes"
	"sort"
	"strings"
	"sync"
)

// MemoryStore is an in-memory implementation of a Store, mainly
// used for testing and proof verification. Do not use MemoryStore in
// production.
type MemoryStore struct {
	mut sync.RWMutex
	mem map[string][]byte
}

// NewMemoryStore creates a new MemoryStore object.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		mem: make(map[string][]byte),
	}
}

// Get implements the Store interface.
func (s *MemoryStore) Get(key []byte) ([]byte, error) {
	s.mut.RLock()
	defer s.mut.RUnlock()
	if val, ok := s.mem[string(key)]; ok && val != nil {
		return val, nil
	}
	return nil, ErrKeyNotFound
}

// Put implements the Store interface. Never returns an error.
func (s *MemoryStore) Put(key, value []byte) error {
	s.mut.Lock()
	s.mem[string(key)] = bytes.Clone(value)
	s.mut.Unlock()
	return nil
}

// Delete implements the Store interface. Never returns an error.
func (s *MemoryStore) Delete(key []byte) error {
	s.mut.Lock()
	delete(s.mem, string(key))
	s.mut.Unlock()
	return nil
}

// PutChangeSet implements the Store interface. Never returns an error.
func (s *MemoryStore) PutChangeSet(puts map[string][]byte) error {
	s.mut.Lock()
	for k, v := range puts {
		if v == nil {
			delete(s.mem, k)
		} else {
			s.mem[k] = v
		}
	}
	s.mut.Unlock()
	return nil
}

// Seek implements the Store interface.
func (s *MemoryStore) Seek(rng SeekRange, f func(k, v []byte) bool) {
	s.mut.RLock()
	kvs := s.collect(rng)
	s.mut.RUnlock()
	for _, kv := range kvs {
		if !f(kv.Key, kv.Value) {
			break
		}
	}
}

// collect returns sorted key-value pairs matching the range, it's
// supposed to be called with mutex locked.
func (s *MemoryStore) collect(rng SeekRange) []KeyValue {
	var (
		sPrefix = string(rng.Prefix)
		lPrefix = len(sPrefix)
		sStart  = string(rng.Start)
		memList []KeyValue
	)
	for k, v := range s.mem {
		if v != nil && strings.HasPrefix(k, sPrefix) && (len(sStart) == 0 || k[lPrefix:] >= sStart) {
			memList = append(memList, KeyValue{
				Key:   []byte(k),
				Value: v,
			})
		}
	}
	sort.Slice(memList, func(i, j int) bool {
		return bytes.Compare(memList[i].Key, memList[j].Key) < 0
	})
	return memList
}

// Len returns the number of stored keys.
func (s *MemoryStore) Len() int {
	s.mut.RLock()
	defer s.mut.RUnlock()
	return len(s.mem)
}

// Flush implements the Store interface, it's a no-op.
func (s *MemoryStore) Flush() error {
	return nil
}

// Close implements Store interface and clears up memory. Never returns an
// error.
func (s *MemoryStore) Close() error {
	s.mut.Lock()
	s.mem = make(map[string][]byte)
	s.mut.Unlock()
	return nil
}
