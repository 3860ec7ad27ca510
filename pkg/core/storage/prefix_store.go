package storage

// PrefixStore puts all keys into a separate namespace of the underlying
// Store by prepending a fixed prefix to them. Seek results have the prefix
// stripped.
type PrefixStore struct {
	prefix []byte
	ps     Store
}

// NewPrefixStore creates a PrefixStore over lower with the given prefix.
func NewPrefixStore(lower Store, prefix KeyPrefix, sub ...byte) *PrefixStore {
	p := make([]byte, 0, 1+len(sub))
	p = append(p, byte(prefix))
	p = append(p, sub...)
	return &PrefixStore{prefix: p, ps: lower}
}

func (s *PrefixStore) key(k []byte) []byte {
	r := make([]byte, len(s.prefix)+len(k))
	copy(r, s.prefix)
	copy(r[len(s.prefix):], k)
	return r
}

// Get implements the Store interface.
func (s *PrefixStore) Get(key []byte) ([]byte, error) {
	return s.ps.Get(s.key(key))
}

// Put implements the Store interface.
func (s *PrefixStore) Put(key, value []byte) error {
	return s.ps.Put(s.key(key), value)
}

// Delete implements the Store interface.
func (s *PrefixStore) Delete(key []byte) error {
	return s.ps.Delete(s.key(key))
}

// PutChangeSet implements the Store interface.
func (s *PrefixStore) PutChangeSet(puts map[string][]byte) error {
	prefixed := make(map[string][]byte, len(puts))
	for k, v := range puts {
		prefixed[string(s.prefix)+k] = v
	}
	return s.ps.PutChangeSet(prefixed)
}

// Seek implements the Store interface.
func (s *PrefixStore) Seek(rng SeekRange, f func(k, v []byte) bool) {
	l := len(s.prefix)
	s.ps.Seek(SeekRange{Prefix: s.key(rng.Prefix), Start: rng.Start}, func(k, v []byte) bool {
		return f(k[l:], v)
	})
}

// Flush implements the Store interface.
func (s *PrefixStore) Flush() error {
	return s.ps.Flush()
}

// Close implements the Store interface, the underlying Store is not closed
// since it's usually shared with other namespaces.
func (s *PrefixStore) Close() error {
	return nil
}
