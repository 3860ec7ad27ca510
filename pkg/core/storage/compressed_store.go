package storage

import (
	"errors"
	"fmt"

	"github.com/adenium-io/adenium-go/pkg/encoding/compact"
	"github.com/pierrec/lz4"
)

// Value encodings used by CompressedStore.
const (
	rawValue byte = 0x00
	lz4Value byte = 0x01
)

// minCompressSize is the value size below which compression is not even
// attempted.
const minCompressSize = 64

// maxCompressionRatio is the upper bound of LZ4 block compression ratio.
const maxCompressionRatio = 255

// ErrBadCompressedValue is returned for values that can't be decompressed.
var ErrBadCompressedValue = errors.New("bad compressed value")

// CompressedStore compresses values with LZ4 before handing them to the
// underlying Store. Every stored value gets a one-byte header telling
// whether it's compressed, incompressible and short values are stored as
// is. Keys are not changed.
type CompressedStore struct {
	ps Store
}

// NewCompressedStore wraps lower into a CompressedStore.
func NewCompressedStore(lower Store) *CompressedStore {
	return &CompressedStore{ps: lower}
}

func compressValue(v []byte) []byte {
	if len(v) >= minCompressSize {
		var hdr [1 + compact.MaxVarIntSize]byte
		hdr[0] = lz4Value
		n, err := compact.PutVarInt(hdr[1:], uint64(len(v)))
		if err == nil {
			buf := make([]byte, 1+n+lz4.CompressBlockBound(len(v)))
			copy(buf, hdr[:1+n])
			size, err := lz4.CompressBlock(v, buf[1+n:], make([]int, 1<<16))
			if err == nil && size > 0 && 1+n+size < len(v) {
				return buf[:1+n+size]
			}
		}
	}
	res := make([]byte, 1+len(v))
	res[0] = rawValue
	copy(res[1:], v)
	return res
}

func decompressValue(v []byte) ([]byte, error) {
	if len(v) == 0 {
		return nil, fmt.Errorf("%w: empty", ErrBadCompressedValue)
	}
	switch v[0] {
	case rawValue:
		return v[1:], nil
	case lz4Value:
		l, n, err := compact.DecodeVarInt(v[1:])
		if err != nil {
			return nil, fmt.Errorf("%w: %w", ErrBadCompressedValue, err)
		}
		src := v[1+n:]
		if l > uint64(len(src))*maxCompressionRatio {
			return nil, fmt.Errorf("%w: length %d is out of bounds", ErrBadCompressedValue, l)
		}
		res := make([]byte, l)
		size, err := lz4.UncompressBlock(src, res)
		if err != nil {
			return nil, fmt.Errorf("%w: %w", ErrBadCompressedValue, err)
		}
		if uint64(size) != l {
			return nil, fmt.Errorf("%w: length mismatch", ErrBadCompressedValue)
		}
		return res, nil
	default:
		return nil, fmt.Errorf("%w: unknown header %d", ErrBadCompressedValue, v[0])
	}
}

// Get implements the Store interface.
func (s *CompressedStore) Get(key []byte) ([]byte, error) {
	v, err := s.ps.Get(key)
	if err != nil {
		return nil, err
	}
	return decompressValue(v)
}

// Put implements the Store interface.
func (s *CompressedStore) Put(key, value []byte) error {
	return s.ps.Put(key, compressValue(value))
}

// Delete implements the Store interface.
func (s *CompressedStore) Delete(key []byte) error {
	return s.ps.Delete(key)
}

// PutChangeSet implements the Store interface.
func (s *CompressedStore) PutChangeSet(puts map[string][]byte) error {
	compressed := make(map[string][]byte, len(puts))
	for k, v := range puts {
		if v != nil {
			v = compressValue(v)
		}
		compressed[k] = v
	}
	return s.ps.PutChangeSet(compressed)
}

// Seek implements the Store interface. Values that fail to decompress
// are skipped.
func (s *CompressedStore) Seek(rng SeekRange, f func(k, v []byte) bool) {
	s.ps.Seek(rng, func(k, v []byte) bool {
		d, err := decompressValue(v)
		if err != nil {
			return true
		}
		return f(k, d)
	})
}

// Flush implements the Store interface.
func (s *CompressedStore) Flush() error {
	return s.ps.Flush()
}

// Close implements the Store interface.
func (s *CompressedStore) Close() error {
	return s.ps.Close()
}
