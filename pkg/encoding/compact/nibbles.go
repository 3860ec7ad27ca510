package compact

import (
	"errors"
	"fmt"
)

// PathKind describes what kind of value is attached to the node owning an
// encoded path. It's stored in the path marker nibble.
type PathKind byte

// Path kinds.
const (
	// PathEmpty means there is no value.
	PathEmpty PathKind = iota
	// PathLeaf means there is a value stored right after the path.
	PathLeaf
	// PathZero means there is an all-zero value that is omitted.
	PathZero
)

// Marker nibble codes, even ones are followed by a padding nibble.
const (
	EvenEmpty byte = 0x0
	OddEmpty  byte = 0x1
	EvenLeaf  byte = 0x2
	OddLeaf   byte = 0x3
	EvenZero  byte = 0x4
	OddZero   byte = 0x5
)

// ErrInvalidNibbles is returned for malformed packed paths.
var ErrInvalidNibbles = errors.New("invalid packed nibbles")

// String implements fmt.Stringer.
func (k PathKind) String() string {
	switch k {
	case PathEmpty:
		return "empty"
	case PathLeaf:
		return "leaf"
	case PathZero:
		return "zero"
	default:
		return fmt.Sprintf("PathKind(%d)", byte(k))
	}
}

// ToNibbles splits every byte into two nibbles, high one first.
func ToNibbles(b []byte) []byte {
	r := make([]byte, len(b)*2)
	for i := range b {
		r[i*2] = b[i] >> 4
		r[i*2+1] = b[i] & 0x0f
	}
	return r
}

// FromNibbles is the inverse of ToNibbles, odd trailing nibble is padded
// with zero.
func FromNibbles(n []byte) []byte {
	r := make([]byte, (len(n)+1)/2)
	for i := range n {
		if i%2 == 0 {
			r[i/2] = n[i] << 4
		} else {
			r[i/2] |= n[i] & 0x0f
		}
	}
	return r
}

// CommonPrefix returns the length of the longest common prefix of a and b.
func CommonPrefix(a, b []byte) int {
	n := min(len(a), len(b))
	for i := 0; i < n; i++ {
		if a[i] != b[i] {
			return i
		}
	}
	return n
}

func markerFor(kind PathKind, odd bool) byte {
	var m byte
	switch kind {
	case PathLeaf:
		m = EvenLeaf
	case PathZero:
		m = EvenZero
	default:
		m = EvenEmpty
	}
	if odd {
		m++
	}
	return m
}

// PackNibbles packs nibbles two per byte, high one first. If marker is set
// the path kind marker is put in front of them, it takes the whole first
// byte for even-length paths and shares it with the first nibble otherwise.
// Trailing odd nibble is padded with zero.
func PackNibbles(nibbles []byte, kind PathKind, marker bool) []byte {
	if !marker {
		return FromNibbles(nibbles)
	}
	odd := len(nibbles)%2 == 1
	res := make([]byte, 1, 1+len(nibbles)/2)
	res[0] = markerFor(kind, odd) << 4
	if odd {
		res[0] |= nibbles[0] & 0x0f
		nibbles = nibbles[1:]
	}
	return append(res, FromNibbles(nibbles)...)
}

// UnpackNibbles is the inverse of PackNibbles. Without a marker the
// resulting path always has an even length.
func UnpackNibbles(packed []byte, marker bool) ([]byte, PathKind, error) {
	nibbles := ToNibbles(packed)
	if !marker {
		return nibbles, PathEmpty, nil
	}
	if len(nibbles) == 0 {
		return nil, PathEmpty, fmt.Errorf("%w: no marker", ErrInvalidNibbles)
	}
	m := nibbles[0]
	if m > OddZero {
		return nil, PathEmpty, fmt.Errorf("%w: unknown marker %d", ErrInvalidNibbles, m)
	}
	kind := PathKind(m / 2)
	if m%2 == 1 {
		return nibbles[1:], kind, nil
	}
	if nibbles[1] != 0 {
		return nil, PathEmpty, fmt.Errorf("%w: non-zero marker padding", ErrInvalidNibbles)
	}
	return nibbles[2:], kind, nil
}

// EncodeNibbles returns packed nibbles prefixed with their byte length.
func EncodeNibbles(nibbles []byte, kind PathKind, marker bool) ([]byte, error) {
	packed := PackNibbles(nibbles, kind, marker)
	var buf [MaxVarIntSize]byte
	n, err := PutVarInt(buf[:], uint64(len(packed)))
	if err != nil {
		return nil, err
	}
	return append(buf[:n:n], packed...), nil
}

// DecodeNibbles decodes length-prefixed packed nibbles from the beginning
// of data, it returns the number of bytes consumed.
func DecodeNibbles(data []byte, marker bool) ([]byte, PathKind, int, error) {
	l, n, err := DecodeVarInt(data)
	if err != nil {
		return nil, PathEmpty, 0, err
	}
	if uint64(len(data)-n) < l {
		return nil, PathEmpty, 0, fmt.Errorf("%w: %d bytes expected, %d available", ErrShortBuffer, l, len(data)-n)
	}
	end := n + int(l)
	nibbles, kind, err := UnpackNibbles(data[n:end], marker)
	if err != nil {
		return nil, PathEmpty, 0, err
	}
	return nibbles, kind, end, nil
}
