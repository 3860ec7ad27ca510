/*
Package compact implements the canonical binary encoding used by trie nodes:
self-describing big-endian variable-length integers and marker-prefixed
nibble packing.
*/
package compact

import (
	"errors"
	"fmt"
)

// MaxVarInt is the biggest value that can be encoded as a variable-length
// integer.
const MaxVarInt = 1<<61 - 1

// MaxVarIntSize is the maximum number of bytes occupied by an encoded
// variable-length integer.
const MaxVarIntSize = 8

var (
	// ErrVarIntRange is returned for values exceeding MaxVarInt.
	ErrVarIntRange = errors.New("value exceeds varint range")
	// ErrShortBuffer is returned when there is not enough data to decode
	// or not enough space to encode.
	ErrShortBuffer = errors.New("short buffer")
)

// VarIntSize returns the number of bytes needed to encode v. Values
// outside of the range are reported as MaxVarIntSize.
func VarIntSize(v uint64) int {
	for n := 1; n < MaxVarIntSize; n++ {
		if v < 1<<(5+8*(n-1)) {
			return n
		}
	}
	return MaxVarIntSize
}

// PutVarInt encodes v into buf and returns the number of bytes written.
// The first byte holds the total length minus one in its top 3 bits, the
// value follows big-endian right-aligned in the remaining 5 bits and the
// subsequent bytes. Nothing is written if an error is returned.
func PutVarInt(buf []byte, v uint64) (int, error) {
	if v > MaxVarInt {
		return 0, fmt.Errorf("%w: %d", ErrVarIntRange, v)
	}
	n := VarIntSize(v)
	if len(buf) < n {
		return 0, ErrShortBuffer
	}
	for i := n - 1; i > 0; i-- {
		buf[i] = byte(v)
		v >>= 8
	}
	buf[0] = byte(n-1)<<5 | byte(v)&0x1f
	return n, nil
}

// EncodeVarInt returns the encoded form of v.
func EncodeVarInt(v uint64) ([]byte, error) {
	var buf [MaxVarIntSize]byte
	n, err := PutVarInt(buf[:], v)
	if err != nil {
		return nil, err
	}
	return buf[:n], nil
}

// DecodeVarInt decodes the integer at the beginning of b returning it along
// with the number of bytes consumed.
func DecodeVarInt(b []byte) (uint64, int, error) {
	if len(b) == 0 {
		return 0, 0, ErrShortBuffer
	}
	n := int(b[0]>>5) + 1
	if len(b) < n {
		return 0, 0, ErrShortBuffer
	}
	v := uint64(b[0] & 0x1f)
	for i := 1; i < n; i++ {
		v = v<<8 | uint64(b[i])
	}
	return v, n, nil
}
