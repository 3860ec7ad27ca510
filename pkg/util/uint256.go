package util

import (
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

// Uint256Size is the size of Uint256 in bytes.
const Uint256Size = 32

// ErrInvalidLength is returned when the input has the wrong size for the
// decoded type.
var ErrInvalidLength = errors.New("invalid length")

// Uint256 is a 32 byte long unsigned integer. Trie node hashes and stored
// values are represented with it, bytes are kept in big-endian (natural)
// order.
type Uint256 [Uint256Size]uint8

// Uint256DecodeString attempts to decode the given hex string (with or
// without 0x prefix) into an Uint256.
func Uint256DecodeString(s string) (u Uint256, err error) {
	s = strings.TrimPrefix(s, "0x")
	if len(s) != Uint256Size*2 {
		return u, fmt.Errorf("%w: expected string size of %d got %d", ErrInvalidLength, Uint256Size*2, len(s))
	}
	b, err := hex.DecodeString(s)
	if err != nil {
		return u, err
	}
	return Uint256DecodeBytes(b)
}

// Uint256DecodeBytes attempts to decode the given bytes into an Uint256.
func Uint256DecodeBytes(b []byte) (u Uint256, err error) {
	if len(b) != Uint256Size {
		return u, fmt.Errorf("%w: expected []byte of size %d got %d", ErrInvalidLength, Uint256Size, len(b))
	}
	copy(u[:], b)
	return u, nil
}

// Bytes returns a byte slice representation of u.
func (u Uint256) Bytes() []byte {
	b := make([]byte, Uint256Size)
	copy(b, u[:])
	return b
}

// IsZero tells whether all bytes of u are zero.
func (u Uint256) IsZero() bool {
	return u == Uint256{}
}

// Equals returns true if both Uint256 values are the same.
func (u Uint256) Equals(other Uint256) bool {
	return u == other
}

// String implements the stringer interface.
func (u Uint256) String() string {
	return hex.EncodeToString(u[:])
}

// StringShort returns the first 4 bytes of u in hex, handy for logs.
func (u Uint256) StringShort() string {
	return hex.EncodeToString(u[:4])
}

// UnmarshalJSON implements the json unmarshaller interface.
func (u *Uint256) UnmarshalJSON(data []byte) (err error) {
	var js string
	if err = json.Unmarshal(data, &js); err != nil {
		return err
	}
	*u, err = Uint256DecodeString(js)
	return err
}

// MarshalJSON implements the json marshaller interface.
func (u Uint256) MarshalJSON() ([]byte, error) {
	return []byte(`"0x` + u.String() + `"`), nil
}

// UnmarshalYAML implements the YAML Unmarshaler interface.
func (u *Uint256) UnmarshalYAML(unmarshal func(any) error) error {
	var s string
	err := unmarshal(&s)
	if err != nil {
		return err
	}
	*u, err = Uint256DecodeString(s)
	return err
}

// MarshalYAML implements the YAML Marshaler interface.
func (u Uint256) MarshalYAML() (any, error) {
	return "0x" + u.String(), nil
}
