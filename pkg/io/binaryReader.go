package io

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"io"

	"github.com/adenium-io/adenium-go/pkg/encoding/compact"
)

// MaxArraySize is the maximum size of an array which can be decoded.
const MaxArraySize = 0x1000000

// BinReader is a convenient wrapper around a byte buffer and err object.
// Used to simplify error handling when reading into a struct with many fields.
type BinReader struct {
	buf *bytes.Reader
	uv  [compact.MaxVarIntSize]byte
	Err error
}

// NewBinReaderFromBuf makes a BinReader from byte buffer.
func NewBinReaderFromBuf(b []byte) *BinReader {
	return &BinReader{buf: bytes.NewReader(b)}
}

// Len returns the number of unread bytes.
func (r *BinReader) Len() int {
	return r.buf.Len()
}

// ReadU16BE reads a big-endian encoded uint16 value.
func (r *BinReader) ReadU16BE() uint16 {
	r.ReadBytes(r.uv[:2])
	if r.Err != nil {
		return 0
	}
	return binary.BigEndian.Uint16(r.uv[:2])
}

// ReadVarUint reads a compact variable-length-encoded integer from the
// underlying reader.
func (r *BinReader) ReadVarUint() uint64 {
	if r.Err != nil {
		return 0
	}
	r.ReadBytes(r.uv[:1])
	if r.Err != nil {
		return 0
	}
	n := int(r.uv[0]>>5) + 1
	r.ReadBytes(r.uv[1:n])
	if r.Err != nil {
		return 0
	}
	v, _, err := compact.DecodeVarInt(r.uv[:n])
	if err != nil {
		r.Err = err
		return 0
	}
	return v
}

// ReadVarBytes reads the next set of bytes from the underlying reader.
// ReadVarUint() is used to determine how large that slice is.
func (r *BinReader) ReadVarBytes(maxSize ...int) []byte {
	n := r.ReadVarUint()
	ms := MaxArraySize
	if len(maxSize) != 0 {
		ms = maxSize[0]
	}
	if n > uint64(ms) {
		r.Err = fmt.Errorf("byte-slice is too big (%d)", n)
		return nil
	}
	b := make([]byte, n)
	r.ReadBytes(b)
	return b
}

// ReadBytes copies a fixed-size buffer from the reader to the provided slice.
func (r *BinReader) ReadBytes(buf []byte) {
	if r.Err != nil {
		return
	}

	_, r.Err = io.ReadFull(r.buf, buf)
	if errors.Is(r.Err, io.EOF) {
		r.Err = io.ErrUnexpectedEOF
	}
}
