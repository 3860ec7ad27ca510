package io

import (
	"errors"
	"io"
	"testing"

	"github.com/adenium-io/adenium-go/pkg/encoding/compact"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// mocks io.Writer, always fails to Write().
type badW struct{}

func (w *badW) Write(p []byte) (int, error) {
	return 0, errors.New("it always fails")
}

func TestWriteU16BE(t *testing.T) {
	bw := NewBufBinWriter()
	bw.WriteU16BE(0x8001)
	require.NoError(t, bw.Err)
	bin := bw.Bytes()
	require.Equal(t, []byte{0x80, 0x01}, bin)
	br := NewBinReaderFromBuf(bin)
	require.Equal(t, uint16(0x8001), br.ReadU16BE())
	require.NoError(t, br.Err)
	require.Equal(t, 0, br.Len())

	require.Equal(t, uint16(0), br.ReadU16BE())
	require.ErrorIs(t, br.Err, io.ErrUnexpectedEOF)
}

func TestReadErrors(t *testing.T) {
	br := NewBinReaderFromBuf([]byte{0xad})
	assert.Equal(t, uint16(0), br.ReadU16BE())
	require.Error(t, br.Err)
	// these should work (without panic), preserving the Err
	assert.Equal(t, uint64(0), br.ReadVarUint())
	assert.Empty(t, br.ReadVarBytes())
	br.ReadBytes(make([]byte, 1))
	require.ErrorIs(t, br.Err, io.ErrUnexpectedEOF)
}

func TestBufBinWriter_Len(t *testing.T) {
	val := []byte{0xde}
	bw := NewBufBinWriter()
	bw.WriteBytes(val)
	require.Equal(t, 1, bw.Len())
}

func TestBufBinWriterDrained(t *testing.T) {
	bw := NewBufBinWriter()
	bw.WriteBytes([]byte{1})
	require.Equal(t, []byte{1}, bw.Bytes())
	require.Nil(t, bw.Bytes())
	bw.WriteBytes([]byte{2})
	require.ErrorIs(t, bw.Err, ErrDrained)
}

func TestWriterErrHandling(t *testing.T) {
	var badio = &badW{}
	bw := NewBinWriterFromIO(badio)
	bw.WriteU16BE(0)
	assert.NotNil(t, bw.Err)
	// these should work (without panic), preserving the Err
	bw.WriteVarUint(0)
	bw.WriteVarBytes([]byte{0x55, 0xaa})
	bw.WriteBytes([]byte{1})
	assert.NotNil(t, bw.Err)
}

func TestVarUint(t *testing.T) {
	for _, val := range []uint64{0, 31, 32, 0xbad, 0x1badf00d, compact.MaxVarInt} {
		bw := NewBufBinWriter()
		bw.WriteVarUint(val)
		require.NoError(t, bw.Err)
		buf := bw.Bytes()
		require.Equal(t, compact.VarIntSize(val), len(buf))

		br := NewBinReaderFromBuf(buf)
		require.Equal(t, val, br.ReadVarUint())
		require.NoError(t, br.Err)
	}

	t.Run("out of range", func(t *testing.T) {
		bw := NewBufBinWriter()
		bw.WriteVarUint(compact.MaxVarInt + 1)
		require.ErrorIs(t, bw.Err, compact.ErrVarIntRange)
		require.Equal(t, 0, bw.Len())
	})
	t.Run("truncated", func(t *testing.T) {
		br := NewBinReaderFromBuf([]byte{0x41, 0x23})
		require.Equal(t, uint64(0), br.ReadVarUint())
		require.Error(t, br.Err)
	})
}

func TestWriteVarBytes(t *testing.T) {
	var (
		bin = []byte{0xde, 0xad, 0xbe, 0xef}
	)
	bw := NewBufBinWriter()
	bw.WriteVarBytes(bin)
	assert.Nil(t, bw.Err)
	buf := bw.Bytes()
	assert.Equal(t, compact.VarIntSize(uint64(len(bin)))+len(bin), len(buf))
	assert.Equal(t, byte(len(bin)), buf[0])
	assert.Equal(t, bin, buf[1:])
	br := NewBinReaderFromBuf(buf)
	binread := br.ReadVarBytes()
	assert.Nil(t, br.Err)
	assert.Equal(t, bin, binread)

	br = NewBinReaderFromBuf(buf)
	br.ReadVarBytes(2)
	assert.Error(t, br.Err)
}
