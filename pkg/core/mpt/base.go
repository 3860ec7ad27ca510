package mpt

import (
	"github.com/adenium-io/adenium-go/pkg/crypto/hash"
	"github.com/adenium-io/adenium-go/pkg/io"
	"github.com/adenium-io/adenium-go/pkg/util"
)

// BaseNode implements basic things every node needs like caching hash and
// serialized representation. It also tracks whether the node has unpersisted
// changes and under which hash it's currently persisted.
type BaseNode struct {
	hash       util.Uint256
	bytes      []byte
	hashValid  bool
	bytesValid bool

	dirty bool
	// stored is the hash this node instance is persisted under, zero for
	// nodes that were never persisted.
	stored util.Uint256
}

// setCache marks node as a clean copy of the persisted node with the
// given encoding and hash.
func (b *BaseNode) setCache(bs []byte, h util.Uint256) {
	b.bytes = bs
	b.hash = h
	b.bytesValid = true
	b.hashValid = true
	b.dirty = false
	b.stored = h
}

// getHash returns a hash of this BaseNode.
func (b *BaseNode) getHash(n io.Serializable) util.Uint256 {
	if !b.hashValid {
		b.hash = hash.Keccak256(b.getBytes(n))
		b.hashValid = true
	}
	return b.hash
}

// getBytes returns a slice of bytes representing this node.
func (b *BaseNode) getBytes(n io.Serializable) []byte {
	if !b.bytesValid {
		buf := io.NewBufBinWriter()
		n.EncodeBinary(buf.BinWriter)
		b.bytes = buf.Bytes()
		b.bytesValid = true
	}
	return b.bytes
}

// invalidateCache sets all cache fields to invalid state and marks node
// as dirty.
func (b *BaseNode) invalidateCache() {
	b.bytesValid = false
	b.hashValid = false
	b.dirty = true
}

// IsDirty tells whether node has changes that are not persisted yet. Any
// modification of a resolved child made through the trie marks all of its
// ancestors dirty as well.
func (b *BaseNode) IsDirty() bool {
	return b.dirty
}
