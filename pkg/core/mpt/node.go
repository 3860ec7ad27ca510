package mpt

import (
	"bytes"
	"errors"
	"fmt"

	"github.com/adenium-io/adenium-go/pkg/encoding/compact"
	"github.com/adenium-io/adenium-go/pkg/io"
	"github.com/adenium-io/adenium-go/pkg/util"
)

// childrenCount is the number of child slots, one per nibble value.
const childrenCount = 16

// childState describes the contents of a child slot.
type childState byte

const (
	childAbsent childState = iota
	// childHash is a reference to the persisted node.
	childHash
	// childNode is an in-memory node exclusively owned by the parent.
	childNode
)

type child struct {
	state childState
	hash  util.Uint256
	node  *Node
}

// Node is a trie node. It holds a path fragment (in nibbles) leading to it
// from the parent, an optional value and up to 16 children indexed by the
// first nibble of their paths.
type Node struct {
	BaseNode

	path     []byte
	leaf     bool
	value    util.Uint256
	children [childrenCount]child
}

var _ io.Serializable = (*Node)(nil)

var (
	// errTrailingData is returned when node encoding is followed by junk.
	errTrailingData = errors.New("trailing data after node")
	// errZeroLeafValue is returned for a zero value encoded in full, the
	// canonical form of it is the zero marker.
	errZeroLeafValue = fmt.Errorf("%w: zero value under leaf marker", ErrCorrupted)
)

func newNode(path []byte) *Node {
	n := &Node{path: path}
	n.invalidateCache()
	return n
}

func newLeaf(path []byte, value util.Uint256) *Node {
	n := newNode(path)
	n.leaf = true
	n.value = value
	return n
}

// DecodeNode decodes the node from its canonical encoding.
func DecodeNode(data []byte) (*Node, error) {
	r := io.NewBinReaderFromBuf(data)
	n := new(Node)
	n.DecodeBinary(r)
	if r.Err == nil && r.Len() != 0 {
		r.Err = errTrailingData
	}
	if r.Err != nil {
		return nil, r.Err
	}
	return n, nil
}

// Path returns node path fragment in nibbles.
func (n *Node) Path() []byte {
	return n.path
}

// Value returns node value and a flag telling whether the node has one.
func (n *Node) Value() (util.Uint256, bool) {
	return n.value, n.leaf
}

// Hash returns Keccak-256 of the node encoding.
func (n *Node) Hash() util.Uint256 {
	return n.getHash(n)
}

// Bytes returns serialized node.
func (n *Node) Bytes() []byte {
	return n.getBytes(n)
}

// HasChild tells whether there is a child at the given slot.
func (n *Node) HasChild(i byte) bool {
	return n.children[i].state != childAbsent
}

// childrenNum returns the number of non-empty child slots.
func (n *Node) childrenNum() int {
	var cnt int
	for i := range n.children {
		if n.children[i].state != childAbsent {
			cnt++
		}
	}
	return cnt
}

// firstChild returns the index of the first non-empty slot.
func (n *Node) firstChild() byte {
	for i := range n.children {
		if n.children[i].state != childAbsent {
			return byte(i)
		}
	}
	panic("node has no children")
}

// isEmpty tells whether node carries neither value nor children.
func (n *Node) isEmpty() bool {
	return !n.leaf && n.childrenNum() == 0
}

func (n *Node) setPath(path []byte) {
	n.path = path
	n.invalidateCache()
}

func (n *Node) setValue(v util.Uint256) {
	n.leaf = true
	n.value = v
	n.invalidateCache()
}

func (n *Node) clearValue() {
	n.leaf = false
	n.value = util.Uint256{}
	n.invalidateCache()
}

func (n *Node) setChild(i byte, c *Node) {
	n.children[i] = child{state: childNode, node: c}
	n.invalidateCache()
}

func (n *Node) removeChild(i byte) {
	n.children[i] = child{}
	n.invalidateCache()
}

// pathKind returns the kind of the packed path marker for n.
func (n *Node) pathKind() compact.PathKind {
	switch {
	case !n.leaf:
		return compact.PathEmpty
	case n.value.IsZero():
		return compact.PathZero
	default:
		return compact.PathLeaf
	}
}

// EncodeBinary implements io.Serializable. Resolved children are encoded by
// their hashes.
func (n *Node) EncodeBinary(w *io.BinWriter) {
	kind := n.pathKind()
	w.WriteVarBytes(compact.PackNibbles(n.path, kind, true))
	if kind == compact.PathLeaf {
		w.WriteBytes(n.value[:])
	}
	var mask uint16
	for i := range n.children {
		if n.children[i].state != childAbsent {
			mask |= 1 << i
		}
	}
	w.WriteU16BE(mask)
	for i := range n.children {
		switch c := &n.children[i]; c.state {
		case childHash:
			w.WriteBytes(c.hash[:])
		case childNode:
			h := c.node.Hash()
			w.WriteBytes(h[:])
		}
	}
}

// DecodeBinary implements io.Serializable. All children of the decoded
// node are references by hash.
func (n *Node) DecodeBinary(r *io.BinReader) {
	// Packed path can't be longer than the node encoding itself.
	packed := r.ReadVarBytes(r.Len())
	if r.Err != nil {
		return
	}
	path, kind, err := compact.UnpackNibbles(packed, true)
	if err != nil {
		r.Err = err
		return
	}
	n.path = path
	n.leaf = kind != compact.PathEmpty
	n.value = util.Uint256{}
	if kind == compact.PathLeaf {
		r.ReadBytes(n.value[:])
		if r.Err == nil && n.value.IsZero() {
			r.Err = errZeroLeafValue
			return
		}
	}
	mask := r.ReadU16BE()
	for i := range n.children {
		n.children[i] = child{}
		if mask&(1<<i) != 0 {
			n.children[i].state = childHash
			r.ReadBytes(n.children[i].hash[:])
		}
	}
}

// clone returns a copy of a clean node safe to be handed out to a separate
// owner. Resolved children are replaced with references.
func (n *Node) clone() *Node {
	c := &Node{
		BaseNode: n.BaseNode,
		path:     bytes.Clone(n.path),
		leaf:     n.leaf,
		value:    n.value,
		children: n.children,
	}
	for i := range c.children {
		if c.children[i].state == childNode {
			c.children[i] = child{state: childHash, hash: c.children[i].node.Hash()}
		}
	}
	return c
}

// String implements fmt.Stringer for debugging purposes.
func (n *Node) String() string {
	v := "-"
	if n.leaf {
		v = n.value.StringShort()
	}
	return fmt.Sprintf("{path: %x, value: %s, children: %d}", n.path, v, n.childrenNum())
}

// concatPaths returns a freshly allocated concatenation of a and b.
func concatPaths(a, b []byte) []byte {
	res := make([]byte, 0, len(a)+len(b))
	res = append(res, a...)
	return append(res, b...)
}
