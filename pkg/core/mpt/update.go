package mpt

import (
	"bytes"
	"errors"
	"fmt"

	"github.com/adenium-io/adenium-go/pkg/core/storage"
	"github.com/adenium-io/adenium-go/pkg/encoding/compact"
	"github.com/adenium-io/adenium-go/pkg/util"
	"go.uber.org/zap"
)

// refPrefix starts reference counter keys, they're one byte longer than
// node keys and thus never clash with them.
const refPrefix = 0x01

// update is a single trie mutation. All of its writes go into the batch
// that is persisted at once on commit.
type update struct {
	t     *Trie
	batch *storage.MemCachedStore
	// flushed are nodes stored by this update, they go to the cache once
	// the batch is persisted.
	flushed []*Node

	written int
	deleted int
}

func (t *Trie) newUpdate() *update {
	return &update{
		t:     t,
		batch: storage.NewMemCachedStore(t.Store),
	}
}

func makeRefKey(h util.Uint256) []byte {
	key := make([]byte, 1+util.Uint256Size)
	key[0] = refPrefix
	copy(key[1:], h[:])
	return key
}

// getRoot returns the root node to be modified.
func (u *update) getRoot() (*Node, error) {
	if u.t.root.IsZero() {
		return newNode(nil), nil
	}
	return u.t.getFromStore(u.batch, u.t.root)
}

// resolve returns the i-th child of n keeping it in the slot for further
// modifications. It returns nil if there is no such child.
func (u *update) resolve(n *Node, i byte) (*Node, error) {
	c, err := u.t.getChild(u.batch, n, i)
	if err != nil || c == nil {
		return c, err
	}
	// Resolved clean child has the same hash, so n itself is not changed.
	n.children[i] = child{state: childNode, node: c}
	return c, nil
}

// insert puts value at path into the subtrie of n. It returns true if
// anything was changed.
func (u *update) insert(n *Node, path []byte, value util.Uint256) (bool, error) {
	if len(path) == 0 {
		if n.leaf && n.value == value {
			return false, nil
		}
		n.setValue(value)
		return true, nil
	}
	i := path[0]
	c, err := u.resolve(n, i)
	if err != nil {
		return false, err
	}
	if c == nil {
		n.setChild(i, newLeaf(path, value))
		return true, nil
	}

	p := compact.CommonPrefix(c.path, path)
	switch {
	case p == len(c.path):
		changed, err := u.insert(c, path[p:], value)
		if err != nil || !changed {
			return false, err
		}
		n.invalidateCache()
	case p == len(path):
		// New key is a proper prefix of the child path.
		mid := newLeaf(path, value)
		c.setPath(c.path[p:])
		mid.setChild(c.path[0], c)
		n.setChild(i, mid)
	default:
		// Paths diverge in the middle of the child path.
		branch := newNode(c.path[:p])
		c.setPath(c.path[p:])
		branch.setChild(c.path[0], c)
		branch.setChild(path[p], newLeaf(path[p:], value))
		n.setChild(i, branch)
	}
	return true, nil
}

// delete removes the value at path from the subtrie of n restoring the
// compact form of the changed children. It returns true if the value was
// there.
func (u *update) delete(n *Node, path []byte) (bool, error) {
	if len(path) == 0 {
		if !n.leaf {
			return false, nil
		}
		n.clearValue()
		return true, nil
	}
	i := path[0]
	c, err := u.resolve(n, i)
	if err != nil || c == nil {
		return false, err
	}
	if !bytes.HasPrefix(path, c.path) {
		return false, nil
	}
	deleted, err := u.delete(c, path[len(c.path):])
	if err != nil || !deleted {
		return false, err
	}
	if !c.leaf {
		switch c.childrenNum() {
		case 0:
			if err := u.release(c.stored); err != nil {
				return false, err
			}
			n.removeChild(i)
		case 1:
			if err := u.merge(c); err != nil {
				return false, err
			}
		}
	}
	n.invalidateCache()
	return true, nil
}

// merge absorbs the only child of valueless n into n.
func (u *update) merge(n *Node) error {
	g, err := u.resolve(n, n.firstChild())
	if err != nil {
		return err
	}
	if err := u.release(g.stored); err != nil {
		return err
	}
	n.path = concatPaths(n.path, g.path)
	n.leaf = g.leaf
	n.value = g.value
	n.children = g.children
	n.invalidateCache()
	return nil
}

// storeNode stores n and all of its resolved descendants replacing them
// with references. It returns the hash of n.
func (u *update) storeNode(n *Node) (util.Uint256, error) {
	for i := range n.children {
		c := &n.children[i]
		if c.state != childNode {
			continue
		}
		h, err := u.storeNode(c.node)
		if err != nil {
			return util.Uint256{}, err
		}
		*c = child{state: childHash, hash: h}
	}
	h := n.Hash()
	if h != n.stored {
		if err := u.acquire(h, n.Bytes()); err != nil {
			return util.Uint256{}, err
		}
		if err := u.release(n.stored); err != nil {
			return util.Uint256{}, err
		}
		n.stored = h
		u.flushed = append(u.flushed, n)
	}
	n.dirty = false
	return h, nil
}

// acquire registers one more reference to the node with hash h writing the
// node if it's new.
func (u *update) acquire(h util.Uint256, data []byte) error {
	if u.t.mode == ModeArchive {
		u.written++
		return u.batch.Put(h[:], data)
	}
	cnt, err := u.getRefCount(h)
	if err != nil {
		return err
	}
	if cnt == 0 {
		if err := u.batch.Put(h[:], data); err != nil {
			return err
		}
		u.written++
	}
	return u.putRefCount(h, cnt+1)
}

// release drops one reference to the node with hash h removing the node
// when there are no more references. Zero hash is ignored.
func (u *update) release(h util.Uint256) error {
	if h.IsZero() || u.t.mode == ModeArchive {
		return nil
	}
	cnt, err := u.getRefCount(h)
	if err != nil {
		return err
	}
	if cnt == 0 {
		u.t.log.Warn("missing node reference counter", zap.Stringer("hash", h))
		cnt = 1
	}
	if cnt > 1 {
		return u.putRefCount(h, cnt-1)
	}
	if err := u.batch.Delete(h[:]); err != nil {
		return err
	}
	u.deleted++
	return u.batch.Delete(makeRefKey(h))
}

func (u *update) getRefCount(h util.Uint256) (uint64, error) {
	data, err := u.batch.Get(makeRefKey(h))
	if err != nil {
		if errors.Is(err, storage.ErrKeyNotFound) {
			return 0, nil
		}
		return 0, err
	}
	cnt, _, err := compact.DecodeVarInt(data)
	if err != nil {
		return 0, fmt.Errorf("%w: bad reference counter for %s: %w", ErrCorrupted, h, err)
	}
	return cnt, nil
}

func (u *update) putRefCount(h util.Uint256, cnt uint64) error {
	data, err := compact.EncodeVarInt(cnt)
	if err != nil {
		return err
	}
	return u.batch.Put(makeRefKey(h), data)
}
