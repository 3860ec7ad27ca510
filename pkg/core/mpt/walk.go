package mpt

import (
	"github.com/adenium-io/adenium-go/pkg/encoding/compact"
	"github.com/adenium-io/adenium-go/pkg/util"
)

// Walk calls f for every key-value pair of the trie in ascending key order
// until f returns false.
func (t *Trie) Walk(f func(key []byte, value util.Uint256) bool) error {
	t.lock.RLock()
	defer t.lock.RUnlock()

	if t.root.IsZero() {
		return nil
	}
	root, err := t.getFromStore(t.Store, t.root)
	if err != nil {
		return err
	}
	_, err = t.walk(root, nil, f)
	return err
}

func (t *Trie) walk(n *Node, prefix []byte, f func([]byte, util.Uint256) bool) (bool, error) {
	path := concatPaths(prefix, n.path)
	if n.leaf && !f(compact.FromNibbles(path), n.value) {
		return false, nil
	}
	for i := range n.children {
		if !n.HasChild(byte(i)) {
			continue
		}
		c, err := t.getChild(t.Store, n, byte(i))
		if err != nil {
			return false, err
		}
		if cont, err := t.walk(c, path, f); err != nil || !cont {
			return false, err
		}
	}
	return true, nil
}

// Len returns the number of keys in the trie.
func (t *Trie) Len() (int, error) {
	var cnt int
	err := t.Walk(func([]byte, util.Uint256) bool {
		cnt++
		return true
	})
	return cnt, err
}
