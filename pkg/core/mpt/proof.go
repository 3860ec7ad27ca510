package mpt

import (
	"bytes"

	"github.com/adenium-io/adenium-go/pkg/core/storage"
	"github.com/adenium-io/adenium-go/pkg/crypto/hash"
	"github.com/adenium-io/adenium-go/pkg/util"
)

// GetProof returns a proof that key belongs to t.
// Proof consist of serialized nodes occurring on path from the root to the
// node holding the key value.
func (t *Trie) GetProof(key []byte) ([][]byte, error) {
	t.lock.RLock()
	defer t.lock.RUnlock()

	var proof [][]byte
	n, err := t.lookup(key, func(n *Node) {
		proof = append(proof, bytes.Clone(n.Bytes()))
	})
	if err != nil {
		return nil, err
	}
	if n == nil || !n.leaf {
		return nil, ErrNotFound
	}
	return proof, nil
}

// VerifyProof verifies that key indeed belongs to a trie with the specified
// root hash. It also returns value for the key.
func VerifyProof(rh util.Uint256, key []byte, proof [][]byte) (util.Uint256, bool) {
	st := storage.NewMemoryStore()
	for i := range proof {
		h := hash.Keccak256(proof[i])
		// no errors in Put to memory store
		_ = st.Put(h[:], proof[i])
	}
	tr := NewTrie(rh, Config{Store: st, Cache: NewNodeCache(len(proof) + 1)})
	v, ok, err := tr.Search(key)
	return v, ok && err == nil
}
