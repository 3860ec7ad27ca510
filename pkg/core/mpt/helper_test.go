package mpt

import (
	"errors"
	"testing"

	"github.com/adenium-io/adenium-go/pkg/core/storage"
	"github.com/adenium-io/adenium-go/pkg/crypto/hash"
	"github.com/adenium-io/adenium-go/pkg/encoding/compact"
	"github.com/adenium-io/adenium-go/pkg/util"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

func newTestTrie(t *testing.T, mode Mode) *Trie {
	return NewTrie(util.Uint256{}, Config{
		Store:  storage.NewMemoryStore(),
		Mode:   mode,
		Logger: zaptest.NewLogger(t),
	})
}

func testValue(s string) util.Uint256 {
	return hash.Keccak256([]byte(s))
}

// loadNode reads the node directly from the trie store.
func loadNode(t *testing.T, tr *Trie, h util.Uint256) *Node {
	data, err := tr.Store.Get(h[:])
	require.NoError(t, err)
	require.Equal(t, h, hash.Keccak256(data))
	n, err := DecodeNode(data)
	require.NoError(t, err)
	return n
}

func (tr *Trie) testHas(t *testing.T, key []byte, value util.Uint256) {
	v, ok, err := tr.Search(key)
	require.NoError(t, err)
	require.True(t, ok, "key %q", key)
	require.Equal(t, value, v)
}

func (tr *Trie) testHasNot(t *testing.T, key []byte) {
	_, ok, err := tr.Search(key)
	require.NoError(t, err)
	require.False(t, ok, "key %q", key)
}

// checkTrie verifies that every node reachable from the root is persisted
// in the compact form. In ModeGC it also checks that the store contains
// only reachable nodes with reference counters matching the number of
// their occurrences.
func checkTrie(t *testing.T, tr *Trie) {
	occ := make(map[util.Uint256]int)
	var visit func(h util.Uint256, isRoot bool)
	visit = func(h util.Uint256, isRoot bool) {
		occ[h]++
		n := loadNode(t, tr, h)
		if isRoot {
			require.Empty(t, n.path)
			require.False(t, n.leaf)
		} else {
			require.NotEmpty(t, n.path)
			require.False(t, !n.leaf && n.childrenNum() < 2, "non-compact node %s", n)
		}
		for i := range n.children {
			if n.children[i].state == childHash {
				visit(n.children[i].hash, false)
			}
		}
	}
	if root := tr.Root(); !root.IsZero() {
		visit(root, true)
	}
	if tr.Mode() != ModeGC {
		return
	}

	var nodes, refs int
	tr.Store.Seek(storage.SeekRange{}, func(k, v []byte) bool {
		switch len(k) {
		case util.Uint256Size:
			h, err := util.Uint256DecodeBytes(k)
			assert.NoError(t, err)
			assert.Contains(t, occ, h, "unreachable node %s", h)
			nodes++
		case util.Uint256Size + 1:
			assert.Equal(t, byte(refPrefix), k[0])
			h, err := util.Uint256DecodeBytes(k[1:])
			assert.NoError(t, err)
			cnt, _, err := compact.DecodeVarInt(v)
			assert.NoError(t, err)
			assert.Equal(t, uint64(occ[h]), cnt, "counter for %s", h)
			refs++
		default:
			t.Errorf("unexpected key %x", k)
		}
		return true
	})
	require.Equal(t, len(occ), nodes)
	require.Equal(t, len(occ), refs)
}

var errTestBackend = errors.New("backend failure")

// faultyStore fails the configured operations.
type faultyStore struct {
	*storage.MemoryStore

	failPut bool
	failGet bool
}

func newFaultyStore() *faultyStore {
	return &faultyStore{MemoryStore: storage.NewMemoryStore()}
}

func (s *faultyStore) Get(key []byte) ([]byte, error) {
	if s.failGet {
		return nil, errTestBackend
	}
	return s.MemoryStore.Get(key)
}

func (s *faultyStore) PutChangeSet(puts map[string][]byte) error {
	if s.failPut {
		return errTestBackend
	}
	return s.MemoryStore.PutChangeSet(puts)
}
