package mpt

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/require"
)

func TestNodeCache(t *testing.T) {
	c := NewNodeCache(2)
	nodes := []*Node{
		newLeaf([]byte{1}, testValue("1")),
		newLeaf([]byte{2}, testValue("2")),
		newLeaf([]byte{3}, testValue("3")),
	}

	hits, misses := testutil.ToFloat64(cacheHits), testutil.ToFloat64(cacheMisses)
	_, ok := c.Get(nodes[0].Hash())
	require.False(t, ok)
	require.Equal(t, misses+1, testutil.ToFloat64(cacheMisses))

	for _, n := range nodes {
		c.Add(n.Hash(), n)
	}
	require.Equal(t, 2, c.Len())
	// The oldest one is evicted.
	_, ok = c.Get(nodes[0].Hash())
	require.False(t, ok)

	got, ok := c.Get(nodes[2].Hash())
	require.True(t, ok)
	require.Equal(t, hits+1, testutil.ToFloat64(cacheHits))
	require.Equal(t, nodes[2].Hash(), got.Hash())

	// Returned nodes are private copies.
	got.setValue(testValue("changed"))
	again, ok := c.Get(nodes[2].Hash())
	require.True(t, ok)
	require.Equal(t, testValue("3"), again.value)

	c.Purge()
	require.Equal(t, 0, c.Len())
}

func TestNodeCache_DefaultSize(t *testing.T) {
	c := NewNodeCache(0)
	for i := 0; i < DefaultCacheSize+10; i++ {
		n := newLeaf([]byte{byte(i % 16)}, testValue(string(rune(i))))
		c.Add(n.Hash(), n)
	}
	require.Equal(t, DefaultCacheSize, c.Len())
}

func TestTrie_SharedCache(t *testing.T) {
	tr := newTestTrie(t, ModeArchive)
	require.NoError(t, tr.Insert([]byte("cat"), testValue("cat")))

	// Second trie sees nodes through the shared cache and the store.
	other := NewTrie(tr.Root(), Config{Store: tr.Store, Cache: tr.cache, Mode: ModeArchive})
	hits := testutil.ToFloat64(cacheHits)
	other.testHas(t, []byte("cat"), testValue("cat"))
	require.Greater(t, testutil.ToFloat64(cacheHits), hits)

	require.NoError(t, other.Insert([]byte("dog"), testValue("dog")))
	require.NotEqual(t, tr.Root(), other.Root())
	tr.testHasNot(t, []byte("dog"))
}
