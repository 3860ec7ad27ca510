package mpt

import (
	"github.com/adenium-io/adenium-go/pkg/util"
	lru "github.com/hashicorp/golang-lru/v2"
)

// DefaultCacheSize is the number of decoded nodes kept by NewNodeCache when
// no positive size is given.
const DefaultCacheSize = 4096

// NodeCache is a bounded LRU cache of decoded nodes keyed by their hashes.
// It's safe for concurrent use and can be shared by several tries. Nodes
// are copied on the way in and out, so cached entries are never modified
// by their users.
type NodeCache struct {
	c *lru.Cache[util.Uint256, *Node]
}

// NewNodeCache creates a cache holding at most size nodes.
func NewNodeCache(size int) *NodeCache {
	if size <= 0 {
		size = DefaultCacheSize
	}
	// Only fails for non-positive sizes.
	c, _ := lru.New[util.Uint256, *Node](size)
	return &NodeCache{c: c}
}

// Get returns a private copy of the cached node.
func (c *NodeCache) Get(h util.Uint256) (*Node, bool) {
	n, ok := c.c.Get(h)
	if !ok {
		cacheMisses.Inc()
		return nil, false
	}
	cacheHits.Inc()
	return n.clone(), true
}

// Add puts a copy of the clean node n into the cache.
func (c *NodeCache) Add(h util.Uint256, n *Node) {
	c.c.Add(h, n.clone())
}

// Len returns the number of cached nodes.
func (c *NodeCache) Len() int {
	return c.c.Len()
}

// Purge drops all cached nodes.
func (c *NodeCache) Purge() {
	c.c.Purge()
}
