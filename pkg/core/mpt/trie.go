package mpt

import (
	"bytes"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/adenium-io/adenium-go/pkg/core/storage"
	"github.com/adenium-io/adenium-go/pkg/encoding/compact"
	"github.com/adenium-io/adenium-go/pkg/util"
	"go.uber.org/zap"
)

// Mode defines how the trie treats nodes that are no longer reachable from
// the current root.
type Mode byte

const (
	// ModeGC keeps reference counters for persisted nodes and removes nodes
	// once nothing refers to them.
	ModeGC Mode = iota
	// ModeArchive never removes nodes, so every root ever committed stays
	// readable.
	ModeArchive
)

var (
	// ErrEmptyKey is returned on attempt to insert an empty key.
	ErrEmptyKey = errors.New("empty key")
	// ErrNotFound is returned when requested trie item is missing.
	ErrNotFound = errors.New("item not found")
	// ErrCorrupted is returned when a node can't be loaded from the store
	// or its contents are invalid.
	ErrCorrupted = errors.New("trie storage is corrupted")
	// ErrUnknownMode is returned by ParseMode for unsupported modes.
	ErrUnknownMode = errors.New("unknown trie mode")
)

// String implements fmt.Stringer.
func (m Mode) String() string {
	switch m {
	case ModeGC:
		return "gc"
	case ModeArchive:
		return "archive"
	default:
		return fmt.Sprintf("mode(%d)", byte(m))
	}
}

// ParseMode converts mode name to Mode, an empty name means ModeGC.
func ParseMode(s string) (Mode, error) {
	switch strings.ToLower(s) {
	case "", "gc":
		return ModeGC, nil
	case "archive":
		return ModeArchive, nil
	default:
		return 0, fmt.Errorf("%w: %s", ErrUnknownMode, s)
	}
}

// Config contains trie dependencies and settings.
type Config struct {
	// Store keeps nodes (and reference counters in ModeGC).
	Store storage.Store
	// Cache is an optional shared decoded node cache, a private one is
	// created if it's nil.
	Cache *NodeCache
	Mode  Mode
	// Logger is optional.
	Logger *zap.Logger
}

// Trie is a Merkle-Patricia radix trie mapping byte string keys to 32-byte
// values. It's safe for concurrent use, mutations are serialized and every
// successful mutation is atomically persisted into the Store.
type Trie struct {
	Store storage.Store

	mode  Mode
	cache *NodeCache
	log   *zap.Logger

	lock sync.RWMutex
	root util.Uint256
}

// NewTrie returns a trie with the given root, zero root means an empty trie.
func NewTrie(root util.Uint256, cfg Config) *Trie {
	if cfg.Cache == nil {
		cfg.Cache = NewNodeCache(DefaultCacheSize)
	}
	if cfg.Logger == nil {
		cfg.Logger = zap.NewNop()
	}
	return &Trie{
		Store: cfg.Store,
		mode:  cfg.Mode,
		cache: cfg.Cache,
		log:   cfg.Logger,
		root:  root,
	}
}

// Root returns current root hash, zero for an empty trie.
func (t *Trie) Root() util.Uint256 {
	t.lock.RLock()
	defer t.lock.RUnlock()
	return t.root
}

// Mode returns trie mode.
func (t *Trie) Mode() Mode {
	return t.mode
}

// Search returns the value stored for the key. An empty key is never found.
// It never modifies the trie.
func (t *Trie) Search(key []byte) (util.Uint256, bool, error) {
	t.lock.RLock()
	defer t.lock.RUnlock()

	n, err := t.lookup(key, nil)
	if err != nil || n == nil || !n.leaf {
		return util.Uint256{}, false, err
	}
	return n.value, true, nil
}

// Insert sets the value for the key. Setting the value a key already has
// changes nothing.
func (t *Trie) Insert(key []byte, value util.Uint256) error {
	if len(key) == 0 {
		return ErrEmptyKey
	}
	t.lock.Lock()
	defer t.lock.Unlock()

	u := t.newUpdate()
	root, err := u.getRoot()
	if err != nil {
		return err
	}
	changed, err := u.insert(root, compact.ToNibbles(key), value)
	if err != nil || !changed {
		return err
	}
	return t.commit(u, root)
}

// Delete removes the key from the trie and tells whether it was present.
func (t *Trie) Delete(key []byte) (bool, error) {
	if len(key) == 0 {
		return false, nil
	}
	t.lock.Lock()
	defer t.lock.Unlock()

	if t.root.IsZero() {
		return false, nil
	}
	u := t.newUpdate()
	root, err := u.getRoot()
	if err != nil {
		return false, err
	}
	deleted, err := u.delete(root, compact.ToNibbles(key))
	if err != nil || !deleted {
		return false, err
	}
	if err := t.commit(u, root); err != nil {
		return false, err
	}
	return true, nil
}

// lookup descends from the root along the key and returns the node exactly
// at the key path if there is one. visit is called for every node on the
// way including the last one.
func (t *Trie) lookup(key []byte, visit func(*Node)) (*Node, error) {
	if len(key) == 0 || t.root.IsZero() {
		return nil, nil
	}
	n, err := t.getFromStore(t.Store, t.root)
	if err != nil {
		return nil, err
	}
	path := compact.ToNibbles(key)
	for {
		if visit != nil {
			visit(n)
		}
		if len(path) == 0 {
			return n, nil
		}
		i := path[0]
		if !n.HasChild(i) {
			return nil, nil
		}
		n, err = t.getChild(t.Store, n, i)
		if err != nil {
			return nil, err
		}
		if !bytes.HasPrefix(path, n.path) {
			return nil, nil
		}
		path = path[len(n.path):]
	}
}

// getChild returns the i-th child of n loading it from s if needed. It
// returns nil if there is no such child.
func (t *Trie) getChild(s storage.Store, n *Node, i byte) (*Node, error) {
	c := &n.children[i]
	switch c.state {
	case childNode:
		return c.node, nil
	case childHash:
		res, err := t.getFromStore(s, c.hash)
		if err != nil {
			return nil, err
		}
		if len(res.path) == 0 || res.path[0] != i {
			return nil, fmt.Errorf("%w: node %s is misplaced", ErrCorrupted, c.hash.StringShort())
		}
		return res, nil
	default:
		return nil, nil
	}
}

// getFromStore returns a private copy of the node with the given hash,
// trying the cache first.
func (t *Trie) getFromStore(s storage.Store, h util.Uint256) (*Node, error) {
	if n, ok := t.cache.Get(h); ok {
		return n, nil
	}
	data, err := s.Get(h[:])
	if err != nil {
		if errors.Is(err, storage.ErrKeyNotFound) {
			return nil, fmt.Errorf("%w: node %s is missing", ErrCorrupted, h)
		}
		return nil, err
	}
	n, err := DecodeNode(data)
	if err != nil {
		return nil, fmt.Errorf("%w: can't decode node %s: %w", ErrCorrupted, h, err)
	}
	n.setCache(data, h)
	t.cache.Add(h, n)
	return n, nil
}

// commit stores all changed nodes reachable from root, persists the batch
// and only then makes the new root current.
func (t *Trie) commit(u *update, root *Node) error {
	var (
		h   util.Uint256
		err error
	)
	if root.isEmpty() {
		err = u.release(root.stored)
	} else {
		h, err = u.storeNode(root)
	}
	if err != nil {
		return err
	}
	if _, err := u.batch.Persist(); err != nil {
		return fmt.Errorf("failed to persist trie changes: %w", err)
	}
	for _, n := range u.flushed {
		t.cache.Add(n.stored, n)
	}
	t.log.Debug("trie root updated",
		zap.Stringer("old", t.root),
		zap.Stringer("new", h),
		zap.Int("written", u.written),
		zap.Int("deleted", u.deleted))
	t.root = h
	updateCommitMetrics(u.written, u.deleted)
	return nil
}
