package config

import (
	"fmt"

	"github.com/adenium-io/adenium-go/pkg/core/mpt"
)

// TrieConfiguration contains trie settings.
type TrieConfiguration struct {
	// CacheSize is the number of decoded nodes kept in memory.
	CacheSize int `yaml:"CacheSize"`
	// Mode is either "gc" (default) or "archive".
	Mode string `yaml:"Mode"`
}

// Validate checks the configuration.
func (t TrieConfiguration) Validate() error {
	if t.CacheSize < 0 {
		return fmt.Errorf("negative CacheSize: %d", t.CacheSize)
	}
	_, err := mpt.ParseMode(t.Mode)
	return err
}

// TrieMode returns the parsed trie mode.
func (t TrieConfiguration) TrieMode() mpt.Mode {
	m, _ := mpt.ParseMode(t.Mode)
	return m
}
