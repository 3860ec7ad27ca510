package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/adenium-io/adenium-go/pkg/core/mpt"
	"github.com/adenium-io/adenium-go/pkg/core/storage/dbconfig"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, data string) string {
	path := filepath.Join(t.TempDir(), FileName)
	require.NoError(t, os.WriteFile(path, []byte(data), 0644))
	return path
}

func TestLoad(t *testing.T) {
	cfg, err := Load(filepath.Join("..", "..", "config"))
	require.NoError(t, err)

	app := cfg.ApplicationConfiguration
	require.Equal(t, "info", app.LogLevel)
	require.Equal(t, dbconfig.LevelDB, app.DBConfiguration.Type)
	require.Equal(t, "./chains/index", app.DBConfiguration.LevelDBOptions.DataDirectoryPath)
	require.Equal(t, 4096, app.Trie.CacheSize)
	require.Equal(t, mpt.ModeGC, app.Trie.TrieMode())
	require.False(t, app.Prometheus.Enabled)
	require.Equal(t, []string{":2112"}, app.Prometheus.Addresses)
}

func TestLoadFile_Defaults(t *testing.T) {
	cfg, err := LoadFile(writeConfig(t, ""))
	require.NoError(t, err)
	require.Equal(t, dbconfig.InMemoryDB, cfg.ApplicationConfiguration.DBConfiguration.Type)
	require.Equal(t, mpt.DefaultCacheSize, cfg.ApplicationConfiguration.Trie.CacheSize)

	cfg, err = LoadFile(writeConfig(t, `
ApplicationConfiguration:
  Trie:
    Mode: archive
`))
	require.NoError(t, err)
	require.Equal(t, mpt.ModeArchive, cfg.ApplicationConfiguration.Trie.TrieMode())
	require.Equal(t, mpt.DefaultCacheSize, cfg.ApplicationConfiguration.Trie.CacheSize)
}

func TestLoadFile_Errors(t *testing.T) {
	t.Run("missing", func(t *testing.T) {
		_, err := LoadFile(filepath.Join(t.TempDir(), "nope.yml"))
		require.Error(t, err)
	})
	t.Run("unknown field", func(t *testing.T) {
		_, err := LoadFile(writeConfig(t, "ApplicationConfiguration:\n  Unknown: 1\n"))
		require.Error(t, err)
	})
	t.Run("bad db", func(t *testing.T) {
		_, err := LoadFile(writeConfig(t, "ApplicationConfiguration:\n  DBConfiguration:\n    Type: badger\n"))
		require.ErrorIs(t, err, dbconfig.ErrUnknownType)
	})
	t.Run("bad compression", func(t *testing.T) {
		_, err := LoadFile(writeConfig(t, "ApplicationConfiguration:\n  DBConfiguration:\n    Type: inmemory\n    Compression: zstd\n"))
		require.ErrorIs(t, err, dbconfig.ErrUnknownCompression)
	})
	t.Run("bad mode", func(t *testing.T) {
		_, err := LoadFile(writeConfig(t, "ApplicationConfiguration:\n  Trie:\n    Mode: full\n"))
		require.ErrorIs(t, err, mpt.ErrUnknownMode)
	})
	t.Run("negative cache", func(t *testing.T) {
		_, err := LoadFile(writeConfig(t, "ApplicationConfiguration:\n  Trie:\n    CacheSize: -1\n"))
		require.Error(t, err)
	})
	t.Run("bad log level", func(t *testing.T) {
		_, err := LoadFile(writeConfig(t, "ApplicationConfiguration:\n  LogLevel: loud\n"))
		require.Error(t, err)
	})
	t.Run("prometheus without addresses", func(t *testing.T) {
		_, err := LoadFile(writeConfig(t, "ApplicationConfiguration:\n  Prometheus:\n    Enabled: true\n"))
		require.Error(t, err)
	})
}
