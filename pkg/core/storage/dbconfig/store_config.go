/*
Package dbconfig is a micropackage that contains storage DB configuration options.
*/
package dbconfig

import "errors"

// Supported DB types.
const (
	LevelDB    = "leveldb"
	BoltDB     = "boltdb"
	PebbleDB   = "pebble"
	InMemoryDB = "inmemory"
)

// Supported value compression modes.
const (
	NoCompression  = "none"
	LZ4Compression = "lz4"
)

var (
	// ErrUnknownType is returned for unsupported DB types.
	ErrUnknownType = errors.New("unknown storage")
	// ErrUnknownCompression is returned for unsupported compression modes.
	ErrUnknownCompression = errors.New("unknown compression")
)

type (
	// DBConfiguration describes configuration for DB. Supported types:
	// [LevelDB], [BoltDB], [PebbleDB] or [InMemoryDB] (not recommended for
	// production usage). Values can optionally be compressed with
	// [LZ4Compression].
	DBConfiguration struct {
		Type            string          `yaml:"Type"`
		Compression     string          `yaml:"Compression"`
		LevelDBOptions  LevelDBOptions  `yaml:"LevelDBOptions"`
		BoltDBOptions   BoltDBOptions   `yaml:"BoltDBOptions"`
		PebbleDBOptions PebbleDBOptions `yaml:"PebbleDBOptions"`
	}
	// LevelDBOptions configuration for LevelDB.
	LevelDBOptions struct {
		DataDirectoryPath string `yaml:"DataDirectoryPath"`
		ReadOnly          bool   `yaml:"ReadOnly"`
	}
	// BoltDBOptions configuration for BoltDB.
	BoltDBOptions struct {
		FilePath string `yaml:"FilePath"`
		ReadOnly bool   `yaml:"ReadOnly"`
	}
	// PebbleDBOptions configuration for Pebble.
	PebbleDBOptions struct {
		DataDirectoryPath string `yaml:"DataDirectoryPath"`
		ReadOnly          bool   `yaml:"ReadOnly"`
		// CacheSize is the block cache size in bytes, zero means the
		// Pebble default.
		CacheSize int64 `yaml:"CacheSize"`
	}
)
