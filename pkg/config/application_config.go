package config

import (
	"errors"
	"fmt"

	"github.com/adenium-io/adenium-go/pkg/core/storage/dbconfig"
	"go.uber.org/zap/zapcore"
)

// ApplicationConfiguration is the application-specific part of the config.
type ApplicationConfiguration struct {
	LogLevel        string                   `yaml:"LogLevel"`
	LogPath         string                   `yaml:"LogPath"`
	DBConfiguration dbconfig.DBConfiguration `yaml:"DBConfiguration"`
	Trie            TrieConfiguration        `yaml:"Trie"`
	Prometheus      BasicService             `yaml:"Prometheus"`
}

// Validate checks ApplicationConfiguration for internal consistency and returns
// an error if any invalid settings are found.
func (a *ApplicationConfiguration) Validate() error {
	if len(a.LogLevel) > 0 {
		if _, err := zapcore.ParseLevel(a.LogLevel); err != nil {
			return fmt.Errorf("invalid LogLevel: %w", err)
		}
	}
	switch a.DBConfiguration.Type {
	case dbconfig.InMemoryDB, dbconfig.LevelDB, dbconfig.BoltDB, dbconfig.PebbleDB:
	default:
		return fmt.Errorf("%w: %q", dbconfig.ErrUnknownType, a.DBConfiguration.Type)
	}
	switch a.DBConfiguration.Compression {
	case "", dbconfig.NoCompression, dbconfig.LZ4Compression:
	default:
		return fmt.Errorf("%w: %q", dbconfig.ErrUnknownCompression, a.DBConfiguration.Compression)
	}
	if err := a.Trie.Validate(); err != nil {
		return fmt.Errorf("invalid Trie configuration: %w", err)
	}
	if a.Prometheus.Enabled && len(a.Prometheus.Addresses) == 0 {
		return errors.New("no addresses for enabled Prometheus service")
	}
	return nil
}
