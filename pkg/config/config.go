package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/adenium-io/adenium-go/pkg/core/mpt"
	"github.com/adenium-io/adenium-go/pkg/core/storage/dbconfig"
	"gopkg.in/yaml.v3"
)

const (
	// DefaultConfigPath is the default path to the config directory.
	DefaultConfigPath = "./config"
	// FileName is the name of the config file looked up by Load.
	FileName = "adenium.yml"
)

// Version is the version of the application, set at build time.
var Version string

// Config is the top-level application configuration.
type Config struct {
	ApplicationConfiguration ApplicationConfiguration `yaml:"ApplicationConfiguration"`
}

// Load attempts to load the config from the given directory.
func Load(path string) (Config, error) {
	return LoadFile(filepath.Join(path, FileName))
}

// LoadFile loads config from the provided path.
func LoadFile(configPath string) (Config, error) {
	configData, err := os.ReadFile(configPath)
	if err != nil {
		return Config{}, fmt.Errorf("unable to read config: %w", err)
	}

	config := Config{
		ApplicationConfiguration: ApplicationConfiguration{
			DBConfiguration: dbconfig.DBConfiguration{
				Type: dbconfig.InMemoryDB,
			},
			Trie: TrieConfiguration{
				CacheSize: mpt.DefaultCacheSize,
			},
		},
	}
	decoder := yaml.NewDecoder(bytes.NewReader(configData))
	decoder.KnownFields(true)
	err = decoder.Decode(&config)
	if err != nil && !errors.Is(err, io.EOF) {
		return Config{}, fmt.Errorf("failed to unmarshal config YAML: %w", err)
	}

	err = config.ApplicationConfiguration.Validate()
	if err != nil {
		return Config{}, err
	}
	return config, nil
}
