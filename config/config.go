// Package config loads and validates the host configuration file: the
// source list, target file table, and the logging/cache/quarantine
// directories placer manages alongside them.
package config

import (
	"bytes"
	"os"

	"github.com/pelletier/go-toml/v2"

	"placer.io/perrors"
)

// Config is the top-level shape of a host configuration file.
type Config struct {
	Keyrings   string                  `toml:"keyrings"`
	Sources    map[string]SourceConfig `toml:"sources"`
	Log        LogConfig               `toml:"log"`
	Cache      CacheConfig             `toml:"cache"`
	Quarantine QuarantineConfig        `toml:"quarantine"`
	Files      map[string]FileConfig   `toml:"files"`
}

// Load reads and strictly decodes the host configuration file at path,
// filling in documented defaults for the log/cache/quarantine sections.
func Load(path string) (*Config, error) {
	const op = "config.Load"

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, perrors.E(op, path, perrors.Io, err)
	}

	cfg := Config{
		Log:        defaultLogConfig(),
		Cache:      defaultCacheConfig(),
		Quarantine: defaultQuarantineConfig(),
	}

	dec := toml.NewDecoder(bytes.NewReader(data))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&cfg); err != nil {
		return nil, perrors.E(op, path, perrors.Config, err)
	}

	cfg.Log.applyDefaults()
	cfg.Cache.applyDefaults()
	cfg.Quarantine.applyDefaults()

	return &cfg, nil
}
