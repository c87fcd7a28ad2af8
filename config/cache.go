package config

// CacheConfig describes the directory placer would use for an on-disk
// pack cache. The schema is validated but not yet wired to any caching
// behavior; see DESIGN.md.
type CacheConfig struct {
	Path  string `toml:"path"`
	User  string `toml:"user"`
	Group string `toml:"group"`
	Mode  string `toml:"mode"`
}

func defaultCacheConfig() CacheConfig {
	return CacheConfig{
		Path:  "/var/cache/placer",
		User:  "root",
		Group: "root",
		Mode:  "0600",
	}
}

func (c *CacheConfig) applyDefaults() {
	d := defaultCacheConfig()
	if c.Path == "" {
		c.Path = d.Path
	}
	if c.User == "" {
		c.User = d.User
	}
	if c.Group == "" {
		c.Group = d.Group
	}
	if c.Mode == "" {
		c.Mode = d.Mode
	}
}
