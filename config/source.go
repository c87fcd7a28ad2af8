package config

// SourceConfig describes one configured fetcher: the privilege it runs
// under, and the packs it is permitted to request, mapped to whatever
// resource identifier that fetcher understands (a URI, typically).
type SourceConfig struct {
	User  string            `toml:"user"`
	Group string            `toml:"group"`
	Packs map[string]string `toml:"packs"`
}
