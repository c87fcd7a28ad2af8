package config

// FileConfig describes one host path placer manages: which pack it
// belongs to, the ownership and mode it should carry, and the hooks run
// before and after it is placed.
type FileConfig struct {
	Pack        string                `toml:"pack"`
	User        string                `toml:"user"`
	Group       string                `toml:"group"`
	Mode        string                `toml:"mode"`
	BeforeHooks map[string]HookConfig `toml:"before-hook"`
	AfterHooks  map[string]HookConfig `toml:"after-hook"`
}

// HookConfig describes one hook program: the privilege it runs under and
// the arguments it is invoked with (with the placeholder "%f" substituted
// for the path being placed).
type HookConfig struct {
	User  string   `toml:"user"`
	Group string   `toml:"group"`
	Args  []string `toml:"args"`
}
