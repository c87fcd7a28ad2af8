package config

// LogConfig describes where and how the coordinator's own log file is
// written.
type LogConfig struct {
	Path  string `toml:"path"`
	User  string `toml:"user"`
	Group string `toml:"group"`
	Mode  string `toml:"mode"`
}

func defaultLogConfig() LogConfig {
	return LogConfig{
		Path:  "/var/log/placer.log",
		User:  "root",
		Group: "root",
		Mode:  "0600",
	}
}

func (l *LogConfig) applyDefaults() {
	d := defaultLogConfig()
	if l.Path == "" {
		l.Path = d.Path
	}
	if l.User == "" {
		l.User = d.User
	}
	if l.Group == "" {
		l.Group = d.Group
	}
	if l.Mode == "" {
		l.Mode = d.Mode
	}
}
