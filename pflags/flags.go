// Package pflags defines command-line flags shared by placer's binaries, so
// that --config and --log mean the same thing everywhere they appear.
package pflags

import (
	"github.com/spf13/cobra"

	"placer.io/plog"
)

var (
	// ConfigFile is the path to the binary's TOML configuration file.
	ConfigFile string

	// LogLevel is the requested logging level: debug, info, error, or disabled.
	LogLevel = "info"
)

// Register attaches the common persistent flags to cmd. Binaries call this
// once on their root command; subcommands inherit the flags automatically.
func Register(cmd *cobra.Command) {
	cmd.PersistentFlags().StringVarP(&ConfigFile, "config", "c", ConfigFile, "path to configuration file")
	cmd.PersistentFlags().StringVarP(&LogLevel, "log", "l", LogLevel, "level of logging: debug, info, error, disabled")
}

// ApplyLogLevel sets plog's current level from LogLevel. Binaries call this
// after flags have been parsed; cmd/placer does so at the start of its RunE.
func ApplyLogLevel() error {
	return plog.SetLevel(LogLevel)
}
