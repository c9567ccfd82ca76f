package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/harrison/janitor/internal/config"
)

// addConfigFlag registers --config on commands that read a configuration.
func addConfigFlag(cmd *cobra.Command) {
	cmd.Flags().String("config", "", "Path to config file (default: $JANITOR_CONFIG, ./janitor.toml, ~/.config/janitor/config.toml)")
}

// configPath picks the configuration file from a positional argument, the
// --config flag or the default search list, in that order.
func configPath(cmd *cobra.Command, args []string) (string, error) {
	flagPath, _ := cmd.Flags().GetString("config")
	if len(args) > 0 && flagPath != "" && args[0] != flagPath {
		return "", fmt.Errorf("config given both as argument (%s) and --config (%s)", args[0], flagPath)
	}
	explicit := flagPath
	if len(args) > 0 {
		explicit = args[0]
	}
	return config.Discover(explicit)
}
