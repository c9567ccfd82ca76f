package cmd

import (
	"github.com/spf13/cobra"
)

// Version is injected at build time via -ldflags
var Version = "dev"

// NewRootCommand creates and returns the root cobra command for janitor
func NewRootCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "janitor",
		Short: "Route new files into bucket directories by rule",
		Long: `Janitor watches directories for new files and places each one into a
bucket chosen by extension and name rules, moving, copying or deleting it and
resolving name conflicts at the destination.

It runs either as a long-lived watcher or as a one-shot sweep over the files
already present.`,
		Version: Version,
		// Silence usage on errors to avoid duplicate help text
		SilenceUsage: true,
	}

	// Add subcommands
	cmd.AddCommand(NewRunCommand())
	cmd.AddCommand(NewValidateCommand())
	cmd.AddCommand(NewHistoryCommand())

	return cmd
}
