package cmd

import (
	"fmt"
	"io"
	"strings"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/harrison/janitor/internal/config"
	"github.com/harrison/janitor/internal/display"
	"github.com/harrison/janitor/internal/models"
)

// NewValidateCommand creates and returns the validate subcommand
func NewValidateCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "validate [config-file]",
		Short: "Validate a configuration file",
		Long: `Load and validate a configuration file, checking for:
  - Unknown or duplicate bucket names
  - Watches referring to buckets that do not exist
  - Malformed name filters and ignore patterns
  - Unknown actions, override actions and recursive modes
  - Invalid durations and settings

A valid configuration is printed as janitor understands it, followed by
warnings for setups that are legal but probably unintended.

Exit code: 0 if valid, 1 if errors found`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path, err := configPath(cmd, args)
			if err != nil {
				return err
			}
			return validateConfig(path, cmd.OutOrStdout())
		},
	}

	addConfigFlag(cmd)
	return cmd
}

// validateConfig loads path and prints the resolved configuration.
func validateConfig(path string, out io.Writer) error {
	cfg, err := config.Load(path)
	if err != nil {
		return err
	}

	green := color.New(color.FgGreen)
	cyan := color.New(color.FgCyan, color.Bold)

	green.Fprintf(out, "Configuration %s is valid\n", cfg.Path)
	printSettings(out, cfg.Settings)

	for _, w := range cfg.Watches {
		cyan.Fprintf(out, "\nWatch %s (%s)\n", w.Path, w.Mode())
		if len(w.Ignore) > 0 {
			fmt.Fprintf(out, "  ignore: %s\n", strings.Join(w.Ignore, ", "))
		}
		for i, b := range w.Buckets {
			fmt.Fprintf(out, "  %d. %s\n", i+1, describeBucket(b))
		}
	}

	warnings := display.Lint(cfg.Watches, cfg.Buckets)
	if len(warnings) > 0 {
		fmt.Fprintln(out)
	}
	for _, w := range warnings {
		w.Display(out)
	}
	return nil
}

func printSettings(out io.Writer, s config.Settings) {
	fmt.Fprintf(out, "  workers: %d\n", s.Workers)
	fmt.Fprintf(out, "  stabilize: %s quiet, %s max\n", s.StabilizeInterval, s.StabilizeMaxWait)
	fmt.Fprintf(out, "  log level: %s\n", s.LogLevel)
	journal := s.Journal
	if journal == "" {
		journal = "disabled"
	}
	fmt.Fprintf(out, "  journal: %s\n", journal)
}

// describeBucket renders one bucket on a single line.
func describeBucket(b *models.Bucket) string {
	var filters []string
	if len(b.ExtensionFilters) > 0 {
		filters = append(filters, "ext "+strings.Join(b.ExtensionFilters, ","))
	}
	if len(b.NamePatterns) > 0 {
		filters = append(filters, "name "+strings.Join(b.NamePatterns, " "))
	}
	if len(filters) == 0 {
		filters = append(filters, "no filters")
	}

	target := b.Destination
	if b.Action == models.ActionDelete {
		target = "(delete)"
	}
	return fmt.Sprintf("%s [priority %d] %s %s, on conflict %s; %s",
		b.Name, b.Priority, b.Action, target, b.OverrideAction, strings.Join(filters, "; "))
}
