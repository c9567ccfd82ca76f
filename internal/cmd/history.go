package cmd

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"time"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/harrison/janitor/internal/config"
	"github.com/harrison/janitor/internal/journal"
	"github.com/harrison/janitor/internal/models"
)

// NewHistoryCommand creates the 'janitor history' command
func NewHistoryCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "history",
		Short: "Show recently placed files",
		Long: `List recent outcomes recorded in the journal, newest first.

The journal location comes from --journal, then the configuration file, then
the default journal.db in the state directory ($JANITOR_HOME).`,
		Args: cobra.NoArgs,
		RunE: runHistory,
	}

	addConfigFlag(cmd)
	cmd.Flags().String("journal", "", "Path to the journal database")
	cmd.Flags().Int("limit", 20, "Maximum number of outcomes to show")
	cmd.Flags().String("status", "", "Only show outcomes with this status (success, skipped, failed)")
	cmd.Flags().String("run", "", "Only show outcomes from this run ID")

	return cmd
}

func runHistory(cmd *cobra.Command, args []string) error {
	output := cmd.OutOrStdout()

	status, _ := cmd.Flags().GetString("status")
	switch status {
	case "", models.StatusSuccess, models.StatusSkipped, models.StatusFailed:
	default:
		return fmt.Errorf("invalid status %q, must be one of: success, skipped, failed", status)
	}

	dbPath, err := journalPath(cmd)
	if err != nil {
		return err
	}
	if dbPath == "" {
		fmt.Fprintln(output, "The journal is disabled in the configuration.")
		return nil
	}

	// Check if database exists
	if _, err := os.Stat(dbPath); errors.Is(err, fs.ErrNotExist) {
		fmt.Fprintf(output, "No history recorded yet (%s does not exist)\n", dbPath)
		return nil
	}

	store, err := journal.Open(dbPath)
	if err != nil {
		return fmt.Errorf("open journal: %w", err)
	}
	defer store.Close()

	limit, _ := cmd.Flags().GetInt("limit")
	runID, _ := cmd.Flags().GetString("run")
	outcomes, err := store.Recent(cmd.Context(), journal.Query{Limit: limit, Status: status, RunID: runID})
	if err != nil {
		return fmt.Errorf("read journal: %w", err)
	}

	if len(outcomes) == 0 {
		fmt.Fprintln(output, "No matching outcomes found")
		return nil
	}

	printHistory(output, outcomes)

	counts, err := store.Counts(cmd.Context())
	if err != nil {
		return fmt.Errorf("read journal: %w", err)
	}
	fmt.Fprintf(output, "\nTotal recorded: %d placed, %d skipped, %d failed\n",
		counts[models.StatusSuccess], counts[models.StatusSkipped], counts[models.StatusFailed])
	return nil
}

// journalPath resolves the journal location from flags, config or defaults.
func journalPath(cmd *cobra.Command) (string, error) {
	if p, _ := cmd.Flags().GetString("journal"); p != "" {
		return p, nil
	}

	home, err := config.Home()
	if err != nil {
		return "", err
	}

	settings := config.DefaultSettings()
	explicit, _ := cmd.Flags().GetString("config")
	if path, err := config.Discover(explicit); err == nil {
		cfg, err := config.Load(path)
		if err != nil {
			return "", err
		}
		settings = cfg.Settings
	} else if explicit != "" || !errors.Is(err, config.ErrNoConfig) {
		return "", err
	}
	return settings.JournalPath(home), nil
}

// printHistory formats outcomes one per line, newest first.
func printHistory(w io.Writer, outcomes []models.Outcome) {
	green := color.New(color.FgGreen)
	yellow := color.New(color.FgYellow)
	red := color.New(color.FgRed)
	gray := color.New(color.FgHiBlack)

	for _, o := range outcomes {
		gray.Fprintf(w, "%s ", o.Finished.Format(time.DateTime))

		switch o.Status {
		case models.StatusSuccess:
			green.Fprintf(w, "%-8s", o.Action)
		case models.StatusSkipped:
			yellow.Fprintf(w, "%-8s", "skipped")
		default:
			red.Fprintf(w, "%-8s", "failed")
		}

		fmt.Fprintf(w, " %s", o.Source)
		if o.Destination != "" && o.Status == models.StatusSuccess && o.Action != models.ActionDelete {
			fmt.Fprintf(w, " -> %s", o.Destination)
		}
		if o.Bucket != "" {
			fmt.Fprintf(w, " [%s]", o.Bucket)
		}
		if o.Reason != "" {
			gray.Fprintf(w, " (%s)", o.Reason)
		}
		fmt.Fprintln(w)
	}
}
