package runs

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	settings "github.com/rustyeddy/merton/config"
	"github.com/rustyeddy/merton/internal/cli/config"
	"github.com/rustyeddy/merton/internal/report"
	"github.com/rustyeddy/merton/journal"
)

func New(rc *config.RootConfig) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "runs",
		Short: "Inspect runs recorded in the SQLite journal",
	}
	cmd.AddCommand(newListCmd(rc), newShowCmd(rc))
	return cmd
}

func newListCmd(rc *config.RootConfig) *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List recent runs",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			j, err := open(cmd, rc)
			if err != nil {
				return err
			}
			defer j.Close()

			runs, err := j.ListRuns(cmd.Context(), limit)
			if err != nil {
				return fmt.Errorf("list runs: %w", err)
			}
			report.PrintRuns(cmd.OutOrStdout(), runs, report.Style(rc.NoColor))
			return nil
		},
	}
	cmd.Flags().IntVar(&limit, "limit", 20, "Maximum number of runs (0 = all)")
	return cmd
}

func newShowCmd(rc *config.RootConfig) *cobra.Command {
	var scenarios int

	cmd := &cobra.Command{
		Use:   "show <run-id>",
		Short: "Show one run and its tail measures",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			j, err := open(cmd, rc)
			if err != nil {
				return err
			}
			defer j.Close()

			ctx := cmd.Context()
			run, err := j.GetRun(ctx, args[0])
			if err != nil {
				return err
			}

			var rows []journal.ScenarioRecord
			if scenarios > 0 {
				rows, err = j.ListScenarios(ctx, run.RunID)
				if err != nil {
					return fmt.Errorf("list scenarios: %w", err)
				}
				rows = rows[:min(scenarios, len(rows))]
			}

			style := report.Style(rc.NoColor)
			report.PrintRun(cmd.OutOrStdout(), run, style)
			if len(rows) > 0 {
				report.PrintScenarios(cmd.OutOrStdout(), rows, style)
			}
			return nil
		},
	}
	cmd.Flags().IntVar(&scenarios, "scenarios", 0, "Also print the first N scenarios")
	return cmd
}

// open resolves the database from --db, or the config file when --db is unset.
func open(cmd *cobra.Command, rc *config.RootConfig) (*journal.SQLite, error) {
	path := rc.DBPath
	if rc.ConfigPath != "" && !cmd.Flags().Changed("db") {
		cfg, err := settings.LoadFromFile(rc.ConfigPath)
		if err != nil {
			return nil, fmt.Errorf("load config: %w", err)
		}
		if cfg.Journal.DBPath != "" {
			path = cfg.Journal.DBPath
		}
	}

	// NewSQLite would create an empty database.
	if _, err := os.Stat(path); err != nil {
		return nil, fmt.Errorf("open journal: %w", err)
	}
	return journal.NewSQLite(path)
}
