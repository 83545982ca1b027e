package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	settings "github.com/rustyeddy/merton/config"
)

func newConfigCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Generate or validate configuration files",
		Long: `Manage configuration files for simulation runs.

Subcommands:
  init     - Generate a default configuration file
  validate - Validate an existing configuration file

Examples:
  merton config init --output simulation.yaml
  merton config validate --file simulation.yaml`,
	}
	cmd.AddCommand(newConfigInitCmd(), newConfigValidateCmd())
	return cmd
}

func newConfigInitCmd() *cobra.Command {
	var output string

	cmd := &cobra.Command{
		Use:   "init",
		Short: "Generate a default configuration file",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := settings.Default()
			if err := cfg.SaveToFile(output); err != nil {
				return fmt.Errorf("save config: %w", err)
			}

			w := cmd.OutOrStdout()
			fmt.Fprintf(w, "✓ Created default configuration: %s\n", output)
			fmt.Fprintln(w, "\nEdit the file and run with:")
			fmt.Fprintf(w, "  merton --config %s simulate\n", output)
			return nil
		},
	}
	cmd.Flags().StringVarP(&output, "output", "o", "simulation.yaml", "output config file path")
	return cmd
}

func newConfigValidateCmd() *cobra.Command {
	var path string

	cmd := &cobra.Command{
		Use:   "validate",
		Short: "Validate a configuration file",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := settings.LoadFromFile(path)
			if err != nil {
				return fmt.Errorf("validation failed: %w", err)
			}

			w := cmd.OutOrStdout()
			fmt.Fprintf(w, "✓ Configuration valid: %s\n", path)
			if cfg.Portfolio.Homogeneous > 0 {
				fmt.Fprintf(w, "  Portfolio: homogeneous(%d) EAD=%g PD=%g LGD=%g\n",
					cfg.Portfolio.Homogeneous, cfg.Portfolio.EAD, cfg.Portfolio.PD, cfg.Portfolio.LGD)
			} else {
				fmt.Fprintf(w, "  Portfolio: %s\n", cfg.Portfolio.Path)
			}
			fmt.Fprintf(w, "  Simulation: rho=%g scenarios=%d\n", cfg.Simulation.AssetCorr, cfg.Simulation.Scenarios)
			fmt.Fprintf(w, "  Confidence: %v\n", cfg.Risk.Confidence)
			fmt.Fprintf(w, "  Journal: %s\n", cfg.Journal.Type)
			return nil
		},
	}
	cmd.Flags().StringVarP(&path, "file", "f", "", "path to config file (required)")
	_ = cmd.MarkFlagRequired("file")
	return cmd
}
