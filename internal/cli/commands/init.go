package commands

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/cskg-labs/cskg/internal/cli/config"
)

// NewInitCommand creates the init command.
func NewInitCommand() *cobra.Command {
	var force bool

	cmd := &cobra.Command{
		Use:   "init [directory]",
		Short: "Initialize a cskg configuration",
		Long: `Write a starter cskg.yaml with the default sqlite backend. Edit it to
point at a different database file or a Postgres instance.`,
		Example: `  # Initialize in current directory
  cskg init

  # Initialize in a new directory
  cskg init my-graph

  # Force overwrite existing config
  cskg init --force`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			dir := "."
			if len(args) > 0 {
				dir = args[0]
				if err := os.MkdirAll(dir, 0750); err != nil {
					return fmt.Errorf("failed to create directory %s: %w", dir, err)
				}
			}

			configPath := filepath.Join(dir, "cskg.yaml")
			if _, err := os.Stat(configPath); err == nil && !force {
				return fmt.Errorf("cskg.yaml already exists. Use --force to overwrite")
			}

			starter := map[string]string{
				"driver": config.DefaultDriver,
				"dsn":    config.DefaultDSN,
				"output": config.DefaultOutput,
			}
			data, err := yaml.Marshal(starter)
			if err != nil {
				return fmt.Errorf("failed to render config: %w", err)
			}
			if err := os.WriteFile(configPath, data, 0644); err != nil {
				return fmt.Errorf("failed to write %s: %w", configPath, err)
			}

			w := cmd.OutOrStdout()
			fmt.Fprintf(w, "Wrote %s\n", configPath)
			fmt.Fprintln(w, "")
			fmt.Fprintln(w, "Next steps:")
			fmt.Fprintln(w, "  1. Run 'cskg load FILE' to import a TSV dump")
			fmt.Fprintln(w, "  2. Run 'cskg stats' to inspect the graph")
			return nil
		},
	}

	cmd.Flags().BoolVar(&force, "force", false, "Overwrite existing configuration")

	return cmd
}
