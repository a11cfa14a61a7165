package commands

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"
)

// NewPathCommand creates the path command.
func NewPathCommand() *cobra.Command {
	var (
		maxDepth  int
		relations []string
	)

	cmd := &cobra.Command{
		Use:   "path SOURCE TARGET",
		Short: "Find the shortest path between two nodes",
		Long: `Find a minimum-hop path between SOURCE and TARGET, following edges in
either direction but only through whitelisted relations. The default
whitelist covers the common taxonomic relations; override it with
--relations.`,
		Example: `  cskg path /c/en/cat /c/en/dog
  cskg path /c/en/cat /c/en/engine --max-depth 6
  cskg path /c/en/cat /c/en/dog --relations /r/IsA,/r/RelatedTo`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			cc, cleanup, err := NewCommandContext(cmd)
			if err != nil {
				return err
			}
			defer cleanup()

			w := cmd.OutOrStdout()
			start := time.Now()

			path, err := cc.Engine.ShortestPath(cmd.Context(), args[0], args[1], maxDepth, relations)
			if err != nil {
				return err
			}

			if path == nil {
				fmt.Fprintf(w, "No path found between %s and %s within %d hops\n",
					args[0], args[1], maxDepth)
			} else if resolveFormat(cc.Cfg.OutputFormat) == "json" {
				if err := renderJSON(w, path); err != nil {
					return err
				}
			} else {
				fmt.Fprintf(w, "%s (%d hops)\n", strings.Join(path.Labels, " -> "), path.Hops)
				fmt.Fprintln(w, strings.Join(path.Nodes, " -> "))
			}

			printElapsed(w, start)
			return nil
		},
	}

	cmd.Flags().IntVar(&maxDepth, "max-depth", 10, "Maximum number of hops to search")
	cmd.Flags().StringSliceVar(&relations, "relations", nil, "Relation whitelist (default: common taxonomic relations)")

	return cmd
}
