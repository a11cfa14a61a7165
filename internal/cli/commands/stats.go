package commands

import (
	"strconv"
	"time"

	"github.com/spf13/cobra"
)

// NewStatsCommand creates the stats command.
func NewStatsCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "stats",
		Short: "Show graph-wide connectivity statistics",
		Long: `Report the total node count, the number of source nodes (no outgoing
edges), the number of sink nodes (no incoming edges), and the number of
nodes that appear exactly once as an edge endpoint.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cc, cleanup, err := NewCommandContext(cmd)
			if err != nil {
				return err
			}
			defer cleanup()

			w := cmd.OutOrStdout()
			start := time.Now()

			stats, err := cc.Engine.Stats(cmd.Context())
			if err != nil {
				return err
			}

			rows := [][]string{
				{"total nodes", strconv.FormatInt(stats.TotalNodes, 10)},
				{"sources (no outgoing edges)", strconv.FormatInt(stats.Sources, 10)},
				{"sinks (no incoming edges)", strconv.FormatInt(stats.Sinks, 10)},
				{"degree-one nodes", strconv.FormatInt(stats.DegreeOne, 10)},
			}
			if err := renderRows(w, cc.Cfg.OutputFormat, []string{"metric", "value"}, rows); err != nil {
				return err
			}

			printElapsed(w, start)
			return nil
		},
	}
}
