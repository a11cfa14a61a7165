package commands

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/cskg-labs/cskg/internal/graph"
)

// NewNeighborsCommand creates the neighbors command.
func NewNeighborsCommand() *cobra.Command {
	var (
		direction string
		hops      int
		countOnly bool
	)

	cmd := &cobra.Command{
		Use:   "neighbors NODE",
		Short: "List the neighbors of a node",
		Long: `List the nodes connected to NODE, with the relations that connect them.

Direction selects outgoing edges (out), incoming edges (in), or both.
With --hops 2 the nodes reachable in exactly two hops are listed instead
(out or in only). With --count only the neighbor count is printed: raw edge
counts for out/in, distinct neighbors for both.`,
		Example: `  cskg neighbors /c/en/cat
  cskg neighbors /c/en/cat --direction in
  cskg neighbors /c/en/cat --direction out --hops 2
  cskg neighbors /c/en/cat --direction both --count`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			dir, err := parseDirection(direction)
			if err != nil {
				return err
			}
			if hops != 1 && hops != 2 {
				return fmt.Errorf("%w: --hops must be 1 or 2", graph.ErrInvalidArgument)
			}

			cc, cleanup, err := NewCommandContext(cmd)
			if err != nil {
				return err
			}
			defer cleanup()

			w := cmd.OutOrStdout()
			start := time.Now()

			switch {
			case countOnly:
				n, err := cc.Engine.NeighborCount(cmd.Context(), args[0], dir)
				if err != nil {
					return err
				}
				fmt.Fprintf(w, "%d\n", n)

			case hops == 2:
				reached, err := cc.Engine.TwoHop(cmd.Context(), args[0], dir)
				if err != nil {
					return err
				}
				rows := make([][]string, 0, len(reached))
				for _, r := range reached {
					rows = append(rows, []string{r.ID, r.Label, r.RelationLabel})
				}
				if err := renderRows(w, cc.Cfg.OutputFormat,
					[]string{"node", "label", "relation"}, rows); err != nil {
					return err
				}

			default:
				neighbors, err := cc.Engine.Neighbors(cmd.Context(), args[0], dir)
				if err != nil {
					return err
				}
				rows := make([][]string, 0, len(neighbors))
				for _, n := range neighbors {
					rows = append(rows, []string{
						n.ID, n.Label,
						strings.Join(n.Relations, ", "),
						strings.Join(n.RelationLabels, ", "),
					})
				}
				if err := renderRows(w, cc.Cfg.OutputFormat,
					[]string{"node", "label", "relations", "relation labels"}, rows); err != nil {
					return err
				}
			}

			printElapsed(w, start)
			return nil
		},
	}

	cmd.Flags().StringVarP(&direction, "direction", "d", "out", "Edge direction (out|in|both)")
	cmd.Flags().IntVar(&hops, "hops", 1, "Expansion depth (1 or 2)")
	cmd.Flags().BoolVar(&countOnly, "count", false, "Print only the neighbor count")

	_ = cmd.RegisterFlagCompletionFunc("direction", func(_ *cobra.Command, _ []string, _ string) ([]string, cobra.ShellCompDirective) {
		return []string{"out", "in", "both"}, cobra.ShellCompDirectiveNoFileComp
	})

	return cmd
}

func parseDirection(s string) (graph.Direction, error) {
	switch graph.Direction(s) {
	case graph.DirectionOut, graph.DirectionIn, graph.DirectionBoth:
		return graph.Direction(s), nil
	default:
		return "", fmt.Errorf("%w: unknown direction %q (expected out, in, or both)",
			graph.ErrInvalidArgument, s)
	}
}
