package commands

import (
	"strconv"
	"time"

	"github.com/spf13/cobra"
)

// NewHubsCommand creates the hubs command.
func NewHubsCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "hubs",
		Short: "Show the most connected nodes",
		Long: `List every node tied at the maximum combined degree. Degree is the
number of distinct out-neighbors plus the number of distinct in-neighbors,
counted independently per direction.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cc, cleanup, err := NewCommandContext(cmd)
			if err != nil {
				return err
			}
			defer cleanup()

			w := cmd.OutOrStdout()
			start := time.Now()

			ranked, err := cc.Engine.MaxDegreeNodes(cmd.Context())
			if err != nil {
				return err
			}

			rows := make([][]string, 0, len(ranked))
			for _, r := range ranked {
				rows = append(rows, []string{r.ID, r.Label, strconv.FormatInt(r.Degree, 10)})
			}
			if err := renderRows(w, cc.Cfg.OutputFormat, []string{"node", "label", "degree"}, rows); err != nil {
				return err
			}

			printElapsed(w, start)
			return nil
		},
	}
}
